package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditSeverity grades audit entries for operator triage.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "LOW"
	SeverityMedium AuditSeverity = "MEDIUM"
	SeverityHigh   AuditSeverity = "HIGH"
)

// AuditEntry is one append-only record of a mutating action. Before/After hold
// snapshots of the mutated entity where the action changed existing state.
type AuditEntry struct {
	ID          uuid.UUID
	ActorID     uuid.UUID
	Action      string
	EntityType  string
	EntityID    string
	Before      string
	After       string
	Description string
	Module      string
	Severity    AuditSeverity
	CreatedAt   time.Time
}

// AuditRecorder is the append-only audit sink. Record is fire-and-forget from
// the caller's perspective: a failed append must not roll back the business
// mutation it describes. Implementations surface their own failures to an
// operator-visible log.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}
