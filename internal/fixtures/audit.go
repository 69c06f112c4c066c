package fixtures

import (
	"context"
	"sync"

	"github.com/amirasaad/corebank/pkg/domain"
)

// CaptureRecorder is an AuditRecorder that stores entries in memory so tests
// can assert on what was recorded.
type CaptureRecorder struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

// NewCaptureRecorder creates an empty capture recorder.
func NewCaptureRecorder() *CaptureRecorder {
	return &CaptureRecorder{}
}

// Record appends the entry.
func (r *CaptureRecorder) Record(ctx context.Context, entry domain.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

// Entries returns a copy of everything recorded so far.
func (r *CaptureRecorder) Entries() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// LastAction returns the most recent entry's action, or "" when empty.
func (r *CaptureRecorder) LastAction() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].Action
}

var _ domain.AuditRecorder = (*CaptureRecorder)(nil)
