// Package audit implements the append-only audit sink on PostgreSQL.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry represents an audit record in the database. Rows are insert-only.
type Entry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActorID     uuid.UUID `gorm:"type:uuid;index"`
	Action      string    `gorm:"size:48;index;not null"`
	EntityType  string    `gorm:"size:32;not null"`
	EntityID    string    `gorm:"size:48;index"`
	Before      string
	After       string
	Description string
	Module      string    `gorm:"size:16;not null"`
	Severity    string    `gorm:"size:8;not null"`
	CreatedAt   time.Time `gorm:"index"`
}

// Recorder appends audit entries to the database. Failures are logged, never
// propagated: an audit outage must not fail the business mutation it
// describes.
type Recorder struct {
	db            *gorm.DB
	logger        *slog.Logger
	defaultModule string
}

// NewRecorder creates a Recorder on the given connection.
func NewRecorder(db *gorm.DB, logger *slog.Logger, cfg config.AuditConfig) *Recorder {
	return &Recorder{db: db, logger: logger, defaultModule: cfg.DefaultModule}
}

// Record appends one entry, filling in the id, timestamp and default module
// when the caller left them empty.
func (r *Recorder) Record(ctx context.Context, entry domain.AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Module == "" {
		entry.Module = r.defaultModule
	}
	row := Entry{
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Before:      entry.Before,
		After:       entry.After,
		Description: entry.Description,
		Module:      entry.Module,
		Severity:    string(entry.Severity),
		CreatedAt:   entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		r.logger.Error("audit append failed",
			"action", entry.Action,
			"entityType", entry.EntityType,
			"entityID", entry.EntityID,
			"error", err,
		)
	}
}

var _ domain.AuditRecorder = (*Recorder)(nil)
