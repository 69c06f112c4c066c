package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func newRecorder(db *gorm.DB) *Recorder {
	return NewRecorder(
		db,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		config.AuditConfig{DefaultModule: "CORE"},
	)
}

func TestRecorder_AppendsEntry(t *testing.T) {
	db, mock := newMockDB(t)
	r := newRecorder(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "entries" (.+) VALUES (.+)`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	r.Record(context.Background(), domain.AuditEntry{
		ActorID:    uuid.New(),
		Action:     "ACCOUNT_FROZEN",
		EntityType: "Account",
		EntityID:   uuid.New().String(),
		Severity:   domain.SeverityHigh,
		CreatedAt:  time.Now(),
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorder_SwallowsAppendFailure(t *testing.T) {
	db, mock := newMockDB(t)
	r := newRecorder(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "entries" (.+) VALUES (.+)`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	// Must not panic or surface the error to the caller.
	r.Record(context.Background(), domain.AuditEntry{
		Action:     "DEPOSIT",
		EntityType: "Account",
		Severity:   domain.SeverityLow,
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
