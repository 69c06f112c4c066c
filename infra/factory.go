package infra

import (
	"log/slog"
	"os"

	"github.com/amirasaad/corebank/infra/audit"
	"github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/numgen"
)

// NewDeps builds the full dependency bundle the services are constructed
// from: configuration, a migrated database connection, the unit of work, the
// audit sink and the number generator.
func NewDeps(logger *slog.Logger) (*config.Deps, error) {
	cfg, err := config.LoadAppConfig(logger)
	if err != nil {
		return nil, err
	}
	db, err := NewDBConnection(cfg.DB, os.Getenv("APP_ENV"))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &config.Deps{
		Uow:    repository.NewUoW(db),
		Audit:  audit.NewRecorder(db, logger, cfg.Audit),
		Gen:    numgen.NewSecure(),
		Logger: logger,
		Config: cfg,
	}, nil
}
