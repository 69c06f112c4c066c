package config

import (
	"log/slog"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/numgen"
	"github.com/amirasaad/corebank/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the services.
type Deps struct {
	Uow    repository.UnitOfWork
	Audit  domain.AuditRecorder
	Gen    numgen.Generator
	Logger *slog.Logger
	Config *AppConfig
}
