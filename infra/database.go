// Package infra wires the PostgreSQL connection the repositories and the
// audit sink run on.
package infra

import (
	"errors"
	"time"

	"github.com/amirasaad/corebank/infra/audit"
	"github.com/amirasaad/corebank/infra/repository"
	"github.com/amirasaad/corebank/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens a pooled PostgreSQL connection. Query logging is
// verbose only in development.
func NewDBConnection(cnf config.DBConfig, appEnv string) (*gorm.DB, error) {
	databaseUrl := cnf.Url
	if databaseUrl == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(postgres.Open(databaseUrl), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&repository.Account{},
		&repository.Transaction{},
		&repository.Payment{},
		&repository.Loan{},
		&repository.LoanPayment{},
		&repository.Card{},
		&repository.CardTransaction{},
		&audit.Entry{},
	)
}
