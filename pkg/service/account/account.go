// Package account provides business logic for the account ledger: opening
// and closing accounts, deposits and withdrawals, administrative freezes and
// overdraft changes, and balance inquiries.
//
// All mutating operations run inside a unit of work so the balance check and
// the balance mutation commit or roll back together, and each emits an audit
// record after the commit.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/numgen"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxNumberAttempts bounds the re-draws when a generated account number
// collides with an existing one.
const maxNumberAttempts = 5

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service provides business logic for account operations.
type Service struct {
	uow    repository.UnitOfWork
	audit  domain.AuditRecorder
	gen    numgen.Generator
	logger *slog.Logger
}

// NewService creates a new Service with the provided dependencies.
func NewService(deps config.Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		audit:  deps.Audit,
		gen:    deps.Gen,
		logger: deps.Logger,
	}
}

// OpenCommand carries the inputs for opening a new account.
type OpenCommand struct {
	UserID         uuid.UUID    `validate:"required"`
	Type           account.Type `validate:"required,oneof=CHECKING SAVINGS BUSINESS INVESTMENT MONEY_MARKET"`
	InitialBalance money.Money
	OverdraftLimit money.Money
}

// Open opens a new account of the requested type, drawing candidate account
// numbers until one is free of collisions.
func (s *Service) Open(ctx context.Context, cmd OpenCommand) (a *account.Account, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "type", cmd.Type)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		number, err := s.freeAccountNumber(ctx, repo)
		if err != nil {
			return err
		}
		a, err = account.New().
			WithNumber(number).
			WithUserID(cmd.UserID).
			WithType(cmd.Type).
			WithInitialBalance(cmd.InitialBalance).
			WithOverdraftLimit(cmd.OverdraftLimit).
			Build()
		if err != nil {
			return err
		}
		return repo.Create(ctx, a)
	})
	if err != nil {
		a = nil
		logger.Error("Open failed", "error", err)
		return
	}
	logger.Info("Open successful", "accountID", a.ID, "number", a.Number)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     cmd.UserID,
		Action:      "ACCOUNT_OPENED",
		EntityType:  "Account",
		EntityID:    a.ID.String(),
		After:       fmt.Sprintf("number=%s type=%s balance=%s", a.Number, a.Type, a.Balance),
		Description: "Account opened",
		Module:      "LEDGER",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

func (s *Service) freeAccountNumber(ctx context.Context, repo repository.AccountRepository) (string, error) {
	for range maxNumberAttempts {
		number := s.gen.AccountNumber()
		exists, err := repo.ExistsByNumber(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", domain.ErrDuplicateReference
}

// Deposit credits funds to the account and records the ledger movement.
func (s *Service) Deposit(
	ctx context.Context,
	userID, accountID uuid.UUID,
	amount money.Money,
	description string,
) (tx *account.Transaction, err error) {
	logger := s.logger.With("userID", userID, "accountID", accountID, "amount", amount)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(userID); err != nil {
			return err
		}
		if err = a.EnsureOperational(); err != nil {
			return err
		}
		if err = a.Credit(amount); err != nil {
			return err
		}
		if err = repo.Update(ctx, a); err != nil {
			return err
		}
		tx = account.NewTransactionFromData(
			uuid.New(),
			s.gen.TransactionReference(),
			account.TransactionDeposit,
			account.TransactionCompleted,
			amount,
			nil, &accountID,
			a.Balance,
			description,
			time.Now(),
		)
		return txRepo.Create(ctx, tx)
	})
	if err != nil {
		tx = nil
		logger.Error("Deposit failed", "error", err)
		return
	}
	logger.Info("Deposit successful", "reference", tx.Reference, "balance", tx.RunningBalance)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     userID,
		Action:      "DEPOSIT",
		EntityType:  "Account",
		EntityID:    accountID.String(),
		After:       fmt.Sprintf("balance=%s", tx.RunningBalance),
		Description: description,
		Module:      "LEDGER",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

// Withdraw debits funds from the account and records the ledger movement.
// Fails with ErrInsufficientFunds when the debit would breach the overdraft
// floor.
func (s *Service) Withdraw(
	ctx context.Context,
	userID, accountID uuid.UUID,
	amount money.Money,
	description string,
) (tx *account.Transaction, err error) {
	logger := s.logger.With("userID", userID, "accountID", accountID, "amount", amount)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(userID); err != nil {
			return err
		}
		if err = a.EnsureOperational(); err != nil {
			return err
		}
		if err = a.Debit(amount); err != nil {
			return err
		}
		if err = repo.Update(ctx, a); err != nil {
			return err
		}
		tx = account.NewTransactionFromData(
			uuid.New(),
			s.gen.TransactionReference(),
			account.TransactionWithdrawal,
			account.TransactionCompleted,
			amount,
			&accountID, nil,
			a.Balance,
			description,
			time.Now(),
		)
		return txRepo.Create(ctx, tx)
	})
	if err != nil {
		tx = nil
		logger.Error("Withdraw failed", "error", err)
		return
	}
	logger.Info("Withdraw successful", "reference", tx.Reference, "balance", tx.RunningBalance)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     userID,
		Action:      "WITHDRAWAL",
		EntityType:  "Account",
		EntityID:    accountID.String(),
		After:       fmt.Sprintf("balance=%s", tx.RunningBalance),
		Description: description,
		Module:      "LEDGER",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

// Freeze marks the account frozen. Subsequent debits, credits and payments
// are rejected until Unfreeze. Frozen accounts remain readable.
func (s *Service) Freeze(ctx context.Context, actorID, accountID uuid.UUID, reason string) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if a.Frozen {
			return domain.ErrInvalidState
		}
		a.Freeze()
		return repo.Update(ctx, a)
	})
	if err != nil {
		s.logger.Error("Freeze failed", "accountID", accountID, "error", err)
		return err
	}
	s.logger.Info("Freeze successful", "accountID", accountID, "reason", reason)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     actorID,
		Action:      "ACCOUNT_FROZEN",
		EntityType:  "Account",
		EntityID:    accountID.String(),
		Before:      "frozen=false",
		After:       "frozen=true",
		Description: reason,
		Module:      "LEDGER",
		Severity:    domain.SeverityHigh,
		CreatedAt:   time.Now(),
	})
	return nil
}

// Unfreeze lifts a freeze.
func (s *Service) Unfreeze(ctx context.Context, actorID, accountID uuid.UUID, reason string) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if !a.Frozen {
			return domain.ErrInvalidState
		}
		a.Unfreeze()
		return repo.Update(ctx, a)
	})
	if err != nil {
		s.logger.Error("Unfreeze failed", "accountID", accountID, "error", err)
		return err
	}
	s.logger.Info("Unfreeze successful", "accountID", accountID)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     actorID,
		Action:      "ACCOUNT_UNFROZEN",
		EntityType:  "Account",
		EntityID:    accountID.String(),
		Before:      "frozen=true",
		After:       "frozen=false",
		Description: reason,
		Module:      "LEDGER",
		Severity:    domain.SeverityMedium,
		CreatedAt:   time.Now(),
	})
	return nil
}

// Close deactivates an account. Fails with ErrInvalidState unless the balance
// is exactly zero.
func (s *Service) Close(ctx context.Context, userID, accountID uuid.UUID) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(userID); err != nil {
			return err
		}
		if err = a.Close(); err != nil {
			return err
		}
		return repo.Update(ctx, a)
	})
	if err != nil {
		s.logger.Error("Close failed", "accountID", accountID, "error", err)
		return err
	}
	s.logger.Info("Close successful", "accountID", accountID)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     userID,
		Action:      "ACCOUNT_CLOSED",
		EntityType:  "Account",
		EntityID:    accountID.String(),
		Before:      "active=true",
		After:       "active=false",
		Description: "Account closed",
		Module:      "LEDGER",
		Severity:    domain.SeverityMedium,
		CreatedAt:   time.Now(),
	})
	return nil
}

// SetOverdraftLimit replaces the account's overdraft allowance, widening or
// narrowing the balance floor for future debits.
func (s *Service) SetOverdraftLimit(
	ctx context.Context,
	actorID, accountID uuid.UUID,
	limit money.Money,
) error {
	var before money.Money
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		before = a.OverdraftLimit
		if err = a.SetOverdraftLimit(limit); err != nil {
			return err
		}
		return repo.Update(ctx, a)
	})
	if err != nil {
		s.logger.Error("SetOverdraftLimit failed", "accountID", accountID, "error", err)
		return err
	}
	s.logger.Info("SetOverdraftLimit successful", "accountID", accountID, "limit", limit)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     actorID,
		Action:      "OVERDRAFT_LIMIT_CHANGED",
		EntityType:  "Account",
		EntityID:    accountID.String(),
		Before:      fmt.Sprintf("overdraftLimit=%s", before),
		After:       fmt.Sprintf("overdraftLimit=%s", limit),
		Description: "Overdraft limit updated",
		Module:      "LEDGER",
		Severity:    domain.SeverityMedium,
		CreatedAt:   time.Now(),
	})
	return nil
}

// Get returns an account after verifying ownership.
func (s *Service) Get(ctx context.Context, userID, accountID uuid.UUID) (a *account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		a, err = repo.Get(ctx, accountID)
		if err != nil {
			return err
		}
		return a.ValidateOwner(userID)
	})
	if err != nil {
		a = nil
	}
	return
}

// ListByUser returns every account owned by a user.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) (accounts []*account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		accounts, err = repo.ListByUser(ctx, userID)
		return err
	})
	return
}

// TotalBalance returns the sum of a user's account balances.
func (s *Service) TotalBalance(ctx context.Context, userID uuid.UUID) (total money.Money, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		total, err = repo.TotalBalanceByUser(ctx, userID)
		return err
	})
	return
}

// Transactions returns the ledger movements touching an account, after
// verifying ownership.
func (s *Service) Transactions(ctx context.Context, userID, accountID uuid.UUID) (txs []*account.Transaction, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		a, err := repo.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(userID); err != nil {
			return err
		}
		txs, err = txRepo.ListByAccount(ctx, accountID)
		return err
	})
	if err != nil {
		txs = nil
	}
	return
}
