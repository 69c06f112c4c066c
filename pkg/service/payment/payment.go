// Package payment provides the transfer processor: internal and external
// transfers and bill payments, with flat fees, per-transaction and daily
// caps, and idempotency-key replay protection.
//
// Every movement runs inside one unit of work. An internal transfer debits
// and credits in the same transaction boundary, so a failed leg rolls back
// the whole transfer.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/domain/payment"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/numgen"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service provides business logic for payments and transfers.
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

// TransferCommand carries the inputs for an internal transfer. The source is
// addressed by id and owner-checked; the destination by account number, the
// way a customer addresses a beneficiary.
type TransferCommand struct {
	UserID          uuid.UUID `validate:"required"`
	FromAccountID   uuid.UUID `validate:"required"`
	ToAccountNumber string    `validate:"required"`
	Amount          money.Money
	Description     string
	IdempotencyKey  string
}

// ExternalTransferCommand carries the inputs for a transfer to another bank.
type ExternalTransferCommand struct {
	UserID          uuid.UUID `validate:"required"`
	FromAccountID   uuid.UUID `validate:"required"`
	BankCode        string    `validate:"required"`
	AccountNumber   string    `validate:"required"`
	BeneficiaryName string    `validate:"required"`
	Amount          money.Money
	Description     string
	IdempotencyKey  string
}

// BillPaymentCommand carries the inputs for paying a biller.
type BillPaymentCommand struct {
	UserID            uuid.UUID `validate:"required"`
	FromAccountID     uuid.UUID `validate:"required"`
	BillerCode        string    `validate:"required"`
	BillerName        string    `validate:"required"`
	CustomerReference string    `validate:"required"`
	Amount            money.Money
	Description       string
	IdempotencyKey    string
}

// Transfer moves funds between two accounts of this bank. Both legs commit
// atomically: the source is debited amount plus fee and the destination is
// credited the amount, inside one unit of work.
func (s *Service) Transfer(ctx context.Context, cmd TransferCommand) (p *payment.Payment, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "fromAccountID", cmd.FromAccountID, "amount", cmd.Amount)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		paymentRepo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		if err = s.checkIdempotency(ctx, paymentRepo, cmd.IdempotencyKey); err != nil {
			return err
		}

		from, err := accountRepo.GetForUpdate(ctx, cmd.FromAccountID)
		if err != nil {
			return err
		}
		if err = from.ValidateOwner(cmd.UserID); err != nil {
			return err
		}
		if err = from.EnsureOperational(); err != nil {
			return err
		}
		to, err := accountRepo.GetByNumberForUpdate(ctx, cmd.ToAccountNumber)
		if err != nil {
			return err
		}
		if to.ID == from.ID {
			return domain.ErrInvalidOperation
		}
		if err = to.EnsureOperational(); err != nil {
			return err
		}
		if err = s.checkLimits(ctx, paymentRepo, from.ID, cmd.Amount); err != nil {
			return err
		}

		fee := payment.FeeFor(payment.TypeInternalTransfer)
		if err = from.Debit(cmd.Amount.Add(fee)); err != nil {
			return err
		}
		if err = to.Credit(cmd.Amount); err != nil {
			return err
		}
		if err = accountRepo.Update(ctx, from); err != nil {
			return err
		}
		if err = accountRepo.Update(ctx, to); err != nil {
			return err
		}

		now := time.Now()
		p = &payment.Payment{
			ID:             uuid.New(),
			Reference:      s.gen.PaymentReference(),
			IdempotencyKey: cmd.IdempotencyKey,
			Type:           payment.TypeInternalTransfer,
			Status:         payment.StatusPending,
			FromAccountID:  from.ID,
			ToAccountID:    &to.ID,
			Amount:         cmd.Amount,
			Fee:            fee,
			Description:    cmd.Description,
			ScheduledAt:    now,
			CreatedAt:      now,
		}
		p.MarkCompleted(now)
		if err = paymentRepo.Create(ctx, p); err != nil {
			return err
		}
		return s.recordTransferLegs(ctx, txRepo, from, to, cmd.Amount, fee, cmd.Description, now)
	})
	if err != nil {
		p = nil
		logger.Error("Transfer failed", "error", err)
		return
	}
	logger.Info("Transfer successful", "reference", p.Reference)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     cmd.UserID,
		Action:      "TRANSFER_COMPLETED",
		EntityType:  "Payment",
		EntityID:    p.ID.String(),
		After:       fmt.Sprintf("reference=%s amount=%s fee=%s", p.Reference, p.Amount, p.Fee),
		Description: cmd.Description,
		Module:      "PAYMENTS",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

// TransferExternal initiates a transfer to another bank. The source account
// is debited synchronously; settlement with the counterpart bank is
// asynchronous, so the payment is left in PROCESSING.
func (s *Service) TransferExternal(ctx context.Context, cmd ExternalTransferCommand) (p *payment.Payment, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "fromAccountID", cmd.FromAccountID, "bankCode", cmd.BankCode)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		paymentRepo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		if err = s.checkIdempotency(ctx, paymentRepo, cmd.IdempotencyKey); err != nil {
			return err
		}

		from, err := accountRepo.GetForUpdate(ctx, cmd.FromAccountID)
		if err != nil {
			return err
		}
		if err = from.ValidateOwner(cmd.UserID); err != nil {
			return err
		}
		if err = from.EnsureOperational(); err != nil {
			return err
		}
		if err = s.checkLimits(ctx, paymentRepo, from.ID, cmd.Amount); err != nil {
			return err
		}

		fee := payment.FeeFor(payment.TypeExternalTransfer)
		if err = from.Debit(cmd.Amount.Add(fee)); err != nil {
			return err
		}
		if err = accountRepo.Update(ctx, from); err != nil {
			return err
		}

		now := time.Now()
		p = &payment.Payment{
			ID:                    uuid.New(),
			Reference:             s.gen.PaymentReference(),
			IdempotencyKey:        cmd.IdempotencyKey,
			Type:                  payment.TypeExternalTransfer,
			Status:                payment.StatusPending,
			FromAccountID:         from.ID,
			Amount:                cmd.Amount,
			Fee:                   fee,
			Description:           cmd.Description,
			ExternalBankCode:      cmd.BankCode,
			ExternalAccountNumber: cmd.AccountNumber,
			BeneficiaryName:       cmd.BeneficiaryName,
			ScheduledAt:           now,
			CreatedAt:             now,
		}
		p.MarkProcessing()
		if err = paymentRepo.Create(ctx, p); err != nil {
			return err
		}
		return s.recordDebitWithFee(
			ctx, txRepo, from,
			account.TransactionTransfer, cmd.Amount, fee, cmd.Description, now,
		)
	})
	if err != nil {
		p = nil
		logger.Error("TransferExternal failed", "error", err)
		return
	}
	logger.Info("TransferExternal initiated", "reference", p.Reference)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     cmd.UserID,
		Action:      "EXTERNAL_TRANSFER_INITIATED",
		EntityType:  "Payment",
		EntityID:    p.ID.String(),
		After:       fmt.Sprintf("reference=%s amount=%s bank=%s", p.Reference, p.Amount, cmd.BankCode),
		Description: cmd.Description,
		Module:      "PAYMENTS",
		Severity:    domain.SeverityMedium,
		CreatedAt:   time.Now(),
	})
	return
}

// PayBill debits the account for a biller payment plus the flat fee.
func (s *Service) PayBill(ctx context.Context, cmd BillPaymentCommand) (p *payment.Payment, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "fromAccountID", cmd.FromAccountID, "billerCode", cmd.BillerCode)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		paymentRepo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		if err = s.checkIdempotency(ctx, paymentRepo, cmd.IdempotencyKey); err != nil {
			return err
		}

		from, err := accountRepo.GetForUpdate(ctx, cmd.FromAccountID)
		if err != nil {
			return err
		}
		if err = from.ValidateOwner(cmd.UserID); err != nil {
			return err
		}
		if err = from.EnsureOperational(); err != nil {
			return err
		}
		if err = s.checkLimits(ctx, paymentRepo, from.ID, cmd.Amount); err != nil {
			return err
		}

		fee := payment.FeeFor(payment.TypeBillPayment)
		if err = from.Debit(cmd.Amount.Add(fee)); err != nil {
			return err
		}
		if err = accountRepo.Update(ctx, from); err != nil {
			return err
		}

		now := time.Now()
		p = &payment.Payment{
			ID:                uuid.New(),
			Reference:         s.gen.PaymentReference(),
			IdempotencyKey:    cmd.IdempotencyKey,
			Type:              payment.TypeBillPayment,
			Status:            payment.StatusPending,
			FromAccountID:     from.ID,
			Amount:            cmd.Amount,
			Fee:               fee,
			Description:       cmd.Description,
			BillerCode:        cmd.BillerCode,
			BillerName:        cmd.BillerName,
			CustomerReference: cmd.CustomerReference,
			ScheduledAt:       now,
			CreatedAt:         now,
		}
		p.MarkCompleted(now)
		if err = paymentRepo.Create(ctx, p); err != nil {
			return err
		}
		return s.recordDebitWithFee(
			ctx, txRepo, from,
			account.TransactionBillPayment, cmd.Amount, fee, cmd.Description, now,
		)
	})
	if err != nil {
		p = nil
		logger.Error("PayBill failed", "error", err)
		return
	}
	logger.Info("PayBill successful", "reference", p.Reference)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     cmd.UserID,
		Action:      "BILL_PAYMENT_COMPLETED",
		EntityType:  "Payment",
		EntityID:    p.ID.String(),
		After:       fmt.Sprintf("reference=%s amount=%s biller=%s", p.Reference, p.Amount, cmd.BillerCode),
		Description: cmd.Description,
		Module:      "PAYMENTS",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

// History returns the payments touching an account, after verifying
// ownership.
func (s *Service) History(ctx context.Context, userID, accountID uuid.UUID) (payments []*payment.Payment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		paymentRepo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		a, err := accountRepo.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(userID); err != nil {
			return err
		}
		payments, err = paymentRepo.ListByAccount(ctx, accountID)
		return err
	})
	if err != nil {
		payments = nil
	}
	return
}

// GetByReference returns one payment by its reference. The caller must own
// the source account.
func (s *Service) GetByReference(ctx context.Context, userID uuid.UUID, reference string) (p *payment.Payment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		paymentRepo, err := uow.PaymentRepository()
		if err != nil {
			return err
		}
		p, err = paymentRepo.GetByReference(ctx, reference)
		if err != nil {
			return err
		}
		from, err := accountRepo.Get(ctx, p.FromAccountID)
		if err != nil {
			return err
		}
		return from.ValidateOwner(userID)
	})
	if err != nil {
		p = nil
	}
	return
}

// checkIdempotency rejects a previously seen key with ErrDuplicateReference.
// An empty key opts out of replay protection.
func (s *Service) checkIdempotency(ctx context.Context, repo repository.PaymentRepository, key string) error {
	if key == "" {
		return nil
	}
	exists, err := repo.ExistsByIdempotencyKey(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateReference
	}
	return nil
}

// checkLimits enforces the per-transaction cap and the daily cap, the latter
// summed over payments debited since local midnight.
func (s *Service) checkLimits(ctx context.Context, repo repository.PaymentRepository, fromAccountID uuid.UUID, amount money.Money) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if amount.GreaterThan(payment.SingleTransferLimit) {
		return domain.ErrLimitExceeded
	}
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	debited, err := repo.SumDebitedSince(ctx, fromAccountID, midnight)
	if err != nil {
		return err
	}
	if debited.Add(amount).GreaterThan(payment.DailyTransferLimit) {
		return domain.ErrLimitExceeded
	}
	return nil
}

// recordTransferLegs writes the two ledger movements of an internal transfer.
// Both legs share one reference prefix, suffixed -DEBIT and -CREDIT, plus a
// -FEE movement when a fee applies.
func (s *Service) recordTransferLegs(
	ctx context.Context,
	txRepo repository.TransactionRepository,
	from, to *account.Account,
	amount, fee money.Money,
	description string,
	now time.Time,
) error {
	ref := s.gen.TransactionReference()
	debit := account.NewTransactionFromData(
		uuid.New(), ref+"-DEBIT",
		account.TransactionTransfer, account.TransactionCompleted,
		amount, &from.ID, &to.ID, from.Balance, description, now,
	)
	if err := txRepo.Create(ctx, debit); err != nil {
		return err
	}
	credit := account.NewTransactionFromData(
		uuid.New(), ref+"-CREDIT",
		account.TransactionTransfer, account.TransactionCompleted,
		amount, &from.ID, &to.ID, to.Balance, description, now,
	)
	if err := txRepo.Create(ctx, credit); err != nil {
		return err
	}
	return s.recordFee(ctx, txRepo, from, ref, fee, now)
}

// recordDebitWithFee writes the single debit leg of an outbound payment plus
// its fee movement.
func (s *Service) recordDebitWithFee(
	ctx context.Context,
	txRepo repository.TransactionRepository,
	from *account.Account,
	txType account.TransactionType,
	amount, fee money.Money,
	description string,
	now time.Time,
) error {
	ref := s.gen.TransactionReference()
	debit := account.NewTransactionFromData(
		uuid.New(), ref+"-DEBIT",
		txType, account.TransactionCompleted,
		amount, &from.ID, nil, from.Balance, description, now,
	)
	if err := txRepo.Create(ctx, debit); err != nil {
		return err
	}
	return s.recordFee(ctx, txRepo, from, ref, fee, now)
}

func (s *Service) recordFee(
	ctx context.Context,
	txRepo repository.TransactionRepository,
	from *account.Account,
	ref string,
	fee money.Money,
	now time.Time,
) error {
	if !fee.IsPositive() {
		return nil
	}
	feeTx := account.NewTransactionFromData(
		uuid.New(), ref+"-FEE",
		account.TransactionFee, account.TransactionCompleted,
		fee, &from.ID, nil, from.Balance, "transfer fee", now,
	)
	return txRepo.Create(ctx, feeTx)
}
