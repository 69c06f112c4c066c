// Package loan provides business logic for the loan lifecycle: quoting,
// application, review and approval with principal disbursement, repayment
// with principal/interest splits, and schedule projection.
package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/domain/loan"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/numgen"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxNumberAttempts bounds the re-draws when a generated loan number
// collides with an existing one.
const maxNumberAttempts = 5

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service provides business logic for loan operations.
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

// Quote is a non-binding projection of loan terms.
type Quote struct {
	Type           loan.Type
	Principal      money.Money
	TermMonths     int
	AnnualRate     money.Rate
	MonthlyPayment money.Money
	TotalAmount    money.Money
	TotalInterest  money.Money
}

// QuoteTerms prices a prospective loan without persisting anything.
func (s *Service) QuoteTerms(loanType loan.Type, principal money.Money, termMonths, creditScore int) (*Quote, error) {
	rate := loan.QuoteRate(loanType, creditScore)
	monthly, err := loan.MonthlyPayment(principal, rate, termMonths)
	if err != nil {
		return nil, err
	}
	total := monthly.MulInt(int64(termMonths))
	return &Quote{
		Type:           loanType,
		Principal:      principal,
		TermMonths:     termMonths,
		AnnualRate:     rate,
		MonthlyPayment: monthly,
		TotalAmount:    total,
		TotalInterest:  total.Sub(principal),
	}, nil
}

// ApplyCommand carries the inputs for a loan application.
type ApplyCommand struct {
	UserID          uuid.UUID `validate:"required"`
	Type            loan.Type `validate:"required,oneof=PERSONAL HOME AUTO BUSINESS EDUCATION CREDIT_LINE"`
	Principal       money.Money
	TermMonths      int `validate:"gt=0,lte=480"`
	Purpose         string
	CreditScore     int `validate:"gte=300,lte=850"`
	AnnualIncome    money.Money
	Secured         bool
	CollateralDesc  string
	CollateralValue money.Money
}

// Apply files a new loan application in APPLIED state with its rate quoted
// and payment amortized, drawing candidate loan numbers until one is free.
func (s *Service) Apply(ctx context.Context, cmd ApplyCommand) (l *loan.Loan, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "type", cmd.Type, "principal", cmd.Principal)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		number, err := s.freeLoanNumber(ctx, repo)
		if err != nil {
			return err
		}
		l, err = loan.Apply(number, loan.Application{
			UserID:          cmd.UserID,
			Type:            cmd.Type,
			Principal:       cmd.Principal,
			TermMonths:      cmd.TermMonths,
			Purpose:         cmd.Purpose,
			CreditScore:     cmd.CreditScore,
			AnnualIncome:    cmd.AnnualIncome,
			Secured:         cmd.Secured,
			CollateralDesc:  cmd.CollateralDesc,
			CollateralValue: cmd.CollateralValue,
		}, time.Now())
		if err != nil {
			return err
		}
		return repo.Create(ctx, l)
	})
	if err != nil {
		l = nil
		logger.Error("Apply failed", "error", err)
		return
	}
	logger.Info("Apply successful", "loanID", l.ID, "number", l.Number, "rate", l.InterestRate)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     cmd.UserID,
		Action:      "LOAN_APPLIED",
		EntityType:  "Loan",
		EntityID:    l.ID.String(),
		After:       fmt.Sprintf("number=%s principal=%s rate=%s term=%d", l.Number, l.Principal, l.InterestRate, l.TermMonths),
		Description: cmd.Purpose,
		Module:      "LOANS",
		Severity:    domain.SeverityLow,
		CreatedAt:   time.Now(),
	})
	return
}

func (s *Service) freeLoanNumber(ctx context.Context, repo repository.LoanRepository) (string, error) {
	for range maxNumberAttempts {
		number := s.gen.LoanNumber()
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

// StartReview moves an APPLIED loan to UNDER_REVIEW.
func (s *Service) StartReview(ctx context.Context, actorID, loanID uuid.UUID) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		l, err := repo.Get(ctx, loanID)
		if err != nil {
			return err
		}
		if err = l.BeginReview(); err != nil {
			return err
		}
		return repo.Update(ctx, l)
	})
	if err != nil {
		s.logger.Error("StartReview failed", "loanID", loanID, "error", err)
		return err
	}
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:    actorID,
		Action:     "LOAN_REVIEW_STARTED",
		EntityType: "Loan",
		EntityID:   loanID.String(),
		Module:     "LOANS",
		Severity:   domain.SeverityLow,
		CreatedAt:  time.Now(),
	})
	return nil
}

// Approve approves a loan and disburses the principal to the borrower's
// account in the same unit of work, recording the ledger movement. The
// disbursement account must belong to the borrower.
func (s *Service) Approve(ctx context.Context, actorID, loanID, disbursementAccountID uuid.UUID) (l *loan.Loan, err error) {
	logger := s.logger.With("loanID", loanID, "accountID", disbursementAccountID)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		loanRepo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		l, err = loanRepo.Get(ctx, loanID)
		if err != nil {
			return err
		}
		a, err := accountRepo.GetForUpdate(ctx, disbursementAccountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(l.UserID); err != nil {
			return err
		}
		if err = a.EnsureOperational(); err != nil {
			return err
		}
		now := time.Now()
		if err = l.Approve(disbursementAccountID, now); err != nil {
			return err
		}
		if err = a.Credit(l.Principal); err != nil {
			return err
		}
		if err = loanRepo.Update(ctx, l); err != nil {
			return err
		}
		if err = accountRepo.Update(ctx, a); err != nil {
			return err
		}
		tx := account.NewTransactionFromData(
			uuid.New(),
			s.gen.TransactionReference(),
			account.TransactionLoanDisbursement,
			account.TransactionCompleted,
			l.Principal,
			nil, &a.ID,
			a.Balance,
			fmt.Sprintf("loan %s disbursement", l.Number),
			now,
		)
		return txRepo.Create(ctx, tx)
	})
	if err != nil {
		l = nil
		logger.Error("Approve failed", "error", err)
		return
	}
	logger.Info("Approve successful", "number", l.Number)
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     actorID,
		Action:      "LOAN_APPROVED",
		EntityType:  "Loan",
		EntityID:    l.ID.String(),
		Before:      string(loan.StatusApplied),
		After:       string(l.Status),
		Description: fmt.Sprintf("disbursed %s to account %s", l.Principal, disbursementAccountID),
		Module:      "LOANS",
		Severity:    domain.SeverityHigh,
		CreatedAt:   time.Now(),
	})
	return
}

// Reject terminally rejects an application with a reason.
func (s *Service) Reject(ctx context.Context, actorID, loanID uuid.UUID, reason string) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		l, err := repo.Get(ctx, loanID)
		if err != nil {
			return err
		}
		if err = l.Reject(reason); err != nil {
			return err
		}
		return repo.Update(ctx, l)
	})
	if err != nil {
		s.logger.Error("Reject failed", "loanID", loanID, "error", err)
		return err
	}
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     actorID,
		Action:      "LOAN_REJECTED",
		EntityType:  "Loan",
		EntityID:    loanID.String(),
		Description: reason,
		Module:      "LOANS",
		Severity:    domain.SeverityMedium,
		CreatedAt:   time.Now(),
	})
	return nil
}

// MarkDefaulted moves an ACTIVE loan into default.
func (s *Service) MarkDefaulted(ctx context.Context, actorID, loanID uuid.UUID, reason string) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		l, err := repo.Get(ctx, loanID)
		if err != nil {
			return err
		}
		if err = l.MarkDefaulted(reason); err != nil {
			return err
		}
		return repo.Update(ctx, l)
	})
	if err != nil {
		s.logger.Error("MarkDefaulted failed", "loanID", loanID, "error", err)
		return err
	}
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:     actorID,
		Action:      "LOAN_DEFAULTED",
		EntityType:  "Loan",
		EntityID:    loanID.String(),
		Description: reason,
		Module:      "LOANS",
		Severity:    domain.SeverityHigh,
		CreatedAt:   time.Now(),
	})
	return nil
}

// PaymentCommand carries the inputs for a loan repayment.
type PaymentCommand struct {
	UserID      uuid.UUID `validate:"required"`
	LoanID      uuid.UUID `validate:"required"`
	AccountID   uuid.UUID `validate:"required"`
	Amount      money.Money
	AutoPayment bool
}

// MakePayment debits the funding account and applies the amount to the loan:
// this period's interest first, the remainder to principal. The debit may not
// dip into overdraft, so it is capped by the available balance. Loan, account
// and both records commit together.
func (s *Service) MakePayment(ctx context.Context, cmd PaymentCommand) (rec *loan.Payment, err error) {
	if err = validate.Struct(cmd); err != nil {
		return nil, err
	}
	logger := s.logger.With("userID", cmd.UserID, "loanID", cmd.LoanID, "amount", cmd.Amount)
	var paidOff bool
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		loanRepo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		accountRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		paymentRepo, err := uow.LoanPaymentRepository()
		if err != nil {
			return err
		}
		l, err := loanRepo.Get(ctx, cmd.LoanID)
		if err != nil {
			return err
		}
		if l.UserID != cmd.UserID {
			return domain.ErrNotOwner
		}
		a, err := accountRepo.GetForUpdate(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		if err = a.ValidateOwner(cmd.UserID); err != nil {
			return err
		}
		if err = a.EnsureOperational(); err != nil {
			return err
		}
		if a.AvailableBalance.LessThan(cmd.Amount) {
			return domain.ErrInsufficientFunds
		}

		dueDate := l.NextPaymentDate
		now := time.Now()
		split, err := l.ApplyPayment(cmd.Amount, now)
		if err != nil {
			return err
		}
		if err = a.Debit(cmd.Amount); err != nil {
			return err
		}
		if err = loanRepo.Update(ctx, l); err != nil {
			return err
		}
		if err = accountRepo.Update(ctx, a); err != nil {
			return err
		}

		rec = loan.NewPayment(
			l.ID, a.ID,
			s.gen.PaymentReference(),
			cmd.Amount, *split,
			dueDate, now, cmd.AutoPayment,
		)
		if err = paymentRepo.Create(ctx, rec); err != nil {
			return err
		}
		paidOff = l.Status == loan.StatusPaidOff
		tx := account.NewTransactionFromData(
			uuid.New(),
			s.gen.TransactionReference(),
			account.TransactionLoanPayment,
			account.TransactionCompleted,
			cmd.Amount,
			&a.ID, nil,
			a.Balance,
			fmt.Sprintf("loan %s payment", l.Number),
			now,
		)
		return txRepo.Create(ctx, tx)
	})
	if err != nil {
		rec = nil
		logger.Error("MakePayment failed", "error", err)
		return
	}
	logger.Info("MakePayment successful",
		"reference", rec.Reference,
		"principal", rec.PrincipalPortion,
		"interest", rec.InterestPortion,
		"remaining", rec.RemainingBalance,
	)
	action := "LOAN_PAYMENT"
	if paidOff {
		action = "LOAN_PAID_OFF"
	}
	s.audit.Record(ctx, domain.AuditEntry{
		ActorID:    cmd.UserID,
		Action:     action,
		EntityType: "Loan",
		EntityID:   cmd.LoanID.String(),
		After:      fmt.Sprintf("remaining=%s", rec.RemainingBalance),
		Module:     "LOANS",
		Severity:   domain.SeverityLow,
		CreatedAt:  time.Now(),
	})
	return
}

// Get returns a loan after verifying ownership.
func (s *Service) Get(ctx context.Context, userID, loanID uuid.UUID) (l *loan.Loan, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		l, err = repo.Get(ctx, loanID)
		if err != nil {
			return err
		}
		if l.UserID != userID {
			return domain.ErrNotOwner
		}
		return nil
	})
	if err != nil {
		l = nil
	}
	return
}

// ListByUser returns every loan belonging to a user.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) (loans []*loan.Loan, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		loans, err = repo.ListByUser(ctx, userID)
		return err
	})
	return
}

// Payments returns the repayment history of a loan, after verifying
// ownership.
func (s *Service) Payments(ctx context.Context, userID, loanID uuid.UUID) (payments []*loan.Payment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		loanRepo, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		paymentRepo, err := uow.LoanPaymentRepository()
		if err != nil {
			return err
		}
		l, err := loanRepo.Get(ctx, loanID)
		if err != nil {
			return err
		}
		if l.UserID != userID {
			return domain.ErrNotOwner
		}
		payments, err = paymentRepo.ListByLoan(ctx, loanID)
		return err
	})
	if err != nil {
		payments = nil
	}
	return
}

// Schedule projects the remaining amortization schedule of a loan.
func (s *Service) Schedule(ctx context.Context, userID, loanID uuid.UUID) (entries []loan.ScheduleEntry, err error) {
	var l *loan.Loan
	if l, err = s.Get(ctx, userID, loanID); err != nil {
		return nil, err
	}
	return l.Schedule(), nil
}
