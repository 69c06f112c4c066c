// Package repository defines the persistence contracts the core depends on.
// Implementations live under infra; the core only sees these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/domain/card"
	"github.com/amirasaad/corebank/pkg/domain/loan"
	"github.com/amirasaad/corebank/pkg/domain/payment"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
)

// AccountRepository persists Account aggregates. Get acquires no lock;
// GetForUpdate must lock the account row for the remainder of the enclosing
// unit of work so concurrent debits serialize on the sufficiency check.
type AccountRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByNumber(ctx context.Context, number string) (*account.Account, error)
	GetByNumberForUpdate(ctx context.Context, number string) (*account.Account, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error)
	TotalBalanceByUser(ctx context.Context, userID uuid.UUID) (money.Money, error)
	Create(ctx context.Context, a *account.Account) error
	Update(ctx context.Context, a *account.Account) error
}

// TransactionRepository persists immutable ledger movements.
type TransactionRepository interface {
	Create(ctx context.Context, t *account.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*account.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error)
}

// PaymentRepository persists payment intents and answers the rolling-window
// aggregate queries the transfer processor needs.
type PaymentRepository interface {
	Create(ctx context.Context, p *payment.Payment) error
	Update(ctx context.Context, p *payment.Payment) error
	GetByReference(ctx context.Context, reference string) (*payment.Payment, error)
	ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error)
	SumDebitedSince(ctx context.Context, fromAccountID uuid.UUID, since time.Time) (money.Money, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*payment.Payment, error)
}

// LoanRepository persists Loan aggregates.
type LoanRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*loan.Loan, error)
	GetByNumber(ctx context.Context, number string) (*loan.Loan, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*loan.Loan, error)
	ListByStatus(ctx context.Context, status loan.Status) ([]*loan.Loan, error)
	Create(ctx context.Context, l *loan.Loan) error
	Update(ctx context.Context, l *loan.Loan) error
}

// LoanPaymentRepository persists loan payment records.
type LoanPaymentRepository interface {
	Create(ctx context.Context, p *loan.Payment) error
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*loan.Payment, error)
}

// CardRepository persists Card aggregates.
type CardRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*card.Card, error)
	GetByNumber(ctx context.Context, number string) (*card.Card, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*card.Card, error)
	Create(ctx context.Context, c *card.Card) error
	Update(ctx context.Context, c *card.Card) error
}

// CardTransactionRepository persists card transaction records.
type CardTransactionRepository interface {
	Create(ctx context.Context, t *card.Transaction) error
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*card.Transaction, error)
}
