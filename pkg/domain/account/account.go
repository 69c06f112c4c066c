// Package account holds the Account aggregate and its ledger movements. All
// balance mutations go through Debit and Credit, which enforce the overdraft
// policy invariant; services never touch balances directly.
package account

import (
	"errors"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
)

// Type classifies an account for balance and fee policy.
type Type string

const (
	TypeChecking    Type = "CHECKING"
	TypeSavings     Type = "SAVINGS"
	TypeBusiness    Type = "BUSINESS"
	TypeInvestment  Type = "INVESTMENT"
	TypeMoneyMarket Type = "MONEY_MARKET"
)

// Policy carries the type-keyed defaults applied when an account is opened.
type Policy struct {
	MinimumBalance money.Money
	InterestRate   money.Rate
	MaintenanceFee money.Money
}

var policies = map[Type]Policy{
	TypeChecking: {
		MinimumBalance: money.MustNew("100.00"),
		InterestRate:   money.MustNewRate("0.0050"),
		MaintenanceFee: money.MustNew("10.00"),
	},
	TypeSavings: {
		MinimumBalance: money.MustNew("500.00"),
		InterestRate:   money.MustNewRate("0.0200"),
		MaintenanceFee: money.Zero(),
	},
	TypeBusiness: {
		MinimumBalance: money.MustNew("1000.00"),
		InterestRate:   money.MustNewRate("0.0100"),
		MaintenanceFee: money.MustNew("25.00"),
	},
	TypeMoneyMarket: {
		MinimumBalance: money.MustNew("500.00"),
		InterestRate:   money.MustNewRate("0.0150"),
		MaintenanceFee: money.MustNew("15.00"),
	},
	TypeInvestment: {
		MinimumBalance: money.Zero(),
		InterestRate:   money.ZeroRate(),
		MaintenanceFee: money.MustNew("5.00"),
	},
}

// PolicyFor returns the opening policy for an account type.
func PolicyFor(t Type) (Policy, bool) {
	p, ok := policies[t]
	return p, ok
}

// Account is the aggregate root for a customer account.
//
// Invariants:
//   - Balance never falls below -(MinimumBalance + OverdraftLimit).
//   - AvailableBalance tracks Balance absent holds; Debit and Credit always
//     move both together.
//   - A closed account is inactive and holds a zero balance.
type Account struct {
	ID               uuid.UUID
	Number           string
	UserID           uuid.UUID
	Type             Type
	Balance          money.Money
	AvailableBalance money.Money
	MinimumBalance   money.Money
	OverdraftLimit   money.Money
	InterestRate     money.Rate
	MaintenanceFee   money.Money
	Active           bool
	Frozen           bool
	OpenedAt         time.Time
	ClosedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Builder provides a fluent API for constructing Account instances, both for
// opening new accounts and hydrating persisted ones.
type Builder struct {
	id             uuid.UUID
	number         string
	userID         uuid.UUID
	accountType    Type
	balance        money.Money
	overdraftLimit money.Money
	openedAt       time.Time
}

// New creates a Builder with a fresh id and checking defaults.
func New() *Builder {
	return &Builder{
		id:          uuid.New(),
		accountType: TypeChecking,
		openedAt:    time.Now(),
	}
}

// WithID sets the id, for hydration from a data store.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithNumber sets the unique account number. Mandatory.
func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

// WithUserID sets the owning user. Mandatory.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

// WithType sets the account type used to resolve opening policy.
func (b *Builder) WithType(t Type) *Builder {
	b.accountType = t
	return b
}

// WithInitialBalance sets the opening balance.
func (b *Builder) WithInitialBalance(balance money.Money) *Builder {
	b.balance = balance
	return b
}

// WithOverdraftLimit sets the overdraft allowance.
func (b *Builder) WithOverdraftLimit(limit money.Money) *Builder {
	b.overdraftLimit = limit
	return b
}

// WithOpenedAt sets the opening timestamp, for hydration and tests.
func (b *Builder) WithOpenedAt(t time.Time) *Builder {
	b.openedAt = t
	return b
}

// Build validates the builder and returns a new active Account with minimum
// balance, interest rate and maintenance fee resolved from the type policy.
func (b *Builder) Build() (*Account, error) {
	if b.userID == uuid.Nil {
		return nil, errors.New("userID is required")
	}
	if b.number == "" {
		return nil, errors.New("account number is required")
	}
	if b.balance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if b.overdraftLimit.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	policy, ok := policies[b.accountType]
	if !ok {
		return nil, domain.ErrInvalidOperation
	}
	return &Account{
		ID:               b.id,
		Number:           b.number,
		UserID:           b.userID,
		Type:             b.accountType,
		Balance:          b.balance,
		AvailableBalance: b.balance,
		MinimumBalance:   policy.MinimumBalance,
		OverdraftLimit:   b.overdraftLimit,
		InterestRate:     policy.InterestRate,
		MaintenanceFee:   policy.MaintenanceFee,
		Active:           true,
		OpenedAt:         b.openedAt,
		CreatedAt:        b.openedAt,
		UpdatedAt:        b.openedAt,
	}, nil
}

// floor is the lowest balance the overdraft policy permits.
func (a *Account) floor() money.Money {
	return a.MinimumBalance.Add(a.OverdraftLimit).Neg()
}

// CanDebit reports whether a debit of amount would satisfy the overdraft
// policy without mutating anything.
func (a *Account) CanDebit(amount money.Money) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if a.Balance.Sub(amount).LessThan(a.floor()) {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// Debit atomically decrements Balance and AvailableBalance.
// Fails with ErrInvalidAmount for non-positive amounts and
// ErrInsufficientFunds when the result would breach the overdraft floor.
func (a *Account) Debit(amount money.Money) error {
	if err := a.CanDebit(amount); err != nil {
		return err
	}
	a.Balance = a.Balance.Sub(amount)
	a.AvailableBalance = a.AvailableBalance.Sub(amount)
	a.UpdatedAt = time.Now()
	return nil
}

// Credit atomically increments Balance and AvailableBalance.
// Fails with ErrInvalidAmount for non-positive amounts.
func (a *Account) Credit(amount money.Money) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	a.UpdatedAt = time.Now()
	return nil
}

// Freeze flips the frozen flag on. Pending transactions are not reversed.
func (a *Account) Freeze() {
	a.Frozen = true
	a.UpdatedAt = time.Now()
}

// Unfreeze flips the frozen flag off.
func (a *Account) Unfreeze() {
	a.Frozen = false
	a.UpdatedAt = time.Now()
}

// Close deactivates the account. Fails with ErrInvalidState unless the
// balance is exactly zero.
func (a *Account) Close() error {
	if !a.Balance.IsZero() {
		return domain.ErrInvalidState
	}
	now := time.Now()
	a.Active = false
	a.ClosedAt = &now
	a.UpdatedAt = now
	return nil
}

// SetOverdraftLimit replaces the overdraft allowance.
func (a *Account) SetOverdraftLimit(limit money.Money) error {
	if limit.IsNegative() {
		return domain.ErrInvalidAmount
	}
	a.OverdraftLimit = limit
	a.UpdatedAt = time.Now()
	return nil
}

// ValidateOwner fails with ErrNotOwner unless userID owns the account.
func (a *Account) ValidateOwner(userID uuid.UUID) error {
	if a.UserID != userID {
		return domain.ErrNotOwner
	}
	return nil
}

// EnsureOperational fails unless the account is active and not frozen.
func (a *Account) EnsureOperational() error {
	if !a.Active {
		return domain.ErrInvalidState
	}
	if a.Frozen {
		return domain.ErrAccountFrozen
	}
	return nil
}
