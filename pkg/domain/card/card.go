// Package card holds the Card aggregate: the status machine, spending limits
// and the authorization decision for card-initiated purchases.
package card

import (
	"errors"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Type classifies a card by its funding source.
type Type string

const (
	TypeDebit   Type = "DEBIT"
	TypeCredit  Type = "CREDIT"
	TypePrepaid Type = "PREPAID"
)

// Status is the card lifecycle state.
//
// PENDING_ACTIVATION → ACTIVE (correct PIN) → BLOCKED/unblocked by operator →
// CANCELLED (terminal). EXPIRED is derived from the expiry date at
// authorization time but may also be persisted by a sweep.
type Status string

const (
	StatusPendingActivation Status = "PENDING_ACTIVATION"
	StatusActive            Status = "ACTIVE"
	StatusBlocked           Status = "BLOCKED"
	StatusExpired           Status = "EXPIRED"
	StatusCancelled         Status = "CANCELLED"
)

// Issue-time defaults.
var (
	DefaultDailyLimit   = money.MustNew("5000.00")
	DefaultMonthlyLimit = money.MustNew("50000.00")
	DefaultCreditAPR    = money.MustNewRate("18.99")
)

// ExpiryYears is how long an issued card remains valid.
const ExpiryYears = 4

// Card is the aggregate root for one payment card linked to an account.
type Card struct {
	ID              uuid.UUID
	Number          string
	CVV             string
	PINHash         string
	Type            Type
	Status          Status
	HolderName      string
	UserID          uuid.UUID
	AccountID       uuid.UUID
	ExpiryDate      time.Time
	CreditLimit     money.Money // credit cards only
	AvailableCredit money.Money
	InterestRate    money.Rate
	DailyLimit      money.Money
	MonthlyLimit    money.Money

	ContactlessEnabled   bool
	OnlineEnabled        bool
	InternationalEnabled bool

	IssuedAt    time.Time
	ActivatedAt *time.Time
	BlockedAt   *time.Time
	UpdatedAt   time.Time
}

// IssueSpec carries the inputs for issuing a new card.
type IssueSpec struct {
	UserID      uuid.UUID
	AccountID   uuid.UUID
	HolderName  string
	Type        Type
	Number      string
	CVV         string
	PIN         string
	CreditLimit money.Money // credit cards only
}

// Issue creates a card in PENDING_ACTIVATION with a bcrypt-hashed PIN, a
// four-year expiry and default limits. Credit cards get a credit line equal
// to the requested limit and the default APR.
func Issue(spec IssueSpec, now time.Time) (*Card, error) {
	if spec.UserID == uuid.Nil || spec.AccountID == uuid.Nil {
		return nil, errors.New("userID and accountID are required")
	}
	if spec.Number == "" {
		return nil, errors.New("card number is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(spec.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c := &Card{
		ID:           uuid.New(),
		Number:       spec.Number,
		CVV:          spec.CVV,
		PINHash:      string(hash),
		Type:         spec.Type,
		Status:       StatusPendingActivation,
		HolderName:   spec.HolderName,
		UserID:       spec.UserID,
		AccountID:    spec.AccountID,
		ExpiryDate:   now.AddDate(ExpiryYears, 0, 0),
		DailyLimit:   DefaultDailyLimit,
		MonthlyLimit: DefaultMonthlyLimit,

		ContactlessEnabled:   true,
		OnlineEnabled:        true,
		InternationalEnabled: false,

		IssuedAt:  now,
		UpdatedAt: now,
	}
	if spec.Type == TypeCredit {
		if !spec.CreditLimit.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		c.CreditLimit = spec.CreditLimit
		c.AvailableCredit = spec.CreditLimit
		c.InterestRate = DefaultCreditAPR
	}
	return c, nil
}

// Activate transitions PENDING_ACTIVATION → ACTIVE after verifying the PIN.
func (c *Card) Activate(pin string) error {
	if c.Status != StatusPendingActivation {
		return domain.ErrInvalidState
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PINHash), []byte(pin)) != nil {
		return domain.ErrInvalidCredential
	}
	now := time.Now()
	c.Status = StatusActive
	c.ActivatedAt = &now
	c.UpdatedAt = now
	return nil
}

// Block suspends the card. Already blocked or cancelled cards cannot be
// blocked again.
func (c *Card) Block() error {
	if c.Status == StatusBlocked || c.Status == StatusCancelled {
		return domain.ErrInvalidState
	}
	now := time.Now()
	c.Status = StatusBlocked
	c.BlockedAt = &now
	c.UpdatedAt = now
	return nil
}

// Unblock reinstates a blocked card.
func (c *Card) Unblock() error {
	if c.Status != StatusBlocked {
		return domain.ErrInvalidState
	}
	c.Status = StatusActive
	c.BlockedAt = nil
	c.UpdatedAt = time.Now()
	return nil
}

// Cancel terminally retires the card.
func (c *Card) Cancel() error {
	if c.Status == StatusCancelled {
		return domain.ErrInvalidState
	}
	c.Status = StatusCancelled
	c.UpdatedAt = time.Now()
	return nil
}

// IsExpired reports whether the card's expiry date has passed.
func (c *Card) IsExpired(now time.Time) bool {
	return c.ExpiryDate.Before(now)
}

// CanAuthorize performs the card-local authorization checks: active status,
// unexpired, positive amount within the daily limit, and for credit cards a
// sufficient credit line. Debit-card funds checks happen against the linked
// account.
func (c *Card) CanAuthorize(amount money.Money, now time.Time) error {
	if c.Status != StatusActive {
		return domain.ErrInvalidState
	}
	if c.IsExpired(now) {
		return domain.ErrExpired
	}
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if amount.GreaterThan(c.DailyLimit) {
		return domain.ErrLimitExceeded
	}
	if c.Type == TypeCredit && c.AvailableCredit.LessThan(amount) {
		return domain.ErrInsufficientCredit
	}
	return nil
}

// DrawCredit decrements the available credit line after a successful credit
// authorization.
func (c *Card) DrawCredit(amount money.Money) error {
	if c.Type != TypeCredit {
		return domain.ErrInvalidOperation
	}
	if c.AvailableCredit.LessThan(amount) {
		return domain.ErrInsufficientCredit
	}
	c.AvailableCredit = c.AvailableCredit.Sub(amount)
	c.UpdatedAt = time.Now()
	return nil
}

// MaskedNumber renders the PAN with all but the last four digits hidden.
func (c *Card) MaskedNumber() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return "**** **** **** " + c.Number[len(c.Number)-4:]
}

// ValidateOwner fails with ErrNotOwner unless userID owns the card.
func (c *Card) ValidateOwner(userID uuid.UUID) error {
	if c.UserID != userID {
		return domain.ErrNotOwner
	}
	return nil
}
