package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents an account record in the database. Monetary columns are
// exact decimals, never floats.
type Account struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number           string          `gorm:"uniqueIndex;not null;size:32"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	Type             string          `gorm:"size:16;not null"`
	Balance          decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	AvailableBalance decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	MinimumBalance   decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	OverdraftLimit   decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	InterestRate     decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	MaintenanceFee   decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Active           bool            `gorm:"not null"`
	Frozen           bool            `gorm:"not null"`
	OpenedAt         time.Time
	ClosedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Transaction represents a persisted ledger movement.
type Transaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Reference      string          `gorm:"uniqueIndex;not null;size:40"`
	Type           string          `gorm:"size:24;not null"`
	Status         string          `gorm:"size:16;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	FromAccountID  *uuid.UUID      `gorm:"type:uuid;index"`
	ToAccountID    *uuid.UUID      `gorm:"type:uuid;index"`
	RunningBalance decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Description    string
	CreatedAt      time.Time `gorm:"index"`
	ProcessedAt    time.Time
}

// Payment represents a persisted payment intent.
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Reference      string          `gorm:"uniqueIndex;not null;size:40"`
	IdempotencyKey *string         `gorm:"uniqueIndex;size:64"`
	Type           string          `gorm:"size:24;not null"`
	Status         string          `gorm:"size:16;not null"`
	FromAccountID  uuid.UUID       `gorm:"type:uuid;index;not null"`
	ToAccountID    *uuid.UUID      `gorm:"type:uuid;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Fee            decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Description    string

	ExternalBankCode      string `gorm:"size:16"`
	ExternalAccountNumber string `gorm:"size:40"`
	BeneficiaryName       string
	BillerCode            string `gorm:"size:16"`
	BillerName            string
	CustomerReference     string `gorm:"size:64"`

	ScheduledAt time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time `gorm:"index"`
}

// Loan represents a persisted loan.
type Loan struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number             string          `gorm:"uniqueIndex;not null;size:32"`
	UserID             uuid.UUID       `gorm:"type:uuid;index;not null"`
	Type               string          `gorm:"size:16;not null"`
	Principal          decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	InterestRate       decimal.Decimal `gorm:"type:decimal(9,4);not null"`
	TermMonths         int             `gorm:"not null"`
	MonthlyPayment     decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	TotalInterest      decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	DebtToIncomeRatio  decimal.Decimal `gorm:"type:decimal(9,4)"`
	Status             string          `gorm:"size:16;index;not null"`
	Purpose            string
	CreditScore        int
	AnnualIncome       decimal.Decimal `gorm:"type:decimal(19,2)"`
	Secured            bool
	CollateralDesc     string
	CollateralValue    decimal.Decimal `gorm:"type:decimal(19,2)"`
	Notes              string

	DisbursementAccountID *uuid.UUID `gorm:"type:uuid"`
	ApplicationDate       time.Time
	ApprovalDate          *time.Time
	DisbursementDate      *time.Time
	NextPaymentDate       *time.Time
	MaturityDate          *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// LoanPayment represents a persisted loan repayment record.
type LoanPayment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LoanID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	PaymentAccountID uuid.UUID       `gorm:"type:uuid;not null"`
	Reference        string          `gorm:"uniqueIndex;not null;size:40"`
	Amount           decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	PrincipalPortion decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	InterestPortion  decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	FeesPortion      decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	RemainingBalance decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	DueDate          *time.Time
	PaidAt           time.Time
	Status           string `gorm:"size:16;not null"`
	AutoPayment      bool
	Overdue          bool
	OverdueDays      int
}

// Card represents a persisted payment card.
type Card struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number          string          `gorm:"uniqueIndex;not null;size:20"`
	CVV             string          `gorm:"size:4;not null"`
	PINHash         string          `gorm:"not null"`
	Type            string          `gorm:"size:16;not null"`
	Status          string          `gorm:"size:24;index;not null"`
	HolderName      string          `gorm:"not null"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	AccountID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	ExpiryDate      time.Time       `gorm:"not null"`
	CreditLimit     decimal.Decimal `gorm:"type:decimal(19,2)"`
	AvailableCredit decimal.Decimal `gorm:"type:decimal(19,2)"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(9,4)"`
	DailyLimit      decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	MonthlyLimit    decimal.Decimal `gorm:"type:decimal(19,2);not null"`

	ContactlessEnabled   bool `gorm:"not null"`
	OnlineEnabled        bool `gorm:"not null"`
	InternationalEnabled bool `gorm:"not null"`

	IssuedAt    time.Time
	ActivatedAt *time.Time
	BlockedAt   *time.Time
	UpdatedAt   time.Time
}

// CardTransaction represents a persisted card movement.
type CardTransaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CardID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	Reference         string          `gorm:"uniqueIndex;not null;size:40"`
	AuthorizationCode string          `gorm:"size:8;not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	MerchantName      string
	MerchantCategory  string `gorm:"size:32"`
	MerchantLocation  string
	Contactless       bool
	Online            bool
	International     bool
	Status            string `gorm:"size:16;not null"`
	Description       string
	CreatedAt         time.Time `gorm:"index"`
	ProcessedAt       time.Time
}
