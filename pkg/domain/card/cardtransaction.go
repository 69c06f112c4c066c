package card

import (
	"time"

	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
)

// TransactionStatus tracks a card transaction record's lifecycle.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// Merchant describes the counterpart of a card transaction.
type Merchant struct {
	Name     string
	Category string
	Location string
}

// TransactionFlags carry the channel attributes of a card transaction.
type TransactionFlags struct {
	Contactless   bool
	Online        bool
	International bool
}

// Transaction records one authorized card movement. Immutable once
// completed or failed.
type Transaction struct {
	ID                uuid.UUID
	CardID            uuid.UUID
	Reference         string
	AuthorizationCode string
	Amount            money.Money
	Merchant          Merchant
	Flags             TransactionFlags
	Status            TransactionStatus
	Description       string
	CreatedAt         time.Time
	ProcessedAt       time.Time
}

// NewTransaction builds a completed card transaction record.
func NewTransaction(
	cardID uuid.UUID,
	reference, authCode string,
	amount money.Money,
	merchant Merchant,
	flags TransactionFlags,
	description string,
	now time.Time,
) *Transaction {
	return &Transaction{
		ID:                uuid.New(),
		CardID:            cardID,
		Reference:         reference,
		AuthorizationCode: authCode,
		Amount:            amount,
		Merchant:          merchant,
		Flags:             flags,
		Status:            TransactionCompleted,
		Description:       description,
		CreatedAt:         now,
		ProcessedAt:       now,
	}
}
