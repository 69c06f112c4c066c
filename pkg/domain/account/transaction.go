package account

import (
	"time"

	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
)

// TransactionType classifies a ledger movement.
type TransactionType string

const (
	TransactionDeposit          TransactionType = "DEPOSIT"
	TransactionWithdrawal       TransactionType = "WITHDRAWAL"
	TransactionTransfer         TransactionType = "TRANSFER"
	TransactionLoanDisbursement TransactionType = "LOAN_DISBURSEMENT"
	TransactionLoanPayment      TransactionType = "LOAN_PAYMENT"
	TransactionCardPayment      TransactionType = "CARD_PAYMENT"
	TransactionBillPayment      TransactionType = "BILL_PAYMENT"
	TransactionFee              TransactionType = "FEE"
)

// TransactionStatus tracks the lifecycle of a ledger record. Records are
// immutable after completion except for the pending→completed/failed flip.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// Transaction is one immutable ledger movement. Transfer legs carry both
// account ids and share a reference prefix, suffixed -DEBIT and -CREDIT.
type Transaction struct {
	ID             uuid.UUID
	Reference      string
	Type           TransactionType
	Status         TransactionStatus
	Amount         money.Money
	FromAccountID  *uuid.UUID
	ToAccountID    *uuid.UUID
	RunningBalance money.Money
	Description    string
	CreatedAt      time.Time
	ProcessedAt    time.Time
}

// NewTransactionFromData hydrates a Transaction from raw data. It bypasses
// invariants and is for repository hydration and test fixtures only.
func NewTransactionFromData(
	id uuid.UUID,
	reference string,
	txType TransactionType,
	status TransactionStatus,
	amount money.Money,
	fromAccountID, toAccountID *uuid.UUID,
	runningBalance money.Money,
	description string,
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		ID:             id,
		Reference:      reference,
		Type:           txType,
		Status:         status,
		Amount:         amount,
		FromAccountID:  fromAccountID,
		ToAccountID:    toAccountID,
		RunningBalance: runningBalance,
		Description:    description,
		CreatedAt:      createdAt,
		ProcessedAt:    createdAt,
	}
}
