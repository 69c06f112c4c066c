// Package payment models money-movement intents: transfers and bill payments.
// A Payment is distinct from the raw ledger Transactions it causes.
package payment

import (
	"time"

	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
)

// Type classifies a payment intent.
type Type string

const (
	TypeInternalTransfer Type = "INTERNAL_TRANSFER"
	TypeExternalTransfer Type = "EXTERNAL_TRANSFER"
	TypeBillPayment      Type = "BILL_PAYMENT"
	TypeLoanPayment      Type = "LOAN_PAYMENT"
	TypeCardPayment      Type = "CARD_PAYMENT"
)

// Status tracks a payment's settlement lifecycle. External transfers settle
// asynchronously and remain PROCESSING from this core's perspective.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Fee and limit policy for the transfer processor.
var (
	InternalTransferFee = money.MustNew("2.50")
	ExternalTransferFee = money.MustNew("5.00") // 2x internal
	BillPaymentFee      = money.MustNew("1.00")

	SingleTransferLimit = money.MustNew("10000.00")
	DailyTransferLimit  = money.MustNew("50000.00")
)

// FeeFor returns the flat fee assessed for a payment type.
func FeeFor(t Type) money.Money {
	switch t {
	case TypeInternalTransfer:
		return InternalTransferFee
	case TypeExternalTransfer:
		return ExternalTransferFee
	case TypeBillPayment:
		return BillPaymentFee
	default:
		return money.Zero()
	}
}

// Payment is one money-movement intent. External transfers carry counterpart
// bank fields; bill payments carry biller fields.
type Payment struct {
	ID             uuid.UUID
	Reference      string
	IdempotencyKey string
	Type           Type
	Status         Status
	FromAccountID  uuid.UUID
	ToAccountID    *uuid.UUID
	Amount         money.Money
	Fee            money.Money
	Description    string

	// External transfer counterpart.
	ExternalBankCode      string
	ExternalAccountNumber string
	BeneficiaryName       string

	// Bill payment counterpart.
	BillerCode        string
	BillerName        string
	CustomerReference string

	ScheduledAt time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// Total returns the amount debited from the source account including the fee.
func (p *Payment) Total() money.Money {
	return p.Amount.Add(p.Fee)
}

// MarkCompleted records synchronous settlement.
func (p *Payment) MarkCompleted(now time.Time) {
	p.Status = StatusCompleted
	p.ProcessedAt = &now
}

// MarkProcessing records hand-off to an external counterpart bank.
func (p *Payment) MarkProcessing() {
	p.Status = StatusProcessing
}
