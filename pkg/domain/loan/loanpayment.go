package loan

import (
	"time"

	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
)

// PaymentStatus tracks a loan payment record's lifecycle.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment records one application of funds to a loan. Immutable once
// completed.
type Payment struct {
	ID               uuid.UUID
	LoanID           uuid.UUID
	PaymentAccountID uuid.UUID
	Reference        string
	Amount           money.Money
	PrincipalPortion money.Money
	InterestPortion  money.Money
	FeesPortion      money.Money
	RemainingBalance money.Money
	DueDate          *time.Time
	PaidAt           time.Time
	Status           PaymentStatus
	AutoPayment      bool
	Overdue          bool
	OverdueDays      int
}

// NewPayment builds a completed loan payment record from an applied split.
func NewPayment(
	loanID, accountID uuid.UUID,
	reference string,
	amount money.Money,
	split PaymentSplit,
	dueDate *time.Time,
	paidAt time.Time,
	autoPayment bool,
) *Payment {
	p := &Payment{
		ID:               uuid.New(),
		LoanID:           loanID,
		PaymentAccountID: accountID,
		Reference:        reference,
		Amount:           amount,
		PrincipalPortion: split.Principal,
		InterestPortion:  split.Interest,
		FeesPortion:      money.Zero(),
		RemainingBalance: split.Remaining,
		DueDate:          dueDate,
		PaidAt:           paidAt,
		Status:           PaymentCompleted,
		AutoPayment:      autoPayment,
	}
	if dueDate != nil && paidAt.After(*dueDate) {
		p.Overdue = true
		p.OverdueDays = int(paidAt.Sub(*dueDate).Hours() / 24)
	}
	return p
}
