// Package loan holds the Loan aggregate: rate quoting, amortization math,
// the application-to-payoff state machine, and payment application.
package loan

import (
	"errors"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type classifies a loan for base-rate policy.
type Type string

const (
	TypePersonal   Type = "PERSONAL"
	TypeHome       Type = "HOME"
	TypeAuto       Type = "AUTO"
	TypeBusiness   Type = "BUSINESS"
	TypeEducation  Type = "EDUCATION"
	TypeCreditLine Type = "CREDIT_LINE"
)

// Status is the loan lifecycle state.
//
// APPLIED → UNDER_REVIEW → APPROVED → ACTIVE → PAID_OFF | DEFAULTED.
// APPLIED/UNDER_REVIEW → REJECTED is terminal with a recorded reason.
type Status string

const (
	StatusApplied     Status = "APPLIED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusActive      Status = "ACTIVE"
	StatusPaidOff     Status = "PAID_OFF"
	StatusDefaulted   Status = "DEFAULTED"
	StatusRejected    Status = "REJECTED"
)

var baseRates = map[Type]money.Rate{
	TypePersonal:   money.MustNewRate("8.50"),
	TypeHome:       money.MustNewRate("3.50"),
	TypeAuto:       money.MustNewRate("5.00"),
	TypeBusiness:   money.MustNewRate("7.00"),
	TypeEducation:  money.MustNewRate("4.50"),
	TypeCreditLine: money.MustNewRate("9.00"),
}

// payoffTolerance is the residual at which a loan is considered repaid; the
// remaining cents come from per-period rounding.
var payoffTolerance = money.MustNew("0.01")

// QuoteRate returns the annual rate for a loan type adjusted by credit-score
// band. Bands are mutually exclusive, evaluated high to low.
func QuoteRate(loanType Type, creditScore int) money.Rate {
	base, ok := baseRates[loanType]
	if !ok {
		base = money.MustNewRate("8.00")
	}
	switch {
	case creditScore >= 750:
		return base.SubPoints("1.00")
	case creditScore >= 700:
		return base.SubPoints("0.50")
	case creditScore < 600:
		return base.AddPoints("2.00")
	case creditScore < 650:
		return base.AddPoints("1.00")
	default:
		return base
	}
}

// MonthlyPayment computes the amortizing payment
// P = L*r*(1+r)^n / ((1+r)^n - 1) with r the monthly fractional rate. A zero
// rate degenerates to principal/term. Rounded half-up to 2 decimals.
func MonthlyPayment(principal money.Money, annualRate money.Rate, termMonths int) (money.Money, error) {
	if !principal.IsPositive() {
		return money.Money{}, domain.ErrInvalidAmount
	}
	if termMonths <= 0 {
		return money.Money{}, domain.ErrInvalidOperation
	}
	r := annualRate.Monthly()
	if r.IsZero() {
		return principal.DivInt(int64(termMonths))
	}
	onePlusRToN := decimal.New(1, 0).Add(r).Pow(decimal.NewFromInt(int64(termMonths)))
	numerator := principal.Decimal().Mul(r).Mul(onePlusRToN)
	denominator := onePlusRToN.Sub(decimal.New(1, 0))
	return money.NewFromDecimal(numerator.DivRound(denominator, 2)), nil
}

// Loan is the aggregate root for one amortizing loan.
//
// Invariant: OutstandingBalance >= 0; it clamps to exactly zero when the
// residual falls within payoffTolerance.
type Loan struct {
	ID                 uuid.UUID
	Number             string
	UserID             uuid.UUID
	Type               Type
	Principal          money.Money
	InterestRate       money.Rate
	TermMonths         int
	MonthlyPayment     money.Money
	OutstandingBalance money.Money
	TotalAmount        money.Money
	TotalInterest      money.Money
	DebtToIncomeRatio  decimal.Decimal
	Status             Status
	Purpose            string
	CreditScore        int
	AnnualIncome       money.Money
	Secured            bool
	CollateralDesc     string
	CollateralValue    money.Money
	Notes              string

	DisbursementAccountID *uuid.UUID
	ApplicationDate       time.Time
	ApprovalDate          *time.Time
	DisbursementDate      *time.Time
	NextPaymentDate       *time.Time
	MaturityDate          *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Application carries the inputs for a new loan application.
type Application struct {
	UserID          uuid.UUID
	Type            Type
	Principal       money.Money
	TermMonths      int
	Purpose         string
	CreditScore     int
	AnnualIncome    money.Money
	Secured         bool
	CollateralDesc  string
	CollateralValue money.Money
}

// Apply creates a Loan in APPLIED state with its rate quoted, monthly payment
// amortized and totals precomputed.
func Apply(number string, app Application, now time.Time) (*Loan, error) {
	if app.UserID == uuid.Nil {
		return nil, errors.New("userID is required")
	}
	if number == "" {
		return nil, errors.New("loan number is required")
	}
	rate := QuoteRate(app.Type, app.CreditScore)
	monthly, err := MonthlyPayment(app.Principal, rate, app.TermMonths)
	if err != nil {
		return nil, err
	}

	total := monthly.MulInt(int64(app.TermMonths))
	l := &Loan{
		ID:                 uuid.New(),
		Number:             number,
		UserID:             app.UserID,
		Type:               app.Type,
		Principal:          app.Principal,
		InterestRate:       rate,
		TermMonths:         app.TermMonths,
		MonthlyPayment:     monthly,
		OutstandingBalance: app.Principal,
		TotalAmount:        total,
		TotalInterest:      total.Sub(app.Principal),
		Status:             StatusApplied,
		Purpose:            app.Purpose,
		CreditScore:        app.CreditScore,
		AnnualIncome:       app.AnnualIncome,
		Secured:            app.Secured,
		CollateralDesc:     app.CollateralDesc,
		CollateralValue:    app.CollateralValue,
		ApplicationDate:    now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if app.AnnualIncome.IsPositive() {
		monthlyIncome := app.AnnualIncome.Decimal().DivRound(decimal.NewFromInt(12), 2)
		l.DebtToIncomeRatio = monthly.Decimal().DivRound(monthlyIncome, 4)
	}
	return l, nil
}

// BeginReview moves an APPLIED loan to UNDER_REVIEW.
func (l *Loan) BeginReview() error {
	if l.Status != StatusApplied {
		return domain.ErrInvalidState
	}
	l.Status = StatusUnderReview
	l.UpdatedAt = time.Now()
	return nil
}

// Approve transitions APPLIED/UNDER_REVIEW → APPROVED → ACTIVE, recording the
// disbursement account and deriving first payment and maturity dates. The
// caller is responsible for crediting the principal to the account within the
// same unit of work.
func (l *Loan) Approve(disbursementAccountID uuid.UUID, now time.Time) error {
	if l.Status != StatusApplied && l.Status != StatusUnderReview {
		return domain.ErrInvalidState
	}
	next := now.AddDate(0, 1, 0)
	maturity := now.AddDate(0, l.TermMonths, 0)

	l.Status = StatusApproved
	l.ApprovalDate = &now
	l.DisbursementAccountID = &disbursementAccountID
	l.DisbursementDate = &now
	l.NextPaymentDate = &next
	l.MaturityDate = &maturity
	l.Status = StatusActive
	l.UpdatedAt = now
	return nil
}

// Reject terminally rejects an APPLIED/UNDER_REVIEW loan with a reason.
func (l *Loan) Reject(reason string) error {
	if l.Status != StatusApplied && l.Status != StatusUnderReview {
		return domain.ErrInvalidState
	}
	l.Status = StatusRejected
	l.Notes = reason
	l.UpdatedAt = time.Now()
	return nil
}

// MarkDefaulted moves an ACTIVE loan to DEFAULTED.
func (l *Loan) MarkDefaulted(reason string) error {
	if l.Status != StatusActive {
		return domain.ErrInvalidState
	}
	l.Status = StatusDefaulted
	l.Notes = reason
	l.UpdatedAt = time.Now()
	return nil
}

// ApplyPayment applies a payment to an ACTIVE loan: this period's interest is
// OutstandingBalance * monthlyRate, the remainder reduces principal (a
// shortfall is reclassified entirely as interest), the next payment date
// advances one month and the loan transitions to PAID_OFF when the residual
// balance is within payoffTolerance, clamping to exactly zero.
func (l *Loan) ApplyPayment(amount money.Money, now time.Time) (*PaymentSplit, error) {
	if l.Status != StatusActive {
		return nil, domain.ErrInvalidState
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	interest := l.OutstandingBalance.Mul(l.InterestRate.Monthly())
	principal := amount.Sub(interest)
	if principal.IsNegative() {
		principal = money.Zero()
		interest = amount
	}

	l.OutstandingBalance = l.OutstandingBalance.Sub(principal)
	if l.NextPaymentDate != nil {
		next := l.NextPaymentDate.AddDate(0, 1, 0)
		l.NextPaymentDate = &next
	}
	if l.OutstandingBalance.LessThanOrEqual(payoffTolerance) {
		l.OutstandingBalance = money.Zero()
		l.Status = StatusPaidOff
	}
	l.UpdatedAt = now

	return &PaymentSplit{
		Interest:  interest,
		Principal: principal,
		Remaining: l.OutstandingBalance,
	}, nil
}

// PaymentSplit is the principal/interest breakdown of one applied payment.
type PaymentSplit struct {
	Interest  money.Money
	Principal money.Money
	Remaining money.Money
}

// Schedule projects the remaining amortization schedule from the current
// outstanding balance, one entry per month until payoff or term exhaustion.
func (l *Loan) Schedule() []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, l.TermMonths)
	balance := l.OutstandingBalance
	r := l.InterestRate.Monthly()
	for period := 1; balance.IsPositive() && period <= l.TermMonths; period++ {
		interest := balance.Mul(r)
		principal := l.MonthlyPayment.Sub(interest)
		if principal.GreaterThan(balance) {
			principal = balance
		}
		balance = balance.Sub(principal)
		if balance.LessThanOrEqual(payoffTolerance) {
			balance = money.Zero()
		}
		entries = append(entries, ScheduleEntry{
			Period:    period,
			Interest:  interest,
			Principal: principal,
			Balance:   balance,
		})
	}
	return entries
}

// ScheduleEntry is one projected period in an amortization schedule.
type ScheduleEntry struct {
	Period    int
	Interest  money.Money
	Principal money.Money
	Balance   money.Money
}
