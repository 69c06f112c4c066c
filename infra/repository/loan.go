package repository

import (
	"context"

	"github.com/amirasaad/corebank/pkg/domain/loan"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a LoanRepository backed by the given session.
func NewLoanRepository(db *gorm.DB) repository.LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Get(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	var m Loan
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapLoanToDomain(&m), nil
}

func (r *loanRepository) GetByNumber(ctx context.Context, number string) (*loan.Loan, error) {
	var m Loan
	if err := r.db.WithContext(ctx).First(&m, "number = ?", number).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapLoanToDomain(&m), nil
}

func (r *loanRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Loan{}).Where("number = ?", number).Count(&count).Error
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

func (r *loanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*loan.Loan, error) {
	var ms []Loan
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&ms).Error; err != nil {
		return nil, mapErr(err)
	}
	out := make([]*loan.Loan, 0, len(ms))
	for i := range ms {
		out = append(out, mapLoanToDomain(&ms[i]))
	}
	return out, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, status loan.Status) ([]*loan.Loan, error) {
	var ms []Loan
	if err := r.db.WithContext(ctx).Where("status = ?", string(status)).Find(&ms).Error; err != nil {
		return nil, mapErr(err)
	}
	out := make([]*loan.Loan, 0, len(ms))
	for i := range ms {
		out = append(out, mapLoanToDomain(&ms[i]))
	}
	return out, nil
}

func (r *loanRepository) Create(ctx context.Context, l *loan.Loan) error {
	m := mapLoanToModel(l)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *loanRepository) Update(ctx context.Context, l *loan.Loan) error {
	m := mapLoanToModel(l)
	return mapErr(r.db.WithContext(ctx).Save(&m).Error)
}

func mapLoanToModel(l *loan.Loan) Loan {
	return Loan{
		ID:                 l.ID,
		Number:             l.Number,
		UserID:             l.UserID,
		Type:               string(l.Type),
		Principal:          l.Principal.Decimal(),
		InterestRate:       l.InterestRate.Decimal(),
		TermMonths:         l.TermMonths,
		MonthlyPayment:     l.MonthlyPayment.Decimal(),
		OutstandingBalance: l.OutstandingBalance.Decimal(),
		TotalAmount:        l.TotalAmount.Decimal(),
		TotalInterest:      l.TotalInterest.Decimal(),
		DebtToIncomeRatio:  l.DebtToIncomeRatio,
		Status:             string(l.Status),
		Purpose:            l.Purpose,
		CreditScore:        l.CreditScore,
		AnnualIncome:       l.AnnualIncome.Decimal(),
		Secured:            l.Secured,
		CollateralDesc:     l.CollateralDesc,
		CollateralValue:    l.CollateralValue.Decimal(),
		Notes:              l.Notes,

		DisbursementAccountID: l.DisbursementAccountID,
		ApplicationDate:       l.ApplicationDate,
		ApprovalDate:          l.ApprovalDate,
		DisbursementDate:      l.DisbursementDate,
		NextPaymentDate:       l.NextPaymentDate,
		MaturityDate:          l.MaturityDate,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
	}
}

func mapLoanToDomain(m *Loan) *loan.Loan {
	return &loan.Loan{
		ID:                 m.ID,
		Number:             m.Number,
		UserID:             m.UserID,
		Type:               loan.Type(m.Type),
		Principal:          money.NewFromDecimal(m.Principal),
		InterestRate:       money.NewRateFromDecimal(m.InterestRate),
		TermMonths:         m.TermMonths,
		MonthlyPayment:     money.NewFromDecimal(m.MonthlyPayment),
		OutstandingBalance: money.NewFromDecimal(m.OutstandingBalance),
		TotalAmount:        money.NewFromDecimal(m.TotalAmount),
		TotalInterest:      money.NewFromDecimal(m.TotalInterest),
		DebtToIncomeRatio:  m.DebtToIncomeRatio,
		Status:             loan.Status(m.Status),
		Purpose:            m.Purpose,
		CreditScore:        m.CreditScore,
		AnnualIncome:       money.NewFromDecimal(m.AnnualIncome),
		Secured:            m.Secured,
		CollateralDesc:     m.CollateralDesc,
		CollateralValue:    money.NewFromDecimal(m.CollateralValue),
		Notes:              m.Notes,

		DisbursementAccountID: m.DisbursementAccountID,
		ApplicationDate:       m.ApplicationDate,
		ApprovalDate:          m.ApprovalDate,
		DisbursementDate:      m.DisbursementDate,
		NextPaymentDate:       m.NextPaymentDate,
		MaturityDate:          m.MaturityDate,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

type loanPaymentRepository struct {
	db *gorm.DB
}

// NewLoanPaymentRepository creates a LoanPaymentRepository backed by the
// given session.
func NewLoanPaymentRepository(db *gorm.DB) repository.LoanPaymentRepository {
	return &loanPaymentRepository{db: db}
}

func (r *loanPaymentRepository) Create(ctx context.Context, p *loan.Payment) error {
	m := LoanPayment{
		ID:               p.ID,
		LoanID:           p.LoanID,
		PaymentAccountID: p.PaymentAccountID,
		Reference:        p.Reference,
		Amount:           p.Amount.Decimal(),
		PrincipalPortion: p.PrincipalPortion.Decimal(),
		InterestPortion:  p.InterestPortion.Decimal(),
		FeesPortion:      p.FeesPortion.Decimal(),
		RemainingBalance: p.RemainingBalance.Decimal(),
		DueDate:          p.DueDate,
		PaidAt:           p.PaidAt,
		Status:           string(p.Status),
		AutoPayment:      p.AutoPayment,
		Overdue:          p.Overdue,
		OverdueDays:      p.OverdueDays,
	}
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *loanPaymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*loan.Payment, error) {
	var ms []LoanPayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("paid_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*loan.Payment, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		out = append(out, &loan.Payment{
			ID:               m.ID,
			LoanID:           m.LoanID,
			PaymentAccountID: m.PaymentAccountID,
			Reference:        m.Reference,
			Amount:           money.NewFromDecimal(m.Amount),
			PrincipalPortion: money.NewFromDecimal(m.PrincipalPortion),
			InterestPortion:  money.NewFromDecimal(m.InterestPortion),
			FeesPortion:      money.NewFromDecimal(m.FeesPortion),
			RemainingBalance: money.NewFromDecimal(m.RemainingBalance),
			DueDate:          m.DueDate,
			PaidAt:           m.PaidAt,
			Status:           loan.PaymentStatus(m.Status),
			AutoPayment:      m.AutoPayment,
			Overdue:          m.Overdue,
			OverdueDays:      m.OverdueDays,
		})
	}
	return out, nil
}
