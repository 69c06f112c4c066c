package repository

import (
	"context"
	"time"

	"github.com/amirasaad/corebank/pkg/domain/payment"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a PaymentRepository backed by the given
// session.
func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	m := mapPaymentToModel(p)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	m := mapPaymentToModel(p)
	return mapErr(r.db.WithContext(ctx).Save(&m).Error)
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	var m Payment
	if err := r.db.WithContext(ctx).First(&m, "reference = ?", reference).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapPaymentToDomain(&m), nil
}

func (r *paymentRepository) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Payment{}).
		Where("idempotency_key = ?", key).
		Count(&count).Error
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

// SumDebitedSince totals the amounts debited from an account since the given
// instant, excluding failed payments. Fees do not count against the cap.
func (r *paymentRepository) SumDebitedSince(ctx context.Context, fromAccountID uuid.UUID, since time.Time) (money.Money, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("from_account_id = ? AND created_at >= ? AND status <> ?",
			fromAccountID, since, string(payment.StatusFailed)).
		Scan(&total).Error
	if err != nil {
		return money.Money{}, mapErr(err)
	}
	return money.NewFromDecimal(total), nil
}

func (r *paymentRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*payment.Payment, error) {
	var ms []Payment
	err := r.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*payment.Payment, 0, len(ms))
	for i := range ms {
		out = append(out, mapPaymentToDomain(&ms[i]))
	}
	return out, nil
}

func mapPaymentToModel(p *payment.Payment) Payment {
	m := Payment{
		ID:                    p.ID,
		Reference:             p.Reference,
		Type:                  string(p.Type),
		Status:                string(p.Status),
		FromAccountID:         p.FromAccountID,
		ToAccountID:           p.ToAccountID,
		Amount:                p.Amount.Decimal(),
		Fee:                   p.Fee.Decimal(),
		Description:           p.Description,
		ExternalBankCode:      p.ExternalBankCode,
		ExternalAccountNumber: p.ExternalAccountNumber,
		BeneficiaryName:       p.BeneficiaryName,
		BillerCode:            p.BillerCode,
		BillerName:            p.BillerName,
		CustomerReference:     p.CustomerReference,
		ScheduledAt:           p.ScheduledAt,
		ProcessedAt:           p.ProcessedAt,
		CreatedAt:             p.CreatedAt,
	}
	// A NULL key keeps the unique index from rejecting key-less payments.
	if p.IdempotencyKey != "" {
		key := p.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}

func mapPaymentToDomain(m *Payment) *payment.Payment {
	p := &payment.Payment{
		ID:                    m.ID,
		Reference:             m.Reference,
		Type:                  payment.Type(m.Type),
		Status:                payment.Status(m.Status),
		FromAccountID:         m.FromAccountID,
		ToAccountID:           m.ToAccountID,
		Amount:                money.NewFromDecimal(m.Amount),
		Fee:                   money.NewFromDecimal(m.Fee),
		Description:           m.Description,
		ExternalBankCode:      m.ExternalBankCode,
		ExternalAccountNumber: m.ExternalAccountNumber,
		BeneficiaryName:       m.BeneficiaryName,
		BillerCode:            m.BillerCode,
		BillerName:            m.BillerName,
		CustomerReference:     m.CustomerReference,
		ScheduledAt:           m.ScheduledAt,
		ProcessedAt:           m.ProcessedAt,
		CreatedAt:             m.CreatedAt,
	}
	if m.IdempotencyKey != nil {
		p.IdempotencyKey = *m.IdempotencyKey
	}
	return p
}
