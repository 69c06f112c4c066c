package repository

import (
	"context"

	"github.com/amirasaad/corebank/pkg/domain/card"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a CardRepository backed by the given session.
func NewCardRepository(db *gorm.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Get(ctx context.Context, id uuid.UUID) (*card.Card, error) {
	var m Card
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapCardToDomain(&m), nil
}

func (r *cardRepository) GetByNumber(ctx context.Context, number string) (*card.Card, error) {
	var m Card
	if err := r.db.WithContext(ctx).First(&m, "number = ?", number).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapCardToDomain(&m), nil
}

func (r *cardRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Card{}).Where("number = ?", number).Count(&count).Error
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

func (r *cardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*card.Card, error) {
	var ms []Card
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&ms).Error; err != nil {
		return nil, mapErr(err)
	}
	out := make([]*card.Card, 0, len(ms))
	for i := range ms {
		out = append(out, mapCardToDomain(&ms[i]))
	}
	return out, nil
}

func (r *cardRepository) Create(ctx context.Context, c *card.Card) error {
	m := mapCardToModel(c)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *cardRepository) Update(ctx context.Context, c *card.Card) error {
	m := mapCardToModel(c)
	return mapErr(r.db.WithContext(ctx).Save(&m).Error)
}

func mapCardToModel(c *card.Card) Card {
	return Card{
		ID:              c.ID,
		Number:          c.Number,
		CVV:             c.CVV,
		PINHash:         c.PINHash,
		Type:            string(c.Type),
		Status:          string(c.Status),
		HolderName:      c.HolderName,
		UserID:          c.UserID,
		AccountID:       c.AccountID,
		ExpiryDate:      c.ExpiryDate,
		CreditLimit:     c.CreditLimit.Decimal(),
		AvailableCredit: c.AvailableCredit.Decimal(),
		InterestRate:    c.InterestRate.Decimal(),
		DailyLimit:      c.DailyLimit.Decimal(),
		MonthlyLimit:    c.MonthlyLimit.Decimal(),

		ContactlessEnabled:   c.ContactlessEnabled,
		OnlineEnabled:        c.OnlineEnabled,
		InternationalEnabled: c.InternationalEnabled,

		IssuedAt:    c.IssuedAt,
		ActivatedAt: c.ActivatedAt,
		BlockedAt:   c.BlockedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func mapCardToDomain(m *Card) *card.Card {
	return &card.Card{
		ID:              m.ID,
		Number:          m.Number,
		CVV:             m.CVV,
		PINHash:         m.PINHash,
		Type:            card.Type(m.Type),
		Status:          card.Status(m.Status),
		HolderName:      m.HolderName,
		UserID:          m.UserID,
		AccountID:       m.AccountID,
		ExpiryDate:      m.ExpiryDate,
		CreditLimit:     money.NewFromDecimal(m.CreditLimit),
		AvailableCredit: money.NewFromDecimal(m.AvailableCredit),
		InterestRate:    money.NewRateFromDecimal(m.InterestRate),
		DailyLimit:      money.NewFromDecimal(m.DailyLimit),
		MonthlyLimit:    money.NewFromDecimal(m.MonthlyLimit),

		ContactlessEnabled:   m.ContactlessEnabled,
		OnlineEnabled:        m.OnlineEnabled,
		InternationalEnabled: m.InternationalEnabled,

		IssuedAt:    m.IssuedAt,
		ActivatedAt: m.ActivatedAt,
		BlockedAt:   m.BlockedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type cardTransactionRepository struct {
	db *gorm.DB
}

// NewCardTransactionRepository creates a CardTransactionRepository backed by
// the given session.
func NewCardTransactionRepository(db *gorm.DB) repository.CardTransactionRepository {
	return &cardTransactionRepository{db: db}
}

func (r *cardTransactionRepository) Create(ctx context.Context, t *card.Transaction) error {
	m := CardTransaction{
		ID:                t.ID,
		CardID:            t.CardID,
		Reference:         t.Reference,
		AuthorizationCode: t.AuthorizationCode,
		Amount:            t.Amount.Decimal(),
		MerchantName:      t.Merchant.Name,
		MerchantCategory:  t.Merchant.Category,
		MerchantLocation:  t.Merchant.Location,
		Contactless:       t.Flags.Contactless,
		Online:            t.Flags.Online,
		International:     t.Flags.International,
		Status:            string(t.Status),
		Description:       t.Description,
		CreatedAt:         t.CreatedAt,
		ProcessedAt:       t.ProcessedAt,
	}
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *cardTransactionRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*card.Transaction, error) {
	var ms []CardTransaction
	err := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*card.Transaction, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		out = append(out, &card.Transaction{
			ID:                m.ID,
			CardID:            m.CardID,
			Reference:         m.Reference,
			AuthorizationCode: m.AuthorizationCode,
			Amount:            money.NewFromDecimal(m.Amount),
			Merchant: card.Merchant{
				Name:     m.MerchantName,
				Category: m.MerchantCategory,
				Location: m.MerchantLocation,
			},
			Flags: card.TransactionFlags{
				Contactless:   m.Contactless,
				Online:        m.Online,
				International: m.International,
			},
			Status:      card.TransactionStatus(m.Status),
			Description: m.Description,
			CreatedAt:   m.CreatedAt,
			ProcessedAt: m.ProcessedAt,
		})
	}
	return out, nil
}
