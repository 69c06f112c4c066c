package repository

import (
	"context"

	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an AccountRepository backed by the given
// session.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapAccountToDomain(&m), nil
}

// GetForUpdate locks the account row until the enclosing transaction ends,
// serializing concurrent debits on the sufficiency check.
func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return mapAccountToDomain(&m), nil
}

func (r *accountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "number = ?", number).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapAccountToDomain(&m), nil
}

func (r *accountRepository) GetByNumberForUpdate(ctx context.Context, number string) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "number = ?", number).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return mapAccountToDomain(&m), nil
}

func (r *accountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Account{}).Where("number = ?", number).Count(&count).Error
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	var ms []Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&ms).Error; err != nil {
		return nil, mapErr(err)
	}
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		out = append(out, mapAccountToDomain(&ms[i]))
	}
	return out, nil
}

func (r *accountRepository) TotalBalanceByUser(ctx context.Context, userID uuid.UUID) (money.Money, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&Account{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return money.Money{}, mapErr(err)
	}
	return money.NewFromDecimal(total), nil
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *accountRepository) Update(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	return mapErr(r.db.WithContext(ctx).Save(&m).Error)
}

func mapAccountToModel(a *account.Account) Account {
	return Account{
		ID:               a.ID,
		Number:           a.Number,
		UserID:           a.UserID,
		Type:             string(a.Type),
		Balance:          a.Balance.Decimal(),
		AvailableBalance: a.AvailableBalance.Decimal(),
		MinimumBalance:   a.MinimumBalance.Decimal(),
		OverdraftLimit:   a.OverdraftLimit.Decimal(),
		InterestRate:     a.InterestRate.Decimal(),
		MaintenanceFee:   a.MaintenanceFee.Decimal(),
		Active:           a.Active,
		Frozen:           a.Frozen,
		OpenedAt:         a.OpenedAt,
		ClosedAt:         a.ClosedAt,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func mapAccountToDomain(m *Account) *account.Account {
	return &account.Account{
		ID:               m.ID,
		Number:           m.Number,
		UserID:           m.UserID,
		Type:             account.Type(m.Type),
		Balance:          money.NewFromDecimal(m.Balance),
		AvailableBalance: money.NewFromDecimal(m.AvailableBalance),
		MinimumBalance:   money.NewFromDecimal(m.MinimumBalance),
		OverdraftLimit:   money.NewFromDecimal(m.OverdraftLimit),
		InterestRate:     money.NewRateFromDecimal(m.InterestRate),
		MaintenanceFee:   money.NewFromDecimal(m.MaintenanceFee),
		Active:           m.Active,
		Frozen:           m.Frozen,
		OpenedAt:         m.OpenedAt,
		ClosedAt:         m.ClosedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a TransactionRepository backed by the
// given session.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, t *account.Transaction) error {
	m := mapTransactionToModel(t)
	return mapErr(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapTransactionToDomain(&m), nil
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*account.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "reference = ?", reference).Error; err != nil {
		return nil, mapErr(err)
	}
	return mapTransactionToDomain(&m), nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error) {
	var ms []Transaction
	err := r.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("created_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]*account.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, mapTransactionToDomain(&ms[i]))
	}
	return out, nil
}

func mapTransactionToModel(t *account.Transaction) Transaction {
	return Transaction{
		ID:             t.ID,
		Reference:      t.Reference,
		Type:           string(t.Type),
		Status:         string(t.Status),
		Amount:         t.Amount.Decimal(),
		FromAccountID:  t.FromAccountID,
		ToAccountID:    t.ToAccountID,
		RunningBalance: t.RunningBalance.Decimal(),
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
		ProcessedAt:    t.ProcessedAt,
	}
}

func mapTransactionToDomain(m *Transaction) *account.Transaction {
	return &account.Transaction{
		ID:             m.ID,
		Reference:      m.Reference,
		Type:           account.TransactionType(m.Type),
		Status:         account.TransactionStatus(m.Status),
		Amount:         money.NewFromDecimal(m.Amount),
		FromAccountID:  m.FromAccountID,
		ToAccountID:    m.ToAccountID,
		RunningBalance: money.NewFromDecimal(m.RunningBalance),
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
		ProcessedAt:    m.ProcessedAt,
	}
}
