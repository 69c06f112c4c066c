package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestAccountRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}

	a, err := account.New().
		WithNumber("ACC20260828123456").
		WithUserID(uuid.New()).
		WithInitialBalance(money.MustNew("100.00")).
		Build()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "accounts" (.+) VALUES (.+)`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Create(context.Background(), a))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "accounts" (.+) VALUES (.+)`).
		WillReturnError(errors.New("create error"))
	mock.ExpectRollback()
	require.Error(t, repo.Create(context.Background(), a))
}

func TestAccountRepository_Get_MapsRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}
	id := uuid.New()
	userID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "number", "user_id", "type",
		"balance", "available_balance", "minimum_balance", "overdraft_limit",
		"interest_rate", "maintenance_fee", "active", "frozen",
	}).AddRow(
		id, "ACC20260828123456", userID, "CHECKING",
		"350.00", "350.00", "100.00", "0.00",
		"0.0050", "10.00", true, false,
	)
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1`).
		WithArgs(id, 1).
		WillReturnRows(rows)

	a, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "350.00", a.Balance.String())
	assert.Equal(t, "0.0050", a.InterestRate.String())
	assert.Equal(t, account.TypeChecking, a.Type)
}

func TestAccountRepository_Get_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "accounts"`).
		WithArgs(id, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.Get(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_GetForUpdate_LocksRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "number", "user_id", "type", "balance"}).
		AddRow(id, "ACC20260828123456", uuid.New(), "CHECKING", "100.00")
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 (.+)FOR UPDATE`).
		WithArgs(id, 1).
		WillReturnRows(rows)

	a, err := repo.GetForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "100.00", a.Balance.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ExistsByNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := accountRepository{db: db}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE number = \$1`).
		WithArgs("ACC20260828123456").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByNumber(context.Background(), "ACC20260828123456")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPaymentRepository_SumDebitedSince(t *testing.T) {
	db, mock := newMockDB(t)
	repo := paymentRepository{db: db}
	accountID := uuid.New()
	since := time.Now().Truncate(24 * time.Hour)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payments"`).
		WithArgs(accountID, since, "FAILED").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("1250.75"))

	total, err := repo.SumDebitedSince(context.Background(), accountID, since)
	require.NoError(t, err)
	assert.Equal(t, "1250.75", total.String())
}

func TestUoW_DoRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("boom")
	err := uow.Do(context.Background(), func(u repository.UnitOfWork) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_DoCommits(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "transactions" (.+) VALUES (.+)`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	accountID := uuid.New()
	err := uow.Do(context.Background(), func(u repository.UnitOfWork) error {
		txRepo, err := u.TransactionRepository()
		if err != nil {
			return err
		}
		tx := account.NewTransactionFromData(
			uuid.New(), "TXN20260828101530123456",
			account.TransactionDeposit, account.TransactionCompleted,
			money.MustNew("10.00"), nil, &accountID,
			money.MustNew("10.00"), "", time.Now(),
		)
		return txRepo.Create(context.Background(), tx)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_GetRepositoryResolvesAllContracts(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db)

	accountRepo, err := uow.AccountRepository()
	require.NoError(t, err)
	assert.NotNil(t, accountRepo)
	paymentRepo, err := uow.PaymentRepository()
	require.NoError(t, err)
	assert.NotNil(t, paymentRepo)
	loanRepo, err := uow.LoanRepository()
	require.NoError(t, err)
	assert.NotNil(t, loanRepo)
	cardRepo, err := uow.CardRepository()
	require.NoError(t, err)
	assert.NotNil(t, cardRepo)
}
