package fixtures_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/corebank/internal/fixtures"
	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, uow *fixtures.MemoryUoW, balance string) *account.Account {
	t.Helper()
	a, err := account.New().
		WithNumber("ACC20260828000042").
		WithUserID(uuid.New()).
		WithType(account.TypeInvestment).
		WithInitialBalance(money.MustNew(balance)).
		Build()
	require.NoError(t, err)
	uow.SeedAccount(a)
	return a
}

func TestDo_DiscardsWritesOnError(t *testing.T) {
	t.Parallel()
	uow := fixtures.NewMemoryUoW()
	seeded := seedAccount(t, uow, "100.00")
	boom := errors.New("boom")

	err := uow.Do(context.Background(), func(tx repository.UnitOfWork) error {
		accounts, err := tx.AccountRepository()
		require.NoError(t, err)
		ledger, err := tx.TransactionRepository()
		require.NoError(t, err)

		a, err := accounts.GetForUpdate(context.Background(), seeded.ID)
		require.NoError(t, err)
		require.NoError(t, a.Debit(money.MustNew("40.00")))
		require.NoError(t, accounts.Update(context.Background(), a))

		rec := account.NewTransactionFromData(
			uuid.New(),
			"TXN20260828101530000001",
			account.TransactionWithdrawal,
			account.TransactionCompleted,
			money.MustNew("40.00"),
			&a.ID, nil,
			a.Balance,
			"doomed withdrawal",
			time.Now(),
		)
		require.NoError(t, ledger.Create(context.Background(), rec))
		return boom
	})
	require.ErrorIs(t, err, boom)

	acct, ok := uow.Account(seeded.ID)
	require.True(t, ok)
	assert.Equal(t, "100.00", acct.Balance.String())
	assert.Empty(t, uow.Transactions())
}

func TestDo_KeepsWritesOnSuccess(t *testing.T) {
	t.Parallel()
	uow := fixtures.NewMemoryUoW()
	seeded := seedAccount(t, uow, "100.00")

	err := uow.Do(context.Background(), func(tx repository.UnitOfWork) error {
		accounts, err := tx.AccountRepository()
		require.NoError(t, err)
		a, err := accounts.GetForUpdate(context.Background(), seeded.ID)
		require.NoError(t, err)
		require.NoError(t, a.Debit(money.MustNew("40.00")))
		return accounts.Update(context.Background(), a)
	})
	require.NoError(t, err)

	acct, ok := uow.Account(seeded.ID)
	require.True(t, ok)
	assert.Equal(t, "60.00", acct.Balance.String())
}
