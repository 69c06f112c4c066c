package account_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/amirasaad/corebank/internal/fixtures"
	"github.com/amirasaad/corebank/pkg/config"
	"github.com/amirasaad/corebank/pkg/domain"
	accountdomain "github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/numgen"
	accountsvc "github.com/amirasaad/corebank/pkg/service/account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func newService(t *testing.T) (*accountsvc.Service, *fixtures.MemoryUoW, *fixtures.CaptureRecorder) {
	t.Helper()
	uow := fixtures.NewMemoryUoW()
	recorder := fixtures.NewCaptureRecorder()
	svc := accountsvc.NewService(config.Deps{
		Uow:    uow,
		Audit:  recorder,
		Gen:    numgen.NewSecure(),
		Logger: slog.Default(),
	})
	return svc, uow, recorder
}

func seedChecking(t *testing.T, uow *fixtures.MemoryUoW, userID uuid.UUID, balance string) *accountdomain.Account {
	t.Helper()
	a, err := accountdomain.New().
		WithNumber(numgen.NewSecure().AccountNumber()).
		WithUserID(userID).
		WithType(accountdomain.TypeChecking).
		WithInitialBalance(money.MustNew(balance)).
		Build()
	require.NoError(t, err)
	uow.SeedAccount(a)
	return a
}

func TestOpen_Success(t *testing.T) {
	t.Parallel()
	svc, uow, recorder := newService(t)
	userID := uuid.New()

	a, err := svc.Open(context.Background(), accountsvc.OpenCommand{
		UserID:         userID,
		Type:           accountdomain.TypeSavings,
		InitialBalance: money.MustNew("500.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, accountdomain.TypeSavings, a.Type)
	assert.Equal(t, "500.00", a.Balance.String())
	assert.Equal(t, "500.00", a.MinimumBalance.String())
	assert.Regexp(t, `^ACC\d{14}$`, a.Number)

	stored, ok := uow.Account(a.ID)
	require.True(t, ok)
	assert.True(t, stored.Active)
	assert.Equal(t, "ACCOUNT_OPENED", recorder.LastAction())
}

func TestOpen_UnknownTypeRejected(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.Open(context.Background(), accountsvc.OpenCommand{
		UserID: uuid.New(),
		Type:   accountdomain.Type("CRYPTO"),
	})
	require.Error(t, err)
}

func TestOpen_MissingUserRejected(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.Open(context.Background(), accountsvc.OpenCommand{
		Type: accountdomain.TypeChecking,
	})
	require.Error(t, err)
}

func TestDeposit_Success(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedChecking(t, uow, userID, "100.00")

	tx, err := svc.Deposit(context.Background(), userID, a.ID, money.MustNew("250.00"), "payroll")
	require.NoError(t, err)
	assert.Equal(t, accountdomain.TransactionDeposit, tx.Type)
	assert.Equal(t, accountdomain.TransactionCompleted, tx.Status)
	assert.Equal(t, "350.00", tx.RunningBalance.String())
	require.NotNil(t, tx.ToAccountID)
	assert.Equal(t, a.ID, *tx.ToAccountID)

	stored, _ := uow.Account(a.ID)
	assert.Equal(t, "350.00", stored.Balance.String())
	assert.Equal(t, "350.00", stored.AvailableBalance.String())
}

func TestDeposit_NotOwner(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	a := seedChecking(t, uow, uuid.New(), "100.00")

	_, err := svc.Deposit(context.Background(), uuid.New(), a.ID, money.MustNew("10.00"), "")
	require.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestDeposit_FrozenAccountRejected(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedChecking(t, uow, userID, "100.00")
	a.Freeze()
	uow.SeedAccount(a)

	_, err := svc.Deposit(context.Background(), userID, a.ID, money.MustNew("10.00"), "")
	require.ErrorIs(t, err, domain.ErrAccountFrozen)

	stored, _ := uow.Account(a.ID)
	assert.Equal(t, "100.00", stored.Balance.String())
}

func TestWithdraw_Success(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedChecking(t, uow, userID, "500.00")

	tx, err := svc.Withdraw(context.Background(), userID, a.ID, money.MustNew("200.00"), "atm")
	require.NoError(t, err)
	assert.Equal(t, accountdomain.TransactionWithdrawal, tx.Type)
	assert.Equal(t, "300.00", tx.RunningBalance.String())

	stored, _ := uow.Account(a.ID)
	assert.Equal(t, "300.00", stored.Balance.String())
}

func TestWithdraw_OverdraftFloorEnforced(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()

	// Checking policy gives a 100.00 minimum, so the floor with a 50.00
	// overdraft sits at -150.00.
	a, err := accountdomain.New().
		WithNumber("ACC20260828000001").
		WithUserID(userID).
		WithType(accountdomain.TypeChecking).
		WithInitialBalance(money.MustNew("100.00")).
		WithOverdraftLimit(money.MustNew("50.00")).
		Build()
	require.NoError(t, err)
	uow.SeedAccount(a)

	_, err = svc.Withdraw(context.Background(), userID, a.ID, money.MustNew("250.01"), "")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	tx, err := svc.Withdraw(context.Background(), userID, a.ID, money.MustNew("250.00"), "")
	require.NoError(t, err)
	assert.Equal(t, "-150.00", tx.RunningBalance.String())
}

func TestWithdraw_UnknownAccount(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)

	_, err := svc.Withdraw(context.Background(), uuid.New(), uuid.New(), money.MustNew("10.00"), "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFreezeUnfreeze(t *testing.T) {
	t.Parallel()
	svc, uow, recorder := newService(t)
	userID := uuid.New()
	admin := uuid.New()
	a := seedChecking(t, uow, userID, "100.00")

	require.NoError(t, svc.Freeze(context.Background(), admin, a.ID, "suspicious activity"))
	stored, _ := uow.Account(a.ID)
	assert.True(t, stored.Frozen)
	assert.Equal(t, "ACCOUNT_FROZEN", recorder.LastAction())

	// Freezing twice is invalid.
	require.ErrorIs(t, svc.Freeze(context.Background(), admin, a.ID, ""), domain.ErrInvalidState)

	// Frozen account still readable.
	got, err := svc.Get(context.Background(), userID, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Frozen)

	require.NoError(t, svc.Unfreeze(context.Background(), admin, a.ID, "cleared"))
	stored, _ = uow.Account(a.ID)
	assert.False(t, stored.Frozen)
}

func TestClose_RequiresZeroBalance(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedChecking(t, uow, userID, "100.00")

	require.ErrorIs(t, svc.Close(context.Background(), userID, a.ID), domain.ErrInvalidState)

	_, err := svc.Withdraw(context.Background(), userID, a.ID, money.MustNew("100.00"), "drain")
	require.NoError(t, err)

	require.NoError(t, svc.Close(context.Background(), userID, a.ID))
	stored, _ := uow.Account(a.ID)
	assert.False(t, stored.Active)
	require.NotNil(t, stored.ClosedAt)

	// No further movements on a closed account.
	_, err = svc.Deposit(context.Background(), userID, a.ID, money.MustNew("10.00"), "")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSetOverdraftLimit(t *testing.T) {
	t.Parallel()
	svc, uow, recorder := newService(t)
	userID := uuid.New()
	admin := uuid.New()
	a := seedChecking(t, uow, userID, "100.00")

	require.NoError(t, svc.SetOverdraftLimit(context.Background(), admin, a.ID, money.MustNew("300.00")))
	assert.Equal(t, "OVERDRAFT_LIMIT_CHANGED", recorder.LastAction())

	// The widened floor now admits a deeper debit.
	tx, err := svc.Withdraw(context.Background(), userID, a.ID, money.MustNew("500.00"), "")
	require.NoError(t, err)
	assert.Equal(t, "-400.00", tx.RunningBalance.String())

	stored, _ := uow.Account(a.ID)
	assert.Equal(t, "300.00", stored.OverdraftLimit.String())
}

func TestGet_NotOwner(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	a := seedChecking(t, uow, uuid.New(), "100.00")

	_, err := svc.Get(context.Background(), uuid.New(), a.ID)
	require.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestListAndTotalBalance(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	seedChecking(t, uow, userID, "100.00")
	seedChecking(t, uow, userID, "250.50")
	seedChecking(t, uow, uuid.New(), "999.00")

	accounts, err := svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	total, err := svc.TotalBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "350.50", total.String())
}

func TestTransactions_OwnerScoped(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedChecking(t, uow, userID, "100.00")

	_, err := svc.Deposit(context.Background(), userID, a.ID, money.MustNew("50.00"), "")
	require.NoError(t, err)
	_, err = svc.Withdraw(context.Background(), userID, a.ID, money.MustNew("25.00"), "")
	require.NoError(t, err)

	txs, err := svc.Transactions(context.Background(), userID, a.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	_, err = svc.Transactions(context.Background(), uuid.New(), a.ID)
	require.ErrorIs(t, err, domain.ErrNotOwner)
}
