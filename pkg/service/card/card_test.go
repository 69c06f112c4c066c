package card_test

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
	carddomain "github.com/amirasaad/corebank/pkg/domain/card"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/numgen"
	cardsvc "github.com/amirasaad/corebank/pkg/service/card"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

var gen = numgen.NewSecure()

func newService(t *testing.T) (*cardsvc.Service, *fixtures.MemoryUoW, *fixtures.CaptureRecorder) {
	t.Helper()
	uow := fixtures.NewMemoryUoW()
	recorder := fixtures.NewCaptureRecorder()
	svc := cardsvc.NewService(config.Deps{
		Uow:    uow,
		Audit:  recorder,
		Gen:    gen,
		Logger: slog.Default(),
	})
	return svc, uow, recorder
}

func seedAccount(t *testing.T, uow *fixtures.MemoryUoW, userID uuid.UUID, balance string) *accountdomain.Account {
	t.Helper()
	a, err := accountdomain.New().
		WithNumber(gen.AccountNumber()).
		WithUserID(userID).
		WithType(accountdomain.TypeInvestment).
		WithInitialBalance(money.MustNew(balance)).
		Build()
	require.NoError(t, err)
	uow.SeedAccount(a)
	return a
}

func activeDebitCard(t *testing.T, svc *cardsvc.Service, userID, accountID uuid.UUID) *carddomain.Card {
	t.Helper()
	c, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:     userID,
		AccountID:  accountID,
		HolderName: "PAT EXAMPLE",
		Type:       carddomain.TypeDebit,
		PIN:        "4321",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), userID, c.ID, "4321"))
	return c
}

func merchant() carddomain.Merchant {
	return carddomain.Merchant{Name: "Corner Grocery", Category: "GROCERY", Location: "Springfield"}
}

func TestIssue_Debit(t *testing.T) {
	t.Parallel()
	svc, uow, recorder := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "100.00")

	c, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:     userID,
		AccountID:  a.ID,
		HolderName: "PAT EXAMPLE",
		Type:       carddomain.TypeDebit,
		PIN:        "4321",
	})
	require.NoError(t, err)
	assert.Equal(t, carddomain.StatusPendingActivation, c.Status)
	assert.Regexp(t, `^4\d{15}$`, c.Number)
	assert.Regexp(t, `^\d{3}$`, c.CVV)
	assert.Equal(t, "5000.00", c.DailyLimit.String())
	assert.Equal(t, "50000.00", c.MonthlyLimit.String())
	assert.Equal(t, "CARD_ISSUED", recorder.LastAction())
}

func TestIssue_CreditNeedsLimit(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "100.00")

	_, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:     userID,
		AccountID:  a.ID,
		HolderName: "PAT EXAMPLE",
		Type:       carddomain.TypeCredit,
		PIN:        "4321",
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	c, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:      userID,
		AccountID:   a.ID,
		HolderName:  "PAT EXAMPLE",
		Type:        carddomain.TypeCredit,
		PIN:         "4321",
		CreditLimit: money.MustNew("2000.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2000.00", c.AvailableCredit.String())
	assert.Equal(t, "18.9900", c.InterestRate.String())
}

func TestIssue_BadPINRejected(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "100.00")

	_, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:     userID,
		AccountID:  a.ID,
		HolderName: "PAT EXAMPLE",
		Type:       carddomain.TypeDebit,
		PIN:        "12ab",
	})
	require.Error(t, err)
}

func TestIssue_ForeignAccountRejected(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	a := seedAccount(t, uow, uuid.New(), "100.00")

	_, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:     uuid.New(),
		AccountID:  a.ID,
		HolderName: "PAT EXAMPLE",
		Type:       carddomain.TypeDebit,
		PIN:        "4321",
	})
	require.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestActivate_WrongPIN(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "100.00")
	c, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:     userID,
		AccountID:  a.ID,
		HolderName: "PAT EXAMPLE",
		Type:       carddomain.TypeDebit,
		PIN:        "4321",
	})
	require.NoError(t, err)

	err = svc.Activate(context.Background(), userID, c.ID, "0000")
	require.ErrorIs(t, err, domain.ErrInvalidCredential)
	stored, _ := uow.Card(c.ID)
	assert.Equal(t, carddomain.StatusPendingActivation, stored.Status)

	require.NoError(t, svc.Activate(context.Background(), userID, c.ID, "4321"))
	stored, _ = uow.Card(c.ID)
	assert.Equal(t, carddomain.StatusActive, stored.Status)
	require.NotNil(t, stored.ActivatedAt)
}

func TestAuthorize_DebitFundsFromAccount(t *testing.T) {
	t.Parallel()
	svc, uow, recorder := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "500.00")
	c := activeDebitCard(t, svc, userID, a.ID)

	tx, err := svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("75.25"),
		Merchant: merchant(),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, tx.AuthorizationCode)
	assert.Equal(t, carddomain.TransactionCompleted, tx.Status)

	acct, _ := uow.Account(a.ID)
	assert.Equal(t, "424.75", acct.Balance.String())

	// The purchase also lands on the account ledger.
	ledger := uow.Transactions()
	require.Len(t, ledger, 1)
	assert.Equal(t, accountdomain.TransactionCardPayment, ledger[0].Type)
	assert.Equal(t, "CARD_AUTHORIZED", recorder.LastAction())
}

func TestAuthorize_DebitInsufficientFunds(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "50.00")
	c := activeDebitCard(t, svc, userID, a.ID)

	_, err := svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("60.00"),
		Merchant: merchant(),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	acct, _ := uow.Account(a.ID)
	assert.Equal(t, "50.00", acct.Balance.String())
	assert.Empty(t, uow.CardTransactions())
}

func TestAuthorize_DebitNeverTapsMinimumBalanceCushion(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()

	// A CHECKING account carries a 100.00 policy minimum; at balance 50.00 a
	// direct debit of 100.00 would still clear the overdraft floor, but a
	// card purchase must only spend the available balance.
	a, err := accountdomain.New().
		WithNumber(gen.AccountNumber()).
		WithUserID(userID).
		WithType(accountdomain.TypeChecking).
		WithInitialBalance(money.MustNew("50.00")).
		Build()
	require.NoError(t, err)
	uow.SeedAccount(a)
	c := activeDebitCard(t, svc, userID, a.ID)

	_, err = svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("100.00"),
		Merchant: merchant(),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	acct, _ := uow.Account(a.ID)
	assert.Equal(t, "50.00", acct.Balance.String())
	assert.Equal(t, "50.00", acct.AvailableBalance.String())
	assert.Empty(t, uow.Transactions())
	assert.Empty(t, uow.CardTransactions())
}

func TestAuthorize_CreditDrawsOnLine(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "0.00")
	c, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:      userID,
		AccountID:   a.ID,
		HolderName:  "PAT EXAMPLE",
		Type:        carddomain.TypeCredit,
		PIN:         "4321",
		CreditLimit: money.MustNew("100.00"),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Activate(context.Background(), userID, c.ID, "4321"))

	_, err = svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("150.00"),
		Merchant: merchant(),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCredit)

	_, err = svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("100.00"),
		Merchant: merchant(),
	})
	require.NoError(t, err)

	stored, _ := uow.Card(c.ID)
	assert.True(t, stored.AvailableCredit.IsZero())
	// Credit purchases never touch the linked account.
	acct, _ := uow.Account(a.ID)
	assert.Equal(t, "0.00", acct.Balance.String())
	assert.Empty(t, uow.Transactions())
}

func TestAuthorize_DailyLimit(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "10000.00")
	c := activeDebitCard(t, svc, userID, a.ID)

	_, err := svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("5000.01"),
		Merchant: merchant(),
	})
	require.ErrorIs(t, err, domain.ErrLimitExceeded)
}

func TestAuthorize_PendingCardDeclined(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "500.00")
	c, err := svc.Issue(context.Background(), cardsvc.IssueCommand{
		UserID:     userID,
		AccountID:  a.ID,
		HolderName: "PAT EXAMPLE",
		Type:       carddomain.TypeDebit,
		PIN:        "4321",
	})
	require.NoError(t, err)

	_, err = svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("10.00"),
		Merchant: merchant(),
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestAuthorize_DisabledChannelDeclined(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "500.00")
	c := activeDebitCard(t, svc, userID, a.ID)

	// International purchases are off by default.
	_, err := svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("10.00"),
		Merchant: merchant(),
		Flags:    carddomain.TransactionFlags{International: true},
	})
	require.ErrorIs(t, err, domain.ErrInvalidOperation)

	// Contactless is on by default.
	_, err = svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("10.00"),
		Merchant: merchant(),
		Flags:    carddomain.TransactionFlags{Contactless: true},
	})
	require.NoError(t, err)
}

func TestBlockUnblockCancel(t *testing.T) {
	t.Parallel()
	svc, uow, recorder := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "500.00")
	c := activeDebitCard(t, svc, userID, a.ID)

	require.NoError(t, svc.Block(context.Background(), userID, c.ID, "reported lost"))
	assert.Equal(t, "CARD_BLOCKED", recorder.LastAction())

	_, err := svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("10.00"),
		Merchant: merchant(),
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	require.NoError(t, svc.Unblock(context.Background(), userID, c.ID, "found it"))
	_, err = svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("10.00"),
		Merchant: merchant(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), userID, c.ID, "switching banks"))
	stored, _ := uow.Card(c.ID)
	assert.Equal(t, carddomain.StatusCancelled, stored.Status)

	// Cancellation is terminal.
	require.ErrorIs(t, svc.Unblock(context.Background(), userID, c.ID, ""), domain.ErrInvalidState)
	require.ErrorIs(t, svc.Cancel(context.Background(), userID, c.ID, ""), domain.ErrInvalidState)
}

func TestTransactions_OwnerScoped(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "500.00")
	c := activeDebitCard(t, svc, userID, a.ID)

	_, err := svc.Authorize(context.Background(), cardsvc.AuthorizeCommand{
		UserID:   userID,
		CardID:   c.ID,
		Amount:   money.MustNew("20.00"),
		Merchant: merchant(),
	})
	require.NoError(t, err)

	txs, err := svc.Transactions(context.Background(), userID, c.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Corner Grocery", txs[0].Merchant.Name)

	_, err = svc.Transactions(context.Background(), uuid.New(), c.ID)
	require.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestListByUser(t *testing.T) {
	t.Parallel()
	svc, uow, _ := newService(t)
	userID := uuid.New()
	a := seedAccount(t, uow, userID, "500.00")
	activeDebitCard(t, svc, userID, a.ID)
	activeDebitCard(t, svc, userID, a.ID)

	cards, err := svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}
