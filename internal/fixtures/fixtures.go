// Package fixtures provides in-memory implementations of the persistence and
// audit contracts for service-level tests. Reads and writes copy aggregates
// so uncommitted mutations never leak into the store, mirroring how a real
// session hydrates rows.
package fixtures

import (
	"context"
	"maps"
	"reflect"
	"sync"
	"time"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/account"
	"github.com/amirasaad/corebank/pkg/domain/card"
	"github.com/amirasaad/corebank/pkg/domain/loan"
	"github.com/amirasaad/corebank/pkg/domain/payment"
	"github.com/amirasaad/corebank/pkg/money"
	"github.com/amirasaad/corebank/pkg/repository"
	"github.com/google/uuid"
)

// MemoryUoW is an in-memory UnitOfWork whose repositories share one store.
type MemoryUoW struct {
	mu sync.Mutex

	accounts         map[uuid.UUID]account.Account
	transactions     map[uuid.UUID]account.Transaction
	payments         map[uuid.UUID]payment.Payment
	loans            map[uuid.UUID]loan.Loan
	loanPayments     map[uuid.UUID]loan.Payment
	cards            map[uuid.UUID]card.Card
	cardTransactions map[uuid.UUID]card.Transaction
}

// NewMemoryUoW creates an empty in-memory unit of work.
func NewMemoryUoW() *MemoryUoW {
	return &MemoryUoW{
		accounts:         make(map[uuid.UUID]account.Account),
		transactions:     make(map[uuid.UUID]account.Transaction),
		payments:         make(map[uuid.UUID]payment.Payment),
		loans:            make(map[uuid.UUID]loan.Loan),
		loanPayments:     make(map[uuid.UUID]loan.Payment),
		cards:            make(map[uuid.UUID]card.Card),
		cardTransactions: make(map[uuid.UUID]card.Transaction),
	}
}

// Do runs fn against this store. A snapshot taken up front is restored when
// fn fails, so a mid-transaction error discards every write made through the
// repositories, matching the commit-or-rollback contract.
func (u *MemoryUoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	snap := u.snapshot()
	if err := fn(u); err != nil {
		u.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	accounts         map[uuid.UUID]account.Account
	transactions     map[uuid.UUID]account.Transaction
	payments         map[uuid.UUID]payment.Payment
	loans            map[uuid.UUID]loan.Loan
	loanPayments     map[uuid.UUID]loan.Payment
	cards            map[uuid.UUID]card.Card
	cardTransactions map[uuid.UUID]card.Transaction
}

func (u *MemoryUoW) snapshot() storeSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return storeSnapshot{
		accounts:         maps.Clone(u.accounts),
		transactions:     maps.Clone(u.transactions),
		payments:         maps.Clone(u.payments),
		loans:            maps.Clone(u.loans),
		loanPayments:     maps.Clone(u.loanPayments),
		cards:            maps.Clone(u.cards),
		cardTransactions: maps.Clone(u.cardTransactions),
	}
}

func (u *MemoryUoW) restore(snap storeSnapshot) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.accounts = snap.accounts
	u.transactions = snap.transactions
	u.payments = snap.payments
	u.loans = snap.loans
	u.loanPayments = snap.loanPayments
	u.cards = snap.cards
	u.cardTransactions = snap.cardTransactions
}

// GetRepository resolves a repository interface type against this store.
func (u *MemoryUoW) GetRepository(repoType reflect.Type) (any, error) {
	switch repoType {
	case reflect.TypeOf((*repository.AccountRepository)(nil)).Elem():
		return &accountRepo{u}, nil
	case reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem():
		return &transactionRepo{u}, nil
	case reflect.TypeOf((*repository.PaymentRepository)(nil)).Elem():
		return &paymentRepo{u}, nil
	case reflect.TypeOf((*repository.LoanRepository)(nil)).Elem():
		return &loanRepo{u}, nil
	case reflect.TypeOf((*repository.LoanPaymentRepository)(nil)).Elem():
		return &loanPaymentRepo{u}, nil
	case reflect.TypeOf((*repository.CardRepository)(nil)).Elem():
		return &cardRepo{u}, nil
	case reflect.TypeOf((*repository.CardTransactionRepository)(nil)).Elem():
		return &cardTransactionRepo{u}, nil
	}
	return nil, domain.ErrNotFound
}

func (u *MemoryUoW) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepo{u}, nil
}

func (u *MemoryUoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepo{u}, nil
}

func (u *MemoryUoW) PaymentRepository() (repository.PaymentRepository, error) {
	return &paymentRepo{u}, nil
}

func (u *MemoryUoW) LoanRepository() (repository.LoanRepository, error) {
	return &loanRepo{u}, nil
}

func (u *MemoryUoW) LoanPaymentRepository() (repository.LoanPaymentRepository, error) {
	return &loanPaymentRepo{u}, nil
}

func (u *MemoryUoW) CardRepository() (repository.CardRepository, error) {
	return &cardRepo{u}, nil
}

func (u *MemoryUoW) CardTransactionRepository() (repository.CardTransactionRepository, error) {
	return &cardTransactionRepo{u}, nil
}

// SeedAccount stores an account directly, for test setup.
func (u *MemoryUoW) SeedAccount(a *account.Account) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.accounts[a.ID] = *a
}

// SeedLoan stores a loan directly, for test setup.
func (u *MemoryUoW) SeedLoan(l *loan.Loan) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.loans[l.ID] = *l
}

// SeedCard stores a card directly, for test setup.
func (u *MemoryUoW) SeedCard(c *card.Card) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cards[c.ID] = *c
}

// Account returns the stored state of an account, for assertions.
func (u *MemoryUoW) Account(id uuid.UUID) (account.Account, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	a, ok := u.accounts[id]
	return a, ok
}

// Loan returns the stored state of a loan, for assertions.
func (u *MemoryUoW) Loan(id uuid.UUID) (loan.Loan, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	l, ok := u.loans[id]
	return l, ok
}

// Card returns the stored state of a card, for assertions.
func (u *MemoryUoW) Card(id uuid.UUID) (card.Card, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	c, ok := u.cards[id]
	return c, ok
}

// Transactions returns every stored ledger record, for assertions.
func (u *MemoryUoW) Transactions() []account.Transaction {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]account.Transaction, 0, len(u.transactions))
	for _, t := range u.transactions {
		out = append(out, t)
	}
	return out
}

// Payments returns every stored payment, for assertions.
func (u *MemoryUoW) Payments() []payment.Payment {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]payment.Payment, 0, len(u.payments))
	for _, p := range u.payments {
		out = append(out, p)
	}
	return out
}

// CardTransactions returns every stored card transaction, for assertions.
func (u *MemoryUoW) CardTransactions() []card.Transaction {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]card.Transaction, 0, len(u.cardTransactions))
	for _, t := range u.cardTransactions {
		out = append(out, t)
	}
	return out
}

// LoanPayments returns every stored loan payment, for assertions.
func (u *MemoryUoW) LoanPayments() []loan.Payment {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]loan.Payment, 0, len(u.loanPayments))
	for _, p := range u.loanPayments {
		out = append(out, p)
	}
	return out
}

var _ repository.UnitOfWork = (*MemoryUoW)(nil)

type accountRepo struct{ u *MemoryUoW }

func (r *accountRepo) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	a, ok := r.u.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := a
	return &cp, nil
}

func (r *accountRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.Get(ctx, id)
}

func (r *accountRepo) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, a := range r.u.accounts {
		if a.Number == number {
			cp := a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *accountRepo) GetByNumberForUpdate(ctx context.Context, number string) (*account.Account, error) {
	return r.GetByNumber(ctx, number)
}

func (r *accountRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	_, err := r.GetByNumber(ctx, number)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *accountRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*account.Account
	for _, a := range r.u.accounts {
		if a.UserID == userID {
			cp := a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *accountRepo) TotalBalanceByUser(ctx context.Context, userID uuid.UUID) (money.Money, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	total := money.Zero()
	for _, a := range r.u.accounts {
		if a.UserID == userID {
			total = total.Add(a.Balance)
		}
	}
	return total, nil
}

func (r *accountRepo) Create(ctx context.Context, a *account.Account) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.u.accounts[a.ID] = *a
	return nil
}

func (r *accountRepo) Update(ctx context.Context, a *account.Account) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if _, ok := r.u.accounts[a.ID]; !ok {
		return domain.ErrNotFound
	}
	r.u.accounts[a.ID] = *a
	return nil
}

type transactionRepo struct{ u *MemoryUoW }

func (r *transactionRepo) Create(ctx context.Context, t *account.Transaction) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.u.transactions[t.ID] = *t
	return nil
}

func (r *transactionRepo) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	t, ok := r.u.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (r *transactionRepo) GetByReference(ctx context.Context, reference string) (*account.Transaction, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, t := range r.u.transactions {
		if t.Reference == reference {
			cp := t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *transactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*account.Transaction, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*account.Transaction
	for _, t := range r.u.transactions {
		if (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
			(t.ToAccountID != nil && *t.ToAccountID == accountID) {
			cp := t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type paymentRepo struct{ u *MemoryUoW }

func (r *paymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.u.payments[p.ID] = *p
	return nil
}

func (r *paymentRepo) Update(ctx context.Context, p *payment.Payment) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if _, ok := r.u.payments[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.u.payments[p.ID] = *p
	return nil
}

func (r *paymentRepo) GetByReference(ctx context.Context, reference string) (*payment.Payment, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, p := range r.u.payments {
		if p.Reference == reference {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *paymentRepo) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, p := range r.u.payments {
		if p.IdempotencyKey != "" && p.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *paymentRepo) SumDebitedSince(ctx context.Context, fromAccountID uuid.UUID, since time.Time) (money.Money, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	total := money.Zero()
	for _, p := range r.u.payments {
		if p.FromAccountID == fromAccountID && !p.CreatedAt.Before(since) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (r *paymentRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*payment.Payment, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*payment.Payment
	for _, p := range r.u.payments {
		if p.FromAccountID == accountID ||
			(p.ToAccountID != nil && *p.ToAccountID == accountID) {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type loanRepo struct{ u *MemoryUoW }

func (r *loanRepo) Get(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	l, ok := r.u.loans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := l
	return &cp, nil
}

func (r *loanRepo) GetByNumber(ctx context.Context, number string) (*loan.Loan, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, l := range r.u.loans {
		if l.Number == number {
			cp := l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *loanRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	_, err := r.GetByNumber(ctx, number)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *loanRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*loan.Loan, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*loan.Loan
	for _, l := range r.u.loans {
		if l.UserID == userID {
			cp := l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *loanRepo) ListByStatus(ctx context.Context, status loan.Status) ([]*loan.Loan, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*loan.Loan
	for _, l := range r.u.loans {
		if l.Status == status {
			cp := l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *loanRepo) Create(ctx context.Context, l *loan.Loan) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.u.loans[l.ID] = *l
	return nil
}

func (r *loanRepo) Update(ctx context.Context, l *loan.Loan) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if _, ok := r.u.loans[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.u.loans[l.ID] = *l
	return nil
}

type loanPaymentRepo struct{ u *MemoryUoW }

func (r *loanPaymentRepo) Create(ctx context.Context, p *loan.Payment) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.u.loanPayments[p.ID] = *p
	return nil
}

func (r *loanPaymentRepo) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*loan.Payment, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*loan.Payment
	for _, p := range r.u.loanPayments {
		if p.LoanID == loanID {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type cardRepo struct{ u *MemoryUoW }

func (r *cardRepo) Get(ctx context.Context, id uuid.UUID) (*card.Card, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	c, ok := r.u.cards[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (r *cardRepo) GetByNumber(ctx context.Context, number string) (*card.Card, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	for _, c := range r.u.cards {
		if c.Number == number {
			cp := c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *cardRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	_, err := r.GetByNumber(ctx, number)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *cardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*card.Card, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*card.Card
	for _, c := range r.u.cards {
		if c.UserID == userID {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *cardRepo) Create(ctx context.Context, c *card.Card) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.u.cards[c.ID] = *c
	return nil
}

func (r *cardRepo) Update(ctx context.Context, c *card.Card) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if _, ok := r.u.cards[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.u.cards[c.ID] = *c
	return nil
}

type cardTransactionRepo struct{ u *MemoryUoW }

func (r *cardTransactionRepo) Create(ctx context.Context, t *card.Transaction) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	r.u.cardTransactions[t.ID] = *t
	return nil
}

func (r *cardTransactionRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*card.Transaction, error) {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	var out []*card.Transaction
	for _, t := range r.u.cardTransactions {
		if t.CardID == cardID {
			cp := t
			out = append(out, &cp)
		}
	}
	return out, nil
}
