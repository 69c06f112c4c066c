// Package repository implements the persistence contracts on PostgreSQL via
// GORM. The UoW here is the only place a transaction is opened; repositories
// always operate on the session it hands them.
package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/corebank/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
//
// Why is GetRepository part of UoW?
// - Ensures all repositories use the same DB session/transaction for true atomicity.
// - Keeps service code clean and focused on business logic.
// - Centralizes repository wiring and registry for maintainability.
// - Prevents accidental use of the wrong DB session (which would break transactionality).
// - Is idiomatic for Go UoW patterns and easy to mock in tests.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.AccountRepository)(nil)).Elem():         func(db *gorm.DB) any { return NewAccountRepository(db) },
			reflect.TypeOf((*repository.TransactionRepository)(nil)).Elem():     func(db *gorm.DB) any { return NewTransactionRepository(db) },
			reflect.TypeOf((*repository.PaymentRepository)(nil)).Elem():         func(db *gorm.DB) any { return NewPaymentRepository(db) },
			reflect.TypeOf((*repository.LoanRepository)(nil)).Elem():            func(db *gorm.DB) any { return NewLoanRepository(db) },
			reflect.TypeOf((*repository.LoanPaymentRepository)(nil)).Elem():     func(db *gorm.DB) any { return NewLoanPaymentRepository(db) },
			reflect.TypeOf((*repository.CardRepository)(nil)).Elem():            func(db *gorm.DB) any { return NewCardRepository(db) },
			reflect.TypeOf((*repository.CardTransactionRepository)(nil)).Elem(): func(db *gorm.DB) any { return NewCardTransactionRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW bound
// to that transaction. A returned error rolls back every mutation made
// through it.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// session returns the transaction when inside Do, else the root connection.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// GetRepository provides generic, type-safe access to repositories using the
// current session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

// AccountRepository returns an AccountRepository bound to the current
// session.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return NewAccountRepository(u.session()), nil
}

// TransactionRepository returns a TransactionRepository bound to the current
// session.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return NewTransactionRepository(u.session()), nil
}

// PaymentRepository returns a PaymentRepository bound to the current session.
func (u *UoW) PaymentRepository() (repository.PaymentRepository, error) {
	return NewPaymentRepository(u.session()), nil
}

// LoanRepository returns a LoanRepository bound to the current session.
func (u *UoW) LoanRepository() (repository.LoanRepository, error) {
	return NewLoanRepository(u.session()), nil
}

// LoanPaymentRepository returns a LoanPaymentRepository bound to the current
// session.
func (u *UoW) LoanPaymentRepository() (repository.LoanPaymentRepository, error) {
	return NewLoanPaymentRepository(u.session()), nil
}

// CardRepository returns a CardRepository bound to the current session.
func (u *UoW) CardRepository() (repository.CardRepository, error) {
	return NewCardRepository(u.session()), nil
}

// CardTransactionRepository returns a CardTransactionRepository bound to the
// current session.
func (u *UoW) CardTransactionRepository() (repository.CardTransactionRepository, error) {
	return NewCardTransactionRepository(u.session()), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
