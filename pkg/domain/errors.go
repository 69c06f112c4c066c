// Package domain holds contracts shared by every aggregate: the error
// taxonomy surfaced to callers and the audit recording contract.
package domain

import "errors"

var (
	// ErrInvalidAmount is returned when an operation amount is zero, negative
	// or malformed.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds is returned when a debit would push the balance
	// below the account's overdraft policy floor.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientCredit is returned when a credit-card authorization
	// exceeds the available credit line.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrAccountFrozen is returned when an operation targets a frozen account.
	ErrAccountFrozen = errors.New("account is frozen")

	// ErrInvalidState is returned when a resource is not in a state permitting
	// the requested operation.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrLimitExceeded is returned when a single-transaction or rolling-window
	// cap is exceeded.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrNotFound is returned when a resource id or reference is unknown.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateReference is returned when a generated reference collided
	// beyond the retry budget, or a caller resubmits an idempotency key.
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrInvalidCredential is returned on a PIN or secret mismatch.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrExpired is returned when a card or loan term has elapsed.
	ErrExpired = errors.New("expired")

	// ErrInvalidOperation is returned for structurally invalid requests, such
	// as a transfer from an account to itself.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNotOwner is returned when the acting user does not own the resource.
	ErrNotOwner = errors.New("not owner")
)
