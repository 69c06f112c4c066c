// Package numgen generates account numbers, card numbers and operation
// references. Uniqueness is a contract between the generator and its caller:
// generated values are candidates, and callers re-draw on a store collision.
package numgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	accountPrefix     = "ACC"
	loanPrefix        = "LOAN"
	transactionPrefix = "TXN"
	paymentPrefix     = "PAY"

	authCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces candidate identifiers for accounts, cards and operations.
// Callers must collision-check candidates against their store and retry.
type Generator interface {
	AccountNumber() string
	CardNumber() string
	CVV() string
	PIN() string
	TransactionReference() string
	PaymentReference() string
	LoanNumber() string
	AuthorizationCode() string
}

// Secure is a Generator backed by crypto/rand.
type Secure struct {
	now func() time.Time
}

// NewSecure creates a Generator using the system clock and crypto/rand.
func NewSecure() *Secure {
	return &Secure{now: time.Now}
}

// NewSecureWithClock creates a Generator with an injected clock, for tests.
func NewSecureWithClock(now func() time.Time) *Secure {
	return &Secure{now: now}
}

// AccountNumber returns e.g. ACC20260828123456.
func (g *Secure) AccountNumber() string {
	return accountPrefix + g.now().Format("20060102") + randomDigits(6)
}

// CardNumber returns a 16-digit Visa-style PAN beginning with 4.
func (g *Secure) CardNumber() string {
	return "4" + randomDigits(15)
}

// CVV returns a 3-digit card verification value.
func (g *Secure) CVV() string {
	return randomDigits(3)
}

// PIN returns a 4-digit card PIN.
func (g *Secure) PIN() string {
	return randomDigits(4)
}

// TransactionReference returns e.g. TXN20260828101530123456.
func (g *Secure) TransactionReference() string {
	return transactionPrefix + g.now().Format("20060102150405") + randomDigits(6)
}

// PaymentReference returns e.g. PAY20260828101530123456.
func (g *Secure) PaymentReference() string {
	return paymentPrefix + g.now().Format("20060102150405") + randomDigits(6)
}

// LoanNumber returns e.g. LOAN20260812345678.
func (g *Secure) LoanNumber() string {
	return loanPrefix + g.now().Format("200601") + randomDigits(8)
}

// AuthorizationCode returns a 6-character alphanumeric code.
func (g *Secure) AuthorizationCode() string {
	var b strings.Builder
	for range 6 {
		b.WriteByte(authCodeCharset[randomInt(len(authCodeCharset))])
	}
	return b.String()
}

func randomDigits(n int) string {
	var b strings.Builder
	for range n {
		fmt.Fprintf(&b, "%d", randomInt(10))
	}
	return b.String()
}

func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(fmt.Errorf("numgen: entropy source unavailable: %w", err))
	}
	return int(n.Int64())
}
