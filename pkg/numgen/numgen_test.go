package numgen_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/amirasaad/corebank/pkg/numgen"
	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 28, 10, 15, 30, 0, time.UTC)
}

func TestFormats(t *testing.T) {
	t.Parallel()
	g := numgen.NewSecureWithClock(fixedClock)

	assert.Regexp(t, regexp.MustCompile(`^ACC20260828\d{6}$`), g.AccountNumber())
	assert.Regexp(t, regexp.MustCompile(`^4\d{15}$`), g.CardNumber())
	assert.Regexp(t, regexp.MustCompile(`^\d{3}$`), g.CVV())
	assert.Regexp(t, regexp.MustCompile(`^\d{4}$`), g.PIN())
	assert.Regexp(t, regexp.MustCompile(`^TXN20260828101530\d{6}$`), g.TransactionReference())
	assert.Regexp(t, regexp.MustCompile(`^PAY20260828101530\d{6}$`), g.PaymentReference())
	assert.Regexp(t, regexp.MustCompile(`^LOAN202608\d{8}$`), g.LoanNumber())
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), g.AuthorizationCode())
}

func TestCandidatesVary(t *testing.T) {
	t.Parallel()
	g := numgen.NewSecure()

	seen := make(map[string]bool)
	for range 50 {
		seen[g.AccountNumber()] = true
	}
	// 50 draws of 6 random digits colliding down to one value would mean a
	// broken RNG; a handful of collisions is acceptable.
	assert.Greater(t, len(seen), 40)
}
