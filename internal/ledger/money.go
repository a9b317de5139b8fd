package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "facepos/pkg/domain-errors"
)

// moneyPlaces is the fixed-point precision for balances: cents.
const moneyPlaces = 2

// ParseAmount converts user input into a non-negative fixed-point amount.
// Only plain decimal literals are accepted; arithmetic expressions and
// anything else the legacy system fed through an evaluator are rejected here.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidAmount, "amount is required")
	}
	// decimal accepts exponent notation; keep the accepted grammar to plain
	// digits and a single point so "1e9" or "12+4" never get this far.
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' {
			return decimal.Zero, dErrors.New(dErrors.CodeInvalidAmount, "amount must be a plain decimal number")
		}
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidAmount, "amount must be a plain decimal number")
	}
	return amount.Round(moneyPlaces), nil
}

// validateAmount enforces the mutation-boundary amount invariant: finite and
// non-negative. Rounding to cents happens before any comparison or arithmetic.
func validateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, dErrors.New(dErrors.CodeInvalidAmount, "amount cannot be negative")
	}
	return amount.Round(moneyPlaces), nil
}
