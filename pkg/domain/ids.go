package domain

import (
	"crypto/rand"
	"fmt"

	dErrors "facepos/pkg/domain-errors"
)

// AccountID identifies an enrolled identity and its balance record. The scheme
// is a twelve-digit string with a fixed "42" prefix; the remaining ten digits
// are random. IDs are stable for the lifetime of the enrollment.
type AccountID string

const (
	accountIDPrefix = "42"
	accountIDLen    = 12
)

// NewAccountID generates a fresh account ID.
func NewAccountID() AccountID {
	buf := make([]byte, accountIDLen-len(accountIDPrefix))
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fail loudly if it does.
		panic(fmt.Sprintf("account id entropy: %v", err))
	}
	digits := make([]byte, 0, accountIDLen)
	digits = append(digits, accountIDPrefix...)
	for _, b := range buf {
		digits = append(digits, '0'+b%10)
	}
	return AccountID(digits)
}

// ParseAccountID constructs an AccountID from external input.
//
// Usage: call from handlers/adapters at trust boundaries; direct casting
// bypasses validation.
func ParseAccountID(s string) (AccountID, error) {
	if len(s) != accountIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account id must be twelve digits")
	}
	if s[:len(accountIDPrefix)] != accountIDPrefix {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account id must start with 42")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "account id must be numeric")
		}
	}
	return AccountID(s), nil
}

// IsNil reports whether the ID is the zero value.
func (a AccountID) IsNil() bool { return a == "" }

// String returns the string form of the ID.
func (a AccountID) String() string { return string(a) }
