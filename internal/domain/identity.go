package domain

import (
	"time"

	id "facepos/pkg/domain"
)

// Descriptor is the fixed-length numeric vector produced by the external
// biometric capability. The system never computes descriptors itself; it only
// stores and compares them.
type Descriptor []float64

// IsZero reports whether the capture produced no descriptor (no face found).
func (d Descriptor) IsZero() bool { return len(d) == 0 }

// Clone returns an independent copy so registry snapshots stay immutable.
func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}

// Identity is an enrolled person or entity recognized by descriptor matching.
// The descriptor is immutable once enrolled; re-registration creates a new
// identity rather than updating this one.
type Identity struct {
	ID         id.AccountID
	Descriptor Descriptor
	Role       id.Role
	EnrolledAt time.Time
}

// Business carries the credentials a business account holds in addition to its
// balance. The balance itself lives in the ledger keyed by ID.
type Business struct {
	ID           id.AccountID
	DisplayName  string
	Username     string
	PasswordHash string
}
