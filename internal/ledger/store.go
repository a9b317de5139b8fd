package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	id "facepos/pkg/domain"
)

// Store is the durable balance map. Implementations return sentinel errors
// (pkg/platform/sentinel): ErrNotFound, ErrExists, ErrConflict.
//
// Commit is the single mutation primitive: it replaces the record for an
// account if and only if its current version equals expectedVersion, bumping
// the version by one. Readers must never observe a half-written record; file
// implementations achieve this with a temp-write-and-rename swap.
type Store interface {
	Get(ctx context.Context, accountID id.AccountID) (Record, error)
	Create(ctx context.Context, accountID id.AccountID) error
	Commit(ctx context.Context, accountID id.AccountID, balance decimal.Decimal, expectedVersion int64) error
	Delete(ctx context.Context, accountID id.AccountID) error
}
