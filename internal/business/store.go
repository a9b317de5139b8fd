package business

import (
	"context"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
)

// Store persists business credential records. The balance for a business
// lives in the ledger keyed by the same account id.
type Store interface {
	Save(ctx context.Context, b domain.Business) error
	FindByID(ctx context.Context, accountID id.AccountID) (domain.Business, error)
	FindByUsername(ctx context.Context, username string) (domain.Business, error)
	Delete(ctx context.Context, accountID id.AccountID) error
}
