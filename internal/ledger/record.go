package ledger

import (
	"github.com/shopspring/decimal"

	id "facepos/pkg/domain"
)

// Record is one committed balance. The version stamp increases by exactly one
// on every commit; stores reject a commit whose expected version no longer
// matches, which is what makes the read-compute-commit cycle safe across
// independent processes.
type Record struct {
	AccountID id.AccountID    `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
}

// NewRecord returns the initial zero-balance record for a fresh account.
func NewRecord(accountID id.AccountID) Record {
	return Record{
		AccountID: accountID,
		Balance:   decimal.Zero,
		Version:   1,
	}
}
