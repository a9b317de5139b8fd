package account

import (
	id "facepos/pkg/domain"
)

// Session identifies the authenticated principal for an operation. Biometric
// resolution and business login yield account-bound sessions; the bank
// operator console yields an operator session with no account of its own.
type Session struct {
	AccountID id.AccountID
	Role      id.Role
	Operator  bool
}

// Owns reports whether the session may act on the given account without
// operator privileges.
func (s Session) Owns(accountID id.AccountID) bool {
	return !s.AccountID.IsNil() && s.AccountID == accountID
}
