package account

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
)

// Resolver maps a live descriptor to at most one enrolled identity.
type Resolver interface {
	Resolve(ctx context.Context, live domain.Descriptor) (domain.Identity, bool, error)
}

// Registry is the enrollment lifecycle the service orchestrates.
type Registry interface {
	Enroll(ctx context.Context, descriptor domain.Descriptor, role id.Role) (domain.Identity, error)
	Remove(ctx context.Context, accountID id.AccountID) error
	Find(ctx context.Context, accountID id.AccountID) (domain.Identity, error)
}

// Ledger is the balance surface the service mediates access to.
type Ledger interface {
	Balance(ctx context.Context, accountID id.AccountID) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID id.AccountID, amount decimal.Decimal) error
	Debit(ctx context.Context, accountID id.AccountID, amount decimal.Decimal) error
	Transfer(ctx context.Context, from, to id.AccountID, amount decimal.Decimal) error
}

// Businesses removes the credential record when a business account is
// deregistered.
type Businesses interface {
	Remove(ctx context.Context, accountID id.AccountID) error
}

// OperatorCredentials gate the bank console. They come from deployment
// configuration, not from the registry.
type OperatorCredentials struct {
	Username string
	Password string
}

// Service is the authorization facade over resolution, enrollment and the
// ledger. Every operation takes the caller's session and fails closed on role
// mismatches; the underlying services stay policy-free.
type Service struct {
	resolver   Resolver
	registry   Registry
	ledger     Ledger
	businesses Businesses
	operator   OperatorCredentials
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithBusinesses wires business credential cleanup into deregistration.
func WithBusinesses(b Businesses) Option {
	return func(s *Service) { s.businesses = b }
}

func New(resolver Resolver, registry Registry, ledger Ledger, operator OperatorCredentials, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	svc := &Service{
		resolver: resolver,
		registry: registry,
		ledger:   ledger,
		operator: operator,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Resolve authenticates a live capture. ok=false means no enrollment matched,
// which is a normal outcome for an unenrolled walk-up.
func (s *Service) Resolve(ctx context.Context, live domain.Descriptor) (Session, bool, error) {
	identity, ok, err := s.resolver.Resolve(ctx, live)
	if err != nil || !ok {
		return Session{}, false, err
	}
	return Session{AccountID: identity.ID, Role: identity.Role}, true, nil
}

// Register enrolls a new civilian. A capture that already resolves to an
// enrollment is rejected rather than enrolled twice.
func (s *Service) Register(ctx context.Context, live domain.Descriptor) (domain.Identity, error) {
	_, ok, err := s.resolver.Resolve(ctx, live)
	if err != nil {
		return domain.Identity{}, err
	}
	if ok {
		return domain.Identity{}, dErrors.New(dErrors.CodeAlreadyEnrolled, "face is already registered")
	}
	return s.registry.Enroll(ctx, live, id.RoleCivilian)
}

// Deregister removes the caller's own enrollment. The account must be empty:
// a non-zero balance would otherwise be silently destroyed.
//
// For business accounts the credential record goes first and a missing record
// is tolerated, so a failure between the two deletions leaves an enrollment
// that can no longer log in. Recovery is to retry deregistration: the balance
// is still zero and the missing credential record does not block the retry.
func (s *Service) Deregister(ctx context.Context, sess Session) error {
	if sess.Operator {
		return dErrors.New(dErrors.CodeForbidden, "operator sessions have no enrollment to remove")
	}
	balance, err := s.ledger.Balance(ctx, sess.AccountID)
	if err != nil {
		return err
	}
	if !balance.IsZero() {
		return dErrors.New(dErrors.CodeAccountNotEmpty,
			"account balance must be zero before deregistration")
	}

	if sess.Role == id.RoleBusiness && s.businesses != nil {
		if err := s.businesses.Remove(ctx, sess.AccountID); err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}
	}
	if err := s.registry.Remove(ctx, sess.AccountID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account deregistered", "account_id", sess.AccountID.String())
	return nil
}

// Balance returns an account balance. Sessions read their own balance;
// operator sessions read any.
func (s *Service) Balance(ctx context.Context, sess Session, accountID id.AccountID) (decimal.Decimal, error) {
	if !sess.Operator && !sess.Owns(accountID) {
		return decimal.Zero, dErrors.New(dErrors.CodeForbidden, "cannot view another account's balance")
	}
	return s.ledger.Balance(ctx, accountID)
}

// Transfer moves funds out of the caller's own account.
func (s *Service) Transfer(ctx context.Context, sess Session, to id.AccountID, amount decimal.Decimal) error {
	if sess.Operator {
		return dErrors.New(dErrors.CodeForbidden, "operator sessions cannot originate transfers")
	}
	return s.ledger.Transfer(ctx, sess.AccountID, to, amount)
}

// Charge resolves the customer in front of the terminal and moves the amount
// from their account to the business. Only business sessions may charge.
func (s *Service) Charge(ctx context.Context, sess Session, customer domain.Descriptor, amount decimal.Decimal) error {
	if sess.Role != id.RoleBusiness || sess.Operator {
		return dErrors.New(dErrors.CodeForbidden, "only business accounts can charge customers")
	}
	identity, ok, err := s.resolver.Resolve(ctx, customer)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "customer not recognized")
	}
	if err := s.ledger.Transfer(ctx, identity.ID, sess.AccountID, amount); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "customer charged",
		"business_id", sess.AccountID.String(),
		"customer_id", identity.ID.String(),
		"amount", amount.String(),
	)
	return nil
}

// Credit adds funds to any account. Operator only.
func (s *Service) Credit(ctx context.Context, sess Session, accountID id.AccountID, amount decimal.Decimal) error {
	if !sess.Operator {
		return dErrors.New(dErrors.CodeForbidden, "only the bank operator can issue credits")
	}
	return s.ledger.Credit(ctx, accountID, amount)
}

// Debit removes funds from any account. Operator only; the non-negative
// invariant still applies to the target account.
func (s *Service) Debit(ctx context.Context, sess Session, accountID id.AccountID, amount decimal.Decimal) error {
	if !sess.Operator {
		return dErrors.New(dErrors.CodeForbidden, "only the bank operator can issue debits")
	}
	return s.ledger.Debit(ctx, accountID, amount)
}

// Lookup returns the identity behind an account id. Operator only.
func (s *Service) Lookup(ctx context.Context, sess Session, accountID id.AccountID) (domain.Identity, error) {
	if !sess.Operator {
		return domain.Identity{}, dErrors.New(dErrors.CodeForbidden, "only the bank operator can inspect accounts")
	}
	return s.registry.Find(ctx, accountID)
}

// OperatorLogin checks console credentials and mints an operator session.
// Comparison is constant-time so the username cannot be probed separately
// from the password.
func (s *Service) OperatorLogin(_ context.Context, username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.operator.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.operator.Password)) == 1
	if !userOK || !passOK {
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "invalid operator credentials")
	}
	return Session{Role: id.RoleBank, Operator: true}, nil
}
