package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"facepos/internal/platform/metrics"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
	"facepos/pkg/platform/sentinel"
)

// defaultCASRetries bounds the read-compute-commit cycle before the operation
// is reported as a concurrent-update conflict. The caller may simply re-issue.
const defaultCASRetries = 5

// RoleSource answers which role owns an account. The ledger needs it for one
// rule only: bank-role balances are exempt from the non-negative invariant.
type RoleSource interface {
	Role(ctx context.Context, accountID id.AccountID) (id.Role, error)
}

// Service enforces ledger semantics over a Store: amount validation, the
// non-negative invariant, bounded optimistic retries, and two-leg transfer
// atomicity with compensating rollback.
type Service struct {
	store   Store
	roles   RoleSource
	retries int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetries overrides the CAS retry bound.
func WithRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

func New(store Store, roles RoleSource, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role source is required")
	}
	svc := &Service{
		store:   store,
		roles:   roles,
		retries: defaultCASRetries,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Balance returns the latest committed balance.
func (s *Service) Balance(ctx context.Context, accountID id.AccountID) (decimal.Decimal, error) {
	rec, err := s.store.Get(ctx, accountID)
	if err != nil {
		return decimal.Zero, s.translate(err, "account not found")
	}
	return rec.Balance, nil
}

// CreateAccount initializes a zero-balance record. Called by the registry at
// enrollment time, before the identity record becomes visible.
func (s *Service) CreateAccount(ctx context.Context, accountID id.AccountID) error {
	if err := s.store.Create(ctx, accountID); err != nil {
		if errors.Is(err, sentinel.ErrExists) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "account already exists")
		}
		return s.translate(err, "account not found")
	}
	return nil
}

// RemoveAccount deletes the balance record. The account-empty policy lives in
// the account service; this is structural deletion only.
func (s *Service) RemoveAccount(ctx context.Context, accountID id.AccountID) error {
	if err := s.store.Delete(ctx, accountID); err != nil {
		return s.translate(err, "account not found")
	}
	return nil
}

// Credit adds amount to the balance. Amount must be finite and non-negative.
func (s *Service) Credit(ctx context.Context, accountID id.AccountID, amount decimal.Decimal) error {
	amount, err := validateAmount(amount)
	if err != nil {
		s.observe("credit", "invalid")
		return err
	}
	err = s.mutate(ctx, accountID, func(balance decimal.Decimal) (decimal.Decimal, error) {
		return balance.Add(amount).Round(moneyPlaces), nil
	})
	s.observeResult("credit", err)
	return err
}

// Debit subtracts amount from the balance, failing closed when the result
// would go negative for a non-exempt account.
func (s *Service) Debit(ctx context.Context, accountID id.AccountID, amount decimal.Decimal) error {
	amount, err := validateAmount(amount)
	if err != nil {
		s.observe("debit", "invalid")
		return err
	}
	role, err := s.roles.Role(ctx, accountID)
	if err != nil {
		return s.translate(err, "account not found")
	}
	err = s.mutate(ctx, accountID, func(balance decimal.Decimal) (decimal.Decimal, error) {
		next := balance.Sub(amount).Round(moneyPlaces)
		if next.IsNegative() && !role.OverdraftExempt() {
			return decimal.Zero, dErrors.New(dErrors.CodeInsufficientFunds, "insufficient funds")
		}
		return next, nil
	})
	s.observeResult("debit", err)
	return err
}

// Transfer debits from and credits to under a single logical commit: if the
// credit leg fails after the debit committed, the debit is compensated before
// the error surfaces. A failed compensation is a durability violation and is
// reported as ledger_inconsistent, never as a state with one leg applied.
func (s *Service) Transfer(ctx context.Context, from, to id.AccountID, amount decimal.Decimal) error {
	amount, err := validateAmount(amount)
	if err != nil {
		s.observe("transfer", "invalid")
		return err
	}
	if from == to {
		s.observe("transfer", "same_account")
		return dErrors.New(dErrors.CodeSameAccount, "cannot transfer to the same account")
	}
	// Verify the destination exists before debiting; this keeps the common
	// mistyped-recipient case from ever touching the source balance.
	if _, err := s.store.Get(ctx, to); err != nil {
		s.observe("transfer", "error")
		return s.translate(err, "destination account not found")
	}

	if err := s.Debit(ctx, from, amount); err != nil {
		s.observe("transfer", "error")
		return err
	}

	if err := s.creditLeg(ctx, to, amount); err != nil {
		if compErr := s.creditLeg(ctx, from, amount); compErr != nil {
			s.logger.ErrorContext(ctx, "transfer rollback failed",
				"from", from.String(),
				"to", to.String(),
				"amount", amount.StringFixed(moneyPlaces),
				"credit_error", err.Error(),
				"rollback_error", compErr.Error(),
			)
			s.observe("transfer", "inconsistent")
			return dErrors.Wrap(errors.Join(err, compErr), dErrors.CodeLedgerInconsistent,
				"transfer credit failed and rollback did not restore the source balance")
		}
		s.observe("transfer", "error")
		return err
	}

	s.observe("transfer", "ok")
	return nil
}

// creditLeg is Credit without metrics, used for the second transfer leg and
// its compensating rollback.
func (s *Service) creditLeg(ctx context.Context, accountID id.AccountID, amount decimal.Decimal) error {
	return s.mutate(ctx, accountID, func(balance decimal.Decimal) (decimal.Decimal, error) {
		return balance.Add(amount).Round(moneyPlaces), nil
	})
}

// mutate runs the read-compute-commit cycle with bounded retries on version
// conflicts.
func (s *Service) mutate(ctx context.Context, accountID id.AccountID, apply func(decimal.Decimal) (decimal.Decimal, error)) error {
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger operation aborted")
		}

		rec, err := s.store.Get(ctx, accountID)
		if err != nil {
			return s.translate(err, "account not found")
		}
		next, err := apply(rec.Balance)
		if err != nil {
			return err
		}

		err = s.store.Commit(ctx, accountID, next, rec.Version)
		if err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.CASRetries.Inc()
			}
			continue
		}
		return s.translate(err, "account not found")
	}
	return dErrors.New(dErrors.CodeConcurrentConflict, "balance changed concurrently; retry the operation")
}

// translate maps sentinel and context errors onto domain codes.
func (s *Service) translate(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrLocked),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger operation timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger store failure")
	}
}

func (s *Service) observe(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveLedgerOp(kind, outcome)
	}
}

func (s *Service) observeResult(kind string, err error) {
	if err == nil {
		s.observe(kind, "ok")
		return
	}
	s.observe(kind, "error")
}
