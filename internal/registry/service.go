package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"facepos/internal/domain"
	"facepos/internal/platform/metrics"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
	"facepos/pkg/platform/sentinel"
)

// Accounts initializes and tears down the balance record paired with each
// enrollment. The ledger service implements it.
type Accounts interface {
	CreateAccount(ctx context.Context, accountID id.AccountID) error
	RemoveAccount(ctx context.Context, accountID id.AccountID) error
}

// Service owns the enrollment lifecycle. An enrollment is only observable once
// its zero-balance account exists, so the balance record is created first and
// the identity record last.
type Service struct {
	store    Store
	accounts Accounts
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the enrollment timestamp source in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, accounts Accounts, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("accounts port is required")
	}
	svc := &Service{
		store:    store,
		accounts: accounts,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Enroll registers a new identity with a fresh id and a zero balance.
func (s *Service) Enroll(ctx context.Context, descriptor domain.Descriptor, role id.Role) (domain.Identity, error) {
	if descriptor.IsZero() {
		return domain.Identity{}, dErrors.New(dErrors.CodeNoFaceDetected, "no face detected for registration")
	}
	if !role.IsValid() {
		return domain.Identity{}, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}

	identity := domain.Identity{
		ID:         id.NewAccountID(),
		Descriptor: descriptor.Clone(),
		Role:       role,
		EnrolledAt: s.now().UTC(),
	}

	if err := s.accounts.CreateAccount(ctx, identity.ID); err != nil {
		return domain.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "initialize balance record")
	}
	if err := s.store.Save(ctx, identity); err != nil {
		// Undo the balance record so a failed enroll leaves nothing behind.
		if rbErr := s.accounts.RemoveAccount(ctx, identity.ID); rbErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove balance record after enroll failure",
				"account_id", identity.ID.String(),
				"error", rbErr,
			)
		}
		return domain.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist identity record")
	}

	if s.metrics != nil {
		s.metrics.Enrollments.Inc()
	}
	s.logger.InfoContext(ctx, "identity enrolled",
		"account_id", identity.ID.String(),
		"role", role.String(),
	)
	return identity, nil
}

// Remove structurally deletes the identity and its balance record. The
// account-must-be-empty policy is enforced by the account service before this
// is called.
func (s *Service) Remove(ctx context.Context, accountID id.AccountID) error {
	if err := s.store.Delete(ctx, accountID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete identity record")
	}
	if err := s.accounts.RemoveAccount(ctx, accountID); err != nil {
		// The identity is gone so nothing can resolve to this account, but an
		// orphaned balance file needs operator attention.
		s.logger.ErrorContext(ctx, "identity removed but balance record deletion failed",
			"account_id", accountID.String(),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete balance record")
	}
	if s.metrics != nil {
		s.metrics.Deregistrations.Inc()
	}
	return nil
}

// List returns a snapshot of all enrollments, oldest first.
func (s *Service) List(ctx context.Context) ([]domain.Identity, error) {
	identities, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list identities")
	}
	return identities, nil
}

// Find looks up one identity by id.
func (s *Service) Find(ctx context.Context, accountID id.AccountID) (domain.Identity, error) {
	identity, err := s.store.Find(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Identity{}, dErrors.Wrap(err, dErrors.CodeNotFound, "identity not found")
		}
		return domain.Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "find identity")
	}
	return identity, nil
}

// RoleSource adapts a Store into the ledger's role lookup without creating a
// dependency cycle between the two services.
type RoleSource struct {
	store Store
}

func NewRoleSource(store Store) *RoleSource {
	return &RoleSource{store: store}
}

func (r *RoleSource) Role(ctx context.Context, accountID id.AccountID) (id.Role, error) {
	identity, err := r.store.Find(ctx, accountID)
	if err != nil {
		return "", err
	}
	return identity.Role, nil
}
