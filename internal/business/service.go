package business

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"facepos/internal/domain"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
	"facepos/pkg/platform/sentinel"
)

// Enroller creates the biometric identity paired with a business account.
// The registry service implements it.
type Enroller interface {
	Enroll(ctx context.Context, descriptor domain.Descriptor, role id.Role) (domain.Identity, error)
	Remove(ctx context.Context, accountID id.AccountID) error
}

// Service manages business accounts: registration with credentials and
// credential login. Charges and transfers go through the account service like
// any other ledger operation.
type Service struct {
	store    Store
	enroller Enroller
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, enroller Enroller, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("business store is required")
	}
	if enroller == nil {
		return nil, fmt.Errorf("enroller is required")
	}
	svc := &Service{
		store:    store,
		enroller: enroller,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register enrolls a business identity and stores its credentials. The
// password is hashed with bcrypt; the plaintext never touches disk.
func (s *Service) Register(ctx context.Context, descriptor domain.Descriptor, displayName, username, password string) (domain.Business, error) {
	displayName = strings.TrimSpace(displayName)
	username = strings.TrimSpace(username)
	if displayName == "" {
		return domain.Business{}, dErrors.New(dErrors.CodeInvalidInput, "display name is required")
	}
	if username == "" {
		return domain.Business{}, dErrors.New(dErrors.CodeInvalidInput, "username is required")
	}
	if password == "" {
		return domain.Business{}, dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}

	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return domain.Business{}, dErrors.New(dErrors.CodeConflict, "username already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return domain.Business{}, dErrors.Wrap(err, dErrors.CodeInternal, "check username availability")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Business{}, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	identity, err := s.enroller.Enroll(ctx, descriptor, id.RoleBusiness)
	if err != nil {
		return domain.Business{}, err
	}

	b := domain.Business{
		ID:           identity.ID,
		DisplayName:  displayName,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.store.Save(ctx, b); err != nil {
		// Undo the enrollment so a half-registered business cannot resolve.
		if rbErr := s.enroller.Remove(ctx, identity.ID); rbErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove enrollment after business save failure",
				"account_id", identity.ID.String(),
				"error", rbErr,
			)
		}
		return domain.Business{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist business record")
	}

	s.logger.InfoContext(ctx, "business registered",
		"account_id", b.ID.String(),
		"display_name", b.DisplayName,
	)
	return b, nil
}

// Login checks credentials and returns the business. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Business, error) {
	b, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Business{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return domain.Business{}, dErrors.Wrap(err, dErrors.CodeInternal, "find business")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(b.PasswordHash), []byte(password)); err != nil {
		return domain.Business{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return b, nil
}

// Find returns the business record for an account id.
func (s *Service) Find(ctx context.Context, accountID id.AccountID) (domain.Business, error) {
	b, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Business{}, dErrors.Wrap(err, dErrors.CodeNotFound, "business not found")
		}
		return domain.Business{}, dErrors.Wrap(err, dErrors.CodeInternal, "find business")
	}
	return b, nil
}

// Remove deletes the credential record for a deregistered business.
func (s *Service) Remove(ctx context.Context, accountID id.AccountID) error {
	if err := s.store.Delete(ctx, accountID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "business not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete business record")
	}
	return nil
}
