package token

import (
	"facepos/internal/platform/middleware"
	id "facepos/pkg/domain"
)

// ValidatorAdapter exposes the token service through the middleware's
// validator port.
type ValidatorAdapter struct {
	service *Service
}

func NewValidatorAdapter(service *Service) *ValidatorAdapter {
	return &ValidatorAdapter{service: service}
}

func (a *ValidatorAdapter) ValidateToken(tokenString string) (*middleware.SessionClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.SessionClaims{
		AccountID: claims.AccountID,
		Role:      id.Role(claims.Role),
	}, nil
}
