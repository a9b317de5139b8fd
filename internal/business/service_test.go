package business

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"facepos/internal/domain"
	"facepos/internal/ledger"
	"facepos/internal/registry"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
)

type BusinessSuite struct {
	suite.Suite
	registrySvc *registry.Service
	service     *Service
	ctx         context.Context
}

func (s *BusinessSuite) SetupTest() {
	s.ctx = context.Background()

	regStore := registry.NewInMemoryStore()
	ledStore := ledger.NewInMemoryStore()
	ledgerSvc, err := ledger.New(ledStore, registry.NewRoleSource(regStore))
	s.Require().NoError(err)
	s.registrySvc, err = registry.New(regStore, ledgerSvc)
	s.Require().NoError(err)

	s.service, err = New(NewInMemoryStore(), s.registrySvc)
	s.Require().NoError(err)
}

func TestBusinessSuite(t *testing.T) {
	suite.Run(t, new(BusinessSuite))
}

func (s *BusinessSuite) TestRegisterAndLogin() {
	descriptor := domain.Descriptor{0.1, 0.2}

	b, err := s.service.Register(s.ctx, descriptor, "Corner Cafe", "cafe", "espresso")
	s.Require().NoError(err)
	s.NotEmpty(b.ID)
	s.NotEqual("espresso", b.PasswordHash, "password must be stored hashed")

	s.Run("identity enrolled with business role", func() {
		identity, err := s.registrySvc.Find(s.ctx, b.ID)
		s.Require().NoError(err)
		s.Equal(id.RoleBusiness, identity.Role)
	})

	s.Run("login succeeds with the right password", func() {
		got, err := s.service.Login(s.ctx, "cafe", "espresso")
		s.Require().NoError(err)
		s.Equal(b.ID, got.ID)
		s.Equal("Corner Cafe", got.DisplayName)
	})

	s.Run("wrong password is unauthorized", func() {
		_, err := s.service.Login(s.ctx, "cafe", "latte")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown username is unauthorized, not not-found", func() {
		_, err := s.service.Login(s.ctx, "nobody", "espresso")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("duplicate username is rejected", func() {
		_, err := s.service.Register(s.ctx, domain.Descriptor{0.9, 0.9}, "Other Cafe", "cafe", "pw")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *BusinessSuite) TestRegisterValidation() {
	for name, args := range map[string][3]string{
		"missing display name": {"", "user", "pw"},
		"missing username":     {"Shop", "", "pw"},
		"missing password":     {"Shop", "user", ""},
	} {
		s.Run(name, func() {
			_, err := s.service.Register(s.ctx, domain.Descriptor{0.1}, args[0], args[1], args[2])
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	s.Run("no descriptor means no face detected", func() {
		_, err := s.service.Register(s.ctx, nil, "Shop", "user", "pw")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNoFaceDetected))
	})
}

func (s *BusinessSuite) TestRemove() {
	b, err := s.service.Register(s.ctx, domain.Descriptor{0.1}, "Shop", "shop", "pw")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Remove(s.ctx, b.ID))

	_, err = s.service.Find(s.ctx, b.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
