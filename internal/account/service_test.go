package account

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"facepos/internal/biometric"
	"facepos/internal/business"
	"facepos/internal/domain"
	"facepos/internal/ledger"
	"facepos/internal/registry"
	"facepos/internal/resolver"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
)

// The account suite wires the real services over in-memory stores so the
// policy layer is tested against actual enrollment and ledger behavior, not
// against mocks of them.
type AccountSuite struct {
	suite.Suite
	ctx context.Context

	ledgerSvc   *ledger.Service
	registrySvc *registry.Service
	businessSvc *business.Service
	service     *Service
}

func (s *AccountSuite) SetupTest() {
	s.ctx = context.Background()

	regStore := registry.NewInMemoryStore()
	ledStore := ledger.NewInMemoryStore()

	var err error
	s.ledgerSvc, err = ledger.New(ledStore, registry.NewRoleSource(regStore))
	s.Require().NoError(err)
	s.registrySvc, err = registry.New(regStore, s.ledgerSvc)
	s.Require().NoError(err)
	s.businessSvc, err = business.New(business.NewInMemoryStore(), s.registrySvc)
	s.Require().NoError(err)

	res, err := resolver.New(s.registrySvc, biometric.NewThresholdMatcher(0.6))
	s.Require().NoError(err)

	s.service, err = New(res, s.registrySvc, s.ledgerSvc,
		OperatorCredentials{Username: "milo", Password: "milo"},
		WithBusinesses(s.businessSvc),
	)
	s.Require().NoError(err)
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountSuite))
}

// enroll registers a civilian directly through the facade and returns their
// session.
func (s *AccountSuite) enroll(descriptor domain.Descriptor) Session {
	identity, err := s.service.Register(s.ctx, descriptor)
	s.Require().NoError(err)
	sess, ok, err := s.service.Resolve(s.ctx, descriptor)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal(identity.ID, sess.AccountID)
	return sess
}

func (s *AccountSuite) operator() Session {
	sess, err := s.service.OperatorLogin(s.ctx, "milo", "milo")
	s.Require().NoError(err)
	return sess
}

func (s *AccountSuite) money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *AccountSuite) TestRegisterAndResolve() {
	descriptor := domain.Descriptor{1, 0, 0}

	identity, err := s.service.Register(s.ctx, descriptor)
	s.Require().NoError(err)
	s.Equal(id.RoleCivilian, identity.Role)

	s.Run("new enrollment starts at zero", func() {
		sess, ok, err := s.service.Resolve(s.ctx, descriptor)
		s.Require().NoError(err)
		s.Require().True(ok)
		balance, err := s.service.Balance(s.ctx, sess, sess.AccountID)
		s.Require().NoError(err)
		s.True(balance.IsZero())
	})

	s.Run("re-registering the same face is rejected", func() {
		_, err := s.service.Register(s.ctx, descriptor)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyEnrolled))
	})

	s.Run("unknown face resolves to nobody without error", func() {
		_, ok, err := s.service.Resolve(s.ctx, domain.Descriptor{0, 0, 9})
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *AccountSuite) TestDeregisterRequiresEmptyAccount() {
	descriptor := domain.Descriptor{1, 0, 0}
	sess := s.enroll(descriptor)
	op := s.operator()

	s.Require().NoError(s.service.Credit(s.ctx, op, sess.AccountID, s.money("30.00")))

	s.Run("non-zero balance blocks deregistration", func() {
		err := s.service.Deregister(s.ctx, sess)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAccountNotEmpty))
	})

	s.Require().NoError(s.service.Debit(s.ctx, op, sess.AccountID, s.money("30.00")))

	s.Run("empty account deregisters", func() {
		s.Require().NoError(s.service.Deregister(s.ctx, sess))

		_, ok, err := s.service.Resolve(s.ctx, descriptor)
		s.Require().NoError(err)
		s.False(ok, "removed enrollment must not resolve")
	})
}

func (s *AccountSuite) TestTransferBetweenPeople() {
	alice := s.enroll(domain.Descriptor{1, 0, 0})
	bob := s.enroll(domain.Descriptor{0, 1, 0})
	op := s.operator()

	s.Require().NoError(s.service.Credit(s.ctx, op, alice.AccountID, s.money("50.00")))

	s.Require().NoError(s.service.Transfer(s.ctx, alice, bob.AccountID, s.money("20.00")))

	aliceBal, err := s.service.Balance(s.ctx, alice, alice.AccountID)
	s.Require().NoError(err)
	s.True(aliceBal.Equal(s.money("30.00")))

	bobBal, err := s.service.Balance(s.ctx, bob, bob.AccountID)
	s.Require().NoError(err)
	s.True(bobBal.Equal(s.money("20.00")))

	s.Run("cannot view someone else's balance", func() {
		_, err := s.service.Balance(s.ctx, alice, bob.AccountID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("operator can view any balance", func() {
		got, err := s.service.Balance(s.ctx, op, bob.AccountID)
		s.Require().NoError(err)
		s.True(got.Equal(s.money("20.00")))
	})
}

func (s *AccountSuite) TestBusinessCharge() {
	customerDesc := domain.Descriptor{1, 0, 0}
	customer := s.enroll(customerDesc)
	op := s.operator()

	biz, err := s.businessSvc.Register(s.ctx, domain.Descriptor{0, 1, 0}, "Corner Cafe", "cafe", "espresso")
	s.Require().NoError(err)
	bizSess := Session{AccountID: biz.ID, Role: id.RoleBusiness}

	s.Require().NoError(s.service.Credit(s.ctx, op, customer.AccountID, s.money("10.00")))

	s.Require().NoError(s.service.Charge(s.ctx, bizSess, customerDesc, s.money("4.50")))

	customerBal, err := s.service.Balance(s.ctx, customer, customer.AccountID)
	s.Require().NoError(err)
	s.True(customerBal.Equal(s.money("5.50")))

	bizBal, err := s.service.Balance(s.ctx, bizSess, biz.ID)
	s.Require().NoError(err)
	s.True(bizBal.Equal(s.money("4.50")))

	s.Run("insufficient customer funds fail the charge", func() {
		err := s.service.Charge(s.ctx, bizSess, customerDesc, s.money("100.00"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("unrecognized customer cannot be charged", func() {
		err := s.service.Charge(s.ctx, bizSess, domain.Descriptor{0, 0, 9}, s.money("1.00"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("civilians cannot charge", func() {
		err := s.service.Charge(s.ctx, customer, domain.Descriptor{0, 1, 0}, s.money("1.00"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *AccountSuite) TestOperatorGates() {
	civilian := s.enroll(domain.Descriptor{1, 0, 0})
	op := s.operator()

	s.Run("civilians cannot credit or debit", func() {
		err := s.service.Credit(s.ctx, civilian, civilian.AccountID, s.money("5.00"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		err = s.service.Debit(s.ctx, civilian, civilian.AccountID, s.money("5.00"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("operator sessions cannot originate transfers", func() {
		err := s.service.Transfer(s.ctx, op, civilian.AccountID, s.money("5.00"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("operator sessions cannot deregister", func() {
		err := s.service.Deregister(s.ctx, op)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("operator debit still honors the non-negative invariant", func() {
		err := s.service.Debit(s.ctx, op, civilian.AccountID, s.money("1.00"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("lookup is operator only", func() {
		identity, err := s.service.Lookup(s.ctx, op, civilian.AccountID)
		s.Require().NoError(err)
		s.Equal(civilian.AccountID, identity.ID)

		_, err = s.service.Lookup(s.ctx, civilian, civilian.AccountID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *AccountSuite) TestOperatorLogin() {
	s.Run("valid credentials mint an operator session", func() {
		sess, err := s.service.OperatorLogin(s.ctx, "milo", "milo")
		s.Require().NoError(err)
		s.True(sess.Operator)
		s.Equal(id.RoleBank, sess.Role)
		s.True(sess.AccountID.IsNil())
	})

	s.Run("wrong password is unauthorized", func() {
		_, err := s.service.OperatorLogin(s.ctx, "milo", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("wrong username is unauthorized", func() {
		_, err := s.service.OperatorLogin(s.ctx, "admin", "milo")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
