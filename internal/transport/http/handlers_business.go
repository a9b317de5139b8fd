package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"facepos/internal/account"
	"facepos/internal/business"
	"facepos/internal/domain"
	"facepos/internal/platform/middleware"
	"facepos/internal/token"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
)

// BusinessService is the credential side of business accounts.
type BusinessService interface {
	Register(ctx context.Context, descriptor domain.Descriptor, displayName, username, password string) (domain.Business, error)
	Login(ctx context.Context, username, password string) (domain.Business, error)
}

// ChargeService is the slice of the account service business sessions use.
type ChargeService interface {
	Charge(ctx context.Context, sess account.Session, customer domain.Descriptor, amount decimal.Decimal) error
	Transfer(ctx context.Context, sess account.Session, to id.AccountID, amount decimal.Decimal) error
	Balance(ctx context.Context, sess account.Session, accountID id.AccountID) (decimal.Decimal, error)
}

// BusinessHandler serves business registration, login and the token-gated
// charge endpoints.
type BusinessHandler struct {
	businesses BusinessService
	accounts   ChargeService
	tokens     *token.Service
	validator  middleware.TokenValidator
	logger     *slog.Logger
	timeout    time.Duration
}

func NewBusinessHandler(
	businesses BusinessService,
	accounts ChargeService,
	tokens *token.Service,
	validator middleware.TokenValidator,
	logger *slog.Logger,
	timeout time.Duration) *BusinessHandler {
	return &BusinessHandler{
		businesses: businesses,
		accounts:   accounts,
		tokens:     tokens,
		validator:  validator,
		logger:     logger,
		timeout:    timeout,
	}
}

// Register mounts /business routes. Charge, payout and balance require a
// business session token; registration and login are open.
func (h *BusinessHandler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(h.timeout))
		g.Use(middleware.ContentTypeJSON)
		g.Post("/business/register", h.handleRegister)
		g.Post("/business/login", h.handleLogin)
	})

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(h.timeout))
		g.Use(middleware.ContentTypeJSON)
		g.Use(middleware.RequireRole(h.validator, id.RoleBusiness, h.logger))
		g.Get("/business/account/balance", h.handleBalance)
		g.Post("/business/account/charge", h.handleCharge)
		g.Post("/business/account/transfer", h.handleTransfer)
	})
}

type businessRegisterRequest struct {
	Descriptor  []float64 `json:"descriptor"`
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username"`
	Password    string    `json:"password"`
}

type businessResponse struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

func (h *BusinessHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req businessRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.businesses.Register(ctx, domain.Descriptor(req.Descriptor), req.DisplayName, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, businessView(b))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string           `json:"token"`
	Business businessResponse `json:"business"`
}

func (h *BusinessHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.businesses.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	signed, err := h.tokens.Generate(b.ID, id.RoleBusiness)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint business session token",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "failed to create session"))
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:    signed,
		Business: businessView(b),
	})
}

func (h *BusinessHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	balance, err := h.accounts.Balance(ctx, sess, sess.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		AccountID: sess.AccountID.String(),
		Balance:   balance.StringFixed(2),
	})
}

type chargeRequest struct {
	CustomerDescriptor []float64 `json:"customer_descriptor"`
	Amount             string    `json:"amount"`
}

func (h *BusinessHandler) handleCharge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	var req chargeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.Charge(ctx, sess, domain.Descriptor(req.CustomerDescriptor), amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payoutRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (h *BusinessHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	var req payoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	to, err := id.ParseAccountID(req.To)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid destination account id"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.accounts.Transfer(ctx, sess, to, amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func businessView(b domain.Business) businessResponse {
	return businessResponse{
		AccountID:   b.ID.String(),
		DisplayName: b.DisplayName,
		Username:    b.Username,
	}
}

// sessionFromContext rebuilds the session the auth middleware validated.
// Operator tokens carry the bank role and no account id.
func sessionFromContext(ctx context.Context) account.Session {
	accountID := id.AccountID(middleware.GetAccountID(ctx))
	role := middleware.GetRole(ctx)
	return account.Session{
		AccountID: accountID,
		Role:      role,
		Operator:  role == id.RoleBank && accountID.IsNil(),
	}
}

var _ BusinessService = (*business.Service)(nil)
