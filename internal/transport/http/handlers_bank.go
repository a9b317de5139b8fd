package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"facepos/internal/account"
	"facepos/internal/domain"
	"facepos/internal/platform/middleware"
	"facepos/internal/token"
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
)

// BankService is the operator console slice of the account service.
type BankService interface {
	OperatorLogin(ctx context.Context, username, password string) (account.Session, error)
	Credit(ctx context.Context, sess account.Session, accountID id.AccountID, amount decimal.Decimal) error
	Debit(ctx context.Context, sess account.Session, accountID id.AccountID, amount decimal.Decimal) error
	Balance(ctx context.Context, sess account.Session, accountID id.AccountID) (decimal.Decimal, error)
	Lookup(ctx context.Context, sess account.Session, accountID id.AccountID) (domain.Identity, error)
}

// BankHandler serves the operator console: credential login, inquiries and
// manual credits/debits against any account.
type BankHandler struct {
	accounts  BankService
	tokens    *token.Service
	validator middleware.TokenValidator
	logger    *slog.Logger
	timeout   time.Duration
}

func NewBankHandler(
	accounts BankService,
	tokens *token.Service,
	validator middleware.TokenValidator,
	logger *slog.Logger,
	timeout time.Duration) *BankHandler {
	return &BankHandler{
		accounts:  accounts,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
		timeout:   timeout,
	}
}

// Register mounts /bank routes. Everything except login requires an operator
// token.
func (h *BankHandler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(h.timeout))
		g.Use(middleware.ContentTypeJSON)
		g.Post("/bank/login", h.handleLogin)
	})

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(h.timeout))
		g.Use(middleware.ContentTypeJSON)
		g.Use(middleware.RequireRole(h.validator, id.RoleBank, h.logger))
		g.Get("/bank/accounts/{accountID}", h.handleInquire)
		g.Post("/bank/accounts/{accountID}/credit", h.handleCredit)
		g.Post("/bank/accounts/{accountID}/debit", h.handleDebit)
	})
}

type operatorLoginResponse struct {
	Token string `json:"token"`
}

func (h *BankHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.accounts.OperatorLogin(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "operator login rejected",
			"request_id", middleware.GetRequestID(ctx),
			"username", req.Username,
		)
		writeError(w, err)
		return
	}
	signed, err := h.tokens.Generate(sess.AccountID, sess.Role)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint operator session token",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "failed to create session"))
		return
	}
	writeJSON(w, http.StatusOK, operatorLoginResponse{Token: signed})
}

type inquireResponse struct {
	AccountID  string    `json:"account_id"`
	Role       string    `json:"role"`
	Balance    string    `json:"balance"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func (h *BankHandler) handleInquire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid account id"))
		return
	}

	identity, err := h.accounts.Lookup(ctx, sess, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	balance, err := h.accounts.Balance(ctx, sess, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inquireResponse{
		AccountID:  identity.ID.String(),
		Role:       identity.Role.String(),
		Balance:    balance.StringFixed(2),
		EnrolledAt: identity.EnrolledAt,
	})
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (h *BankHandler) handleCredit(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, h.accounts.Credit)
}

func (h *BankHandler) handleDebit(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, h.accounts.Debit)
}

func (h *BankHandler) handleMutation(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, account.Session, id.AccountID, decimal.Decimal) error) {
	ctx := r.Context()
	sess := sessionFromContext(ctx)

	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid account id"))
		return
	}

	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := apply(ctx, sess, accountID, amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
