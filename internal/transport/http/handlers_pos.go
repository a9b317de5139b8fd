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
	id "facepos/pkg/domain"
	dErrors "facepos/pkg/domain-errors"
)

// POSService is the slice of the account service the walk-up terminal uses.
// Every operation authenticates with a fresh capture; there is no session
// cookie to steal and no stale "current face".
type POSService interface {
	Resolve(ctx context.Context, live domain.Descriptor) (account.Session, bool, error)
	Register(ctx context.Context, live domain.Descriptor) (domain.Identity, error)
	Deregister(ctx context.Context, sess account.Session) error
	Balance(ctx context.Context, sess account.Session, accountID id.AccountID) (decimal.Decimal, error)
	Transfer(ctx context.Context, sess account.Session, to id.AccountID, amount decimal.Decimal) error
}

// POSHandler serves the biometric point-of-sale endpoints.
type POSHandler struct {
	accounts POSService
	logger   *slog.Logger
	timeout  time.Duration
}

func NewPOSHandler(accounts POSService, logger *slog.Logger, timeout time.Duration) *POSHandler {
	return &POSHandler{
		accounts: accounts,
		logger:   logger,
		timeout:  timeout,
	}
}

// Register mounts the walk-up routes.
func (h *POSHandler) Register(r chi.Router) {
	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(h.timeout))
		g.Use(middleware.ContentTypeJSON)
		g.Post("/resolve", h.handleResolve)
		g.Post("/register", h.handleRegister)
		g.Post("/deregister", h.handleDeregister)
		g.Post("/balance", h.handleBalance)
		g.Post("/transfer", h.handleTransfer)
	})
}

type captureRequest struct {
	Descriptor []float64 `json:"descriptor"`
}

type resolveResponse struct {
	Resolved  bool   `json:"resolved"`
	AccountID string `json:"account_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (h *POSHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req captureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess, ok, err := h.accounts.Resolve(ctx, domain.Descriptor(req.Descriptor))
	if err != nil {
		h.logger.WarnContext(ctx, "resolution failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, resolveResponse{Resolved: false})
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		Resolved:  true,
		AccountID: sess.AccountID.String(),
		Role:      sess.Role.String(),
	})
}

type registerResponse struct {
	AccountID  string    `json:"account_id"`
	Role       string    `json:"role"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func (h *POSHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req captureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := h.accounts.Register(ctx, domain.Descriptor(req.Descriptor))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		AccountID:  identity.ID.String(),
		Role:       identity.Role.String(),
		EnrolledAt: identity.EnrolledAt,
	})
}

func (h *POSHandler) handleDeregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.resolveCapture(w, r)
	if !ok {
		return
	}
	if err := h.accounts.Deregister(ctx, sess); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

func (h *POSHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, ok := h.resolveCapture(w, r)
	if !ok {
		return
	}
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

type transferRequest struct {
	Descriptor []float64 `json:"descriptor"`
	To         string    `json:"to"`
	Amount     string    `json:"amount"`
}

func (h *POSHandler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transferRequest
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

	sess, ok, err := h.accounts.Resolve(ctx, domain.Descriptor(req.Descriptor))
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "face not recognized"))
		return
	}

	if err := h.accounts.Transfer(ctx, sess, to, amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveCapture decodes a capture body and resolves it to a session, writing
// the error response itself when either step fails.
func (h *POSHandler) resolveCapture(w http.ResponseWriter, r *http.Request) (account.Session, bool) {
	var req captureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return account.Session{}, false
	}
	sess, ok, err := h.accounts.Resolve(r.Context(), domain.Descriptor(req.Descriptor))
	if err != nil {
		writeError(w, err)
		return account.Session{}, false
	}
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "face not recognized"))
		return account.Session{}, false
	}
	return sess, true
}
