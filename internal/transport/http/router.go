package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"facepos/internal/platform/metrics"
	"facepos/internal/platform/middleware"
)

// Handlers groups the feature handlers the router mounts.
type Handlers struct {
	POS      *POSHandler
	Business *BusinessHandler
	Bank     *BankHandler
}

// NewRouter builds the full route tree with the shared middleware chain.
// Feature handlers mount their own auth and timeout middleware; the chain
// here covers every route including /healthz and /metrics.
func NewRouter(h Handlers, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Bank.Register(r)
	h.Business.Register(r)
	h.POS.Register(r)

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
