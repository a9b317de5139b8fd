package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"facepos/internal/account"
	"facepos/internal/biometric"
	"facepos/internal/business"
	"facepos/internal/ledger"
	"facepos/internal/platform/config"
	"facepos/internal/platform/httpserver"
	"facepos/internal/platform/logger"
	"facepos/internal/platform/metrics"
	"facepos/internal/registry"
	"facepos/internal/resolver"
	"facepos/internal/token"
	httptransport "facepos/internal/transport/http"
)

const sessionTTL = 8 * time.Hour

// main wires the dependency graph and owns the server lifecycle. All business
// logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	regStore, err := registry.NewFileStore(filepath.Join(cfg.DataDir, "identities"))
	if err != nil {
		log.Error("failed to open identity store", "error", err)
		os.Exit(1)
	}
	bizStore, err := business.NewFileStore(filepath.Join(cfg.DataDir, "businesses"))
	if err != nil {
		log.Error("failed to open business store", "error", err)
		os.Exit(1)
	}
	ledStore, err := newLedgerStore(cfg)
	if err != nil {
		log.Error("failed to open ledger store", "error", err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}

	ledgerSvc, err := ledger.New(ledStore, registry.NewRoleSource(regStore),
		ledger.WithLogger(log),
		ledger.WithMetrics(m),
		ledger.WithRetries(cfg.CASRetries),
	)
	if err != nil {
		log.Error("failed to build ledger service", "error", err)
		os.Exit(1)
	}
	registrySvc, err := registry.New(regStore, ledgerSvc,
		registry.WithLogger(log),
		registry.WithMetrics(m),
	)
	if err != nil {
		log.Error("failed to build registry service", "error", err)
		os.Exit(1)
	}
	businessSvc, err := business.New(bizStore, registrySvc, business.WithLogger(log))
	if err != nil {
		log.Error("failed to build business service", "error", err)
		os.Exit(1)
	}

	res, err := resolver.New(registrySvc, biometric.NewThresholdMatcher(cfg.MatchTolerance),
		resolver.WithLogger(log),
		resolver.WithMetrics(m),
	)
	if err != nil {
		log.Error("failed to build resolver", "error", err)
		os.Exit(1)
	}

	accountSvc, err := account.New(res, registrySvc, ledgerSvc,
		account.OperatorCredentials{
			Username: cfg.OperatorUsername,
			Password: cfg.OperatorPassword,
		},
		account.WithBusinesses(businessSvc),
		account.WithLogger(log),
	)
	if err != nil {
		log.Error("failed to build account service", "error", err)
		os.Exit(1)
	}

	tokens := token.NewService(cfg.JWTSigningKey, "facepos", sessionTTL)
	validator := token.NewValidatorAdapter(tokens)

	router := httptransport.NewRouter(httptransport.Handlers{
		POS:      httptransport.NewPOSHandler(accountSvc, log, cfg.OpTimeout),
		Business: httptransport.NewBusinessHandler(businessSvc, accountSvc, tokens, validator, log, cfg.OpTimeout),
		Bank:     httptransport.NewBankHandler(accountSvc, tokens, validator, log, cfg.OpTimeout),
	}, log, m)

	srv := httpserver.New(cfg.Addr, router, cfg.OpTimeout)

	go func() {
		log.Info("starting facepos server",
			"addr", cfg.Addr,
			"ledger_backend", cfg.LedgerBackend,
			"data_dir", cfg.DataDir,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// newLedgerStore selects the balance store backend. The file store is the
// default; postgres serves deployments where the terminals cannot share a
// filesystem.
func newLedgerStore(cfg config.Server) (ledger.Store, error) {
	switch cfg.LedgerBackend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ledger.NewPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return ledger.NewFileStore(filepath.Join(cfg.DataDir, "balances"))
	}
}
