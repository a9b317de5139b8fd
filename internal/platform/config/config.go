package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr string

	// DataDir is the root of the shared filesystem state (identities,
	// balances, business records). Independent role processes point at the
	// same directory.
	DataDir string

	// LedgerBackend selects the balance store: "file" (default) or "postgres".
	LedgerBackend string
	PostgresDSN   string

	// MatchTolerance is the maximum descriptor distance that still counts as
	// a match. 0.6 mirrors the upstream face pipeline default.
	MatchTolerance float64

	// CASRetries bounds the read-compute-commit cycle on version conflicts.
	CASRetries int

	// OpTimeout bounds every ledger mutation and external matcher call.
	OpTimeout time.Duration

	JWTSigningKey string

	// Bank operator credentials. The operator is credential-checked, not
	// biometrically resolved.
	OperatorUsername string
	OperatorPassword string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:             envOr("FACEPOS_ADDR", ":8080"),
		DataDir:          envOr("FACEPOS_DATA_DIR", "./data"),
		LedgerBackend:    envOr("FACEPOS_LEDGER_BACKEND", "file"),
		PostgresDSN:      os.Getenv("FACEPOS_POSTGRES_DSN"),
		MatchTolerance:   envFloatOr("FACEPOS_MATCH_TOLERANCE", 0.6),
		CASRetries:       envIntOr("FACEPOS_CAS_RETRIES", 5),
		OpTimeout:        envDurationOr("FACEPOS_OP_TIMEOUT", 5*time.Second),
		JWTSigningKey:    envOr("FACEPOS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		OperatorUsername: envOr("FACEPOS_OPERATOR_USERNAME", "milo"),
		OperatorPassword: envOr("FACEPOS_OPERATOR_PASSWORD", "milo"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
