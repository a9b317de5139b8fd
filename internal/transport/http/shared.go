// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the account service and re-encode; authorization and ledger semantics live
// below this package.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"facepos/internal/ledger"
	dErrors "facepos/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies. Descriptors are 128 floats; nothing on
// this API legitimately approaches a megabyte.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError translates a domain error into the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := dErrors.ToHTTPStatus(code)

	message := ""
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   string(code),
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON parses the request body into dst, rejecting unknown fields so
// client typos fail loudly.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// parseAmount applies the ledger's strict decimal syntax to a wire amount.
func parseAmount(raw string) (decimal.Decimal, error) {
	return ledger.ParseAmount(raw)
}
