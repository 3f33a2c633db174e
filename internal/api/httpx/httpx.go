package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/h2credits-backend/internal/services"
)

// maxBody caps request bodies decoded by DecodeJSON.
const maxBody = 1 << 20

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// DecodeJSON reads one JSON object into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorTable is checked in order; the first match wins.
var errorTable = []errorMapping{
	{services.ErrTimeout, http.StatusGatewayTimeout, "timeout"},
	{services.ErrPersistence, http.StatusInternalServerError, "persistence_error"},
	{services.ErrForbidden, http.StatusForbidden, "forbidden"},
	{services.ErrNotOwner, http.StatusForbidden, "not_owner"},
	{services.ErrBidNotFound, http.StatusNotFound, "bid_not_found"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrInvalidTransferState, http.StatusConflict, "invalid_transfer_state"},
	{services.ErrCreditNotAvailable, http.StatusConflict, "credit_not_available"},
	{services.ErrAlreadyRetired, http.StatusConflict, "already_retired"},
	{services.ErrBidNotActive, http.StatusConflict, "bid_not_active"},
	{services.ErrPartnershipNotOpen, http.StatusConflict, "partnership_not_open"},
	{services.ErrAllocationExceeded, http.StatusConflict, "allocation_exceeded"},
	{services.ErrBidTooLow, http.StatusUnprocessableEntity, "bid_too_low"},
	{services.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{services.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{services.ErrInvalidExpiry, http.StatusBadRequest, "invalid_expiry"},
	{services.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
}

// StatusFor maps a service failure to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// WriteServiceError renders a service failure. Server-side failures are logged
// and their cause is not echoed to the client.
func WriteServiceError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "code", code, "err", err)
		msg = http.StatusText(status)
	}
	WriteError(w, status, code, msg, nil)
}
