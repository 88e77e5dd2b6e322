package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/booking"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/lookup"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/portal"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrValidation),
		errors.Is(err, portal.ErrInvalidPhone),
		errors.Is(err, portal.ErrInvalidPin):
		return http.StatusBadRequest
	case errors.Is(err, portal.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, booking.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, recordstore.ErrNotFound), errors.Is(err, lookup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, recordstore.ErrSlotTaken),
		errors.Is(err, booking.ErrIllegalTransition),
		errors.Is(err, recordstore.ErrStaleStatus):
		return http.StatusConflict
	case errors.Is(err, booking.ErrBookingClosed),
		errors.Is(err, recordstore.ErrUnavailable),
		errors.Is(err, lookup.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps domain errors to status codes. Server-side failures are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.Error(msg, "err", err)
		http.Error(w, msg, status)
	case http.StatusServiceUnavailable:
		logger.Warn(msg, "err", err)
		http.Error(w, err.Error(), status)
	default:
		http.Error(w, err.Error(), status)
	}
}
