package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/erp-approval-engine/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload) //nolint:errcheck // заголовки уже ушли
	}
}

// respondError мапит классификацию ошибок домена в HTTP-коды.
// AuthorizationDenied — отказ, а не сбой: 403 без деталей внутренностей.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAuthorizationDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyFinalized):
		status = http.StatusConflict
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
