// Package handlers provides the HTTP handlers of the dashboard API: sessions,
// report views and exports, and the case operations proxied to the upstream.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aldeia/relatos-dashboard/casesapi"
	"github.com/aldeia/relatos-dashboard/logging"
	"github.com/aldeia/relatos-dashboard/validation"
)

// maxJSONBody bounds the JSON bodies decoded by the handlers.
const maxJSONBody = 1 << 20

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithFailure maps err to a response. Validation errors are 400,
// upstream errors keep their status and anything else is a bad gateway.
func (h *HTTPHandlerImpl) respondWithFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	var apiErr *casesapi.APIError
	switch {
	case validation.IsValidationError(err):
		logging.Warn("Unusual user input", "op", op, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400:
		if apiErr.StatusCode >= 500 {
			logging.Error("Upstream request failed", "op", op, "status", apiErr.StatusCode, "detail", apiErr.Detail)
		}
		h.RespondWithError(w, apiErr.StatusCode, apiErr.Detail)

	default:
		logging.Error("Upstream unavailable", "op", op, "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusBadGateway, "Upstream service unavailable")
	}
}

// decodeJSON reads a single JSON value from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &validation.ValidationError{Field: "body", Message: "request body is empty"}
		}
		return &validation.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
