package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/circuitstash/core/internal/apperr"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeRateLimited  = "rate_limited"
)

// errInvalidBody is returned for request bodies that are not valid JSON.
var errInvalidBody = apperr.New(apperr.KindInvalidInput, "invalid JSON body")

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// statusForKind maps an error kind to its HTTP status and error code.
func statusForKind(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case apperr.KindAlreadyExists:
		return http.StatusConflict, ErrCodeConflict
	case apperr.KindUnauthorized, apperr.KindDisabled:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case apperr.KindInvalidInput:
		return http.StatusBadRequest, ErrCodeValidation
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// writeAppError renders err by its kind. Internal errors are logged here
// and reach the client only as a generic message.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind, message := apperr.Public(err)
	if kind == apperr.KindInternal {
		s.logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
		)
	}
	status, code := statusForKind(kind)
	writeError(w, status, code, message)
}

// decodeJSON decodes the request body into v. Errors carrying a kind (for
// example an unknown role) keep it; anything else is errInvalidBody.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		return errInvalidBody
	}
	return nil
}
