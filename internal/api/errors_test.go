package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/circuitstash/core/internal/apperr"
	"github.com/circuitstash/core/internal/auth"
	"github.com/circuitstash/core/internal/inventory"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindAlreadyExists, http.StatusConflict},
		{apperr.KindUnauthorized, http.StatusUnauthorized},
		{apperr.KindDisabled, http.StatusUnauthorized},
		{apperr.KindForbidden, http.StatusForbidden},
		{apperr.KindInvalidInput, http.StatusBadRequest},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWriteAppError(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"not found keeps message", inventory.ErrPartNotFound, http.StatusNotFound, "part not found"},
		{"wrapped kind", fmt.Errorf("creating part: %w", inventory.ErrPartExists), http.StatusConflict, "part id already exists"},
		{"disabled is generic", auth.ErrAccountDisabled, http.StatusUnauthorized, "username or password is incorrect"},
		{"internal is hidden", errors.New("disk full at /var/lib/stash"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.srv.writeAppError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body Error
			decodeBody(t, rec, &body)
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}

	if !strings.Contains(env.logs.String(), "disk full") {
		t.Error("internal error should be logged")
	}
}
