package api

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/circuitstash/core/internal/apperr"
	"github.com/circuitstash/core/internal/audit"
)

// loginRequest is the JSON body for POST /auth/login. Form-encoded
// username and password fields are accepted as well.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
}

// meResponse is the response body for GET /auth/me.
type meResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// handleLogin authenticates a user and returns a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.allow(clientIP(r)) {
		s.metrics.logins.WithLabelValues(loginRateLimited).Inc()
		w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
		writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "too many login attempts")
		return
	}

	req, err := readCredentials(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	session, err := s.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		outcome := loginRejected
		if apperr.KindOf(err) == apperr.KindInternal {
			outcome = loginError
		}
		s.metrics.logins.WithLabelValues(outcome).Inc()
		s.writeAppError(w, r, err)
		return
	}
	s.metrics.logins.WithLabelValues(loginSuccess).Inc()

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: session.Token,
		TokenType:   session.TokenType,
		ExpiresIn:   int(s.accounts.Tokens().TTL().Seconds()),
		ExpiresAt:   session.ExpiresAt,
		Username:    session.Username,
		Role:        session.Role.String(),
	})
}

// readCredentials reads a login from a form or a JSON body, depending on
// the Content-Type.
func readCredentials(r *http.Request) (loginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty type falls through to JSON
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxRequestBodySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return loginRequest{}, apperr.Invalid("invalid form body")
		}
		return loginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	default:
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			return loginRequest{}, err
		}
		return req, nil
	}
}

// handleMe returns the authenticated caller.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	writeJSON(w, http.StatusOK, meResponse{
		ID:       p.AccountID,
		Username: p.Username,
		Role:     p.Role.String(),
	})
}

// handleChangePassword replaces the caller's own password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	p := principal(r)
	if err := s.accounts.ChangePassword(r.Context(), p, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionPasswordChange, "account", p.Username, nil)
	w.WriteHeader(http.StatusNoContent)
}
