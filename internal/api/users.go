package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/circuitstash/core/internal/apperr"
	"github.com/circuitstash/core/internal/audit"
	"github.com/circuitstash/core/internal/auth"
)

// ─── Request/Response Types ────────────────────────────────────────

// roleValue accepts a role as a name ("admin") or as its integer form
// (1 or "1").
type roleValue struct {
	auth.Role
}

func (v *roleValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	role, err := auth.ParseRole(s)
	if err != nil {
		return err
	}
	v.Role = role
	return nil
}

type createUserRequest struct {
	Username string    `json:"username"`
	Password string    `json:"password"`
	Role     roleValue `json:"role"`
}

type updateUserRequest struct {
	Disabled *bool      `json:"disabled,omitempty"`
	Role     *roleValue `json:"role,omitempty"`
}

// errNothingToUpdate is returned for a PATCH without any known field.
var errNothingToUpdate = apperr.New(apperr.KindInvalidInput, "no fields to update")

// ─── Handlers ──────────────────────────────────────────────────────

// handleListUsers returns all accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.ListAccounts(r.Context(), principal(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": accounts,
		"count": len(accounts),
	})
}

// handleCreateUser creates an account. The role defaults to user.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	account, err := s.accounts.CreateAccount(r.Context(), principal(r), req.Username, req.Password, req.Role.Role)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionCreate, "account", account.Username, map[string]any{"role": account.Role.String()})
	writeJSON(w, http.StatusCreated, account)
}

// handleGetUser returns one account by username.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	account, err := s.accounts.GetAccount(r.Context(), principal(r), chi.URLParam(r, "username"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// handleUpdateUser changes an account's role and/or disabled flag.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	actor := principal(r)

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if req.Disabled == nil && req.Role == nil {
		s.writeAppError(w, r, errNothingToUpdate)
		return
	}

	if req.Role != nil {
		if err := s.accounts.SetRole(r.Context(), actor, username, req.Role.Role); err != nil {
			s.writeAppError(w, r, err)
			return
		}
	}
	if req.Disabled != nil {
		if err := s.accounts.SetDisabled(r.Context(), actor, username, *req.Disabled); err != nil {
			s.writeAppError(w, r, err)
			return
		}
	}

	account, err := s.accounts.GetAccount(r.Context(), actor, username)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	details := map[string]any{}
	if req.Role != nil {
		details["role"] = req.Role.Role.String()
	}
	if req.Disabled != nil {
		details["disabled"] = *req.Disabled
	}
	s.auditLog(r, audit.ActionUpdate, "account", account.Username, details)

	writeJSON(w, http.StatusOK, account)
}
