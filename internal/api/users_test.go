package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/circuitstash/core/internal/auth"
)

func TestAdminUsers_RequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.login(t, "bob", testUserPassword)

	for _, path := range []string{"/api/v1/admin/users", "/api/v1/admin/users/bob"} {
		rec := env.do(t, http.MethodGet, path, userToken, nil)
		expectStatus(t, rec, http.StatusForbidden)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/admin/users", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAdminUsers_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", testAdminPassword)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/users", token,
		map[string]any{"username": "carol", "password": "carol-pw", "role": "admin"})
	expectStatus(t, rec, http.StatusCreated)
	if strings.Contains(rec.Body.String(), "password_hash") || strings.Contains(rec.Body.String(), "salt") {
		t.Errorf("account response exposes credentials: %s", rec.Body.String())
	}
	var created auth.Account
	decodeBody(t, rec, &created)
	if created.Role != auth.RoleAdmin {
		t.Errorf("Role = %v, want admin", created.Role)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/admin/users", token,
		map[string]any{"username": "carol", "password": "other"})
	expectStatus(t, rec, http.StatusConflict)

	rec = env.do(t, http.MethodPatch, "/api/v1/admin/users/carol", token, map[string]any{"role": 0})
	expectStatus(t, rec, http.StatusOK)
	var updated auth.Account
	decodeBody(t, rec, &updated)
	if updated.Role != auth.RoleUser {
		t.Errorf("Role after patch = %v, want user", updated.Role)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/admin/users", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &list)
	if list.Count != 3 {
		t.Errorf("count = %d, want 3", list.Count)
	}
}

func TestAdminUsers_Rejections(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "admin", testAdminPassword)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"invalid username", http.MethodPost, "/api/v1/admin/users", map[string]any{"username": "bad name", "password": "x"}, http.StatusBadRequest},
		{"empty password", http.MethodPost, "/api/v1/admin/users", map[string]any{"username": "dave", "password": ""}, http.StatusBadRequest},
		{"unknown role", http.MethodPost, "/api/v1/admin/users", map[string]any{"username": "dave", "password": "x", "role": "owner"}, http.StatusBadRequest},
		{"empty patch", http.MethodPatch, "/api/v1/admin/users/bob", map[string]any{}, http.StatusBadRequest},
		{"disable self", http.MethodPatch, "/api/v1/admin/users/admin", map[string]any{"disabled": true}, http.StatusBadRequest},
		{"demote self", http.MethodPatch, "/api/v1/admin/users/admin", map[string]any{"role": "user"}, http.StatusBadRequest},
		{"unknown account", http.MethodPatch, "/api/v1/admin/users/ghost", map[string]any{"disabled": true}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRoleValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    auth.Role
		wantErr bool
	}{
		{`"admin"`, auth.RoleAdmin, false},
		{`"USER"`, auth.RoleUser, false},
		{`1`, auth.RoleAdmin, false},
		{`"0"`, auth.RoleUser, false},
		{`null`, auth.RoleUser, false},
		{`2`, 0, true},
		{`"owner"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v roleValue
			err := json.Unmarshal([]byte(tt.in), &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, auth.ErrInvalidRole) {
				t.Errorf("error = %v, want ErrInvalidRole", err)
			}
			if !tt.wantErr && v.Role != tt.want {
				t.Errorf("Role = %v, want %v", v.Role, tt.want)
			}
		})
	}
}
