package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/circuitstash/core/internal/apperr"
	"github.com/circuitstash/core/internal/audit"
	"github.com/circuitstash/core/internal/inventory"
)

// partResponse adds the derived low-stock flag to a part.
type partResponse struct {
	*inventory.Part
	LowStock bool `json:"low_stock"`
}

func newPartResponse(p *inventory.Part) partResponse {
	return partResponse{Part: p, LowStock: p.LowStock()}
}

// handleListParts returns parts, optionally filtered by ?q= (name
// substring) and ?low_stock=true.
func (s *Server) handleListParts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var lowOnly bool
	if v := q.Get("low_stock"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeAppError(w, r, apperr.Invalid("low_stock must be a boolean"))
			return
		}
		lowOnly = parsed
	}

	parts, err := s.inventory.ListParts(r.Context(), inventory.PartFilter{
		Query:        q.Get("q"),
		LowStockOnly: lowOnly,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	items := make([]partResponse, 0, len(parts))
	for i := range parts {
		items = append(items, newPartResponse(&parts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"parts": items, "count": len(items)})
}

// handleCreatePart creates a part with zero stock.
func (s *Server) handleCreatePart(w http.ResponseWriter, r *http.Request) {
	var in inventory.PartInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	part, err := s.inventory.CreatePart(r.Context(), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionCreate, "part", part.ID, map[string]any{"name": part.Name})
	writeJSON(w, http.StatusCreated, newPartResponse(part))
}

// handleGetPart returns a single part by ID.
func (s *Server) handleGetPart(w http.ResponseWriter, r *http.Request) {
	part, err := s.inventory.GetPart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPartResponse(part))
}

// handleUpdatePart applies a partial update. A stock field in the body is
// accepted and ignored.
func (s *Server) handleUpdatePart(w http.ResponseWriter, r *http.Request) {
	var upd inventory.PartUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	part, err := s.inventory.UpdatePart(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionUpdate, "part", part.ID, nil)
	writeJSON(w, http.StatusOK, newPartResponse(part))
}

// handleDeletePart removes a part and its stock rows.
func (s *Server) handleDeletePart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.inventory.DeletePart(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionDelete, "part", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
