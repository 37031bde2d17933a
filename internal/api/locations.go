package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circuitstash/core/internal/audit"
	"github.com/circuitstash/core/internal/inventory"
)

// handleListLocations returns all locations.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.inventory.ListLocations(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations, "count": len(locations)})
}

// handleCreateLocation creates a location. A client-supplied id that is
// already taken is a 409.
func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var in inventory.LocationInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	location, err := s.inventory.CreateLocation(r.Context(), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionCreate, "location", location.ID, map[string]any{"name": location.Name})
	writeJSON(w, http.StatusCreated, location)
}

// handleGetLocation returns a single location by ID.
func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := s.inventory.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

// handleUpdateLocation applies a partial update to a location.
func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var upd inventory.LocationUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	location, err := s.inventory.UpdateLocation(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionUpdate, "location", location.ID, nil)
	writeJSON(w, http.StatusOK, location)
}

// handleDeleteLocation removes a location together with its stock rows.
func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.inventory.DeleteLocation(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionDelete, "location", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
