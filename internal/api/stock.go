package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circuitstash/core/internal/audit"
	"github.com/circuitstash/core/internal/inventory"
)

type updateInventoryRequest struct {
	Stock *int `json:"stock"`
}

type adjustStockRequest struct {
	PartID     string `json:"part_id"`
	LocationID string `json:"location_id"`
	Delta      int    `json:"delta"`
}

// handleListInventory returns inventory rows, optionally filtered by
// ?part_id= and ?location_id=.
func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.inventory.ListInventory(r.Context(), inventory.InventoryFilter{
		PartID:     q.Get("part_id"),
		LocationID: q.Get("location_id"),
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": items, "count": len(items)})
}

// handleCreateInventory creates a stock row for a part at a location.
func (s *Server) handleCreateInventory(w http.ResponseWriter, r *http.Request) {
	var in inventory.InventoryInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	item, err := s.inventory.CreateInventory(r.Context(), in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionCreate, "inventory", item.ID, map[string]any{
		"part_id":     item.PartID,
		"location_id": item.LocationID,
		"stock":       item.Stock,
	})
	writeJSON(w, http.StatusCreated, item)
}

// handleGetInventory returns a single inventory row.
func (s *Server) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	item, err := s.inventory.GetInventory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleUpdateInventory sets the stock of a row.
func (s *Server) handleUpdateInventory(w http.ResponseWriter, r *http.Request) {
	var req updateInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if req.Stock == nil {
		s.writeAppError(w, r, errNothingToUpdate)
		return
	}

	item, err := s.inventory.UpdateInventory(r.Context(), chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionUpdate, "inventory", item.ID, map[string]any{"stock": item.Stock})
	writeJSON(w, http.StatusOK, item)
}

// handleAdjustStock records a stock movement for a part at a location.
func (s *Server) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	item, err := s.inventory.AdjustStock(r.Context(), req.PartID, req.LocationID, req.Delta)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionAdjust, "inventory", item.ID, map[string]any{
		"part_id":     item.PartID,
		"location_id": item.LocationID,
		"delta":       req.Delta,
		"stock":       item.Stock,
	})
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteInventory removes a stock row.
func (s *Server) handleDeleteInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.inventory.DeleteInventory(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.auditLog(r, audit.ActionDelete, "inventory", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
