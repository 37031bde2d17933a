package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circuitstash/core/internal/audit"
	"github.com/circuitstash/core/internal/inventory"
)

// assetPatterns are the file patterns picked up by a catalogue reload.
var assetPatterns = map[inventory.AssetKind][]string{
	inventory.KindImage:     {"*.png", "*.jpg", "*.jpeg"},
	inventory.KindDatasheet: {"*.pdf"},
}

// assetsKey is the response key for a list of kind.
func assetsKey(kind inventory.AssetKind) string {
	return string(kind) + "s"
}

func (s *Server) handleListAssets(kind inventory.AssetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := s.inventory.ListAssets(r.Context(), kind)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{assetsKey(kind): assets, "count": len(assets)})
	}
}

func (s *Server) handleRegisterAsset(kind inventory.AssetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in inventory.AssetInput
		if err := decodeJSON(r, &in); err != nil {
			s.writeAppError(w, r, err)
			return
		}

		asset, err := s.inventory.RegisterAsset(r.Context(), kind, in)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.auditLog(r, audit.ActionCreate, string(kind), asset.ID, map[string]any{"path": asset.Path})
		writeJSON(w, http.StatusCreated, asset)
	}
}

func (s *Server) handleGetAsset(kind inventory.AssetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, err := s.inventory.GetAsset(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, asset)
	}
}

func (s *Server) handleDeleteAsset(kind inventory.AssetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.inventory.DeleteAsset(r.Context(), kind, id); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.auditLog(r, audit.ActionDelete, string(kind), id, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleReloadAssets rescans the storage directory for kind and makes the
// catalogue match it.
func (s *Server) handleReloadAssets(kind inventory.AssetKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir := s.storage.ImagesDir
		if kind == inventory.KindDatasheet {
			dir = s.storage.DatasheetsDir
		}

		s.logger.Warn("reloading asset catalogue",
			"kind", string(kind),
			"dir", dir,
			"requested_by", principal(r).Username,
		)

		paths, err := inventory.ScanDir(dir, assetPatterns[kind]...)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}

		result, err := s.inventory.SyncAssets(r.Context(), kind, paths)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		s.auditLog(r, audit.ActionReload, string(kind), "", map[string]any{
			"added":   result.Added,
			"removed": result.Removed,
			"kept":    result.Kept,
		})
		writeJSON(w, http.StatusOK, result)
	}
}
