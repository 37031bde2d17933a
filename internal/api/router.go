package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/circuitstash/core/internal/auth"
	"github.com/circuitstash/core/internal/inventory"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.withRequestID)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)
	r.Use(s.instrument)
	r.Use(limitBody)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check and metrics (no auth required)
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.With(s.requirePermission(auth.PermAccountSelf)).Get("/auth/me", s.handleMe)
			r.With(s.requirePermission(auth.PermAccountSelf)).Post("/auth/password", s.handleChangePassword)

			r.Route("/parts", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermInventoryRead)).Get("/", s.handleListParts)
				r.With(s.requirePermission(auth.PermInventoryWrite)).Post("/", s.handleCreatePart)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermInventoryRead)).Get("/", s.handleGetPart)
					r.With(s.requirePermission(auth.PermInventoryWrite)).Patch("/", s.handleUpdatePart)
					r.With(s.requirePermission(auth.PermInventoryWrite)).Delete("/", s.handleDeletePart)
				})
			})

			r.Route("/locations", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermInventoryRead)).Get("/", s.handleListLocations)
				r.With(s.requirePermission(auth.PermInventoryWrite)).Post("/", s.handleCreateLocation)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermInventoryRead)).Get("/", s.handleGetLocation)
					r.With(s.requirePermission(auth.PermInventoryWrite)).Patch("/", s.handleUpdateLocation)
					r.With(s.requirePermission(auth.PermInventoryWrite)).Delete("/", s.handleDeleteLocation)
				})
			})

			r.Route("/inventory", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermInventoryRead)).Get("/", s.handleListInventory)
				r.With(s.requirePermission(auth.PermInventoryWrite)).Post("/", s.handleCreateInventory)
				r.With(s.requirePermission(auth.PermInventoryWrite)).Post("/adjust", s.handleAdjustStock)

				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermInventoryRead)).Get("/", s.handleGetInventory)
					r.With(s.requirePermission(auth.PermInventoryWrite)).Patch("/", s.handleUpdateInventory)
					r.With(s.requirePermission(auth.PermInventoryWrite)).Delete("/", s.handleDeleteInventory)
				})
			})

			r.Route("/images", s.assetRoutes(inventory.KindImage))
			r.Route("/datasheets", s.assetRoutes(inventory.KindDatasheet))

			// Admin endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Route("/users", func(r chi.Router) {
					r.Use(s.requirePermission(auth.PermAccountManage))
					r.Get("/", s.handleListUsers)
					r.Post("/", s.handleCreateUser)
					r.Get("/{username}", s.handleGetUser)
					r.Patch("/{username}", s.handleUpdateUser)
				})

				r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission(auth.PermAssetReload))
					r.Post("/images/reload", s.handleReloadAssets(inventory.KindImage))
					r.Post("/datasheets/reload", s.handleReloadAssets(inventory.KindDatasheet))
				})
			})
		})
	})

	return r
}

// assetRoutes mounts the catalogue endpoints for one asset kind.
func (s *Server) assetRoutes(kind inventory.AssetKind) func(chi.Router) {
	return func(r chi.Router) {
		r.With(s.requirePermission(auth.PermAssetRead)).Get("/", s.handleListAssets(kind))
		r.With(s.requirePermission(auth.PermAssetWrite)).Post("/", s.handleRegisterAsset(kind))
		r.With(s.requirePermission(auth.PermAssetRead)).Get("/{id}", s.handleGetAsset(kind))
		r.With(s.requirePermission(auth.PermAssetWrite)).Delete("/{id}", s.handleDeleteAsset(kind))
	}
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status":         status,
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}
