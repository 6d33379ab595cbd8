// internal/app/features/officers/routes.go
package officers

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted under /api/officers. Fixed paths are
// registered before /{id} patterns.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/available/list", h.ServeAvailable)
	r.Get("/type/{type}", h.ServeByType)
	if h.Stats != nil {
		r.Get("/stats", h.ServeStats)
	}

	r.Post("/bulk/assign-to-incident", h.HandleBulkAssign)

	r.Put("/{id}/status", h.HandleStatus)
	r.Post("/{id}/assign", h.HandleAssign)
	r.Post("/{id}/unassign", h.HandleUnassign)

	return r
}
