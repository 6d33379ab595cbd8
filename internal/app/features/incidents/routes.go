// internal/app/features/incidents/routes.go
package incidents

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted under /api/incidents.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	return r
}
