// internal/app/features/eventstream/routes.go
package eventstream

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted under /api/events.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
