// internal/app/features/incidents/handler.go
package incidents

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/guardian/internal/app/system/apiresp"
	"github.com/dalemusser/guardian/internal/app/system/htmlsanitize"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the incident persistence the handler needs.
type Store interface {
	List(ctx context.Context, reporterID string) ([]models.Incident, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Incident, error)
	Create(ctx context.Context, in models.Incident) (models.Incident, error)
}

// Handler serves /api/incidents. Assignment fields are read-only here;
// they change only through the officer dispatch endpoints.
type Handler struct {
	Store Store
	Log   *zap.Logger
}

func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		h.Log.Error(msg, zap.Error(err))
	}
	apiresp.JSON(w, status, envelope{Success: false, Message: msg})
}

// ServeList handles GET /api/incidents?reporterId=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list incidents")
	defer cancel()

	list, err := h.Store.List(ctx, query.Get(r, "reporterId"))
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to fetch incidents", err)
		return
	}
	if list == nil {
		list = []models.Incident{}
	}
	apiresp.JSON(w, http.StatusOK, envelope{Success: true, Data: list})
}

// ServeGet handles GET /api/incidents/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, http.StatusNotFound, "Incident not found", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	in, err := h.Store.GetByID(ctx, id)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.fail(w, http.StatusNotFound, "Incident not found", nil)
	case err != nil:
		h.fail(w, http.StatusInternalServerError, "Failed to fetch incident", err)
	default:
		apiresp.JSON(w, http.StatusOK, envelope{Success: true, Data: in})
	}
}

type createRequest struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Location    models.Location `json:"location"`
	Severity    string          `json:"severity"`
	Status      string          `json:"status"`
	ReporterID  string          `json:"reporterId"`
}

// HandleCreate handles POST /api/incidents. Any assignedOfficers in the body
// are ignored; a new incident starts unstaffed.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := apiresp.Decode(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, "Request body must be valid JSON", nil)
		return
	}
	in := models.Incident{
		Type:        htmlsanitize.PlainText(req.Type),
		Description: htmlsanitize.PlainText(req.Description),
		Location:    req.Location,
		Severity:    strings.ToLower(strings.TrimSpace(req.Severity)),
		Status:      strings.ToLower(strings.TrimSpace(req.Status)),
		ReporterID:  strings.TrimSpace(req.ReporterID),
	}
	in.Location.Address = htmlsanitize.PlainText(in.Location.Address)
	if in.Status == "" {
		in.Status = "open"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	created, err := h.Store.Create(ctx, in)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Failed to create incident", err)
		return
	}
	apiresp.JSON(w, http.StatusCreated, envelope{Success: true, Data: created})
}
