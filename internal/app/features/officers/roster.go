// internal/app/features/officers/roster.go
package officers

import (
	"net/http"
	"strings"

	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"github.com/dalemusser/guardian/internal/app/system/apiresp"
	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/htmlsanitize"
	"github.com/dalemusser/guardian/internal/app/system/inputval"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type listResponse struct {
	Success bool             `json:"success"`
	Data    []models.Officer `json:"data"`
}

type createRequest struct {
	Name               string          `json:"name" validate:"required,max=200" label:"Name"`
	Type               string          `json:"type" validate:"required,officertype" label:"Type"`
	OrganizationName   string          `json:"organizationName" validate:"max=200" label:"Organization name"`
	Phone              string          `json:"phone" validate:"required,phone" label:"Phone"`
	Email              string          `json:"email" validate:"omitempty,mailaddr" label:"Email"`
	Location           models.Location `json:"location"`
	Skills             []string        `json:"skills" validate:"max=50,dive,max=100" label:"Skills"`
	VehicleType        string          `json:"vehicleType" validate:"max=100" label:"Vehicle type"`
	EquipmentAvailable []string        `json:"equipmentAvailable" validate:"max=50,dive,max=100" label:"Equipment"`
}

// ServeList handles GET /api/officers?type=&status=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f := officerstore.Filter{Type: query.Get(r, "type")}
	if s := query.Get(r, "status"); s != "" {
		f.Statuses = []string{s}
	}
	h.serveFiltered(w, r, f, "Server error fetching officers")
}

// ServeAvailable handles GET /api/officers/available/list?type=.
// Assigned officers are included since they can take more zones;
// unavailable officers are not.
func (h *Handler) ServeAvailable(w http.ResponseWriter, r *http.Request) {
	h.serveFiltered(w, r, officerstore.Filter{
		Type:        query.Get(r, "type"),
		Statuses:    []string{models.OfficerAvailable, models.OfficerAssigned},
		StatusFirst: true,
	}, "Server error fetching available officers")
}

// ServeByType handles GET /api/officers/type/{type}?status=.
func (h *Handler) ServeByType(w http.ResponseWriter, r *http.Request) {
	f := officerstore.Filter{Type: chi.URLParam(r, "type")}
	if s := query.Get(r, "status"); s != "" {
		f.Statuses = []string{s}
	}
	h.serveFiltered(w, r, f, "Server error fetching officers by type")
}

func (h *Handler) serveFiltered(w http.ResponseWriter, r *http.Request, f officerstore.Filter, serverMsg string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list officers")
	defer cancel()

	list, err := h.Roster.List(ctx, f)
	if err != nil {
		h.Log.Error(serverMsg, zap.Error(err))
		apiresp.JSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": serverMsg,
		})
		return
	}
	if list == nil {
		list = []models.Officer{}
	}
	apiresp.JSON(w, http.StatusOK, listResponse{Success: true, Data: list})
}

// HandleCreate handles POST /api/officers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, r, h.Log, err, "")
		return
	}

	req.Name = htmlsanitize.PlainText(req.Name)
	req.OrganizationName = htmlsanitize.PlainText(req.OrganizationName)
	req.Location.Address = htmlsanitize.PlainText(req.Location.Address)
	req.VehicleType = htmlsanitize.PlainText(req.VehicleType)
	req.Skills = htmlsanitize.PlainTextAll(req.Skills)
	req.EquipmentAvailable = htmlsanitize.PlainTextAll(req.EquipmentAvailable)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" || req.Type == "" || req.Phone == "" {
		apiresp.Error(w, r, h.Log, apperr.Invalid(missingField(req), "name, type, and phone are required"), "")
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		apiresp.Error(w, r, h.Log, apperr.Invalid(res.FirstField(), res.First()), "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create officer")
	defer cancel()

	o, err := h.Roster.Create(ctx, models.Officer{
		Name:               req.Name,
		Type:               req.Type,
		OrganizationName:   req.OrganizationName,
		Phone:              req.Phone,
		Email:              req.Email,
		Location:           req.Location,
		Skills:             req.Skills,
		VehicleType:        req.VehicleType,
		EquipmentAvailable: req.EquipmentAvailable,
		Status:             models.OfficerAvailable,
	})
	if err != nil {
		apiresp.Error(w, r, h.Log, apperr.Store("create officer", "", err), "Server error creating officer")
		return
	}

	h.Audit.OfficerCreated(ctx, o.ID, o.Name, o.Type)
	apiresp.JSON(w, http.StatusCreated, officerResponse{
		Message: "Officer created successfully",
		Officer: o,
	})
}

func missingField(req createRequest) string {
	switch {
	case req.Name == "":
		return "name"
	case req.Type == "":
		return "type"
	default:
		return "phone"
	}
}

// ServeStats handles GET /api/officers/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "roster stats")
	defer cancel()

	apiresp.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    h.Stats(ctx),
	})
}
