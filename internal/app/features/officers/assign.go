// internal/app/features/officers/assign.go
package officers

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/guardian/internal/app/system/apiresp"
	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/app/system/dispatch"
	"github.com/dalemusser/guardian/internal/app/system/timeouts"
	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type assignRequest struct {
	IncidentID string `json:"incidentId"`
	RiskZone   string `json:"riskZone"`
}

type unassignRequest struct {
	IncidentID string `json:"incidentId"`
}

type bulkAssignRequest struct {
	IncidentID string   `json:"incidentId"`
	OfficerIDs []string `json:"officerIds"`
	RiskZone   string   `json:"riskZone"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type officerResponse struct {
	Message string         `json:"message"`
	Officer models.Officer `json:"officer"`
}

type assignResponse struct {
	Message  string               `json:"message"`
	Officer  models.Officer       `json:"officer"`
	Incident models.Incident      `json:"incident"`
	Error    *apiresp.ErrorDetail `json:"error,omitempty"`
}

type bulkAssignResponse struct {
	Message          string                   `json:"message"`
	AssignedOfficers []models.AssignedOfficer `json:"assignedOfficers"`
	Incident         models.Incident          `json:"incident"`
	Error            *apiresp.ErrorDetail     `json:"error,omitempty"`
	Items            []dispatch.BulkItem      `json:"items,omitempty"`
}

// HandleAssign handles POST /api/officers/{id}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "assign officer")
	defer cancel()

	res, err := h.Dispatch.Assign(ctx, chi.URLParam(r, "id"), req.IncidentID, req.RiskZone)
	switch {
	case err == nil:
		apiresp.JSON(w, http.StatusOK, assignResponse{
			Message:  "Officer assigned to incident",
			Officer:  res.Officer,
			Incident: res.Incident,
		})
	case apperr.KindOf(err) == apperr.KindPartialFailure:
		// The officer write is committed; the caller gets it back with the
		// incident that still needs the summary.
		body := apiresp.Body(err, "")
		h.Log.Warn("assign partially applied",
			zap.String("officer_id", res.Officer.ID.Hex()),
			zap.String("incident_id", req.IncidentID),
			zap.Error(err))
		apiresp.JSON(w, http.StatusMultiStatus, assignResponse{
			Message:  body.Message,
			Officer:  res.Officer,
			Incident: res.Incident,
			Error:    &body.Error,
		})
	default:
		apiresp.Error(w, r, h.Log, err, "Server error assigning officer")
	}
}

// HandleUnassign handles POST /api/officers/{id}/unassign.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	var req unassignRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "unassign officer")
	defer cancel()

	res, err := h.Dispatch.Unassign(ctx, chi.URLParam(r, "id"), req.IncidentID)
	if err != nil {
		apiresp.Error(w, r, h.Log, err, "Server error unassigning officer")
		return
	}
	apiresp.JSON(w, http.StatusOK, officerResponse{
		Message: "Officer unassigned from incident",
		Officer: res.Officer,
	})
}

// HandleBulkAssign handles POST /api/officers/bulk/assign-to-incident.
//
// A partial failure answers 207 with whatever was committed plus the error
// and per-officer outcomes, so the caller can retry only the failed ids.
func (h *Handler) HandleBulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk assign officers")
	defer cancel()

	res, err := h.Dispatch.BulkAssign(ctx, req.IncidentID, req.OfficerIDs, req.RiskZone)
	resp := bulkAssignResponse{
		Message:          fmt.Sprintf("%d officers assigned to incident", len(res.AssignedOfficers)),
		AssignedOfficers: res.AssignedOfficers,
		Incident:         res.Incident,
	}
	switch {
	case err == nil:
		apiresp.JSON(w, http.StatusOK, resp)
	case apperr.KindOf(err) == apperr.KindPartialFailure:
		body := apiresp.Body(err, "")
		resp.Error = &body.Error
		resp.Items = res.Items
		h.Log.Warn("bulk assign partially applied",
			zap.String("incident_id", req.IncidentID),
			zap.Error(err))
		apiresp.JSON(w, http.StatusMultiStatus, resp)
	default:
		apiresp.Error(w, r, h.Log, err, "Server error bulk assigning officers")
	}
}

// HandleStatus handles PUT /api/officers/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := apiresp.Decode(r, &req); err != nil {
		apiresp.Error(w, r, h.Log, err, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update officer status")
	defer cancel()

	o, err := h.Dispatch.SetStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		apiresp.Error(w, r, h.Log, err, "Server error updating officer status")
		return
	}
	apiresp.JSON(w, http.StatusOK, officerResponse{
		Message: "Officer status updated",
		Officer: o,
	})
}
