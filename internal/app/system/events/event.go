// Package events carries dispatch state changes to observers.
//
// Event names and payload shapes are a wire contract shared with existing
// dashboard consumers; do not rename fields.
package events

import (
	"time"

	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/google/uuid"
)

// Event names.
const (
	OfficerUpdated       = "officer-updated"
	OfficerAssigned      = "officer-assigned"
	OfficerUnassigned    = "officer-unassigned"
	OfficersBulkAssigned = "officers-bulk-assigned"
)

// Event is an immutable notification. Payload is marshaled as JSON for sinks
// and stream clients.
type Event struct {
	ID         string
	Name       string
	Payload    any
	OccurredAt time.Time
}

// New stamps an event with a fresh id and the current time.
func New(name string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// OfficerAssignedPayload is the body of officer-assigned.
type OfficerAssignedPayload struct {
	Officer  models.Officer  `json:"officer"`
	Incident models.Incident `json:"incident"`
}

// OfficerUnassignedPayload is the body of officer-unassigned. It carries the
// bare incident id, not the incident.
type OfficerUnassignedPayload struct {
	Officer    models.Officer `json:"officer"`
	IncidentID string         `json:"incidentId"`
}

// OfficersBulkAssignedPayload is the body of officers-bulk-assigned.
type OfficersBulkAssignedPayload struct {
	AssignedOfficers []models.AssignedOfficer `json:"assignedOfficers"`
	Incident         models.Incident          `json:"incident"`
}

// officer-updated carries the bare models.Officer.
