// internal/domain/models/officer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Officer availability values.
const (
	OfficerAvailable   = "available"
	OfficerAssigned    = "assigned"
	OfficerUnavailable = "unavailable"
)

// OfficerStatuses lists every status the status-update path accepts.
var OfficerStatuses = []string{OfficerAvailable, OfficerAssigned, OfficerUnavailable}

// IsOfficerStatus reports whether s is a known officer status.
func IsOfficerStatus(s string) bool {
	for _, v := range OfficerStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Location is a free-form address with optional coordinates.
type Location struct {
	Address string   `bson:"address" json:"address"`
	Lat     *float64 `bson:"lat" json:"lat"`
	Lng     *float64 `bson:"lng" json:"lng"`
}

// Officer is a field responder (police, medical, rescue, ngo, ...).
//
// It models a document in the `officers` collection. Field names follow the
// collection's existing camelCase layout because dashboards read the same
// documents through the event stream.
//
// NOTE:
//   - CurrentAssignments is append-only. Unassign marks entries cancelled.
//   - Status is derived from the active assignments (see DeriveStatus) except
//     when StatusOverride pins it to unavailable.
type Officer struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name               string             `bson:"name" json:"name"`
	Type               string             `bson:"type" json:"type"`
	OrganizationName   string             `bson:"organizationName,omitempty" json:"organizationName,omitempty"`
	Phone              string             `bson:"phone" json:"phone"`
	Email              string             `bson:"email,omitempty" json:"email,omitempty"`
	Location           Location           `bson:"location" json:"location"`
	Skills             []string           `bson:"skills" json:"skills"`
	VehicleType        string             `bson:"vehicleType,omitempty" json:"vehicleType,omitempty"`
	EquipmentAvailable []string           `bson:"equipmentAvailable" json:"equipmentAvailable"`
	Status             string             `bson:"status" json:"status"`
	StatusOverride     string             `bson:"statusOverride,omitempty" json:"-"`
	CurrentAssignments []Assignment       `bson:"currentAssignments" json:"currentAssignments"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	Version   int64     `bson:"__v" json:"__v"`
}

// HasActiveAssignment reports whether any assignment is still active.
func (o *Officer) HasActiveAssignment() bool {
	for _, a := range o.CurrentAssignments {
		if a.Status == AssignmentActive {
			return true
		}
	}
	return false
}

// ActiveAssignments returns the active subset in list order.
func (o *Officer) ActiveAssignments() []Assignment {
	var out []Assignment
	for _, a := range o.CurrentAssignments {
		if a.Status == AssignmentActive {
			out = append(out, a)
		}
	}
	return out
}

// ActiveAssignmentsFor returns the active assignments that reference incidentID.
func (o *Officer) ActiveAssignmentsFor(incidentID string) []Assignment {
	var out []Assignment
	for _, a := range o.CurrentAssignments {
		if a.Status == AssignmentActive && a.IncidentID == incidentID {
			out = append(out, a)
		}
	}
	return out
}

// AddAssignment appends an active assignment and recomputes Status.
func (o *Officer) AddAssignment(a Assignment, now time.Time) {
	o.CurrentAssignments = append(o.CurrentAssignments, a)
	o.DeriveStatus()
	o.UpdatedAt = now
}

// CancelAssignments marks every active assignment for incidentID as cancelled
// and recomputes Status. It returns the number of entries cancelled.
func (o *Officer) CancelAssignments(incidentID string, now time.Time) int {
	n := 0
	for i := range o.CurrentAssignments {
		a := &o.CurrentAssignments[i]
		if a.IncidentID == incidentID && a.Status == AssignmentActive {
			a.Status = AssignmentCancelled
			n++
		}
	}
	o.DeriveStatus()
	o.UpdatedAt = now
	return n
}

// DeriveStatus recomputes Status from the active assignments.
//
// An officer with at least one active assignment moves from available to
// assigned; unavailable is never downgraded by an assignment. With no active
// assignments the officer becomes available, unless the status-update path
// pinned it to unavailable.
func (o *Officer) DeriveStatus() {
	if o.StatusOverride == OfficerUnavailable {
		o.Status = OfficerUnavailable
		return
	}
	if o.HasActiveAssignment() {
		if o.Status == OfficerAvailable || o.Status == "" {
			o.Status = OfficerAssigned
		}
		return
	}
	o.Status = OfficerAvailable
}

// SetStatus applies an explicit status from the status-update path.
// Setting unavailable pins it; any other value clears the pin.
func (o *Officer) SetStatus(status string, now time.Time) {
	o.Status = status
	if status == OfficerUnavailable {
		o.StatusOverride = OfficerUnavailable
	} else {
		o.StatusOverride = ""
	}
	o.UpdatedAt = now
}

// Summary builds the incident-side view of assignment a for this officer.
func (o *Officer) Summary(a Assignment) AssignedOfficer {
	return AssignedOfficer{
		ID:         a.ID,
		OfficerID:  o.ID,
		Type:       o.Type,
		Name:       o.Name,
		RiskZone:   a.RiskZone,
		AssignedAt: a.AssignedAt,
	}
}

// Clone returns a deep copy so callers can mutate it independently.
func (o Officer) Clone() Officer {
	if o.CurrentAssignments != nil {
		o.CurrentAssignments = append([]Assignment{}, o.CurrentAssignments...)
	}
	if o.Skills != nil {
		o.Skills = append([]string{}, o.Skills...)
	}
	if o.EquipmentAvailable != nil {
		o.EquipmentAvailable = append([]string{}, o.EquipmentAvailable...)
	}
	return o
}
