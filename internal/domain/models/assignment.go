// internal/domain/models/assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment lifecycle values.
const (
	AssignmentActive    = "active"
	AssignmentCancelled = "cancelled"
)

// Assignment places an officer on one risk zone of an incident.
//
// It is embedded in Officer.CurrentAssignments and never deleted; Unassign
// flips Status to cancelled. ID is shared with the incident-side
// AssignedOfficer entry created alongside it.
type Assignment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	IncidentID string             `bson:"incidentId" json:"incidentId"`
	RiskZone   string             `bson:"riskZone" json:"riskZone"` // caller label, stored verbatim
	AssignedAt time.Time          `bson:"assignedAt" json:"assignedAt"`
	Status     string             `bson:"status" json:"status"` // active | cancelled
}

// NewAssignment returns an active assignment with a fresh identity.
func NewAssignment(incidentID primitive.ObjectID, riskZone string, now time.Time) Assignment {
	return Assignment{
		ID:         primitive.NewObjectID(),
		IncidentID: incidentID.Hex(),
		RiskZone:   riskZone,
		AssignedAt: now,
		Status:     AssignmentActive,
	}
}

// AssignedOfficer is the incident-side summary of an officer assignment.
//
// Entries are removed (not marked) when the officer is unassigned, so an
// incident lists who is currently on scene while the officer keeps history.
type AssignedOfficer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	OfficerID  primitive.ObjectID `bson:"officerId" json:"officerId"`
	Type       string             `bson:"type" json:"type"`
	Name       string             `bson:"name" json:"name"`
	RiskZone   string             `bson:"riskZone" json:"riskZone"`
	AssignedAt time.Time          `bson:"assignedAt" json:"assignedAt"`
}
