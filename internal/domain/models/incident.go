// internal/domain/models/incident.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Incident is a reported disaster event. Only AssignedOfficers is written by
// the dispatch coordinator; the remaining fields belong to incident intake.
type Incident struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Type             string             `bson:"type,omitempty" json:"type,omitempty"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	Location         Location           `bson:"location" json:"location"`
	Severity         string             `bson:"severity,omitempty" json:"severity,omitempty"`
	Status           string             `bson:"status,omitempty" json:"status,omitempty"`
	ReporterID       string             `bson:"reporterId,omitempty" json:"reporterId,omitempty"`
	AssignedOfficers []AssignedOfficer  `bson:"assignedOfficers" json:"assignedOfficers"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	Version   int64     `bson:"__v" json:"__v"`
}

// AddOfficers appends summaries, initializing the list if absent.
func (in *Incident) AddOfficers(now time.Time, entries ...AssignedOfficer) {
	if in.AssignedOfficers == nil {
		in.AssignedOfficers = []AssignedOfficer{}
	}
	in.AssignedOfficers = append(in.AssignedOfficers, entries...)
	in.UpdatedAt = now
}

// RemoveOfficer drops every summary for officerID and returns how many were
// removed.
func (in *Incident) RemoveOfficer(officerID primitive.ObjectID, now time.Time) int {
	if len(in.AssignedOfficers) == 0 {
		return 0
	}
	kept := make([]AssignedOfficer, 0, len(in.AssignedOfficers))
	removed := 0
	for _, e := range in.AssignedOfficers {
		if e.OfficerID == officerID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	in.AssignedOfficers = kept
	if removed > 0 {
		in.UpdatedAt = now
	}
	return removed
}

// Clone returns a deep copy so callers can mutate it independently.
func (in Incident) Clone() Incident {
	if in.AssignedOfficers != nil {
		in.AssignedOfficers = append([]AssignedOfficer{}, in.AssignedOfficers...)
	}
	return in
}
