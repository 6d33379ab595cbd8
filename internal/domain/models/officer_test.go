package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Now().UTC()
	inc := primitive.NewObjectID()

	tests := []struct {
		name     string
		start    string
		pinned   bool
		assign   bool
		unassign bool
		want     string
	}{
		{"available becomes assigned", OfficerAvailable, false, true, false, OfficerAssigned},
		{"assigned stays assigned", OfficerAssigned, false, true, false, OfficerAssigned},
		{"legacy unavailable is not downgraded", OfficerUnavailable, false, true, false, OfficerUnavailable},
		{"pinned unavailable survives assign", OfficerUnavailable, true, true, false, OfficerUnavailable},
		{"last unassign frees officer", OfficerAvailable, false, true, true, OfficerAvailable},
		{"pinned unavailable survives unassign", OfficerUnavailable, true, true, true, OfficerUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Officer{Status: tt.start}
			if tt.pinned {
				o.StatusOverride = OfficerUnavailable
			}
			if tt.assign {
				o.AddAssignment(NewAssignment(inc, "north", now), now)
			}
			if tt.unassign {
				o.CancelAssignments(inc.Hex(), now)
			}
			if o.Status != tt.want {
				t.Errorf("Status = %q, want %q", o.Status, tt.want)
			}
		})
	}
}

func TestCancelAssignments_OnlyTargetIncident(t *testing.T) {
	now := time.Now().UTC()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	o := Officer{Status: OfficerAvailable}
	o.AddAssignment(NewAssignment(a, "north", now), now)
	o.AddAssignment(NewAssignment(a, "south", now), now)
	o.AddAssignment(NewAssignment(b, "east", now), now)

	if n := o.CancelAssignments(a.Hex(), now); n != 2 {
		t.Errorf("cancelled %d, want 2", n)
	}
	if len(o.CurrentAssignments) != 3 {
		t.Errorf("history length = %d, want 3", len(o.CurrentAssignments))
	}
	if got := o.ActiveAssignments(); len(got) != 1 || got[0].IncidentID != b.Hex() {
		t.Errorf("active = %+v, want only incident b", got)
	}
	if o.Status != OfficerAssigned {
		t.Errorf("Status = %q, want assigned", o.Status)
	}
	if n := o.CancelAssignments(a.Hex(), now); n != 0 {
		t.Errorf("second cancel = %d, want 0", n)
	}
}

func TestSetStatus_PinsOnlyUnavailable(t *testing.T) {
	now := time.Now().UTC()
	o := Officer{Status: OfficerAvailable}

	o.SetStatus(OfficerUnavailable, now)
	if o.StatusOverride != OfficerUnavailable {
		t.Error("expected unavailable to pin")
	}
	o.SetStatus(OfficerAvailable, now)
	if o.StatusOverride != "" {
		t.Error("expected available to clear the pin")
	}
}

func TestIncidentRemoveOfficer(t *testing.T) {
	now := time.Now().UTC()
	keep, drop := primitive.NewObjectID(), primitive.NewObjectID()
	in := Incident{}
	in.AddOfficers(now,
		AssignedOfficer{OfficerID: drop, RiskZone: "north"},
		AssignedOfficer{OfficerID: keep, RiskZone: "north"},
		AssignedOfficer{OfficerID: drop, RiskZone: "south"},
	)

	if n := in.RemoveOfficer(drop, now); n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	if len(in.AssignedOfficers) != 1 || in.AssignedOfficers[0].OfficerID != keep {
		t.Errorf("remaining = %+v", in.AssignedOfficers)
	}
}

func TestClone_IsDeep(t *testing.T) {
	now := time.Now().UTC()
	o := Officer{Skills: []string{"cpr"}}
	o.AddAssignment(NewAssignment(primitive.NewObjectID(), "north", now), now)

	c := o.Clone()
	c.Skills[0] = "boat"
	c.CurrentAssignments[0].Status = AssignmentCancelled

	if o.Skills[0] != "cpr" || o.CurrentAssignments[0].Status != AssignmentActive {
		t.Error("Clone shares backing arrays with the original")
	}
}
