package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// OfficerMemStore is an in-memory officer store with the same contract as
// officerstore.Store (ErrNoDocuments on miss, __v checked on Replace) and
// hooks for injecting failures.
type OfficerMemStore struct {
	mu         sync.Mutex
	docs       map[primitive.ObjectID]models.Officer
	getErr     map[primitive.ObjectID]error
	replaceErr map[primitive.ObjectID]error
	conflicts  map[primitive.ObjectID]int
	writes     int
}

// NewOfficerMemStore returns a store seeded with officers.
func NewOfficerMemStore(officers ...models.Officer) *OfficerMemStore {
	s := &OfficerMemStore{
		docs:       map[primitive.ObjectID]models.Officer{},
		getErr:     map[primitive.ObjectID]error{},
		replaceErr: map[primitive.ObjectID]error{},
		conflicts:  map[primitive.ObjectID]int{},
	}
	for _, o := range officers {
		s.docs[o.ID] = o.Clone()
	}
	return s
}

// Put stores o as-is, bypassing version checks.
func (s *OfficerMemStore) Put(o models.Officer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[o.ID] = o.Clone()
}

// Get returns the stored officer for assertions.
func (s *OfficerMemStore) Get(id primitive.ObjectID) (models.Officer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.docs[id]
	return o.Clone(), ok
}

// FailGet makes every GetByID for id return err.
func (s *OfficerMemStore) FailGet(id primitive.ObjectID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr[id] = err
}

// FailReplace makes every Replace for id return err.
func (s *OfficerMemStore) FailReplace(id primitive.ObjectID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceErr[id] = err
}

// ConflictNext makes the next n Replace calls for id report a version
// conflict, after bumping the stored version as a concurrent writer would.
func (s *OfficerMemStore) ConflictNext(id primitive.ObjectID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts[id] = n
}

// Writes returns how many Replace calls succeeded.
func (s *OfficerMemStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *OfficerMemStore) GetByID(ctx context.Context, id primitive.ObjectID) (models.Officer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[id]; err != nil {
		return models.Officer{}, err
	}
	o, ok := s.docs[id]
	if !ok {
		return models.Officer{}, mongo.ErrNoDocuments
	}
	return o.Clone(), nil
}

func (s *OfficerMemStore) Replace(ctx context.Context, o models.Officer) (models.Officer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.replaceErr[o.ID]; err != nil {
		return o, err
	}
	cur, ok := s.docs[o.ID]
	if !ok {
		return o, mongo.ErrNoDocuments
	}
	if n := s.conflicts[o.ID]; n > 0 {
		s.conflicts[o.ID] = n - 1
		cur.Version++
		s.docs[o.ID] = cur
		return o, apperr.ErrVersionConflict
	}
	if cur.Version != o.Version {
		return o, apperr.ErrVersionConflict
	}
	o.Version++
	s.docs[o.ID] = o.Clone()
	s.writes++
	return o.Clone(), nil
}

func (s *OfficerMemStore) ListActiveForIncident(ctx context.Context, incidentID string) ([]models.Officer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Officer
	for _, o := range s.docs {
		if len(o.ActiveAssignmentsFor(incidentID)) > 0 {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (s *OfficerMemStore) IncidentIDsWithActiveAssignments(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, o := range s.docs {
		for _, a := range o.ActiveAssignments() {
			if !seen[a.IncidentID] {
				seen[a.IncidentID] = true
				out = append(out, a.IncidentID)
			}
		}
	}
	return out, nil
}

// IncidentMemStore is the incident counterpart of OfficerMemStore.
type IncidentMemStore struct {
	mu         sync.Mutex
	docs       map[primitive.ObjectID]models.Incident
	getErr     map[primitive.ObjectID]error
	replaceErr map[primitive.ObjectID]error
	writes     int
}

// NewIncidentMemStore returns a store seeded with incidents.
func NewIncidentMemStore(incidents ...models.Incident) *IncidentMemStore {
	s := &IncidentMemStore{
		docs:       map[primitive.ObjectID]models.Incident{},
		getErr:     map[primitive.ObjectID]error{},
		replaceErr: map[primitive.ObjectID]error{},
	}
	for _, in := range incidents {
		s.docs[in.ID] = in.Clone()
	}
	return s
}

// Put stores in as-is, bypassing version checks.
func (s *IncidentMemStore) Put(in models.Incident) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[in.ID] = in.Clone()
}

// Get returns the stored incident for assertions.
func (s *IncidentMemStore) Get(id primitive.ObjectID) (models.Incident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.docs[id]
	return in.Clone(), ok
}

// FailGet makes every GetByID for id return err.
func (s *IncidentMemStore) FailGet(id primitive.ObjectID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr[id] = err
}

// FailReplace makes every Replace for id return err.
func (s *IncidentMemStore) FailReplace(id primitive.ObjectID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceErr[id] = err
}

// Writes returns how many Replace calls succeeded.
func (s *IncidentMemStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *IncidentMemStore) GetByID(ctx context.Context, id primitive.ObjectID) (models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.getErr[id]; err != nil {
		return models.Incident{}, err
	}
	in, ok := s.docs[id]
	if !ok {
		return models.Incident{}, mongo.ErrNoDocuments
	}
	return in.Clone(), nil
}

func (s *IncidentMemStore) Replace(ctx context.Context, in models.Incident) (models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.replaceErr[in.ID]; err != nil {
		return in, err
	}
	cur, ok := s.docs[in.ID]
	if !ok {
		return in, mongo.ErrNoDocuments
	}
	if cur.Version != in.Version {
		return in, apperr.ErrVersionConflict
	}
	in.Version++
	s.docs[in.ID] = in.Clone()
	s.writes++
	return in.Clone(), nil
}

func (s *IncidentMemStore) IDsWithAssignedOfficers(ctx context.Context) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []primitive.ObjectID
	for id, in := range s.docs {
		if len(in.AssignedOfficers) > 0 {
			out = append(out, id)
		}
	}
	return out, nil
}
