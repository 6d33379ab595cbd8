// internal/app/store/officers/officerstore.go
package officerstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the MongoDB collection officers live in.
const Collection = "officers"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Type     string
	Statuses []string
	// StatusFirst sorts by status descending before newest-first, which puts
	// unavailable, then available, then assigned officers at the top.
	StatusFirst bool
}

// Create inserts a new officer. A zero ID is generated, Status defaults to
// available, and nil lists are stored as empty arrays.
func (s *Store) Create(ctx context.Context, o models.Officer) (models.Officer, error) {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.Status == "" {
		o.Status = models.OfficerAvailable
	}
	if o.Skills == nil {
		o.Skills = []string{}
	}
	if o.EquipmentAvailable == nil {
		o.EquipmentAvailable = []string{}
	}
	if o.CurrentAssignments == nil {
		o.CurrentAssignments = []models.Assignment{}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = o.CreatedAt
	o.Version = 0

	if _, err := s.c.InsertOne(ctx, o); err != nil {
		return models.Officer{}, err
	}
	return o, nil
}

// GetByID returns the officer or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Officer, error) {
	var o models.Officer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return models.Officer{}, err
	}
	return o, nil
}

// Replace writes o over the stored document if nobody else wrote it since o
// was read (matched on __v). On success the returned officer carries the new
// version. A stale version yields apperr.ErrVersionConflict; a vanished
// document yields mongo.ErrNoDocuments.
func (s *Store) Replace(ctx context.Context, o models.Officer) (models.Officer, error) {
	if o.ID.IsZero() {
		return o, mongo.ErrNilDocument
	}

	filter := versionFilter(o.ID, o.Version)
	o.Version++
	res, err := s.c.ReplaceOne(ctx, filter, o)
	if err != nil {
		o.Version--
		return o, err
	}
	if res.MatchedCount == 0 {
		o.Version--
		return o, s.missOrConflict(ctx, o.ID)
	}
	return o, nil
}

func (s *Store) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return mongo.ErrNoDocuments
	}
	if err != nil {
		return err
	}
	return apperr.ErrVersionConflict
}

// versionFilter matches id at version v. Documents written before versioning
// have no __v and count as version 0.
func versionFilter(id primitive.ObjectID, v int64) bson.M {
	if v == 0 {
		return bson.M{"_id": id, "$or": bson.A{
			bson.M{"__v": 0},
			bson.M{"__v": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"_id": id, "__v": v}
}

// List returns officers matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Officer, error) {
	q := bson.M{}
	if f.Type != "" {
		q["type"] = f.Type
	}
	switch len(f.Statuses) {
	case 0:
	case 1:
		q["status"] = f.Statuses[0]
	default:
		q["status"] = bson.M{"$in": f.Statuses}
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	if f.StatusFirst {
		sort = bson.D{{Key: "status", Value: -1}, {Key: "createdAt", Value: -1}}
	}

	cur, err := s.c.Find(ctx, q, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Officer{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveForIncident returns officers holding at least one active
// assignment to incidentID.
func (s *Store) ListActiveForIncident(ctx context.Context, incidentID string) ([]models.Officer, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"currentAssignments": bson.M{"$elemMatch": bson.M{
			"incidentId": incidentID,
			"status":     models.AssignmentActive,
		}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Officer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IncidentIDsWithActiveAssignments returns the distinct incident ids referenced
// by officers that have an active assignment. The result may include ids whose
// only references are cancelled entries on those same officers.
func (s *Store) IncidentIDsWithActiveAssignments(ctx context.Context) ([]string, error) {
	vals, err := s.c.Distinct(ctx, "currentAssignments.incidentId", bson.M{
		"currentAssignments.status": models.AssignmentActive,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(string); ok && id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
