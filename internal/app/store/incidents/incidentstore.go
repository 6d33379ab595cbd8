// internal/app/store/incidents/incidentstore.go
package incidentstore

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

// Collection is the MongoDB collection incidents live in.
const Collection = "incidents"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts an incident. Incident intake normally owns this; dispatch
// only uses it to seed data.
func (s *Store) Create(ctx context.Context, in models.Incident) (models.Incident, error) {
	now := time.Now().UTC()
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	if in.AssignedOfficers == nil {
		in.AssignedOfficers = []models.AssignedOfficer{}
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = in.CreatedAt
	in.Version = 0

	if _, err := s.c.InsertOne(ctx, in); err != nil {
		return models.Incident{}, err
	}
	return in, nil
}

// GetByID returns the incident or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Incident, error) {
	var in models.Incident
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&in); err != nil {
		return models.Incident{}, err
	}
	return in, nil
}

// Replace writes in over the stored document if its __v still matches.
// See officerstore.Store.Replace for the error contract.
func (s *Store) Replace(ctx context.Context, in models.Incident) (models.Incident, error) {
	if in.ID.IsZero() {
		return in, mongo.ErrNilDocument
	}

	filter := bson.M{"_id": in.ID, "__v": in.Version}
	if in.Version == 0 {
		filter = bson.M{"_id": in.ID, "$or": bson.A{
			bson.M{"__v": 0},
			bson.M{"__v": bson.M{"$exists": false}},
		}}
	}

	in.Version++
	res, err := s.c.ReplaceOne(ctx, filter, in)
	if err != nil {
		in.Version--
		return in, err
	}
	if res.MatchedCount > 0 {
		return in, nil
	}
	in.Version--

	err = s.c.FindOne(ctx, bson.M{"_id": in.ID}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return in, mongo.ErrNoDocuments
	case err != nil:
		return in, err
	default:
		return in, apperr.ErrVersionConflict
	}
}

// List returns incidents newest first, optionally for one reporter.
func (s *Store) List(ctx context.Context, reporterID string) ([]models.Incident, error) {
	q := bson.M{}
	if reporterID != "" {
		q["reporterId"] = reporterID
	}
	cur, err := s.c.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Incident{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsWithAssignedOfficers returns ids of incidents whose assignedOfficers
// list is non-empty.
func (s *Store) IDsWithAssignedOfficers(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"assignedOfficers.0": bson.M{"$exists": true}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
