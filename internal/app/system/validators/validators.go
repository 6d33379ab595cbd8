// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/guardian/internal/app/store/audit"
	incidentstore "github.com/dalemusser/guardian/internal/app/store/incidents"
	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"github.com/dalemusser/guardian/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
//
// Validation level is "moderate": documents that already violate a schema
// stay readable and only new or already-valid documents are checked.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	e := ensurer{db: db, log: logger}
	var problems []string

	for _, c := range []struct {
		name   string
		schema bson.M
	}{
		{officerstore.Collection, officersSchema()},
		{incidentstore.Collection, incidentsSchema()},
		{audit.Collection, nil},
	} {
		if err := e.ensure(ctx, c.name, c.schema); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type ensurer struct {
	db  *mongo.Database
	log *zap.Logger
}

// ensure makes sure the collection exists and then attaches schema, if any.
func (e ensurer) ensure(ctx context.Context, coll string, schema bson.M) error {
	if _, err := e.ensureCollection(ctx, coll); err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	if err := e.setValidator(ctx, coll, schema); err != nil {
		if isNoSuchCommand(err) || isNotImplemented(err) {
			e.log.Info("validator skipped (unsupported)", zap.String("collection", coll))
			return nil
		}
		return err
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

func (e ensurer) collectionExists(ctx context.Context, name string) (bool, error) {
	names, err := e.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection returns created==true only if it actually created name.
func (e ensurer) ensureCollection(ctx context.Context, name string) (created bool, err error) {
	if exists, listErr := e.collectionExists(ctx, name); listErr == nil && exists {
		e.log.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	// Listing failed or the collection is missing: create and tolerate a race.
	if err := e.db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			e.log.Debug("collection exists", zap.String("collection", name))
			return false, nil
		}
		e.log.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	e.log.Info("created collection", zap.String("collection", name))
	return true, nil
}

func (e ensurer) setValidator(ctx context.Context, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := e.db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	e.log.Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandErr(err error, codes []int32, needles ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	s := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErr(err, []int32{48}, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErr(err, []int32{59}, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErr(err, []int32{115}, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func stringEnum(vals ...string) bson.A {
	out := make(bson.A, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func officersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "type", "phone", "status"},
			"properties": bson.M{
				"name":           nonBlank,
				"type":           nonBlank,
				"phone":          nonBlank,
				"email":          bson.M{"bsonType": bson.A{"string", "null"}},
				"status":         bson.M{"enum": stringEnum(models.OfficerStatuses...)},
				"statusOverride": bson.M{"enum": bson.A{"", models.OfficerUnavailable}},
				"skills":         bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"currentAssignments": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"incidentId", "riskZone", "status"},
						"properties": bson.M{
							"incidentId": nonBlank,
							"riskZone":   bson.M{"bsonType": "string"},
							"assignedAt": bson.M{"bsonType": "date"},
							"status":     bson.M{"enum": stringEnum(models.AssignmentActive, models.AssignmentCancelled)},
						},
					},
				},
				"__v": bson.M{"bsonType": bson.A{"int", "long"}},
			},
		},
	}
}

func incidentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"properties": bson.M{
				"assignedOfficers": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"officerId", "riskZone"},
						"properties": bson.M{
							"officerId":  bson.M{"bsonType": "objectId"},
							"riskZone":   bson.M{"bsonType": "string"},
							"assignedAt": bson.M{"bsonType": "date"},
						},
					},
				},
				"__v": bson.M{"bsonType": bson.A{"int", "long"}},
			},
		},
	}
}
