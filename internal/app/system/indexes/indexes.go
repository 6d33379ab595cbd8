// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/guardian/internal/app/store/audit"
	incidentstore "github.com/dalemusser/guardian/internal/app/store/incidents"
	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	r := reconciler{log: logger}
	var problems []string

	if err := r.ensureOfficers(ctx, db); err != nil {
		problems = append(problems, officerstore.Collection+": "+err.Error())
	}
	if err := r.ensureIncidents(ctx, db); err != nil {
		problems = append(problems, incidentstore.Collection+": "+err.Error())
	}
	if err := r.ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, audit.Collection+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type reconciler struct {
	log *zap.Logger
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(p *bool) bool { return p != nil && *p }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB returns IndexOptionsConflict when an index with the same keys
// already exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// listBySig returns the collection's indexes keyed by key signature.
func (r reconciler) listBySig(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			r.log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// recreate drops ex and creates m in its place.
func (r reconciler) recreate(ctx context.Context, coll *mongo.Collection, ex existingIndex, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		return fmt.Errorf("drop %s: %w", ex.Name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if isDuplicateKeyErr(err) && boolVal(m.Options.Unique) {
			return errors.New("cannot create unique index (duplicates present)")
		}
		return err
	}
	return nil
}

func (r reconciler) ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		if m.Options == nil {
			m.Options = options.Index()
		}
		name := ""
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		sig := keySig(m.Keys.(bson.D))
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(m.Options.Unique)),
		}
		start := time.Now()

		ex, found := r.listBySig(ctx, coll)[sig]
		switch {
		case found && boolVal(ex.Unique) == boolVal(m.Options.Unique) && (name == "" || ex.Name == name):
			r.log.Debug("reusing existing index", fields...)
			continue

		case found:
			// Same keys but a different name or uniqueness: drop and recreate.
			if err := r.recreate(ctx, coll, ex, m); err != nil {
				r.log.Warn("index recreate failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
				continue
			}
			r.log.Info("index recreated", append(fields,
				zap.String("previous_name", ex.Name),
				zap.String("took", time.Since(start).String()))...)
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				if ex, ok := r.listBySig(ctx, coll)[sig]; ok {
					if rerr := r.recreate(ctx, coll, ex, m); rerr == nil {
						r.log.Info("index recreated (post-conflict)", fields...)
						continue
					} else {
						err = rerr
					}
				}
			}
			r.log.Warn("index ensure failed", append(fields, zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		r.log.Info("index ensured", append(fields, zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func (r reconciler) ensureOfficers(ctx context.Context, db *mongo.Database) error {
	return r.ensureIndexSet(ctx, db.Collection(officerstore.Collection), []mongo.IndexModel{
		{
			// roster lists: /officers?type=&status=, /type/{type}, /available/list
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_officers_type_status_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_officers_status_created"),
		},
		{
			// reconcile: officers holding an active assignment for an incident
			Keys: bson.D{
				{Key: "currentAssignments.incidentId", Value: 1},
				{Key: "currentAssignments.status", Value: 1},
			},
			Options: options.Index().SetName("idx_officers_assignment_incident_status"),
		},
	})
}

func (r reconciler) ensureIncidents(ctx context.Context, db *mongo.Database) error {
	return r.ensureIndexSet(ctx, db.Collection(incidentstore.Collection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "reporterId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_incidents_reporter_created"),
		},
		{
			Keys:    bson.D{{Key: "assignedOfficers.officerId", Value: 1}},
			Options: options.Index().SetName("idx_incidents_assigned_officer"),
		},
	})
}

func (r reconciler) ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return r.ensureIndexSet(ctx, db.Collection(audit.Collection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "officer_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_officer_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "incident_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_incident_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
	})
}
