package metricsstore

import (
	"context"

	incidentstore "github.com/dalemusser/guardian/internal/app/store/incidents"
	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"github.com/dalemusser/guardian/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RosterCounts is the snapshot behind GET /api/officers/stats.
type RosterCounts struct {
	Officers              int64            `json:"officers"`
	OfficersByStatus      map[string]int64 `json:"officersByStatus"`
	OfficersByType        map[string]int64 `json:"officersByType"`
	Incidents             int64            `json:"incidents"`
	IncidentsWithOfficers int64            `json:"incidentsWithOfficers"`
}

// FetchRosterCounts returns roster and incident totals.
// Intentionally tolerant: a failed query leaves its counter at zero.
func FetchRosterCounts(ctx context.Context, db *mongo.Database) RosterCounts {
	out := RosterCounts{
		OfficersByStatus: map[string]int64{},
		OfficersByType:   map[string]int64{},
	}
	for _, s := range models.OfficerStatuses {
		out.OfficersByStatus[s] = 0
	}

	officers := db.Collection(officerstore.Collection)
	for field, dst := range map[string]map[string]int64{
		"status": out.OfficersByStatus,
		"type":   out.OfficersByType,
	} {
		for k, n := range groupCount(ctx, officers, field) {
			dst[k] = n
		}
	}
	for _, n := range out.OfficersByStatus {
		out.Officers += n
	}

	incidents := db.Collection(incidentstore.Collection)
	if n, err := incidents.CountDocuments(ctx, bson.M{}); err == nil {
		out.Incidents = n
	}
	if n, err := incidents.CountDocuments(ctx, bson.M{"assignedOfficers.0": bson.M{"$exists": true}}); err == nil {
		out.IncidentsWithOfficers = n
	}
	return out
}

// groupCount counts documents per distinct value of field. Missing or
// non-string values are skipped.
func groupCount(ctx context.Context, c *mongo.Collection, field string) map[string]int64 {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			ID any   `bson:"_id"`
			N  int64 `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			continue
		}
		if k, ok := row.ID.(string); ok && k != "" {
			out[k] = row.N
		}
	}
	return out
}
