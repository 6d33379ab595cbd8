package officers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/guardian/internal/app/features/officers"
	metricsstore "github.com/dalemusser/guardian/internal/app/store/metrics"
	officerstore "github.com/dalemusser/guardian/internal/app/store/officers"
	"github.com/dalemusser/guardian/internal/app/system/dispatch"
	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/dalemusser/guardian/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeRoster records List filters and Create calls.
type fakeRoster struct {
	list      []models.Officer
	listErr   error
	lastQuery officerstore.Filter
	created   []models.Officer
}

func (f *fakeRoster) List(_ context.Context, q officerstore.Filter) ([]models.Officer, error) {
	f.lastQuery = q
	return f.list, f.listErr
}

func (f *fakeRoster) Create(_ context.Context, o models.Officer) (models.Officer, error) {
	o.ID = primitive.NewObjectID()
	f.created = append(f.created, o)
	return o, nil
}

type fixture struct {
	officers  *testutil.OfficerMemStore
	incidents *testutil.IncidentMemStore
	roster    *fakeRoster
	router    http.Handler
}

func newFixture(t *testing.T, os []models.Officer, ins []models.Incident) *fixture {
	t.Helper()
	f := &fixture{
		officers:  testutil.NewOfficerMemStore(os...),
		incidents: testutil.NewIncidentMemStore(ins...),
		roster:    &fakeRoster{},
	}
	coord := dispatch.New(f.officers, f.incidents, nil, zap.NewNop())
	stats := func(context.Context) metricsstore.RosterCounts {
		return metricsstore.RosterCounts{Officers: 7}
	}
	h := officers.NewHandler(coord, f.roster, stats, nil, zap.NewNop())
	f.router = officers.Routes(h)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	s, _ := e["code"].(string)
	return s
}

func TestAssign_OK(t *testing.T) {
	o := testutil.NewOfficer("Ana", "medical")
	in := testutil.NewIncident("flood")
	f := newFixture(t, []models.Officer{o}, []models.Incident{in})

	rec, body := f.do(t, http.MethodPost, "/"+o.ID.Hex()+"/assign", map[string]string{
		"incidentId": in.ID.Hex(),
		"riskZone":   "north",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	if body["message"] != "Officer assigned to incident" {
		t.Errorf("message = %v", body["message"])
	}
	officer := body["officer"].(map[string]any)
	if officer["status"] != models.OfficerAssigned {
		t.Errorf("officer status = %v", officer["status"])
	}
	incident := body["incident"].(map[string]any)
	if list := incident["assignedOfficers"].([]any); len(list) != 1 {
		t.Errorf("assignedOfficers = %v", list)
	}
}

func TestAssign_Errors(t *testing.T) {
	o := testutil.NewOfficer("Ana", "medical")
	in := testutil.NewIncident("flood")

	tests := []struct {
		name    string
		officer string
		body    map[string]string
		status  int
		code    string
		message string
	}{
		{"missing incident", o.ID.Hex(), map[string]string{"riskZone": "north"}, 400, "invalid_argument", "IncidentId is required"},
		{"missing zone", o.ID.Hex(), map[string]string{"incidentId": in.ID.Hex()}, 400, "invalid_argument", "RiskZone is required"},
		{"bad officer id", "nope", map[string]string{"incidentId": in.ID.Hex(), "riskZone": "n"}, 400, "invalid_argument", ""},
		{"unknown officer", primitive.NewObjectID().Hex(), map[string]string{"incidentId": in.ID.Hex(), "riskZone": "n"}, 404, "not_found", "Officer not found"},
		{"unknown incident", o.ID.Hex(), map[string]string{"incidentId": primitive.NewObjectID().Hex(), "riskZone": "n"}, 404, "not_found", "Incident not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []models.Officer{o}, []models.Incident{in})
			rec, body := f.do(t, http.MethodPost, "/"+tt.officer+"/assign", tt.body)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := errorCode(body); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
			if tt.message != "" && body["message"] != tt.message {
				t.Errorf("message = %v, want %q", body["message"], tt.message)
			}
		})
	}
}

func TestAssign_StoreFailureHidesDetail(t *testing.T) {
	o := testutil.NewOfficer("Ana", "medical")
	in := testutil.NewIncident("flood")
	f := newFixture(t, []models.Officer{o}, []models.Incident{in})
	f.officers.FailReplace(o.ID, errors.New("connection reset by peer"))

	rec, body := f.do(t, http.MethodPost, "/"+o.ID.Hex()+"/assign", map[string]string{
		"incidentId": in.ID.Hex(), "riskZone": "north",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if body["message"] != "Server error assigning officer" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestAssign_IncidentWriteFailsReturnsCommittedOfficer(t *testing.T) {
	o := testutil.NewOfficer("Ana", "medical")
	in := testutil.NewIncident("flood")
	f := newFixture(t, []models.Officer{o}, []models.Incident{in})
	f.incidents.FailReplace(in.ID, errors.New("not primary"))

	rec, body := f.do(t, http.MethodPost, "/"+o.ID.Hex()+"/assign", map[string]string{
		"incidentId": in.ID.Hex(), "riskZone": "north",
	})

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body %v", rec.Code, body)
	}
	if body["message"] != "Officer assigned but incident not updated" {
		t.Errorf("message = %v", body["message"])
	}
	e, _ := body["error"].(map[string]any)
	if e["code"] != "partial_failure" || e["field"] != "incident" || e["id"] != in.ID.Hex() {
		t.Errorf("error = %v, want partial_failure on incident %s", e, in.ID.Hex())
	}
	officer, _ := body["officer"].(map[string]any)
	if officer["_id"] != o.ID.Hex() || officer["status"] != models.OfficerAssigned {
		t.Errorf("officer = %v, want the committed assigned officer", officer)
	}
	incident, _ := body["incident"].(map[string]any)
	if incident["_id"] != in.ID.Hex() {
		t.Errorf("incident = %v, want %s", incident, in.ID.Hex())
	}
}

func TestUnassign_OK(t *testing.T) {
	o := testutil.NewOfficer("Ben", "rescue")
	in := testutil.NewIncident("fire")
	f := newFixture(t, []models.Officer{o}, []models.Incident{in})

	if rec, body := f.do(t, http.MethodPost, "/"+o.ID.Hex()+"/assign", map[string]string{
		"incidentId": in.ID.Hex(), "riskZone": "east",
	}); rec.Code != http.StatusOK {
		t.Fatalf("assign status = %d, %v", rec.Code, body)
	}

	rec, body := f.do(t, http.MethodPost, "/"+o.ID.Hex()+"/unassign", map[string]string{
		"incidentId": in.ID.Hex(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	if body["message"] != "Officer unassigned from incident" {
		t.Errorf("message = %v", body["message"])
	}
	if body["officer"].(map[string]any)["status"] != models.OfficerAvailable {
		t.Errorf("officer not freed: %v", body["officer"])
	}
}

func TestBulkAssign_OKAndPartial(t *testing.T) {
	a := testutil.NewOfficer("A", "police")
	b := testutil.NewOfficer("B", "police")
	in := testutil.NewIncident("riot")

	t.Run("ok with skip", func(t *testing.T) {
		f := newFixture(t, []models.Officer{a, b}, []models.Incident{in})
		rec, body := f.do(t, http.MethodPost, "/bulk/assign-to-incident", map[string]any{
			"incidentId": in.ID.Hex(),
			"officerIds": []string{a.ID.Hex(), primitive.NewObjectID().Hex(), b.ID.Hex()},
			"riskZone":   "center",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %v", rec.Code, body)
		}
		if body["message"] != "2 officers assigned to incident" {
			t.Errorf("message = %v", body["message"])
		}
		if _, ok := body["items"]; ok {
			t.Error("items should only appear on partial failure")
		}
	})

	t.Run("partial", func(t *testing.T) {
		f := newFixture(t, []models.Officer{a, b}, []models.Incident{in})
		f.officers.FailReplace(b.ID, errors.New("write concern timeout"))

		rec, body := f.do(t, http.MethodPost, "/bulk/assign-to-incident", map[string]any{
			"incidentId": in.ID.Hex(),
			"officerIds": []string{a.ID.Hex(), b.ID.Hex()},
			"riskZone":   "center",
		})
		if rec.Code != http.StatusMultiStatus {
			t.Fatalf("status = %d, want 207", rec.Code)
		}
		if errorCode(body) != "partial_failure" {
			t.Errorf("code = %q", errorCode(body))
		}
		items := body["items"].([]any)
		if len(items) != 2 || items[1].(map[string]any)["outcome"] != dispatch.OutcomeFailed {
			t.Errorf("items = %v", items)
		}
		if list := body["assignedOfficers"].([]any); len(list) != 1 {
			t.Errorf("assignedOfficers = %v", list)
		}
	})

	t.Run("empty ids", func(t *testing.T) {
		f := newFixture(t, nil, []models.Incident{in})
		rec, _ := f.do(t, http.MethodPost, "/bulk/assign-to-incident", map[string]any{
			"incidentId": in.ID.Hex(), "officerIds": []string{}, "riskZone": "center",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestStatus(t *testing.T) {
	o := testutil.NewOfficer("Cy", "ngo")
	f := newFixture(t, []models.Officer{o}, nil)

	rec, body := f.do(t, http.MethodPut, "/"+o.ID.Hex()+"/status", map[string]string{"status": "unavailable"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", rec.Code, body)
	}
	if body["message"] != "Officer status updated" {
		t.Errorf("message = %v", body["message"])
	}

	rec, body = f.do(t, http.MethodPut, "/"+o.ID.Hex()+"/status", map[string]string{"status": "asleep"})
	if rec.Code != http.StatusBadRequest || body["message"] != "Invalid status" {
		t.Errorf("invalid status: %d %v", rec.Code, body)
	}
}

func TestLists_BuildFilters(t *testing.T) {
	tests := []struct {
		name string
		path string
		want officerstore.Filter
	}{
		{"generic", "/?type=police&status=assigned", officerstore.Filter{Type: "police", Statuses: []string{"assigned"}}},
		{"available", "/available/list?type=medical", officerstore.Filter{
			Type: "medical", Statuses: []string{"available", "assigned"}, StatusFirst: true,
		}},
		{"by type", "/type/rescue", officerstore.Filter{Type: "rescue"}},
		{"by type and status", "/type/rescue?status=available", officerstore.Filter{Type: "rescue", Statuses: []string{"available"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			rec, body := f.do(t, http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusOK || body["success"] != true {
				t.Fatalf("status = %d, body %v", rec.Code, body)
			}
			if data, ok := body["data"].([]any); !ok || len(data) != 0 {
				t.Errorf("data = %v, want empty array", body["data"])
			}
			got := f.roster.lastQuery
			if got.Type != tt.want.Type || got.StatusFirst != tt.want.StatusFirst || len(got.Statuses) != len(tt.want.Statuses) {
				t.Errorf("filter = %+v, want %+v", got, tt.want)
			}
			for i := range got.Statuses {
				if got.Statuses[i] != tt.want.Statuses[i] {
					t.Errorf("filter = %+v, want %+v", got, tt.want)
				}
			}
		})
	}
}

func TestList_StoreError(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.roster.listErr = errors.New("boom")

	rec, body := f.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusInternalServerError || body["success"] != false {
		t.Errorf("got %d %v", rec.Code, body)
	}
}

func TestCreate(t *testing.T) {
	t.Run("sanitizes and creates", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		rec, body := f.do(t, http.MethodPost, "/", map[string]any{
			"name":     "<b>Ana</b> Reyes",
			"type":     "Medical",
			"phone":    "555-0100",
			"location": map[string]any{"address": "1 Main <script>x</script>St"},
			"skills":   []string{"cpr", "<i></i>"},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %v", rec.Code, body)
		}
		if body["message"] != "Officer created successfully" {
			t.Errorf("message = %v", body["message"])
		}
		got := f.roster.created[0]
		if got.Name != "Ana Reyes" || got.Type != "medical" || got.Location.Address != "1 Main St" {
			t.Errorf("created = %+v", got)
		}
		if len(got.Skills) != 1 || got.Status != models.OfficerAvailable {
			t.Errorf("skills/status = %v/%s", got.Skills, got.Status)
		}
	})

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"missing phone", map[string]any{"name": "Ana", "type": "medical"}, "name, type, and phone are required"},
		{"name only markup", map[string]any{"name": "<b></b>", "type": "medical", "phone": "555"}, "name, type, and phone are required"},
		{"bad email", map[string]any{"name": "Ana", "type": "medical", "phone": "555", "email": "x"}, "A valid email address is required."},
		{"bad type", map[string]any{"name": "Ana", "type": "fire fighter", "phone": "555"}, "Type must be a lowercase category such as police or medical."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, nil)
			rec, body := f.do(t, http.MethodPost, "/", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if body["message"] != tt.message {
				t.Errorf("message = %v, want %q", body["message"], tt.message)
			}
			if len(f.roster.created) != 0 {
				t.Error("officer should not be created")
			}
		})
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec, body := f.do(t, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["data"].(map[string]any)["officers"] != float64(7) {
		t.Errorf("data = %v", body["data"])
	}
}
