package apiresp_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/guardian/internal/app/system/apiresp"
	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"go.uber.org/zap"
)

func TestError_StatusAndBody(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		code    apperr.Kind
		field   string
		id      string
	}{
		{"invalid", apperr.Invalid("riskZone", "riskZone is required"), 400, "RiskZone is required", apperr.KindInvalidArgument, "riskZone", ""},
		{"not found", apperr.Missing("officer", "abc"), 404, "Officer not found", apperr.KindNotFound, "officer", "abc"},
		{"partial", apperr.Partial("officers assigned but incident not updated", errors.New("x")), 207, "Officers assigned but incident not updated", apperr.KindPartialFailure, "", ""},
		{"store hides detail", apperr.Store("save officer", "abc", errors.New("socket closed")), 500, "Server error", apperr.KindStoreFailure, "", "abc"},
		{"untyped", errors.New("boom"), 500, "Server error", apperr.KindStoreFailure, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/officers/x/assign", nil)
			apiresp.Error(rec, req, zap.NewNop(), tt.err, "Server error")

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body apiresp.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
			if body.Error.Code != tt.code || body.Error.Field != tt.field || body.Error.ID != tt.id {
				t.Errorf("error = %+v", body.Error)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		IncidentID string `json:"incidentId"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"incidentId":"abc","extra":1}`))
	if err := apiresp.Decode(req, &dst); err != nil || dst.IncidentID != "abc" {
		t.Errorf("Decode = %v, %+v", err, dst)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := apiresp.Decode(req, &dst); err != nil {
		t.Errorf("empty body: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{nope"))
	err := apiresp.Decode(req, &dst)
	if !errors.Is(err, apperr.InvalidArgument) {
		t.Errorf("bad JSON err = %v, want InvalidArgument", err)
	}
}
