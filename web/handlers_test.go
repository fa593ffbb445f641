package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JasonLovesDoggo/Flow/capture"
	"github.com/JasonLovesDoggo/Flow/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	status := func() capture.Status {
		return capture.Status{Active: true, Hotkey: "fn"}
	}
	return NewServer(db, status, 0), db
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got capture.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Active || got.Hotkey != "fn" {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestHandleStatusRejectsPost(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleActivations(t *testing.T) {
	s, db := newTestServer(t)
	for i := 0; i < 3; i++ {
		if err := db.SaveActivation("pressed", "fn"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	s.handleActivations(rec, httptest.NewRequest(http.MethodGet, "/api/activations?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Activations []storage.Activation `json:"activations"`
		Total       int64                `json:"total"`
		Limit       int                  `json:"limit"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 3 || len(got.Activations) != 2 || got.Limit != 2 {
		t.Fatalf("unexpected response: total=%d page=%d limit=%d", got.Total, len(got.Activations), got.Limit)
	}
}

func TestHandleDiagnostics(t *testing.T) {
	s, db := newTestServer(t)
	if err := db.SaveDiagnostic("tap_restarted", "ok", ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := httptest.NewRecorder()
	s.handleDiagnostics(rec, httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Diagnostics []storage.Diagnostic `json:"diagnostics"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Diagnostics) != 1 || got.Diagnostics[0].Kind != "tap_restarted" {
		t.Fatalf("unexpected response: %+v", got.Diagnostics)
	}
}

func TestHandleStats(t *testing.T) {
	s, db := newTestServer(t)
	if err := db.SaveActivation("toggled", "cmd+2"); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := httptest.NewRecorder()
	s.handleStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats?days=30", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Daily []storage.DailyCount `json:"daily"`
		Days  int                  `json:"days"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Days != 30 || len(got.Daily) != 1 || got.Daily[0].Count != 1 {
		t.Fatalf("unexpected response: %+v", got)
	}
}
