package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/health"
)

var testClk = clock.NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

func TestLivenessHandler(t *testing.T) {
	h := health.NewHandler(testClk)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.LivenessHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var status health.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("status = %q, want %q", status.Status, "ok")
	}
}

func TestReadinessHandler_NotReady(t *testing.T) {
	h := health.NewHandler(testClk)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestReadinessHandler_Ready(t *testing.T) {
	h := health.NewHandler(testClk, health.Checker{
		Name:  "database",
		Check: func(ctx context.Context) error { return nil },
	})
	h.SetReady(true)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var status health.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Checks["database"] != "ok" {
		t.Errorf("database check = %q, want %q", status.Checks["database"], "ok")
	}
}

func TestReadinessHandler_FailingCheck(t *testing.T) {
	h := health.NewHandler(testClk, health.Checker{
		Name:  "database",
		Check: func(ctx context.Context) error { return errors.New("connection refused") },
	})
	h.SetReady(true)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ReadinessHandler()(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	var status health.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if status.Checks["database"] != "connection refused" {
		t.Errorf("database check = %q, want %q", status.Checks["database"], "connection refused")
	}
}
