package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) HealthCheck(ctx context.Context) error {
	return f.err
}

func decodeHealthResponse(t *testing.T, rr *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode health response %q: %v", rr.Body.String(), err)
	}
	return resp
}

func TestHealthAlwaysOK(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{
		Database: &fakeChecker{err: errors.New("down")},
	})

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("liveness must not depend on dependencies, got %d", rr.Code)
	}
	if resp := decodeHealthResponse(t, rr); resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
}

func TestReadyAllHealthy(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{
		Database: &fakeChecker{},
		Redis:    &fakeChecker{},
	})

	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeHealthResponse(t, rr)
	if resp.Status != "ready" {
		t.Errorf("expected status ready, got %q", resp.Status)
	}
	if resp.Checks["database"] != "ok" || resp.Checks["redis"] != "ok" {
		t.Errorf("unexpected check statuses: %v", resp.Checks)
	}
}

func TestReadyFailingDependency(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{
		Database: &fakeChecker{},
		Redis:    &fakeChecker{err: errors.New("connection refused")},
	})

	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	resp := decodeHealthResponse(t, rr)
	if resp.Status != "unavailable" {
		t.Errorf("expected status unavailable, got %q", resp.Status)
	}
	if resp.Checks["database"] != "ok" {
		t.Errorf("database check should still pass, got %q", resp.Checks["database"])
	}
	if resp.Checks["redis"] != "unavailable" {
		t.Errorf("redis check should be unavailable, got %q", resp.Checks["redis"])
	}
}

func TestReadySkipsNilCheckers(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{Database: &fakeChecker{}})

	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeHealthResponse(t, rr)
	if _, ok := resp.Checks["redis"]; ok {
		t.Error("nil redis checker should not appear in checks")
	}
}
