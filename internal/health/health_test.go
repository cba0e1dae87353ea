package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okCheck(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", okCheck))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Version != "v1.0.0" {
		t.Errorf("expected version v1.0.0, got %s", response.Version)
	}
	if _, ok := response.Checks["storage"]; !ok {
		t.Error("expected storage check in response")
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))
	handler.RegisterChecker("outbox", NewBacklogChecker("outbox", 10, func(context.Context) (int, error) {
		return 50, nil
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != StatusUnhealthy {
		t.Errorf("expected status unhealthy, got %s", response.Status)
	}
	if response.Checks["storage"].Message != "connection refused" {
		t.Errorf("unexpected storage message %q", response.Checks["storage"].Message)
	}
	if response.Checks["outbox"].Status != StatusDegraded {
		t.Errorf("expected degraded outbox, got %s", response.Checks["outbox"].Status)
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("outbox", NewBacklogChecker("outbox", 10, func(context.Context) (int, error) {
		return 11, nil
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("degraded must still be 200, got %d", w.Code)
	}
	status, _ := handler.Evaluate(context.Background())
	if status != StatusDegraded {
		t.Errorf("expected degraded, got %s", status)
	}
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body 'ok', got %s", w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", okCheck))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ready" {
		t.Errorf("expected body 'ready', got %s", w.Body.String())
	}
}

func TestReadinessHandler_NotReady(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return errors.New("down")
	}))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if w.Body.String() != "not ready" {
		t.Errorf("expected body 'not ready', got %s", w.Body.String())
	}
}

func TestFuncChecker_ReceivesDeadline(t *testing.T) {
	handler := NewHandler("dev")
	var hasDeadline bool
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}))

	handler.Evaluate(context.Background())
	if !hasDeadline {
		t.Error("checker context must carry a deadline")
	}
}

func TestFuncChecker_Error(t *testing.T) {
	checker := NewFuncChecker("slow", func(context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return errors.New("boom")
	})

	check := checker.Check(context.Background())
	if check.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", check.Status)
	}
	if check.Message != "boom" {
		t.Errorf("expected message 'boom', got %s", check.Message)
	}
	if check.Name != "slow" {
		t.Errorf("expected name 'slow', got %s", check.Name)
	}
}

func TestBacklogChecker_Error(t *testing.T) {
	checker := NewBacklogChecker("outbox", 0, func(context.Context) (int, error) {
		return 0, errors.New("stats failed")
	})
	if check := checker.Check(context.Background()); check.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", check.Status)
	}
}
