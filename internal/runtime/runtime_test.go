package runtime

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/typeless-app/typeless-core/internal/config"
)

type stubDictation struct {
	startErr error
	starts   int
	stops    int
}

func (s *stubDictation) Start() error {
	s.starts++
	return s.startErr
}

func (s *stubDictation) Stop() { s.stops++ }

type stubHealth struct{ healthy bool }

func (s stubHealth) Healthy() bool { return s.healthy }

func newTestRuntime(dictation *stubDictation, health HealthChecker) *Runtime {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config.Default(), logger, dictation, health)
}

func TestRecordStartAndStop(t *testing.T) {
	dictation := &stubDictation{}
	rt := newTestRuntime(dictation, nil)

	rec := httptest.NewRecorder()
	rt.handleRecordStart(rec, httptest.NewRequest(http.MethodPost, "/record/start", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	rt.handleRecordStop(rec, httptest.NewRequest(http.MethodPost, "/record/stop", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d, want %d", rec.Code, http.StatusOK)
	}

	if dictation.starts != 1 || dictation.stops != 1 {
		t.Fatalf("starts=%d stops=%d, want 1 and 1", dictation.starts, dictation.stops)
	}
}

func TestRecordStartConflict(t *testing.T) {
	dictation := &stubDictation{startErr: errors.New("recording already in progress")}
	rt := newTestRuntime(dictation, nil)

	rec := httptest.NewRecorder()
	rt.handleRecordStart(rec, httptest.NewRequest(http.MethodPost, "/record/start", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestRecordEndpointsRejectGet(t *testing.T) {
	dictation := &stubDictation{}
	rt := newTestRuntime(dictation, nil)

	rec := httptest.NewRecorder()
	rt.handleRecordStart(rec, httptest.NewRequest(http.MethodGet, "/record/start", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("start GET status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}

	rec = httptest.NewRecorder()
	rt.handleRecordStop(rec, httptest.NewRequest(http.MethodGet, "/record/stop", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("stop GET status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if dictation.starts != 0 || dictation.stops != 0 {
		t.Fatal("GET requests reached the pipeline")
	}
}

func TestReadyReflectsBusHealth(t *testing.T) {
	rt := newTestRuntime(&stubDictation{}, stubHealth{healthy: false})
	rt.ready.Store(true)

	rec := httptest.NewRecorder()
	rt.handleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d with unhealthy bus", rec.Code, http.StatusServiceUnavailable)
	}

	rt = newTestRuntime(&stubDictation{}, stubHealth{healthy: true})
	rt.ready.Store(true)
	rec = httptest.NewRecorder()
	rt.handleReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
