package runtime

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/sdk/resource"
)

func TestMeterProviderServesPrometheusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider, handler := newMeterProvider(resource.Empty(), logger)
	if provider == nil {
		t.Fatal("expected a meter provider")
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	if handler == nil {
		t.Fatal("expected a /metrics handler")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLatencyViewsCoverPipelineInstruments(t *testing.T) {
	if got := len(latencyViews()); got != 3 {
		t.Fatalf("expected views for the 3 pipeline histograms, got %d", got)
	}
}
