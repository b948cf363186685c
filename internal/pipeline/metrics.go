package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pipeline's OpenTelemetry instruments. A nil *Metrics
// is valid and records nothing, which keeps tests free of SDK setup.
type Metrics struct {
	sessionsStarted   metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	sessionsFailed    metric.Int64Counter
	segments          metric.Int64Counter
	sttLatency        metric.Float64Histogram
	refineLatency     metric.Float64Histogram
	sessionDuration   metric.Float64Histogram
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/typeless-app/typeless-core/internal/pipeline")
	m := &Metrics{}
	var err error
	if m.sessionsStarted, err = meter.Int64Counter("typeless.sessions.started",
		metric.WithDescription("Recording sessions started")); err != nil {
		return nil, err
	}
	if m.sessionsCompleted, err = meter.Int64Counter("typeless.sessions.completed",
		metric.WithDescription("Sessions that produced a final result")); err != nil {
		return nil, err
	}
	if m.sessionsFailed, err = meter.Int64Counter("typeless.sessions.failed",
		metric.WithDescription("Sessions aborted by a transcription error")); err != nil {
		return nil, err
	}
	if m.segments, err = meter.Int64Counter("typeless.segments.transcribed",
		metric.WithDescription("Audio segments transcribed")); err != nil {
		return nil, err
	}
	if m.sttLatency, err = meter.Float64Histogram("typeless.stt.latency",
		metric.WithDescription("Transcription call latency"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.refineLatency, err = meter.Float64Histogram("typeless.refine.latency",
		metric.WithDescription("Refinement call latency"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.sessionDuration, err = meter.Float64Histogram("typeless.session.duration",
		metric.WithDescription("Press-to-result session duration"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) sessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsStarted.Add(ctx, 1)
}

func (m *Metrics) sessionCompleted(ctx context.Context, duration time.Duration) {
	if m == nil {
		return
	}
	m.sessionsCompleted.Add(ctx, 1)
	m.sessionDuration.Record(ctx, duration.Seconds())
}

func (m *Metrics) sessionFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsFailed.Add(ctx, 1)
}

func (m *Metrics) segmentTranscribed(ctx context.Context, latency time.Duration) {
	if m == nil {
		return
	}
	m.segments.Add(ctx, 1)
	m.sttLatency.Record(ctx, latency.Seconds())
}

func (m *Metrics) chunkRefined(ctx context.Context, latency time.Duration) {
	if m == nil {
		return
	}
	m.refineLatency.Record(ctx, latency.Seconds())
}
