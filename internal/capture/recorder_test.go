package capture

import (
	"encoding/binary"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/typeless-app/typeless-core/internal/config"
)

// fakeStream serves queued PCM chunks and then blocks until closed.
type fakeStream struct {
	mu     sync.Mutex
	data   []byte
	closed chan struct{}
}

func newFakeStream(data []byte) *fakeStream {
	return &fakeStream{data: data, closed: make(chan struct{})}
}

func (s *fakeStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	if len(s.data) > 0 {
		n := copy(p, s.data)
		s.data = s.data[n:]
		s.mu.Unlock()
		return n, nil
	}
	s.mu.Unlock()
	<-s.closed
	return 0, io.EOF
}

func (s *fakeStream) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

type fakeDevice struct {
	stream *fakeStream
}

func (d *fakeDevice) Open(sampleRate, channels, bitDepth int) (Stream, error) {
	return d.stream, nil
}

func pcmChunks(cfg config.AudioConfig, amplitude int16, chunks int) []byte {
	out := make([]byte, 0, chunks*cfg.ChunkSamples*2)
	buf := make([]byte, 2)
	for c := 0; c < chunks; c++ {
		for i := 0; i < cfg.ChunkSamples; i++ {
			v := amplitude
			if i%2 == 1 {
				v = -amplitude
			}
			binary.LittleEndian.PutUint16(buf, uint16(v))
			out = append(out, buf...)
		}
	}
	return out
}

func TestRecorderEmitsSegmentsAndTail(t *testing.T) {
	cfg := config.Default().Audio
	data := append(pcmChunks(cfg, 3000, 10), pcmChunks(cfg, 0, 12)...)
	data = append(data, pcmChunks(cfg, 3000, 4)...) // short trailing speech, no boundary

	stream := newFakeStream(data)
	rec := NewRecorder(cfg, &fakeDevice{stream: stream}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var mu sync.Mutex
	var segments [][]byte
	if err := rec.Start(func(wav []byte) {
		mu.Lock()
		segments = append(segments, wav)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Wait for the capture loop to drain the queued audio.
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(segments)
		mu.Unlock()
		if n >= 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	tail := rec.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(segments) != 1 {
		t.Fatalf("expected 1 detected segment, got %d", len(segments))
	}
	if tail == nil {
		t.Fatal("expected trailing audio returned on stop")
	}
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(config.Default().Audio, &fakeDevice{stream: newFakeStream(nil)}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if tail := rec.Stop(); tail != nil {
		t.Fatalf("expected nil tail, got %d bytes", len(tail))
	}
}

func TestRecorderRejectsDoubleStart(t *testing.T) {
	stream := newFakeStream(nil)
	rec := NewRecorder(config.Default().Audio, &fakeDevice{stream: stream}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := rec.Start(func([]byte) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rec.Start(func([]byte) {}); err == nil {
		t.Fatal("expected error on second start")
	}
	rec.Stop()
}
