package capture

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/typeless-app/typeless-core/internal/config"
	"github.com/typeless-app/typeless-core/internal/segment"
)

// Recorder runs one recording lifecycle at a time: it opens the device,
// feeds chunks to a segment detector on a dedicated goroutine, and hands
// finished utterances to the session callback.
type Recorder struct {
	cfg config.AudioConfig
	dev Device
	log *slog.Logger

	mu       sync.Mutex
	stream   Stream
	detector *segment.Detector
	done     chan struct{}
}

func NewRecorder(cfg config.AudioConfig, dev Device, log *slog.Logger) *Recorder {
	return &Recorder{
		cfg: cfg,
		dev: dev,
		log: log.With(slog.String("component", "recorder")),
	}
}

// Start opens the capture stream and begins feeding the detector. Each
// finished utterance is delivered to onSegment from the capture goroutine.
func (r *Recorder) Start(onSegment func(wav []byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream != nil {
		return errors.New("recording already in progress")
	}

	stream, err := r.dev.Open(r.cfg.SampleRate, r.cfg.Channels, 16)
	if err != nil {
		return err
	}

	r.stream = stream
	r.detector = segment.NewDetector(r.cfg, r.log, onSegment)
	r.done = make(chan struct{})
	go r.captureLoop(stream, r.detector, r.done)
	return nil
}

func (r *Recorder) captureLoop(stream Stream, det *segment.Detector, done chan struct{}) {
	defer close(done)
	chunk := make([]byte, r.cfg.ChunkSamples*r.cfg.Channels*2)
	for {
		if _, err := io.ReadFull(stream, chunk); err != nil {
			// Device errors (and deliberate Close on stop) end the
			// stream; the pipeline above sees a short session, not
			// a failure.
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				r.log.Debug("capture read ended", slog.String("error", err.Error()))
			}
			return
		}
		det.Feed(chunk)
	}
}

// Stop closes the stream, waits for the capture goroutine, and returns any
// trailing audio that was never closed into a segment (nil if none).
func (r *Recorder) Stop() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == nil {
		return nil
	}
	_ = r.stream.Close()
	<-r.done

	tail := r.detector.Flush()
	r.stream = nil
	r.detector = nil
	r.done = nil
	return tail
}
