// Package pipeline orchestrates the two-stage dictation pipeline: audio
// segments are transcribed and refined concurrently, in arrival order,
// with an in-band sentinel driving shutdown of both stages.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/typeless-app/typeless-core/internal/history"
	"github.com/typeless-app/typeless-core/internal/inject"
	"github.com/typeless-app/typeless-core/internal/llm"
	"github.com/typeless-app/typeless-core/internal/stt"
)

// Recorder is the capture collaborator: one recording lifecycle at a
// time, segment callback per finished utterance, trailing audio on stop.
type Recorder interface {
	Start(onSegment func(wav []byte)) error
	Stop() []byte
}

// HistorySink persists completed sessions.
type HistorySink interface {
	Append(ctx context.Context, e history.Entry) error
}

// Options wires a Controller's collaborators.
type Options struct {
	Transcriber     stt.Transcriber
	Refiner         llm.Refiner
	Injector        inject.Injector
	History         HistorySink
	Notifier        Notifier
	Recorder        Recorder
	Glossary        []string
	SystemPrompt    string
	PromptTailChars int
	Metrics         *Metrics
	Logger          *slog.Logger
	Clock           func() time.Time
}

// Controller runs dictation sessions end to end. Start begins capture;
// Stop seals the session with a sentinel and lets the stage workers drain
// to completion in the background.
type Controller struct {
	opts   Options
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	current *session
}

func NewController(parent context.Context, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	ctx, cancel := context.WithCancel(parent)
	return &Controller{
		opts:   opts,
		log:    opts.Logger.With(slog.String("component", "pipeline")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start opens a new recording session with freshly allocated queues and
// launches its stage workers.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return errors.New("recording already in progress")
	}

	sess := newSession(c.opts.Clock())
	if err := c.opts.Recorder.Start(func(wav []byte) {
		sess.segments.Push(segmentItem{wav: wav})
	}); err != nil {
		return err
	}
	c.current = sess

	c.opts.Notifier.StateChanged(StateRecording)
	c.opts.Metrics.sessionStarted(c.ctx)
	c.log.Debug("session started", slog.String("session_id", sess.id))

	c.wg.Add(2)
	go c.runTranscription(sess)
	go c.runRefinement(sess)
	return nil
}

// Stop ends capture for the current session. The trailing un-emitted
// audio, if any, becomes one final segment, followed by the sentinel on
// the same queue, so the sentinel is processed strictly after every real
// segment.
func (c *Controller) Stop() {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.mu.Unlock()
	if sess == nil {
		return
	}

	tail := c.opts.Recorder.Stop()

	// The processing notification goes out before the sentinel so no
	// listener can see this session's idle first.
	c.opts.Notifier.StateChanged(StateProcessing)

	if len(tail) > 0 {
		sess.segments.Push(segmentItem{wav: tail})
	}
	sess.segments.Push(segmentItem{sentinel: true, releasedAt: c.opts.Clock()})
	c.log.Debug("session sealed", slog.String("session_id", sess.id))
}

// Close cancels all in-flight sessions and waits for their workers.
func (c *Controller) Close() {
	c.Stop()
	c.cancel()
	c.wg.Wait()
}
