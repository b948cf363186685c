package pipeline

import (
	"log/slog"
	"strings"

	"github.com/typeless-app/typeless-core/internal/history"
	"github.com/typeless-app/typeless-core/internal/llm"
	"github.com/typeless-app/typeless-core/internal/stt"
)

// runTranscription drains the session's segment queue, transcribes each
// segment with a priming prompt built from the running transcript tail
// and the glossary, and forwards non-empty results in arrival order. The
// sentinel is always propagated downstream, also on error or shutdown,
// so the refinement stage never deadlocks.
func (c *Controller) runTranscription(sess *session) {
	defer c.wg.Done()
	log := c.log.With(slog.String("session_id", sess.id), slog.String("stage", "transcription"))

	var transcript strings.Builder
	for {
		item, ok := sess.segments.Pop(c.ctx)
		if !ok {
			sess.texts.Push(textItem{sentinel: true, aborted: true})
			return
		}
		if item.sentinel {
			sess.texts.Push(textItem{sentinel: true, releasedAt: item.releasedAt})
			return
		}

		prompt := stt.BuildPrompt(transcript.String(), c.opts.Glossary, c.opts.PromptTailChars)
		start := c.opts.Clock()
		text, err := c.opts.Transcriber.Transcribe(c.ctx, item.wav, prompt)
		if err != nil {
			// A transcription failure aborts this session only:
			// report it, then keep draining so neither the capture
			// callback nor the stop sentinel blocks on a full
			// queue. The abort reaches the refinement stage once
			// the stop sentinel arrives, so idle still follows
			// processing.
			log.Warn("transcription failed", slog.String("error", err.Error()))
			c.opts.Notifier.ErrorOccurred("stt: " + err.Error())
			c.opts.Metrics.sessionFailed(c.ctx)
			c.drainSegments(sess)
			sess.texts.Push(textItem{sentinel: true, aborted: true})
			return
		}
		c.opts.Metrics.segmentTranscribed(c.ctx, c.opts.Clock().Sub(start))

		if strings.TrimSpace(text) == "" {
			continue
		}
		transcript.WriteString(text)
		sess.texts.Push(textItem{text: text})
	}
}

// drainSegments discards everything still on an aborted session's segment
// queue up to and including the sentinel, so producers never block.
func (c *Controller) drainSegments(sess *session) {
	for {
		item, ok := sess.segments.Pop(c.ctx)
		if !ok || item.sentinel {
			return
		}
	}
}

// runRefinement drains the session's text queue, refining each chunk with
// the session's refined output so far as continuation context. On a
// per-chunk refinement failure the raw chunk is substituted, so one
// transient API error does not discard the dictation. Final side effects
// (injection, history, result notification) happen once, on the sentinel.
func (c *Controller) runRefinement(sess *session) {
	defer c.wg.Done()
	log := c.log.With(slog.String("session_id", sess.id), slog.String("stage", "refinement"))

	systemPrompt := llm.BuildSystemPrompt(c.opts.SystemPrompt, c.opts.Glossary)

	var rawParts, refinedParts []string
	var refined strings.Builder
	releasedAt := sess.pressedAt
	aborted := false

	for {
		item, ok := sess.texts.Pop(c.ctx)
		if !ok {
			aborted = true
			break
		}
		if item.sentinel {
			aborted = item.aborted
			if !item.releasedAt.IsZero() {
				releasedAt = item.releasedAt
			}
			break
		}

		start := c.opts.Clock()
		out, err := c.opts.Refiner.Refine(c.ctx, item.text, systemPrompt, refined.String())
		if err != nil {
			log.Warn("refinement failed, substituting raw text", slog.String("error", err.Error()))
			out = item.text
		} else if strings.TrimSpace(out) == "" {
			// An empty completion loses the user's words; keep the raw text.
			out = item.text
		}
		c.opts.Metrics.chunkRefined(c.ctx, c.opts.Clock().Sub(start))

		rawParts = append(rawParts, item.text)
		refinedParts = append(refinedParts, out)
		refined.WriteString(out)
	}

	raw := strings.Join(rawParts, "")
	final := strings.Join(refinedParts, "")

	if aborted || strings.TrimSpace(raw) == "" {
		// Aborted or no intelligible speech: silent no-op, back to idle.
		c.opts.Notifier.StateChanged(StateIdle)
		return
	}

	done := c.opts.Clock()
	if err := c.opts.Injector.Inject(c.ctx, final); err != nil {
		// Injection is fire-and-forget for the pipeline; log and move on.
		log.Warn("text injection failed", slog.String("error", err.Error()))
	}
	err := c.opts.History.Append(c.ctx, history.Entry{
		CreatedAt:     done,
		RawInput:      raw,
		RefinedOutput: final,
		KeyPressedAt:  sess.pressedAt,
		KeyReleasedAt: releasedAt,
		// Under pipelining both stages finish together; one shared
		// completion timestamp covers both markers.
		STTDoneAt: done,
		LLMDoneAt: done,
	})
	if err != nil {
		log.Warn("failed to record history", slog.String("error", err.Error()))
	}

	c.opts.Notifier.ResultReady(final)
	c.opts.Notifier.StateChanged(StateIdle)
	c.opts.Metrics.sessionCompleted(c.ctx, done.Sub(sess.pressedAt))
	log.Debug("session complete",
		slog.Int("chunks", len(rawParts)),
		slog.Duration("latency", done.Sub(releasedAt)))
}
