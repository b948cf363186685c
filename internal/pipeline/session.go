package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// State is the externally observable pipeline state.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
)

// Notifier receives the pipeline's observable signals. Implementations
// must be safe for calls from pipeline goroutines.
type Notifier interface {
	StateChanged(state State)
	ResultReady(text string)
	ErrorOccurred(message string)
}

// segmentItem travels on the segment queue: either one WAV-encoded
// utterance or the in-band sentinel that marks end of input.
type segmentItem struct {
	wav        []byte
	sentinel   bool
	releasedAt time.Time
}

// textItem travels on the text queue. An aborted sentinel tells the
// refinement stage to drain without side effects.
type textItem struct {
	text       string
	sentinel   bool
	aborted    bool
	releasedAt time.Time
}

// session owns the state for one press-to-release cycle. Queues belong
// exclusively to this session and are dropped when its refinement worker
// terminates.
type session struct {
	id        string
	pressedAt time.Time
	segments  *Queue[segmentItem]
	texts     *Queue[textItem]
}

func newSession(pressedAt time.Time) *session {
	return &session{
		id:        uuid.NewString(),
		pressedAt: pressedAt,
		segments:  NewQueue[segmentItem](),
		texts:     NewQueue[textItem](),
	}
}
