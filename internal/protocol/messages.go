package protocol

import "time"

// StateChange announces a pipeline state transition on the bus.
type StateChange struct {
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// Result carries the final refined text of a completed session.
type Result struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineError reports a session-level failure. Message begins with the
// failing stage, e.g. "stt: connection refused".
type PipelineError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectState  = "dictation.state"
	SubjectResult = "dictation.result"
	SubjectError  = "dictation.error"
)
