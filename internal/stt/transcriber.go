// Package stt abstracts speech-to-text backends.
package stt

import (
	"context"
	"fmt"
	"strings"

	"github.com/typeless-app/typeless-core/internal/config"
)

// Transcriber converts one WAV-encoded utterance into text. The prompt is
// an optional priming hint; backends must accept an empty prompt.
type Transcriber interface {
	Transcribe(ctx context.Context, wavData []byte, prompt string) (string, error)
}

// New builds the transcriber selected by config.
func New(cfg config.STTConfig) (Transcriber, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockTranscriber(), nil
	case "openai":
		return NewOpenAITranscriber(cfg), nil
	case "exec":
		return NewExecTranscriber(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown stt mode %q", cfg.Mode)
	}
}

// BuildPrompt assembles the priming prompt from a bounded tail of the text
// transcribed so far plus the fixed glossary. The tail goes first so the
// small, fixed glossary is never the part that gets truncated by the
// service's input limit.
func BuildPrompt(transcript string, glossary []string, tailLimit int) string {
	tail := strings.TrimSpace(transcript)
	if tailLimit >= 0 {
		if runes := []rune(tail); len(runes) > tailLimit {
			tail = string(runes[len(runes)-tailLimit:])
		}
	}
	terms := strings.Join(glossary, ", ")

	switch {
	case tail == "" && terms == "":
		return ""
	case tail == "":
		return terms
	case terms == "":
		return tail
	default:
		return tail + "\n" + terms
	}
}
