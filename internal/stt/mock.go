package stt

import (
	"context"
	"fmt"
)

type mockTranscriber struct{}

func NewMockTranscriber() Transcriber {
	return &mockTranscriber{}
}

func (m *mockTranscriber) Transcribe(_ context.Context, wavData []byte, _ string) (string, error) {
	return fmt.Sprintf("[transcript length=%d]", len(wavData)), nil
}
