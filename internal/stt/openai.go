package stt

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/typeless-app/typeless-core/internal/config"
)

// openaiTranscriber talks to any OpenAI-compatible audio transcription
// endpoint (Groq's whisper hosting by default).
type openaiTranscriber struct {
	client *openai.Client
	model  string
}

func NewOpenAITranscriber(cfg config.STTConfig) Transcriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openaiTranscriber{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (t *openaiTranscriber) Transcribe(ctx context.Context, wavData []byte, prompt string) (string, error) {
	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: "recording.wav",
		Reader:   bytes.NewReader(wavData),
		Prompt:   prompt,
	}
	resp, err := t.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	return resp.Text, nil
}
