package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execTranscriber struct {
	cmd []string
	mu  sync.Mutex
}

type execResult struct {
	Text string `json:"text"`
}

// NewExecTranscriber wraps an external command that reads a WAV file and
// prints {"text": ...} on stdout.
func NewExecTranscriber(command string) (Transcriber, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	return &execTranscriber{cmd: args}, nil
}

func (t *execTranscriber) Transcribe(ctx context.Context, wavData []byte, prompt string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	file, err := os.CreateTemp(os.TempDir(), "typeless_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if _, err := file.Write(wavData); err != nil {
		return "", fmt.Errorf("write wav: %w", err)
	}

	args := append([]string{}, t.cmd[1:]...)
	args = append(args, "--audio", file.Name())
	if prompt != "" {
		args = append(args, "--prompt", prompt)
	}

	command := exec.CommandContext(ctx, t.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("stt command failed: %w: %s", err, stderr.String())
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("decode stt response: %w", err)
	}
	return resp.Text, nil
}
