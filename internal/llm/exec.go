package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execRefiner struct {
	cmd []string
	mu  sync.Mutex
}

type execPayload struct {
	Text    string `json:"text"`
	System  string `json:"system"`
	Context string `json:"context,omitempty"`
}

type execResponse struct {
	Content string `json:"content"`
}

// NewExecRefiner wraps an external command that reads the request as JSON
// on stdin and prints {"content": ...} on stdout.
func NewExecRefiner(command string) (Refiner, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse llm command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("llm command is empty")
	}
	return &execRefiner{cmd: args}, nil
}

func (r *execRefiner) Refine(ctx context.Context, text, systemPrompt, contextText string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	input, err := json.Marshal(execPayload{Text: text, System: systemPrompt, Context: contextText})
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, r.cmd[0], r.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("llm exec command failed: %w", err)
	}

	var resp execResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return "", fmt.Errorf("decode llm exec response: %w", err)
	}
	return resp.Content, nil
}
