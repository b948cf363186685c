// Package capture owns the microphone side of a recording session.
package capture

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/mattn/go-shellwords"
)

// Stream is an open audio source delivering raw 16-bit little-endian PCM.
type Stream interface {
	io.Reader
	Close() error
}

// Device opens capture streams. Any read error on the resulting stream is
// treated as end-of-stream by the capture loop, never as a pipeline error.
type Device interface {
	Open(sampleRate, channels, bitDepth int) (Stream, error)
}

// ExecDevice captures audio by running an external command (arecord, parec,
// sox, ...) that writes raw PCM to stdout.
type ExecDevice struct {
	cmd []string
}

func NewExecDevice(command string) (*ExecDevice, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse capture command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("capture command is empty")
	}
	return &ExecDevice{cmd: args}, nil
}

func (d *ExecDevice) Open(sampleRate, channels, bitDepth int) (Stream, error) {
	cmd := exec.Command(d.cmd[0], d.cmd[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("capture stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start capture command: %w", err)
	}
	return &execStream{cmd: cmd, out: stdout}, nil
}

type execStream struct {
	cmd *exec.Cmd
	out io.ReadCloser
}

func (s *execStream) Read(p []byte) (int, error) {
	return s.out.Read(p)
}

func (s *execStream) Close() error {
	_ = s.out.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	// Reap the process; the error is expected after Kill.
	_ = s.cmd.Wait()
	return nil
}
