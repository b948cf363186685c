package inject

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/typeless-app/typeless-core/internal/config"
)

// runner executes one clipboard command with the given stdin and returns
// its stdout. Swappable so tests need no real clipboard tools.
type runner func(ctx context.Context, argv []string, stdin string) (string, error)

// ClipboardInjector pastes by writing the text to the clipboard, sending
// the paste chord, then restoring the previous clipboard content after a
// delay. Restores are debounced with a monotonically increasing request
// id: only the latest pending restore wins, so back-to-back dictations
// cannot resurrect an older clipboard.
type ClipboardInjector struct {
	copyCmd      []string
	pasteCmd     []string
	readCmd      []string
	restoreDelay time.Duration
	pasteSettle  time.Duration
	log          *slog.Logger
	run          runner
	restoreSeq   atomic.Uint64
}

func NewClipboardInjector(cfg config.InjectorConfig, log *slog.Logger) (*ClipboardInjector, error) {
	parser := shellwords.NewParser()
	copyCmd, err := parser.Parse(cfg.CopyCommand)
	if err != nil {
		return nil, fmt.Errorf("parse copy command: %w", err)
	}
	pasteCmd, err := parser.Parse(cfg.PasteCommand)
	if err != nil {
		return nil, fmt.Errorf("parse paste command: %w", err)
	}
	var readCmd []string
	if cfg.ReadCommand != "" {
		if readCmd, err = parser.Parse(cfg.ReadCommand); err != nil {
			return nil, fmt.Errorf("parse read command: %w", err)
		}
	}
	if len(copyCmd) == 0 || len(pasteCmd) == 0 {
		return nil, fmt.Errorf("clipboard copy/paste commands must not be empty")
	}
	return &ClipboardInjector{
		copyCmd:      copyCmd,
		pasteCmd:     pasteCmd,
		readCmd:      readCmd,
		restoreDelay: time.Duration(cfg.RestoreDelayMS) * time.Millisecond,
		pasteSettle:  50 * time.Millisecond,
		log:          log.With(slog.String("component", "injector")),
		run:          runCommand,
	}, nil
}

func (c *ClipboardInjector) Inject(ctx context.Context, text string) error {
	var original string
	var haveOriginal bool
	if len(c.readCmd) > 0 {
		if out, err := c.run(ctx, c.readCmd, ""); err == nil {
			original = out
			haveOriginal = true
		}
	}

	if _, err := c.run(ctx, c.copyCmd, text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	time.Sleep(c.pasteSettle)
	if _, err := c.run(ctx, c.pasteCmd, ""); err != nil {
		return fmt.Errorf("send paste: %w", err)
	}

	if haveOriginal {
		c.scheduleRestore(original)
	}
	return nil
}

func (c *ClipboardInjector) scheduleRestore(original string) {
	id := c.restoreSeq.Add(1)
	time.AfterFunc(c.restoreDelay, func() {
		if c.restoreSeq.Load() != id {
			// A newer injection superseded this restore.
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := c.run(ctx, c.copyCmd, original); err != nil {
			c.log.Warn("failed to restore clipboard", slog.String("error", err.Error()))
		}
	})
}

func runCommand(ctx context.Context, argv []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", argv[0], err, stderr.String())
	}
	return stdout.String(), nil
}
