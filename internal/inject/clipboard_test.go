package inject

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/typeless-app/typeless-core/internal/config"
)

type call struct {
	argv  string
	stdin string
}

type fakeRunner struct {
	mu        sync.Mutex
	calls     []call
	clipboard string
}

func (f *fakeRunner) run(_ context.Context, argv []string, stdin string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := strings.Join(argv, " ")
	f.calls = append(f.calls, call{argv: name, stdin: stdin})
	switch argv[0] {
	case "copy":
		f.clipboard = stdin
		return "", nil
	case "read":
		return f.clipboard, nil
	default: // paste
		return "", nil
	}
}

func (f *fakeRunner) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newTestInjector(t *testing.T, restoreDelayMS int) (*ClipboardInjector, *fakeRunner) {
	t.Helper()
	cfg := config.InjectorConfig{
		Mode:           "clipboard",
		CopyCommand:    "copy",
		PasteCommand:   "paste",
		ReadCommand:    "read",
		RestoreDelayMS: restoreDelayMS,
	}
	inj, err := NewClipboardInjector(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new injector: %v", err)
	}
	inj.pasteSettle = 0
	fake := &fakeRunner{clipboard: "original"}
	inj.run = fake.run
	return inj, fake
}

func TestInjectCopyPasteRestore(t *testing.T) {
	inj, fake := newTestInjector(t, 10)

	if err := inj.Inject(context.Background(), "hello"); err != nil {
		t.Fatalf("inject: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	calls := fake.snapshot()
	// read, copy(text), paste, copy(original)
	if len(calls) != 4 {
		t.Fatalf("expected 4 commands, got %d: %+v", len(calls), calls)
	}
	if calls[1].stdin != "hello" {
		t.Fatalf("expected text copied, got %q", calls[1].stdin)
	}
	if calls[3].argv != "copy" || calls[3].stdin != "original" {
		t.Fatalf("expected original restored, got %+v", calls[3])
	}
}

func TestOnlyLatestRestoreWins(t *testing.T) {
	inj, fake := newTestInjector(t, 30)

	if err := inj.Inject(context.Background(), "first"); err != nil {
		t.Fatalf("inject first: %v", err)
	}
	// Second injection before the first restore fires; its restore must
	// be the only one that runs.
	if err := inj.Inject(context.Background(), "second"); err != nil {
		t.Fatalf("inject second: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	var copies []call
	for _, c := range fake.snapshot() {
		if c.argv == "copy" {
			copies = append(copies, c)
		}
	}
	// copy(first), copy(second), then exactly one surviving restore; the
	// stale restore of the first injection must have been discarded.
	if len(copies) != 3 {
		t.Fatalf("expected 2 injection copies + 1 restore, got %d: %+v", len(copies), copies)
	}
	// The second injection read "first" off the clipboard, so that is
	// what the surviving restore puts back.
	if copies[2].stdin != "first" {
		t.Fatalf("unexpected restored content %q", copies[2].stdin)
	}
}

func TestNopInjector(t *testing.T) {
	if err := (NopInjector{}).Inject(context.Background(), "x"); err != nil {
		t.Fatalf("nop injector errored: %v", err)
	}
}
