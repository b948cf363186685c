// Package inject delivers refined text to the focused application.
package inject

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/typeless-app/typeless-core/internal/config"
)

// Injector places text at the cursor. Failures are logged by callers but
// never fed back into the pipeline's error taxonomy.
type Injector interface {
	Inject(ctx context.Context, text string) error
}

// New builds the injector selected by config.
func New(cfg config.InjectorConfig, log *slog.Logger) (Injector, error) {
	switch cfg.Mode {
	case "none":
		return NopInjector{}, nil
	case "clipboard":
		return NewClipboardInjector(cfg, log)
	default:
		return nil, fmt.Errorf("unknown injector mode %q", cfg.Mode)
	}
}

// NopInjector discards text; useful headless or in tests.
type NopInjector struct{}

func (NopInjector) Inject(context.Context, string) error { return nil }
