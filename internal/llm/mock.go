package llm

import (
	"context"
	"time"
)

type mockRefiner struct{}

func NewMockRefiner() Refiner { return &mockRefiner{} }

// Refine returns the text unchanged. Leading and trailing whitespace is
// part of the chunk; trimming it would corrupt the concatenated result.
func (m *mockRefiner) Refine(ctx context.Context, text, _, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	return text, nil
}
