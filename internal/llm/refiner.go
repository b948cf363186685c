// Package llm abstracts the text-refinement backends that turn raw spoken
// transcripts into polished written text.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/typeless-app/typeless-core/internal/config"
)

// Refiner rewrites one transcribed chunk. contextText, when non-empty, is
// the refined output already produced in this session; the backend must
// continue from it rather than repeat it.
type Refiner interface {
	Refine(ctx context.Context, text, systemPrompt, contextText string) (string, error)
}

// New builds the refiner selected by config.
func New(cfg config.LLMConfig) (Refiner, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockRefiner(), nil
	case "openai":
		return NewOpenAIRefiner(cfg), nil
	case "ollama":
		return NewOllamaRefiner(cfg), nil
	case "exec":
		return NewExecRefiner(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown llm mode %q", cfg.Mode)
	}
}

// DefaultPrompt is the base refinement instruction used when the config
// does not override it.
const DefaultPrompt = `You are a dictation cleanup assistant. The user speaks into a microphone and an STT engine sends you the transcript.

Rewrite the spoken transcript into ready-to-use written text:
1. Remove filler words, meaningless repetition, and self-corrections (keep only the corrected content).
2. Preserve the speaker's full intent; add or remove no substance.
3. Keep the original language of the input.
4. Fix punctuation.
5. Keep technical terms, code fragments, and proper nouns exactly as spoken.
6. Preserve sentence mood: questions stay questions, commands stay commands.

Output only the refined text, with no explanation, quoting, or prefix.`

// BuildSystemPrompt appends the glossary to the base prompt so domain
// terms are never "corrected" into near-homophones.
func BuildSystemPrompt(base string, glossary []string) string {
	if strings.TrimSpace(base) == "" {
		base = DefaultPrompt
	}
	if len(glossary) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nGlossary: the following domain terms must be kept verbatim when they appear in the input:\n")
	for _, term := range glossary {
		b.WriteString("- ")
		b.WriteString(term)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
