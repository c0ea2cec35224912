package followup

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tbxark/phqintake/types"
)

const DefaultFallbackQuestion = "Is there anything else that has been bothering you lately?"

// Synthesizer turns the remaining questions into one follow-up question. It
// never fails: any generator error yields the fallback question so that the
// conversation can always continue.
type Synthesizer struct {
	generator Generator
	fallback  string
}

type SynthesizerOption func(*Synthesizer)

func WithFallbackQuestion(question string) SynthesizerOption {
	return func(s *Synthesizer) {
		if strings.TrimSpace(question) != "" {
			s.fallback = question
		}
	}
}

func NewSynthesizer(generator Generator, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		generator: generator,
		fallback:  DefaultFallbackQuestion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synthesizer) Synthesize(ctx context.Context, initialStatement string, remaining []string) string {
	if s.generator == nil {
		return s.fallback
	}
	question, err := s.generator.GenerateFollowUp(ctx, &types.FollowUpRequest{
		InitialStatement: initialStatement,
		Remaining:        remaining,
	})
	if err != nil {
		slog.Warn("Follow-up generation failed, using fallback question", "error", err)
		return s.fallback
	}
	if strings.TrimSpace(question) == "" {
		return s.fallback
	}
	return question
}
