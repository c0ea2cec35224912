package patch

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tbxark/phqintake/types"
)

var ErrShapeMismatch = errors.New("questionnaire shape mismatch")

// ValidateShape checks that next is the same questionnaire as prev with, at
// most, different answers. New answers must pick a permitted option and carry
// reasoning. Any deviation rejects the whole of next.
func ValidateShape(prev, next types.Questionnaire) error {
	if len(prev) != len(next) {
		return fmt.Errorf("%w: expected %d items, got %d", ErrShapeMismatch, len(prev), len(next))
	}
	for i := range prev {
		want, got := prev[i], next[i]
		if want.ID != got.ID {
			return fmt.Errorf("%w: item %d: expected id %q, got %q", ErrShapeMismatch, i, want.ID, got.ID)
		}
		if want.Question != got.Question {
			return fmt.Errorf("%w: item %q: question text changed", ErrShapeMismatch, want.ID)
		}
		if !slices.Equal(want.Options, got.Options) {
			return fmt.Errorf("%w: item %q: options changed", ErrShapeMismatch, want.ID)
		}
		// Answers to items already answered in prev never become operations.
		if want.Answered() || got.AnswerScore == nil {
			continue
		}
		if !got.PermitsScore(*got.AnswerScore) {
			return fmt.Errorf("%w: item %q: score %d is not a permitted option", ErrShapeMismatch, want.ID, *got.AnswerScore)
		}
		if got.Reasoning == nil || strings.TrimSpace(*got.Reasoning) == "" {
			return fmt.Errorf("%w: item %q: score without reasoning", ErrShapeMismatch, want.ID)
		}
	}
	return nil
}
