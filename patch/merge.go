package patch

import (
	"fmt"
	"reflect"

	"github.com/tbxark/phqintake/types"
)

// FillOperations diffs a model-produced questionnaire against prev and emits
// operations only for items that were unanswered in prev and are answered in
// next.
func FillOperations(prev, next types.Questionnaire) []Operation {
	ops := make([]Operation, 0)
	for i := range prev {
		if i >= len(next) || prev[i].Answered() || !next[i].Answered() {
			continue
		}
		ops = append(ops,
			Operation{Op: OperationAdd, Path: scorePath(i), Value: *next[i].AnswerScore},
			Operation{Op: OperationAdd, Path: reasoningPath(i), Value: *next[i].Reasoning},
		)
	}
	return ops
}

// OverwriteAttempts lists ids of answered items whose answer differs in next.
// Such differences are never merged.
func OverwriteAttempts(prev, next types.Questionnaire) []string {
	var ids []string
	for i := range prev {
		if i >= len(next) || !prev[i].Answered() {
			continue
		}
		if !reflect.DeepEqual(prev[i].AnswerScore, next[i].AnswerScore) || !reflect.DeepEqual(prev[i].Reasoning, next[i].Reasoning) {
			ids = append(ids, prev[i].ID)
		}
	}
	return ids
}

// Merge validates next against prev and applies the newly filled answers.
// On error prev is the only valid state; nothing is partially applied.
func Merge(prev, next types.Questionnaire) (types.Questionnaire, []Operation, error) {
	if err := ValidateShape(prev, next); err != nil {
		return nil, nil, err
	}
	ops := FillOperations(prev, next)
	if err := ValidatePatchOperations(ops, AllowedPaths(prev)); err != nil {
		return nil, nil, fmt.Errorf("fill operations failed validation: %w", err)
	}
	merged, err := ApplyRFC6902(prev, ops)
	if err != nil {
		return nil, nil, err
	}
	return merged, ops, nil
}
