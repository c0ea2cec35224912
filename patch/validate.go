package patch

import (
	"fmt"

	"github.com/tbxark/phqintake/types"
)

// AllowedPaths returns the JSON pointers a turn may write: the score and
// reasoning of every item that is still unanswered.
func AllowedPaths(q types.Questionnaire) map[string]bool {
	allowed := make(map[string]bool)
	for i, it := range q {
		if it.Answered() {
			continue
		}
		allowed[scorePath(i)] = true
		allowed[reasoningPath(i)] = true
	}
	return allowed
}

func ValidatePatchOperations(ops []Operation, allowedPaths map[string]bool) error {
	for i, op := range ops {
		if op.Op != OperationAdd && op.Op != OperationReplace {
			return fmt.Errorf("operation %d: %q is not permitted", i, op.Op)
		}
		if !allowedPaths[op.Path] {
			return fmt.Errorf("operation %d: path %q is not in the allowed paths set", i, op.Path)
		}
	}
	return nil
}

func scorePath(index int) string {
	return fmt.Sprintf("/%d/answer_score", index)
}

func reasoningPath(index int) string {
	return fmt.Sprintf("/%d/reasoning", index)
}
