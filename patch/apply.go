package patch

import (
	"fmt"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/phqintake/types"
)

// ApplyRFC6902 applies ops to a copy of current. current itself is left as is.
// Items always carry answer_score and reasoning, null or not, so an add on
// either member overwrites it in place.
func ApplyRFC6902(current types.Questionnaire, ops []Operation) (types.Questionnaire, error) {
	if len(ops) == 0 {
		return current.Clone(), nil
	}
	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current questionnaire: %w", err)
	}
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	modifiedJSON, err := patch.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}
	var result types.Questionnaire
	if err := sonic.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("type mismatch: patch would result in invalid questionnaire: %w", err)
	}
	return result, nil
}
