package questionnaire

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bytedance/sonic"
	"github.com/tbxark/phqintake/types"
)

// FunctionalImpairmentID is the PHQ-9 item excluded from the summed score.
const FunctionalImpairmentID = "phq9_10"

var ErrDefinitionMissing = errors.New("questionnaire definition not found")

// Load reads a pristine questionnaire definition. A missing file is reported
// as ErrDefinitionMissing so that callers can treat it as fatal.
func Load(path string) (types.Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionMissing, path)
		}
		return nil, fmt.Errorf("read questionnaire definition: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (types.Questionnaire, error) {
	var q types.Questionnaire
	if err := sonic.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("decode questionnaire definition: %w", err)
	}
	if err := ValidateDefinition(q); err != nil {
		return nil, err
	}
	return q, nil
}

func ValidateDefinition(q types.Questionnaire) error {
	if len(q) == 0 {
		return errors.New("questionnaire has no items")
	}
	ids := make(map[string]struct{}, len(q))
	for i, it := range q {
		if it.ID == "" {
			return fmt.Errorf("item %d: empty id", i)
		}
		if _, dup := ids[it.ID]; dup {
			return fmt.Errorf("item %d: duplicate id %q", i, it.ID)
		}
		ids[it.ID] = struct{}{}
		if it.Question == "" {
			return fmt.Errorf("item %q: empty question", it.ID)
		}
		if len(it.Options) == 0 {
			return fmt.Errorf("item %q: no options", it.ID)
		}
		scores := make(map[int]struct{}, len(it.Options))
		for _, opt := range it.Options {
			if _, dup := scores[opt.Score]; dup {
				return fmt.Errorf("item %q: duplicate option score %d", it.ID, opt.Score)
			}
			scores[opt.Score] = struct{}{}
		}
		if it.AnswerScore != nil || it.Reasoning != nil {
			return fmt.Errorf("item %q: definition must not carry an answer", it.ID)
		}
	}
	return nil
}
