package questionnaire

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/tbxark/phqintake/types"
)

// Schema describes a single item; the questionnaire is a JSON array of them.
func Schema() (string, error) {
	schema := jsonschema.Reflect(&types.Item{})
	schema.Title = "PRO questionnaire item"
	schema.Description = "The questionnaire is a JSON array of these items in fixed order. Only answer_score and reasoning of unanswered items may change."
	schemaBytes, err := sonic.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(schemaBytes), nil
}
