package fill

import (
	"context"

	"github.com/tbxark/phqintake/types"
)

// Processor fills still-unanswered items from one patient statement.
// It returns the complete updated questionnaire or an *Error; the input
// questionnaire is never modified.
type Processor interface {
	Process(ctx context.Context, q types.Questionnaire, patientText string) (types.Questionnaire, error)
}
