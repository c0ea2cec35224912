package followup

import (
	"context"

	"github.com/tbxark/phqintake/types"
)

type Generator interface {
	GenerateFollowUp(ctx context.Context, req *types.FollowUpRequest) (string, error)
}
