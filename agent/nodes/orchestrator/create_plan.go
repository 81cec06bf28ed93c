package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

func CreatePlan(ctx context.Context, in *GraphState, planner contractx.Planner) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	plan := planner.CreatePlan(ctx, in.Query, in.History)
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("%w: planner returned an empty plan", contractx.ErrSchemaViolation)
	}

	log.Debug().Int("steps", len(plan.Steps)).Str("reasoning", plan.Reasoning).Msg("plan created")
	in.Plan = plan
	return in, nil
}
