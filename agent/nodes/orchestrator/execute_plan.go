package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

// ExecutePlan runs steps one at a time in plan order. Upstream failures are
// already folded into error-status results by the caller; a returned error
// aborts the whole request.
func ExecutePlan(ctx context.Context, in *GraphState, caller contractx.AgentCaller) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	results := make([]contractx.AgentResult, 0, len(in.Plan.Steps))
	for i, step := range in.Plan.Steps {
		res, err := caller.Call(ctx, step.AgentName, step.InputData)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.AgentName, err)
		}
		results = append(results, res)
	}

	in.Results = results
	return in, nil
}
