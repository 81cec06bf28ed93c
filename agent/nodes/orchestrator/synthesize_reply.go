package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

func SynthesizeReply(ctx context.Context, in *GraphState, synth contractx.Synthesizer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Reply = synth.Synthesize(ctx, in.Query, in.Results, in.History)
	return in, nil
}
