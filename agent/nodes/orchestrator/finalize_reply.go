package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: synthesizer returned empty reply", contractx.ErrSchemaViolation)
	}

	calls := make([]contractx.AgentName, 0, len(in.Results))
	for _, r := range in.Results {
		calls = append(calls, r.Agent)
	}
	return GraphOutput{Response: reply, AgentCalls: calls}, nil
}
