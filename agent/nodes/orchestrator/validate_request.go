package orchestratornode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

var ErrEmptyQuery = fmt.Errorf("%w: query is empty", contractx.ErrValidation)

type GraphInput struct {
	Query   string
	History []contractx.Turn
}

type GraphOutput struct {
	Response   string
	AgentCalls []contractx.AgentName
}

type GraphState struct {
	Query     string
	History   []contractx.Turn
	StartedAt time.Time

	Plan    contractx.ExecutionPlan
	Results []contractx.AgentResult
	Reply   string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	return &GraphState{
		Query:     query,
		History:   in.History,
		StartedAt: nowFn().UTC(),
	}, nil
}
