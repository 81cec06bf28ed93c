package planner

import (
	"strings"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

// rule emits one step when any keyword is a substring of the lowercased query.
type rule struct {
	keywords  []string
	agent     contractx.AgentName
	inputKey  string
	reasoning string
}

func (r rule) matches(lower string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (r rule) step(query string) contractx.ExecutionStep {
	return contractx.ExecutionStep{
		AgentName: r.agent,
		InputData: map[string]any{r.inputKey: query},
		Reasoning: r.reasoning,
	}
}

// Evaluated in order; the order is the step order of the resulting plan.
var fallbackRules = []rule{
	{
		keywords:  []string{"symptom", "pain", "ache", "feel", "hurt"},
		agent:     contractx.AgentParser,
		inputKey:  "text",
		reasoning: "User mentioned symptoms, need to parse them",
	},
	{
		keywords:  []string{"what", "how", "why", "explain", "information"},
		agent:     contractx.AgentKnowledge,
		inputKey:  "query",
		reasoning: "User asking for medical information",
	},
	{
		keywords:  []string{"appointment", "book", "schedule", "available"},
		agent:     contractx.AgentBooking,
		inputKey:  "query",
		reasoning: "User wants to book or check appointments",
	},
}

var defaultRule = rule{
	agent:     contractx.AgentParser,
	inputKey:  "text",
	reasoning: "Default: parse user input",
}

// FallbackPlan never returns an empty plan and emits at most one step per agent.
func FallbackPlan(query string) contractx.ExecutionPlan {
	lower := strings.ToLower(query)

	var steps []contractx.ExecutionStep
	for _, r := range fallbackRules {
		if r.matches(lower) {
			steps = append(steps, r.step(query))
		}
	}
	if len(steps) == 0 {
		steps = append(steps, defaultRule.step(query))
	}

	return contractx.ExecutionPlan{
		Steps:     steps,
		Reasoning: "Fallback plan based on keyword matching",
	}
}
