package contract

import "context"

// Planner always returns a plan with at least one step.
type Planner interface {
	CreatePlan(ctx context.Context, query string, history []Turn) ExecutionPlan
}

// AgentCaller reports transport failures inside the returned AgentResult. The
// error return is reserved for local validation failures raised before I/O.
type AgentCaller interface {
	Call(ctx context.Context, name AgentName, input map[string]any) (AgentResult, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, query string, results []AgentResult, history []Turn) string
}

type SymptomParser interface {
	Parse(ctx context.Context, text string) ParsedSymptoms
}

type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, topK int) []KnowledgeItem
}
