package planner

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	catalogx "github.com/tanpawarit/healthcare-assistant/agent/catalog"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	llmx "github.com/tanpawarit/healthcare-assistant/agent/llm"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

type llmStep struct {
	AgentName string         `json:"agent_name"`
	InputData map[string]any `json:"input_data"`
	Reasoning string         `json:"reasoning"`
}

type llmPlan struct {
	Reasoning string    `json:"reasoning"`
	Steps     []llmStep `json:"steps"`
}

type Option func(*Planner)

func WithMetrics(m *metricsx.Recorder) Option {
	return func(p *Planner) {
		p.metrics = m
	}
}

type Planner struct {
	runner  compose.Runnable[map[string]any, llmPlan]
	metrics *metricsx.Recorder
}

var _ contractx.Planner = (*Planner)(nil)

// New builds a planner. A nil chatModel yields a planner that only uses the
// keyword rules.
func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, opts ...Option) (*Planner, error) {
	p := &Planner{}
	for _, opt := range opts {
		opt(p)
	}
	if chatModel == nil {
		return p, nil
	}

	runner, err := llmx.CompileStructuredGraph[llmPlan](ctx, chatModel, systemPrompt, "planner.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile planner graph: %v", contractx.ErrModelInvoke, err)
	}
	p.runner = runner
	return p, nil
}

func (p *Planner) CreatePlan(ctx context.Context, query string, history []contractx.Turn) contractx.ExecutionPlan {
	plan, err := p.modelPlan(ctx, query, history)
	if err != nil {
		log.Warn().Err(err).Msg("planner: using keyword fallback")
		p.metrics.Fallback("planner")
		return FallbackPlan(query)
	}
	return plan
}

func (p *Planner) modelPlan(ctx context.Context, query string, history []contractx.Turn) (contractx.ExecutionPlan, error) {
	if p.runner == nil {
		return contractx.ExecutionPlan{}, contractx.ErrModelUnavailable
	}

	out, err := p.runner.Invoke(ctx, map[string]any{
		"agents":      catalogx.Describe(),
		llmx.InputKey: planningInput(query, history),
	})
	if err != nil {
		return contractx.ExecutionPlan{}, fmt.Errorf("%w: planner invoke: %v", contractx.ErrModelInvoke, err)
	}
	return toExecutionPlan(out)
}

func toExecutionPlan(out llmPlan) (contractx.ExecutionPlan, error) {
	if len(out.Steps) == 0 {
		return contractx.ExecutionPlan{}, fmt.Errorf("%w: plan has no steps", contractx.ErrSchemaViolation)
	}

	steps := make([]contractx.ExecutionStep, 0, len(out.Steps))
	for i, s := range out.Steps {
		name, err := contractx.ParseAgentName(s.AgentName)
		if err != nil {
			return contractx.ExecutionPlan{}, fmt.Errorf("%w: step %d: %v", contractx.ErrSchemaViolation, i, err)
		}
		if err := catalogx.ValidateInput(name, s.InputData); err != nil {
			return contractx.ExecutionPlan{}, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, contractx.ExecutionStep{
			AgentName: name,
			InputData: s.InputData,
			Reasoning: strings.TrimSpace(s.Reasoning),
		})
	}

	return contractx.ExecutionPlan{
		Steps:     steps,
		Reasoning: strings.TrimSpace(out.Reasoning),
	}, nil
}

func planningInput(query string, history []contractx.Turn) string {
	var b strings.Builder
	b.WriteString("Conversation History:\n")
	b.WriteString(contractx.FormatHistory(history, contractx.HistoryWindow))
	b.WriteString("\n\nUser Query: ")
	b.WriteString(query)
	b.WriteString("\n\nAnalyze the query and create an execution plan. Respond with valid JSON only.")
	return b.String()
}
