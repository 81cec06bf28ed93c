package synthesizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	llmx "github.com/tanpawarit/healthcare-assistant/agent/llm"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

type Option func(*Synthesizer)

func WithMetrics(m *metricsx.Recorder) Option {
	return func(s *Synthesizer) {
		s.metrics = m
	}
}

type Synthesizer struct {
	runner  compose.Runnable[map[string]any, string]
	metrics *metricsx.Recorder
}

var _ contractx.Synthesizer = (*Synthesizer)(nil)

// New builds a synthesizer. A nil chatModel yields template-only output.
func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, opts ...Option) (*Synthesizer, error) {
	s := &Synthesizer{}
	for _, opt := range opts {
		opt(s)
	}
	if chatModel == nil {
		return s, nil
	}

	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "synthesizer.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile synthesizer graph: %v", contractx.ErrModelInvoke, err)
	}
	s.runner = runner
	return s, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, results []contractx.AgentResult, history []contractx.Turn) string {
	reply, err := s.modelReply(ctx, query, results, history)
	if err != nil {
		log.Warn().Err(err).Msg("synthesizer: using template fallback")
		s.metrics.Fallback("synthesizer")
		return Format(results)
	}
	return reply
}

func (s *Synthesizer) modelReply(ctx context.Context, query string, results []contractx.AgentResult, history []contractx.Turn) (string, error) {
	if s.runner == nil {
		return "", contractx.ErrModelUnavailable
	}

	reply, err := s.runner.Invoke(ctx, map[string]any{
		llmx.InputKey: synthesisInput(query, results, history),
	})
	if err != nil {
		return "", fmt.Errorf("%w: synthesizer invoke: %v", contractx.ErrModelInvoke, err)
	}
	return reply, nil
}

func synthesisInput(query string, results []contractx.AgentResult, history []contractx.Turn) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation History:\n")
		b.WriteString(contractx.FormatHistory(history, contractx.HistoryWindow))
		b.WriteString("\n\n")
	}

	b.WriteString("User Query: ")
	b.WriteString(query)
	b.WriteString("\n\nAgent Results:\n")

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		raw, err := json.MarshalIndent(r.Data, "", "  ")
		if err != nil {
			raw = []byte(fmt.Sprint(r.Data))
		}
		blocks = append(blocks, fmt.Sprintf("Agent %s (%s):\n%s", r.Agent, r.Status, raw))
	}
	b.WriteString(strings.Join(blocks, "\n\n"))
	return b.String()
}
