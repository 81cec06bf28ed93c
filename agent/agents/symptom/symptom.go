// Package symptom turns free text into ParsedSymptoms.
package symptom

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	llmx "github.com/tanpawarit/healthcare-assistant/agent/llm"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

type llmSymptoms struct {
	PrimaryIntent     *string        `json:"primary_intent"`
	Symptoms          []string       `json:"symptoms"`
	Severity          *string        `json:"severity"`
	Duration          *string        `json:"duration"`
	AdditionalContext map[string]any `json:"additional_context"`
}

type Option func(*Parser)

func WithMetrics(m *metricsx.Recorder) Option {
	return func(p *Parser) {
		p.metrics = m
	}
}

type Parser struct {
	runner  compose.Runnable[map[string]any, llmSymptoms]
	metrics *metricsx.Recorder
}

var _ contractx.SymptomParser = (*Parser)(nil)

// New builds a parser. With a nil chatModel every Parse returns the unknown
// intent with an error message.
func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, opts ...Option) (*Parser, error) {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if chatModel == nil {
		return p, nil
	}

	runner, err := llmx.CompileStructuredGraph[llmSymptoms](ctx, chatModel, systemPrompt, "symptom.model_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile symptom graph: %v", contractx.ErrModelInvoke, err)
	}
	p.runner = runner
	return p, nil
}

func (p *Parser) Parse(ctx context.Context, text string) contractx.ParsedSymptoms {
	parsed, err := p.modelParse(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("symptom parser: returning unknown intent")
		p.metrics.Fallback("symptom_parser")
		return Unknown(err)
	}
	log.Info().
		Str("intent", parsed.PrimaryIntent).
		Int("symptoms", len(parsed.Symptoms)).
		Msg("parsed symptoms")
	return parsed
}

// Unknown is the result returned when text could not be parsed.
func Unknown(err error) contractx.ParsedSymptoms {
	return contractx.ParsedSymptoms{
		PrimaryIntent: contractx.IntentUnknown,
		Symptoms:      []string{},
		Error:         err.Error(),
	}
}

func (p *Parser) modelParse(ctx context.Context, text string) (contractx.ParsedSymptoms, error) {
	if p.runner == nil {
		return contractx.ParsedSymptoms{}, contractx.ErrModelUnavailable
	}

	out, err := p.runner.Invoke(ctx, map[string]any{llmx.InputKey: text})
	if err != nil {
		return contractx.ParsedSymptoms{}, fmt.Errorf("%w: symptom invoke: %v", contractx.ErrModelInvoke, err)
	}
	return toParsedSymptoms(out)
}

func toParsedSymptoms(out llmSymptoms) (contractx.ParsedSymptoms, error) {
	if out.PrimaryIntent == nil || strings.TrimSpace(*out.PrimaryIntent) == "" {
		return contractx.ParsedSymptoms{}, fmt.Errorf("%w: primary_intent is required", contractx.ErrSchemaViolation)
	}
	if out.Symptoms == nil {
		return contractx.ParsedSymptoms{}, fmt.Errorf("%w: symptoms is required", contractx.ErrSchemaViolation)
	}

	symptoms := make([]string, 0, len(out.Symptoms))
	for _, s := range out.Symptoms {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, s)
		}
	}

	parsed := contractx.ParsedSymptoms{
		PrimaryIntent:     strings.TrimSpace(*out.PrimaryIntent),
		Symptoms:          symptoms,
		AdditionalContext: out.AdditionalContext,
	}
	if out.Severity != nil {
		parsed.Severity = strings.TrimSpace(*out.Severity)
	}
	if out.Duration != nil {
		parsed.Duration = strings.TrimSpace(*out.Duration)
	}
	return parsed, nil
}
