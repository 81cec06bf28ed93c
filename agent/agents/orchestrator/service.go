package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	nodex "github.com/tanpawarit/healthcare-assistant/agent/nodes/orchestrator"
)

var ErrEmptyQuery = nodex.ErrEmptyQuery

type Response struct {
	Response   string                `json:"response"`
	AgentCalls []contractx.AgentName `json:"agent_calls"`
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator plans, runs every step sequentially, then synthesizes once.
type Orchestrator struct {
	planner contractx.Planner
	caller  contractx.AgentCaller
	synth   contractx.Synthesizer

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	planner contractx.Planner,
	caller contractx.AgentCaller,
	synth contractx.Synthesizer,
	opts ...Option,
) (*Orchestrator, error) {
	if planner == nil {
		return nil, errors.New("planner is required")
	}
	if caller == nil {
		return nil, errors.New("agent caller is required")
	}
	if synth == nil {
		return nil, errors.New("synthesizer is required")
	}

	o := &Orchestrator{
		planner: planner,
		caller:  caller,
		synth:   synth,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileHandleGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Handle never returns partial results: any failure yields only an error.
func (o *Orchestrator) Handle(ctx context.Context, query string, history []contractx.Turn) (Response, error) {
	if strings.TrimSpace(query) == "" {
		return Response{}, ErrEmptyQuery
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		Query:   query,
		History: history,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Response: out.Response, AgentCalls: out.AgentCalls}, nil
}
