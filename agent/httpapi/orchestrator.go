package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	orchestratorx "github.com/tanpawarit/healthcare-assistant/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	logx "github.com/tanpawarit/healthcare-assistant/pkg/logger"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

const OrchestratePath = "/api/orchestrate"

type Orchestrator interface {
	Handle(ctx context.Context, query string, history []contractx.Turn) (orchestratorx.Response, error)
}

type orchestrateRequest struct {
	Query   string           `json:"query"`
	History []contractx.Turn `json:"history"`
}

func NewOrchestratorRouter(o Orchestrator, m *metricsx.Recorder) http.Handler {
	r := newRouter(m)
	r.Post(OrchestratePath, orchestrateHandler(o))
	return r
}

func orchestrateHandler(o Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orchestrateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, "Missing 'query' in request body")
			return
		}

		resp, err := o.Handle(r.Context(), req.Query, req.History)
		switch {
		case errors.Is(err, orchestratorx.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			logx.Ctx(r).Error().Err(err).Msg("orchestrator failed")
			writeError(w, http.StatusInternalServerError, "Internal server error: "+err.Error())
			return
		}

		logx.Ctx(r).Info().
			Strs("agent_calls", agentNames(resp.AgentCalls)).
			Msg("orchestrated query")
		writeJSON(w, http.StatusOK, resp)
	}
}

func agentNames(calls []contractx.AgentName) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
