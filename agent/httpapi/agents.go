package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	bookingx "github.com/tanpawarit/healthcare-assistant/agent/agents/booking"
	knowledgex "github.com/tanpawarit/healthcare-assistant/agent/agents/knowledge"
	catalogx "github.com/tanpawarit/healthcare-assistant/agent/catalog"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	logx "github.com/tanpawarit/healthcare-assistant/pkg/logger"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

const (
	functionKeyHeader = "X-Functions-Key"
	functionKeyQuery  = "code"
)

// FunctionKeys is loaded without a prefix. An empty key leaves that agent
// open.
type FunctionKeys struct {
	Parser    string `envconfig:"AGENT1_FUNCTION_KEY"`
	Knowledge string `envconfig:"AGENT2_FUNCTION_KEY"`
	Booking   string `envconfig:"AGENT3_FUNCTION_KEY"`
}

func (k FunctionKeys) keyFor(name contractx.AgentName) string {
	switch name {
	case contractx.AgentParser:
		return strings.TrimSpace(k.Parser)
	case contractx.AgentKnowledge:
		return strings.TrimSpace(k.Knowledge)
	case contractx.AgentBooking:
		return strings.TrimSpace(k.Booking)
	default:
		return ""
	}
}

type BookingProcessor interface {
	Process(ctx context.Context, req bookingx.Request) bookingx.Result
}

type AgentServices struct {
	Parser    contractx.SymptomParser
	Knowledge contractx.KnowledgeSearcher
	Booking   BookingProcessor
}

type parseRequest struct {
	Text string `json:"text"`
}

type knowledgeRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type knowledgeResponse struct {
	Results []contractx.KnowledgeItem `json:"results"`
}

// NewAgentsRouter mounts each specialized agent under /api at the endpoint
// the catalog assigns it.
func NewAgentsRouter(svc AgentServices, keys FunctionKeys, m *metricsx.Recorder) http.Handler {
	r := newRouter(m)
	handlers := map[contractx.AgentName]http.HandlerFunc{
		contractx.AgentParser:    parseHandler(svc.Parser),
		contractx.AgentKnowledge: knowledgeHandler(svc.Knowledge),
		contractx.AgentBooking:   bookingHandler(svc.Booking),
	}
	for _, entry := range catalogx.All() {
		h, ok := handlers[entry.Name]
		if !ok {
			continue
		}
		r.With(requireFunctionKey(keys.keyFor(entry.Name))).Post(AgentPath(entry), h)
	}
	return r
}

func AgentPath(entry catalogx.Entry) string {
	return "/api/" + entry.Endpoint
}

func requireFunctionKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(functionKeyHeader)
			if got == "" {
				got = r.URL.Query().Get(functionKeyQuery)
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeError(w, http.StatusUnauthorized, "Invalid or missing function key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseHandler(p contractx.SymptomParser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req parseRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "Missing 'text' in request body")
			return
		}
		logx.Ctx(r).Info().Msg("symptom parser request")
		writeJSON(w, http.StatusOK, p.Parse(r.Context(), req.Text))
	}
}

func knowledgeHandler(k contractx.KnowledgeSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req knowledgeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, "Missing 'query' in request body")
			return
		}
		if req.TopK <= 0 {
			req.TopK = knowledgex.DefaultTopK
		}
		logx.Ctx(r).Info().Int("top_k", req.TopK).Msg("knowledge request")
		writeJSON(w, http.StatusOK, knowledgeResponse{Results: k.Search(r.Context(), req.Query, req.TopK)})
	}
}

func bookingHandler(b BookingProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookingx.Request
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, "Missing 'query' in request body")
			return
		}
		logx.Ctx(r).Info().Msg("appointment request")
		writeJSON(w, http.StatusOK, b.Process(r.Context(), req))
	}
}
