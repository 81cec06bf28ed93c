package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	catalogx "github.com/tanpawarit/healthcare-assistant/agent/catalog"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

const (
	defaultTimeout       = 30 * time.Second
	maxResponseSizeBytes = 2 << 20
)

// Config is loaded without a prefix so the variable names match the
// deployed function settings.
type Config struct {
	BaseURL      string        `envconfig:"SPECIALIZED_TOOLS_BASE_URL" default:"http://localhost:7071/api"`
	ParserKey    string        `envconfig:"AGENT1_FUNCTION_KEY"`
	KnowledgeKey string        `envconfig:"AGENT2_FUNCTION_KEY"`
	BookingKey   string        `envconfig:"AGENT3_FUNCTION_KEY"`
	Timeout      time.Duration `envconfig:"AGENT_CALL_TIMEOUT" default:"30s"`
}

func (c Config) keyFor(name contractx.AgentName) string {
	switch name {
	case contractx.AgentParser:
		return strings.TrimSpace(c.ParserKey)
	case contractx.AgentKnowledge:
		return strings.TrimSpace(c.KnowledgeKey)
	case contractx.AgentBooking:
		return strings.TrimSpace(c.BookingKey)
	default:
		return ""
	}
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithMetrics(m *metricsx.Recorder) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client calls the specialized agents over HTTP, one attempt per call.
type Client struct {
	baseURL    string
	cfg        Config
	timeout    time.Duration
	httpClient *http.Client
	metrics    *metricsx.Recorder
}

var _ contractx.AgentCaller = (*Client)(nil)

func New(cfg Config, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("specialized tools base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid specialized tools base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    baseURL,
		cfg:        cfg,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Call returns an error only for an agent outside the catalog, before any
// request is made. Every upstream failure becomes an error-status result.
func (c *Client) Call(ctx context.Context, name contractx.AgentName, input map[string]any) (contractx.AgentResult, error) {
	entry, err := catalogx.Lookup(name)
	if err != nil {
		return contractx.AgentResult{}, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	logger := log.With().Str("agent", string(name)).Str("endpoint", entry.Endpoint).Logger()
	logger.Info().Msg("calling agent")

	data, err := c.post(ctx, c.endpointURL(entry), input)
	if err != nil {
		logger.Error().Err(err).Msg("agent call failed")
		c.metrics.AgentCall(string(name), string(contractx.StatusError))
		return contractx.ErrorResult(name, "Failed to call agent: "+err.Error()), nil
	}

	c.metrics.AgentCall(string(name), string(contractx.StatusSuccess))
	return contractx.AgentResult{
		Agent:  name,
		Data:   data,
		Status: contractx.StatusSuccess,
	}, nil
}

func (c *Client) endpointURL(entry catalogx.Entry) string {
	u := c.baseURL + "/" + entry.Endpoint
	if key := c.cfg.keyFor(entry.Name); key != "" {
		u += "?code=" + url.QueryEscape(key)
	}
	return u
}

func (c *Client) post(ctx context.Context, endpoint string, input map[string]any) (map[string]any, error) {
	if input == nil {
		input = map[string]any{}
	}
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal agent input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute agent request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("agent http status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode agent response: %w", err)
	}
	if parsed == nil {
		return nil, errors.New("decode agent response: empty body")
	}
	return parsed, nil
}
