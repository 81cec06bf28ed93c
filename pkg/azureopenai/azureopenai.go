package azureopenai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	aclopenai "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

type LLMBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = (*Config)(nil)

type Config struct {
	Endpoint            string        `envconfig:"ENDPOINT" split_words:"true"`
	APIKey              string        `envconfig:"API_KEY" split_words:"true"`
	APIVersion          string        `envconfig:"API_VERSION" split_words:"true" default:"2024-02-15-preview"`
	Deployment          string        `envconfig:"DEPLOYMENT_NAME" split_words:"true" default:"gpt-4"`
	EmbeddingDeployment string        `envconfig:"EMBEDDING_DEPLOYMENT_NAME" split_words:"true" default:"text-embedding-ada-002"`
	MaxCompletionToken  *int          `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature         float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout             time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	// JSONMode asks the deployment for a single JSON object reply.
	JSONMode bool `ignored:"true"`
}

// Configured reports whether endpoint and key are both present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.APIKey) != ""
}

func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("azure openai: endpoint and api key are required")
	}

	deployment := strings.TrimSpace(c.Deployment)
	conf := &openaimodel.ChatModelConfig{
		ByAzure:    true,
		BaseURL:    strings.TrimRight(strings.TrimSpace(c.Endpoint), "/"),
		APIKey:     strings.TrimSpace(c.APIKey),
		APIVersion: strings.TrimSpace(c.APIVersion),
		Model:      deployment,
		// Deployment names are used verbatim in the request path.
		AzureModelMapperFunc: func(m string) string { return m },
		MaxTokens:            c.MaxCompletionToken,
		Temperature:          &c.Temperature,
		Timeout:              c.Timeout,
	}
	if c.JSONMode {
		conf.ResponseFormat = &aclopenai.ChatCompletionResponseFormat{
			Type: aclopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("azure openai: create chat model %s: %w", deployment, err)
	}
	return m, nil
}

// NewClient creates an OpenAI SDK client bound to an Azure resource. It
// returns nil when the resource is not configured. Retries are disabled.
func NewClient(cfg Config, opts ...option.RequestOption) *openaisdk.Client {
	if !cfg.Configured() {
		return nil
	}

	base := []option.RequestOption{
		azure.WithEndpoint(strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"), strings.TrimSpace(cfg.APIVersion)),
		azure.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		base = append(base, option.WithRequestTimeout(cfg.Timeout))
	}

	client := openaisdk.NewClient(append(base, opts...)...)
	return &client
}
