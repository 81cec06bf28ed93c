package llm

import (
	"strings"
	"time"

	azurex "github.com/tanpawarit/healthcare-assistant/pkg/azureopenai"
)

type Role string

const (
	RolePlanner       Role = "planner"
	RoleSynthesizer   Role = "synthesizer"
	RoleSymptomParser Role = "symptom_parser"
)

// Config is loaded with the AZURE_OPENAI prefix. Per-role deployment and
// temperature overrides fall back to the shared values when unset.
type Config struct {
	Endpoint            string        `envconfig:"ENDPOINT" split_words:"true"`
	APIKey              string        `envconfig:"API_KEY" split_words:"true"`
	APIVersion          string        `envconfig:"API_VERSION" split_words:"true" default:"2024-02-15-preview"`
	Deployment          string        `envconfig:"DEPLOYMENT_NAME" split_words:"true" default:"gpt-4"`
	EmbeddingDeployment string        `envconfig:"EMBEDDING_DEPLOYMENT_NAME" split_words:"true" default:"text-embedding-ada-002"`
	MaxCompletionToken  int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature         float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout             time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	PlannerDeployment      string  `envconfig:"PLANNER_DEPLOYMENT" split_words:"true"`
	SynthesizerDeployment  string  `envconfig:"SYNTHESIZER_DEPLOYMENT" split_words:"true"`
	ParserDeployment       string  `envconfig:"PARSER_DEPLOYMENT" split_words:"true"`
	PlannerTemperature     float32 `envconfig:"PLANNER_TEMPERATURE" split_words:"true" default:"-1"`
	SynthesizerTemperature float32 `envconfig:"SYNTHESIZER_TEMPERATURE" split_words:"true" default:"-1"`
	ParserTemperature      float32 `envconfig:"PARSER_TEMPERATURE" split_words:"true" default:"-1"`
}

// Configured reports whether a hosted model can be reached at all. When it
// is false, model-backed components run on their deterministic paths only.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.APIKey) != ""
}

func (c Config) base() azurex.Config {
	maxTokens := c.MaxCompletionToken
	return azurex.Config{
		Endpoint:            strings.TrimSpace(c.Endpoint),
		APIKey:              strings.TrimSpace(c.APIKey),
		APIVersion:          strings.TrimSpace(c.APIVersion),
		Deployment:          strings.TrimSpace(c.Deployment),
		EmbeddingDeployment: strings.TrimSpace(c.EmbeddingDeployment),
		MaxCompletionToken:  &maxTokens,
		Temperature:         c.Temperature,
		Timeout:             c.Timeout,
	}
}

func (c Config) AzureFor(role Role) azurex.Config {
	out := c.base()

	var (
		deployment string
		temp       float32 = -1
	)
	switch role {
	case RolePlanner:
		deployment, temp = c.PlannerDeployment, c.PlannerTemperature
		out.JSONMode = true
	case RoleSymptomParser:
		deployment, temp = c.ParserDeployment, c.ParserTemperature
		out.JSONMode = true
	case RoleSynthesizer:
		deployment, temp = c.SynthesizerDeployment, c.SynthesizerTemperature
	}

	if v := strings.TrimSpace(deployment); v != "" {
		out.Deployment = v
	}
	if temp >= 0 {
		out.Temperature = temp
	}
	return out
}

func (c Config) Embedding() azurex.Config {
	return c.base()
}
