package llm

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"
	azurex "github.com/tanpawarit/healthcare-assistant/pkg/azureopenai"
	embeddingx "github.com/tanpawarit/healthcare-assistant/pkg/embedding"
)

// NewChatModel builds the chat model for role. It returns a nil model and no
// error when no hosted model is configured.
func NewChatModel(ctx context.Context, cfg Config, role Role) (einomodel.ToolCallingChatModel, error) {
	if !cfg.Configured() {
		log.Warn().Str("role", string(role)).Msg("azure openai not configured, running without a model")
		return nil, nil
	}
	azureCfg := cfg.AzureFor(role)
	m, err := azureCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", role, err)
	}
	return m, nil
}

// NewEmbedder returns an embedder for the configured embedding deployment.
// Without a hosted model every call fails with embedding.ErrUnavailable.
func NewEmbedder(cfg Config) *embeddingx.AzureEmbedder {
	embCfg := cfg.Embedding()
	return embeddingx.NewAzureEmbedder(azurex.NewClient(embCfg), embCfg.EmbeddingDeployment)
}
