package main

import (
	"fmt"

	"github.com/spf13/cobra"
	llmx "github.com/tanpawarit/healthcare-assistant/agent/llm"
	configx "github.com/tanpawarit/healthcare-assistant/pkg/config"
	embeddingx "github.com/tanpawarit/healthcare-assistant/pkg/embedding"
)

func newSimilarityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similarity <text-a> <text-b>",
		Short: "Print the cosine similarity of two texts' embeddings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			llmCfg, err := configx.New[llmx.Config]("AZURE_OPENAI")
			if err != nil {
				return err
			}
			if !llmCfg.Configured() {
				return embeddingx.ErrUnavailable
			}
			vecs, err := llmx.NewEmbedder(*llmCfg).Embed(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(vecs) != 2 {
				return fmt.Errorf("expected 2 embeddings, got %d", len(vecs))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", embeddingx.CosineSimilarity(vecs[0], vecs[1]))
			return nil
		},
	}
}
