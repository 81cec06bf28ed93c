package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	knowledgex "github.com/tanpawarit/healthcare-assistant/agent/agents/knowledge"
	llmx "github.com/tanpawarit/healthcare-assistant/agent/llm"
	"github.com/tanpawarit/healthcare-assistant/agent/store"
	configx "github.com/tanpawarit/healthcare-assistant/pkg/config"
	embeddingx "github.com/tanpawarit/healthcare-assistant/pkg/embedding"
	"github.com/tanpawarit/healthcare-assistant/pkg/vectorstore"
)

type backendConfig struct {
	VectorBackend string `envconfig:"KNOWLEDGE_VECTOR_BACKEND" default:"pgvector"`
}

func newUploadCmd() *cobra.Command {
	var (
		file       string
		embed      bool
		batchSize  int
		useBuiltin bool
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload knowledge entries, optionally with embeddings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			entries, err := loadEntries(file, useBuiltin)
			if err != nil {
				return err
			}
			log.Info().Int("entries", len(entries)).Msg("loaded knowledge entries")

			dbCfg, err := configx.New[store.Config]("DATABASE")
			if err != nil {
				return err
			}
			db, err := store.Open(*dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(ctx); err != nil {
				return err
			}

			opts := []knowledgex.IngestOption{knowledgex.WithBatchSize(batchSize)}
			if embed {
				embedOpts, closeFn, err := embeddingOptions(cmd)
				if err != nil {
					return err
				}
				defer closeFn()
				opts = append(opts, embedOpts...)
			}

			ingester, err := knowledgex.NewIngester(db, opts...)
			if err != nil {
				return err
			}
			report := ingester.Ingest(ctx, entries)

			fmt.Fprintf(cmd.OutOrStdout(), "Total entries: %d\nUploaded: %d\nFailed: %d\n",
				len(entries), report.Uploaded, report.Failed)
			if report.Uploaded == 0 && len(entries) > 0 {
				return fmt.Errorf("no entries uploaded")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file of entries to upload")
	cmd.Flags().BoolVar(&useBuiltin, "builtin", false, "upload the built-in seed entries")
	cmd.Flags().BoolVar(&embed, "embeddings", false, "compute embeddings for each entry")
	cmd.Flags().IntVar(&batchSize, "batch-size", knowledgex.DefaultBatchSize, "entries per batch")
	cmd.MarkFlagsMutuallyExclusive("file", "builtin")
	cmd.MarkFlagsOneRequired("file", "builtin")
	return cmd
}

func loadEntries(file string, builtin bool) ([]knowledgex.Entry, error) {
	if builtin {
		return seedEntries()
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	var entries []knowledgex.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return entries, nil
}

func embeddingOptions(cmd *cobra.Command) ([]knowledgex.IngestOption, func(), error) {
	llmCfg, err := configx.New[llmx.Config]("AZURE_OPENAI")
	if err != nil {
		return nil, nil, err
	}
	if !llmCfg.Configured() {
		return nil, nil, fmt.Errorf("--embeddings needs AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY: %w", embeddingx.ErrUnavailable)
	}
	cacheCfg, err := configx.New[embeddingx.CacheConfig]("")
	if err != nil {
		return nil, nil, err
	}
	backend, err := configx.New[backendConfig]("")
	if err != nil {
		return nil, nil, err
	}

	azureEmbedder := llmx.NewEmbedder(*llmCfg)
	embedder, closeCache := embeddingx.WithRedisCache(cmd.Context(), azureEmbedder, azureEmbedder.Model(), *cacheCfg)
	res := &closers{closeCache}

	opts := []knowledgex.IngestOption{knowledgex.WithEmbeddings(embedder)}
	if strings.EqualFold(strings.TrimSpace(backend.VectorBackend), knowledgex.BackendQdrant) {
		points, err := openPoints(cmd, res)
		if err != nil {
			res.closeAll()
			return nil, nil, err
		}
		opts = append(opts, knowledgex.WithPoints(points))
	}
	return opts, res.closeAll, nil
}

func openPoints(cmd *cobra.Command, res *closers) (*vectorstore.Qdrant, error) {
	qCfg, err := configx.New[vectorstore.Config]("QDRANT")
	if err != nil {
		return nil, err
	}
	q, err := vectorstore.NewQdrant(*qCfg)
	if err != nil {
		return nil, err
	}
	*res = append(*res, q.Close)
	if err := q.EnsureCollection(cmd.Context(), qCfg.Dimension); err != nil {
		return nil, err
	}
	return q, nil
}

// closers releases everything opened for an upload, last opened first.
type closers []func() error

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}
