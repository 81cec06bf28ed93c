package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	bookingx "github.com/tanpawarit/healthcare-assistant/agent/agents/booking"
	knowledgex "github.com/tanpawarit/healthcare-assistant/agent/agents/knowledge"
	symptomx "github.com/tanpawarit/healthcare-assistant/agent/agents/symptom"
	"github.com/tanpawarit/healthcare-assistant/agent/httpapi"
	llmx "github.com/tanpawarit/healthcare-assistant/agent/llm"
	promptx "github.com/tanpawarit/healthcare-assistant/agent/prompt"
	"github.com/tanpawarit/healthcare-assistant/agent/store"
	configx "github.com/tanpawarit/healthcare-assistant/pkg/config"
	embeddingx "github.com/tanpawarit/healthcare-assistant/pkg/embedding"
	logx "github.com/tanpawarit/healthcare-assistant/pkg/logger"
	_ "github.com/tanpawarit/healthcare-assistant/pkg/logger/autoload"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
	"github.com/tanpawarit/healthcare-assistant/pkg/vectorstore"
)

type AppConfig struct {
	Addr          string `envconfig:"AGENTS_ADDR" default:":7071"`
	VectorBackend string `envconfig:"KNOWLEDGE_VECTOR_BACKEND" default:"pgvector"`
	AutoMigrate   bool   `envconfig:"DATABASE_AUTO_MIGRATE" default:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logx.WithService("agents")
	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("agents stopped")
	}
	logger.Info().Msg("agents stopped")
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("AZURE_OPENAI")
	dbCfg := configx.MustNew[store.Config]("DATABASE")
	cacheCfg := configx.MustNew[embeddingx.CacheConfig]("")
	keys := configx.MustNew[httpapi.FunctionKeys]("")

	metrics := metricsx.Default()
	prompts := promptx.LoadPromptSet()

	db, err := store.Open(*dbCfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if appCfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	parserModel, err := llmx.NewChatModel(ctx, *llmCfg, llmx.RoleSymptomParser)
	if err != nil {
		return err
	}
	parser, err := symptomx.New(ctx, parserModel, prompts.SymptomParser, symptomx.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("symptom parser: %w", err)
	}

	knowledgeOpts := []knowledgex.Option{knowledgex.WithMetrics(metrics)}
	if llmCfg.Configured() {
		azureEmbedder := llmx.NewEmbedder(*llmCfg)
		embedder, closeCache := embeddingx.WithRedisCache(ctx, azureEmbedder, azureEmbedder.Model(), *cacheCfg)
		defer closeCache()

		index, closeIndex, err := vectorIndex(*appCfg, db)
		if err != nil {
			return err
		}
		defer closeIndex()
		knowledgeOpts = append(knowledgeOpts, knowledgex.WithVectorSearch(embedder, index))
	} else {
		log.Warn().Msg("embeddings not configured, knowledge search uses text tiers only")
	}
	retriever, err := knowledgex.New(db, knowledgeOpts...)
	if err != nil {
		return err
	}

	booking, err := bookingx.New(db, bookingx.WithMetrics(metrics))
	if err != nil {
		return err
	}

	router := httpapi.NewAgentsRouter(httpapi.AgentServices{
		Parser:    parser,
		Knowledge: retriever,
		Booking:   booking,
	}, *keys, metrics)
	return httpapi.Run(ctx, appCfg.Addr, router)
}

func vectorIndex(cfg AppConfig, db *store.Store) (knowledgex.VectorIndex, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.VectorBackend)) {
	case "", knowledgex.BackendPGVector:
		return knowledgex.PGVector{Store: db}, func() error { return nil }, nil
	case knowledgex.BackendQdrant:
		qcfg := configx.MustNew[vectorstore.Config]("QDRANT")
		q, err := vectorstore.NewQdrant(*qcfg)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("collection", q.Collection()).Msg("knowledge vectors served by qdrant")
		return knowledgex.Qdrant{Client: q}, q.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown KNOWLEDGE_VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}
