package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	agentclientx "github.com/tanpawarit/healthcare-assistant/agent/agentclient"
	orchestratorx "github.com/tanpawarit/healthcare-assistant/agent/agents/orchestrator"
	"github.com/tanpawarit/healthcare-assistant/agent/httpapi"
	llmx "github.com/tanpawarit/healthcare-assistant/agent/llm"
	plannerx "github.com/tanpawarit/healthcare-assistant/agent/planner"
	promptx "github.com/tanpawarit/healthcare-assistant/agent/prompt"
	synthesizerx "github.com/tanpawarit/healthcare-assistant/agent/synthesizer"
	configx "github.com/tanpawarit/healthcare-assistant/pkg/config"
	logx "github.com/tanpawarit/healthcare-assistant/pkg/logger"
	_ "github.com/tanpawarit/healthcare-assistant/pkg/logger/autoload"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

type AppConfig struct {
	Addr string `envconfig:"ORCHESTRATOR_ADDR" default:":8080"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logx.WithService("orchestrator")
	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("orchestrator stopped")
	}
	logger.Info().Msg("orchestrator stopped")
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("AZURE_OPENAI")
	clientCfg := configx.MustNew[agentclientx.Config]("")

	metrics := metricsx.Default()
	prompts := promptx.LoadPromptSet()

	plannerModel, err := llmx.NewChatModel(ctx, *llmCfg, llmx.RolePlanner)
	if err != nil {
		return err
	}
	planner, err := plannerx.New(ctx, plannerModel, prompts.Planner, plannerx.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}

	synthModel, err := llmx.NewChatModel(ctx, *llmCfg, llmx.RoleSynthesizer)
	if err != nil {
		return err
	}
	synth, err := synthesizerx.New(ctx, synthModel, prompts.Synthesizer, synthesizerx.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("synthesizer: %w", err)
	}

	client, err := agentclientx.New(*clientCfg, agentclientx.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("agent client: %w", err)
	}

	orch, err := orchestratorx.New(planner, client, synth)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	return httpapi.Run(ctx, appCfg.Addr, httpapi.NewOrchestratorRouter(orch, metrics))
}
