package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	"github.com/tanpawarit/healthcare-assistant/agent/llm/llmtest"
	embeddingx "github.com/tanpawarit/healthcare-assistant/pkg/embedding"
)

func TestAzureForRoleOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Endpoint:               "https://x.openai.azure.com",
		APIKey:                 "k",
		Deployment:             "gpt-4",
		Temperature:            0.3,
		PlannerDeployment:      "gpt-4o",
		PlannerTemperature:     0,
		SynthesizerTemperature: -1,
		ParserTemperature:      -1,
	}

	planner := cfg.AzureFor(RolePlanner)
	if planner.Deployment != "gpt-4o" || planner.Temperature != 0 || !planner.JSONMode {
		t.Fatalf("unexpected planner config: %+v", planner)
	}

	synth := cfg.AzureFor(RoleSynthesizer)
	if synth.Deployment != "gpt-4" || synth.Temperature != 0.3 || synth.JSONMode {
		t.Fatalf("unexpected synthesizer config: %+v", synth)
	}

	parser := cfg.AzureFor(RoleSymptomParser)
	if !parser.JSONMode {
		t.Fatal("parser must run in json mode")
	}
}

func TestConfigured(t *testing.T) {
	t.Parallel()

	if (Config{Endpoint: "e"}).Configured() {
		t.Fatal("expected unconfigured without key")
	}
	if !(Config{Endpoint: "e", APIKey: "k"}).Configured() {
		t.Fatal("expected configured")
	}
}

func TestRepairJSONStripsFenceAndFixes(t *testing.T) {
	t.Parallel()

	msg := schema.AssistantMessage("```json\n{\"reasoning\": 'ok', \"steps\": [],}\n```", nil)
	out, err := RepairJSON(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.Content, "{") || strings.Contains(out.Content, "```") {
		t.Fatalf("unexpected repaired content: %s", out.Content)
	}
	if msg.Content == out.Content {
		t.Fatal("input message must not be mutated")
	}
}

func TestRepairJSONEmpty(t *testing.T) {
	t.Parallel()

	_, err := RepairJSON(context.Background(), schema.AssistantMessage("  ", nil))
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

type sample struct {
	Reasoning string `json:"reasoning"`
	Count     int    `json:"count"`
}

func TestStructuredGraphSubstitutesVariables(t *testing.T) {
	t.Parallel()

	fake := &llmtest.ChatModel{Responses: []string{"```json\n{\"reasoning\":\"r\",\"count\":2}\n```"}}
	runner, err := CompileStructuredGraph[sample](context.Background(), fake, "Agents:\n{{.agents}}", "test.structured")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	out, err := runner.Invoke(context.Background(), map[string]any{
		"agents": "agent1_parser",
		InputKey: "I have {{a}} headache",
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out.Count != 2 || out.Reasoning != "r" {
		t.Fatalf("unexpected output: %+v", out)
	}

	in := fake.LastInput()
	if len(in) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(in))
	}
	if in[0].Content != "Agents:\nagent1_parser" {
		t.Fatalf("unexpected system message: %q", in[0].Content)
	}
	if in[1].Content != "I have {{a}} headache" {
		t.Fatalf("user input must pass through verbatim, got %q", in[1].Content)
	}
}

func TestStructuredGraphRequiresPrompt(t *testing.T) {
	t.Parallel()

	_, err := CompileStructuredGraph[sample](context.Background(), &llmtest.ChatModel{}, " ", "test.empty")
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}

func TestTextGraph(t *testing.T) {
	t.Parallel()

	fake := &llmtest.ChatModel{Responses: []string{"  Hello there.  ", ""}}
	runner, err := CompileTextGraph(context.Background(), fake, "Be kind.", "test.text")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	out, err := runner.Invoke(context.Background(), map[string]any{InputKey: "hi"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out != "Hello there." {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := runner.Invoke(context.Background(), map[string]any{InputKey: "hi"}); err == nil {
		t.Fatal("expected error for empty reply")
	}
}

func TestNewChatModelUnconfigured(t *testing.T) {
	t.Parallel()

	m, err := NewChatModel(context.Background(), Config{}, RolePlanner)
	if err != nil || m != nil {
		t.Fatalf("expected nil model without error, got %v %v", m, err)
	}
}

func TestNewEmbedderUnconfigured(t *testing.T) {
	t.Parallel()

	_, err := NewEmbedder(Config{EmbeddingDeployment: "ada"}).Embed(context.Background(), []string{"x"})
	if !errors.Is(err, embeddingx.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
