package symptom

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	"github.com/tanpawarit/healthcare-assistant/agent/llm/llmtest"
)

func newParser(t *testing.T, responses ...string) (*Parser, *llmtest.ChatModel) {
	t.Helper()
	fake := &llmtest.ChatModel{Responses: responses}
	p, err := New(context.Background(), fake, "Extract symptoms.")
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}
	return p, fake
}

func TestParseStructuredOutput(t *testing.T) {
	t.Parallel()

	p, fake := newParser(t, `{"primary_intent":"symptom_report","symptoms":["headache"," fever "],"severity":"moderate","duration":"2 days","additional_context":{"age":30}}`)

	got := p.Parse(context.Background(), "I've had a headache and fever for 2 days")
	if got.PrimaryIntent != contractx.IntentSymptomReport {
		t.Fatalf("unexpected intent: %q", got.PrimaryIntent)
	}
	if len(got.Symptoms) != 2 || got.Symptoms[1] != "fever" {
		t.Fatalf("unexpected symptoms: %v", got.Symptoms)
	}
	if got.Severity != "moderate" || got.Duration != "2 days" || got.Error != "" {
		t.Fatalf("unexpected parse: %+v", got)
	}
	if got.AdditionalContext["age"] != float64(30) {
		t.Fatalf("unexpected context: %v", got.AdditionalContext)
	}

	in := fake.LastInput()
	if len(in) != 2 || in[1].Content != "I've had a headache and fever for 2 days" {
		t.Fatalf("unexpected model input: %+v", in)
	}
}

func TestParseRepairsSloppyJSON(t *testing.T) {
	t.Parallel()

	p, _ := newParser(t, "```json\n{primary_intent: 'question', symptoms: [],}\n```")

	got := p.Parse(context.Background(), "what is a migraine")
	if got.PrimaryIntent != contractx.IntentQuestion || got.Error != "" {
		t.Fatalf("unexpected parse: %+v", got)
	}
	if got.Symptoms == nil || len(got.Symptoms) != 0 {
		t.Fatalf("expected empty non-nil symptoms, got %#v", got.Symptoms)
	}
}

func TestParseSchemaViolationFallsBack(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing intent":   `{"symptoms":["cough"]}`,
		"missing symptoms": `{"primary_intent":"symptom_report"}`,
		"blank intent":     `{"primary_intent":"  ","symptoms":[]}`,
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, _ := newParser(t, resp)
			got := p.Parse(context.Background(), "cough")
			if got.PrimaryIntent != contractx.IntentUnknown || len(got.Symptoms) != 0 {
				t.Fatalf("expected unknown fallback, got %+v", got)
			}
			if got.Error == "" {
				t.Fatal("expected error message on fallback")
			}
		})
	}
}

func TestParseModelErrorFallsBack(t *testing.T) {
	t.Parallel()

	fake := &llmtest.ChatModel{Err: errors.New("deployment not found")}
	p, err := New(context.Background(), fake, "Extract symptoms.")
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}

	got := p.Parse(context.Background(), "my back hurts")
	if got.PrimaryIntent != contractx.IntentUnknown {
		t.Fatalf("unexpected intent: %q", got.PrimaryIntent)
	}
	if !strings.Contains(got.Error, "deployment not found") {
		t.Fatalf("expected model error in result, got %q", got.Error)
	}
}

func TestParseWithoutModel(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}
	got := p.Parse(context.Background(), "fever")
	if got.PrimaryIntent != contractx.IntentUnknown || got.Error != contractx.ErrModelUnavailable.Error() {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestToParsedSymptomsDropsBlankEntries(t *testing.T) {
	t.Parallel()

	intent := "symptom_report"
	got, err := toParsedSymptoms(llmSymptoms{PrimaryIntent: &intent, Symptoms: []string{"", "nausea", "  "}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Symptoms) != 1 || got.Symptoms[0] != "nausea" {
		t.Fatalf("unexpected symptoms: %v", got.Symptoms)
	}
}
