package contract

import (
	"errors"
	"testing"
)

func TestParseAgentName(t *testing.T) {
	t.Parallel()

	for _, want := range AgentNames {
		got, err := ParseAgentName(" " + string(want) + " ")
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", want, err)
		}
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestParseAgentNameUnknown(t *testing.T) {
	t.Parallel()

	_, err := ParseAgentName("agent4_billing")
	if !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestErrorResult(t *testing.T) {
	t.Parallel()

	res := ErrorResult(AgentBooking, "boom")
	if res.OK() {
		t.Fatal("error result must not be ok")
	}
	if res.Data["error"] != "boom" {
		t.Fatalf("unexpected data: %#v", res.Data)
	}
}

func TestFormatHistory(t *testing.T) {
	t.Parallel()

	got := FormatHistory([]Turn{{Role: "user", Content: "a"}, {Content: "b"}, {Role: "assistant", Content: "c"}}, 2)
	if got != "user: b\nassistant: c" {
		t.Fatalf("unexpected history: %q", got)
	}
	if FormatHistory(nil, HistoryWindow) != "" {
		t.Fatal("empty history must render empty")
	}
}
