package main

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	knowledgex "github.com/tanpawarit/healthcare-assistant/agent/agents/knowledge"
)

func TestSeedEntries(t *testing.T) {
	t.Parallel()

	entries, err := seedEntries()
	if err != nil {
		t.Fatalf("seedEntries: %v", err)
	}
	if len(entries) < 20 {
		t.Fatalf("expected a usable seed set, got %d entries", len(entries))
	}

	allowed := map[string]bool{
		"symptoms": true, "treatments": true, "appointments": true, "conditions": true,
		"prevention": true, "medications": true, "general": true,
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Content) == "" {
			t.Fatalf("entry missing title or content: %+v", e)
		}
		if !allowed[e.Category] {
			t.Fatalf("unexpected category %q on %q", e.Category, e.Title)
		}
		if seen[e.Title] {
			t.Fatalf("duplicate title %q", e.Title)
		}
		seen[e.Title] = true
	}
}

func TestCategorySummary(t *testing.T) {
	t.Parallel()

	got := categorySummary([]knowledgex.Entry{
		{Category: "symptoms"}, {Category: "conditions"}, {Category: "symptoms"},
	})
	want := []string{"  conditions: 1", "  symptoms: 2"}
	if len(got) != len(want) {
		t.Fatalf("summary = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("summary[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGenerateWritesSeedFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "entries.json")

	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"generate", "--out", out})
	if err := root.Execute(); err != nil {
		t.Fatalf("generate: %v", err)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var written []knowledgex.Entry
	if err := json.Unmarshal(raw, &written); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	seed, _ := seedEntries()
	if len(written) != len(seed) {
		t.Fatalf("wrote %d entries, want %d", len(written), len(seed))
	}
	if !strings.Contains(stdout.String(), "Generated") {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}

func TestLoadEntriesFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(path, []byte(`[{"title":"Fever","content":"Rest.","category":"symptoms"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries, err := loadEntries(path, false)
	if err != nil {
		t.Fatalf("loadEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Fever" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if _, err := loadEntries(filepath.Join(t.TempDir(), "missing.json"), false); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, name := range []string{"migrate", "generate", "upload", "similarity"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %q not registered: %v", name, err)
		}
	}
}

func TestClosersRunInReverseAndContinue(t *testing.T) {
	t.Parallel()

	var order []string
	c := closers{
		func() error { order = append(order, "cache"); return nil },
		func() error { order = append(order, "qdrant"); return errors.New("already closed") },
	}
	c.closeAll()
	if strings.Join(order, ",") != "qdrant,cache" {
		t.Fatalf("unexpected close order %v", order)
	}
}

func TestOpenPointsKeepsCloserOnFailure(t *testing.T) {
	t.Setenv("QDRANT_HOST", "127.0.0.1")
	t.Setenv("QDRANT_PORT", "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	var cacheClosed bool
	res := &closers{func() error { cacheClosed = true; return nil }}
	if _, err := openPoints(cmd, res); err == nil {
		t.Fatalf("expected EnsureCollection to fail on a cancelled context")
	}
	if len(*res) != 2 {
		t.Fatalf("expected the qdrant connection to be tracked, got %d closers", len(*res))
	}
	res.closeAll()
	if !cacheClosed {
		t.Fatalf("cache was not closed")
	}
}
