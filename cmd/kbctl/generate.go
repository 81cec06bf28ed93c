package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	knowledgex "github.com/tanpawarit/healthcare-assistant/agent/agents/knowledge"
)

//go:embed seed.json
var seedJSON []byte

func seedEntries() ([]knowledgex.Entry, error) {
	var entries []knowledgex.Entry
	if err := json.Unmarshal(seedJSON, &entries); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return entries, nil
}

func newGenerateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the built-in seed entries as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := seedEntries()
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, append(raw, '\n'), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Generated %d entries in %s\n", len(entries), out)
			for _, line := range categorySummary(entries) {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "rag_entries.json", "output file")
	return cmd
}

func categorySummary(entries []knowledgex.Entry) []string {
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Category]++
	}
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	lines := make([]string, len(cats))
	for i, c := range cats {
		lines[i] = fmt.Sprintf("  %s: %d", c, counts[c])
	}
	return lines
}
