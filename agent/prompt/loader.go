package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/planner.txt
	plannerRaw string

	//go:embed template/synthesizer.txt
	synthesizerRaw string

	//go:embed template/symptom_parser.txt
	symptomParserRaw string
)

// PromptSet holds system prompts. They are Go templates; the planner prompt
// expects an "agents" variable.
type PromptSet struct {
	Planner       string
	Synthesizer   string
	SymptomParser string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Planner:       strings.TrimSpace(plannerRaw),
		Synthesizer:   strings.TrimSpace(synthesizerRaw),
		SymptomParser: strings.TrimSpace(symptomParserRaw),
	}
}
