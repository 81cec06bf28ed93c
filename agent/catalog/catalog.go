package catalog

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

type Param struct {
	Name     string
	Type     schema.DataType
	Desc     string
	Required bool
}

// Entry describes one specialized agent: where it lives and what it accepts.
type Entry struct {
	Name     contractx.AgentName
	Endpoint string
	Desc     string
	Params   []Param
}

var entries = []Entry{
	{
		Name:     contractx.AgentParser,
		Endpoint: "symptom_interpreter_parser",
		Desc:     "Symptom Interpreter & Parser. Extracts symptoms, intent, severity and duration from natural language.",
		Params: []Param{
			{Name: "text", Type: schema.String, Desc: "the user's symptom description", Required: true},
		},
	},
	{
		Name:     contractx.AgentKnowledge,
		Endpoint: "knowledge_retrieval_agent",
		Desc:     "Knowledge Retrieval Agent. Searches the healthcare knowledge base for relevant medical information.",
		Params: []Param{
			{Name: "query", Type: schema.String, Desc: "search query", Required: true},
			{Name: "top_k", Type: schema.Integer, Desc: "number of results, default 3"},
		},
	},
	{
		Name:     contractx.AgentBooking,
		Endpoint: "appointment_followup_agent",
		Desc:     "Appointment & Follow-up Agent. Checks availability, books, cancels and lists appointments.",
		Params: []Param{
			{Name: "query", Type: schema.String, Desc: "appointment request", Required: true},
			{Name: "user_id", Type: schema.String, Desc: "user id"},
			{Name: "date", Type: schema.String, Desc: "YYYY-MM-DD"},
			{Name: "time", Type: schema.String, Desc: "HH:MM"},
			{Name: "doctor", Type: schema.String, Desc: "doctor name"},
			{Name: "reason", Type: schema.String, Desc: "visit reason"},
			{Name: "appointment_id", Type: schema.String, Desc: "appointment to cancel"},
		},
	},
}

func All() []Entry {
	return append([]Entry(nil), entries...)
}

func Lookup(name contractx.AgentName) (Entry, error) {
	for _, e := range entries {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", contractx.ErrUnknownAgent, name)
}

// RequiredField is the input key the agent's endpoint rejects requests without.
func (e Entry) RequiredField() string {
	for _, p := range e.Params {
		if p.Required {
			return p.Name
		}
	}
	return ""
}

func (e Entry) ToolInfo() *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(e.Params))
	for _, p := range e.Params {
		params[p.Name] = &schema.ParameterInfo{Type: p.Type, Desc: p.Desc, Required: p.Required}
	}
	return &schema.ToolInfo{
		Name:        string(e.Name),
		Desc:        e.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func ToolInfos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToolInfo())
	}
	return out
}

// ValidateInput checks that input carries the agent's required field as a
// non-blank string.
func ValidateInput(name contractx.AgentName, input map[string]any) error {
	entry, err := Lookup(name)
	if err != nil {
		return err
	}
	field := entry.RequiredField()
	if field == "" {
		return nil
	}
	v, ok := input[field].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s requires %q", contractx.ErrSchemaViolation, name, field)
	}
	return nil
}

// Describe renders the agent list for the planner prompt.
func Describe() string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, e.Name, e.Desc)
		b.WriteString("   Input: {")
		for j, p := range e.Params {
			if j > 0 {
				b.WriteString(", ")
			}
			opt := ""
			if !p.Required {
				opt = " (optional)"
			}
			fmt.Fprintf(&b, "%q: <%s>%s", p.Name, p.Desc, opt)
		}
		b.WriteString("}\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
