package contract

import (
	"fmt"
	"strings"
	"time"
)

type AgentName string

const (
	AgentParser    AgentName = "agent1_parser"
	AgentKnowledge AgentName = "agent2_knowledge"
	AgentBooking   AgentName = "agent3_booking"
)

// AgentNames lists the closed agent set in planning order.
var AgentNames = []AgentName{AgentParser, AgentKnowledge, AgentBooking}

func ParseAgentName(raw string) (AgentName, error) {
	name := AgentName(strings.TrimSpace(raw))
	switch name {
	case AgentParser, AgentKnowledge, AgentBooking:
		return name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAgent, raw)
	}
}

func (n AgentName) String() string {
	return string(n)
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryWindow is how many trailing turns model prompts include.
const HistoryWindow = 5

// FormatHistory renders the last n turns as "role: content" lines.
func FormatHistory(history []Turn, n int) string {
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	lines := make([]string, 0, len(history))
	for _, t := range history {
		role := strings.TrimSpace(t.Role)
		if role == "" {
			role = "user"
		}
		lines = append(lines, role+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

type ExecutionStep struct {
	AgentName AgentName      `json:"agent_name"`
	InputData map[string]any `json:"input_data"`
	Reasoning string         `json:"reasoning"`
}

type ExecutionPlan struct {
	Steps     []ExecutionStep `json:"steps"`
	Reasoning string          `json:"reasoning"`
}

// AgentResult is the normalized envelope of one agent call. Data may carry an
// "error" key even when Status is success; that is an agent-local failure.
type AgentResult struct {
	Agent  AgentName      `json:"agent"`
	Data   map[string]any `json:"data"`
	Status Status         `json:"status"`
}

func (r AgentResult) OK() bool {
	return r.Status == StatusSuccess
}

func ErrorResult(agent AgentName, msg string) AgentResult {
	return AgentResult{
		Agent:  agent,
		Data:   map[string]any{"error": msg},
		Status: StatusError,
	}
}

const (
	IntentSymptomReport      = "symptom_report"
	IntentQuestion           = "question"
	IntentAppointmentRequest = "appointment_request"
	IntentUnknown            = "unknown"
)

type ParsedSymptoms struct {
	PrimaryIntent     string         `json:"primary_intent"`
	Symptoms          []string       `json:"symptoms"`
	Severity          string         `json:"severity,omitempty"`
	Duration          string         `json:"duration,omitempty"`
	AdditionalContext map[string]any `json:"additional_context,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// KnowledgeItem scores are not comparable across retrieval tiers.
type KnowledgeItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Category        string  `json:"category"`
	SimilarityScore float64 `json:"similarity_score"`
}

const (
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Doctor    string    `json:"doctor"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
