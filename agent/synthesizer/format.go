package synthesizer

import (
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

const (
	maxKnowledgeItems = 3
	maxContentRunes   = 300
	maxSlots          = 10

	parserApology     = "I'm sorry, I had trouble understanding your symptoms. Could you describe them again in a bit more detail?"
	knowledgeApology  = "I'm sorry, I couldn't search the health information library right now. Please try again in a moment."
	knowledgeMissing  = "I couldn't find specific information about that in my knowledge base. Please consult a healthcare professional for personalized advice."
	medicalDisclaimer = "⚠️ This information is for general educational purposes only and is not a substitute for professional medical advice. Please consult a healthcare provider about your specific situation."

	symptomSuggestion = "Here are some general suggestions:\n" +
		"• Rest and stay hydrated\n" +
		"• Keep track of when your symptoms occur and how they change\n" +
		"• Seek medical attention if your symptoms worsen or you feel seriously unwell"
	questionSuggestion    = "I can look up more information about this for you. Just let me know what you'd like to know."
	appointmentSuggestion = "Would you like me to help you book an appointment with a healthcare provider? Let me know a date and time that works for you."
)

var intentSuggestions = map[string]string{
	contractx.IntentSymptomReport:      symptomSuggestion,
	contractx.IntentQuestion:           questionSuggestion,
	contractx.IntentAppointmentRequest: appointmentSuggestion,
}

// FormatResult renders one agent result without a model.
func FormatResult(r contractx.AgentResult) string {
	switch r.Agent {
	case contractx.AgentParser:
		return formatParser(r.Data)
	case contractx.AgentKnowledge:
		return formatKnowledge(r.Data)
	case contractx.AgentBooking:
		return formatBooking(r.Data)
	default:
		return rawDump(r.Data)
	}
}

// Format renders every result in order. A single result is returned as is;
// several are separated by one blank line.
func Format(results []contractx.AgentResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, FormatResult(r))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts, "\n\n")
}

func formatParser(data map[string]any) string {
	if _, ok := data["error"]; ok {
		return parserApology
	}

	var b strings.Builder
	symptoms := stringSlice(data["symptoms"])
	if len(symptoms) > 0 {
		b.WriteString("I understand you're experiencing ")
		b.WriteString(JoinSymptoms(symptoms))
		b.WriteString(".")
	} else {
		b.WriteString("Thank you for sharing that with me.")
	}

	if severity := stringValue(data["severity"]); severity != "" {
		fmt.Fprintf(&b, " You've described the severity as %s.", severity)
	}
	if duration := stringValue(data["duration"]); duration != "" {
		fmt.Fprintf(&b, " This has been going on for %s.", duration)
	}

	if suggestion, ok := intentSuggestions[stringValue(data["primary_intent"])]; ok {
		b.WriteString("\n\n")
		b.WriteString(suggestion)
	}
	return b.String()
}

// JoinSymptoms applies English list grammar: "a X", "X and Y", "X, Y, and Z".
func JoinSymptoms(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return "a " + items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func formatKnowledge(data map[string]any) string {
	if _, ok := data["error"]; ok {
		return knowledgeApology
	}

	results := mapSlice(data["results"])
	if len(results) == 0 {
		return knowledgeMissing
	}

	var b strings.Builder
	b.WriteString("Here's some information that may help:\n")
	for i, item := range results {
		if i >= maxKnowledgeItems {
			break
		}
		fmt.Fprintf(&b, "\n%d. **%s**\n%s\n", i+1, stringValue(item["title"]), Truncate(stringValue(item["content"]), maxContentRunes))
	}
	b.WriteString("\n")
	b.WriteString(medicalDisclaimer)
	return b.String()
}

// Truncate cuts s to n runes and appends "..." when it was longer.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func formatBooking(data map[string]any) string {
	_, hasError := data["error"]
	_, hasMessage := data["message"]
	_, hasSlots := data["available_slots"]

	switch {
	case hasError && hasMessage && hasSlots:
		return formatBookingPrompt(data)
	case hasError:
		return "I'm sorry, there was a problem with your appointment request: " + stringValue(data["error"])
	case truthy(data["success"]):
		msg := "✅ " + stringValue(data["message"])
		if id := stringValue(data["appointment_id"]); id != "" {
			msg += "\nYour appointment ID is " + id + "."
		}
		return msg
	case hasSlots:
		return formatAvailability(data)
	default:
		if _, ok := data["appointments"]; ok {
			return formatAppointments(data)
		}
		return rawDump(data)
	}
}

func formatBookingPrompt(data map[string]any) string {
	var b strings.Builder
	b.WriteString(stringValue(data["message"]))
	if date := stringValue(data["suggested_date"]); date != "" {
		fmt.Fprintf(&b, "\n\nAvailable times on %s:", date)
	}
	b.WriteString("\n")
	b.WriteString(numberedSlots(stringSlice(data["available_slots"])))
	if instr := stringValue(data["instructions"]); instr != "" {
		b.WriteString("\n\n")
		b.WriteString(instr)
	}
	return b.String()
}

func formatAvailability(data map[string]any) string {
	date := stringValue(data["date"])
	slots := stringSlice(data["available_slots"])
	if len(slots) == 0 {
		return fmt.Sprintf("I'm sorry, there are no available slots on %s. Would you like to try another date?", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the available appointment times on %s", date)
	if doctor := stringValue(data["doctor"]); doctor != "" {
		fmt.Fprintf(&b, " with %s", doctor)
	}
	b.WriteString(":\n")
	b.WriteString(numberedSlots(slots))
	b.WriteString("\n\nWhich time works best for you?")
	return b.String()
}

func formatAppointments(data map[string]any) string {
	appts := mapSlice(data["appointments"])
	count := len(appts)
	if _, ok := data["count"]; ok {
		count = intValue(data["count"])
	}
	if count == 0 || len(appts) == 0 {
		return "You don't have any upcoming appointments."
	}

	var b strings.Builder
	b.WriteString("Here are your upcoming appointments:")
	for _, a := range appts {
		fmt.Fprintf(&b, "\n• %s at %s with %s (%s)",
			stringValue(a["date"]), stringValue(a["time"]), stringValue(a["doctor"]), stringValue(a["status"]))
	}
	return b.String()
}

func numberedSlots(slots []string) string {
	if len(slots) > maxSlots {
		slots = slots[:maxSlots]
	}
	lines := make([]string, 0, len(slots))
	for i, s := range slots {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, s))
	}
	return strings.Join(lines, "\n")
}

func rawDump(data map[string]any) string {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprint(data)
	}
	return string(raw)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return fmt.Sprint(t)
	}
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func mapSlice(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func intValue(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	case float64:
		return t != 0
	default:
		return v != nil
	}
}
