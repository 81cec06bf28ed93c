package booking

import "strings"

type Flow string

const (
	FlowBook         Flow = "book"
	FlowAvailability Flow = "availability"
	FlowCancel       Flow = "cancel"
	FlowList         Flow = "list"
)

type flowRule struct {
	flow     Flow
	keywords []string
}

// Evaluated in order, first match wins.
var flowRules = []flowRule{
	{flow: FlowBook, keywords: []string{"book", "schedule", "setup", "set up"}},
	{flow: FlowAvailability, keywords: []string{"available", "availability"}},
	{flow: FlowCancel, keywords: []string{"cancel"}},
	{flow: FlowList, keywords: []string{"list", "show", "my appointments"}},
}

// DetectFlow picks the flow for query, defaulting to availability.
func DetectFlow(query string) Flow {
	q := strings.ToLower(query)
	for _, rule := range flowRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.flow
			}
		}
	}
	return FlowAvailability
}

// SlotTemplate is the fixed daily schedule. Lunch runs 12:00 to 13:00.
var SlotTemplate = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00",
}

// AvailableSlots returns the template slots not present in booked, in
// template order.
func AvailableSlots(booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	out := make([]string, 0, len(SlotTemplate))
	for _, slot := range SlotTemplate {
		if _, ok := taken[slot]; !ok {
			out = append(out, slot)
		}
	}
	return out
}

func isTemplateSlot(t string) bool {
	for _, slot := range SlotTemplate {
		if slot == t {
			return true
		}
	}
	return false
}
