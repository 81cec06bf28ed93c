package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
)

type memStore struct {
	mu        sync.Mutex
	appts     []contractx.Appointment
	bookedErr error
	panicMsg  string
}

func (m *memStore) BookedTimes(_ context.Context, date, doctor string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.bookedErr != nil {
		return nil, m.bookedErr
	}
	var out []string
	for _, a := range m.appts {
		if a.Date == date && a.Doctor == doctor && a.Status == contractx.AppointmentScheduled {
			out = append(out, a.Time)
		}
	}
	return out, nil
}

func (m *memStore) InsertAppointment(_ context.Context, appt contractx.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.Date == appt.Date && a.Time == appt.Time && a.Doctor == appt.Doctor && a.Status == contractx.AppointmentScheduled {
			return fmt.Errorf("%w: taken", contractx.ErrSlotTaken)
		}
	}
	m.appts = append(m.appts, appt)
	return nil
}

func (m *memStore) CancelAppointment(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.appts {
		if a.ID == id && a.UserID == userID {
			m.appts[i].Status = contractx.AppointmentCancelled
			return nil
		}
	}
	return fmt.Errorf("%w: %s", contractx.ErrNotFound, id)
}

func (m *memStore) ListAppointments(_ context.Context, userID string) ([]contractx.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []contractx.Appointment
	for _, a := range m.appts {
		if a.UserID == userID && a.Status != contractx.AppointmentCancelled {
			out = append(out, a)
		}
	}
	return out, nil
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 15, 0, time.UTC)

func newAgent(t *testing.T, store Store) *Agent {
	t.Helper()
	a, err := New(store, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}
	return a
}

func TestDetectFlow(t *testing.T) {
	t.Parallel()

	cases := map[string]Flow{
		"Can I book a visit?":                 FlowBook,
		"please set up a checkup":             FlowBook,
		"schedule and show availability":      FlowBook,
		"Is Dr. Lee available tomorrow?":      FlowAvailability,
		"cancel my appointment":               FlowCancel,
		"show my appointments":                FlowList,
		"what are my appointments":            FlowList,
		"something unrelated":                 FlowAvailability,
		"I need to cancel, what is available": FlowAvailability,
	}
	for query, want := range cases {
		if got := DetectFlow(query); got != want {
			t.Fatalf("DetectFlow(%q) = %s, want %s", query, got, want)
		}
	}
}

func TestAvailableSlotsSubtractsBooked(t *testing.T) {
	t.Parallel()

	if len(SlotTemplate) != 13 {
		t.Fatalf("expected 13 template slots, got %d", len(SlotTemplate))
	}
	got := AvailableSlots([]string{"09:00", "14:00"})
	if len(got) != 11 {
		t.Fatalf("expected 11 slots, got %d: %v", len(got), got)
	}
	for _, s := range got {
		if s == "09:00" || s == "14:00" {
			t.Fatalf("booked slot %s still listed", s)
		}
	}
	if got[0] != "09:30" || got[len(got)-1] != "16:00" {
		t.Fatalf("expected template order, got %v", got)
	}
}

func TestBookWithoutDateOrTimePrompts(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &memStore{})
	res := a.Process(context.Background(), Request{Query: "book me in"})

	if res.Error != msgDateTimeRequired || res.Message != msgBookingPrompt || res.Instructions != msgBookingHowTo {
		t.Fatalf("unexpected prompt: %+v", res)
	}
	if res.SuggestedDate != "2026-10-19" {
		t.Fatalf("expected tomorrow, got %q", res.SuggestedDate)
	}
	if res.AvailableSlots == nil || len(*res.AvailableSlots) != 10 {
		t.Fatalf("expected 10 suggested slots, got %v", res.AvailableSlots)
	}
}

func TestBookSuccessThenConflict(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	a := newAgent(t, store)
	req := Request{Query: "book an appointment", UserID: "u1", Date: "2026-10-20", Time: "10:00", Reason: "cough"}

	res := a.Process(context.Background(), req)
	if !res.Success || res.AppointmentID != "appt_20261018093015" {
		t.Fatalf("unexpected booking: %+v", res)
	}
	if res.Message != "Appointment scheduled for 2026-10-20 at 10:00 with General Practitioner" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if store.appts[0].UserID != "u1" || store.appts[0].Reason != "cough" {
		t.Fatalf("unexpected stored appointment: %+v", store.appts[0])
	}

	req.UserID = "u2"
	res = a.Process(context.Background(), req)
	if res.Error != msgSlotTaken || res.Success {
		t.Fatalf("expected slot conflict, got %+v", res)
	}
	if len(res.SuggestedTimes) != 12 {
		t.Fatalf("expected 12 suggested times, got %v", res.SuggestedTimes)
	}
}

func TestBookRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &memStore{})

	res := a.Process(context.Background(), Request{Query: "book", Date: "20/10/2026", Time: "10:00"})
	if !strings.Contains(res.Error, "Invalid date") || len(res.SuggestedTimes) == 0 {
		t.Fatalf("expected invalid date error, got %+v", res)
	}

	res = a.Process(context.Background(), Request{Query: "book", Date: "2026-10-20", Time: "12:15"})
	if !strings.Contains(res.Error, "not a bookable slot") {
		t.Fatalf("expected invalid time error, got %+v", res)
	}
}

func TestAvailabilityDefaultsAndDegrades(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &memStore{bookedErr: errors.New("db down")})
	res := a.Process(context.Background(), Request{Query: "anything open?"})

	if res.Date != "2026-10-19" || res.Doctor != DefaultDoctor {
		t.Fatalf("unexpected defaults: %+v", res)
	}
	if res.AvailableSlots == nil || len(*res.AvailableSlots) != len(SlotTemplate) {
		t.Fatalf("expected full template on store error, got %v", res.AvailableSlots)
	}
}

func TestCancelFlow(t *testing.T) {
	t.Parallel()

	store := &memStore{appts: []contractx.Appointment{
		{ID: "appt_1", UserID: "u1", Date: "2026-10-20", Time: "09:00", Doctor: DefaultDoctor, Status: contractx.AppointmentScheduled},
	}}
	a := newAgent(t, store)

	if res := a.Process(context.Background(), Request{Query: "cancel it"}); res.Error != msgIDRequired {
		t.Fatalf("expected id required, got %+v", res)
	}
	if res := a.Process(context.Background(), Request{Query: "cancel", AppointmentID: "appt_1"}); !strings.HasPrefix(res.Error, "Failed to cancel appointment") {
		t.Fatalf("expected not found for default user, got %+v", res)
	}

	res := a.Process(context.Background(), Request{Query: "cancel", AppointmentID: "appt_1", UserID: "u1"})
	if !res.Success || res.Message != "Appointment appt_1 has been cancelled" {
		t.Fatalf("unexpected cancel: %+v", res)
	}
	if store.appts[0].Status != contractx.AppointmentCancelled {
		t.Fatalf("status not flipped: %+v", store.appts[0])
	}
}

func TestListFlowEmitsCountWhenEmpty(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &memStore{})
	res := a.Process(context.Background(), Request{Query: "list my appointments", UserID: "u9"})

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["user_id"] != "u9" || body["count"] != float64(0) {
		t.Fatalf("unexpected body: %s", raw)
	}
	if appts, ok := body["appointments"].([]any); !ok || len(appts) != 0 {
		t.Fatalf("expected empty appointments array, got %s", raw)
	}
}

func TestAvailabilityEmitsEmptySlots(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	for _, slot := range SlotTemplate {
		store.appts = append(store.appts, contractx.Appointment{
			ID: "a" + slot, Date: "2026-10-22", Time: slot, Doctor: DefaultDoctor, Status: contractx.AppointmentScheduled,
		})
	}
	a := newAgent(t, store)

	raw, _ := json.Marshal(a.Process(context.Background(), Request{Query: "availability", Date: "2026-10-22"}))
	if !strings.Contains(string(raw), `"available_slots":[]`) {
		t.Fatalf("expected empty slots key, got %s", raw)
	}
}

func TestPanicBecomesEnvelope(t *testing.T) {
	t.Parallel()

	a := newAgent(t, &memStore{panicMsg: "boom"})
	res := a.Process(context.Background(), Request{Query: "available?"})

	if res.Error != "Error processing appointment request: boom" || res.Message != msgDispatchFailed {
		t.Fatalf("unexpected envelope: %+v", res)
	}
}
