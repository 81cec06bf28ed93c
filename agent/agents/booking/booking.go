// Package booking handles appointment booking, availability, cancellation and
// listing requests.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	metricsx "github.com/tanpawarit/healthcare-assistant/pkg/metrics"
)

const (
	DefaultUserID = "default_user"
	DefaultDoctor = "General Practitioner"

	dateLayout   = "2006-01-02"
	idLayout     = "20060102150405"
	maxSuggested = 10
)

const (
	msgDateTimeRequired = "Date and time are required for booking"
	msgBookingPrompt    = "To book an appointment, please specify a date and time. Here are some available slots:"
	msgBookingHowTo     = "Please provide a date (YYYY-MM-DD) and time (HH:MM) to complete your booking."
	msgSlotTaken        = "Time slot is not available"
	msgIDRequired       = "appointment_id is required"
	msgDispatchFailed   = "I encountered an issue processing your appointment request. Please try again or provide more details."
)

// Store is the appointment persistence the agent needs.
type Store interface {
	BookedTimes(ctx context.Context, date, doctor string) ([]string, error)
	InsertAppointment(ctx context.Context, appt contractx.Appointment) error
	CancelAppointment(ctx context.Context, id, userID string) error
	ListAppointments(ctx context.Context, userID string) ([]contractx.Appointment, error)
}

type Request struct {
	Query         string `json:"query"`
	UserID        string `json:"user_id,omitempty"`
	Date          string `json:"date,omitempty"`
	Time          string `json:"time,omitempty"`
	Doctor        string `json:"doctor,omitempty"`
	Reason        string `json:"reason,omitempty"`
	AppointmentID string `json:"appointment_id,omitempty"`
}

// Result is the agent's response body. Pointer fields are emitted whenever
// they are set, even when empty, because consumers branch on key presence.
type Result struct {
	Success        bool                     `json:"success,omitempty"`
	AppointmentID  string                   `json:"appointment_id,omitempty"`
	Error          string                   `json:"error,omitempty"`
	Message        string                   `json:"message,omitempty"`
	SuggestedDate  string                   `json:"suggested_date,omitempty"`
	SuggestedTimes []string                 `json:"suggested_times,omitempty"`
	Instructions   string                   `json:"instructions,omitempty"`
	Date           string                   `json:"date,omitempty"`
	Doctor         string                   `json:"doctor,omitempty"`
	AvailableSlots *[]string                `json:"available_slots,omitempty"`
	UserID         string                   `json:"user_id,omitempty"`
	Appointments   *[]contractx.Appointment `json:"appointments,omitempty"`
	Count          *int                     `json:"count,omitempty"`
}

type Option func(*Agent)

func WithMetrics(m *metricsx.Recorder) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

type Agent struct {
	store   Store
	metrics *metricsx.Recorder
	now     func() time.Time
}

func New(store Store, opts ...Option) (*Agent, error) {
	if store == nil {
		return nil, fmt.Errorf("appointment store is required")
	}
	a := &Agent{store: store, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Process dispatches req to the flow its query asks for.
func (a *Agent) Process(ctx context.Context, req Request) (res Result) {
	flow := DetectFlow(req.Query)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("flow", string(flow)).Msg("booking: dispatch failed")
			a.metrics.Booking(string(flow), "error")
			res = Result{
				Error:   fmt.Sprintf("Error processing appointment request: %v", r),
				Message: msgDispatchFailed,
			}
		}
	}()

	req = withDefaults(req)
	switch flow {
	case FlowBook:
		return a.book(ctx, req)
	case FlowCancel:
		return a.cancel(ctx, req)
	case FlowList:
		return a.list(ctx, req)
	default:
		return a.availability(ctx, req)
	}
}

func withDefaults(req Request) Request {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}
	req.Doctor = strings.TrimSpace(req.Doctor)
	if req.Doctor == "" {
		req.Doctor = DefaultDoctor
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	return req
}

func (a *Agent) tomorrow() string {
	return a.now().AddDate(0, 0, 1).Format(dateLayout)
}

// openSlots degrades to the full template when the store cannot be read.
func (a *Agent) openSlots(ctx context.Context, date, doctor string) []string {
	booked, err := a.store.BookedTimes(ctx, date, doctor)
	if err != nil {
		log.Warn().Err(err).Str("date", date).Str("doctor", doctor).Msg("booking: returning full slot template")
		return append([]string(nil), SlotTemplate...)
	}
	return AvailableSlots(booked)
}

func (a *Agent) book(ctx context.Context, req Request) Result {
	if req.Date == "" || req.Time == "" {
		date := a.tomorrow()
		slots := a.openSlots(ctx, date, req.Doctor)
		if len(slots) > maxSuggested {
			slots = slots[:maxSuggested]
		}
		a.metrics.Booking(string(FlowBook), "prompt")
		return Result{
			Error:          msgDateTimeRequired,
			Message:        msgBookingPrompt,
			SuggestedDate:  date,
			AvailableSlots: &slots,
			Instructions:   msgBookingHowTo,
		}
	}

	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		a.metrics.Booking(string(FlowBook), "invalid")
		return Result{
			Error:          fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", req.Date),
			SuggestedTimes: a.openSlots(ctx, a.tomorrow(), req.Doctor),
		}
	}
	if !isTemplateSlot(req.Time) {
		a.metrics.Booking(string(FlowBook), "invalid")
		return Result{
			Error:          fmt.Sprintf("Time %q is not a bookable slot", req.Time),
			SuggestedTimes: a.openSlots(ctx, req.Date, req.Doctor),
		}
	}

	now := a.now()
	appt := contractx.Appointment{
		ID:        "appt_" + now.Format(idLayout),
		UserID:    req.UserID,
		Date:      req.Date,
		Time:      req.Time,
		Doctor:    req.Doctor,
		Reason:    req.Reason,
		Status:    contractx.AppointmentScheduled,
		CreatedAt: now.UTC(),
	}
	err := a.store.InsertAppointment(ctx, appt)
	switch {
	case errors.Is(err, contractx.ErrSlotTaken):
		a.metrics.Booking(string(FlowBook), "conflict")
		return Result{
			Error:          msgSlotTaken,
			SuggestedTimes: a.openSlots(ctx, req.Date, req.Doctor),
		}
	case err != nil:
		log.Error().Err(err).Msg("booking: insert failed")
		a.metrics.Booking(string(FlowBook), "error")
		return Result{Error: fmt.Sprintf("Failed to book appointment: %v", err)}
	}

	log.Info().Str("appointment_id", appt.ID).Msg("appointment booked")
	a.metrics.Booking(string(FlowBook), "success")
	return Result{
		Success:       true,
		AppointmentID: appt.ID,
		Message:       fmt.Sprintf("Appointment scheduled for %s at %s with %s", appt.Date, appt.Time, appt.Doctor),
	}
}

func (a *Agent) availability(ctx context.Context, req Request) Result {
	date := req.Date
	if date == "" {
		date = a.tomorrow()
	}
	slots := a.openSlots(ctx, date, req.Doctor)
	a.metrics.Booking(string(FlowAvailability), "success")
	return Result{
		Date:           date,
		Doctor:         req.Doctor,
		AvailableSlots: &slots,
	}
}

func (a *Agent) cancel(ctx context.Context, req Request) Result {
	if req.AppointmentID == "" {
		a.metrics.Booking(string(FlowCancel), "invalid")
		return Result{Error: msgIDRequired}
	}
	if err := a.store.CancelAppointment(ctx, req.AppointmentID, req.UserID); err != nil {
		log.Warn().Err(err).Str("appointment_id", req.AppointmentID).Msg("booking: cancel failed")
		a.metrics.Booking(string(FlowCancel), "error")
		return Result{Error: fmt.Sprintf("Failed to cancel appointment: %v", err)}
	}
	a.metrics.Booking(string(FlowCancel), "success")
	return Result{
		Success: true,
		Message: fmt.Sprintf("Appointment %s has been cancelled", req.AppointmentID),
	}
}

func (a *Agent) list(ctx context.Context, req Request) Result {
	appts, err := a.store.ListAppointments(ctx, req.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("booking: list failed")
		a.metrics.Booking(string(FlowList), "error")
		return Result{Error: fmt.Sprintf("Failed to list appointments: %v", err)}
	}
	if appts == nil {
		appts = []contractx.Appointment{}
	}
	count := len(appts)
	a.metrics.Booking(string(FlowList), "success")
	return Result{
		UserID:       req.UserID,
		Appointments: &appts,
		Count:        &count,
	}
}
