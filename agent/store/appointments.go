package store

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	"github.com/uptrace/bun"
)

type appointmentRow struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id"`
	Date      string    `bun:"date"`
	Time      string    `bun:"time"`
	Doctor    string    `bun:"doctor"`
	Reason    string    `bun:"reason"`
	Status    string    `bun:"status"`
	CreatedAt time.Time `bun:"created_at"`
}

func (r appointmentRow) toAppointment() contractx.Appointment {
	return contractx.Appointment{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      r.Date,
		Time:      r.Time,
		Doctor:    r.Doctor,
		Reason:    r.Reason,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// BookedTimes lists the scheduled times for doctor on date.
func (s *Store) BookedTimes(ctx context.Context, date, doctor string) ([]string, error) {
	var times []string
	err := s.db.NewSelect().
		Model((*appointmentRow)(nil)).
		Column("time").
		Where("a.date = ?", date).
		Where("a.doctor = ?", doctor).
		Where("a.status = ?", contractx.AppointmentScheduled).
		Scan(ctx, &times)
	if err != nil {
		return nil, fmt.Errorf("booked times for %s on %s: %w", doctor, date, err)
	}
	return times, nil
}

// InsertAppointment stores appt unless a scheduled appointment already holds
// the same date, time and doctor, in which case ErrSlotTaken is returned. The
// check and the write are one statement against a partial unique index.
func (s *Store) InsertAppointment(ctx context.Context, appt contractx.Appointment) error {
	row := appointmentRow{
		ID:        appt.ID,
		UserID:    appt.UserID,
		Date:      appt.Date,
		Time:      appt.Time,
		Doctor:    appt.Doctor,
		Reason:    appt.Reason,
		Status:    appt.Status,
		CreatedAt: appt.CreatedAt,
	}
	if row.Status == "" {
		row.Status = contractx.AppointmentScheduled
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.NewInsert().
		Model(&row).
		On(`CONFLICT ("date", "time", doctor) WHERE status = 'scheduled' DO NOTHING`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert appointment %s: %w", appt.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert appointment %s: %w", appt.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s with %s", contractx.ErrSlotTaken, appt.Date, appt.Time, appt.Doctor)
	}
	return nil
}

// CancelAppointment marks the appointment cancelled. Only the owning user can
// cancel it.
func (s *Store) CancelAppointment(ctx context.Context, id, userID string) error {
	res, err := s.db.NewUpdate().
		Model((*appointmentRow)(nil)).
		Set("status = ?", contractx.AppointmentCancelled).
		Where("a.id = ?", id).
		Where("a.user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("cancel appointment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel appointment %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: appointment %s", contractx.ErrNotFound, id)
	}
	return nil
}

// ListAppointments returns the user's appointments that are not cancelled,
// earliest first.
func (s *Store) ListAppointments(ctx context.Context, userID string) ([]contractx.Appointment, error) {
	var rows []appointmentRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("a.user_id = ?", userID).
		Where("a.status != ?", contractx.AppointmentCancelled).
		OrderExpr(`a."date" ASC, a."time" ASC`).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s: %w", userID, err)
	}

	out := make([]contractx.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toAppointment())
	}
	return out, nil
}
