//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/healthcare-assistant/agent/contract"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpg.Run(ctx, "pgvector/pgvector:pg16",
		tcpg.WithDatabase("healthcare_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	s, err := Open(Config{URL: dsn, DialTimeout: 5 * time.Second, QueryTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// second run is a no-op
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate again: %v", err)
	}
	return s
}

func unitVector(hot int) []float32 {
	vec := make([]float32, 1536)
	vec[hot] = 1
	return vec
}

func TestKnowledgeIntegration(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	docs := []KnowledgeDoc{
		{ID: "kb-1", Title: "Headache care", Content: "Rest and hydrate.", Category: "neurology", Embedding: unitVector(0)},
		{ID: "kb-2", Title: "Fever basics", Content: "Monitor temperature.", Category: "general", Embedding: unitVector(1)},
		{ID: "kb-3", Title: "Sleep hygiene", Content: "Keep a regular schedule.", Category: "wellness"},
	}
	if err := s.UpsertKnowledge(ctx, docs); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := s.VectorSearch(ctx, unitVector(0), 2)
	if err != nil {
		t.Fatalf("vector search: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "kb-1" {
		t.Fatalf("unexpected vector hits: %+v", hits)
	}
	if hits[0].SimilarityScore > hits[1].SimilarityScore {
		t.Fatalf("expected nearest first: %+v", hits)
	}

	kw, err := s.KeywordSearch(ctx, "SLEEP", 6)
	if err != nil {
		t.Fatalf("keyword search: %v", err)
	}
	if len(kw) != 1 || kw[0].ID != "kb-3" {
		t.Fatalf("unexpected keyword hits: %+v", kw)
	}

	sample, err := s.Sample(ctx, 2)
	if err != nil || len(sample) != 2 {
		t.Fatalf("unexpected sample: %+v err=%v", sample, err)
	}
}

func TestAppointmentsIntegration(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	appt := contractx.Appointment{
		ID: "appt_1", UserID: "u1", Date: "2026-10-20", Time: "09:00",
		Doctor: "General Practitioner", Reason: "checkup", Status: contractx.AppointmentScheduled,
	}
	if err := s.InsertAppointment(ctx, appt); err != nil {
		t.Fatalf("insert: %v", err)
	}

	dup := appt
	dup.ID = "appt_2"
	dup.UserID = "u2"
	if err := s.InsertAppointment(ctx, dup); !errors.Is(err, contractx.ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	booked, err := s.BookedTimes(ctx, appt.Date, appt.Doctor)
	if err != nil || len(booked) != 1 || booked[0] != "09:00" {
		t.Fatalf("unexpected booked times: %v err=%v", booked, err)
	}

	if err := s.CancelAppointment(ctx, "appt_1", "someone-else"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong user, got %v", err)
	}
	if err := s.CancelAppointment(ctx, "appt_1", "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// the slot is free again once cancelled
	if err := s.InsertAppointment(ctx, dup); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}

	list, err := s.ListAppointments(ctx, "u1")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no active appointments for u1, got %+v err=%v", list, err)
	}
	list, err = s.ListAppointments(ctx, "u2")
	if err != nil || len(list) != 1 || list[0].ID != "appt_2" {
		t.Fatalf("unexpected list for u2: %+v err=%v", list, err)
	}
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	const racers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		taken int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.InsertAppointment(ctx, contractx.Appointment{
				ID: "race_" + string(rune('a'+i)), UserID: "u", Date: "2026-10-21", Time: "10:00",
				Doctor: "General Practitioner", Status: contractx.AppointmentScheduled,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, contractx.ErrSlotTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || taken != racers-1 {
		t.Fatalf("expected one winner, got wins=%d taken=%d", wins, taken)
	}
}
