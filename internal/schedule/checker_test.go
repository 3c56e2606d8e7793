package schedule_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jensholdgaard/live-auction/internal/broadcast"
	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/event"
	"github.com/jensholdgaard/live-auction/internal/schedule"
	"github.com/jensholdgaard/live-auction/internal/store"
)

type mockScheduleRepo struct {
	schedules map[string]*store.Schedule
}

func newMockScheduleRepo(schedules ...*store.Schedule) *mockScheduleRepo {
	m := &mockScheduleRepo{schedules: make(map[string]*store.Schedule)}
	for _, s := range schedules {
		m.schedules[s.ID] = s
	}
	return m
}

func (m *mockScheduleRepo) Create(_ context.Context, s *store.Schedule) error {
	s.ID = fmt.Sprintf("sched-%d", len(m.schedules)+1)
	m.schedules[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) List(_ context.Context) ([]store.Schedule, error) {
	result := make([]store.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockScheduleRepo) ListDue(_ context.Context, from, until time.Time) ([]store.Schedule, error) {
	var result []store.Schedule
	for _, s := range m.schedules {
		if s.Status != store.ScheduleScheduled {
			continue
		}
		if s.ScheduledFor.After(from) && !s.ScheduledFor.After(until) {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) MarkNotified(_ context.Context, id string) error {
	s, ok := m.schedules[id]
	if !ok {
		return fmt.Errorf("schedule %s: %w", id, store.ErrNotFound)
	}
	s.Status = store.ScheduleNotified
	return nil
}

type mockItemRepo struct {
	items map[string]*store.Item
}

func (m *mockItemRepo) Create(context.Context, *store.Item) error { return nil }
func (m *mockItemRepo) GetOpen(context.Context) (*store.Item, error) {
	return nil, store.ErrNotFound
}
func (m *mockItemRepo) List(context.Context) ([]store.Item, error) { return nil, nil }
func (m *mockItemRepo) ListOwnedBy(context.Context, string) ([]store.Item, error) {
	return nil, nil
}
func (m *mockItemRepo) MarkOpen(context.Context, string) error   { return nil }
func (m *mockItemRepo) MarkUnsold(context.Context, string) error { return nil }

func (m *mockItemRepo) GetByID(_ context.Context, id string) (*store.Item, error) {
	i, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	return i, nil
}

func newChecker(schedules *mockScheduleRepo, items *mockItemRepo, clk clock.Clock) (*schedule.Checker, *broadcast.Hub) {
	hub := broadcast.NewHub(16, slog.Default())
	c := schedule.NewChecker(
		schedules, items, hub, slog.Default(), noop.NewTracerProvider(), clk,
		30*time.Second, 2*time.Minute,
	)
	return c, hub
}

func TestChecker_ReminderWithinLeadWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock(now)

	schedules := newMockScheduleRepo(&store.Schedule{
		ID:           "sched-1",
		ItemID:       "item-1",
		ScheduledFor: now.Add(90 * time.Second),
		Status:       store.ScheduleScheduled,
	})
	items := &mockItemRepo{items: map[string]*store.Item{
		"item-1": {ID: "item-1", Name: "V. Kohli", Role: "batsman"},
	}}

	c, hub := newChecker(schedules, items, clk)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	c.Tick(context.Background())

	select {
	case msg := <-sub.C:
		if msg.Type != event.AuctionReminder {
			t.Fatalf("Type = %q, want %q", msg.Type, event.AuctionReminder)
		}
		data, ok := msg.Data.(event.ReminderData)
		if !ok {
			t.Fatalf("Data is %T, want ReminderData", msg.Data)
		}
		if data.ItemID != "item-1" || data.ItemName != "V. Kohli" {
			t.Errorf("reminder for %s/%s, want item-1/V. Kohli", data.ItemID, data.ItemName)
		}
	default:
		t.Fatal("no reminder published")
	}

	if schedules.schedules["sched-1"].Status != store.ScheduleNotified {
		t.Errorf("schedule status = %q, want %q", schedules.schedules["sched-1"].Status, store.ScheduleNotified)
	}
}

func TestChecker_ReminderFiresOnce(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock(now)

	schedules := newMockScheduleRepo(&store.Schedule{
		ID:           "sched-1",
		ItemID:       "item-1",
		ScheduledFor: now.Add(90 * time.Second),
		Status:       store.ScheduleScheduled,
	})
	items := &mockItemRepo{items: map[string]*store.Item{
		"item-1": {ID: "item-1", Name: "V. Kohli"},
	}}

	c, hub := newChecker(schedules, items, clk)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	c.Tick(context.Background())
	clk.Advance(30 * time.Second)
	c.Tick(context.Background())

	if got := len(sub.C); got != 1 {
		t.Errorf("got %d reminders, want 1", got)
	}
}

func TestChecker_OutsideLeadWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock(now)

	schedules := newMockScheduleRepo(
		&store.Schedule{
			ID:           "sched-far",
			ItemID:       "item-1",
			ScheduledFor: now.Add(1 * time.Hour),
			Status:       store.ScheduleScheduled,
		},
		&store.Schedule{
			ID:           "sched-past",
			ItemID:       "item-1",
			ScheduledFor: now.Add(-1 * time.Minute),
			Status:       store.ScheduleScheduled,
		},
	)
	items := &mockItemRepo{items: map[string]*store.Item{
		"item-1": {ID: "item-1", Name: "V. Kohli"},
	}}

	c, hub := newChecker(schedules, items, clk)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	c.Tick(context.Background())

	if got := len(sub.C); got != 0 {
		t.Errorf("got %d reminders, want 0", got)
	}

	// An hour later the far schedule has moved into the window.
	clk.Advance(59 * time.Minute)
	c.Tick(context.Background())

	if got := len(sub.C); got != 1 {
		t.Errorf("got %d reminders after advance, want 1", got)
	}
}

func TestChecker_UnknownItemSkipped(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock(now)

	schedules := newMockScheduleRepo(&store.Schedule{
		ID:           "sched-1",
		ItemID:       "item-missing",
		ScheduledFor: now.Add(time.Minute),
		Status:       store.ScheduleScheduled,
	})
	items := &mockItemRepo{items: map[string]*store.Item{}}

	c, hub := newChecker(schedules, items, clk)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	c.Tick(context.Background())

	if got := len(sub.C); got != 0 {
		t.Errorf("got %d reminders, want 0", got)
	}
	// The schedule stays pending; the item may appear later.
	if schedules.schedules["sched-1"].Status != store.ScheduleScheduled {
		t.Errorf("schedule status = %q, want still scheduled", schedules.schedules["sched-1"].Status)
	}
}

func TestChecker_CancelledScheduleIgnored(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewMock(now)

	schedules := newMockScheduleRepo(&store.Schedule{
		ID:           "sched-1",
		ItemID:       "item-1",
		ScheduledFor: now.Add(time.Minute),
		Status:       store.ScheduleCancelled,
	})
	items := &mockItemRepo{items: map[string]*store.Item{
		"item-1": {ID: "item-1", Name: "V. Kohli"},
	}}

	c, hub := newChecker(schedules, items, clk)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub.ID)

	c.Tick(context.Background())

	if got := len(sub.C); got != 0 {
		t.Errorf("got %d reminders, want 0", got)
	}
}
