// Package schedule surfaces upcoming scheduled auctions to observers.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/live-auction/internal/broadcast"
	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/event"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// Checker periodically scans for schedules due within the lead window and
// publishes a reminder for each, once. It only reads auction state and
// never takes the engine's lock, so a slow scan cannot delay bid
// admission.
type Checker struct {
	schedules store.ScheduleRepository
	items     store.ItemRepository
	hub       *broadcast.Hub
	logger    *slog.Logger
	tracer    trace.Tracer
	clock     clock.Clock

	interval time.Duration
	lead     time.Duration
}

// NewChecker creates a Checker scanning every interval for schedules due
// within lead.
func NewChecker(schedules store.ScheduleRepository, items store.ItemRepository, hub *broadcast.Hub, logger *slog.Logger, tp trace.TracerProvider, clk clock.Clock, interval, lead time.Duration) *Checker {
	return &Checker{
		schedules: schedules,
		items:     items,
		hub:       hub,
		logger:    logger,
		tracer:    tp.Tracer("github.com/jensholdgaard/live-auction/internal/schedule"),
		clock:     clk,
		interval:  interval,
		lead:      lead,
	}
}

// Run blocks until ctx is done, scanning on every tick.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick performs a single scan. Exported so the run loop and tests share
// the same path.
func (c *Checker) Tick(ctx context.Context) {
	ctx, span := c.tracer.Start(ctx, "Checker.Tick")
	defer span.End()

	now := c.clock.Now().UTC()
	due, err := c.schedules.ListDue(ctx, now, now.Add(c.lead))
	if err != nil {
		c.logger.ErrorContext(ctx, "scanning schedules failed", slog.Any("error", err))
		return
	}

	for _, s := range due {
		item, err := c.items.GetByID(ctx, s.ItemID)
		if err != nil {
			c.logger.WarnContext(ctx, "schedule references unknown item",
				slog.String("schedule_id", s.ID),
				slog.String("item_id", s.ItemID),
				slog.Any("error", err),
			)
			continue
		}

		span.AddEvent("reminder", trace.WithAttributes(attribute.String("item_id", item.ID)))
		c.hub.Publish(broadcast.Message{
			Type: event.AuctionReminder,
			Data: event.ReminderData{
				ItemID:       item.ID,
				ItemName:     item.Name,
				ItemRole:     item.Role,
				ScheduledFor: s.ScheduledFor,
			},
		})

		// Mark so the reminder fires once per schedule.
		if err := c.schedules.MarkNotified(ctx, s.ID); err != nil {
			c.logger.ErrorContext(ctx, "marking schedule notified failed",
				slog.String("schedule_id", s.ID),
				slog.Any("error", err),
			)
			continue
		}

		c.logger.InfoContext(ctx, "upcoming auction reminder sent",
			slog.String("item_id", item.ID),
			slog.String("item", item.Name),
			slog.Time("scheduled_for", s.ScheduledFor),
		)
	}
}
