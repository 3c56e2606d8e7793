package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// ScheduleRepo implements store.ScheduleRepository with sqlx.
type ScheduleRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewScheduleRepo returns a new ScheduleRepo.
func NewScheduleRepo(db *sqlx.DB, clk clock.Clock) *ScheduleRepo {
	return &ScheduleRepo{db: db, clock: clk}
}

func (r *ScheduleRepo) Create(ctx context.Context, s *store.Schedule) error {
	s.Status = store.ScheduleScheduled
	s.CreatedAt = r.clock.Now().UTC()
	return r.db.QueryRowContext(ctx,
		`INSERT INTO schedules (item_id, scheduled_for, status, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		s.ItemID, s.ScheduledFor, s.Status, s.CreatedAt,
	).Scan(&s.ID)
}

func (r *ScheduleRepo) List(ctx context.Context) ([]store.Schedule, error) {
	var schedules []store.Schedule
	err := r.db.SelectContext(ctx, &schedules,
		`SELECT * FROM schedules ORDER BY scheduled_for ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepo) ListDue(ctx context.Context, from, until time.Time) ([]store.Schedule, error) {
	var schedules []store.Schedule
	err := r.db.SelectContext(ctx, &schedules,
		`SELECT * FROM schedules
		 WHERE status = 'scheduled' AND scheduled_for > $1 AND scheduled_for <= $2
		 ORDER BY scheduled_for ASC`, from, until)
	if err != nil {
		return nil, fmt.Errorf("listing due schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepo) MarkNotified(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE schedules SET status = 'notified' WHERE id = $1 AND status = 'scheduled'`, id)
	if err != nil {
		return fmt.Errorf("marking schedule notified: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("schedule %s not found or already notified", id)
	}
	return nil
}
