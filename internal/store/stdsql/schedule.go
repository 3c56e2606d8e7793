package stdsql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// ScheduleRepo implements store.ScheduleRepository using database/sql.
type ScheduleRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewScheduleRepo returns a new ScheduleRepo.
func NewScheduleRepo(db *sql.DB, clk clock.Clock) *ScheduleRepo {
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
	return r.list(ctx, `SELECT id, item_id, scheduled_for, status, created_at
		 FROM schedules ORDER BY scheduled_for ASC`)
}

func (r *ScheduleRepo) ListDue(ctx context.Context, from, until time.Time) ([]store.Schedule, error) {
	return r.list(ctx, `SELECT id, item_id, scheduled_for, status, created_at
		 FROM schedules
		 WHERE status = 'scheduled' AND scheduled_for > $1 AND scheduled_for <= $2
		 ORDER BY scheduled_for ASC`, from, until)
}

func (r *ScheduleRepo) list(ctx context.Context, query string, args ...any) ([]store.Schedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing schedules: %w", err)
	}
	defer rows.Close()

	var schedules []store.Schedule
	for rows.Next() {
		var s store.Schedule
		if err := rows.Scan(&s.ID, &s.ItemID, &s.ScheduledFor, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
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
