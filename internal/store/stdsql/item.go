package stdsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/store"
)

const itemColumns = `id, name, role, base_price, current_bid, leader_id, status, sold_to, sold_price, created_at, updated_at, sold_at`

// ItemRepo implements store.ItemRepository using database/sql.
type ItemRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewItemRepo returns a new ItemRepo.
func NewItemRepo(db *sql.DB, clk clock.Clock) *ItemRepo {
	return &ItemRepo{db: db, clock: clk}
}

func scanItem(row interface{ Scan(...any) error }, i *store.Item) error {
	return row.Scan(&i.ID, &i.Name, &i.Role, &i.BasePrice, &i.CurrentBid, &i.LeaderID,
		&i.Status, &i.SoldTo, &i.SoldPrice, &i.CreatedAt, &i.UpdatedAt, &i.SoldAt)
}

func (r *ItemRepo) Create(ctx context.Context, i *store.Item) error {
	now := r.clock.Now().UTC()
	i.Status = store.ItemUnsold
	i.CurrentBid = 0
	i.CreatedAt = now
	i.UpdatedAt = now
	return r.db.QueryRowContext(ctx,
		`INSERT INTO items (name, role, base_price, current_bid, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		i.Name, i.Role, i.BasePrice, i.CurrentBid, i.Status, i.CreatedAt, i.UpdatedAt,
	).Scan(&i.ID)
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*store.Item, error) {
	i := &store.Item{}
	err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id), i)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return i, nil
}

func (r *ItemRepo) GetOpen(ctx context.Context) (*store.Item, error) {
	i := &store.Item{}
	err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE status = 'open'`), i)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("open item: %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting open item: %w", err)
	}
	return i, nil
}

func (r *ItemRepo) List(ctx context.Context) ([]store.Item, error) {
	return r.listWhere(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at ASC`)
}

func (r *ItemRepo) ListOwnedBy(ctx context.Context, partyID string) ([]store.Item, error) {
	return r.listWhere(ctx,
		`SELECT `+itemColumns+` FROM items WHERE sold_to = $1 ORDER BY sold_at ASC`, partyID)
}

func (r *ItemRepo) listWhere(ctx context.Context, query string, args ...any) ([]store.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var i store.Item
		if err := scanItem(rows, &i); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *ItemRepo) MarkOpen(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE items SET status = 'open', current_bid = base_price, leader_id = NULL, updated_at = $1
		 WHERE id = $2 AND status = 'unsold'`,
		r.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking item open: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("item %s is not available for auction", id)
	}
	return nil
}

func (r *ItemRepo) MarkUnsold(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE items SET status = 'unsold', current_bid = 0, leader_id = NULL, updated_at = $1
		 WHERE id = $2 AND status = 'open'`,
		r.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("marking item unsold: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("item %s is not open", id)
	}
	return nil
}
