package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// PartyRepo implements store.PartyRepository with sqlx.
type PartyRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewPartyRepo returns a new PartyRepo.
func NewPartyRepo(db *sqlx.DB, clk clock.Clock) *PartyRepo {
	return &PartyRepo{db: db, clock: clk}
}

func (r *PartyRepo) Create(ctx context.Context, p *store.Party) error {
	now := r.clock.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	return r.db.QueryRowContext(ctx,
		`INSERT INTO parties (name, owner, budget, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.Name, p.Owner, p.Budget, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *PartyRepo) GetByID(ctx context.Context, id string) (*store.Party, error) {
	var p store.Party
	err := r.db.GetContext(ctx, &p, `SELECT * FROM parties WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("party %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting party: %w", err)
	}
	return &p, nil
}

func (r *PartyRepo) List(ctx context.Context) ([]store.Party, error) {
	var parties []store.Party
	err := r.db.SelectContext(ctx, &parties, `SELECT * FROM parties ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing parties: %w", err)
	}
	return parties, nil
}
