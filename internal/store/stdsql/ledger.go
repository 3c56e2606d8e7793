package stdsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// LedgerRepo implements store.LedgerRepository using database/sql.
type LedgerRepo struct {
	db    *sql.DB
	clock clock.Clock
}

// NewLedgerRepo returns a new LedgerRepo.
func NewLedgerRepo(db *sql.DB, clk clock.Clock) *LedgerRepo {
	return &LedgerRepo{db: db, clock: clk}
}

func (r *LedgerRepo) RecordBid(ctx context.Context, b *store.Bid) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.clock.Now().UTC()
	}
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO bids (item_id, party_id, amount, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		b.ItemID, b.PartyID, b.Amount, b.CreatedAt,
	).Scan(&b.ID); err != nil {
		return fmt.Errorf("inserting bid: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET current_bid = $1, leader_id = $2, updated_at = $3
		 WHERE id = $4 AND status = 'open' AND current_bid < $1`,
		b.Amount, b.PartyID, r.clock.Now().UTC(), b.ItemID,
	)
	if err != nil {
		return fmt.Errorf("advancing item bid: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("item %s is not open below %d", b.ItemID, b.Amount)
	}

	return tx.Commit()
}

func (r *LedgerRepo) SettleSale(ctx context.Context, itemID, partyID string, price int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock.Now().UTC()

	var result sql.Result
	result, err = tx.ExecContext(ctx,
		`UPDATE parties SET budget = budget - $1, updated_at = $2
		 WHERE id = $3 AND budget >= $1`,
		price, now, partyID,
	)
	if err != nil {
		return fmt.Errorf("decrementing budget: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("party %s cannot cover %d", partyID, price)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE items SET status = 'sold', sold_to = $1, sold_price = $2, leader_id = $1,
		        sold_at = $3, updated_at = $3
		 WHERE id = $4 AND status = 'open'`,
		partyID, price, now, itemID,
	)
	if err != nil {
		return fmt.Errorf("marking item sold: %w", err)
	}
	n, _ = result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("item %s is not open", itemID)
	}

	return tx.Commit()
}
