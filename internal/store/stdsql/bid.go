package stdsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jensholdgaard/live-auction/internal/store"
)

// BidRepo implements store.BidRepository using database/sql.
type BidRepo struct {
	db *sql.DB
}

// NewBidRepo returns a new BidRepo.
func NewBidRepo(db *sql.DB) *BidRepo {
	return &BidRepo{db: db}
}

func (r *BidRepo) ListForItem(ctx context.Context, itemID string) ([]store.Bid, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, party_id, amount, created_at
		 FROM bids WHERE item_id = $1 ORDER BY amount ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	defer rows.Close()

	var bids []store.Bid
	for rows.Next() {
		var b store.Bid
		if err := rows.Scan(&b.ID, &b.ItemID, &b.PartyID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning bid row: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (r *BidRepo) LatestForItem(ctx context.Context, itemID string) (*store.Bid, error) {
	b := &store.Bid{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, item_id, party_id, amount, created_at
		 FROM bids WHERE item_id = $1 ORDER BY amount DESC LIMIT 1`, itemID,
	).Scan(&b.ID, &b.ItemID, &b.PartyID, &b.Amount, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest bid for item %s: %w", itemID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest bid: %w", err)
	}
	return b, nil
}
