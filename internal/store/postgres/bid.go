package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/live-auction/internal/store"
)

// BidRepo implements store.BidRepository with sqlx. Bids are written only
// through LedgerRepo.RecordBid.
type BidRepo struct {
	db *sqlx.DB
}

// NewBidRepo returns a new BidRepo.
func NewBidRepo(db *sqlx.DB) *BidRepo {
	return &BidRepo{db: db}
}

// ListForItem returns all admitted bids for an item in admission order.
// Amounts are strictly increasing per lot, so amount order is admission
// order.
func (r *BidRepo) ListForItem(ctx context.Context, itemID string) ([]store.Bid, error) {
	var bids []store.Bid
	err := r.db.SelectContext(ctx, &bids,
		`SELECT * FROM bids WHERE item_id = $1 ORDER BY amount ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	return bids, nil
}

func (r *BidRepo) LatestForItem(ctx context.Context, itemID string) (*store.Bid, error) {
	var b store.Bid
	err := r.db.GetContext(ctx, &b,
		`SELECT * FROM bids WHERE item_id = $1 ORDER BY amount DESC LIMIT 1`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest bid for item %s: %w", itemID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest bid: %w", err)
	}
	return &b, nil
}
