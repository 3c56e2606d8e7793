package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Item statuses. An item is "unsold" until it is won; at most one item is
// "open" at any time.
const (
	ItemUnsold = "unsold"
	ItemOpen   = "open"
	ItemSold   = "sold"
)

// Schedule statuses.
const (
	ScheduleScheduled = "scheduled"
	ScheduleNotified  = "notified"
	ScheduleCancelled = "cancelled"
)

// Item is a player up for auction.
type Item struct {
	ID         string     `db:"id"`
	Name       string     `db:"name"`
	Role       string     `db:"role"`
	BasePrice  int        `db:"base_price"`
	CurrentBid int        `db:"current_bid"`
	LeaderID   *string    `db:"leader_id"`
	Status     string     `db:"status"` // "unsold", "open", "sold"
	SoldTo     *string    `db:"sold_to"`
	SoldPrice  *int       `db:"sold_price"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	SoldAt     *time.Time `db:"sold_at"`
}

// Party is a bidding team with a budget.
type Party struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Owner     string    `db:"owner"`
	Budget    int       `db:"budget"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Bid is an immutable record of one admitted bid.
type Bid struct {
	ID        string    `db:"id"`
	ItemID    string    `db:"item_id"`
	PartyID   string    `db:"party_id"`
	Amount    int       `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

// Schedule is a planned future auction for an item.
type Schedule struct {
	ID           string    `db:"id"`
	ItemID       string    `db:"item_id"`
	ScheduledFor time.Time `db:"scheduled_for"`
	Status       string    `db:"status"` // "scheduled", "notified", "cancelled"
	CreatedAt    time.Time `db:"created_at"`
}

// ItemRepository defines item persistence operations.
type ItemRepository interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	// GetOpen returns the single currently open item, or ErrNotFound.
	GetOpen(ctx context.Context) (*Item, error)
	List(ctx context.Context) ([]Item, error)
	ListOwnedBy(ctx context.Context, partyID string) ([]Item, error)
	// MarkOpen transitions an unsold item to open, resetting its current
	// bid to the base price and clearing the leader. Fails if the item is
	// not unsold.
	MarkOpen(ctx context.Context, id string) error
	// MarkUnsold returns an open item to the unsold pool, resetting the
	// current bid to zero and clearing the leader.
	MarkUnsold(ctx context.Context, id string) error
}

// PartyRepository defines party persistence operations.
type PartyRepository interface {
	Create(ctx context.Context, p *Party) error
	GetByID(ctx context.Context, id string) (*Party, error)
	List(ctx context.Context) ([]Party, error)
}

// BidRepository defines read access to the bid audit trail. Bids are only
// ever written through LedgerRepository.RecordBid.
type BidRepository interface {
	ListForItem(ctx context.Context, itemID string) ([]Bid, error)
	// LatestForItem returns the most recent bid for an item, or ErrNotFound.
	LatestForItem(ctx context.Context, itemID string) (*Bid, error)
}

// ScheduleRepository defines scheduled-auction persistence operations.
type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	List(ctx context.Context) ([]Schedule, error)
	// ListDue returns schedules still in "scheduled" status whose
	// scheduled_for falls within (from, until].
	ListDue(ctx context.Context, from, until time.Time) ([]Schedule, error)
	MarkNotified(ctx context.Context, id string) error
}

// LedgerRepository groups the multi-record writes that must commit
// atomically.
type LedgerRepository interface {
	// RecordBid appends the bid record and advances the item's current
	// bid and leader in a single transaction.
	RecordBid(ctx context.Context, b *Bid) error
	// SettleSale decrements the winning party's budget by price, marks
	// the item sold to that party at that price, and does both in a
	// single transaction. The budget decrement is guarded so it can
	// never push the budget below zero.
	SettleSale(ctx context.Context, itemID, partyID string, price int) error
}
