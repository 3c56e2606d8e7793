package auction

import (
	"errors"
	"time"
)

// Errors returned by auction operations. Bid rejections are safe to retry
// with corrected input; ErrInvalidTransition means the caller should
// refresh the auction status first.
var (
	ErrInvalidTransition  = errors.New("invalid auction state transition")
	ErrNotOpen            = errors.New("item is not open for bidding")
	ErrBidTooLow          = errors.New("bid must be above the current bid")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrAlreadyLeading     = errors.New("party is already the leading bidder")
)

// Lot is the live state of the single open item. It is owned by the
// Engine and only ever read or written while the Engine's lock is held;
// durable state is advanced before any of these fields change, so the Lot
// never gets ahead of the store.
type Lot struct {
	ItemID     string
	ItemName   string
	ItemRole   string
	BasePrice  int
	CurrentBid int
	LeaderID   string // empty while no bid has been admitted
	LeaderName string
	OpenedAt   time.Time

	version int
}

func (l *Lot) snapshot() Snapshot {
	return Snapshot{
		ItemID:     l.ItemID,
		ItemName:   l.ItemName,
		ItemRole:   l.ItemRole,
		BasePrice:  l.BasePrice,
		CurrentBid: l.CurrentBid,
		LeaderID:   l.LeaderID,
		LeaderName: l.LeaderName,
		OpenedAt:   l.OpenedAt,
	}
}

// Snapshot is the observable state of the open lot.
type Snapshot struct {
	ItemID     string    `json:"item_id"`
	ItemName   string    `json:"item_name"`
	ItemRole   string    `json:"item_role"`
	BasePrice  int       `json:"base_price"`
	CurrentBid int       `json:"current_bid"`
	LeaderID   string    `json:"leader_id,omitempty"`
	LeaderName string    `json:"leader_name,omitempty"`
	OpenedAt   time.Time `json:"opened_at"`
}

// Outcome is the result of closing a lot.
type Outcome struct {
	Sold      bool   `json:"sold"`
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	PartyID   string `json:"party_id,omitempty"`
	PartyName string `json:"party_name,omitempty"`
	Price     int    `json:"price"`
}
