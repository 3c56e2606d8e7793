package event

import (
	"encoding/json"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	AuctionOpened      Type = "auction.opened"
	AuctionBidAccepted Type = "auction.bid_accepted"
	AuctionSettled     Type = "auction.settled"
	AuctionUnsold      Type = "auction.unsold"
	AuctionSnapshot    Type = "auction.snapshot"
	AuctionReminder    Type = "auction.reminder"

	ItemCreated  Type = "item.created"
	PartyCreated Type = "party.created"
)

// Event is a single append-only audit record.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	Version     int             `json:"version" db:"version"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// OpenedData is the payload for AuctionOpened events.
type OpenedData struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	ItemRole  string `json:"item_role"`
	BasePrice int    `json:"base_price"`
}

// BidAcceptedData is the payload for AuctionBidAccepted events.
type BidAcceptedData struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	PartyID   string `json:"party_id"`
	PartyName string `json:"party_name"`
	Amount    int    `json:"amount"`
}

// SettledData is the payload for AuctionSettled events.
type SettledData struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	PartyID   string `json:"party_id"`
	PartyName string `json:"party_name"`
	Price     int    `json:"price"`
}

// UnsoldData is the payload for AuctionUnsold events.
type UnsoldData struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
}

// ReminderData is the payload for AuctionReminder events.
type ReminderData struct {
	ItemID       string    `json:"item_id"`
	ItemName     string    `json:"item_name"`
	ItemRole     string    `json:"item_role"`
	ScheduledFor time.Time `json:"scheduled_for"`
}
