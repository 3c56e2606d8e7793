package postgres_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jensholdgaard/live-auction/internal/event"
	"github.com/jensholdgaard/live-auction/internal/store/postgres"
)

func TestEventStore_AppendAndLoad(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	aggID := "item-001"
	events := []event.Event{
		{AggregateID: aggID, Type: event.AuctionOpened, Data: json.RawMessage(`{"item_name":"V. Kohli"}`), Version: 1},
		{AggregateID: aggID, Type: event.AuctionBidAccepted, Data: json.RawMessage(`{"party_id":"p1","amount":150000}`), Version: 2},
	}

	if err := es.Append(ctx, events...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	loaded, err := es.Load(ctx, aggID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Load returned %d events, want 2", len(loaded))
	}

	// Should be ordered by version.
	if loaded[0].Version != 1 || loaded[1].Version != 2 {
		t.Errorf("versions = [%d, %d], want [1, 2]", loaded[0].Version, loaded[1].Version)
	}
	if loaded[0].Type != event.AuctionOpened {
		t.Errorf("event[0].Type = %q, want %q", loaded[0].Type, event.AuctionOpened)
	}
}

func TestEventStore_LoadByType(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	events := []event.Event{
		{AggregateID: "a1", Type: event.AuctionOpened, Data: json.RawMessage(`{}`), Version: 1},
		{AggregateID: "a1", Type: event.AuctionBidAccepted, Data: json.RawMessage(`{}`), Version: 2},
		{AggregateID: "a2", Type: event.AuctionOpened, Data: json.RawMessage(`{}`), Version: 1},
	}

	if err := es.Append(ctx, events...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	opened, err := es.LoadByType(ctx, event.AuctionOpened)
	if err != nil {
		t.Fatalf("LoadByType: %v", err)
	}
	if len(opened) != 2 {
		t.Fatalf("LoadByType(AuctionOpened) returned %d, want 2", len(opened))
	}

	bids, err := es.LoadByType(ctx, event.AuctionBidAccepted)
	if err != nil {
		t.Fatalf("LoadByType: %v", err)
	}
	if len(bids) != 1 {
		t.Fatalf("LoadByType(AuctionBidAccepted) returned %d, want 1", len(bids))
	}
}

func TestEventStore_LoadEmpty(t *testing.T) {
	db := newTestDB(t)
	es := postgres.NewEventStore(db)
	ctx := context.Background()

	loaded, err := es.Load(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty slice, got %d events", len(loaded))
	}
}
