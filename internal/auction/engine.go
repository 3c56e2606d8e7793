package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/live-auction/internal/broadcast"
	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/event"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// Engine owns the auction room. All state transitions (open, bid, close)
// are serialized under a single lock so that concurrent bid attempts are
// admitted in a total order and every rejection reflects the state the
// winning attempt left behind.
type Engine struct {
	mu  sync.RWMutex
	lot *Lot

	items   store.ItemRepository
	parties store.PartyRepository
	bids    store.BidRepository
	ledger  store.LedgerRepository
	events  event.Store

	hub    *broadcast.Hub
	logger *slog.Logger
	tracer trace.Tracer
	clock  clock.Clock
}

// NewEngine creates an Engine over the given repositories.
func NewEngine(repos *store.Repositories, hub *broadcast.Hub, logger *slog.Logger, tp trace.TracerProvider, clk clock.Clock) *Engine {
	return &Engine{
		items:   repos.Items,
		parties: repos.Parties,
		bids:    repos.Bids,
		ledger:  repos.Ledger,
		events:  repos.Events,
		hub:     hub,
		logger:  logger,
		tracer:  tp.Tracer("github.com/jensholdgaard/live-auction/internal/auction"),
		clock:   clk,
	}
}

// Open puts an item up for bidding. The current bid starts at the item's
// base price with no leader. Fails with ErrInvalidTransition if another
// item is already open or the item is not in the unsold pool.
func (e *Engine) Open(ctx context.Context, itemID string) (Snapshot, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Open",
		trace.WithAttributes(attribute.String("item_id", itemID)),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lot != nil {
		return Snapshot{}, fmt.Errorf("%w: item %s is already open", ErrInvalidTransition, e.lot.ItemID)
	}

	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		return Snapshot{}, err
	}
	if item.Status != store.ItemUnsold {
		return Snapshot{}, fmt.Errorf("%w: item %s is %s", ErrInvalidTransition, itemID, item.Status)
	}

	if err := e.items.MarkOpen(ctx, itemID); err != nil {
		return Snapshot{}, fmt.Errorf("opening item: %w", err)
	}

	e.lot = &Lot{
		ItemID:     item.ID,
		ItemName:   item.Name,
		ItemRole:   item.Role,
		BasePrice:  item.BasePrice,
		CurrentBid: item.BasePrice,
		OpenedAt:   e.clock.Now().UTC(),
		version:    1,
	}

	data := event.OpenedData{
		ItemID:    item.ID,
		ItemName:  item.Name,
		ItemRole:  item.Role,
		BasePrice: item.BasePrice,
	}
	e.recordEvent(ctx, item.ID, e.lot.version, event.AuctionOpened, data)
	e.hub.Publish(broadcast.Message{Type: event.AuctionOpened, Data: data})

	e.logger.InfoContext(ctx, "auction opened",
		slog.String("item_id", item.ID),
		slog.String("item", item.Name),
		slog.Int("base_price", item.BasePrice),
	)
	return e.lot.snapshot(), nil
}

// PlaceBid validates and admits a single bid attempt. Validation and the
// durable commit run under the engine lock; the in-memory lot advances
// only after the commit succeeds, so a store failure leaves the
// pre-attempt snapshot intact.
func (e *Engine) PlaceBid(ctx context.Context, itemID, partyID string, amount int) (Snapshot, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.PlaceBid",
		trace.WithAttributes(
			attribute.String("item_id", itemID),
			attribute.String("party_id", partyID),
			attribute.Int("amount", amount),
		),
	)
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lot == nil || e.lot.ItemID != itemID {
		return Snapshot{}, fmt.Errorf("%w: item %s", ErrNotOpen, itemID)
	}
	if amount <= e.lot.CurrentBid {
		return Snapshot{}, fmt.Errorf("%w: current bid is %d", ErrBidTooLow, e.lot.CurrentBid)
	}

	party, err := e.parties.GetByID(ctx, partyID)
	if err != nil {
		return Snapshot{}, err
	}
	if amount > party.Budget {
		return Snapshot{}, fmt.Errorf("%w: budget is %d", ErrInsufficientBudget, party.Budget)
	}
	if e.lot.LeaderID == party.ID {
		return Snapshot{}, ErrAlreadyLeading
	}

	bid := &store.Bid{
		ItemID:    itemID,
		PartyID:   party.ID,
		Amount:    amount,
		CreatedAt: e.clock.Now().UTC(),
	}
	if err := e.ledger.RecordBid(ctx, bid); err != nil {
		return Snapshot{}, fmt.Errorf("recording bid: %w", err)
	}

	e.lot.CurrentBid = amount
	e.lot.LeaderID = party.ID
	e.lot.LeaderName = party.Name
	e.lot.version++

	data := event.BidAcceptedData{
		ItemID:    itemID,
		ItemName:  e.lot.ItemName,
		PartyID:   party.ID,
		PartyName: party.Name,
		Amount:    amount,
	}
	e.recordEvent(ctx, itemID, e.lot.version, event.AuctionBidAccepted, data)
	e.hub.Publish(broadcast.Message{Type: event.AuctionBidAccepted, Data: data})

	e.logger.InfoContext(ctx, "bid accepted",
		slog.String("item_id", itemID),
		slog.String("party_id", party.ID),
		slog.Int("amount", amount),
	)
	return e.lot.snapshot(), nil
}

// Close ends the open lot. With a leading bid the winning party's budget
// is decremented and the item joins its holdings in one transaction;
// without one the item returns to the unsold pool. Either way the room
// goes back to idle.
func (e *Engine) Close(ctx context.Context) (Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Close")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lot == nil {
		return Outcome{}, fmt.Errorf("%w: no item is open", ErrInvalidTransition)
	}
	lot := e.lot

	if lot.LeaderID != "" && lot.CurrentBid > 0 {
		if err := e.ledger.SettleSale(ctx, lot.ItemID, lot.LeaderID, lot.CurrentBid); err != nil {
			// The lot stays open; the caller may retry the close.
			return Outcome{}, fmt.Errorf("settling sale: %w", err)
		}
		e.lot = nil

		data := event.SettledData{
			ItemID:    lot.ItemID,
			ItemName:  lot.ItemName,
			PartyID:   lot.LeaderID,
			PartyName: lot.LeaderName,
			Price:     lot.CurrentBid,
		}
		e.recordEvent(ctx, lot.ItemID, lot.version+1, event.AuctionSettled, data)
		e.hub.Publish(broadcast.Message{Type: event.AuctionSettled, Data: data})

		e.logger.InfoContext(ctx, "auction settled",
			slog.String("item_id", lot.ItemID),
			slog.String("winner_id", lot.LeaderID),
			slog.Int("price", lot.CurrentBid),
		)
		return Outcome{
			Sold:      true,
			ItemID:    lot.ItemID,
			ItemName:  lot.ItemName,
			PartyID:   lot.LeaderID,
			PartyName: lot.LeaderName,
			Price:     lot.CurrentBid,
		}, nil
	}

	if err := e.items.MarkUnsold(ctx, lot.ItemID); err != nil {
		return Outcome{}, fmt.Errorf("marking item unsold: %w", err)
	}
	e.lot = nil

	data := event.UnsoldData{ItemID: lot.ItemID, ItemName: lot.ItemName}
	e.recordEvent(ctx, lot.ItemID, lot.version+1, event.AuctionUnsold, data)
	e.hub.Publish(broadcast.Message{Type: event.AuctionUnsold, Data: data})

	e.logger.InfoContext(ctx, "auction closed without bids",
		slog.String("item_id", lot.ItemID),
	)
	return Outcome{Sold: false, ItemID: lot.ItemID, ItemName: lot.ItemName}, nil
}

// Status returns the current snapshot, or ok=false when the room is idle.
// It never blocks behind a mutating operation for longer than that
// operation's critical section.
func (e *Engine) Status() (Snapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.lot == nil {
		return Snapshot{}, false
	}
	return e.lot.snapshot(), true
}

// Recover rebuilds the open lot from durable state after a restart or
// failover. The snapshot is a projection over the item row and its latest
// bid record.
func (e *Engine) Recover(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "Engine.Recover")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.items.GetOpen(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding open item: %w", err)
	}

	lot := &Lot{
		ItemID:     item.ID,
		ItemName:   item.Name,
		ItemRole:   item.Role,
		BasePrice:  item.BasePrice,
		CurrentBid: item.CurrentBid,
		OpenedAt:   item.UpdatedAt,
		version:    1,
	}

	latest, err := e.bids.LatestForItem(ctx, item.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No bids yet; base price stands.
	case err != nil:
		return fmt.Errorf("loading latest bid: %w", err)
	default:
		if latest.Amount != item.CurrentBid {
			e.logger.WarnContext(ctx, "item row and bid trail disagree, trusting bid trail",
				slog.String("item_id", item.ID),
				slog.Int("item_current_bid", item.CurrentBid),
				slog.Int("latest_bid", latest.Amount),
			)
			lot.CurrentBid = latest.Amount
		}
		party, err := e.parties.GetByID(ctx, latest.PartyID)
		if err != nil {
			return fmt.Errorf("loading leading party: %w", err)
		}
		lot.LeaderID = party.ID
		lot.LeaderName = party.Name
	}

	e.lot = lot
	e.logger.InfoContext(ctx, "recovered open auction",
		slog.String("item_id", lot.ItemID),
		slog.String("item", lot.ItemName),
		slog.Int("current_bid", lot.CurrentBid),
	)
	return nil
}

// recordEvent appends to the audit trail. Audit failures are logged and do
// not fail the operation; the bid and item rows are the source of truth.
func (e *Engine) recordEvent(ctx context.Context, aggregateID string, version int, t event.Type, data any) {
	payload, _ := json.Marshal(data)
	err := e.events.Append(ctx, event.Event{
		AggregateID: aggregateID,
		Type:        t,
		Data:        payload,
		Version:     version,
	})
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to append audit event",
			slog.String("type", string(t)),
			slog.Any("error", err),
		)
	}
}
