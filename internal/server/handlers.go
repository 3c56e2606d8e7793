package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jensholdgaard/live-auction/internal/auction"
	"github.com/jensholdgaard/live-auction/internal/event"
	"github.com/jensholdgaard/live-auction/internal/store"
)

type openRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type bidRequest struct {
	ItemID  string `json:"item_id" validate:"required"`
	PartyID string `json:"party_id" validate:"required"`
	Amount  int    `json:"amount" validate:"required,gt=0"`
}

type createItemRequest struct {
	Name      string `json:"name" validate:"required"`
	Role      string `json:"role" validate:"required"`
	BasePrice int    `json:"base_price" validate:"required,gt=0"`
}

type createPartyRequest struct {
	Name   string `json:"name" validate:"required"`
	Owner  string `json:"owner" validate:"required"`
	Budget int    `json:"budget" validate:"required,gt=0"`
}

type createScheduleRequest struct {
	ItemID       string    `json:"item_id" validate:"required"`
	ScheduledFor time.Time `json:"scheduled_for" validate:"required"`
}

type statusResponse struct {
	Status   string            `json:"status"`
	Snapshot *auction.Snapshot `json:"snapshot,omitempty"`
}

type partyResponse struct {
	store.Party
	Holdings []store.Item `json:"holdings"`
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snap, err := s.engine.Open(r.Context(), req.ItemID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	snap, err := s.engine.PlaceBid(r.Context(), req.ItemID, req.PartyID, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.engine.Close(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.engine.Status(); ok {
		writeJSON(w, http.StatusOK, statusResponse{Status: "open", Snapshot: &snap})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "idle"})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	item := &store.Item{Name: req.Name, Role: req.Role, BasePrice: req.BasePrice}
	if err := s.repos.Items.Create(r.Context(), item); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.audit(r, item.ID, event.ItemCreated, item)
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.repos.Items.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleItemBids(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.repos.Items.GetByID(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	bids, err := s.repos.Bids.ListForItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bids)
}

func (s *Server) handleCreateParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	party := &store.Party{Name: req.Name, Owner: req.Owner, Budget: req.Budget}
	if err := s.repos.Parties.Create(r.Context(), party); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.audit(r, party.ID, event.PartyCreated, party)
	writeJSON(w, http.StatusCreated, party)
}

func (s *Server) handleListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := s.repos.Parties.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parties)
}

func (s *Server) handleGetParty(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	party, err := s.repos.Parties.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	holdings, err := s.repos.Items.ListOwnedBy(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if holdings == nil {
		holdings = []store.Item{}
	}
	writeJSON(w, http.StatusOK, partyResponse{Party: *party, Holdings: holdings})
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if _, err := s.repos.Items.GetByID(r.Context(), req.ItemID); err != nil {
		s.writeError(w, r, err)
		return
	}

	sched := &store.Schedule{ItemID: req.ItemID, ScheduledFor: req.ScheduledFor.UTC()}
	if err := s.repos.Schedules.Create(r.Context(), sched); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sched)
}

// audit appends an admin action to the event trail. Failures are logged
// and do not fail the request.
func (s *Server) audit(r *http.Request, aggregateID string, t event.Type, data any) {
	payload, _ := json.Marshal(data)
	err := s.repos.Events.Append(r.Context(), event.Event{
		AggregateID: aggregateID,
		Type:        t,
		Data:        payload,
		Version:     1,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to append audit event",
			slog.String("type", string(t)),
			slog.Any("error", err),
		)
	}
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.repos.Schedules.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}
