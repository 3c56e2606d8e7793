// Package server exposes the auction engine over HTTP and a websocket
// event stream.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/jensholdgaard/live-auction/internal/auction"
	"github.com/jensholdgaard/live-auction/internal/broadcast"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// Server holds the handlers for the auction API.
type Server struct {
	engine   *auction.Engine
	hub      *broadcast.Hub
	repos    *store.Repositories
	validate *validator.Validate
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New creates a Server.
func New(engine *auction.Engine, hub *broadcast.Hub, repos *store.Repositories, logger *slog.Logger) *Server {
	return &Server{
		engine:   engine,
		hub:      hub,
		repos:    repos,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Register attaches all API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auction/open", s.handleOpen)
	mux.HandleFunc("POST /api/auction/bid", s.handleBid)
	mux.HandleFunc("POST /api/auction/close", s.handleClose)
	mux.HandleFunc("GET /api/auction/status", s.handleStatus)
	mux.HandleFunc("GET /api/auction/live", s.handleLive)

	mux.HandleFunc("POST /api/items", s.handleCreateItem)
	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("GET /api/items/{id}/bids", s.handleItemBids)

	mux.HandleFunc("POST /api/parties", s.handleCreateParty)
	mux.HandleFunc("GET /api/parties", s.handleListParties)
	mux.HandleFunc("GET /api/parties/{id}", s.handleGetParty)

	mux.HandleFunc("POST /api/schedules", s.handleCreateSchedule)
	mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode unmarshals and validates a request body. A failure here is a
// ValidationError: the request never reaches the engine.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

// writeError maps domain errors onto HTTP status codes. Anything outside
// the domain taxonomy is treated as a store failure: the engine guarantees
// its in-memory state rolled back, so the caller may retry.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, auction.ErrInvalidTransition):
		code = http.StatusConflict
	case errors.Is(err, auction.ErrNotOpen),
		errors.Is(err, auction.ErrBidTooLow),
		errors.Is(err, auction.ErrInsufficientBudget),
		errors.Is(err, auction.ErrAlreadyLeading):
		code = http.StatusUnprocessableEntity
	default:
		code = http.StatusBadGateway
		s.logger.ErrorContext(r.Context(), "store failure",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
