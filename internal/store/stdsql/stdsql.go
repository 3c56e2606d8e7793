// Package stdsql provides a store.Driver over the plain database/sql
// interface with OTEL instrumentation via otelsql. It uses the same
// Postgres schema as the sqlx driver; it exists for deployments that
// standardize on database/sql and as a second implementation keeping the
// repository interfaces honest.
package stdsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq" // postgres driver
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/config"
	"github.com/jensholdgaard/live-auction/internal/store"
)

// closerFunc adapts a func() error into an io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func init() {
	store.Register("stdsql", openStdsql)
}

// openStdsql is the store.Driver for the "stdsql" backend.
func openStdsql(ctx context.Context, cfg config.DatabaseConfig, clk clock.Clock) (*store.Repositories, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &store.Repositories{
		Items:     NewItemRepo(db, clk),
		Parties:   NewPartyRepo(db, clk),
		Bids:      NewBidRepo(db),
		Schedules: NewScheduleRepo(db, clk),
		Ledger:    NewLedgerRepo(db, clk),
		Events:    NewEventStore(db),
		Closer:    closerFunc(db.Close),
		Ping:      db.PingContext,
	}, nil
}

// Connect opens and verifies a Postgres connection via database/sql with
// OTEL instrumentation.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN()

	db, err := otelsql.Open("postgres", dsn,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}
