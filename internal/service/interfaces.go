// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/oakmont/wealthsim/internal/model"
)

// PositionFilter narrows open-position queries.
type PositionFilter struct {
	CustomerID string
	ProductID  string
	Limit      int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Customer and product catalog (read-only to the engine)
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	GetCustomers(ctx context.Context, ids []string) ([]model.Customer, error)
	GetAllCustomers(ctx context.Context) ([]model.Customer, error)
	SaveCustomers(ctx context.Context, customers []model.Customer) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductsAvailable(ctx context.Context, from, to time.Time) ([]model.Product, error)
	SaveProducts(ctx context.Context, products []model.Product) error

	// Position lifecycle
	SavePositions(ctx context.Context, positions []model.InvestmentPosition) error
	LoadOpenPositions(ctx context.Context, filter PositionFilter) ([]model.InvestmentPosition, error)
	ApplyTransitions(ctx context.Context, deltas []model.PositionDelta) (int, error)
	GetCustomerHistory(ctx context.Context, customerID string, limit int) ([]model.PositionSummary, error)
	CountCustomerPositions(ctx context.Context, customerID, productID string) (int, error)

	// Realtime watermark
	GetWatermark(ctx context.Context, key string) (time.Time, error)
	SetWatermark(ctx context.Context, key string, at time.Time) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// EventSink receives state-transition notifications. Implementations are
// fire-and-forget: delivery failures are logged, never propagated.
type EventSink interface {
	PositionOpened(ctx context.Context, pos model.InvestmentPosition)
	PositionChanged(ctx context.Context, delta model.PositionDelta)
}

// BatchStats summarizes one generation or simulation batch. A batch never
// hard-fails on a single bad record; it counts and moves on.
type BatchStats struct {
	Processed int
	Created   int
	Partial   int
	Full      int
	Matured   int
	Skipped   int
	Errored   int
}

// Add accumulates another batch's counters into this one.
func (s *BatchStats) Add(other BatchStats) {
	s.Processed += other.Processed
	s.Created += other.Created
	s.Partial += other.Partial
	s.Full += other.Full
	s.Matured += other.Matured
	s.Skipped += other.Skipped
	s.Errored += other.Errored
}
