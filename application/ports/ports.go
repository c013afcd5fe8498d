package ports

import (
	"context"
	"time"

	"warrantboard/domain/board"
	"warrantboard/domain/builder"
	"warrantboard/domain/events"
	"warrantboard/domain/item"
	"warrantboard/domain/page"
)

// SaveRepository persists each player's page record.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type SaveRepository interface {
	// Load returns the player's record, or a NOT_FOUND AppError when none exists
	Load(ctx context.Context, playerID string) (*page.Record, error)

	// Store replaces the player's record
	Store(ctx context.Context, playerID string, record *page.Record) error
}

// InventoryRepository persists the items a player owns.
type InventoryRepository interface {
	// List returns the player's items in insertion order
	List(ctx context.Context, playerID string) ([]*item.Instance, error)

	// Put creates or replaces one item
	Put(ctx context.Context, playerID string, inst *item.Instance) error

	// Delete removes items; unknown ids are ignored
	Delete(ctx context.Context, playerID string, itemIDs ...string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// BuiltBoard is an immutable graph plus the handles the visual layer binds to.
type BuiltBoard struct {
	Definition string                 `json:"definition"`
	AnchorID   string                 `json:"anchorId"`
	Graph      *board.Graph           `json:"-"`
	Visuals    []builder.VisualHandle `json:"nodes"`
	Edges      []board.Edge           `json:"edges"`
}

// BoardCache keeps built boards keyed by definition fingerprint.
type BoardCache interface {
	Get(key string) (*BuiltBoard, bool)
	Add(key string, b *BuiltBoard)
	Purge()
}

// Metrics records operational measurements.
type Metrics interface {
	// ObserveOperation records one session operation and its outcome
	ObserveOperation(op string, err error, d time.Duration)

	// ItemCreated counts rolled and fused items by rarity
	ItemCreated(source string, rarity item.Rarity)

	// BoardCacheLookup counts cache hits and misses
	BoardCacheLookup(hit bool)

	// SetActiveSessions reports the number of loaded sessions
	SetActiveSessions(n int)
}
