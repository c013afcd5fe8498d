// Package memory provides in-process repositories for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"warrantboard/domain/item"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"
)

// SaveRepository keeps encoded player records in a map. Records are stored
// encoded so callers never share state with the store.
type SaveRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewSaveRepository creates an empty store.
func NewSaveRepository() *SaveRepository {
	return &SaveRepository{records: make(map[string][]byte)}
}

// Load returns the player's record.
func (r *SaveRepository) Load(ctx context.Context, playerID string) (*page.Record, error) {
	r.mu.RLock()
	data, ok := r.records[playerID]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("player record")
	}

	var rec page.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, pkgerrors.NewDatabaseError("load", err)
	}
	return &rec, nil
}

// Store replaces the player's record.
func (r *SaveRepository) Store(ctx context.Context, playerID string, record *page.Record) error {
	if record == nil {
		return pkgerrors.NewValidationError("record is required")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("store", err)
	}

	r.mu.Lock()
	r.records[playerID] = data
	r.mu.Unlock()
	return nil
}

// InventoryRepository keeps cloned item instances per player.
type InventoryRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*item.Instance
	order map[string][]string
}

// NewInventoryRepository creates an empty store.
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		items: make(map[string]map[string]*item.Instance),
		order: make(map[string][]string),
	}
}

// List returns the player's items in insertion order.
func (r *InventoryRepository) List(ctx context.Context, playerID string) ([]*item.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owned := r.items[playerID]
	out := make([]*item.Instance, 0, len(owned))
	for _, id := range r.order[playerID] {
		if inst, ok := owned[id]; ok {
			out = append(out, inst.Clone())
		}
	}
	return out, nil
}

// Put creates or replaces one item.
func (r *InventoryRepository) Put(ctx context.Context, playerID string, inst *item.Instance) error {
	if inst == nil || inst.ID == "" {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid item for player %s", playerID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owned, ok := r.items[playerID]
	if !ok {
		owned = make(map[string]*item.Instance)
		r.items[playerID] = owned
	}
	if _, exists := owned[inst.ID]; !exists {
		r.order[playerID] = append(r.order[playerID], inst.ID)
	}
	owned[inst.ID] = inst.Clone()
	return nil
}

// Delete removes items; unknown ids are ignored.
func (r *InventoryRepository) Delete(ctx context.Context, playerID string, itemIDs ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.items[playerID]
	if len(owned) == 0 {
		return nil
	}
	for _, id := range itemIDs {
		delete(owned, id)
	}

	kept := r.order[playerID][:0]
	for _, id := range r.order[playerID] {
		if _, ok := owned[id]; ok {
			kept = append(kept, id)
		}
	}
	r.order[playerID] = kept
	return nil
}
