package badger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"warrantboard/domain/item"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"

	badgerdb "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Key layout:
//
//	save/<player>            page.Record
//	inv/<player>/<item>      inventoryEntry
const (
	savePrefix      = "save/"
	inventoryPrefix = "inv/"
	sequenceKey     = "seq/inventory"
)

func saveKey(playerID string) []byte {
	return []byte(savePrefix + playerID)
}

func inventoryPlayerPrefix(playerID string) []byte {
	return []byte(inventoryPrefix + playerID + "/")
}

func inventoryKey(playerID, itemID string) []byte {
	return append(inventoryPlayerPrefix(playerID), itemID...)
}

// inventoryEntry keeps the insertion sequence next to the item so List can
// return items in the order they were obtained.
type inventoryEntry struct {
	Seq  uint64         `json:"seq"`
	Item *item.Instance `json:"item"`
}

// Repository implements both the save and inventory ports on one database.
type Repository struct {
	db     *badgerdb.DB
	seq    *badgerdb.Sequence
	logger *zap.Logger
}

// NewRepository wraps an open database. Close releases the sequence but
// leaves the database open.
func NewRepository(db *badgerdb.DB, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	seq, err := db.GetSequence([]byte(sequenceKey), 64)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("sequence", err)
	}
	return &Repository{db: db, seq: seq, logger: logger}, nil
}

// Close releases leased sequence numbers.
func (r *Repository) Close() error {
	return r.seq.Release()
}

// Load returns the player's record.
func (r *Repository) Load(ctx context.Context, playerID string) (*page.Record, error) {
	var rec page.Record
	err := r.db.View(func(txn *badgerdb.Txn) error {
		it, err := txn.Get(saveKey(playerID))
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, pkgerrors.NewNotFoundError("player record")
	}
	if err != nil {
		r.logger.Error("Failed to load player record", zap.String("playerId", playerID), zap.Error(err))
		return nil, pkgerrors.NewDatabaseError("load", err)
	}
	return &rec, nil
}

// Store replaces the player's record.
func (r *Repository) Store(ctx context.Context, playerID string, record *page.Record) error {
	if record == nil {
		return pkgerrors.NewValidationError("record is required")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return pkgerrors.NewDatabaseError("store", err)
	}
	if err := r.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(saveKey(playerID), data)
	}); err != nil {
		return pkgerrors.NewDatabaseError("store", err)
	}
	return nil
}

// List returns the player's items in insertion order.
func (r *Repository) List(ctx context.Context, playerID string) ([]*item.Instance, error) {
	var entries []inventoryEntry
	prefix := inventoryPlayerPrefix(playerID)

	err := r.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry inventoryEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				r.logger.Warn("Skipping unreadable inventory entry",
					zap.ByteString("key", it.Item().KeyCopy(nil)),
					zap.Error(err),
				)
				continue
			}
			if entry.Item != nil {
				entries = append(entries, entry)
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list inventory", err)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	out := make([]*item.Instance, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Item)
	}
	return out, nil
}

// Put creates or replaces one item. Replacing keeps the original position.
func (r *Repository) Put(ctx context.Context, playerID string, inst *item.Instance) error {
	if inst == nil || inst.ID == "" {
		return pkgerrors.NewValidationError("item id is required")
	}
	key := inventoryKey(playerID, inst.ID)

	err := r.db.Update(func(txn *badgerdb.Txn) error {
		entry := inventoryEntry{Item: inst}
		existing, err := txn.Get(key)
		switch {
		case err == nil:
			var prev inventoryEntry
			if err := existing.Value(func(val []byte) error { return json.Unmarshal(val, &prev) }); err != nil {
				return err
			}
			entry.Seq = prev.Seq
		case errors.Is(err, badgerdb.ErrKeyNotFound):
			next, err := r.seq.Next()
			if err != nil {
				return err
			}
			entry.Seq = next
		default:
			return err
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("put item", err)
	}
	return nil
}

// Delete removes items; unknown ids are ignored.
func (r *Repository) Delete(ctx context.Context, playerID string, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	err := r.db.Update(func(txn *badgerdb.Txn) error {
		for _, id := range itemIDs {
			if err := txn.Delete(inventoryKey(playerID, id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete items", err)
	}
	return nil
}
