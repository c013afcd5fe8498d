package session

import (
	"context"
	"errors"
	"testing"

	"warrantboard/domain/fusion"
	"warrantboard/domain/item"
	"warrantboard/domain/page"
	"warrantboard/infrastructure/persistence/memory"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errThrottled = errors.New("throttled")

// flakySaves is the in-memory save repository with a switchable write failure.
type flakySaves struct {
	*memory.SaveRepository
	failStore bool
}

func (f *flakySaves) Store(ctx context.Context, playerID string, record *page.Record) error {
	if f.failStore {
		return pkgerrors.NewDatabaseError("store", errThrottled)
	}
	return f.SaveRepository.Store(ctx, playerID, record)
}

// flakyInventory fails multi-item deletes after removing the first id, the
// way a partially processed batch write leaves a table.
type flakyInventory struct {
	*memory.InventoryRepository
	failBatchDelete bool
}

func (f *flakyInventory) Delete(ctx context.Context, playerID string, itemIDs ...string) error {
	if f.failBatchDelete && len(itemIDs) > 1 {
		if err := f.InventoryRepository.Delete(ctx, playerID, itemIDs[0]); err != nil {
			return err
		}
		return pkgerrors.NewDatabaseError("delete items", errThrottled)
	}
	return f.InventoryRepository.Delete(ctx, playerID, itemIDs...)
}

type storeHarness struct {
	saves     *flakySaves
	inventory *flakyInventory
	manager   *Manager
}

func newStoreHarness(opts Options) *storeHarness {
	h := &storeHarness{
		saves:     &flakySaves{SaveRepository: memory.NewSaveRepository()},
		inventory: &flakyInventory{InventoryRepository: memory.NewInventoryRepository()},
	}
	engine := fusion.NewEngine(nil, nil, fusion.WithIDGenerator(func() string { return "fused-1" }))
	h.manager = NewManager(
		Catalog{Definition: testDefinition(), Database: testDatabase()},
		h.saves, h.inventory, nil, nil, nil, engine, opts, nil,
	)
	return h
}

func (h *storeHarness) roll(t *testing.T) *item.Instance {
	t.Helper()
	inst, err := h.manager.Roll(context.Background(), player, RollRequest{BlueprintID: "iron", MinAffixes: intPtr(1), MaxAffixes: intPtr(1)})
	require.NoError(t, err)
	return inst
}

func ids(items []*item.Instance) []string {
	out := make([]string, 0, len(items))
	for _, inst := range items {
		out = append(out, inst.ID)
	}
	return out
}

func TestManager_FailedSaveRollsBack(t *testing.T) {
	tests := []struct {
		name string
		op   func(ctx context.Context, m *Manager, itemID string) error
	}{
		{name: "unlock", op: func(ctx context.Context, m *Manager, _ string) error {
			_, err := m.TryUnlock(ctx, player, "e1")
			return err
		}},
		{name: "assign", op: func(ctx context.Context, m *Manager, itemID string) error {
			return m.Assign(ctx, player, "s2", itemID)
		}},
		{name: "unassign", op: func(ctx context.Context, m *Manager, _ string) error {
			_, err := m.Unassign(ctx, player, "s1")
			return err
		}},
		{name: "create page", op: func(ctx context.Context, m *Manager, _ string) error {
			_, err := m.CreatePage(ctx, player, "Spare")
			return err
		}},
		{name: "switch page", op: func(ctx context.Context, m *Manager, _ string) error {
			return m.SwitchPage(ctx, player, 1)
		}},
		{name: "grant points", op: func(ctx context.Context, m *Manager, _ string) error {
			_, err := m.GrantPoints(ctx, player, 3)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newStoreHarness(Options{StartingPoints: 5, MaxPages: 5})
			ctx := context.Background()

			_, err := h.manager.TryUnlock(ctx, player, "s1")
			require.NoError(t, err)
			_, err = h.manager.TryUnlock(ctx, player, "s2")
			require.NoError(t, err)
			inst := h.roll(t)
			require.NoError(t, h.manager.Assign(ctx, player, "s1", inst.ID))
			_, err = h.manager.CreatePage(ctx, player, "Second")
			require.NoError(t, err)

			before, err := h.manager.State(ctx, player)
			require.NoError(t, err)
			stored, err := h.saves.Load(ctx, player)
			require.NoError(t, err)

			h.saves.failStore = true
			err = tt.op(ctx, h.manager, inst.ID)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))

			after, err := h.manager.State(ctx, player)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			storedAfter, err := h.saves.Load(ctx, player)
			require.NoError(t, err)
			assert.Equal(t, stored, storedAfter)

			h.saves.failStore = false
			require.NoError(t, tt.op(ctx, h.manager, inst.ID))
		})
	}
}

func TestManager_FuseDeleteFailureRestoresInventory(t *testing.T) {
	h := newStoreHarness(Options{Unlimited: true})
	ctx := context.Background()
	_, err := h.manager.TryUnlock(ctx, player, "s1")
	require.NoError(t, err)
	a, b, c := h.roll(t), h.roll(t), h.roll(t)
	require.NoError(t, h.manager.Assign(ctx, player, "s1", a.ID))

	h.inventory.failBatchDelete = true
	_, err = h.manager.Fuse(ctx, player, FuseRequest{ItemIDs: [3]string{a.ID, b.ID, c.ID}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))

	want := []string{a.ID, b.ID, c.ID}
	stored, err := h.inventory.List(ctx, player)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, ids(stored))

	inv, err := h.manager.Inventory(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, want, ids(inv))

	state, err := h.manager.State(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, []page.SocketAssignment{{NodeID: "s1", ItemID: a.ID}}, state.Pages[0].SocketAssignments)

	h.manager.Evict(player)
	reloaded, err := h.manager.Inventory(ctx, player)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, ids(reloaded))
}

func TestManager_FuseSaveFailureRestoresInventory(t *testing.T) {
	h := newStoreHarness(Options{Unlimited: true})
	ctx := context.Background()
	_, err := h.manager.TryUnlock(ctx, player, "s1")
	require.NoError(t, err)
	a, b, c := h.roll(t), h.roll(t), h.roll(t)
	require.NoError(t, h.manager.Assign(ctx, player, "s1", a.ID))

	h.saves.failStore = true
	_, err = h.manager.Fuse(ctx, player, FuseRequest{ItemIDs: [3]string{a.ID, b.ID, c.ID}})
	require.Error(t, err)

	want := []string{a.ID, b.ID, c.ID}
	stored, err := h.inventory.List(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, want, ids(stored))

	inv, err := h.manager.Inventory(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, want, ids(inv))

	state, err := h.manager.State(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, []page.SocketAssignment{{NodeID: "s1", ItemID: a.ID}}, state.Pages[0].SocketAssignments)

	h.saves.failStore = false
	result, err := h.manager.Fuse(ctx, player, FuseRequest{ItemIDs: [3]string{a.ID, b.ID, c.ID}})
	require.NoError(t, err)
	stored, err = h.inventory.List(ctx, player)
	require.NoError(t, err)
	assert.Equal(t, []string{result.ID}, ids(stored))
}

func TestManager_SummaryPairsPageWithContributions(t *testing.T) {
	h := newStoreHarness(Options{Unlimited: true})
	ctx := context.Background()
	_, err := h.manager.TryUnlock(ctx, player, "s1")
	require.NoError(t, err)
	_, err = h.manager.TryUnlock(ctx, player, "e1")
	require.NoError(t, err)
	inst := h.roll(t)
	require.NoError(t, h.manager.Assign(ctx, player, "s1", inst.ID))
	second, err := h.manager.CreatePage(ctx, player, "Empty")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = h.manager.SwitchPage(ctx, player, i%2)
		}
	}()

	for i := 0; i < 200; i++ {
		summary, err := h.manager.Summary(ctx, player)
		require.NoError(t, err)
		if summary.PageID == second.PageID {
			assert.Empty(t, summary.Contributions)
		} else {
			assert.Len(t, summary.Contributions, 2)
		}
	}
	<-done
}

func TestManager_PublishesOutsideSessionLock(t *testing.T) {
	h := newHarness(Options{Unlimited: true})
	h.saves.On("Load", mock.Anything, player).Return(nil, pkgerrors.NewNotFoundError("record"))
	h.saves.On("Store", mock.Anything, player, mock.Anything).Return(nil)
	h.inventory.On("List", mock.Anything, player).Return(nil, nil)

	ctx := context.Background()
	s, err := h.manager.session(ctx, player)
	require.NoError(t, err)

	h.publisher.On("Publish", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		require.True(t, s.mu.TryLock())
		s.mu.Unlock()
	}).Return(nil)

	_, err = h.manager.TryUnlock(ctx, player, "s1")
	require.NoError(t, err)
	h.publisher.AssertNumberOfCalls(t, "Publish", 1)
}
