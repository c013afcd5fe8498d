package memory

import (
	"context"
	"testing"

	"warrantboard/domain/item"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRepository(t *testing.T) {
	repo := NewSaveRepository()
	ctx := context.Background()

	_, err := repo.Load(ctx, "p1")
	assert.True(t, pkgerrors.IsNotFound(err))

	rec := &page.Record{
		ActivePageIndex: 0,
		SkillPoints:     3,
		Pages:           []page.Snapshot{{PageID: "a", DisplayName: "Page 1", UnlockedNodeIDs: []string{"anchor"}}},
	}
	require.NoError(t, repo.Store(ctx, "p1", rec))

	// Mutating the caller's copy must not leak into the store.
	rec.SkillPoints = 99
	rec.Pages[0].UnlockedNodeIDs[0] = "changed"

	got, err := repo.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SkillPoints)
	assert.Equal(t, []string{"anchor"}, got.Pages[0].UnlockedNodeIDs)

	assert.True(t, pkgerrors.IsValidation(repo.Store(ctx, "p1", nil)))
}

func TestInventoryRepository(t *testing.T) {
	repo := NewInventoryRepository()
	ctx := context.Background()

	items, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, items)

	for _, id := range []string{"w2", "w1", "w3"} {
		require.NoError(t, repo.Put(ctx, "p1", &item.Instance{ID: id, Rarity: item.RarityCommon}))
	}
	require.NoError(t, repo.Put(ctx, "p1", &item.Instance{ID: "w2", Rarity: item.RarityRare}))

	items, err = repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"w2", "w1", "w3"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, item.RarityRare, items[0].Rarity)

	items[0].Rarity = item.RarityCommon
	again, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, item.RarityRare, again[0].Rarity)

	require.NoError(t, repo.Delete(ctx, "p1", "w1", "nope"))
	require.NoError(t, repo.Delete(ctx, "ghost", "w1"))
	items, err = repo.List(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.True(t, pkgerrors.IsValidation(repo.Put(ctx, "p1", nil)))
}
