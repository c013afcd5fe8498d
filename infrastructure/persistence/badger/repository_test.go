package badger

import (
	"context"
	"testing"
	"time"

	"warrantboard/domain/item"
	"warrantboard/domain/page"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)

	repo, err := NewRepository(db, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, repo.Close())
		assert.NoError(t, db.Close())
	})
	return repo
}

func warrant(id string) *item.Instance {
	return &item.Instance{
		ID:         id,
		BaseName:   "Iron Warrant",
		Rarity:     item.RarityMagic,
		RangeDepth: 1,
		Modifiers: []item.Modifier{
			{ID: "dmg", DisplayName: "Damage", Operation: item.OpAdditive, Value: 10},
		},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Load(ctx, "p1")
	assert.True(t, pkgerrors.IsNotFound(err))

	rec := &page.Record{
		ActivePageIndex: 1,
		SkillPoints:     4,
		Pages: []page.Snapshot{
			{PageID: "a", DisplayName: "Page 1", UnlockedNodeIDs: []string{"anchor"}},
			{PageID: "b", DisplayName: "Page 2", UnlockedNodeIDs: []string{"anchor", "s1"},
				SocketAssignments: []page.SocketAssignment{{NodeID: "s1", ItemID: "w1"}}},
		},
	}
	require.NoError(t, repo.Store(ctx, "p1", rec))

	got, err := repo.Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = repo.Load(ctx, "p2")
	assert.True(t, pkgerrors.IsNotFound(err))

	assert.True(t, pkgerrors.IsValidation(repo.Store(ctx, "p1", nil)))
}

func TestInventoryOrderAndReplace(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"w3", "w1", "w2"} {
		require.NoError(t, repo.Put(ctx, "p1", warrant(id)))
	}
	require.NoError(t, repo.Put(ctx, "p2", warrant("other")))

	replaced := warrant("w3")
	replaced.Rarity = item.RarityRare
	require.NoError(t, repo.Put(ctx, "p1", replaced))

	items, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "w3", items[0].ID)
	assert.Equal(t, item.RarityRare, items[0].Rarity)
	assert.Equal(t, "w1", items[1].ID)
	assert.Equal(t, "w2", items[2].ID)
	assert.Equal(t, 10.0, items[1].Modifiers[0].Value)
}

func TestInventoryDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"w1", "w2", "w3"} {
		require.NoError(t, repo.Put(ctx, "p1", warrant(id)))
	}
	require.NoError(t, repo.Delete(ctx, "p1", "w1", "w3", "missing"))
	require.NoError(t, repo.Delete(ctx, "p1"))

	items, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "w2", items[0].ID)

	assert.True(t, pkgerrors.IsValidation(repo.Put(ctx, "p1", &item.Instance{})))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestPersistentDatabaseSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := Open(Config{Path: dir, SyncWrites: true, Logger: zap.NewNop()})
	require.NoError(t, err)
	repo, err := NewRepository(db, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, "p1", warrant("w1")))
	require.NoError(t, repo.Close())
	require.NoError(t, db.Close())

	db, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer db.Close()
	repo, err = NewRepository(db, nil)
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Put(ctx, "p1", warrant("w2")))
	items, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "w1", items[0].ID)
	assert.Equal(t, "w2", items[1].ID)
}

func TestGCRunner(t *testing.T) {
	_, err := NewGCRunner(nil, time.Second, 0.5, nil)
	assert.Error(t, err)

	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	_, err = NewGCRunner(db, 0, 0.5, nil)
	assert.Error(t, err)

	runner, err := NewGCRunner(db, 10*time.Millisecond, 0, zap.NewNop())
	require.NoError(t, err)
	runner.Start()
	time.Sleep(30 * time.Millisecond)
	runner.Stop()
}
