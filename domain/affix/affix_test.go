package affix

import (
	"testing"

	"warrantboard/domain/item"
	"warrantboard/domain/random"
	pkgerrors "warrantboard/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type weighted struct {
	name string
	w    float64
}

func weightOf(c weighted) float64 { return c.w }

func TestPickWeighted(t *testing.T) {
	tests := []struct {
		name   string
		items  []weighted
		draw   float64
		want   string
		wantOK bool
	}{
		{"empty", nil, 0.5, "", false},
		{"all zero returns first", []weighted{{"a", 0}, {"b", 0}}, 0.9, "a", true},
		{"negative totals return first", []weighted{{"a", -3}, {"b", -1}}, 0.9, "a", true},
		{"low draw hits first bucket", []weighted{{"a", 1}, {"b", 3}}, 0.2, "a", true},
		{"high draw hits second bucket", []weighted{{"a", 1}, {"b", 3}}, 0.5, "b", true},
		{"zero weights are skipped", []weighted{{"a", 0}, {"b", 2}, {"c", 0}}, 0.0, "b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := (&random.Scripted{}).WithFloats(tt.draw)
			got, ok := PickWeighted(rng, tt.items, weightOf)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.name)
		})
	}
}

func TestPickWeighted_SingleNonZeroCandidateAlwaysWins(t *testing.T) {
	items := []weighted{{"a", 0}, {"b", 0}, {"winner", 7}, {"d", 0}}
	rng := random.New(42)

	for i := 0; i < 500; i++ {
		got, ok := PickWeighted(rng, items, weightOf)
		require.True(t, ok)
		require.Equal(t, "winner", got.name)
	}
}

func TestNewPool_Validation(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pool := NewPool([]Entry{
		{ID: "flat", StatKey: "anything_flat", Flat: true, MinRoll: 1, MaxRoll: 2, Weight: 1},
		{ID: "pct_ok", StatKey: "attack_speed", MinRoll: 1, MaxRoll: 2, Weight: 1},
		{ID: "pct_bad", StatKey: "made_up_percent", MinRoll: 1, MaxRoll: 2, Weight: 1},
		{ID: "n1", StatKey: "armour", Flat: true, Kind: KindNotable, GroupID: "guard", Weight: 5, DisplayName: "Guard"},
		{ID: "n2", StatKey: "maximum_life", Flat: true, Kind: KindNotable, GroupID: "guard", Weight: 99},
		{ID: "solo", StatKey: "armour", Flat: true, Kind: KindNotable, Weight: 2},
		{ID: "u1", StatKey: "armour", Flat: true, Kind: KindUnique, Weight: 1},
	}, nil, zap.New(core))

	regular := pool.Regular()
	require.Len(t, regular, 2)
	assert.Equal(t, "flat", regular[0].ID)
	assert.Equal(t, "pct_ok", regular[1].ID)
	assert.Equal(t, 1, logs.FilterMessage("Excluding affix with unsupported percentage stat").Len())

	groups := pool.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "guard", groups[0].ID)
	assert.Len(t, groups[0].Members, 2)
	assert.Equal(t, 5.0, groups[0].Weight())
	assert.Equal(t, "Guard", groups[0].DisplayName())
	assert.Equal(t, "solo", groups[1].ID)
	assert.False(t, pool.Empty())
}

func TestNewPool_CustomAllowList(t *testing.T) {
	pool := NewPool([]Entry{
		{ID: "pct", StatKey: "attack_speed", Weight: 1},
		{ID: "custom", StatKey: "custom_percent", Weight: 1},
	}, []string{"custom_percent"}, nil)

	require.Len(t, pool.Regular(), 1)
	assert.Equal(t, "custom", pool.Regular()[0].ID)
}

func TestNewPool_SwapsInvertedRange(t *testing.T) {
	pool := NewPool([]Entry{{ID: "x", StatKey: "armour", Flat: true, MinRoll: 9, MaxRoll: 3, Weight: 1}}, nil, nil)
	e := pool.Regular()[0]
	assert.Equal(t, 3.0, e.MinRoll)
	assert.Equal(t, 9.0, e.MaxRoll)
}

func fixedID() Option {
	return WithIDGenerator(func() string { return "item-1" })
}

func furyCatalog() *NotableCatalog {
	return NewNotableCatalog([]Notable{{
		ID: "fury", DisplayName: "Fury", Weight: 1,
		Modifiers: []NotableModifier{{StatKey: "increased_damage", DisplayName: "Increased Damage", Operation: item.OpMultiplicative, Value: 15}},
	}})
}

var ironWarrant = item.Blueprint{ID: "iron", BaseName: "Iron Warrant", RangeDepth: 2}

func TestRollFromBlueprint_NotableThenRegular(t *testing.T) {
	pool := NewPool([]Entry{{ID: "life", DisplayName: "Life", StatKey: "maximum_life", Flat: true, MinRoll: 10, MaxRoll: 10, Weight: 1}}, nil, nil)
	db := NewDatabase(pool, furyCatalog(), &random.Scripted{}, zap.NewNop(), fixedID())

	inst, err := db.RollFromBlueprint(ironWarrant, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, "item-1", inst.ID)
	assert.Equal(t, "Iron Warrant of Fury", inst.DisplayName)
	assert.Equal(t, "fury", inst.NotableID)
	assert.Equal(t, 2, inst.RangeDepth)
	assert.Equal(t, item.RarityMagic, inst.Rarity)
	require.Len(t, inst.Modifiers, 3)

	notable := inst.Modifiers[0]
	assert.True(t, notable.Notable)
	assert.True(t, notable.SocketOnly)
	assert.Equal(t, "+15%", notable.Text)

	for _, m := range inst.Modifiers[1:] {
		assert.Equal(t, "maximum_life", m.ID)
		assert.Equal(t, 10.0, m.Value)
		assert.Equal(t, "+10", m.Text)
		assert.Equal(t, item.OpAdditive, m.Operation)
		assert.True(t, m.Propagates())
	}
}

func TestRollFromBlueprint_MagnitudeUsesRoundedBounds(t *testing.T) {
	pool := NewPool([]Entry{{ID: "speed", StatKey: "attack_speed", MinRoll: 1.4, MaxRoll: 3.6, Weight: 1}}, nil, nil)
	// rounded range is [1,4]; the scripted draw 3 lands on the top value
	db := NewDatabase(pool, nil, random.NewScripted(3), zap.NewNop(), fixedID())

	inst, err := db.RollFromBlueprint(ironWarrant, 1, 1)
	require.NoError(t, err)
	require.Len(t, inst.Modifiers, 1)
	assert.Equal(t, 4.0, inst.Modifiers[0].Value)
	assert.Equal(t, "+4%", inst.Modifiers[0].Text)
	assert.Equal(t, item.OpMultiplicative, inst.Modifiers[0].Operation)
}

func TestRollFromBlueprint_AffixCountIsUniform(t *testing.T) {
	pool := NewPool([]Entry{{ID: "life", StatKey: "maximum_life", Flat: true, MinRoll: 5, MaxRoll: 5, Weight: 1}}, nil, nil)
	// count = 1 + 2
	db := NewDatabase(pool, furyCatalog(), random.NewScripted(2), zap.NewNop(), fixedID())

	inst, err := db.RollFromBlueprint(ironWarrant, 1, 3)
	require.NoError(t, err)
	assert.Len(t, inst.RegularModifiers(), 3)
	assert.Equal(t, item.RarityRare, inst.Rarity)
}

func TestRollFromBlueprint_RarityByAffixCount(t *testing.T) {
	pool := NewPool([]Entry{{ID: "life", StatKey: "maximum_life", Flat: true, MinRoll: 5, MaxRoll: 5, Weight: 1}}, nil, nil)

	tests := []struct {
		regular int
		want    item.Rarity
	}{
		{1, item.RarityCommon},
		{2, item.RarityMagic},
		{3, item.RarityRare},
		{4, item.RarityRare},
	}

	for _, tt := range tests {
		db := NewDatabase(pool, furyCatalog(), &random.Scripted{}, zap.NewNop(), fixedID())
		inst, err := db.RollFromBlueprint(ironWarrant, tt.regular, tt.regular)
		require.NoError(t, err)
		assert.Equal(t, tt.want, inst.Rarity, "regular=%d", tt.regular)
	}
}

func TestRollFromBlueprint_LegacyNotableGroups(t *testing.T) {
	pool := NewPool([]Entry{
		{ID: "g1a", DisplayName: "Warden", StatKey: "armour", Flat: true, MinRoll: 3, MaxRoll: 3, Kind: KindNotable, GroupID: "warden", Weight: 5},
		{ID: "g1b", DisplayName: "Warden Life", StatKey: "maximum_life", Flat: true, MinRoll: 7, MaxRoll: 7, Kind: KindNotable, GroupID: "warden", Weight: 0},
		{ID: "g2", DisplayName: "Never", StatKey: "armour", Flat: true, Kind: KindNotable, GroupID: "never", Weight: 0},
	}, nil, nil)
	db := NewDatabase(pool, nil, (&random.Scripted{}).WithFloats(0.99), zap.NewNop(), fixedID())

	inst, err := db.RollFromBlueprint(ironWarrant, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, "warden", inst.NotableID)
	assert.Equal(t, "Iron Warrant of Warden", inst.DisplayName)
	require.Len(t, inst.Modifiers, 2)
	for _, m := range inst.Modifiers {
		assert.True(t, m.Notable)
		assert.True(t, m.SocketOnly)
	}
	assert.Equal(t, item.RarityCommon, inst.Rarity)
}

func TestRollFromBlueprint_EmptyPools(t *testing.T) {
	db := NewDatabase(NewPool(nil, nil, nil), nil, &random.Scripted{}, zap.NewNop())

	inst, err := db.RollFromBlueprint(ironWarrant, 1, 3)
	assert.Nil(t, inst)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmptyPool))
}

func TestRollFromBlueprint_NotableOnlyWhenRegularPoolEmpty(t *testing.T) {
	db := NewDatabase(NewPool(nil, nil, nil), furyCatalog(), &random.Scripted{}, zap.NewNop(), fixedID())

	inst, err := db.RollFromBlueprint(ironWarrant, 2, 2)
	require.NoError(t, err)
	assert.Empty(t, inst.RegularModifiers())
	assert.Equal(t, item.RarityCommon, inst.Rarity)
}

func TestRollFromBlueprint_ClampsBounds(t *testing.T) {
	pool := NewPool([]Entry{{ID: "life", StatKey: "maximum_life", Flat: true, MinRoll: 5, MaxRoll: 5, Weight: 1}}, nil, nil)
	db := NewDatabase(pool, nil, &random.Scripted{}, zap.NewNop(), fixedID())

	inst, err := db.RollFromBlueprint(ironWarrant, 3, 1)
	require.NoError(t, err)
	assert.Len(t, inst.Modifiers, 3)

	inst, err = db.RollFromBlueprint(ironWarrant, -2, -1)
	require.NoError(t, err)
	assert.Empty(t, inst.Modifiers)
}

func TestDatabase_Accessors(t *testing.T) {
	db := NewDatabase(NewPool(DefaultEntries(), nil, nil), NewNotableCatalog(DefaultNotables()), random.New(1), nil,
		WithBlueprints(DefaultBlueprints()...))

	assert.Equal(t, len(DefaultNotables()), db.Notables().Len())
	assert.NotEmpty(t, db.Pool().Regular())
	assert.NotEmpty(t, db.Pool().RegularByTag("defence"))

	bp, ok := db.Blueprint("silver_warrant")
	require.True(t, ok)
	assert.Equal(t, "Silver Warrant", bp.BaseName)
	assert.Equal(t, "gilded_warrant", db.Blueprints()[0].ID)
}

func TestDefaultCatalog_RollsValidItems(t *testing.T) {
	db := NewDatabase(NewPool(DefaultEntries(), nil, nil), NewNotableCatalog(DefaultNotables()), random.New(7), zap.NewNop())

	for i := 0; i < 50; i++ {
		inst, err := db.RollFromBlueprint(DefaultBlueprints()[0], 1, 4)
		require.NoError(t, err)
		require.True(t, inst.HasNotable())
		assert.NotEqual(t, item.RarityUnique, inst.Rarity)
		for _, m := range inst.RegularModifiers() {
			assert.NotEmpty(t, m.Text)
		}
	}
}

func TestNotableCatalog(t *testing.T) {
	c := NewNotableCatalog([]Notable{{ID: "a", DisplayName: "A"}, {ID: "b"}, {ID: "a", DisplayName: "A2"}})
	assert.Equal(t, 2, c.Len())
	a, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A2", a.DisplayName)

	var nilCatalog *NotableCatalog
	assert.Equal(t, 0, nilCatalog.Len())
	_, ok = nilCatalog.Get("a")
	assert.False(t, ok)
}
