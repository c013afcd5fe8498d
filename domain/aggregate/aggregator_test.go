package aggregate

import (
	"fmt"
	"testing"

	"warrantboard/domain/affix"
	"warrantboard/domain/board"
	"warrantboard/domain/item"
	"warrantboard/domain/page"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dmg(value float64) item.Modifier {
	return item.Modifier{ID: "dmg", DisplayName: "Damage", Operation: item.OpAdditive, Value: value}
}

// anchor -> s -> e1 -> x -> e2, with e1 and e2 Effect nodes.
func chainGraph() *board.Graph {
	g := board.NewGraph()
	g.AddNode("anchor", board.KindAnchor, board.Position{})
	g.AddNode("s", board.KindSocket, board.Position{Y: 1})
	g.AddNode("e1", board.KindEffect, board.Position{Y: 2})
	g.AddNode("x", board.KindSocket, board.Position{Y: 3})
	g.AddNode("e2", board.KindEffect, board.Position{Y: 4})
	g.AddEdge("anchor", "s")
	g.AddEdge("s", "e1")
	g.AddEdge("e1", "x")
	g.AddEdge("x", "e2")
	g.Index()
	return g
}

func unlockAll(t *testing.T, g *board.Graph, ids ...string) *page.Page {
	t.Helper()
	p := page.New("p", "P", "anchor")
	s := page.NewStore(p, g, page.Unlimited(true))
	for _, id := range ids {
		require.True(t, s.TryUnlock(id, nil), "unlock %s", id)
	}
	return p
}

func socket(t *testing.T, g *board.Graph, p *page.Page, node, itemID string) {
	t.Helper()
	require.NoError(t, page.NewStore(p, g).Assign(node, itemID))
}

func TestCollect_SingleEffectNeighbourCountsTwice(t *testing.T) {
	g := board.NewGraph()
	g.AddNode("anchor", board.KindAnchor, board.Position{})
	g.AddNode("s", board.KindSocket, board.Position{})
	g.AddNode("e", board.KindEffect, board.Position{})
	g.AddEdge("anchor", "s")
	g.AddEdge("s", "e")
	g.Index()

	p := unlockAll(t, g, "s", "e")
	socket(t, g, p, "s", "w1")
	inv := InventoryMap{"w1": {ID: "w1", RangeDepth: 1, Modifiers: []item.Modifier{dmg(10)}}}

	contribs := New(nil, nil).Collect(g, p, inv)

	require.Len(t, contribs, 2)
	assert.Equal(t, "s", contribs[0].TargetID)
	assert.Equal(t, 0, contribs[0].Depth)
	assert.Equal(t, "e", contribs[1].TargetID)
	assert.Equal(t, 1, contribs[1].Depth)
	for _, c := range contribs {
		assert.Equal(t, "dmg", c.Modifier.ID)
		assert.Equal(t, 10.0, c.Modifier.Value)
		assert.Equal(t, "s", c.SocketID)
	}

	totals := Summarize(contribs)
	require.Len(t, totals, 1)
	assert.Equal(t, 20.0, totals[0].Value)
	assert.Equal(t, 2, totals[0].Contributors)
	assert.Equal(t, HighlightStacked, totals[0].Highlight)
}

func TestCollect_RangeBoundary(t *testing.T) {
	tests := []struct {
		rangeDepth int
		targets    []string
	}{
		{0, []string{"s"}},
		{-3, []string{"s"}},
		{1, []string{"s", "e1"}},
		{2, []string{"s", "e1"}},
		{3, []string{"s", "e1", "e2"}},
	}

	g := chainGraph()
	p := unlockAll(t, g, "s", "e1", "x", "e2")
	socket(t, g, p, "s", "w1")

	for _, tt := range tests {
		t.Run(fmt.Sprintf("range %d", tt.rangeDepth), func(t *testing.T) {
			inv := InventoryMap{"w1": {ID: "w1", RangeDepth: tt.rangeDepth, Modifiers: []item.Modifier{dmg(5)}}}
			var got []string
			for _, c := range New(nil, nil).Collect(g, p, inv) {
				got = append(got, c.TargetID)
			}
			assert.Equal(t, tt.targets, got)
		})
	}
}

func TestCollect_LockedEffectIsSkippedButTraversed(t *testing.T) {
	g := chainGraph()
	// e1 stays locked; x and e2 are reached through the reverse index.
	p := unlockAll(t, g, "s", "e1", "x", "e2")
	q := page.FromSnapshot(page.Snapshot{
		PageID:          "q",
		UnlockedNodeIDs: []string{"s", "x", "e2"},
	}, "anchor")
	socket(t, g, p, "s", "w1")
	socket(t, g, q, "s", "w1")
	inv := InventoryMap{"w1": {ID: "w1", RangeDepth: 3, Modifiers: []item.Modifier{dmg(5)}}}

	agg := New(nil, nil)
	assert.Len(t, agg.Collect(g, p, inv), 3)

	var targets []string
	for _, c := range agg.Collect(g, q, inv) {
		targets = append(targets, c.TargetID)
	}
	assert.Equal(t, []string{"s", "e2"}, targets)
}

func TestCollect_NotableNeverPropagates(t *testing.T) {
	g := chainGraph()
	p := unlockAll(t, g, "s", "e1")
	socket(t, g, p, "s", "w1")

	inst := &item.Instance{
		ID:         "w1",
		RangeDepth: 4,
		NotableID:  "fury",
		Modifiers: []item.Modifier{
			dmg(3),
			{ID: "rage", Value: 50, Notable: true, SocketOnly: true},
			{ID: "local_armour", Value: 7, SocketOnly: true},
		},
	}
	contribs := New(nil, nil).Collect(g, p, InventoryMap{"w1": inst})

	var ids []string
	for _, c := range contribs {
		ids = append(ids, c.TargetID+":"+c.Modifier.ID)
	}
	// Propagating modifiers come first at the socket, socket-only ones after.
	assert.Equal(t, []string{"s:dmg", "s:rage", "s:local_armour", "e1:dmg"}, ids)
}

func TestCollect_ResolvesNotableFromCatalog(t *testing.T) {
	g := chainGraph()
	p := unlockAll(t, g, "s", "e1")
	socket(t, g, p, "s", "w1")

	catalog := affix.NewNotableCatalog([]affix.Notable{{
		ID:          "fury",
		DisplayName: "Fury",
		Weight:      1,
		Modifiers:   []affix.NotableModifier{{StatKey: "rage", DisplayName: "Rage", Operation: item.OpMore, Value: 20}},
	}})
	inst := &item.Instance{ID: "w1", RangeDepth: 1, NotableID: "fury", Modifiers: []item.Modifier{dmg(3)}}

	contribs := New(catalog, nil).Collect(g, p, InventoryMap{"w1": inst})

	require.Len(t, contribs, 3)
	assert.Equal(t, "rage", contribs[1].Modifier.ID)
	assert.True(t, contribs[1].Modifier.SocketOnly)
	assert.Equal(t, "s", contribs[1].TargetID)
	assert.Equal(t, "e1", contribs[2].TargetID)
}

func TestCollect_DepthIsCapped(t *testing.T) {
	g := board.NewGraph()
	g.AddNode("anchor", board.KindAnchor, board.Position{})
	g.AddNode("s", board.KindSocket, board.Position{})
	g.AddEdge("anchor", "s")
	ids := []string{"s"}
	prev := "s"
	for i := 1; i <= 12; i++ {
		id := fmt.Sprintf("e%d", i)
		g.AddNode(id, board.KindEffect, board.Position{})
		g.AddEdge(prev, id)
		ids = append(ids, id)
		prev = id
	}
	g.Index()

	p := unlockAll(t, g, ids...)
	socket(t, g, p, "s", "w1")
	inv := InventoryMap{"w1": {ID: "w1", RangeDepth: 50, Modifiers: []item.Modifier{dmg(1)}}}

	contribs := New(nil, nil).Collect(g, p, inv)

	require.Len(t, contribs, 1+MaxPropagationDepth)
	assert.Equal(t, MaxPropagationDepth, contribs[len(contribs)-1].Depth)
}

func TestCollect_IsIdempotent(t *testing.T) {
	g := chainGraph()
	p := unlockAll(t, g, "s", "e1", "x", "e2")
	socket(t, g, p, "s", "w1")
	socket(t, g, p, "x", "w2")
	inv := InventoryMap{
		"w1": {ID: "w1", RangeDepth: 2, Modifiers: []item.Modifier{dmg(4)}},
		"w2": {ID: "w2", RangeDepth: 1, Modifiers: []item.Modifier{dmg(6), {ID: "speed", Value: 2}}},
	}
	agg := New(nil, nil)

	first := agg.Collect(g, p, inv)
	second := agg.Collect(g, p, inv)

	assert.Equal(t, first, second)
	assert.Equal(t, Modifiers(first), Modifiers(second))
}

func TestCollect_SkipsMissingAndUnsocketed(t *testing.T) {
	g := chainGraph()
	p := unlockAll(t, g, "s", "e1")
	socket(t, g, p, "s", "gone")

	assert.Empty(t, New(nil, nil).Collect(g, p, InventoryMap{}))
	assert.Empty(t, New(nil, nil).Collect(g, page.New("p", "P", "anchor"), InventoryMap{}))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, HighlightNeutral, Classify(0))
	assert.Equal(t, HighlightNeutral, Classify(1))
	assert.Equal(t, HighlightStacked, Classify(2))
	assert.Equal(t, HighlightStrong, Classify(3))
	assert.Equal(t, HighlightStrong, Classify(9))
}

func TestCoverage_CountsDistinctSockets(t *testing.T) {
	g := chainGraph()
	p := unlockAll(t, g, "s", "e1", "x", "e2")
	socket(t, g, p, "s", "w1")
	socket(t, g, p, "x", "w2")
	inv := InventoryMap{
		"w1": {ID: "w1", RangeDepth: 1, Modifiers: []item.Modifier{dmg(1), {ID: "speed", Value: 1}}},
		"w2": {ID: "w2", RangeDepth: 1, Modifiers: []item.Modifier{dmg(1)}},
	}

	cov := Coverage(New(nil, nil).Collect(g, p, inv))

	assert.Equal(t, HighlightStacked, cov["e1"])
	assert.Equal(t, HighlightNeutral, cov["e2"])
	assert.Equal(t, HighlightNeutral, cov["s"])
}
