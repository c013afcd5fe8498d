package page

import (
	"sort"
)

// SocketAssignment is the serialized form of one socket entry.
type SocketAssignment struct {
	NodeID string `json:"nodeId"`
	ItemID string `json:"itemId"`
}

// Snapshot is the serialized form of a page.
type Snapshot struct {
	PageID            string             `json:"pageId"`
	DisplayName       string             `json:"displayName"`
	UnlockedNodeIDs   []string           `json:"unlockedNodeIds"`
	SocketAssignments []SocketAssignment `json:"socketAssignments"`
}

// Record is the top-level save record of one player.
type Record struct {
	ActivePageIndex int        `json:"activePageIndex"`
	Pages           []Snapshot `json:"pages"`
	// SkillPoints carries the unspent unlock resource between sessions.
	SkillPoints int `json:"skillPoints,omitempty"`
}

// Snapshot serializes the page with sorted arrays.
func (p *Page) Snapshot() Snapshot {
	assignments := make([]SocketAssignment, 0, len(p.assignments))
	for node, itemID := range p.assignments {
		assignments = append(assignments, SocketAssignment{NodeID: node, ItemID: itemID})
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].NodeID < assignments[j].NodeID })

	return Snapshot{
		PageID:            p.ID,
		DisplayName:       p.DisplayName,
		UnlockedNodeIDs:   p.UnlockedIDs(),
		SocketAssignments: assignments,
	}
}

// FromSnapshot rebuilds a page. The anchor is unlocked regardless of what
// the snapshot contains.
func FromSnapshot(s Snapshot, anchorID string) *Page {
	p := New(s.PageID, s.DisplayName, anchorID)
	for _, id := range s.UnlockedNodeIDs {
		p.unlock(id)
	}
	for _, a := range s.SocketAssignments {
		p.assign(a.NodeID, a.ItemID)
	}
	return p
}

// NewRecord serializes pages with the given active index.
func NewRecord(pages []*Page, active, skillPoints int) *Record {
	rec := &Record{
		ActivePageIndex: active,
		Pages:           make([]Snapshot, 0, len(pages)),
		SkillPoints:     skillPoints,
	}
	for _, p := range pages {
		rec.Pages = append(rec.Pages, p.Snapshot())
	}
	return rec
}

// Restore rebuilds every page of the record. An out of range active index
// falls back to the first page.
func (r *Record) Restore(anchorID string) (pages []*Page, active int) {
	pages = make([]*Page, 0, len(r.Pages))
	for _, s := range r.Pages {
		pages = append(pages, FromSnapshot(s, anchorID))
	}
	active = r.ActivePageIndex
	if active < 0 || active >= len(pages) {
		active = 0
	}
	return pages, active
}
