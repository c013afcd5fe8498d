package aggregate

import "fmt"

// Highlight classifies how many contributors stack on one entry.
type Highlight int

const (
	HighlightNeutral Highlight = iota
	HighlightStacked
	HighlightStrong
)

func (h Highlight) String() string {
	switch h {
	case HighlightNeutral:
		return "neutral"
	case HighlightStacked:
		return "highlighted"
	case HighlightStrong:
		return "strong"
	}
	return fmt.Sprintf("highlight(%d)", int(h))
}

func (h Highlight) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// Classify maps a contributor count onto a highlight.
func Classify(contributors int) Highlight {
	switch {
	case contributors >= 3:
		return HighlightStrong
	case contributors == 2:
		return HighlightStacked
	default:
		return HighlightNeutral
	}
}

// Total is the display-layer sum of one modifier id.
type Total struct {
	ModifierID   string    `json:"modifierId"`
	DisplayName  string    `json:"displayName"`
	Value        float64   `json:"value"`
	Contributors int       `json:"contributors"`
	Highlight    Highlight `json:"highlight"`
}

// Summarize groups contributions by modifier id in first-seen order and sums
// their values. The classification is presentational only.
func Summarize(contribs []Contribution) []Total {
	index := make(map[string]int)
	var out []Total
	for _, c := range contribs {
		idx, ok := index[c.Modifier.ID]
		if !ok {
			idx = len(out)
			index[c.Modifier.ID] = idx
			out = append(out, Total{ModifierID: c.Modifier.ID, DisplayName: c.Modifier.DisplayName})
		}
		out[idx].Value += c.Modifier.Value
		out[idx].Contributors++
	}
	for i := range out {
		out[i].Highlight = Classify(out[i].Contributors)
	}
	return out
}

// Coverage classifies each reached node by how many distinct sockets reach it,
// which is what the board overlay draws.
func Coverage(contribs []Contribution) map[string]Highlight {
	sockets := make(map[string]map[string]struct{})
	for _, c := range contribs {
		set, ok := sockets[c.TargetID]
		if !ok {
			set = make(map[string]struct{})
			sockets[c.TargetID] = set
		}
		set[c.SocketID] = struct{}{}
	}
	out := make(map[string]Highlight, len(sockets))
	for node, set := range sockets {
		out[node] = Classify(len(set))
	}
	return out
}
