// Package affix holds the weighted affix and notable catalogs and the item
// database that rolls concrete warrants from blueprints.
package affix

import (
	"fmt"
	"strings"

	"warrantboard/domain/item"
)

// Kind separates rollable regular affixes from notable bundles and uniques.
type Kind int

const (
	KindRegular Kind = iota
	KindNotable
	KindUnique
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindNotable:
		return "notable"
	case KindUnique:
		return "unique"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses the names produced by String. Empty means regular.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "regular", "":
		return KindRegular, nil
	case "notable":
		return KindNotable, nil
	case "unique":
		return KindUnique, nil
	}
	return 0, fmt.Errorf("unknown affix kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Entry is one catalog affix.
type Entry struct {
	ID          string      `json:"id" yaml:"id"`
	DisplayName string      `json:"displayName" yaml:"displayName"`
	StatKey     string      `json:"statKey" yaml:"statKey"`
	Flat        bool        `json:"flat" yaml:"flat"`
	MinRoll     float64     `json:"minRoll" yaml:"minRoll"`
	MaxRoll     float64     `json:"maxRoll" yaml:"maxRoll"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Tier        item.Rarity `json:"tier" yaml:"tier"`
	Weight      int         `json:"weight" yaml:"weight"`
	Kind        Kind        `json:"kind" yaml:"kind"`
	SocketOnly  bool        `json:"socketOnly,omitempty" yaml:"socketOnly,omitempty"`
	GroupID     string      `json:"groupId,omitempty" yaml:"groupId,omitempty"`
}

// Operation is Additive for flat stats and Multiplicative for percentages.
func (e Entry) Operation() item.Operation {
	if e.Flat {
		return item.OpAdditive
	}
	return item.OpMultiplicative
}

// HasTag reports whether the entry carries tag.
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NotableModifier is one fixed modifier inside a notable bundle.
type NotableModifier struct {
	StatKey     string         `json:"statKey" yaml:"statKey"`
	DisplayName string         `json:"displayName" yaml:"displayName"`
	Operation   item.Operation `json:"operation" yaml:"operation"`
	Value       float64        `json:"value" yaml:"value"`
}

// Notable is a catalog-level notable bundle.
type Notable struct {
	ID          string            `json:"id" yaml:"id"`
	DisplayName string            `json:"displayName" yaml:"displayName"`
	Weight      int               `json:"weight" yaml:"weight"`
	Modifiers   []NotableModifier `json:"modifiers" yaml:"modifiers"`
}

// ItemModifiers resolves the bundle into socket-only item modifiers.
func (n Notable) ItemModifiers() []item.Modifier {
	out := make([]item.Modifier, 0, len(n.Modifiers))
	for _, m := range n.Modifiers {
		out = append(out, item.Modifier{
			ID:            m.StatKey,
			DisplayName:   m.DisplayName,
			Operation:     m.Operation,
			Value:         m.Value,
			SocketOnly:    true,
			Notable:       true,
			StatKey:       m.StatKey,
			SourceAffixID: n.ID,
		})
	}
	return out
}

// NotableCatalog indexes notable bundles by id.
type NotableCatalog struct {
	entries []Notable
	byID    map[string]int
}

// NewNotableCatalog builds a catalog; later duplicates of an id replace earlier ones.
func NewNotableCatalog(entries []Notable) *NotableCatalog {
	c := &NotableCatalog{byID: make(map[string]int, len(entries))}
	for _, n := range entries {
		if idx, ok := c.byID[n.ID]; ok {
			c.entries[idx] = n
			continue
		}
		c.byID[n.ID] = len(c.entries)
		c.entries = append(c.entries, n)
	}
	return c
}

// Get looks a notable up by id.
func (c *NotableCatalog) Get(id string) (Notable, bool) {
	if c == nil {
		return Notable{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return Notable{}, false
	}
	return c.entries[idx], true
}

// All returns the notables in catalog order.
func (c *NotableCatalog) All() []Notable {
	if c == nil {
		return nil
	}
	out := make([]Notable, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len is the number of notables; a nil catalog is empty.
func (c *NotableCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
