// Package item defines warrant items and the modifiers they carry.
package item

import (
	"fmt"
	"strings"
)

// Rarity is the item tier. Order matters: fusion promotes by one step.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityMagic
	RarityRare
	RarityUnique
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityMagic:
		return "magic"
	case RarityRare:
		return "rare"
	case RarityUnique:
		return "unique"
	}
	return fmt.Sprintf("rarity(%d)", int(r))
}

// ParseRarity parses the names produced by String.
func ParseRarity(s string) (Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return RarityCommon, nil
	case "magic":
		return RarityMagic, nil
	case "rare":
		return RarityRare, nil
	case "unique":
		return RarityUnique, nil
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

func (r Rarity) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rarity) UnmarshalText(text []byte) error {
	parsed, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RarityForAffixCount derives the tier from how many affixes an item rolled:
// 2 is Common, 3 is Magic, 4 or more is Rare and anything else falls back to
// Common.
func RarityForAffixCount(hasNotable bool, regularCount int) Rarity {
	total := regularCount
	if hasNotable {
		total++
	}
	switch {
	case total >= 4:
		return RarityRare
	case total == 3:
		return RarityMagic
	default:
		return RarityCommon
	}
}

// Operation is how the stat system applies a modifier value.
type Operation int

const (
	OpAdditive Operation = iota
	OpMultiplicative
	OpMore
	OpOverride
)

func (o Operation) String() string {
	switch o {
	case OpAdditive:
		return "additive"
	case OpMultiplicative:
		return "multiplicative"
	case OpMore:
		return "more"
	case OpOverride:
		return "override"
	}
	return fmt.Sprintf("operation(%d)", int(o))
}

// ParseOperation parses the names produced by String.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "additive", "":
		return OpAdditive, nil
	case "multiplicative":
		return OpMultiplicative, nil
	case "more":
		return OpMore, nil
	case "override":
		return OpOverride, nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

func (o Operation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Modifier is one resolved stat change.
type Modifier struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Operation   Operation `json:"operation"`
	Value       float64   `json:"value"`
	SocketOnly  bool      `json:"socketOnly"`
	// Notable marks entries granted by the item's notable bundle.
	Notable       bool   `json:"notable,omitempty"`
	StatKey       string `json:"statKey,omitempty"`
	SourceAffixID string `json:"sourceAffixId,omitempty"`
	Text          string `json:"text,omitempty"`
}

// Propagates reports whether the modifier radiates to Effect nodes in range.
func (m Modifier) Propagates() bool {
	return !m.SocketOnly && !m.Notable
}

// FormatMagnitude renders a rolled value the way tooltips show it.
func FormatMagnitude(value int, flat bool) string {
	if flat {
		return fmt.Sprintf("%+d", value)
	}
	return fmt.Sprintf("%+d%%", value)
}

// Instance is a concrete item owned by a player.
type Instance struct {
	ID          string     `json:"id"`
	BaseName    string     `json:"baseName"`
	DisplayName string     `json:"displayName"`
	Rarity      Rarity     `json:"rarity"`
	RangeDepth  int        `json:"rangeDepth"`
	Modifiers   []Modifier `json:"modifiers"`
	NotableID   string     `json:"notableId,omitempty"`
	NotableName string     `json:"notableName,omitempty"`
	// Blueprint marks template items that only exist to be rolled from.
	Blueprint bool `json:"blueprint,omitempty"`
}

// HasNotable reports whether the item carries a notable bundle.
func (i *Instance) HasNotable() bool { return i.NotableID != "" }

// RegularModifiers returns the modifiers that are not notable-derived.
func (i *Instance) RegularModifiers() []Modifier {
	out := make([]Modifier, 0, len(i.Modifiers))
	for _, m := range i.Modifiers {
		if !m.Notable {
			out = append(out, m)
		}
	}
	return out
}

// NotableModifiers returns the modifiers granted by the notable bundle.
func (i *Instance) NotableModifiers() []Modifier {
	var out []Modifier
	for _, m := range i.Modifiers {
		if m.Notable {
			out = append(out, m)
		}
	}
	return out
}

// Modifier finds the first modifier with the given id.
func (i *Instance) Modifier(id string) (Modifier, bool) {
	for _, m := range i.Modifiers {
		if m.ID == id {
			return m, true
		}
	}
	return Modifier{}, false
}

// Clone returns a deep copy.
func (i *Instance) Clone() *Instance {
	c := *i
	c.Modifiers = append([]Modifier(nil), i.Modifiers...)
	return &c
}

// ComposeName joins a base name and an optional notable name.
func ComposeName(base, notable string) string {
	if notable == "" {
		return base
	}
	return fmt.Sprintf("%s of %s", base, notable)
}

// Blueprint is the template a rolled item starts from.
type Blueprint struct {
	ID         string `json:"id" yaml:"id" validate:"required"`
	BaseName   string `json:"baseName" yaml:"baseName" validate:"required"`
	RangeDepth int    `json:"rangeDepth" yaml:"rangeDepth" validate:"min=0,max=8"`
}
