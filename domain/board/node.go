package board

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the closed set of node kinds on a warrant board.
type Kind int

const (
	KindAnchor Kind = iota
	KindSocket
	KindSpecialSocket
	KindEffect
	KindKeystone
)

var kindNames = [...]string{
	KindAnchor:        "anchor",
	KindSocket:        "socket",
	KindSpecialSocket: "special_socket",
	KindEffect:        "effect",
	KindKeystone:      "keystone",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the lower_snake names produced by String.
func ParseKind(s string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "anchor":
		return KindAnchor, nil
	case "socket":
		return KindSocket, nil
	case "special_socket", "specialsocket":
		return KindSpecialSocket, nil
	case "effect":
		return KindEffect, nil
	case "keystone":
		return KindKeystone, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AcceptsItem reports whether nodes of this kind hold a socket assignment.
func (k Kind) AcceptsItem() bool {
	switch k {
	case KindSocket, KindSpecialSocket:
		return true
	case KindAnchor, KindEffect, KindKeystone:
		return false
	}
	return false
}

// Position is a point in board space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Lerp interpolates from p towards q by t.
func (p Position) Lerp(q Position, t float64) Position {
	return Position{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Add returns the component-wise sum.
func (p Position) Add(q Position) Position {
	return Position{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale multiplies both components by f.
func (p Position) Scale(f float64) Position {
	return Position{X: p.X * f, Y: p.Y * f}
}

// DistanceTo returns the euclidean distance between two positions.
func (p Position) DistanceTo(q Position) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Node is a single board node. Identity is the ID.
type Node struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Position Position `json:"position"`
}
