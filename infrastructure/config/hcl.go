package config

import (
	"fmt"
	"io"

	"warrantboard/domain/affix"
	"warrantboard/domain/board"
	"warrantboard/domain/item"
	"warrantboard/domain/layout"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// HCLLoader decodes HCL files. Board definitions and catalogs are mapped
// through block-shaped intermediates:
//
//	name = "starter"
//	node "s1" {
//	  kind = "socket"
//	  x    = 120
//	  y    = 40
//	}
//	edge {
//	  from          = "anchor"
//	  to            = "s1"
//	  bidirectional = true
//	}
//
// Any other target must carry gohcl struct tags.
type HCLLoader struct{}

func (h *HCLLoader) Extension() string {
	return "hcl"
}

func (h *HCLLoader) Load(reader io.Reader, target interface{}) error {
	src, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, "input.hcl")
	if diags.HasErrors() {
		return diags
	}

	switch t := target.(type) {
	case *layout.Definition:
		var parsed hclDefinition
		if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
			return diags
		}
		def, err := parsed.toDefinition()
		if err != nil {
			return err
		}
		*t = *def
	case *CatalogFile:
		var parsed hclCatalog
		if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
			return diags
		}
		catalog, err := parsed.toCatalog()
		if err != nil {
			return err
		}
		*t = *catalog
	default:
		if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
			return diags
		}
	}
	return nil
}

type hclDefinition struct {
	Name               string    `hcl:"name,optional"`
	EffectNodesPerEdge int       `hcl:"effect_nodes_per_edge,optional"`
	Scale              float64   `hcl:"scale,optional"`
	OffsetX            float64   `hcl:"offset_x,optional"`
	OffsetY            float64   `hcl:"offset_y,optional"`
	Nodes              []hclNode `hcl:"node,block"`
	Edges              []hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	ID   string  `hcl:"id,label"`
	Kind string  `hcl:"kind"`
	X    float64 `hcl:"x,optional"`
	Y    float64 `hcl:"y,optional"`
}

type hclEdge struct {
	From          string   `hcl:"from"`
	To            string   `hcl:"to"`
	Bidirectional bool     `hcl:"bidirectional,optional"`
	Intermediates []string `hcl:"intermediates,optional"`
}

func (p hclDefinition) toDefinition() (*layout.Definition, error) {
	def := &layout.Definition{
		Name:               p.Name,
		EffectNodesPerEdge: p.EffectNodesPerEdge,
		Scale:              p.Scale,
		Offset:             board.Position{X: p.OffsetX, Y: p.OffsetY},
		Nodes:              make([]layout.NodeSpec, 0, len(p.Nodes)),
		Edges:              make([]layout.EdgeSpec, 0, len(p.Edges)),
	}
	for _, n := range p.Nodes {
		kind, err := board.ParseKind(n.Kind)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		def.Nodes = append(def.Nodes, layout.NodeSpec{
			ID:       n.ID,
			Kind:     kind,
			Position: board.Position{X: n.X, Y: n.Y},
		})
	}
	for _, e := range p.Edges {
		def.Edges = append(def.Edges, layout.EdgeSpec{
			From:          e.From,
			To:            e.To,
			Bidirectional: e.Bidirectional,
			Intermediates: e.Intermediates,
		})
	}
	return def, nil
}

type hclCatalog struct {
	PercentStats []string       `hcl:"percent_stats,optional"`
	Affixes      []hclAffix     `hcl:"affix,block"`
	Notables     []hclNotable   `hcl:"notable,block"`
	Blueprints   []hclBlueprint `hcl:"blueprint,block"`
}

type hclAffix struct {
	ID          string   `hcl:"id,label"`
	DisplayName string   `hcl:"display_name"`
	StatKey     string   `hcl:"stat_key"`
	Flat        bool     `hcl:"flat,optional"`
	MinRoll     float64  `hcl:"min_roll"`
	MaxRoll     float64  `hcl:"max_roll"`
	Tags        []string `hcl:"tags,optional"`
	Tier        string   `hcl:"tier,optional"`
	Weight      int      `hcl:"weight"`
	Kind        string   `hcl:"kind,optional"`
	SocketOnly  bool     `hcl:"socket_only,optional"`
	GroupID     string   `hcl:"group_id,optional"`
}

type hclNotable struct {
	ID          string               `hcl:"id,label"`
	DisplayName string               `hcl:"display_name"`
	Weight      int                  `hcl:"weight"`
	Modifiers   []hclNotableModifier `hcl:"modifier,block"`
}

type hclNotableModifier struct {
	StatKey     string  `hcl:"stat_key"`
	DisplayName string  `hcl:"display_name"`
	Operation   string  `hcl:"operation,optional"`
	Value       float64 `hcl:"value"`
}

type hclBlueprint struct {
	ID         string `hcl:"id,label"`
	BaseName   string `hcl:"base_name"`
	RangeDepth int    `hcl:"range_depth"`
}

func (p hclCatalog) toCatalog() (*CatalogFile, error) {
	catalog := &CatalogFile{PercentStats: p.PercentStats}

	for _, a := range p.Affixes {
		tier := item.RarityCommon
		if a.Tier != "" {
			parsed, err := item.ParseRarity(a.Tier)
			if err != nil {
				return nil, fmt.Errorf("affix %q: %w", a.ID, err)
			}
			tier = parsed
		}
		kind, err := affix.ParseKind(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("affix %q: %w", a.ID, err)
		}
		catalog.Affixes = append(catalog.Affixes, affix.Entry{
			ID:          a.ID,
			DisplayName: a.DisplayName,
			StatKey:     a.StatKey,
			Flat:        a.Flat,
			MinRoll:     a.MinRoll,
			MaxRoll:     a.MaxRoll,
			Tags:        a.Tags,
			Tier:        tier,
			Weight:      a.Weight,
			Kind:        kind,
			SocketOnly:  a.SocketOnly,
			GroupID:     a.GroupID,
		})
	}

	for _, n := range p.Notables {
		notable := affix.Notable{ID: n.ID, DisplayName: n.DisplayName, Weight: n.Weight}
		for _, m := range n.Modifiers {
			op, err := item.ParseOperation(m.Operation)
			if err != nil {
				return nil, fmt.Errorf("notable %q: %w", n.ID, err)
			}
			notable.Modifiers = append(notable.Modifiers, affix.NotableModifier{
				StatKey:     m.StatKey,
				DisplayName: m.DisplayName,
				Operation:   op,
				Value:       m.Value,
			})
		}
		catalog.Notables = append(catalog.Notables, notable)
	}

	for _, b := range p.Blueprints {
		catalog.Blueprints = append(catalog.Blueprints, item.Blueprint{
			ID:         b.ID,
			BaseName:   b.BaseName,
			RangeDepth: b.RangeDepth,
		})
	}
	return catalog, nil
}
