package main

import (
	"fmt"

	"warrantboard/domain/board"
	"warrantboard/domain/builder"
	"warrantboard/domain/layout"
	"warrantboard/infrastructure/config"

	"github.com/spf13/cobra"
)

type layoutOptions struct {
	definitionPath string
	params         layout.Params
	output         string
	countsOnly     bool
}

// layoutReport describes a definition and the graph built from it.
type layoutReport struct {
	Name       string             `json:"name" yaml:"name"`
	Nodes      int                `json:"nodes" yaml:"nodes"`
	Edges      int                `json:"edges" yaml:"edges"`
	Kinds      map[string]int     `json:"kinds" yaml:"kinds"`
	Definition *layout.Definition `json:"definition,omitempty" yaml:"definition,omitempty"`
}

func newLayoutCmd() *cobra.Command {
	opts := layoutOptions{params: layout.DefaultParams()}
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print a generated or loaded board definition with node and edge counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := buildLayoutReport(opts)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, report)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.definitionPath, "definition", "d", "", "definition file (yaml, json or hcl); generated when empty")
	f.Float64Var(&opts.params.Width, "width", opts.params.Width, "generated board width")
	f.Float64Var(&opts.params.Height, "height", opts.params.Height, "generated board height")
	f.IntVar(&opts.params.EffectNodesPerEdge, "effects", opts.params.EffectNodesPerEdge, "effect nodes per edge")
	f.IntVar(&opts.params.BranchSections, "sections", opts.params.BranchSections, "sections per anchor branch")
	f.StringVarP(&opts.output, "output", "o", formatJSON, "output format: json or yaml")
	f.BoolVar(&opts.countsOnly, "counts", false, "omit the definition and print counts only")
	return cmd
}

func buildLayoutReport(opts layoutOptions) (*layoutReport, error) {
	logger := cliLogger()

	var (
		def *layout.Definition
		err error
	)
	if opts.definitionPath != "" {
		def, err = config.NewLoader(logger).LoadDefinition(opts.definitionPath)
	} else {
		def, err = layout.NewGenerator(logger).Generate(opts.params)
	}
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	g := builder.New(logger).Build(def)
	report := &layoutReport{
		Name:  def.Name,
		Nodes: g.Len(),
		Edges: g.EdgeCount(),
		Kinds: make(map[string]int),
	}
	for _, k := range []board.Kind{board.KindAnchor, board.KindSocket, board.KindSpecialSocket, board.KindEffect, board.KindKeystone} {
		if n := len(g.NodesOfKind(k)); n > 0 {
			report.Kinds[k.String()] = n
		}
	}
	if !opts.countsOnly {
		report.Definition = def
	}
	return report, nil
}
