package main

import (
	"fmt"
	"io"
	"strings"

	"warrantboard/domain/item"
	"warrantboard/domain/random"
	"warrantboard/infrastructure/config"

	"github.com/spf13/cobra"
)

type rollOptions struct {
	catalogPath string
	blueprintID string
	seed        int64
	count       int
	minAffixes  int
	maxAffixes  int
	output      string
}

func newRollCmd() *cobra.Command {
	var opts rollOptions
	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Roll items from a blueprint with a fixed seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := rollItems(opts)
			if err != nil {
				return err
			}
			if opts.output == formatText {
				return writeItems(cmd.OutOrStdout(), items)
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, items)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.catalogPath, "catalog", "c", "", "affix catalog file; built-in catalog when empty")
	f.StringVarP(&opts.blueprintID, "blueprint", "b", "", "blueprint id; the first blueprint when empty")
	f.Int64Var(&opts.seed, "seed", 1, "random seed")
	f.IntVarP(&opts.count, "count", "n", 1, "number of items to roll")
	f.IntVar(&opts.minAffixes, "min", 1, "minimum regular affixes")
	f.IntVar(&opts.maxAffixes, "max", 3, "maximum regular affixes")
	f.StringVarP(&opts.output, "output", "o", formatText, "output format: text, json or yaml")
	return cmd
}

func rollItems(opts rollOptions) ([]*item.Instance, error) {
	if opts.count < 1 {
		return nil, fmt.Errorf("count must be at least 1")
	}
	logger := cliLogger()

	catalog := config.DefaultCatalog()
	if opts.catalogPath != "" {
		var err error
		catalog, err = config.NewLoader(logger).LoadCatalog(opts.catalogPath)
		if err != nil {
			return nil, err
		}
	}

	db := config.BuildDatabase(catalog, random.New(opts.seed), logger)
	blueprints := db.Blueprints()
	if len(blueprints) == 0 {
		return nil, fmt.Errorf("catalog has no blueprints")
	}
	bp := blueprints[0]
	if opts.blueprintID != "" {
		var ok bool
		if bp, ok = db.Blueprint(opts.blueprintID); !ok {
			return nil, fmt.Errorf("unknown blueprint %q", opts.blueprintID)
		}
	}

	items := make([]*item.Instance, 0, opts.count)
	for i := 0; i < opts.count; i++ {
		inst, err := db.RollFromBlueprint(bp, opts.minAffixes, opts.maxAffixes)
		if err != nil {
			return nil, err
		}
		items = append(items, inst)
	}
	return items, nil
}

func writeItems(w io.Writer, items []*item.Instance) error {
	for _, inst := range items {
		if _, err := fmt.Fprintf(w, "%s [%s, range %d]\n", inst.DisplayName, inst.Rarity, inst.RangeDepth); err != nil {
			return err
		}
		for _, m := range inst.Modifiers {
			var tags []string
			if m.Notable {
				tags = append(tags, "notable")
			}
			if m.SocketOnly {
				tags = append(tags, "socket only")
			}
			line := fmt.Sprintf("  %s %s", m.Text, m.DisplayName)
			if len(tags) > 0 {
				line += " (" + strings.Join(tags, ", ") + ")"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
