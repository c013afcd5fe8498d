// Command warrantctl inspects board layouts, rolls items against a catalog
// and mints development tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes
const (
	exitSuccess = 0
	exitError   = 1
)

var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "warrantctl",
		Short:         "Tools for Warrant Board content and development",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log loader and generator warnings")

	root.AddCommand(newLayoutCmd())
	root.AddCommand(newRollCmd())
	root.AddCommand(newTokenCmd())
	return root
}

// cliLogger logs to stderr only with --verbose.
func cliLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
