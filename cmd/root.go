// Package cmd defines the CLI commands for the carfinder executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carfinder",
		Short: "An automated used-car lead agent.",
		Long: `carfinder scrapes used-car listings from online classifieds, filters
out vehicles it has already seen, records new leads in a spreadsheet
ledger with a local JSON backup, texts sellers, notifies the operator,
and pushes qualified leads into the CRM.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
