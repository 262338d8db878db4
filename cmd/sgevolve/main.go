// Package main provides the entry point for the sgevolve CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sgevolve/cmd/sgevolve/commands"
	"github.com/Sumatoshi-tech/sgevolve/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "sgevolve",
		Short: "sgevolve - simulate genome evolution along a phylogeny",
		Long: `sgevolve evolves an ancestral alignment along a phylogenetic tree.

Commands:
  evolve    Apply a mutation script and write the evolved alignment
  validate  Check a mutation script against the schema and a phylogeny`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewEvolveCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
