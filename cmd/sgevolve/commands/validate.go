package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
	"github.com/Sumatoshi-tech/sgevolve/pkg/script"
	"github.com/Sumatoshi-tech/sgevolve/pkg/seqio"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var scriptPath, treePath string

	var noColor bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a mutation script",
		Long: `Validate a mutation script against the script schema. With --tree, also
check that every event names a node of the phylogeny.

Examples:
  sgevolve validate --script events.yaml
  sgevolve validate --script events.yaml --tree tree.nwk`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			return runValidate(cmd, scriptPath, treePath)
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "Mutation script (YAML)")
	cmd.Flags().StringVar(&treePath, "tree", "", "Phylogeny in Newick format")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, scriptPath, treePath string) error {
	err := requireFlag("script", scriptPath)
	if err != nil {
		return err
	}

	events, err := script.Load(scriptPath)
	if err != nil {
		return err
	}

	if treePath != "" {
		err = checkLineages(events, treePath)
		if err != nil {
			return err
		}
	}

	counts := events.Counts()
	out := cmd.OutOrStdout()

	color.New(color.FgGreen).Fprintf(out, "script is valid (%s)\n", scriptPath)
	fmt.Fprintf(out, "  events: %d (deletions %d, insertions %d, inversions %d)\n",
		len(events.Events),
		counts[script.KindDeletion], counts[script.KindInsertion], counts[script.KindInversion])

	return nil
}

func checkLineages(events *script.Script, treePath string) error {
	input, err := seqio.Open(treePath)
	if err != nil {
		return err
	}

	defer func() { _ = input.Close() }()

	tree, err := phylo.ReadNewick(input)
	if err != nil {
		return fmt.Errorf("%s: %w", treePath, err)
	}

	for i, ev := range events.Events {
		_, err = tree.Index(ev.Lineage)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}

	return nil
}
