package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/sgevolve/pkg/config"
	"github.com/Sumatoshi-tech/sgevolve/pkg/evolve"
	"github.com/Sumatoshi-tech/sgevolve/pkg/lcb"
	"github.com/Sumatoshi-tech/sgevolve/pkg/observability"
	"github.com/Sumatoshi-tech/sgevolve/pkg/output"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
	"github.com/Sumatoshi-tech/sgevolve/pkg/report"
	"github.com/Sumatoshi-tech/sgevolve/pkg/script"
	"github.com/Sumatoshi-tech/sgevolve/pkg/seqio"
	"github.com/Sumatoshi-tech/sgevolve/pkg/version"
)

// EvolveCommand holds the flags of the evolve command.
type EvolveCommand struct {
	configPath    string
	alignmentPath string
	donorPath     string
	treePath      string
	scriptPath    string
	xmfaPath      string
	fastaPath     string
	plotPath      string
	ancestors     bool
	checkLevel    int
	wrapWidth     int
	quiet         bool
	noColor       bool
}

// NewEvolveCommand creates the evolve command.
func NewEvolveCommand() *cobra.Command {
	ec := &EvolveCommand{}

	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "Evolve an ancestral alignment with a mutation script",
		Long: `Apply the events of a mutation script to an ancestral alignment along a
phylogeny and write the evolved block alignment (XMFA) and sequences (FASTA).

Examples:
  sgevolve evolve --alignment anc.fa --tree tree.nwk --script events.yaml --xmfa out.xmfa
  sgevolve evolve --alignment anc.fa.gz --donor donor.fa --script events.yaml --fasta out.fa --plot blocks.html`,
		Args: cobra.NoArgs,
		RunE: ec.run,
	}

	cmd.Flags().StringVar(&ec.configPath, "config", "", "Config file (default: ./sgevolve.yaml)")
	cmd.Flags().StringVar(&ec.alignmentPath, "alignment", "", "Ancestral alignment FASTA, one row per tree node or a single root row")
	cmd.Flags().StringVar(&ec.donorPath, "donor", "", "Donor FASTA providing inserted residues")
	cmd.Flags().StringVar(&ec.treePath, "tree", "", "Phylogeny in Newick format")
	cmd.Flags().StringVar(&ec.scriptPath, "script", "", "Mutation script (YAML)")
	cmd.Flags().StringVar(&ec.xmfaPath, "xmfa", "", "Write the block alignment to this file")
	cmd.Flags().StringVar(&ec.fastaPath, "fasta", "", "Write the evolved sequences to this file")
	cmd.Flags().StringVar(&ec.plotPath, "plot", "", "Write an HTML block chart to this file")
	cmd.Flags().BoolVar(&ec.ancestors, "ancestors", false, "Also write internal tree nodes")
	cmd.Flags().IntVar(&ec.checkLevel, "check-level", config.DefaultCheckLevel, "Validation effort: 0 none, 1 at commit, 2 after every event")
	cmd.Flags().IntVar(&ec.wrapWidth, "wrap", config.DefaultWrapWidth, "Residues per output line")
	cmd.Flags().BoolVarP(&ec.quiet, "quiet", "q", false, "Suppress the summary table")
	cmd.Flags().BoolVar(&ec.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (ec *EvolveCommand) run(cmd *cobra.Command, _ []string) error {
	if ec.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	err := ec.checkFlags()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(ec.configPath)
	if err != nil {
		return err
	}

	err = ec.applyOverrides(cmd, cfg)
	if err != nil {
		return err
	}

	obsCfg, err := cfg.ObservabilityConfig(version.Version)
	if err != nil {
		return err
	}

	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	metrics, err := observability.NewEvolutionMetrics(providers.Meter)
	if err != nil {
		return err
	}

	ctx, span := providers.Tracer.Start(cmd.Context(), "sgevolve.evolve")
	defer span.End()

	result, phylogeny, err := ec.simulate(ctx, cfg, providers, metrics)
	if err != nil {
		span.RecordError(err)

		return err
	}

	span.SetAttributes(attribute.Int("sgevolve.blocks", len(result.Blocks)))

	err = ec.writeOutputs(cmd.OutOrStdout(), cfg, result, phylogeny)
	if err != nil {
		return err
	}

	providers.Logger.InfoContext(ctx, "evolution finished", "blocks", len(result.Blocks))

	if ec.quiet {
		return nil
	}

	return report.Summarize(result, phylogeny).WriteTable(cmd.OutOrStdout())
}

func (ec *EvolveCommand) checkFlags() error {
	err := errors.Join(requireFlag("alignment", ec.alignmentPath), requireFlag("script", ec.scriptPath))
	if err != nil {
		return err
	}

	if ec.xmfaPath == "" && ec.fastaPath == "" {
		return ErrNoOutput
	}

	return nil
}

// applyOverrides lets explicitly set flags win over the config file.
func (ec *EvolveCommand) applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("ancestors") {
		cfg.Output.IncludeAncestors = ec.ancestors
	}

	if cmd.Flags().Changed("check-level") {
		cfg.Evolve.CheckLevel = ec.checkLevel
	}

	if cmd.Flags().Changed("wrap") {
		cfg.Output.WrapWidth = ec.wrapWidth
	}

	return cfg.Validate()
}

func (ec *EvolveCommand) simulate(
	ctx context.Context,
	cfg *config.Config,
	providers observability.Providers,
	metrics *observability.EvolutionMetrics,
) (*lcb.Result, *phylo.Tree, error) {
	logger := providers.Logger

	records, err := seqio.ReadFASTAFile(ec.alignmentPath)
	if err != nil {
		return nil, nil, err
	}

	phylogeny, err := loadPhylogeny(ec.treePath, records)
	if err != nil {
		return nil, nil, err
	}

	rows, err := seqio.AncestralRows(records, phylogeny.Names())
	if err != nil {
		return nil, nil, err
	}

	donor, err := loadDonor(ec.donorPath)
	if err != nil {
		return nil, nil, err
	}

	events, err := script.Load(ec.scriptPath)
	if err != nil {
		return nil, nil, err
	}

	alignment, err := evolve.New(rows, donor, cfg.EvolveOptions())
	if err != nil {
		return nil, nil, err
	}

	logger.InfoContext(ctx, "inputs loaded",
		"sequences", alignment.Sequences(),
		"columns", alignment.Width(),
		"donor", alignment.DonorLen(),
		"events", len(events.Events),
	)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("alignment.sequences", alignment.Sequences()),
		attribute.Int("alignment.width", alignment.Width()),
	)

	runner := script.NewRunner(alignment, phylogeny,
		script.WithLogger(logger),
		script.WithTracer(providers.Tracer),
		script.WithMetrics(metrics),
	)

	err = runner.Run(ctx, events)
	if err != nil {
		return nil, nil, err
	}

	result, err := runner.Commit(ctx)
	if err != nil {
		return nil, nil, err
	}

	return result, phylogeny, nil
}

func (ec *EvolveCommand) writeOutputs(status io.Writer, cfg *config.Config, result *lcb.Result, phylogeny *phylo.Tree) error {
	opts := cfg.OutputOptions()

	if ec.xmfaPath != "" {
		err := writeFile(status, ec.xmfaPath, cfg.Compression(), func(w io.Writer) error {
			return output.WriteXMFA(w, result, phylogeny, opts)
		})
		if err != nil {
			return err
		}
	}

	if ec.fastaPath != "" {
		err := writeFile(status, ec.fastaPath, cfg.Compression(), func(w io.Writer) error {
			return output.WriteFASTA(w, result, phylogeny, opts)
		})
		if err != nil {
			return err
		}
	}

	if ec.plotPath != "" {
		err := writeFile(status, ec.plotPath, seqio.CompressionNone, func(w io.Writer) error {
			return report.WritePlot(w, result, phylogeny, opts.IncludeAncestors)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func writeFile(status io.Writer, path string, compression seqio.Compression, write func(io.Writer) error) error {
	file, finalPath, err := seqio.Create(path, compression)
	if err != nil {
		return err
	}

	err = write(file)

	closeErr := file.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", finalPath, err)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", finalPath, closeErr)
	}

	color.New(color.FgGreen).Fprintf(status, "wrote %s\n", finalPath)

	return nil
}
