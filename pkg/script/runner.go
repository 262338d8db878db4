package script

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/sgevolve/pkg/evolve"
	"github.com/Sumatoshi-tech/sgevolve/pkg/lcb"
	"github.com/Sumatoshi-tech/sgevolve/pkg/observability"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
)

// Runner replays scripts on an alignment whose sequences are the nodes of a phylogeny.
type Runner struct {
	alignment *evolve.Alignment
	phylogeny *phylo.Tree
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.EvolutionMetrics
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger receiving one debug record per applied event.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithTracer sets the tracer used for run and commit spans.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = tracer }
}

// WithMetrics sets the instruments updated for every event and the final result.
func WithMetrics(metrics *observability.EvolutionMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = metrics }
}

// NewRunner creates a Runner. Sequence i of the alignment belongs to node i of the phylogeny.
func NewRunner(alignment *evolve.Alignment, phylogeny *phylo.Tree, opts ...RunnerOption) *Runner {
	runner := &Runner{
		alignment: alignment,
		phylogeny: phylogeny,
		logger:    slog.New(slog.DiscardHandler),
		tracer:    nooptrace.NewTracerProvider().Tracer("sgevolve"),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Run applies all events of script in order. The first failing event aborts the run.
func (r *Runner) Run(ctx context.Context, script *Script) error {
	ctx, span := r.tracer.Start(ctx, "sgevolve.script.run",
		trace.WithAttributes(
			attribute.Int("sgevolve.events", len(script.Events)),
			attribute.Int("alignment.width", r.alignment.Width()),
		))
	defer span.End()

	for i, ev := range script.Events {
		err := r.apply(observability.ContextWithEvent(ctx, i, string(ev.Kind)), ev)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "event failed")

			return fmt.Errorf("event %d (%s in %s): %w", i, ev.Kind, ev.Lineage, err)
		}
	}

	return nil
}

func (r *Runner) apply(ctx context.Context, ev Event) error {
	seq, err := r.phylogeny.Index(ev.Lineage)
	if err != nil {
		return err
	}

	var col, width int

	switch ev.Kind {
	case KindDeletion:
		col, width, err = r.columnRange(seq, ev)
		if err == nil {
			err = r.applyDeletion(seq, col, width)
		}
	case KindInsertion:
		col, err = r.insertionColumn(seq, ev)
		width = ev.Length

		if err == nil {
			err = r.applyInsertion(seq, col, ev.DonorOffset, ev.Length)
		}
	case KindInversion:
		col, width, err = r.columnRange(seq, ev)
		if err == nil {
			err = r.alignment.AddInversion(seq, col, width)
		}
	default:
		err = fmt.Errorf("%w: unknown event kind %q", ErrInvalidScript, ev.Kind)
	}

	if err != nil {
		return err
	}

	r.metrics.RecordEvent(ctx, string(ev.Kind), width)
	r.logger.DebugContext(ctx, "event applied",
		"lineage", ev.Lineage,
		"column", col,
		"width", width,
		"alignment_width", r.alignment.Width(),
	)

	return nil
}

func (r *Runner) columnRange(seq int, ev Event) (col, width int, err error) {
	if ev.Coords == CoordsColumn {
		return ev.Start, ev.Length, nil
	}

	return r.alignment.ColumnRange(seq, ev.Start, ev.Length)
}

func (r *Runner) insertionColumn(seq int, ev Event) (int, error) {
	if ev.Coords == CoordsColumn {
		return ev.Start, nil
	}

	return r.alignment.InsertionColumn(seq, ev.Start)
}

// applyDeletion gaps out the columns in seq and every descendant.
func (r *Runner) applyDeletion(seq, col, width int) error {
	for _, s := range r.phylogeny.Subtree(seq) {
		err := r.alignment.ApplyDeletion(s, col, width)
		if err != nil {
			return err
		}
	}

	return nil
}

// applyInsertion copies the donor residues into seq and every descendant and
// opens a gap of the same width in all other sequences.
func (r *Runner) applyInsertion(seq, col, donorOffset, length int) error {
	if col < 0 || col > r.alignment.Width() {
		return fmt.Errorf("%w: insertion column %d, alignment width %d", evolve.ErrOutOfRange, col, r.alignment.Width())
	}

	if donorOffset < 0 || length < 0 || donorOffset+length > r.alignment.DonorLen() {
		return fmt.Errorf("%w: donor range [%d, %d), pool size %d",
			evolve.ErrOutOfRange, donorOffset, donorOffset+length, r.alignment.DonorLen())
	}

	for s := range r.alignment.Sequences() {
		var err error

		if r.phylogeny.IsDescendant(s, seq) {
			err = r.alignment.ApplyInsertion(s, col, donorOffset, length)
		} else {
			err = r.alignment.ApplyGapInsertion(s, col, length)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// Commit applies the recorded inversions and returns the block alignment.
func (r *Runner) Commit(ctx context.Context) (*lcb.Result, error) {
	_, span := r.tracer.Start(ctx, "sgevolve.inversions.apply")
	defer span.End()

	result, err := r.alignment.ApplyInversions(r.phylogeny)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply inversions failed")

		return nil, err
	}

	residues := 0
	for _, seq := range result.Sequences {
		residues += len(seq)
	}

	span.SetAttributes(
		attribute.Int("sgevolve.blocks", len(result.Blocks)),
		attribute.Int("sgevolve.residues", residues),
	)
	r.metrics.RecordResult(ctx, len(result.Blocks), residues)
	r.logger.InfoContext(ctx, "inversions applied", "blocks", len(result.Blocks), "residues", residues)

	return result, nil
}
