package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/sgevolve/pkg/safeconv"
)

const (
	metricEventsTotal  = "sgevolve.events.total"
	metricEventColumns = "sgevolve.event.columns"
	metricBlocksTotal  = "sgevolve.blocks.total"
	metricResidues     = "sgevolve.residues.total"

	attrKind = "kind"
)

// columnBucketBoundaries spread event widths from single columns to megabases.
var columnBucketBoundaries = []float64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000}

// EvolutionMetrics holds OTel instruments describing a simulation run.
type EvolutionMetrics struct {
	eventsTotal  metric.Int64Counter
	eventColumns metric.Int64Histogram
	blocksTotal  metric.Int64Counter
	residues     metric.Int64Counter
}

// NewEvolutionMetrics creates the simulation instruments from the given meter.
func NewEvolutionMetrics(mt metric.Meter) (*EvolutionMetrics, error) {
	events, err := mt.Int64Counter(metricEventsTotal,
		metric.WithDescription("Mutation events applied by kind"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEventsTotal, err)
	}

	columns, err := mt.Int64Histogram(metricEventColumns,
		metric.WithDescription("Columns touched per mutation event"),
		metric.WithUnit("{column}"),
		metric.WithExplicitBucketBoundaries(columnBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEventColumns, err)
	}

	blocks, err := mt.Int64Counter(metricBlocksTotal,
		metric.WithDescription("Locally collinear blocks produced"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBlocksTotal, err)
	}

	residues, err := mt.Int64Counter(metricResidues,
		metric.WithDescription("Residues in the evolved sequences"),
		metric.WithUnit("{residue}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricResidues, err)
	}

	return &EvolutionMetrics{
		eventsTotal:  events,
		eventColumns: columns,
		blocksTotal:  blocks,
		residues:     residues,
	}, nil
}

// RecordEvent counts one applied event of the given kind spanning columns columns.
// Safe to call on a nil receiver (no-op).
func (em *EvolutionMetrics) RecordEvent(ctx context.Context, kind string, columns int) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrKind, kind))
	em.eventsTotal.Add(ctx, 1, attrs)
	em.eventColumns.Record(ctx, safeconv.MustNonNegative(columns), attrs)
}

// RecordResult records the block count and total residues of a finished run.
// Safe to call on a nil receiver (no-op).
func (em *EvolutionMetrics) RecordResult(ctx context.Context, blocks, residues int) {
	if em == nil {
		return
	}

	em.blocksTotal.Add(ctx, safeconv.MustNonNegative(blocks))
	em.residues.Add(ctx, safeconv.MustNonNegative(residues))
}
