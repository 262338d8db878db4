package script_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/sgevolve/pkg/evolve"
	"github.com/Sumatoshi-tech/sgevolve/pkg/observability"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
	"github.com/Sumatoshi-tech/sgevolve/pkg/script"
)

const (
	ancestor = "ACGTACGTAC"
	donor    = "GTTA"
)

type fixture struct {
	phylogeny *phylo.Tree
	alignment *evolve.Alignment
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	phylogeny, err := phylo.ParseNewick("((a,b)ab,c)root;")
	require.NoError(t, err)

	rows := make([][]byte, phylogeny.Len())
	for i := range rows {
		rows[i] = []byte(ancestor)
	}

	alignment, err := evolve.New(rows, []byte(donor), evolve.Options{CheckLevel: 2})
	require.NoError(t, err)

	return fixture{phylogeny: phylogeny, alignment: alignment}
}

func (f fixture) index(t *testing.T, name string) int {
	t.Helper()

	idx, err := f.phylogeny.Index(name)
	require.NoError(t, err)

	return idx
}

func TestRunnerAppliesEventsToSubtrees(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	parsed, err := script.Parse([]byte(`version: 1
events:
  - {kind: deletion, lineage: ab, start: 2, length: 3}
  - {kind: insertion, lineage: c, start: 0, length: 2, donor_offset: 1}
  - {kind: inversion, lineage: a, start: 0, length: 4}
`))
	require.NoError(t, err)

	runner := script.NewRunner(f.alignment, f.phylogeny)
	require.NoError(t, runner.Run(context.Background(), parsed))

	for seq := range f.alignment.Sequences() {
		assert.Equal(t, 12, f.alignment.Tree(seq).Len())
	}

	assert.Equal(t, 10, f.alignment.SeqLen(f.index(t, "root")))
	assert.Equal(t, 12, f.alignment.SeqLen(f.index(t, "c")))
	assert.Equal(t, 7, f.alignment.SeqLen(f.index(t, "ab")))
	assert.Equal(t, 7, f.alignment.SeqLen(f.index(t, "a")))
	assert.Equal(t, 7, f.alignment.SeqLen(f.index(t, "b")))
	assert.Len(t, f.alignment.Records(f.index(t, "a")), 1)
	assert.Empty(t, f.alignment.Records(f.index(t, "b")))

	result, err := runner.Commit(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Blocks, 3)
	assert.Equal(t, "ACGTACGTAC", string(result.Sequences[f.index(t, "root")]))
	assert.Equal(t, "TTACGTACGTAC", string(result.Sequences[f.index(t, "c")]))
	assert.Equal(t, "ACCGTAC", string(result.Sequences[f.index(t, "ab")]))
	assert.Equal(t, "ACCGTAC", string(result.Sequences[f.index(t, "b")]))
	assert.Equal(t, "CGGTTAC", string(result.Sequences[f.index(t, "a")]))

	_, err = runner.Commit(context.Background())
	require.ErrorIs(t, err, evolve.ErrPhase)
}

func TestRunnerColumnCoordinates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	parsed, err := script.Parse([]byte(`version: 1
events:
  - {kind: deletion, lineage: b, start: 8, length: 2, coords: column}
  - {kind: insertion, lineage: root, start: 10, length: 4, donor_offset: 0, coords: column}
`))
	require.NoError(t, err)

	require.NoError(t, script.NewRunner(f.alignment, f.phylogeny).Run(context.Background(), parsed))

	assert.Equal(t, 14, f.alignment.Width())
	assert.Equal(t, 12, f.alignment.SeqLen(f.index(t, "b")))
	assert.Equal(t, 14, f.alignment.SeqLen(f.index(t, "a")))
}

func TestRunnerReportsFailingEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  script.Event
		target error
	}{
		{
			name:   "unknown lineage",
			event:  script.Event{Kind: script.KindDeletion, Lineage: "z", Length: 1, Coords: script.CoordsSequence},
			target: phylo.ErrUnknownNode,
		},
		{
			name: "donor overrun",
			event: script.Event{
				Kind: script.KindInsertion, Lineage: "a", Length: 3, DonorOffset: 2, Coords: script.CoordsSequence,
			},
			target: evolve.ErrOutOfRange,
		},
		{
			name: "negative donor offset",
			event: script.Event{
				Kind: script.KindInsertion, Lineage: "b", Length: 2, DonorOffset: -1, Coords: script.CoordsSequence,
			},
			target: evolve.ErrOutOfRange,
		},
		{
			name:   "negative insertion length",
			event:  script.Event{Kind: script.KindInsertion, Lineage: "b", Length: -2, Coords: script.CoordsSequence},
			target: evolve.ErrOutOfRange,
		},
		{
			name:   "column past the end",
			event:  script.Event{Kind: script.KindInsertion, Lineage: "a", Start: 11, Length: 1, Coords: script.CoordsColumn},
			target: evolve.ErrOutOfRange,
		},
		{
			name:   "residues past the end",
			event:  script.Event{Kind: script.KindInversion, Lineage: "a", Start: 8, Length: 5, Coords: script.CoordsSequence},
			target: evolve.ErrOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)

			err := script.NewRunner(f.alignment, f.phylogeny).Run(context.Background(),
				&script.Script{Version: 1, Events: []script.Event{tt.event}})
			require.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), "event 0")

			for seq := range f.alignment.Sequences() {
				assert.Equal(t, len(ancestor), f.alignment.Tree(seq).Len())
			}
		})
	}
}

func TestRunnerRecordsMetricsAndLogs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewEvolutionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	runner := script.NewRunner(f.alignment, f.phylogeny, script.WithLogger(logger), script.WithMetrics(metrics))

	require.NoError(t, runner.Run(context.Background(), &script.Script{Version: 1, Events: []script.Event{
		{Kind: script.KindDeletion, Lineage: "a", Start: 0, Length: 2, Coords: script.CoordsSequence},
		{Kind: script.KindDeletion, Lineage: "b", Start: 0, Length: 2, Coords: script.CoordsSequence},
	}}))

	_, err = runner.Commit(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "event applied")
	assert.Contains(t, buf.String(), "inversions applied")

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	var events int64

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "sgevolve.events.total" {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dp := range sum.DataPoints {
				events += dp.Value
			}
		}
	}

	assert.Equal(t, int64(2), events)
}
