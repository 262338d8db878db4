package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/sgevolve/pkg/lcb"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
)

const (
	chartWidth   = "100%"
	chartHeight  = "500px"
	xAxisRotate  = 45
	forwardColor = "#5470c6"
	reverseColor = "#ee6666"
)

// WritePlot renders an HTML bar chart with the residue count of every block in
// every written sequence. Reverse complemented blocks are drawn in red.
func WritePlot(w io.Writer, result *lcb.Result, phylogeny *phylo.Tree, includeAncestors bool) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "sgevolve blocks",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Locally collinear blocks",
			Subtitle: fmt.Sprintf("%d blocks, residues per sequence", len(result.Blocks)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Block",
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"},
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Residues"}),
	)

	labels := make([]string, len(result.Blocks))
	for i, block := range result.Blocks {
		labels[i] = "#" + strconv.Itoa(int(block.ID))
	}

	bar.SetXAxis(labels)

	for seq := range result.Sequences {
		if !includeAncestors && !phylogeny.IsLeaf(seq) {
			continue
		}

		bar.AddSeries(phylogeny.Nodes[seq].Name, blockBars(result.Blocks, seq))
	}

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render block chart: %w", err)
	}

	return nil
}

func blockBars(blocks []*lcb.Block, seq int) []opts.BarData {
	data := make([]opts.BarData, len(blocks))

	for i, block := range blocks {
		extent := block.Extents[seq]

		color := forwardColor
		if extent.Reversed() {
			color = reverseColor
		}

		data[i] = opts.BarData{
			Value:     extent.Len(),
			ItemStyle: &opts.ItemStyle{Color: color},
		}
	}

	return data
}
