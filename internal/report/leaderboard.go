package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Entry is one ranked submission on the leaderboard chart.
type Entry struct {
	Label   string
	Score   float64
	GtToDet float64
	DetToGt float64
}

// RenderLeaderboard writes an HTML bar chart of entries, in the order given,
// to w.
func RenderLeaderboard(w io.Writer, phase string, entries []Entry) error {
	labels := make([]string, 0, len(entries))
	score := make([]opts.BarData, 0, len(entries))
	gtToDet := make([]opts.BarData, 0, len(entries))
	detToGt := make([]opts.BarData, 0, len(entries))
	for i, e := range entries {
		labels = append(labels, fmt.Sprintf("#%d %s", i+1, e.Label))
		score = append(score, opts.BarData{Value: e.Score})
		gtToDet = append(gtToDet, opts.BarData{Value: e.GtToDet})
		detToGt = append(detToGt, opts.BarData{Value: e.DetToGt})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Leaderboard", Width: "100%", Height: "640px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Leaderboard: " + phase,
			Subtitle: fmt.Sprintf("%d submissions", len(entries)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "IOU"}),
	)
	bar.SetXAxis(labels).
		AddSeries("AVG_XY_IOU", score).
		AddSeries("gt→det", gtToDet).
		AddSeries("det→gt", detToGt)

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render leaderboard: %w", err)
	}
	return nil
}
