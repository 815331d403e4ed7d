// Package report renders run diagnostics: a PNG histogram of the per-box IOU
// pools and an HTML bar chart of per-frame mean IOU.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"

	"github.com/banshee-data/bev-grader/internal/scoring"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// AssetsHost serves the echarts JavaScript for the HTML chart.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var (
	gtToDetColor = color.RGBA{R: 31, G: 119, B: 180, A: 160}
	detToGtColor = color.RGBA{R: 255, G: 127, B: 14, A: 160}
)

// WriteHistogram saves a histogram of both IOU pools to path. The image
// format follows the file extension (.png, .svg, .pdf).
func WriteHistogram(path string, s *scoring.Summary, bins int) error {
	if bins < 1 {
		return fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Best-match IOU (AVG_XY_IOU %.4f)", s.Score)
	p.X.Label.Text = "IOU"
	p.Y.Label.Text = "Boxes"
	p.X.Min = 0
	p.X.Max = 1

	series := []struct {
		name   string
		values []float64
		fill   color.Color
	}{
		{"gt→det", s.GtToDetValues(), gtToDetColor},
		{"det→gt", s.DetToGtValues(), detToGtColor},
	}
	for _, sr := range series {
		if len(sr.values) == 0 {
			continue
		}
		h := &plotter.Histogram{
			Bins:      binUnit(sr.values, bins),
			Width:     1 / float64(bins),
			FillColor: sr.fill,
			LineStyle: plotter.DefaultLineStyle,
		}
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", sr.name, len(sr.values)), h)
	}
	p.Legend.Top = true

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram: %w", err)
	}
	return nil
}

// binUnit counts values into n equal bins over [0, 1] so both pools share
// bin edges. Values are clamped into range; 1.0 lands in the last bin.
func binUnit(values []float64, n int) []plotter.HistogramBin {
	dividers := make([]float64, n+1)
	floats.Span(dividers, 0, 1)
	dividers[n] = math.Nextafter(1, 2)

	x := make([]float64, len(values))
	for i, v := range values {
		x[i] = math.Min(math.Max(v, 0), 1)
	}
	sort.Float64s(x)
	counts := stat.Histogram(nil, dividers, x, nil)

	out := make([]plotter.HistogramBin, n)
	for i := range out {
		out[i] = plotter.HistogramBin{Min: dividers[i], Max: dividers[i+1], Weight: counts[i]}
	}
	return out
}

// WriteFrameChart saves an HTML page with per-frame mean IOU in both
// directions. Frames scored as missing or malformed are flagged in the axis
// label.
func WriteFrameChart(path string, s *scoring.Summary) error {
	names := make([]string, 0, len(s.Frames))
	gtToDet := make([]opts.BarData, 0, len(s.Frames))
	detToGt := make([]opts.BarData, 0, len(s.Frames))
	for _, f := range s.Frames {
		label := f.Name
		if f.Status != scoring.FrameComplete {
			label += " (" + string(f.Status) + ")"
		}
		names = append(names, label)
		gtToDet = append(gtToDet, opts.BarData{Value: f.MeanGtToDet()})
		detToGt = append(detToGt, opts.BarData{Value: f.MeanDetToGt()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Per-frame IOU", Width: "100%", Height: "640px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Per-frame mean IOU",
			Subtitle: fmt.Sprintf("frames=%d missing=%d malformed=%d AVG_XY_IOU=%.4f", s.FrameCount, s.MissingFrames, s.MalformedFrames, s.Score),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "IOU"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	bar.SetXAxis(names).
		AddSeries("gt→det", gtToDet).
		AddSeries("det→gt", detToGt)

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render frame chart: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write frame chart: %w", err)
	}
	return nil
}
