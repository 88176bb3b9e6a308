package stats

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotFileName names a coverage chart after the instance label and mode,
// e.g. coverage_plot_instance_1_local_search.png.
func PlotFileName(label string, localSearch bool) string {
	mode := "baseline"
	if localSearch {
		mode = "local_search"
	}
	name := strings.ToLower(strings.Join(strings.Fields(label), "_"))
	return fmt.Sprintf("coverage_plot_%s_%s.png", name, mode)
}

// PlotCoverage draws coverage against generation. When localSearch is set
// the last trace entry is the post-refinement coverage and is marked.
func PlotCoverage(trace []float64, title string, localSearch bool, outPath string) error {
	if len(trace) == 0 {
		return fmt.Errorf("coverage trace is empty")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Coverage (%)"
	p.Y.Min = 0
	p.Y.Max = 100
	p.Add(plotter.NewGrid())

	generations := len(trace)
	if localSearch && generations > 1 {
		generations--
	}
	pts := make(plotter.XYs, generations)
	for i := range pts {
		pts[i].X = float64(i + 1)
		pts[i].Y = trace[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)
	p.Legend.Add("GA coverage", line)

	if localSearch {
		last := plotter.XYs{{X: float64(len(trace)), Y: trace[len(trace)-1]}}
		marker, err := plotter.NewScatter(last)
		if err != nil {
			return err
		}
		marker.GlyphStyle.Color = color.RGBA{R: 220, A: 255}
		marker.GlyphStyle.Radius = vg.Points(4)
		marker.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(marker)
		p.Legend.Add("after local search", marker)
	}

	p.Legend.Top = false
	p.Legend.Left = false

	return p.Save(6*vg.Inch, 4*vg.Inch, outPath)
}
