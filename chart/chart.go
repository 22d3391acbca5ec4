// Package chart renders the analysis series as bar charts.
package chart

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/tabfit/analysis"
	"github.com/YuminosukeSato/tabfit/pkg/errors"
)

// Size is the rendered size in inches.
type Size struct {
	WidthIn  float64
	HeightIn float64
}

// DefaultSize is used when a Size field is zero.
var DefaultSize = Size{WidthIn: 6, HeightIn: 4}

func (s Size) lengths() (vg.Length, vg.Length) {
	w, h := s.WidthIn, s.HeightIn
	if w <= 0 {
		w = DefaultSize.WidthIn
	}
	if h <= 0 {
		h = DefaultSize.HeightIn
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// GroupedAverage plots one bar per group.
func GroupedAverage(groups []analysis.GroupMean, target, group string) (*plot.Plot, error) {
	names := make([]string, len(groups))
	values := make(plotter.Values, len(groups))
	for i, g := range groups {
		names[i] = g.Group
		values[i] = g.Mean
	}
	return bars(fmt.Sprintf("Average %s by %s", target, group), group, "mean "+target, names, values)
}

// Correlation plots one bar per column, strongest first.
func Correlation(corrs []analysis.Correlation, target string) (*plot.Plot, error) {
	names := make([]string, len(corrs))
	values := make(plotter.Values, len(corrs))
	for i, c := range corrs {
		names[i] = c.Column
		values[i] = c.Coefficient
	}
	p, err := bars(fmt.Sprintf("Correlation with %s", target), "", "|r|", names, values)
	if err != nil {
		return nil, err
	}
	p.Y.Min = 0
	p.Y.Max = 1
	return p, nil
}

func bars(title, xLabel, yLabel string, names []string, values plotter.Values) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	// 空の系列は軸だけの図にする
	if len(values) == 0 {
		p.Title.Text = title + " (no data)"
		return p, nil
	}

	bc, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, errors.Wrap(err, "create bar chart")
	}
	bc.LineStyle.Width = vg.Length(0)
	bc.Color = plotter.DefaultLineStyle.Color
	p.Add(bc)
	p.NominalX(names...)
	if len(names) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = -1.0
	}
	return p, nil
}

// WritePNG renders p as PNG to w.
func WritePNG(w io.Writer, p *plot.Plot, size Size) error {
	width, height := size.lengths()
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return errors.Wrap(err, "render png")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write png")
	}
	return nil
}

// Save renders p to path. The format follows the file extension.
func Save(path string, p *plot.Plot, size Size) error {
	width, height := size.lengths()
	if err := p.Save(width, height, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}
