package chart

import (
	"fmt"
	"image/color"
	"io"

	"github.com/trogers1052/trade-journal/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default image size
const (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

var (
	curveColor = color.RGBA{R: 0, G: 128, B: 255, A: 255}
	zeroColor  = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

// EquityCurve builds the cumulative balance plot. The curve starts at zero
// before the first trade so an empty journal still renders.
func EquityCurve(points []models.ChartPoint) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(points)+1)
	for i, pt := range points {
		pts[i+1].X = float64(i + 1)
		pts[i+1].Y = pt.Balance.InexactFloat64()
	}

	p := plot.New()
	p.Title.Text = "Equity Curve"
	if n := len(points); n > 0 {
		p.Title.Text = fmt.Sprintf("Equity Curve (%s to %s)", points[0].Date, points[n-1].Date)
	}
	p.X.Label.Text = "Trade Count"
	p.Y.Label.Text = "Cumulative Profit"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create curve: %w", err)
	}
	line.Color = curveColor
	line.Width = vg.Points(2)

	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: float64(len(points) + 1), Y: 0}})
	if err != nil {
		return nil, fmt.Errorf("failed to create zero line: %w", err)
	}
	zero.Color = zeroColor
	zero.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	p.Add(zero, line)
	return p, nil
}

// RenderEquityCurve writes the equity curve as a PNG to w
func RenderEquityCurve(points []models.ChartPoint, w io.Writer) error {
	p, err := EquityCurve(points)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to render png: %w", err)
	}
	return nil
}
