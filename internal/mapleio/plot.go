package mapleio

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	plotLineColor  = color.RGBA{R: 37, G: 150, B: 190, A: 255}
	plotMarkerShape = draw.CircleGlyph{}
)

const (
	plotH = 4 * vg.Inch
	plotW = 6 * vg.Inch

	maxTicks = 10
)

// WriteConvergencePlot renders cumulative SPR improvement against sweep
// number, saved as "<prefix>.png". Grounded on camus's internal/prep/io.go
// WriteResultsLineplot (gonum.org/v1/plot line+points, integer-stepped
// x-axis ticker bounded by maxTicks).
func WriteConvergencePlot(stats []SweepStat, prefix string) error {
	p := plot.New()
	p.X.Label.Text = "SPR sweep"
	p.Y.Label.Text = "Cumulative log-likelihood improvement"
	p.X.Min = 0
	p.X.Max = float64(len(stats))
	p.X.Tick.Marker = plot.TickerFunc(func(_, maxv float64) []plot.Tick {
		step := 1
		if int(maxv) > maxTicks {
			step = int(math.Ceil(maxv / maxTicks))
		}
		ticks := make([]plot.Tick, 0, int(maxv)/step+2)
		for i := 0; i <= int(maxv); i++ {
			if i%step == 0 {
				ticks = append(ticks, plot.Tick{Value: float64(i), Label: fmt.Sprintf("%d", i)})
			} else {
				ticks = append(ticks, plot.Tick{Value: float64(i)})
			}
		}
		return ticks
	})

	pts := make(plotter.XYs, len(stats)+1)
	pts[0].X, pts[0].Y = 0, 0
	var cumulative float64
	for i, s := range stats {
		cumulative += s.Improvement
		pts[i+1].X = float64(s.Sweep)
		pts[i+1].Y = cumulative
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = plotLineColor
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	points.Color = plotLineColor
	points.Shape = plotMarkerShape
	points.Radius = vg.Points(4)
	p.Add(line, points)
	return p.Save(plotW, plotH, fmt.Sprintf("%s.png", prefix))
}
