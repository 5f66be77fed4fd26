package main

import (
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// saveLikelihoodPlot writes the per-iteration log likelihood curve of a
// training run as a PNG file.
func saveLikelihoodPlot(path, name string, logLike2 []float64) error {

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "log2 likelihood"

	pts := make(plotter.XYs, len(logLike2))
	for i, ll := range logLike2 {
		pts[i].X = float64(i)
		pts[i].Y = ll
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)
	p.Add(plotter.NewGrid())

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		f.Close()
		return err
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
