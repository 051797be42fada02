package charts

import (
	"bytes"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"banvic-analytics/pkg/errors"
	"banvic-analytics/pkg/logger"
)

// PlotRenderer renders series to PNG with gonum/plot
type PlotRenderer struct {
	// Width and Height of rendered images
	Width  vg.Length
	Height vg.Length

	logger logger.Logger
}

// NewPlotRenderer creates a renderer with the default report image size
func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{
		Width:  16 * vg.Centimeter,
		Height: 9 * vg.Centimeter,
		logger: logger.GetGlobalLogger().WithComponent("chart_renderer"),
	}
}

// Render implements the Renderer interface
func (r *PlotRenderer) Render(series Series) (Image, error) {
	if err := series.Validate(); err != nil {
		return Image{}, errors.CompositionError(errors.CodeRenderFailed, series.ID, err)
	}

	p := plot.New()
	p.Title.Text = series.Title
	p.X.Label.Text = series.XLabel
	p.Y.Label.Text = series.YLabel
	p.X.Tick.Label.Rotation = 0.785 // ~45 degrees for long period labels
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.YAlign = -0.5

	switch series.Kind {
	case KindBar:
		bars, err := plotter.NewBarChart(plotter.Values(series.Values), vg.Points(18))
		if err != nil {
			return Image{}, errors.CompositionError(errors.CodeRenderFailed, series.ID, err)
		}
		bars.Color = plotutil.Color(0)
		bars.LineStyle.Width = 0
		p.Add(bars)
	default:
		xys := make(plotter.XYs, len(series.Values))
		for i, v := range series.Values {
			xys[i].X = float64(i)
			xys[i].Y = v
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return Image{}, errors.CompositionError(errors.CodeRenderFailed, series.ID, err)
		}
		line.Color = plotutil.Color(0)
		p.Add(line)
	}
	p.NominalX(series.Labels...)

	writer, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return Image{}, errors.CompositionError(errors.CodeRenderFailed, series.ID, err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return Image{}, errors.CompositionError(errors.CodeRenderFailed, series.ID, err)
	}

	r.logger.WithFields(logger.Fields{
		"chart": series.ID,
		"bytes": buf.Len(),
	}).Debug("Rendered chart")

	return Image{ChartID: series.ID, PNG: buf.Bytes()}, nil
}
