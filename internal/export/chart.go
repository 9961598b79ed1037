package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"rateio/internal/core"
)

const ChartTitle = "Distribuição de Despesas por Categoria"

// ErrNoChartData is returned when there is nothing positive to plot.
var ErrNoChartData = errors.New("no expense data to chart")

// Palette is the slice fill order; it repeats when there are more categories.
var Palette = []string{"FF6384", "36A2EB", "FFCE56", "4BC0C0", "9966FF", "FF9F40"}

type ChartSize struct {
	Width, Height int
}

var DefaultChartSize = ChartSize{Width: 480, Height: 480}

// SliceColor returns the palette entry for the i-th category.
func SliceColor(i int) drawing.Color {
	return drawing.ColorFromHex(Palette[i%len(Palette)])
}

// RenderPieChart draws category totals as a PNG pie chart.
func RenderPieChart(w io.Writer, categories []core.CategoryShare, size ChartSize) error {
	values := make([]chart.Value, 0, len(categories))
	for i, c := range categories {
		if c.Amount.Cents <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: c.Name,
			Value: c.Amount.Reais(),
			Style: chart.Style{
				FillColor:   SliceColor(i),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 2,
			},
		})
	}
	if len(values) == 0 {
		return ErrNoChartData
	}

	pie := chart.PieChart{
		Title:  ChartTitle,
		Width:  size.Width,
		Height: size.Height,
		Values: values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
