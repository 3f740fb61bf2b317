package chart

import (
	"fmt"

	"exitviz/internal/aggregate"
	"exitviz/internal/models"
)

// LineFigure builds the moving-average figure: one trace per category with
// dates ascending, regardless of the series order.
func LineFigure(series aggregate.Series, m int) Figure {
	n := len(series)
	x := make([]string, n)
	ys := make([][]float64, models.NumCategories)
	for c := range ys {
		ys[c] = make([]float64, n)
	}

	for i := range series {
		b := series[n-1-i]
		x[i] = b.End.Format(models.DateLayout)
		for c, cat := range models.Categories {
			ys[c][i] = b.Proportion(cat)
		}
	}

	data := make([]any, 0, models.NumCategories)
	for c, cat := range models.Categories {
		data = append(data, LineTrace{
			Type:          "scatter",
			Mode:          "lines",
			Name:          cat.String(),
			LegendGroup:   cat.String(),
			ShowLegend:    true,
			X:             x,
			Y:             ys[c],
			Line:          Line{Color: cat.Color(), Dash: "solid"},
			HoverTemplate: "variable=" + cat.String() + "<br>date=%{x}<br>proportion=%{y}<extra></extra>",
		})
	}

	return Figure{
		Data: data,
		Layout: Layout{
			Title: Title{Text: fmt.Sprintf("%d-Day Moving Averages", m)},
			XAxis: &Axis{Title: Title{Text: "date"}},
			YAxis: &Axis{Title: Title{Text: "proportion"}},
			Legend: Legend{
				Title:      &Title{Text: "variable"},
				TraceOrder: "normal",
			},
		},
	}
}

// PieFigure builds the snapshot pie from raw counts; Plotly normalizes them.
func PieFigure(b aggregate.Bucket, m int) Figure {
	labels := make([]string, models.NumCategories)
	values := make([]int, models.NumCategories)
	colors := make([]string, models.NumCategories)
	for i, cat := range models.Categories {
		labels[i] = cat.String()
		values[i] = b.Count(cat)
		colors[i] = cat.Color()
	}

	return Figure{
		Data: []any{PieTrace{
			Type:          "pie",
			Labels:        labels,
			Values:        values,
			Marker:        Marker{Colors: colors},
			Sort:          false,
			HoverTemplate: "dest=%{label}<br>count=%{value}<extra></extra>",
		}},
		Layout: Layout{
			Title:  Title{Text: fmt.Sprintf("%d-Day Exit Destinations", m)},
			Legend: Legend{TraceOrder: "normal"},
		},
	}
}

// RenderLine serializes LineFigure.
func RenderLine(series aggregate.Series, m int) ([]byte, error) {
	return Marshal(LineFigure(series, m))
}

// RenderPie serializes PieFigure.
func RenderPie(b aggregate.Bucket, m int) ([]byte, error) {
	return Marshal(PieFigure(b, m))
}
