// Package chart builds Plotly-compatible figure documents from breakdowns.
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Figure is a declarative Plotly figure: traces plus layout.
type Figure struct {
	Data   []any  `json:"data"`
	Layout Layout `json:"layout"`
}

// LineTrace is a scatter trace drawn as a line.
type LineTrace struct {
	Type          string    `json:"type"`
	Mode          string    `json:"mode"`
	Name          string    `json:"name"`
	LegendGroup   string    `json:"legendgroup"`
	ShowLegend    bool      `json:"showlegend"`
	X             []string  `json:"x"`
	Y             []float64 `json:"y"`
	Line          Line      `json:"line"`
	HoverTemplate string    `json:"hovertemplate"`
}

// Line styles a LineTrace.
type Line struct {
	Color string `json:"color"`
	Dash  string `json:"dash"`
}

// PieTrace is a single pie with one slice per label.
type PieTrace struct {
	Type          string   `json:"type"`
	Labels        []string `json:"labels"`
	Values        []int    `json:"values"`
	Marker        Marker   `json:"marker"`
	Sort          bool     `json:"sort"`
	HoverTemplate string   `json:"hovertemplate"`
}

// Marker holds per-slice colors.
type Marker struct {
	Colors []string `json:"colors"`
}

// Layout is the subset of Plotly layout attributes the charts use.
type Layout struct {
	Title  Title  `json:"title"`
	XAxis  *Axis  `json:"xaxis,omitempty"`
	YAxis  *Axis  `json:"yaxis,omitempty"`
	Legend Legend `json:"legend"`
}

// Title is a text title.
type Title struct {
	Text string `json:"text"`
}

// Axis is a titled axis.
type Axis struct {
	Title Title `json:"title"`
}

// Legend configures legend title and trace ordering.
type Legend struct {
	Title      *Title `json:"title,omitempty"`
	TraceOrder string `json:"traceorder"`
}

// Marshal serializes a figure to the bytes served and cached. HTML escaping
// is off so hover templates keep their literal <br> tags.
func Marshal(fig Figure) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fig); err != nil {
		return nil, fmt.Errorf("failed to marshal figure: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
