package portfolio

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/iris/internal/models"
)

// defaultSliceColors cycles when the payload carries no color for a slice.
var defaultSliceColors = []string{"3b82f6", "22c55e", "f59e0b", "a855f7", "ef4444", "14b8a6"}

// RenderAllocationChart renders the allocation donut as PNG bytes.
func (s *Service) RenderAllocationChart(view *models.PortfolioView) ([]byte, error) {
	if view == nil || len(view.Snapshot.Allocation) == 0 {
		return nil, fmt.Errorf("no allocation data")
	}

	values := make([]chart.Value, 0, len(view.Snapshot.Allocation))
	for i, a := range view.Snapshot.Allocation {
		hex := strings.TrimPrefix(a.Color, "#")
		if hex == "" {
			hex = defaultSliceColors[i%len(defaultSliceColors)]
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", a.Name, a.Value),
			Value: a.Value,
			Style: chart.Style{
				FillColor: drawing.ColorFromHex(hex),
			},
		})
	}

	graph := chart.DonutChart{
		Title:  "Asset Allocation",
		Width:  500,
		Height: 500,
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPerformanceChart renders the performance trend line as PNG bytes.
// Points arrive ascending by date from the gateway.
func (s *Service) RenderPerformanceChart(view *models.PortfolioView) ([]byte, error) {
	if view == nil {
		return nil, fmt.Errorf("no performance data")
	}
	points := view.Snapshot.Performance
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}

	xValues := make([]time.Time, 0, len(points))
	yValues := make([]float64, 0, len(points))
	for _, p := range points {
		t, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, fmt.Errorf("bad performance date %q: %w", p.Date, err)
		}
		xValues = append(xValues, t)
		yValues = append(yValues, p.Value)
	}

	series := chart.TimeSeries{
		Name: "Portfolio Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Performance",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
