package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/luokaci05/btctrack/service/aggregate"
	"github.com/luokaci05/btctrack/service/txfilter"
)

var (
	chartTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	chartBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	chartLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ChartTitle derives the fixed chart title from the granularity plus an
// optional period-label suffix.
func ChartTitle(measure string, g aggregate.Granularity, period txfilter.Period) string {
	title := fmt.Sprintf("%s by %s", measure, g.XLabel())
	suffix := "All"
	if period != "" && period != txfilter.AllTime {
		suffix = string(period)
	}
	return fmt.Sprintf("%s - Period: %s", title, suffix)
}

// RenderChart renders a bucketed series: line charts for day/week/month
// granularities, bar charts for year and weekday.
func RenderChart(buckets []aggregate.Bucket, title string, g aggregate.Granularity, width int) string {
	switch g {
	case aggregate.Year, aggregate.Weekday:
		return RenderBars(buckets, title, width)
	default:
		return renderLine(buckets, title, width)
	}
}

// renderLine draws the series as an ASCII line chart with the first and
// last bucket labels as the x-axis range.
func renderLine(buckets []aggregate.Bucket, title string, width int) string {
	if len(buckets) == 0 {
		return ""
	}

	values := make([]float64, len(buckets))
	for i, b := range buckets {
		values[i] = b.Value
	}

	plotWidth := width - 12
	if plotWidth < 16 {
		plotWidth = 16
	}
	// asciigraph needs at least two points to draw a line.
	if len(values) == 1 {
		values = append(values, values[0])
	}

	plot := asciigraph.Plot(values,
		asciigraph.Height(12),
		asciigraph.Width(plotWidth),
	)

	axis := chartLabelStyle.Render(fmt.Sprintf("%s .. %s", buckets[0].Label, buckets[len(buckets)-1].Label))
	return strings.Join([]string{chartTitleStyle.Render(title), "", plot, "", axis}, "\n")
}

// RenderBars draws the series as labeled horizontal bars.
func RenderBars(buckets []aggregate.Bucket, title string, width int) string {
	if len(buckets) == 0 {
		return ""
	}

	var max float64
	labelWidth := 0
	for _, b := range buckets {
		if b.Value > max {
			max = b.Value
		}
		if len(b.Label) > labelWidth {
			labelWidth = len(b.Label)
		}
	}

	barSpace := width - labelWidth - 14
	if barSpace < 10 {
		barSpace = 10
	}

	lines := []string{chartTitleStyle.Render(title), ""}
	for _, b := range buckets {
		n := 0
		if max > 0 {
			n = int(b.Value / max * float64(barSpace))
		}
		if b.Value > 0 && n == 0 {
			n = 1
		}
		label := chartLabelStyle.Render(fmt.Sprintf("%*s", labelWidth, b.Label))
		lines = append(lines, fmt.Sprintf("%s %s %s",
			label,
			chartBarStyle.Render(strings.Repeat("█", n)),
			formatBucketValue(b.Value),
		))
	}
	return strings.Join(lines, "\n")
}

func formatBucketValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.8f", v)
}
