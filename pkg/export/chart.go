package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/cleancharge/core/model"
)

const chartTimeLayout = "2006-01-02 15:04"

// RenderChart draws the clean-energy share of samples as a line chart and
// overlays each window as a second series spanning its samples.
func RenderChart(w io.Writer, title string, samples []model.Sample, windows []model.OptimalChargingWindow) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d samples, %d windows", len(samples), len(windows))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Sample start (UTC)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Clean energy (%)"}),
	)

	xAxis := make([]string, len(samples))
	share := make([]opts.LineData, len(samples))
	marked := make([]opts.LineData, len(samples))
	for i, s := range samples {
		xAxis[i] = s.From.UTC().Format(chartTimeLayout)
		share[i] = opts.LineData{Value: s.CleanEnergy}
		// "-" leaves a hole in an echarts series.
		marked[i] = opts.LineData{Value: "-"}
		for _, win := range windows {
			if s.From.Before(win.EndTime) && s.To.After(win.StartTime) {
				marked[i] = opts.LineData{Value: win.CleanEnergyPercentage}
				break
			}
		}
	}

	line.SetXAxis(xAxis).
		AddSeries("Clean energy", share).
		AddSeries("Recommended window", marked)
	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// ChartHTML returns the chart as a standalone HTML page.
func ChartHTML(title string, samples []model.Sample, windows []model.OptimalChargingWindow) (string, error) {
	var buf bytes.Buffer
	if err := RenderChart(&buf, title, samples, windows); err != nil {
		return "", err
	}
	return buf.String(), nil
}
