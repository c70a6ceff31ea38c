package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/activity.report/internal/activity"
)

// chartStatistics renders the period statistics as an HTML bar chart for
// eyeballing the distribution without a frontend. Machine consumers should
// use /api/statistics instead.
func (s *Server) chartStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}

	report, err := s.statisticsReport(period)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to compute statistics: %v", err))
		return
	}

	// Canonical label order on the axis keeps charts comparable across periods.
	var names []string
	var minutes []opts.BarData
	var counts []opts.BarData
	for _, label := range activity.Labels {
		names = append(names, string(label))
		minutes = append(minutes, opts.BarData{Value: report.DurationsMinutes[label]})
		counts = append(counts, opts.BarData{Value: report.Counts[label]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Activity Statistics", Width: "100%", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Activity Distribution", Subtitle: fmt.Sprintf("period=%s window=%d..%d", report.Period, report.StartTime, report.EndTime)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("minutes", minutes,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("samples", counts)

	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
