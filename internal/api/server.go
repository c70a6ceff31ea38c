// Package api serves the activity history and statistics over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/db"
	"github.com/banshee-data/activity.report/internal/timeline"
	"github.com/banshee-data/activity.report/internal/timeutil"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server exposes the sample history, the current activity, and aggregated
// statistics.
type Server struct {
	db    *db.DB
	agg   *timeline.Aggregator
	clock timeutil.Clock
	mode  string // classification mode reported by /api/config
}

// NewServer creates an API server over the given database. The clock feeds
// both period-window resolution and the aggregator's in-progress interval.
func NewServer(database *db.DB, clock timeutil.Clock, mode string) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		db:    database,
		agg:   timeline.NewAggregator(clock),
		clock: clock,
		mode:  mode,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux mounts the API handlers.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/activities", s.listActivities)
	mux.HandleFunc("/api/current-activity", s.showCurrentActivity)
	mux.HandleFunc("/api/statistics", s.showStatistics)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/charts/statistics", s.chartStatistics)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// listActivities serves samples in a timestamp window, most recent first.
// Query params: start (inclusive), end (exclusive), limit (default 100).
func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var start, end *int64
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'start' parameter")
			return
		}
		start = &parsed
	}
	if v := r.URL.Query().Get("end"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'end' parameter")
			return
		}
		end = &parsed
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	samples, err := s.db.SamplesBetween(start, end, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve activities: %v", err))
		return
	}
	if samples == nil {
		samples = []activity.Sample{}
	}

	if err := json.NewEncoder(w).Encode(samples); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write activities")
		return
	}
}

// showCurrentActivity serves the most recent sample, or JSON null when no
// samples exist yet.
func (s *Server) showCurrentActivity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	sample, err := s.db.LatestSample()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve current activity: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(sample); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write current activity")
		return
	}
}

// periodStart resolves a named statistics period to its window start.
// Unknown periods fall back to the last 24 hours.
func periodStart(period string, now time.Time) int64 {
	switch period {
	case "day":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Unix()
	case "week":
		// Back to Monday 00:00.
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		monday := now.AddDate(0, 0, -(weekday - 1))
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location()).Unix()
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Unix()
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()).Unix()
	default:
		return now.Add(-24 * time.Hour).Unix()
	}
}

func (s *Server) statisticsReport(period string) (*timeline.Report, error) {
	start := periodStart(period, s.clock.Now())
	samples, err := s.db.SamplesSince(start)
	if err != nil {
		return nil, err
	}

	report := s.agg.Aggregate(samples)
	report.Period = period
	report.StartTime = start
	return report, nil
}

// showStatistics serves per-label counts and durations for a named period
// (day, week, month, or year).
func (s *Server) showStatistics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

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
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to compute statistics: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write statistics")
		return
	}
}

// showConfig reports the classification mode and the ordered label set. The
// label order is part of the model contract, so consumers can rely on the
// positions returned here.
func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"mode":   s.mode,
		"labels": activity.Labels,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
