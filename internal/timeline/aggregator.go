// Package timeline turns a sparse sequence of classified samples into
// per-label occurrence counts and attributed durations. An activity is
// assumed to hold until the next sample supersedes it; the most recent
// sample is treated as still in progress and accrues time up to "now".
package timeline

import (
	"math"
	"sort"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/timeutil"
)

// Report holds the aggregated statistics for one window of samples.
type Report struct {
	Period    string `json:"period,omitempty"`
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`

	// Counts is the number of samples per label.
	Counts map[activity.Label]int `json:"activity_counts"`

	// Durations is the attributed time per label in seconds.
	Durations map[activity.Label]int64 `json:"activity_durations_seconds"`

	// DurationsMinutes mirrors Durations in minutes, rounded to one
	// decimal place, for human-facing consumers.
	DurationsMinutes map[activity.Label]float64 `json:"activity_durations"`

	// MostFrequent is the label with the highest count; nil when the
	// window holds no samples. Ties resolve to the label first seen in
	// chronological order.
	MostFrequent *activity.Label `json:"most_frequent_activity"`

	// Longest is the label with the highest cumulative duration, with the
	// same tie rule. Nil when the window holds no samples.
	Longest *activity.Label `json:"longest_activity"`
}

// Aggregator computes reports over persisted sample history. The injected
// clock supplies "now" for the in-progress final interval.
type Aggregator struct {
	clock timeutil.Clock
}

// NewAggregator creates an aggregator reading the given clock.
func NewAggregator(clock timeutil.Clock) *Aggregator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Aggregator{clock: clock}
}

// Aggregate computes per-label statistics over the given samples. The input
// is expected in chronological order; out-of-order input is sorted by
// timestamp first rather than rejected, since the persistence layer's range
// queries may serve rows in either direction. Zero samples produce empty
// maps and nil most-frequent/longest, never an error.
func (a *Aggregator) Aggregate(samples []activity.Sample) *Report {
	now := a.clock.Now().Unix()

	report := &Report{
		EndTime:          now,
		Counts:           make(map[activity.Label]int),
		Durations:        make(map[activity.Label]int64),
		DurationsMinutes: make(map[activity.Label]float64),
	}
	if len(samples) == 0 {
		return report
	}

	ordered := make([]activity.Sample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	report.StartTime = ordered[0].Timestamp

	// firstSeen preserves chronological first-appearance order for the
	// tie-break rule.
	var firstSeen []activity.Label
	for i, s := range ordered {
		if _, ok := report.Counts[s.Label]; !ok {
			firstSeen = append(firstSeen, s.Label)
		}
		report.Counts[s.Label]++

		// Each sample's activity holds until the next sample; the final
		// sample is still in progress and extends to now.
		var duration int64
		if i < len(ordered)-1 {
			duration = ordered[i+1].Timestamp - s.Timestamp
		} else {
			duration = now - s.Timestamp
		}
		report.Durations[s.Label] += duration
	}

	for label, seconds := range report.Durations {
		report.DurationsMinutes[label] = roundTenth(float64(seconds) / 60.0)
	}

	report.MostFrequent = pickLabel(firstSeen, func(l activity.Label) int64 {
		return int64(report.Counts[l])
	})
	report.Longest = pickLabel(firstSeen, func(l activity.Label) int64 {
		return report.Durations[l]
	})
	return report
}

// pickLabel returns the label maximizing score, scanning in first-seen
// order so earlier labels win ties.
func pickLabel(firstSeen []activity.Label, score func(activity.Label) int64) *activity.Label {
	if len(firstSeen) == 0 {
		return nil
	}
	best := firstSeen[0]
	for _, l := range firstSeen[1:] {
		if score(l) > score(best) {
			best = l
		}
	}
	return &best
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
