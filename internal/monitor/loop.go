// Package monitor runs the periodic sampling loop: poll the capture source
// at a short cadence, extract features, and classify at a longer interval,
// persisting and forwarding each classified sample. The loop survives any
// single cycle's failure.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/audio"
	"github.com/banshee-data/activity.report/internal/capture"
	"github.com/banshee-data/activity.report/internal/classify"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/timeutil"
	"github.com/banshee-data/activity.report/internal/vision"
)

// maxBackoffMultiplier caps how far the failure backoff grows.
const maxBackoffMultiplier = 6

// Store persists classified samples.
type Store interface {
	RecordSample(s activity.Sample) (int64, error)
}

// Notifier forwards classified samples to an external consumer. Failures
// are logged and otherwise ignored.
type Notifier interface {
	SendActivity(timestamp int64, label activity.Label, metadata map[string]string) error
}

// Options configure a sampling loop.
type Options struct {
	PollInterval     time.Duration // capture polling cadence, default 1s
	ClassifyInterval time.Duration // gap between classifications, default 300s
	ErrorBackoff     time.Duration // base extra wait after a failed cycle, default 5s
	Clock            timeutil.Clock
	Notifier         Notifier // optional
}

// Loop owns one capture source and the extractors bound to it. The frame
// extractor's cross-call state is only ever touched from Run's goroutine.
type Loop struct {
	source     capture.Source
	vision     *vision.Extractor
	audio      *audio.Extractor
	classifier classify.Classifier
	store      Store
	notifier   Notifier
	clock      timeutil.Clock

	pollInterval     time.Duration
	classifyInterval time.Duration
	errorBackoff     time.Duration

	sessionID    string
	lastClassify time.Time
	failures     int
}

// NewLoop creates a sampling loop. Each loop gets a session UUID stamped
// into every sample it records.
func NewLoop(source capture.Source, visionEx *vision.Extractor, audioEx *audio.Extractor,
	classifier classify.Classifier, store Store, opts Options) *Loop {

	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.ClassifyInterval <= 0 {
		opts.ClassifyInterval = 300 * time.Second
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	return &Loop{
		source:           source,
		vision:           visionEx,
		audio:            audioEx,
		classifier:       classifier,
		store:            store,
		notifier:         opts.Notifier,
		clock:            opts.Clock,
		pollInterval:     opts.PollInterval,
		classifyInterval: opts.ClassifyInterval,
		errorBackoff:     opts.ErrorBackoff,
		sessionID:        uuid.NewString(),
	}
}

// SessionID returns the loop's session UUID.
func (l *Loop) SessionID() string { return l.sessionID }

// Run polls until ctx is cancelled. A failed cycle is logged and followed
// by a backoff sleep that grows with consecutive failures; the loop itself
// never terminates on cycle errors.
func (l *Loop) Run(ctx context.Context) error {
	monitoring.Logf("starting activity monitoring (session %s, mode %s, classify every %s)",
		l.sessionID, l.classifier.Mode(), l.classifyInterval)

	ticker := l.clock.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("activity monitoring stopped (session %s)", l.sessionID)
			return ctx.Err()
		case <-ticker.C():
			if err := l.cycle(); err != nil {
				l.failures++
				monitoring.Logf("monitoring cycle failed (%d consecutive): %v", l.failures, err)

				multiplier := l.failures
				if multiplier > maxBackoffMultiplier {
					multiplier = maxBackoffMultiplier
				}
				l.clock.Sleep(l.errorBackoff * time.Duration(multiplier))
			} else {
				l.failures = 0
			}
		}
	}
}

// cycle runs one poll: capture, extract, and classify when the
// classification interval has elapsed.
func (l *Loop) cycle() error {
	frame, soundBuf, err := l.source.Capture()
	if err != nil {
		if errors.Is(err, capture.ErrUnavailable) {
			// Nothing to analyse this tick.
			return nil
		}
		return fmt.Errorf("capture failed: %w", err)
	}

	videoFeatures, err := l.vision.Extract(frame)
	if err != nil {
		// Malformed input; skip the cycle rather than fail the loop.
		monitoring.Logf("skipping cycle: %v", err)
		return nil
	}
	audioFeatures := l.audio.Extract(soundBuf)

	now := l.clock.Now()
	if !l.lastClassify.IsZero() && now.Sub(l.lastClassify) < l.classifyInterval {
		return nil
	}

	label := l.classifier.Classify(videoFeatures, audioFeatures)
	l.lastClassify = now

	sample := activity.NewSample(now.Unix(), label)
	sample.Metadata = map[string]string{
		"session_id": l.sessionID,
		"mode":       l.classifier.Mode(),
	}

	id, err := l.store.RecordSample(sample)
	if err != nil {
		return fmt.Errorf("failed to record sample: %w", err)
	}
	monitoring.Logf("activity %q recorded at %s (ID: %d)", label, now.Format("2006-01-02 15:04:05"), id)

	if l.notifier != nil {
		if err := l.notifier.SendActivity(sample.Timestamp, label, sample.Metadata); err != nil {
			// Notification delivery is best-effort.
			monitoring.Logf("notification failed: %v", err)
		}
	}
	return nil
}
