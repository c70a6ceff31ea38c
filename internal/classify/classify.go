// Package classify maps one video feature bundle and one audio feature
// bundle to an activity label. An engine is built in exactly one mode,
// heuristic or model-based, and its Classify method is total: every internal
// failure resolves to the idle fallback label rather than an error.
package classify

import (
	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/audio"
	"github.com/banshee-data/activity.report/internal/vision"
)

// Classifier is the single classification capability. Implementations must
// never panic or return errors through this interface; any failure maps to
// activity.LabelIdle.
type Classifier interface {
	Classify(video *vision.Features, sound *audio.Features) activity.Label

	// Mode identifies the strategy, e.g. "heuristic" or "model".
	Mode() string
}

// audioFeatureVector assembles the fixed-order numeric feature vector shared
// by model inference and training:
// rms, zcr, dominant frequency, low/mid/high band ratios.
// Missing spectral features contribute zeros, matching the heuristic path.
func audioFeatureVector(sound *audio.Features) []float64 {
	v := make([]float64, 6)
	if sound == nil {
		return v
	}
	v[0] = sound.RMSLevel
	v[1] = sound.ZeroCrossingRate
	if sound.Spectrum != nil {
		v[2] = sound.Spectrum.DominantFrequency
		v[3] = sound.Spectrum.LowFreqRatio
		v[4] = sound.Spectrum.MidFreqRatio
		v[5] = sound.Spectrum.HighFreqRatio
	}
	return v
}
