package classify

import (
	"testing"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/audio"
	"github.com/banshee-data/activity.report/internal/vision"
)

// videoFeatures builds a vision bundle with the given motion estimate and
// mean brightness. A negative motion stands for "no previous frame".
func videoFeatures(motion, brightness float64) *vision.Features {
	f := &vision.Features{HSVMeans: [3]float64{0, 0, brightness}}
	if motion >= 0 {
		f.MotionPercent = &motion
	}
	return f
}

// audioFeatures builds an audio bundle with the given loudness and speech
// profile.
func audioFeatures(rmsLevel, zcr, midRatio float64) *audio.Features {
	return &audio.Features{
		RMSLevel:         rmsLevel,
		ZeroCrossingRate: zcr,
		Spectrum:         &audio.SpectrumFeatures{MidFreqRatio: midRatio},
	}
}

func TestHeuristicClassify(t *testing.T) {
	tests := []struct {
		name       string
		motion     float64
		brightness float64
		rmsLevel   float64
		zcr        float64
		midRatio   float64
		want       activity.Label
	}{
		{"still and silent", 1, 50, 0.05, 0, 0, activity.LabelAsleep},
		{"bright scene takes precedence over reading", 8, 150, 0.15, 0, 0, activity.LabelAtTable},
		{"low motion in a dark scene", 8, 50, 0.15, 0, 0, activity.LabelReading},
		{"speech with little motion", 5, 50, 0.4, 0.1, 0.5, activity.LabelOnPhone},
		{"speech with more motion", 15, 50, 0.4, 0.1, 0.5, activity.LabelInConversation},
		{"high motion without speech", 25, 50, 0.5, 0.01, 0.1, activity.LabelBusy},
		{"nothing matches", 3, 50, 0.25, 0.01, 0.1, activity.LabelIdle},
		{"still but loud is not asleep", 1, 50, 0.5, 0.01, 0.1, activity.LabelIdle},
	}

	c := NewHeuristicClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(videoFeatures(tt.motion, tt.brightness), audioFeatures(tt.rmsLevel, tt.zcr, tt.midRatio))
			if got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeuristicClassifyMissingBundles(t *testing.T) {
	c := NewHeuristicClassifier()
	if got := c.Classify(nil, audioFeatures(0, 0, 0)); got != activity.LabelIdle {
		t.Errorf("nil video: got %q, want %q", got, activity.LabelIdle)
	}
	if got := c.Classify(videoFeatures(1, 50), nil); got != activity.LabelIdle {
		t.Errorf("nil audio: got %q, want %q", got, activity.LabelIdle)
	}
}

func TestHeuristicClassifyFirstFrame(t *testing.T) {
	// No motion estimate yet reads as zero motion, so a silent first frame
	// classifies as asleep.
	c := NewHeuristicClassifier()
	got := c.Classify(videoFeatures(-1, 50), audioFeatures(0.05, 0, 0))
	if got != activity.LabelAsleep {
		t.Errorf("got %q, want %q", got, activity.LabelAsleep)
	}
}

func TestHeuristicClassifyNilSpectrum(t *testing.T) {
	c := NewHeuristicClassifier()
	sound := &audio.Features{RMSLevel: 0.4, ZeroCrossingRate: 0.1}
	// Without a spectrum the speech rules cannot fire.
	if got := c.Classify(videoFeatures(5, 50), sound); got != activity.LabelIdle {
		t.Errorf("got %q, want %q", got, activity.LabelIdle)
	}
}

func TestHeuristicClassifyDeterministic(t *testing.T) {
	c := NewHeuristicClassifier()
	for i := 0; i < 10; i++ {
		got := c.Classify(videoFeatures(8, 150), audioFeatures(0.15, 0, 0))
		if got != activity.LabelAtTable {
			t.Fatalf("run %d: got %q, want %q", i, got, activity.LabelAtTable)
		}
	}
}

func TestHeuristicMode(t *testing.T) {
	if got := NewHeuristicClassifier().Mode(); got != "heuristic" {
		t.Errorf("Mode = %q, want heuristic", got)
	}
}
