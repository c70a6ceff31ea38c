package classify

import (
	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/audio"
	"github.com/banshee-data/activity.report/internal/vision"
)

// Heuristic decision thresholds. The rules below deliberately overlap; the
// first match wins, so reordering or "tidying" the ranges changes
// classification outcomes.
const (
	AsleepMotionMax = 2.0
	AsleepAudioMax  = 0.1

	AtTableMotionMin  = 5.0
	AtTableMotionMax  = 15.0
	AtTableBrightness = 100.0

	ReadingMotionMin = 2.0
	ReadingMotionMax = 10.0
	ReadingAudioMax  = 0.2

	SpeechZCRMin      = 0.05
	SpeechMidRatioMin = 0.4

	OnPhoneAudioMin  = 0.3
	OnPhoneMotionMax = 10.0

	ConversationAudioMin  = 0.25
	ConversationMotionMin = 10.0

	BusyMotionMin = 20.0
)

// HeuristicClassifier evaluates a fixed, ordered decision list over the
// extracted features. It is stateless and safe for concurrent use.
type HeuristicClassifier struct{}

// NewHeuristicClassifier creates the rule-based classification strategy.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Mode identifies the strategy.
func (*HeuristicClassifier) Mode() string { return "heuristic" }

// Classify resolves one label from the feature bundles. A missing bundle
// resolves to idle.
func (*HeuristicClassifier) Classify(video *vision.Features, sound *audio.Features) activity.Label {
	if video == nil || sound == nil {
		return activity.LabelIdle
	}

	// An absent motion estimate (first frame) reads as zero motion.
	motion := 0.0
	if video.MotionPercent != nil {
		motion = *video.MotionPercent
	}

	audioLevel := sound.RMSLevel
	zcr := sound.ZeroCrossingRate
	midRatio := 0.0
	if sound.Spectrum != nil {
		midRatio = sound.Spectrum.MidFreqRatio
	}

	return decide(motion, audioLevel, zcr, midRatio, video.HSVMeans[2])
}

// decide is the pure decision list: a deterministic function of the five
// inputs, evaluated strictly top to bottom.
func decide(motion, audioLevel, zcr, midRatio, brightness float64) activity.Label {
	// 1. Near-still and near-silent.
	if motion < AsleepMotionMax && audioLevel < AsleepAudioMax {
		return activity.LabelAsleep
	}

	// 2. Moderate motion in a bright scene. Checked before the reading rule:
	// the motion ranges overlap and this rule takes precedence.
	if motion > AtTableMotionMin && motion < AtTableMotionMax && brightness > AtTableBrightness {
		return activity.LabelAtTable
	}

	// 3. Low motion, little sound.
	if motion > ReadingMotionMin && motion < ReadingMotionMax && audioLevel < ReadingAudioMax {
		return activity.LabelReading
	}

	// 4. Speech profile with little motion.
	if audioLevel > OnPhoneAudioMin && zcr > SpeechZCRMin && midRatio > SpeechMidRatioMin && motion < OnPhoneMotionMax {
		return activity.LabelOnPhone
	}

	// 5. Speech profile with more motion than rule 4 allows.
	if audioLevel > ConversationAudioMin && zcr > SpeechZCRMin && midRatio > SpeechMidRatioMin && motion > ConversationMotionMin {
		return activity.LabelInConversation
	}

	// 6. Sustained high motion without the speech profile.
	if motion > BusyMotionMin {
		return activity.LabelBusy
	}

	return activity.LabelIdle
}
