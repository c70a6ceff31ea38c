// Package activity defines the fixed set of activity labels and the
// persisted sample record shared by classification, training, and storage.
package activity

// Label represents one qualitative activity state of the monitored subject.
type Label string

const (
	// LabelAsleep indicates near-zero motion and near-silence.
	LabelAsleep Label = "asleep"
	// LabelAtTable indicates moderate motion in a well-lit seated scene.
	LabelAtTable Label = "at table"
	// LabelReading indicates low motion with little sound.
	LabelReading Label = "reading"
	// LabelOnPhone indicates speech with little motion.
	LabelOnPhone Label = "on phone"
	// LabelInConversation indicates speech with active motion.
	LabelInConversation Label = "in conversation"
	// LabelBusy indicates sustained high motion.
	LabelBusy Label = "busy"
	// LabelIdle is the default and fallback state.
	LabelIdle Label = "idle"
)

// Labels is the canonical ordered label set. Model outputs are probability
// distributions indexed by position in this slice, so the order is part of
// the contract between training, inference, and persistence and must not
// change between releases.
var Labels = []Label{
	LabelAsleep,
	LabelAtTable,
	LabelReading,
	LabelOnPhone,
	LabelInConversation,
	LabelBusy,
	LabelIdle,
}

// LabelAt maps a model output index onto the label set. The boolean is false
// when the index falls outside the valid range.
func LabelAt(i int) (Label, bool) {
	if i < 0 || i >= len(Labels) {
		return "", false
	}
	return Labels[i], true
}

// Index returns the position of l in the canonical label order, or -1 when l
// is not a known label.
func Index(l Label) int {
	for i, known := range Labels {
		if known == l {
			return i
		}
	}
	return -1
}

// Valid reports whether l is one of the seven known labels.
func Valid(l Label) bool {
	return Index(l) >= 0
}
