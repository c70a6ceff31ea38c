package activity

// Sample is one classified observation. Samples are created once per
// classification cycle, persisted, and never mutated afterwards; the
// timeline aggregator only ever reads them back.
type Sample struct {
	ID         int64             `json:"id,omitempty"`
	Timestamp  int64             `json:"timestamp"` // Unix seconds
	DateTime   string            `json:"date_time,omitempty"`
	Label      Label             `json:"activity"`
	Confidence float64           `json:"confidence"` // 0..1, defaults to 1.0
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewSample builds a sample with full confidence.
func NewSample(timestamp int64, label Label) Sample {
	return Sample{
		Timestamp:  timestamp,
		Label:      label,
		Confidence: 1.0,
	}
}
