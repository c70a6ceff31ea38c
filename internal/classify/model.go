package classify

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/activity.report/internal/activity"
	"github.com/banshee-data/activity.report/internal/audio"
	"github.com/banshee-data/activity.report/internal/monitoring"
	"github.com/banshee-data/activity.report/internal/vision"
)

// Model is the trained-classifier abstraction behind the model-based
// strategy. Predict returns a probability distribution indexed by position
// in activity.Labels.
type Model interface {
	Predict(frame []float32, features []float64) ([]float64, error)
}

// ModelClassifier selects the argmax of a trained model's probability
// distribution over the fixed label set.
type ModelClassifier struct {
	model Model
}

// NewModelClassifier creates the model-based classification strategy.
func NewModelClassifier(m Model) *ModelClassifier {
	return &ModelClassifier{model: m}
}

// Mode identifies the strategy.
func (*ModelClassifier) Mode() string { return "model" }

// Classify runs inference and maps the argmax index onto the label set.
// Inference failures and out-of-range indices are logged and resolve to
// idle; this method never propagates a failure.
func (c *ModelClassifier) Classify(video *vision.Features, sound *audio.Features) (label activity.Label) {
	label = activity.LabelIdle

	// The model is caller-supplied; absorb a panicking implementation the
	// same way an inference error is absorbed.
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("model classification panicked: %v", r)
			label = activity.LabelIdle
		}
	}()

	if video == nil || sound == nil {
		return activity.LabelIdle
	}

	probs, err := c.model.Predict(video.NormalizedFrame, audioFeatureVector(sound))
	if err != nil {
		monitoring.Logf("model classification failed: %v", err)
		return activity.LabelIdle
	}
	if len(probs) == 0 {
		monitoring.Logf("model returned an empty distribution")
		return activity.LabelIdle
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	l, ok := activity.LabelAt(best)
	if !ok {
		monitoring.Logf("model predicted out-of-range class index %d", best)
		return activity.LabelIdle
	}
	return l
}

// FrameGridCells is the per-channel pooling resolution applied to the
// normalized frame before it enters the linear model.
const FrameGridCells = 64

// SoftmaxModel is a linear softmax classifier over the pooled frame and the
// fixed-order audio feature vector. It is small enough to persist as JSON
// and fast enough to train on-device.
type SoftmaxModel struct {
	weights *mat.Dense // numLabels x inputDims
	bias    []float64
}

func modelInputDims() int {
	return 3*FrameGridCells + 6
}

// NewSoftmaxModel creates a zero-initialized model.
func NewSoftmaxModel() *SoftmaxModel {
	n := len(activity.Labels)
	return &SoftmaxModel{
		weights: mat.NewDense(n, modelInputDims(), nil),
		bias:    make([]float64, n),
	}
}

// Predict returns the softmax distribution over activity.Labels.
func (m *SoftmaxModel) Predict(frame []float32, features []float64) ([]float64, error) {
	x, err := m.vectorize(frame, features)
	if err != nil {
		return nil, err
	}
	return m.forward(x), nil
}

// vectorize pools the frame into FrameGridCells buckets per channel and
// concatenates the audio feature vector.
func (m *SoftmaxModel) vectorize(frame []float32, features []float64) ([]float64, error) {
	if len(frame) == 0 || len(frame)%3 != 0 {
		return nil, fmt.Errorf("frame must be a non-empty RGB buffer, got %d values", len(frame))
	}
	if len(features) != 6 {
		return nil, fmt.Errorf("expected 6 audio features, got %d", len(features))
	}

	x := make([]float64, modelInputDims())
	counts := make([]int, FrameGridCells)
	pixels := len(frame) / 3
	for p := 0; p < pixels; p++ {
		cell := p * FrameGridCells / pixels
		x[cell] += float64(frame[p*3])
		x[FrameGridCells+cell] += float64(frame[p*3+1])
		x[2*FrameGridCells+cell] += float64(frame[p*3+2])
		counts[cell]++
	}
	for cell, c := range counts {
		if c > 0 {
			x[cell] /= float64(c)
			x[FrameGridCells+cell] /= float64(c)
			x[2*FrameGridCells+cell] /= float64(c)
		}
	}
	copy(x[3*FrameGridCells:], features)
	return x, nil
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// modelParams is the serialized form of a SoftmaxModel. The label list is
// stored so a parameter file trained against a different label order is
// rejected at load time.
type modelParams struct {
	Labels  []activity.Label `json:"labels"`
	Weights [][]float64      `json:"weights"`
	Bias    []float64        `json:"bias"`
}

// Save persists the model parameters as JSON.
func (m *SoftmaxModel) Save(path string) error {
	n := len(activity.Labels)
	params := modelParams{
		Labels:  activity.Labels,
		Weights: make([][]float64, n),
		Bias:    m.bias,
	}
	for i := 0; i < n; i++ {
		row := make([]float64, modelInputDims())
		copy(row, m.weights.RawRowView(i))
		params.Weights[i] = row
	}

	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode model parameters: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model parameters: %w", err)
	}
	return nil
}

// LoadSoftmaxModel reads model parameters persisted by Save.
func LoadSoftmaxModel(path string) (*SoftmaxModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model parameters: %w", err)
	}

	var params modelParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to decode model parameters: %w", err)
	}

	if len(params.Labels) != len(activity.Labels) {
		return nil, fmt.Errorf("model trained on %d labels, expected %d", len(params.Labels), len(activity.Labels))
	}
	for i, l := range params.Labels {
		if l != activity.Labels[i] {
			return nil, fmt.Errorf("model label order mismatch at index %d: %q vs %q", i, l, activity.Labels[i])
		}
	}
	if len(params.Weights) != len(activity.Labels) || len(params.Bias) != len(activity.Labels) {
		return nil, fmt.Errorf("malformed model parameters: %d weight rows, %d biases", len(params.Weights), len(params.Bias))
	}

	m := NewSoftmaxModel()
	for i, row := range params.Weights {
		if len(row) != modelInputDims() {
			return nil, fmt.Errorf("weight row %d has %d values, expected %d", i, len(row), modelInputDims())
		}
		m.weights.SetRow(i, row)
	}
	copy(m.bias, params.Bias)
	return m, nil
}
