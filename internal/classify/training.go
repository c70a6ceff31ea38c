package classify

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/activity.report/internal/activity"
)

// TrainingData holds labeled (frame, audio, label) triples. All three slices
// must be present and the same length.
type TrainingData struct {
	Frames [][]float32
	Audio  [][]float64
	Labels []activity.Label
}

// TrainingOptions configure one offline training run.
type TrainingOptions struct {
	Epochs          int     // default 10
	BatchSize       int     // default 32
	ValidationSplit float64 // fraction held out for validation, default 0.2
	LearningRate    float64 // default 0.01
	Seed            int64   // shuffle seed, default 1
}

func (o TrainingOptions) withDefaults() TrainingOptions {
	if o.Epochs <= 0 {
		o.Epochs = 10
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	if o.ValidationSplit <= 0 || o.ValidationSplit >= 1 {
		o.ValidationSplit = 0.2
	}
	if o.LearningRate <= 0 {
		o.LearningRate = 0.01
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
	return o
}

// History reports per-epoch loss and accuracy curves for the training and
// validation splits.
type History struct {
	Loss        []float64 `json:"loss"`
	Accuracy    []float64 `json:"accuracy"`
	ValLoss     []float64 `json:"val_loss"`
	ValAccuracy []float64 `json:"val_accuracy"`
}

// Fit trains the model with mini-batch gradient descent. It fails
// immediately, before touching the model, when any input array is missing,
// the lengths disagree, or a label is unknown.
func (m *SoftmaxModel) Fit(data TrainingData, opts TrainingOptions) (*History, error) {
	if data.Frames == nil || data.Audio == nil || data.Labels == nil {
		return nil, fmt.Errorf("incomplete training data: frames, audio, and labels are all required")
	}
	if len(data.Frames) != len(data.Audio) || len(data.Frames) != len(data.Labels) {
		return nil, fmt.Errorf("training data length mismatch: %d frames, %d audio buffers, %d labels",
			len(data.Frames), len(data.Audio), len(data.Labels))
	}
	if len(data.Frames) == 0 {
		return nil, fmt.Errorf("empty training data")
	}

	opts = opts.withDefaults()

	// Vectorize up front so malformed samples fail the run before any
	// parameter update.
	xs := make([][]float64, len(data.Frames))
	ys := make([]int, len(data.Frames))
	for i := range data.Frames {
		x, err := m.vectorize(data.Frames[i], data.Audio[i])
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		idx := activity.Index(data.Labels[i])
		if idx < 0 {
			return nil, fmt.Errorf("sample %d: unknown label %q", i, data.Labels[i])
		}
		xs[i] = x
		ys[i] = idx
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	order := rng.Perm(len(xs))

	valCount := int(float64(len(xs)) * opts.ValidationSplit)
	trainIdx := order[:len(order)-valCount]
	valIdx := order[len(order)-valCount:]

	history := &History{}
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		var losses []float64
		correct := 0

		for start := 0; start < len(trainIdx); start += opts.BatchSize {
			end := start + opts.BatchSize
			if end > len(trainIdx) {
				end = len(trainIdx)
			}
			for _, i := range trainIdx[start:end] {
				loss, hit := m.step(xs[i], ys[i], opts.LearningRate)
				losses = append(losses, loss)
				if hit {
					correct++
				}
			}
		}

		history.Loss = append(history.Loss, stat.Mean(losses, nil))
		history.Accuracy = append(history.Accuracy, float64(correct)/float64(len(trainIdx)))

		valLoss, valAcc := m.evaluate(xs, ys, valIdx)
		history.ValLoss = append(history.ValLoss, valLoss)
		history.ValAccuracy = append(history.ValAccuracy, valAcc)
	}

	return history, nil
}

// step applies one SGD update and returns the sample's cross-entropy loss
// and whether the pre-update prediction was correct.
func (m *SoftmaxModel) step(x []float64, y int, lr float64) (float64, bool) {
	probs := m.forward(x)

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	// Softmax cross-entropy gradient: dlogits = p - onehot(y).
	for class := range probs {
		grad := probs[class]
		if class == y {
			grad -= 1
		}
		row := m.weights.RawRowView(class)
		for j, xj := range x {
			row[j] -= lr * grad * xj
		}
		m.bias[class] -= lr * grad
	}

	return crossEntropy(probs, y), best == y
}

// evaluate computes mean loss and accuracy on the given index set. An empty
// validation split reports zeros.
func (m *SoftmaxModel) evaluate(xs [][]float64, ys []int, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var losses []float64
	correct := 0
	for _, i := range idx {
		probs := m.forward(xs[i])
		losses = append(losses, crossEntropy(probs, ys[i]))

		best := 0
		for c, p := range probs {
			if p > probs[best] {
				best = c
			}
		}
		if best == ys[i] {
			correct++
		}
	}
	return stat.Mean(losses, nil), float64(correct) / float64(len(idx))
}

func (m *SoftmaxModel) forward(x []float64) []float64 {
	n := len(activity.Labels)
	logits := make([]float64, n)
	for class := 0; class < n; class++ {
		row := m.weights.RawRowView(class)
		sum := m.bias[class]
		for j, xj := range x {
			sum += row[j] * xj
		}
		logits[class] = sum
	}
	return softmax(logits)
}

func crossEntropy(probs []float64, y int) float64 {
	const eps = 1e-12
	return -math.Log(probs[y] + eps)
}
