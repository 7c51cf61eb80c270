package lsf

import "math"

// Model is the external probabilistic model contract: given a feature
// vector it returns a probability distribution over the C classes,
// deterministically and stably across build and query.
type Model interface {
	Invoke(features []float32) []float32
}

// KeySource supplies the training set Build draws on: per-index feature
// bytes (hashed into the key fingerprint), a float feature vector (passed
// to the Model), and the assigned label.
type KeySource interface {
	Len() int
	FeatureBytes(i int) []byte
	Features(i int) []float32
	Label(i int) Symbol
}

// FreqModel is a class-frequency model: it ignores its input entirely
// and always returns the empirical label distribution of the training
// set it was built from, which is exactly what a learned model
// degenerates to when the features carry no signal.
type FreqModel struct {
	probs []float32
}

// NewFreqModel builds a FreqModel from observed training labels.
func NewFreqModel(labels []Symbol, classes int) *FreqModel {
	probs := make([]float32, classes)
	inc := float32(1) / float32(len(labels))
	for _, y := range labels {
		probs[y] += inc
	}
	return &FreqModel{probs: probs}
}

func (m *FreqModel) Invoke(features []float32) []float32 {
	return m.probs
}

// ModelBytes reports the model's own footprint, for a caller to fold
// into a combined total bits/key figure alongside Stats.
func (m *FreqModel) ModelBytes() int {
	return 4 * len(m.probs)
}

const sqrtTwoPi = float32(2.5066282746310002)

// GaussModel is a per-class Gaussian naive-Bayes model over a single
// scalar feature: each class gets a fitted (mean, std), and Invoke
// reports the normalized Gaussian likelihood per class.
type GaussModel struct {
	mean []float32
	std  []float32
}

// NewGaussModel fits one Gaussian per class from parallel feature/label
// slices using Welford's online variance algorithm.
func NewGaussModel(features []float32, labels []Symbol, classes int) (*GaussModel, error) {
	if len(features) != len(labels) {
		return nil, ErrDimensionMismatch
	}
	type running struct {
		n    int
		mean float64
		m2   float64
	}
	stats := make([]running, classes)
	for i, f := range features {
		s := &stats[labels[i]]
		s.n++
		delta := float64(f) - s.mean
		s.mean += delta / float64(s.n)
		delta2 := float64(f) - s.mean
		s.m2 += delta * delta2
	}
	mean := make([]float32, classes)
	std := make([]float32, classes)
	for i, s := range stats {
		mean[i] = float32(s.mean)
		var variance float64
		if s.n > 1 {
			variance = s.m2 / float64(s.n-1)
		}
		sd := float32(math.Sqrt(variance))
		if sd == 0 {
			sd = 1e-3
		}
		std[i] = sd
	}
	return &GaussModel{mean: mean, std: std}, nil
}

func (m *GaussModel) Invoke(features []float32) []float32 {
	x := features[0]
	out := make([]float32, len(m.mean))
	var sum float32
	for i := range m.mean {
		diff := x - m.mean[i]
		exponent := -0.5 * (diff * diff) / (m.std[i] * m.std[i])
		out[i] = float32(math.Exp(float64(exponent))) / (m.std[i] * sqrtTwoPi)
		sum += out[i]
	}
	if sum == 0 {
		uniform := 1 / float32(len(out))
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func (m *GaussModel) ModelBytes() int {
	return 8 * len(m.mean)
}

// BuildFromModel bridges a Model and KeySource into the hashed
// (h, p, y) triples the core Build expects, so a caller with a live
// model and dataset never has to assemble TrainingKeys by hand.
func BuildFromModel(model Model, keys KeySource, c int, kind CoderKind, policy FilterPolicy, hashSeed, seedFilter, seedCorrection uint64) (*LSF, Stats, error) {
	n := keys.Len()
	training := make([]TrainingKey, n)
	for i := 0; i < n; i++ {
		training[i] = TrainingKey{
			H: Fingerprint(hashSeed, uint64(i), keys.FeatureBytes(i)),
			P: model.Invoke(keys.Features(i)),
			Y: keys.Label(i),
		}
	}
	return Build(training, c, kind, policy, seedFilter, seedCorrection)
}
