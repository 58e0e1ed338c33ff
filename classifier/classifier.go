package classifier

import (
	"math"

	"github.com/dmitryikh/leaves"
)

// SameImageClassifier predicts the probability that two images are the same,
// given the hash-distance feature vector of the pair.
type SameImageClassifier interface {
	PredictProbability(features []float64) (float64, error)
}

// EnsembleClassifier wraps a pre-trained gradient-boosted tree ensemble.
// The model artifact is loaded once at startup; prediction is pure.
type EnsembleClassifier struct {
	ensemble *leaves.Ensemble
}

// LoadEnsemble reads a serialized XGBoost model from disk.
func LoadEnsemble(modelPath string) (*EnsembleClassifier, error) {
	ensemble, err := leaves.XGEnsembleFromFile(modelPath, false)
	if err != nil {
		return nil, err
	}
	return &EnsembleClassifier{ensemble: ensemble}, nil
}

func (c *EnsembleClassifier) PredictProbability(features []float64) (float64, error) {
	// Binary objective: the ensemble outputs a raw margin.
	margin := c.ensemble.PredictSingle(features, 0)
	return sigmoid(margin), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
