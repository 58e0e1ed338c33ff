package classifier

import "sync"

// MockClassifier is a mock implementation of SameImageClassifier for testing
type MockClassifier struct {
	Mu sync.Mutex

	Probability  float64
	PredictError error

	PredictCalled int
	LastFeatures  []float64
}

func NewMockClassifier(probability float64) *MockClassifier {
	return &MockClassifier{Probability: probability}
}

func (m *MockClassifier) PredictProbability(features []float64) (float64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.PredictCalled++
	m.LastFeatures = features
	if m.PredictError != nil {
		return 0, m.PredictError
	}
	return m.Probability, nil
}

var _ SameImageClassifier = (*MockClassifier)(nil)
