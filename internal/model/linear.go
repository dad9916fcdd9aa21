package model

import (
	"errors"
	"fmt"
)

// LinearRegression predicts bias + w·x.
type LinearRegression struct {
	weights []float64
	bias    float64
}

func NewLinearRegression(weights []float64, bias float64) (*LinearRegression, error) {
	if len(weights) == 0 {
		return nil, errors.New("linear regression needs at least one weight")
	}
	w := make([]float64, len(weights))
	copy(w, weights)
	return &LinearRegression{weights: w, bias: bias}, nil
}

func (m *LinearRegression) Predict(features []float64) (float64, error) {
	if len(features) != len(m.weights) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrVectorLength, len(features), len(m.weights))
	}
	sum := m.bias
	for j, v := range features {
		sum += m.weights[j] * v
	}
	return sum, nil
}

func (m *LinearRegression) NumFeatures() int {
	return len(m.weights)
}

// Bias returns the intercept.
func (m *LinearRegression) Bias() float64 {
	return m.bias
}
