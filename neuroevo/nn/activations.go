package nn

import "math"

// ActivationType defines the type for element-wise activation functions.
type ActivationType func(x float64) float64

// Sigmoid is the logistic function 1 / (1 + e^-x).
// It has no slope factor; every layer of a Network applies it unscaled.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
