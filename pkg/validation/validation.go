// Package validation checks the inputs handed to the contact solver: contact
// geometry produced by collision detection and solver tuning values.
package validation

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Limits for contact and solver inputs
const (
	// NormalTolerance is the allowed deviation of a contact normal from unit length
	NormalTolerance = 1e-6
	// WeightTolerance is the allowed deviation of barycentric weights from summing to one
	WeightTolerance = 1e-6
	MaxFriction     = 100.0
	MaxIterations   = 10000
)

// ValidateUnitNormal checks that a contact normal is finite and unit length
func ValidateUnitNormal(n mgl64.Vec3) error {
	for _, c := range n {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("normal %v has non-finite components", n)
		}
	}

	length := n.Len()
	if length == 0 {
		return fmt.Errorf("normal cannot be zero")
	}
	if math.Abs(length-1) > NormalTolerance {
		return fmt.Errorf("normal %v is not unit length: %g", n, length)
	}
	return nil
}

// ValidateFriction checks a Coulomb friction coefficient
func ValidateFriction(mu float64) error {
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return fmt.Errorf("friction coefficient must be finite: %v", mu)
	}
	if mu < 0 {
		return fmt.Errorf("friction coefficient cannot be negative: %v", mu)
	}
	if mu > MaxFriction {
		return fmt.Errorf("friction coefficient too large: %v (max %v)", mu, MaxFriction)
	}
	return nil
}

// ValidateBarycentric checks interpolation weights of a face point
func ValidateBarycentric(w [3]float64) error {
	sum := 0.0
	for i, v := range w {
		if math.IsNaN(v) || v < -WeightTolerance || v > 1+WeightTolerance {
			return fmt.Errorf("barycentric weight %d out of range: %v", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > WeightTolerance {
		return fmt.Errorf("barycentric weights must sum to 1, got %v", sum)
	}
	return nil
}

// ValidateIterations checks a solver iteration budget
func ValidateIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("iteration count must be at least 1: %d", n)
	}
	if n > MaxIterations {
		return fmt.Errorf("iteration count too large: %d (max %d)", n, MaxIterations)
	}
	return nil
}

// ValidatePositive checks that a named tuning value is finite and positive
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%s must be positive: %v", name, v)
	}
	return nil
}

// ValidateNonNegative checks that a named tuning value is finite and not negative
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s cannot be negative: %v", name, v)
	}
	return nil
}
