// pkg/physics/vector.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length below which a vector is treated as zero
const Epsilon = 1e-12

// Zero is the zero vector
var Zero = mgl64.Vec3{}

// NearZero reports whether the vector is shorter than Epsilon
func NearZero(v mgl64.Vec3) bool {
	return v.LenSqr() < Epsilon*Epsilon
}

// SafeNormalize returns a unit vector in the same direction, or the zero
// vector when v is too short to have a direction
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if length < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / length)
}

// Normal returns the component of v along the unit vector n
func Normal(v, n mgl64.Vec3) mgl64.Vec3 {
	return n.Mul(v.Dot(n))
}

// Tangential returns the component of v orthogonal to the unit vector n
func Tangential(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(Normal(v, n))
}

// ClampLength scales v down so its length does not exceed max.
// A negative max is treated as zero.
func ClampLength(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max <= 0 {
		return mgl64.Vec3{}
	}
	length := v.Len()
	if length <= max {
		return v
	}
	return v.Mul(max / length)
}

// IsUnit reports whether v has unit length within tol
func IsUnit(v mgl64.Vec3, tol float64) bool {
	return math.Abs(v.Len()-1) <= tol
}

// IsFinite reports whether every component is neither NaN nor infinite
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Lerp3 returns the barycentric combination w[0]*a + w[1]*b + w[2]*c
func Lerp3(a, b, c mgl64.Vec3, w [3]float64) mgl64.Vec3 {
	return a.Mul(w[0]).Add(b.Mul(w[1])).Add(c.Mul(w[2]))
}
