// pkg/physics/collision.go
package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Probe describes how a point relates to the surface of a shape
type Probe struct {
	// Normal is the unit surface normal at the closest surface point,
	// pointing out of the shape
	Normal mgl64.Vec3
	// Distance is the signed distance from the surface, negative inside
	Distance float64
	// Point is the closest point on the surface
	Point mgl64.Vec3
}

// Shape is a collision surface that deformable nodes can be tested against
type Shape interface {
	// Probe tests point against the surface. The probe is reported only
	// when the point lies within margin of the surface or inside it.
	Probe(point mgl64.Vec3, margin float64) (Probe, bool)
}

// Plane is an infinite half-space bounded by the plane n·x = Offset.
// The solid side is the one opposite to Normal.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

// NewPlane creates a plane through point with the given normal
func NewPlane(normal, point mgl64.Vec3) Plane {
	n := SafeNormalize(normal)
	return Plane{Normal: n, Offset: n.Dot(point)}
}

// Probe checks a point against the plane
func (p Plane) Probe(point mgl64.Vec3, margin float64) (Probe, bool) {
	distance := p.Normal.Dot(point) - p.Offset
	if distance > margin {
		return Probe{}, false
	}

	return Probe{
		Normal:   p.Normal,
		Distance: distance,
		Point:    point.Sub(p.Normal.Mul(distance)),
	}, true
}

// Sphere is a solid ball
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Probe checks a point against the sphere surface
func (s Sphere) Probe(point mgl64.Vec3, margin float64) (Probe, bool) {
	// Vector from the center to the point
	offset := point.Sub(s.Center)
	dist := offset.Len()

	distance := dist - s.Radius
	if distance > margin {
		return Probe{}, false
	}

	// A point at the exact center has no preferred direction
	normal := SafeNormalize(offset)
	if NearZero(normal) {
		normal = mgl64.Vec3{0, 1, 0}
	}

	return Probe{
		Normal:   normal,
		Distance: distance,
		Point:    s.Center.Add(normal.Mul(s.Radius)),
	}, true
}
