// pkg/engine/collider.go
package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/physics"
	"github.com/opd-ai/go-softrigid/pkg/rigid"
)

// Collider is a rigid body together with the surface deformable nodes touch
type Collider interface {
	Body() *rigid.Body
	// Shape returns the surface at the body's current pose
	Shape() physics.Shape
	Friction() float64
}

// SphereCollider is a ball following its body's position
type SphereCollider struct {
	body     *rigid.Body
	Radius   float64
	friction float64
}

// NewSphereCollider creates a ball of the given mass. A non-positive mass
// makes it static.
func NewSphereCollider(name string, center mgl64.Vec3, radius, mass, friction float64) *SphereCollider {
	body := rigid.NewStaticBody(name, center)
	if mass > 0 {
		body = rigid.NewSphereBody(name, center, mass, radius)
	}
	return &SphereCollider{body: body, Radius: radius, friction: friction}
}

func (c *SphereCollider) Body() *rigid.Body { return c.body }

func (c *SphereCollider) Shape() physics.Shape {
	return physics.Sphere{Center: c.body.Pos, Radius: c.Radius}
}

func (c *SphereCollider) Friction() float64 { return c.friction }

// PlaneCollider is static ground
type PlaneCollider struct {
	body     *rigid.Body
	plane    physics.Plane
	friction float64
}

// NewPlaneCollider creates a static plane through point
func NewPlaneCollider(name string, normal, point mgl64.Vec3, friction float64) *PlaneCollider {
	return &PlaneCollider{
		body:     rigid.NewStaticBody(name, point),
		plane:    physics.NewPlane(normal, point),
		friction: friction,
	}
}

func (c *PlaneCollider) Body() *rigid.Body { return c.body }

func (c *PlaneCollider) Shape() physics.Shape { return c.plane }

func (c *PlaneCollider) Friction() float64 { return c.friction }
