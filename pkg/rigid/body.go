// Package rigid provides the rigid side of a soft-rigid contact. Constraints
// only need velocity read/write access at a contact point, expressed by the
// Object interface; Body is a single rigid body implementing it.
package rigid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Object is the rigid or multi-body side of a contact.
// The lever arm r is the contact point relative to Position().
type Object interface {
	// VelocityAt returns the velocity of the material point at lever arm r
	VelocityAt(r mgl64.Vec3) mgl64.Vec3
	// ApplyImpulse changes linear and angular velocity by an impulse at r
	ApplyImpulse(impulse, r mgl64.Vec3)
	InverseMass() float64
	// InverseInertiaWorld is the inverse inertia tensor in world frame
	InverseInertiaWorld() mgl64.Mat3
	Position() mgl64.Vec3
	// IsStatic reports whether impulses leave the object unchanged
	IsStatic() bool
}

// AngularMotionMax limits the rotation taken in a single integration step
const AngularMotionMax = math.Pi / 4

// Body is a rigid body with a diagonal local inertia tensor
type Body struct {
	Name string

	Pos         mgl64.Vec3
	Orientation mgl64.Quat
	LinVel      mgl64.Vec3
	AngVel      mgl64.Vec3

	invMass         float64
	invInertiaLocal mgl64.Mat3
}

var _ Object = (*Body)(nil)

// NewBody creates a dynamic body. principalInertia holds the diagonal of the
// local inertia tensor; zero entries lock rotation about that axis.
// A non-positive mass makes the body static.
func NewBody(name string, pos mgl64.Vec3, mass float64, principalInertia mgl64.Vec3) *Body {
	b := &Body{
		Name:        name,
		Pos:         pos,
		Orientation: mgl64.QuatIdent(),
	}
	if mass <= 0 {
		return b
	}
	b.invMass = 1 / mass
	var inv mgl64.Vec3
	for i, v := range principalInertia {
		if v > 0 {
			inv[i] = 1 / v
		}
	}
	b.invInertiaLocal = mgl64.Diag3(inv)
	return b
}

// NewStaticBody creates an immovable body
func NewStaticBody(name string, pos mgl64.Vec3) *Body {
	return NewBody(name, pos, 0, mgl64.Vec3{})
}

// NewSphereBody creates a solid sphere of the given mass and radius
func NewSphereBody(name string, pos mgl64.Vec3, mass, radius float64) *Body {
	i := 0.4 * mass * radius * radius
	return NewBody(name, pos, mass, mgl64.Vec3{i, i, i})
}

// NewBoxBody creates a solid box with the given half extents
func NewBoxBody(name string, pos mgl64.Vec3, mass float64, half mgl64.Vec3) *Body {
	x, y, z := 2*half.X(), 2*half.Y(), 2*half.Z()
	k := mass / 12
	return NewBody(name, pos, mass, mgl64.Vec3{k * (y*y + z*z), k * (x*x + z*z), k * (x*x + y*y)})
}

func (b *Body) Position() mgl64.Vec3 { return b.Pos }

func (b *Body) InverseMass() float64 { return b.invMass }

func (b *Body) IsStatic() bool {
	return b.invMass == 0 && b.invInertiaLocal == mgl64.Mat3{}
}

// InverseInertiaWorld rotates the local inverse inertia into world frame
func (b *Body) InverseInertiaWorld() mgl64.Mat3 {
	rot := b.Orientation.Mat4().Mat3()
	return rot.Mul3(b.invInertiaLocal).Mul3(rot.Transpose())
}

// VelocityAt returns v + ω × r
func (b *Body) VelocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return b.LinVel.Add(b.AngVel.Cross(r))
}

// ApplyImpulse applies impulse at lever arm r
func (b *Body) ApplyImpulse(impulse, r mgl64.Vec3) {
	if b.IsStatic() {
		return
	}
	b.LinVel = b.LinVel.Add(impulse.Mul(b.invMass))
	b.AngVel = b.AngVel.Add(b.InverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

// Integrate adds gravity to a dynamic body and advances its pose by dt
func (b *Body) Integrate(dt float64, gravity mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.LinVel = b.LinVel.Add(gravity.Mul(dt))
	b.Pos = b.Pos.Add(b.LinVel.Mul(dt))
	b.stepOrientation(dt)
}

// stepOrientation rotates by the angular velocity, limiting the motion per step
func (b *Body) stepOrientation(dt float64) {
	ang := b.AngVel.Len()
	if ang < 1e-12 {
		return
	}
	if ang*dt > AngularMotionMax {
		ang = AngularMotionMax / dt
	}
	dq := mgl64.QuatRotate(ang*dt, b.AngVel.Mul(1/b.AngVel.Len()))
	b.Orientation = dq.Mul(b.Orientation).Normalize()
}
