package contact

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/physics"
	"github.com/opd-ai/go-softrigid/pkg/rigid"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
	"github.com/opd-ai/go-softrigid/pkg/validation"
)

const (
	// MassEpsilon is the combined inverse mass below which a contact is
	// treated as immovable on both sides
	MassEpsilon = 1e-12
	// SlipEpsilon is the tangential speed below which there is no slip
	SlipEpsilon = 1e-12
)

// RigidContact is the part of a contact record shared by every deformable
// side: the rigid object, the geometry and the friction coefficient.
// Records are produced by collision detection and must not change while
// constraints reference them.
type RigidContact struct {
	Object rigid.Object

	// Normal is unit length and points from the rigid side to the deformable side
	Normal mgl64.Vec3
	Point  mgl64.Vec3
	// RelPos is the lever arm of Point about the object's position
	RelPos   mgl64.Vec3
	Friction float64
}

func newRigidContact(obj rigid.Object, normal, point mgl64.Vec3, friction float64) RigidContact {
	rc := RigidContact{
		Object:   obj,
		Normal:   normal,
		Point:    point,
		Friction: friction,
	}
	if obj != nil {
		rc.RelPos = point.Sub(obj.Position())
	}
	return rc
}

func (rc *RigidContact) validate() error {
	if rc.Object == nil {
		return fmt.Errorf("%w: nil rigid object", ErrInvalidContact)
	}
	if err := validation.ValidateUnitNormal(rc.Normal); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContact, err)
	}
	if err := validation.ValidateFriction(rc.Friction); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContact, err)
	}
	return nil
}

// objectInvMass is the rigid side's inverse effective mass along unit d at
// the contact: m⁻¹ + (r×d)·I⁻¹(r×d)
func (rc *RigidContact) objectInvMass(d mgl64.Vec3) float64 {
	rd := rc.RelPos.Cross(d)
	return rc.Object.InverseMass() + rd.Dot(rc.Object.InverseInertiaWorld().Mul3x1(rd))
}

// objectResponse is the velocity change at the contact point caused by an
// impulse p applied to the rigid side
func (rc *RigidContact) objectResponse(p mgl64.Vec3) mgl64.Vec3 {
	angular := rc.Object.InverseInertiaWorld().Mul3x1(rc.RelPos.Cross(p))
	return p.Mul(rc.Object.InverseMass()).Add(angular.Cross(rc.RelPos))
}

// deformable is the B side of a rigid contact: a single node or a point
// interpolated across a face
type deformable interface {
	velocity() mgl64.Vec3
	invMass() float64
	// apply adds the velocity change caused by impulse to the touched nodes
	apply(impulse mgl64.Vec3)
	// deltaV is the share of a total impulse received by node n
	deltaV(n *softbody.Node, impulse mgl64.Vec3) mgl64.Vec3
	nodes() []*softbody.Node
}

// rigidContactConstraint resolves a contact between a rigid object (side A)
// and a deformable point (side B). It keeps running impulse totals so the
// friction cone can be enforced on what has been applied over all the
// solver iterations of the current step. It only exists embedded in the
// node and face constraints, whose constructors set every field.
type rigidContactConstraint struct {
	base
	contact *RigidContact
	side    deformable

	normalInvMass       float64
	totalNormalImpulse  float64
	totalTangentImpulse mgl64.Vec3
}

func newRigidContactConstraint(rc *RigidContact, side deformable) rigidContactConstraint {
	return rigidContactConstraint{
		base:          base{normal: rc.Normal},
		contact:       rc,
		side:          side,
		normalInvMass: rc.objectInvMass(rc.Normal) + side.invMass(),
	}
}

// Contact returns the borrowed contact record
func (c *rigidContactConstraint) Contact() *RigidContact { return c.contact }

// VelocityA returns the rigid object's velocity at the contact point
func (c *rigidContactConstraint) VelocityA() mgl64.Vec3 {
	return c.contact.Object.VelocityAt(c.contact.RelPos)
}

// VelocityB returns the deformable side's current velocity at the contact point
func (c *rigidContactConstraint) VelocityB() mgl64.Vec3 {
	return c.side.velocity()
}

// DeltaV returns the velocity change imposed on n by this constraint
func (c *rigidContactConstraint) DeltaV(n *softbody.Node) mgl64.Vec3 {
	return c.side.deltaV(n, c.TotalImpulse())
}

// Participants returns the movable state this constraint writes
func (c *rigidContactConstraint) Participants() Participants {
	p := Participants{Nodes: c.side.nodes()}
	if !c.contact.Object.IsStatic() {
		p.Object = c.contact.Object
	}
	return p
}

// TotalNormalImpulse is the scalar normal impulse accumulated this step
func (c *rigidContactConstraint) TotalNormalImpulse() float64 { return c.totalNormalImpulse }

// TotalTangentImpulse is the friction impulse accumulated this step
func (c *rigidContactConstraint) TotalTangentImpulse() mgl64.Vec3 { return c.totalTangentImpulse }

// TotalImpulse is the full impulse applied to side B this step
func (c *rigidContactConstraint) TotalImpulse() mgl64.Vec3 {
	return c.normal.Mul(c.totalNormalImpulse).Add(c.totalTangentImpulse)
}

// TotalNormalDv is the accumulated normal velocity change of side B
func (c *rigidContactConstraint) TotalNormalDv() mgl64.Vec3 {
	return c.normal.Mul(c.totalNormalImpulse * c.side.invMass())
}

// TotalTangentDv is the accumulated tangential velocity change of side B
func (c *rigidContactConstraint) TotalTangentDv() mgl64.Vec3 {
	return c.totalTangentImpulse.Mul(c.side.invMass())
}

// Reset clears the accumulators and friction flag for a new step
func (c *rigidContactConstraint) Reset() {
	c.static = false
	c.totalNormalImpulse = 0
	c.totalTangentImpulse = mgl64.Vec3{}
}

// relativeVelocity is the velocity of B relative to A at the contact
func (c *rigidContactConstraint) relativeVelocity() mgl64.Vec3 {
	return c.VelocityB().Sub(c.VelocityA())
}

// response is the change of relative velocity caused by impulse p on B
// and -p on A
func (c *rigidContactConstraint) response(p mgl64.Vec3) mgl64.Vec3 {
	return p.Mul(c.side.invMass()).Add(c.contact.objectResponse(p))
}

// Solve applies one inelastic impulse with Coulomb friction.
//
// The normal impulse cancels the approach speed. The tangential impulse
// that would cancel the remaining slip is accepted when the accumulated
// friction impulse stays inside the cone of radius μ·Σλn (stick);
// otherwise the accumulated friction impulse is clamped to the cone
// surface (slip). B receives +P and A receives -P.
func (c *rigidContactConstraint) Solve() float64 {
	if c.normalInvMass <= MassEpsilon {
		return 0
	}

	n := c.normal
	vr := c.relativeVelocity()
	vn := vr.Dot(n)
	if vn >= 0 {
		return 0
	}

	lambda := -vn / c.normalInvMass
	c.totalNormalImpulse += lambda
	impulse := n.Mul(lambda)

	// slip left once the normal impulse is in effect
	vt := physics.Tangential(vr.Add(c.response(impulse)), n)
	impulse = impulse.Add(c.frictionImpulse(vt))

	c.side.apply(impulse)
	c.contact.Object.ApplyImpulse(impulse.Mul(-1), c.contact.RelPos)

	post := c.relativeVelocity().Dot(n)
	if post >= 0 {
		return 0
	}
	return post * post
}

// frictionImpulse updates the accumulated tangent impulse against slip vt
// and returns the increment to apply
func (c *rigidContactConstraint) frictionImpulse(vt mgl64.Vec3) mgl64.Vec3 {
	slip := vt.Len()
	if slip < SlipEpsilon {
		c.static = true
		return mgl64.Vec3{}
	}

	dir := vt.Mul(1 / slip)
	k := c.contact.objectInvMass(dir) + c.side.invMass()
	if k <= MassEpsilon {
		c.static = false
		return mgl64.Vec3{}
	}

	old := c.totalTangentImpulse
	candidate := old.Sub(dir.Mul(slip / k))
	limit := c.contact.Friction * c.totalNormalImpulse
	if candidate.Len() <= limit {
		c.static = true
	} else {
		c.static = false
		candidate = physics.ClampLength(candidate, limit)
	}

	c.totalTangentImpulse = candidate
	return candidate.Sub(old)
}
