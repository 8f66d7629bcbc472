package contact

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/physics"
	"github.com/opd-ai/go-softrigid/pkg/rigid"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
	"github.com/opd-ai/go-softrigid/pkg/validation"
)

// FaceRigidContact is a contact record whose deformable side is a point
// inside a triangle, located by barycentric weights
type FaceRigidContact struct {
	RigidContact
	Nodes   [3]*softbody.Node
	Weights [3]float64
}

// NewFaceRigidContact builds a record for the face point touching obj
func NewFaceRigidContact(obj rigid.Object, nodes [3]*softbody.Node, weights [3]float64, normal, point mgl64.Vec3, friction float64) (*FaceRigidContact, error) {
	c := &FaceRigidContact{
		RigidContact: newRigidContact(obj, normal, point, friction),
		Nodes:        nodes,
		Weights:      weights,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FaceRigidContact) validate() error {
	for i, n := range c.Nodes {
		if n == nil {
			return fmt.Errorf("%w: nil face node %d", ErrInvalidContact, i)
		}
	}
	if err := validation.ValidateBarycentric(c.Weights); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContact, err)
	}
	return c.RigidContact.validate()
}

// facePoint interpolates three nodes
type facePoint struct {
	corners [3]*softbody.Node
	weights [3]float64
}

func (p facePoint) velocity() mgl64.Vec3 {
	return physics.Lerp3(
		p.corners[0].CurrentVelocity(),
		p.corners[1].CurrentVelocity(),
		p.corners[2].CurrentVelocity(),
		p.weights,
	)
}

// invMass is Σ wᵢ² mᵢ⁻¹
func (p facePoint) invMass() float64 {
	sum := 0.0
	for i, n := range p.corners {
		sum += p.weights[i] * p.weights[i] * n.InvMass
	}
	return sum
}

func (p facePoint) apply(impulse mgl64.Vec3) {
	for i, n := range p.corners {
		n.AddDeltaV(impulse.Mul(p.weights[i] * n.InvMass))
	}
}

func (p facePoint) deltaV(n *softbody.Node, impulse mgl64.Vec3) mgl64.Vec3 {
	var dv mgl64.Vec3
	for i, fn := range p.corners {
		if fn == n {
			dv = dv.Add(impulse.Mul(p.weights[i] * n.InvMass))
		}
	}
	return dv
}

func (p facePoint) nodes() []*softbody.Node { return p.corners[:] }

// FaceRigidContactConstraint is a rigid contact whose deformable side is
// interpolated across a triangle
type FaceRigidContactConstraint struct {
	rigidContactConstraint
	record *FaceRigidContact
}

var _ Constraint = (*FaceRigidContactConstraint)(nil)

// NewFaceRigidContactConstraint creates a constraint for the record c
func NewFaceRigidContactConstraint(c *FaceRigidContact) (*FaceRigidContactConstraint, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidContact)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	side := facePoint{corners: c.Nodes, weights: c.Weights}
	return &FaceRigidContactConstraint{
		rigidContactConstraint: newRigidContactConstraint(&c.RigidContact, side),
		record:                 c,
	}, nil
}

// FaceContact returns the borrowed face contact record
func (c *FaceRigidContactConstraint) FaceContact() *FaceRigidContact { return c.record }
