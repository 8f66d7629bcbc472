package contact

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/rigid"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
)

// NodeRigidContact is a contact record whose deformable side is one node
type NodeRigidContact struct {
	RigidContact
	Node *softbody.Node
}

// NewNodeRigidContact builds a record for node touching obj at point.
// The lever arm is taken from the object's current position.
func NewNodeRigidContact(obj rigid.Object, node *softbody.Node, normal, point mgl64.Vec3, friction float64) (*NodeRigidContact, error) {
	c := &NodeRigidContact{
		RigidContact: newRigidContact(obj, normal, point, friction),
		Node:         node,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *NodeRigidContact) validate() error {
	if c.Node == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidContact)
	}
	return c.RigidContact.validate()
}

// nodePoint reads and writes a single node directly
type nodePoint struct {
	node *softbody.Node
}

func (p nodePoint) velocity() mgl64.Vec3 { return p.node.CurrentVelocity() }

func (p nodePoint) invMass() float64 { return p.node.InvMass }

func (p nodePoint) apply(impulse mgl64.Vec3) {
	p.node.AddDeltaV(impulse.Mul(p.node.InvMass))
}

func (p nodePoint) deltaV(n *softbody.Node, impulse mgl64.Vec3) mgl64.Vec3 {
	if n != p.node {
		return mgl64.Vec3{}
	}
	return impulse.Mul(n.InvMass)
}

func (p nodePoint) nodes() []*softbody.Node { return []*softbody.Node{p.node} }

// NodeRigidContactConstraint is a rigid contact whose deformable side is a
// single mesh node. The solve is shared with FaceRigidContactConstraint.
type NodeRigidContactConstraint struct {
	rigidContactConstraint
	record *NodeRigidContact
}

var _ Constraint = (*NodeRigidContactConstraint)(nil)

// NewNodeRigidContactConstraint creates a constraint for the record c with
// zeroed accumulators
func NewNodeRigidContactConstraint(c *NodeRigidContact) (*NodeRigidContactConstraint, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidContact)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &NodeRigidContactConstraint{
		rigidContactConstraint: newRigidContactConstraint(&c.RigidContact, nodePoint{node: c.Node}),
		record:                 c,
	}, nil
}

// Node returns the constrained node
func (c *NodeRigidContactConstraint) Node() *softbody.Node { return c.record.Node }

// NodeContact returns the borrowed node contact record
func (c *NodeRigidContactConstraint) NodeContact() *NodeRigidContact { return c.record }
