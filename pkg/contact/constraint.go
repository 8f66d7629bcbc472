// Package contact resolves contacts between deformable nodes and rigid or
// multi-body objects with velocity impulses. Each constraint corrects one
// contact per Solve call and is meant to be driven repeatedly by an outer
// Gauss-Seidel loop; constraints borrow nodes, objects and contact records
// and live for a single physics step.
package contact

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/rigid"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
)

// ErrInvalidContact is wrapped by every constructor precondition failure
var ErrInvalidContact = errors.New("invalid contact")

// Constraint is the capability shared by all contact constraint variants.
// The set of variants is closed: StaticConstraint, NodeRigidContactConstraint
// and FaceRigidContactConstraint.
type Constraint interface {
	// Static reports whether the last solve found the contact sticking.
	// It is a per-iteration classification, not a property of the contact.
	Static() bool
	Normal() mgl64.Vec3

	// VelocityA is the velocity of the rigid side at the contact point
	VelocityA() mgl64.Vec3
	// VelocityB is the velocity of the deformable side at the contact point
	VelocityB() mgl64.Vec3
	// DeltaV is the velocity change this constraint has imposed on n so far.
	// It is zero for nodes the constraint does not touch.
	DeltaV(n *softbody.Node) mgl64.Vec3

	// Solve computes and applies one impulse correction and returns the
	// squared normal approach speed remaining after it.
	Solve() float64

	// Participants lists the state Solve mutates
	Participants() Participants

	constraint()
}

// Participants are the bodies and nodes a constraint reads and writes
type Participants struct {
	Object rigid.Object
	Nodes  []*softbody.Node
}

// base carries the friction flag and normal common to all variants
type base struct {
	static bool
	normal mgl64.Vec3
}

func (b *base) Static() bool { return b.static }

func (b *base) Normal() mgl64.Vec3 { return b.normal }

func (b *base) constraint() {}

// StaticConstraint pins a node. It never couples to anything, so all of its
// velocities are zero and Solve does nothing.
type StaticConstraint struct {
	base
	node *softbody.Node
}

var _ Constraint = (*StaticConstraint)(nil)

// NewStaticConstraint creates a pin for node
func NewStaticConstraint(node *softbody.Node) *StaticConstraint {
	return &StaticConstraint{node: node}
}

// Node returns the pinned node
func (c *StaticConstraint) Node() *softbody.Node { return c.node }

func (c *StaticConstraint) VelocityA() mgl64.Vec3 { return mgl64.Vec3{} }

func (c *StaticConstraint) VelocityB() mgl64.Vec3 { return mgl64.Vec3{} }

func (c *StaticConstraint) DeltaV(*softbody.Node) mgl64.Vec3 { return mgl64.Vec3{} }

func (c *StaticConstraint) Solve() float64 { return 0 }

// Participants is empty: a pin writes no state
func (c *StaticConstraint) Participants() Participants { return Participants{} }
