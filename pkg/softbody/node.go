// Package softbody holds the deformable side of a soft-rigid contact: mesh
// nodes carrying a scalar inverse mass and a delta-velocity accumulator that
// contact constraints write into.
package softbody

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Node is a single material point of a deformable body.
//
// Constraints only borrow nodes. They add their corrections to Dv and the
// body later folds Dv into Velocity with ApplyDeltaV.
type Node struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3

	// InvMass is zero for pinned nodes
	InvMass float64

	// Dv accumulates velocity changes imposed by constraints this step
	Dv mgl64.Vec3
}

// NewNode creates a node with the given mass. A non-positive mass pins the node.
func NewNode(position mgl64.Vec3, mass float64) *Node {
	n := &Node{Position: position}
	if mass > 0 {
		n.InvMass = 1 / mass
	}
	return n
}

// CurrentVelocity returns the velocity including corrections applied so far
func (n *Node) CurrentVelocity() mgl64.Vec3 {
	return n.Velocity.Add(n.Dv)
}

// Pinned reports whether the node is immovable
func (n *Node) Pinned() bool {
	return n.InvMass == 0
}

// AddDeltaV adds a velocity change to the accumulator
func (n *Node) AddDeltaV(dv mgl64.Vec3) {
	n.Dv = n.Dv.Add(dv)
}
