package softbody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of a deformable surface, referencing nodes by index
type Face [3]int

// Body is a deformable body: a set of nodes and optional surface faces.
// Faces let colliders that fall between nodes still be caught.
// Internal forces are not simulated here.
type Body struct {
	Name  string
	Nodes []*Node
	Faces []Face
}

// NewBody creates an empty deformable body
func NewBody(name string) *Body {
	return &Body{Name: name}
}

// AddNode appends a node and returns its index
func (b *Body) AddNode(n *Node) int {
	b.Nodes = append(b.Nodes, n)
	return len(b.Nodes) - 1
}

// AddFace appends a triangle referencing existing nodes
func (b *Body) AddFace(i, j, k int) error {
	for _, idx := range []int{i, j, k} {
		if idx < 0 || idx >= len(b.Nodes) {
			return fmt.Errorf("face index %d out of range [0,%d)", idx, len(b.Nodes))
		}
	}
	if i == j || j == k || i == k {
		return fmt.Errorf("degenerate face (%d,%d,%d)", i, j, k)
	}
	b.Faces = append(b.Faces, Face{i, j, k})
	return nil
}

// FaceNodes resolves the nodes of face f
func (b *Body) FaceNodes(f Face) [3]*Node {
	return [3]*Node{b.Nodes[f[0]], b.Nodes[f[1]], b.Nodes[f[2]]}
}

// ApplyDeltaV folds every node's accumulated Dv into its velocity and clears
// the accumulator. Pinned nodes keep their velocity.
func (b *Body) ApplyDeltaV() {
	for _, n := range b.Nodes {
		if !n.Pinned() {
			n.Velocity = n.Velocity.Add(n.Dv)
		}
		n.Dv = mgl64.Vec3{}
	}
}

// AddGravity adds the gravity velocity increment for dt to unpinned nodes
func (b *Body) AddGravity(dt float64, gravity mgl64.Vec3) {
	for _, n := range b.Nodes {
		if !n.Pinned() {
			n.Velocity = n.Velocity.Add(gravity.Mul(dt))
		}
	}
}

// Advect moves unpinned nodes along their velocity for dt
func (b *Body) Advect(dt float64) {
	for _, n := range b.Nodes {
		if !n.Pinned() {
			n.Position = n.Position.Add(n.Velocity.Mul(dt))
		}
	}
}

// NewClothGrid builds a rows x cols grid of nodes in the XZ plane starting at
// origin, triangulated into faces. Each node gets nodeMass.
func NewClothGrid(name string, origin mgl64.Vec3, rows, cols int, spacing, nodeMass float64) (*Body, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("cloth grid needs at least 2x2 nodes, got %dx%d", rows, cols)
	}
	if spacing <= 0 {
		return nil, fmt.Errorf("cloth spacing must be positive, got %v", spacing)
	}

	b := NewBody(name)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pos := origin.Add(mgl64.Vec3{float64(c) * spacing, 0, float64(r) * spacing})
			b.AddNode(NewNode(pos, nodeMass))
		}
	}
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			i := r*cols + c
			if err := b.AddFace(i, i+1, i+cols); err != nil {
				return nil, err
			}
			if err := b.AddFace(i+1, i+cols+1, i+cols); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
