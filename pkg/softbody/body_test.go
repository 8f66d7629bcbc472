package softbody

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	tests := []struct {
		name    string
		mass    float64
		invMass float64
		pinned  bool
	}{
		{"unit_mass", 1, 1, false},
		{"heavy", 4, 0.25, false},
		{"zero_mass_pins", 0, 0, true},
		{"negative_mass_pins", -2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNode(mgl64.Vec3{1, 2, 3}, tt.mass)
			assert.Equal(t, tt.invMass, n.InvMass)
			assert.Equal(t, tt.pinned, n.Pinned())
			assert.Equal(t, mgl64.Vec3{1, 2, 3}, n.Position)
		})
	}
}

func TestNode_CurrentVelocity(t *testing.T) {
	n := NewNode(mgl64.Vec3{}, 1)
	n.Velocity = mgl64.Vec3{0, -2, 0}
	n.AddDeltaV(mgl64.Vec3{0, 1, 0})
	n.AddDeltaV(mgl64.Vec3{0.5, 0, 0})

	assert.Equal(t, mgl64.Vec3{0.5, 1, 0}, n.Dv)
	assert.Equal(t, mgl64.Vec3{0.5, -1, 0}, n.CurrentVelocity())
}

func TestBody_ApplyDeltaV(t *testing.T) {
	b := NewBody("cloth")
	free := NewNode(mgl64.Vec3{}, 1)
	free.Velocity = mgl64.Vec3{0, -2, 0}
	free.Dv = mgl64.Vec3{0, 2, 0}
	pinned := NewNode(mgl64.Vec3{1, 0, 0}, 0)
	pinned.Dv = mgl64.Vec3{3, 3, 3}
	b.AddNode(free)
	b.AddNode(pinned)

	b.ApplyDeltaV()

	assert.Equal(t, mgl64.Vec3{}, free.Velocity)
	assert.Equal(t, mgl64.Vec3{}, free.Dv)
	assert.Equal(t, mgl64.Vec3{}, pinned.Velocity)
	assert.Equal(t, mgl64.Vec3{}, pinned.Dv)
}

func TestBody_GravityAndAdvect(t *testing.T) {
	b := NewBody("pair")
	free := NewNode(mgl64.Vec3{0, 1, 0}, 1)
	pinned := NewNode(mgl64.Vec3{0, 1, 0}, 0)
	b.AddNode(free)
	b.AddNode(pinned)

	b.AddGravity(0.5, mgl64.Vec3{0, -10, 0})
	b.Advect(0.5)

	assert.True(t, free.Velocity.ApproxEqual(mgl64.Vec3{0, -5, 0}))
	assert.True(t, free.Position.ApproxEqual(mgl64.Vec3{0, -1.5, 0}))
	assert.Equal(t, mgl64.Vec3{}, pinned.Velocity)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, pinned.Position)
}

func TestBody_AddFace(t *testing.T) {
	b := NewBody("tri")
	for i := 0; i < 3; i++ {
		b.AddNode(NewNode(mgl64.Vec3{float64(i), 0, 0}, 1))
	}

	require.NoError(t, b.AddFace(0, 1, 2))
	assert.Error(t, b.AddFace(0, 1, 3), "out of range index")
	assert.Error(t, b.AddFace(0, 0, 2), "repeated index")
	assert.Len(t, b.Faces, 1)

	nodes := b.FaceNodes(b.Faces[0])
	assert.Same(t, b.Nodes[2], nodes[2])
}

func TestNewClothGrid(t *testing.T) {
	b, err := NewClothGrid("cloth", mgl64.Vec3{-1, 2, -1}, 3, 4, 0.5, 0.1)
	require.NoError(t, err)

	assert.Len(t, b.Nodes, 12)
	assert.Len(t, b.Faces, 2*2*3)
	assert.True(t, b.Nodes[0].Position.ApproxEqual(mgl64.Vec3{-1, 2, -1}))
	assert.True(t, b.Nodes[11].Position.ApproxEqual(mgl64.Vec3{0.5, 2, 0}))
	assert.InDelta(t, 10.0, b.Nodes[5].InvMass, 1e-12)

	_, err = NewClothGrid("bad", mgl64.Vec3{}, 1, 4, 0.5, 1)
	assert.Error(t, err)
	_, err = NewClothGrid("bad", mgl64.Vec3{}, 2, 2, 0, 1)
	assert.Error(t, err)
}
