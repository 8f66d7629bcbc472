// pkg/physics/collision_test.go
package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPlane_Probe(t *testing.T) {
	ground := NewPlane(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 1, 0})

	tests := []struct {
		name     string
		point    mgl64.Vec3
		margin   float64
		hit      bool
		distance float64
	}{
		{"far_above", mgl64.Vec3{0, 5, 0}, 0.1, false, 0},
		{"within_margin", mgl64.Vec3{2, 1.05, -3}, 0.1, true, 0.05},
		{"on_surface", mgl64.Vec3{0, 1, 0}, 0, true, 0},
		{"below", mgl64.Vec3{4, 0.5, 4}, 0.1, true, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe, hit := ground.Probe(tt.point, tt.margin)
			if hit != tt.hit {
				t.Fatalf("Probe() hit = %v, expected %v", hit, tt.hit)
			}
			if !hit {
				return
			}
			if math.Abs(probe.Distance-tt.distance) > 1e-12 {
				t.Errorf("Distance = %v, expected %v", probe.Distance, tt.distance)
			}
			if !probe.Normal.ApproxEqual(mgl64.Vec3{0, 1, 0}) {
				t.Errorf("Normal = %v, expected (0,1,0)", probe.Normal)
			}
			if math.Abs(probe.Point.Y()-1) > 1e-12 {
				t.Errorf("contact point %v not on plane", probe.Point)
			}
		})
	}
}

func TestSphere_Probe(t *testing.T) {
	ball := Sphere{Center: mgl64.Vec3{0, 0, 0}, Radius: 1}

	t.Run("outside", func(t *testing.T) {
		if _, hit := ball.Probe(mgl64.Vec3{0, 3, 0}, 0.1); hit {
			t.Error("Probe() reported hit for distant point")
		}
	})

	t.Run("penetrating", func(t *testing.T) {
		probe, hit := ball.Probe(mgl64.Vec3{0.5, 0, 0}, 0.1)
		if !hit {
			t.Fatal("Probe() missed penetrating point")
		}
		if math.Abs(probe.Distance+0.5) > 1e-12 {
			t.Errorf("Distance = %v, expected -0.5", probe.Distance)
		}
		if !probe.Normal.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Normal = %v, expected (1,0,0)", probe.Normal)
		}
		if !probe.Point.ApproxEqual(mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Point = %v, expected (1,0,0)", probe.Point)
		}
	})

	t.Run("center", func(t *testing.T) {
		probe, hit := ball.Probe(mgl64.Vec3{}, 0)
		if !hit {
			t.Fatal("Probe() missed center point")
		}
		if !IsUnit(probe.Normal, 1e-12) {
			t.Errorf("Normal = %v is not unit length", probe.Normal)
		}
	})
}
