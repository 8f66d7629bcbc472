package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/physics"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
)

func TestNewTerminalRenderer_CreatesBlankBuffer(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		scale  float64
	}{
		{"small renderer", 10, 5, 1.0},
		{"medium renderer", 80, 24, 0.05},
		{"single cell", 1, 1, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTerminalRenderer(tt.width, tt.height, tt.scale)

			if len(r.buffer) != tt.height {
				t.Fatalf("expected buffer height %d, got %d", tt.height, len(r.buffer))
			}
			for y, row := range r.buffer {
				if len(row) != tt.width {
					t.Fatalf("row %d: expected width %d, got %d", y, tt.width, len(row))
				}
				for x, c := range row {
					if c != SymbolEmpty {
						t.Errorf("cell (%d,%d) = %q, want blank", x, y, c)
					}
				}
			}
		})
	}
}

func TestTerminalRenderer_WorldToScreen(t *testing.T) {
	r := NewTerminalRenderer(10, 5, 1.0)

	tests := []struct {
		name  string
		pos   mgl64.Vec3
		wantX int
		wantY int
	}{
		{"origin", mgl64.Vec3{0, 0, 0}, 5, 2},
		{"up is toward the top row", mgl64.Vec3{0, 1.2, 0}, 5, 1},
		{"down is toward the bottom row", mgl64.Vec3{0, -1.2, 0}, 5, 3},
		{"negative x", mgl64.Vec3{-4.5, 0, 0}, 0, 2},
		{"z is flattened", mgl64.Vec3{1, 0, 7}, 6, 2},
		{"off the top", mgl64.Vec3{0, 3, 0}, 5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := r.worldToScreen(tt.pos)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("worldToScreen(%v) = (%d,%d), want (%d,%d)", tt.pos, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestTerminalRenderer_SetCenter(t *testing.T) {
	r := NewTerminalRenderer(10, 5, 1.0)
	r.SetCenter(10, 10)

	x, y := r.worldToScreen(mgl64.Vec3{10, 10, 0})
	if x != 5 || y != 2 {
		t.Errorf("center maps to (%d,%d), want (5,2)", x, y)
	}
}

func TestTerminalRenderer_RenderShape(t *testing.T) {
	t.Run("plane fills rows below the surface", func(t *testing.T) {
		r := NewTerminalRenderer(10, 5, 1.0)
		r.RenderShape(physics.NewPlane(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{}), '=')

		for y, row := range r.buffer {
			want := strings.Repeat(" ", 10)
			if y >= 2 {
				want = strings.Repeat("=", 10)
			}
			if string(row) != want {
				t.Errorf("row %d = %q, want %q", y, string(row), want)
			}
		}
	})

	t.Run("sphere cross section", func(t *testing.T) {
		r := NewTerminalRenderer(4, 4, 1.0)
		r.RenderShape(physics.Sphere{Radius: 1}, '#')

		want := []string{"    ", " ## ", " ## ", "    "}
		for y, row := range r.buffer {
			if string(row) != want[y] {
				t.Errorf("row %d = %q, want %q", y, string(row), want[y])
			}
		}
	})
}

func TestTerminalRenderer_RenderSoftBody(t *testing.T) {
	b := softbody.NewBody("cloth")
	b.AddNode(softbody.NewNode(mgl64.Vec3{0, 1.2, 0}, 1))
	b.AddNode(softbody.NewNode(mgl64.Vec3{-2, 0, 0}, 0))
	b.AddNode(softbody.NewNode(mgl64.Vec3{100, 0, 0}, 1))

	r := NewTerminalRenderer(10, 5, 1.0)
	r.RenderShape(physics.NewPlane(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{}), '=')
	r.RenderSoftBody(b)

	if got := r.buffer[1][5]; got != SymbolNode {
		t.Errorf("free node cell = %q, want %q", got, SymbolNode)
	}
	if got := r.buffer[2][3]; got != SymbolPinned {
		t.Errorf("pinned node cell = %q, want %q", got, SymbolPinned)
	}

	count := 0
	for _, row := range r.buffer {
		count += strings.Count(string(row), string(SymbolNode)) + strings.Count(string(row), string(SymbolPinned))
	}
	if count != 2 {
		t.Errorf("expected 2 visible nodes, got %d", count)
	}
}

func TestTerminalRenderer_Present(t *testing.T) {
	r := NewTerminalRenderer(3, 2, 1.0)
	r.buffer[0][1] = SymbolNode

	var buf bytes.Buffer
	if err := r.Present(&buf); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	want := "+---+\n| * |\n|   |\n+---+\n"
	if buf.String() != want {
		t.Errorf("Present wrote %q, want %q", buf.String(), want)
	}

	r.Clear()
	if strings.Contains(r.String(), "*") {
		t.Error("Clear left a node in the buffer")
	}
}
