// pkg/render/terminal.go
package render

import (
	"io"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-softrigid/pkg/physics"
	"github.com/opd-ai/go-softrigid/pkg/softbody"
)

const (
	SymbolNode   = '*'
	SymbolPinned = '+'
	SymbolEmpty  = ' '
)

// TerminalRenderer draws an ASCII side view of a scene: world X runs left to
// right, world Y bottom to top and Z is flattened.
type TerminalRenderer struct {
	width  int
	height int
	buffer [][]rune
	scale  float64 // world units per cell
	center mgl64.Vec2
}

// NewTerminalRenderer creates a renderer with the given size in cells
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	r := &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
	r.Clear()
	return r
}

// SetCenter sets the world X/Y position shown in the middle of the view
func (r *TerminalRenderer) SetCenter(x, y float64) {
	r.center = mgl64.Vec2{x, y}
}

func (r *TerminalRenderer) worldToScreen(pos mgl64.Vec3) (int, int) {
	screenX := int(math.Floor((pos.X()-r.center.X())/r.scale + float64(r.width)/2))
	screenY := int(math.Floor(float64(r.height)/2 - (pos.Y()-r.center.Y())/r.scale))
	return screenX, screenY
}

// cellCenter is the world point sampled for cell (x, y) on the Z=0 plane
func (r *TerminalRenderer) cellCenter(x, y int) mgl64.Vec3 {
	return mgl64.Vec3{
		r.center.X() + (float64(x)+0.5-float64(r.width)/2)*r.scale,
		r.center.Y() + (float64(r.height)/2-float64(y)-0.5)*r.scale,
		0,
	}
}

func (r *TerminalRenderer) inBounds(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// Clear blanks the buffer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = SymbolEmpty
		}
	}
}

// RenderShape fills every cell whose center lies inside shape's Z=0 cross
// section with symbol
func (r *TerminalRenderer) RenderShape(shape physics.Shape, symbol rune) {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			if probe, hit := shape.Probe(r.cellCenter(x, y), 0); hit && probe.Distance <= 0 {
				r.buffer[y][x] = symbol
			}
		}
	}
}

// RenderSoftBody marks each node of b. Nodes outside the view are skipped.
func (r *TerminalRenderer) RenderSoftBody(b *softbody.Body) {
	for _, n := range b.Nodes {
		x, y := r.worldToScreen(n.Position)
		if !r.inBounds(x, y) {
			continue
		}
		if n.Pinned() {
			r.buffer[y][x] = SymbolPinned
		} else {
			r.buffer[y][x] = SymbolNode
		}
	}
}

// String returns the framed buffer
func (r *TerminalRenderer) String() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", r.width) + "+\n"

	sb.WriteString(border)
	for y := range r.buffer {
		sb.WriteByte('|')
		sb.WriteString(string(r.buffer[y]))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// Present writes the framed buffer to w
func (r *TerminalRenderer) Present(w io.Writer) error {
	_, err := io.WriteString(w, r.String())
	return err
}
