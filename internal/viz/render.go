package viz

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/sim"
	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// Viewport maps world coordinates onto the dots of a cols x rows canvas.
// The world origin is the top-left corner with y pointing down, as on screen.
type Viewport struct {
	World      xpbd.Bounds
	Cols, Rows int
}

// NewViewport covers the scene bounds, or the default world without bounds.
func NewViewport(s *xpbd.Scene, cols, rows int) Viewport {
	world := xpbd.Bounds{Width: config.DefaultWidth, Height: config.DefaultHeight}
	if s != nil && s.Bounds != nil && s.Bounds.Width > 0 && s.Bounds.Height > 0 {
		world = *s.Bounds
	}
	return Viewport{World: world, Cols: cols, Rows: rows}
}

func (v Viewport) scale() (float64, float64) {
	return float64(v.Cols*2) / v.World.Width, float64(v.Rows*4) / v.World.Height
}

// ToCanvas returns the dot nearest to world point p.
func (v Viewport) ToCanvas(p vec.Vec2) (int, int) {
	sx, sy := v.scale()
	return int(math.Floor(p.X * sx)), int(math.Floor(p.Y * sy))
}

// CellToWorld returns the world point at the centre of a terminal cell.
func (v Viewport) CellToWorld(col, row int) vec.Vec2 {
	sx, sy := v.scale()
	return vec.New((float64(col*2)+1)/sx, (float64(row*4)+2)/sy)
}

// Radius converts a world radius to dots along x.
func (v Viewport) Radius(r float64) int {
	sx, _ := v.scale()
	return int(math.Round(r * sx))
}

// Layers is a scene drawn into one canvas per kind of element.
type Layers struct {
	Polygons  *Canvas
	Links     *Canvas
	Particles *Canvas
	Pinned    *Canvas
	Drag      *Canvas
}

func NewLayers(cols, rows int) *Layers {
	return &Layers{
		Polygons:  NewCanvas(cols, rows),
		Links:     NewCanvas(cols, rows),
		Particles: NewCanvas(cols, rows),
		Pinned:    NewCanvas(cols, rows),
		Drag:      NewCanvas(cols, rows),
	}
}

func (l *Layers) all() []*Canvas {
	return []*Canvas{l.Polygons, l.Links, l.Particles, l.Pinned, l.Drag}
}

func (l *Layers) Clear() {
	for _, c := range l.all() {
		c.Clear()
	}
}

// Draw renders s into the layers.
func (l *Layers) Draw(v Viewport, s *xpbd.Scene) {
	l.Clear()

	for _, poly := range s.Polygons {
		pts := poly.Transformed()
		for i := range pts {
			x0, y0 := v.ToCanvas(pts[i])
			x1, y1 := v.ToCanvas(pts[(i+1)%len(pts)])
			l.Polygons.DrawLine(x0, y0, x1, y1)
		}
	}

	for _, c := range s.Distances {
		x0, y0 := v.ToCanvas(s.Particles[c.A].Position)
		x1, y1 := v.ToCanvas(s.Particles[c.B].Position)
		l.Links.DrawLine(x0, y0, x1, y1)
	}

	for i := range s.Particles {
		p := &s.Particles[i]
		if !p.IsFinite() {
			continue
		}
		x, y := v.ToCanvas(p.Position)
		target := l.Particles
		if p.Pinned() {
			target = l.Pinned
		}
		target.DrawCircle(x, y, v.Radius(p.Radius))
	}

	if d := s.Drag; d != nil && int(d.Particle) < len(s.Particles) {
		x0, y0 := v.ToCanvas(s.Particles[d.Particle].Position)
		x1, y1 := v.ToCanvas(d.Target)
		l.Drag.DrawLine(x0, y0, x1, y1)
	}
}

// Render composes the layers with the colours of theme.
func (l *Layers) Render(theme Theme) string {
	styles := []lipgloss.Style{
		lipgloss.NewStyle().Foreground(theme.Polygon),
		lipgloss.NewStyle().Foreground(theme.Link),
		lipgloss.NewStyle().Foreground(theme.Particle),
		lipgloss.NewStyle().Foreground(theme.Pinned),
		lipgloss.NewStyle().Foreground(theme.Accent),
	}
	return Compose(l.all(), styles)
}

// Plain composes the layers without colour.
func (l *Layers) Plain() string {
	return Compose(l.all(), nil)
}

// Snapshot renders s as uncoloured braille text.
func Snapshot(s *xpbd.Scene, cols, rows int) string {
	l := NewLayers(cols, rows)
	l.Draw(NewViewport(s, cols, rows), s)
	return l.Plain()
}

// FramePrinter is a sim.Observer that redraws the scene to w at most
// frameRate times per second.
type FramePrinter struct {
	w         io.Writer
	frameRate int
	lastFrame time.Time
	layers    *Layers
	cols      int
	rows      int
	started   bool
}

func NewFramePrinter(w io.Writer, frameRate, cols, rows int) *FramePrinter {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &FramePrinter{
		w:         w,
		frameRate: frameRate,
		layers:    NewLayers(cols, rows),
		cols:      cols,
		rows:      rows,
	}
}

func (r *FramePrinter) OnFrame(f sim.Frame) {
	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = time.Now()

	if !r.started {
		fmt.Fprint(r.w, hideCursor)
		r.started = true
	}

	r.layers.Draw(NewViewport(f.Scene, r.cols, r.rows), f.Scene)
	fmt.Fprint(r.w, clearScreen)
	fmt.Fprint(r.w, r.layers.Plain())
	fmt.Fprintf(r.w, "frame %d  t=%.3fs  particles=%d  contacts=%d\n",
		f.Index, f.Time, len(f.Scene.Particles), f.Collisions.Total())
}

// Close restores the cursor.
func (r *FramePrinter) Close() {
	if r.started {
		fmt.Fprint(r.w, showCursor)
	}
}
