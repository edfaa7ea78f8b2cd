package viz

import (
	"fmt"

	"github.com/san-kum/xpbd/internal/scene"
	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

// Mode is what a left click does in the live view.
type Mode int

const (
	ModeParticle Mode = iota
	ModePinned
	ModeBox
	ModeWheel
	ModeRod
	ModeSpring
	ModeDrag
)

var modeNames = [...]string{"particle", "pinned", "box", "wheel", "rod", "spring", "drag"}

const (
	editorBoxSize     = 50
	editorWheelRadius = 50
	editorWheelSpokes = 8
	DragStiffness     = 1e-7
)

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

func Modes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	return ModeParticle, fmt.Errorf("unknown editor mode: %s", s)
}

// Editor turns pointer input into scene edits. It only touches the scene
// between frames, from the goroutine that steps it.
type Editor struct {
	mode     Mode
	selected xpbd.ParticleID
	dragging bool
}

func NewEditor() *Editor {
	return &Editor{selected: -1}
}

func (e *Editor) Mode() Mode { return e.mode }

// SetMode switches mode and drops any pending selection.
func (e *Editor) SetMode(s *xpbd.Scene, m Mode) {
	e.mode = m
	e.selected = -1
	if e.dragging {
		e.dragging = false
		s.StopDrag()
	}
}

// Selected is the first endpoint of a rod or spring being placed.
func (e *Editor) Selected() (xpbd.ParticleID, bool) {
	return e.selected, e.selected >= 0
}

func (e *Editor) Dragging() bool { return e.dragging }

// Reset forgets selection and drag state, e.g. after the scene is replaced.
func (e *Editor) Reset() {
	e.selected = -1
	e.dragging = false
}

// Press handles a button press at world point pt.
func (e *Editor) Press(s *xpbd.Scene, pt vec.Vec2) error {
	p := s.Params()
	switch e.mode {
	case ModeParticle:
		s.AddParticle(pt, p.Mass, 0)
	case ModePinned:
		id := s.AddParticle(pt, 0, 0)
		s.Particles[id].Color = scene.PinnedColor
	case ModeBox:
		_, err := scene.Box2x2(s, pt.X, pt.Y, editorBoxSize, 0)
		return err
	case ModeWheel:
		_, err := scene.Wheel(s, pt.X, pt.Y, editorWheelRadius, editorWheelSpokes, scene.WheelStiffness)
		return err
	case ModeRod:
		return e.link(s, pt, 0)
	case ModeSpring:
		return e.link(s, pt, scene.SpringStiffness)
	case ModeDrag:
		id, ok := s.ParticleAt(pt)
		if !ok {
			return nil
		}
		if err := s.StartDrag(id, pt, DragStiffness); err != nil {
			return err
		}
		e.dragging = true
	}
	return nil
}

// Motion retargets an active drag.
func (e *Editor) Motion(s *xpbd.Scene, pt vec.Vec2) {
	if e.dragging {
		s.MoveDrag(pt)
	}
}

// Release ends an active drag.
func (e *Editor) Release(s *xpbd.Scene) {
	if e.dragging {
		e.dragging = false
		s.StopDrag()
	}
}

// link selects the particle under pt, or joins it to the previous
// selection. Clicking empty space clears the selection.
func (e *Editor) link(s *xpbd.Scene, pt vec.Vec2, stiffness float64) error {
	id, ok := s.ParticleAt(pt)
	if !ok {
		e.selected = -1
		return nil
	}
	if e.selected < 0 || e.selected == id {
		e.selected = id
		return nil
	}
	a := e.selected
	e.selected = -1
	return s.AddDistance(a, id, stiffness)
}
