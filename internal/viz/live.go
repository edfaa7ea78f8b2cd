package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/xpbd/internal/metrics"
	"github.com/san-kum/xpbd/internal/xpbd"
)

const (
	canvasCols      = 96
	canvasRows      = 27
	canvasPadX      = 2
	canvasPadY      = 1
	historyCapacity = 600
	frameInterval   = time.Second / 60
)

type TickMsg time.Time

// ReloadMsg replaces the running scene, e.g. after its source file changed.
// A non-nil Err keeps the current scene and shows the error.
type ReloadMsg struct {
	Scene *xpbd.Scene
	Err   error
}

// SceneFunc builds a fresh scene. The live view calls it on reset.
type SceneFunc func() (*xpbd.Scene, error)

// Model is the bubbletea model of the live view: it steps the scene once per
// tick and applies editor input between frames.
type Model struct {
	name    string
	build   SceneFunc
	stepper *xpbd.Stepper
	editor  *Editor
	layers  *Layers
	view    Viewport
	theme   Theme

	energy     []float64
	contacts   []float64
	message    string
	failed     bool
	showHelp   bool
	cols, rows int
}

// NewModel builds the first scene with build and returns a ready model.
func NewModel(name string, build SceneFunc) (Model, error) {
	s, err := build()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		name:     name,
		build:    build,
		editor:   NewEditor(),
		layers:   NewLayers(canvasCols, canvasRows),
		theme:    ThemeClassic,
		energy:   make([]float64, 0, historyCapacity),
		contacts: make([]float64, 0, historyCapacity),
		cols:     canvasCols,
		rows:     canvasRows,
	}
	m.setScene(s)
	return m, nil
}

func (m *Model) setScene(s *xpbd.Scene) {
	m.stepper = xpbd.NewStepper(s)
	m.view = NewViewport(s, m.cols, m.rows)
	m.editor.Reset()
	m.energy = m.energy[:0]
	m.contacts = m.contacts[:0]
}

func (m Model) Scene() *xpbd.Scene { return m.stepper.Scene() }

func (m Model) Editor() *Editor { return m.editor }

func (m Model) Viewport() Viewport { return m.view }

func (m Model) Stepper() *xpbd.Stepper { return m.stepper }

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case ReloadMsg:
		if msg.Err != nil {
			m.setMessage(fmt.Sprintf("reload failed: %v", msg.Err), true)
		} else if msg.Scene != nil {
			m.setScene(msg.Scene)
			m.setMessage("scene reloaded", false)
		}
	case TickMsg:
		m.step()
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.Scene()
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		s.Paused = !s.Paused
	case "n":
		if s.Paused {
			s.Paused = false
			m.step()
			s.Paused = true
		}
	case "r":
		fresh, err := m.build()
		if err != nil {
			m.setMessage(fmt.Sprintf("reset failed: %v", err), true)
			break
		}
		m.setScene(fresh)
		m.setMessage("reset", false)
	case "t":
		m.theme = NextTheme(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	case "tab":
		m.editor.SetMode(s, Mode((int(m.editor.Mode())+1)%len(modeNames)))
	case "esc":
		m.editor.SetMode(s, m.editor.Mode())
	case "1", "2", "3", "4", "5", "6", "7":
		m.editor.SetMode(s, Mode(key[0]-'1'))
	}
	return m, nil
}

// canvasCell maps a terminal cell to a canvas cell, or false outside it.
func (m Model) canvasCell(x, y int) (col, row int, ok bool) {
	col, row = x-canvasPadX, y-canvasPadY
	if col < 0 || row < 0 || col >= m.cols || row >= m.rows {
		return 0, 0, false
	}
	return col, row, true
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	s := m.Scene()
	col, row, inside := m.canvasCell(msg.X, msg.Y)
	pt := m.view.CellToWorld(col, row)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return
		}
		if err := m.editor.Press(s, pt); err != nil {
			m.setMessage(err.Error(), true)
		}
	case tea.MouseActionMotion:
		if inside {
			m.editor.Motion(s, pt)
		}
	case tea.MouseActionRelease:
		m.editor.Release(s)
	}
}

func (m *Model) setMessage(text string, failed bool) {
	m.message, m.failed = text, failed
}

// step advances one frame and samples the traces.
func (m *Model) step() {
	s := m.Scene()
	if s.Paused {
		return
	}
	m.stepper.Update()

	m.energy = appendCapped(m.energy, metrics.Kinetic(s)+metrics.Potential(s))
	m.contacts = appendCapped(m.contacts, float64(m.stepper.LastCollisions().Total()))
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m Model) View() string {
	s := m.Scene()
	m.layers.Draw(m.view, s)
	canvasView := canvasStyle.Render(m.layers.Render(m.theme))

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(strings.ToUpper(m.name)) + "\n")

	status := StatusRunning.Render("RUNNING")
	if s.Paused {
		status = StatusPaused.Render("PAUSED")
	}
	b.WriteString(status + "\n\n")

	p := s.Params()
	dt := p.Dt * p.Multiplier
	row := func(label, value string) {
		b.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", float64(m.stepper.Frames())*dt))
	row("Frame", fmt.Sprintf("%d", m.stepper.Frames()))
	row("Particles", fmt.Sprintf("%d", len(s.Particles)))
	row("Links", fmt.Sprintf("%d", len(s.Distances)))
	row("Volumes", fmt.Sprintf("%d", len(s.Volumes)))
	row("Substeps", fmt.Sprintf("%d", p.Substeps))

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}
	b.WriteString(MetricLabel.Render("Contacts") + Sparkline(m.contacts, 24) + "\n\n")

	b.WriteString("MODE\n")
	for i, mode := range Modes() {
		line := fmt.Sprintf("%d %s", i+1, mode)
		if mode == m.editor.Mode() {
			b.WriteString(ActiveMode.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + KeyHint.Render(line) + "\n")
		}
	}
	if id, ok := m.editor.Selected(); ok {
		b.WriteString(MetricLabel.Render("Selected") + MetricValue.Render(fmt.Sprintf("#%d", id)) + "\n")
	}

	if m.message != "" {
		msgStyle := KeyHint
		if m.failed {
			msgStyle = ErrorText
		}
		b.WriteString("\n" + msgStyle.Render(m.message) + "\n")
	}

	b.WriteString("\n" + Separator(30) + "\n")
	b.WriteString(KeyHint.Render("SP:Pause N:Step R:Reset Q:Quit\nTab/1-7:Mode T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle.Render(b.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD & MOUSE           ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  N        - Step one frame (paused)  ║
║  R        - Rebuild the scene        ║
║  Tab, 1-7 - Select editor mode       ║
║  Esc      - Clear selection          ║
║  T        - Cycle themes             ║
║  Click    - Apply the editor mode    ║
║  Drag     - Pull a particle (mode 7) ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the live view full screen with mouse motion reporting.
// reloads, if non-nil, is drained into the program as ReloadMsg values.
func Run(name string, build SceneFunc, reloads <-chan ReloadMsg) error {
	m, err := NewModel(name, build)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if reloads != nil {
		go func() {
			for msg := range reloads {
				p.Send(msg)
			}
		}()
	}
	_, err = p.Run()
	return err
}
