// Package export renders scenes and stored trajectories as SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/xpbd/internal/config"
	"github.com/san-kum/xpbd/internal/sim"
	"github.com/san-kum/xpbd/internal/xpbd"
)

const background = "#0a0a0a"

// trailColors cycles over particles in trajectory plots.
var trailColors = []string{"#D91424", "#16B4F2", "#F2B90F", "#00ff88", "#ff9ff3", "#feca57"}

func world(b *xpbd.Bounds) (float64, float64) {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return config.DefaultWidth, config.DefaultHeight
	}
	return b.Width, b.Height
}

func header(sb *strings.Builder, w, h float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)
}

// SceneToSVG draws one frame of s in world coordinates: polygons, links,
// particles with their own colours, and the drag line if one is active.
func SceneToSVG(s *xpbd.Scene) string {
	w, h := world(s.Bounds)

	var sb strings.Builder
	header(&sb, w, h)

	sb.WriteString(`<g fill="none" stroke="#155FBF" stroke-width="2">` + "\n")
	for _, poly := range s.Polygons {
		pts := poly.Transformed()
		coords := make([]string, len(pts))
		for i, p := range pts {
			coords[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
		}
		fmt.Fprintf(&sb, `<polygon points="%s"/>`+"\n", strings.Join(coords, " "))
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g stroke-width="2">` + "\n")
	for _, c := range s.Distances {
		a, b := s.Particles[c.A].Position, s.Particles[c.B].Position
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
			a.X, a.Y, b.X, b.Y, c.Color)
	}
	sb.WriteString("</g>\n")

	sb.WriteString("<g>\n")
	for i := range s.Particles {
		p := &s.Particles[i]
		if !p.IsFinite() {
			continue
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			p.Position.X, p.Position.Y, p.Radius, p.Color)
	}
	sb.WriteString("</g>\n")

	if d := s.Drag; d != nil && int(d.Particle) < len(s.Particles) {
		p := s.Particles[d.Particle].Position
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#ffd700" stroke-dasharray="4 4"/>`+"\n",
			p.X, p.Y, d.Target.X, d.Target.Y)
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// TrajectoryToSVG draws the path of every particle across the recorded
// states. Non-finite samples break the path.
func TrajectoryToSVG(states []sim.State, bounds *xpbd.Bounds) string {
	w, h := world(bounds)

	var sb strings.Builder
	header(&sb, w, h)

	if len(states) > 0 {
		n := states[0].Particles()
		sb.WriteString(`<g fill="none" stroke-width="1.5">` + "\n")
		for i := 0; i < n; i++ {
			d := pathData(states, i)
			if d == "" {
				continue
			}
			fmt.Fprintf(&sb, `<path stroke="%s" d="%s"/>`+"\n", trailColors[i%len(trailColors)], d)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

func pathData(states []sim.State, i int) string {
	var sb strings.Builder
	pen := false
	for _, st := range states {
		if i >= st.Particles() {
			break
		}
		p := st.Particle(i)
		if !p.IsFinite() {
			pen = false
			continue
		}
		cmd := "L"
		if !pen {
			cmd = "M"
			pen = true
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, p.X, p.Y)
	}
	return sb.String()
}
