package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the scene layers and the side panel.
type Theme struct {
	Name     string
	Particle lipgloss.Color
	Pinned   lipgloss.Color
	Link     lipgloss.Color
	Polygon  lipgloss.Color
	Accent   lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
}

var (
	// ThemeClassic uses the particle colours of the scene builders.
	ThemeClassic = Theme{
		Name:     "classic",
		Particle: lipgloss.Color("#D91424"),
		Pinned:   lipgloss.Color("#16B4F2"),
		Link:     lipgloss.Color("#cccccc"),
		Polygon:  lipgloss.Color("#155FBF"),
		Accent:   lipgloss.Color("#ffd700"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#666688"),
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Particle: lipgloss.Color("#00ff00"),
		Pinned:   lipgloss.Color("#88ff88"),
		Link:     lipgloss.Color("#00cc00"),
		Polygon:  lipgloss.Color("#005500"),
		Accent:   lipgloss.Color("#ffff00"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Particle: lipgloss.Color("#ffd700"),
		Pinned:   lipgloss.Color("#00ff88"),
		Link:     lipgloss.Color("#00a8cc"),
		Polygon:  lipgloss.Color("#0077be"),
		Accent:   lipgloss.Color("#ff4444"),
		Text:     lipgloss.Color("#e0f0ff"),
		Muted:    lipgloss.Color("#4488aa"),
	}

	ThemeSunset = Theme{
		Name:     "sunset",
		Particle: lipgloss.Color("#ff6b6b"),
		Pinned:   lipgloss.Color("#feca57"),
		Link:     lipgloss.Color("#ff9ff3"),
		Polygon:  lipgloss.Color("#8b6b8c"),
		Accent:   lipgloss.Color("#5fd068"),
		Text:     lipgloss.Color("#fff5f5"),
		Muted:    lipgloss.Color("#8b6b8c"),
	}

	Themes = []Theme{
		ThemeClassic,
		ThemeRetroGreen,
		ThemeOcean,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to classic.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

// NextTheme returns the theme after t in Themes.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
