package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/calorilog/internal/aggregate"
	"github.com/fyrsmithlabs/calorilog/internal/diary"
)

// palette is the set of styles for one theme.
type palette struct {
	header    lipgloss.Style
	section   lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	dim       lipgloss.Style
	spark     lipgloss.Style
	container lipgloss.Style
	footerKey lipgloss.Style
	errText   lipgloss.Style
	buckets   map[aggregate.Bucket]lipgloss.Style

	gradientFrom, gradientTo string
}

func newPalette(accent, fg, dim, border string, good, fair, poor string) palette {
	bold := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true)
	}
	return palette{
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color(accent)).
			Bold(true).
			Padding(0, 1),
		section: bold(accent).MarginTop(1),
		label:   lipgloss.NewStyle().Foreground(lipgloss.Color(accent)),
		value:   bold(fg),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(dim)),
		spark:   lipgloss.NewStyle().Foreground(lipgloss.Color(accent)),
		container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)).
			Padding(1, 2),
		footerKey: bold(accent),
		errText:   bold(poor),
		buckets: map[aggregate.Bucket]lipgloss.Style{
			aggregate.Best:   bold(good),
			aggregate.Good:   bold(good),
			aggregate.Fair:   bold(fair),
			aggregate.Poor:   bold(poor),
			aggregate.NoData: lipgloss.NewStyle().Foreground(lipgloss.Color(dim)),
		},
	}
}

func (p palette) withGradient(from, to string) palette {
	p.gradientFrom, p.gradientTo = from, to
	return p
}

var (
	darkPalette = newPalette("51", "231", "245", "238", "46", "226", "196").
			withGradient("#00ff87", "#ffd700")
	lightPalette = newPalette("25", "16", "244", "250", "28", "136", "160").
			withGradient("#008700", "#af8700")
)

func paletteFor(theme diary.Theme) palette {
	if theme == diary.ThemeDark {
		return darkPalette
	}
	return lightPalette
}

func (p palette) bucket(b aggregate.Bucket) lipgloss.Style {
	if s, ok := p.buckets[b]; ok {
		return s
	}
	return p.dim
}
