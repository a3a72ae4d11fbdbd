package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lox/wizardscore/internal/game"
	"github.com/muesli/termenv"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	TableStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	RoundInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	LeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	DealerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

var roundColors = map[game.RoundColor]lipgloss.Color{
	game.Blue:   lipgloss.Color("#4D96FF"),
	game.Red:    lipgloss.Color("#FF6B6B"),
	game.Green:  lipgloss.Color("#6BCB77"),
	game.Yellow: lipgloss.Color("#FFD93D"),
}

// RoundColorStyle tints a round marker in its trump colour.
func RoundColorStyle(c game.RoundColor) lipgloss.Style {
	color, ok := roundColors[c]
	if !ok {
		return TableStyle
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

// DisableColor renders everything as plain text.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
