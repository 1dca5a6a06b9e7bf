// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"sort"

	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    "#7aa2f7",
		Secondary:  "#7dcfff",
		Foreground: "#c0caf5",
		Muted:      "#565f89",
		Surface:    "#3b4261",
		Success:    "#9ece6a",
		Warning:    "#e0af68",
		Error:      "#f7768e",
	},
	"gruvbox": {
		Primary:    "#83a598",
		Secondary:  "#8ec07c",
		Foreground: "#ebdbb2",
		Muted:      "#665c54",
		Surface:    "#3c3836",
		Success:    "#b8bb26",
		Warning:    "#fabd2f",
		Error:      "#fb4934",
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

var (
	// CLI styles.
	HeaderStyle  lipgloss.Style
	MutedStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	ErrorStyle   lipgloss.Style

	// Gutter styles, one per claim category plus thread glyphs.
	GutterPlainStyle     lipgloss.Style
	GutterHoverStyle     lipgloss.Style
	GutterMultilineStyle lipgloss.Style
	GutterThreadStyle    lipgloss.Style
	GutterResolvedStyle  lipgloss.Style
	LineNumberStyle      lipgloss.Style
	CursorLineStyle      lipgloss.Style
	SelectionStyle       lipgloss.Style

	// Thread widget styles.
	ThreadBoxStyle      lipgloss.Style
	ThreadHeaderStyle   lipgloss.Style
	ThreadAuthorStyle   lipgloss.Style
	ThreadDraftStyle    lipgloss.Style
	StatusBarStyle      lipgloss.Style
	StatusBarErrorStyle lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	GutterPlainStyle = lipgloss.NewStyle().Foreground(p.Muted)
	GutterHoverStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	GutterMultilineStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	GutterThreadStyle = lipgloss.NewStyle().Foreground(p.Warning)
	GutterResolvedStyle = lipgloss.NewStyle().Foreground(p.Success)
	LineNumberStyle = lipgloss.NewStyle().Foreground(p.Muted).Width(4).Align(lipgloss.Right)
	CursorLineStyle = lipgloss.NewStyle().Background(p.Surface)
	SelectionStyle = lipgloss.NewStyle().Foreground(p.Secondary)

	ThreadBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
	ThreadHeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	ThreadAuthorStyle = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	ThreadDraftStyle = lipgloss.NewStyle().Foreground(p.Warning).Italic(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(p.Foreground).Background(p.Surface).Padding(0, 1)
	StatusBarErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Background(p.Surface).Padding(0, 1)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	cfg.Document.Color = hexPtr(p.Foreground)
	cfg.Document.Margin = nil
	cfg.Paragraph.Color = hexPtr(p.Foreground)
	cfg.Heading.Color = hexPtr(p.Primary)
	cfg.BlockQuote.Color = hexPtr(p.Muted)
	cfg.Link.Color = hexPtr(p.Secondary)
	cfg.LinkText.Color = hexPtr(p.Secondary)
	cfg.Code.Color = hexPtr(p.Secondary)
	cfg.CodeBlock.Color = hexPtr(p.Muted)

	return cfg
}
