package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/margin/internal/comments/decorator"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/styles"
	"github.com/colonyops/margin/internal/margin/scenario"
)

// Renderer draws a document with its comment gutter and expanded threads.
type Renderer struct {
	glyphs config.Glyphs
	width  int
	md     *glamour.TermRenderer
}

// NewRenderer returns a Renderer wrapping comment bodies at width.
func NewRenderer(glyphs config.Glyphs, width int) (*Renderer, error) {
	if width <= 0 {
		width = 80
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(max(width-8, 20)),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Renderer{glyphs: glyphs, width: width, md: md}, nil
}

// Render draws text annotated with the state captured in snap.
func (r *Renderer) Render(text string, snap scenario.Snapshot) string {
	out, _ := r.layout(text, snap)
	return out
}

// layout renders text and returns, per output row, the document line it
// shows; rows belonging to a thread widget map to 0.
func (r *Renderer) layout(text string, snap scenario.Snapshot) (string, []int) {
	var (
		b    strings.Builder
		rows []int
	)
	emit := func(s string, line int) {
		for _, l := range strings.Split(s, "\n") {
			b.WriteString(l)
			b.WriteString("\n")
			rows = append(rows, line)
		}
	}

	for _, t := range snap.Threads {
		if t.Line == 0 {
			emit(r.thread(t, snap.Reserved), 0)
		}
	}

	for i, line := range strings.Split(text, "\n") {
		n := i + 1
		content := line
		if n == snap.Cursor.Line {
			content = styles.CursorLineStyle.Render(line)
		} else if snap.Selection != nil && snap.Selection.ContainsLine(n) {
			content = styles.SelectionStyle.Render(line)
		}

		row := styles.LineNumberStyle.Render(fmt.Sprint(n)) + " "
		if snap.Reserved {
			row += r.Gutter(n, snap) + " "
		}
		emit(row+content, n)

		for _, t := range snap.Threads {
			if t.Line == n && t.Expanded {
				emit(r.thread(t, snap.Reserved), 0)
			}
		}
	}
	return b.String(), rows
}

// Gutter returns the glyph drawn beside line. A thread glyph wins over a
// commenting range glyph.
func (r *Renderer) Gutter(line int, snap scenario.Snapshot) string {
	for _, t := range snap.Threads {
		if t.Line != line {
			continue
		}
		if t.State == "resolved" {
			return styles.GutterResolvedStyle.Render(r.glyphs.Thread)
		}
		return styles.GutterThreadStyle.Render(r.glyphs.Thread)
	}

	for _, c := range snap.Claims {
		if line < c.Range.StartLine || line > c.Range.EndLine {
			continue
		}
		switch c.Category {
		case decorator.CategoryHover:
			return styles.GutterHoverStyle.Render(r.glyphs.Hover)
		case decorator.CategoryMultiline:
			return styles.GutterMultilineStyle.Render(r.glyphs.Multiline)
		default:
			return styles.GutterPlainStyle.Render(r.glyphs.Plain)
		}
	}
	return " "
}

func (r *Renderer) thread(t scenario.ThreadView, reserved bool) string {
	header := t.Owner + " · " + t.ID
	if t.Range == nil {
		header += " · file"
	}
	if t.State == "resolved" {
		header += " · resolved"
	}

	parts := []string{styles.ThreadHeaderStyle.Render(header)}
	for _, c := range t.Comments {
		body, err := r.md.Render(c.Body)
		if err != nil {
			body = c.Body
		}
		author := c.Author
		if author == "" {
			author = "anonymous"
		}
		parts = append(parts, styles.ThreadAuthorStyle.Render(author), strings.TrimRight(body, "\n"))
	}
	if t.Pending != "" {
		parts = append(parts, styles.ThreadDraftStyle.Render("draft: "+t.Pending))
	} else if t.Draft && len(t.Comments) == 0 {
		parts = append(parts, styles.MutedStyle.Render("new comment"))
	}

	box := styles.ThreadBoxStyle.Width(max(r.width-8, 20)).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	indent := 5
	if reserved {
		indent += 2
	}
	return lipgloss.NewStyle().MarginLeft(indent).Render(box)
}
