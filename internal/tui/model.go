// Package tui implements the interactive document viewer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/styles"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/margin/scenario"
)

const (
	inputHeight = 4
	gutterCol   = 5
)

type addDoneMsg struct {
	w   comment.Widget
	err error
}

type submitDoneMsg struct {
	err error
}

// Options configure the viewer.
type Options struct {
	// Play runs the scenario steps before the document is shown.
	Play bool
	// Watch reopens the scenario whenever its file changes.
	Watch bool
}

// Model is the bubbletea model of the viewer.
type Model struct {
	ctx  context.Context
	app  *margin.App
	log  zerolog.Logger
	path string
	opts Options

	runner   *scenario.Runner
	renderer *Renderer
	picker   *Picker
	panel    *panel
	watcher  *ScenarioWatcher

	keys  keyMap
	help  help.Model
	vp    viewport.Model
	input textarea.Model

	editing comment.Widget
	pick    *pickForm
	anchor  int
	rows    []int
	snap    scenario.Snapshot
	status  string
	failed  bool

	width, height int
}

var _ tea.Model = (*Model)(nil)

// New opens the scenario at path against app.
func New(ctx context.Context, app *margin.App, log zerolog.Logger, path string, opts Options) (*Model, error) {
	m := &Model{
		ctx:    ctx,
		app:    app,
		log:    logging.Component(log, "tui"),
		path:   path,
		opts:   opts,
		picker: NewPicker(),
		panel:  &panel{},
		keys:   defaultKeyMap(),
		help:   help.New(),
		vp:     viewport.New(80, 20),
		input:  textarea.New(),
		width:  80,
		height: 24,
	}
	m.input.Placeholder = "Write a comment"
	m.input.ShowLineNumbers = false
	m.input.SetHeight(inputHeight)

	renderer, err := NewRenderer(app.Config.TUI.Glyphs, m.width)
	if err != nil {
		return nil, err
	}
	m.renderer = renderer

	if err := m.open(); err != nil {
		return nil, err
	}

	if opts.Watch {
		w, err := NewScenarioWatcher(path)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
		m.watcher = w
	}

	m.refresh()
	return m, nil
}

// open loads the scenario file and starts a runner for it, replacing any
// previous one.
func (m *Model) open() error {
	sc, err := scenario.Load(m.path)
	if err != nil {
		return err
	}

	if m.runner != nil {
		m.app.Comments.UnregisterAll()
	}

	r, err := scenario.NewRunner(m.ctx, m.app, sc, margin.EditorOptions{
		Picker: m.picker,
		Panel:  m.panel,
	})
	if err != nil {
		return err
	}

	if m.opts.Play {
		if err := r.Run(m.ctx, func(s scenario.Snapshot) {
			if s.Error != "" {
				m.log.Warn().Int("step", s.Step).Str("action", s.Action).Str("error", s.Error).Msg("scenario step failed")
			}
		}); err != nil {
			r.Close()
			return err
		}
	}

	if m.runner != nil {
		m.runner.Close()
	}
	m.runner = r
	m.editing = nil
	m.anchor = 0
	return nil
}

// Close releases the runner and the watcher.
func (m *Model) Close() {
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	if m.runner != nil {
		m.runner.Close()
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{scheduleRefreshTick(), m.picker.wait()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.Start())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.Width = msg.Width
		m.input.SetWidth(msg.Width - 2)
		m.help.Width = msg.Width
		if r, err := NewRenderer(m.app.Config.TUI.Glyphs, msg.Width); err == nil {
			m.renderer = r
		}
		m.refresh()
		return m, nil

	case refreshTickMsg:
		m.refresh()
		return m, scheduleRefreshTick()

	case pickRequestMsg:
		m.pick = newPickForm(msg)
		return m, m.pick.form.Init()

	case addDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.w != nil && msg.w.Expanded() {
			m.refresh()
			return m, m.beginEdit(msg.w)
		}
		m.refresh()
		return m, nil

	case submitDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("comment submitted")
		}
		return m, nil

	case scenarioChangedMsg:
		if err := m.open(); err != nil {
			m.setError(err)
		} else {
			m.setStatus("scenario reloaded")
		}
		m.refresh()
		return m, m.watcher.Start()

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if m.pick != nil {
			return m, m.updatePick(msg)
		}
		if m.editing != nil {
			return m, m.updateEdit(msg)
		}
		return m, m.handleKey(msg)
	}

	if m.pick != nil {
		return m, m.updatePick(msg)
	}
	return m, nil
}

func (m *Model) updatePick(msg tea.Msg) tea.Cmd {
	f, cmd := m.pick.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		m.pick.form = f
	}
	if m.pick.answer() {
		m.pick = nil
		return m.picker.wait()
	}
	return cmd
}

func (m *Model) beginEdit(w comment.Widget) tea.Cmd {
	m.editing = w
	m.input.SetValue(w.PendingComments().NewComment)
	m.input.Focus()
	return textarea.Blink
}

func (m *Model) endEdit() {
	m.editing = nil
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Leave):
		m.endEdit()
		return nil
	case key.Matches(msg, m.keys.Submit):
		w, r := m.editing, m.runner
		w.SetPendingComment(m.input.Value())
		m.endEdit()
		return func() tea.Msg { return submitDoneMsg{err: r.Submit(w)} }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.editing.SetPendingComment(m.input.Value())
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	ctrl := m.runner.Controller()
	ed := m.runner.Editor()
	line := ed.Cursor().Line

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(line - 1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(line + 1)
	case key.Matches(msg, m.keys.SelectUp):
		m.extendSelection(line - 1)
	case key.Matches(msg, m.keys.SelectDown):
		m.extendSelection(line + 1)
	case key.Matches(msg, m.keys.Comment):
		rng := textrange.Line(line)
		if sel := ed.Selection(); sel != nil {
			rng = textrange.Lines(sel.StartLine, sel.EndLine)
		}
		return m.add(&rng)
	case key.Matches(msg, m.keys.Edit):
		for _, w := range ctrl.Widgets() {
			if w.GlyphLine() == line {
				w.Expand()
				return m.beginEdit(w)
			}
		}
		m.setError(errors.New("no thread on this line"))
	case key.Matches(msg, m.keys.NextThread), key.Matches(msg, m.keys.PrevThread):
		if _, ok := ctrl.NextThread(key.Matches(msg, m.keys.PrevThread)); !ok {
			m.setStatus("no threads")
		}
		m.anchor = 0
	case key.Matches(msg, m.keys.NextRange), key.Matches(msg, m.keys.PrevRange):
		if _, ok := ctrl.NextCommentingRange(key.Matches(msg, m.keys.PrevRange)); !ok {
			m.setStatus("no commenting ranges")
		}
		m.anchor = 0
	case key.Matches(msg, m.keys.ExpandAll):
		ctrl.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		ctrl.CollapseAll()
	case key.Matches(msg, m.keys.Unresolved):
		ctrl.ExpandUnresolved()
	case key.Matches(msg, m.keys.Panel):
		m.panel.toggle()
	case key.Matches(msg, m.keys.Toggle):
		enabled := !m.app.Comments.IsCommentingEnabled()
		m.app.Comments.SetEnabled(enabled)
		m.setStatus(fmt.Sprintf("commenting %s", onOff(enabled)))
	case key.Matches(msg, m.keys.Reload):
		m.runner.Reload()
		m.anchor = 0
	}

	m.refresh()
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m *Model) add(rng *textrange.Range) tea.Cmd {
	ctx, ctrl := m.ctx, m.runner.Controller()
	return func() tea.Msg {
		w, err := ctrl.AddOrToggleCommentAtLine(ctx, rng)
		return addDoneMsg{w: w, err: err}
	}
}

func (m *Model) clampLine(line int) int {
	return max(1, min(line, m.runner.Model().LineCount()))
}

func (m *Model) moveCursor(line int) {
	m.anchor = 0
	m.runner.Editor().SetCursor(textrange.Position{Line: m.clampLine(line), Col: 1})
}

func (m *Model) extendSelection(line int) {
	ed := m.runner.Editor()
	if m.anchor == 0 {
		m.anchor = ed.Cursor().Line
	}
	line = m.clampLine(line)
	if line == m.anchor {
		m.moveCursor(line)
		return
	}
	ed.Select(textrange.Position{Line: m.anchor, Col: 1}, textrange.Position{Line: line, Col: 1})
}

// lineAt maps a screen row to a document line; 0 when the row shows no line.
func (m *Model) lineAt(y int) int {
	row := y - 1 + m.vp.YOffset
	if row < 0 || row >= len(m.rows) {
		return 0
	}
	return m.rows[row]
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.pick != nil || m.editing != nil {
		return nil
	}
	ctrl := m.runner.Controller()
	line := m.lineAt(msg.Y)
	inGutter := m.snap.Reserved && msg.X >= gutterCol && msg.X <= gutterCol+1

	switch msg.Action {
	case tea.MouseActionMotion:
		if inGutter && line > 0 {
			ctrl.Hover(line)
		} else {
			ctrl.Hover(0)
		}
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || line == 0 {
			return nil
		}
		if !inGutter {
			m.moveCursor(line)
			m.refresh()
			return nil
		}
		ctx := m.ctx
		return func() tea.Msg {
			w, err := ctrl.ClickGutter(ctx, line)
			return addDoneMsg{w: w, err: err}
		}
	}
	m.refresh()
	return nil
}

func (m *Model) setStatus(s string) {
	m.status, m.failed = s, false
}

func (m *Model) setError(err error) {
	m.status, m.failed = err.Error(), true
}

// refresh re-reads the controller state and redraws the document.
func (m *Model) refresh() {
	if m.editing != nil {
		m.rebindEditing()
	}

	m.snap = m.runner.Snapshot(0, "")
	content, rows := m.renderer.layout(m.runner.Model().Text(), m.snap)
	m.rows = rows
	m.vp.Height = max(m.height-m.chromeHeight(), 3)
	m.vp.SetContent(content)

	for i, l := range rows {
		if l != m.snap.Cursor.Line {
			continue
		}
		if i < m.vp.YOffset {
			m.vp.SetYOffset(i)
		} else if i >= m.vp.YOffset+m.vp.Height {
			m.vp.SetYOffset(i - m.vp.Height + 1)
		}
		break
	}
}

// rebindEditing follows the edited thread when its widget was replaced.
func (m *Model) rebindEditing() {
	owner, id := m.editing.OwnerID(), m.editing.Thread().ThreadID
	for _, w := range m.runner.Controller().Widgets() {
		if w == m.editing {
			return
		}
		if w.OwnerID() == owner && w.Thread().ThreadID == id {
			m.editing = w
			return
		}
	}
	m.endEdit()
}

func (m *Model) chromeHeight() int {
	h := 3
	if m.editing != nil {
		h += inputHeight + 2
	}
	if m.pick != nil {
		h += len(m.pick.req.actions) + 2
	}
	if m.panel.open.Load() {
		h += len(m.snap.Threads) + 1
	}
	if m.help.ShowAll {
		h += 4
	}
	return h
}

func (m *Model) View() string {
	parts := []string{m.header(), m.vp.View()}

	if m.panel.visible() {
		parts = append(parts, m.panelView())
	}
	if m.pick != nil {
		parts = append(parts, m.pick.form.View())
	}
	if m.editing != nil {
		title := styles.ThreadDraftStyle.Render("commenting on " + m.editing.OwnerID() + " · " + m.editing.Thread().ThreadID)
		parts = append(parts, title, m.input.View())
	}

	status := styles.StatusBarStyle
	if m.failed {
		status = styles.StatusBarErrorStyle
	}
	parts = append(parts, status.Width(m.width).Render(m.status), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) header() string {
	uri := m.runner.Model().URI()
	providers := strings.Join(m.app.Comments.Providers(), ", ")
	if providers == "" {
		providers = "no providers"
	}
	info := fmt.Sprintf("%s · %d threads · commenting %s", providers, len(m.snap.Threads), onOff(m.app.Comments.IsCommentingEnabled()))
	return styles.HeaderStyle.Render(uri) + " " + styles.MutedStyle.Render(info)
}

func (m *Model) panelView() string {
	lines := []string{styles.HeaderStyle.Render("Comments")}
	for _, t := range m.snap.Threads {
		where := "file"
		if t.Line > 0 {
			where = fmt.Sprintf("L%d", t.Line)
		}
		lines = append(lines, fmt.Sprintf("  %-5s %s · %s · %s · %d comments", where, t.Owner, t.ID, t.State, len(t.Comments)))
	}
	return strings.Join(lines, "\n")
}

// Run shows m until the user quits or ctx is cancelled.
func Run(ctx context.Context, m *Model) error {
	defer m.Close()
	_, err := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
