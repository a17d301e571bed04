// Package console is the bubbletea host adapter for the terminal session: it
// translates key and mouse events into session operations and renders the
// session's geometry.
package console

import (
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/zjrosen/conch/internal/config"
	"github.com/zjrosen/conch/internal/console/session"
	"github.com/zjrosen/conch/internal/console/width"
	"github.com/zjrosen/conch/internal/log"
	"github.com/zjrosen/conch/internal/ui/styles"
)

// zoneConsole marks the scrollback area for mouse hit testing.
const zoneConsole = "console"

// ReloadMsg asks the model to re-read its configuration. The config watcher
// emits it when the config file changes on disk.
type ReloadMsg struct{}

// Options configures the console model.
type Options struct {
	Config config.Config

	// Evaluator runs executed input. Required.
	Evaluator session.Evaluator

	// Clipboard is the host clipboard. Optional; copy/paste degrade to
	// no-ops without it.
	Clipboard session.Clipboard

	// ReloadCh delivers config-change signals from the watcher. Optional.
	ReloadCh <-chan struct{}

	// Reload re-reads the configuration after a ReloadMsg. Optional.
	Reload func() (config.Config, error)
}

// Model holds the console UI state.
type Model struct {
	opts    Options
	cfg     config.Config
	styles  styles.Set
	session *session.Session

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	// selecting is true between mouse press and release.
	selecting bool
}

// New creates a console model. The session is constructed with a cell oracle
// derived from the config's cell metrics.
func New(opts Options) Model {
	cfg := opts.Config
	oracle := width.NewCellOracle(cfg.Cell.Width, cfg.Cell.Height)
	sess := session.New(oracle, opts.Evaluator, opts.Clipboard, sessionConfig(cfg), 80)
	return Model{
		opts:    opts,
		cfg:     cfg,
		styles:  styles.FromTheme(cfg.Theme),
		session: sess,
	}
}

func sessionConfig(cfg config.Config) session.Config {
	kind := session.CursorGlyph
	if cfg.Cursor.Kind == "block" {
		kind = session.CursorBlock
	}
	return session.Config{
		MaxOutputEntries: cfg.MaxOutputEntries,
		HistorySize:      cfg.HistorySize,
		ReplacementChar:  cfg.ReplacementChar,
		Cursor:           session.CursorStyle{Kind: kind, Glyph: cfg.Cursor.Glyph},
	}
}

// Session exposes the underlying session for tests.
func (m Model) Session() *session.Session { return m.session }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForReload(m.opts.ReloadCh)
}

func waitForReload(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return ReloadMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - 1 // status bar
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.session.SetMaxWidth(float64(msg.Width))
		m.syncViewport(true)
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case ReloadMsg:
		m.reloadConfig()
		m.syncViewport(false)
		return m, waitForReload(m.opts.ReloadCh)
	}

	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.session.ClearSelection()
		m.session.Execute()
		m.syncViewport(true)
		return *m, nil

	case tea.KeyBackspace:
		m.session.Backspace()

	case tea.KeyDelete:
		m.session.DeleteForward()

	case tea.KeyLeft:
		m.session.MoveCursorBy(-1)

	case tea.KeyRight:
		m.session.MoveCursorBy(1)

	case tea.KeyHome, tea.KeyCtrlA:
		m.session.MoveCursor(1)

	case tea.KeyEnd, tea.KeyCtrlE:
		m.session.MoveCursor(m.session.Input().Len() + 1)

	case tea.KeyUp:
		m.session.HistoryPrev()

	case tea.KeyDown:
		m.session.HistoryNext()

	case tea.KeyCtrlC:
		if m.session.HasVisibleSelection() {
			if _, err := m.session.Copy(); err != nil {
				log.ErrorErr(log.CatUI, "copy failed", err)
			}
			m.session.ClearSelection()
		} else {
			return *m, tea.Quit
		}

	case tea.KeyCtrlV:
		m.session.Paste()
		m.syncViewport(true)

	case tea.KeyCtrlD:
		return *m, tea.Quit

	case tea.KeyEsc:
		m.session.ClearSelection()

	case tea.KeySpace:
		m.session.Insert(" ")
		m.syncViewport(true)

	case tea.KeyRunes:
		m.session.Insert(string(msg.Runes))
		m.syncViewport(true)
	}

	m.syncViewport(false)
	return *m, nil
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(m.cfg.ScrollSpeed)
		return *m, nil
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(m.cfg.ScrollSpeed)
		return *m, nil
	}

	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionRelease {
		return *m, nil
	}

	z := zone.Get(zoneConsole)
	if z == nil || !z.InBounds(msg) {
		return *m, nil
	}
	// Zone-local cell coordinates, shifted into console space by the
	// scroll offset, then scaled into the oracle's pixel space.
	zx, zy := z.Pos(msg)
	x := float64(zx) * m.cfg.Cell.Width
	y := float64(zy+m.viewport.YOffset) * m.cfg.Cell.Height

	switch msg.Action {
	case tea.MouseActionPress:
		m.session.SelectStart(x, y)
		m.selecting = true
	case tea.MouseActionMotion:
		if m.selecting {
			m.session.SelectEnd(x, y)
		}
	case tea.MouseActionRelease:
		if m.selecting {
			m.session.SelectEnd(x, y)
			m.selecting = false
		}
	}

	m.syncViewport(false)
	return *m, nil
}

func (m *Model) reloadConfig() {
	if m.opts.Reload == nil {
		return
	}
	cfg, err := m.opts.Reload()
	if err != nil {
		log.ErrorErr(log.CatUI, "config reload failed", err)
		return
	}
	if err := config.Validate(cfg); err != nil {
		log.ErrorErr(log.CatUI, "reloaded config invalid", err)
		return
	}

	cellChanged := cfg.Cell != m.cfg.Cell
	m.cfg = cfg
	m.styles = styles.FromTheme(cfg.Theme)
	if cellChanged {
		m.session.SetOracle(width.NewCellOracle(cfg.Cell.Width, cfg.Cell.Height))
	}
	log.Info(log.CatUI, "config reloaded")
}

// syncViewport re-renders the console into the viewport, optionally pinning
// the view to the bottom.
func (m *Model) syncViewport(gotoBottom bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderConsole())
	if gotoBottom || atBottom {
		m.viewport.GotoBottom()
	}
}
