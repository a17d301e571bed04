package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/conch/internal/console/session"
	"github.com/zjrosen/conch/internal/console/textbuffer"
)

// View implements tea.Model. This is the app-level view, so zone.Scan runs
// here.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	view := lipgloss.JoinVertical(lipgloss.Left,
		zone.Mark(zoneConsole, m.viewport.View()),
		m.statusView(),
	)
	return zone.Scan(view)
}

func (m Model) statusView() string {
	hints := "enter eval · ↑/↓ history · drag select · ctrl+c copy/quit · ctrl+v paste"
	return m.styles.Status.MaxWidth(m.width).Render(hints)
}

// renderConsole renders every output entry followed by the input buffer,
// one string line per visual buffer line.
func (m Model) renderConsole() string {
	var lines []string
	for i, e := range m.session.Outputs() {
		st := m.styles.Result
		switch e.Kind {
		case session.KindEcho:
			st = m.styles.Echo
		case session.KindError:
			st = m.styles.Error
		}
		lines = append(lines, m.renderBuffer(e.Buf, st, session.BufferRef(i), 0)...)
	}
	lines = append(lines, m.renderBuffer(m.session.Input(), m.styles.Result, session.RefInput, m.session.Cursor())...)
	return strings.Join(lines, "\n")
}

// renderBuffer renders one buffer's visual lines, overlaying the selection
// highlight and, when cursor > 0, the cursor at that logical slot.
func (m Model) renderBuffer(buf *textbuffer.Buffer, base lipgloss.Style, ref session.BufferRef, cursor int) []string {
	selFrom, selTo, hasSel := m.session.SelectionRange(ref)
	style := m.session.CursorStyle()

	// A glyph cursor is drawn in the slot only at the end of text, where it
	// displaces nothing; mid-text it would shift every following cluster
	// and break the pointer-to-index mapping, so it degrades to a block.
	glyphAtEnd := cursor == buf.Len()+1 && style.Kind == session.CursorGlyph

	lines := make([]string, 0, buf.LineCount())
	idx := 1
	for row := 0; row < buf.LineCount(); row++ {
		var sb strings.Builder
		for _, cluster := range buf.Line(row) {
			st := base
			if hasSel && idx >= selFrom && idx <= selTo {
				st = m.styles.Selection
			}
			if cursor == idx && !glyphAtEnd {
				st = m.styles.Cursor
			}
			sb.WriteString(st.Render(cluster))
			idx++
		}
		if row == buf.LineCount()-1 && cursor > 0 {
			// End-of-text slot.
			if glyphAtEnd {
				sb.WriteString(m.styles.Cursor.Render(style.Glyph))
			} else if cursor == buf.Len()+1 {
				sb.WriteString(m.styles.Cursor.Render(" "))
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}
