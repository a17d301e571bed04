// Package session composes the console: one input buffer, an ordered list of
// output buffers, a cursor, and a selection spanning any of them. It routes
// copy, paste, and execute through the buffers and its collaborators.
//
// Everything here is synchronous and single-owner: each operation runs to
// completion before the host feeds in the next event, so there is no locking.
package session

import (
	"strings"

	"github.com/zjrosen/conch/internal/console/history"
	"github.com/zjrosen/conch/internal/console/textbuffer"
	"github.com/zjrosen/conch/internal/console/width"
	"github.com/zjrosen/conch/internal/log"
)

// Evaluator turns a source string into a display value. A returned error is
// itself a display value: it prints like a result and never crashes the
// console.
type Evaluator interface {
	Evaluate(source string) (string, error)
}

// Clipboard is the host clipboard collaborator.
type Clipboard interface {
	Set(text string) error
	Get() (string, error)
}

// BufferRef is a selection's buffer handle: RefInput for the input buffer,
// otherwise an index into the output list. Handles replace raw object
// identity so selections survive value copies.
type BufferRef int

// RefInput marks the input buffer.
const RefInput BufferRef = -1

// EntryKind classifies an output entry for styling.
type EntryKind int

const (
	// KindEcho is a frozen input buffer moved into history by execute.
	KindEcho EntryKind = iota
	// KindResult is a successfully evaluated value.
	KindResult
	// KindError is an evaluation failure, printed like a result.
	KindError
)

// Entry is one printed line of output history.
type Entry struct {
	Buf  *textbuffer.Buffer
	Kind EntryKind
}

// Selection is an anchor pair: (index, buffer handle) for each end, in the
// order the user dragged them. Use Normalized for document order.
type Selection struct {
	StartIdx int
	StartRef BufferRef
	EndIdx   int
	EndRef   BufferRef
}

// CursorKind selects how the cursor renders.
type CursorKind int

const (
	// CursorGlyph renders a configurable glyph at the cursor slot.
	CursorGlyph CursorKind = iota
	// CursorBlock renders a block over the cluster at the cursor.
	CursorBlock
)

// CursorStyle is the tagged cursor variant, resolved once at configuration
// time.
type CursorStyle struct {
	Kind  CursorKind
	Glyph string
}

// Config carries the session's immutable configuration snapshot.
type Config struct {
	// MaxOutputEntries bounds the output list; 0 means unbounded. Oldest
	// entries are evicted first.
	MaxOutputEntries int

	// HistorySize bounds the command recall ring.
	HistorySize int

	// ReplacementChar substitutes undecodable byte runs on insert.
	ReplacementChar string

	// Cursor is the resolved cursor variant.
	Cursor CursorStyle
}

// Session owns the console state.
type Session struct {
	cfg    Config
	oracle width.Oracle
	eval   Evaluator
	clip   Clipboard

	maxWidth float64
	input    *textbuffer.Buffer
	outputs  []Entry
	hist     *history.Ring

	// cursor is a 1-based logical index into input, in [1, input.Len()+1].
	cursor int
	sel    *Selection
}

// New constructs a session with an empty input buffer.
func New(o width.Oracle, ev Evaluator, clip Clipboard, cfg Config, maxWidth float64) *Session {
	s := &Session{
		cfg:      cfg,
		oracle:   o,
		eval:     ev,
		clip:     clip,
		maxWidth: maxWidth,
		hist:     history.New(cfg.HistorySize),
		cursor:   1,
	}
	s.input = s.newBuffer("")
	return s
}

func (s *Session) newBuffer(text string) *textbuffer.Buffer {
	b := textbuffer.New(s.oracle, s.maxWidth, s.cfg.ReplacementChar)
	if text != "" {
		b.Append(text)
	}
	return b
}

// Input returns the live input buffer.
func (s *Session) Input() *textbuffer.Buffer { return s.input }

// Outputs returns the output history, oldest first. Callers must not mutate
// the entries.
func (s *Session) Outputs() []Entry { return s.outputs }

// Cursor returns the 1-based cursor index into the input buffer.
func (s *Session) Cursor() int { return s.cursor }

// CursorStyle returns the resolved cursor variant.
func (s *Session) CursorStyle() CursorStyle { return s.cfg.Cursor }

// sanitize flattens line breaks to spaces and drops other ASCII control
// bytes. The input is a single logical line; a raw "\n" would be stored as a
// zero-width cluster but render as a row break, skewing every pixel mapping
// below it. Bytes >= 0x80 pass through untouched so malformed sequences
// still reach the buffer's replacement-cluster decoder.
func sanitize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		b := text[i]
		switch {
		case b == '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			sb.WriteByte(' ')
		case b == '\n' || b == '\t':
			sb.WriteByte(' ')
		case b < 0x20 || b == 0x7f:
			// drop
		default:
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// Insert inserts text at the cursor. Line breaks and other control bytes are
// sanitized first, so pasted multi-line text (including text produced by
// Copy) lands as one logical line. The cursor advances by the actual change
// in input length, which may differ from the cluster count of text when
// malformed runs are substituted.
func (s *Session) Insert(text string) {
	before := s.input.Len()
	s.input.Insert(sanitize(text), s.cursor)
	s.cursor += s.input.Len() - before
	s.clampCursor()
}

// RemoveRange deletes the closed range [i, j] from the input, shifting the
// cursor left by however many removed clusters sat before it.
func (s *Session) RemoveRange(i, j int) {
	if i > j {
		i, j = j, i
	}
	before := s.input.Len()
	s.input.Remove(i, j)
	removed := before - s.input.Len()
	if removed == 0 {
		return
	}
	switch {
	case s.cursor > j:
		s.cursor -= removed
	case s.cursor > i:
		s.cursor = i
	}
	s.clampCursor()
}

// Backspace removes the cluster before the cursor.
func (s *Session) Backspace() {
	if s.cursor > 1 {
		s.RemoveRange(s.cursor-1, s.cursor-1)
	}
}

// DeleteForward removes the cluster under the cursor.
func (s *Session) DeleteForward() {
	if s.cursor <= s.input.Len() {
		s.RemoveRange(s.cursor, s.cursor)
	}
}

// MoveCursor sets the cursor to the 1-based index n, clamped to
// [1, input length + 1].
func (s *Session) MoveCursor(n int) {
	s.cursor = n
	s.clampCursor()
}

// MoveCursorBy shifts the cursor by delta, clamping.
func (s *Session) MoveCursorBy(delta int) {
	s.MoveCursor(s.cursor + delta)
}

func (s *Session) clampCursor() {
	if s.cursor < 1 {
		s.cursor = 1
	}
	if s.cursor > s.input.Len()+1 {
		s.cursor = s.input.Len() + 1
	}
}

// Execute runs the current input through the evaluator.
//
// An empty input prints a blank line and changes nothing else. Otherwise the
// input buffer itself moves into the output history (so later typing can
// never mutate what was executed), the source is evaluated, the result or
// error is printed, and a fresh empty input takes its place.
func (s *Session) Execute() {
	source := s.input.String()
	if source == "" {
		s.appendEntry(Entry{Buf: s.newBuffer(""), Kind: KindResult})
		return
	}

	frozen := s.input
	s.input = s.newBuffer("")
	s.cursor = 1
	s.appendEntry(Entry{Buf: frozen, Kind: KindEcho})
	s.hist.Push(source)

	result, err := s.eval.Evaluate(source)
	if err != nil {
		log.Debug(log.CatSession, "execute failed", "source", source, "error", err)
		s.print(err.Error(), KindError)
		return
	}
	s.print(result, KindResult)
}

// print appends one output entry per line of text.
func (s *Session) print(text string, kind EntryKind) {
	for _, line := range strings.Split(text, "\n") {
		s.appendEntry(Entry{Buf: s.newBuffer(line), Kind: kind})
	}
}

func (s *Session) appendEntry(e Entry) {
	s.outputs = append(s.outputs, e)
	if s.cfg.MaxOutputEntries <= 0 {
		return
	}
	evicted := len(s.outputs) - s.cfg.MaxOutputEntries
	if evicted <= 0 {
		return
	}
	s.outputs = s.outputs[evicted:]
	s.shiftSelection(evicted)
}

// shiftSelection re-aims output-buffer handles after eviction, clearing the
// selection when an endpoint was evicted.
func (s *Session) shiftSelection(evicted int) {
	if s.sel == nil {
		return
	}
	shift := func(ref BufferRef) (BufferRef, bool) {
		if ref == RefInput {
			return ref, true
		}
		if int(ref) < evicted {
			return 0, false
		}
		return ref - BufferRef(evicted), true
	}
	var ok1, ok2 bool
	s.sel.StartRef, ok1 = shift(s.sel.StartRef)
	s.sel.EndRef, ok2 = shift(s.sel.EndRef)
	if !ok1 || !ok2 {
		s.sel = nil
	}
}

// HistoryPrev replaces the input with the previous history entry.
func (s *Session) HistoryPrev() {
	if text, ok := s.hist.Prev(s.input.String()); ok {
		s.setInput(text)
	}
}

// HistoryNext replaces the input with the next history entry (or the pending
// in-progress input).
func (s *Session) HistoryNext() {
	if text, ok := s.hist.Next(); ok {
		s.setInput(text)
	}
}

func (s *Session) setInput(text string) {
	s.input = s.newBuffer(text)
	s.cursor = s.input.Len() + 1
}

// Paste inserts the clipboard content at the cursor.
func (s *Session) Paste() {
	if s.clip == nil {
		return
	}
	text, err := s.clip.Get()
	if err != nil {
		log.ErrorErr(log.CatSession, "clipboard read failed", err)
		return
	}
	s.Insert(text)
}

// SetMaxWidth re-wraps every buffer to the new width.
func (s *Session) SetMaxWidth(w float64) {
	if w == s.maxWidth {
		return
	}
	s.maxWidth = w
	s.input.SetMaxWidth(w)
	for _, e := range s.outputs {
		e.Buf.SetMaxWidth(w)
	}
	s.clampCursor()
}

// SetOracle swaps the width oracle (font/metric change) and re-wraps every
// buffer.
func (s *Session) SetOracle(o width.Oracle) {
	s.oracle = o
	s.input.SetOracle(o)
	for _, e := range s.outputs {
		e.Buf.SetOracle(o)
	}
}

// Height returns the rendered height of the whole console in pixels: all
// output entries followed by the input.
func (s *Session) Height() float64 {
	h := s.input.Height()
	for _, e := range s.outputs {
		h += e.Buf.Height()
	}
	return h
}
