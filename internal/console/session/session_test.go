package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/conch/internal/console/width"
)

// echoEval returns its input unchanged, so output buffers are predictable.
type echoEval struct{}

func (echoEval) Evaluate(source string) (string, error) { return source, nil }

// failEval always errors with a fixed message.
type failEval struct{}

func (failEval) Evaluate(source string) (string, error) {
	return "", fmt.Errorf("boom: %s", source)
}

// fakeClipboard records writes and serves a canned read.
type fakeClipboard struct {
	set  []string
	text string
}

func (c *fakeClipboard) Set(text string) error { c.set = append(c.set, text); return nil }
func (c *fakeClipboard) Get() (string, error)  { return c.text, nil }

func testConfig() Config {
	return Config{
		MaxOutputEntries: 0,
		HistorySize:      10,
		ReplacementChar:  "?",
		Cursor:           CursorStyle{Kind: CursorGlyph, Glyph: "|"},
	}
}

// newTestSession uses a unit-cell oracle and a wide wrap so each buffer stays
// on one visual line unless a test narrows it.
func newTestSession(ev Evaluator, clip Clipboard) *Session {
	return New(width.Fixed{W: 1, H: 1}, ev, clip, testConfig(), 80)
}

// ============================================================================
// Input editing
// ============================================================================

func TestInsert_AdvancesCursorByActualGrowth(t *testing.T) {
	s := newTestSession(echoEval{}, nil)

	s.Insert("abc")
	require.Equal(t, "abc", s.Input().String())
	require.Equal(t, 4, s.Cursor())

	// A malformed run expands to one replacement cluster; the cursor moves
	// by the actual length change, not the byte count.
	s.Insert("\xff\xfe")
	require.Equal(t, "abc?", s.Input().String())
	require.Equal(t, 5, s.Cursor())
}

func TestInsert_AtCursorMidText(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("ad")
	s.MoveCursor(2)
	s.Insert("bc")

	require.Equal(t, "abcd", s.Input().String())
	require.Equal(t, 4, s.Cursor())
}

func TestInsert_FlattensLineBreaks(t *testing.T) {
	s := newTestSession(echoEval{}, nil)

	s.Insert("one\ntwo")

	require.Equal(t, "one two", s.Input().String())
	require.Equal(t, 1, s.Input().LineCount())
	require.Equal(t, 8, s.Cursor())
}

func TestInsert_DropsControlBytes(t *testing.T) {
	s := newTestSession(echoEval{}, nil)

	// NUL dropped, tab and CRLF each flatten to one space.
	s.Insert("a\x00b\tc\r\nd")

	require.Equal(t, "ab c d", s.Input().String())
	require.Equal(t, 7, s.Cursor())
}

func TestBackspace(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("abc")

	s.Backspace()
	require.Equal(t, "ab", s.Input().String())
	require.Equal(t, 3, s.Cursor())

	s.MoveCursor(1)
	s.Backspace() // nothing before the cursor
	require.Equal(t, "ab", s.Input().String())
	require.Equal(t, 1, s.Cursor())
}

func TestDeleteForward(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("abc")
	s.MoveCursor(1)

	s.DeleteForward()
	require.Equal(t, "bc", s.Input().String())
	require.Equal(t, 1, s.Cursor())

	s.MoveCursor(3)
	s.DeleteForward() // cursor past last cluster
	require.Equal(t, "bc", s.Input().String())
}

func TestRemoveRange_CursorShifts(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("abcdef") // cursor at 7

	s.RemoveRange(2, 3)
	require.Equal(t, "adef", s.Input().String())
	require.Equal(t, 5, s.Cursor())

	// Removal straddling the cursor parks it at the removal start.
	s.MoveCursor(3)
	s.RemoveRange(2, 4)
	require.Equal(t, "a", s.Input().String())
	require.Equal(t, 2, s.Cursor())
}

func TestMoveCursor_Clamps(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("abc")

	s.MoveCursor(-4)
	require.Equal(t, 1, s.Cursor())
	s.MoveCursor(99)
	require.Equal(t, 4, s.Cursor())
	s.MoveCursorBy(-2)
	require.Equal(t, 2, s.Cursor())
}

// ============================================================================
// Execute
// ============================================================================

func TestExecute_EmptyInputPrintsBlankLine(t *testing.T) {
	s := newTestSession(echoEval{}, nil)

	s.Execute()

	require.Len(t, s.Outputs(), 1)
	require.Equal(t, "", s.Outputs()[0].Buf.String())
	require.Equal(t, KindResult, s.Outputs()[0].Kind)
	require.Equal(t, "", s.Input().String())
	require.Equal(t, 1, s.Cursor())
}

func TestExecute_FreezesInputInHistory(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("1+2")

	s.Execute()

	require.Len(t, s.Outputs(), 2)
	frozen := s.Outputs()[0]
	require.Equal(t, KindEcho, frozen.Kind)
	require.Equal(t, "1+2", frozen.Buf.String())
	require.Equal(t, KindResult, s.Outputs()[1].Kind)
	require.Equal(t, "1+2", s.Outputs()[1].Buf.String())
	require.Equal(t, "", s.Input().String())
	require.Equal(t, 1, s.Cursor())

	// Typing after execute must never touch the frozen echo buffer.
	s.Insert("zzz")
	require.Equal(t, "1+2", frozen.Buf.String())
}

func TestExecute_ErrorPrintsLikeResult(t *testing.T) {
	s := newTestSession(failEval{}, nil)
	s.Insert("x")

	s.Execute()

	require.Len(t, s.Outputs(), 2)
	require.Equal(t, KindError, s.Outputs()[1].Kind)
	require.Equal(t, "boom: x", s.Outputs()[1].Buf.String())
}

func TestExecute_MultiLineResultSplits(t *testing.T) {
	s := New(width.Fixed{W: 1, H: 1}, multiEval{}, nil, testConfig(), 80)
	s.Insert("in")

	s.Execute()

	require.Len(t, s.Outputs(), 3) // echo + two result lines
	require.Equal(t, "one", s.Outputs()[1].Buf.String())
	require.Equal(t, "two", s.Outputs()[2].Buf.String())
}

type multiEval struct{}

func (multiEval) Evaluate(string) (string, error) { return "one\ntwo", nil }

func TestExecute_Retention(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOutputEntries = 3
	s := New(width.Fixed{W: 1, H: 1}, echoEval{}, nil, cfg, 80)

	s.Insert("a")
	s.Execute() // echo a, result a
	s.Insert("b")
	s.Execute() // echo b, result b -> cap 3 evicts "echo a"

	require.Len(t, s.Outputs(), 3)
	require.Equal(t, "a", s.Outputs()[0].Buf.String())
	require.Equal(t, KindResult, s.Outputs()[0].Kind)
	require.Equal(t, "b", s.Outputs()[1].Buf.String())
	require.Equal(t, KindEcho, s.Outputs()[1].Kind)
}

// ============================================================================
// History recall
// ============================================================================

func TestHistoryRecall(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("first")
	s.Execute()
	s.Insert("second")
	s.Execute()

	s.HistoryPrev()
	require.Equal(t, "second", s.Input().String())
	require.Equal(t, 7, s.Cursor())

	s.HistoryPrev()
	require.Equal(t, "first", s.Input().String())

	s.HistoryNext()
	require.Equal(t, "second", s.Input().String())

	// Walking past the newest entry restores the pending input.
	s.HistoryNext()
	require.Equal(t, "", s.Input().String())
}

// ============================================================================
// Selection and copy
// ============================================================================

// makeOutputs executes the given sources through the echo evaluator. Each
// execute produces an echo entry and a result entry.
func makeOutputs(s *Session, sources ...string) {
	for _, src := range sources {
		s.Insert(src)
		s.Execute()
	}
}

func TestSelectStart_HitTestsByVerticalBand(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	makeOutputs(s, "hello") // entry 0 "hello", entry 1 "hello", each 1 line

	s.SelectStart(2.5, 0.5) // row 0 -> entry 0, third cluster
	sel, ok := s.Selection()
	require.True(t, ok)
	require.Equal(t, BufferRef(0), sel.StartRef)
	require.Equal(t, 3, sel.StartIdx)
}

func TestSelectStart_BelowAllOutputHitsInput(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	makeOutputs(s, "ab")
	s.Insert("xyz")

	s.SelectStart(1.5, 99) // far below everything
	sel, ok := s.Selection()
	require.True(t, ok)
	require.Equal(t, RefInput, sel.StartRef)
	// Selecting in the input relocates the cursor.
	require.Equal(t, 2, s.Cursor())
}

func TestSelectionRange_PartialAndFullBuffers(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	makeOutputs(s, "abcde") // 0:echo abcde, 1:result abcde

	s.SelectStart(1.5, 0.5) // entry 0, idx 2
	s.SelectEnd(2.5, 1.5)   // entry 1, idx 3

	from, to, ok := s.SelectionRange(BufferRef(0))
	require.True(t, ok)
	require.Equal(t, 2, from)
	require.Equal(t, 5, to)

	from, to, ok = s.SelectionRange(BufferRef(1))
	require.True(t, ok)
	require.Equal(t, 1, from)
	require.Equal(t, 3, to)

	_, _, ok = s.SelectionRange(RefInput)
	require.False(t, ok)
}

func TestCopy_AcrossThreeBuffers(t *testing.T) {
	clip := &fakeClipboard{}
	s := newTestSession(echoEval{}, clip)
	makeOutputs(s, "hello") // entries: 0 echo "hello", 1 result "hello"
	s.Insert("tail")

	// Buffer 0 from index 3, buffer 1 in full, input through index 2.
	s.SelectStart(2.5, 0.5)
	s.SelectEnd(1.5, 99)

	text, err := s.Copy()
	require.NoError(t, err)

	want := strings.Join([]string{"llo", "hello", "ta"}, "\n")
	require.Equal(t, want, text)
	require.Equal(t, []string{want}, clip.set)
}

func TestCopy_BackwardDragNormalizes(t *testing.T) {
	clip := &fakeClipboard{}
	s := newTestSession(echoEval{}, clip)
	makeOutputs(s, "abc")

	// Drag upward: start below, end above.
	s.SelectStart(1.5, 1.5) // entry 1 idx 2
	s.SelectEnd(0.5, 0.5)   // entry 0 idx 1

	text, err := s.Copy()
	require.NoError(t, err)
	require.Equal(t, "abc\nab", text)
}

func TestCopy_WithinSingleBuffer(t *testing.T) {
	clip := &fakeClipboard{}
	s := newTestSession(echoEval{}, clip)
	makeOutputs(s, "abcdef")

	s.SelectStart(1.5, 0.5) // idx 2
	s.SelectEnd(3.5, 0.5)   // idx 4

	text, err := s.Copy()
	require.NoError(t, err)
	require.Equal(t, "bcd", text)
}

func TestCopy_NoSelectionIsNoop(t *testing.T) {
	clip := &fakeClipboard{}
	s := newTestSession(echoEval{}, clip)

	text, err := s.Copy()
	require.NoError(t, err)
	require.Equal(t, "", text)
	require.Empty(t, clip.set)
}

func TestHasVisibleSelection_CollapsedInputSelectionIsInvisible(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	s.Insert("abc")

	s.SelectStart(0.5, 0.5)
	require.False(t, s.HasVisibleSelection())

	s.SelectEnd(2.5, 0.5)
	require.True(t, s.HasVisibleSelection())
}

func TestSelection_ClearedWhenEndpointEvicted(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOutputEntries = 2
	s := New(width.Fixed{W: 1, H: 1}, echoEval{}, nil, cfg, 80)
	makeOutputs(s, "aa") // entries: echo, result

	s.SelectStart(0.5, 0.5)
	s.SelectEnd(1.5, 1.5)
	require.True(t, s.HasVisibleSelection())

	makeOutputs(s, "bb") // eviction drops both old entries

	_, ok := s.Selection()
	require.False(t, ok)
}

func TestPaste_InsertsClipboardAtCursor(t *testing.T) {
	clip := &fakeClipboard{text: "clip"}
	s := newTestSession(echoEval{}, clip)
	s.Insert("ab")
	s.MoveCursor(2)

	s.Paste()
	require.Equal(t, "aclipb", s.Input().String())
	require.Equal(t, 6, s.Cursor())
}

func TestPaste_CopiedMultiBufferTextStaysOneRow(t *testing.T) {
	clip := &fakeClipboard{}
	s := newTestSession(echoEval{}, clip)
	makeOutputs(s, "abc")

	// Copy across both output buffers, then paste the joined text back.
	s.SelectStart(0.5, 0.5)
	s.SelectEnd(2.5, 1.5)
	text, err := s.Copy()
	require.NoError(t, err)
	require.Equal(t, "abc\nabc", text)

	clip.text = text
	s.ClearSelection()
	s.Paste()

	require.Equal(t, "abc abc", s.Input().String())
	require.Equal(t, 1, s.Input().LineCount())
	// Height accounting must match the single-row input, or every later
	// mouse press would hit-test into the wrong buffer.
	require.Equal(t, 3.0, s.Height())
}

// ============================================================================
// Re-layout
// ============================================================================

func TestSetMaxWidth_RewrapsAllBuffers(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	makeOutputs(s, "abcdefgh")
	s.Insert("12345678")

	s.SetMaxWidth(4)

	require.Equal(t, 2, s.Outputs()[0].Buf.LineCount())
	require.Equal(t, 2, s.Input().LineCount())
	// Heights feed the hit test, so they must follow the re-wrap.
	require.Equal(t, 6.0, s.Height())
}

func TestSetOracle_RewrapsAllBuffers(t *testing.T) {
	s := newTestSession(echoEval{}, nil)
	makeOutputs(s, "abcd")

	s.SetOracle(width.Fixed{W: 50, H: 2})

	// 50px clusters against an 80px wrap: one cluster per line.
	require.Equal(t, 4, s.Outputs()[0].Buf.LineCount())
}
