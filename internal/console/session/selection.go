package session

import (
	"strings"

	"github.com/zjrosen/conch/internal/console/textbuffer"
	"github.com/zjrosen/conch/internal/log"
)

// bufferAt resolves a handle to its buffer.
func (s *Session) bufferAt(ref BufferRef) *textbuffer.Buffer {
	if ref == RefInput {
		return s.input
	}
	return s.outputs[ref].Buf
}

// refOrder gives document order: outputs oldest first, input last.
func (s *Session) refOrder(ref BufferRef) int {
	if ref == RefInput {
		return len(s.outputs)
	}
	return int(ref)
}

// hitTest maps a console-local y coordinate to the buffer whose vertical
// band contains it, via cumulative height subtraction. Coordinates below all
// output land in the input buffer.
func (s *Session) hitTest(y float64) (BufferRef, float64) {
	for i, e := range s.outputs {
		h := e.Buf.Height()
		if y < h {
			return BufferRef(i), y
		}
		y -= h
	}
	return RefInput, y
}

// SelectStart anchors a selection at the console-local pixel position (x, y).
// Selecting in the input buffer also relocates the cursor.
func (s *Session) SelectStart(x, y float64) {
	ref, localY := s.hitTest(y)
	idx := s.bufferAt(ref).MouseToIdx(x, localY)
	s.sel = &Selection{StartIdx: idx, StartRef: ref, EndIdx: idx, EndRef: ref}
	if ref == RefInput {
		s.MoveCursor(idx)
	}
	log.Debug(log.CatSession, "selection start", "ref", ref, "idx", idx)
}

// SelectEnd moves the active selection's free end to (x, y). Without a prior
// SelectStart it is a no-op.
func (s *Session) SelectEnd(x, y float64) {
	if s.sel == nil {
		return
	}
	ref, localY := s.hitTest(y)
	idx := s.bufferAt(ref).MouseToIdx(x, localY)
	s.sel.EndIdx = idx
	s.sel.EndRef = ref
	if ref == RefInput {
		s.MoveCursor(idx)
	}
}

// ClearSelection drops the active selection.
func (s *Session) ClearSelection() { s.sel = nil }

// Selection returns the active selection in drag order, or false when none
// is active.
func (s *Session) Selection() (Selection, bool) {
	if s.sel == nil {
		return Selection{}, false
	}
	return *s.sel, true
}

// Normalized returns the selection with its ends in document order.
func (s *Session) Normalized() (Selection, bool) {
	sel, ok := s.Selection()
	if !ok {
		return Selection{}, false
	}
	so, eo := s.refOrder(sel.StartRef), s.refOrder(sel.EndRef)
	if so > eo || (so == eo && sel.StartIdx > sel.EndIdx) {
		sel.StartIdx, sel.EndIdx = sel.EndIdx, sel.StartIdx
		sel.StartRef, sel.EndRef = sel.EndRef, sel.StartRef
	}
	return sel, true
}

// HasVisibleSelection reports whether the selection should render. A
// collapsed selection inside the input is the "no selection" state.
func (s *Session) HasVisibleSelection() bool {
	sel, ok := s.Selection()
	if !ok {
		return false
	}
	if sel.StartRef == RefInput && sel.EndRef == RefInput && sel.StartIdx == sel.EndIdx {
		return false
	}
	return true
}

// SelectionRange reports the sub-range of the given buffer covered by the
// selection, as closed 1-based [from, to], or false when the buffer is not
// touched. Renderers use this to style cluster runs.
func (s *Session) SelectionRange(ref BufferRef) (from, to int, ok bool) {
	sel, active := s.Normalized()
	if !active || !s.HasVisibleSelection() {
		return 0, 0, false
	}
	order := s.refOrder(ref)
	so, eo := s.refOrder(sel.StartRef), s.refOrder(sel.EndRef)
	if order < so || order > eo {
		return 0, 0, false
	}
	buf := s.bufferAt(ref)
	from, to = 1, buf.Len()
	if order == so {
		from = sel.StartIdx
	}
	if order == eo {
		to = sel.EndIdx
	}
	if from > buf.Len() || to < from {
		return 0, 0, false
	}
	return from, to, true
}

// Copy concatenates the selected text across buffers and hands it to the
// clipboard. The start buffer contributes its tail from the start index, the
// end buffer its head up to the end index, and buffers strictly between
// contribute in full; parts join with a single newline. Returns the copied
// text.
func (s *Session) Copy() (string, error) {
	sel, ok := s.Normalized()
	if !ok || !s.HasVisibleSelection() {
		return "", nil
	}

	so, eo := s.refOrder(sel.StartRef), s.refOrder(sel.EndRef)
	var parts []string
	for order := so; order <= eo; order++ {
		ref := BufferRef(order)
		if order == len(s.outputs) {
			ref = RefInput
		}
		buf := s.bufferAt(ref)
		from, to := 1, buf.Len()
		if order == so {
			from = sel.StartIdx
		}
		if order == eo {
			to = sel.EndIdx
		}
		parts = append(parts, buf.ToString(from, to))
	}

	text := strings.Join(parts, "\n")
	if s.clip != nil {
		if err := s.clip.Set(text); err != nil {
			log.ErrorErr(log.CatSession, "clipboard write failed", err)
			return text, err
		}
	}
	log.Debug(log.CatSession, "copied", "bytes", len(text))
	return text, nil
}
