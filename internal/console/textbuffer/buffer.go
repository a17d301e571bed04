// Package textbuffer implements the reflowing text buffer at the heart of the
// console widget.
//
// Unit model: the buffer stores grapheme clusters, never bytes or runes. A
// Line is a slice of clusters that fits the wrap width; wrapping is purely
// visual, so the logical content of the buffer is the concatenation of all
// lines with no separators. Positions use 1-based global logical indices at
// the API boundary: index i names the i-th cluster, and length+1 names the
// end of text.
//
// All horizontal quantities are pixels as defined by the injected
// width.Oracle. With a cell oracle the pixel space degenerates to the
// terminal cell grid.
package textbuffer

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/zjrosen/conch/internal/console/width"
	"github.com/zjrosen/conch/internal/log"
)

// DefaultReplacement substitutes undecodable byte runs during Insert.
const DefaultReplacement = "?"

// ConsistencyChecks enables the post-mutation invariant check. It is switched
// on together with --debug; a failed check is a programming defect and is
// logged, never returned.
var ConsistencyChecks bool

// Position is a (row, column) location inside the buffer. Row is a 0-based
// visual line index; Col is a 1-based cluster index within that row, with
// len(line)+1 meaning "after the last cluster".
type Position struct {
	Row int
	Col int
}

// Buffer is a sequence of visually wrapped lines kept consistent with a
// mutable wrap width and a width oracle. The zero value is not usable; use
// New.
type Buffer struct {
	oracle      width.Oracle
	maxWidth    float64
	replacement string

	lines  [][]string
	length int

	// offsets[row][col] is the pixel offset of the col-th cluster's left
	// edge within its row; offsets[row][len(line)] is the row's full
	// width. Rebuilt lazily after structural or metric changes.
	offsets [][]float64
	dirty   bool
}

// New returns an empty buffer with a single empty line.
func New(o width.Oracle, maxWidth float64, replacement string) *Buffer {
	if replacement == "" {
		replacement = DefaultReplacement
	}
	return &Buffer{
		oracle:      o,
		maxWidth:    maxWidth,
		replacement: replacement,
		lines:       [][]string{{}},
		dirty:       true,
	}
}

// Len returns the total cluster count.
func (b *Buffer) Len() int { return b.length }

// LineCount returns the number of visual lines. Always at least 1.
func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns the clusters of the given row. The returned slice is the
// buffer's own storage; callers must not mutate it.
func (b *Buffer) Line(row int) []string {
	if row < 0 || row >= len(b.lines) {
		return nil
	}
	return b.lines[row]
}

// MaxWidth returns the current wrap width in pixels.
func (b *Buffer) MaxWidth() float64 { return b.maxWidth }

// Height returns the rendered height of the buffer in pixels.
func (b *Buffer) Height() float64 {
	return float64(len(b.lines)) * b.oracle.LineHeight()
}

// SetMaxWidth changes the wrap width and reflows the whole buffer.
func (b *Buffer) SetMaxWidth(w float64) {
	if w == b.maxWidth {
		return
	}
	b.maxWidth = w
	b.reflowAll()
}

// SetOracle swaps the width oracle (font change) and reflows the whole
// buffer.
func (b *Buffer) SetOracle(o width.Oracle) {
	b.oracle = o
	b.reflowAll()
}

func (b *Buffer) reflowAll() {
	// Collapse to one line, then let expand re-partition everything.
	if len(b.lines) > 1 {
		joined := b.lines[0]
		for _, line := range b.lines[1:] {
			joined = append(joined, line...)
		}
		b.lines = [][]string{joined}
	}
	b.expand(0)
	b.dirty = true
	b.check("reflowAll")
}

// Insert inserts text at the 1-based logical index i, clamped to
// [1, length+1]. Undecodable byte runs are substituted: one replacement
// cluster per maximal run of bad bytes. The insertion point's row is then
// reflowed forward.
func (b *Buffer) Insert(text string, i int) {
	clusters := b.decode(text)
	if len(clusters) == 0 {
		return
	}
	if i < 1 {
		i = 1
	}
	if i > b.length+1 {
		i = b.length + 1
	}

	pos := b.locate(i)
	row, col := pos.Row, pos.Col-1
	line := b.lines[row]
	next := make([]string, 0, len(line)+len(clusters))
	next = append(next, line[:col]...)
	next = append(next, clusters...)
	next = append(next, line[col:]...)
	b.lines[row] = next
	b.length += len(clusters)

	b.expand(row)
	b.dirty = true
	b.check("Insert")
}

// Append inserts text at the end of the buffer.
func (b *Buffer) Append(text string) {
	b.Insert(text, b.length+1)
}

// Remove deletes the closed logical range [min(i,j), max(i,j)]. A start
// index outside [1, length] makes the call a no-op; the end is clamped.
func (b *Buffer) Remove(i, j int) {
	if i > j {
		i, j = j, i
	}
	if i < 1 || i > b.length {
		return
	}
	if j > b.length {
		j = b.length
	}

	start := b.locate(i)
	end := b.locate(j)
	sr, sc := start.Row, start.Col-1
	er, ec := end.Row, end.Col-1

	if sr == er {
		line := b.lines[sr]
		b.lines[sr] = append(line[:sc], line[ec+1:]...)
	} else {
		b.lines[sr] = b.lines[sr][:sc]
		b.lines[er] = b.lines[er][ec+1:]
		b.lines = append(b.lines[:sr+1], b.lines[er:]...)
	}
	b.length -= j - i + 1

	b.shrink(sr)
	b.dirty = true
	b.check("Remove")
}

// decode splits text into grapheme clusters. Each maximal run of bytes that
// does not begin a valid UTF-8 sequence collapses into one replacement
// cluster, and decoding resumes after it.
func (b *Buffer) decode(text string) []string {
	var out []string
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		if r == utf8.RuneError && size <= 1 {
			text = text[1:]
			for len(text) > 0 {
				r2, s2 := utf8.DecodeRuneInString(text)
				if r2 != utf8.RuneError || s2 > 1 {
					break
				}
				text = text[1:]
			}
			out = append(out, b.replacement)
			continue
		}

		// Maximal valid prefix, segmented into clusters.
		end := 0
		for end < len(text) {
			r2, s2 := utf8.DecodeRuneInString(text[end:])
			if r2 == utf8.RuneError && s2 <= 1 {
				break
			}
			end += s2
		}
		valid := text[:end]
		text = text[end:]
		state := -1
		for len(valid) > 0 {
			var cluster string
			cluster, valid, _, state = uniseg.StepString(valid, state)
			out = append(out, cluster)
		}
	}
	return out
}

// expand repairs the too-wide violation after an insert: from startRow
// forward, while a line overflows maxWidth, its last cluster moves to the
// front of the next line (created if missing). Stops at the first row that
// fits and pushed nothing.
func (b *Buffer) expand(startRow int) {
	if startRow < 0 {
		startRow = 0
	}
	for row := startRow; row < len(b.lines); row++ {
		pushed := false
		// A single cluster wider than maxWidth stays put, or the loop
		// would never terminate.
		for len(b.lines[row]) > 1 && b.lineWidth(row) > b.maxWidth {
			last := len(b.lines[row]) - 1
			c := b.lines[row][last]
			b.lines[row] = b.lines[row][:last]
			if row == len(b.lines)-1 {
				b.lines = append(b.lines, []string{})
			}
			b.lines[row+1] = append([]string{c}, b.lines[row+1]...)
			pushed = true
		}
		if !pushed {
			break
		}
	}
}

// shrink repairs the too-narrow case after a removal: from startRow forward,
// each row pulls clusters from the front of the following lines for as long
// as the pull keeps the row's width strictly under maxWidth. Lines emptied by
// pulling (or by the removal itself) are deleted afterwards.
//
// The strict less-than admission mirrors expand's strict greater-than
// eviction, so the two never oscillate.
func (b *Buffer) shrink(startRow int) {
	if startRow < 0 {
		startRow = 0
	}
	for row := startRow; row < len(b.lines)-1; row++ {
		next := row + 1
		for next < len(b.lines) {
			if len(b.lines[next]) == 0 {
				next++
				continue
			}
			c := b.lines[next][0]
			if b.lineWidth(row)+b.oracle.Measure(c) >= b.maxWidth {
				break
			}
			b.lines[row] = append(b.lines[row], c)
			b.lines[next] = b.lines[next][1:]
		}
	}

	kept := b.lines[:0]
	for _, line := range b.lines {
		if len(line) > 0 {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, []string{})
	}
	b.lines = kept
}

func (b *Buffer) lineWidth(row int) float64 {
	return width.MeasureAll(b.oracle, b.lines[row])
}

// ToString reconstructs the literal text of the closed logical range [i, j],
// clamped to the buffer. Wrapped rows concatenate without separators.
func (b *Buffer) ToString(i, j int) string {
	if b.length == 0 {
		return ""
	}
	if i < 1 {
		i = 1
	}
	if j > b.length {
		j = b.length
	}
	if i > j {
		return ""
	}

	start := b.locate(i)
	end := b.locate(j)
	var sb strings.Builder
	for row := start.Row; row <= end.Row; row++ {
		line := b.lines[row]
		lo, hi := 0, len(line)
		if row == start.Row {
			lo = start.Col - 1
		}
		if row == end.Row {
			hi = end.Col
		}
		for _, c := range line[lo:hi] {
			sb.WriteString(c)
		}
	}
	return sb.String()
}

// String returns the whole buffer's text.
func (b *Buffer) String() string {
	return b.ToString(1, b.length)
}

// check verifies the structural invariants after a mutation. Violations are
// defects, not runtime conditions; they are logged and never returned.
func (b *Buffer) check(op string) {
	if !ConsistencyChecks {
		return
	}
	total := 0
	for _, line := range b.lines {
		total += len(line)
	}
	if total != b.length {
		log.Error(log.CatBuffer, "length invariant violated",
			"op", op, "length", b.length, "sum", total)
	}
	for row := 0; row < len(b.lines)-1; row++ {
		if len(b.lines[row]) > 1 && b.lineWidth(row) > b.maxWidth {
			log.Error(log.CatBuffer, "width invariant violated",
				"op", op, "row", row, "width", b.lineWidth(row), "max", b.maxWidth)
		}
		if len(b.lines[row]) == 0 {
			log.Error(log.CatBuffer, "empty interior line", "op", op, "row", row)
		}
	}
}
