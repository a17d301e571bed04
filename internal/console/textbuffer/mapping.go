package textbuffer

import (
	"math"

	"github.com/zjrosen/conch/internal/console/geometry"
)

// ColRow maps a 1-based global index, clamped to [1, length+1], to its
// (row, column) position. length+1 maps to the slot after the last cluster.
func (b *Buffer) ColRow(i int) Position {
	if i < 1 {
		i = 1
	}
	if i > b.length+1 {
		i = b.length + 1
	}
	return b.locate(i)
}

// locate is ColRow without clamping; callers guarantee i in [1, length+1].
func (b *Buffer) locate(i int) Position {
	rem := i
	for row, line := range b.lines {
		if rem <= len(line) {
			return Position{Row: row, Col: rem}
		}
		rem -= len(line)
	}
	last := len(b.lines) - 1
	return Position{Row: last, Col: len(b.lines[last]) + 1}
}

// rowStart returns the global index of the first cluster of row.
func (b *Buffer) rowStart(row int) int {
	start := 1
	for r := 0; r < row; r++ {
		start += len(b.lines[r])
	}
	return start
}

// rebuildOffsets recomputes the per-cluster horizontal offset table. It runs
// before any pixel query and is a no-op while the cache is clean.
func (b *Buffer) rebuildOffsets() {
	if !b.dirty {
		return
	}
	b.offsets = b.offsets[:0]
	for _, line := range b.lines {
		offs := make([]float64, len(line)+1)
		var x float64
		for k, c := range line {
			offs[k] = x
			x += b.oracle.Measure(c)
		}
		offs[len(line)] = x
		b.offsets = append(b.offsets, offs)
	}
	b.dirty = false
}

// MouseToIdx maps a pointer position in buffer-local pixels to the nearest
// logical index. y outside the buffer clamps to the first or last row; x < 0
// yields the row's first index; x past the row's end yields the index after
// its last cluster.
func (b *Buffer) MouseToIdx(x, y float64) int {
	b.rebuildOffsets()

	row := int(math.Floor(y / b.oracle.LineHeight()))
	if row < 0 {
		row = 0
	}
	if row >= len(b.lines) {
		row = len(b.lines) - 1
	}

	start := b.rowStart(row)
	if x < 0 {
		return start
	}
	line := b.lines[row]
	offs := b.offsets[row]
	for col := 0; col < len(line); col++ {
		if x < offs[col+1] {
			return start + col
		}
	}
	return start + len(line)
}

// OffsetAt returns the pixel position of the left edge of the slot named by
// the 1-based index i (clamped to [1, length+1]). This is where a cursor at
// i renders.
func (b *Buffer) OffsetAt(i int) (x, y float64) {
	b.rebuildOffsets()
	pos := b.ColRow(i)
	return b.offsets[pos.Row][pos.Col-1], float64(pos.Row) * b.oracle.LineHeight()
}

// SelectionShape computes the highlight outline for the closed logical range
// [i, j] (normalized, clamped). The second return is false when the buffer is
// empty or the range collapses to nothing.
func (b *Buffer) SelectionShape(i, j int) (geometry.Shape, bool) {
	if b.length == 0 {
		return geometry.Shape{}, false
	}
	if i > j {
		i, j = j, i
	}
	if i < 1 {
		i = 1
	}
	if j > b.length {
		j = b.length
	}
	if i > j {
		return geometry.Shape{}, false
	}

	b.rebuildOffsets()
	start := b.locate(i)
	end := b.locate(j)
	startX := b.offsets[start.Row][start.Col-1]
	endX := b.offsets[end.Row][end.Col] // right edge of the end cluster
	return geometry.Outline(startX, start.Row, endX, end.Row,
		b.oracle.LineHeight(), b.maxWidth), true
}
