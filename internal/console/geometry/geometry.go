// Package geometry produces the outline of a multi-line selection highlight.
//
// A selection over visually wrapped lines is not a rectangle. Depending on
// where its endpoints fall relative to the line edges it is one of five
// shapes, enumerated by Kind. The case analysis is explicit because this is
// the part of a console widget most prone to off-by-one and orientation bugs;
// every branch has a dedicated test.
package geometry

// Point is a position in pixel space. Y grows downward.
type Point struct {
	X float64
	Y float64
}

// Kind identifies which of the five selection shapes applies.
type Kind int

const (
	// KindSingleRow is one rectangle on a single row.
	KindSingleRow Kind = iota

	// KindDisjointRows is two rectangles on adjacent rows whose horizontal
	// extents do not overlap.
	KindDisjointRows

	// KindFullBlock is one rectangle covering every row edge to edge.
	KindFullBlock

	// KindLeftAligned is an "L": the start sits on the left edge, so every
	// row is full width except the last.
	KindLeftAligned

	// KindRightAligned is an "L": the end sits on the right edge, so every
	// row is full width except the first.
	KindRightAligned

	// KindZigzag is the general multi-row "Z": partial first row, full
	// middle rows, partial last row.
	KindZigzag
)

func (k Kind) String() string {
	switch k {
	case KindSingleRow:
		return "single-row"
	case KindDisjointRows:
		return "disjoint-rows"
	case KindFullBlock:
		return "full-block"
	case KindLeftAligned:
		return "left-aligned"
	case KindRightAligned:
		return "right-aligned"
	case KindZigzag:
		return "zigzag"
	default:
		return "unknown"
	}
}

// Shape is a selection outline: one or two closed polygons. The edge from the
// last point back to the first is implied.
type Shape struct {
	Kind     Kind
	Outlines [][]Point
}

// Outline computes the selection outline for a normalized selection.
//
// startX is the left boundary of the selection on startRow, endX the right
// boundary on endRow (both in pixels from the line's left edge). startRow and
// endRow are 0-based visual rows with startRow <= endRow. rowHeight is the
// line height and bufferWidth the wrap width of the buffer.
func Outline(startX float64, startRow int, endX float64, endRow int, rowHeight, bufferWidth float64) Shape {
	top := float64(startRow) * rowHeight
	firstBottom := float64(startRow+1) * rowHeight
	lastTop := float64(endRow) * rowHeight
	bottom := float64(endRow+1) * rowHeight

	switch {
	case startRow == endRow:
		return Shape{
			Kind:     KindSingleRow,
			Outlines: [][]Point{rect(startX, top, endX, bottom)},
		}

	case endRow == startRow+1 && endX <= startX:
		// The top segment [startX, bufferWidth] and the bottom segment
		// [0, endX] share no horizontal span. One polygon would
		// self-intersect, so the highlight is two rectangles.
		return Shape{
			Kind: KindDisjointRows,
			Outlines: [][]Point{
				rect(startX, top, bufferWidth, firstBottom),
				rect(0, lastTop, endX, bottom),
			},
		}

	case startX <= 0 && endX >= bufferWidth:
		return Shape{
			Kind:     KindFullBlock,
			Outlines: [][]Point{rect(0, top, bufferWidth, bottom)},
		}

	case startX <= 0:
		// Full rows down to the last, which stops at endX.
		return Shape{
			Kind: KindLeftAligned,
			Outlines: [][]Point{{
				{0, top},
				{bufferWidth, top},
				{bufferWidth, lastTop},
				{endX, lastTop},
				{endX, bottom},
				{0, bottom},
			}},
		}

	case endX >= bufferWidth:
		// Partial first row, then full rows to the bottom.
		return Shape{
			Kind: KindRightAligned,
			Outlines: [][]Point{{
				{startX, top},
				{bufferWidth, top},
				{bufferWidth, bottom},
				{0, bottom},
				{0, firstBottom},
				{startX, firstBottom},
			}},
		}

	default:
		return Shape{
			Kind: KindZigzag,
			Outlines: [][]Point{{
				{startX, top},
				{bufferWidth, top},
				{bufferWidth, lastTop},
				{endX, lastTop},
				{endX, bottom},
				{0, bottom},
				{0, firstBottom},
				{startX, firstBottom},
			}},
		}
	}
}

func rect(x0, y0, x1, y1 float64) []Point {
	return []Point{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}
