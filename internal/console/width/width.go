// Package width defines the measurement boundary between the console core and
// whatever renders it. The buffer never inspects glyphs itself; every pixel
// quantity it reasons about comes from an Oracle.
package width

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Oracle reports rendered text metrics. Measure must be monotonic
// non-decreasing in prefix length for a fixed line so that wrap points are
// well defined.
type Oracle interface {
	// Measure returns the rendered width in pixels of a single grapheme
	// cluster.
	Measure(cluster string) float64

	// LineHeight returns the vertical extent of one rendered line in pixels.
	LineHeight() float64
}

// MeasureAll sums the widths of a slice of clusters under the given oracle.
func MeasureAll(o Oracle, clusters []string) float64 {
	var w float64
	for _, c := range clusters {
		w += o.Measure(c)
	}
	return w
}

// MeasureString segments s into grapheme clusters and sums their widths.
func MeasureString(o Oracle, s string) float64 {
	var w float64
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.StepString(s, state)
		w += o.Measure(cluster)
	}
	return w
}

// CellOracle maps clusters to terminal cells via go-runewidth, scaled by a
// configurable cell size. With CellWidth and CellHeight of 1 the pixel space
// is the terminal cell grid, which is what the bubbletea adapter uses.
type CellOracle struct {
	CellWidth  float64
	CellHeight float64
}

// NewCellOracle returns a CellOracle with the given cell metrics. Non-positive
// metrics are replaced with 1.
func NewCellOracle(cellWidth, cellHeight float64) CellOracle {
	if cellWidth <= 0 {
		cellWidth = 1
	}
	if cellHeight <= 0 {
		cellHeight = 1
	}
	return CellOracle{CellWidth: cellWidth, CellHeight: cellHeight}
}

func (o CellOracle) Measure(cluster string) float64 {
	return float64(runewidth.StringWidth(cluster)) * o.CellWidth
}

func (o CellOracle) LineHeight() float64 {
	return o.CellHeight
}

// Fixed is an oracle where every cluster has the same width. It exists for
// tests and headless hosts that want deterministic geometry.
type Fixed struct {
	W float64
	H float64
}

func (f Fixed) Measure(string) float64 { return f.W }

func (f Fixed) LineHeight() float64 { return f.H }
