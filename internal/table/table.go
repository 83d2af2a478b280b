// Package table holds the grid model shared by the table layout stages.
//
// A Table is built by a parser, validated once, and then mutated in place by
// the border resolver and the width and height solvers before the pagination
// writer reads it.
package table

import (
	"github.com/gompdf/tablelayout/internal/border"
)

// CollapseMode selects between separated and collapsed borders
type CollapseMode int

// Border collapse modes
const (
	Separate CollapseMode = iota
	Collapse
)

// Overflow is the policy for tables wider than the available width
type Overflow int

// Overflow policies
const (
	Visible Overflow = iota
	Hidden
	Wrap
)

// HAlign is the horizontal alignment of cell content
type HAlign int

// Horizontal alignments
const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
	AlignDecimal
)

// VAlign is the vertical alignment of cell content
type VAlign int

// Vertical alignments
const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
	AlignBaseline
)

// Edges holds a value per box side
type Edges struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Horizontal returns left + right
func (e Edges) Horizontal() float64 {
	return e.Left + e.Right
}

// Vertical returns top + bottom
func (e Edges) Vertical() float64 {
	return e.Top + e.Bottom
}

// Gradient is a two-stop linear gradient
type Gradient struct {
	From     border.Color
	To       border.Color
	Vertical bool
}

// Background describes what is painted behind a cell, row or table
type Background struct {
	Color    *border.Color
	Gradient *Gradient
	Image    string
}

// Empty reports whether nothing would be painted
func (b Background) Empty() bool {
	return b.Color == nil && b.Gradient == nil && b.Image == ""
}

// Cell is a table cell stored at its span origin
type Cell struct {
	Content any
	Nested  *Table

	Colspan int
	Rowspan int

	Width        float64
	Height       float64
	PercentWidth float64

	HAlign HAlign
	VAlign VAlign

	Padding    Edges
	Background Background
	Border     [4]border.Descriptor

	// KeepTogether forbids a page break inside the cell's rows
	KeepTogether bool

	// Computed by the solvers
	MinWidth      float64
	MaxWidth      float64
	ComputedWidth float64
	MinHeight     float64
	ContentHeight float64
	Weight        float64

	// Slot geometry relative to the table origin
	X0, Y0 float64
	W0, H0 float64

	Row int
	Col int
}

// NewCell creates a cell with the given content and unit spans
func NewCell(content any) *Cell {
	return &Cell{
		Content: content,
		Colspan: 1,
		Rowspan: 1,
	}
}

// HasWidth reports whether the cell declares an explicit width
func (c *Cell) HasWidth() bool {
	return c.Width > 0
}

// Row is per-row state
type Row struct {
	Height          float64
	SpecifiedHeight float64
	Header          bool
	Footer          bool
	KeepWithNext    bool
	Background      Background
}

// Column is per-column state
type Column struct {
	MinWidth float64
	MaxWidth float64
	// DeclaredWidth is the outer width given by a <col> element
	DeclaredWidth float64
	// SpecifiedWidth is DeclaredWidth raised to the widest cell width
	// declared in the column. The width solver derives it on every pass.
	SpecifiedWidth float64
	PercentWidth   float64
	Width          float64
	Weight         float64
}

// Table is a grid of cells with its sizing state
type Table struct {
	Rows    []*Row
	Columns []*Column
	Cells   [][]*Cell

	Collapse CollapseMode
	Border   [4]border.Descriptor
	Margin   Edges
	Padding  Edges
	SpacingH float64
	SpacingV float64

	Width        float64
	WidthPercent float64
	Background   Background
	Level        int
	Overflow     Overflow
	Rotated      bool

	// AttributeBorders is set when borders come from the border attribute
	// rather than from CSS.
	AttributeBorders bool
	KeepProportions  bool
	TopNTail         *border.Descriptor
	HeaderUnderline  *border.Descriptor

	// MaxCellBorder is the widest border share reaching each table edge,
	// indexed by border.Side.
	MaxCellBorder [4]float64

	// Collapsed edge grid: HEdges[rows+1][cols], VEdges[rows][cols+1]
	HEdges [][]border.Descriptor
	VEdges [][]border.Descriptor

	owner  [][]*Cell
	groups []int
	xs     []float64
	ys     []float64
}

// New creates an empty table with the given grid dimensions
func New(rows, cols int) *Table {
	t := &Table{
		Rows:    make([]*Row, rows),
		Columns: make([]*Column, cols),
		Cells:   make([][]*Cell, rows),
		Level:   1,
	}
	for i := range t.Rows {
		t.Rows[i] = &Row{}
		t.Cells[i] = make([]*Cell, cols)
	}
	for i := range t.Columns {
		t.Columns[i] = &Column{}
	}
	return t
}

// RowCount returns the number of grid rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of grid columns
func (t *Table) ColCount() int {
	return len(t.Columns)
}

// Place stores a cell at its span origin
func (t *Table) Place(row, col int, c *Cell) *Cell {
	if c.Colspan < 1 {
		c.Colspan = 1
	}
	if c.Rowspan < 1 {
		c.Rowspan = 1
	}
	c.Row, c.Col = row, col
	t.Cells[row][col] = c
	t.owner = nil
	return c
}

// Each calls fn for every span origin in row-major order
func (t *Table) Each(fn func(c *Cell)) {
	for _, row := range t.Cells {
		for _, c := range row {
			if c != nil {
				fn(c)
			}
		}
	}
}

// IsHeader reports whether row r repeats at the top of each page
func (t *Table) IsHeader(r int) bool {
	return r >= 0 && r < len(t.Rows) && t.Rows[r].Header
}

// IsFooter reports whether row r repeats at the bottom of each page
func (t *Table) IsFooter(r int) bool {
	return r >= 0 && r < len(t.Rows) && t.Rows[r].Footer
}

// HeaderRows returns the header row indexes in order
func (t *Table) HeaderRows() []int {
	var rows []int
	for i, r := range t.Rows {
		if r.Header {
			rows = append(rows, i)
		}
	}
	return rows
}

// FooterRows returns the footer row indexes in order
func (t *Table) FooterRows() []int {
	var rows []int
	for i, r := range t.Rows {
		if r.Footer {
			rows = append(rows, i)
		}
	}
	return rows
}

// BodyRows returns the rows that are neither header nor footer
func (t *Table) BodyRows() []int {
	var rows []int
	for i, r := range t.Rows {
		if !r.Header && !r.Footer {
			rows = append(rows, i)
		}
	}
	return rows
}

// Frame returns the space the table occupies outside its column and row
// sums, per side.
func (t *Table) Frame() Edges {
	if t.Collapse == Collapse {
		return Edges{
			Top:    t.MaxCellBorder[border.Top],
			Right:  t.MaxCellBorder[border.Right],
			Bottom: t.MaxCellBorder[border.Bottom],
			Left:   t.MaxCellBorder[border.Left],
		}
	}
	return Edges{
		Top:    t.Border[border.Top].Effective() + t.Padding.Top + t.SpacingV/2,
		Right:  t.Border[border.Right].Effective() + t.Padding.Right + t.SpacingH/2,
		Bottom: t.Border[border.Bottom].Effective() + t.Padding.Bottom + t.SpacingV/2,
		Left:   t.Border[border.Left].Effective() + t.Padding.Left + t.SpacingH/2,
	}
}
