package pagination

import (
	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/table"
)

// PageSize represents standard page sizes
type PageSize struct {
	Width  float64
	Height float64
	Name   string
}

// Standard page sizes in points (1/72 inch)
var (
	PageSizeA4     = PageSize{Width: 595.28, Height: 841.89, Name: "A4"}
	PageSizeLetter = PageSize{Width: 612.00, Height: 792.00, Name: "Letter"}
	PageSizeLegal  = PageSize{Width: 612.00, Height: 1008.00, Name: "Legal"}
	PageSizeA3     = PageSize{Width: 841.89, Height: 1190.55, Name: "A3"}
	PageSizeA5     = PageSize{Width: 419.53, Height: 595.28, Name: "A5"}
)

// PageSizeByName looks up a standard page size, case-sensitively
func PageSizeByName(name string) (PageSize, bool) {
	for _, s := range []PageSize{PageSizeA4, PageSizeLetter, PageSizeLegal, PageSizeA3, PageSizeA5} {
		if s.Name == name {
			return s, true
		}
	}
	return PageSize{}, false
}

// Landscape returns the size with width and height swapped
func (s PageSize) Landscape() PageSize {
	return PageSize{Width: s.Height, Height: s.Width, Name: s.Name}
}

// Margins represents page margins
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// ContentWidth returns the usable width of a page
func (m Margins) ContentWidth(size PageSize) float64 {
	return size.Width - m.Left - m.Right
}

// ContentHeight returns the usable height of a page
func (m Margins) ContentHeight(size PageSize) float64 {
	return size.Height - m.Top - m.Bottom
}

// Cursor is a position on the current page or column
type Cursor struct {
	X float64
	Y float64
}

// Painter draws fills and lines
type Painter interface {
	FillRect(x, y, w, h float64, bg table.Background)
	DrawLine(x1, y1, x2, y2, width float64, color border.Color, style border.Style)
}

// ContentDrawer lays out and draws cell content inside a box and returns
// the height it used.
type ContentDrawer interface {
	DrawContent(content any, x, y, w float64, align table.HAlign) float64
}

// Sink receives the draw commands of a laid out table
type Sink interface {
	Painter
	ContentDrawer
}

// PageFlow hands out pages or columns and reports where the current one
// must break.
type PageFlow interface {
	NewPageOrColumn() (Cursor, error)
	BreakTrigger() float64
}

// Context is the state of one table layout in flight: the cursor and the
// paint commands collected for the current page segment. Give every
// independent layout its own Context.
type Context struct {
	Cursor Cursor
	// RotatedLimit replaces the page-flow break trigger for rotated tables
	RotatedLimit float64
	// Fresh marks a cursor at the top of an empty page or column. A first
	// row that does not fit is then written anyway instead of breaking.
	Fresh bool

	backgrounds []func(Painter)
	borders     []func(Painter)
	content     []func(Sink)
}

// NewContext creates a layout context starting at the given cursor
func NewContext(cursor Cursor) *Context {
	return &Context{Cursor: cursor}
}

// Pending returns the number of collected, unflushed commands
func (c *Context) Pending() int {
	return len(c.backgrounds) + len(c.borders) + len(c.content)
}

// Flush emits collected commands in paint order: backgrounds, then
// borders, then content.
func (c *Context) Flush(s Sink) {
	for _, op := range c.backgrounds {
		op(s)
	}
	for _, op := range c.borders {
		op(s)
	}
	for _, op := range c.content {
		op(s)
	}
	c.backgrounds = c.backgrounds[:0]
	c.borders = c.borders[:0]
	c.content = c.content[:0]
}

// mark returns the lengths of the command lists
func (c *Context) mark() [3]int {
	return [3]int{len(c.backgrounds), len(c.borders), len(c.content)}
}

// rewind drops the commands collected since m
func (c *Context) rewind(m [3]int) {
	c.backgrounds = c.backgrounds[:min(m[0], len(c.backgrounds))]
	c.borders = c.borders[:min(m[1], len(c.borders))]
	c.content = c.content[:min(m[2], len(c.content))]
}

func (c *Context) background(op func(Painter)) {
	c.backgrounds = append(c.backgrounds, op)
}

// backgroundAt inserts op before the backgrounds collected since mark, so
// a table's own background stays behind its rows and cells.
func (c *Context) backgroundAt(mark int, op func(Painter)) {
	if mark > len(c.backgrounds) {
		mark = len(c.backgrounds)
	}
	c.backgrounds = append(c.backgrounds, nil)
	copy(c.backgrounds[mark+1:], c.backgrounds[mark:])
	c.backgrounds[mark] = op
}

func (c *Context) border(op func(Painter)) {
	c.borders = append(c.borders, op)
}

func (c *Context) drawContent(op func(Sink)) {
	c.content = append(c.content, op)
}
