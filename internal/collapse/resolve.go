// Package collapse resolves border conflicts between adjoining cells and
// the table edge so every shared edge is painted exactly once.
package collapse

import (
	"math"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/table"
)

// Resolve makes all shared edges of a validated table consistent. It only
// reads declared border values, so running it again on a resolved table
// produces the same result.
func Resolve(t *table.Table) {
	if t.RowCount() == 0 || t.ColCount() == 0 || t.Owner(0, 0) == nil {
		return
	}

	reset(t)
	inheritAttributeBorders(t)

	if t.Collapse == table.Separate {
		resolveSeparate(t)
		return
	}

	rows, cols := t.RowCount(), t.ColCount()
	t.HEdges = make([][]border.Descriptor, rows+1)
	for r := range t.HEdges {
		t.HEdges[r] = make([]border.Descriptor, cols)
	}
	t.VEdges = make([][]border.Descriptor, rows)
	for r := range t.VEdges {
		t.VEdges[r] = make([]border.Descriptor, cols+1)
	}

	// lost counts, per cell side, the segments the side did not win
	type key struct {
		cell *table.Cell
		side border.Side
	}
	lost := map[key]int{}
	segs := map[key]int{}

	for r := 0; r <= rows; r++ {
		for c := 0; c < cols; c++ {
			switch {
			case r == 0:
				below := t.Owner(0, c)
				w, who := border.Stronger(t.Border[border.Top], below.Border[border.Top])
				t.HEdges[r][c] = w
				segs[key{below, border.Top}]++
				if who == border.A {
					lost[key{below, border.Top}]++
				}
			case r == rows:
				above := t.Owner(rows-1, c)
				w, who := border.Stronger(above.Border[border.Bottom], t.Border[border.Bottom])
				t.HEdges[r][c] = w
				segs[key{above, border.Bottom}]++
				if who == border.B {
					lost[key{above, border.Bottom}]++
				}
			default:
				above, below := t.Owner(r-1, c), t.Owner(r, c)
				if above == below {
					continue
				}
				w, who := border.Stronger(above.Border[border.Bottom], below.Border[border.Top])
				t.HEdges[r][c] = w
				segs[key{above, border.Bottom}]++
				segs[key{below, border.Top}]++
				if who == border.A {
					lost[key{below, border.Top}]++
				} else {
					lost[key{above, border.Bottom}]++
				}
			}
		}
	}

	for r := 0; r < rows; r++ {
		for c := 0; c <= cols; c++ {
			switch {
			case c == 0:
				right := t.Owner(r, 0)
				w, who := border.Stronger(t.Border[border.Left], right.Border[border.Left])
				t.VEdges[r][c] = w
				segs[key{right, border.Left}]++
				if who == border.A {
					lost[key{right, border.Left}]++
				}
			case c == cols:
				left := t.Owner(r, cols-1)
				w, who := border.Stronger(left.Border[border.Right], t.Border[border.Right])
				t.VEdges[r][c] = w
				segs[key{left, border.Right}]++
				if who == border.B {
					lost[key{left, border.Right}]++
				}
			default:
				left, right := t.Owner(r, c-1), t.Owner(r, c)
				if left == right {
					continue
				}
				w, who := border.Stronger(left.Border[border.Right], right.Border[border.Left])
				t.VEdges[r][c] = w
				segs[key{left, border.Right}]++
				segs[key{right, border.Left}]++
				if who == border.A {
					lost[key{right, border.Left}]++
				} else {
					lost[key{left, border.Right}]++
				}
			}
		}
	}

	applyTopNTail(t)

	t.Each(func(cell *table.Cell) {
		for _, side := range border.Sides {
			k := key{cell, side}
			if segs[k] > 0 && lost[k] == segs[k] {
				cell.Border[side].Suppressed = true
			}
		}
	})
	for _, side := range border.Sides {
		t.Border[side].Suppressed = true
	}

	meetings(t)
	cellSides(t)
	maxCellBorders(t)
}

func reset(t *table.Table) {
	t.HEdges, t.VEdges = nil, nil
	t.MaxCellBorder = [4]float64{}
	for i := range t.Border {
		t.Border[i] = t.Border[i].Edge()
	}
	t.Each(func(c *table.Cell) {
		for i := range c.Border {
			c.Border[i] = c.Border[i].Edge()
		}
	})
}

// inheritAttributeBorders copies the table border into undeclared cell
// sides when borders come from the table's border attribute.
func inheritAttributeBorders(t *table.Table) {
	if !t.AttributeBorders {
		return
	}
	t.Each(func(c *table.Cell) {
		for _, side := range border.Sides {
			if c.Border[side].Declared() || !t.Border[side].Declared() {
				continue
			}
			inherited := t.Border[side].Edge()
			inherited.Width = math.Min(inherited.Width, 1)
			c.Border[side] = inherited
		}
	})
}

// applyTopNTail forces the outer horizontal edges and the section
// boundaries, then the header underline.
func applyTopNTail(t *table.Table) {
	rows := t.RowCount()
	force := func(r int, d border.Descriptor) {
		if r < 0 || r > rows {
			return
		}
		for c := range t.HEdges[r] {
			if r > 0 && r < rows && t.Owner(r-1, c) == t.Owner(r, c) {
				continue
			}
			t.HEdges[r][c] = d.Edge()
		}
	}

	headerEnd := sectionEnd(t, t.HeaderRows())
	footerStart := sectionStart(t, t.FooterRows())

	if t.TopNTail != nil {
		force(0, *t.TopNTail)
		force(rows, *t.TopNTail)
		if headerEnd > 0 && headerEnd < rows {
			force(headerEnd, *t.TopNTail)
		}
		if footerStart > 0 && footerStart < rows {
			force(footerStart, *t.TopNTail)
		}
	}
	if t.HeaderUnderline != nil && headerEnd > 0 && headerEnd < rows {
		force(headerEnd, *t.HeaderUnderline)
	}
}

// HeaderBoundary returns the grid line below the last header row, or 0
func HeaderBoundary(t *table.Table) int {
	return sectionEnd(t, t.HeaderRows())
}

func sectionEnd(_ *table.Table, rows []int) int {
	if len(rows) == 0 {
		return 0
	}
	return rows[len(rows)-1] + 1
}

func sectionStart(t *table.Table, rows []int) int {
	if len(rows) == 0 {
		return t.RowCount()
	}
	return rows[0]
}

// meetings records, at both ends of every segment, the widest
// perpendicular segment meeting it at that grid corner.
func meetings(t *table.Table) {
	rows, cols := t.RowCount(), t.ColCount()
	for r := 0; r <= rows; r++ {
		for c := 0; c < cols; c++ {
			t.HEdges[r][c].Meeting = [2]float64{vertAt(t, r, c), vertAt(t, r, c+1)}
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c <= cols; c++ {
			t.VEdges[r][c].Meeting = [2]float64{horizAt(t, r, c), horizAt(t, r+1, c)}
		}
	}
}

// vertAt is the widest vertical segment touching grid corner (r, c)
func vertAt(t *table.Table, r, c int) float64 {
	w := 0.0
	if r > 0 {
		w = math.Max(w, t.VEdges[r-1][c].Effective())
	}
	if r < t.RowCount() {
		w = math.Max(w, t.VEdges[r][c].Effective())
	}
	return w
}

// horizAt is the widest horizontal segment touching grid corner (r, c)
func horizAt(t *table.Table, r, c int) float64 {
	w := 0.0
	if c > 0 {
		w = math.Max(w, t.HEdges[r][c-1].Effective())
	}
	if c < t.ColCount() {
		w = math.Max(w, t.HEdges[r][c].Effective())
	}
	return w
}

// cellSides copies the resolved widths and corner meetings back onto the
// cell sides that border each segment.
func cellSides(t *table.Table) {
	t.Each(func(cell *table.Cell) {
		top, bottom := cell.Row, cell.Row+cell.Rowspan
		left, right := cell.Col, cell.Col+cell.Colspan

		set := func(side border.Side, collapsed, start, end float64) {
			d := &cell.Border[side]
			d.Collapsed = collapsed
			d.Meeting = [2]float64{start, end}
		}

		wTop, wBottom := 0.0, 0.0
		for c := left; c < right; c++ {
			wTop = math.Max(wTop, t.HEdges[top][c].Effective())
			wBottom = math.Max(wBottom, t.HEdges[bottom][c].Effective())
		}
		wLeft, wRight := 0.0, 0.0
		for r := top; r < bottom; r++ {
			wLeft = math.Max(wLeft, t.VEdges[r][left].Effective())
			wRight = math.Max(wRight, t.VEdges[r][right].Effective())
		}

		set(border.Top, wTop, vertAt(t, top, left), vertAt(t, top, right))
		set(border.Bottom, wBottom, vertAt(t, bottom, left), vertAt(t, bottom, right))
		set(border.Left, wLeft, horizAt(t, top, left), horizAt(t, bottom, left))
		set(border.Right, wRight, horizAt(t, top, right), horizAt(t, bottom, right))
	})

	rows, cols := t.RowCount(), t.ColCount()
	for c := 0; c < cols; c++ {
		t.Border[border.Top].Collapsed = math.Max(t.Border[border.Top].Collapsed, t.HEdges[0][c].Effective())
		t.Border[border.Bottom].Collapsed = math.Max(t.Border[border.Bottom].Collapsed, t.HEdges[rows][c].Effective())
	}
	for r := 0; r < rows; r++ {
		t.Border[border.Left].Collapsed = math.Max(t.Border[border.Left].Collapsed, t.VEdges[r][0].Effective())
		t.Border[border.Right].Collapsed = math.Max(t.Border[border.Right].Collapsed, t.VEdges[r][cols].Effective())
	}
}

// maxCellBorders stores the widest half border reaching each table edge
func maxCellBorders(t *table.Table) {
	rows, cols := t.RowCount(), t.ColCount()
	var m [4]float64
	for c := 0; c < cols; c++ {
		m[border.Top] = math.Max(m[border.Top], t.HEdges[0][c].Effective()/2)
		m[border.Bottom] = math.Max(m[border.Bottom], t.HEdges[rows][c].Effective()/2)
	}
	for r := 0; r < rows; r++ {
		m[border.Left] = math.Max(m[border.Left], t.VEdges[r][0].Effective()/2)
		m[border.Right] = math.Max(m[border.Right], t.VEdges[r][cols].Effective()/2)
	}
	t.MaxCellBorder = m
}

// resolveSeparate handles border-collapse: separate, where every cell
// paints its own borders.
func resolveSeparate(t *table.Table) {
	rows, cols := t.RowCount(), t.ColCount()
	var m [4]float64
	t.Each(func(cell *table.Cell) {
		b := &cell.Border
		for _, side := range border.Sides {
			b[side].Collapsed = b[side].Effective()
		}
		b[border.Top].Meeting = [2]float64{b[border.Left].Effective(), b[border.Right].Effective()}
		b[border.Bottom].Meeting = [2]float64{b[border.Left].Effective(), b[border.Right].Effective()}
		b[border.Left].Meeting = [2]float64{b[border.Top].Effective(), b[border.Bottom].Effective()}
		b[border.Right].Meeting = [2]float64{b[border.Top].Effective(), b[border.Bottom].Effective()}

		if cell.Row == 0 {
			m[border.Top] = math.Max(m[border.Top], b[border.Top].Effective())
		}
		if cell.Row+cell.Rowspan == rows {
			m[border.Bottom] = math.Max(m[border.Bottom], b[border.Bottom].Effective())
		}
		if cell.Col == 0 {
			m[border.Left] = math.Max(m[border.Left], b[border.Left].Effective())
		}
		if cell.Col+cell.Colspan == cols {
			m[border.Right] = math.Max(m[border.Right], b[border.Right].Effective())
		}
	})
	t.MaxCellBorder = m

	tb := &t.Border
	tb[border.Top].Meeting = [2]float64{tb[border.Left].Effective(), tb[border.Right].Effective()}
	tb[border.Bottom].Meeting = [2]float64{tb[border.Left].Effective(), tb[border.Right].Effective()}
	tb[border.Left].Meeting = [2]float64{tb[border.Top].Effective(), tb[border.Bottom].Effective()}
	tb[border.Right].Meeting = [2]float64{tb[border.Top].Effective(), tb[border.Bottom].Effective()}
}
