// Package heights computes row heights, including rowspan distribution and
// recovery of rows that only spanning cells touch.
package heights

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/table"
)

const epsilon = 1e-6

// ContentMeasurer lays out cell content at a given width and reports the
// height it needs.
type ContentMeasurer interface {
	ContentHeight(content any, width float64) float64
}

// Result holds the solved row heights
type Result struct {
	Rows   []float64
	Header float64
	Footer float64
	Body   float64
	// Unresolved lists rows whose height could not be recovered from the
	// spans around them. They keep a height of 0.
	Unresolved []int
}

// Solve computes the row heights of a table whose column widths are
// already resolved and stores them on the table.
func Solve(t *table.Table, m ContentMeasurer) (Result, error) {
	if t.Owner(0, 0) == nil {
		return Result{}, errors.New("heights: table not validated")
	}
	if m == nil {
		return Result{}, errors.New("heights: no content measurer")
	}

	var nestedErr error
	t.Each(func(c *table.Cell) {
		if nestedErr != nil {
			return
		}
		content := 0.0
		if c.Nested != nil {
			if _, err := Solve(c.Nested, m); err != nil {
				nestedErr = errors.Wrapf(err, "nested table in cell (%d,%d)", c.Row, c.Col)
				return
			}
			content = c.Nested.OuterHeight()
		} else {
			content = m.ContentHeight(c.Content, c.ComputedWidth)
		}
		c.ContentHeight = content
		c.MinHeight = math.Max(content, c.Height) + verticalExtras(t, c)
	})
	if nestedErr != nil {
		return Result{}, nestedErr
	}

	rows := t.RowCount()
	h := make([]float64, rows)
	explicit := make([]bool, rows)
	direct := make([]bool, rows)

	for r, row := range t.Rows {
		if row.SpecifiedHeight > 0 {
			h[r] = row.SpecifiedHeight
			explicit[r] = true
			direct[r] = true
		}
		for _, c := range t.CellsInRow(r) {
			if c.Rowspan != 1 {
				continue
			}
			direct[r] = true
			h[r] = math.Max(h[r], c.MinHeight)
			if c.Height > 0 {
				explicit[r] = true
			}
		}
	}

	var indeterminate []int
	for r := range h {
		if !direct[r] {
			indeterminate = append(indeterminate, r)
		}
	}

	unresolved := map[int]bool{}
	for _, r := range indeterminate {
		v, ok := recoverRow(t, r, h, direct)
		if !ok {
			unresolved[r] = true
			continue
		}
		h[r] = v
	}

	distributeSpans(t, h, explicit, unresolved)

	res := Result{Rows: h}
	for r := range h {
		if unresolved[r] {
			res.Unresolved = append(res.Unresolved, r)
		}
		switch {
		case t.Rows[r].Header:
			res.Header += h[r]
		case t.Rows[r].Footer:
			res.Footer += h[r]
		default:
			res.Body += h[r]
		}
	}

	t.ApplyRowHeights(h)
	t.ComputeGeometry()
	return res, nil
}

// verticalExtras is padding plus border share plus the spacing share
func verticalExtras(t *table.Table, c *table.Cell) float64 {
	return c.Padding.Vertical() + borderShare(t, c, border.Top) + borderShare(t, c, border.Bottom) + t.SpacingV
}

func borderShare(t *table.Table, c *table.Cell, side border.Side) float64 {
	if t.Collapse == table.Collapse {
		return c.Border[side].Resolved() / 2
	}
	return c.Border[side].Effective()
}

// recoverRow derives the height of a row that no cell or row declaration
// contributes to directly. It works on the row range covered by the spans
// touching row r and gives up when that range holds another such row or
// when a span leaves the range.
func recoverRow(t *table.Table, r int, h []float64, direct []bool) (float64, bool) {
	cols := t.ColCount()
	top, bottom := r, r
	for c := 0; c < cols; c++ {
		o := t.Owner(r, c)
		top = min(top, o.Row)
		bottom = max(bottom, o.Row+o.Rowspan-1)
	}

	for rr := top; rr <= bottom; rr++ {
		if rr != r && !direct[rr] {
			return 0, false
		}
		for c := 0; c < cols; c++ {
			o := t.Owner(rr, c)
			if o.Row < top || o.Row+o.Rowspan-1 > bottom {
				return 0, false
			}
		}
	}

	total := 0.0
	for c := 0; c < cols; c++ {
		column := 0.0
		for rr := top; rr <= bottom; rr++ {
			if o := t.Owner(rr, c); o.Row == rr {
				column += o.MinHeight
			}
		}
		total = math.Max(total, column)
	}

	others := 0.0
	for rr := top; rr <= bottom; rr++ {
		if rr != r {
			others += h[rr]
		}
	}
	return math.Max(0, total-others), true
}

// distributeSpans grows the rows under each spanning cell, shortest spans
// first, in proportion to their current heights. Rows with an explicit
// height are only grown when no other row in the span can take the
// deficit. Unresolved rows are never grown.
func distributeSpans(t *table.Table, h []float64, explicit []bool, unresolved map[int]bool) {
	var spanning []*table.Cell
	t.Each(func(c *table.Cell) {
		if c.Rowspan > 1 {
			spanning = append(spanning, c)
		}
	})
	sort.SliceStable(spanning, func(i, j int) bool {
		return spanning[i].Rowspan < spanning[j].Rowspan
	})

	for _, c := range spanning {
		have := 0.0
		for r := c.Row; r < c.Row+c.Rowspan; r++ {
			have += h[r]
		}
		deficit := c.MinHeight - have
		if deficit <= epsilon {
			continue
		}

		var targets []int
		for r := c.Row; r < c.Row+c.Rowspan; r++ {
			if !explicit[r] && !unresolved[r] {
				targets = append(targets, r)
			}
		}
		if len(targets) == 0 {
			for r := c.Row; r < c.Row+c.Rowspan; r++ {
				if !unresolved[r] {
					targets = append(targets, r)
				}
			}
		}
		if len(targets) == 0 {
			continue
		}

		base := 0.0
		for _, r := range targets {
			base += h[r]
		}
		for _, r := range targets {
			share := deficit / float64(len(targets))
			if base > 0 {
				share = deficit * h[r] / base
			}
			h[r] += share
		}
	}
}
