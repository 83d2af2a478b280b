package table

import (
	"github.com/pkg/errors"
)

// Input contract violations reported by Validate
var (
	ErrEmpty         = errors.New("table has no rows or columns")
	ErrShape         = errors.New("cell grid does not match table dimensions")
	ErrSpanOutOfGrid = errors.New("cell span extends past the grid")
	ErrOverlap       = errors.New("cell spans overlap")
	ErrUncovered     = errors.New("grid slot not covered by any cell")
	ErrSectionSpan   = errors.New("rowspan crosses a header, body or footer boundary")
)

// Validate checks the span geometry and builds the slot owner map used by
// every later stage. Structurally invalid tables are rejected here so the
// solvers never see them.
func (t *Table) Validate() error {
	rows, cols := t.RowCount(), t.ColCount()
	if rows == 0 || cols == 0 {
		return ErrEmpty
	}
	if len(t.Cells) != rows {
		return errors.Wrapf(ErrShape, "%d cell rows for %d table rows", len(t.Cells), rows)
	}

	owner := make([][]*Cell, rows)
	for r := range owner {
		owner[r] = make([]*Cell, cols)
	}

	for r, row := range t.Cells {
		if len(row) != cols {
			return errors.Wrapf(ErrShape, "row %d has %d slots, want %d", r, len(row), cols)
		}
		for c, cell := range row {
			if cell == nil {
				continue
			}
			if cell.Colspan < 1 {
				cell.Colspan = 1
			}
			if cell.Rowspan < 1 {
				cell.Rowspan = 1
			}
			cell.Row, cell.Col = r, c

			if r+cell.Rowspan > rows || c+cell.Colspan > cols {
				return errors.Wrapf(ErrSpanOutOfGrid, "cell at (%d,%d) spans %dx%d", r, c, cell.Rowspan, cell.Colspan)
			}
			if section(t.Rows[r]) != section(t.Rows[r+cell.Rowspan-1]) {
				return errors.Wrapf(ErrSectionSpan, "cell at (%d,%d)", r, c)
			}

			for rr := r; rr < r+cell.Rowspan; rr++ {
				for cc := c; cc < c+cell.Colspan; cc++ {
					if prev := owner[rr][cc]; prev != nil {
						return errors.Wrapf(ErrOverlap, "slot (%d,%d) claimed by (%d,%d) and (%d,%d)",
							rr, cc, prev.Row, prev.Col, r, c)
					}
					owner[rr][cc] = cell
				}
			}
		}
	}

	for r := range owner {
		for c := range owner[r] {
			if owner[r][c] == nil {
				return errors.Wrapf(ErrUncovered, "slot (%d,%d)", r, c)
			}
		}
	}

	t.owner = owner
	t.Invalidate()
	return nil
}

func section(r *Row) int {
	switch {
	case r.Header:
		return 0
	case r.Footer:
		return 2
	default:
		return 1
	}
}

// Owner returns the cell whose span covers slot (row, col).
// Validate must have succeeded first.
func (t *Table) Owner(row, col int) *Cell {
	if t.owner == nil || row < 0 || col < 0 || row >= len(t.owner) || col >= len(t.owner[row]) {
		return nil
	}
	return t.owner[row][col]
}

// IsOrigin reports whether slot (row, col) is the origin of its span
func (t *Table) IsOrigin(row, col int) bool {
	c := t.Owner(row, col)
	return c != nil && c.Row == row && c.Col == col
}

// CellsInRow returns the span origins located in row r, left to right
func (t *Table) CellsInRow(r int) []*Cell {
	var cells []*Cell
	for _, c := range t.Cells[r] {
		if c != nil {
			cells = append(cells, c)
		}
	}
	return cells
}

// SpanEnd returns the last row index covered by the tallest span starting
// in row r.
func (t *Table) SpanEnd(r int) int {
	end := r
	for _, c := range t.Cells[r] {
		if c != nil && r+c.Rowspan-1 > end {
			end = r + c.Rowspan - 1
		}
	}
	return end
}

// Crossed reports whether any span covers both row r and row r+1, which
// forbids a break between them.
func (t *Table) Crossed(r int) bool {
	if r+1 >= t.RowCount() {
		return false
	}
	for c := 0; c < t.ColCount(); c++ {
		if o := t.Owner(r, c); o != nil && o.Row+o.Rowspan-1 > r {
			return true
		}
	}
	return false
}
