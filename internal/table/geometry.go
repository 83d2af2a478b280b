package table

// Invalidate drops memoized geometry. It must be called whenever column
// widths or row heights change.
func (t *Table) Invalidate() {
	t.xs = nil
	t.ys = nil
}

// ApplyColumnWidths stores resolved column widths
func (t *Table) ApplyColumnWidths(widths []float64) {
	for i, w := range widths {
		if i < len(t.Columns) {
			t.Columns[i].Width = w
		}
	}
	t.Invalidate()
}

// ApplyRowHeights stores resolved row heights
func (t *Table) ApplyRowHeights(heights []float64) {
	for i, h := range heights {
		if i < len(t.Rows) {
			t.Rows[i].Height = h
		}
	}
	t.Invalidate()
}

func (t *Table) prefixes() {
	if t.xs != nil && t.ys != nil {
		return
	}
	t.xs = make([]float64, len(t.Columns)+1)
	for i, c := range t.Columns {
		t.xs[i+1] = t.xs[i] + c.Width
	}
	t.ys = make([]float64, len(t.Rows)+1)
	for i, r := range t.Rows {
		t.ys[i+1] = t.ys[i] + r.Height
	}
}

func (t *Table) span(row, col int) (rowspan, colspan int) {
	rowspan, colspan = 1, 1
	if c := t.Owner(row, col); c != nil && c.Row == row && c.Col == col {
		rowspan, colspan = c.Rowspan, c.Colspan
	} else if t.owner == nil && row < len(t.Cells) && col < len(t.Cells[row]) && t.Cells[row][col] != nil {
		c := t.Cells[row][col]
		rowspan, colspan = c.Rowspan, c.Colspan
	}
	if row+rowspan > len(t.Rows) {
		rowspan = len(t.Rows) - row
	}
	if col+colspan > len(t.Columns) {
		colspan = len(t.Columns) - col
	}
	return rowspan, colspan
}

// GetWidth returns the horizontal offset from the first column and the
// width of the slot at (row, col), summed across a colspan when (row, col)
// is a span origin.
func (t *Table) GetWidth(row, col int) (x, width float64) {
	t.prefixes()
	_, colspan := t.span(row, col)
	return t.xs[col], t.xs[col+colspan] - t.xs[col]
}

// GetHeight returns the vertical offset from the first row and the height
// of the slot at (row, col), summed across a rowspan when (row, col) is a
// span origin.
func (t *Table) GetHeight(row, col int) (y, height float64) {
	t.prefixes()
	rowspan, _ := t.span(row, col)
	return t.ys[row], t.ys[row+rowspan] - t.ys[row]
}

// ColumnsWidth returns the sum of all column widths
func (t *Table) ColumnsWidth() float64 {
	t.prefixes()
	return t.xs[len(t.xs)-1]
}

// RowsHeight returns the sum of the heights of rows [from, to)
func (t *Table) RowsHeight(from, to int) float64 {
	t.prefixes()
	return t.ys[to] - t.ys[from]
}

// OuterWidth returns the painted width of the table excluding margins
func (t *Table) OuterWidth() float64 {
	f := t.Frame()
	return f.Left + t.ColumnsWidth() + f.Right
}

// OuterHeight returns the painted height of the unbroken table excluding margins
func (t *Table) OuterHeight() float64 {
	f := t.Frame()
	return f.Top + t.RowsHeight(0, len(t.Rows)) + f.Bottom
}

// ComputeGeometry fills the slot origin and size of every cell, relative
// to the table's outer top-left corner.
func (t *Table) ComputeGeometry() {
	f := t.Frame()
	t.Each(func(c *Cell) {
		x, w := t.GetWidth(c.Row, c.Col)
		y, h := t.GetHeight(c.Row, c.Col)
		c.X0, c.W0 = f.Left+x, w
		c.Y0, c.H0 = f.Top+y, h
	})
}

// AssignPageGroups partitions columns into column pages when an unclipped
// top-level table is wider than available. Every column belongs to group 0
// otherwise.
func (t *Table) AssignPageGroups(available float64) int {
	t.groups = make([]int, len(t.Columns))
	if t.Overflow != Visible || t.Level > 1 || available <= 0 || t.OuterWidth() <= available {
		return 1
	}

	f := t.Frame()
	room := available - f.Left - f.Right
	group, used := 0, 0.0
	for i, c := range t.Columns {
		if used > 0 && used+c.Width > room {
			group++
			used = 0
		}
		t.groups[i] = group
		used += c.Width
	}
	return group + 1
}

// PageGroup returns the column page of col
func (t *Table) PageGroup(col int) int {
	if col < 0 || col >= len(t.groups) {
		return 0
	}
	return t.groups[col]
}

// GroupCount returns the number of column pages
func (t *Table) GroupCount() int {
	if len(t.groups) == 0 {
		return 1
	}
	return t.groups[len(t.groups)-1] + 1
}

// GroupColumns returns the first and one-past-last column of group g
func (t *Table) GroupColumns(g int) (from, to int) {
	if len(t.groups) == 0 {
		return 0, len(t.Columns)
	}
	from = -1
	for i, gi := range t.groups {
		if gi == g {
			if from < 0 {
				from = i
			}
			to = i + 1
		}
	}
	if from < 0 {
		return 0, 0
	}
	return from, to
}

// GetGroupWidth is GetWidth restricted to the column page of col. The
// offset is measured from the group's first column and the span is
// clipped at the group's last column.
func (t *Table) GetGroupWidth(row, col int) (x, width float64) {
	t.prefixes()
	from, to := t.GroupColumns(t.PageGroup(col))
	_, colspan := t.span(row, col)
	end := col + colspan
	if end > to {
		end = to
	}
	return t.xs[col] - t.xs[from], t.xs[end] - t.xs[col]
}

// GroupWidth returns the summed width of the columns in group g
func (t *Table) GroupWidth(g int) float64 {
	t.prefixes()
	from, to := t.GroupColumns(g)
	return t.xs[to] - t.xs[from]
}
