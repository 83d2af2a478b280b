// Package widths implements the two-pass column width solver.
package widths

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/table"
)

const epsilon = 1e-6

// TextMetrics measures cell content. Results must be stable for the same
// content and font state.
type TextMetrics interface {
	Measure(content any, available float64) (min, max float64)
}

// Result is the outcome of Solve
type Result struct {
	Columns []float64
	// Width is the table's outer width
	Width float64
	// Shrink is greater than 1 when even the minimum widths do not fit the
	// available width. The caller decides whether to shrink and retry.
	Shrink       float64
	ImpliedTotal float64
}

// NeedsShrink reports whether the caller should shrink content and retry
func (r Result) NeedsShrink() bool {
	return r.Shrink > 1+epsilon
}

// Solve resolves the column widths of a validated, border-resolved table
// against the available width and stores them on the table. Nested tables
// are solved against their parent cell's content width.
func Solve(t *table.Table, available float64, m TextMetrics) (Result, error) {
	if t.Owner(0, 0) == nil {
		return Result{}, errors.New("widths: table not validated")
	}
	if m == nil {
		return Result{}, errors.New("widths: no text metrics")
	}

	implied := pass1(t, available, m)
	res := pass2(t, available)
	res.ImpliedTotal = implied

	t.ApplyColumnWidths(res.Columns)
	t.Each(func(c *table.Cell) {
		_, w := t.GetWidth(c.Row, c.Col)
		c.ComputedWidth = math.Max(0, w-horizontalExtras(t, c))
	})

	var err error
	t.Each(func(c *table.Cell) {
		if c.Nested == nil || err != nil {
			return
		}
		nested, nerr := Solve(c.Nested, c.ComputedWidth, m)
		if nerr != nil {
			err = errors.Wrapf(nerr, "nested table in cell (%d,%d)", c.Row, c.Col)
			return
		}
		if nested.Shrink > res.Shrink {
			res.Shrink = nested.Shrink
		}
	})
	return res, err
}

// Intrinsic returns the outer minimum and maximum width of a table, used
// when the table sits inside another table's cell.
func Intrinsic(t *table.Table, available float64, m TextMetrics) (min, max float64) {
	if t.Owner(0, 0) == nil {
		return 0, 0
	}
	pass1(t, available, m)
	frame := t.Frame()
	for _, c := range t.Columns {
		min += c.MinWidth
		max += c.MaxWidth
	}
	min += frame.Horizontal()
	max += frame.Horizontal()
	if t.Width > 0 {
		min = math.Max(min, t.Width)
		max = math.Max(min, t.Width)
	}
	return min, math.Max(min, max)
}

// horizontalExtras is the part of a cell's slot that is not content:
// padding, border share and the spacing share.
func horizontalExtras(t *table.Table, c *table.Cell) float64 {
	return c.Padding.Horizontal() + borderShare(t, c, border.Left) + borderShare(t, c, border.Right) + t.SpacingH
}

func borderShare(t *table.Table, c *table.Cell, side border.Side) float64 {
	if t.Collapse == table.Collapse {
		return c.Border[side].Resolved() / 2
	}
	return c.Border[side].Effective()
}

// pass1 measures every cell and derives the column minimum and maximum
// widths. It returns the implied 100% width when percentages are present.
func pass1(t *table.Table, available float64, m TextMetrics) float64 {
	for _, col := range t.Columns {
		col.MinWidth, col.MaxWidth, col.Weight = 0, 0, 0
		col.SpecifiedWidth = col.DeclaredWidth
	}

	var spanning []*table.Cell
	t.Each(func(c *table.Cell) {
		measure(t, c, available, m)
		if c.Colspan > 1 {
			spanning = append(spanning, c)
			return
		}
		col := t.Columns[c.Col]
		col.MinWidth = math.Max(col.MinWidth, c.MinWidth)
		col.MaxWidth = math.Max(col.MaxWidth, c.MaxWidth)
		col.Weight += c.Weight
		if c.HasWidth() {
			col.SpecifiedWidth = math.Max(col.SpecifiedWidth, c.Width+horizontalExtras(t, c))
		}
		if c.PercentWidth > 0 {
			col.PercentWidth = math.Max(col.PercentWidth, c.PercentWidth)
		}
	})

	for _, col := range t.Columns {
		if col.SpecifiedWidth > 0 {
			col.MinWidth = math.Max(col.MinWidth, col.SpecifiedWidth)
			col.MaxWidth = col.MinWidth
		}
		col.MaxWidth = math.Max(col.MaxWidth, col.MinWidth)
	}

	sort.SliceStable(spanning, func(i, j int) bool {
		return spanning[i].Colspan < spanning[j].Colspan
	})
	for _, c := range spanning {
		distributeSpan(t, c)
	}

	return reconcilePercent(t)
}

// measure fills the cell's intrinsic widths including padding, border
// share and spacing share.
func measure(t *table.Table, c *table.Cell, available float64, m TextMetrics) {
	var lo, hi float64
	if c.Nested != nil {
		lo, hi = Intrinsic(c.Nested, available, m)
	} else {
		lo, hi = m.Measure(c.Content, available)
	}
	c.Weight = hi

	if c.HasWidth() {
		lo = math.Max(lo, c.Width)
		hi = lo
	}
	hi = math.Max(hi, lo)

	extras := horizontalExtras(t, c)
	c.MinWidth = lo + extras
	c.MaxWidth = hi + extras
}

// distributeSpan grows the spanned columns so they hold a spanning cell,
// in proportion to their current widths. Columns with an explicit width
// are left alone unless every spanned column has one.
func distributeSpan(t *table.Table, c *table.Cell) {
	cols := t.Columns[c.Col : c.Col+c.Colspan]

	var flexible []*table.Column
	for _, col := range cols {
		if col.SpecifiedWidth == 0 {
			flexible = append(flexible, col)
		}
	}
	if len(flexible) == 0 {
		flexible = cols
	}

	grow(cols, flexible, c.MinWidth,
		func(col *table.Column) float64 { return col.MinWidth },
		func(col *table.Column, v float64) { col.MinWidth = v })
	grow(cols, flexible, c.MaxWidth,
		func(col *table.Column) float64 { return col.MaxWidth },
		func(col *table.Column, v float64) { col.MaxWidth = v })

	totalMax := 0.0
	for _, col := range cols {
		totalMax += col.MaxWidth
	}
	for _, col := range cols {
		if totalMax > 0 {
			col.Weight += c.Weight * col.MaxWidth / totalMax
		} else {
			col.Weight += c.Weight / float64(len(cols))
		}
		col.MaxWidth = math.Max(col.MaxWidth, col.MinWidth)
	}
}

func grow(cols, flexible []*table.Column, need float64, get func(*table.Column) float64, set func(*table.Column, float64)) {
	have := 0.0
	for _, col := range cols {
		have += get(col)
	}
	deficit := need - have
	if deficit <= epsilon {
		return
	}

	base := 0.0
	for _, col := range flexible {
		base += get(col)
	}
	for _, col := range flexible {
		share := deficit / float64(len(flexible))
		if base > 0 {
			share = deficit * get(col) / base
		}
		set(col, get(col)+share)
	}
}

// reconcilePercent raises percentage columns so they agree with the width
// that 100% implies. The maximum widths are always reconciled; the minimum
// widths only when the table keeps its proportions.
func reconcilePercent(t *table.Table) float64 {
	pct := 0.0
	for _, col := range t.Columns {
		pct += col.PercentWidth
	}
	if pct <= 0 {
		return 0
	}
	if pct > 100 {
		pct = 100
	}

	implied := func(get func(*table.Column) float64) float64 {
		total, rest := 0.0, 0.0
		for _, col := range t.Columns {
			if col.PercentWidth > 0 {
				total = math.Max(total, get(col)*100/col.PercentWidth)
			} else {
				rest += get(col)
			}
		}
		if pct < 100 {
			total = math.Max(total, rest*100/(100-pct))
		} else if rest > 0 {
			total += rest
		}
		return total
	}

	maxTotal := implied(func(col *table.Column) float64 { return col.MaxWidth })
	for _, col := range t.Columns {
		if col.PercentWidth > 0 {
			col.MaxWidth = math.Max(col.MaxWidth, maxTotal*col.PercentWidth/100)
		}
	}

	if t.KeepProportions {
		minTotal := implied(func(col *table.Column) float64 { return col.MinWidth })
		for _, col := range t.Columns {
			if col.PercentWidth > 0 {
				col.MinWidth = math.Max(col.MinWidth, minTotal*col.PercentWidth/100)
				col.MaxWidth = math.Max(col.MaxWidth, col.MinWidth)
			}
		}
	}
	return maxTotal
}

// pass2 resolves the table width and distributes it over the columns
func pass2(t *table.Table, available float64) Result {
	n := len(t.Columns)
	frame := t.Frame().Horizontal()
	room := available - frame

	sumMin, sumMax := 0.0, 0.0
	for _, col := range t.Columns {
		sumMin += col.MinWidth
		sumMax += col.MaxWidth
	}

	declared := t.Width
	if t.WidthPercent > 0 && available > 0 {
		declared = available * t.WidthPercent / 100
	}

	widths := make([]float64, n)
	for i, col := range t.Columns {
		widths[i] = col.MinWidth
	}
	result := func() Result {
		total := 0.0
		for _, w := range widths {
			total += w
		}
		return Result{Columns: widths, Width: total + frame, Shrink: 1}
	}

	if sumMin > room+epsilon {
		res := result()
		if t.Overflow != table.Visible && room > 0 {
			res.Shrink = sumMin / room
		}
		return res
	}

	if declared <= 0 && sumMax <= room+epsilon {
		for i, col := range t.Columns {
			widths[i] = col.MaxWidth
		}
		return result()
	}

	target := room
	if declared > 0 {
		target = math.Min(math.Max(declared-frame, sumMin), room)
	}

	for i, col := range t.Columns {
		if col.PercentWidth > 0 {
			widths[i] = math.Max(col.MinWidth, target*col.PercentWidth/100)
		}
	}
	surplus := target
	for _, w := range widths {
		surplus -= w
	}
	if surplus < -epsilon {
		for i, col := range t.Columns {
			widths[i] = col.MinWidth
		}
		surplus = target - sumMin
	}

	var flexible []int
	for i, col := range t.Columns {
		if col.PercentWidth == 0 && col.SpecifiedWidth == 0 {
			flexible = append(flexible, i)
		}
	}

	surplus = distributeByWeight(t, widths, flexible, surplus)

	if surplus > epsilon {
		// the flexible columns are capped: the rest goes to all columns alike
		share := surplus / float64(n)
		for i := range widths {
			widths[i] += share
		}
	}

	return result()
}

// distributeByWeight hands out surplus to the given columns by text-length
// weight, capped at each column's maximum width. It returns what is left
// once every column has reached its cap.
func distributeByWeight(t *table.Table, widths []float64, cols []int, surplus float64) float64 {
	for surplus > epsilon {
		var active []int
		totalWeight := 0.0
		for _, i := range cols {
			if widths[i] < t.Columns[i].MaxWidth-epsilon {
				active = append(active, i)
				totalWeight += t.Columns[i].Weight
			}
		}
		if len(active) == 0 {
			break
		}

		given := 0.0
		for _, i := range active {
			share := surplus / float64(len(active))
			if totalWeight > 0 {
				share = surplus * t.Columns[i].Weight / totalWeight
			}
			add := math.Min(share, t.Columns[i].MaxWidth-widths[i])
			widths[i] += add
			given += add
		}
		surplus -= given
		if given <= epsilon {
			break
		}
	}
	return surplus
}
