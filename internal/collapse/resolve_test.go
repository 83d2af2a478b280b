package collapse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/table"
)

func column(rows int) *table.Table {
	t := table.New(rows, 1)
	t.Collapse = table.Collapse
	for r := 0; r < rows; r++ {
		t.Place(r, 0, table.NewCell(nil))
	}
	return t
}

func snapshot(t *table.Table) [][4]border.Descriptor {
	var out [][4]border.Descriptor
	t.Each(func(c *table.Cell) {
		out = append(out, c.Border)
	})
	return out
}

func TestDottedLosesToWiderSolid(t *testing.T) {
	tbl := column(2)
	tbl.Cells[0][0].Border[border.Bottom] = border.Descriptor{Width: 1, Style: border.Dotted}
	tbl.Cells[1][0].Border[border.Top] = border.Descriptor{Width: 2, Style: border.Solid}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	shared := tbl.HEdges[1][0]
	assert.Equal(t, 2.0, shared.Width)
	assert.Equal(t, border.Solid, shared.Style)

	upper := tbl.Cells[0][0].Border[border.Bottom]
	assert.True(t, upper.Suppressed)
	assert.Equal(t, 1.0, upper.Width)
	assert.Equal(t, border.Dotted, upper.Style)
	assert.Equal(t, 2.0, upper.Collapsed)

	assert.False(t, tbl.Cells[1][0].Border[border.Top].Suppressed)
}

func TestResolveIsIdempotent(t *testing.T) {
	tbl := table.New(2, 2)
	tbl.Collapse = table.Collapse
	tbl.Border = [4]border.Descriptor{
		{Width: 3, Style: border.Double},
		{Width: 1, Style: border.Solid},
		{Width: 3, Style: border.Double},
		{Width: 1, Style: border.Solid},
	}
	tbl.Place(0, 0, &table.Cell{Colspan: 2})
	tbl.Place(1, 0, table.NewCell(nil))
	tbl.Place(1, 1, table.NewCell(nil))
	tbl.Cells[0][0].Border[border.Bottom] = border.Descriptor{Width: 2, Style: border.Dashed, Specificity: 2}
	tbl.Cells[1][1].Border[border.Left] = border.Descriptor{Width: 4, Style: border.Ridge}
	tbl.HeaderUnderline = &border.Descriptor{Width: 0.5, Style: border.Solid}
	tbl.Rows[0].Header = true
	require.NoError(t, tbl.Validate())

	Resolve(tbl)
	first := snapshot(tbl)
	h, v, m := tbl.HEdges, tbl.VEdges, tbl.MaxCellBorder

	Resolve(tbl)
	assert.Equal(t, first, snapshot(tbl))
	assert.Equal(t, h, tbl.HEdges)
	assert.Equal(t, v, tbl.VEdges)
	assert.Equal(t, m, tbl.MaxCellBorder)
}

func TestSwappedSpecificityKeepsVisualWinner(t *testing.T) {
	red := border.Descriptor{Width: 1, Style: border.Solid, Color: border.Color{R: 255}, Specificity: 1}
	blue := border.Descriptor{Width: 1, Style: border.Solid, Color: border.Color{B: 255}, Specificity: 2}

	build := func(upper, lower border.Descriptor) *table.Table {
		tbl := column(2)
		tbl.Cells[0][0].Border[border.Bottom] = upper
		tbl.Cells[1][0].Border[border.Top] = lower
		require.NoError(t, tbl.Validate())
		Resolve(tbl)
		return tbl
	}

	assert.Equal(t, blue.Color, build(red, blue).HEdges[1][0].Color)
	assert.Equal(t, blue.Color, build(blue, red).HEdges[1][0].Color)
}

func TestEqualBordersTopWins(t *testing.T) {
	tbl := column(2)
	tbl.Cells[0][0].Border[border.Bottom] = border.Descriptor{Width: 1, Style: border.Solid, Color: border.Color{G: 128}}
	tbl.Cells[1][0].Border[border.Top] = border.Descriptor{Width: 1, Style: border.Solid, Color: border.Color{R: 128}}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	assert.Equal(t, border.Color{G: 128}, tbl.HEdges[1][0].Color)
	assert.True(t, tbl.Cells[1][0].Border[border.Top].Suppressed)
}

func TestHiddenSuppressesEdge(t *testing.T) {
	tbl := column(2)
	tbl.Cells[0][0].Border[border.Bottom] = border.Descriptor{Width: 5, Style: border.Double}
	tbl.Cells[1][0].Border[border.Top] = border.Descriptor{Style: border.Hidden}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	assert.Equal(t, border.Hidden, tbl.HEdges[1][0].Style)
	assert.Equal(t, 0.0, tbl.Cells[0][0].Border[border.Bottom].Collapsed)
}

func TestTableEdgeAndMaxCellBorder(t *testing.T) {
	tbl := table.New(1, 2)
	tbl.Collapse = table.Collapse
	tbl.Border[border.Top] = border.Descriptor{Width: 1, Style: border.Solid}
	tbl.Border[border.Left] = border.Descriptor{Width: 2, Style: border.Solid}
	tbl.Place(0, 0, table.NewCell(nil))
	tbl.Place(0, 1, table.NewCell(nil))
	tbl.Cells[0][1].Border[border.Top] = border.Descriptor{Width: 4, Style: border.Solid}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	assert.Equal(t, 1.0, tbl.HEdges[0][0].Width)
	assert.Equal(t, 4.0, tbl.HEdges[0][1].Width)
	assert.Equal(t, 2.0, tbl.MaxCellBorder[border.Top])
	assert.Equal(t, 1.0, tbl.MaxCellBorder[border.Left])
	assert.True(t, tbl.Border[border.Top].Suppressed)
	assert.Equal(t, 4.0, tbl.Border[border.Top].Collapsed)
	assert.True(t, tbl.Cells[0][0].Border[border.Top].Suppressed)
	assert.False(t, tbl.Cells[0][1].Border[border.Top].Suppressed)
}

func TestMeetingWidths(t *testing.T) {
	tbl := table.New(2, 2)
	tbl.Collapse = table.Collapse
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			tbl.Place(r, c, table.NewCell(nil))
		}
	}
	tbl.Cells[0][0].Border[border.Right] = border.Descriptor{Width: 3, Style: border.Solid}
	tbl.Cells[1][1].Border[border.Left] = border.Descriptor{Width: 1, Style: border.Solid}
	tbl.Cells[0][0].Border[border.Bottom] = border.Descriptor{Width: 2, Style: border.Solid}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	// Interior corner (1,1): vertical segments of width 3 above and 1 below.
	assert.Equal(t, 3.0, tbl.HEdges[1][0].Meeting[border.End])
	assert.Equal(t, 3.0, tbl.HEdges[1][1].Meeting[border.Start])
	assert.Equal(t, 2.0, tbl.VEdges[0][1].Meeting[border.End])

	// The lower-right cell sees the same corner from its top-left.
	assert.Equal(t, 3.0, tbl.Cells[1][1].Border[border.Top].Meeting[border.Start])
	assert.Equal(t, 2.0, tbl.Cells[1][1].Border[border.Left].Meeting[border.Start])
}

func TestTopNTailAndHeaderUnderline(t *testing.T) {
	tbl := column(3)
	tbl.Rows[0].Header = true
	tbl.Rows[2].Footer = true
	tail := border.Descriptor{Width: 2, Style: border.Double}
	under := border.Descriptor{Width: 0.5, Style: border.Dashed}
	tbl.TopNTail = &tail
	tbl.HeaderUnderline = &under
	tbl.Cells[0][0].Border[border.Top] = border.Descriptor{Width: 9, Style: border.Solid}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	assert.Equal(t, border.Double, tbl.HEdges[0][0].Style)
	assert.Equal(t, 2.0, tbl.HEdges[0][0].Width)
	assert.Equal(t, border.Dashed, tbl.HEdges[1][0].Style)
	assert.Equal(t, border.Double, tbl.HEdges[2][0].Style)
	assert.Equal(t, border.Double, tbl.HEdges[3][0].Style)
	assert.Equal(t, 1, HeaderBoundary(tbl))
}

func TestAttributeBordersInherit(t *testing.T) {
	tbl := table.New(1, 1)
	tbl.AttributeBorders = true
	tbl.Border = [4]border.Descriptor{
		{Width: 3, Style: border.Outset},
		{Width: 3, Style: border.Outset},
		{Width: 3, Style: border.Outset},
		{Width: 3, Style: border.Outset},
	}
	tbl.Place(0, 0, table.NewCell(nil))
	tbl.Cells[0][0].Border[border.Left] = border.Descriptor{Width: 2, Style: border.Dashed}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	c := tbl.Cells[0][0]
	assert.Equal(t, border.Outset, c.Border[border.Top].Style)
	assert.Equal(t, 1.0, c.Border[border.Top].Width)
	assert.Equal(t, border.Dashed, c.Border[border.Left].Style)
}

func TestSeparateModeKeepsOwnBorders(t *testing.T) {
	tbl := table.New(1, 2)
	tbl.Place(0, 0, table.NewCell(nil))
	tbl.Place(0, 1, table.NewCell(nil))
	tbl.Cells[0][0].Border[border.Right] = border.Descriptor{Width: 1, Style: border.Solid}
	tbl.Cells[0][1].Border[border.Left] = border.Descriptor{Width: 2, Style: border.Solid}
	tbl.Cells[0][1].Border[border.Right] = border.Descriptor{Width: 3, Style: border.Solid}
	tbl.Cells[0][1].Border[border.Top] = border.Descriptor{Width: 1, Style: border.Solid}
	require.NoError(t, tbl.Validate())

	Resolve(tbl)

	assert.Nil(t, tbl.HEdges)
	assert.False(t, tbl.Cells[0][0].Border[border.Right].Suppressed)
	assert.False(t, tbl.Cells[0][1].Border[border.Left].Suppressed)
	assert.Equal(t, 3.0, tbl.MaxCellBorder[border.Right])
	assert.Equal(t, [2]float64{2, 3}, tbl.Cells[0][1].Border[border.Top].Meeting)
}
