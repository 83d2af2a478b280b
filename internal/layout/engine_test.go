package layout

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/observability"
	"github.com/gompdf/tablelayout/internal/pagination"
	"github.com/gompdf/tablelayout/internal/table"
	"github.com/gompdf/tablelayout/internal/text"
)

func newEngine() *Engine {
	return NewEngine(text.NewMetrics(text.FixedAdvancer{Ratio: 0.5}, text.Font{Size: 10, LineHeight: 1.2}))
}

func grid(cells ...[]string) *table.Table {
	t := table.New(len(cells), len(cells[0]))
	for r, row := range cells {
		for c, s := range row {
			t.Place(r, c, table.NewCell(s))
		}
	}
	return t
}

func TestLayoutPipeline(t *testing.T) {
	tbl := grid([]string{"alpha", "be"}, []string{"gamma", "delta"})

	res, err := newEngine().Layout(tbl, 200)
	require.NoError(t, err)

	assert.Equal(t, []float64{25, 25}, res.Widths.Columns)
	assert.Equal(t, 50.0, res.Widths.Width)
	assert.InDeltaSlice(t, []float64{12, 12}, res.Heights.Rows, 1e-9)
	assert.Equal(t, 1, res.Groups)

	c := tbl.Cells[1][1]
	assert.Equal(t, 25.0, c.X0)
	assert.InDelta(t, 12.0, c.Y0, 1e-9)
}

func TestPrepareSetsNestedLevel(t *testing.T) {
	inner := grid([]string{"x"})
	outer := table.New(1, 1)
	outer.Place(0, 0, &table.Cell{Nested: inner})

	require.NoError(t, newEngine().Prepare(outer))
	assert.Equal(t, 2, inner.Level)
}

func TestPrepareRejectsBadGeometry(t *testing.T) {
	tbl := table.New(1, 2)
	tbl.Place(0, 0, table.NewCell("only"))

	err := newEngine().Prepare(tbl)
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrUncovered)
}

func TestUnresolvedRowsWarn(t *testing.T) {
	var buf bytes.Buffer
	e := newEngine()
	e.SetOptions(Options{Logger: observability.NewStdLogger(&buf, false)})

	tbl := table.New(3, 1)
	tbl.Place(0, 0, &table.Cell{Content: "tall", Rowspan: 3})
	tbl.Rows[0].SpecifiedHeight = 4

	res, err := e.Layout(tbl, 100)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, res.Heights.Unresolved)
	assert.Contains(t, buf.String(), "row heights left unresolved")
	assert.Contains(t, buf.String(), "rows=[1 2]")
}

func TestFitTableShrinksClippedContent(t *testing.T) {
	tbl := grid([]string{"abcdefghij"})
	tbl.Overflow = table.Hidden

	e := newEngine()
	require.NoError(t, e.Prepare(tbl))
	res, err := e.FitTable(tbl, 25)
	require.NoError(t, err)

	assert.False(t, res.NeedsShrink())
	assert.Equal(t, []float64{25}, res.Columns)

	c, ok := tbl.Cells[0][0].Content.(text.Content)
	require.True(t, ok)
	assert.Equal(t, 5.0, c.Font.Size)
}

func TestFitTableShrinksCellWithDeclaredWidth(t *testing.T) {
	tbl := grid([]string{"abcdefghij"})
	tbl.Overflow = table.Hidden
	tbl.Cells[0][0].Width = 10

	e := newEngine()
	require.NoError(t, e.Prepare(tbl))
	res, err := e.FitTable(tbl, 25)
	require.NoError(t, err)

	assert.False(t, res.NeedsShrink())
	assert.Equal(t, []float64{25}, res.Columns)
	assert.Equal(t, 10.0, tbl.Columns[0].SpecifiedWidth)
}

func TestFitTableLeavesVisibleOverflow(t *testing.T) {
	tbl := grid([]string{"abcdefghij"})

	e := newEngine()
	require.NoError(t, e.Prepare(tbl))
	res, err := e.FitTable(tbl, 25)
	require.NoError(t, err)

	assert.Equal(t, []float64{50}, res.Columns)
	assert.Equal(t, "abcdefghij", tbl.Cells[0][0].Content)
}

type countingSink struct {
	fills, lines int
	content      []any
}

func (s *countingSink) FillRect(_, _, _, _ float64, _ table.Background) { s.fills++ }

func (s *countingSink) DrawLine(_, _, _, _, _ float64, _ border.Color, _ border.Style) {
	s.lines++
}

func (s *countingSink) DrawContent(content any, _, _, _ float64, _ table.HAlign) float64 {
	s.content = append(s.content, content)
	return 0
}

type pageFlow struct {
	pages int
}

func (f *pageFlow) NewPageOrColumn() (pagination.Cursor, error) {
	f.pages++
	return pagination.Cursor{}, nil
}

func (f *pageFlow) BreakTrigger() float64 { return 40 }

func TestPaginate(t *testing.T) {
	tbl := grid([]string{"h"}, []string{"a"}, []string{"b"}, []string{"c"})
	tbl.Rows[0].Header = true
	tbl.Collapse = table.Collapse
	tbl.Border = [4]border.Descriptor{
		{Width: 1, Style: border.Solid}, {Width: 1, Style: border.Solid},
		{Width: 1, Style: border.Solid}, {Width: 1, Style: border.Solid},
	}

	e := newEngine()
	_, err := e.Layout(tbl, 100)
	require.NoError(t, err)

	sink, flow := &countingSink{}, &pageFlow{}
	res, err := e.Paginate(pagination.NewContext(pagination.Cursor{}), tbl, sink, flow, nil)
	require.NoError(t, err)

	assert.Equal(t, pagination.Done, res.Status)
	assert.Equal(t, 1, flow.pages)
	assert.Equal(t, []any{"h", "a", "b", "h", "c"}, sink.content)
	assert.Positive(t, sink.lines)
}

func TestLayoutTableResumes(t *testing.T) {
	tbl := grid([]string{"h"}, []string{"a"}, []string{"b"}, []string{"c"})
	tbl.Rows[0].Header = true

	e := newEngine()
	e.SetOptions(Options{StopAtBreak: true})
	sink, flow := &countingSink{}, &pageFlow{}

	var resume *pagination.Resume
	calls := 0
	for {
		res, err := e.LayoutTable(pagination.NewContext(pagination.Cursor{}), tbl, 100, sink, flow, resume)
		require.NoError(t, err)
		calls++
		if res.Status == pagination.Done {
			break
		}
		require.NotNil(t, res.Resume)
		resume = res.Resume
	}

	assert.Equal(t, 2, calls)
	assert.Zero(t, flow.pages)
	assert.Equal(t, []any{"h", "a", "b", "h", "c"}, sink.content)
}

func TestResolveBordersIsIdempotent(t *testing.T) {
	tbl := grid([]string{"a", "b"}, []string{"c", "d"})
	tbl.Collapse = table.Collapse
	tbl.Cells[0][0].Border[border.Right] = border.Descriptor{Width: 2, Style: border.Double}
	tbl.Cells[0][1].Border[border.Left] = border.Descriptor{Width: 2, Style: border.Solid}
	tbl.Cells[1][0].Border[border.Top] = border.Descriptor{Width: 3, Style: border.Dashed}

	e := newEngine()
	require.NoError(t, e.Prepare(tbl))
	h := append([][]border.Descriptor(nil), tbl.HEdges...)
	v := append([][]border.Descriptor(nil), tbl.VEdges...)
	cell := tbl.Cells[0][0].Border

	e.ResolveBorders(tbl)
	e.ResolveBorders(tbl)

	assert.Equal(t, h, tbl.HEdges)
	assert.Equal(t, v, tbl.VEdges)
	assert.Equal(t, cell, tbl.Cells[0][0].Border)
}
