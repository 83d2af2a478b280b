package pagination

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/collapse"
	"github.com/gompdf/tablelayout/internal/table"
)

type event struct {
	Kind    string
	Content any
	X, Y    float64
	X2, Y2  float64
}

type recorder struct {
	events []event
}

func (r *recorder) FillRect(x, y, w, h float64, _ table.Background) {
	r.events = append(r.events, event{Kind: "fill", X: x, Y: y, X2: x + w, Y2: y + h})
}

func (r *recorder) DrawLine(x1, y1, x2, y2, _ float64, _ border.Color, _ border.Style) {
	r.events = append(r.events, event{Kind: "line", X: x1, Y: y1, X2: x2, Y2: y2})
}

func (r *recorder) DrawContent(content any, x, y, w float64, _ table.HAlign) float64 {
	r.events = append(r.events, event{Kind: "content", Content: content, X: x, Y: y, X2: x + w})
	return 0
}

type fakeFlow struct {
	rec     *recorder
	trigger float64
	err     error
}

func (f *fakeFlow) NewPageOrColumn() (Cursor, error) {
	if f.err != nil {
		return Cursor{}, f.err
	}
	f.rec.events = append(f.rec.events, event{Kind: "page"})
	return Cursor{}, nil
}

func (f *fakeFlow) BreakTrigger() float64 { return f.trigger }

// contents lists drawn content in order with "|" marking page breaks
func contents(events []event) []string {
	var out []string
	for _, e := range events {
		switch e.Kind {
		case "content":
			out = append(out, fmt.Sprint(e.Content))
		case "page":
			out = append(out, "|")
		}
	}
	return out
}

// newTable builds a rows x cols grid of single cells named by position,
// all rows height h and all columns width w
func newTable(rows, cols int, h, w float64) *table.Table {
	t := table.New(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t.Place(r, c, table.NewCell(fmt.Sprintf("r%dc%d", r, c)))
		}
		t.Rows[r].Height = h
	}
	for _, c := range t.Columns {
		c.Width = w
	}
	return t
}

func prepare(t *testing.T, tbl *table.Table) {
	t.Helper()
	require.NoError(t, tbl.Validate())
	collapse.Resolve(tbl)
	tbl.Invalidate()
}

func write(t *testing.T, tbl *table.Table, trigger float64) (*recorder, Result) {
	t.Helper()
	rec := &recorder{}
	w := NewWriter(rec, &fakeFlow{rec: rec, trigger: trigger})
	res, err := w.Write(NewContext(Cursor{}), tbl, nil)
	require.NoError(t, err)
	return rec, res
}

func TestRowsOnceWithRepeatedHeader(t *testing.T) {
	tbl := newTable(6, 1, 10, 50)
	tbl.Rows[0].Header = true
	prepare(t, tbl)

	rec, res := write(t, tbl, 35)

	assert.Equal(t, Done, res.Status)
	assert.Equal(t, 2, res.Breaks)
	assert.Equal(t, []string{
		"r0c0", "r1c0", "r2c0", "|",
		"r0c0", "r3c0", "r4c0", "|",
		"r0c0", "r5c0",
	}, contents(rec.events))
	assert.Equal(t, 20.0, res.Height)
}

func TestFooterBeforeEveryBreak(t *testing.T) {
	tbl := newTable(7, 1, 10, 50)
	tbl.Rows[0].Header = true
	tbl.Rows[6].Footer = true
	prepare(t, tbl)

	rec, _ := write(t, tbl, 45)

	assert.Equal(t, []string{
		"r0c0", "r1c0", "r2c0", "r6c0", "|",
		"r0c0", "r3c0", "r4c0", "r6c0", "|",
		"r0c0", "r5c0", "r6c0",
	}, contents(rec.events))
}

func TestPaintOrderPerPage(t *testing.T) {
	tbl := newTable(4, 2, 10, 50)
	tbl.Background = table.Background{Color: &border.Color{R: 240, G: 240, B: 240}}
	tbl.Border = [4]border.Descriptor{
		{Width: 1, Style: border.Solid}, {Width: 1, Style: border.Solid},
		{Width: 1, Style: border.Solid}, {Width: 1, Style: border.Solid},
	}
	tbl.Each(func(c *table.Cell) {
		c.Background = table.Background{Color: &border.Color{R: 255}}
		c.Border[border.Bottom] = border.Descriptor{Width: 1, Style: border.Dashed}
	})
	prepare(t, tbl)

	rec, res := write(t, tbl, 25)
	require.Equal(t, 1, res.Breaks)

	rank := map[string]int{"fill": 0, "line": 1, "content": 2}
	last := 0
	for _, e := range rec.events {
		if e.Kind == "page" {
			last = 0
			continue
		}
		assert.GreaterOrEqual(t, rank[e.Kind], last, "%s after a higher layer", e.Kind)
		last = rank[e.Kind]
	}

	// the table background is the first fill of each page
	assert.Equal(t, "fill", rec.events[0].Kind)
	assert.Equal(t, 0.0, rec.events[0].Y)
}

func TestStopAtBreakMatchesContinuousRun(t *testing.T) {
	build := func() *table.Table {
		tbl := newTable(6, 1, 10, 50)
		tbl.Rows[0].Header = true
		prepare(t, tbl)
		return tbl
	}

	continuous, _ := write(t, build(), 35)

	tbl := build()
	rec := &recorder{}
	w := NewWriter(rec, &fakeFlow{rec: rec, trigger: 35})
	w.SetOptions(Options{StopAtBreak: true})

	var resume *Resume
	calls := 0
	for {
		res, err := w.Write(NewContext(Cursor{}), tbl, resume)
		require.NoError(t, err)
		calls++
		if res.Status == Done {
			break
		}
		require.NotNil(t, res.Resume)
		require.Equal(t, 0, res.Breaks)
		resume = res.Resume
		rec.events = append(rec.events, event{Kind: "page"})
	}

	assert.Equal(t, 3, calls)
	assert.Equal(t, continuous.events, rec.events)
}

func TestResumeCarriesRowAndPosition(t *testing.T) {
	tbl := newTable(4, 1, 10, 50)
	prepare(t, tbl)

	rec := &recorder{}
	w := NewWriter(rec, &fakeFlow{rec: rec, trigger: 25})
	w.SetOptions(Options{StopAtBreak: true})

	res, err := w.Write(NewContext(Cursor{Y: 2}), tbl, nil)
	require.NoError(t, err)

	assert.Equal(t, NotFinished, res.Status)
	assert.Equal(t, 2, res.Resume.Row)
	assert.Equal(t, 0, res.Resume.Group)
	assert.Equal(t, 22.0, res.Resume.Y)
}

func TestKeepWithNextMovesBlock(t *testing.T) {
	tbl := newTable(4, 1, 10, 50)
	tbl.Rows[2].KeepWithNext = true
	prepare(t, tbl)

	rec, _ := write(t, tbl, 35)

	assert.Equal(t, []string{"r0c0", "r1c0", "|", "r2c0", "r3c0"}, contents(rec.events))
}

func TestRowspanStaysTogether(t *testing.T) {
	tbl := table.New(3, 2)
	tbl.Place(0, 0, table.NewCell("a"))
	tbl.Place(0, 1, table.NewCell("b"))
	tbl.Place(1, 0, &table.Cell{Content: "span", Rowspan: 2})
	tbl.Place(1, 1, table.NewCell("c"))
	tbl.Place(2, 1, table.NewCell("d"))
	for _, r := range tbl.Rows {
		r.Height = 10
	}
	for _, c := range tbl.Columns {
		c.Width = 20
	}
	prepare(t, tbl)

	rec, _ := write(t, tbl, 25)

	assert.Equal(t, []string{"a", "b", "|", "span", "c", "d"}, contents(rec.events))
}

func TestColumnGroupsContinueDownThePage(t *testing.T) {
	tbl := newTable(2, 3, 10, 40)
	prepare(t, tbl)
	require.Equal(t, 2, tbl.AssignPageGroups(100))

	rec, res := write(t, tbl, 1000)
	assert.Equal(t, Done, res.Status)

	pos := map[string][2]float64{}
	for _, e := range rec.events {
		if e.Kind == "content" {
			pos[e.Content.(string)] = [2]float64{e.X, e.Y}
		}
	}
	assert.Equal(t, [2]float64{0, 0}, pos["r0c0"])
	assert.Equal(t, [2]float64{40, 10}, pos["r1c1"])
	assert.Equal(t, [2]float64{0, 20}, pos["r0c2"])
	assert.Equal(t, [2]float64{0, 30}, pos["r1c2"])
	assert.Equal(t, []string{"r0c0", "r0c1", "r1c0", "r1c1", "r0c2", "r1c2"}, contents(rec.events))
}

func writeFrom(t *testing.T, ctx *Context, tbl *table.Table, trigger float64) (*recorder, Result) {
	t.Helper()
	rec := &recorder{}
	w := NewWriter(rec, &fakeFlow{rec: rec, trigger: trigger})
	res, err := w.Write(ctx, tbl, nil)
	require.NoError(t, err)
	return rec, res
}

func TestFirstRowBreaksNearPageBottom(t *testing.T) {
	tbl := newTable(3, 1, 20, 50)
	prepare(t, tbl)

	rec, res := writeFrom(t, NewContext(Cursor{Y: 90}), tbl, 100)

	assert.Equal(t, Done, res.Status)
	assert.Equal(t, 1, res.Breaks)
	assert.Equal(t, []string{"|", "r0c0", "r1c0", "r2c0"}, contents(rec.events))
	assert.Equal(t, 60.0, res.Height)
}

func TestHeaderNotLeftAloneAtPageBottom(t *testing.T) {
	tbl := newTable(4, 1, 10, 50)
	tbl.Rows[0].Header = true
	prepare(t, tbl)

	rec, res := writeFrom(t, NewContext(Cursor{Y: 90}), tbl, 100)

	assert.Equal(t, 1, res.Breaks)
	assert.Equal(t, []string{"|", "r0c0", "r1c0", "r2c0", "r3c0"}, contents(rec.events))
	require.NotEmpty(t, rec.events)
	assert.Equal(t, "page", rec.events[0].Kind, "nothing is painted on the page left behind")
}

func TestFreshContextWritesOversizedFirstRow(t *testing.T) {
	tbl := newTable(2, 1, 50, 50)
	prepare(t, tbl)

	ctx := NewContext(Cursor{})
	ctx.Fresh = true
	rec, res := writeFrom(t, ctx, tbl, 30)

	assert.Equal(t, 1, res.Breaks)
	assert.Equal(t, []string{"r0c0", "|", "r1c0"}, contents(rec.events))
}

func TestNestedTableSplitsAcrossPages(t *testing.T) {
	inner := table.New(4, 1)
	inner.Level = 2
	for r := 0; r < 4; r++ {
		inner.Place(r, 0, table.NewCell(fmt.Sprintf("i%d", r)))
		inner.Rows[r].Height = 10
	}
	inner.Columns[0].Width = 30
	prepare(t, inner)

	outer := table.New(1, 2)
	outer.Place(0, 0, table.NewCell("left"))
	outer.Place(0, 1, &table.Cell{Nested: inner})
	outer.Rows[0].Height = 40
	outer.Columns[0].Width = 30
	outer.Columns[1].Width = 30
	prepare(t, outer)

	rec, res := write(t, outer, 25)

	assert.Equal(t, Done, res.Status)
	assert.Equal(t, 1, res.Breaks)
	assert.Equal(t, []string{"left", "i0", "i1", "|", "i2", "i3"}, contents(rec.events))
	assert.Equal(t, 20.0, res.Height)
}

func TestRotatedLimit(t *testing.T) {
	tbl := newTable(4, 1, 10, 50)
	tbl.Rotated = true
	prepare(t, tbl)

	rec := &recorder{}
	w := NewWriter(rec, &fakeFlow{rec: rec, trigger: 1000})
	w.SetOptions(Options{StopAtBreak: true})
	ctx := NewContext(Cursor{})
	ctx.RotatedLimit = 25

	res, err := w.Write(ctx, tbl, nil)
	require.NoError(t, err)

	assert.Equal(t, NotFinished, res.Status)
	assert.Equal(t, 2, res.Resume.Row)
	assert.Equal(t, 20.0, res.RotatedHeight)
}

func TestCollapsedGridLinesDrawnOnce(t *testing.T) {
	tbl := newTable(1, 1, 10, 50)
	tbl.Collapse = table.Collapse
	c := tbl.Cells[0][0]
	for _, s := range border.Sides {
		c.Border[s] = border.Descriptor{Width: 2, Style: border.Solid}
	}
	prepare(t, tbl)

	rec, _ := write(t, tbl, 1000)

	lines := 0
	for _, e := range rec.events {
		if e.Kind == "line" {
			lines++
		}
	}
	assert.Equal(t, 4, lines)
}

func TestFlowErrorPropagates(t *testing.T) {
	tbl := newTable(4, 1, 10, 50)
	prepare(t, tbl)

	boom := errors.New("out of paper")
	rec := &recorder{}
	w := NewWriter(rec, &fakeFlow{rec: rec, trigger: 25, err: boom})

	_, err := w.Write(NewContext(Cursor{}), tbl, nil)
	assert.ErrorIs(t, err, boom)
}

func TestWriteRequiresValidatedTable(t *testing.T) {
	tbl := newTable(1, 1, 10, 10)
	w := NewWriter(&recorder{}, &fakeFlow{trigger: 100})

	_, err := w.Write(NewContext(Cursor{}), tbl, nil)
	assert.Error(t, err)

	prepare(t, tbl)
	_, err = w.Write(nil, tbl, nil)
	assert.Error(t, err)
}

func TestContextFlushOrder(t *testing.T) {
	ctx := NewContext(Cursor{})
	ctx.drawContent(func(s Sink) { s.DrawContent("x", 0, 0, 0, table.AlignLeft) })
	ctx.border(func(p Painter) { p.DrawLine(0, 0, 1, 0, 1, border.Black, border.Solid) })
	ctx.background(func(p Painter) { p.FillRect(0, 0, 1, 1, table.Background{}) })
	ctx.backgroundAt(0, func(p Painter) { p.FillRect(5, 5, 1, 1, table.Background{}) })
	assert.Equal(t, 4, ctx.Pending())

	rec := &recorder{}
	ctx.Flush(rec)

	kinds := make([]string, len(rec.events))
	for i, e := range rec.events {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []string{"fill", "fill", "line", "content"}, kinds)
	assert.Equal(t, 5.0, rec.events[0].X)
	assert.Zero(t, ctx.Pending())
}
