package pagination

import (
	"math"

	"github.com/pkg/errors"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/observability"
	"github.com/gompdf/tablelayout/internal/table"
)

const epsilon = 1e-6

// Status tells whether a table was written completely
type Status int

// Write outcomes
const (
	Done Status = iota
	NotFinished
)

// Resume is where an interrupted table continues
type Resume struct {
	Row   int
	Group int
	// Y is the cursor position at which the previous piece stopped
	Y float64
	// Fragment counts the pieces of a page-split row already written
	Fragment int
	// Nested holds the resume state of nested tables in a split row, by column
	Nested map[int]*Resume
}

// Result is the outcome of Write
type Result struct {
	Status Status
	Resume *Resume
	// Height is the height used on the last page or column
	Height float64
	// Breaks counts the pages or columns requested from the page flow
	Breaks        int
	RotatedHeight float64
}

// Options represents options for the pagination writer
type Options struct {
	// StopAtBreak returns NotFinished at the first break instead of
	// requesting a new page from the page flow
	StopAtBreak bool
	Debug       bool
	Logger      observability.Logger
}

// Writer walks a solved table row by row and emits draw commands,
// breaking pages and repeating headers and footers as needed
type Writer struct {
	sink    Sink
	flow    PageFlow
	options Options
}

// NewWriter creates a new pagination writer
func NewWriter(sink Sink, flow PageFlow) *Writer {
	return &Writer{
		sink:    sink,
		flow:    flow,
		options: Options{Logger: observability.NopLogger{}},
	}
}

// SetOptions sets the options for the pagination writer
func (w *Writer) SetOptions(options Options) {
	if options.Logger == nil {
		options.Logger = observability.NopLogger{}
	}
	w.options = options
}

// Write lays out t at the context cursor. A nil resume starts at the top
// of the table; otherwise writing continues where an earlier call stopped.
func (w *Writer) Write(ctx *Context, t *table.Table, resume *Resume) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("pagination: nil context")
	}
	if t.Owner(0, 0) == nil {
		return Result{}, errors.New("pagination: table not validated")
	}

	r := w.newRun(ctx, t, w.flow, w.options.StopAtBreak, false, ctx.Cursor.X, ctx.Cursor.Y)
	r.fresh = ctx.Fresh || resume != nil
	res, err := r.write(resume)
	if err != nil {
		return res, err
	}
	ctx.Flush(w.sink)
	ctx.Cursor.Y = r.y
	return res, nil
}

// run is the state of writing one table, nested tables get their own
type run struct {
	w      *Writer
	ctx    *Context
	t      *table.Table
	flow   PageFlow
	stop   bool
	nested bool

	frame   table.Edges
	xs      []float64
	x0      float64
	y       float64
	pageTop float64
	segTop  float64
	bgMark  int
	segMark [3]int
	group   int
	placed  int
	lastRow int
	total   float64
	breaks  int

	// fresh is set while the run sits at the top of a page or column it
	// did not break away from yet
	fresh bool

	// afterHeader suppresses the top edge of the row that follows a
	// printed header block; the header boundary already painted it
	afterHeader bool

	headers []int
	body    []int
	footers []int
	footerH float64
}

func (w *Writer) newRun(ctx *Context, t *table.Table, flow PageFlow, stop, nested bool, x, y float64) *run {
	r := &run{
		w:       w,
		ctx:     ctx,
		t:       t,
		flow:    flow,
		stop:    stop,
		nested:  nested,
		frame:   t.Frame(),
		x0:      x,
		y:       y,
		pageTop: y,
		lastRow: -1,
		headers: t.HeaderRows(),
		body:    t.BodyRows(),
		footers: t.FooterRows(),
	}
	r.xs = make([]float64, t.ColCount()+1)
	for i, c := range t.Columns {
		r.xs[i+1] = r.xs[i] + c.Width
	}
	for _, i := range r.footers {
		r.footerH += t.Rows[i].Height
	}
	return r
}

func (r *run) write(resume *Resume) (Result, error) {
	start, group, fragment := 0, 0, 0
	var nested map[int]*Resume
	if resume != nil {
		start = indexOf(r.body, resume.Row)
		if start < 0 {
			return Result{}, errors.Errorf("pagination: resume row %d is not a body row", resume.Row)
		}
		group, fragment, nested = resume.Group, resume.Fragment, resume.Nested
	}

	for g := group; g < r.t.GroupCount(); g++ {
		r.group = g
		r.beginSegment()
		r.printHeaders()

		for i := start; i < len(r.body); {
			row := r.body[i]
			end := r.blockEnd(row)
			height := r.t.RowsHeight(row, end+1)
			fits := r.y+height+r.reserve() <= r.limit()+epsilon
			splittable := end == row && r.hasNested(row)

			// a row that does not fit moves to the next page unless this
			// segment is the top of one already; a splittable row fills
			// the room left instead
			if !fits && (r.placed > 0 || (!r.fresh && !splittable)) {
				res, stopped, err := r.pageBreak(&Resume{Row: row, Group: g})
				if err != nil || stopped {
					return res, err
				}
				continue
			}

			if fragment > 0 || (!fits && splittable) {
				res, stopped, err := r.splitRow(row, fragment, nested)
				if err != nil || stopped {
					return res, err
				}
				fragment, nested = 0, nil
				i++
				continue
			}

			for rr := row; rr <= end; rr++ {
				r.emitRow(rr, true)
			}
			i += end - row + 1
		}

		r.printFooters()
		r.endSegment()
		start, fragment, nested = 0, 0, nil
	}

	return r.result(Done, nil), nil
}

func (r *run) result(status Status, resume *Resume) Result {
	res := Result{
		Status: status,
		Resume: resume,
		Height: r.y - r.pageTop,
		Breaks: r.breaks,
	}
	if r.t.Rotated {
		res.RotatedHeight = r.total
	}
	return res
}

func (r *run) limit() float64 {
	if r.t.Rotated && !r.nested && r.ctx.RotatedLimit > 0 {
		return r.ctx.RotatedLimit
	}
	return r.flow.BreakTrigger()
}

// reserve is the space kept below the body rows for the footer block and
// the table's bottom frame
func (r *run) reserve() float64 {
	return r.footerH + r.frame.Bottom
}

// blockEnd returns the last row that must stay on the same page as row:
// rows held by a rowspan or a keep-with-next request.
func (r *run) blockEnd(row int) int {
	end := row
	for rr := row; rr <= end; rr++ {
		if e := r.t.SpanEnd(rr); e > end {
			end = e
		}
		if rr == end && rr+1 < r.t.RowCount() && r.t.Rows[rr].KeepWithNext && isBody(r.t, rr+1) {
			end = rr + 1
		}
	}
	for _, c := range r.t.CellsInRow(row) {
		if c.KeepTogether && c.Row+c.Rowspan-1 > end {
			end = c.Row + c.Rowspan - 1
		}
	}
	return end
}

func (r *run) hasNested(row int) bool {
	for _, c := range r.groupCells(row) {
		if c.Nested != nil {
			return true
		}
	}
	return false
}

func (r *run) groupCells(row int) []*table.Cell {
	from, to := r.t.GroupColumns(r.group)
	var cells []*table.Cell
	for c := from; c < to; c++ {
		if cell := r.t.Cells[row][c]; cell != nil {
			cells = append(cells, cell)
		}
	}
	return cells
}

// pageBreak closes the current segment, prints the footer and either
// stops or moves to a fresh page with the header repeated
func (r *run) pageBreak(resume *Resume) (Result, bool, error) {
	if r.placed == 0 {
		// nothing of the body is on this page: drop the headers and frame
		r.ctx.rewind(r.segMark)
		r.y = r.segTop
		r.lastRow = -1
	} else {
		r.printFooters()
		r.endSegment()
	}
	resume.Y = r.y

	if r.w.options.Debug {
		r.w.options.Logger.Debug("table break",
			observability.Int("row", resume.Row),
			observability.Int("group", resume.Group),
			observability.Float("y", r.y))
	}

	if !r.nested {
		r.ctx.Flush(r.w.sink)
	}
	if r.stop {
		return r.result(NotFinished, resume), true, nil
	}

	cur, err := r.flow.NewPageOrColumn()
	if err != nil {
		return Result{}, true, errors.Wrapf(err, "request page for row %d", resume.Row)
	}
	r.ctx.Cursor = cur
	r.x0, r.y, r.pageTop = cur.X, cur.Y, cur.Y
	r.fresh = true
	r.breaks++

	r.beginSegment()
	r.printHeaders()
	return Result{}, false, nil
}

func (r *run) beginSegment() {
	r.segTop = r.y
	r.bgMark = len(r.ctx.backgrounds)
	r.segMark = r.ctx.mark()
	r.y += r.frame.Top
	r.placed = 0
	r.lastRow = -1
	r.afterHeader = false
}

func (r *run) endSegment() {
	if r.lastRow < 0 {
		r.y = r.segTop
		return
	}
	if r.t.Collapse == table.Collapse {
		r.paintH(r.lastRow+1, r.y)
	}

	top, bottom := r.segTop, r.y+r.frame.Bottom
	x, w := r.x0, r.frame.Left+r.t.GroupWidth(r.group)+r.frame.Right
	if bg := r.t.Background; !bg.Empty() {
		r.ctx.backgroundAt(r.bgMark, func(p Painter) {
			p.FillRect(x, top, w, bottom-top, bg)
		})
	}
	if r.t.Collapse == table.Separate {
		r.paintFrame(x, top, w, bottom-top)
	}

	r.y = bottom
	r.total += bottom - top
	r.fresh = false
}

func (r *run) printHeaders() {
	if len(r.headers) == 0 {
		return
	}
	for _, row := range r.headers {
		r.emitRow(row, false)
	}

	if r.t.Collapse == table.Collapse {
		r.paintH(r.headers[len(r.headers)-1]+1, r.y)
	} else if u := r.t.HeaderUnderline; u != nil {
		left := r.x0 + r.frame.Left
		r.line(*u, left, r.y, left+r.t.GroupWidth(r.group), r.y)
	}
	r.afterHeader = true
}

func (r *run) printFooters() {
	for _, row := range r.footers {
		r.emitRow(row, false)
	}
}

func (r *run) emitRow(row int, body bool) {
	t := r.t
	top := r.y
	height := t.Rows[row].Height

	if bg := t.Rows[row].Background; !bg.Empty() {
		left, w := r.x0+r.frame.Left, t.GroupWidth(r.group)
		r.ctx.background(func(p Painter) {
			p.FillRect(left, top, w, height, bg)
		})
	}

	for _, cell := range r.groupCells(row) {
		_, h := t.GetHeight(row, cell.Col)
		r.emitCell(cell, top, &h, true)
	}

	if t.Collapse == table.Collapse {
		if !r.afterHeader {
			r.paintH(row, top)
		}
		r.paintV(row, top, height)
	}

	r.afterHeader = false
	r.lastRow = row
	r.y += height
	if body {
		r.placed++
	}
}

// emitCell collects the background, borders and content of a cell. The
// height is read when the commands are flushed, so a split row can settle
// it after its nested tables are written.
func (r *run) emitCell(cell *table.Cell, top float64, h *float64, withContent bool) {
	x, w := r.t.GetGroupWidth(cell.Row, cell.Col)
	x += r.x0 + r.frame.Left
	box := func() (float64, float64, float64, float64) {
		return r.borderBox(x, top, w, *h)
	}

	if bg := cell.Background; !bg.Empty() {
		r.ctx.background(func(p Painter) {
			bx, by, bw, bh := box()
			p.FillRect(bx, by, bw, bh, bg)
		})
	}

	if r.t.Collapse == table.Separate {
		for _, side := range border.Sides {
			d := cell.Border[side]
			if !d.Visible() {
				continue
			}
			side := side
			r.ctx.border(func(p Painter) {
				bx, by, bw, bh := box()
				x1, y1, x2, y2 := sideLine(side, d.Width, bx, by, bw, bh)
				p.DrawLine(x1, y1, x2, y2, d.Width, d.Color, d.Style)
			})
		}
	}

	if !withContent {
		return
	}

	bx, by, bw, _ := r.borderBox(x, top, w, 0)
	ix, iy, iw := r.contentOrigin(cell, bx, by, bw)
	if cell.Nested != nil {
		r.writeNested(cell, ix, iy)
		return
	}

	content, align := cell.Content, cell.HAlign
	r.ctx.drawContent(func(s Sink) {
		_, _, _, bh := box()
		inner := bh - (iy - by) - r.bottomExtras(cell)
		s.DrawContent(content, ix, iy+valign(cell, inner), iw, align)
	})
}

// borderBox returns the painted box of a cell slot
func (r *run) borderBox(x, y, w, h float64) (float64, float64, float64, float64) {
	if r.t.Collapse == table.Collapse {
		return x, y, w, h
	}
	sh, sv := r.t.SpacingH, r.t.SpacingV
	return x + sh/2, y + sv/2, math.Max(0, w-sh), math.Max(0, h-sv)
}

func (r *run) share(cell *table.Cell, side border.Side) float64 {
	if r.t.Collapse == table.Collapse {
		return cell.Border[side].Resolved() / 2
	}
	return cell.Border[side].Effective()
}

func (r *run) contentOrigin(cell *table.Cell, bx, by, bw float64) (x, y, w float64) {
	left := r.share(cell, border.Left) + cell.Padding.Left
	right := r.share(cell, border.Right) + cell.Padding.Right
	top := r.share(cell, border.Top) + cell.Padding.Top
	return bx + left, by + top, math.Max(0, bw-left-right)
}

func (r *run) bottomExtras(cell *table.Cell) float64 {
	extra := r.share(cell, border.Bottom) + cell.Padding.Bottom
	if r.t.Collapse == table.Separate {
		extra += r.t.SpacingV / 2
	}
	return extra
}

func valign(cell *table.Cell, inner float64) float64 {
	space := inner - cell.ContentHeight
	if space <= 0 {
		return 0
	}
	switch cell.VAlign {
	case table.AlignMiddle:
		return space / 2
	case table.AlignBottom:
		return space
	default:
		return 0
	}
}

// sideLine returns a line centred inside the box along one side
func sideLine(side border.Side, width, x, y, w, h float64) (x1, y1, x2, y2 float64) {
	half := width / 2
	switch side {
	case border.Top:
		return x, y + half, x + w, y + half
	case border.Bottom:
		return x, y + h - half, x + w, y + h - half
	case border.Left:
		return x + half, y, x + half, y + h
	default:
		return x + w - half, y, x + w - half, y + h
	}
}

func (r *run) line(d border.Descriptor, x1, y1, x2, y2 float64) {
	if !d.Visible() {
		return
	}
	r.ctx.border(func(p Painter) {
		p.DrawLine(x1, y1, x2, y2, d.Width, d.Color, d.Style)
	})
}

// paintFrame draws the table's own border around a segment
func (r *run) paintFrame(x, y, w, h float64) {
	for _, side := range border.Sides {
		d := r.t.Border[side]
		x1, y1, x2, y2 := sideLine(side, d.Width, x, y, w, h)
		r.line(d, x1, y1, x2, y2)
	}
}

func (r *run) groupX(c int) float64 {
	from, _ := r.t.GroupColumns(r.group)
	return r.xs[c] - r.xs[from]
}

// paintH draws the collapsed horizontal segments on grid line gridRow,
// extended at both ends to cover the perpendicular borders meeting there
func (r *run) paintH(gridRow int, y float64) {
	if gridRow < 0 || gridRow >= len(r.t.HEdges) {
		return
	}
	from, to := r.t.GroupColumns(r.group)
	left := r.x0 + r.frame.Left
	for c := from; c < to; c++ {
		seg := r.t.HEdges[gridRow][c]
		x1 := left + r.groupX(c) - seg.Meeting[border.Start]/2
		x2 := left + r.groupX(c+1) + seg.Meeting[border.End]/2
		r.line(seg, x1, y, x2, y)
	}
}

// paintV draws the collapsed vertical segments of one row
func (r *run) paintV(row int, y, h float64) {
	if row < 0 || row >= len(r.t.VEdges) {
		return
	}
	from, to := r.t.GroupColumns(r.group)
	left := r.x0 + r.frame.Left
	for c := from; c <= to; c++ {
		seg := r.t.VEdges[row][c]
		x := left + r.groupX(c)
		r.line(seg, x, y, x, y+h)
	}
}

// writeNested writes a nested table that fits inside its cell
func (r *run) writeNested(cell *table.Cell, x, y float64) {
	child := r.w.newRun(r.ctx, cell.Nested, unlimited{}, true, true, x, y)
	child.fresh = true
	if _, err := child.write(nil); err != nil {
		r.w.options.Logger.Warn("nested table not written",
			observability.Int("row", cell.Row),
			observability.Int("col", cell.Col),
			observability.Error("err", err))
	}
}

// splitRow writes a row holding nested tables taller than the page in
// fragments, breaking the page between them
func (r *run) splitRow(row, fragment int, resumes map[int]*Resume) (Result, bool, error) {
	cells := r.groupCells(row)
	for {
		top := r.y
		avail := math.Max(0, r.limit()-top-r.reserve())
		h := avail

		for _, cell := range cells {
			r.emitCell(cell, top, &h, cell.Nested == nil && fragment == 0)
		}

		used := 0.0
		next := map[int]*Resume{}
		for _, cell := range cells {
			if cell.Nested == nil {
				if fragment == 0 {
					used = math.Max(used, cell.MinHeight)
				}
				continue
			}
			if fragment > 0 && resumes[cell.Col] == nil {
				continue
			}

			x, w := r.t.GetGroupWidth(row, cell.Col)
			bx, by, bw, _ := r.borderBox(x+r.x0+r.frame.Left, top, w, 0)
			ix, iy, _ := r.contentOrigin(cell, bx, by, bw)
			bottom := top + avail - r.bottomExtras(cell)

			child := r.w.newRun(r.ctx, cell.Nested, limitFlow(bottom), true, true, ix, iy)
			child.fresh = true
			res, err := child.write(resumes[cell.Col])
			if err != nil {
				return Result{}, true, errors.Wrapf(err, "nested table in cell (%d,%d)", row, cell.Col)
			}
			if res.Status == NotFinished {
				next[cell.Col] = res.Resume
				used = math.Max(used, avail)
				continue
			}
			used = math.Max(used, (iy-top)+res.Height+r.bottomExtras(cell))
		}

		if len(next) == 0 {
			h = used
		}
		if r.t.Collapse == table.Collapse {
			if !r.afterHeader && fragment == 0 {
				r.paintH(row, top)
			}
			r.paintV(row, top, h)
		}
		r.afterHeader = false
		r.lastRow = row
		r.y += h
		r.placed++

		if len(next) == 0 {
			return Result{}, false, nil
		}

		fragment++
		res, stopped, err := r.pageBreak(&Resume{Row: row, Group: r.group, Fragment: fragment, Nested: next})
		if err != nil || stopped {
			return res, stopped, err
		}
		resumes = next
	}
}

// unlimited never breaks; nested tables that fit their cell use it
type unlimited struct{}

func (unlimited) NewPageOrColumn() (Cursor, error) {
	return Cursor{}, errors.New("pagination: nested table cannot request a page")
}

func (unlimited) BreakTrigger() float64 { return math.Inf(1) }

// limitFlow breaks at a fixed position; nested tables of a split row use it
type limitFlow float64

func (limitFlow) NewPageOrColumn() (Cursor, error) {
	return Cursor{}, errors.New("pagination: nested table cannot request a page")
}

func (l limitFlow) BreakTrigger() float64 { return float64(l) }

func indexOf(rows []int, row int) int {
	for i, r := range rows {
		if r == row {
			return i
		}
	}
	return -1
}

func isBody(t *table.Table, row int) bool {
	return !t.Rows[row].Header && !t.Rows[row].Footer
}
