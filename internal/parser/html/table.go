package html

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/parser/css"
	"github.com/gompdf/tablelayout/internal/style"
	"github.com/gompdf/tablelayout/internal/table"
	"github.com/gompdf/tablelayout/internal/text"
)

// ErrNoTable is returned when a document holds no table with cells
var ErrNoTable = errors.New("no table in document")

const (
	maxColspan = 1000
	maxRowspan = 65534
)

var sideNames = [4]string{"top", "right", "bottom", "left"}

// Builder turns <table> elements into layout tables. Styles come from the
// cascade; presentational attributes fill in what CSS leaves unset.
type Builder struct {
	styles *style.StyleEngine
	base   text.Font
	cache  map[*Node]style.ComputedStyle
}

// NewBuilder creates a table builder. Text without a font size set in CSS
// uses base.
func NewBuilder(styles *style.StyleEngine, base text.Font) *Builder {
	if styles == nil {
		styles = style.NewStyleEngine()
	}
	if base.Size <= 0 {
		base = text.DefaultFont
	}
	return &Builder{
		styles: styles,
		base:   base,
		cache:  make(map[*Node]style.ComputedStyle),
	}
}

// Tables builds every top-level table of doc in document order. Tables
// without cells are skipped.
func (b *Builder) Tables(doc *Document) ([]*table.Table, error) {
	var (
		tables []*table.Table
		err    error
	)
	doc.Root.Walk(func(n *Node) bool {
		if err != nil {
			return false
		}
		if !n.IsElement("table") {
			return true
		}
		var t *table.Table
		if t, err = b.Table(n); err == nil && t != nil {
			tables = append(tables, t)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, ErrNoTable
	}
	return tables, nil
}

type rowSource struct {
	node    *Node
	section *Node
	header  bool
	footer  bool
	// end is the first row past the row's section
	end int
}

type placement struct {
	node             *Node
	row, col         int
	rowspan, colspan int
}

// Table builds one <table> element. It returns nil when the table has no
// cells.
func (b *Builder) Table(n *Node) (*table.Table, error) {
	rows := collectRows(n)

	var (
		cells    []placement
		occupied = make([][]bool, len(rows))
		ncols    int
	)
	for r, src := range rows {
		col := 0
		for _, td := range src.node.Children("td", "th") {
			for col < len(occupied[r]) && occupied[r][col] {
				col++
			}
			cs := clamp(intAttr(td, "colspan", 1), 1, maxColspan)
			rs := intAttr(td, "rowspan", 1)
			if rs == 0 {
				rs = src.end - r
			}
			rs = clamp(rs, 1, min(maxRowspan, src.end-r))

			for i := r; i < r+rs; i++ {
				for len(occupied[i]) < col+cs {
					occupied[i] = append(occupied[i], false)
				}
				for j := col; j < col+cs; j++ {
					occupied[i][j] = true
				}
			}
			cells = append(cells, placement{node: td, row: r, col: col, rowspan: rs, colspan: cs})
			col += cs
			ncols = max(ncols, col)
		}
	}
	if len(cells) == 0 {
		return nil, nil
	}

	cols := b.columns(n)
	ncols = max(ncols, len(cols))

	t := table.New(len(rows), ncols)
	ts := b.style(n)
	cellPadding := b.tableProperties(t, n, ts)

	for i, width := range cols {
		if width.Percent {
			t.Columns[i].PercentWidth = width.Value
		} else {
			t.Columns[i].DeclaredWidth = width.Value
		}
	}

	for r, src := range rows {
		t.Rows[r].Header = src.header
		t.Rows[r].Footer = src.footer
		b.rowProperties(t.Rows[r], src)
	}

	for _, p := range cells {
		c, err := b.cell(p, cellPadding)
		if err != nil {
			return nil, errors.Wrapf(err, "cell at row %d column %d", p.row, p.col)
		}
		t.Place(p.row, p.col, c)
	}

	// ragged rows are padded with empty cells
	for r := range rows {
		for c := 0; c < ncols; c++ {
			if c < len(occupied[r]) && occupied[r][c] {
				continue
			}
			filler := table.NewCell("")
			if cellPadding != nil {
				filler.Padding = *cellPadding
			}
			t.Place(r, c, filler)
		}
	}

	return t, nil
}

// collectRows lists the rows in layout order: header rows, body rows, then
// footer rows wherever the <tfoot> appears in the source.
func collectRows(n *Node) []rowSource {
	var head, foot []*Node
	var bodies [][]*Node
	var loose []*Node
	var sections = map[*Node]*Node{}

	flush := func() {
		if len(loose) > 0 {
			bodies = append(bodies, loose)
			loose = nil
		}
	}
	for _, c := range n.Children() {
		switch c.Data {
		case "thead":
			for _, tr := range c.Children("tr") {
				head = append(head, tr)
				sections[tr] = c
			}
		case "tfoot":
			for _, tr := range c.Children("tr") {
				foot = append(foot, tr)
				sections[tr] = c
			}
		case "tbody":
			flush()
			rows := c.Children("tr")
			for _, tr := range rows {
				sections[tr] = c
			}
			bodies = append(bodies, rows)
		case "tr":
			loose = append(loose, c)
		}
	}
	flush()

	var out []rowSource
	add := func(group []*Node, header, footer bool) {
		end := len(out) + len(group)
		for _, tr := range group {
			out = append(out, rowSource{node: tr, section: sections[tr], header: header, footer: footer, end: end})
		}
	}
	add(head, true, false)
	for _, body := range bodies {
		add(body, false, false)
	}
	add(foot, false, true)
	return out
}

// columns reads <col> widths, expanding span
func (b *Builder) columns(n *Node) []css.Length {
	var out []css.Length
	var cols []*Node
	for _, c := range n.Children("colgroup", "col") {
		if c.Data == "col" {
			cols = append(cols, c)
			continue
		}
		cols = append(cols, c.Children("col")...)
	}
	for _, col := range cols {
		cs := b.style(col)
		w, _ := b.length(col, cs, "width", b.base.Size)
		for i := clamp(intAttr(col, "span", 1), 1, maxColspan); i > 0; i-- {
			out = append(out, w)
		}
	}
	return out
}

// tableProperties applies table level attributes and CSS. It returns the
// cellpadding attribute as edges, or nil when absent.
func (b *Builder) tableProperties(t *table.Table, n *Node, cs style.ComputedStyle) *table.Edges {
	fs := b.font(cs).Size

	if cs.Get("border-collapse") == "collapse" {
		t.Collapse = table.Collapse
	}

	if v, ok := n.Attribute("border"); ok {
		w := 1.0
		if px, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			w = px
		}
		if w > 0 {
			t.AttributeBorders = true
			for _, side := range border.Sides {
				t.Border[side] = border.Descriptor{Width: w * 0.75, Style: border.Solid}
			}
		}
	}
	t.Border = b.borders(cs, fs, t.Border)

	if t.Collapse == table.Separate {
		if v, ok := n.Attribute("cellspacing"); ok && !authored(cs, "border-spacing") {
			if l, ok := css.ParseLength(v, fs); ok {
				t.SpacingH, t.SpacingV = l.Value, l.Value
			}
		} else if v, ok := cs.Lookup("border-spacing"); ok {
			t.SpacingH, t.SpacingV = spacing(v, fs)
		}
		t.Padding = edges(cs, "padding", fs)
	}
	t.Margin = edges(cs, "margin", fs)

	if l, ok := b.length(n, cs, "width", fs); ok {
		if l.Percent {
			t.WidthPercent = l.Value
		} else {
			t.Width = l.Value
		}
	}

	t.Background = background(n, cs)

	switch cs.Get("overflow") {
	case "hidden":
		t.Overflow = table.Hidden
	case "wrap":
		t.Overflow = table.Wrap
	}

	rotate, ok := n.Attribute("rotate")
	if !ok {
		rotate = cs.Get("rotate")
	}
	switch strings.TrimSuffix(strings.TrimSpace(rotate), "deg") {
	case "90", "-90", "270":
		t.Rotated = true
	}

	if v, ok := cs.Lookup("topntail"); ok {
		if d, ok := css.ParseBorder(v, fs); ok {
			t.TopNTail = &d
		}
	}
	if v, ok := cs.Lookup("thead-underline"); ok {
		if d, ok := css.ParseBorder(v, fs); ok {
			t.HeaderUnderline = &d
		}
	}

	if v, ok := n.Attribute("cellpadding"); ok {
		if l, ok := css.ParseLength(v, fs); ok {
			return &table.Edges{Top: l.Value, Right: l.Value, Bottom: l.Value, Left: l.Value}
		}
	}
	return nil
}

func (b *Builder) rowProperties(row *table.Row, src rowSource) {
	cs := b.style(src.node)
	fs := b.font(cs).Size

	if l, ok := b.length(src.node, cs, "height", fs); ok && !l.Percent {
		row.SpecifiedHeight = l.Value
	}
	row.Background = background(src.node, cs)
	if row.Background.Empty() && src.section != nil {
		row.Background = background(src.section, b.style(src.section))
	}
	if avoid(cs, "page-break-after", "break-after") {
		row.KeepWithNext = true
	}
}

func (b *Builder) cell(p placement, cellPadding *table.Edges) (*table.Cell, error) {
	cs := b.style(p.node)
	f := b.font(cs)

	c := &table.Cell{Colspan: p.colspan, Rowspan: p.rowspan}

	if inner := nestedTable(p.node); inner != nil {
		nt, err := b.Table(inner)
		if err != nil {
			return nil, errors.Wrap(err, "nested table")
		}
		c.Nested = nt
	}
	if c.Nested == nil {
		c.Content = b.content(p.node, cs, f)
	}

	if l, ok := b.length(p.node, cs, "width", f.Size); ok {
		if l.Percent {
			c.PercentWidth = l.Value
		} else {
			c.Width = l.Value
		}
	}
	if l, ok := b.length(p.node, cs, "height", f.Size); ok && !l.Percent {
		c.Height = l.Value
	}

	align, ok := cs.Lookup("text-align")
	if v, attr := p.node.Attribute("align"); attr && !authored(cs, "text-align") {
		align, ok = v, true
	}
	if ok {
		c.HAlign = hAlign(align)
	}
	valign := cs.Get("vertical-align")
	if v, attr := p.node.Attribute("valign"); attr && !authored(cs, "vertical-align") {
		valign = v
	}
	c.VAlign = vAlign(valign)

	if cellPadding != nil && !authored(cs, "padding", "padding-top", "padding-right", "padding-bottom", "padding-left") {
		c.Padding = *cellPadding
	} else {
		c.Padding = edges(cs, "padding", f.Size)
	}

	c.Background = background(p.node, cs)
	c.Border = b.borders(cs, f.Size, c.Border)
	c.KeepTogether = avoid(cs, "page-break-inside", "break-inside")

	return c, nil
}

// nestedTable finds the first table inside a cell, not looking into it
func nestedTable(n *Node) *Node {
	var found *Node
	for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
		c.Walk(func(d *Node) bool {
			if found != nil {
				return false
			}
			if d.IsElement("table") {
				found = d
				return false
			}
			return true
		})
	}
	return found
}

// content collects the text of a cell. Line breaks and block elements
// start new lines; nested tables, scripts and styles are skipped.
func (b *Builder) content(n *Node, cs style.ComputedStyle, f text.Font) text.Content {
	pre := strings.HasPrefix(cs.Get("white-space"), "pre")

	var (
		lines []string
		cur   strings.Builder
	)
	newline := func() {
		lines = append(lines, cur.String())
		cur.Reset()
	}
	var walk func(*Node)
	walk = func(d *Node) {
		for c := d.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				cur.WriteString(c.Data)
			case c.IsElement("br"):
				newline()
			case c.IsElement("table", "script", "style"):
			case c.IsElement("p", "div", "li", "pre", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6"):
				if cur.Len() > 0 {
					newline()
				}
				walk(c)
				newline()
			default:
				walk(c)
			}
		}
	}
	walk(n)
	if cur.Len() > 0 {
		newline()
	}

	out := text.Content{Font: f, Preformatted: pre}
	if v, ok := cs.Lookup("color"); ok {
		if col, ok := css.ParseColor(v); ok {
			out.Color = [3]int{col.R, col.G, col.B}
		}
	}

	if pre {
		out.Text = text.Normalize(strings.TrimPrefix(strings.Join(lines, "\n"), "\n"), true)
		return out
	}

	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(text.Normalize(l, false)); l != "" {
			kept = append(kept, l)
		}
	}
	out.Text = strings.Join(kept, "\n")
	// hard breaks survive only as preformatted lines
	out.Preformatted = len(kept) > 1
	return out
}

func (b *Builder) style(n *Node) style.ComputedStyle {
	if cs, ok := b.cache[n]; ok {
		return cs
	}
	var parent style.ComputedStyle
	if n.Parent.IsElement() {
		parent = b.style(n.Parent)
	}
	cs := b.styles.Compute(n, parent)
	b.cache[n] = cs
	return cs
}

func (b *Builder) font(cs style.ComputedStyle) text.Font {
	f := b.base

	if v, ok := cs.Lookup("font-family"); ok {
		family, _, _ := strings.Cut(v, ",")
		f.Family = strings.Trim(strings.TrimSpace(family), `"'`)
	}
	if v, ok := cs.Lookup("font-size"); ok {
		if l, ok := css.ParseLength(v, b.base.Size); ok {
			f.Size = l.Of(b.base.Size)
		} else if scale, ok := fontSizes[v]; ok {
			f.Size = b.base.Size * scale
		}
	}
	if v, ok := cs.Lookup("line-height"); ok && v != "normal" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.LineHeight = n
		} else if l, ok := css.ParseLength(v, f.Size); ok && f.Size > 0 {
			f.LineHeight = l.Of(f.Size) / f.Size
		}
	}

	f.Style = ""
	switch w := cs.Get("font-weight"); w {
	case "bold", "bolder":
		f.Style = "B"
	default:
		if n, err := strconv.Atoi(w); err == nil && n >= 600 {
			f.Style = "B"
		}
	}
	if s := cs.Get("font-style"); s == "italic" || s == "oblique" {
		f.Style += "I"
	}
	return f
}

var fontSizes = map[string]float64{
	"xx-small": 0.6,
	"x-small":  0.75,
	"small":    0.89,
	"medium":   1,
	"large":    1.2,
	"x-large":  1.5,
	"xx-large": 2,
	"smaller":  0.83,
	"larger":   1.2,
}

// length reads a CSS length property, falling back to the presentational
// attribute of the same name
func (b *Builder) length(n *Node, cs style.ComputedStyle, name string, fs float64) (css.Length, bool) {
	if v, ok := cs.Lookup(name); ok {
		if l, ok := css.ParseLength(v, fs); ok {
			return l, true
		}
	}
	if v, ok := n.Attribute(name); ok {
		return css.ParseLength(v, fs)
	}
	return css.Length{}, false
}

// borders applies the border shorthands and longhands of cs over base.
// Longhands are applied after shorthands.
func (b *Builder) borders(cs style.ComputedStyle, fs float64, base [4]border.Descriptor) [4]border.Descriptor {
	out := base
	var widthSet [4]bool

	apply := func(side int, d border.Descriptor, weight float64) {
		out[side] = d
		out[side].Specificity = weight
		widthSet[side] = d.Width > 0
	}

	if v, ok := cs.Lookup("border"); ok {
		if d, ok := css.ParseBorder(v, fs); ok {
			for i := range out {
				apply(i, d, cs.Specificity("border"))
			}
		}
	}
	for i, name := range sideNames {
		prop := "border-" + name
		if v, ok := cs.Lookup(prop); ok {
			if d, ok := css.ParseBorder(v, fs); ok {
				apply(i, d, cs.Specificity(prop))
			}
		}
	}

	longhand := func(i int, part, v string, weight float64) {
		switch part {
		case "width":
			if w, ok := css.ParseBorderWidth(v, fs); ok {
				out[i].Width = w
				widthSet[i] = true
			}
		case "style":
			if s, ok := border.ParseStyle(v); ok {
				out[i].Style = s
			}
		case "color":
			if c, ok := css.ParseColor(v); ok {
				out[i].Color = c
			}
		}
		out[i].Specificity = max(out[i].Specificity, weight)
	}
	for _, part := range []string{"width", "style", "color"} {
		prop := "border-" + part
		if v, ok := cs.Lookup(prop); ok {
			if box, ok := css.ParseBoxShorthand(v); ok {
				for i := range out {
					longhand(i, part, box[i], cs.Specificity(prop))
				}
			}
		}
		for i, name := range sideNames {
			prop := "border-" + name + "-" + part
			if v, ok := cs.Lookup(prop); ok {
				longhand(i, part, v, cs.Specificity(prop))
			}
		}
	}

	for i := range out {
		if out[i].Style != border.None && !widthSet[i] && out[i].Width == 0 {
			out[i].Width, _ = css.ParseBorderWidth("medium", fs)
		}
	}
	return out
}

// edges reads a box property such as padding from its shorthand and
// per-side longhands. Percentages and auto resolve to zero.
func edges(cs style.ComputedStyle, prop string, fs float64) table.Edges {
	var v [4]string
	if s, ok := cs.Lookup(prop); ok {
		if box, ok := css.ParseBoxShorthand(s); ok {
			v = box
		}
	}
	for i, name := range sideNames {
		if s, ok := cs.Lookup(prop + "-" + name); ok {
			v[i] = s
		}
	}

	var out [4]float64
	for i, s := range v {
		if l, ok := css.ParseLength(s, fs); ok && !l.Percent {
			out[i] = l.Value
		}
	}
	return table.Edges{Top: out[0], Right: out[1], Bottom: out[2], Left: out[3]}
}

func spacing(v string, fs float64) (h, vert float64) {
	f := strings.Fields(v)
	if len(f) == 0 {
		return 0, 0
	}
	if l, ok := css.ParseLength(f[0], fs); ok {
		h = l.Value
	}
	vert = h
	if len(f) > 1 {
		if l, ok := css.ParseLength(f[1], fs); ok {
			vert = l.Value
		}
	}
	return h, vert
}

// background reads the bgcolor attribute, then background,
// background-color and background-image
func background(n *Node, cs style.ComputedStyle) table.Background {
	var bg table.Background
	if v, ok := n.Attribute("bgcolor"); ok {
		if c, ok := css.ParseColor(v); ok {
			bg.Color = &c
		}
	}
	if v, ok := cs.Lookup("background"); ok {
		if parsed, ok := css.ParseBackground(v); ok {
			bg = parsed
		}
	}
	if v, ok := cs.Lookup("background-color"); ok {
		if c, ok := css.ParseColor(v); ok {
			bg.Color = &c
		}
	}
	if v, ok := cs.Lookup("background-image"); ok {
		if g, ok := css.ParseLinearGradient(v); ok {
			bg.Gradient = g
		} else if ref, ok := css.ParseURL(v); ok {
			bg.Image = ref
		}
	}
	return bg
}

func hAlign(v string) table.HAlign {
	switch strings.Trim(strings.ToLower(strings.TrimSpace(v)), `"'`) {
	case "center":
		return table.AlignCenter
	case "right", "end":
		return table.AlignRight
	case "decimal", ".", "char":
		return table.AlignDecimal
	}
	return table.AlignLeft
}

func vAlign(v string) table.VAlign {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "top", "text-top":
		return table.AlignTop
	case "bottom", "text-bottom":
		return table.AlignBottom
	case "baseline":
		return table.AlignBaseline
	}
	return table.AlignMiddle
}

// authored reports whether any of the properties comes from an author
// stylesheet or an inline style
func authored(cs style.ComputedStyle, props ...string) bool {
	for _, p := range props {
		if sp, ok := cs[p]; ok && sp.Source != style.SourceUserAgent && !sp.Inherited {
			return true
		}
	}
	return false
}

func avoid(cs style.ComputedStyle, props ...string) bool {
	for _, p := range props {
		if cs.Get(p) == "avoid" {
			return true
		}
	}
	return false
}

func intAttr(n *Node, key string, def int) int {
	v, ok := n.Attribute(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
