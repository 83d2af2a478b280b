// Package markdown builds layout tables from GitHub flavored Markdown pipe
// tables.
package markdown

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/table"
	"github.com/gompdf/tablelayout/internal/text"
)

// ErrNoTable is returned when the source holds no pipe table
var ErrNoTable = errors.New("no table in markdown")

// Options styles the tables built from Markdown, which carries no style
// of its own
type Options struct {
	Font             text.Font
	Border           border.Descriptor
	Padding          float64
	HeaderBackground *border.Color
	// RepeatHeader repeats the header row on every page
	RepeatHeader bool
}

// DefaultOptions returns a thin grey grid with a shaded, repeating header
func DefaultOptions() Options {
	return Options{
		Font:             text.DefaultFont,
		Border:           border.Descriptor{Width: 0.5, Style: border.Solid, Color: border.Color{R: 128, G: 128, B: 128}},
		Padding:          3,
		HeaderBackground: &border.Color{R: 235, G: 235, B: 235},
		RepeatHeader:     true,
	}
}

// Parser reads pipe tables with goldmark
type Parser struct {
	md      goldmark.Markdown
	options Options
}

// NewParser creates a Markdown table parser
func NewParser(options Options) *Parser {
	if options.Font.Size <= 0 {
		options.Font = text.DefaultFont
	}
	return &Parser{
		md:      goldmark.New(goldmark.WithExtensions(extension.Table)),
		options: options,
	}
}

// Parse returns every pipe table of source in document order
func (p *Parser) Parse(source []byte) ([]*table.Table, error) {
	doc := p.md.Parser().Parse(gtext.NewReader(source))

	var tables []*table.Table
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		t, ok := n.(*extast.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		if built := p.build(t, source); built != nil {
			tables = append(tables, built)
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walk markdown")
	}
	if len(tables) == 0 {
		return nil, ErrNoTable
	}
	return tables, nil
}

func (p *Parser) build(n *extast.Table, source []byte) *table.Table {
	var rows [][]*extast.TableCell
	var header []bool
	for r := n.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []*extast.TableCell
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			if cell, ok := c.(*extast.TableCell); ok {
				cells = append(cells, cell)
			}
		}
		_, isHeader := r.(*extast.TableHeader)
		rows = append(rows, cells)
		header = append(header, isHeader)
	}

	cols := len(n.Alignments)
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if len(rows) == 0 || cols == 0 {
		return nil
	}

	t := table.New(len(rows), cols)
	t.Collapse = table.Collapse
	for _, side := range border.Sides {
		t.Border[side] = p.options.Border
	}

	for r, cells := range rows {
		t.Rows[r].Header = header[r] && p.options.RepeatHeader
		for c := 0; c < cols; c++ {
			var cell *table.Cell
			if c < len(cells) {
				cell = table.NewCell(p.content(cells[c], source, header[r]))
				cell.HAlign = alignment(cells[c].Alignment)
			} else {
				cell = table.NewCell("")
			}
			cell.VAlign = table.AlignMiddle
			cell.Padding = table.Edges{Top: p.options.Padding, Right: p.options.Padding, Bottom: p.options.Padding, Left: p.options.Padding}
			for _, side := range border.Sides {
				cell.Border[side] = p.options.Border
			}
			if header[r] && p.options.HeaderBackground != nil {
				cell.Background.Color = p.options.HeaderBackground
			}
			t.Place(r, c, cell)
		}
	}
	return t
}

func (p *Parser) content(cell *extast.TableCell, source []byte, header bool) text.Content {
	f := p.options.Font
	if header {
		f.Style = "B"
	}

	// a cell made of one emphasis or code span takes its font
	if only := cell.FirstChild(); only != nil && only.NextSibling() == nil {
		switch n := only.(type) {
		case *ast.Emphasis:
			if n.Level >= 2 {
				f.Style = "B"
			} else if !strings.Contains(f.Style, "I") {
				f.Style += "I"
			}
		case *ast.CodeSpan:
			f.Family = "Courier"
		}
	}

	var b strings.Builder
	inline(&b, cell, source)

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(text.Normalize(l, false)); l != "" {
			kept = append(kept, l)
		}
	}
	return text.Content{
		Text:         strings.Join(kept, "\n"),
		Font:         f,
		Preformatted: len(kept) > 1,
	}
}

// inline writes the text of n's inline children. <br> tags, which is how
// pipe tables break lines, become newlines.
func inline(b *strings.Builder, n ast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.HardLineBreak() {
				b.WriteByte('\n')
			} else if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.RawHTML:
			var raw strings.Builder
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				raw.Write(seg.Value(source))
			}
			if tag := strings.ToLower(strings.ReplaceAll(raw.String(), " ", "")); strings.HasPrefix(tag, "<br") {
				b.WriteByte('\n')
			}
		case *ast.AutoLink:
			b.Write(v.URL(source))
		default:
			inline(b, c, source)
		}
	}
}

func alignment(a extast.Alignment) table.HAlign {
	switch a {
	case extast.AlignRight:
		return table.AlignRight
	case extast.AlignCenter:
		return table.AlignCenter
	}
	return table.AlignLeft
}
