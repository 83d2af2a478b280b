package api

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/gompdf/tablelayout/internal/layout"
	"github.com/gompdf/tablelayout/internal/observability"
	"github.com/gompdf/tablelayout/internal/pagination"
	"github.com/gompdf/tablelayout/internal/parser/css"
	"github.com/gompdf/tablelayout/internal/parser/html"
	"github.com/gompdf/tablelayout/internal/parser/markdown"
	"github.com/gompdf/tablelayout/internal/render/pdf"
	"github.com/gompdf/tablelayout/internal/res"
	"github.com/gompdf/tablelayout/internal/style"
	"github.com/gompdf/tablelayout/internal/table"
	"github.com/gompdf/tablelayout/internal/text"
)

// Converter is the main API for converting HTML and Markdown tables to PDF
type Converter struct {
	options Options
	loader  *res.Loader
}

// New creates a new converter with default options
func New() *Converter {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a new converter with the specified options
func NewWithOptions(options Options) *Converter {
	return &Converter{
		options: options,
		loader:  newLoader("", options.ResourcePaths),
	}
}

func newLoader(base string, paths []string) *res.Loader {
	l := res.NewLoader(base)
	for _, p := range paths {
		l.AddSearchPath(p)
	}
	return l
}

// page is the page setup of one conversion. @page rules of the document
// override the options.
type page struct {
	size    pagination.PageSize
	margins pagination.Margins
	title   string
}

func (c *Converter) page() page {
	size := pagination.PageSize{Width: c.options.PageWidth, Height: c.options.PageHeight}
	// normalise so that the orientation alone decides which side is longer
	if size.Width > size.Height {
		size = size.Landscape()
	}
	if c.options.PageOrientation == PageOrientationLandscape {
		size = size.Landscape()
	}
	return page{
		size: size,
		margins: pagination.Margins{
			Top:    c.options.MarginTop,
			Right:  c.options.MarginRight,
			Bottom: c.options.MarginBottom,
			Left:   c.options.MarginLeft,
		},
		title: c.options.Title,
	}
}

func (c *Converter) logger() observability.Logger {
	if c.options.LogOutput == nil {
		return observability.NopLogger{}
	}
	return observability.NewStdLogger(c.options.LogOutput, c.options.Debug)
}

func (c *Converter) baseFont() text.Font {
	f := text.DefaultFont
	if c.options.FontFamily != "" {
		f.Family = c.options.FontFamily
	}
	if c.options.FontSize > 0 {
		f.Size = c.options.FontSize
	}
	return f
}

// ConvertHTML converts the tables of an HTML document to PDF and writes
// the result to output
func (c *Converter) ConvertHTML(ctx context.Context, htmlContent string, output io.Writer) error {
	log := c.logger()

	doc, err := html.NewParser().ParseString(htmlContent)
	if err != nil {
		return errors.Wrap(err, "parse HTML")
	}

	styles := style.NewStyleEngine()
	inline, links := doc.Stylesheets()
	var sheets []string
	for _, href := range links {
		r, err := c.loader.LoadCSS(ctx, href)
		if err != nil {
			log.Warn("stylesheet not loaded", observability.String("href", href), observability.Error("error", err))
			continue
		}
		sheets = append(sheets, r.GetString())
	}
	sheets = append(sheets, inline...)
	if c.options.Stylesheet != "" {
		sheets = append(sheets, c.options.Stylesheet)
	}

	parser := css.NewParser()
	for _, s := range sheets {
		sheet, err := parser.ParseString(s)
		if err != nil {
			log.Warn("stylesheet not parsed", observability.Error("error", err))
			continue
		}
		styles.AddStylesheet(sheet)
	}

	tables, err := html.NewBuilder(styles, c.baseFont()).Tables(doc)
	if err != nil {
		return errors.Wrap(err, "build tables")
	}

	p := c.page()
	applyPageRules(&p, styles, c.baseFont().Size)
	if t := doc.Title(); t != "" {
		p.title = t
	}
	return c.render(ctx, tables, p, log, output)
}

// ConvertMarkdown converts the pipe tables of a Markdown document to PDF
// and writes the result to output
func (c *Converter) ConvertMarkdown(ctx context.Context, source []byte, output io.Writer) error {
	opts := markdown.DefaultOptions()
	opts.Font = c.baseFont()
	opts.RepeatHeader = c.options.RepeatHeaders

	tables, err := markdown.NewParser(opts).Parse(source)
	if err != nil {
		return errors.Wrap(err, "parse markdown")
	}
	return c.render(ctx, tables, c.page(), c.logger(), output)
}

// ConvertToFile converts an HTML document to PDF and writes the result to
// the specified file
func (c *Converter) ConvertToFile(ctx context.Context, htmlContent, outputPath string) error {
	var buf bytes.Buffer
	if err := c.ConvertHTML(ctx, htmlContent, &buf); err != nil {
		return err
	}
	return writeFile(outputPath, buf.Bytes())
}

// ConvertFile converts an HTML or Markdown file to PDF and writes the
// result to the specified file. Markdown is recognised by its extension.
func (c *Converter) ConvertFile(ctx context.Context, inputPath, outputPath string) error {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", inputPath)
	}
	c.loader = newLoader(abs, c.options.ResourcePaths)
	return c.convertResource(ctx, abs, outputPath)
}

// ConvertURL converts the document at url to PDF and writes the result to
// the specified file
func (c *Converter) ConvertURL(ctx context.Context, url, outputPath string) error {
	c.loader = newLoader(url, c.options.ResourcePaths)
	return c.convertResource(ctx, url, outputPath)
}

func (c *Converter) convertResource(ctx context.Context, ref, outputPath string) error {
	doc, err := c.loader.Load(ctx, ref)
	if err != nil {
		return errors.Wrap(err, "load document")
	}

	var buf bytes.Buffer
	if doc.IsMarkdown() {
		err = c.ConvertMarkdown(ctx, doc.Data, &buf)
	} else {
		err = c.ConvertHTML(ctx, doc.GetString(), &buf)
	}
	if err != nil {
		return err
	}
	return writeFile(outputPath, buf.Bytes())
}

// ConvertBytes converts HTML bytes to PDF bytes
func (c *Converter) ConvertBytes(ctx context.Context, htmlContent []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.ConvertHTML(ctx, string(htmlContent), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// render lays out and draws tables one below the other
func (c *Converter) render(ctx context.Context, tables []*table.Table, p page, log observability.Logger, output io.Writer) error {
	r := pdf.NewRenderer(pdf.RenderOptions{
		Title:      p.title,
		Author:     c.options.Author,
		Subject:    c.options.Subject,
		Keywords:   c.options.Keywords,
		Creator:    "tablelayout",
		Producer:   "tablelayout",
		PageSize:   p.size,
		Margins:    p.margins,
		Columns:    c.options.Columns,
		ColumnGap:  c.options.ColumnGap,
		TableGap:   c.options.TableGap,
		EmbedFonts: c.options.EmbedFonts,
		BaseFont:   c.baseFont(),
		Debug:      c.options.Debug,
	})
	r.RenderBackgrounds = c.options.RenderBackgrounds
	r.RenderBorders = c.options.RenderBorders
	r.SetLoader(c.loader)
	r.SetLogger(log)

	engine := layout.NewEngine(r.Metrics())
	engine.SetOptions(layout.Options{
		MaxShrinkPasses: c.options.MaxShrinkPasses,
		Debug:           c.options.Debug,
		Logger:          log,
	})

	for i, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.applyDefaults(t)
		if err := r.WriteTable(ctx, engine, t); err != nil {
			return errors.Wrapf(err, "table %d", i+1)
		}
	}
	log.Debug("document rendered", observability.Int("tables", len(tables)), observability.Int("pages", r.Pages()))
	return r.Output(output)
}

// applyDefaults sets the converter wide table settings on t and its
// nested tables
func (c *Converter) applyDefaults(t *table.Table) {
	if t.Overflow == table.Visible {
		switch strings.ToLower(c.options.Overflow) {
		case "hidden":
			t.Overflow = table.Hidden
		case "wrap":
			t.Overflow = table.Wrap
		}
	}
	if c.options.KeepProportions {
		t.KeepProportions = true
	}
	if !c.options.RepeatHeaders {
		for _, row := range t.Rows {
			row.Header = false
		}
	}
	t.Each(func(cell *table.Cell) {
		if cell.Nested != nil {
			c.applyDefaults(cell.Nested)
		}
	})
}

// applyPageRules reads size and margin from @page rules
func applyPageRules(p *page, styles *style.StyleEngine, fontSize float64) {
	if v, ok := styles.PageProperty("size"); ok {
		p.size = pageSize(v, p.size)
	}
	if v, ok := styles.PageProperty("margin"); ok {
		if box, ok := css.ParseBoxShorthand(v); ok {
			m := [4]*float64{&p.margins.Top, &p.margins.Right, &p.margins.Bottom, &p.margins.Left}
			for i, s := range box {
				if l, ok := css.ParseLength(s, fontSize); ok && !l.Percent {
					*m[i] = l.Value
				}
			}
		}
	}
}

// pageSize reads a size value such as "A4", "letter landscape" or
// "210mm 297mm"
func pageSize(v string, current pagination.PageSize) pagination.PageSize {
	var (
		size    = current
		lengths []float64
		turn    string
	)
	for _, tok := range strings.Fields(v) {
		switch tok = strings.ToLower(tok); tok {
		case "landscape", "portrait":
			turn = tok
			continue
		}
		if s, ok := pagination.PageSizeByName(namedSize(tok)); ok {
			size = s
			continue
		}
		if l, ok := css.ParseLength(tok, 0); ok && !l.Percent && l.Value > 0 {
			lengths = append(lengths, l.Value)
		}
	}
	switch len(lengths) {
	case 1:
		size = pagination.PageSize{Width: lengths[0], Height: lengths[0]}
	case 2:
		size = pagination.PageSize{Width: lengths[0], Height: lengths[1]}
	}

	landscape := size.Width > size.Height
	if (turn == "landscape" && !landscape) || (turn == "portrait" && landscape) {
		size = size.Landscape()
	}
	return size
}

func namedSize(tok string) string {
	switch tok {
	case "letter", "legal":
		return strings.ToUpper(tok[:1]) + tok[1:]
	}
	return strings.ToUpper(tok)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write output file")
}

// WithOptions returns a new converter with the specified options
func (c *Converter) WithOptions(options Options) *Converter {
	return NewWithOptions(options)
}

// WithOption returns a new converter with the specified option set
func (c *Converter) WithOption(option Option) *Converter {
	options := c.options
	options.ResourcePaths = append([]string(nil), options.ResourcePaths...)
	option(&options)
	return NewWithOptions(options)
}

// AddResourcePath adds a resource path
func (c *Converter) AddResourcePath(path string) *Converter {
	c.options.ResourcePaths = append(c.options.ResourcePaths, path)
	c.loader.AddSearchPath(path)
	return c
}

// SetPageSize sets the page size
func (c *Converter) SetPageSize(width, height float64) *Converter {
	c.options.PageWidth = width
	c.options.PageHeight = height
	return c
}

// SetMargins sets the page margins
func (c *Converter) SetMargins(top, right, bottom, left float64) *Converter {
	c.options.MarginTop = top
	c.options.MarginRight = right
	c.options.MarginBottom = bottom
	c.options.MarginLeft = left
	return c
}

// SetDebug enables or disables debug mode
func (c *Converter) SetDebug(debug bool) *Converter {
	c.options.Debug = debug
	return c
}

// SetTitle sets the document title
func (c *Converter) SetTitle(title string) *Converter {
	c.options.Title = title
	return c
}

// SetAuthor sets the document author
func (c *Converter) SetAuthor(author string) *Converter {
	c.options.Author = author
	return c
}
