package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/layout"
	"github.com/gompdf/tablelayout/internal/observability"
	"github.com/gompdf/tablelayout/internal/pagination"
	"github.com/gompdf/tablelayout/internal/res"
	"github.com/gompdf/tablelayout/internal/table"
	"github.com/gompdf/tablelayout/internal/text"
)

// RenderOptions contains options for rendering
type RenderOptions struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string

	PageSize    pagination.PageSize
	Orientation string // "P" for portrait, "L" for landscape
	Margins     pagination.Margins
	// Columns splits each page into newspaper columns
	Columns   int
	ColumnGap float64
	// TableGap is the space left below each table
	TableGap float64

	// EmbedFonts draws with the embedded Go fonts and measures by shaping
	// instead of using the core PDF fonts
	EmbedFonts bool
	BaseFont   text.Font
	Debug      bool
}

// ImageLoader loads background images
type ImageLoader interface {
	LoadImage(ctx context.Context, ref string) (*res.Resource, error)
}

// Renderer draws laid out tables with fpdf. It is the pagination sink and
// page flow at once.
type Renderer struct {
	// RenderBackgrounds controls whether backgrounds are painted
	RenderBackgrounds bool
	// RenderBorders controls whether borders are painted
	RenderBorders bool

	pdf     *fpdf.Fpdf
	options RenderOptions
	metrics *text.Metrics
	tr      func(string) string
	loader  ImageLoader
	logger  observability.Logger
	ctx     context.Context
	images  map[string]string

	cursor pagination.Cursor
	column int
	indent float64
}

// NewRenderer creates a new PDF renderer
func NewRenderer(options RenderOptions) *Renderer {
	if options.PageSize.Width <= 0 {
		options.PageSize = pagination.PageSizeA4
	}
	if options.Orientation == "L" {
		options.PageSize = options.PageSize.Landscape()
	} else {
		options.Orientation = "P"
	}
	if options.Columns < 1 {
		options.Columns = 1
	}
	if options.BaseFont.Size <= 0 {
		options.BaseFont = text.DefaultFont
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: options.Orientation,
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: options.PageSize.Width, Ht: options.PageSize.Height},
	})
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(false, options.Margins.Bottom)
	pdf.SetTitle(options.Title, true)
	pdf.SetAuthor(options.Author, true)
	pdf.SetSubject(options.Subject, true)
	pdf.SetKeywords(options.Keywords, true)
	pdf.SetCreator(options.Creator, true)
	pdf.SetProducer(options.Producer, true)

	r := &Renderer{
		RenderBackgrounds: true,
		RenderBorders:     true,
		pdf:               pdf,
		options:           options,
		logger:            observability.NopLogger{},
		ctx:               context.Background(),
		images:            map[string]string{},
	}

	var adv text.Advancer
	if options.EmbedFonts {
		r.registerFonts()
		r.tr = func(s string) string { return s }
		adv = text.NewShaper()
	} else {
		r.tr = pdf.UnicodeTranslatorFromDescriptor("")
		adv = coreAdvancer{r}
	}
	r.metrics = text.NewMetrics(adv, options.BaseFont)
	return r
}

// registerFonts embeds the Go font faces
func (r *Renderer) registerFonts() {
	for _, f := range []text.Font{
		{}, {Style: "B"}, {Style: "I"}, {Style: "BI"},
		{Family: "monospace"}, {Family: "monospace", Style: "B"},
	} {
		r.pdf.AddUTF8FontFromBytes(text.FaceName(f), "", text.FaceData(f))
	}
}

// SetLoader sets the loader used for background images
func (r *Renderer) SetLoader(l ImageLoader) { r.loader = l }

// SetLogger sets the renderer logger
func (r *Renderer) SetLogger(l observability.Logger) {
	if l == nil {
		l = observability.NopLogger{}
	}
	r.logger = l
}

// Metrics returns the content metrics matching the fonts the renderer
// draws with
func (r *Renderer) Metrics() *text.Metrics { return r.metrics }

// Pages returns the number of pages started so far
func (r *Renderer) Pages() int { return r.pdf.PageNo() }

// Cursor returns the position below the last written table
func (r *Renderer) Cursor() pagination.Cursor { return r.cursor }

// ColumnWidth returns the width available to a table
func (r *Renderer) ColumnWidth() float64 {
	n := float64(r.options.Columns)
	return (r.options.Margins.ContentWidth(r.options.PageSize) - r.options.ColumnGap*(n-1)) / n
}

func (r *Renderer) columnX(i int) float64 {
	return r.options.Margins.Left + float64(i)*(r.ColumnWidth()+r.options.ColumnGap)
}

// NewPageOrColumn implements pagination.PageFlow
func (r *Renderer) NewPageOrColumn() (pagination.Cursor, error) {
	if r.pdf.PageNo() > 0 && r.column+1 < r.options.Columns {
		r.column++
	} else {
		r.pdf.AddPage()
		r.column = 0
	}
	if err := r.pdf.Error(); err != nil {
		return pagination.Cursor{}, errors.Wrap(err, "add page")
	}
	r.cursor = pagination.Cursor{X: r.columnX(r.column) + r.indent, Y: r.options.Margins.Top}
	return r.cursor, nil
}

// BreakTrigger implements pagination.PageFlow
func (r *Renderer) BreakTrigger() float64 {
	return r.options.PageSize.Height - r.options.Margins.Bottom
}

// WriteTable lays out t with the engine and draws it below the previous
// table, breaking pages as needed
func (r *Renderer) WriteTable(ctx context.Context, e *layout.Engine, t *table.Table) error {
	r.ctx = ctx
	if r.pdf.PageNo() == 0 {
		if _, err := r.NewPageOrColumn(); err != nil {
			return err
		}
	}
	if t.Rotated {
		return r.writeRotated(e, t)
	}

	if _, err := e.Layout(t, r.ColumnWidth()-t.Margin.Horizontal()); err != nil {
		return err
	}

	r.indent = t.Margin.Left
	defer func() { r.indent = 0 }()

	start := pagination.Cursor{X: r.columnX(r.column) + r.indent, Y: r.cursor.Y + t.Margin.Top}
	pc := pagination.NewContext(start)
	pc.Fresh = r.cursor.Y <= r.options.Margins.Top
	result, err := e.Paginate(pc, t, r, r, nil)
	if err != nil {
		return err
	}
	if r.options.Debug {
		r.logger.Debug("table written", observability.Int("breaks", result.Breaks), observability.Float("height", result.Height))
	}

	r.cursor.Y = pc.Cursor.Y + t.Margin.Bottom + r.options.TableGap
	return r.pdf.Error()
}

// writeRotated draws t turned a quarter clockwise: its columns run down
// the page and its rows run from the right margin towards the left one.
func (r *Renderer) writeRotated(e *layout.Engine, t *table.Table) error {
	room := r.BreakTrigger() - r.cursor.Y
	if room < r.options.Margins.ContentHeight(r.options.PageSize)/3 {
		if _, err := r.NewPageOrColumn(); err != nil {
			return err
		}
		room = r.BreakTrigger() - r.cursor.Y
	}
	if _, err := e.Layout(t, room); err != nil {
		return err
	}

	w := pagination.NewWriter(r, r)
	w.SetOptions(pagination.Options{StopAtBreak: true, Logger: e.Logger()})

	var resume *pagination.Resume
	for {
		ox := r.columnX(r.column) + r.ColumnWidth()
		oy := r.cursor.Y
		pc := pagination.NewContext(pagination.Cursor{X: ox, Y: oy})
		pc.Fresh = true
		pc.RotatedLimit = oy + r.ColumnWidth()

		r.pdf.TransformBegin()
		r.pdf.TransformRotate(-90, ox, oy)
		result, err := w.Write(pc, t, resume)
		r.pdf.TransformEnd()
		if err != nil {
			return errors.Wrap(err, "write rotated table")
		}
		if result.Status == pagination.Done {
			r.logger.Debug("rotated table written", observability.Float("height", result.RotatedHeight))
			r.cursor.Y = oy + t.OuterWidth() + r.options.TableGap
			return r.pdf.Error()
		}
		resume = result.Resume
		if _, err := r.NewPageOrColumn(); err != nil {
			return err
		}
	}
}

// FillRect implements pagination.Painter
func (r *Renderer) FillRect(x, y, w, h float64, bg table.Background) {
	if !r.RenderBackgrounds || w <= 0 || h <= 0 {
		return
	}
	switch {
	case bg.Gradient != nil:
		g := bg.Gradient
		x2, y2 := 1.0, 0.0
		y1 := 0.0
		if g.Vertical {
			x2, y1, y2 = 0, 1, 0
		}
		r.pdf.LinearGradient(x, y, w, h, g.From.R, g.From.G, g.From.B, g.To.R, g.To.G, g.To.B, 0, y1, x2, y2)
	case bg.Color != nil:
		r.pdf.SetFillColor(bg.Color.R, bg.Color.G, bg.Color.B)
		r.pdf.Rect(x, y, w, h, "F")
	}
	if bg.Image != "" {
		r.drawImage(bg.Image, x, y, w, h)
	}
}

func (r *Renderer) drawImage(src string, x, y, w, h float64) {
	name, err := r.image(src)
	if err != nil {
		r.logger.Warn("background image skipped", observability.String("src", src), observability.Error("err", err))
		return
	}
	r.pdf.ClipRect(x, y, w, h, false)
	r.pdf.ImageOptions(name, x, y, 0, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	r.pdf.ClipEnd()
}

// image registers a background image once, converted to PNG
func (r *Renderer) image(src string) (string, error) {
	if name, ok := r.images[src]; ok {
		return name, nil
	}
	if r.loader == nil {
		return "", errors.New("no image loader")
	}
	resource, err := r.loader.LoadImage(r.ctx, src)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(resource.GetReader())
	if err != nil {
		return "", errors.Wrapf(err, "decode %s", src)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", errors.Wrapf(err, "encode %s", src)
	}

	name := fmt.Sprintf("bg%d", len(r.images))
	r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
	if err := r.pdf.Error(); err != nil {
		return "", errors.Wrapf(err, "register %s", src)
	}
	r.images[src] = name
	return name, nil
}

// DrawLine implements pagination.Painter
func (r *Renderer) DrawLine(x1, y1, x2, y2, width float64, c border.Color, style border.Style) {
	if !r.RenderBorders || width <= 0 {
		return
	}

	switch style {
	case border.Inset, border.Groove:
		c = shade(c, 0.6)
	case border.Outset, border.Ridge:
		c = shade(c, 1.4)
	}
	r.pdf.SetDrawColor(c.R, c.G, c.B)

	switch style {
	case border.Dashed:
		r.pdf.SetDashPattern([]float64{3 * width, 3 * width}, 0)
	case border.Dotted:
		r.pdf.SetLineCapStyle("round")
		r.pdf.SetDashPattern([]float64{0, 2 * width}, 0)
	}

	if style == border.Double && width >= 3 {
		third := width / 3
		dx, dy := 0.0, third
		if x1 == x2 {
			dx, dy = third, 0
		}
		r.pdf.SetLineWidth(third)
		r.pdf.Line(x1-dx, y1-dy, x2-dx, y2-dy)
		r.pdf.Line(x1+dx, y1+dy, x2+dx, y2+dy)
	} else {
		r.pdf.SetLineWidth(width)
		r.pdf.Line(x1, y1, x2, y2)
	}

	r.pdf.SetDashPattern([]float64{}, 0)
	r.pdf.SetLineCapStyle("butt")
}

func shade(c border.Color, f float64) border.Color {
	scale := func(v int) int { return int(math.Min(255, math.Round(float64(v)*f))) }
	if c == border.Black && f > 1 {
		return border.Color{R: 128, G: 128, B: 128}
	}
	return border.Color{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}

// DrawContent implements pagination.ContentDrawer
func (r *Renderer) DrawContent(content any, x, y, w float64, align table.HAlign) float64 {
	c, ok := r.metrics.Resolve(content)
	if !ok {
		return 0
	}
	r.setFont(c.Font)
	r.pdf.SetTextColor(c.Color[0], c.Color[1], c.Color[2])

	lh := c.Font.Line()
	ascent := (lh-c.Font.Size)/2 + c.Font.Size*0.8
	lines := r.metrics.Lines(c, w)
	for i, line := range lines {
		lw := r.metrics.Advancer().Advance(line, c.Font)
		r.setFont(c.Font)
		r.pdf.Text(x+alignOffset(line, lw, w, align, r.metrics, c.Font), y+float64(i)*lh+ascent, r.tr(line))
	}
	return float64(len(lines)) * lh
}

// alignOffset places a line inside the content width. Decimal alignment
// puts the decimal point at three quarters of the width.
func alignOffset(line string, lw, w float64, align table.HAlign, m *text.Metrics, f text.Font) float64 {
	switch align {
	case table.AlignCenter:
		return (w - lw) / 2
	case table.AlignRight:
		return w - lw
	case table.AlignDecimal:
		i := strings.LastIndexAny(line, ".,")
		if i < 0 {
			return w - lw
		}
		head := m.Advancer().Advance(line[:i], f)
		return math.Max(0, math.Min(w-lw, w*0.75-head))
	}
	return 0
}

func (r *Renderer) setFont(f text.Font) {
	if r.options.EmbedFonts {
		r.pdf.SetFont(text.FaceName(f), "", f.Size)
		return
	}
	r.pdf.SetFont(coreFamily(f), coreStyle(f), f.Size)
}

// coreFamily maps a font family to one of the core PDF fonts
func coreFamily(f text.Font) string {
	first, _, _ := strings.Cut(f.Family, ",")
	switch strings.ToLower(strings.TrimSpace(strings.Trim(first, "'\" "))) {
	case "times", "times new roman", "serif":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	}
	return "Helvetica"
}

func coreStyle(f text.Font) string {
	s := ""
	if f.Bold() {
		s += "B"
	}
	if f.Italic() {
		s += "I"
	}
	return s
}

// coreAdvancer measures with the core font metrics fpdf carries
type coreAdvancer struct {
	r *Renderer
}

func (a coreAdvancer) Advance(s string, f text.Font) float64 {
	if s == "" || f.Size <= 0 {
		return 0
	}
	a.r.setFont(f)
	return a.r.pdf.GetStringWidth(a.r.tr(s))
}

// Output writes the document
func (r *Renderer) Output(w io.Writer) error {
	if r.pdf.PageNo() == 0 {
		r.pdf.AddPage()
	}
	return errors.Wrap(r.pdf.Output(w), "write pdf")
}

// OutputFile writes the document to path, creating its directory
func (r *Renderer) OutputFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer f.Close()
	return r.Output(f)
}
