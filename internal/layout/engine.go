// Package layout runs the table pipeline: validation, border resolution,
// column widths, row heights and pagination.
package layout

import (
	"github.com/pkg/errors"

	"github.com/gompdf/tablelayout/internal/collapse"
	"github.com/gompdf/tablelayout/internal/heights"
	"github.com/gompdf/tablelayout/internal/observability"
	"github.com/gompdf/tablelayout/internal/pagination"
	"github.com/gompdf/tablelayout/internal/table"
	"github.com/gompdf/tablelayout/internal/widths"
)

// Measurer measures cell content for both solvers
type Measurer interface {
	widths.TextMetrics
	heights.ContentMeasurer
}

// Shrinker scales content down by ratio. Measurers that implement it let
// FitTable retry clipped tables whose content cannot fit.
type Shrinker interface {
	Shrink(content any, ratio float64) any
}

// Options represents options for the layout engine
type Options struct {
	// MaxShrinkPasses bounds the retries of FitTable
	MaxShrinkPasses int
	StopAtBreak     bool
	Debug           bool
	Logger          observability.Logger
}

// Engine handles the layout process
type Engine struct {
	options Options
	metrics Measurer
}

// Solved is the outcome of Layout
type Solved struct {
	Widths  widths.Result
	Heights heights.Result
	Groups  int
}

// NewEngine creates a new layout engine
func NewEngine(m Measurer) *Engine {
	return &Engine{
		options: Options{
			MaxShrinkPasses: 3,
			Logger:          observability.NopLogger{},
		},
		metrics: m,
	}
}

// SetOptions sets the options for the layout engine
func (e *Engine) SetOptions(options Options) {
	if options.Logger == nil {
		options.Logger = observability.NopLogger{}
	}
	e.options = options
}

// Logger returns the engine logger
func (e *Engine) Logger() observability.Logger {
	return e.options.Logger
}

// Prepare validates t and resolves its borders. Nested tables are
// prepared first and get their nesting level.
func (e *Engine) Prepare(t *table.Table) error {
	var err error
	t.Each(func(c *table.Cell) {
		if err != nil || c.Nested == nil {
			return
		}
		c.Nested.Level = t.Level + 1
		if perr := e.Prepare(c.Nested); perr != nil {
			err = errors.Wrapf(perr, "nested table in cell (%d,%d)", c.Row, c.Col)
		}
	})
	if err != nil {
		return err
	}

	if err := t.Validate(); err != nil {
		return errors.Wrap(err, "validate table")
	}
	collapse.Resolve(t)
	return nil
}

// SolveColumnWidths resolves the column widths of a prepared table
func (e *Engine) SolveColumnWidths(t *table.Table, available float64) (widths.Result, error) {
	res, err := widths.Solve(t, available, e.metrics)
	if err != nil {
		return res, errors.Wrap(err, "solve column widths")
	}
	if e.options.Debug {
		e.options.Logger.Debug("column widths",
			observability.Float("available", available),
			observability.Float("width", res.Width),
			observability.Float("shrink", res.Shrink))
	}
	return res, nil
}

// SolveRowHeights resolves the row heights of a table whose widths are
// solved. Rows left unresolved are reported as a warning.
func (e *Engine) SolveRowHeights(t *table.Table) (heights.Result, error) {
	res, err := heights.Solve(t, e.metrics)
	if err != nil {
		return res, errors.Wrap(err, "solve row heights")
	}
	if len(res.Unresolved) > 0 {
		e.options.Logger.Warn("row heights left unresolved", observability.Ints("rows", res.Unresolved))
	}
	return res, nil
}

// FitTable solves the column widths and, when the minimum widths of a
// clipped table do not fit, shrinks the content by the reported ratio and
// solves again.
func (e *Engine) FitTable(t *table.Table, available float64) (widths.Result, error) {
	res, err := e.SolveColumnWidths(t, available)
	if err != nil {
		return res, err
	}
	shrinker, ok := e.metrics.(Shrinker)
	if !ok {
		return res, nil
	}
	for pass := 0; res.NeedsShrink() && pass < e.options.MaxShrinkPasses; pass++ {
		e.options.Logger.Info("shrinking table content",
			observability.Int("pass", pass+1),
			observability.Float("ratio", res.Shrink))
		shrink(t, shrinker, res.Shrink)
		if res, err = e.SolveColumnWidths(t, available); err != nil {
			return res, err
		}
	}
	return res, nil
}

func shrink(t *table.Table, s Shrinker, ratio float64) {
	t.Each(func(c *table.Cell) {
		if c.Nested != nil {
			shrink(c.Nested, s, ratio)
			return
		}
		c.Content = s.Shrink(c.Content, ratio)
	})
}

// Layout prepares and solves t for the available width and assigns its
// column pages
func (e *Engine) Layout(t *table.Table, available float64) (Solved, error) {
	if err := e.Prepare(t); err != nil {
		return Solved{}, err
	}
	w, err := e.FitTable(t, available)
	if err != nil {
		return Solved{}, err
	}
	h, err := e.SolveRowHeights(t)
	if err != nil {
		return Solved{}, err
	}
	return Solved{Widths: w, Heights: h, Groups: t.AssignPageGroups(available)}, nil
}

// Paginate writes a solved table through sink, asking flow for pages
func (e *Engine) Paginate(ctx *pagination.Context, t *table.Table, sink pagination.Sink, flow pagination.PageFlow, resume *pagination.Resume) (pagination.Result, error) {
	w := pagination.NewWriter(sink, flow)
	w.SetOptions(pagination.Options{
		StopAtBreak: e.options.StopAtBreak,
		Debug:       e.options.Debug,
		Logger:      e.options.Logger,
	})
	res, err := w.Write(ctx, t, resume)
	if err != nil {
		return res, errors.Wrap(err, "paginate table")
	}
	return res, nil
}

// ResolveBorders resolves the borders of t and its nested tables again.
// Resolution is idempotent.
func (e *Engine) ResolveBorders(t *table.Table) {
	t.Each(func(c *table.Cell) {
		if c.Nested != nil {
			e.ResolveBorders(c.Nested)
		}
	})
	collapse.Resolve(t)
}

// LayoutTable lays t out at the available width and writes it from the
// cursor in ctx. A resume from an earlier NotFinished result skips layout.
func (e *Engine) LayoutTable(ctx *pagination.Context, t *table.Table, available float64, sink pagination.Sink, flow pagination.PageFlow, resume *pagination.Resume) (pagination.Result, error) {
	if resume == nil {
		if _, err := e.Layout(t, available); err != nil {
			return pagination.Result{}, err
		}
	}
	return e.Paginate(ctx, t, sink, flow, resume)
}
