package api

import (
	"io"
)

// Options represents configuration options for the table to PDF converter
type Options struct {
	// Page dimensions in points
	PageWidth  float64
	PageHeight float64
	// Page orientation: portrait or landscape
	PageOrientation PageOrientation

	// Page margins
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64

	// Columns splits each page into newspaper columns
	Columns   int
	ColumnGap float64
	// TableGap is the space left below each table
	TableGap float64

	// Base font for text without a CSS font
	FontFamily string
	FontSize   float64
	// EmbedFonts draws with the embedded Go fonts and measures by shaping
	EmbedFonts bool

	// Table defaults
	// Overflow applies to tables that do not set one: visible, hidden or wrap
	Overflow string
	// KeepProportions scales all columns alike when a table is too wide
	KeepProportions bool
	// RepeatHeaders repeats header rows on every page
	RepeatHeaders bool

	// Visual rendering toggles
	// When false, backgrounds will not be painted
	RenderBackgrounds bool
	// When false, borders will not be painted
	RenderBorders bool

	// MaxShrinkPasses bounds how often an overflowing table is shrunk
	MaxShrinkPasses int

	Debug bool
	// LogOutput receives warnings, and debug lines when Debug is set.
	// Nil discards them.
	LogOutput io.Writer

	// Resource paths
	ResourcePaths []string

	// Document metadata
	Title    string
	Author   string
	Subject  string
	Keywords string

	// Stylesheet is applied after the document's own stylesheets
	Stylesheet string
}

// Option is a function that modifies Options
type Option func(*Options)

// PageOrientation represents page orientation
type PageOrientation string

const (
	// PageOrientationPortrait sets the page to portrait orientation
	PageOrientationPortrait PageOrientation = "portrait"
	// PageOrientationLandscape sets the page to landscape orientation
	PageOrientationLandscape PageOrientation = "landscape"
)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		// Default to A4 paper size (595.28 x 841.89 points)
		PageWidth:       595.28,
		PageHeight:      841.89,
		PageOrientation: PageOrientationPortrait,

		// Default margins (1/2 inch)
		MarginTop:    36,
		MarginRight:  36,
		MarginBottom: 36,
		MarginLeft:   36,

		Columns:   1,
		ColumnGap: 18,
		TableGap:  12,

		FontFamily: "Helvetica",
		FontSize:   10,

		Overflow:      "visible",
		RepeatHeaders: true,

		RenderBackgrounds: true,
		RenderBorders:     true,

		MaxShrinkPasses: 3,

		Title: "Tables",
	}
}

// WithPageSize sets the page size
func WithPageSize(width, height float64) Option {
	return func(o *Options) {
		o.PageWidth = width
		o.PageHeight = height
	}
}

// WithPageOrientation sets the page orientation
func WithPageOrientation(orientation PageOrientation) Option {
	return func(o *Options) {
		o.PageOrientation = orientation
	}
}

// WithMargins sets the page margins
func WithMargins(top, right, bottom, left float64) Option {
	return func(o *Options) {
		o.MarginTop = top
		o.MarginRight = right
		o.MarginBottom = bottom
		o.MarginLeft = left
	}
}

// WithColumns splits pages into n columns separated by gap
func WithColumns(n int, gap float64) Option {
	return func(o *Options) {
		o.Columns = n
		o.ColumnGap = gap
	}
}

// WithTableGap sets the space below each table
func WithTableGap(gap float64) Option {
	return func(o *Options) {
		o.TableGap = gap
	}
}

// WithFont sets the base font
func WithFont(family string, size float64) Option {
	return func(o *Options) {
		o.FontFamily = family
		o.FontSize = size
	}
}

// WithEmbeddedFonts draws with the embedded Go fonts
func WithEmbeddedFonts(embed bool) Option {
	return func(o *Options) {
		o.EmbedFonts = embed
	}
}

// WithOverflow sets the overflow of tables that do not set one
func WithOverflow(overflow string) Option {
	return func(o *Options) {
		o.Overflow = overflow
	}
}

// WithKeepProportions scales columns proportionally when shrinking
func WithKeepProportions(keep bool) Option {
	return func(o *Options) {
		o.KeepProportions = keep
	}
}

// WithRepeatHeaders enables or disables repeating header rows
func WithRepeatHeaders(repeat bool) Option {
	return func(o *Options) {
		o.RepeatHeaders = repeat
	}
}

// WithRenderBackgrounds enables or disables background painting
func WithRenderBackgrounds(enabled bool) Option {
	return func(o *Options) {
		o.RenderBackgrounds = enabled
	}
}

// WithRenderBorders enables or disables border painting
func WithRenderBorders(enabled bool) Option {
	return func(o *Options) {
		o.RenderBorders = enabled
	}
}

// WithDebug enables or disables debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithLogOutput sets where log lines are written
func WithLogOutput(w io.Writer) Option {
	return func(o *Options) {
		o.LogOutput = w
	}
}

// WithResourcePath adds a resource path
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithMetadata sets the document metadata
func WithMetadata(title, author, subject, keywords string) Option {
	return func(o *Options) {
		o.Title = title
		o.Author = author
		o.Subject = subject
		o.Keywords = keywords
	}
}

// WithStylesheet adds CSS applied after the document's stylesheets
func WithStylesheet(css string) Option {
	return func(o *Options) {
		o.Stylesheet = css
	}
}

// Common page sizes in points
const (
	PageSizeA4Width      = 595.28
	PageSizeA4Height     = 841.89
	PageSizeLetterWidth  = 612.0
	PageSizeLetterHeight = 792.0
	PageSizeLegalWidth   = 612.0
	PageSizeLegalHeight  = 1008.0
	PageSizeA3Width      = 841.89
	PageSizeA3Height     = 1190.55
	PageSizeA5Width      = 419.53
	PageSizeA5Height     = 595.28
)
