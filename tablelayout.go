package tablelayout

import (
	"github.com/gompdf/tablelayout/pkg/api"
)

type Converter = api.Converter
type Options = api.Options
type Option = api.Option
type PageOrientation = api.PageOrientation

func New() *Converter                           { return api.New() }
func NewWithOptions(options Options) *Converter { return api.NewWithOptions(options) }
func DefaultOptions() Options                   { return api.DefaultOptions() }

var (
	WithPageSize          = api.WithPageSize
	WithPageOrientation   = api.WithPageOrientation
	WithMargins           = api.WithMargins
	WithColumns           = api.WithColumns
	WithTableGap          = api.WithTableGap
	WithFont              = api.WithFont
	WithEmbeddedFonts     = api.WithEmbeddedFonts
	WithOverflow          = api.WithOverflow
	WithKeepProportions   = api.WithKeepProportions
	WithRepeatHeaders     = api.WithRepeatHeaders
	WithRenderBackgrounds = api.WithRenderBackgrounds
	WithRenderBorders     = api.WithRenderBorders
	WithDebug             = api.WithDebug
	WithLogOutput         = api.WithLogOutput
	WithResourcePath      = api.WithResourcePath
	WithMetadata          = api.WithMetadata
	WithStylesheet        = api.WithStylesheet
)

const (
	PageSizeA3Width  = api.PageSizeA3Width
	PageSizeA3Height = api.PageSizeA3Height
	PageSizeA4Width  = api.PageSizeA4Width
	PageSizeA4Height = api.PageSizeA4Height
	PageSizeA5Width  = api.PageSizeA5Width
	PageSizeA5Height = api.PageSizeA5Height

	PageSizeLetterWidth  = api.PageSizeLetterWidth
	PageSizeLetterHeight = api.PageSizeLetterHeight
	PageSizeLegalWidth   = api.PageSizeLegalWidth
	PageSizeLegalHeight  = api.PageSizeLegalHeight

	PageOrientationPortrait  = api.PageOrientationPortrait
	PageOrientationLandscape = api.PageOrientationLandscape
)
