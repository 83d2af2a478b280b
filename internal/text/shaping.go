package text

import (
	"bytes"
	"strings"
	"sync"

	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Font represents a font used for measuring and drawing text
type Font struct {
	Family string
	// Style is "", "B", "I" or "BI"
	Style      string
	Size       float64
	LineHeight float64
}

// DefaultFont is used for content that carries no font
var DefaultFont = Font{Family: "Helvetica", Size: 10, LineHeight: 1.2}

// Line returns the height of one line of text
func (f Font) Line() float64 {
	lh := f.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	return f.Size * lh
}

// Bold reports whether the font is bold
func (f Font) Bold() bool { return strings.Contains(f.Style, "B") }

// Italic reports whether the font is italic
func (f Font) Italic() bool { return strings.Contains(f.Style, "I") }

// Monospace reports whether the family maps to a fixed pitch face
func (f Font) Monospace() bool {
	switch strings.ToLower(f.Family) {
	case "courier", "courier new", "monospace", "gomono":
		return true
	}
	return false
}

// Advancer returns the advance width of a string set in a font
type Advancer interface {
	Advance(s string, f Font) float64
}

// FixedAdvancer approximates every glyph with the same advance, a
// fraction of the font size.
type FixedAdvancer struct {
	Ratio float64
}

// Advance implements Advancer
func (a FixedAdvancer) Advance(s string, f Font) float64 {
	ratio := a.Ratio
	if ratio <= 0 {
		ratio = 0.6
	}
	return float64(len([]rune(s))) * f.Size * ratio
}

// Shaper measures text by shaping it with HarfBuzz against the Go font
// family. The same faces can be embedded by the PDF renderer so measured
// and drawn widths agree.
type Shaper struct {
	mu     sync.Mutex
	shaper shaping.HarfbuzzShaper
	faces  map[string]*gofont.Face
}

// NewShaper creates a new text shaper
func NewShaper() *Shaper {
	return &Shaper{faces: map[string]*gofont.Face{}}
}

// FaceName returns the name under which the face for f is registered
func FaceName(f Font) string {
	name := "go"
	if f.Monospace() {
		name = "gomono"
	}
	switch {
	case f.Bold() && f.Italic() && !f.Monospace():
		return name + "-bolditalic"
	case f.Bold():
		return name + "-bold"
	case f.Italic() && !f.Monospace():
		return name + "-italic"
	}
	return name
}

// FaceData returns the TrueType data of the face for f
func FaceData(f Font) []byte {
	switch FaceName(f) {
	case "go-bold":
		return gobold.TTF
	case "go-italic":
		return goitalic.TTF
	case "go-bolditalic":
		return gobolditalic.TTF
	case "gomono":
		return gomono.TTF
	case "gomono-bold":
		return gomonobold.TTF
	}
	return goregular.TTF
}

func (s *Shaper) face(f Font) (*gofont.Face, error) {
	name := FaceName(f)
	if face, ok := s.faces[name]; ok {
		return face, nil
	}
	face, err := gofont.ParseTTF(bytes.NewReader(FaceData(f)))
	if err != nil {
		return nil, errors.Wrapf(err, "parse face %s", name)
	}
	s.faces[name] = face
	return face, nil
}

// Advance implements Advancer. Text the faces cannot parse falls back to
// the fixed approximation.
func (s *Shaper) Advance(str string, f Font) float64 {
	if str == "" || f.Size <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	face, err := s.face(f)
	if err != nil {
		return FixedAdvancer{}.Advance(str, f)
	}

	runes := []rune(str)
	out := s.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: DirectionOf(str).di(),
		Face:      face,
		Size:      fixed.Int26_6(f.Size * 64),
		Script:    language.Latin,
		Language:  language.DefaultLanguage(),
	})

	var adv fixed.Int26_6
	for _, g := range out.Glyphs {
		adv += g.XAdvance
	}
	if adv < 0 {
		adv = -adv
	}
	return float64(adv) / 64
}
