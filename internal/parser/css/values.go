package css

import (
	"strconv"
	"strings"

	"github.com/gompdf/tablelayout/internal/border"
	"github.com/gompdf/tablelayout/internal/table"
)

// Lengths are returned in points. One CSS pixel is 0.75pt.
const (
	pxToPt = 0.75
	mmToPt = 72 / 25.4
	inToPt = 72
)

// Border width keywords, in points
var borderWidths = map[string]float64{
	"thin":   1 * pxToPt,
	"medium": 3 * pxToPt,
	"thick":  5 * pxToPt,
}

// Length is a parsed CSS length
type Length struct {
	Value   float64
	Percent bool
}

// Of resolves the length against a containing size
func (l Length) Of(container float64) float64 {
	if l.Percent {
		return container * l.Value / 100
	}
	return l.Value
}

// ParseLength parses a length in %, px, pt, em, rem, mm, cm or in. Unitless
// numbers are pixels, as in HTML attributes. fontSize resolves em and rem.
func ParseLength(value string, fontSize float64) (Length, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "auto" {
		return Length{}, false
	}

	units := []struct {
		suffix string
		scale  float64
	}{
		{"%", 1},
		{"rem", fontSize},
		{"em", fontSize},
		{"px", pxToPt},
		{"pt", 1},
		{"mm", mmToPt},
		{"cm", 10 * mmToPt},
		{"in", inToPt},
	}
	for _, u := range units {
		if !strings.HasSuffix(value, u.suffix) {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, u.suffix)), 64)
		if err != nil {
			return Length{}, false
		}
		return Length{Value: n * u.scale, Percent: u.suffix == "%"}, true
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: n * pxToPt}, true
}

var namedColors = map[string]border.Color{
	"black":   {R: 0, G: 0, B: 0},
	"white":   {R: 255, G: 255, B: 255},
	"red":     {R: 255, G: 0, B: 0},
	"green":   {R: 0, G: 128, B: 0},
	"lime":    {R: 0, G: 255, B: 0},
	"blue":    {R: 0, G: 0, B: 255},
	"navy":    {R: 0, G: 0, B: 128},
	"yellow":  {R: 255, G: 255, B: 0},
	"orange":  {R: 255, G: 165, B: 0},
	"purple":  {R: 128, G: 0, B: 128},
	"teal":    {R: 0, G: 128, B: 128},
	"maroon":  {R: 128, G: 0, B: 0},
	"olive":   {R: 128, G: 128, B: 0},
	"silver":  {R: 192, G: 192, B: 192},
	"gray":    {R: 128, G: 128, B: 128},
	"grey":    {R: 128, G: 128, B: 128},
	"aqua":    {R: 0, G: 255, B: 255},
	"fuchsia": {R: 255, G: 0, B: 255},

	"lightgray":  {R: 211, G: 211, B: 211},
	"lightgrey":  {R: 211, G: 211, B: 211},
	"darkgray":   {R: 169, G: 169, B: 169},
	"darkgrey":   {R: 169, G: 169, B: 169},
	"whitesmoke": {R: 245, G: 245, B: 245},
	"gainsboro":  {R: 220, G: 220, B: 220},
	"lightblue":  {R: 173, G: 216, B: 230},
	"steelblue":  {R: 70, G: 130, B: 180},
	"darkblue":   {R: 0, G: 0, B: 139},
	"lightgreen": {R: 144, G: 238, B: 144},
	"darkgreen":  {R: 0, G: 100, B: 0},
	"darkred":    {R: 139, G: 0, B: 0},
	"pink":       {R: 255, G: 192, B: 203},
	"beige":      {R: 245, G: 245, B: 220},
	"ivory":      {R: 255, G: 255, B: 240},
}

// ParseColor parses #rgb, #rrggbb, rgb(), rgba() and named colors.
// transparent and unknown values report false.
func ParseColor(value string) (border.Color, bool) {
	value = strings.ToLower(strings.TrimSpace(value))

	if strings.HasPrefix(value, "#") {
		return parseHexColor(value)
	}

	if strings.HasPrefix(value, "rgb(") || strings.HasPrefix(value, "rgba(") {
		_, args, _ := strings.Cut(strings.TrimSuffix(value, ")"), "(")
		parts := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) < 3 {
			return border.Color{}, false
		}
		if len(parts) == 4 {
			if a, err := strconv.ParseFloat(parts[3], 64); err == nil && a == 0 {
				return border.Color{}, false
			}
		}
		var rgb [3]int
		for i := 0; i < 3; i++ {
			v, ok := colorComponent(parts[i])
			if !ok {
				return border.Color{}, false
			}
			rgb[i] = v
		}
		return border.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, true
	}

	c, ok := namedColors[value]
	return c, ok
}

func colorComponent(s string) (int, bool) {
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	if percent {
		v = v * 255 / 100
	}
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return int(v + 0.5), true
}

func parseHexColor(s string) (border.Color, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return border.Color{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return border.Color{}, false
	}
	return border.Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

// ParseBoxShorthand expands a 1 to 4 value shorthand (margin, padding,
// border-width ...) into top, right, bottom and left.
func ParseBoxShorthand(value string) ([4]string, bool) {
	f := splitTopLevel(value, ' ')
	switch len(f) {
	case 1:
		return [4]string{f[0], f[0], f[0], f[0]}, true
	case 2:
		return [4]string{f[0], f[1], f[0], f[1]}, true
	case 3:
		return [4]string{f[0], f[1], f[2], f[1]}, true
	case 4:
		return [4]string{f[0], f[1], f[2], f[3]}, true
	}
	return [4]string{}, false
}

// ParseBorderWidth parses a border width length or keyword
func ParseBorderWidth(value string, fontSize float64) (float64, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if w, ok := borderWidths[value]; ok {
		return w, true
	}
	l, ok := ParseLength(value, fontSize)
	if !ok || l.Percent {
		return 0, false
	}
	return l.Value, true
}

// ParseBorder parses a border shorthand such as "1px solid #ccc". A style
// without a width gets medium; a missing style leaves the border at none.
func ParseBorder(value string, fontSize float64) (border.Descriptor, bool) {
	var (
		d        border.Descriptor
		hasWidth bool
		found    bool
	)
	for _, tok := range splitTopLevel(value, ' ') {
		if s, ok := border.ParseStyle(tok); ok {
			d.Style = s
			found = true
			continue
		}
		if w, ok := ParseBorderWidth(tok, fontSize); ok {
			d.Width = w
			hasWidth = true
			found = true
			continue
		}
		if c, ok := ParseColor(tok); ok {
			d.Color = c
			found = true
		}
	}
	if !found {
		return border.Descriptor{}, false
	}
	if !hasWidth && d.Style != border.None {
		d.Width = borderWidths["medium"]
	}
	return d, true
}

// ParseURL extracts the reference of a url(...) value
func ParseURL(value string) (string, bool) {
	value = strings.TrimSpace(value)
	start := strings.Index(value, "url(")
	if start < 0 {
		return "", false
	}
	rest := value[start+len("url("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return "", false
	}
	ref := strings.Trim(strings.TrimSpace(rest[:end]), `"'`)
	return ref, ref != ""
}

// ParseLinearGradient reads a linear-gradient() as a two-stop gradient
// from its first to its last color stop. Directions towards left or right
// are horizontal; everything else runs top to bottom.
func ParseLinearGradient(value string) (*table.Gradient, bool) {
	value = strings.TrimSpace(value)
	start := strings.Index(value, "linear-gradient(")
	if start < 0 || !strings.HasSuffix(value, ")") {
		return nil, false
	}
	parts := splitTopLevel(value[start+len("linear-gradient("):len(value)-1], ',')
	if len(parts) < 2 {
		return nil, false
	}

	g := &table.Gradient{Vertical: true}
	first := strings.ToLower(parts[0])
	if strings.HasPrefix(first, "to ") || strings.HasSuffix(first, "deg") {
		g.Vertical = !strings.Contains(first, "left") && !strings.Contains(first, "right") &&
			first != "90deg" && first != "270deg"
		parts = parts[1:]
	}

	var stops []border.Color
	for _, p := range parts {
		fields := splitTopLevel(p, ' ')
		if len(fields) == 0 {
			continue
		}
		c, ok := ParseColor(fields[0])
		if !ok {
			return nil, false
		}
		stops = append(stops, c)
	}
	if len(stops) < 2 {
		return nil, false
	}
	g.From, g.To = stops[0], stops[len(stops)-1]
	return g, true
}

// ParseBackground reads a background or background-color value
func ParseBackground(value string) (table.Background, bool) {
	var bg table.Background
	if g, ok := ParseLinearGradient(value); ok {
		bg.Gradient = g
		return bg, true
	}
	if ref, ok := ParseURL(value); ok {
		bg.Image = ref
	}
	for _, tok := range splitTopLevel(value, ' ') {
		if c, ok := ParseColor(tok); ok {
			bg.Color = &c
			break
		}
	}
	return bg, !bg.Empty()
}
