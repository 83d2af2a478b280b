package text

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Content is a block of text inside a cell
type Content struct {
	Text  string
	Font  Font
	Color [3]int
	// Preformatted keeps runs of whitespace
	Preformatted bool
}

// Metrics measures and wraps cell content. It answers both the width
// solver and the height solver, so both see the same line breaking.
type Metrics struct {
	adv  Advancer
	base Font
}

// NewMetrics creates content metrics. Content without a font uses base.
func NewMetrics(adv Advancer, base Font) *Metrics {
	if adv == nil {
		adv = FixedAdvancer{}
	}
	if base.Size <= 0 {
		base = DefaultFont
	}
	return &Metrics{adv: adv, base: base}
}

// Advancer returns the advancer the metrics measure with
func (m *Metrics) Advancer() Advancer { return m.adv }

// Resolve turns supported content values into Content. Strings take the
// base font. ok is false for nil and unsupported values.
func (m *Metrics) Resolve(content any) (Content, bool) {
	switch v := content.(type) {
	case Content:
		if v.Font.Size <= 0 {
			v.Font = m.base
		}
		return v, true
	case *Content:
		if v == nil {
			return Content{}, false
		}
		return m.Resolve(*v)
	case string:
		return Content{Text: v, Font: m.base}, true
	}
	return Content{}, false
}

// Measure returns the narrowest width the content can wrap to and the
// width it takes unwrapped
func (m *Metrics) Measure(content any, _ float64) (min, max float64) {
	c, ok := m.Resolve(content)
	if !ok {
		return 0, 0
	}
	for _, para := range paragraphs(c) {
		width := 0.0
		for _, tk := range splitTokens(para) {
			w := m.adv.Advance(tk, c.Font)
			width += w
			if !isAllSpace(tk) {
				min = math.Max(min, w)
			}
		}
		max = math.Max(max, width)
	}
	return min, max
}

// ContentHeight returns the height of the content wrapped to width
func (m *Metrics) ContentHeight(content any, width float64) float64 {
	c, ok := m.Resolve(content)
	if !ok {
		return 0
	}
	return float64(len(m.Lines(c, width))) * c.Font.Line()
}

// Lines wraps content greedily at word boundaries. A word wider than
// width gets a line of its own.
func (m *Metrics) Lines(c Content, width float64) []string {
	if c.Text == "" {
		return nil
	}
	var lines []string
	for _, para := range paragraphs(c) {
		var cur strings.Builder
		used := 0.0
		for _, tk := range splitTokens(para) {
			w := m.adv.Advance(tk, c.Font)
			if isAllSpace(tk) {
				if cur.Len() > 0 {
					cur.WriteString(tk)
					used += w
				}
				continue
			}
			if cur.Len() > 0 && used+w > width+1e-6 {
				lines = append(lines, strings.TrimRightFunc(cur.String(), unicode.IsSpace))
				cur.Reset()
				used = 0
			}
			cur.WriteString(tk)
			used += w
		}
		lines = append(lines, strings.TrimRightFunc(cur.String(), unicode.IsSpace))
	}
	return lines
}

// Shrink returns the content with its font scaled by 1/ratio
func (m *Metrics) Shrink(content any, ratio float64) any {
	c, ok := m.Resolve(content)
	if !ok || ratio <= 1 {
		return content
	}
	c.Font.Size /= ratio
	return c
}

// Normalize composes text to NFC and collapses whitespace runs unless
// preformatted
func Normalize(s string, preformatted bool) string {
	s = norm.NFC.String(s)
	if preformatted {
		return s
	}
	return normalizeWhitespace(s)
}

func paragraphs(c Content) []string {
	txt := strings.ReplaceAll(c.Text, "\r\n", "\n")
	if !c.Preformatted {
		return []string{strings.TrimSpace(normalizeWhitespace(strings.ReplaceAll(txt, "\n", " ")))}
	}
	return strings.Split(txt, "\n")
}

// splitTokens splits text into alternating word and whitespace tokens
func splitTokens(s string) []string {
	var tokens []string
	var cur []rune
	space := false

	for i, r := range s {
		isSp := unicode.IsSpace(r)
		if i > 0 && isSp != space && len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
		space = isSp
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		tokens = append(tokens, string(cur))
	}
	return tokens
}

func isAllSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// normalizeWhitespace collapses runs of whitespace into one space but
// keeps leading and trailing space.
func normalizeWhitespace(s string) string {
	var b strings.Builder
	last := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !last {
				b.WriteByte(' ')
			}
			last = true
			continue
		}
		b.WriteRune(r)
		last = false
	}
	return b.String()
}
