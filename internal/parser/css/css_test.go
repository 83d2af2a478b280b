package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gompdf/tablelayout/internal/border"
)

func TestParseStylesheet(t *testing.T) {
	sheet, err := NewParser().ParseString(`
		/* report tables */
		@import url("base.css");
		@page { size: A4 landscape; margin: 2cm }
		@media print { td { color: red } }
		table.report td , th { padding: 2px 4px; background: url("a;b.png") }
		tr:nth-child(even) td { background-color: #eee !important; }
	`)
	require.NoError(t, err)
	require.Len(t, sheet.Rules, 2)

	assert.Equal(t, []string{"table.report td", "th"}, sheet.Rules[0].Selectors)
	require.Len(t, sheet.Rules[0].Declarations, 2)
	assert.Equal(t, `url("a;b.png")`, sheet.Rules[0].Declarations[1].Value)

	d := sheet.Rules[1].Declarations[0]
	assert.Equal(t, "background-color", d.Property)
	assert.Equal(t, "#eee", d.Value)
	assert.True(t, d.Important)

	size, ok := sheet.PageProperty("size")
	assert.True(t, ok)
	assert.Equal(t, "A4 landscape", size)
}

func TestParseDeclarations(t *testing.T) {
	decls := ParseDeclarations("Border: 1px solid red; ; width:50%;bogus")
	require.Len(t, decls, 2)
	assert.Equal(t, "border", decls[0].Property)
	assert.Equal(t, "50%", decls[1].Value)
}

func TestMerge(t *testing.T) {
	a, _ := NewParser().ParseString("td{color:red}")
	b, _ := NewParser().ParseString("@page{margin:1in} th{color:blue}")
	a.Merge(b)
	a.Merge(nil)

	assert.Len(t, a.Rules, 2)
	v, ok := a.PageProperty("margin")
	assert.True(t, ok)
	assert.Equal(t, "1in", v)
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		percent bool
		ok      bool
	}{
		{"10px", 7.5, false, true},
		{"12pt", 12, false, true},
		{"2em", 20, false, true},
		{"1.5rem", 15, false, true},
		{"25.4mm", 72, false, true},
		{"1in", 72, false, true},
		{"40%", 40, true, true},
		{"8", 6, false, true},
		{"auto", 0, false, false},
		{"wide", 0, false, false},
	}
	for _, tt := range tests {
		l, ok := ParseLength(tt.in, 10)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, l.Value, 1e-9, tt.in)
		assert.Equal(t, tt.percent, l.Percent, tt.in)
	}

	l, _ := ParseLength("50%", 10)
	assert.Equal(t, 100.0, l.Of(200))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want border.Color
		ok   bool
	}{
		{"#fff", border.Color{R: 255, G: 255, B: 255}, true},
		{"#1a2B3c", border.Color{R: 26, G: 43, B: 60}, true},
		{"rgb(10, 20, 30)", border.Color{R: 10, G: 20, B: 30}, true},
		{"rgba(10,20,30,0.5)", border.Color{R: 10, G: 20, B: 30}, true},
		{"rgb(100%, 0%, 50%)", border.Color{R: 255, B: 128}, true},
		{"Navy", border.Color{B: 128}, true},
		{"transparent", border.Color{}, false},
		{"rgba(1,2,3,0)", border.Color{}, false},
		{"#12", border.Color{}, false},
	}
	for _, tt := range tests {
		c, ok := ParseColor(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, c, tt.in)
	}
}

func TestParseBorder(t *testing.T) {
	d, ok := ParseBorder("2px dashed #f00", 10)
	require.True(t, ok)
	assert.Equal(t, border.Descriptor{Width: 1.5, Style: border.Dashed, Color: border.Color{R: 255}}, d)

	d, ok = ParseBorder("double", 10)
	require.True(t, ok)
	assert.Equal(t, 2.25, d.Width)

	d, ok = ParseBorder("thin", 10)
	require.True(t, ok)
	assert.Equal(t, border.None, d.Style)

	_, ok = ParseBorder("whatever", 10)
	assert.False(t, ok)
}

func TestParseBoxShorthand(t *testing.T) {
	box, ok := ParseBoxShorthand("1px 2px 3px")
	require.True(t, ok)
	assert.Equal(t, [4]string{"1px", "2px", "3px", "2px"}, box)

	box, _ = ParseBoxShorthand("4px")
	assert.Equal(t, [4]string{"4px", "4px", "4px", "4px"}, box)

	box, _ = ParseBoxShorthand("1px rgb(1, 2, 3)")
	assert.Equal(t, "rgb(1, 2, 3)", box[1])

	_, ok = ParseBoxShorthand("")
	assert.False(t, ok)
}

func TestParseBackground(t *testing.T) {
	bg, ok := ParseBackground("linear-gradient(to right, #000, rgb(0, 0, 255) 80%, white)")
	require.True(t, ok)
	require.NotNil(t, bg.Gradient)
	assert.False(t, bg.Gradient.Vertical)
	assert.Equal(t, border.Color{R: 255, G: 255, B: 255}, bg.Gradient.To)

	bg, ok = ParseBackground(`#ccc url('img/stripe.png') repeat-x`)
	require.True(t, ok)
	assert.Equal(t, "img/stripe.png", bg.Image)
	assert.Equal(t, &border.Color{R: 204, G: 204, B: 204}, bg.Color)

	g, ok := ParseLinearGradient("linear-gradient(red, blue)")
	require.True(t, ok)
	assert.True(t, g.Vertical)

	_, ok = ParseBackground("none")
	assert.False(t, ok)
}
