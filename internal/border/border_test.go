package border

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Descriptor
		want Winner
	}{
		{
			name: "hidden beats wider border",
			a:    Descriptor{Width: 0.5, Style: Hidden},
			b:    Descriptor{Width: 4, Style: Double},
			want: A,
		},
		{
			name: "wider border wins",
			a:    Descriptor{Width: 1, Style: Dotted},
			b:    Descriptor{Width: 2, Style: Solid},
			want: B,
		},
		{
			name: "style rank breaks width tie",
			a:    Descriptor{Width: 1, Style: Solid},
			b:    Descriptor{Width: 1, Style: Dashed},
			want: A,
		},
		{
			name: "double outranks solid",
			a:    Descriptor{Width: 1, Style: Solid},
			b:    Descriptor{Width: 1, Style: Double},
			want: B,
		},
		{
			name: "specificity breaks style tie",
			a:    Descriptor{Width: 1, Style: Solid, Specificity: 1},
			b:    Descriptor{Width: 1, Style: Solid, Specificity: 2},
			want: B,
		},
		{
			name: "identical borders tie",
			a:    Descriptor{Width: 1, Style: Solid},
			b:    Descriptor{Width: 1, Style: Solid},
			want: Tie,
		},
		{
			name: "none has no width",
			a:    Descriptor{Width: 3, Style: None},
			b:    Descriptor{Width: 0.1, Style: Inset},
			want: B,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestStrongerIsOrderIndependentWithSpecificity(t *testing.T) {
	low := Descriptor{Width: 1, Style: Solid, Color: Color{R: 255}, Specificity: 1}
	high := Descriptor{Width: 1, Style: Solid, Color: Color{B: 255}, Specificity: 3}

	w1, _ := Stronger(low, high)
	w2, _ := Stronger(high, low)

	assert.Equal(t, high, w1)
	assert.Equal(t, high, w2)
}

func TestStrongerPositionalTie(t *testing.T) {
	top := Descriptor{Width: 1, Style: Solid, Color: Color{R: 255}}
	bottom := Descriptor{Width: 1, Style: Solid, Color: Color{G: 255}}

	got, who := Stronger(top, bottom)
	assert.Equal(t, A, who)
	assert.Equal(t, top.Color, got.Color)
}

func TestCompareIgnoresResolutionState(t *testing.T) {
	a := Descriptor{Width: 1, Style: Solid}
	b := a
	b.Suppressed = true
	b.Collapsed = 3
	b.Meeting = [2]float64{2, 2}

	assert.Equal(t, Tie, Compare(a, b))
	assert.Equal(t, a, b.Edge())
}

func TestParseStyle(t *testing.T) {
	for style, name := range styleNames {
		got, ok := ParseStyle(" " + name + " ")
		require.True(t, ok, name)
		assert.Equal(t, style, got)
		assert.Equal(t, name, style.String())
	}

	_, ok := ParseStyle("wavy")
	assert.False(t, ok)
}

func TestRankOrder(t *testing.T) {
	order := []Style{None, Inset, Groove, Outset, Ridge, Dotted, Dashed, Solid, Double}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1].Rank(), order[i].Rank(), order[i].String())
	}
}

func TestResolved(t *testing.T) {
	d := Descriptor{Width: 2, Style: Solid}
	assert.Equal(t, 2.0, d.Resolved())

	d.Suppressed = true
	assert.Equal(t, 0.0, d.Resolved())
	assert.False(t, d.Visible())

	d.Collapsed = 3
	assert.Equal(t, 3.0, d.Resolved())
}
