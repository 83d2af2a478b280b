// Package border describes cell and table border edges and decides which
// of two conflicting borders wins when they meet.
package border

import (
	"strings"
)

// Style represents a border line style
type Style int

// Border styles
const (
	None Style = iota
	Hidden
	Solid
	Dashed
	Dotted
	Double
	Groove
	Ridge
	Inset
	Outset
)

var styleNames = map[Style]string{
	None:   "none",
	Hidden: "hidden",
	Solid:  "solid",
	Dashed: "dashed",
	Dotted: "dotted",
	Double: "double",
	Groove: "groove",
	Ridge:  "ridge",
	Inset:  "inset",
	Outset: "outset",
}

// rank orders styles for conflict resolution, weakest first.
// Hidden is decided before ranking and never reaches this table.
var rank = map[Style]int{
	None:   0,
	Inset:  1,
	Groove: 2,
	Outset: 3,
	Ridge:  4,
	Dotted: 5,
	Dashed: 6,
	Solid:  7,
	Double: 8,
}

// String returns the CSS keyword for the style
func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return "none"
}

// Rank returns the conflict-resolution rank of the style
func (s Style) Rank() int {
	return rank[s]
}

// ParseStyle parses a CSS border-style keyword
func ParseStyle(value string) (Style, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for style, name := range styleNames {
		if name == value {
			return style, true
		}
	}
	return None, false
}

// Color is an RGB color with 0-255 components
type Color struct {
	R, G, B int
}

// Black is the default border color
var Black = Color{}

// Side identifies one edge of a box
type Side int

// Box sides, in CSS order
const (
	Top Side = iota
	Right
	Bottom
	Left
)

// Sides lists all sides in CSS order
var Sides = [4]Side{Top, Right, Bottom, Left}

// Opposite returns the side facing s across a shared edge
func (s Side) Opposite() Side {
	return (s + 2) % 4
}

// Corner index along an edge: Start is top (vertical edges) or left (horizontal edges).
const (
	Start = 0
	End   = 1
)

// Descriptor describes the border on one side of a cell or table
type Descriptor struct {
	Width       float64
	Style       Style
	Color       Color
	Specificity float64

	// Suppressed marks the losing side of a collapsed conflict. The side
	// keeps its declared values but is not painted.
	Suppressed bool
	// Collapsed is the resolved width of the shared edge along this side.
	Collapsed float64
	// Meeting holds the widest perpendicular border at each end of the edge.
	Meeting [2]float64
}

// Declared reports whether the descriptor carries a visible or hiding border
func (d Descriptor) Declared() bool {
	return d.Style != None
}

// Effective returns the width used for comparison and sizing
func (d Descriptor) Effective() float64 {
	if d.Style == None || d.Style == Hidden {
		return 0
	}
	return d.Width
}

// Visible reports whether the border should be painted
func (d Descriptor) Visible() bool {
	return !d.Suppressed && d.Effective() > 0
}

// Resolved returns the width a side occupies once borders are collapsed.
// Unresolved descriptors fall back to their own effective width.
func (d Descriptor) Resolved() float64 {
	if d.Collapsed > 0 {
		return d.Collapsed
	}
	if d.Suppressed {
		return 0
	}
	return d.Effective()
}

// Winner reports which side of a comparison is stronger
type Winner int

// Comparison outcomes
const (
	Tie Winner = iota
	A
	B
)

// Compare decides which of two meeting borders is stronger. Positional
// ties are left to the caller; see Stronger.
func Compare(a, b Descriptor) Winner {
	if a.Style == Hidden || b.Style == Hidden {
		switch {
		case a.Style == Hidden && b.Style == Hidden:
			return Tie
		case a.Style == Hidden:
			return A
		default:
			return B
		}
	}

	if wa, wb := a.Effective(), b.Effective(); wa != wb {
		if wa > wb {
			return A
		}
		return B
	}

	if ra, rb := a.Style.Rank(), b.Style.Rank(); ra != rb {
		if ra > rb {
			return A
		}
		return B
	}

	if a.Specificity != b.Specificity {
		if a.Specificity > b.Specificity {
			return A
		}
		return B
	}

	return Tie
}

// Stronger returns the winning descriptor of two adjoining borders. a must
// be the top or left party of the edge, which wins any remaining tie.
func Stronger(a, b Descriptor) (Descriptor, Winner) {
	switch Compare(a, b) {
	case B:
		return b, B
	default:
		return a, A
	}
}

// Edge returns a copy of d stripped of resolution state
func (d Descriptor) Edge() Descriptor {
	return Descriptor{
		Width:       d.Width,
		Style:       d.Style,
		Color:       d.Color,
		Specificity: d.Specificity,
	}
}
