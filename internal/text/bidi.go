package text

import "github.com/go-text/typesetting/di"

// Direction represents text direction
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

// DirectionOf returns the dominant direction of a string: right to left
// as soon as it contains Arabic or Hebrew letters.
func DirectionOf(s string) Direction {
	for _, r := range s {
		if (r >= 0x0590 && r <= 0x06FF) || (r >= 0xFB50 && r <= 0xFDFF) || (r >= 0xFE70 && r <= 0xFEFF) {
			return RightToLeft
		}
	}
	return LeftToRight
}

func (d Direction) di() di.Direction {
	if d == RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}
