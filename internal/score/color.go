// Package score maps resilience scores to visual bands.
//
// Two banding schemes coexist and are intentionally kept apart: the five-band
// scheme (80/70/60/50) drives map fill colors and qualitative labels, while the
// three-band scheme (75/60) drives the coarse status badge of a district.
package score

import "math"

type Color string

const (
	DarkGreen   Color = "#1B5E20"
	Green       Color = "#4CAF50"
	Yellow      Color = "#FFC107"
	Orange      Color = "#FF9800"
	Red         Color = "#F44336"
	NeutralGray Color = "#e0e0e0" // districts without a data match
)

// Label is the qualitative name of a five-band color band. Display text for
// each label lives in the locale package.
type Label string

const (
	LabelExcellent Label = "excellent"
	LabelGood      Label = "good"
	LabelModerate  Label = "moderate"
	LabelFair      Label = "fair"
	LabelPoor      Label = "poor"
)

// Band is one entry of the five-band scheme. Min is inclusive.
type Band struct {
	Min   float64 `json:"min"`
	Color Color   `json:"color"`
	Label Label   `json:"label"`
}

// Highest first; the first band whose Min is <= score wins.
var bands = []Band{
	{Min: 80, Color: DarkGreen, Label: LabelExcellent},
	{Min: 70, Color: Green, Label: LabelGood},
	{Min: 60, Color: Yellow, Label: LabelModerate},
	{Min: 50, Color: Orange, Label: LabelFair},
	{Min: math.Inf(-1), Color: Red, Label: LabelPoor},
}

func bandFor(s float64) Band {
	for _, b := range bands {
		if s >= b.Min {
			return b
		}
	}
	// NaN compares false against every band.
	return bands[len(bands)-1]
}

// ColorFor returns the map fill color for a score. It is total: scores outside
// [0,100] fall into the top or bottom band.
func ColorFor(s float64) Color {
	return bandFor(s).Color
}

// LabelFor returns the five-band qualitative label for a score.
func LabelFor(s float64) Label {
	return bandFor(s).Label
}

// Palette returns the legend entries, highest band first.
func Palette() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	out[len(out)-1].Min = 0
	return out
}

// Rank orders colors by warmth: 0 is the coolest (highest scores). Unknown
// colors, including NeutralGray, rank -1.
func Rank(c Color) int {
	for i, b := range bands {
		if b.Color == c {
			return i
		}
	}
	return -1
}

// Clamp limits v to [0,100]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
