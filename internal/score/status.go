package score

import "github.com/mr1hm/go-resilience-dashboard/internal/models"

const (
	statusGoodMin = 75
	statusMidMin  = 60
)

// BandFor derives the three-band status of a district: >=75 good, >=60 mid,
// otherwise bad.
func BandFor(s float64) models.StatusBand {
	switch {
	case s >= statusGoodMin:
		return models.StatusGood
	case s >= statusMidMin:
		return models.StatusMid
	default:
		return models.StatusBad
	}
}
