package ingestion

import "math"

// seededRandom is a reproducibility device, not a statistical generator: the
// same seed always yields the same value in [0,1).
func seededRandom(seed float64) float64 {
	x := math.Sin(seed) * 10000
	return x - math.Floor(x)
}

// synthesize returns an integer-valued score in [min,max] that depends only on
// id and salt.
func synthesize(id int, min, max float64, salt int) float64 {
	r := seededRandom(float64(id*13 + salt*7))
	return math.Floor(r*(max-min+1)) + min
}

// Salts for each synthesized field.
const (
	saltScore = iota
	saltHazardExposure
	saltAdaptiveCapacity
	saltNaturalResource
	saltSocialEconomic
	saltPublicPerception
)

// Synthesized ranges relative to the overall score.
var dimensionSpread = map[int][2]float64{
	saltHazardExposure:   {-10, 10},
	saltAdaptiveCapacity: {-5, 15},
	saltNaturalResource:  {-15, 5},
	saltSocialEconomic:   {-5, 10},
	saltPublicPerception: {-10, 10},
}

func synthesizeDimension(id int, score float64, salt int) float64 {
	spread := dimensionSpread[salt]
	return synthesize(id, score+spread[0], score+spread[1], salt)
}
