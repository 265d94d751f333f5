package geo

import (
	"github.com/paulmach/orb"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
)

// Bounds returns the union of every feature's bound and false when no feature
// has geometry.
func Bounds(features []MergedFeature) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, f := range features {
		if f.Feature == nil || f.Feature.Geometry == nil {
			continue
		}
		if !found {
			b = f.Bound
			found = true
			continue
		}
		b = b.Union(f.Bound)
	}
	return b, found
}

// LabelPoint is where a marker for the feature is placed when its record has
// no location: the center of the feature's bound.
func LabelPoint(f MergedFeature) models.LatLng {
	c := f.Bound.Center()
	return models.LatLng{Lat: c.Lat(), Lng: c.Lon()}
}
