package geo

import "github.com/paulmach/orb/geojson"

const (
	DefaultProvinceField = "pro_th"
	DefaultDistrictField = "amp_th"
)

// ByProvince returns the features whose province property equals name exactly.
// No normalization is applied at this stage.
func ByProvince(fc *geojson.FeatureCollection, field, name string) []*geojson.Feature {
	out := make([]*geojson.Feature, 0)
	if fc == nil {
		return out
	}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		if v, ok := f.Properties[field].(string); ok && v == name {
			out = append(out, f)
		}
	}
	return out
}
