package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
)

// Property keys flattened onto a merged feature.
const (
	PropID               = "id"
	PropName             = "name"
	PropScore            = "score"
	PropStatus           = "status"
	PropLat              = "lat"
	PropLng              = "lng"
	PropHazardExposure   = "hazardExposure"
	PropAdaptiveCapacity = "adaptiveCapacity"
	PropNaturalResource  = "naturalResource"
	PropSocialEconomic   = "socialEconomic"
	PropHasMatch         = "hasMatch"
	PropMatchedID        = "matchedId"
)

type MergeOptions struct {
	DistrictField string
	Prefix        string
}

// MergedFeature is a boundary feature with the matched record's scoring fields
// flattened onto its properties. Unmatched features keep their geometry with
// HasMatch false and Score 0.
type MergedFeature struct {
	Feature   *geojson.Feature
	Name      string // district name as written in the boundary data
	HasMatch  bool
	MatchedID int // meaningful only when HasMatch
	Score     float64
	Bound     orb.Bound
}

// Merge joins features with records by normalized name. Output order follows
// the input features; the first record in iteration order wins a tie. Input
// features are not modified.
func Merge(features []*geojson.Feature, records []models.DistrictRecord, opts MergeOptions) []MergedFeature {
	if opts.DistrictField == "" {
		opts.DistrictField = DefaultDistrictField
	}

	index := make(map[string]int, len(records))
	for i, r := range records {
		key := NormalizeName(r.Name, opts.Prefix)
		if key == "" {
			continue
		}
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	out := make([]MergedFeature, 0, len(features))
	for _, f := range features {
		name, _ := f.Properties[opts.DistrictField].(string)

		merged := geojson.NewFeature(f.Geometry)
		merged.ID = f.ID
		merged.BBox = f.BBox
		merged.Properties = f.Properties.Clone()
		if merged.Properties == nil {
			merged.Properties = geojson.Properties{}
		}

		mf := MergedFeature{Feature: merged, Name: name}
		if f.Geometry != nil {
			mf.Bound = f.Geometry.Bound()
		}

		i, ok := index[NormalizeName(name, opts.Prefix)]
		if ok {
			r := records[i]
			flatten(merged.Properties, r)
			mf.HasMatch = true
			mf.MatchedID = r.ID
			mf.Score = r.Score
		} else {
			merged.Properties[PropScore] = 0.0
			merged.Properties[PropHasMatch] = false
			delete(merged.Properties, PropMatchedID)
		}
		out = append(out, mf)
	}
	return out
}

func flatten(p geojson.Properties, r models.DistrictRecord) {
	p[PropID] = r.ID
	p[PropName] = r.Name
	p[PropScore] = r.Score
	p[PropStatus] = string(r.Status)
	p[PropLat] = r.Location.Lat
	p[PropLng] = r.Location.Lng
	p[PropHazardExposure] = r.Dimensions.HazardExposure
	p[PropAdaptiveCapacity] = r.Dimensions.AdaptiveCapacity
	p[PropNaturalResource] = r.Dimensions.NaturalResource
	p[PropSocialEconomic] = r.Dimensions.SocialEconomic
	p[PropHasMatch] = true
	p[PropMatchedID] = r.ID
}
