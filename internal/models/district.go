package models

type DistrictRecord struct {
	ID         int          `json:"id"`         // Stable identifier used for navigation and joins
	Name       string       `json:"name"`       // Display name, may carry the administrative prefix
	Score      float64      `json:"score"`      // Overall resilience index, clamped to [0,100]
	Location   LatLng       `json:"location"`   // Marker position and camera target
	Status     StatusBand   `json:"status"`     // Coarse list badge
	Dimensions Dimensions   `json:"dimensions"` // Four sub-scores, clamped to [0,100]
	Radar      []RadarEntry `json:"radar"`      // Five entries: the four dimensions plus public perception
}

type Dimensions struct {
	HazardExposure   float64 `json:"hazardExposure"`
	AdaptiveCapacity float64 `json:"adaptiveCapacity"`
	NaturalResource  float64 `json:"naturalResource"`
	SocialEconomic   float64 `json:"socialEconomic"`
}

type RadarEntry struct {
	Label string  `json:"subject"`
	Value float64 `json:"value"`
	Max   float64 `json:"fullMark"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Located reports whether the record carries a usable position.
func (d *DistrictRecord) Located() bool {
	return d.Location.Lat != 0 || d.Location.Lng != 0
}

// Clone returns a copy that shares no slices with d.
func (d DistrictRecord) Clone() DistrictRecord {
	out := d
	if d.Radar != nil {
		out.Radar = make([]RadarEntry, len(d.Radar))
		copy(out.Radar, d.Radar)
	}
	return out
}

// RawDistrict is one entry of the district data source. Every field may be
// absent; pointers distinguish "absent" from zero.
type RawDistrict struct {
	ID      any             `json:"id"` // number or numeric string
	Name    string          `json:"name"`
	Score   *float64        `json:"score,omitempty"`
	Lat     *float64        `json:"lat,omitempty"`
	Lng     *float64        `json:"lng,omitempty"`
	Status  *StatusBand     `json:"status,omitempty"`
	Radar   []RawRadarEntry `json:"radar,omitempty"`
	Details *RawDetails     `json:"details,omitempty"`
}

type RawDetails struct {
	Disaster  *float64 `json:"disaster,omitempty"`
	Potential *float64 `json:"potential,omitempty"`
	Resource  *float64 `json:"resource,omitempty"`
	Social    *float64 `json:"social,omitempty"`
}

type RawRadarEntry struct {
	Subject  string  `json:"subject"`
	A        float64 `json:"A"`
	FullMark float64 `json:"fullMark"`
}
