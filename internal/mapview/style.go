package mapview

import (
	"fmt"
	"strconv"

	"github.com/mr1hm/go-resilience-dashboard/internal/geo"
	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/score"
	"github.com/mr1hm/go-resilience-dashboard/internal/search"
)

const (
	strokeColor   = "white"
	dashUnmatched = "3"
)

// Style is the Leaflet path style of one district polygon.
type Style struct {
	FillColor   score.Color `json:"fillColor"`
	Weight      int         `json:"weight"`
	Opacity     float64     `json:"opacity"`
	Color       string      `json:"color"`
	DashArray   string      `json:"dashArray,omitempty"`
	FillOpacity float64     `json:"fillOpacity"`
}

// StyleFor derives a polygon style. ids is the filtered record set for query.
func StyleFor(f geo.MergedFeature, ids map[int]struct{}, query string) Style {
	s := Style{
		FillColor:   score.NeutralGray,
		Weight:      1,
		Opacity:     1,
		Color:       strokeColor,
		FillOpacity: 0.7,
	}
	if f.HasMatch {
		s.FillColor = score.ColorFor(f.Score)
	} else {
		s.DashArray = dashUnmatched
	}
	if search.Contains(f.HasMatch, f.MatchedID, ids) {
		s.Weight = 2
	}
	if search.Dimmed(f.HasMatch, f.MatchedID, ids, query) {
		s.FillOpacity = 0.2
	}
	return s
}

// TooltipFor is the hover text of a polygon: district name and score.
func TooltipFor(f geo.MergedFeature, labels *locale.Labels) string {
	return fmt.Sprintf("%s\n%s: %s", f.Name, labels.ScoreLabel, formatScore(f.Score))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Marker is a clickable label placed on a district.
type Marker struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Score    float64       `json:"score"`
	Color    score.Color   `json:"color"`
	Position models.LatLng `json:"position"`
	Path     string        `json:"path"`
}

// MarkersFor returns one marker per record, positioned at the record's
// location or, failing that, at the center of its matched polygon. Records
// with neither are skipped.
func MarkersFor(records []models.DistrictRecord, features []geo.MergedFeature) []Marker {
	fallback := make(map[int]models.LatLng, len(features))
	for _, f := range features {
		if f.HasMatch && f.Feature != nil && f.Feature.Geometry != nil {
			if _, ok := fallback[f.MatchedID]; !ok {
				fallback[f.MatchedID] = geo.LabelPoint(f)
			}
		}
	}

	markers := make([]Marker, 0, len(records))
	for _, r := range records {
		pos := r.Location
		if !r.Located() {
			p, ok := fallback[r.ID]
			if !ok {
				continue
			}
			pos = p
		}
		markers = append(markers, Marker{
			ID:       r.ID,
			Name:     r.Name,
			Score:    r.Score,
			Color:    score.ColorFor(r.Score),
			Position: pos,
			Path:     DetailPath(r.ID),
		})
	}
	return markers
}
