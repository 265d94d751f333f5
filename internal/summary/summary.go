// Package summary computes the province overview shown above the map.
package summary

import (
	"github.com/shopspring/decimal"

	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/score"
)

type Category struct {
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	Score float64     `json:"score"`
	Color score.Color `json:"color"`
}

type Summary struct {
	Name          string      `json:"name"`
	AvgScore      float64     `json:"avgScore"`
	Color         score.Color `json:"color"`
	DistrictCount int         `json:"districtCount"`
	Categories    []Category  `json:"categories"`
}

// Summarize averages the overall score to one decimal and each dimension to a
// whole number.
func Summarize(province string, records []models.DistrictRecord, labels *locale.Labels) Summary {
	if labels == nil {
		labels = locale.Default()
	}
	s := Summary{
		Name:          province,
		DistrictCount: len(records),
		Categories:    []Category{},
	}
	if len(records) == 0 {
		s.Color = score.ColorFor(0)
		return s
	}

	var total, hazard, adaptive, resource, social decimal.Decimal
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.Score))
		hazard = hazard.Add(decimal.NewFromFloat(r.Dimensions.HazardExposure))
		adaptive = adaptive.Add(decimal.NewFromFloat(r.Dimensions.AdaptiveCapacity))
		resource = resource.Add(decimal.NewFromFloat(r.Dimensions.NaturalResource))
		social = social.Add(decimal.NewFromFloat(r.Dimensions.SocialEconomic))
	}

	n := decimal.NewFromInt(int64(len(records)))
	s.AvgScore = average(total, n, 1)
	s.Color = score.ColorFor(s.AvgScore)
	s.Categories = []Category{
		category("hazardExposure", labels.Categories.HazardExposure, average(hazard, n, 0)),
		category("adaptiveCapacity", labels.Categories.AdaptiveCapacity, average(adaptive, n, 0)),
		category("naturalResource", labels.Categories.NaturalResource, average(resource, n, 0)),
		category("socialEconomic", labels.Categories.SocialEconomic, average(social, n, 0)),
	}
	return s
}

func average(sum, n decimal.Decimal, places int32) float64 {
	f, _ := sum.Div(n).Round(places).Float64()
	return f
}

func category(key, name string, v float64) Category {
	return Category{Key: key, Name: name, Score: v, Color: score.ColorFor(v)}
}
