// Package search filters district records by a free-text query.
//
// Matching is a case-sensitive substring test on the record name with no
// folding, which is what the Thai-script district names need.
package search

import (
	"strings"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/score"
)

// Filter returns records whose name contains query. An empty query returns
// records itself.
func Filter(records []models.DistrictRecord, query string) []models.DistrictRecord {
	if query == "" {
		return records
	}
	out := make([]models.DistrictRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(r.Name, query) {
			out = append(out, r)
		}
	}
	return out
}

// IDs indexes the ids of records.
func IDs(records []models.DistrictRecord) map[int]struct{} {
	ids := make(map[int]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// Dimmed reports whether a feature is outside the current filter. Nothing is
// dimmed while the query is empty; unmatched features are dimmed otherwise.
func Dimmed(hasMatch bool, matchedID int, ids map[int]struct{}, query string) bool {
	if query == "" {
		return false
	}
	return !Contains(hasMatch, matchedID, ids)
}

// Contains reports whether a feature's matched record is in ids.
func Contains(hasMatch bool, matchedID int, ids map[int]struct{}) bool {
	if !hasMatch {
		return false
	}
	_, ok := ids[matchedID]
	return ok
}

type Item struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Score float64     `json:"score"`
	Color score.Color `json:"color"`
}

// Picklist is the live-filtered list shown in the search panel.
type Picklist struct {
	Query   string `json:"query"`
	Items   []Item `json:"items"`
	Showing int    `json:"showing"`
	Total   int    `json:"total"`
}

func NewPicklist(records []models.DistrictRecord, query string) Picklist {
	filtered := Filter(records, query)
	items := make([]Item, len(filtered))
	for i, r := range filtered {
		items[i] = Item{ID: r.ID, Name: r.Name, Score: r.Score, Color: score.ColorFor(r.Score)}
	}
	return Picklist{
		Query:   query,
		Items:   items,
		Showing: len(items),
		Total:   len(records),
	}
}
