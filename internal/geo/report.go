package geo

import "github.com/mr1hm/go-resilience-dashboard/internal/models"

// Report summarizes one reconciliation for diagnostics.
type Report struct {
	Features  int      `json:"features"`
	Matched   int      `json:"matched"`
	Unmatched []string `json:"unmatched"`
	// Records that no boundary feature matched.
	Orphans []string `json:"orphans"`
}

func BuildReport(merged []MergedFeature, records []models.DistrictRecord) Report {
	r := Report{
		Features:  len(merged),
		Unmatched: []string{},
		Orphans:   []string{},
	}
	used := make(map[int]bool, len(merged))
	for _, f := range merged {
		if f.HasMatch {
			r.Matched++
			used[f.MatchedID] = true
			continue
		}
		r.Unmatched = append(r.Unmatched, f.Name)
	}
	for _, rec := range records {
		if !used[rec.ID] {
			r.Orphans = append(r.Orphans, rec.Name)
		}
	}
	return r
}
