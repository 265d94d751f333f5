// Package geo narrows boundary geometry to one province and reconciles it with
// district score records.
package geo

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mr1hm/go-resilience-dashboard/internal/models"
)

// DefaultPrefix is the administrative-unit token carried by Thai district names.
const DefaultPrefix = "อำเภอ"

var ErrDuplicateMatch = errors.New("duplicate district match")

// DuplicateMatchError reports two or more records that normalize to the same
// district name, which would make the join ambiguous.
type DuplicateMatchError struct {
	Name string
	IDs  []int
}

func (e *DuplicateMatchError) Error() string {
	return fmt.Sprintf("%s: %q is shared by records %v", ErrDuplicateMatch, e.Name, e.IDs)
}

func (e *DuplicateMatchError) Unwrap() error { return ErrDuplicateMatch }

// NormalizeName is the single normalization applied to both sides of every name
// comparison: NFC composition, removal of a leading prefix token, whitespace
// trim. An empty result is not a join key.
func NormalizeName(name, prefix string) string {
	n := strings.TrimSpace(norm.NFC.String(name))
	if prefix != "" {
		n = strings.TrimPrefix(n, norm.NFC.String(prefix))
	}
	return strings.TrimSpace(n)
}

// CheckUnique returns a *DuplicateMatchError for the first normalized name that
// more than one record maps to. Records without a name never match and are
// ignored.
func CheckUnique(records []models.DistrictRecord, prefix string) error {
	seen := make(map[string][]int, len(records))
	order := make([]string, 0, len(records))
	for _, r := range records {
		key := NormalizeName(r.Name, prefix)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			order = append(order, key)
		}
		seen[key] = append(seen[key], r.ID)
	}
	for _, key := range order {
		if ids := seen[key]; len(ids) > 1 {
			return &DuplicateMatchError{Name: key, IDs: ids}
		}
	}
	return nil
}
