package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/score"
)

const radarMax = 100

// DistrictSource yields raw, possibly partial, district records.
type DistrictSource interface {
	FetchDistricts(ctx context.Context) ([]models.RawDistrict, error)
}

// HTTPDistrictSource reads a JSON array of district records from a URL.
type HTTPDistrictSource struct {
	url    string
	client *http.Client
}

// NewHTTPDistrictSource creates a source for url. A zero timeout means the
// request is only bounded by its context.
func NewHTTPDistrictSource(url string, timeout time.Duration) *HTTPDistrictSource {
	return &HTTPDistrictSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPDistrictSource) FetchDistricts(ctx context.Context) ([]models.RawDistrict, error) {
	body, err := fetch(ctx, s.client, s.url)
	if err != nil {
		return nil, unavailable(SourceDistricts, err)
	}
	return DecodeDistricts(body)
}

// DecodeDistricts parses a district payload, which must be a JSON array.
func DecodeDistricts(body []byte) ([]models.RawDistrict, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, malformed(SourceDistricts, ErrMalformedRecords, errors.New("payload is not an array"))
	}

	var raw []models.RawDistrict
	if err := sonic.Unmarshal(trimmed, &raw); err != nil {
		return nil, malformed(SourceDistricts, ErrMalformedRecords, fmt.Errorf("error decoding payload: %w", err))
	}
	return raw, nil
}

// LoadDistricts fetches raw records once (no retry) and enriches each of them.
// Ids must be unique within one load.
func LoadDistricts(ctx context.Context, src DistrictSource, labels *locale.Labels) ([]models.DistrictRecord, error) {
	raw, err := src.FetchDistricts(ctx)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, err
		}
		return nil, unavailable(SourceDistricts, err)
	}

	records := make([]models.DistrictRecord, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	for i, r := range raw {
		rec, err := EnrichDistrict(r, labels)
		if err != nil {
			return nil, malformed(SourceDistricts, ErrMalformedRecords, fmt.Errorf("record %d: %w", i, err))
		}
		if seen[rec.ID] {
			return nil, malformed(SourceDistricts, ErrMalformedRecords, fmt.Errorf("record %d: duplicate id %d", i, rec.ID))
		}
		seen[rec.ID] = true
		records = append(records, rec)
	}
	return records, nil
}

// EnrichDistrict turns a partial record into a complete one. Missing fields
// are synthesized from the id alone, so repeated loads of the same payload
// produce identical records. All scores are clamped to [0,100].
func EnrichDistrict(raw models.RawDistrict, labels *locale.Labels) (models.DistrictRecord, error) {
	id, err := coerceID(raw.ID)
	if err != nil {
		return models.DistrictRecord{}, err
	}
	if labels == nil {
		labels = locale.Default()
	}

	s := synthesize(id, 40, 100, saltScore)
	if raw.Score != nil {
		s = *raw.Score
	}
	s = score.Clamp(s)

	status := score.BandFor(s)
	if raw.Status != nil && raw.Status.Valid() {
		status = *raw.Status
	}

	var details models.RawDetails
	if raw.Details != nil {
		details = *raw.Details
	}
	dims := models.Dimensions{
		HazardExposure:   dimension(details.Disaster, id, s, saltHazardExposure),
		AdaptiveCapacity: dimension(details.Potential, id, s, saltAdaptiveCapacity),
		NaturalResource:  dimension(details.Resource, id, s, saltNaturalResource),
		SocialEconomic:   dimension(details.Social, id, s, saltSocialEconomic),
	}

	rec := models.DistrictRecord{
		ID:         id,
		Name:       raw.Name,
		Score:      s,
		Status:     status,
		Dimensions: dims,
	}
	if raw.Lat != nil {
		rec.Location.Lat = *raw.Lat
	}
	if raw.Lng != nil {
		rec.Location.Lng = *raw.Lng
	}

	if len(raw.Radar) > 0 {
		rec.Radar = make([]models.RadarEntry, 0, len(raw.Radar))
		for _, e := range raw.Radar {
			fullMark := e.FullMark
			if fullMark <= 0 {
				fullMark = radarMax
			}
			rec.Radar = append(rec.Radar, models.RadarEntry{Label: e.Subject, Value: score.Clamp(e.A), Max: fullMark})
		}
		return rec, nil
	}

	subjects := labels.RadarSubjects()
	perception := score.Clamp(synthesizeDimension(id, s, saltPublicPerception))
	values := [5]float64{dims.HazardExposure, dims.AdaptiveCapacity, dims.NaturalResource, dims.SocialEconomic, perception}
	rec.Radar = make([]models.RadarEntry, len(values))
	for i, v := range values {
		rec.Radar[i] = models.RadarEntry{Label: subjects[i], Value: v, Max: radarMax}
	}
	return rec, nil
}

func dimension(supplied *float64, id int, s float64, salt int) float64 {
	if supplied != nil {
		return score.Clamp(*supplied)
	}
	return score.Clamp(synthesizeDimension(id, s, salt))
}

func coerceID(v any) (int, error) {
	switch id := v.(type) {
	case nil:
		return 0, errors.New("missing id")
	case int:
		return id, nil
	case int64:
		return int(id), nil
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) || id != math.Trunc(id) {
			return 0, fmt.Errorf("id %v is not an integer", id)
		}
		return int(id), nil
	case json.Number:
		return strconv.Atoi(id.String())
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return 0, fmt.Errorf("id %q is not numeric", id)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}
