package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/paulmach/orb/geojson"
)

// BoundarySource yields the raw administrative boundary collection for a
// broad region.
type BoundarySource interface {
	FetchBoundaries(ctx context.Context) (*geojson.FeatureCollection, error)
}

// HTTPBoundarySource reads a GeoJSON FeatureCollection from a URL.
type HTTPBoundarySource struct {
	url    string
	client *http.Client
}

func NewHTTPBoundarySource(url string, timeout time.Duration) *HTTPBoundarySource {
	return &HTTPBoundarySource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPBoundarySource) FetchBoundaries(ctx context.Context) (*geojson.FeatureCollection, error) {
	body, err := fetch(ctx, s.client, s.url)
	if err != nil {
		return nil, unavailable(SourceBoundaries, err)
	}
	return DecodeBoundaries(body)
}

type collectionShape struct {
	Type     string          `json:"type"`
	Features json.RawMessage `json:"features"`
}

// DecodeBoundaries validates the top-level shape of a boundary payload and
// parses it.
func DecodeBoundaries(body []byte) (*geojson.FeatureCollection, error) {
	var shape collectionShape
	if err := sonic.Unmarshal(body, &shape); err != nil {
		return nil, malformed(SourceBoundaries, ErrMalformedGeometry, fmt.Errorf("error decoding payload: %w", err))
	}
	if shape.Type != "FeatureCollection" {
		return nil, malformed(SourceBoundaries, ErrMalformedGeometry, fmt.Errorf("unexpected type %q", shape.Type))
	}
	features := bytes.TrimSpace(shape.Features)
	if len(features) == 0 || features[0] != '[' {
		return nil, malformed(SourceBoundaries, ErrMalformedGeometry, errors.New("features is not an array"))
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, malformed(SourceBoundaries, ErrMalformedGeometry, err)
	}
	return fc, nil
}
