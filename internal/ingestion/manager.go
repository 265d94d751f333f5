package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/mr1hm/go-resilience-dashboard/internal/geo"
	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/observability"
)

type Options struct {
	ProvinceField  string
	ProvinceName   string
	DistrictField  string
	Prefix         string
	StrictMatching bool // fail the load when two records normalize to the same name
}

// Dataset is the result of one successful load: records, the province's
// merged features, and what the reconciliation found.
type Dataset struct {
	Version   uint64
	Records   []models.DistrictRecord
	Features  []geo.MergedFeature
	Bounds    orb.Bound
	HasBounds bool
	Report    geo.Report
	LoadedAt  time.Time
}

// Record looks up a district by id.
func (d *Dataset) Record(id int) (models.DistrictRecord, bool) {
	for _, r := range d.Records {
		if r.ID == id {
			return r, true
		}
	}
	return models.DistrictRecord{}, false
}

type Manager struct {
	districts  DistrictSource
	boundaries BoundarySource
	labels     *locale.Labels
	opts       Options
	metrics    *observability.Metrics
	logger     *slog.Logger
	version    atomic.Uint64
}

func NewManager(districts DistrictSource, boundaries BoundarySource, labels *locale.Labels, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Manager {
	if labels == nil {
		labels = locale.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProvinceField == "" {
		opts.ProvinceField = geo.DefaultProvinceField
	}
	if opts.DistrictField == "" {
		opts.DistrictField = geo.DefaultDistrictField
	}
	return &Manager{
		districts:  districts,
		boundaries: boundaries,
		labels:     labels,
		opts:       opts,
		metrics:    metrics,
		logger:     logger,
	}
}

// Load runs both loaders concurrently, filters the boundaries to the
// configured province and joins them with the records. Each call fetches
// both sources again.
func (m *Manager) Load(ctx context.Context) (*Dataset, error) {
	var (
		records []models.DistrictRecord
		fc      *geojson.FeatureCollection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		r, err := LoadDistricts(gctx, m.districts, m.labels)
		m.observe(SourceDistricts, start, err)
		records = r
		return err
	})
	g.Go(func() error {
		start := time.Now()
		c, err := m.boundaries.FetchBoundaries(gctx)
		if err != nil {
			var le *LoadError
			if !errors.As(err, &le) {
				err = unavailable(SourceBoundaries, err)
			}
		}
		m.observe(SourceBoundaries, start, err)
		fc = c
		return err
	})
	if err := g.Wait(); err != nil {
		m.logger.Error("error loading data", "error", err)
		return nil, err
	}

	if err := geo.CheckUnique(records, m.opts.Prefix); err != nil {
		if m.metrics != nil {
			m.metrics.DuplicateMatches.Inc()
		}
		if m.opts.StrictMatching {
			m.logger.Error("ambiguous district names", "error", err)
			return nil, malformed(SourceDistricts, ErrMalformedRecords, err)
		}
		m.logger.Warn("ambiguous district names, first record wins", "error", err)
	}

	features := geo.ByProvince(fc, m.opts.ProvinceField, m.opts.ProvinceName)
	merged := geo.Merge(features, records, geo.MergeOptions{
		DistrictField: m.opts.DistrictField,
		Prefix:        m.opts.Prefix,
	})
	report := geo.BuildReport(merged, records)
	bounds, ok := geo.Bounds(merged)

	if m.metrics != nil {
		m.metrics.MatchedFeatures.Set(float64(report.Matched))
		m.metrics.UnmatchedFeatures.Set(float64(len(report.Unmatched)))
	}
	if len(features) == 0 {
		m.logger.Warn("no boundaries for province", "province", m.opts.ProvinceName, "field", m.opts.ProvinceField)
	}
	if len(report.Unmatched) > 0 {
		m.logger.Warn("boundaries without district records", "count", len(report.Unmatched), "names", report.Unmatched)
	}

	ds := &Dataset{
		Version:   m.version.Add(1),
		Records:   records,
		Features:  merged,
		Bounds:    bounds,
		HasBounds: ok,
		Report:    report,
		LoadedAt:  time.Now(),
	}
	m.logger.Info("data loaded",
		"version", ds.Version,
		"records", len(records),
		"features", report.Features,
		"matched", report.Matched,
	)
	return ds, nil
}

func (m *Manager) observe(source string, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			outcome = le.KindName()
		} else {
			outcome = kindName(err)
		}
	}
	m.metrics.Loads.WithLabelValues(source, outcome).Inc()
	m.metrics.LoadDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
