package mapview

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-resilience-dashboard/internal/geo"
	"github.com/mr1hm/go-resilience-dashboard/internal/ingestion"
	"github.com/mr1hm/go-resilience-dashboard/internal/observability"
	"github.com/mr1hm/go-resilience-dashboard/internal/worker"
)

func newTestRegistry(t *testing.T, loader Loader, cfg RegistryConfig) *Registry {
	t.Helper()
	pool := worker.NewWorkerPool(2, 8, nil)
	pool.Start(context.Background())
	cfg.Session = testOptions()
	r := NewRegistry(loader, pool, NewStyleCache(16, cfg.Metrics), cfg)
	t.Cleanup(func() {
		r.Close()
		pool.Stop()
	})
	return r
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Status().State == want
	}, 2*time.Second, 5*time.Millisecond, "session never reached %s", want)
}

func TestRegistry_CreateAndGet(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	r := newTestRegistry(t, &countingLoader{}, RegistryConfig{Metrics: metrics})

	s, err := r.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	waitForState(t, s, StateReady)

	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActiveSessions))

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRegistry_SessionsLoadIndependently(t *testing.T) {
	loader := &countingLoader{}
	r := newTestRegistry(t, loader, RegistryConfig{})

	a, err := r.Create(context.Background())
	require.NoError(t, err)
	b, err := r.Create(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())

	waitForState(t, a, StateReady)
	waitForState(t, b, StateReady)
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.NotEqual(t, a.Status().Version, b.Status().Version)
}

func TestRegistry_Delete(t *testing.T) {
	r := newTestRegistry(t, &countingLoader{}, RegistryConfig{})

	s, err := r.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, r.Delete(s.ID()))
	assert.Equal(t, StateClosed, s.Status().State)
	assert.ErrorIs(t, r.Delete(s.ID()), ErrNoSession)
	assert.Zero(t, r.Len())
}

func TestRegistry_EvictIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newTestRegistry(t, &countingLoader{}, RegistryConfig{IdleTTL: 10 * time.Minute, Clock: clock})

	idle, err := r.Create(context.Background())
	require.NoError(t, err)
	watched, err := r.Create(context.Background())
	require.NoError(t, err)
	busy, err := r.Create(context.Background())
	require.NoError(t, err)
	waitForState(t, watched, StateReady)

	id, _, err := watched.Connect()
	require.NoError(t, err)
	defer watched.Disconnect(id)

	clock.Advance(6 * time.Minute)
	_, err = r.Get(busy.ID())
	require.NoError(t, err)
	assert.Zero(t, r.EvictIdle())

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, r.EvictIdle())

	_, err = r.Get(idle.ID())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, StateClosed, idle.Status().State)
	_, err = r.Get(watched.ID())
	assert.NoError(t, err, "sessions with stream clients are kept")
	_, err = r.Get(busy.ID())
	assert.NoError(t, err)
}

func TestRegistry_EvictionLoop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newTestRegistry(t, &countingLoader{}, RegistryConfig{IdleTTL: 10 * time.Minute, Clock: clock})

	_, err := r.Create(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	clock.Advance(11 * time.Minute)
	require.Eventually(t, func() bool { return r.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestRegistry_CreateAfterClose(t *testing.T) {
	r := newTestRegistry(t, &countingLoader{}, RegistryConfig{})
	s, err := r.Create(context.Background())
	require.NoError(t, err)

	r.Close()
	assert.Equal(t, StateClosed, s.Status().State)

	_, err = r.Create(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

const khonKaenBoundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"pro_th":"ขอนแก่น","amp_th":"อำเภอพล"},
  "geometry":{"type":"Polygon","coordinates":[[[102.5,15.7],[102.7,15.7],[102.7,15.9],[102.5,15.9],[102.5,15.7]]]}}
]}`

// A boundary fetch that fails with HTTP 500 leaves the session in the error
// state; Retry fetches both sources again.
func TestRegistry_BoundaryFailureThenRetry(t *testing.T) {
	var districtHits, boundaryHits atomic.Int32
	var boundaryDown atomic.Bool
	boundaryDown.Store(true)

	districts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		districtHits.Add(1)
		_, _ = w.Write([]byte(`[{"id":7,"name":"อำเภอพล"}]`))
	}))
	defer districts.Close()
	boundaries := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boundaryHits.Add(1)
		if boundaryDown.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(khonKaenBoundaries))
	}))
	defer boundaries.Close()

	mgr := ingestion.NewManager(
		ingestion.NewHTTPDistrictSource(districts.URL, 0),
		ingestion.NewHTTPBoundarySource(boundaries.URL, 0),
		nil,
		ingestion.Options{ProvinceName: "ขอนแก่น", Prefix: geo.DefaultPrefix, StrictMatching: true},
		nil, nil,
	)
	r := newTestRegistry(t, mgr, RegistryConfig{})

	s, err := r.Create(context.Background())
	require.NoError(t, err)
	waitForState(t, s, StateFailed)

	_, err = s.Render()
	assert.True(t, errors.Is(err, ingestion.ErrDataUnavailable))
	assert.Equal(t, "data_unavailable", s.Status().Kind)

	districtsBefore := districtHits.Load()
	boundaryDown.Store(false)
	require.NoError(t, s.Retry(context.Background()))
	waitForState(t, s, StateReady)

	assert.Greater(t, districtHits.Load(), districtsBefore)
	assert.Equal(t, int32(2), boundaryHits.Load())

	fc, err := s.Render()
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, 7, fc.Features[0].Properties["matchedId"])
}
