package mapview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-resilience-dashboard/internal/ingestion"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/observability"
	"github.com/mr1hm/go-resilience-dashboard/internal/stream"
	"github.com/mr1hm/go-resilience-dashboard/internal/worker"
)

func TestSession_LoadsToReady(t *testing.T) {
	s := readySession(t)

	st := s.Status()
	assert.Equal(t, StateReady, st.State)
	assert.Equal(t, uint64(1), st.Version)
	assert.Empty(t, st.Error)
	assert.Equal(t, models.LatLng{Lat: 16.4419, Lng: 102.8360}, st.View.Center)
	assert.Equal(t, 9.0, st.View.Zoom)
}

func TestSession_NotReadyWhileLoading(t *testing.T) {
	q := &jobQueue{}
	s := newSession("test", testOptions(), sessionDeps{
		loader:   &countingLoader{},
		schedule: q.schedule,
	})
	require.NoError(t, s.startLoad(context.Background()))

	assert.Equal(t, StateLoading, s.Status().State)
	_, err := s.Render()
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = s.Detail(1)
	assert.ErrorIs(t, err, ErrNotReady)

	p, err := s.SetQuery("พล")
	require.NoError(t, err)
	assert.Empty(t, p.Items)
}

func TestSession_Render(t *testing.T) {
	s := readySession(t)

	fc, err := s.Render()
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	p := fc.Features[0].Properties
	assert.Equal(t, 0, p[PropIndex])
	assert.Equal(t, true, p["hasMatch"])
	assert.Equal(t, 1, p["matchedId"])
	assert.Equal(t, false, p[PropDimmed])
	assert.Equal(t, "อำเภอพล\nคะแนน: 85", p[PropTooltip])
	style, ok := p[PropStyle].(Style)
	require.True(t, ok)
	assert.Equal(t, 2, style.Weight)

	unmatched := fc.Features[2].Properties
	assert.Equal(t, false, unmatched["hasMatch"])
	assert.Equal(t, "3", unmatched[PropStyle].(Style).DashArray)

	markers, ok := fc.ExtraMembers["markers"].([]Marker)
	require.True(t, ok)
	assert.Len(t, markers, 2)

	view, ok := fc.ExtraMembers["view"].(RenderView)
	require.True(t, ok)
	require.NotNil(t, view.Bounds)
	assert.InDelta(t, 102.0, view.Bounds[0], 1e-9)
	assert.InDelta(t, 16.8, view.Bounds[3], 1e-9)
}

func TestSession_RenderDoesNotMutateDataset(t *testing.T) {
	s := readySession(t)
	_, err := s.Render()
	require.NoError(t, err)

	features, err := s.Features()
	require.NoError(t, err)
	_, has := features[0].Feature.Properties[PropStyle]
	assert.False(t, has)
}

func TestSession_SetQueryDimsOthers(t *testing.T) {
	s := readySession(t)

	p, err := s.SetQuery("พล")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Showing)
	assert.Equal(t, 2, p.Total)

	fc, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, false, fc.Features[0].Properties[PropDimmed])
	assert.Equal(t, true, fc.Features[1].Properties[PropDimmed])
	assert.Equal(t, true, fc.Features[2].Properties[PropDimmed])
	assert.Len(t, fc.ExtraMembers["markers"].([]Marker), 1)

	_, err = s.SetQuery("")
	require.NoError(t, err)
	fc, err = s.Render()
	require.NoError(t, err)
	assert.Equal(t, false, fc.Features[1].Properties[PropDimmed])
}

func TestSession_RenderUsesStyleCache(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	s := newSession("test", testOptions(), sessionDeps{
		loader:   loaderFunc(func(ctx context.Context) (*ingestion.Dataset, error) { return testDataset(7), nil }),
		schedule: inline,
		styles:   NewStyleCache(8, metrics),
		metrics:  metrics,
	})
	require.NoError(t, s.startLoad(context.Background()))

	for i := 0; i < 3; i++ {
		_, err := s.Render()
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StyleCache.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StyleCache.WithLabelValues("hit")))
}

func TestSession_FlyToWithoutMapIsIgnored(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	q := &jobQueue{}
	s := newSession("test", testOptions(), sessionDeps{
		loader:   &countingLoader{},
		schedule: q.schedule,
		metrics:  metrics,
	})
	require.NoError(t, s.startLoad(context.Background()))

	assert.NotPanics(t, func() {
		assert.False(t, s.FlyTo(1), "no map, still loading")
	})

	q.jobs[0](context.Background())
	assert.False(t, s.FlyTo(1), "data ready but no map mounted")
	assert.Equal(t, 9.0, s.Status().View.Zoom, "ignored call leaves the view alone")
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FlyToIgnored))
}

func TestSession_FlyToMountedBeforeReady(t *testing.T) {
	q := &jobQueue{}
	s := newSession("test", testOptions(), sessionDeps{loader: &countingLoader{}, schedule: q.schedule})
	require.NoError(t, s.startLoad(context.Background()))

	h := &recordingHandle{}
	s.Mount(h)
	assert.False(t, s.FlyTo(1))
	assert.Zero(t, h.count())
}

func TestSession_FlyTo(t *testing.T) {
	s := readySession(t)
	h := &recordingHandle{}
	s.Mount(h)

	require.True(t, s.FlyTo(1))
	require.Equal(t, 1, h.count())
	assert.Equal(t, flight{models.LatLng{Lat: 15.8, Lng: 102.6}, 11, 1500 * time.Millisecond}, h.flights[0])
	assert.Equal(t, 11.0, s.Status().View.Zoom)

	// No location: flies to the polygon center.
	require.True(t, s.FlyTo(2))
	assert.InDelta(t, 16.5, h.flights[1].target.Lat, 1e-9)

	assert.False(t, s.FlyTo(404))

	s.Unmount()
	assert.False(t, s.FlyTo(1))
	assert.Equal(t, 2, h.count())
}

func TestSession_ConnectMountsStreamHandle(t *testing.T) {
	s := readySession(t)

	id, events, err := s.Connect()
	require.NoError(t, err)

	require.True(t, s.FlyTo(1))
	select {
	case e := <-events:
		assert.Equal(t, stream.EventCamera, e.Type)
		cam := e.Data.(Camera)
		assert.Equal(t, 11.0, cam.Zoom)
		assert.Equal(t, 1.5, cam.Duration)
	case <-time.After(time.Second):
		t.Fatal("no camera event")
	}

	s.Disconnect(id)
	assert.False(t, s.FlyTo(1), "last client left, map unmounted")
}

func TestSession_Activate(t *testing.T) {
	s := readySession(t)
	id, events, err := s.Connect()
	require.NoError(t, err)
	defer s.Disconnect(id)

	path, err := s.Activate(0)
	require.NoError(t, err)
	assert.Equal(t, "/district/1", path)

	select {
	case e := <-events:
		assert.Equal(t, stream.EventNavigate, e.Type)
		assert.Equal(t, "/district/1", e.Data)
	case <-time.After(time.Second):
		t.Fatal("no navigate event")
	}

	path, err = s.Activate(2)
	require.NoError(t, err)
	assert.Empty(t, path, "unmatched feature does not navigate")
	assert.Empty(t, events)

	_, err = s.Activate(3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Activate(-1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_Detail(t *testing.T) {
	s := readySession(t)

	d, err := s.Detail(1)
	require.NoError(t, err)
	assert.Equal(t, "อำเภอพล", d.District.Name)
	assert.Equal(t, "excellent", string(d.Label))
	assert.Equal(t, "ดีเยี่ยม", d.LabelText)
	assert.Equal(t, "/district/1", d.Path)

	_, err = s.Detail(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_Summary(t *testing.T) {
	s := readySession(t)

	sum, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, "ขอนแก่น", sum.Name)
	assert.Equal(t, 70.0, sum.AvgScore)
	assert.Equal(t, 2, sum.DistrictCount)
}

func TestSession_PanelAndPan(t *testing.T) {
	s := readySession(t)

	v, err := s.TogglePanel()
	require.NoError(t, err)
	assert.True(t, v.PanelOpen)

	v, err = s.SetPanel(false)
	require.NoError(t, err)
	assert.False(t, v.PanelOpen)

	v, err = s.Pan(models.LatLng{Lat: 16, Lng: 102}, 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v.Zoom)
	assert.Equal(t, models.LatLng{Lat: 16, Lng: 102}, s.Status().View.Center)
}

func TestSession_FailureAndRetry(t *testing.T) {
	loader := &countingLoader{}
	loader.fail(&ingestion.LoadError{Source: ingestion.SourceBoundaries, Kind: ingestion.ErrDataUnavailable, Err: errors.New("500")})
	s := newSession("test", testOptions(), sessionDeps{loader: loader, schedule: inline})
	require.NoError(t, s.startLoad(context.Background()))

	st := s.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "data_unavailable", st.Kind)
	_, err := s.Render()
	assert.ErrorIs(t, err, ingestion.ErrDataUnavailable)

	loader.fail(nil)
	require.NoError(t, s.Retry(context.Background()))
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, StateReady, s.Status().State)
	assert.Equal(t, uint64(2), s.Status().Version)
}

func TestSession_StaleLoadIsDiscarded(t *testing.T) {
	q := &jobQueue{}
	loader := &countingLoader{}
	s := newSession("test", testOptions(), sessionDeps{loader: loader, schedule: q.schedule})

	require.NoError(t, s.startLoad(context.Background()))
	require.NoError(t, s.Retry(context.Background()))
	require.Len(t, q.jobs, 2)

	q.jobs[1](context.Background()) // loader call 1, current generation
	assert.Equal(t, uint64(1), s.Status().Version)

	q.jobs[0](context.Background()) // loader call 2, superseded
	assert.Equal(t, uint64(1), s.Status().Version, "older load must not overwrite newer data")
	assert.Equal(t, StateReady, s.Status().State)
}

func TestSession_LoadAfterCloseIsDiscarded(t *testing.T) {
	q := &jobQueue{}
	s := newSession("test", testOptions(), sessionDeps{loader: &countingLoader{}, schedule: q.schedule})
	require.NoError(t, s.startLoad(context.Background()))

	s.Close()
	q.jobs[0](context.Background())
	assert.Equal(t, StateClosed, s.Status().State)
}

func TestSession_ScheduleFailure(t *testing.T) {
	s := newSession("test", testOptions(), sessionDeps{
		loader: &countingLoader{},
		schedule: func(ctx context.Context, job worker.Job) error {
			return errors.New("queue full")
		},
	})

	err := s.startLoad(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.Status().State)
	assert.Equal(t, "data_unavailable", s.Status().Kind)
}

func TestSession_Closed(t *testing.T) {
	s := readySession(t)
	id, events, err := s.Connect()
	require.NoError(t, err)

	s.Close()
	s.Close()

	_, ok := <-events
	assert.False(t, ok, "stream is closed")
	s.Disconnect(id)

	_, _, err = s.Connect()
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.Render()
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.SetQuery("x")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.Retry(context.Background()), ErrSessionClosed)
	assert.False(t, s.FlyTo(1))
}
