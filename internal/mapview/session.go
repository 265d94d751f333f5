package mapview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-resilience-dashboard/internal/geo"
	"github.com/mr1hm/go-resilience-dashboard/internal/ingestion"
	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/observability"
	"github.com/mr1hm/go-resilience-dashboard/internal/score"
	"github.com/mr1hm/go-resilience-dashboard/internal/search"
	"github.com/mr1hm/go-resilience-dashboard/internal/stream"
	"github.com/mr1hm/go-resilience-dashboard/internal/summary"
	"github.com/mr1hm/go-resilience-dashboard/internal/worker"
)

// Properties added to each rendered feature.
const (
	PropIndex   = "index"
	PropStyle   = "style"
	PropTooltip = "tooltip"
	PropDimmed  = "dimmed"
)

// Loader produces a complete dataset, fetching both sources each call.
type Loader interface {
	Load(ctx context.Context) (*ingestion.Dataset, error)
}

// Scheduler queues a job for background execution.
type Scheduler func(ctx context.Context, job worker.Job) error

type Options struct {
	Province      string
	Center        models.LatLng
	Zoom          float64
	FlyToZoom     float64
	FlyToDuration time.Duration
	Labels        *locale.Labels
}

type ViewState struct {
	Center    models.LatLng `json:"center"`
	Zoom      float64       `json:"zoom"`
	PanelOpen bool          `json:"panelOpen"`
}

// Status is the externally visible state of a session.
type Status struct {
	ID      string    `json:"id"`
	State   State     `json:"state"`
	Error   string    `json:"error,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	Version uint64    `json:"version,omitempty"`
	Query   string    `json:"query"`
	View    ViewState `json:"view"`
	Clients int       `json:"clients"`
}

// RenderView is the "view" member of a rendered map.
type RenderView struct {
	ViewState
	Query  string      `json:"query"`
	Bounds *[4]float64 `json:"bounds,omitempty"` // [minLng, minLat, maxLng, maxLat]
}

type Detail struct {
	District  models.DistrictRecord `json:"district"`
	Color     score.Color           `json:"color"`
	Label     score.Label           `json:"label"`
	LabelText string                `json:"labelText"`
	Path      string                `json:"path"`
}

type sessionDeps struct {
	loader   Loader
	schedule Scheduler
	styles   *StyleCache
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Session is one client's view of the map. Its state moves from loading to
// ready or error; Retry starts over from loading. A load result is only
// applied if no newer load was started and the session is still open.
type Session struct {
	id     string
	opts   Options
	deps   sessionDeps
	events *stream.Broadcaster

	lastSeen atomic.Int64

	mu         sync.RWMutex
	state      State
	generation uint64
	data       *ingestion.Dataset
	loadErr    error
	query      string
	filtered   []models.DistrictRecord
	ids        map[int]struct{}
	view       ViewState
	handle     MapHandle
	navigator  Navigator
}

func newSession(id string, opts Options, deps sessionDeps) *Session {
	if opts.Labels == nil {
		opts.Labels = locale.Default()
	}
	if deps.logger == nil {
		deps.logger = slog.Default()
	}
	events := stream.NewBroadcaster()
	return &Session{
		id:        id,
		opts:      opts,
		deps:      deps,
		events:    events,
		state:     StateLoading,
		ids:       map[int]struct{}{},
		view:      ViewState{Center: opts.Center, Zoom: opts.Zoom},
		navigator: streamHandle{events: events},
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Retry drops the loaded data and loads both sources again.
func (s *Session) Retry(ctx context.Context) error {
	return s.startLoad(ctx)
}

func (s *Session) startLoad(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.data = nil
	s.loadErr = nil
	s.refilterLocked()
	s.mu.Unlock()
	s.publishState()

	err := s.deps.schedule(ctx, func(ctx context.Context) {
		ds, err := s.deps.loader.Load(ctx)
		s.finishLoad(gen, ds, err)
	})
	if err != nil {
		s.finishLoad(gen, nil, fmt.Errorf("error scheduling load: %w", err))
		return err
	}
	return nil
}

func (s *Session) finishLoad(gen uint64, ds *ingestion.Dataset, err error) bool {
	s.mu.Lock()
	if s.state == StateClosed || gen != s.generation {
		s.mu.Unlock()
		s.deps.logger.Debug("discarding stale load", "session_id", s.id, "generation", gen)
		return false
	}
	if err != nil {
		s.state = StateFailed
		s.loadErr = err
	} else {
		s.state = StateReady
		s.data = ds
		s.refilterLocked()
	}
	s.mu.Unlock()

	if err != nil {
		s.deps.logger.Error("session load failed", "session_id", s.id, "error", err)
	}
	s.publishState()
	return true
}

func (s *Session) publishState() {
	s.events.Broadcast(stream.Event{Type: stream.EventState, Data: s.Status()})
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		ID:      s.id,
		State:   s.state,
		Query:   s.query,
		View:    s.view,
		Clients: s.events.SubscriberCount(),
	}
	if s.data != nil {
		st.Version = s.data.Version
	}
	if s.loadErr != nil {
		st.Error = s.loadErr.Error()
		st.Kind = KindOf(s.loadErr)
	}
	return st
}

// KindOf classifies a load failure for clients.
func KindOf(err error) string {
	var le *ingestion.LoadError
	if errors.As(err, &le) {
		return le.KindName()
	}
	return "data_unavailable"
}

func (s *Session) readyLocked() error {
	switch s.state {
	case StateReady:
		return nil
	case StateLoading:
		return ErrNotReady
	case StateFailed:
		return s.loadErr
	default:
		return ErrSessionClosed
	}
}

func (s *Session) refilterLocked() {
	if s.data == nil {
		s.filtered = nil
		s.ids = map[int]struct{}{}
		return
	}
	s.filtered = search.Filter(s.data.Records, s.query)
	s.ids = search.IDs(s.filtered)
}

func (s *Session) stylesLocked() []Style {
	compute := func() []Style {
		styles := make([]Style, len(s.data.Features))
		for i, f := range s.data.Features {
			styles[i] = StyleFor(f, s.ids, s.query)
		}
		return styles
	}
	if s.deps.styles == nil {
		return compute()
	}
	return s.deps.styles.Styles(s.data.Version, s.query, compute)
}

// Render returns the province's polygons with style, tooltip and dimmed flag
// in their properties, plus "markers" and "view" foreign members.
func (s *Session) Render() (*geojson.FeatureCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}

	styles := s.stylesLocked()
	fc := geojson.NewFeatureCollection()
	for i, f := range s.data.Features {
		out := geojson.NewFeature(f.Feature.Geometry)
		out.ID = f.Feature.ID
		out.Properties = f.Feature.Properties.Clone()
		out.Properties[PropIndex] = i
		out.Properties[PropStyle] = styles[i]
		out.Properties[PropTooltip] = TooltipFor(f, s.opts.Labels)
		out.Properties[PropDimmed] = search.Dimmed(f.HasMatch, f.MatchedID, s.ids, s.query)
		fc.Append(out)
	}

	view := RenderView{ViewState: s.view, Query: s.query}
	if s.data.HasBounds {
		b := s.data.Bounds
		view.Bounds = &[4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	}
	fc.ExtraMembers = geojson.Properties{
		"markers": MarkersFor(s.filtered, s.data.Features),
		"view":    view,
	}
	return fc, nil
}

// Features returns the merged features of the loaded dataset.
func (s *Session) Features() ([]geo.MergedFeature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.readyLocked(); err != nil {
		return nil, err
	}
	return s.data.Features, nil
}

// SetQuery updates the search query and returns the new picklist. It works
// while loading too; the list is then empty.
func (s *Session) SetQuery(query string) (search.Picklist, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return search.Picklist{}, ErrSessionClosed
	}
	s.query = query
	s.refilterLocked()
	p := s.picklistLocked()
	s.mu.Unlock()

	s.events.Broadcast(stream.Event{Type: stream.EventView, Data: map[string]any{"query": query}})
	return p, nil
}

func (s *Session) Picklist() search.Picklist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.picklistLocked()
}

func (s *Session) picklistLocked() search.Picklist {
	var records []models.DistrictRecord
	if s.data != nil {
		records = s.data.Records
	}
	return search.NewPicklist(records, s.query)
}

// SetPanel opens or closes the search panel.
func (s *Session) SetPanel(open bool) (ViewState, error) {
	return s.updateView(func(v *ViewState) { v.PanelOpen = open }, true)
}

func (s *Session) TogglePanel() (ViewState, error) {
	return s.updateView(func(v *ViewState) { v.PanelOpen = !v.PanelOpen }, true)
}

// Pan records a camera position reported by the client.
func (s *Session) Pan(center models.LatLng, zoom float64) (ViewState, error) {
	return s.updateView(func(v *ViewState) {
		v.Center = center
		v.Zoom = zoom
	}, false)
}

func (s *Session) updateView(fn func(*ViewState), publish bool) (ViewState, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ViewState{}, ErrSessionClosed
	}
	fn(&s.view)
	v := s.view
	s.mu.Unlock()

	if publish {
		s.events.Broadcast(stream.Event{Type: stream.EventView, Data: v})
	}
	return v, nil
}

// FlyTo animates the mounted map to a district. Without a mounted map, before
// the data is ready, or for an unknown or unplaceable district it does nothing
// and returns false.
func (s *Session) FlyTo(id int) bool {
	s.mu.Lock()
	h := s.handle
	if h == nil || s.state != StateReady {
		s.mu.Unlock()
		if s.deps.metrics != nil {
			s.deps.metrics.FlyToIgnored.Inc()
		}
		return false
	}

	rec, ok := s.data.Record(id)
	if !ok {
		s.mu.Unlock()
		return false
	}
	target := rec.Location
	if !rec.Located() {
		target, ok = s.labelPointLocked(id)
		if !ok {
			s.mu.Unlock()
			return false
		}
	}
	s.view.Center = target
	s.view.Zoom = s.opts.FlyToZoom
	s.mu.Unlock()

	h.FlyTo(target, s.opts.FlyToZoom, s.opts.FlyToDuration)
	return true
}

func (s *Session) labelPointLocked(id int) (models.LatLng, bool) {
	for _, f := range s.data.Features {
		if f.HasMatch && f.MatchedID == id && f.Feature.Geometry != nil {
			return geo.LabelPoint(f), true
		}
	}
	return models.LatLng{}, false
}

// Activate handles a click on the feature at index. A matched feature sends
// the client to its district's detail view and returns that path; an
// unmatched one returns "".
func (s *Session) Activate(index int) (string, error) {
	s.mu.RLock()
	if err := s.readyLocked(); err != nil {
		s.mu.RUnlock()
		return "", err
	}
	if index < 0 || index >= len(s.data.Features) {
		s.mu.RUnlock()
		return "", ErrNotFound
	}
	f := s.data.Features[index]
	nav := s.navigator
	s.mu.RUnlock()

	if !f.HasMatch {
		return "", nil
	}
	path := DetailPath(f.MatchedID)
	if nav != nil {
		nav.Navigate(path)
	}
	return path, nil
}

// Detail looks up one district of the loaded data.
func (s *Session) Detail(id int) (Detail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.readyLocked(); err != nil {
		return Detail{}, err
	}
	rec, ok := s.data.Record(id)
	if !ok {
		return Detail{}, ErrNotFound
	}
	label := score.LabelFor(rec.Score)
	return Detail{
		District:  rec.Clone(),
		Color:     score.ColorFor(rec.Score),
		Label:     label,
		LabelText: s.opts.Labels.StatusText(label),
		Path:      DetailPath(rec.ID),
	}, nil
}

func (s *Session) Summary() (summary.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.readyLocked(); err != nil {
		return summary.Summary{}, err
	}
	return summary.Summarize(s.opts.Province, s.data.Records, s.opts.Labels), nil
}

// Mount attaches a live map. Camera commands issued while no map is mounted
// are dropped.
func (s *Session) Mount(h MapHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		s.handle = h
	}
}

func (s *Session) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = nil
}

// Connect subscribes an event stream client. The first client mounts the
// session's map.
func (s *Session) Connect() (uint64, <-chan stream.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return 0, nil, ErrSessionClosed
	}
	id, ch := s.events.Subscribe()
	if s.handle == nil {
		s.handle = streamHandle{events: s.events}
	}
	if s.deps.metrics != nil {
		s.deps.metrics.StreamClients.Inc()
	}
	return id, ch, nil
}

// Disconnect removes a stream client. When the last one leaves the map is
// unmounted.
func (s *Session) Disconnect(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if remaining := s.events.Unsubscribe(id); remaining == 0 {
		s.handle = nil
	}
	if s.deps.metrics != nil {
		s.deps.metrics.StreamClients.Dec()
	}
}

func (s *Session) clients() int {
	return s.events.SubscriberCount()
}

// Close ends the session. Pending loads are discarded and stream clients are
// disconnected.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.handle = nil
	s.data = nil
	s.mu.Unlock()

	s.events.Close()
}
