package mapview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-resilience-dashboard/internal/observability"
	"github.com/mr1hm/go-resilience-dashboard/internal/worker"
)

const minEvictInterval = time.Second

type RegistryConfig struct {
	IdleTTL time.Duration // zero disables eviction
	Session Options
	Clock   clockwork.Clock
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Registry owns the live sessions. Loads run on the worker pool; sessions
// without stream clients that stay idle longer than IdleTTL are closed.
type Registry struct {
	loader Loader
	pool   *worker.WorkerPool
	styles *StyleCache
	cfg    RegistryConfig

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewRegistry(loader Loader, pool *worker.WorkerPool, styles *StyleCache, cfg RegistryConfig) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		loader:   loader,
		pool:     pool,
		styles:   styles,
		cfg:      cfg,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
}

// Create starts a session and queues its first load. A session whose load
// could not be queued is still returned, in the error state.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	s := newSession(uuid.NewString(), r.cfg.Session, sessionDeps{
		loader:   r.loader,
		schedule: r.pool.Submit,
		styles:   r.styles,
		metrics:  r.cfg.Metrics,
		logger:   r.cfg.Logger,
	})
	s.touch(r.cfg.Clock.Now())

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrSessionClosed
	}
	r.sessions[s.id] = s
	r.mu.Unlock()

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.ActiveSessions.Inc()
	}
	r.cfg.Logger.Info("session created", "session_id", s.id)

	if err := s.startLoad(ctx); err != nil {
		r.cfg.Logger.Error("error queueing load", "session_id", s.id, "error", err)
	}
	return s, nil
}

// Get returns the session and marks it active.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	s.touch(r.cfg.Clock.Now())
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	s.Close()
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.ActiveSessions.Dec()
	}
	r.cfg.Logger.Info("session closed", "session_id", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle closes sessions that have no stream clients and have not been
// used for longer than IdleTTL. It returns how many were closed.
func (r *Registry) EvictIdle() int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	now := r.cfg.Clock.Now()

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.clients() == 0 && now.Sub(s.idleSince()) > r.cfg.IdleTTL {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.ActiveSessions.Dec()
		}
	}
	if len(idle) > 0 {
		r.cfg.Logger.Info("evicted idle sessions", "count", len(idle))
	}
	return len(idle)
}

// Start runs idle eviction until ctx is done or Close is called.
func (r *Registry) Start(ctx context.Context) {
	if r.cfg.IdleTTL <= 0 {
		return
	}
	interval := r.cfg.IdleTTL / 2
	if interval < minEvictInterval {
		interval = minEvictInterval
	}
	ticker := r.cfg.Clock.NewTicker(interval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.Chan():
				r.EvictIdle()
			}
		}
	}()
}

// Close stops eviction and closes every session.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()

	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.ActiveSessions.Dec()
		}
	}
}
