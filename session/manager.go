package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/coffee-shop-web/internal/metrics"
	"github.com/jrsteele09/coffee-shop-web/tokens"
	"github.com/rs/zerolog/log"
)

const (
	defaultCheckTimeout    = 10 * time.Second
	defaultIdleTimeout     = time.Hour
	defaultAnonIdleTimeout = 5 * time.Minute
)

type Option func(*Manager)

// WithMetrics counts session operations on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// WithCheckTimeout bounds the initial identity check of each session
func WithCheckTimeout(d time.Duration) Option {
	return func(mgr *Manager) {
		if d > 0 {
			mgr.checkTimeout = d
		}
	}
}

// WithIdleTimeout sets how long an untouched session is kept before Sweep drops it
func WithIdleTimeout(d time.Duration) Option {
	return func(mgr *Manager) {
		if d > 0 {
			mgr.idleTimeout = d
		}
	}
}

// WithAnonymousIdleTimeout sets how long a session without a user is kept before Sweep drops it
func WithAnonymousIdleTimeout(d time.Duration) Option {
	return func(mgr *Manager) {
		if d > 0 {
			mgr.anonIdleTimeout = d
		}
	}
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager owns one Session per browser. Sessions are created on first use and each runs its
// identity check once, in the background.
type Manager struct {
	api          API
	store        tokens.Store
	metrics      *metrics.Metrics
	checkTimeout    time.Duration
	idleTimeout     time.Duration
	anonIdleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*entry // browserID -> session
	checks   sync.WaitGroup
}

func NewManager(api API, store tokens.Store, opts ...Option) *Manager {
	m := &Manager{
		api:             api,
		store:           store,
		checkTimeout:    defaultCheckTimeout,
		idleTimeout:     defaultIdleTimeout,
		anonIdleTimeout: defaultAnonIdleTimeout,
		sessions:        make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open returns the session of browserID, creating it and starting its identity check on first use.
// The check outlives ctx's cancellation so a dropped request does not abort it.
func (m *Manager) Open(ctx context.Context, browserID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[browserID]; ok {
		e.lastSeen = time.Now()
		return e.session
	}

	s := newSession(browserID, m.api, m.store, m.metrics)
	m.sessions[browserID] = &entry{session: s, lastSeen: time.Now()}

	checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.checkTimeout)
	m.checks.Add(1)
	go func() {
		defer m.checks.Done()
		defer cancel()
		s.checkSession(checkCtx)
	}()
	return s
}

// OpenFresh registers the session of a browser id that was just issued. Nothing can be stored
// for it yet, so the session starts signed out without an identity check.
func (m *Manager) OpenFresh(browserID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[browserID]; ok {
		e.lastSeen = time.Now()
		return e.session
	}
	s := newSession(browserID, m.api, m.store, m.metrics)
	s.finishLoading()
	m.sessions[browserID] = &entry{session: s, lastSeen: time.Now()}
	return s
}

// Close drops the session of browserID. Its persisted tokens are left untouched.
func (m *Manager) Close(browserID string) {
	m.mu.Lock()
	delete(m.sessions, browserID)
	m.mu.Unlock()
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions not opened since now minus the idle timeout and returns how many went.
// Sessions without a user use the shorter anonymous timeout.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for id, e := range m.sessions {
		limit := m.idleTimeout
		if st := e.session.Snapshot(); !st.Loading && st.User == nil {
			limit = m.anonIdleTimeout
		}
		if now.Sub(e.lastSeen) > limit {
			delete(m.sessions, id)
			dropped++
		}
	}
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				log.Debug().Int("dropped", n).Msg("Swept idle sessions")
			}
		}
	}
}

// Shutdown waits for running identity checks, bounded by ctx, then drops every session.
func (m *Manager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.checks.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	m.mu.Lock()
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()
	return err
}
