package session

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
)

// Registry holds the sessions of the HTTP server.  Sessions idle for longer
// than the idle timeout are evicted and closed.
type Registry struct {
	store   *gocache.Cache
	mu      sync.RWMutex // guards deps
	deps    Deps
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewRegistry creates a registry.  cleanupInterval controls how often expired
// sessions are swept.
func NewRegistry(deps Deps, idleTimeout, cleanupInterval time.Duration) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Registry{
		store:   gocache.New(idleTimeout, cleanupInterval),
		deps:    deps,
		logger:  logger.Named("sessions"),
		metrics: deps.Metrics,
	}
	r.store.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
		r.logger.Info("session ended", logging.String("session_id", id))
		prometheus.SetActiveSessions(r.metrics, r.store.ItemCount())
	})
	return r
}

// Create starts a new session.
func (r *Registry) Create() *Session {
	r.mu.RLock()
	deps := r.deps
	r.mu.RUnlock()

	s := New(deps)
	r.store.SetDefault(s.ID, s)
	prometheus.SetActiveSessions(r.metrics, r.store.ItemCount())
	r.logger.Info("session started", logging.String("session_id", s.ID))
	return s
}

// Get returns a live session and extends its idle deadline.  A session
// ended between the lookup and the extension is reported as not found and
// stays out of the store.
func (r *Registry) Get(id string) (*Session, bool) {
	v, ok := r.store.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	if err := r.store.Replace(id, s, gocache.DefaultExpiration); err != nil {
		return nil, false
	}
	return s, true
}

// Delete ends a session.  It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	if _, ok := r.store.Get(id); !ok {
		return false
	}
	r.store.Delete(id)
	return true
}

// Count returns the number of sessions, including expired ones not yet swept.
func (r *Registry) Count() int {
	return r.store.ItemCount()
}

// Close ends every session.
func (r *Registry) Close() {
	for id := range r.store.Items() {
		r.store.Delete(id)
	}
}

// SetNotificationTTL changes the notification lifetime of live sessions and
// of sessions created afterwards.
func (r *Registry) SetNotificationTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.deps.NotificationTTL = ttl
	r.mu.Unlock()

	for _, item := range r.store.Items() {
		if s, ok := item.Object.(*Session); ok {
			s.Presenter.Notifier.SetTTL(ttl)
		}
	}
}
