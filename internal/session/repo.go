package session

import (
	"log/slog"
	"sync"
	"time"

	"footprint/internal/interaction"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NotFoundError is returned when no live session matches an id.
type NotFoundError struct {
	message string
}

// Error returns the error text.
func (e *NotFoundError) Error() string {
	return e.message
}

// NewNotFoundError creates a NotFoundError for id.
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{message: "session not found: " + id}
}

// Session is one visitor's tracking session: the tracker and the two feeds the
// host bridge dispatches raw inputs into.
type Session struct {
	ID       string
	Tracker  *interaction.Tracker
	Region   *interaction.Feed
	Document *interaction.Feed
}

// SessionsRepository keeps the live sessions by id. Sessions not touched for
// longer than the TTL are detached and forgotten by the background cleanup.
//
// Example:
//
//	repo := session.NewSessionsRepository(30*time.Minute, interaction.NewTracker, nil)
//	go repo.Serve()
//	defer repo.Stop()
//	s, _, _ := repo.Open("")
type SessionsRepository struct {
	ttl           time.Duration
	cleanInterval time.Duration
	newTracker    func(...interaction.Option) *interaction.Tracker

	sessions map[string]*Session
	touched  map[string]time.Time
	mu       sync.RWMutex

	active prometheus.Gauge
	done   chan struct{}
	once   sync.Once
}

// NewSessionsRepository creates an empty repository. newTracker builds the
// tracker of every new session; reg receives the active sessions gauge and may be nil.
func NewSessionsRepository(
	ttl time.Duration,
	newTracker func(...interaction.Option) *interaction.Tracker,
	reg prometheus.Registerer,
) *SessionsRepository {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &SessionsRepository{
		ttl:           ttl,
		cleanInterval: time.Minute,
		newTracker:    newTracker,
		sessions:      make(map[string]*Session),
		touched:       make(map[string]time.Time),
		active: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "footprint_sessions_active",
			Help: "Number of live tracking sessions.",
		}),
		done: make(chan struct{}),
	}
}

// Open returns the session for id, creating and attaching a new one when it does
// not exist. An empty id always creates a session with a fresh id. created
// reports whether a session was created.
func (r *SessionsRepository) Open(id string) (s *Session, created bool, err error) {
	if id != "" {
		if s, err := r.Get(id); err == nil {
			return s, false, nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Checked again under the write lock.
	if s, found := r.sessions[id]; found {
		r.touched[id] = time.Now()
		return s, false, nil
	}

	if id == "" {
		id = uuid.NewString()
	}
	s = &Session{
		ID:       id,
		Tracker:  r.newTracker(),
		Region:   interaction.NewFeed(),
		Document: interaction.NewFeed(),
	}
	if err := s.Tracker.Attach(s.Region, s.Document); err != nil {
		return nil, false, err
	}

	r.sessions[id] = s
	r.touched[id] = time.Now()
	r.active.Inc()
	slog.Debug("Session opened", "id", id)
	return s, true, nil
}

// Get returns the live session for id and marks it as used.
func (r *SessionsRepository) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[id]
	if !found {
		return nil, NewNotFoundError(id)
	}
	r.touched[id] = time.Now()
	return s, nil
}

// Close detaches and forgets the session. It reports whether the session existed.
func (r *SessionsRepository) Close(id string) bool {
	r.mu.Lock()
	s, found := r.sessions[id]
	if found {
		r.forget(id)
	}
	r.mu.Unlock()

	if found {
		s.Tracker.Detach()
		slog.Debug("Session closed", "id", id)
	}
	return found
}

// Len returns the number of live sessions.
func (r *SessionsRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict detaches the sessions idle for longer than the TTL at now and returns their ids.
func (r *SessionsRepository) Evict(now time.Time) []string {
	var outdated []string

	r.mu.RLock()
	for id, ts := range r.touched {
		if now.Sub(ts) > r.ttl {
			outdated = append(outdated, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range outdated {
		r.mu.Lock()
		s, found := r.sessions[id]
		// Skip sessions touched since the scan.
		if found && now.Sub(r.touched[id]) <= r.ttl {
			found = false
		}
		if found {
			r.forget(id)
		}
		r.mu.Unlock()

		if found {
			s.Tracker.Detach()
		}
	}
	if len(outdated) > 0 {
		slog.Debug("Sessions evicted", "count", len(outdated))
	}
	return outdated
}

// Serve runs the periodic eviction until Stop is called. It blocks:
//
//	go repo.Serve()
func (r *SessionsRepository) Serve() {
	ticker := time.NewTicker(r.cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			r.Evict(now)
		}
	}
}

// Stop ends Serve and detaches every live session. Safe to call more than once.
func (r *SessionsRepository) Stop() {
	r.once.Do(func() { close(r.done) })

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		r.forget(id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Tracker.Detach()
	}
}

func (r *SessionsRepository) forget(id string) {
	delete(r.sessions, id)
	delete(r.touched, id)
	r.active.Dec()
}
