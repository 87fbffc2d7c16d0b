package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"footprint/internal/cookie"
	"footprint/internal/insight"
	"footprint/internal/interaction"
	"footprint/internal/score"
	"footprint/internal/session"
)

const (
	// maxInputsBody bounds the size of a posted input batch.
	maxInputsBody = 1 << 20
	// defaultTimelineLimit is used when the timeline limit is missing or invalid.
	defaultTimelineLimit = 10
)

// ScoresView is the body of GET /api/v1/scores.
type ScoresView struct {
	Engagement  int                  `json:"engagement"`
	Breakdown   score.Score          `json:"breakdown"`
	TopElements []score.ElementCount `json:"topElements"`
	Preferences []string             `json:"preferences"`
	TimeSpent   string               `json:"timeSpent"`
	Insight     string               `json:"insight"`
	Insights    []string             `json:"insights"`
	Activity    string               `json:"activity"`
	Profile     []string             `json:"profile"`
}

// TimelineEntry is one line of GET /api/v1/timeline.
type TimelineEntry struct {
	interaction.Record
	Description string `json:"description"`
}

// ApiV1Router manages routes for API version 1.
// Receives raw inputs of the page collector and serves the derived views of the
// caller's session, which is identified by the session cookie.
type ApiV1Router struct {
	// sessions: live tracking sessions by id.
	sessions *session.SessionsRepository
	// insights: rule driven insight texts.
	insights *insight.Generator
	// metrics: handler exposing the prometheus registry, nil disables /metrics.
	metrics http.Handler
	// static: path to directory with static files (e.g., collector.js).
	// If empty, static file serving is disabled.
	static string
	// sessionCookie: name of cookie used for session identification.
	sessionCookie string

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// Mux returns a configured *http.ServeMux with registered handlers.
// Registers the following routes:
// - POST /api/v1/inputs: feeds a batch of raw inputs into the session
// - GET /api/v1/events: the session's event log, optionally filtered by kind
// - GET /api/v1/stats: the session's stats
// - GET /api/v1/scores: scores, rankings and insight texts
// - GET /api/v1/heatmap: click heatmap bins
// - GET /api/v1/timeline: recent events with descriptions
// - DELETE /api/v1/session: detaches and forgets the session
// - GET /api/v1/cookies: cookies sent by the browser
// - POST /api/v1/cookies/demo: sets the demo cookies
// - GET /metrics: prometheus metrics (if enabled)
// - GET /static/...: serves static files (if enabled)
func (ar *ApiV1Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/inputs", ar.inputsHandler)
	mux.HandleFunc("GET /api/v1/events", ar.withSession(ar.eventsHandler))
	mux.HandleFunc("GET /api/v1/stats", ar.withSession(ar.statsHandler))
	mux.HandleFunc("GET /api/v1/scores", ar.withSession(ar.scoresHandler))
	mux.HandleFunc("GET /api/v1/heatmap", ar.withSession(ar.heatmapHandler))
	mux.HandleFunc("GET /api/v1/timeline", ar.withSession(ar.timelineHandler))
	mux.HandleFunc("DELETE /api/v1/session", ar.closeHandler)
	mux.HandleFunc("GET /api/v1/cookies", ar.cookiesHandler)
	mux.HandleFunc("POST /api/v1/cookies/demo", ar.demoCookiesHandler)

	if ar.metrics != nil {
		mux.Handle("GET /metrics", ar.metrics)
	}

	if len(ar.static) != 0 {
		fs := http.FileServer(http.Dir(ar.static))
		mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	}

	return mux
}

// inputsHandler decodes a JSON array of raw inputs and dispatches them to the
// session's region and document feeds. The session is created when the request
// carries no live session cookie. Inputs of unknown type are skipped.
// Replies 204 once the whole batch is reflected in the session state.
func (ar *ApiV1Router) inputsHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxInputsBody))
	if err != nil {
		slog.Warn("Unable to read inputs request body", "error", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	var batch []interaction.WireInput
	err = json.Unmarshal(body, &batch)
	if err != nil {
		slog.Warn("Unable to unmarshal inputs request body", "error", err)
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	s, created, err := ar.sessions.Open(ar.sessionID(r))
	if err != nil {
		slog.Error("Unable to open session", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     ar.sessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	for _, wire := range batch {
		in, err := wire.Input()
		if err != nil {
			slog.Warn("Skipping input", "session", s.ID, "error", err)
			continue
		}
		if _, ok := in.(interaction.ScrollInput); ok {
			s.Document.Dispatch(in)
		} else {
			s.Region.Dispatch(in)
		}
	}
	s.Tracker.Sync()

	w.WriteHeader(http.StatusNoContent)
}

// eventsHandler returns the event log, oldest first. The optional kind query
// parameter keeps only events of that kind.
func (ar *ApiV1Router) eventsHandler(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var kind interaction.Kind
	filter := r.URL.Query().Has("kind")
	if filter {
		if err := kind.UnmarshalText([]byte(r.URL.Query().Get("kind"))); err != nil {
			slog.Warn("Invalid event kind", "error", err)
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
	}

	events := s.Tracker.Events()
	records := make([]interaction.Record, 0, len(events))
	for _, e := range events {
		if filter && e.Kind() != kind {
			continue
		}
		records = append(records, interaction.NewRecord(e))
	}
	writeJSON(w, records)
}

func (ar *ApiV1Router) statsHandler(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	writeJSON(w, s.Tracker.Stats())
}

func (ar *ApiV1Router) scoresHandler(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	stats := s.Tracker.Stats()

	ar.rngMu.Lock()
	picked := ar.insights.Pick(stats, ar.rng)
	ar.rngMu.Unlock()

	writeJSON(w, ScoresView{
		Engagement:  score.EngagementScore(stats),
		Breakdown:   score.Breakdown(stats),
		TopElements: score.MostInteractedElements(stats),
		Preferences: score.AnalyzePreferences(stats),
		TimeSpent:   score.FormatDuration(stats.TimeSpent),
		Insight:     picked,
		Insights:    ar.insights.Insights(stats),
		Activity:    ar.insights.Activity(stats),
		Profile:     ar.insights.Profile(stats),
	})
}

func (ar *ApiV1Router) heatmapHandler(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	bins := slices.Collect(score.HeatmapBins(s.Tracker.Events()))
	if bins == nil {
		bins = []score.Bin{}
	}
	writeJSON(w, bins)
}

// timelineHandler returns the most recent events first. The optional limit
// query parameter bounds the number of entries.
func (ar *ApiV1Router) timelineHandler(w http.ResponseWriter, r *http.Request, s *session.Session) {
	limit := defaultTimelineLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events := s.Tracker.Events()
	timeline := make([]TimelineEntry, 0, min(limit, len(events)))
	for i := len(events) - 1; i >= 0 && len(timeline) < limit; i-- {
		timeline = append(timeline, TimelineEntry{
			Record:      interaction.NewRecord(events[i]),
			Description: interaction.Describe(events[i]),
		})
	}
	writeJSON(w, timeline)
}

// closeHandler detaches and forgets the caller's session and expires its cookie.
func (ar *ApiV1Router) closeHandler(w http.ResponseWriter, r *http.Request) {
	id := ar.sessionID(r)
	if id == "" || !ar.sessions.Close(id) {
		slog.Warn("Session not found", "id", id)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: ar.sessionCookie, Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (ar *ApiV1Router) cookiesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, cookie.Parse(r.Header.Get("Cookie")))
}

func (ar *ApiV1Router) demoCookiesHandler(w http.ResponseWriter, _ *http.Request) {
	for _, c := range cookie.Demo(ar.now()) {
		http.SetCookie(w, c)
	}
	w.WriteHeader(http.StatusNoContent)
}

// withSession resolves the caller's session and replies 404 when it is absent.
func (ar *ApiV1Router) withSession(
	next func(http.ResponseWriter, *http.Request, *session.Session),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := ar.sessionID(r)
		s, err := ar.sessions.Get(id)
		if err != nil {
			var notFound *session.NotFoundError
			if errors.As(err, &notFound) {
				slog.Warn("Session not found", "id", id)
				w.WriteHeader(http.StatusNotFound)
				return
			}
			slog.Error("Unable to get session", "id", id, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		next(w, r, s)
	}
}

func (ar *ApiV1Router) sessionID(r *http.Request) string {
	c, err := r.Cookie(ar.sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Unable to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// NewApiV1Router creates a new API v1 router.
// Parameters:
// - static: path to static files (can be empty)
// - sessionCookie: cookie name for session identification
// - sessions: session storage
// - insights: insight generator
// - metrics: metrics handler (can be nil)
//
// Returns pointer to configured ApiV1Router.
func NewApiV1Router(
	static string,
	sessionCookie string,
	sessions *session.SessionsRepository,
	insights *insight.Generator,
	metrics http.Handler,
) *ApiV1Router {
	return &ApiV1Router{
		sessions:      sessions,
		insights:      insights,
		metrics:       metrics,
		static:        static,
		sessionCookie: sessionCookie,
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:           time.Now,
	}
}
