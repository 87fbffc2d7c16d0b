package interaction

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"footprint/internal/utils"

	"golang.org/x/time/rate"
)

// ErrTrackerClosed is returned by Attach once the tracker has been detached.
var ErrTrackerClosed = errors.New("tracker is detached")

const (
	// DefaultLogLength is the number of events kept in the event log.
	DefaultLogLength = 100
	// DefaultTickInterval is the cadence of the time-spent timer.
	DefaultTickInterval = time.Second
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now as the tracker's time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithTickInterval sets the time-spent timer cadence.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.tickInterval = d
		}
	}
}

// WithLogLength sets the event log capacity.
func WithLogLength(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.logLength = n
		}
	}
}

// WithMovementRate limits logged movement events to perSecond, measured on event
// time. Zero disables throttling. Throttled movements are kept out of the event
// log but still fold into MouseDistance, so the distance follows the full path.
func WithMovementRate(perSecond float64) Option {
	return func(t *Tracker) {
		if perSecond > 0 {
			t.movement = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMetrics makes the tracker report into m.
func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

type message struct {
	event    Event
	unlogged bool // folded into the stats only
	ack      chan struct{}
}

// Tracker turns raw host inputs into Events, keeps the newest events in a capped
// log and feeds them to its Aggregator.
//
// Listener callbacks and the time-spent timer are producers; a single loop
// goroutine, started by the first Attach, consumes both and is the only writer
// of the log and the stats. Detach stops the listeners and the loop.
type Tracker struct {
	now          func() time.Time
	tickInterval time.Duration
	logLength    int
	movement     *rate.Limiter
	metrics      *Metrics

	aggregator *Aggregator
	log        *utils.RingBuffer[Event]

	mu       sync.Mutex // guards the attachment state below
	cancels  []func()
	running  bool
	closed   bool
	messages chan message
	done     chan struct{}
	stopped  chan struct{}

	hoverMu     sync.Mutex // guards the open hover interval
	hovering    bool
	hoverTarget string
	hoverStart  time.Time
}

// NewTracker creates a detached tracker. The session clock starts now.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:          time.Now,
		tickInterval: DefaultTickInterval,
		logLength:    DefaultLogLength,
		messages:     make(chan message),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.metrics == nil {
		t.metrics = NewMetrics(nil)
	}
	t.aggregator = NewAggregator(t.now())
	t.log = utils.NewRingBuffer[Event](t.logLength)
	return t
}

// Attach starts observing clicks, movement and enter/leave on region and scroll
// on document. Attaching again replaces the previous listeners. A nil region
// leaves the tracker inert; a nil document disables scroll tracking.
func (t *Tracker) Attach(region, document Source) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrackerClosed
	}
	if region == nil {
		slog.Debug("Tracker attach skipped, no region")
		return nil
	}

	t.release()
	t.cancels = append(t.cancels, region.Listen(t.handleRegion))
	if document != nil {
		t.cancels = append(t.cancels, document.Listen(t.handleDocument))
	}

	if !t.running {
		t.running = true
		go t.loop()
	}
	return nil
}

// Detach removes all listeners and stops the timer. It blocks until the update
// loop has exited; the stats are frozen afterwards. Safe to call repeatedly.
func (t *Tracker) Detach() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.release()
	running := t.running
	close(t.done)
	t.mu.Unlock()

	if running {
		<-t.stopped
	}
	t.aggregator.close()
}

// Sync waits until every event emitted before the call has been applied.
// It returns immediately when the tracker is not running.
func (t *Tracker) Sync() {
	t.mu.Lock()
	running := t.running && !t.closed
	t.mu.Unlock()
	if !running {
		return
	}

	ack := make(chan struct{})
	select {
	case t.messages <- message{ack: ack}:
	case <-t.done:
		return
	}
	select {
	case <-ack:
	case <-t.done:
	}
}

// Events returns the event log, oldest first.
func (t *Tracker) Events() []Event {
	return t.log.ToSlice()
}

// Stats returns a snapshot of the running stats.
func (t *Tracker) Stats() Stats {
	return t.aggregator.Snapshot()
}

// Started returns the instant the session clock started.
func (t *Tracker) Started() time.Time {
	return t.aggregator.Start()
}

func (t *Tracker) release() {
	for _, cancel := range t.cancels {
		cancel()
	}
	t.cancels = nil
}

func (t *Tracker) loop() {
	defer close(t.stopped)

	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.aggregator.Tick(t.now())
		case msg := <-t.messages:
			if msg.ack != nil {
				close(msg.ack)
				continue
			}
			t.record(msg)
		}
	}
}

func (t *Tracker) record(msg message) {
	if msg.unlogged {
		t.aggregator.Apply(msg.event)
		return
	}
	if t.log.Push(msg.event) {
		t.metrics.EventsEvicted.Inc()
	}
	if t.aggregator.Apply(msg.event) {
		t.metrics.EventsTotal.WithLabelValues(msg.event.Kind().String()).Inc()
	}
}

func (t *Tracker) emit(e Event) {
	t.send(message{event: e})
}

func (t *Tracker) send(msg message) {
	select {
	case t.messages <- msg:
	case <-t.done:
	}
}

func (t *Tracker) stamp(at time.Time) time.Time {
	if at.IsZero() {
		return t.now()
	}
	return at
}

func (t *Tracker) handleRegion(in Input) {
	switch v := in.(type) {
	case ClickInput:
		t.emit(Click{
			At:       t.stamp(v.At),
			Position: Position{X: v.X, Y: v.Y},
			Target:   v.Target.Identifier(),
		})
	case MoveInput:
		move := Movement{At: t.stamp(v.At), Position: Position{X: v.X, Y: v.Y}}
		if t.movement != nil && !t.movement.AllowN(move.At, 1) {
			t.metrics.EventsThrottled.Inc()
			t.send(message{event: move, unlogged: true})
			return
		}
		t.emit(move)
	case EnterInput:
		if !v.Target.Trackable {
			return
		}
		// Only one interval is open at a time; a nested enter replaces it.
		t.hoverMu.Lock()
		t.hovering = true
		t.hoverTarget = v.Target.Identifier()
		t.hoverStart = t.stamp(v.At)
		t.hoverMu.Unlock()
	case LeaveInput:
		at := t.stamp(v.At)
		t.hoverMu.Lock()
		if !t.hovering {
			t.hoverMu.Unlock()
			return
		}
		hover := Hover{At: at, Target: t.hoverTarget, Duration: at.Sub(t.hoverStart)}
		t.hovering = false
		t.hoverTarget = ""
		t.hoverMu.Unlock()
		t.emit(hover)
	}
}

func (t *Tracker) handleDocument(in Input) {
	if v, ok := in.(ScrollInput); ok {
		t.emit(Scroll{
			At:      t.stamp(v.At),
			Percent: ScrollPercent(v.ScrollTop, v.ScrollHeight, v.ClientHeight),
		})
	}
}
