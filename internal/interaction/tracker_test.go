package interaction

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newAttachedTracker(t *testing.T, opts ...Option) (*Tracker, *Feed, *Feed) {
	t.Helper()
	tracker := NewTracker(opts...)
	region, document := NewFeed(), NewFeed()
	require.NoError(t, tracker.Attach(region, document))
	t.Cleanup(tracker.Detach)
	return tracker, region, document
}

func TestTracker_ClickResolvesTarget(t *testing.T) {
	tracker, region, _ := newAttachedTracker(t)

	region.Dispatch(ClickInput{At: epoch, X: 10, Y: 20, Target: Element{ID: "hero"}})
	region.Dispatch(ClickInput{At: epoch, X: 11, Y: 21, Target: Element{Tracking: "card"}})
	region.Dispatch(ClickInput{At: epoch, X: 12, Y: 22})
	tracker.Sync()

	events := tracker.Events()
	require.Len(t, events, 3)
	assert.Equal(t, Click{At: epoch, Position: Position{X: 10, Y: 20}, Target: "hero"}, events[0])
	assert.Equal(t, "card", events[1].(Click).Target)
	assert.Equal(t, UnknownTarget, events[2].(Click).Target)

	s := tracker.Stats()
	assert.Equal(t, 3, s.Clicks)
	assert.Equal(t, 3, s.ActiveAreas.Len())
}

func TestTracker_HoverInterval(t *testing.T) {
	tracker, region, _ := newAttachedTracker(t)

	region.Dispatch(EnterInput{At: epoch, Target: Element{ID: "plain"}})
	region.Dispatch(LeaveInput{At: epoch.Add(time.Second)})
	tracker.Sync()
	assert.Empty(t, tracker.Events(), "untrackable elements do not open an interval")

	region.Dispatch(EnterInput{At: epoch, Target: Element{Tracking: "card", Trackable: true}})
	region.Dispatch(LeaveInput{At: epoch.Add(1200 * time.Millisecond)})
	region.Dispatch(LeaveInput{At: epoch.Add(5 * time.Second)})
	tracker.Sync()

	events := tracker.Events()
	require.Len(t, events, 1, "only the first leave closes the interval")
	assert.Equal(t, Hover{At: epoch.Add(1200 * time.Millisecond), Target: "card", Duration: 1200 * time.Millisecond}, events[0])

	hovered, _ := tracker.Stats().Hovers.Get("card")
	assert.Equal(t, 1200.0, hovered)
}

func TestTracker_NestedEnterReplacesOpenInterval(t *testing.T) {
	tracker, region, _ := newAttachedTracker(t)

	region.Dispatch(EnterInput{At: epoch, Target: Element{ID: "outer", Trackable: true}})
	region.Dispatch(EnterInput{At: epoch.Add(time.Second), Target: Element{ID: "inner", Trackable: true}})
	region.Dispatch(LeaveInput{At: epoch.Add(3 * time.Second)})
	tracker.Sync()

	events := tracker.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "inner", events[0].(Hover).Target)
	assert.Equal(t, 2*time.Second, events[0].(Hover).Duration)
}

func TestTracker_ScrollObservedOnDocument(t *testing.T) {
	tracker, region, document := newAttachedTracker(t)

	region.Dispatch(ScrollInput{At: epoch, ScrollTop: 500, ScrollHeight: 2000, ClientHeight: 1000})
	document.Dispatch(ScrollInput{At: epoch, ScrollTop: 250, ScrollHeight: 2000, ClientHeight: 1000})
	document.Dispatch(ScrollInput{At: epoch, ScrollTop: 0, ScrollHeight: 900, ClientHeight: 900})
	tracker.Sync()

	events := tracker.Events()
	require.Len(t, events, 2, "scroll on the region is not observed")
	assert.Equal(t, 25.0, events[0].(Scroll).Percent)
	assert.Equal(t, 0.0, events[1].(Scroll).Percent)
	assert.Equal(t, 25.0, tracker.Stats().ScrollDepth)
}

func TestTracker_MovementDistance(t *testing.T) {
	tracker, region, _ := newAttachedTracker(t)

	region.Dispatch(MoveInput{At: epoch, X: 0, Y: 0})
	region.Dispatch(MoveInput{At: epoch, X: 3, Y: 4})
	tracker.Sync()
	assert.Equal(t, 5.0, tracker.Stats().MouseDistance)

	region.Dispatch(MoveInput{At: epoch, X: 3, Y: 4})
	tracker.Sync()
	assert.Equal(t, 5.0, tracker.Stats().MouseDistance)
}

func TestTracker_MovementThrottling(t *testing.T) {
	metrics := NewMetrics(nil)
	tracker, region, _ := newAttachedTracker(t, WithMovementRate(10), WithMetrics(metrics))

	region.Dispatch(MoveInput{At: epoch, X: 0, Y: 0})
	region.Dispatch(MoveInput{At: epoch.Add(10 * time.Millisecond), X: 100, Y: 100})
	region.Dispatch(MoveInput{At: epoch.Add(200 * time.Millisecond), X: 3, Y: 4})
	tracker.Sync()

	assert.Len(t, tracker.Events(), 2, "the throttled movement is not logged")
	path := Position{}.Distance(Position{X: 100, Y: 100}) + Position{X: 100, Y: 100}.Distance(Position{X: 3, Y: 4})
	assert.InDelta(t, path, tracker.Stats().MouseDistance, 1e-9, "the throttled movement still counts toward distance")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsThrottled))
}

func TestTracker_MovementThrottlingKeepsFullPath(t *testing.T) {
	metrics := NewMetrics(nil)
	tracker, region, _ := newAttachedTracker(t, WithMovementRate(10), WithMetrics(metrics))

	const moves = 1000
	for i := range moves {
		x := float64(i%2) * 100
		region.Dispatch(MoveInput{At: epoch.Add(time.Duration(i) * time.Millisecond), X: x})
	}
	tracker.Sync()

	assert.InDelta(t, float64((moves-1)*100), tracker.Stats().MouseDistance, 1e-6)
	assert.Less(t, len(tracker.Events()), moves)
	assert.Equal(t, float64(moves-len(tracker.Events())), testutil.ToFloat64(metrics.EventsThrottled))
}

func TestTracker_EventLogIsCapped(t *testing.T) {
	metrics := NewMetrics(nil)
	tracker, region, _ := newAttachedTracker(t, WithMetrics(metrics))

	for i := 0; i < DefaultLogLength+1; i++ {
		region.Dispatch(ClickInput{At: epoch.Add(time.Duration(i) * time.Millisecond), X: float64(i)})
	}
	tracker.Sync()

	events := tracker.Events()
	require.Len(t, events, DefaultLogLength)
	assert.Equal(t, 1.0, events[0].(Click).Position.X, "the oldest event was evicted")
	assert.Equal(t, float64(DefaultLogLength), events[len(events)-1].(Click).Position.X)
	assert.Equal(t, DefaultLogLength+1, tracker.Stats().Clicks)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsEvicted))
	assert.Equal(t, float64(DefaultLogLength+1), testutil.ToFloat64(metrics.EventsTotal.WithLabelValues("click")))
}

func TestTracker_TimerTicksWithoutEvents(t *testing.T) {
	clock := &fakeClock{now: epoch}
	tracker, _, _ := newAttachedTracker(t, WithClock(clock.Now), WithTickInterval(5*time.Millisecond))

	clock.Advance(3 * time.Second)
	assert.Eventually(t, func() bool {
		return tracker.Stats().TimeSpent == 3
	}, time.Second, 5*time.Millisecond)
}

func TestTracker_ReattachReplacesListeners(t *testing.T) {
	tracker := NewTracker()
	t.Cleanup(tracker.Detach)
	region, document := NewFeed(), NewFeed()

	require.NoError(t, tracker.Attach(region, document))
	require.NoError(t, tracker.Attach(region, document))
	assert.Equal(t, 1, region.Listeners())
	assert.Equal(t, 1, document.Listeners())

	region.Dispatch(ClickInput{At: epoch, Target: Element{ID: "a"}})
	tracker.Sync()
	assert.Equal(t, 1, tracker.Stats().Clicks, "a click is counted once")

	other := NewFeed()
	require.NoError(t, tracker.Attach(other, nil))
	assert.Zero(t, region.Listeners())
	assert.Zero(t, document.Listeners())
	assert.Equal(t, 1, other.Listeners())
}

func TestTracker_NilRegionIsInert(t *testing.T) {
	tracker := NewTracker()
	t.Cleanup(tracker.Detach)

	require.NoError(t, tracker.Attach(nil, NewFeed()))
	tracker.Sync()
	assert.Empty(t, tracker.Events())
	assert.Zero(t, tracker.Stats().Clicks)
}

func TestTracker_DetachReleasesEverything(t *testing.T) {
	clock := &fakeClock{now: epoch}
	tracker := NewTracker(WithClock(clock.Now), WithTickInterval(time.Millisecond))
	region, document := NewFeed(), NewFeed()
	require.NoError(t, tracker.Attach(region, document))

	region.Dispatch(ClickInput{At: epoch, Target: Element{ID: "a"}})
	tracker.Sync()
	tracker.Detach()

	assert.Zero(t, region.Listeners())
	assert.Zero(t, document.Listeners())

	before := tracker.Stats()
	clock.Advance(time.Hour)
	region.Dispatch(ClickInput{At: epoch, Target: Element{ID: "a"}})
	time.Sleep(10 * time.Millisecond)
	tracker.Sync()

	assert.Equal(t, before, tracker.Stats(), "stats are frozen after detach")
	assert.ErrorIs(t, tracker.Attach(region, document), ErrTrackerClosed)

	tracker.Detach()
}

func TestTracker_ConcurrentProducers(t *testing.T) {
	tracker, region, document := newAttachedTracker(t, WithLogLength(10))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				region.Dispatch(ClickInput{At: epoch, Target: Element{ID: "a"}})
				document.Dispatch(ScrollInput{At: epoch, ScrollTop: float64(i), ScrollHeight: 200, ClientHeight: 100})
			}
		}()
	}
	wg.Wait()
	tracker.Sync()

	s := tracker.Stats()
	assert.Equal(t, 800, s.Clicks)
	count, _ := s.ActiveAreas.Get("a")
	assert.Equal(t, 800, count)
	assert.Equal(t, 99.0, s.ScrollDepth)
	assert.Len(t, tracker.Events(), 10)
}
