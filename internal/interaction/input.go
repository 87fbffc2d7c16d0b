package interaction

import (
	"fmt"
	"sync"
	"time"
)

// UnknownTarget identifies elements that carry neither an id nor a tracking tag.
const UnknownTarget = "unknown"

// Element describes the host element an input occurred on.
type Element struct {
	// ID is the element's explicit id attribute.
	ID string `json:"id,omitempty"`
	// Tracking is the element's declared tracking tag.
	Tracking string `json:"tracking,omitempty"`
	// Trackable marks elements opted into hover observation.
	Trackable bool `json:"trackable,omitempty"`
}

// Identifier resolves the element to a stable string: the explicit id,
// else the tracking tag, else UnknownTarget.
func (e Element) Identifier() string {
	switch {
	case e.ID != "":
		return e.ID
	case e.Tracking != "":
		return e.Tracking
	default:
		return UnknownTarget
	}
}

// Input is a raw occurrence delivered by the host environment.
type Input interface {
	input()
}

// ClickInput is a pointer click on Target at client coordinates (X, Y).
type ClickInput struct {
	At     time.Time
	X, Y   float64
	Target Element
}

// MoveInput is a pointer movement to client coordinates (X, Y).
type MoveInput struct {
	At   time.Time
	X, Y float64
}

// EnterInput is the pointer entering Target.
type EnterInput struct {
	At     time.Time
	Target Element
}

// LeaveInput is the pointer leaving Target.
type LeaveInput struct {
	At     time.Time
	Target Element
}

// ScrollInput is the document scroll state.
type ScrollInput struct {
	At           time.Time
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
}

func (ClickInput) input()  {}
func (MoveInput) input()   {}
func (EnterInput) input()  {}
func (LeaveInput) input()  {}
func (ScrollInput) input() {}

// ScrollPercent converts a scroll state to a percentage of the scrollable range.
// A document that cannot scroll yields 0.
func ScrollPercent(scrollTop, scrollHeight, clientHeight float64) float64 {
	scrollable := scrollHeight - clientHeight
	if scrollable <= 0 {
		return 0
	}
	return scrollTop / scrollable * 100
}

// WireInput is the JSON shape of a raw input posted by a page-side collector.
type WireInput struct {
	// Type is one of click, mousemove, mouseenter, mouseleave, scroll.
	Type string `json:"type"`
	// Timestamp is the occurrence time in Unix milliseconds; zero means "now".
	Timestamp    int64    `json:"timestamp,omitempty"`
	X            float64  `json:"x,omitempty"`
	Y            float64  `json:"y,omitempty"`
	Target       *Element `json:"target,omitempty"`
	ScrollTop    float64  `json:"scrollTop,omitempty"`
	ScrollHeight float64  `json:"scrollHeight,omitempty"`
	ClientHeight float64  `json:"clientHeight,omitempty"`
}

// Input converts w into its typed form. Unknown types are an error.
func (w WireInput) Input() (Input, error) {
	var at time.Time
	if w.Timestamp > 0 {
		at = time.UnixMilli(w.Timestamp)
	}
	var target Element
	if w.Target != nil {
		target = *w.Target
	}

	switch w.Type {
	case "click":
		return ClickInput{At: at, X: w.X, Y: w.Y, Target: target}, nil
	case "mousemove":
		return MoveInput{At: at, X: w.X, Y: w.Y}, nil
	case "mouseenter":
		return EnterInput{At: at, Target: target}, nil
	case "mouseleave":
		return LeaveInput{At: at, Target: target}, nil
	case "scroll":
		return ScrollInput{At: at, ScrollTop: w.ScrollTop, ScrollHeight: w.ScrollHeight, ClientHeight: w.ClientHeight}, nil
	}
	return nil, fmt.Errorf("unsupported input type %q", w.Type)
}

// Source is an observable stream of raw inputs, such as a page region or the
// whole document. Listen registers fn and returns a function that removes it.
type Source interface {
	Listen(fn func(Input)) (cancel func())
}

// Feed is a Source that fans dispatched inputs out to its listeners.
// It is safe for concurrent use.
type Feed struct {
	mu        sync.RWMutex
	next      int
	listeners map[int]func(Input)
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{listeners: make(map[int]func(Input))}
}

// Listen implements Source. The returned cancel may be called more than once.
func (f *Feed) Listen(fn func(Input)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Dispatch delivers in to every listener registered at the time of the call.
func (f *Feed) Dispatch(in Input) {
	f.mu.RLock()
	fns := make([]func(Input), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()

	for _, fn := range fns {
		fn(in)
	}
}

// Listeners returns the number of registered listeners.
func (f *Feed) Listeners() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.listeners)
}
