package interaction

import (
	"fmt"
	"math"
	"time"
)

// Kind tags an Event variant.
type Kind uint8

const (
	KindClick Kind = iota
	KindHover
	KindScroll
	KindMovement
)

var kindNames = [...]string{
	KindClick:    "click",
	KindHover:    "hover",
	KindScroll:   "scroll",
	KindMovement: "movement",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Position is a pair of screen coordinates in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Event is one observed interaction. The set of variants is closed:
// Click, Hover, Scroll and Movement.
type Event interface {
	Kind() Kind
	Time() time.Time
	event()
}

// Click is a pointer click at Position on Target.
type Click struct {
	At       time.Time
	Position Position
	Target   string
}

// Hover is a completed enter/leave interval over a trackable element.
type Hover struct {
	At       time.Time
	Target   string
	Duration time.Duration
}

// Scroll carries the document scroll position as a percentage.
type Scroll struct {
	At      time.Time
	Percent float64
}

// Movement is an untargeted pointer position.
type Movement struct {
	At       time.Time
	Position Position
}

func (Click) Kind() Kind    { return KindClick }
func (Hover) Kind() Kind    { return KindHover }
func (Scroll) Kind() Kind   { return KindScroll }
func (Movement) Kind() Kind { return KindMovement }

func (e Click) Time() time.Time    { return e.At }
func (e Hover) Time() time.Time    { return e.At }
func (e Scroll) Time() time.Time   { return e.At }
func (e Movement) Time() time.Time { return e.At }

func (Click) event()    {}
func (Hover) event()    {}
func (Scroll) event()   {}
func (Movement) event() {}

// Record is the flat wire shape of an Event as exposed to presentation code.
// Scroll percentage travels in Y; Duration is in milliseconds and only set for hovers.
type Record struct {
	Kind      Kind     `json:"kind"`
	Timestamp int64    `json:"timestamp"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Target    string   `json:"target,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

// NewRecord flattens e into a Record.
func NewRecord(e Event) Record {
	r := Record{Kind: e.Kind(), Timestamp: e.Time().UnixMilli()}
	switch v := e.(type) {
	case Click:
		r.X, r.Y = v.Position.X, v.Position.Y
		r.Target = v.Target
	case Hover:
		r.Target = v.Target
		ms := milliseconds(v.Duration)
		r.Duration = &ms
	case Scroll:
		r.Y = v.Percent
	case Movement:
		r.X, r.Y = v.Position.X, v.Position.Y
	}
	return r
}

// Describe returns a one-line human readable summary of e for timelines.
func Describe(e Event) string {
	switch v := e.(type) {
	case Click:
		return "Clicked " + orArea(v.Target)
	case Hover:
		return fmt.Sprintf("Watched %s for %ds", orArea(v.Target), int(math.Round(v.Duration.Seconds())))
	case Scroll:
		return fmt.Sprintf("Scrolled the page to %d%%", int(math.Round(v.Percent)))
	case Movement:
		return "Moved the cursor"
	}
	return "Unknown interaction"
}

func orArea(target string) string {
	if target == "" {
		return "area"
	}
	return target
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
