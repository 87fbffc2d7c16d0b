package interaction

// Stats is the running summary of one tracking session.
type Stats struct {
	// Clicks counts every click, targeted or not.
	Clicks int `json:"clicks"`
	// Hovers holds cumulative hover time per element in milliseconds.
	Hovers Tally[float64] `json:"hovers"`
	// ScrollDepth is the largest scroll percentage observed. Not clamped.
	ScrollDepth float64 `json:"scrollDepth"`
	// MouseDistance is the pointer path length in pixels.
	MouseDistance float64 `json:"mouseDistance"`
	// TimeSpent is whole seconds since the session started.
	TimeSpent int `json:"timeSpent"`
	// ActiveAreas counts clicks per element.
	ActiveAreas Tally[int] `json:"activeAreas"`
}

// Clone returns a copy of s that shares no state with it.
func (s Stats) Clone() Stats {
	c := s
	c.Hovers = s.Hovers.Clone()
	c.ActiveAreas = s.ActiveAreas.Clone()
	return c
}

// HoverTotal returns the summed hover time over all elements in milliseconds.
func (s Stats) HoverTotal() float64 {
	return s.Hovers.Sum()
}
