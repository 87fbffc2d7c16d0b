package score

import (
	"math"

	"footprint/internal/interaction"
)

// Score maps a named component to its contribution.
type Score map[string]float64

// Component is one capped, weighted term of the engagement score.
type Component struct {
	// Name keys the component in a Breakdown.
	Name string
	// Weight multiplies the measured signal.
	Weight float64
	// Cap bounds the weighted signal from above.
	Cap float64
	// Measure extracts the raw signal from the stats.
	Measure func(interaction.Stats) float64
}

// Eval returns the component's capped contribution, never below zero.
func (c Component) Eval(stats interaction.Stats) float64 {
	return math.Max(0, math.Min(c.Measure(stats)*c.Weight, c.Cap))
}

const (
	ComponentClicks   = "clicks"
	ComponentHovers   = "hovers"
	ComponentMovement = "movement"
	ComponentTime     = "time"

	// MaxEngagement is the upper bound of EngagementScore.
	MaxEngagement = 100
)

// EngagementComponents are the terms of EngagementScore. The caps sum to 100.
var EngagementComponents = []Component{
	{Name: ComponentClicks, Weight: 5, Cap: 40, Measure: func(s interaction.Stats) float64 { return float64(s.Clicks) }},
	{Name: ComponentHovers, Weight: 0.01, Cap: 25, Measure: interaction.Stats.HoverTotal},
	{Name: ComponentMovement, Weight: 0.001, Cap: 15, Measure: func(s interaction.Stats) float64 { return s.MouseDistance }},
	{Name: ComponentTime, Weight: 0.5, Cap: 20, Measure: func(s interaction.Stats) float64 { return float64(s.TimeSpent) }},
}

// Breakdown returns each engagement component's contribution.
func Breakdown(stats interaction.Stats) Score {
	result := make(Score, len(EngagementComponents))
	for _, c := range EngagementComponents {
		result[c.Name] = c.Eval(stats)
	}
	return result
}

// EngagementScore combines clicks, hover time, pointer distance and dwell time
// into a figure in [0, 100]. Empty stats score 0.
func EngagementScore(stats interaction.Stats) int {
	var total float64
	for _, c := range EngagementComponents {
		total += c.Eval(stats)
	}
	return min(int(math.Round(total)), MaxEngagement)
}
