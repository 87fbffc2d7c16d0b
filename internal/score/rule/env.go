package rule

import (
	"footprint/internal/interaction"
	"footprint/internal/score"

	"github.com/google/cel-go/cel"
)

// NewStatsEnv declares the variables a rule can read. Activation fills them.
func NewStatsEnv() (*cel.Env, error) {
	return cel.NewEnv(
		// --- Counters ---
		cel.Variable("clicks", cel.IntType),
		cel.Variable("timeSpent", cel.IntType),
		cel.Variable("activeAreas", cel.IntType),
		cel.Variable("hoverTargets", cel.IntType),
		cel.Variable("engagement", cel.IntType),

		// --- Continuous signals ---
		cel.Variable("hoverTotal", cel.DoubleType),
		cel.Variable("mouseDistance", cel.DoubleType),
		cel.Variable("scrollDepth", cel.DoubleType),

		// --- Rankings ---
		cel.Variable("topAreas", cel.ListType(cel.StringType)),
		cel.Variable("preferences", cel.ListType(cel.StringType)),
	)
}

// Activation exposes stats to rules under the names declared by NewStatsEnv.
func Activation(stats interaction.Stats) map[string]any {
	top := score.MostInteractedElements(stats)
	topAreas := make([]string, len(top))
	for i, e := range top {
		topAreas[i] = e.Element
	}

	return map[string]any{
		"clicks":        int64(stats.Clicks),
		"timeSpent":     int64(stats.TimeSpent),
		"activeAreas":   int64(stats.ActiveAreas.Len()),
		"hoverTargets":  int64(stats.Hovers.Len()),
		"engagement":    int64(score.EngagementScore(stats)),
		"hoverTotal":    stats.HoverTotal(),
		"mouseDistance": stats.MouseDistance,
		"scrollDepth":   stats.ScrollDepth,
		"topAreas":      topAreas,
		"preferences":   score.AnalyzePreferences(stats),
	}
}
