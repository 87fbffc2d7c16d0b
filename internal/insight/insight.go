// Package insight turns interaction stats into short human readable texts
// driven by CEL rules.
package insight

import (
	_ "embed"
	"log/slog"
	"math/rand/v2"
	"strings"

	"footprint/internal/interaction"
	"footprint/internal/score/rule"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule groups understood by the Generator.
const (
	GroupInsight  = "insight"
	GroupActivity = "activity"
	GroupProfile  = "profile"
)

// Fallback is returned by Pick when no insight rule matches.
const Fallback = "Interact more to generate personalised insights."

// Generator evaluates insight rules against stats.
type Generator struct {
	rules []rule.Rule
}

// NewGenerator wraps already initialized rules. Rule order is significant.
func NewGenerator(rules []rule.Rule) *Generator {
	return &Generator{rules: rules}
}

// NewDefaultGenerator builds a generator from the embedded rule set.
func NewDefaultGenerator() (*Generator, error) {
	rules, err := rule.Load(defaultRules, rule.NewStatsEnv)
	if err != nil {
		return nil, err
	}
	return NewGenerator(rules), nil
}

// Load builds a generator from the rules in file, or from the embedded rule
// set when file is empty.
func Load(file string) (*Generator, error) {
	if file == "" {
		return NewDefaultGenerator()
	}
	rules, err := rule.LoadFromFile(file, rule.NewStatsEnv)
	if err != nil {
		return nil, err
	}
	return NewGenerator(rules), nil
}

// Evaluate returns the texts of the group's matching rules in declaration order.
// Within a band only the first match counts. Rules that fail to evaluate are
// logged and skipped.
func (g *Generator) Evaluate(group string, stats interaction.Stats) []string {
	activation := rule.Activation(stats)
	taken := make(map[string]bool)
	texts := []string{}

	for i := range g.rules {
		r := &g.rules[i]
		if r.Group != group || (r.Band != "" && taken[r.Band]) {
			continue
		}
		text, ok, err := r.Eval(activation)
		if err != nil {
			slog.Error("insight rule eval", "error", err, "group", group, "when", r.When)
			continue
		}
		if !ok {
			continue
		}
		if r.Band != "" {
			taken[r.Band] = true
		}
		texts = append(texts, text)
	}
	return texts
}

// Insights returns every matching insight text.
func (g *Generator) Insights(stats interaction.Stats) []string {
	return g.Evaluate(GroupInsight, stats)
}

// Pick chooses one matching insight uniformly with rng, or Fallback when none match.
// The choice only affects presentation; callers wanting stable output pass a seeded rng.
func (g *Generator) Pick(stats interaction.Stats, rng *rand.Rand) string {
	insights := g.Insights(stats)
	if len(insights) == 0 {
		return Fallback
	}
	return insights[rng.IntN(len(insights))]
}

// Activity describes the visitor's activity as a comma separated list of patterns.
func (g *Generator) Activity(stats interaction.Stats) string {
	return strings.Join(g.Evaluate(GroupActivity, stats), ", ")
}

// Profile returns the behaviour report lines.
func (g *Generator) Profile(stats interaction.Stats) []string {
	return g.Evaluate(GroupProfile, stats)
}
