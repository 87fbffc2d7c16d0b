package score

import (
	"cmp"
	"slices"

	"footprint/internal/interaction"
)

const (
	// TopElementsLimit bounds MostInteractedElements.
	TopElementsLimit = 5
	// PreferencesLimit bounds AnalyzePreferences.
	PreferencesLimit = 3

	clickInterestWeight = 10
	hoverInterestWeight = 0.01
)

// ElementCount is an element identifier with its click count.
type ElementCount struct {
	Element string `json:"element"`
	Count   int    `json:"count"`
}

// MostInteractedElements returns the most clicked elements, highest count first.
// Ties keep first-seen order. At most TopElementsLimit entries are returned.
func MostInteractedElements(stats interaction.Stats) []ElementCount {
	result := make([]ElementCount, 0, stats.ActiveAreas.Len())
	for element, count := range stats.ActiveAreas.All() {
		result = append(result, ElementCount{Element: element, Count: count})
	}
	slices.SortStableFunc(result, func(a, b ElementCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return result[:min(len(result), TopElementsLimit)]
}

// AnalyzePreferences ranks elements by combined interest, ten points per click
// plus one point per hundred milliseconds of hover, and returns the identifiers
// of the top PreferencesLimit. Ties keep first-seen order, clicked elements first.
func AnalyzePreferences(stats interaction.Stats) []string {
	var interest interaction.Tally[float64]
	for element, clicks := range stats.ActiveAreas.All() {
		interest.Add(element, float64(clicks)*clickInterestWeight)
	}
	for element, hovered := range stats.Hovers.All() {
		interest.Add(element, hovered*hoverInterestWeight)
	}

	entries := interest.Entries()
	slices.SortStableFunc(entries, func(a, b interaction.Entry[float64]) int {
		return cmp.Compare(b.Value, a.Value)
	})

	result := make([]string, 0, PreferencesLimit)
	for _, e := range entries[:min(len(entries), PreferencesLimit)] {
		result = append(result, e.Key)
	}
	return result
}
