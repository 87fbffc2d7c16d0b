package score

import (
	"iter"
	"math"

	"footprint/internal/interaction"
)

// HeatmapCellSize is the edge length of a heatmap bin in pixels.
const HeatmapCellSize = 20

// Bin is a heatmap cell. X and Y are the cell's rendered position, the bin
// index times HeatmapCellSize. Intensity is the number of clicks inside it.
type Bin struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	Intensity int `json:"value"`
}

// HeatmapBins bins the click events of log into a HeatmapCellSize grid.
// Other event kinds are ignored. Bins are yielded in order of their first click.
// The sequence holds no state of its own: every iteration recomputes it from log.
func HeatmapBins(log []interaction.Event) iter.Seq[Bin] {
	return func(yield func(Bin) bool) {
		type cell struct{ x, y int }

		var order []cell
		counts := make(map[cell]int)
		for _, e := range log {
			click, ok := e.(interaction.Click)
			if !ok {
				continue
			}
			c := cell{
				x: int(math.Floor(click.Position.X / HeatmapCellSize)),
				y: int(math.Floor(click.Position.Y / HeatmapCellSize)),
			}
			if _, seen := counts[c]; !seen {
				order = append(order, c)
			}
			counts[c]++
		}

		for _, c := range order {
			if !yield(Bin{X: c.x * HeatmapCellSize, Y: c.y * HeatmapCellSize, Intensity: counts[c]}) {
				return
			}
		}
	}
}
