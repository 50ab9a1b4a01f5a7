package worldgen

import (
	"sort"

	"github.com/arvenwood/loomfall/internal/world"
)

// riverFluxThreshold is the accumulated flux at or above which a cell carries
// a visible river.
const riverFluxThreshold = 12

// traceRivers derives river segments from the elevation grid.
//
// Every land cell drains to its steepest strictly-lower neighbor; cells are
// then visited from highest to lowest, accumulating flux downstream. A cell
// whose flux crosses the threshold emits a directed segment to its drain.
// Flow is strictly monotone in elevation, so the segment set is acyclic by
// construction, and tributaries merge where drains converge.
func traceRivers(params Params, elevation []int) []world.RiverSegment {
	drain := make([]int, len(elevation))
	for i := range drain {
		drain[i] = drainTarget(params, elevation, i)
	}

	// Highest first so upstream flux arrives before a cell is drained.
	order := make([]int, len(elevation))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if elevation[order[a]] != elevation[order[b]] {
			return elevation[order[a]] > elevation[order[b]]
		}
		return order[a] < order[b]
	})

	flux := make([]int, len(elevation))
	for i := range flux {
		flux[i] = 1
	}

	var segments []world.RiverSegment
	for _, i := range order {
		if elevation[i] < world.SeaLevel || drain[i] < 0 {
			continue
		}
		target := drain[i]
		flux[target] += flux[i]
		if flux[i] < riverFluxThreshold {
			continue
		}
		segments = append(segments, world.RiverSegment{
			FromX: i % params.Width,
			FromY: i / params.Width,
			ToX:   target % params.Width,
			ToY:   target / params.Width,
			Flux:  flux[i],
		})
	}
	return segments
}

// drainTarget picks the steepest strictly-lower 8-neighbor, or -1 for a pit.
// Neighbor order is fixed, so ties resolve deterministically.
func drainTarget(params Params, elevation []int, i int) int {
	x, y := i%params.Width, i/params.Width
	best := -1
	bestElevation := elevation[i]
	for _, offset := range [8][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	} {
		nx, ny := x+offset[0], y+offset[1]
		if nx < 0 || ny < 0 || nx >= params.Width || ny >= params.Height {
			continue
		}
		ni := ny*params.Width + nx
		if elevation[ni] < bestElevation {
			best = ni
			bestElevation = elevation[ni]
		}
	}
	return best
}

// markRiverMoisture raises moisture on river tiles and reassigns their
// biomes; rivers make their banks wetter.
func markRiverMoisture(params Params, tiles []world.Tile, rivers []world.RiverSegment) {
	for _, segment := range rivers {
		i := segment.FromY*params.Width + segment.FromX
		tile := &tiles[i]
		tile.Moisture = clampInt(tile.Moisture+10, 0, 100)
		tile.Biome = AssignBiome(tile.Elevation, tile.Temperature, tile.Moisture)
	}
}

// riverCellSet indexes river source cells for structure placement.
func riverCellSet(params Params, rivers []world.RiverSegment) map[int]int {
	cells := make(map[int]int, len(rivers))
	for _, segment := range rivers {
		i := segment.FromY*params.Width + segment.FromX
		if segment.Flux > cells[i] {
			cells[i] = segment.Flux
		}
	}
	return cells
}
