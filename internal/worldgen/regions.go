package worldgen

import (
	"fmt"

	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/world"
)

// regionColors cycles deterministically over placed regions.
var regionColors = []string{
	"#8c5a2b", "#3f7a3f", "#5a7a9c", "#9c8c3f", "#7a3f5a",
	"#3f9c8c", "#9c5a3f", "#5a3f9c",
}

// segmentRegions groups contiguous land cells that share a biome and an
// elevation band into named regions.
//
// Cells are scanned row-major and flooded with a 4-neighbor BFS, so the
// component labelling is deterministic. Components too small to matter are
// folded into wilderness without a record.
func segmentRegions(params Params, tiles []world.Tile, stream *dice.Stream) []world.Region {
	const minRegionSize = 6

	visited := make([]bool, len(tiles))
	var regions []world.Region

	for start := range tiles {
		if visited[start] || tiles[start].Biome == world.BiomeOcean {
			continue
		}

		component := floodComponent(params, tiles, visited, start)
		if len(component) < minRegionSize {
			continue
		}

		sumX, sumY := 0, 0
		for _, i := range component {
			sumX += i % params.Width
			sumY += i / params.Width
		}

		regionType := world.RegionWilderness
		if habitableBiome(tiles[start].Biome) {
			regionType = world.RegionKingdom
		}

		regions = append(regions, world.Region{
			ID:      deterministicID(stream),
			Name:    regionName(stream, tiles[start].Biome),
			Type:    regionType,
			CenterX: sumX / len(component),
			CenterY: sumY / len(component),
			Color:   regionColors[len(regions)%len(regionColors)],
		})
	}
	return regions
}

// floodComponent collects the contiguous component containing start whose
// cells share start's biome and elevation band.
func floodComponent(params Params, tiles []world.Tile, visited []bool, start int) []int {
	biome := tiles[start].Biome
	band := elevationBand(tiles[start].Elevation)

	queue := []int{start}
	visited[start] = true
	component := []int{}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		component = append(component, i)

		x, y := i%params.Width, i/params.Width
		for _, offset := range [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
			nx, ny := x+offset[0], y+offset[1]
			if nx < 0 || ny < 0 || nx >= params.Width || ny >= params.Height {
				continue
			}
			ni := ny*params.Width + nx
			if visited[ni] || tiles[ni].Biome != biome || elevationBand(tiles[ni].Elevation) != band {
				continue
			}
			visited[ni] = true
			queue = append(queue, ni)
		}
	}
	return component
}

// elevationBand buckets elevation for segmentation: lowland, upland, highland.
func elevationBand(elevation int) int {
	switch {
	case elevation < 45:
		return 0
	case elevation < 70:
		return 1
	default:
		return 2
	}
}

var (
	namePrefixes = []string{
		"Ash", "Bright", "Cold", "Dun", "Ever", "Fal", "Grim", "Haven",
		"Iron", "Karn", "Lorn", "Mir", "North", "Oak", "Raven", "Stone",
		"Thorn", "Vale", "Wulf", "Yar",
	}
	nameSuffixes = []string{
		"dale", "fell", "ford", "garde", "heath", "hold", "march", "mere",
		"moor", "reach", "shire", "stead", "vale", "wald", "wick", "wood",
	}
)

// regionName draws a deterministic name, flavored by biome.
func regionName(stream *dice.Stream, biome world.Biome) string {
	prefix := namePrefixes[stream.Intn(len(namePrefixes))]
	suffix := nameSuffixes[stream.Intn(len(nameSuffixes))]
	name := prefix + suffix
	switch biome {
	case world.BiomeDesert:
		return fmt.Sprintf("%s Wastes", name)
	case world.BiomeGlacier, world.BiomeTundra:
		return fmt.Sprintf("%s Expanse", name)
	case world.BiomeSwamp:
		return fmt.Sprintf("%s Fens", name)
	default:
		return name
	}
}
