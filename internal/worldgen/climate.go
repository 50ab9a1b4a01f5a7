package worldgen

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/world"
)

const (
	// lapseRate is degrees lost per 10 elevation points above sea level.
	lapseRate = 2
	// equatorTemp and poleTemp anchor the latitude gradient.
	equatorTemp = 35
	poleTemp    = -18
)

type climateField struct {
	temperature []int
	moisture    []int
}

// generateClimate derives per-cell temperature and moisture.
//
// Temperature combines the latitude gradient (equator hot, poles cold), an
// elevation lapse above sea level, and low-amplitude noise. Moisture combines
// ocean proximity (BFS distance from every ocean cell, inverse-linear to the
// maximum), a tropical latitude bonus, and noise.
func generateClimate(params Params, elevation []int, stream *dice.Stream) climateField {
	tempNoise := opensimplex.New(int64(stream.Fork("temp").Intn(1 << 30)))
	moistNoise := opensimplex.New(int64(stream.Fork("moisture").Intn(1 << 30)))

	oceanDistance, maxDistance := oceanDistanceBFS(params, elevation)

	field := climateField{
		temperature: make([]int, len(elevation)),
		moisture:    make([]int, len(elevation)),
	}

	for y := 0; y < params.Height; y++ {
		lat := latitude(y, params.Height)
		for x := 0; x < params.Width; x++ {
			i := y*params.Width + x

			temp := equatorTemp + int(float64(poleTemp-equatorTemp)*lat)
			if elevation[i] > world.SeaLevel {
				temp -= (elevation[i] - world.SeaLevel) / 10 * lapseRate
			}
			temp += int(tempNoise.Eval2(float64(x)/12, float64(y)/12) * 3)
			temp += params.TempOffset
			field.temperature[i] = clampInt(temp, -20, 40)

			moist := oceanProximityMoisture(oceanDistance[i], maxDistance)
			moist += tropicalBonus(lat)
			moist += int(moistNoise.Eval2(float64(x)/10, float64(y)/10) * 10)
			moist += params.MoistureOffset
			field.moisture[i] = clampInt(moist, 0, 100)
		}
	}
	return field
}

// latitude maps a row to [0,1]: 0 at the equator (grid middle), 1 at a pole.
func latitude(y, height int) float64 {
	if height <= 1 {
		return 0
	}
	middle := float64(height-1) / 2
	dist := float64(y) - middle
	if dist < 0 {
		dist = -dist
	}
	return dist / middle
}

// oceanDistanceBFS computes the tile distance from every cell to the nearest
// ocean cell with a multi-source breadth-first search.
func oceanDistanceBFS(params Params, elevation []int) ([]int, int) {
	const unvisited = -1

	distance := make([]int, len(elevation))
	queue := make([]int, 0, len(elevation))
	for i := range distance {
		if elevation[i] < world.SeaLevel {
			distance[i] = 0
			queue = append(queue, i)
		} else {
			distance[i] = unvisited
		}
	}

	maxDistance := 0
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		x, y := i%params.Width, i/params.Width
		for _, offset := range [4][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
			nx, ny := x+offset[0], y+offset[1]
			if nx < 0 || ny < 0 || nx >= params.Width || ny >= params.Height {
				continue
			}
			ni := ny*params.Width + nx
			if distance[ni] != unvisited {
				continue
			}
			distance[ni] = distance[i] + 1
			if distance[ni] > maxDistance {
				maxDistance = distance[ni]
			}
			queue = append(queue, ni)
		}
	}

	// A map with no ocean leaves every cell unvisited; treat it as uniformly
	// far from water.
	for i := range distance {
		if distance[i] == unvisited {
			distance[i] = maxDistance + 1
		}
	}
	return distance, maxDistance
}

func oceanProximityMoisture(distance, maxDistance int) int {
	if maxDistance == 0 {
		return 40
	}
	return 75 - 60*distance/maxDistance
}

func tropicalBonus(lat float64) int {
	bonus := 20 - int(50*lat)
	if bonus < 0 {
		return 0
	}
	return bonus
}

// assembleTiles zips the elevation and climate fields into tile records.
func assembleTiles(params Params, elevation []int, climate climateField) []world.Tile {
	tiles := make([]world.Tile, len(elevation))
	for y := 0; y < params.Height; y++ {
		for x := 0; x < params.Width; x++ {
			i := y*params.Width + x
			tiles[i] = world.Tile{
				X:           x,
				Y:           y,
				Elevation:   elevation[i],
				Moisture:    climate.moisture[i],
				Temperature: climate.temperature[i],
				Biome:       AssignBiome(elevation[i], climate.temperature[i], climate.moisture[i]),
			}
		}
	}
	return tiles
}
