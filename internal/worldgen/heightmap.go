package worldgen

import (
	"math"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/world"
)

const (
	noisePersistence = 0.5
	noiseLacunarity  = 2.0
	// noiseScale sets the base feature size relative to the grid.
	noiseScale = 24.0
)

// generateHeightmap builds the integer elevation grid in [0,100].
//
// Layered simplex noise is sampled per cell, then the raw values are sorted
// and renormalized so the (1 - landRatio) quantile maps to sea level and the
// remainder scales linearly up to 100.
func generateHeightmap(params Params, stream *dice.Stream) []int {
	raw := rawNoiseField(params, stream)
	elevation := make([]int, len(raw))
	quantileNormalize(raw, elevation, params.LandRatio)
	return elevation
}

// rawNoiseField samples layered simplex noise for every cell.
func rawNoiseField(params Params, stream *dice.Stream) []float64 {
	noise := opensimplex.New(int64(stream.Intn(1 << 30)))
	raw := make([]float64, params.Width*params.Height)

	for y := 0; y < params.Height; y++ {
		for x := 0; x < params.Width; x++ {
			amplitude := 1.0
			frequency := 1.0
			value := 0.0
			for octave := 0; octave < params.Octaves; octave++ {
				value += amplitude * noise.Eval2(
					float64(x)*frequency/noiseScale,
					float64(y)*frequency/noiseScale,
				)
				amplitude *= noisePersistence
				frequency *= noiseLacunarity
			}
			raw[y*params.Width+x] = value
		}
	}
	return raw
}

// quantileNormalize maps raw values into [0,100] so that roughly the
// requested land ratio sits at or above sea level; every cell tied with the
// threshold value counts as land.
func quantileNormalize(raw []float64, elevation []int, landRatio float64) {
	sorted := make([]float64, len(raw))
	copy(sorted, raw)
	sort.Float64s(sorted)

	threshold := sorted[int(float64(len(sorted)-1)*(1-landRatio))]
	low := sorted[0]
	high := sorted[len(sorted)-1]

	for i, value := range raw {
		elevation[i] = scaleAroundSeaLevel(value, low, threshold, high)
	}
}

func scaleAroundSeaLevel(value, low, threshold, high float64) int {
	if value < threshold {
		span := threshold - low
		if span == 0 {
			return world.SeaLevel - 1
		}
		elev := int((value - low) / span * float64(world.SeaLevel))
		return clampInt(elev, 0, world.SeaLevel-1)
	}
	span := high - threshold
	if span == 0 {
		return world.SeaLevel
	}
	elev := world.SeaLevel + int((value-threshold)/span*float64(100-world.SeaLevel))
	return clampInt(elev, world.SeaLevel, 100)
}

// applyRidges adds oriented line segments with radial falloff to simulate
// tectonic features. The raw grid is re-normalized afterwards so the land
// ratio still holds.
func applyRidges(elevation []int, params Params, stream *dice.Stream) {
	for ridge := 0; ridge < params.Ridges; ridge++ {
		x1 := stream.Intn(params.Width)
		y1 := stream.Intn(params.Height)
		x2 := stream.Intn(params.Width)
		y2 := stream.Intn(params.Height)
		radius := 2 + stream.Intn(4)
		lift := 10 + stream.Intn(20)

		for y := 0; y < params.Height; y++ {
			for x := 0; x < params.Width; x++ {
				dist := pointSegmentDistance(x, y, x1, y1, x2, y2)
				if dist > float64(radius) {
					continue
				}
				falloff := 1 - dist/float64(radius)
				elevation[y*params.Width+x] += int(float64(lift) * falloff)
			}
		}
	}
}

// normalizeHeights re-sorts the post-ridge grid back into [0,100] around the
// land-ratio quantile.
func normalizeHeights(elevation []int, landRatio float64) {
	raw := make([]float64, len(elevation))
	for i, v := range elevation {
		raw[i] = float64(v)
	}
	quantileNormalize(raw, elevation, landRatio)
}

func pointSegmentDistance(px, py, x1, y1, x2, y2 int) float64 {
	vx := float64(x2 - x1)
	vy := float64(y2 - y1)
	wx := float64(px - x1)
	wy := float64(py - y1)

	lengthSq := vx*vx + vy*vy
	t := 0.0
	if lengthSq > 0 {
		t = (wx*vx + wy*vy) / lengthSq
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
	}
	dx := wx - t*vx
	dy := wy - t*vy
	return math.Sqrt(dx*dx + dy*dy)
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
