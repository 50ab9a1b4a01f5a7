// Package worldgen generates seed-stable worlds: heightmap, climate, biomes,
// rivers, regions and structures.
//
// The pipeline is pure over its inputs. Every stage draws entropy from a
// namespaced fork of the seed stream, so stages are independently
// reproducible and the whole world is a function of (seed, params).
package worldgen

import (
	"strings"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/world"
)

// Params configures world generation.
type Params struct {
	Seed      string
	Name      string
	Width     int
	Height    int
	LandRatio float64
	Octaves   int
	// TempOffset shifts every temperature by a flat amount.
	TempOffset int
	// MoistureOffset shifts every moisture value by a flat amount.
	MoistureOffset int
	// Ridges adds oriented tectonic ridge lines to the heightmap.
	Ridges int
}

// defaults fills unset optional parameters.
func (p Params) defaults() Params {
	if p.LandRatio == 0 {
		p.LandRatio = 0.45
	}
	if p.Octaves == 0 {
		p.Octaves = 6
	}
	if p.Name == "" {
		p.Name = "World " + p.Seed
	}
	return p
}

// Validate rejects parameters the pipeline cannot honor.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Seed) == "" {
		return apperr.New(apperr.CodeValidation, "seed is required")
	}
	if p.Width < 1 || p.Height < 1 {
		return apperr.New(apperr.CodeValidation, "world dimensions must be at least 1x1, got %dx%d", p.Width, p.Height)
	}
	if p.LandRatio < 0 || p.LandRatio >= 1 {
		return apperr.New(apperr.CodeValidation, "land ratio %v outside (0,1)", p.LandRatio)
	}
	if p.Octaves < 1 {
		return apperr.New(apperr.CodeValidation, "octaves must be at least 1")
	}
	return nil
}

// Result is a fully generated world ready for persistence.
type Result struct {
	World      world.World
	Tiles      []world.Tile
	Rivers     []world.RiverSegment
	Regions    []world.Region
	Structures []world.Structure
}

// TileAt returns the tile at (x, y). The tile slice is row-major.
func (r *Result) TileAt(x, y int) *world.Tile {
	return &r.Tiles[y*r.World.Width+x]
}

// Generate runs the full pipeline for the provided parameters.
//
// No partial world escapes: parameter validation happens before any stage
// runs, and later stages only consume earlier in-memory results.
func Generate(params Params) (*Result, error) {
	params = params.defaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	stream := dice.NewStream(params.Seed)

	elevation := generateHeightmap(params, stream.Fork("height"))
	if params.Ridges > 0 {
		applyRidges(elevation, params, stream.Fork("ridges"))
		normalizeHeights(elevation, params.LandRatio)
	}

	climate := generateClimate(params, elevation, stream)
	tiles := assembleTiles(params, elevation, climate)

	rivers := traceRivers(params, elevation)
	markRiverMoisture(params, tiles, rivers)

	regions := segmentRegions(params, tiles, stream.Fork("regions"))
	structures := placeStructures(params, tiles, rivers, stream.Fork("structures"))

	worldID := deterministicID(stream.Fork("id"))
	result := &Result{
		World: world.World{
			ID:     worldID,
			Name:   params.Name,
			Seed:   params.Seed,
			Width:  params.Width,
			Height: params.Height,
		},
		Tiles:      tiles,
		Rivers:     rivers,
		Regions:    regions,
		Structures: structures,
	}
	for i := range result.Tiles {
		result.Tiles[i].WorldID = worldID
	}
	for i := range result.Rivers {
		result.Rivers[i].WorldID = worldID
	}
	for i := range result.Regions {
		result.Regions[i].WorldID = worldID
	}
	for i := range result.Structures {
		result.Structures[i].WorldID = worldID
	}
	return result, nil
}

// BiomeHistogram counts tiles per biome.
func (r *Result) BiomeHistogram() map[world.Biome]int {
	histogram := make(map[world.Biome]int)
	for _, tile := range r.Tiles {
		histogram[tile.Biome]++
	}
	return histogram
}
