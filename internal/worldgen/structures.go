package worldgen

import (
	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/id"
	"github.com/arvenwood/loomfall/internal/world"
)

// minStructureSeparation is the Chebyshev distance kept between structures.
const minStructureSeparation = 4

// placeStructures performs weighted placement of settlements and sites.
//
// Cities want the coast and river confluences, towns want rivers, villages
// want habitable biomes; castles, temples, ruins and dungeons fill in on a
// habitability-weighted lottery. Every candidate honors the minimum
// separation. Counts scale with land area.
func placeStructures(params Params, tiles []world.Tile, rivers []world.RiverSegment, stream *dice.Stream) []world.Structure {
	riverCells := riverCellSet(params, rivers)

	land := 0
	for i := range tiles {
		if tiles[i].Biome != world.BiomeOcean {
			land++
		}
	}
	budget := land / 60
	if budget < 1 && land > 0 {
		budget = 1
	}

	var placed []world.Structure
	occupied := func(x, y int) bool {
		for _, s := range placed {
			if chebyshev(s.X, s.Y, x, y) < minStructureSeparation {
				return true
			}
		}
		return false
	}

	type candidate struct {
		index  int
		weight int
	}

	scoreFor := func(structureType world.StructureType, i int) int {
		tile := tiles[i]
		if tile.Biome == world.BiomeOcean {
			return 0
		}
		base := habitability(tile)
		switch structureType {
		case world.StructureCity:
			if !nearCoast(params, tiles, i) {
				return 0
			}
			if flux, ok := riverCells[i]; ok {
				base += flux
			}
			return base
		case world.StructureTown:
			if _, ok := riverCells[i]; !ok {
				return 0
			}
			return base
		case world.StructureVillage:
			if !habitableBiome(tile.Biome) {
				return 0
			}
			return base
		default:
			return base / 2
		}
	}

	plan := placementPlan(budget)
	for _, structureType := range plan {
		var candidates []candidate
		total := 0
		for i := range tiles {
			weight := scoreFor(structureType, i)
			if weight <= 0 {
				continue
			}
			x, y := i%params.Width, i/params.Width
			if occupied(x, y) {
				continue
			}
			candidates = append(candidates, candidate{index: i, weight: weight})
			total += weight
		}
		if total == 0 {
			continue
		}

		pick := stream.Intn(total)
		for _, c := range candidates {
			pick -= c.weight
			if pick >= 0 {
				continue
			}
			x, y := c.index%params.Width, c.index/params.Width
			placed = append(placed, world.Structure{
				ID:         deterministicID(stream),
				Type:       structureType,
				X:          x,
				Y:          y,
				Name:       structureName(stream, structureType),
				Population: populationFor(stream, structureType),
			})
			break
		}
	}
	return placed
}

// placementPlan expands a budget into an ordered type list, cities first.
func placementPlan(budget int) []world.StructureType {
	plan := make([]world.StructureType, 0, budget)
	order := []world.StructureType{
		world.StructureCity, world.StructureTown, world.StructureVillage,
		world.StructureCastle, world.StructureTemple, world.StructureRuins,
		world.StructureDungeon,
	}
	for len(plan) < budget {
		plan = append(plan, order[len(plan)%len(order)])
	}
	return plan
}

// habitability scores a tile for settlement: mild climate, moderate moisture,
// low elevation.
func habitability(tile world.Tile) int {
	score := 10
	if tile.Temperature >= 0 && tile.Temperature <= 25 {
		score += 10
	}
	if tile.Moisture >= 30 && tile.Moisture <= 80 {
		score += 10
	}
	if tile.Elevation < 60 {
		score += 5
	}
	if habitableBiome(tile.Biome) {
		score += 10
	}
	return score
}

func habitableBiome(biome world.Biome) bool {
	switch biome {
	case world.BiomeGrassland, world.BiomeForest, world.BiomeShrubland, world.BiomeSavanna:
		return true
	default:
		return false
	}
}

func nearCoast(params Params, tiles []world.Tile, i int) bool {
	x, y := i%params.Width, i/params.Width
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= params.Width || ny >= params.Height {
				continue
			}
			if tiles[ny*params.Width+nx].Biome == world.BiomeOcean {
				return true
			}
		}
	}
	return false
}

func populationFor(stream *dice.Stream, structureType world.StructureType) int {
	switch structureType {
	case world.StructureCity:
		return 5000 + stream.Intn(20000)
	case world.StructureTown:
		return 800 + stream.Intn(4000)
	case world.StructureVillage:
		return 50 + stream.Intn(700)
	default:
		return 0
	}
}

var structureNameRoots = []string{
	"Aldra", "Beren", "Caldre", "Dorn", "Elmsw", "Ferrow", "Galden",
	"Hollow", "Istra", "Keld", "Loren", "Marrow", "Nulth", "Oster",
	"Penvar", "Quill", "Rendal", "Silvass", "Torvald", "Umber",
}

var structureNameTails = map[world.StructureType][]string{
	world.StructureCity:    {"haven", "gate", "port", "spire"},
	world.StructureTown:    {"ton", "bury", "bridge", "crossing"},
	world.StructureVillage: {"thorpe", "ham", "field", "hollow"},
	world.StructureCastle:  {" Keep", " Bastion", " Citadel"},
	world.StructureRuins:   {" Ruins", " Remnant"},
	world.StructureDungeon: {" Depths", " Undercroft", " Barrow"},
	world.StructureTemple:  {" Sanctum", " Shrine", " Temple"},
}

func structureName(stream *dice.Stream, structureType world.StructureType) string {
	root := structureNameRoots[stream.Intn(len(structureNameRoots))]
	tails := structureNameTails[structureType]
	return root + tails[stream.Intn(len(tails))]
}

// deterministicID draws an id from the seed stream so generated entities are
// reproducible under replay.
func deterministicID(stream *dice.Stream) string {
	return id.FromBytes(stream.Bytes16())
}

func chebyshev(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
