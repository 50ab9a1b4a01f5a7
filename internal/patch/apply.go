package patch

import (
	"sort"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/world"
	"github.com/arvenwood/loomfall/internal/worldgen"
)

// Snapshot is the in-memory world view a patch validates and applies
// against. Apply never touches storage; the caller persists the returned
// diff inside one transaction.
type Snapshot struct {
	World      world.World
	Tiles      map[world.Pt]world.Tile
	Structures []world.Structure
}

// Diff is the committed outcome of a patch: the records to upsert.
type Diff struct {
	CommandsExecuted int
	ChangedTiles     []world.Tile
	AddedStructures  []world.Structure
	MovedStructures  []world.Structure
	AddedRoads       []world.Road
	AddedAnnotations []world.Annotation
}

// Apply runs the commands in order against a copy of the snapshot.
//
// Application is atomic: every command is validated against the evolving
// copy, and the first failure aborts with no diff. ids for new records come
// from idGen so callers control determinism.
func Apply(snapshot Snapshot, commands []Command, idGen func() string) (Diff, error) {
	if len(commands) == 0 {
		return Diff{}, apperr.New(apperr.CodeValidation, "patch has no commands")
	}

	// Work on copies so a mid-patch failure leaves the caller's snapshot
	// untouched.
	tiles := make(map[world.Pt]world.Tile, len(snapshot.Tiles))
	for pt, tile := range snapshot.Tiles {
		tiles[pt] = tile
	}
	structures := make([]world.Structure, len(snapshot.Structures))
	copy(structures, snapshot.Structures)

	diff := Diff{}
	changed := map[world.Pt]bool{}

	inBounds := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < snapshot.World.Width && y < snapshot.World.Height
	}
	requireBounds := func(line, x, y int) error {
		if !inBounds(x, y) {
			return apperr.New(apperr.CodeValidation,
				"line %d: (%d,%d) is outside the %dx%d world",
				line, x, y, snapshot.World.Width, snapshot.World.Height)
		}
		return nil
	}
	touchTile := func(tile world.Tile) {
		pt := world.Pt{X: tile.X, Y: tile.Y}
		tiles[pt] = tile
		changed[pt] = true
	}

	for _, command := range commands {
		switch command.Kind {
		case KindAddStructure:
			add := command.AddStructure
			if err := requireBounds(command.Line, add.X, add.Y); err != nil {
				return Diff{}, err
			}
			structure := world.Structure{
				ID:         idGen(),
				WorldID:    snapshot.World.ID,
				Type:       add.Type,
				X:          add.X,
				Y:          add.Y,
				Name:       add.Name,
				Population: add.Population,
			}
			if err := structure.Validate(); err != nil {
				return Diff{}, err
			}
			structures = append(structures, structure)
			diff.AddedStructures = append(diff.AddedStructures, structure)

		case KindSetBiome:
			set := command.SetBiome
			if err := requireBounds(command.Line, set.X, set.Y); err != nil {
				return Diff{}, err
			}
			tile := tiles[world.Pt{X: set.X, Y: set.Y}]
			tile.Biome = set.Biome
			touchTile(tile)

		case KindEditTile:
			edit := command.EditTile
			if err := requireBounds(command.Line, edit.X, edit.Y); err != nil {
				return Diff{}, err
			}
			tile := tiles[world.Pt{X: edit.X, Y: edit.Y}]
			if edit.HasElevation {
				tile.Elevation = edit.Elevation
			}
			if edit.HasMoisture {
				tile.Moisture = edit.Moisture
			}
			if edit.HasTemperature {
				tile.Temperature = edit.Temperature
			}
			if edit.HasElevation {
				tile.Biome = AssignedBiome(tile)
			}
			if err := tile.Validate(); err != nil {
				return Diff{}, apperr.Wrap(apperr.CodeValidation, err, "line %d: tile edit invalid", command.Line)
			}
			touchTile(tile)

		case KindAddRoad:
			road := command.AddRoad
			for _, point := range road.Path {
				if err := requireBounds(command.Line, point.X, point.Y); err != nil {
					return Diff{}, err
				}
			}
			diff.AddedRoads = append(diff.AddedRoads, world.Road{
				ID:      idGen(),
				WorldID: snapshot.World.ID,
				Path:    road.Path,
			})

		case KindMoveStructure:
			move := command.MoveStructure
			if err := requireBounds(command.Line, move.X, move.Y); err != nil {
				return Diff{}, err
			}
			found := false
			for i := range structures {
				if structures[i].ID != move.ID {
					continue
				}
				structures[i].X = move.X
				structures[i].Y = move.Y
				diff.MovedStructures = append(diff.MovedStructures, structures[i])
				found = true
				break
			}
			if !found {
				return Diff{}, apperr.New(apperr.CodeNotFound,
					"line %d: structure %q does not exist", command.Line, move.ID)
			}

		case KindAddAnnotation:
			annotation := command.AddAnnotation
			if err := requireBounds(command.Line, annotation.X, annotation.Y); err != nil {
				return Diff{}, err
			}
			diff.AddedAnnotations = append(diff.AddedAnnotations, world.Annotation{
				ID:      idGen(),
				WorldID: snapshot.World.ID,
				X:       annotation.X,
				Y:       annotation.Y,
				Label:   annotation.Label,
				Note:    annotation.Note,
			})

		default:
			return Diff{}, apperr.New(apperr.CodeValidation,
				"line %d: unknown command %q", command.Line, command.Kind)
		}
		diff.CommandsExecuted++
	}

	for pt := range changed {
		diff.ChangedTiles = append(diff.ChangedTiles, tiles[pt])
	}
	sortTiles(diff.ChangedTiles)
	return diff, nil
}

// AssignedBiome recomputes a tile's biome after an elevation edit from the
// tile's own climate, via the same closed matrix the generator uses.
func AssignedBiome(tile world.Tile) world.Biome {
	return worldgen.AssignBiome(tile.Elevation, tile.Temperature, tile.Moisture)
}

func sortTiles(tiles []world.Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})
}
