package kernel

import (
	"context"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/events"
	"github.com/arvenwood/loomfall/internal/id"
	"github.com/arvenwood/loomfall/internal/patch"
	"github.com/arvenwood/loomfall/internal/storage"
	"github.com/arvenwood/loomfall/internal/world"
	"github.com/arvenwood/loomfall/internal/worldgen"
)

// WorldGenerateInput is the request record for world.generate.
type WorldGenerateInput struct {
	Seed           string  `json:"seed" jsonschema:"seed string, sole source of procedural entropy"`
	Name           string  `json:"name,omitempty" jsonschema:"optional world name"`
	Width          int     `json:"width" jsonschema:"world width in tiles"`
	Height         int     `json:"height" jsonschema:"world height in tiles"`
	LandRatio      float64 `json:"landRatio,omitempty" jsonschema:"fraction of land cells, default 0.45"`
	Octaves        int     `json:"octaves,omitempty" jsonschema:"noise octaves, default 6"`
	TempOffset     int     `json:"tempOffset,omitempty" jsonschema:"flat temperature shift"`
	MoistureOffset int     `json:"moistureOffset,omitempty" jsonschema:"flat moisture shift"`
	Ridges         int     `json:"ridges,omitempty" jsonschema:"tectonic ridge count"`
}

// WorldGenerateResult is the response record for world.generate.
type WorldGenerateResult struct {
	WorldID        string         `json:"worldId"`
	Name           string         `json:"name"`
	Seed           string         `json:"seed"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	TileCount      int            `json:"tileCount"`
	RegionCount    int            `json:"regionCount"`
	StructureCount int            `json:"structureCount"`
	RiverSegments  int            `json:"riverSegments"`
	BiomeCounts    map[string]int `json:"biomeCounts"`
}

// WorldGenerate runs the generator and persists the result.
func (k *Kernel) WorldGenerate(ctx context.Context, input WorldGenerateInput) (WorldGenerateResult, error) {
	result, err := k.record(ctx, "world.generate", input, func() (any, error) {
		return k.worldGenerate(ctx, input)
	})
	if err != nil {
		return WorldGenerateResult{}, err
	}
	return result.(WorldGenerateResult), nil
}

func (k *Kernel) worldGenerate(ctx context.Context, input WorldGenerateInput) (WorldGenerateResult, error) {
	generated, err := worldgen.Generate(worldgen.Params{
		Seed:           input.Seed,
		Name:           input.Name,
		Width:          input.Width,
		Height:         input.Height,
		LandRatio:      input.LandRatio,
		Octaves:        input.Octaves,
		TempOffset:     input.TempOffset,
		MoistureOffset: input.MoistureOffset,
		Ridges:         input.Ridges,
	})
	if err != nil {
		return WorldGenerateResult{}, err
	}

	now := k.Clock.Now()
	generated.World.CreatedAt = now
	generated.World.UpdatedAt = now

	// One transaction wraps the whole commit step: a failure on any write
	// rolls every earlier write back, so no partial world survives.
	err = k.Store.WithTx(ctx, func(tx storage.Store) error {
		if err := tx.PutWorld(ctx, generated.World); err != nil {
			return apperr.Wrap(apperr.CodePersistence, err, "persist world")
		}
		if err := tx.PutTiles(ctx, generated.World.ID, generated.Tiles); err != nil {
			return apperr.Wrap(apperr.CodePersistence, err, "persist tiles")
		}
		if err := tx.PutRegions(ctx, generated.World.ID, generated.Regions); err != nil {
			return apperr.Wrap(apperr.CodePersistence, err, "persist regions")
		}
		if err := tx.PutRiverSegments(ctx, generated.World.ID, generated.Rivers); err != nil {
			return apperr.Wrap(apperr.CodePersistence, err, "persist rivers")
		}
		if err := tx.PutStructures(ctx, generated.World.ID, generated.Structures); err != nil {
			return apperr.Wrap(apperr.CodePersistence, err, "persist structures")
		}
		return nil
	})
	if err != nil {
		return WorldGenerateResult{}, persistFailure(err, "persist world")
	}

	result := WorldGenerateResult{
		WorldID:        generated.World.ID,
		Name:           generated.World.Name,
		Seed:           generated.World.Seed,
		Width:          generated.World.Width,
		Height:         generated.World.Height,
		TileCount:      len(generated.Tiles),
		RegionCount:    len(generated.Regions),
		StructureCount: len(generated.Structures),
		RiverSegments:  len(generated.Rivers),
		BiomeCounts:    biomeCounts(generated.Tiles),
	}
	k.Bus.Publish(events.TopicWorld, WorldGeneratedEvent{
		Type:    "world_generated",
		WorldID: result.WorldID,
		Seed:    result.Seed,
		Width:   result.Width,
		Height:  result.Height,
	})
	return result, nil
}

// WorldGeneratedEvent is published on the world topic after generation.
type WorldGeneratedEvent struct {
	Type    string `json:"type"`
	WorldID string `json:"worldId"`
	Seed    string `json:"seed"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// WorldGetStateInput is the request record for world.getState.
type WorldGetStateInput struct {
	WorldID string `json:"worldId" jsonschema:"world identifier"`
}

// WorldGetStateResult is the response record for world.getState.
type WorldGetStateResult struct {
	WorldID        string         `json:"worldId"`
	Name           string         `json:"name"`
	Seed           string         `json:"seed"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	BiomeCounts    map[string]int `json:"biomeCounts"`
	StructureCount int            `json:"structureCount"`
	RegionCount    int            `json:"regionCount"`
}

// WorldGetState reports a world's biome histogram and summary counts.
func (k *Kernel) WorldGetState(ctx context.Context, input WorldGetStateInput) (WorldGetStateResult, error) {
	result, err := k.record(ctx, "world.getState", input, func() (any, error) {
		return k.worldGetState(ctx, input)
	})
	if err != nil {
		return WorldGetStateResult{}, err
	}
	return result.(WorldGetStateResult), nil
}

func (k *Kernel) worldGetState(ctx context.Context, input WorldGetStateInput) (WorldGetStateResult, error) {
	record, err := k.Store.GetWorld(ctx, input.WorldID)
	if err != nil {
		return WorldGetStateResult{}, worldNotFound(input.WorldID, err)
	}
	tiles, err := k.Store.GetTiles(ctx, input.WorldID)
	if err != nil {
		return WorldGetStateResult{}, apperr.Wrap(apperr.CodePersistence, err, "load tiles")
	}
	structures, err := k.Store.GetStructures(ctx, input.WorldID)
	if err != nil {
		return WorldGetStateResult{}, apperr.Wrap(apperr.CodePersistence, err, "load structures")
	}
	regions, err := k.Store.GetRegions(ctx, input.WorldID)
	if err != nil {
		return WorldGetStateResult{}, apperr.Wrap(apperr.CodePersistence, err, "load regions")
	}

	return WorldGetStateResult{
		WorldID:        record.ID,
		Name:           record.Name,
		Seed:           record.Seed,
		Width:          record.Width,
		Height:         record.Height,
		BiomeCounts:    biomeCounts(tiles),
		StructureCount: len(structures),
		RegionCount:    len(regions),
	}, nil
}

// MapPatchPreviewInput is the request record for world.mapPatch.preview.
type MapPatchPreviewInput struct {
	WorldID string `json:"worldId" jsonschema:"world identifier"`
	Script  string `json:"script" jsonschema:"map patch script"`
}

// MapPatchPreviewResult is the response record for world.mapPatch.preview.
type MapPatchPreviewResult struct {
	Commands   []patch.Command `json:"commands"`
	WillModify bool            `json:"willModify"`
}

// MapPatchPreview decodes a patch without mutating anything.
func (k *Kernel) MapPatchPreview(ctx context.Context, input MapPatchPreviewInput) (MapPatchPreviewResult, error) {
	result, err := k.record(ctx, "world.mapPatch.preview", input, func() (any, error) {
		return k.mapPatchPreview(ctx, input)
	})
	if err != nil {
		return MapPatchPreviewResult{}, err
	}
	return result.(MapPatchPreviewResult), nil
}

func (k *Kernel) mapPatchPreview(ctx context.Context, input MapPatchPreviewInput) (MapPatchPreviewResult, error) {
	if _, err := k.Store.GetWorld(ctx, input.WorldID); err != nil {
		return MapPatchPreviewResult{}, worldNotFound(input.WorldID, err)
	}
	commands, err := patch.Parse(input.Script)
	if err != nil {
		return MapPatchPreviewResult{}, err
	}
	return MapPatchPreviewResult{
		Commands:   commands,
		WillModify: patch.WillModify(commands),
	}, nil
}

// MapPatchApplyInput is the request record for world.mapPatch.apply.
type MapPatchApplyInput struct {
	WorldID string `json:"worldId" jsonschema:"world identifier"`
	Script  string `json:"script" jsonschema:"map patch script"`
}

// MapPatchApplyResult is the response record for world.mapPatch.apply.
type MapPatchApplyResult struct {
	CommandsExecuted int `json:"commandsExecuted"`
	TilesChanged     int `json:"tilesChanged"`
	StructuresAdded  int `json:"structuresAdded"`
	StructuresMoved  int `json:"structuresMoved"`
	RoadsAdded       int `json:"roadsAdded"`
	AnnotationsAdded int `json:"annotationsAdded"`
	StructureCount   int `json:"structureCount"`
}

// MapPatchApply parses, validates and atomically applies a patch.
func (k *Kernel) MapPatchApply(ctx context.Context, input MapPatchApplyInput) (MapPatchApplyResult, error) {
	result, err := k.record(ctx, "world.mapPatch.apply", input, func() (any, error) {
		return k.mapPatchApply(ctx, input)
	})
	if err != nil {
		return MapPatchApplyResult{}, err
	}
	return result.(MapPatchApplyResult), nil
}

func (k *Kernel) mapPatchApply(ctx context.Context, input MapPatchApplyInput) (MapPatchApplyResult, error) {
	record, err := k.Store.GetWorld(ctx, input.WorldID)
	if err != nil {
		return MapPatchApplyResult{}, worldNotFound(input.WorldID, err)
	}
	commands, err := patch.Parse(input.Script)
	if err != nil {
		return MapPatchApplyResult{}, err
	}

	tiles, err := k.Store.GetTiles(ctx, input.WorldID)
	if err != nil {
		return MapPatchApplyResult{}, apperr.Wrap(apperr.CodePersistence, err, "load tiles")
	}
	structures, err := k.Store.GetStructures(ctx, input.WorldID)
	if err != nil {
		return MapPatchApplyResult{}, apperr.Wrap(apperr.CodePersistence, err, "load structures")
	}

	snapshot := patch.Snapshot{
		World:      record,
		Tiles:      make(map[world.Pt]world.Tile, len(tiles)),
		Structures: structures,
	}
	for _, tile := range tiles {
		snapshot.Tiles[world.Pt{X: tile.X, Y: tile.Y}] = tile
	}

	// Patch ids derive from the world seed and the patch script so the same
	// script replays to the same records.
	idStream := dice.NewStream(record.Seed).Fork("patch").Fork(input.Script)
	diff, err := patch.Apply(snapshot, commands, func() string {
		return deterministicPatchID(idStream)
	})
	if err != nil {
		return MapPatchApplyResult{}, err
	}

	// The whole diff commits in one transaction: a failure on any write
	// rolls back everything already applied, keeping the apply atomic at
	// the store as well as in memory.
	var structureCount int
	err = k.Store.WithTx(ctx, func(tx storage.Store) error {
		if len(diff.ChangedTiles) > 0 {
			if err := tx.PutTiles(ctx, input.WorldID, diff.ChangedTiles); err != nil {
				return apperr.Wrap(apperr.CodePersistence, err, "persist tiles")
			}
		}
		if len(diff.AddedStructures) > 0 || len(diff.MovedStructures) > 0 {
			combined := append(append([]world.Structure{}, diff.AddedStructures...), diff.MovedStructures...)
			if err := tx.PutStructures(ctx, input.WorldID, combined); err != nil {
				return apperr.Wrap(apperr.CodePersistence, err, "persist structures")
			}
		}
		if len(diff.AddedRoads) > 0 {
			if err := tx.PutRoads(ctx, input.WorldID, diff.AddedRoads); err != nil {
				return apperr.Wrap(apperr.CodePersistence, err, "persist roads")
			}
		}
		if len(diff.AddedAnnotations) > 0 {
			if err := tx.PutAnnotations(ctx, input.WorldID, diff.AddedAnnotations); err != nil {
				return apperr.Wrap(apperr.CodePersistence, err, "persist annotations")
			}
		}

		structures, err := tx.GetStructures(ctx, input.WorldID)
		if err != nil {
			return apperr.Wrap(apperr.CodePersistence, err, "count structures")
		}
		structureCount = len(structures)
		return nil
	})
	if err != nil {
		return MapPatchApplyResult{}, persistFailure(err, "persist patch")
	}

	result := MapPatchApplyResult{
		CommandsExecuted: diff.CommandsExecuted,
		TilesChanged:     len(diff.ChangedTiles),
		StructuresAdded:  len(diff.AddedStructures),
		StructuresMoved:  len(diff.MovedStructures),
		RoadsAdded:       len(diff.AddedRoads),
		AnnotationsAdded: len(diff.AddedAnnotations),
		StructureCount:   structureCount,
	}
	k.Bus.Publish(events.TopicWorld, MapPatchAppliedEvent{
		Type:             "map_patch_applied",
		WorldID:          input.WorldID,
		CommandsExecuted: diff.CommandsExecuted,
	})
	return result, nil
}

// MapPatchAppliedEvent is published on the world topic after a patch commit.
type MapPatchAppliedEvent struct {
	Type             string `json:"type"`
	WorldID          string `json:"worldId"`
	CommandsExecuted int    `json:"commandsExecuted"`
}

func biomeCounts(tiles []world.Tile) map[string]int {
	counts := make(map[string]int)
	for _, tile := range tiles {
		counts[string(tile.Biome)]++
	}
	return counts
}

func worldNotFound(worldID string, err error) error {
	if err == storage.ErrNotFound {
		return apperr.New(apperr.CodeNotFound, "world %q does not exist", worldID)
	}
	return apperr.Wrap(apperr.CodePersistence, err, "load world %q", worldID)
}

// persistFailure classifies transaction begin/commit failures, which reach
// the handler without a taxonomy code; errors already coded pass through.
func persistFailure(err error, what string) error {
	if apperr.CodeOf(err) != apperr.CodeUnknown {
		return err
	}
	return apperr.Wrap(apperr.CodePersistence, err, "%s", what)
}

func deterministicPatchID(stream *dice.Stream) string {
	return id.FromBytes(stream.Bytes16())
}
