// Package world defines the persistent records for generated worlds: tiles,
// regions, rivers, structures, roads and annotations.
//
// Worlds, tiles, regions and structures are validated at every store and load
// boundary; river segments, roads and annotations have no validation.
// Cross-record references are by id only.
package world

import (
	"strings"
	"time"

	"github.com/arvenwood/loomfall/internal/apperr"
)

// SeaLevel is the elevation below which a tile is ocean.
const SeaLevel = 20

// World is the root record for one generated world.
type World struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Seed        string    `json:"seed"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Environment string    `json:"environment,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate reports whether the world record is well formed.
func (w World) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return apperr.New(apperr.CodeValidation, "world id is required")
	}
	if strings.TrimSpace(w.Seed) == "" {
		return apperr.New(apperr.CodeValidation, "world seed is required")
	}
	if w.Width < 1 || w.Height < 1 {
		return apperr.New(apperr.CodeValidation, "world dimensions must be at least 1x1, got %dx%d", w.Width, w.Height)
	}
	return nil
}

// Biome identifies a tile biome.
type Biome string

const (
	BiomeOcean      Biome = "ocean"
	BiomeDesert     Biome = "desert"
	BiomeSavanna    Biome = "savanna"
	BiomeShrubland  Biome = "shrubland"
	BiomeGrassland  Biome = "grassland"
	BiomeForest     Biome = "forest"
	BiomeRainforest Biome = "rainforest"
	BiomeSwamp      Biome = "swamp"
	BiomeTaiga      Biome = "taiga"
	BiomeTundra     Biome = "tundra"
	BiomeGlacier    Biome = "glacier"
)

// KnownBiomes lists every assignable biome.
var KnownBiomes = []Biome{
	BiomeOcean, BiomeDesert, BiomeSavanna, BiomeShrubland, BiomeGrassland,
	BiomeForest, BiomeRainforest, BiomeSwamp, BiomeTaiga, BiomeTundra,
	BiomeGlacier,
}

// IsValid reports whether the biome is one of the known values.
func (b Biome) IsValid() bool {
	for _, known := range KnownBiomes {
		if b == known {
			return true
		}
	}
	return false
}

// Tile is one cell of a world grid.
type Tile struct {
	WorldID     string `json:"worldId"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Biome       Biome  `json:"biome"`
	Elevation   int    `json:"elevation"`
	Moisture    int    `json:"moisture"`
	Temperature int    `json:"temperature"`
}

// Validate reports whether the tile record is well formed.
func (t Tile) Validate() error {
	if strings.TrimSpace(t.WorldID) == "" {
		return apperr.New(apperr.CodeValidation, "tile world id is required")
	}
	if !t.Biome.IsValid() {
		return apperr.New(apperr.CodeValidation, "tile (%d,%d) has unknown biome %q", t.X, t.Y, t.Biome)
	}
	if t.Elevation < 0 || t.Elevation > 100 {
		return apperr.New(apperr.CodeValidation, "tile (%d,%d) elevation %d outside [0,100]", t.X, t.Y, t.Elevation)
	}
	if t.Moisture < 0 || t.Moisture > 100 {
		return apperr.New(apperr.CodeValidation, "tile (%d,%d) moisture %d outside [0,100]", t.X, t.Y, t.Moisture)
	}
	if t.Temperature < -20 || t.Temperature > 40 {
		return apperr.New(apperr.CodeValidation, "tile (%d,%d) temperature %d outside [-20,40]", t.X, t.Y, t.Temperature)
	}
	if t.Elevation < SeaLevel && t.Biome != BiomeOcean {
		return apperr.New(apperr.CodeValidation, "tile (%d,%d) below sea level must be ocean", t.X, t.Y)
	}
	return nil
}

// RegionType classifies a region.
type RegionType string

const (
	RegionKingdom    RegionType = "kingdom"
	RegionWilderness RegionType = "wilderness"
)

// Region groups contiguous tiles by a deterministic segmentation over biome
// and elevation band.
type Region struct {
	ID      string     `json:"id"`
	WorldID string     `json:"worldId"`
	Name    string     `json:"name"`
	Type    RegionType `json:"type"`
	CenterX int        `json:"centerX"`
	CenterY int        `json:"centerY"`
	Color   string     `json:"color"`
}

// Validate reports whether the region record is well formed.
func (r Region) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return apperr.New(apperr.CodeValidation, "region id is required")
	}
	if strings.TrimSpace(r.WorldID) == "" {
		return apperr.New(apperr.CodeValidation, "region world id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return apperr.New(apperr.CodeValidation, "region name is required")
	}
	return nil
}

// RiverSegment is one directed edge of a river. Segments form a DAG from
// source to mouth; flow is strictly downhill by elevation.
type RiverSegment struct {
	WorldID string `json:"worldId"`
	FromX   int    `json:"fromX"`
	FromY   int    `json:"fromY"`
	ToX     int    `json:"toX"`
	ToY     int    `json:"toY"`
	Flux    int    `json:"flux"`
}

// StructureType classifies a placed structure.
type StructureType string

const (
	StructureCity    StructureType = "city"
	StructureTown    StructureType = "town"
	StructureVillage StructureType = "village"
	StructureCastle  StructureType = "castle"
	StructureRuins   StructureType = "ruins"
	StructureDungeon StructureType = "dungeon"
	StructureTemple  StructureType = "temple"
)

// KnownStructureTypes lists every placeable structure type.
var KnownStructureTypes = []StructureType{
	StructureCity, StructureTown, StructureVillage, StructureCastle,
	StructureRuins, StructureDungeon, StructureTemple,
}

// IsValid reports whether the structure type is one of the known values.
func (t StructureType) IsValid() bool {
	for _, known := range KnownStructureTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Structure is a placed settlement or site.
type Structure struct {
	ID         string        `json:"id"`
	WorldID    string        `json:"worldId"`
	Type       StructureType `json:"type"`
	X          int           `json:"x"`
	Y          int           `json:"y"`
	Name       string        `json:"name"`
	Population int           `json:"population,omitempty"`
}

// Validate reports whether the structure record is well formed.
func (s Structure) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return apperr.New(apperr.CodeValidation, "structure id is required")
	}
	if strings.TrimSpace(s.WorldID) == "" {
		return apperr.New(apperr.CodeValidation, "structure world id is required")
	}
	if !s.Type.IsValid() {
		return apperr.New(apperr.CodeValidation, "structure type %q is unknown", s.Type)
	}
	if strings.TrimSpace(s.Name) == "" {
		return apperr.New(apperr.CodeValidation, "structure name is required")
	}
	if s.Population < 0 {
		return apperr.New(apperr.CodeValidation, "structure population must not be negative")
	}
	return nil
}

// Road is an ordered tile path connecting points of interest.
type Road struct {
	ID      string `json:"id"`
	WorldID string `json:"worldId"`
	Path    []Pt   `json:"path"`
}

// Pt is a bare coordinate used inside road paths.
type Pt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Annotation is a free-form labelled marker on the map.
type Annotation struct {
	ID      string `json:"id"`
	WorldID string `json:"worldId"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Label   string `json:"label"`
	Note    string `json:"note,omitempty"`
}
