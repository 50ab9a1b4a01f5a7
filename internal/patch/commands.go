package patch

import (
	"strings"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/world"
)

// Command is one validated patch command. Exactly one variant field is set,
// selected by Kind.
type Command struct {
	Kind string `json:"kind"`
	Line int    `json:"line"`

	AddStructure  *AddStructure  `json:"addStructure,omitempty"`
	SetBiome      *SetBiome      `json:"setBiome,omitempty"`
	EditTile      *EditTile      `json:"editTile,omitempty"`
	AddRoad       *AddRoad       `json:"addRoad,omitempty"`
	MoveStructure *MoveStructure `json:"moveStructure,omitempty"`
	AddAnnotation *AddAnnotation `json:"addAnnotation,omitempty"`
}

// Command kinds, matching the DSL identifiers.
const (
	KindAddStructure  = "ADD_STRUCTURE"
	KindSetBiome      = "SET_BIOME"
	KindEditTile      = "EDIT_TILE"
	KindAddRoad       = "ADD_ROAD"
	KindMoveStructure = "MOVE_STRUCTURE"
	KindAddAnnotation = "ADD_ANNOTATION"
)

// AddStructure places a new structure.
type AddStructure struct {
	Type       world.StructureType `json:"type"`
	X          int                 `json:"x"`
	Y          int                 `json:"y"`
	Name       string              `json:"name"`
	Population int                 `json:"population,omitempty"`
}

// SetBiome overrides one tile's biome.
type SetBiome struct {
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Biome world.Biome `json:"biome"`
}

// EditTile overrides tile fields; a field whose Has flag is false is left
// unchanged.
type EditTile struct {
	X           int `json:"x"`
	Y           int `json:"y"`
	Elevation   int `json:"elevation"`
	Moisture    int `json:"moisture"`
	Temperature int `json:"temperature"`

	HasElevation   bool `json:"hasElevation"`
	HasMoisture    bool `json:"hasMoisture"`
	HasTemperature bool `json:"hasTemperature"`
}

// AddRoad records a road along a semicolon-separated path of x,y pairs.
type AddRoad struct {
	Path []world.Pt `json:"path"`
}

// MoveStructure relocates an existing structure by id.
type MoveStructure struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// AddAnnotation attaches a labelled note to a tile.
type AddAnnotation struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label"`
	Note  string `json:"note,omitempty"`
}

// decodeCommand dispatches a raw command to its schema.
func decodeCommand(raw rawCommand) (Command, error) {
	reader := &argReader{raw: raw}
	command := Command{Kind: raw.Name, Line: raw.Line}

	switch raw.Name {
	case KindAddStructure:
		structureType := world.StructureType(reader.requireString("type"))
		command.AddStructure = &AddStructure{
			Type:       structureType,
			X:          reader.requireInt("x"),
			Y:          reader.requireInt("y"),
			Name:       reader.requireString("name"),
			Population: reader.optionalInt("population", 0),
		}
		if err := reader.err(); err != nil {
			return Command{}, err
		}
		if !structureType.IsValid() {
			return Command{}, apperr.New(apperr.CodeValidation,
				"line %d: unknown structure type %q", raw.Line, structureType)
		}

	case KindSetBiome:
		biome := world.Biome(strings.ToLower(reader.requireString("biome")))
		command.SetBiome = &SetBiome{
			X:     reader.requireInt("x"),
			Y:     reader.requireInt("y"),
			Biome: biome,
		}
		if err := reader.err(); err != nil {
			return Command{}, err
		}
		if !biome.IsValid() {
			return Command{}, apperr.New(apperr.CodeValidation,
				"line %d: unknown biome %q", raw.Line, biome)
		}

	case KindEditTile:
		edit := &EditTile{
			X: reader.requireInt("x"),
			Y: reader.requireInt("y"),
		}
		if _, ok := raw.Args["elevation"]; ok {
			edit.Elevation = reader.requireInt("elevation")
			edit.HasElevation = true
		}
		if _, ok := raw.Args["moisture"]; ok {
			edit.Moisture = reader.requireInt("moisture")
			edit.HasMoisture = true
		}
		if _, ok := raw.Args["temperature"]; ok {
			edit.Temperature = reader.requireInt("temperature")
			edit.HasTemperature = true
		}
		command.EditTile = edit
		if err := reader.err(); err != nil {
			return Command{}, err
		}
		if !edit.HasElevation && !edit.HasMoisture && !edit.HasTemperature {
			return Command{}, apperr.New(apperr.CodeValidation,
				"line %d: EDIT_TILE changes nothing", raw.Line)
		}

	case KindAddRoad:
		pathArg := reader.requireString("path")
		if err := reader.err(); err != nil {
			return Command{}, err
		}
		path, err := parsePath(raw.Line, pathArg)
		if err != nil {
			return Command{}, err
		}
		command.AddRoad = &AddRoad{Path: path}

	case KindMoveStructure:
		command.MoveStructure = &MoveStructure{
			ID: reader.requireString("id"),
			X:  reader.requireInt("x"),
			Y:  reader.requireInt("y"),
		}
		if err := reader.err(); err != nil {
			return Command{}, err
		}

	case KindAddAnnotation:
		command.AddAnnotation = &AddAnnotation{
			X:     reader.requireInt("x"),
			Y:     reader.requireInt("y"),
			Label: reader.requireString("label"),
			Note:  reader.optionalString("note"),
		}
		if err := reader.err(); err != nil {
			return Command{}, err
		}

	default:
		return Command{}, apperr.New(apperr.CodeValidation,
			"line %d: unknown command %q", raw.Line, raw.Name)
	}

	return command, nil
}

// parsePath decodes "x1,y1;x2,y2;..." into points.
func parsePath(line int, value string) ([]world.Pt, error) {
	var path []world.Pt
	for _, pair := range strings.Split(value, ";") {
		coords := strings.Split(strings.TrimSpace(pair), ",")
		if len(coords) != 2 {
			return nil, apperr.New(apperr.CodeValidation,
				"line %d: path point %q is not x,y", line, pair)
		}
		reader := &argReader{raw: rawCommand{Line: line, Name: KindAddRoad, Args: map[string]string{
			"x": strings.TrimSpace(coords[0]),
			"y": strings.TrimSpace(coords[1]),
		}}}
		point := world.Pt{X: reader.requireInt("x"), Y: reader.requireInt("y")}
		if err := reader.err(); err != nil {
			return nil, err
		}
		path = append(path, point)
	}
	if len(path) < 2 {
		return nil, apperr.New(apperr.CodeValidation,
			"line %d: road path needs at least two points", line)
	}
	return path, nil
}

// WillModify reports whether the command set mutates the world. Under the
// current grammar every command mutates, so any non-empty patch modifies.
func WillModify(commands []Command) bool {
	return len(commands) > 0
}
