package combat

import (
	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/spatial"
)

// AreaShape selects an area-of-effect geometry.
type AreaShape string

const (
	ShapeSphere AreaShape = "sphere"
	ShapeCube   AreaShape = "cube"
	ShapeCone   AreaShape = "cone"
	ShapeLine   AreaShape = "line"
)

// AreaQuery describes an area-of-effect footprint. Direction is a point the
// shape aims toward and only matters for cones and lines.
type AreaQuery struct {
	Shape     AreaShape        `json:"shape"`
	Origin    spatial.Position `json:"origin"`
	Direction spatial.Position `json:"direction,omitempty"`
	// SizeFeet is the radius for spheres, edge for cubes, and length for
	// cones and lines.
	SizeFeet  int    `json:"sizeFeet"`
	WidthFeet int    `json:"widthFeet,omitempty"`
	SelfID    string `json:"selfId,omitempty"`
	// IncludeSelf keeps SelfID in the result when it falls inside.
	IncludeSelf bool `json:"includeSelf,omitempty"`
}

// ParticipantsInArea returns the ids of participants inside the shape, in
// turn order. Participants without a position are never inside.
func (e *Encounter) ParticipantsInArea(query AreaQuery) ([]string, error) {
	if query.SizeFeet <= 0 {
		return nil, apperr.New(apperr.CodeValidation, "area size must be positive")
	}

	var inside []string
	for _, participantID := range e.TurnOrder {
		p := e.mustParticipant(participantID)
		if p.Position == nil {
			continue
		}
		if p.ID == query.SelfID && !query.IncludeSelf {
			continue
		}

		target := *p.Position
		var hit bool
		switch query.Shape {
		case ShapeSphere:
			hit = spatial.InSphere(query.Origin, target, query.SizeFeet)
		case ShapeCube:
			hit = spatial.InCube(query.Origin, target, query.SizeFeet)
		case ShapeCone:
			hit = spatial.InCone(query.Origin, target, query.Direction, query.SizeFeet)
		case ShapeLine:
			hit = spatial.InLine(query.Origin, target, query.Direction, query.SizeFeet, query.WidthFeet)
		default:
			return nil, apperr.New(apperr.CodeValidation, "area shape %q is unknown", query.Shape)
		}
		if hit {
			inside = append(inside, participantID)
		}
	}
	return inside, nil
}
