package combat

import (
	"sort"
	"time"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/id"
	"github.com/arvenwood/loomfall/internal/spatial"
)

// Status tracks the encounter lifecycle: none, active, completed or paused.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"
)

// Terrain holds the encounter's static spatial features.
type Terrain struct {
	Obstacles        spatial.ObstacleSet `json:"obstacles,omitempty"`
	DifficultTerrain spatial.ObstacleSet `json:"difficultTerrain,omitempty"`
}

// Encounter owns its participants, turn order and round counter. Invariants:
// TurnOrder is a permutation of participant ids and CurrentTurnIndex always
// indexes into it.
type Encounter struct {
	ID        string
	WorldID   string
	SessionID string

	participants []*Participant
	TurnOrder    []string
	CurrentTurnIndex int
	Round            int
	Status           Status
	Terrain          Terrain

	auras         []*Aura
	concentration map[string]string // participant id -> spell name

	stream    *dice.Stream
	idStream  *dice.Stream
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEncounter rolls initiative and builds the turn order.
//
// Initiative is d20 + bonus per participant in input order; the order sorts
// by initiative descending with ties broken by participant id ascending,
// which keeps the result deterministic for a fixed seed.
func NewEncounter(seed, sessionID string, participants []*Participant, terrain Terrain, now time.Time) (*Encounter, error) {
	if len(participants) == 0 {
		return nil, apperr.New(apperr.CodeValidation, "encounter needs at least one participant")
	}

	stream := dice.NewStream(seed).Fork("battle")
	idStream := stream.Fork("ids")

	seen := map[string]bool{}
	for _, p := range participants {
		if p.ID == "" {
			p.ID = id.FromBytes(idStream.Bytes16())
		}
		if seen[p.ID] {
			return nil, apperr.New(apperr.CodeConflict, "duplicate participant id %q", p.ID)
		}
		seen[p.ID] = true
		if p.MaxHP < 1 {
			return nil, apperr.New(apperr.CodeValidation, "participant %q needs max hp", p.Name)
		}
		if p.HP <= 0 || p.HP > p.MaxHP {
			p.HP = p.MaxHP
		}
		if p.MovementSpeed == 0 {
			p.MovementSpeed = DefaultMovementSpeed
		}
		if p.DamageDice == "" {
			p.DamageDice = "1d6"
		}
	}

	encounter := &Encounter{
		ID:            id.FromBytes(idStream.Bytes16()),
		SessionID:     sessionID,
		participants:  participants,
		Round:         1,
		Status:        StatusActive,
		Terrain:       terrain,
		concentration: map[string]string{},
		stream:        stream,
		idStream:      idStream,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, p := range participants {
		roll := stream.D20(p.InitiativeBonus)
		p.Initiative = roll.Total
	}

	order := make([]*Participant, len(participants))
	copy(order, participants)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Initiative != order[j].Initiative {
			return order[i].Initiative > order[j].Initiative
		}
		return order[i].ID < order[j].ID
	})
	encounter.TurnOrder = make([]string, len(order))
	for i, p := range order {
		encounter.TurnOrder[i] = p.ID
	}

	// The first participant's turn starts immediately.
	first := encounter.mustParticipant(encounter.TurnOrder[0])
	first.resetTurnEconomy()

	return encounter, nil
}

// Participant resolves a participant by id.
func (e *Encounter) Participant(participantID string) (*Participant, error) {
	for _, p := range e.participants {
		if p.ID == participantID {
			return p, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "participant %q is not in the encounter", participantID)
}

func (e *Encounter) mustParticipant(participantID string) *Participant {
	p, err := e.Participant(participantID)
	if err != nil {
		panic(err)
	}
	return p
}

// Participants returns the participants in input order.
func (e *Encounter) Participants() []*Participant { return e.participants }

// CurrentParticipant returns the participant whose turn it is.
func (e *Encounter) CurrentParticipant() *Participant {
	return e.mustParticipant(e.TurnOrder[e.CurrentTurnIndex])
}

// Concentrating returns the spell the participant concentrates on, if any.
func (e *Encounter) Concentrating(participantID string) (string, bool) {
	spell, ok := e.concentration[participantID]
	return spell, ok
}

// requireActive fails unless the encounter accepts actions.
func (e *Encounter) requireActive() error {
	if e.Status != StatusActive {
		return apperr.New(apperr.CodeState, "encounter %s is %s", e.ID, e.Status)
	}
	return nil
}

// obstaclesFor builds the obstacle set seen by a moving participant: terrain
// obstacles plus every other participant still on the field.
func (e *Encounter) obstaclesFor(moverID string) spatial.ObstacleSet {
	obstacles := spatial.ObstacleSet{}
	for pos := range e.Terrain.Obstacles {
		obstacles.Add(pos)
	}
	for _, p := range e.participants {
		if p.ID == moverID || p.Position == nil {
			continue
		}
		obstacles.Add(*p.Position)
	}
	return obstacles
}

// moveCostFeet prices a path in feet: five per tile, ten on difficult
// terrain. The starting tile is free.
func (e *Encounter) moveCostFeet(path []spatial.Position) int {
	cost := 0
	for _, pos := range path[1:] {
		step := spatial.TileFeet
		if e.Terrain.DifficultTerrain.Contains(pos) {
			step *= 2
		}
		cost += step
	}
	return cost
}
