package kernel

import (
	"context"
	"encoding/json"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/combat"
	"github.com/arvenwood/loomfall/internal/events"
	"github.com/arvenwood/loomfall/internal/spatial"
	"github.com/arvenwood/loomfall/internal/storage"
)

// ParticipantInput describes one combatant for combat.createEncounter.
type ParticipantInput struct {
	ID              string            `json:"id,omitempty" jsonschema:"optional stable id"`
	CharacterID     string            `json:"characterId,omitempty" jsonschema:"persistent character to shadow"`
	Name            string            `json:"name" jsonschema:"display name"`
	InitiativeBonus int               `json:"initiativeBonus,omitempty"`
	IsEnemy         *bool             `json:"isEnemy,omitempty" jsonschema:"omit to use the advisory name heuristic"`
	HP              int               `json:"hp,omitempty"`
	MaxHP           int               `json:"maxHp"`
	AC              int               `json:"ac,omitempty"`
	Position        *spatial.Position `json:"position,omitempty"`
	MovementSpeed   int               `json:"movementSpeed,omitempty"`
	AttackBonus     int               `json:"attackBonus,omitempty"`
	DamageDice      string            `json:"damageDice,omitempty"`
	SaveModifiers   map[string]int    `json:"saveModifiers,omitempty"`
	Resistances     []string          `json:"resistances,omitempty"`
	Vulnerabilities []string          `json:"vulnerabilities,omitempty"`
	Immunities      []string          `json:"immunities,omitempty"`
}

// TerrainInput describes encounter terrain features.
type TerrainInput struct {
	Obstacles        []spatial.Position `json:"obstacles,omitempty"`
	DifficultTerrain []spatial.Position `json:"difficultTerrain,omitempty"`
}

// CreateEncounterInput is the request record for combat.createEncounter.
type CreateEncounterInput struct {
	Seed         string             `json:"seed" jsonschema:"encounter seed"`
	WorldID      string             `json:"worldId,omitempty"`
	Participants []ParticipantInput `json:"participants"`
	Terrain      *TerrainInput      `json:"terrain,omitempty"`
}

// CreateEncounterResult is the response record for combat.createEncounter.
type CreateEncounterResult struct {
	EncounterID string   `json:"encounterId"`
	TurnOrder   []string `json:"turnOrder"`
	Round       int      `json:"round"`
	CurrentTurn string   `json:"currentTurn"`
	Initiatives map[string]int `json:"initiatives"`
}

// CombatCreateEncounter starts an encounter and registers it in the session.
func (k *Kernel) CombatCreateEncounter(ctx context.Context, input CreateEncounterInput) (CreateEncounterResult, error) {
	result, err := k.record(ctx, "combat.createEncounter", input, func() (any, error) {
		return k.combatCreateEncounter(ctx, input)
	})
	if err != nil {
		return CreateEncounterResult{}, err
	}
	return result.(CreateEncounterResult), nil
}

func (k *Kernel) combatCreateEncounter(ctx context.Context, input CreateEncounterInput) (CreateEncounterResult, error) {
	if input.Seed == "" {
		return CreateEncounterResult{}, apperr.New(apperr.CodeValidation, "encounter seed is required")
	}

	participants := make([]*combat.Participant, 0, len(input.Participants))
	for _, in := range input.Participants {
		p := &combat.Participant{
			ID:              in.ID,
			SourceID:        in.CharacterID,
			Name:            in.Name,
			InitiativeBonus: in.InitiativeBonus,
			HP:              in.HP,
			MaxHP:           in.MaxHP,
			ArmorClass:      in.AC,
			Position:        in.Position,
			MovementSpeed:   in.MovementSpeed,
			AttackBonus:     in.AttackBonus,
			DamageDice:      in.DamageDice,
			SaveModifiers:   in.SaveModifiers,
			Resistances:     in.Resistances,
			Vulnerabilities: in.Vulnerabilities,
			Immunities:      in.Immunities,
		}
		if in.CharacterID != "" {
			record, err := k.Store.GetCharacter(ctx, in.CharacterID)
			if err == nil {
				if p.Name == "" {
					p.Name = record.Name
				}
				if p.MaxHP == 0 {
					p.MaxHP = record.MaxHP
				}
				if p.HP == 0 {
					p.HP = record.HP
				}
				if p.ArmorClass == 0 {
					p.ArmorClass = record.AC
				}
				if p.SaveModifiers == nil {
					p.SaveModifiers = map[string]int{
						"str": record.SaveModifier("str"),
						"dex": record.SaveModifier("dex"),
						"con": record.SaveModifier("con"),
						"int": record.SaveModifier("int"),
						"wis": record.SaveModifier("wis"),
						"cha": record.SaveModifier("cha"),
					}
				}
				if p.Resistances == nil {
					p.Resistances = record.Resistances
				}
				if p.Vulnerabilities == nil {
					p.Vulnerabilities = record.Vulnerabilities
				}
				if p.Immunities == nil {
					p.Immunities = record.Immunities
				}
			} else if err != storage.ErrNotFound {
				return CreateEncounterResult{}, apperr.Wrap(apperr.CodePersistence, err, "load character %q", in.CharacterID)
			}
		}
		if in.IsEnemy != nil {
			p.IsEnemy = *in.IsEnemy
		} else {
			p.IsEnemy = combat.GuessIsEnemy(p.Name)
		}
		participants = append(participants, p)
	}

	terrain := combat.Terrain{}
	if input.Terrain != nil {
		terrain.Obstacles = spatial.NewObstacleSet(input.Terrain.Obstacles...)
		terrain.DifficultTerrain = spatial.NewObstacleSet(input.Terrain.DifficultTerrain...)
	}

	encounter, err := combat.NewEncounter(input.Seed, k.SessionID, participants, terrain, k.Clock.Now())
	if err != nil {
		return CreateEncounterResult{}, err
	}
	encounter.WorldID = input.WorldID
	k.Encounters.Put(encounter)

	initiatives := make(map[string]int, len(participants))
	for _, p := range encounter.Participants() {
		initiatives[p.ID] = p.Initiative
	}

	result := CreateEncounterResult{
		EncounterID: encounter.ID,
		TurnOrder:   encounter.TurnOrder,
		Round:       encounter.Round,
		CurrentTurn: encounter.TurnOrder[encounter.CurrentTurnIndex],
		Initiatives: initiatives,
	}
	k.Bus.Publish(events.TopicCombat, EncounterStartedEvent{
		Type:        "encounter_started",
		EncounterID: encounter.ID,
		TurnOrder:   encounter.TurnOrder,
	})
	return result, nil
}

// EncounterStartedEvent is published when an encounter begins.
type EncounterStartedEvent struct {
	Type        string   `json:"type"`
	EncounterID string   `json:"encounterId"`
	TurnOrder   []string `json:"turnOrder"`
}

// EncounterStateInput is the request record for combat.getEncounterState.
type EncounterStateInput struct {
	EncounterID string `json:"encounterId"`
}

// EncounterStateResult is the full state record.
type EncounterStateResult struct {
	EncounterID string                `json:"encounterId"`
	WorldID     string                `json:"worldId,omitempty"`
	Status      string                `json:"status"`
	Round       int                   `json:"round"`
	CurrentTurn string                `json:"currentTurn"`
	TurnOrder   []string              `json:"turnOrder"`
	Participants []combat.Participant `json:"participants"`
}

// CombatGetEncounterState returns the full encounter record.
func (k *Kernel) CombatGetEncounterState(ctx context.Context, input EncounterStateInput) (EncounterStateResult, error) {
	result, err := k.record(ctx, "combat.getEncounterState", input, func() (any, error) {
		encounter, err := k.Encounters.Get(k.SessionID, input.EncounterID)
		if err != nil {
			return nil, err
		}
		return encounterState(encounter), nil
	})
	if err != nil {
		return EncounterStateResult{}, err
	}
	return result.(EncounterStateResult), nil
}

func encounterState(encounter *combat.Encounter) EncounterStateResult {
	participants := make([]combat.Participant, 0, len(encounter.Participants()))
	for _, p := range encounter.Participants() {
		participants = append(participants, *p)
	}
	return EncounterStateResult{
		EncounterID:  encounter.ID,
		WorldID:      encounter.WorldID,
		Status:       string(encounter.Status),
		Round:        encounter.Round,
		CurrentTurn:  encounter.TurnOrder[encounter.CurrentTurnIndex],
		TurnOrder:    encounter.TurnOrder,
		Participants: participants,
	}
}

// ExecuteActionInput is the request record for combat.executeAction. Action
// selects the variant; the matching parameter block must be present.
type ExecuteActionInput struct {
	EncounterID string `json:"encounterId"`
	Action      string `json:"action" jsonschema:"attack, heal, move, dash or disengage"`
	ActorID     string `json:"actorId"`

	Attack *AttackActionInput `json:"attack,omitempty"`
	Heal   *HealActionInput   `json:"heal,omitempty"`
	Move   *MoveActionInput   `json:"move,omitempty"`
}

// AttackActionInput parameterizes an attack action.
type AttackActionInput struct {
	TargetID     string `json:"targetId"`
	AttackBonus  int    `json:"attackBonus"`
	DC           int    `json:"dc"`
	Damage       int    `json:"damage,omitempty"`
	DamageDice   string `json:"damageDice,omitempty"`
	DamageType   string `json:"damageType,omitempty"`
	Advantage    bool   `json:"advantage,omitempty"`
	Disadvantage bool   `json:"disadvantage,omitempty"`
}

// HealActionInput parameterizes a heal action.
type HealActionInput struct {
	TargetID string `json:"targetId"`
	Amount   int    `json:"amount"`
}

// MoveActionInput parameterizes a move action.
type MoveActionInput struct {
	To spatial.Position `json:"to"`
}

// ExecuteActionResult carries the per-variant trace.
type ExecuteActionResult struct {
	Action string               `json:"action"`
	Attack *combat.AttackResult `json:"attack,omitempty"`
	Heal   *combat.HealResult   `json:"heal,omitempty"`
	Move   *combat.MoveResult   `json:"move,omitempty"`
}

// CombatExecuteAction dispatches one combat action by tagged variant.
func (k *Kernel) CombatExecuteAction(ctx context.Context, input ExecuteActionInput) (ExecuteActionResult, error) {
	result, err := k.record(ctx, "combat.executeAction", input, func() (any, error) {
		return k.combatExecuteAction(input)
	})
	if err != nil {
		return ExecuteActionResult{}, err
	}
	return result.(ExecuteActionResult), nil
}

func (k *Kernel) combatExecuteAction(input ExecuteActionInput) (ExecuteActionResult, error) {
	encounter, err := k.Encounters.Get(k.SessionID, input.EncounterID)
	if err != nil {
		return ExecuteActionResult{}, err
	}

	result := ExecuteActionResult{Action: input.Action}
	switch input.Action {
	case "attack":
		if input.Attack == nil {
			return ExecuteActionResult{}, apperr.New(apperr.CodeValidation, "attack action needs attack parameters")
		}
		attack, err := encounter.Attack(combat.AttackParams{
			AttackerID:   input.ActorID,
			TargetID:     input.Attack.TargetID,
			AttackBonus:  input.Attack.AttackBonus,
			DC:           input.Attack.DC,
			Damage:       input.Attack.Damage,
			DamageDice:   input.Attack.DamageDice,
			DamageType:   input.Attack.DamageType,
			Advantage:    input.Attack.Advantage,
			Disadvantage: input.Attack.Disadvantage,
		})
		if err != nil {
			return ExecuteActionResult{}, err
		}
		result.Attack = &attack
		k.Bus.Publish(events.TopicCombat, ActionExecutedEvent{
			Type:        "attack_executed",
			EncounterID: encounter.ID,
			ActorID:     input.ActorID,
			Detail:      attack,
		})

	case "heal":
		if input.Heal == nil {
			return ExecuteActionResult{}, apperr.New(apperr.CodeValidation, "heal action needs heal parameters")
		}
		heal, err := encounter.Heal(input.ActorID, input.Heal.TargetID, input.Heal.Amount)
		if err != nil {
			return ExecuteActionResult{}, err
		}
		result.Heal = &heal
		k.Bus.Publish(events.TopicCombat, ActionExecutedEvent{
			Type:        "heal_executed",
			EncounterID: encounter.ID,
			ActorID:     input.ActorID,
			Detail:      heal,
		})

	case "move":
		if input.Move == nil {
			return ExecuteActionResult{}, apperr.New(apperr.CodeValidation, "move action needs move parameters")
		}
		move, err := encounter.Move(input.ActorID, input.Move.To)
		if err != nil {
			return ExecuteActionResult{}, err
		}
		result.Move = &move
		k.Bus.Publish(events.TopicCombat, ActionExecutedEvent{
			Type:        "move_executed",
			EncounterID: encounter.ID,
			ActorID:     input.ActorID,
			Detail:      move,
		})

	case "dash":
		if err := encounter.Dash(input.ActorID); err != nil {
			return ExecuteActionResult{}, err
		}
		k.Bus.Publish(events.TopicCombat, ActionExecutedEvent{
			Type:        "dash_executed",
			EncounterID: encounter.ID,
			ActorID:     input.ActorID,
		})

	case "disengage":
		if err := encounter.Disengage(input.ActorID); err != nil {
			return ExecuteActionResult{}, err
		}
		k.Bus.Publish(events.TopicCombat, ActionExecutedEvent{
			Type:        "disengage_executed",
			EncounterID: encounter.ID,
			ActorID:     input.ActorID,
		})

	default:
		return ExecuteActionResult{}, apperr.New(apperr.CodeValidation, "action %q is unknown", input.Action)
	}
	return result, nil
}

// ActionExecutedEvent is published for every resolved combat action.
type ActionExecutedEvent struct {
	Type        string `json:"type"`
	EncounterID string `json:"encounterId"`
	ActorID     string `json:"actorId"`
	Detail      any    `json:"detail,omitempty"`
}

// AdvanceTurnInput is the request record for combat.advanceTurn.
type AdvanceTurnInput struct {
	EncounterID string `json:"encounterId"`
}

// CombatAdvanceTurn ends the current turn and starts the next.
func (k *Kernel) CombatAdvanceTurn(ctx context.Context, input AdvanceTurnInput) (combat.TurnTransition, error) {
	result, err := k.record(ctx, "combat.advanceTurn", input, func() (any, error) {
		encounter, err := k.Encounters.Get(k.SessionID, input.EncounterID)
		if err != nil {
			return nil, err
		}
		transition, err := encounter.AdvanceTurn()
		if err != nil {
			return nil, err
		}
		k.Bus.Publish(events.TopicCombat, TurnAdvancedEvent{
			Type:        "turn_advanced",
			EncounterID: encounter.ID,
			Round:       transition.Round,
			CurrentTurn: transition.CurrentID,
		})
		return transition, nil
	})
	if err != nil {
		return combat.TurnTransition{}, err
	}
	return result.(combat.TurnTransition), nil
}

// TurnAdvancedEvent is published when the turn pointer moves.
type TurnAdvancedEvent struct {
	Type        string `json:"type"`
	EncounterID string `json:"encounterId"`
	Round       int    `json:"round"`
	CurrentTurn string `json:"currentTurn"`
}

// EndEncounterInput is the request record for combat.endEncounter.
type EndEncounterInput struct {
	EncounterID string `json:"encounterId"`
}

// EndEncounterResult summarises the hp synchronised back to characters.
type EndEncounterResult struct {
	EncounterID string                 `json:"encounterId"`
	Synced      []combat.ParticipantHP `json:"synced"`
}

// CombatEndEncounter completes an encounter, persists its final snapshot and
// synchronises participant hp to source characters.
func (k *Kernel) CombatEndEncounter(ctx context.Context, input EndEncounterInput) (EndEncounterResult, error) {
	result, err := k.record(ctx, "combat.endEncounter", input, func() (any, error) {
		return k.combatEndEncounter(ctx, input)
	})
	if err != nil {
		return EndEncounterResult{}, err
	}
	return result.(EndEncounterResult), nil
}

func (k *Kernel) combatEndEncounter(ctx context.Context, input EndEncounterInput) (EndEncounterResult, error) {
	encounter, err := k.Encounters.Get(k.SessionID, input.EncounterID)
	if err != nil {
		return EndEncounterResult{}, err
	}
	if encounter.Status == combat.StatusCompleted {
		return EndEncounterResult{}, apperr.New(apperr.CodeState, "encounter %s is already completed", encounter.ID)
	}

	participantsJSON, err := json.Marshal(encounter.Participants())
	if err != nil {
		return EndEncounterResult{}, apperr.Wrap(apperr.CodeValidation, err, "encode participants")
	}

	// The hp sync and the final snapshot commit together or not at all;
	// the in-memory encounter only transitions after the store accepted
	// the result. Participants without a source character drop silently.
	err = k.Store.WithTx(ctx, func(tx storage.Store) error {
		for _, p := range encounter.Participants() {
			if p.SourceID == "" {
				continue
			}
			record, err := tx.GetCharacter(ctx, p.SourceID)
			if err == storage.ErrNotFound {
				continue
			}
			if err != nil {
				return apperr.Wrap(apperr.CodePersistence, err, "load character %q", p.SourceID)
			}
			record.HP = p.HP
			record.UpdatedAt = k.Clock.Now()
			if err := tx.PutCharacter(ctx, record); err != nil {
				return apperr.Wrap(apperr.CodePersistence, err, "sync character %q", p.SourceID)
			}
		}
		if err := tx.PutEncounter(ctx, storage.EncounterRecord{
			ID:               encounter.ID,
			WorldID:          encounter.WorldID,
			SessionID:        encounter.SessionID,
			Status:           string(combat.StatusCompleted),
			Round:            encounter.Round,
			CurrentTurnIndex: encounter.CurrentTurnIndex,
			TurnOrder:        encounter.TurnOrder,
			ParticipantsJSON: participantsJSON,
			CreatedAtMillis:  encounter.CreatedAt.UnixMilli(),
			UpdatedAtMillis:  k.Clock.Now().UnixMilli(),
		}); err != nil {
			return apperr.Wrap(apperr.CodePersistence, err, "persist encounter snapshot")
		}
		return nil
	})
	if err != nil {
		return EndEncounterResult{}, persistFailure(err, "persist encounter end")
	}

	summary, err := encounter.End()
	if err != nil {
		return EndEncounterResult{}, err
	}
	k.Encounters.Remove(k.SessionID, encounter.ID)
	k.Bus.Publish(events.TopicCombat, EncounterEndedEvent{
		Type:        "encounter_ended",
		EncounterID: encounter.ID,
	})
	return EndEncounterResult{EncounterID: encounter.ID, Synced: summary}, nil
}

// EncounterEndedEvent is published when an encounter completes.
type EncounterEndedEvent struct {
	Type        string `json:"type"`
	EncounterID string `json:"encounterId"`
}

// QueryAreaInput is the request record for combat.queryArea.
type QueryAreaInput struct {
	EncounterID string           `json:"encounterId"`
	Area        combat.AreaQuery `json:"area" jsonschema:"sphere, cube, cone or line footprint"`
}

// QueryAreaResult lists the participants inside the queried shape, in turn
// order.
type QueryAreaResult struct {
	ParticipantIDs []string `json:"participantIds"`
}

// CombatQueryArea resolves which participants an area-of-effect shape
// covers, without mutating the encounter.
func (k *Kernel) CombatQueryArea(ctx context.Context, input QueryAreaInput) (QueryAreaResult, error) {
	result, err := k.record(ctx, "combat.queryArea", input, func() (any, error) {
		encounter, err := k.Encounters.Get(k.SessionID, input.EncounterID)
		if err != nil {
			return nil, err
		}
		inside, err := encounter.ParticipantsInArea(input.Area)
		if err != nil {
			return nil, err
		}
		return QueryAreaResult{ParticipantIDs: inside}, nil
	})
	if err != nil {
		return QueryAreaResult{}, err
	}
	return result.(QueryAreaResult), nil
}
