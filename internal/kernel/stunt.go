package kernel

import (
	"context"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/combat"
	"github.com/arvenwood/loomfall/internal/core/check"
	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/events"
)

// ResolveStuntInput is the caller-composed stunt record. The kernel never
// infers narrative intent: the caller supplies a pre-decided DC, check
// modifier, and the consequences to apply on success, and the
// kernel validates and executes them against its own primitives.
type ResolveStuntInput struct {
	EncounterID string `json:"encounterId"`
	ActorID     string `json:"actorId"`
	TargetID    string `json:"targetId,omitempty"`
	// Area targets every participant inside the shape instead of TargetID.
	Area       *combat.AreaQuery `json:"area,omitempty"`
	DC         int               `json:"dc"`
	CheckBonus int               `json:"checkBonus"`

	// DamageDice is rolled once when the check succeeds; the total is
	// applied to each target.
	DamageDice string `json:"damageDice,omitempty"`
	DamageType string `json:"damageType,omitempty"`
	// Condition is applied to each target when the check succeeds.
	Condition *combat.Condition `json:"condition,omitempty"`
}

// ResolveStuntResult traces a resolved stunt.
type ResolveStuntResult struct {
	Roll             dice.D20Result             `json:"roll"`
	Degree           check.Degree               `json:"degree"`
	DamageDealt      int                        `json:"damageDealt,omitempty"`
	DamageTrace      *dice.ExprResult           `json:"damageTrace,omitempty"`
	ConditionApplied *combat.Condition          `json:"conditionApplied,omitempty"`
	TargetHPAfter    int                        `json:"targetHpAfter,omitempty"`
	Targets          []combat.StuntTargetOutcome `json:"targets,omitempty"`
}

// CombatResolveStunt validates and applies a caller-adjudicated stunt using
// kernel primitives only.
func (k *Kernel) CombatResolveStunt(ctx context.Context, input ResolveStuntInput) (ResolveStuntResult, error) {
	result, err := k.record(ctx, "combat.resolveStunt", input, func() (any, error) {
		return k.combatResolveStunt(input)
	})
	if err != nil {
		return ResolveStuntResult{}, err
	}
	return result.(ResolveStuntResult), nil
}

func (k *Kernel) combatResolveStunt(input ResolveStuntInput) (ResolveStuntResult, error) {
	encounter, err := k.Encounters.Get(k.SessionID, input.EncounterID)
	if err != nil {
		return ResolveStuntResult{}, err
	}
	if input.DC < 1 {
		return ResolveStuntResult{}, apperr.New(apperr.CodeValidation, "stunt DC must be positive")
	}
	if input.DamageDice != "" {
		if _, err := dice.ParseExpr(input.DamageDice); err != nil {
			return ResolveStuntResult{}, apperr.Wrap(apperr.CodeValidation, err, "stunt damage dice")
		}
	}
	if input.TargetID != "" && input.Area != nil {
		return ResolveStuntResult{}, apperr.New(apperr.CodeValidation, "stunt takes a target or an area, not both")
	}
	if (input.DamageDice != "" || input.Condition != nil) && input.TargetID == "" && input.Area == nil {
		return ResolveStuntResult{}, apperr.New(apperr.CodeValidation, "stunt consequences need a target or an area")
	}
	if input.Condition != nil {
		if err := input.Condition.Validate(); err != nil {
			return ResolveStuntResult{}, err
		}
	}
	if err := encounter.CanTakeAction(input.ActorID, combat.ActionAction); err != nil {
		return ResolveStuntResult{}, err
	}
	if input.TargetID != "" {
		if _, err := encounter.Participant(input.TargetID); err != nil {
			return ResolveStuntResult{}, err
		}
	}

	result, err := encounter.ResolveStunt(combat.StuntParams{
		ActorID:    input.ActorID,
		TargetID:   input.TargetID,
		Area:       input.Area,
		DC:         input.DC,
		CheckBonus: input.CheckBonus,
		DamageDice: input.DamageDice,
		DamageType: input.DamageType,
		Condition:  input.Condition,
	})
	if err != nil {
		return ResolveStuntResult{}, err
	}

	out := ResolveStuntResult{
		Roll:             result.Roll,
		Degree:           result.Degree,
		DamageDealt:      result.DamageDealt,
		DamageTrace:      result.DamageTrace,
		ConditionApplied: result.ConditionApplied,
		TargetHPAfter:    result.TargetHPAfter,
		Targets:          result.Targets,
	}
	k.Bus.Publish(events.TopicCombat, ActionExecutedEvent{
		Type:        "stunt_resolved",
		EncounterID: encounter.ID,
		ActorID:     input.ActorID,
		Detail:      out,
	})
	return out, nil
}
