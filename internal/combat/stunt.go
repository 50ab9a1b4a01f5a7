package combat

import (
	"github.com/arvenwood/loomfall/internal/core/check"
	"github.com/arvenwood/loomfall/internal/core/dice"
)

// StuntParams is a pre-adjudicated stunt: the caller decided the DC and the
// consequences, the engine only rolls and applies them. Consequences land on
// TargetID, or on every participant inside Area when one is given.
type StuntParams struct {
	ActorID    string
	TargetID   string
	Area       *AreaQuery
	DC         int
	CheckBonus int
	DamageDice string
	DamageType string
	Condition  *Condition
}

// StuntTargetOutcome records what a successful stunt did to one target.
type StuntTargetOutcome struct {
	TargetID         string     `json:"targetId"`
	DamageDealt      int        `json:"damageDealt"`
	HPAfter          int        `json:"hpAfter"`
	ConditionApplied *Condition `json:"conditionApplied,omitempty"`
}

// StuntResult traces a resolved stunt. The single-target convenience fields
// mirror Targets[0] when exactly one target was affected.
type StuntResult struct {
	Roll             dice.D20Result
	Degree           check.Degree
	DamageDealt      int
	DamageTrace      *dice.ExprResult
	ConditionApplied *Condition
	TargetHPAfter    int
	Targets          []StuntTargetOutcome
}

// ResolveStunt consumes the actor's action, rolls the check, and on success
// applies the supplied damage and condition to each target. Target
// resolution and validation happen before the action is consumed, so a
// failed call never mutates the encounter.
func (e *Encounter) ResolveStunt(params StuntParams) (StuntResult, error) {
	var targets []string
	if params.Area != nil {
		area := *params.Area
		if area.SelfID == "" {
			area.SelfID = params.ActorID
		}
		ids, err := e.ParticipantsInArea(area)
		if err != nil {
			return StuntResult{}, err
		}
		targets = ids
	} else if params.TargetID != "" {
		targets = []string{params.TargetID}
	}
	for _, targetID := range targets {
		if _, err := e.Participant(targetID); err != nil {
			return StuntResult{}, err
		}
	}
	if params.Condition != nil {
		if err := params.Condition.Validate(); err != nil {
			return StuntResult{}, err
		}
	}
	if err := e.CanTakeAction(params.ActorID, ActionAction); err != nil {
		return StuntResult{}, err
	}

	actor := e.mustParticipant(params.ActorID)
	actor.ActionUsed = true

	roll := e.stream.D20(params.CheckBonus)
	result := StuntResult{
		Roll:   roll,
		Degree: check.Classify(roll, params.DC),
	}
	if !result.Degree.IsSuccess() || len(targets) == 0 {
		return result, nil
	}

	// One damage roll covers every target; scaling stays per target.
	raw := 0
	if params.DamageDice != "" {
		if trace, err := e.stream.RollExpr(params.DamageDice); err == nil {
			result.DamageTrace = &trace
			raw = trace.Total
		}
	}

	for _, targetID := range targets {
		target := e.mustParticipant(targetID)
		outcome := StuntTargetOutcome{TargetID: targetID}
		if raw > 0 {
			dealt := target.EffectiveDamage(raw, params.DamageType)
			e.applyDamage(target, dealt)
			outcome.DamageDealt = dealt
		}
		if params.Condition != nil {
			applied, err := e.ApplyCondition(targetID, *params.Condition)
			if err != nil {
				return StuntResult{}, err
			}
			outcome.ConditionApplied = &applied
		}
		outcome.HPAfter = target.HP
		result.Targets = append(result.Targets, outcome)
	}

	if len(result.Targets) == 1 {
		result.DamageDealt = result.Targets[0].DamageDealt
		result.ConditionApplied = result.Targets[0].ConditionApplied
		result.TargetHPAfter = result.Targets[0].HPAfter
	}
	return result, nil
}
