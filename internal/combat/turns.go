package combat

import (
	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/core/check"
	"github.com/arvenwood/loomfall/internal/id"
)

// EffectTick records one ongoing effect firing during turn processing.
type EffectTick struct {
	ParticipantID string        `json:"participantId"`
	ConditionID   string        `json:"conditionId,omitempty"`
	ConditionType ConditionType `json:"conditionType,omitempty"`
	Effect        string        `json:"effect"`
	Amount        int           `json:"amount"`
	HPAfter       int           `json:"hpAfter"`
}

// SaveAttempt records a save-ends roll at end of turn.
type SaveAttempt struct {
	ParticipantID string        `json:"participantId"`
	ConditionID   string        `json:"conditionId"`
	ConditionType ConditionType `json:"conditionType"`
	Ability       string        `json:"ability"`
	DC            int           `json:"dc"`
	Total         int           `json:"total"`
	Removed       bool          `json:"removed"`
}

// TurnTransition summarises an advanceTurn call.
type TurnTransition struct {
	PreviousID      string        `json:"previousId"`
	CurrentID       string        `json:"currentId"`
	Round           int           `json:"round"`
	NewRound        bool          `json:"newRound"`
	EndOfTurnTicks  []EffectTick  `json:"endOfTurnTicks,omitempty"`
	SaveAttempts    []SaveAttempt `json:"saveAttempts,omitempty"`
	StartOfTurnTicks []EffectTick `json:"startOfTurnTicks,omitempty"`
}

// AdvanceTurn ends the current participant's turn and starts the next one,
// processing condition durations and ongoing effects at the boundaries the
// rules prescribe.
func (e *Encounter) AdvanceTurn() (TurnTransition, error) {
	if err := e.requireActive(); err != nil {
		return TurnTransition{}, err
	}

	current := e.CurrentParticipant()
	transition := TurnTransition{PreviousID: current.ID}

	transition.EndOfTurnTicks, transition.SaveAttempts = e.processEndOfTurn(current)
	e.reevaluateAuras()
	e.fireAuraTurnTriggers(current.ID, TriggerEndOfTurn, &transition.EndOfTurnTicks)

	e.CurrentTurnIndex++
	if e.CurrentTurnIndex >= len(e.TurnOrder) {
		e.CurrentTurnIndex = 0
		e.Round++
		transition.NewRound = true
	}

	next := e.CurrentParticipant()
	transition.CurrentID = next.ID
	transition.Round = e.Round

	next.resetTurnEconomy()
	transition.StartOfTurnTicks = e.processStartOfTurn(next)
	e.fireAuraTurnTriggers(next.ID, TriggerStartOfTurn, &transition.StartOfTurnTicks)
	return transition, nil
}

// processStartOfTurn fires start-of-turn effects and expires conditions
// whose policy ends here: start_of_turn conditions drop after their effects,
// round counters decrement and expire at zero.
func (e *Encounter) processStartOfTurn(p *Participant) []EffectTick {
	var ticks []EffectTick

	kept := p.Conditions[:0]
	for _, condition := range p.Conditions {
		for _, effect := range condition.OngoingEffects {
			if effect.Trigger == TriggerStartOfTurn {
				ticks = append(ticks, e.applyOngoingEffect(p, condition, effect))
			}
		}

		switch condition.DurationType {
		case DurationStartOfTurn:
			continue // removed after processing
		case DurationRounds:
			condition.Duration--
			if condition.Duration <= 0 {
				continue
			}
		}
		kept = append(kept, condition)
	}
	p.Conditions = kept
	return ticks
}

// processEndOfTurn fires end-of-turn effects, rolls save-ends saves, and
// expires end_of_turn conditions.
func (e *Encounter) processEndOfTurn(p *Participant) ([]EffectTick, []SaveAttempt) {
	var ticks []EffectTick
	var saves []SaveAttempt

	kept := p.Conditions[:0]
	for _, condition := range p.Conditions {
		for _, effect := range condition.OngoingEffects {
			if effect.Trigger == TriggerEndOfTurn {
				ticks = append(ticks, e.applyOngoingEffect(p, condition, effect))
			}
		}

		switch condition.DurationType {
		case DurationEndOfTurn:
			continue
		case DurationSaveEnds:
			roll := e.stream.D20(p.SaveModifier(condition.SaveAbility))
			removed := check.Classify(roll, condition.SaveDC).IsSuccess()
			// Stunned, paralyzed, unconscious and petrified auto-fail
			// strength and dexterity saves.
			if p.Incapacitated() && physicalSave(condition.SaveAbility) {
				removed = false
			}
			attempt := SaveAttempt{
				ParticipantID: p.ID,
				ConditionID:   condition.ID,
				ConditionType: condition.Type,
				Ability:       condition.SaveAbility,
				DC:            condition.SaveDC,
				Total:         roll.Total,
				Removed:       removed,
			}
			saves = append(saves, attempt)
			if attempt.Removed {
				continue
			}
		}
		kept = append(kept, condition)
	}
	p.Conditions = kept
	return ticks, saves
}

func physicalSave(ability string) bool {
	return ability == "str" || ability == "dex"
}

// applyOngoingEffect resolves one damage or healing tick.
func (e *Encounter) applyOngoingEffect(p *Participant, condition Condition, effect OngoingEffect) EffectTick {
	amount := effect.Amount
	if effect.Dice != "" {
		if rolled, err := e.stream.RollExpr(effect.Dice); err == nil {
			amount = rolled.Total
		}
	}

	switch effect.Type {
	case "healing":
		healed := min(amount, p.MaxHP-p.HP)
		p.HP += healed
		if p.HP > 0 {
			p.Defeated = false
		}
		amount = healed
	default:
		amount = p.EffectiveDamage(amount, effect.DamageType)
		e.applyDamage(p, amount)
	}

	return EffectTick{
		ParticipantID: p.ID,
		ConditionID:   condition.ID,
		ConditionType: condition.Type,
		Effect:        effect.Type,
		Amount:        amount,
		HPAfter:       p.HP,
	}
}

// ApplyCondition validates and attaches a condition to a participant.
func (e *Encounter) ApplyCondition(targetID string, condition Condition) (Condition, error) {
	if err := e.requireActive(); err != nil {
		return Condition{}, err
	}
	target, err := e.Participant(targetID)
	if err != nil {
		return Condition{}, err
	}
	if err := condition.Validate(); err != nil {
		return Condition{}, err
	}
	if condition.ID == "" {
		condition.ID = id.FromBytes(e.idStream.Bytes16())
	}
	target.Conditions = append(target.Conditions, condition)
	if target.SpeedZero() {
		target.MovementRemaining = 0
	}
	// An incapacitating condition ends any concentration the target holds.
	if target.Incapacitated() {
		e.BreakConcentration(target.ID)
	}
	return condition, nil
}

// RemoveCondition detaches a condition by id.
func (e *Encounter) RemoveCondition(targetID, conditionID string) error {
	target, err := e.Participant(targetID)
	if err != nil {
		return err
	}
	for i, condition := range target.Conditions {
		if condition.ID == conditionID {
			target.Conditions = append(target.Conditions[:i], target.Conditions[i+1:]...)
			return nil
		}
	}
	return apperr.New(apperr.CodeNotFound, "condition %q is not on %s", conditionID, target.Name)
}

// ParticipantHP is the end-of-encounter hp summary for one participant.
type ParticipantHP struct {
	ParticipantID string `json:"participantId"`
	SourceID      string `json:"sourceId,omitempty"`
	Name          string `json:"name"`
	HP            int    `json:"hp"`
	MaxHP         int    `json:"maxHp"`
	Defeated      bool   `json:"defeated"`
}

// End marks the encounter completed and returns the final hp of every
// participant for synchronisation back to source characters. Auras and
// concentration are cleared.
func (e *Encounter) End() ([]ParticipantHP, error) {
	if e.Status == StatusCompleted {
		return nil, apperr.New(apperr.CodeState, "encounter %s is already completed", e.ID)
	}
	e.Status = StatusCompleted
	e.auras = nil
	e.concentration = map[string]string{}

	summary := make([]ParticipantHP, 0, len(e.participants))
	for _, p := range e.participants {
		summary = append(summary, ParticipantHP{
			ParticipantID: p.ID,
			SourceID:      p.SourceID,
			Name:          p.Name,
			HP:            p.HP,
			MaxHP:         p.MaxHP,
			Defeated:      p.Defeated,
		})
	}
	return summary, nil
}
