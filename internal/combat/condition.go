package combat

import (
	"github.com/arvenwood/loomfall/internal/apperr"
)

// ConditionType identifies a combat condition.
type ConditionType string

const (
	ConditionProne       ConditionType = "prone"
	ConditionRestrained  ConditionType = "restrained"
	ConditionStunned     ConditionType = "stunned"
	ConditionParalyzed   ConditionType = "paralyzed"
	ConditionUnconscious ConditionType = "unconscious"
	ConditionPetrified   ConditionType = "petrified"
	ConditionBlinded     ConditionType = "blinded"
	ConditionDeafened    ConditionType = "deafened"
	ConditionFrightened  ConditionType = "frightened"
	ConditionGrappled    ConditionType = "grappled"
	ConditionPoisoned    ConditionType = "poisoned"
	ConditionInvisible   ConditionType = "invisible"
)

// knownConditions lists every applicable condition type.
var knownConditions = []ConditionType{
	ConditionProne, ConditionRestrained, ConditionStunned, ConditionParalyzed,
	ConditionUnconscious, ConditionPetrified, ConditionBlinded,
	ConditionDeafened, ConditionFrightened, ConditionGrappled,
	ConditionPoisoned, ConditionInvisible,
}

// IsValid reports whether the condition type is known.
func (t ConditionType) IsValid() bool {
	for _, known := range knownConditions {
		if t == known {
			return true
		}
	}
	return false
}

// DurationType selects when a condition expires.
type DurationType string

const (
	// DurationRounds expires after a counted number of rounds, decremented
	// at the start of the owner's turn.
	DurationRounds DurationType = "rounds"
	// DurationStartOfTurn expires at the start of the owner's next turn,
	// after its effects fire.
	DurationStartOfTurn DurationType = "start_of_turn"
	// DurationEndOfTurn expires at the end of the owner's turn.
	DurationEndOfTurn DurationType = "end_of_turn"
	// DurationSaveEnds rolls a save at the end of the owner's turn; success
	// removes the condition.
	DurationSaveEnds DurationType = "save_ends"
	// DurationPermanent persists until explicitly removed.
	DurationPermanent DurationType = "permanent"
)

// EffectTrigger selects when an ongoing effect fires.
type EffectTrigger string

const (
	TriggerStartOfTurn EffectTrigger = "start_of_turn"
	TriggerEndOfTurn   EffectTrigger = "end_of_turn"
)

// OngoingEffect is periodic damage or healing attached to a condition.
// Either Amount or Dice supplies the magnitude.
type OngoingEffect struct {
	Trigger EffectTrigger `json:"trigger"`
	Type    string        `json:"type"`
	Amount  int           `json:"amount,omitempty"`
	Dice    string        `json:"dice,omitempty"`
	// DamageType scopes resistance scaling for damage effects.
	DamageType string `json:"damageType,omitempty"`
}

// Condition is an active condition on a participant.
type Condition struct {
	ID           string          `json:"id"`
	Type         ConditionType   `json:"type"`
	DurationType DurationType    `json:"durationType"`
	Duration     int             `json:"duration,omitempty"`
	SaveDC       int             `json:"saveDC,omitempty"`
	SaveAbility  string          `json:"saveAbility,omitempty"`
	// SourceID is the participant that inflicted the condition; frightened
	// uses it for line-of-sight checks.
	SourceID       string          `json:"sourceId,omitempty"`
	OngoingEffects []OngoingEffect `json:"ongoingEffects,omitempty"`
}

// Validate rejects malformed conditions before they are applied.
func (c Condition) Validate() error {
	if !c.Type.IsValid() {
		return apperr.New(apperr.CodeValidation, "condition type %q is unknown", c.Type)
	}
	switch c.DurationType {
	case DurationRounds:
		if c.Duration < 1 {
			return apperr.New(apperr.CodeValidation, "round-based condition needs a positive duration")
		}
	case DurationSaveEnds:
		if c.SaveDC < 1 {
			return apperr.New(apperr.CodeValidation, "save-ends condition needs a save DC")
		}
		if c.SaveAbility == "" {
			return apperr.New(apperr.CodeValidation, "save-ends condition needs a save ability")
		}
	case DurationStartOfTurn, DurationEndOfTurn, DurationPermanent:
	default:
		return apperr.New(apperr.CodeValidation, "condition duration type %q is unknown", c.DurationType)
	}
	for _, effect := range c.OngoingEffects {
		if effect.Type != "damage" && effect.Type != "healing" {
			return apperr.New(apperr.CodeValidation, "ongoing effect type %q is unknown", effect.Type)
		}
		if effect.Trigger != TriggerStartOfTurn && effect.Trigger != TriggerEndOfTurn {
			return apperr.New(apperr.CodeValidation, "ongoing effect trigger %q is unknown", effect.Trigger)
		}
		if effect.Amount <= 0 && effect.Dice == "" {
			return apperr.New(apperr.CodeValidation, "ongoing effect needs an amount or dice")
		}
	}
	return nil
}
