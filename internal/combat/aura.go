package combat

import (
	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/id"
	"github.com/arvenwood/loomfall/internal/spatial"
)

// AuraTrigger selects when an aura effect fires.
type AuraTrigger string

const (
	AuraOnEnter       AuraTrigger = "enter"
	AuraOnExit        AuraTrigger = "exit"
	AuraOnStartOfTurn AuraTrigger = "start_of_turn"
	AuraOnEndOfTurn   AuraTrigger = "end_of_turn"
)

// AuraEffect is one effect an aura applies to participants inside it.
// A positive SaveDC lets the target negate the effect with a save.
type AuraEffect struct {
	Trigger     AuraTrigger `json:"trigger"`
	Type        string      `json:"type"` // damage or healing
	Amount      int         `json:"amount,omitempty"`
	Dice        string      `json:"dice,omitempty"`
	DamageType  string      `json:"damageType,omitempty"`
	SaveDC      int         `json:"saveDC,omitempty"`
	SaveAbility string      `json:"saveAbility,omitempty"`
}

// Aura is a persistent area effect owned by a participant.
type Aura struct {
	ID                    string       `json:"id"`
	OwnerID               string       `json:"ownerId"`
	SpellName             string       `json:"spellName"`
	SpellLevel            int          `json:"spellLevel"`
	RadiusFeet            int          `json:"radius"`
	AffectsSelf           bool         `json:"affectsSelf"`
	AffectsAllies         bool         `json:"affectsAllies"`
	AffectsEnemies        bool         `json:"affectsEnemies"`
	Effects               []AuraEffect `json:"effects,omitempty"`
	RequiresConcentration bool         `json:"requiresConcentration"`
	StartedRound          int          `json:"startedRound"`
	MaxDurationRounds     int          `json:"maxDuration,omitempty"`

	// inside tracks membership between reevaluations for enter/exit
	// triggers, keyed by participant id.
	inside map[string]bool
}

// RegisterAura attaches an aura to its owner. A concentration aura first
// claims the owner's concentration slot, breaking any prior effect.
func (e *Encounter) RegisterAura(aura Aura) (Aura, error) {
	if err := e.requireActive(); err != nil {
		return Aura{}, err
	}
	owner, err := e.Participant(aura.OwnerID)
	if err != nil {
		return Aura{}, err
	}
	if aura.SpellName == "" {
		return Aura{}, apperr.New(apperr.CodeValidation, "aura needs a spell name")
	}
	if aura.RadiusFeet <= 0 {
		return Aura{}, apperr.New(apperr.CodeValidation, "aura radius must be positive")
	}
	if aura.RequiresConcentration {
		e.StartConcentration(owner.ID, aura.SpellName)
	}
	if aura.ID == "" {
		aura.ID = id.FromBytes(e.idStream.Bytes16())
	}
	aura.StartedRound = e.Round
	aura.inside = map[string]bool{}

	stored := aura
	e.auras = append(e.auras, &stored)
	e.reevaluateAuras()
	return stored, nil
}

// Auras returns the active auras in registration order.
func (e *Encounter) Auras() []*Aura { return e.auras }

// StartConcentration claims the owner's single concentration slot, ending
// the previous concentration effect and its auras.
func (e *Encounter) StartConcentration(ownerID, spellName string) {
	if prior, ok := e.concentration[ownerID]; ok && prior != spellName {
		e.BreakConcentration(ownerID)
	}
	e.concentration[ownerID] = spellName
}

// BreakConcentration ends the owner's concentration and expires every aura
// held by it. Destruction cascades by (owner, spell) enumeration; there are
// no back-pointers.
func (e *Encounter) BreakConcentration(ownerID string) {
	spell, ok := e.concentration[ownerID]
	if !ok {
		return
	}
	delete(e.concentration, ownerID)

	kept := e.auras[:0]
	for _, aura := range e.auras {
		if aura.RequiresConcentration && aura.OwnerID == ownerID && aura.SpellName == spell {
			continue
		}
		kept = append(kept, aura)
	}
	e.auras = kept
}

// affects reports whether the aura targets a participant, honoring the
// self/ally/enemy flags relative to the owner.
func (a *Aura) affects(owner, target *Participant) bool {
	if target.ID == owner.ID {
		return a.AffectsSelf
	}
	if target.IsEnemy == owner.IsEnemy {
		return a.AffectsAllies
	}
	return a.AffectsEnemies
}

// reevaluateAuras recomputes aura membership after movement or a turn
// boundary, firing enter and exit effects for the deltas. Participants are
// visited in turn order so results are deterministic.
func (e *Encounter) reevaluateAuras() {
	for _, aura := range e.auras {
		owner, err := e.Participant(aura.OwnerID)
		if err != nil || owner.Position == nil {
			continue
		}
		for _, participantID := range e.TurnOrder {
			target := e.mustParticipant(participantID)
			inside := target.Position != nil &&
				!target.Defeated &&
				aura.affects(owner, target) &&
				spatial.InSphere(*owner.Position, *target.Position, aura.RadiusFeet)

			was := aura.inside[participantID]
			switch {
			case inside && !was:
				aura.inside[participantID] = true
				e.fireAuraEffects(aura, target, AuraOnEnter, nil)
			case !inside && was:
				delete(aura.inside, participantID)
				e.fireAuraEffects(aura, target, AuraOnExit, nil)
			}
		}
	}
}

// fireAuraTurnTriggers fires start/end-of-turn aura effects for one
// participant's turn boundary.
func (e *Encounter) fireAuraTurnTriggers(participantID string, trigger EffectTrigger, ticks *[]EffectTick) {
	auraTrigger := AuraOnStartOfTurn
	if trigger == TriggerEndOfTurn {
		auraTrigger = AuraOnEndOfTurn
	}
	for _, aura := range e.auras {
		if !aura.inside[participantID] {
			continue
		}
		target, err := e.Participant(participantID)
		if err != nil {
			continue
		}
		e.fireAuraEffects(aura, target, auraTrigger, ticks)
	}
}

// fireAuraEffects applies every matching effect, with optional save-negates.
func (e *Encounter) fireAuraEffects(aura *Aura, target *Participant, trigger AuraTrigger, ticks *[]EffectTick) {
	for _, effect := range aura.Effects {
		if effect.Trigger != trigger {
			continue
		}
		if effect.SaveDC > 0 {
			roll := e.stream.D20(target.SaveModifier(effect.SaveAbility))
			if roll.Total >= effect.SaveDC {
				continue
			}
		}

		amount := effect.Amount
		if effect.Dice != "" {
			if rolled, err := e.stream.RollExpr(effect.Dice); err == nil {
				amount = rolled.Total
			}
		}

		if effect.Type == "healing" {
			healed := min(amount, target.MaxHP-target.HP)
			target.HP += healed
			amount = healed
		} else {
			amount = target.EffectiveDamage(amount, effect.DamageType)
			e.applyDamage(target, amount)
		}

		if ticks != nil {
			*ticks = append(*ticks, EffectTick{
				ParticipantID: target.ID,
				Effect:        aura.SpellName,
				Amount:        amount,
				HPAfter:       target.HP,
			})
		}
	}
}
