// Package combat implements the deterministic combat engine: initiative,
// turn and round progression, action economy, attack/heal/move resolution,
// conditions, opportunity attacks, concentration and auras.
//
// The engine is the sole authority over participant mutation. Every fallible
// operation validates before it mutates, so a typed failure never leaves an
// encounter half-changed.
package combat

import (
	"strings"

	"github.com/arvenwood/loomfall/internal/spatial"
)

// DefaultMovementSpeed is the per-turn movement budget in feet when a
// participant does not specify one.
const DefaultMovementSpeed = 30

// Participant is the in-encounter shadow of a character. Its lifetime is
// bounded by the encounter; hp synchronises back to the source character when
// the encounter ends.
type Participant struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SourceID        string `json:"sourceId,omitempty"`
	InitiativeBonus int    `json:"initiativeBonus"`
	Initiative     int  `json:"initiative"`
	IsEnemy        bool `json:"isEnemy"`
	HP             int  `json:"hp"`
	MaxHP          int  `json:"maxHp"`
	ArmorClass     int  `json:"ac"`

	Conditions []Condition       `json:"conditions"`
	Position   *spatial.Position `json:"position,omitempty"`

	MovementSpeed     int `json:"movementSpeed"`
	MovementRemaining int `json:"movementRemaining"`

	ActionUsed          bool `json:"actionUsed"`
	BonusActionUsed     bool `json:"bonusActionUsed"`
	ReactionUsed        bool `json:"reactionUsed"`
	HasDashed           bool `json:"hasDashed"`
	HasDisengaged       bool `json:"hasDisengaged"`
	FreeInteractionUsed bool `json:"freeInteractionUsed"`

	// AttackBonus and DamageDice are the participant's standard attack,
	// used for opportunity attacks.
	AttackBonus int    `json:"attackBonus"`
	DamageDice  string `json:"damageDice,omitempty"`

	// SaveModifiers maps ability names (str, dex, con, ...) to saving-throw
	// modifiers, used for save-ends conditions and concentration checks.
	SaveModifiers map[string]int `json:"saveModifiers,omitempty"`

	Resistances     []string `json:"resistances,omitempty"`
	Vulnerabilities []string `json:"vulnerabilities,omitempty"`
	Immunities      []string `json:"immunities,omitempty"`

	Defeated bool `json:"defeated"`
}

// enemyNameMarkers drives the advisory isEnemy fallback. The heuristic only
// applies when the caller omits the flag; callers that care must set it.
var enemyNameMarkers = []string{
	"goblin", "orc", "kobold", "bandit", "skeleton", "zombie", "wolf",
	"cultist", "troll", "ogre", "wraith", "ghoul",
}

// GuessIsEnemy applies the advisory name heuristic.
func GuessIsEnemy(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range enemyNameMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// SaveModifier returns the participant's saving-throw modifier for an
// ability, defaulting to zero.
func (p *Participant) SaveModifier(ability string) int {
	if p.SaveModifiers == nil {
		return 0
	}
	return p.SaveModifiers[strings.ToLower(ability)]
}

// HasCondition reports whether any active condition has the given type.
func (p *Participant) HasCondition(conditionType ConditionType) bool {
	for _, condition := range p.Conditions {
		if condition.Type == conditionType {
			return true
		}
	}
	return false
}

// Incapacitated reports whether the participant can take no actions or
// reactions.
func (p *Participant) Incapacitated() bool {
	return p.Defeated ||
		p.HasCondition(ConditionStunned) ||
		p.HasCondition(ConditionParalyzed) ||
		p.HasCondition(ConditionUnconscious) ||
		p.HasCondition(ConditionPetrified)
}

// SpeedZero reports whether a condition pins the participant in place.
func (p *Participant) SpeedZero() bool {
	return p.HasCondition(ConditionRestrained) || p.HasCondition(ConditionGrappled)
}

// damageScale returns the multiplier bucket for a damage type:
// immune 0, vulnerable 2, resistant halved.
func (p *Participant) damageScale(damageType string) (immune, vulnerable, resistant bool) {
	return containsFold(p.Immunities, damageType),
		containsFold(p.Vulnerabilities, damageType),
		containsFold(p.Resistances, damageType)
}

// EffectiveDamage applies immunity, vulnerability and resistance scaling.
// Vulnerability doubles, resistance halves rounding down, immunity zeroes.
func (p *Participant) EffectiveDamage(raw int, damageType string) int {
	if damageType == "" {
		return raw
	}
	immune, vulnerable, resistant := p.damageScale(damageType)
	switch {
	case immune:
		return 0
	case vulnerable:
		return raw * 2
	case resistant:
		return raw / 2
	default:
		return raw
	}
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

// resetTurnEconomy restores the per-turn budget at the start of the
// participant's own turn. The reaction also refreshes here, making reactions
// once per round.
func (p *Participant) resetTurnEconomy() {
	p.ActionUsed = false
	p.BonusActionUsed = false
	p.ReactionUsed = false
	p.HasDashed = false
	p.HasDisengaged = false
	p.FreeInteractionUsed = false
	if p.SpeedZero() {
		p.MovementRemaining = 0
	} else {
		p.MovementRemaining = p.MovementSpeed
	}
}
