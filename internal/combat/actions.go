package combat

import (
	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/core/check"
	"github.com/arvenwood/loomfall/internal/core/dice"
	"github.com/arvenwood/loomfall/internal/spatial"
)

// ActionKind identifies an action economy slot.
type ActionKind string

const (
	ActionAction   ActionKind = "action"
	ActionBonus    ActionKind = "bonus_action"
	ActionReaction ActionKind = "reaction"
)

// CanTakeAction validates that a participant may spend the given slot now:
// it must be their turn (reactions excepted), the slot must be unspent, and
// no incapacitating condition may block it.
func (e *Encounter) CanTakeAction(participantID string, kind ActionKind) error {
	if err := e.requireActive(); err != nil {
		return err
	}
	p, err := e.Participant(participantID)
	if err != nil {
		return err
	}
	if p.Incapacitated() {
		return apperr.New(apperr.CodeActionEconomy, "%s is incapacitated", p.Name)
	}
	if kind != ActionReaction && e.TurnOrder[e.CurrentTurnIndex] != participantID {
		return apperr.New(apperr.CodeActionEconomy, "it is not %s's turn", p.Name)
	}
	switch kind {
	case ActionAction:
		if p.ActionUsed {
			return apperr.New(apperr.CodeActionEconomy, "%s has already used an action this turn", p.Name)
		}
	case ActionBonus:
		if p.BonusActionUsed {
			return apperr.New(apperr.CodeActionEconomy, "%s has already used a bonus action this turn", p.Name)
		}
	case ActionReaction:
		if p.ReactionUsed {
			return apperr.New(apperr.CodeActionEconomy, "%s has already used a reaction this round", p.Name)
		}
	default:
		return apperr.New(apperr.CodeValidation, "action kind %q is unknown", kind)
	}
	return nil
}

// AttackParams describes an attack to resolve.
type AttackParams struct {
	AttackerID   string `json:"attackerId"`
	TargetID     string `json:"targetId"`
	AttackBonus  int    `json:"attackBonus"`
	DC           int    `json:"dc"`
	Damage       int    `json:"damage,omitempty"`
	DamageDice   string `json:"damageDice,omitempty"`
	DamageType   string `json:"damageType,omitempty"`
	Advantage    bool   `json:"advantage,omitempty"`
	Disadvantage bool   `json:"disadvantage,omitempty"`
}

// AttackResult traces an attack end to end.
type AttackResult struct {
	AttackerID          string           `json:"attackerId"`
	TargetID            string           `json:"targetId"`
	Roll                dice.D20Result   `json:"roll"`
	Degree              check.Degree     `json:"degree"`
	Hit                 bool             `json:"hit"`
	Critical            bool             `json:"critical"`
	DamageRolled        int              `json:"damageRolled"`
	DamageDealt         int              `json:"damageDealt"`
	DamageType          string           `json:"damageType,omitempty"`
	DamageTrace         *dice.ExprResult `json:"damageTrace,omitempty"`
	TargetHPBefore      int              `json:"targetHpBefore"`
	TargetHPAfter       int              `json:"targetHpAfter"`
	TargetDefeated      bool             `json:"targetDefeated"`
	ConcentrationBroken bool             `json:"concentrationBroken,omitempty"`
	Opportunity         bool             `json:"opportunity,omitempty"`
}

// Attack resolves a standard attack action.
func (e *Encounter) Attack(params AttackParams) (AttackResult, error) {
	if err := e.CanTakeAction(params.AttackerID, ActionAction); err != nil {
		return AttackResult{}, err
	}
	if _, err := e.Participant(params.TargetID); err != nil {
		return AttackResult{}, err
	}
	attacker := e.mustParticipant(params.AttackerID)
	attacker.ActionUsed = true
	return e.resolveAttack(params, false), nil
}

// resolveAttack rolls, classifies and applies damage. Validation is the
// caller's responsibility; resolution itself cannot fail.
func (e *Encounter) resolveAttack(params AttackParams, opportunity bool) AttackResult {
	attacker := e.mustParticipant(params.AttackerID)
	target := e.mustParticipant(params.TargetID)

	advantage, disadvantage := e.attackMode(attacker, target)
	advantage = advantage || params.Advantage
	disadvantage = disadvantage || params.Disadvantage

	roll := e.stream.D20WithMode(params.AttackBonus, advantage, disadvantage)
	degree := check.Classify(roll, params.DC)

	result := AttackResult{
		AttackerID:     params.AttackerID,
		TargetID:       params.TargetID,
		Roll:           roll,
		Degree:         degree,
		Critical:       degree == check.DegreeCriticalSuccess,
		DamageType:     params.DamageType,
		TargetHPBefore: target.HP,
		TargetHPAfter:  target.HP,
		Opportunity:    opportunity,
	}
	if !degree.IsSuccess() {
		return result
	}
	result.Hit = true

	raw := params.Damage
	if params.DamageDice != "" {
		expr, err := dice.ParseExpr(params.DamageDice)
		if err == nil {
			// A critical hit doubles the damage dice, never the flat
			// modifier.
			if result.Critical {
				expr.Count *= 2
			}
			trace := e.stream.RollParsed(expr)
			result.DamageTrace = &trace
			raw = trace.Total
		}
	} else if result.Critical {
		raw *= 2
	}
	result.DamageRolled = raw

	dealt := target.EffectiveDamage(raw, params.DamageType)
	result.DamageDealt = dealt
	result.ConcentrationBroken = e.applyDamage(target, dealt)
	result.TargetHPAfter = target.HP
	result.TargetDefeated = target.Defeated
	return result
}

// applyDamage mutates hp, marks defeat and forces a concentration save.
// It reports whether concentration broke.
func (e *Encounter) applyDamage(target *Participant, damage int) bool {
	if damage <= 0 {
		return false
	}
	target.HP -= damage
	if target.HP <= 0 {
		target.HP = 0
		target.Defeated = true
	}

	broke := false
	if _, concentrating := e.concentration[target.ID]; concentrating {
		if target.Defeated {
			broke = true
		} else {
			dc := max(10, damage/2)
			save := e.stream.D20(target.SaveModifier("con"))
			if !check.Classify(save, dc).IsSuccess() {
				broke = true
			}
		}
		if broke {
			e.BreakConcentration(target.ID)
		}
	}
	return broke
}

// attackMode derives advantage and disadvantage from the condition table.
// Both flags may be set; the dice layer cancels them.
func (e *Encounter) attackMode(attacker, target *Participant) (advantage, disadvantage bool) {
	melee := true
	if attacker.Position != nil && target.Position != nil {
		melee = spatial.Adjacent(*attacker.Position, *target.Position)
	}

	if attacker.HasCondition(ConditionProne) ||
		attacker.HasCondition(ConditionRestrained) ||
		attacker.HasCondition(ConditionBlinded) ||
		attacker.HasCondition(ConditionPoisoned) {
		disadvantage = true
	}
	if attacker.HasCondition(ConditionInvisible) {
		advantage = true
	}
	if e.frightenedBySourceInSight(attacker) {
		disadvantage = true
	}

	if target.HasCondition(ConditionProne) {
		if melee {
			advantage = true
		} else {
			disadvantage = true
		}
	}
	if target.HasCondition(ConditionRestrained) ||
		target.HasCondition(ConditionBlinded) ||
		target.Incapacitated() {
		advantage = true
	}
	if target.HasCondition(ConditionInvisible) {
		disadvantage = true
	}
	return advantage, disadvantage
}

// frightenedBySourceInSight reports whether a frightened condition's source
// is visible to the participant.
func (e *Encounter) frightenedBySourceInSight(p *Participant) bool {
	for _, condition := range p.Conditions {
		if condition.Type != ConditionFrightened {
			continue
		}
		source, err := e.Participant(condition.SourceID)
		if err != nil || source.Defeated {
			continue
		}
		if p.Position == nil || source.Position == nil {
			return true
		}
		if spatial.LineOfSight(*p.Position, *source.Position, e.Terrain.Obstacles) {
			return true
		}
	}
	return false
}

// HealResult traces a heal action.
type HealResult struct {
	ActorID   string `json:"actorId"`
	TargetID  string `json:"targetId"`
	Requested int    `json:"requested"`
	Healed    int    `json:"healed"`
	Wasted    int    `json:"wasted"`
	HPBefore  int    `json:"hpBefore"`
	HPAfter   int    `json:"hpAfter"`
}

// Heal restores hp on a target, clamped to max; overflow is recorded as
// wasted.
func (e *Encounter) Heal(actorID, targetID string, amount int) (HealResult, error) {
	if amount < 0 {
		return HealResult{}, apperr.New(apperr.CodeValidation, "heal amount must not be negative")
	}
	if err := e.CanTakeAction(actorID, ActionAction); err != nil {
		return HealResult{}, err
	}
	target, err := e.Participant(targetID)
	if err != nil {
		return HealResult{}, err
	}

	actor := e.mustParticipant(actorID)
	actor.ActionUsed = true

	before := target.HP
	healed := min(amount, target.MaxHP-target.HP)
	target.HP += healed
	if target.HP > 0 {
		target.Defeated = false
	}
	return HealResult{
		ActorID:   actorID,
		TargetID:  targetID,
		Requested: amount,
		Healed:    healed,
		Wasted:    amount - healed,
		HPBefore:  before,
		HPAfter:   target.HP,
	}, nil
}

// Dash spends the action to add a full movement speed to the remaining
// budget.
func (e *Encounter) Dash(actorID string) error {
	if err := e.CanTakeAction(actorID, ActionAction); err != nil {
		return err
	}
	actor := e.mustParticipant(actorID)
	if actor.HasDashed {
		return apperr.New(apperr.CodeActionEconomy, "%s has already dashed this turn", actor.Name)
	}
	actor.ActionUsed = true
	actor.HasDashed = true
	if !actor.SpeedZero() {
		actor.MovementRemaining += actor.MovementSpeed
	}
	return nil
}

// Disengage spends the action to suppress opportunity attacks until end of
// turn.
func (e *Encounter) Disengage(actorID string) error {
	if err := e.CanTakeAction(actorID, ActionAction); err != nil {
		return err
	}
	actor := e.mustParticipant(actorID)
	actor.ActionUsed = true
	actor.HasDisengaged = true
	return nil
}

// MoveResult traces a movement, including any opportunity attacks resolved
// against the mover.
type MoveResult struct {
	ActorID            string             `json:"actorId"`
	From               spatial.Position   `json:"from"`
	To                 spatial.Position   `json:"to"`
	Path               []spatial.Position `json:"path"`
	CostFeet           int                `json:"costFeet"`
	MovementRemaining  int                `json:"movementRemaining"`
	Halted             bool               `json:"halted"`
	OpportunityAttacks []AttackResult     `json:"opportunityAttacks,omitempty"`
}

// Move relocates a participant, resolving opportunity attacks before the
// position commits.
//
// If an opportunity attack drops the mover to zero hp, the move halts on the
// pre-move tile and no movement is spent.
func (e *Encounter) Move(actorID string, target spatial.Position) (MoveResult, error) {
	if err := e.requireActive(); err != nil {
		return MoveResult{}, err
	}
	actor, err := e.Participant(actorID)
	if err != nil {
		return MoveResult{}, err
	}
	if e.TurnOrder[e.CurrentTurnIndex] != actorID {
		return MoveResult{}, apperr.New(apperr.CodeActionEconomy, "it is not %s's turn", actor.Name)
	}
	if actor.Incapacitated() {
		return MoveResult{}, apperr.New(apperr.CodeActionEconomy, "%s is incapacitated", actor.Name)
	}
	if actor.Position == nil {
		return MoveResult{}, apperr.New(apperr.CodeState, "%s has no position", actor.Name)
	}

	from := *actor.Position
	result := MoveResult{ActorID: actorID, From: from, To: target}

	if from == target {
		// Zero-tile movement succeeds, costs nothing and provokes nothing.
		result.Path = []spatial.Position{from}
		result.MovementRemaining = actor.MovementRemaining
		return result, nil
	}
	if actor.SpeedZero() {
		return MoveResult{}, apperr.New(apperr.CodeMovement, "%s cannot move", actor.Name)
	}

	// Cost prices the direct line; each tile is five feet, difficult
	// terrain ten. Reachability is then checked separately against the
	// obstacle set.
	cost := e.moveCostFeet(spatial.BresenhamLine(from, target))
	if cost > actor.MovementRemaining {
		return MoveResult{}, apperr.New(apperr.CodeMovement,
			"insufficient movement: need %d ft, %d ft remaining", cost, actor.MovementRemaining)
	}

	obstacles := e.obstaclesFor(actorID)
	path, ok := spatial.FindPath(from, target, obstacles)
	if !ok {
		return MoveResult{}, apperr.New(apperr.CodeSpatial, "no path from (%d,%d) to (%d,%d)", from.X, from.Y, target.X, target.Y)
	}
	result.Path = path
	result.CostFeet = cost

	// Opportunity attacks resolve before the position commits.
	if !actor.HasDisengaged {
		for _, attackerID := range e.TurnOrder {
			threat, err := e.Participant(attackerID)
			if err != nil || threat.ID == actorID {
				continue
			}
			if threat.IsEnemy == actor.IsEnemy || threat.Defeated || threat.ReactionUsed || threat.Incapacitated() {
				continue
			}
			if threat.Position == nil {
				continue
			}
			if !spatial.Adjacent(*threat.Position, from) || spatial.Adjacent(*threat.Position, target) {
				continue
			}

			threat.ReactionUsed = true
			oa := e.resolveAttack(AttackParams{
				AttackerID:  threat.ID,
				TargetID:    actorID,
				AttackBonus: threat.AttackBonus,
				DC:          actor.ArmorClass,
				DamageDice:  threat.DamageDice,
			}, true)
			result.OpportunityAttacks = append(result.OpportunityAttacks, oa)

			if actor.Defeated {
				result.Halted = true
				result.To = from
				result.MovementRemaining = actor.MovementRemaining
				return result, nil
			}
		}
	}

	actor.Position = &target
	actor.MovementRemaining -= cost
	result.MovementRemaining = actor.MovementRemaining
	e.reevaluateAuras()
	return result, nil
}

// OpportunityAttack resolves an explicit reaction attack outside movement.
func (e *Encounter) OpportunityAttack(params AttackParams) (AttackResult, error) {
	if err := e.CanTakeAction(params.AttackerID, ActionReaction); err != nil {
		return AttackResult{}, err
	}
	if _, err := e.Participant(params.TargetID); err != nil {
		return AttackResult{}, err
	}
	attacker := e.mustParticipant(params.AttackerID)
	attacker.ReactionUsed = true
	return e.resolveAttack(params, true), nil
}
