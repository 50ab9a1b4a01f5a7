package combat

import (
	"testing"

	"github.com/arvenwood/loomfall/internal/apperr"
)

func soloWithCondition(t *testing.T, condition Condition) (*Encounter, *Participant, Condition) {
	t.Helper()
	encounter := newTestEncounter(t, "conditions", []*Participant{
		{ID: "subject", Name: "subject", HP: 20, MaxHP: 20, Position: pos(0, 0)},
	}, Terrain{})
	applied, err := encounter.ApplyCondition("subject", condition)
	if err != nil {
		t.Fatalf("apply condition: %v", err)
	}
	subject, _ := encounter.Participant("subject")
	return encounter, subject, applied
}

func TestConditionValidation(t *testing.T) {
	encounter := newTestEncounter(t, "invalid-conditions", []*Participant{
		{ID: "subject", Name: "subject", HP: 20, MaxHP: 20},
	}, Terrain{})

	tests := []struct {
		name      string
		condition Condition
	}{
		{"unknown type", Condition{Type: "dizzy", DurationType: DurationPermanent}},
		{"rounds without duration", Condition{Type: ConditionProne, DurationType: DurationRounds}},
		{"save ends without dc", Condition{Type: ConditionPoisoned, DurationType: DurationSaveEnds, SaveAbility: "con"}},
		{"save ends without ability", Condition{Type: ConditionPoisoned, DurationType: DurationSaveEnds, SaveDC: 12}},
		{"bad ongoing effect", Condition{Type: ConditionPoisoned, DurationType: DurationPermanent,
			OngoingEffects: []OngoingEffect{{Trigger: TriggerStartOfTurn, Type: "levitation", Amount: 2}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := encounter.ApplyCondition("subject", tc.condition); apperr.CodeOf(err) != apperr.CodeValidation {
				t.Fatalf("expected VALIDATION, got %v", err)
			}
		})
	}
}

func TestEndOfTurnConditionExpires(t *testing.T) {
	encounter, subject, _ := soloWithCondition(t, Condition{
		Type: ConditionProne, DurationType: DurationEndOfTurn,
	})
	if !subject.HasCondition(ConditionProne) {
		t.Fatal("condition not applied")
	}
	if _, err := encounter.AdvanceTurn(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if subject.HasCondition(ConditionProne) {
		t.Fatal("end-of-turn condition must expire at end of turn")
	}
}

func TestStartOfTurnConditionExpiresAfterEffects(t *testing.T) {
	encounter, subject, _ := soloWithCondition(t, Condition{
		Type: ConditionPoisoned, DurationType: DurationStartOfTurn,
		OngoingEffects: []OngoingEffect{{Trigger: TriggerStartOfTurn, Type: "damage", Amount: 3}},
	})
	transition, err := encounter.AdvanceTurn()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(transition.StartOfTurnTicks) != 1 {
		t.Fatalf("expected one start-of-turn tick, got %d", len(transition.StartOfTurnTicks))
	}
	if transition.StartOfTurnTicks[0].Amount != 3 {
		t.Fatalf("expected 3 damage, got %d", transition.StartOfTurnTicks[0].Amount)
	}
	if subject.HP != 17 {
		t.Fatalf("expected 17 hp, got %d", subject.HP)
	}
	if subject.HasCondition(ConditionPoisoned) {
		t.Fatal("start-of-turn condition must drop after processing")
	}
}

func TestRoundsConditionCountsDown(t *testing.T) {
	encounter, subject, _ := soloWithCondition(t, Condition{
		Type: ConditionBlinded, DurationType: DurationRounds, Duration: 2,
	})
	if _, err := encounter.AdvanceTurn(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !subject.HasCondition(ConditionBlinded) {
		t.Fatal("condition must survive the first round boundary")
	}
	if _, err := encounter.AdvanceTurn(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if subject.HasCondition(ConditionBlinded) {
		t.Fatal("condition must expire when the counter hits zero")
	}
}

func TestSaveEndsRollsAtEndOfTurn(t *testing.T) {
	encounter, subject, applied := soloWithCondition(t, Condition{
		Type: ConditionPoisoned, DurationType: DurationSaveEnds,
		SaveDC: 10, SaveAbility: "con",
	})
	transition, err := encounter.AdvanceTurn()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(transition.SaveAttempts) != 1 {
		t.Fatalf("expected one save attempt, got %d", len(transition.SaveAttempts))
	}
	attempt := transition.SaveAttempts[0]
	if attempt.ConditionID != applied.ID || attempt.DC != 10 || attempt.Ability != "con" {
		t.Fatalf("save attempt mismatch: %+v", attempt)
	}
	if attempt.Removed == subject.HasCondition(ConditionPoisoned) {
		t.Fatal("condition presence must match the save outcome")
	}
}

func TestPermanentConditionPersists(t *testing.T) {
	encounter, subject, applied := soloWithCondition(t, Condition{
		Type: ConditionGrappled, DurationType: DurationPermanent,
	})
	for i := 0; i < 3; i++ {
		if _, err := encounter.AdvanceTurn(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if !subject.HasCondition(ConditionGrappled) {
		t.Fatal("permanent condition must persist")
	}
	if err := encounter.RemoveCondition("subject", applied.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if subject.HasCondition(ConditionGrappled) {
		t.Fatal("explicit removal must clear the condition")
	}
}

func TestGrappledZeroesMovement(t *testing.T) {
	_, subject, _ := soloWithCondition(t, Condition{
		Type: ConditionGrappled, DurationType: DurationPermanent,
	})
	if subject.MovementRemaining != 0 {
		t.Fatalf("grappled participant has %d ft remaining", subject.MovementRemaining)
	}
}

func TestStunnedBlocksActions(t *testing.T) {
	encounter, _, _ := soloWithCondition(t, Condition{
		Type: ConditionStunned, DurationType: DurationPermanent,
	})
	if err := encounter.Dash("subject"); apperr.CodeOf(err) != apperr.CodeActionEconomy {
		t.Fatalf("stunned dash must fail with ACTION_ECONOMY, got %v", err)
	}
}

func TestAttackModeFromConditions(t *testing.T) {
	participants := []*Participant{
		{ID: "att", Name: "att", HP: 10, MaxHP: 10, Position: pos(0, 0)},
		{ID: "def", Name: "def", HP: 10, MaxHP: 10, IsEnemy: true, Position: pos(1, 0)},
	}
	encounter := newTestEncounter(t, "modes", participants, Terrain{})
	attacker, _ := encounter.Participant("att")
	defender, _ := encounter.Participant("def")

	adv, dis := encounter.attackMode(attacker, defender)
	if adv || dis {
		t.Fatalf("clean melee attack must be flat, got adv=%t dis=%t", adv, dis)
	}

	defender.Conditions = append(defender.Conditions, Condition{Type: ConditionProne, DurationType: DurationPermanent})
	adv, _ = encounter.attackMode(attacker, defender)
	if !adv {
		t.Fatal("melee against prone target must have advantage")
	}

	// At range the same prone target imposes disadvantage instead.
	attacker.Position = pos(5, 0)
	adv, dis = encounter.attackMode(attacker, defender)
	if adv || !dis {
		t.Fatal("ranged against prone target must have disadvantage")
	}

	defender.Conditions = nil
	attacker.Conditions = append(attacker.Conditions, Condition{Type: ConditionBlinded, DurationType: DurationPermanent})
	_, dis = encounter.attackMode(attacker, defender)
	if !dis {
		t.Fatal("blinded attacker must have disadvantage")
	}

	attacker.Conditions = []Condition{{Type: ConditionInvisible, DurationType: DurationPermanent}}
	adv, _ = encounter.attackMode(attacker, defender)
	if !adv {
		t.Fatal("invisible attacker must have advantage")
	}
}
