package combat

import (
	"testing"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/spatial"
)

// soloMover builds a single-participant encounter so movement tests control
// the turn unconditionally.
func soloMover(t *testing.T, speed int) (*Encounter, *Participant) {
	t.Helper()
	encounter := newTestEncounter(t, "mover", []*Participant{
		{ID: "scout", Name: "scout", HP: 12, MaxHP: 12, MovementSpeed: speed, Position: pos(0, 0)},
	}, Terrain{})
	mover, _ := encounter.Participant("scout")
	return encounter, mover
}

func TestMovementBudgetInitial(t *testing.T) {
	_, mover := soloMover(t, 40)
	if mover.MovementRemaining != 40 {
		t.Fatalf("expected 40 ft, got %d", mover.MovementRemaining)
	}
}

func TestDashDoublesBudget(t *testing.T) {
	encounter, mover := soloMover(t, 40)
	if err := encounter.Dash("scout"); err != nil {
		t.Fatalf("dash: %v", err)
	}
	if mover.MovementRemaining != 80 {
		t.Fatalf("expected 80 ft after dash, got %d", mover.MovementRemaining)
	}
	if !mover.HasDashed {
		t.Fatal("hasDashed must be set")
	}
	if err := encounter.Dash("scout"); apperr.CodeOf(err) != apperr.CodeActionEconomy {
		t.Fatalf("second dash must fail with ACTION_ECONOMY, got %v", err)
	}
}

func TestMoveSpendsFeet(t *testing.T) {
	encounter, mover := soloMover(t, 40)
	result, err := encounter.Move("scout", spatial.Position{X: 7, Y: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if result.CostFeet != 35 {
		t.Fatalf("expected 35 ft cost, got %d", result.CostFeet)
	}
	if mover.MovementRemaining != 5 {
		t.Fatalf("expected 5 ft remaining, got %d", mover.MovementRemaining)
	}
	if *mover.Position != (spatial.Position{X: 7, Y: 0}) {
		t.Fatalf("position not committed: %v", mover.Position)
	}
}

func TestMoveRejectsInsufficientBudget(t *testing.T) {
	encounter, mover := soloMover(t, 30)
	_, err := encounter.Move("scout", spatial.Position{X: 7, Y: 0})
	if apperr.CodeOf(err) != apperr.CodeMovement {
		t.Fatalf("expected MOVEMENT, got %v", err)
	}
	if *mover.Position != (spatial.Position{X: 0, Y: 0}) {
		t.Fatal("failed move must not change position")
	}
	if mover.MovementRemaining != 30 {
		t.Fatalf("failed move must not spend movement, got %d", mover.MovementRemaining)
	}
}

func TestZeroTileMove(t *testing.T) {
	encounter, mover := soloMover(t, 30)
	result, err := encounter.Move("scout", spatial.Position{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("zero move: %v", err)
	}
	if result.CostFeet != 0 || len(result.OpportunityAttacks) != 0 {
		t.Fatalf("zero-tile move must be free and provoke nothing: %+v", result)
	}
	if mover.MovementRemaining != 30 {
		t.Fatalf("zero move spent movement: %d", mover.MovementRemaining)
	}
}

func TestDifficultTerrainDoublesCost(t *testing.T) {
	encounter := newTestEncounter(t, "difficult", []*Participant{
		{ID: "scout", Name: "scout", HP: 12, MaxHP: 12, MovementSpeed: 30, Position: pos(0, 0)},
	}, Terrain{
		DifficultTerrain: spatial.NewObstacleSet(spatial.Position{X: 1, Y: 0}, spatial.Position{X: 2, Y: 0}),
	})
	result, err := encounter.Move("scout", spatial.Position{X: 3, Y: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	// Two difficult tiles at 10 ft plus one normal at 5 ft.
	if result.CostFeet != 25 {
		t.Fatalf("expected 25 ft cost, got %d", result.CostFeet)
	}
}

func TestMoveBlockedByObstacles(t *testing.T) {
	encounter := newTestEncounter(t, "blocked", []*Participant{
		{ID: "scout", Name: "scout", HP: 12, MaxHP: 12, MovementSpeed: 30, Position: pos(0, 0)},
	}, Terrain{Obstacles: spatial.NewObstacleSet(spatial.Position{X: 1, Y: 0})})
	if _, err := encounter.Move("scout", spatial.Position{X: 1, Y: 0}); apperr.CodeOf(err) != apperr.CodeSpatial {
		t.Fatalf("expected SPATIAL, got %v", err)
	}
}

func TestMovementNeverNegativeAndCappedByDash(t *testing.T) {
	encounter, mover := soloMover(t, 40)
	if err := encounter.Dash("scout"); err != nil {
		t.Fatalf("dash: %v", err)
	}
	if mover.MovementRemaining > 2*mover.MovementSpeed {
		t.Fatalf("budget %d exceeds twice speed", mover.MovementRemaining)
	}
	if _, err := encounter.Move("scout", spatial.Position{X: 16, Y: 0}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if mover.MovementRemaining < 0 {
		t.Fatalf("movement remaining went negative: %d", mover.MovementRemaining)
	}
}

func TestOpportunityAttackTriggers(t *testing.T) {
	participants := []*Participant{
		{ID: "hero", Name: "hero", HP: 30, MaxHP: 30, IsEnemy: false, Position: pos(0, 0), MovementSpeed: 30},
		{ID: "ogre", Name: "ogre", HP: 20, MaxHP: 20, IsEnemy: true, Position: pos(1, 0), AttackBonus: 4, DamageDice: "1d6"},
	}
	encounter := newTestEncounter(t, "oa", participants, Terrain{})
	for encounter.TurnOrder[encounter.CurrentTurnIndex] != "hero" {
		if _, err := encounter.AdvanceTurn(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	result, err := encounter.Move("hero", spatial.Position{X: 4, Y: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(result.OpportunityAttacks) != 1 {
		t.Fatalf("expected one opportunity attack, got %d", len(result.OpportunityAttacks))
	}
	ogre, _ := encounter.Participant("ogre")
	if !ogre.ReactionUsed {
		t.Fatal("opportunity attack must consume the reaction")
	}

	// A second pass out of reach provokes nothing further this round.
	back, err := encounter.Move("hero", spatial.Position{X: 5, Y: 0})
	if err != nil {
		t.Fatalf("second move: %v", err)
	}
	if len(back.OpportunityAttacks) != 0 {
		t.Fatal("exhausted reaction must not attack again")
	}
}

func TestDisengageSuppressesOpportunityAttacks(t *testing.T) {
	participants := []*Participant{
		{ID: "hero", Name: "hero", HP: 30, MaxHP: 30, IsEnemy: false, Position: pos(0, 0), MovementSpeed: 30},
		{ID: "ogre", Name: "ogre", HP: 20, MaxHP: 20, IsEnemy: true, Position: pos(1, 0), AttackBonus: 4},
	}
	encounter := newTestEncounter(t, "disengage", participants, Terrain{})
	for encounter.TurnOrder[encounter.CurrentTurnIndex] != "hero" {
		if _, err := encounter.AdvanceTurn(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if err := encounter.Disengage("hero"); err != nil {
		t.Fatalf("disengage: %v", err)
	}
	result, err := encounter.Move("hero", spatial.Position{X: 4, Y: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(result.OpportunityAttacks) != 0 {
		t.Fatal("disengage must suppress opportunity attacks")
	}
}

func TestMoveWithinThreatDoesNotProvoke(t *testing.T) {
	participants := []*Participant{
		{ID: "hero", Name: "hero", HP: 30, MaxHP: 30, IsEnemy: false, Position: pos(0, 0), MovementSpeed: 30},
		{ID: "ogre", Name: "ogre", HP: 20, MaxHP: 20, IsEnemy: true, Position: pos(1, 1), AttackBonus: 4},
	}
	encounter := newTestEncounter(t, "adjacent-move", participants, Terrain{})
	for encounter.TurnOrder[encounter.CurrentTurnIndex] != "hero" {
		if _, err := encounter.AdvanceTurn(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	// Destination remains adjacent to the ogre, so no threatened space is
	// left and nothing triggers.
	result, err := encounter.Move("hero", spatial.Position{X: 1, Y: 0})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(result.OpportunityAttacks) != 0 {
		t.Fatal("moving within threatened space must not provoke")
	}
}
