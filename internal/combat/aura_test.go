package combat

import (
	"testing"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/spatial"
)

func auraFixture(t *testing.T) *Encounter {
	t.Helper()
	return newTestEncounter(t, "auras", []*Participant{
		{ID: "cleric", Name: "cleric", HP: 20, MaxHP: 20, IsEnemy: false, Position: pos(0, 0), MovementSpeed: 30},
		{ID: "ally", Name: "ally", HP: 20, MaxHP: 20, IsEnemy: false, Position: pos(1, 0), MovementSpeed: 30},
		{ID: "wight", Name: "wight", HP: 20, MaxHP: 20, IsEnemy: true, Position: pos(9, 9), MovementSpeed: 30},
	}, Terrain{})
}

func TestRegisterAuraValidates(t *testing.T) {
	encounter := auraFixture(t)
	if _, err := encounter.RegisterAura(Aura{OwnerID: "cleric", RadiusFeet: 10}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("missing spell name must fail, got %v", err)
	}
	if _, err := encounter.RegisterAura(Aura{OwnerID: "cleric", SpellName: "ward", RadiusFeet: 0}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("zero radius must fail, got %v", err)
	}
	if _, err := encounter.RegisterAura(Aura{OwnerID: "ghost", SpellName: "ward", RadiusFeet: 10}); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("unknown owner must fail, got %v", err)
	}
}

func TestAuraMembershipTracksTargetFlags(t *testing.T) {
	encounter := auraFixture(t)
	aura, err := encounter.RegisterAura(Aura{
		OwnerID:       "cleric",
		SpellName:     "protective ward",
		RadiusFeet:    10,
		AffectsAllies: true,
	})
	if err != nil {
		t.Fatalf("register aura: %v", err)
	}

	stored := encounter.Auras()[0]
	if stored.ID != aura.ID {
		t.Fatalf("stored aura id mismatch")
	}
	if !stored.inside["ally"] {
		t.Fatal("adjacent ally must be inside a 10-foot aura")
	}
	if stored.inside["cleric"] {
		t.Fatal("aura without affectsSelf must exclude the owner")
	}
	if stored.inside["wight"] {
		t.Fatal("aura without affectsEnemies must exclude enemies")
	}
}

func TestConcentrationReplacesPriorAura(t *testing.T) {
	encounter := auraFixture(t)
	if _, err := encounter.RegisterAura(Aura{
		OwnerID: "cleric", SpellName: "ward", RadiusFeet: 10,
		AffectsAllies: true, RequiresConcentration: true,
	}); err != nil {
		t.Fatalf("register first aura: %v", err)
	}
	if _, err := encounter.RegisterAura(Aura{
		OwnerID: "cleric", SpellName: "flame circle", RadiusFeet: 10,
		AffectsEnemies: true, RequiresConcentration: true,
	}); err != nil {
		t.Fatalf("register second aura: %v", err)
	}

	if len(encounter.Auras()) != 1 {
		t.Fatalf("expected one aura after concentration switch, got %d", len(encounter.Auras()))
	}
	if encounter.Auras()[0].SpellName != "flame circle" {
		t.Fatalf("expected the new aura to survive, got %q", encounter.Auras()[0].SpellName)
	}
	spell, ok := encounter.Concentrating("cleric")
	if !ok || spell != "flame circle" {
		t.Fatalf("expected concentration on flame circle, got %q", spell)
	}
}

func TestDefeatBreaksConcentration(t *testing.T) {
	encounter := auraFixture(t)
	if _, err := encounter.RegisterAura(Aura{
		OwnerID: "cleric", SpellName: "ward", RadiusFeet: 10,
		AffectsAllies: true, RequiresConcentration: true,
	}); err != nil {
		t.Fatalf("register aura: %v", err)
	}

	cleric, _ := encounter.Participant("cleric")
	broke := encounter.applyDamage(cleric, 25)
	if !broke {
		t.Fatal("lethal damage must break concentration")
	}
	if !cleric.Defeated {
		t.Fatal("cleric must be defeated")
	}
	if len(encounter.Auras()) != 0 {
		t.Fatal("breaking concentration must expire owned auras")
	}
	if _, ok := encounter.Concentrating("cleric"); ok {
		t.Fatal("concentration slot must be empty")
	}
}

func TestConcentrationSaveOnDamage(t *testing.T) {
	encounter := auraFixture(t)
	if _, err := encounter.RegisterAura(Aura{
		OwnerID: "cleric", SpellName: "ward", RadiusFeet: 10,
		AffectsAllies: true, RequiresConcentration: true,
	}); err != nil {
		t.Fatalf("register aura: %v", err)
	}

	cleric, _ := encounter.Participant("cleric")
	broke := encounter.applyDamage(cleric, 4)
	_, stillConcentrating := encounter.Concentrating("cleric")
	if broke == stillConcentrating {
		t.Fatal("concentration state must match the save outcome")
	}
	if broke && len(encounter.Auras()) != 0 {
		t.Fatal("a failed save must expire the aura")
	}
}

func TestAuraExitOnMovement(t *testing.T) {
	encounter := auraFixture(t)
	if _, err := encounter.RegisterAura(Aura{
		OwnerID: "cleric", SpellName: "ward", RadiusFeet: 10, AffectsAllies: true,
	}); err != nil {
		t.Fatalf("register aura: %v", err)
	}
	for encounter.TurnOrder[encounter.CurrentTurnIndex] != "ally" {
		if _, err := encounter.AdvanceTurn(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if _, err := encounter.Move("ally", spatial.Position{X: 6, Y: 0}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if encounter.Auras()[0].inside["ally"] {
		t.Fatal("ally left the radius and must no longer be inside")
	}
}
