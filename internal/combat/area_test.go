package combat

import (
	"testing"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/spatial"
)

func areaFixture(t *testing.T) *Encounter {
	t.Helper()
	return newTestEncounter(t, "area", []*Participant{
		{ID: "mage", Name: "mage", HP: 15, MaxHP: 15, Position: pos(0, 0)},
		{ID: "near", Name: "near", HP: 15, MaxHP: 15, IsEnemy: true, Position: pos(2, 0)},
		{ID: "far", Name: "far", HP: 15, MaxHP: 15, IsEnemy: true, Position: pos(8, 0)},
		{ID: "side", Name: "side", HP: 15, MaxHP: 15, IsEnemy: true, Position: pos(0, 3)},
	}, Terrain{})
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func TestSphereExcludesSelfByDefault(t *testing.T) {
	encounter := areaFixture(t)
	inside, err := encounter.ParticipantsInArea(AreaQuery{
		Shape: ShapeSphere, Origin: spatial.Position{X: 0, Y: 0},
		SizeFeet: 15, SelfID: "mage",
	})
	if err != nil {
		t.Fatalf("area query: %v", err)
	}
	if contains(inside, "mage") {
		t.Fatal("self excluded by default")
	}
	if !contains(inside, "near") || !contains(inside, "side") {
		t.Fatalf("expected near and side inside, got %v", inside)
	}
	if contains(inside, "far") {
		t.Fatal("far target outside a 15-foot sphere")
	}
}

func TestSphereIncludesSelfOnRequest(t *testing.T) {
	encounter := areaFixture(t)
	inside, err := encounter.ParticipantsInArea(AreaQuery{
		Shape: ShapeSphere, Origin: spatial.Position{X: 0, Y: 0},
		SizeFeet: 15, SelfID: "mage", IncludeSelf: true,
	})
	if err != nil {
		t.Fatalf("area query: %v", err)
	}
	if !contains(inside, "mage") {
		t.Fatal("includeSelf must keep the caster")
	}
}

func TestConeSelectsForwardTargets(t *testing.T) {
	encounter := areaFixture(t)
	inside, err := encounter.ParticipantsInArea(AreaQuery{
		Shape: ShapeCone, Origin: spatial.Position{X: 0, Y: 0},
		Direction: spatial.Position{X: 1, Y: 0}, SizeFeet: 30,
	})
	if err != nil {
		t.Fatalf("area query: %v", err)
	}
	if !contains(inside, "near") {
		t.Fatalf("target straight ahead must be in the cone, got %v", inside)
	}
	if contains(inside, "side") {
		t.Fatal("perpendicular target must be outside the cone")
	}
}

func TestLineSelectsAlongAxis(t *testing.T) {
	encounter := areaFixture(t)
	inside, err := encounter.ParticipantsInArea(AreaQuery{
		Shape: ShapeLine, Origin: spatial.Position{X: 0, Y: 0},
		Direction: spatial.Position{X: 1, Y: 0}, SizeFeet: 45, WidthFeet: 5,
	})
	if err != nil {
		t.Fatalf("area query: %v", err)
	}
	if !contains(inside, "near") || !contains(inside, "far") {
		t.Fatalf("both axis targets within 45 feet must be inside, got %v", inside)
	}
	if contains(inside, "side") {
		t.Fatal("off-axis target must be outside the line")
	}
}

func TestAreaQueryValidation(t *testing.T) {
	encounter := areaFixture(t)
	if _, err := encounter.ParticipantsInArea(AreaQuery{Shape: ShapeSphere}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("zero size must fail, got %v", err)
	}
	if _, err := encounter.ParticipantsInArea(AreaQuery{Shape: "donut", SizeFeet: 10}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("unknown shape must fail, got %v", err)
	}
}
