package dice

import "testing"

func TestStreamDeterminism(t *testing.T) {
	first := NewStream("seed-1")
	second := NewStream("seed-1")
	for i := 0; i < 100; i++ {
		a := first.D20(3)
		b := second.D20(3)
		if a.Roll != b.Roll || a.Total != b.Total {
			t.Fatalf("call %d diverged: %+v vs %+v", i, a, b)
		}
	}
}

func TestStreamForkIndependence(t *testing.T) {
	root := NewStream("seed-2")
	forked := root.Fork("temp")

	// Draining the fork must not perturb the root stream.
	for i := 0; i < 50; i++ {
		forked.Intn(100)
	}
	fromRoot := root.D20(0)

	control := NewStream("seed-2").D20(0)
	if fromRoot.Roll != control.Roll {
		t.Fatalf("fork perturbed root: got %d, expected %d", fromRoot.Roll, control.Roll)
	}
}

func TestForkNamespaceStable(t *testing.T) {
	a := NewStream("S").Fork("battle-3").D20(0)
	b := NewStream("S-battle-3").D20(0)
	if a.Roll != b.Roll {
		t.Fatalf("fork namespace mismatch: %d vs %d", a.Roll, b.Roll)
	}
}

func TestD20Bounds(t *testing.T) {
	stream := NewStream("bounds")
	for i := 0; i < 500; i++ {
		result := stream.D20(2)
		if result.Roll < 1 || result.Roll > 20 {
			t.Fatalf("roll %d outside [1,20]", result.Roll)
		}
		if result.Total != result.Roll+2 {
			t.Fatalf("total %d does not match roll %d + bonus", result.Total, result.Roll)
		}
		if result.Nat20 != (result.Roll == 20) || result.Nat1 != (result.Roll == 1) {
			t.Fatalf("natural flags wrong for roll %d", result.Roll)
		}
	}
}

func TestAdvantageKeepsHigher(t *testing.T) {
	stream := NewStream("advantage")
	for i := 0; i < 200; i++ {
		result := stream.D20Advantage(0)
		if len(result.Rolls) != 2 {
			t.Fatalf("expected two rolls, got %d", len(result.Rolls))
		}
		if result.Roll != max(result.Rolls[0], result.Rolls[1]) {
			t.Fatalf("advantage kept %d from %v", result.Roll, result.Rolls)
		}
	}
}

func TestDisadvantageKeepsLower(t *testing.T) {
	stream := NewStream("disadvantage")
	for i := 0; i < 200; i++ {
		result := stream.D20Disadvantage(0)
		if result.Roll != min(result.Rolls[0], result.Rolls[1]) {
			t.Fatalf("disadvantage kept %d from %v", result.Roll, result.Rolls)
		}
	}
}

func TestBothFlagsCancel(t *testing.T) {
	result := NewStream("cancel").D20WithMode(0, true, true)
	if result.Mode != "flat" {
		t.Fatalf("expected flat mode when both flags set, got %q", result.Mode)
	}
	if len(result.Rolls) != 1 {
		t.Fatalf("expected a single roll, got %v", result.Rolls)
	}
}

func TestRollRejectsInvalidDie(t *testing.T) {
	if _, err := NewStream("x").Roll(0); err != ErrInvalidDie {
		t.Fatalf("expected ErrInvalidDie, got %v", err)
	}
}
