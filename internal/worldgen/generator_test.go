package worldgen

import (
	"testing"

	"github.com/arvenwood/loomfall/internal/apperr"
	"github.com/arvenwood/loomfall/internal/world"
)

func generateOrDie(t *testing.T, params Params) *Result {
	t.Helper()
	result, err := Generate(params)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return result
}

func TestGenerateDeterminism(t *testing.T) {
	params := Params{Seed: "determinism-001", Width: 15, Height: 15}
	first := generateOrDie(t, params)
	second := generateOrDie(t, params)

	if first.World.ID != second.World.ID {
		t.Fatalf("world ids diverged: %s vs %s", first.World.ID, second.World.ID)
	}
	if len(first.Tiles) != len(second.Tiles) {
		t.Fatalf("tile counts diverged: %d vs %d", len(first.Tiles), len(second.Tiles))
	}
	for i := range first.Tiles {
		if first.Tiles[i] != second.Tiles[i] {
			t.Fatalf("tile %d diverged: %+v vs %+v", i, first.Tiles[i], second.Tiles[i])
		}
	}
	if len(first.Structures) != len(second.Structures) {
		t.Fatalf("structure counts diverged")
	}
	for i := range first.Structures {
		if first.Structures[i] != second.Structures[i] {
			t.Fatalf("structure %d diverged", i)
		}
	}
}

func TestDistinctSeedsDiverge(t *testing.T) {
	alpha := generateOrDie(t, Params{Seed: "seed-alpha", Width: 15, Height: 15})
	beta := generateOrDie(t, Params{Seed: "seed-beta", Width: 15, Height: 15})

	differing := 0
	for i := range alpha.Tiles {
		if alpha.Tiles[i].Elevation != beta.Tiles[i].Elevation {
			differing++
		}
	}
	if differing < len(alpha.Tiles)/2 {
		t.Fatalf("expected at least half the cells to differ, got %d/%d", differing, len(alpha.Tiles))
	}
}

func TestTileInvariants(t *testing.T) {
	result := generateOrDie(t, Params{Seed: "invariants", Width: 30, Height: 20})
	for _, tile := range result.Tiles {
		if err := tile.Validate(); err != nil {
			t.Fatalf("tile (%d,%d) invalid: %v", tile.X, tile.Y, err)
		}
	}
}

func TestLandRatioHonored(t *testing.T) {
	result := generateOrDie(t, Params{Seed: "ratio", Width: 40, Height: 40, LandRatio: 0.5})
	land := 0
	for _, tile := range result.Tiles {
		if tile.Elevation >= world.SeaLevel {
			land++
		}
	}
	ratio := float64(land) / float64(len(result.Tiles))
	if ratio < 0.35 || ratio > 0.65 {
		t.Fatalf("expected roughly half land, got %.2f", ratio)
	}
}

func TestRiversFlowDownhill(t *testing.T) {
	result := generateOrDie(t, Params{Seed: "rivers", Width: 40, Height: 40})
	for _, segment := range result.Rivers {
		from := result.TileAt(segment.FromX, segment.FromY)
		to := result.TileAt(segment.ToX, segment.ToY)
		if from.Elevation <= to.Elevation {
			t.Fatalf("river segment (%d,%d)->(%d,%d) flows uphill: %d -> %d",
				segment.FromX, segment.FromY, segment.ToX, segment.ToY,
				from.Elevation, to.Elevation)
		}
	}
}

func TestRiversAcyclic(t *testing.T) {
	result := generateOrDie(t, Params{Seed: "rivers", Width: 40, Height: 40})

	next := map[[2]int][2]int{}
	for _, segment := range result.Rivers {
		next[[2]int{segment.FromX, segment.FromY}] = [2]int{segment.ToX, segment.ToY}
	}
	for start := range next {
		seen := map[[2]int]bool{}
		cell := start
		for {
			if seen[cell] {
				t.Fatalf("river cycle through (%d,%d)", cell[0], cell[1])
			}
			seen[cell] = true
			downstream, has := next[cell]
			if !has {
				break
			}
			cell = downstream
		}
	}
}

func TestStructureSeparation(t *testing.T) {
	result := generateOrDie(t, Params{Seed: "structures", Width: 50, Height: 50})
	for i, a := range result.Structures {
		for _, b := range result.Structures[i+1:] {
			if chebyshev(a.X, a.Y, b.X, b.Y) < minStructureSeparation {
				t.Fatalf("structures %s and %s too close", a.Name, b.Name)
			}
		}
	}
	for _, s := range result.Structures {
		if result.TileAt(s.X, s.Y).Biome == world.BiomeOcean {
			t.Fatalf("structure %s placed in the ocean", s.Name)
		}
	}
}

func TestInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"zero width", Params{Seed: "x", Width: 0, Height: 10}},
		{"zero height", Params{Seed: "x", Width: 10, Height: 0}},
		{"empty seed", Params{Seed: " ", Width: 10, Height: 10}},
		{"land ratio one", Params{Seed: "x", Width: 10, Height: 10, LandRatio: 1}},
		{"negative land ratio", Params{Seed: "x", Width: 10, Height: 10, LandRatio: -0.2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(tc.params)
			if err == nil {
				t.Fatal("expected an error")
			}
			if apperr.CodeOf(err) != apperr.CodeValidation {
				t.Fatalf("expected VALIDATION, got %s", apperr.CodeOf(err))
			}
		})
	}
}
