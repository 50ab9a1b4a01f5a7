package worldgen

import (
	"testing"

	"github.com/arvenwood/loomfall/internal/world"
)

func TestBiomeMatrixAnchors(t *testing.T) {
	tests := []struct {
		name        string
		temperature int
		moisture    int
		want        world.Biome
	}{
		{"hot and bone dry", 30, 0, world.BiomeDesert},
		{"hot and wet", 30, 64, world.BiomeRainforest},
		{"hot and saturated", 30, 92, world.BiomeSwamp},
		{"cold and dry", -15, 0, world.BiomeTundra},
		{"cold and wet", -15, 72, world.BiomeGlacier},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AssignBiome(50, tc.temperature, tc.moisture)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestOceanBypassesMatrix(t *testing.T) {
	if got := AssignBiome(world.SeaLevel-1, 30, 0); got != world.BiomeOcean {
		t.Fatalf("below sea level must be ocean, got %s", got)
	}
	if got := AssignBiome(world.SeaLevel, -15, 0); got == world.BiomeOcean {
		t.Fatal("at sea level the matrix decides, not ocean")
	}
}

func TestBoundaryTemperaturesMapToUpperBand(t *testing.T) {
	// 19 is Hot: dry Hot is desert while dry Warm is also desert, so probe
	// with a moisture level where the bands disagree.
	if got := AssignBiome(50, 19, 20); got != biomeMatrix[bandHot][5] {
		t.Fatalf("temperature 19 must use the hot band, got %s", got)
	}
	if got := AssignBiome(50, 10, 20); got != biomeMatrix[bandWarm][5] {
		t.Fatalf("temperature 10 must use the warm band, got %s", got)
	}
	if got := AssignBiome(50, 0, 20); got != biomeMatrix[bandTemperate][5] {
		t.Fatalf("temperature 0 must use the temperate band, got %s", got)
	}
	if got := AssignBiome(50, -10, 20); got != biomeMatrix[bandCool][5] {
		t.Fatalf("temperature -10 must use the cool band, got %s", got)
	}
	if got := AssignBiome(50, -11, 20); got != biomeMatrix[bandCold][5] {
		t.Fatalf("temperature -11 must use the cold band, got %s", got)
	}
}

func TestMoistureLevelClamped(t *testing.T) {
	if AssignBiome(50, 30, 100) != biomeMatrix[bandHot][25] {
		t.Fatal("moisture 100 must clamp to the last column")
	}
}
