package spatial

import "testing"

func TestLineOfSightClear(t *testing.T) {
	if !LineOfSight(Position{X: 0, Y: 0}, Position{X: 5, Y: 0}, nil) {
		t.Fatal("expected clear line of sight")
	}
}

func TestLineOfSightBlocked(t *testing.T) {
	obstacles := NewObstacleSet(Position{X: 2, Y: 0})
	if LineOfSight(Position{X: 0, Y: 0}, Position{X: 5, Y: 0}, obstacles) {
		t.Fatal("expected blocked line of sight")
	}
}

func TestLineOfSightEndpointsNeverBlock(t *testing.T) {
	obstacles := NewObstacleSet(Position{X: 0, Y: 0}, Position{X: 3, Y: 0})
	if !LineOfSight(Position{X: 0, Y: 0}, Position{X: 3, Y: 0}, obstacles) {
		t.Fatal("endpoints must not block sight")
	}
}

func TestInSphere(t *testing.T) {
	center := Position{X: 5, Y: 5}
	if !InSphere(center, Position{X: 5, Y: 5}, 5) {
		t.Fatal("center is inside its own sphere")
	}
	if !InSphere(center, Position{X: 7, Y: 5}, 10) {
		t.Fatal("two tiles away is within 10 feet")
	}
	if InSphere(center, Position{X: 8, Y: 5}, 10) {
		t.Fatal("three tiles away is outside 10 feet")
	}
	// 15-foot sphere spans 3 tiles; (7,7) is sqrt(8) ~ 2.83 tiles out.
	if !InSphere(center, Position{X: 7, Y: 7}, 15) {
		t.Fatal("diagonal within Euclidean radius must be inside")
	}
}

func TestInCube(t *testing.T) {
	origin := Position{X: 2, Y: 2}
	if !InCube(origin, Position{X: 2, Y: 2}, 10) {
		t.Fatal("origin corner is inside the cube")
	}
	if !InCube(origin, Position{X: 3, Y: 3}, 10) {
		t.Fatal("(3,3) is inside a 10-foot cube from (2,2)")
	}
	if InCube(origin, Position{X: 4, Y: 2}, 10) {
		t.Fatal("(4,2) is outside a 10-foot cube from (2,2)")
	}
}

func TestInCone(t *testing.T) {
	origin := Position{X: 0, Y: 0}
	dir := Position{X: 1, Y: 0}
	if !InCone(origin, Position{X: 3, Y: 0}, dir, 30) {
		t.Fatal("straight ahead within range is inside the cone")
	}
	if InCone(origin, Position{X: 0, Y: 3}, dir, 30) {
		t.Fatal("perpendicular is outside a 60-degree cone")
	}
	if InCone(origin, Position{X: 9, Y: 0}, dir, 30) {
		t.Fatal("past the cone length is outside")
	}
	if InCone(origin, origin, dir, 30) {
		t.Fatal("the origin itself is not inside the cone")
	}
	// (4,2) is about 26.6 degrees off-axis, inside the 30-degree half-angle.
	if !InCone(origin, Position{X: 4, Y: 2}, dir, 30) {
		t.Fatal("within the half-angle must be inside")
	}
}

func TestInLine(t *testing.T) {
	origin := Position{X: 0, Y: 0}
	dir := Position{X: 1, Y: 0}
	if !InLine(origin, Position{X: 5, Y: 0}, dir, 30, 5) {
		t.Fatal("on the axis within range is inside the line")
	}
	if InLine(origin, Position{X: 5, Y: 2}, dir, 30, 5) {
		t.Fatal("two tiles off a 5-foot line is outside")
	}
	if InLine(origin, Position{X: -1, Y: 0}, dir, 30, 5) {
		t.Fatal("behind the origin is outside")
	}
	if InLine(origin, Position{X: 7, Y: 0}, dir, 30, 5) {
		t.Fatal("past the length is outside")
	}
}

func TestFeetConversion(t *testing.T) {
	if FeetToTiles(35) != 7 {
		t.Fatalf("35 feet is 7 tiles, got %d", FeetToTiles(35))
	}
	if TilesToFeet(4) != 20 {
		t.Fatalf("4 tiles is 20 feet, got %d", TilesToFeet(4))
	}
}
