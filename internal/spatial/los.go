package spatial

// LineOfSight reports whether an unobstructed straight line exists between
// two positions. The line is traced with Bresenham's algorithm; any obstacle
// on an intermediate tile blocks sight. The endpoints themselves never block.
func LineOfSight(from, to Position, obstacles ObstacleSet) bool {
	for _, p := range BresenhamLine(from, to) {
		if p == from || p == to {
			continue
		}
		if obstacles.Contains(p) {
			return false
		}
	}
	return true
}

// BresenhamLine returns the tiles crossed by a straight line between two
// positions, endpoints included.
func BresenhamLine(from, to Position) []Position {
	dx := abs(to.X - from.X)
	dy := abs(to.Y - from.Y)
	sx := 1
	if from.X > to.X {
		sx = -1
	}
	sy := 1
	if from.Y > to.Y {
		sy = -1
	}

	line := make([]Position, 0, max(dx, dy)+1)
	x, y := from.X, from.Y
	errTerm := dx - dy
	for {
		line = append(line, Position{X: x, Y: y})
		if x == to.X && y == to.Y {
			return line
		}
		doubled := 2 * errTerm
		if doubled > -dy {
			errTerm -= dy
			x += sx
		}
		if doubled < dx {
			errTerm += dx
			y += sy
		}
	}
}
