package spatial

import "container/heap"

// neighborOffsets enumerates the 8-neighborhood in deterministic order.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// FindPath searches for a shortest path from start to goal around obstacles
// using A* with the Chebyshev heuristic.
//
// The returned path includes both endpoints; a path from a tile to itself has
// length one. Diagonal movement is allowed unless both orthogonal neighbors
// of the step are blocked (no squeezing through corners). Ties between equal
// f-scores break lexicographically by (y, x) so results are deterministic.
//
// The second return value is false when no path exists.
func FindPath(start, goal Position, obstacles ObstacleSet) ([]Position, bool) {
	if obstacles.Contains(goal) {
		return nil, false
	}
	if start == goal {
		return []Position{start}, true
	}

	// The grid is unbounded, so the search is confined to the bounding box
	// of the endpoints and obstacles plus a one-tile margin; a goal sealed
	// off by obstacles then exhausts the frontier instead of expanding
	// forever.
	bounds := searchBounds(start, goal, obstacles)

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, node{pos: start, g: 0, f: Chebyshev(start, goal)})

	cameFrom := map[Position]Position{}
	gScore := map[Position]int{start: 0}
	closed := map[Position]struct{}{}

	for open.Len() > 0 {
		current := heap.Pop(open).(node)
		if current.pos == goal {
			return reconstruct(cameFrom, current.pos), true
		}
		if _, done := closed[current.pos]; done {
			continue
		}
		closed[current.pos] = struct{}{}

		for _, offset := range neighborOffsets {
			next := Position{X: current.pos.X + offset[0], Y: current.pos.Y + offset[1]}
			if !bounds.contains(next) || obstacles.Contains(next) {
				continue
			}
			if offset[0] != 0 && offset[1] != 0 && cornerBlocked(current.pos, offset, obstacles) {
				continue
			}

			tentative := gScore[current.pos] + 1
			if best, seen := gScore[next]; seen && tentative >= best {
				continue
			}
			gScore[next] = tentative
			cameFrom[next] = current.pos
			heap.Push(open, node{pos: next, g: tentative, f: tentative + Chebyshev(next, goal)})
		}
	}

	return nil, false
}

type box struct {
	minX, minY, maxX, maxY int
}

func (b box) contains(p Position) bool {
	return p.X >= b.minX && p.X <= b.maxX && p.Y >= b.minY && p.Y <= b.maxY
}

func searchBounds(start, goal Position, obstacles ObstacleSet) box {
	b := box{
		minX: min(start.X, goal.X), minY: min(start.Y, goal.Y),
		maxX: max(start.X, goal.X), maxY: max(start.Y, goal.Y),
	}
	for p := range obstacles {
		b.minX = min(b.minX, p.X)
		b.minY = min(b.minY, p.Y)
		b.maxX = max(b.maxX, p.X)
		b.maxY = max(b.maxY, p.Y)
	}
	b.minX--
	b.minY--
	b.maxX++
	b.maxY++
	return b
}

// cornerBlocked reports whether a diagonal step squeezes between two blocked
// orthogonal neighbors.
func cornerBlocked(from Position, offset [2]int, obstacles ObstacleSet) bool {
	side1 := Position{X: from.X + offset[0], Y: from.Y}
	side2 := Position{X: from.X, Y: from.Y + offset[1]}
	return obstacles.Contains(side1) && obstacles.Contains(side2)
}

func reconstruct(cameFrom map[Position]Position, end Position) []Position {
	path := []Position{end}
	for {
		prev, ok := cameFrom[end]
		if !ok {
			break
		}
		path = append(path, prev)
		end = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	pos Position
	g   int
	f   int
}

type nodeQueue []node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].pos.Y != q[j].pos.Y {
		return q[i].pos.Y < q[j].pos.Y
	}
	return q[i].pos.X < q[j].pos.X
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
