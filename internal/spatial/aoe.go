package spatial

import "math"

// coneHalfAngle is half the total cone aperture of 60 degrees.
const coneHalfAngle = math.Pi / 6

// InSphere reports whether target lies within a sphere of radiusFeet centered
// on center. The test uses Euclidean distance in tile units.
func InSphere(center, target Position, radiusFeet int) bool {
	radius := float64(radiusFeet) / TileFeet
	return euclidean(center, target) <= radius
}

// InCube reports whether target lies within an axis-aligned cube of sizeFeet
// whose minimum corner is origin.
func InCube(origin, target Position, sizeFeet int) bool {
	size := FeetToTiles(sizeFeet)
	if size < 1 {
		size = 1
	}
	return target.X >= origin.X && target.X < origin.X+size &&
		target.Y >= origin.Y && target.Y < origin.Y+size
}

// InCone reports whether target lies within a cone from origin toward dir.
// The cone spans 60 degrees total and extends lengthFeet.
func InCone(origin, target, dir Position, lengthFeet int) bool {
	if target == origin {
		return false
	}
	length := float64(lengthFeet) / TileFeet
	dist := euclidean(origin, target)
	if dist > length {
		return false
	}

	dirX, dirY, ok := normalize(float64(dir.X-origin.X), float64(dir.Y-origin.Y))
	if !ok {
		return false
	}
	tx := float64(target.X - origin.X)
	ty := float64(target.Y - origin.Y)
	angle := math.Acos(clampUnit((tx*dirX + ty*dirY) / dist))
	return angle <= coneHalfAngle
}

// InLine reports whether target lies within a line of lengthFeet and
// widthFeet projected from origin toward dir.
func InLine(origin, target, dir Position, lengthFeet, widthFeet int) bool {
	if widthFeet <= 0 {
		widthFeet = TileFeet
	}
	length := float64(lengthFeet) / TileFeet
	halfWidth := float64(widthFeet) / TileFeet / 2

	dirX, dirY, ok := normalize(float64(dir.X-origin.X), float64(dir.Y-origin.Y))
	if !ok {
		return false
	}
	tx := float64(target.X - origin.X)
	ty := float64(target.Y - origin.Y)

	along := tx*dirX + ty*dirY
	if along < 0 || along > length {
		return false
	}
	perp := math.Abs(tx*dirY - ty*dirX)
	return perp <= halfWidth
}

func euclidean(a, b Position) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func normalize(x, y float64) (float64, float64, bool) {
	length := math.Sqrt(x*x + y*y)
	if length == 0 {
		return 0, 0, false
	}
	return x / length, y / length, true
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
