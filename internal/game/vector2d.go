package game

import "math"

// Vec2 is a 2D vector in board units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Times(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vec2) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vec2) MagnitudeSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// DistanceTo returns the Euclidean distance between two points.
func (v Vec2) DistanceTo(o Vec2) float64 {
	return v.Minus(o).Magnitude()
}

// DistanceSquaredTo skips the square root for distance comparisons.
func (v Vec2) DistanceSquaredTo(o Vec2) float64 {
	return v.Minus(o).MagnitudeSquared()
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	m := v.Magnitude()
	if m == 0 {
		return Vec2{}
	}
	return v.Times(1.0 / m)
}

// LeftNormal rotates v by +90 degrees: (x, y) -> (-y, x).
func (v Vec2) LeftNormal() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// ApproxEqual reports whether both components are within eps of o.
func (v Vec2) ApproxEqual(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
