package geom

// Point2D is a point on the map plane. Map coordinates are authored as
// integers but all simulation math runs in doubles.
type Point2D struct {
	X float64
	Y float64
}

// Vec2D is a velocity or offset vector.
type Vec2D struct {
	X float64
	Y float64
}

// Add returns p translated by v.
func (p Point2D) Add(v Vec2D) Point2D {
	return Point2D{X: p.X + v.X, Y: p.Y + v.Y}
}

// Sub returns the vector from q to p.
func (p Point2D) Sub(q Point2D) Vec2D {
	return Vec2D{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns v multiplied by k.
func (v Vec2D) Scale(k float64) Vec2D {
	return Vec2D{X: v.X * k, Y: v.Y * k}
}

// IsZero reports whether the vector has no magnitude.
func (v Vec2D) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
