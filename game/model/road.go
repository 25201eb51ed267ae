package model

import "github.com/lootcity/gameserver/game/geom"

// Collision widths and the road boundary offset shared by the whole
// simulation. Roads are authored as one-dimensional segments; dogs may
// stray up to RoadOffset from the centerline in any direction.
const (
	RoadOffset  = 0.4
	DogWidth    = 0.6
	LootWidth   = 0.0
	OfficeWidth = 0.5
)

// IntPoint is a map-authored integer coordinate.
type IntPoint struct {
	X int
	Y int
}

// Road is an axis-aligned segment of non-zero length. Its travel
// rectangle is the segment inflated by RoadOffset on both axes.
type Road struct {
	start IntPoint
	end   IntPoint
}

// NewHorizontalRoad creates a road running along the X axis.
func NewHorizontalRoad(start IntPoint, endX int) Road {
	return Road{start: start, end: IntPoint{X: endX, Y: start.Y}}
}

// NewVerticalRoad creates a road running along the Y axis.
func NewVerticalRoad(start IntPoint, endY int) Road {
	return Road{start: start, end: IntPoint{X: start.X, Y: endY}}
}

// IsHorizontal reports whether the road runs along the X axis.
func (r Road) IsHorizontal() bool {
	return r.start.Y == r.end.Y
}

// Start returns the authored start point.
func (r Road) Start() IntPoint {
	return r.start
}

// End returns the authored end point.
func (r Road) End() IntPoint {
	return r.end
}

// Len returns the road length along its axis.
func (r Road) Len() float64 {
	if r.IsHorizontal() {
		return abs(float64(r.start.X - r.end.X))
	}
	return abs(float64(r.start.Y - r.end.Y))
}

// bounds returns the travel rectangle as left, right, top, bottom.
// Top is the smaller Y: the Y axis grows southward.
func (r Road) bounds() (left, right, top, bottom float64) {
	left = minf(float64(r.start.X), float64(r.end.X)) - RoadOffset
	right = maxf(float64(r.start.X), float64(r.end.X)) + RoadOffset
	top = minf(float64(r.start.Y), float64(r.end.Y)) - RoadOffset
	bottom = maxf(float64(r.start.Y), float64(r.end.Y)) + RoadOffset
	return left, right, top, bottom
}

// Contains reports closed containment of p in the travel rectangle.
func (r Road) Contains(p geom.Point2D) bool {
	left, right, top, bottom := r.bounds()
	return p.X >= left && p.X <= right && p.Y >= top && p.Y <= bottom
}

// Clamp returns the farthest point along the axis-aligned trajectory
// start->end that is still inside the travel rectangle. The start point
// must already be inside. Motion perpendicular to the road clamps
// against the near boundary, so a dog crossing a road sideways makes
// only RoadOffset worth of progress.
func (r Road) Clamp(start, end geom.Point2D) geom.Point2D {
	if start == end {
		return end
	}

	left, right, top, bottom := r.bounds()

	// Vertical trajectory.
	if start.X == end.X {
		if start.Y < end.Y {
			return geom.Point2D{X: start.X, Y: minf(end.Y, bottom)}
		}
		return geom.Point2D{X: start.X, Y: maxf(end.Y, top)}
	}

	// Horizontal trajectory.
	if start.X < end.X {
		return geom.Point2D{X: minf(end.X, right), Y: start.Y}
	}
	return geom.Point2D{X: maxf(end.X, left), Y: start.Y}
}

// PointAt maps a distance along the road's axis to a map point. The
// distance is clamped to the road length, so any non-negative sample is
// valid.
func (r Road) PointAt(dist float64) geom.Point2D {
	dist = minf(dist, r.Len())

	if r.IsHorizontal() {
		x := minf(float64(r.start.X), float64(r.end.X)) + dist
		return geom.Point2D{X: x, Y: float64(r.start.Y)}
	}
	y := minf(float64(r.start.Y), float64(r.end.Y)) + dist
	return geom.Point2D{X: float64(r.start.X), Y: y}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
