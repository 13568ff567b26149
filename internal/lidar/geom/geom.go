package geom

import (
	"fmt"
	"math"

	"github.com/banshee-data/fieldwalls/internal/units"
)

// MinExactTolerance is the floor applied to the exact parallel tolerance
// used by Intersect. Below it the 2×2 determinant can underflow to zero.
const MinExactTolerance = 1e-12

// DefaultExactTolerance is the near-zero tolerance used to guard
// intersections when callers have no better value.
const DefaultExactTolerance = 1e-9

// PolarPoint is one scanner return: range in meters and bearing in radians,
// counter-clockwise from the robot's forward axis.
type PolarPoint struct {
	Distance float64
	Angle    float64
}

// Cartesian converts the point to the scanner frame (X forward, Y left).
func (p PolarPoint) Cartesian() Point {
	return Point{
		X: p.Distance * math.Cos(p.Angle),
		Y: p.Distance * math.Sin(p.Angle),
	}
}

// Valid reports whether the point has a finite, non-negative range and a
// finite bearing.
func (p PolarPoint) Valid() bool {
	return isFinite(p.Distance) && isFinite(p.Angle) && p.Distance >= 0
}

// Point is a Cartesian position in the scanner frame, in meters.
type Point struct {
	X, Y float64
}

// Polar converts the point back to range and bearing. The bearing is in
// [0, 2π).
func (p Point) Polar() PolarPoint {
	return PolarPoint{
		Distance: math.Hypot(p.X, p.Y),
		Angle:    units.WrapTwoPi(math.Atan2(p.Y, p.X)),
	}
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// PolarLine is a line in closest-point form. Use NewPolarLine or Normalize
// to obtain the canonical representation.
type PolarLine struct {
	Distance float64 // signed distance of the closest point to the origin (m)
	Angle    float64 // direction of the normal, [0, π) when canonical (rad)
}

// NewPolarLine builds a canonical line from any (distance, angle) pair.
func NewPolarLine(distance, angle float64) PolarLine {
	return Normalize(PolarLine{Distance: distance, Angle: angle})
}

// Normalize returns the canonical twin of l: the angle is wrapped into
// [0, π) and the distance sign flips for every half turn removed.
// Non-finite components are replaced by zero rather than propagated.
func Normalize(l PolarLine) PolarLine {
	d := l.Distance
	if !isFinite(d) {
		d = 0
	}
	a := units.WrapTwoPi(l.Angle)
	if a >= units.HalfTurn {
		a -= units.HalfTurn
		d = -d
	}
	return PolarLine{Distance: d, Angle: a}
}

// String renders the line as "ρ=1.234m θ=12.3°".
func (l PolarLine) String() string {
	return fmt.Sprintf("ρ=%.3fm θ=%.1f°", l.Distance, units.RadToDeg(l.Angle))
}

// Normal returns the unit normal of the line.
func (l PolarLine) Normal() Point {
	return Point{X: math.Cos(l.Angle), Y: math.Sin(l.Angle)}
}

// ClosestPoint returns the point of the line nearest the origin.
func (l PolarLine) ClosestPoint() Point {
	n := l.Normal()
	return Point{X: l.Distance * n.X, Y: l.Distance * n.Y}
}

// DistanceToPoint returns the signed residual of p against the line:
// positive on the side the normal points to.
func (l PolarLine) DistanceToPoint(p Point) float64 {
	n := l.Normal()
	return p.X*n.X + p.Y*n.Y - l.Distance
}

// ParallelAcross returns the parallel line at separation sep on the far
// side of l as seen from the origin: its distance is ρ − sign(ρ)·sep. When
// the origin lies between two walls this is where the opposite wall is.
func (l PolarLine) ParallelAcross(sep float64) PolarLine {
	if l.Distance < 0 {
		return Normalize(PolarLine{Distance: l.Distance + sep, Angle: l.Angle})
	}
	return Normalize(PolarLine{Distance: l.Distance - sep, Angle: l.Angle})
}

// AlignedTo returns the representation of l (itself or its half-turn twin)
// whose angle is closest to ref's angle. The result is not canonical; it is
// intended for averaging lines that straddle the 0/π seam.
func (l PolarLine) AlignedTo(ref PolarLine) PolarLine {
	diff := l.Angle - ref.Angle
	switch {
	case diff > units.QuarterTurn:
		return PolarLine{Distance: -l.Distance, Angle: l.Angle - units.HalfTurn}
	case diff < -units.QuarterTurn:
		return PolarLine{Distance: -l.Distance, Angle: l.Angle + units.HalfTurn}
	default:
		return l
	}
}

// SmallestAngleBetween returns the acute angle between two undirected lines,
// in [0, π/2].
func SmallestAngleBetween(a, b PolarLine) float64 {
	alpha := math.Mod(math.Abs(a.Angle-b.Angle), units.HalfTurn)
	if !isFinite(alpha) {
		return units.QuarterTurn
	}
	if alpha >= units.QuarterTurn {
		return units.HalfTurn - alpha
	}
	return alpha
}

// IsParallel reports whether the lines are parallel within tol radians.
func IsParallel(a, b PolarLine, tol float64) bool {
	return SmallestAngleBetween(a, b) <= tol
}

// IsPerpendicular reports whether the lines are perpendicular within tol
// radians.
func IsPerpendicular(a, b PolarLine, tol float64) bool {
	return math.Abs(SmallestAngleBetween(a, b)-units.QuarterTurn) <= tol
}

// DistanceCenterWith returns the Euclidean distance between the closest
// points of the two lines. It is only meaningful for roughly parallel lines,
// where it approximates the gap between them.
func DistanceCenterWith(a, b PolarLine) float64 {
	return a.ClosestPoint().DistanceTo(b.ClosestPoint())
}

// Intersect returns the crossing point of two lines. It reports false when
// the lines are parallel within exactTol (floored at MinExactTolerance), so
// the solution never divides by a vanishing determinant.
func Intersect(a, b PolarLine, exactTol float64) (Point, bool) {
	if exactTol < MinExactTolerance {
		exactTol = MinExactTolerance
	}
	if IsParallel(a, b, exactTol) {
		return Point{}, false
	}
	a, b = Normalize(a), Normalize(b)

	// Cramer's rule on
	//   x·cos θa + y·sin θa = ρa
	//   x·cos θb + y·sin θb = ρb
	ca, sa := math.Cos(a.Angle), math.Sin(a.Angle)
	cb, sb := math.Cos(b.Angle), math.Sin(b.Angle)
	det := ca*sb - sa*cb
	if det == 0 || !isFinite(det) {
		return Point{}, false
	}
	p := Point{
		X: (a.Distance*sb - b.Distance*sa) / det,
		Y: (ca*b.Distance - cb*a.Distance) / det,
	}
	if !isFinite(p.X) || !isFinite(p.Y) {
		return Point{}, false
	}
	return p, true
}

// LineThroughPoints returns the line through p and q. It reports false when
// the points coincide.
func LineThroughPoints(p, q Point) (PolarLine, bool) {
	dx, dy := q.X-p.X, q.Y-p.Y
	length := math.Hypot(dx, dy)
	if length == 0 || !isFinite(length) {
		return PolarLine{}, false
	}
	// Normal is the direction rotated by a quarter turn.
	nx, ny := -dy/length, dx/length
	theta := math.Atan2(ny, nx)
	return NewPolarLine(p.X*nx+p.Y*ny, theta), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
