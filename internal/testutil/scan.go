package testutil

import (
	"math"
	"math/rand"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
)

// Wall indices of a Rectangle. SideA/SideB run along the field length and
// are separated by the width; EndA/EndB run along the width and are
// separated by the length.
const (
	SideA = iota
	SideB
	EndA
	EndB
)

// Rectangle places a Length × Width field in the scanner frame.
type Rectangle struct {
	Length   float64    // meters, along the field's local X axis
	Width    float64    // meters, along the field's local Y axis
	Center   geom.Point // field centre in the scanner frame
	Rotation float64    // rotation of the field's local X axis (rad)
}

// ScanOptions controls RectangleScan.
type ScanOptions struct {
	PointsPerWall int     // evenly spaced samples per wall (default 200)
	NoiseSigma    float64 // Gaussian range noise in meters
	Seed          int64   // RNG seed; fixed seeds keep tests deterministic
	Omit          []int   // wall indices to leave out (occlusion)
}

// Corners returns the field corners in the scanner frame, counter-clockwise
// starting from the (-L/2, -W/2) corner.
func (r Rectangle) Corners() [4]geom.Point {
	local := [4]geom.Point{
		{X: -r.Length / 2, Y: -r.Width / 2},
		{X: r.Length / 2, Y: -r.Width / 2},
		{X: r.Length / 2, Y: r.Width / 2},
		{X: -r.Length / 2, Y: r.Width / 2},
	}
	c, s := math.Cos(r.Rotation), math.Sin(r.Rotation)
	var out [4]geom.Point
	for i, p := range local {
		out[i] = geom.Point{
			X: r.Center.X + p.X*c - p.Y*s,
			Y: r.Center.Y + p.X*s + p.Y*c,
		}
	}
	return out
}

// wallEnds returns the corner indices bounding each wall.
var wallEnds = [4][2]int{
	SideA: {0, 1},
	SideB: {2, 3},
	EndA:  {1, 2},
	EndB:  {3, 0},
}

// Walls returns the ground-truth lines, indexed by SideA..EndB.
func (r Rectangle) Walls() [4]geom.PolarLine {
	corners := r.Corners()
	var out [4]geom.PolarLine
	for i, ends := range wallEnds {
		out[i], _ = geom.LineThroughPoints(corners[ends[0]], corners[ends[1]])
	}
	return out
}

// RectangleScan samples every wall of r evenly, excluding the corners,
// and perturbs each return along its bearing with Gaussian noise.
func RectangleScan(r Rectangle, opts ScanOptions) []geom.PolarPoint {
	n := opts.PointsPerWall
	if n <= 0 {
		n = 200
	}
	omit := make(map[int]bool, len(opts.Omit))
	for _, i := range opts.Omit {
		omit[i] = true
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	corners := r.Corners()
	points := make([]geom.PolarPoint, 0, 4*n)
	for i, ends := range wallEnds {
		if omit[i] {
			continue
		}
		a, b := corners[ends[0]], corners[ends[1]]
		for k := 0; k < n; k++ {
			f := (float64(k) + 0.5) / float64(n)
			p := geom.Point{X: a.X + f*(b.X-a.X), Y: a.Y + f*(b.Y-a.Y)}.Polar()
			p.Distance += rng.NormFloat64() * opts.NoiseSigma
			if p.Distance < 0 {
				p.Distance = 0
			}
			points = append(points, p)
		}
	}
	return points
}

// ScatterPoints returns n returns spread uniformly inside a disc of the
// given radius, used to add clutter that must not form lines.
func ScatterPoints(n int, radius float64, seed int64) []geom.PolarPoint {
	rng := rand.New(rand.NewSource(seed))
	out := make([]geom.PolarPoint, n)
	for i := range out {
		out[i] = geom.PolarPoint{
			Distance: radius * math.Sqrt(rng.Float64()),
			Angle:    rng.Float64() * 2 * math.Pi,
		}
	}
	return out
}
