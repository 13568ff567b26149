package walls

import (
	"fmt"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
)

// WallSource records how a wall was obtained.
type WallSource int

const (
	// FoundAsParallel walls belong to the reference parallel pair.
	FoundAsParallel WallSource = iota + 1
	// FoundAsPerpendicular walls were found perpendicular to the reference pair.
	FoundAsPerpendicular
	// Guessed walls were computed from a known field dimension.
	Guessed
)

func (s WallSource) String() string {
	switch s {
	case FoundAsParallel:
		return "parallel"
	case FoundAsPerpendicular:
		return "perpendicular"
	case Guessed:
		return "guessed"
	default:
		return "unknown"
	}
}

// WallLine is one boundary line with its provenance. Found walls carry the
// candidate's weight and cell; guessed walls have neither.
type WallLine struct {
	Source WallSource
	Line   geom.PolarLine
	Weight uint32
	Cell   hough.Cell
}

// Found tags a detected candidate.
func Found(src WallSource, h hough.HoughLine) WallLine {
	return WallLine{Source: src, Line: h.Line, Weight: h.Weight, Cell: h.Cell}
}

// GuessedWall tags an inferred line.
func GuessedWall(l geom.PolarLine) WallLine {
	return WallLine{Source: Guessed, Line: geom.Normalize(l)}
}

// IsGuessed reports whether the wall was inferred rather than observed.
func (w WallLine) IsGuessed() bool { return w.Source == Guessed }

// Hough returns the candidate behind a found wall; false for guessed walls.
func (w WallLine) Hough() (hough.HoughLine, bool) {
	if w.IsGuessed() {
		return hough.HoughLine{}, false
	}
	return hough.HoughLine{Line: w.Line, Weight: w.Weight, Cell: w.Cell}, true
}

func (w WallLine) String() string {
	return fmt.Sprintf("%v [%s w=%d]", w.Line, w.Source, w.Weight)
}

// FieldWalls is the reconstructed rectangle. Width1/Width2 are the parallel
// walls separated by the field width; Length1/Length2 the parallel walls
// separated by the field length. Width walls are perpendicular to length
// walls within the configured tolerance.
type FieldWalls struct {
	Width1, Width2   WallLine
	Length1, Length2 WallLine
}

// Walls returns the four walls in Width1, Width2, Length1, Length2 order.
func (f FieldWalls) Walls() [4]WallLine {
	return [4]WallLine{f.Width1, f.Width2, f.Length1, f.Length2}
}

// GuessedCount returns how many walls were inferred.
func (f FieldWalls) GuessedCount() int {
	n := 0
	for _, w := range f.Walls() {
		if w.IsGuessed() {
			n++
		}
	}
	return n
}

// Corners returns the four rectangle corners in order around the field
// (W1∩L1, W1∩L2, W2∩L2, W2∩L1). It reports false when any pair of
// adjacent walls is parallel.
func (f FieldWalls) Corners(exactTol float64) ([4]geom.Point, bool) {
	pairs := [4][2]geom.PolarLine{
		{f.Width1.Line, f.Length1.Line},
		{f.Width1.Line, f.Length2.Line},
		{f.Width2.Line, f.Length2.Line},
		{f.Width2.Line, f.Length1.Line},
	}
	var out [4]geom.Point
	for i, p := range pairs {
		pt, ok := geom.Intersect(p[0], p[1], exactTol)
		if !ok {
			return [4]geom.Point{}, false
		}
		out[i] = pt
	}
	return out, true
}

// Contains reports whether p lies between both pairs of parallel walls.
func (f FieldWalls) Contains(p geom.Point) bool {
	return between(f.Width1.Line, f.Width2.Line, p) && between(f.Length1.Line, f.Length2.Line, p)
}

func between(a, b geom.PolarLine, p geom.Point) bool {
	ra := a.DistanceToPoint(p)
	rb := b.AlignedTo(a).DistanceToPoint(p)
	return ra*rb <= 0
}

// Separation names which field dimension a parallel pair spans.
type Separation int

const (
	WidthSeparation Separation = iota
	LengthSeparation
)

func (s Separation) String() string {
	if s == LengthSeparation {
		return "length"
	}
	return "width"
}

// Meters returns the field dimension the separation stands for.
func (s Separation) Meters(cfg Config) float64 {
	if s == LengthSeparation {
		return cfg.FieldLength
	}
	return cfg.FieldWidth
}

// Other returns the perpendicular dimension.
func (s Separation) Other() Separation {
	if s == LengthSeparation {
		return WidthSeparation
	}
	return LengthSeparation
}

// Pair is a candidate and the parallel partner found at the expected
// separation from it.
type Pair struct {
	First, Second hough.HoughLine
	Separation    Separation
}

// Score sums weight × |distance| over both lines.
func (p Pair) Score() float64 {
	return p.First.Score() + p.Second.Score()
}

// Weight sums the votes of both lines.
func (p Pair) Weight() uint64 {
	return uint64(p.First.Weight) + uint64(p.Second.Weight)
}
