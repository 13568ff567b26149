package walls

import (
	"math"
	"sort"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
	"github.com/banshee-data/fieldwalls/internal/units"
)

// fakeGrid is a sparse Grid with the default accumulator geometry
// (1 cm, 1°, 3 m) holding hand-placed candidates.
type fakeGrid struct {
	half   int
	angles int
	lines  map[hough.Cell]hough.HoughLine
	order  []hough.Cell
}

func newFakeGrid() *fakeGrid {
	return &fakeGrid{half: 300, angles: 180, lines: make(map[hough.Cell]hough.HoughLine)}
}

func (g *fakeGrid) step() float64 { return math.Pi / float64(g.angles) }

func (g *fakeGrid) CellOf(l geom.PolarLine) (hough.Cell, bool) {
	l = geom.Normalize(l)
	return g.Wrap(hough.Cell{
		D: int(math.Round(l.Distance/0.01)) + g.half,
		A: int(math.Round(l.Angle / g.step())),
	})
}

func (g *fakeGrid) Wrap(c hough.Cell) (hough.Cell, bool) {
	for c.A < 0 {
		c.A += g.angles
		c.D = 2*g.half - c.D
	}
	for c.A >= g.angles {
		c.A -= g.angles
		c.D = 2*g.half - c.D
	}
	return c, c.D >= 0 && c.D <= 2*g.half
}

func (g *fakeGrid) Survives(c hough.Cell) bool {
	_, ok := g.lines[c]
	return ok
}

func (g *fakeGrid) HoughLineAt(c hough.Cell) hough.HoughLine {
	return g.lines[c]
}

// add places a candidate at the cell nearest to (rho, deg) and returns it.
func (g *fakeGrid) add(rho, deg float64, weight uint32) hough.HoughLine {
	c, ok := g.CellOf(geom.NewPolarLine(rho, units.DegToRad(deg)))
	if !ok {
		panic("line outside fake grid")
	}
	h := hough.HoughLine{
		Line:   geom.PolarLine{Distance: float64(c.D-g.half) * 0.01, Angle: float64(c.A) * g.step()},
		Weight: weight,
		Cell:   c,
	}
	if _, dup := g.lines[c]; !dup {
		g.order = append(g.order, c)
	}
	g.lines[c] = h
	return h
}

// candidates returns the grid contents heaviest first, insertion order on
// ties, as hough.Extract would.
func (g *fakeGrid) candidates() []hough.HoughLine {
	out := make([]hough.HoughLine, 0, len(g.order))
	for _, c := range g.order {
		out = append(out, g.lines[c])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}
