package hough

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/units"
)

// HoughLine is a line candidate together with the votes it received and the
// accumulator cell it came from.
type HoughLine struct {
	Line   geom.PolarLine
	Weight uint32
	Cell   Cell
}

// Score weighs a candidate by its support and its distance from the
// scanner, favouring strong lines far from the robot.
func (h HoughLine) Score() float64 {
	return float64(h.Weight) * math.Abs(h.Line.Distance)
}

func (h HoughLine) String() string {
	return fmt.Sprintf("ρ=%.3fm θ=%.1f° w=%d", h.Line.Distance, units.RadToDeg(h.Line.Angle), h.Weight)
}

// Extract returns every cell that survives the accumulator's MinVotes
// threshold as a HoughLine, sorted by descending weight. Equal weights keep
// cell-scan order (distance bucket major, angle bucket minor). An empty
// result is a normal outcome.
func Extract(acc *Accumulator) []HoughLine {
	minVotes := acc.minVotes()
	var lines []HoughLine
	for d := 0; d < acc.distances; d++ {
		row := acc.votes[d*acc.angles : (d+1)*acc.angles]
		for a, v := range row {
			if uint32(v) >= minVotes {
				lines = append(lines, acc.houghLine(Cell{D: d, A: a}))
			}
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Weight > lines[j].Weight
	})
	return lines
}

// Survives reports whether c holds a candidate under the grid's configured
// threshold. It agrees with Extract cell for cell.
func (acc *Accumulator) Survives(c Cell) bool {
	return uint32(acc.Votes(c)) >= acc.minVotes()
}

func (acc *Accumulator) minVotes() uint32 {
	if acc.cfg.MinVotes == 0 {
		return 1
	}
	return acc.cfg.MinVotes
}
