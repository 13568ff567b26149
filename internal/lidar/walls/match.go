package walls

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
)

// Grid is the cell index the matcher searches for partners.
// *hough.Accumulator satisfies it.
type Grid interface {
	CellOf(l geom.PolarLine) (hough.Cell, bool)
	Wrap(c hough.Cell) (hough.Cell, bool)
	Survives(c hough.Cell) bool
	HoughLineAt(c hough.Cell) hough.HoughLine
}

// MatchResult is the outcome of one FindWalls call. Pairs and Pool are
// populated even when an error is returned, for diagnostics.
type MatchResult struct {
	Walls        FieldWalls
	Pairs        []Pair
	Pool         []hough.HoughLine // refinement pool: pair members plus the chosen walls
	UsedFallback bool
	Score        float64
}

// WidthPairs returns the pairs separated by the field width.
func (m MatchResult) WidthPairs() []Pair { return filterPairs(m.Pairs, WidthSeparation) }

// LengthPairs returns the pairs separated by the field length.
func (m MatchResult) LengthPairs() []Pair { return filterPairs(m.Pairs, LengthSeparation) }

var errNilGrid = errors.New("walls: nil grid")

// FindWalls picks the four field walls among candidates, which must be
// sorted heaviest first as hough.Extract returns them.
//
// The 4-wall search combines one width pair with one length pair whose
// first lines are perpendicular and keeps the combination with the largest
// Σ weight × |distance|. Equal scores keep the earliest combination, width
// pairs outer and length pairs inner, both in collection order. When no
// combination exists and the fallback is enabled, a pair plus one
// perpendicular wall is completed with a guessed wall.
func FindWalls(candidates []hough.HoughLine, grid Grid, cfg Config) (MatchResult, error) {
	var res MatchResult
	if len(candidates) == 0 {
		return res, ErrEmptyCandidates
	}
	if grid == nil {
		return res, errNilGrid
	}
	if err := cfg.Validate(); err != nil {
		return res, fmt.Errorf("invalid walls config: %w", err)
	}

	res.Pairs = collectPairs(candidates, grid, cfg)
	widths, lengths := res.WidthPairs(), res.LengthPairs()

	if fw, score, ok := bestQuadruple(widths, lengths, cfg); ok {
		res.Walls, res.Score = fw, score
		res.Pool = buildPool(res.Pairs, fw)
		return res, nil
	}
	if !cfg.EnableFallback {
		res.Pool = buildPool(res.Pairs, FieldWalls{})
		return res, fmt.Errorf("%w: %d width pairs, %d length pairs among %d candidates",
			ErrNoQuadrupleFound, len(widths), len(lengths), len(candidates))
	}

	fw, score, ok := bestTrio(res.Pairs, candidates, cfg)
	if !ok {
		res.Pool = buildPool(res.Pairs, FieldWalls{})
		return res, fmt.Errorf("%w: %w", ErrNoQuadrupleFound, ErrFallbackUnavailable)
	}
	res.Walls, res.Score, res.UsedFallback = fw, score, true
	res.Pool = buildPool(res.Pairs, fw)
	return res, nil
}

// collectPairs looks, for every candidate and both field dimensions, for the
// strongest surviving cell near where the opposite wall is expected.
// A pair already found from its other member is not added twice.
func collectPairs(candidates []hough.HoughLine, grid Grid, cfg Config) []Pair {
	var pairs []Pair
	seen := make(map[[2]hough.Cell]struct{})
	for _, sep := range [...]Separation{WidthSeparation, LengthSeparation} {
		for _, c := range candidates {
			partner, ok := findPartner(c, sep.Meters(cfg), grid, cfg)
			if !ok {
				continue
			}
			key := pairKey(c.Cell, partner.Cell)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, Pair{First: c, Second: partner, Separation: sep})
		}
	}
	return pairs
}

func findPartner(c hough.HoughLine, sep float64, grid Grid, cfg Config) (hough.HoughLine, bool) {
	expected := c.Line.ParallelAcross(sep)
	center, ok := grid.CellOf(expected)
	if !ok {
		return hough.HoughLine{}, false
	}

	var best hough.HoughLine
	bestDist, found := 0, false
	for dd := -cfg.NeighborhoodDistance; dd <= cfg.NeighborhoodDistance; dd++ {
		for da := -cfg.NeighborhoodAngle; da <= cfg.NeighborhoodAngle; da++ {
			cell, ok := grid.Wrap(hough.Cell{D: center.D + dd, A: center.A + da})
			if !ok || cell == c.Cell || !grid.Survives(cell) {
				continue
			}
			h := grid.HoughLineAt(cell)
			if !validPartner(c.Line, h.Line, sep, cfg) {
				continue
			}
			dist := absInt(dd) + absInt(da)
			if !found || h.Weight > best.Weight || (h.Weight == best.Weight && dist < bestDist) {
				best, bestDist, found = h, dist, true
			}
		}
	}
	return best, found
}

func validPartner(a, b geom.PolarLine, sep float64, cfg Config) bool {
	if !geom.IsParallel(a, b, cfg.ParallelTolerance) {
		return false
	}
	return separationMatches(geom.DistanceCenterWith(a, b), sep, cfg.SeparationTolerance)
}

func separationMatches(got, want, rel float64) bool {
	return math.Abs(got-want) <= want*rel
}

func bestQuadruple(widths, lengths []Pair, cfg Config) (FieldWalls, float64, bool) {
	var best FieldWalls
	bestScore, found := 0.0, false
	for _, w := range widths {
		for _, l := range lengths {
			if !geom.IsPerpendicular(w.First.Line, l.First.Line, cfg.PerpendicularTolerance) {
				continue
			}
			score := w.Score() + l.Score()
			if found && score <= bestScore {
				continue
			}
			best, bestScore, found = quadruple(w, l), score, true
		}
	}
	return best, bestScore, found
}

// quadruple tags the pair holding the heavier first line as the parallel
// reference and the other as perpendicular to it.
func quadruple(w, l Pair) FieldWalls {
	wSrc, lSrc := FoundAsParallel, FoundAsPerpendicular
	if l.First.Weight > w.First.Weight {
		wSrc, lSrc = FoundAsPerpendicular, FoundAsParallel
	}
	return FieldWalls{
		Width1:  Found(wSrc, w.First),
		Width2:  Found(wSrc, w.Second),
		Length1: Found(lSrc, l.First),
		Length2: Found(lSrc, l.Second),
	}
}

// bestTrio completes a pair with a perpendicular candidate and a wall
// guessed across from it at the other field dimension. The candidate must
// be closer than that dimension so the scanner ends up inside the field.
func bestTrio(pairs []Pair, candidates []hough.HoughLine, cfg Config) (FieldWalls, float64, bool) {
	var best FieldWalls
	bestScore, bestWeight, found := 0.0, uint64(0), false
	for _, p := range pairs {
		other := p.Separation.Other()
		otherSep := other.Meters(cfg)
		for _, c := range candidates {
			if c.Cell == p.First.Cell || c.Cell == p.Second.Cell {
				continue
			}
			if !geom.IsPerpendicular(p.First.Line, c.Line, cfg.PerpendicularTolerance) {
				continue
			}
			if math.Abs(c.Line.Distance) >= otherSep {
				continue
			}
			score := p.Score() + c.Score()
			weight := p.Weight() + uint64(c.Weight)
			if found {
				switch cfg.FallbackRanking {
				case RankByLowestWeight:
					if weight >= bestWeight {
						continue
					}
				default:
					if score <= bestScore {
						continue
					}
				}
			}
			best, bestScore, bestWeight, found = trio(p, c, otherSep), score, weight, true
		}
	}
	return best, bestScore, found
}

func trio(p Pair, c hough.HoughLine, otherSep float64) FieldWalls {
	known := Found(FoundAsPerpendicular, c)
	guessed := GuessedWall(c.Line.ParallelAcross(otherSep))
	pa, pb := Found(FoundAsParallel, p.First), Found(FoundAsParallel, p.Second)
	if p.Separation == WidthSeparation {
		return FieldWalls{Width1: pa, Width2: pb, Length1: known, Length2: guessed}
	}
	return FieldWalls{Width1: known, Width2: guessed, Length1: pa, Length2: pb}
}

// buildPool returns every pair member and found wall once, in first-seen
// order.
func buildPool(pairs []Pair, fw FieldWalls) []hough.HoughLine {
	var pool []hough.HoughLine
	seen := make(map[hough.Cell]struct{})
	add := func(h hough.HoughLine) {
		if _, ok := seen[h.Cell]; ok {
			return
		}
		seen[h.Cell] = struct{}{}
		pool = append(pool, h)
	}
	for _, p := range pairs {
		add(p.First)
		add(p.Second)
	}
	for _, w := range fw.Walls() {
		if h, ok := w.Hough(); ok && w.Source != 0 {
			add(h)
		}
	}
	return pool
}

func filterPairs(pairs []Pair, sep Separation) []Pair {
	var out []Pair
	for _, p := range pairs {
		if p.Separation == sep {
			out = append(out, p)
		}
	}
	return out
}

func pairKey(a, b hough.Cell) [2]hough.Cell {
	if b.D < a.D || (b.D == a.D && b.A < a.A) {
		a, b = b, a
	}
	return [2]hough.Cell{a, b}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
