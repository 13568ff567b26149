package walls

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
)

// Refine replaces each found wall with the vote-weighted mean of the pool
// lines similar to it (within SimilarityAngle and SimilarityDistance).
// Provenance, weight and cell are kept. Similarity is measured against the
// pool entry the wall was found as (matched by cell), never against the
// wall's current line, so refining a refined result is a no-op. A wall whose
// cell is not in the pool is left as is. Guessed walls are rebuilt from their
// refined opposite wall.
func Refine(fw FieldWalls, pool []hough.HoughLine, cfg Config) FieldWalls {
	fw.Width1 = refineWall(fw.Width1, pool, cfg)
	fw.Width2 = refineWall(fw.Width2, pool, cfg)
	fw.Length1 = refineWall(fw.Length1, pool, cfg)
	fw.Length2 = refineWall(fw.Length2, pool, cfg)

	fw.Width1, fw.Width2 = rederive(fw.Width1, fw.Width2, cfg.FieldWidth)
	fw.Length1, fw.Length2 = rederive(fw.Length1, fw.Length2, cfg.FieldLength)
	return fw
}

func refineWall(w WallLine, pool []hough.HoughLine, cfg Config) WallLine {
	if w.IsGuessed() {
		return w
	}
	anchor, ok := poolLine(pool, w.Cell)
	if !ok {
		return w
	}
	if members := contributors(anchor.Line, pool, cfg); len(members) > 0 {
		w.Line = weightedMean(anchor.Line, pool, members)
	}
	return w
}

func poolLine(pool []hough.HoughLine, c hough.Cell) (hough.HoughLine, bool) {
	for _, h := range pool {
		if h.Cell == c {
			return h, true
		}
	}
	return hough.HoughLine{}, false
}

// contributors returns the indices of pool lines similar to ref.
func contributors(ref geom.PolarLine, pool []hough.HoughLine, cfg Config) []int {
	var idx []int
	for i, h := range pool {
		if geom.SmallestAngleBetween(ref, h.Line) >= cfg.SimilarityAngle {
			continue
		}
		if geom.DistanceCenterWith(ref, h.Line) >= cfg.SimilarityDistance {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// weightedMean averages the members aligned to ref so lines straddling the
// 0/π seam average correctly.
func weightedMean(ref geom.PolarLine, pool []hough.HoughLine, members []int) geom.PolarLine {
	dist := make([]float64, len(members))
	ang := make([]float64, len(members))
	weights := make([]float64, len(members))
	for i, m := range members {
		l := pool[m].Line.AlignedTo(ref)
		dist[i], ang[i] = l.Distance, l.Angle
		weights[i] = float64(pool[m].Weight)
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		weights = nil
	}
	return geom.Normalize(geom.PolarLine{
		Distance: stat.Mean(dist, weights),
		Angle:    stat.Mean(ang, weights),
	})
}

// rederive keeps a guessed wall exactly one field dimension across from
// its found partner.
func rederive(a, b WallLine, sep float64) (WallLine, WallLine) {
	switch {
	case b.IsGuessed() && !a.IsGuessed():
		b = GuessedWall(a.Line.ParallelAcross(sep))
	case a.IsGuessed() && !b.IsGuessed():
		a = GuessedWall(b.Line.ParallelAcross(sep))
	}
	return a, b
}
