package walls

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fieldwalls/internal/config"
	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
)

// offCentreField places the default 2.43 × 1.82 field with the scanner
// 0.2 m off its long axis and 0.215 m off its short axis.
func offCentreField(g *fakeGrid) (sideA, sideB, endA, endB hough.HoughLine) {
	sideA = g.add(-0.80, 90, 50)
	sideB = g.add(1.02, 90, 45)
	endB = g.add(-1.43, 0, 42)
	endA = g.add(1.00, 0, 40)
	return
}

func TestFindWalls_EmptyCandidates(t *testing.T) {
	_, err := FindWalls(nil, newFakeGrid(), DefaultConfig())
	assert.ErrorIs(t, err, ErrEmptyCandidates)
}

func TestFindWalls_NilGrid(t *testing.T) {
	g := newFakeGrid()
	h := g.add(1, 0, 10)
	_, err := FindWalls([]hough.HoughLine{h}, nil, DefaultConfig())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyCandidates)
}

func TestFindWalls_InvalidConfig(t *testing.T) {
	g := newFakeGrid()
	offCentreField(g)
	cfg := DefaultConfig()
	cfg.FieldWidth = 0
	_, err := FindWalls(g.candidates(), g, cfg)
	require.Error(t, err)
}

func TestFindWalls_FourWalls(t *testing.T) {
	g := newFakeGrid()
	sideA, sideB, endA, endB := offCentreField(g)

	res, err := FindWalls(g.candidates(), g, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, res.UsedFallback)

	want := FieldWalls{
		Width1:  Found(FoundAsParallel, sideA),
		Width2:  Found(FoundAsParallel, sideB),
		Length1: Found(FoundAsPerpendicular, endB),
		Length2: Found(FoundAsPerpendicular, endA),
	}
	if diff := cmp.Diff(want, res.Walls); diff != "" {
		t.Errorf("walls mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, res.WidthPairs(), 1)
	assert.Len(t, res.LengthPairs(), 1)
	assert.Len(t, res.Pool, 4)

	wantScore := sideA.Score() + sideB.Score() + endA.Score() + endB.Score()
	assert.InDelta(t, wantScore, res.Score, 1e-9)
	assert.Zero(t, res.Walls.GuessedCount())
}

func TestFindWalls_HeavierLengthPairIsReference(t *testing.T) {
	g := newFakeGrid()
	g.add(-0.80, 90, 30)
	g.add(1.02, 90, 30)
	g.add(-1.43, 0, 60)
	g.add(1.00, 0, 55)

	res, err := FindWalls(g.candidates(), g, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, FoundAsParallel, res.Walls.Length1.Source)
	assert.Equal(t, FoundAsParallel, res.Walls.Length2.Source)
	assert.Equal(t, FoundAsPerpendicular, res.Walls.Width1.Source)
	assert.Equal(t, FoundAsPerpendicular, res.Walls.Width2.Source)
}

func TestFindWalls_PrefersFartherStrongerWalls(t *testing.T) {
	g := newFakeGrid()
	offCentreField(g)
	// A weaker inner width pair (e.g. a bench) must lose to the boundary.
	g.add(-0.40, 89, 35)
	g.add(1.42, 89, 35)

	res, err := FindWalls(g.candidates(), g, DefaultConfig())
	require.NoError(t, err)
	got := []float64{res.Walls.Width1.Line.Distance, res.Walls.Width2.Line.Distance}
	assert.ElementsMatch(t, []float64{-0.80, 1.02}, roundCm(got))
	assert.Len(t, res.WidthPairs(), 2)
}

func TestFindWalls_PairAcrossAngleSeam(t *testing.T) {
	g := newFakeGrid()
	g.add(-0.80, 90, 50)
	g.add(1.02, 90, 45)
	endA := g.add(1.00, 0, 42)
	// (-1.43 m, -1°) canonicalises to (1.43 m, 179°).
	endB := g.add(-1.43, -1, 40)
	require.InDelta(t, 1.43, endB.Line.Distance, 1e-9)

	res, err := FindWalls(g.candidates(), g, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, endA.Cell, res.Walls.Length1.Cell)
	assert.Equal(t, endB.Cell, res.Walls.Length2.Cell)
}

func TestFindWalls_SeparationOutsideTolerance(t *testing.T) {
	g := newFakeGrid()
	// 1.45 m apart: neither 1.82 m ± 10% nor 2.43 m ± 10%.
	g.add(-0.70, 90, 50)
	g.add(0.75, 90, 45)
	g.add(-1.43, 0, 42)
	g.add(1.00, 0, 40)

	cfg := DefaultConfig()
	cfg.EnableFallback = false
	res, err := FindWalls(g.candidates(), g, cfg)
	require.ErrorIs(t, err, ErrNoQuadrupleFound)
	assert.NotErrorIs(t, err, ErrFallbackUnavailable)
	assert.Empty(t, res.WidthPairs())
	assert.Len(t, res.LengthPairs(), 1)
}

func TestFindWalls_FallbackGuessesMissingWall(t *testing.T) {
	g := newFakeGrid()
	sideA := g.add(-0.80, 90, 50)
	g.add(-1.43, 0, 42)
	g.add(1.00, 0, 40)

	res, err := FindWalls(g.candidates(), g, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, 1, res.Walls.GuessedCount())

	assert.Equal(t, Found(FoundAsPerpendicular, sideA), res.Walls.Width1)
	require.True(t, res.Walls.Width2.IsGuessed())
	assert.InDelta(t, sideA.Line.Distance+1.82, res.Walls.Width2.Line.Distance, 1e-9)
	assert.InDelta(t, sideA.Line.Angle, res.Walls.Width2.Line.Angle, 1e-12)
	assert.Equal(t, FoundAsParallel, res.Walls.Length1.Source)

	_, ok := res.Walls.Width2.Hough()
	assert.False(t, ok)
}

func TestFindWalls_FallbackGuessedLengthWall(t *testing.T) {
	g := newFakeGrid()
	g.add(-0.80, 90, 50)
	g.add(1.02, 90, 45)
	endA := g.add(1.00, 0, 40)

	res, err := FindWalls(g.candidates(), g, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, endA.Cell, res.Walls.Length1.Cell)
	require.True(t, res.Walls.Length2.IsGuessed())
	assert.InDelta(t, endA.Line.Distance-2.43, res.Walls.Length2.Line.Distance, 1e-9)
}

func TestFindWalls_FallbackDisabled(t *testing.T) {
	g := newFakeGrid()
	g.add(-0.80, 90, 50)
	g.add(-1.43, 0, 42)
	g.add(1.00, 0, 40)

	cfg := DefaultConfig()
	cfg.EnableFallback = false
	_, err := FindWalls(g.candidates(), g, cfg)
	assert.ErrorIs(t, err, ErrNoQuadrupleFound)
	assert.NotErrorIs(t, err, ErrFallbackUnavailable)
}

func TestFindWalls_FallbackUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		setup func(g *fakeGrid)
	}{
		{"single line", func(g *fakeGrid) { g.add(1.0, 30, 80) }},
		{"parallel pair only", func(g *fakeGrid) {
			g.add(-1.43, 0, 42)
			g.add(1.00, 0, 40)
		}},
		{"perpendicular wall beyond the other dimension", func(g *fakeGrid) {
			g.add(-1.43, 0, 42)
			g.add(1.00, 0, 40)
			g.add(1.90, 90, 60)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGrid()
			tt.setup(g)
			res, err := FindWalls(g.candidates(), g, DefaultConfig())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoQuadrupleFound)
			assert.ErrorIs(t, err, ErrFallbackUnavailable)
			assert.False(t, res.UsedFallback)
			assert.Equal(t, FieldWalls{}, res.Walls)
		})
	}
}

func TestFindWalls_FallbackRanking(t *testing.T) {
	setup := func() *fakeGrid {
		g := newFakeGrid()
		g.add(-1.43, 0, 42)
		g.add(1.00, 0, 40)
		g.add(-0.80, 90, 50) // score 40
		g.add(0.60, 92, 31)  // score 18.6
		return g
	}

	tests := []struct {
		name    string
		ranking FallbackRanking
		want    float64
	}{
		{"score", RankByScore, -0.80},
		{"lowest weight", RankByLowestWeight, 0.60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := setup()
			cfg := DefaultConfig()
			cfg.FallbackRanking = tt.ranking
			res, err := FindWalls(g.candidates(), g, cfg)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Walls.Width1.Line.Distance, 1e-9)
		})
	}
}

// The shipped ranking keeps the far, strong wall over the lightest trio.
func TestFindWalls_DefaultFallbackRankingIsScore(t *testing.T) {
	configs := map[string]Config{
		"compiled-in": DefaultConfig(),
		"tuning file": ConfigFromTuning(config.MustLoadDefaultConfig()),
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, RankByScore, cfg.FallbackRanking)

			g := newFakeGrid()
			g.add(-1.43, 0, 42)
			g.add(1.00, 0, 40)
			g.add(-0.80, 90, 50)
			g.add(0.60, 92, 31)
			res, err := FindWalls(g.candidates(), g, cfg)
			require.NoError(t, err)
			require.True(t, res.UsedFallback)
			assert.InDelta(t, -0.80, res.Walls.Width1.Line.Distance, 1e-9)
		})
	}
}

func TestFallbackRanking_String(t *testing.T) {
	assert.Equal(t, "score", RankByScore.String())
	assert.Equal(t, "lowest_weight", RankByLowestWeight.String())
}

func TestWallSource_String(t *testing.T) {
	assert.Equal(t, "parallel", FoundAsParallel.String())
	assert.Equal(t, "perpendicular", FoundAsPerpendicular.String())
	assert.Equal(t, "guessed", Guessed.String())
	assert.Equal(t, "unknown", WallSource(0).String())
}

func TestFieldWalls_CornersAndContains(t *testing.T) {
	g := newFakeGrid()
	offCentreField(g)
	res, err := FindWalls(g.candidates(), g, DefaultConfig())
	require.NoError(t, err)

	corners, ok := res.Walls.Corners(1e-9)
	require.True(t, ok)
	for i := range corners {
		next := corners[(i+1)%4]
		side := corners[i].DistanceTo(next)
		if math.Abs(side-1.82) > 1e-6 && math.Abs(side-2.43) > 1e-6 {
			t.Errorf("corner %d→%d side = %v, want 1.82 or 2.43", i, (i+1)%4, side)
		}
	}

	assert.True(t, res.Walls.Contains(pt(0, 0)))
	assert.False(t, res.Walls.Contains(pt(0, 1.5)))
	assert.False(t, res.Walls.Contains(pt(-2, 0)))

	degenerate := res.Walls
	degenerate.Length1 = degenerate.Width1
	_, ok = degenerate.Corners(1e-9)
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero length", func(c *Config) { c.FieldLength = 0 }, true},
		{"nan width", func(c *Config) { c.FieldWidth = math.NaN() }, true},
		{"negative parallel tolerance", func(c *Config) { c.ParallelTolerance = -0.1 }, true},
		{"perpendicular tolerance too wide", func(c *Config) { c.PerpendicularTolerance = 1 }, true},
		{"negative exact tolerance", func(c *Config) { c.ExactTolerance = -1 }, true},
		{"separation tolerance of 100%", func(c *Config) { c.SeparationTolerance = 1 }, true},
		{"negative neighbourhood", func(c *Config) { c.NeighborhoodAngle = -1 }, true},
		{"negative similarity", func(c *Config) { c.SimilarityDistance = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2.43, cfg.FieldLength)
	assert.Equal(t, 1.82, cfg.FieldWidth)
	assert.InDelta(t, 20*math.Pi/180, cfg.SimilarityAngle, 1e-12)
	assert.True(t, cfg.EnableFallback)
	assert.Equal(t, RankByScore, cfg.FallbackRanking)
	assert.Equal(t, 10, cfg.NeighborhoodDistance)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_IntersectionTolerance(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.ExactTolerance, cfg.IntersectionTolerance())

	cfg.ExactTolerance = 0
	assert.Equal(t, geom.MinExactTolerance, cfg.IntersectionTolerance())

	// Two walls 1e-6 rad off parallel only intersect under a tight guard.
	fw := FieldWalls{
		Width1:  GuessedWall(geom.NewPolarLine(1, 0)),
		Width2:  GuessedWall(geom.NewPolarLine(-1, 0)),
		Length1: GuessedWall(geom.NewPolarLine(1, 1e-6)),
		Length2: GuessedWall(geom.NewPolarLine(-1, 1e-6)),
	}
	cfg.ExactTolerance = 1e-9
	_, ok := fw.Corners(cfg.IntersectionTolerance())
	assert.True(t, ok)
	cfg.ExactTolerance = 1e-3
	_, ok = fw.Corners(cfg.IntersectionTolerance())
	assert.False(t, ok)
}

func roundCm(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = math.Round(v*100) / 100
	}
	return out
}

func pt(x, y float64) geom.Point { return geom.Point{X: x, Y: y} }
