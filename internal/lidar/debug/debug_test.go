package debug

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/hough"
	"github.com/banshee-data/fieldwalls/internal/lidar/ld06"
	"github.com/banshee-data/fieldwalls/internal/lidar/pipeline"
	"github.com/banshee-data/fieldwalls/internal/lidar/walls"
	"github.com/banshee-data/fieldwalls/internal/testutil"
)

var field = testutil.Rectangle{Length: 2.43, Width: 1.82}

func testWalls() walls.FieldWalls {
	return walls.FieldWalls{
		Width1:  walls.GuessedWall(geom.NewPolarLine(-0.91, math.Pi/2)),
		Width2:  walls.GuessedWall(geom.NewPolarLine(0.91, math.Pi/2)),
		Length1: walls.GuessedWall(geom.NewPolarLine(-1.215, 0)),
		Length2: walls.GuessedWall(geom.NewPolarLine(1.215, 0)),
	}
}

func assertNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotScan(t *testing.T) {
	dir := t.TempDir()
	points := testutil.RectangleScan(field, testutil.ScanOptions{PointsPerWall: 50, Seed: 1})
	fw := testWalls()

	path := filepath.Join(dir, "scan.png")
	require.NoError(t, PlotScan(path, points, &fw, PlotOptions{Title: "test"}))
	assertNonEmptyFile(t, path)

	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, PlotScan(empty, nil, nil, PlotOptions{}))
	assertNonEmptyFile(t, empty)
}

func TestCornerXYs(t *testing.T) {
	got := cornerXYs(testWalls(), geom.DefaultExactTolerance)
	require.Len(t, got, 4)
	want := []geom.Point{{X: -1.215, Y: -0.91}, {X: 1.215, Y: -0.91}, {X: 1.215, Y: 0.91}, {X: -1.215, Y: 0.91}}
	for i, w := range want {
		assert.InDelta(t, w.X, got[i].X, 1e-9, "corner %d x", i)
		assert.InDelta(t, w.Y, got[i].Y, 1e-9, "corner %d y", i)
	}

	assert.Nil(t, cornerXYs(testWalls(), math.Pi), "guard wider than any angle treats every pair as parallel")

	degenerate := testWalls()
	degenerate.Length1 = degenerate.Width1
	assert.Nil(t, cornerXYs(degenerate, geom.DefaultExactTolerance))
}

func TestPlotScan_WithoutCorners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	fw := testWalls()
	fw.Length1 = fw.Width1
	require.NoError(t, PlotScan(path, nil, &fw, PlotOptions{ExactTolerance: 1e-6}))
	assertNonEmptyFile(t, path)
}

func TestPlotScan_BadPath(t *testing.T) {
	err := PlotScan(filepath.Join(t.TempDir(), "missing", "scan.png"), nil, nil, PlotOptions{})
	assert.Error(t, err)
}

func TestWriteAccumulatorHeatmap(t *testing.T) {
	points := testutil.RectangleScan(field, testutil.ScanOptions{PointsPerWall: 50, Seed: 2})
	acc, err := hough.Build(points, hough.DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAccumulatorHeatmap(&buf, acc, "votes"))
	assert.Contains(t, buf.String(), "Hough Accumulator")
	assert.Contains(t, buf.String(), "votes")

	assert.Error(t, WriteAccumulatorHeatmap(&buf, nil, "none"))

	path := filepath.Join(t.TempDir(), "nested", "hough.html")
	require.NoError(t, SaveAccumulatorHeatmap(path, acc, "votes"))
	assertNonEmptyFile(t, path)
}

func TestCollector(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	c, err := NewCollector(dir, 2, PlotOptions{Extent: 2})
	require.NoError(t, err)

	points := testutil.RectangleScan(field, testutil.ScanOptions{PointsPerWall: 50, Seed: 3})
	acc, err := hough.Build(points, hough.DefaultConfig())
	require.NoError(t, err)

	scan := ld06.Scan{ID: "s1", Points: points}
	ok := pipeline.ScanReport{ScanID: "s1", Result: pipeline.Result{Walls: testWalls(), Accumulator: acc}}
	failed := pipeline.ScanReport{ScanID: "s1", Err: errors.New("no walls")}

	require.NoError(t, c.Record(scan, ok))     // 1: written
	require.NoError(t, c.Record(scan, ok))     // 2: skipped
	require.NoError(t, c.Record(scan, failed)) // 3: written, no heatmap

	want := []string{
		filepath.Join(dir, "scan_0001.png"),
		filepath.Join(dir, "hough_0001.html"),
		filepath.Join(dir, "scan_0003.png"),
	}
	assert.Equal(t, want, c.Written())
	for _, p := range want {
		assertNonEmptyFile(t, p)
	}
}
