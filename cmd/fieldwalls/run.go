package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/fieldwalls/internal/lidar/debug"
	"github.com/banshee-data/fieldwalls/internal/lidar/geom"
	"github.com/banshee-data/fieldwalls/internal/lidar/ld06"
	"github.com/banshee-data/fieldwalls/internal/lidar/pipeline"
	"github.com/banshee-data/fieldwalls/internal/lidar/walls"
	"github.com/banshee-data/fieldwalls/internal/serialmux"
	"github.com/banshee-data/fieldwalls/internal/units"
)

// errLimit stops a scan source once the requested number of scans ran.
var errLimit = errors.New("scan limit reached")

type runner struct {
	collector *debug.Collector
	last      *pipeline.LastGood
	out       io.Writer
	limit     int
	scans     int

	angleUnits string // units.Radians or units.Degrees

	detect  func(ld06.Scan)
	current ld06.Scan
}

func newRunner(d *pipeline.Detector, c *debug.Collector, out io.Writer, limit int) *runner {
	r := &runner{collector: c, last: &pipeline.LastGood{}, out: out, limit: limit, angleUnits: units.Degrees}
	r.detect = d.NewScanCallback(r.last, r.report)
	return r
}

// handle runs detection on one scan. Empty scans are ignored.
func (r *runner) handle(scan ld06.Scan) error {
	r.current = scan
	r.detect(scan)
	if r.limit > 0 && r.scans >= r.limit {
		return errLimit
	}
	return nil
}

func (r *runner) report(rep pipeline.ScanReport) {
	r.scans++
	fmt.Fprintln(r.out, formatReport(rep, r.angleUnits))
	if r.collector != nil {
		if err := r.collector.Record(r.current, rep); err != nil {
			log.Printf("failed to write debug artifacts: %v", err)
		}
	}
}

func (r *runner) runCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	points, err := readCSV(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := r.handle(ld06.Scan{ID: uuid.NewString(), Points: points}); err != nil && !errors.Is(err, errLimit) {
		return err
	}
	return nil
}

func (r *runner) runReplay(ctx context.Context, path string, decoder ld06.DecoderConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()
	err = replay(ctx, f, decoder, r.handle)
	if errors.Is(err, errLimit) {
		return nil
	}
	return err
}

// replay decodes a raw capture sequentially so no scan is dropped.
func replay(ctx context.Context, src io.Reader, decoder ld06.DecoderConfig, fn func(ld06.Scan) error) error {
	reader := ld06.NewFrameReader(src)
	assembler := ld06.NewScanAssembler(decoder)
	for ctx.Err() == nil {
		p, err := reader.Next()
		switch {
		case err == nil:
		case errors.Is(err, ld06.ErrChecksum), errors.Is(err, ld06.ErrStartNotFound):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		default:
			return err
		}
		if scan, ok := assembler.Add(p); ok {
			if err := fn(scan); err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

func (r *runner) runSerial(ctx context.Context, path string, opts serialmux.PortOptions, decoder ld06.DecoderConfig) error {
	mux, err := serialmux.OpenScanner(path, opts, decoder, nil)
	if err != nil {
		return fmt.Errorf("failed to open scanner: %w", err)
	}
	defer mux.Close()
	log.Printf("reading scans from %s at %d baud", path, opts.BaudRate)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	id, scans := mux.Subscribe()
	defer mux.Unsubscribe(id)

	monitorErr := make(chan error, 1)
	go func() { monitorErr <- mux.Monitor(ctx) }()

	for {
		select {
		case scan, ok := <-scans:
			if !ok {
				return nil
			}
			if err := r.handle(scan); err != nil {
				if errors.Is(err, errLimit) {
					return nil
				}
				return err
			}
		case err := <-monitorErr:
			stats := mux.Stats()
			log.Printf("scanner stopped: %d packets, %d checksum errors, %d dropped scans",
				stats.Packets.Load(), stats.ChecksumErrors.Load(), stats.Dropped.Load())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// readCSV parses "distance_m,angle_rad" rows. Blank lines and lines
// starting with # are skipped.
func readCSV(src io.Reader) ([]geom.PolarPoint, error) {
	cr := csv.NewReader(src)
	cr.Comment = '#'
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var points []geom.PolarPoint
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return points, nil
		}
		if err != nil {
			return nil, err
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad distance %q: %w", rec[0], err)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad angle %q: %w", rec[1], err)
		}
		points = append(points, geom.PolarPoint{Distance: d, Angle: a})
	}
}

// formatReport renders one line per scan with wall angles in angleUnits.
func formatReport(rep pipeline.ScanReport, angleUnits string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scan %s: ", rep.ScanID)
	if rep.Err != nil {
		fmt.Fprintf(&b, "%s", failureKind(rep.Err))
		if rep.Last.Valid {
			fmt.Fprintf(&b, " (keeping walls from %s)", rep.Last.ScanID)
		}
		return b.String()
	}
	fw := rep.Result.Walls
	names := [4]string{"W1", "W2", "L1", "L2"}
	for i, w := range fw.Walls() {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s=%s", names[i], formatWall(w, angleUnits))
	}
	if rep.Result.HasCorners {
		b.WriteString(" corners=")
		for i, c := range rep.Result.Corners {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "(%.3f %.3f)", c.X, c.Y)
		}
	}
	if rep.Result.UsedFallback {
		b.WriteString(" [fallback]")
	}
	return b.String()
}

func formatWall(w walls.WallLine, angleUnits string) string {
	theta := units.ConvertAngle(w.Line.Angle, angleUnits)
	angle := fmt.Sprintf("%.4frad", theta)
	if angleUnits == units.Degrees {
		angle = fmt.Sprintf("%.1f°", theta)
	}
	return fmt.Sprintf("ρ=%.3fm θ=%s [%s w=%d]", w.Line.Distance, angle, w.Source, w.Weight)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, walls.ErrFallbackUnavailable):
		return "no rectangle, fallback unavailable"
	case errors.Is(err, walls.ErrNoQuadrupleFound):
		return "no rectangle"
	case errors.Is(err, walls.ErrEmptyCandidates):
		return "no line candidates"
	default:
		return err.Error()
	}
}
