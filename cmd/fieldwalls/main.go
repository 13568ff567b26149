package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/fieldwalls/internal/config"
	"github.com/banshee-data/fieldwalls/internal/lidar/debug"
	"github.com/banshee-data/fieldwalls/internal/lidar/ld06"
	"github.com/banshee-data/fieldwalls/internal/lidar/pipeline"
	"github.com/banshee-data/fieldwalls/internal/monitoring"
	"github.com/banshee-data/fieldwalls/internal/serialmux"
	"github.com/banshee-data/fieldwalls/internal/units"
	"github.com/banshee-data/fieldwalls/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to tuning JSON (default: compiled-in defaults)")
	inputCSV   = flag.String("input", "", "CSV scan to process (distance_m,angle_rad per line)")
	replayPath = flag.String("replay", "", "Raw LD06 byte capture to replay")
	serialPath = flag.String("serial", "", "Scanner serial device (e.g. /dev/ttyUSB0)")
	maxScans   = flag.Int("scans", 0, "Stop after this many scans (0 = no limit)")
	plotDir    = flag.String("plot-dir", "", "Write a PNG per scan into this directory")
	plotEvery  = flag.Int("plot-every", 1, "Plot every Nth scan")
	angleUnits = flag.String("angle-units", units.Degrees, "Units for wall angles in the report ("+units.GetValidAngleUnitsString()+")")
	heatmap    = flag.Bool("heatmap", false, "Also write the Hough accumulator as HTML (needs -plot-dir)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] (-input FILE | -replay FILE | -serial DEVICE)\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Finds the four walls of the playing field in 2-D scanner sweeps.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	sources := 0
	for _, s := range []string{*inputCSV, *replayPath, *serialPath} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -input, -replay or -serial is required")
		flag.Usage()
		os.Exit(2)
	}

	if !units.IsValidAngleUnit(*angleUnits) {
		fmt.Fprintf(os.Stderr, "Error: invalid -angle-units %q (valid: %s)\n", *angleUnits, units.GetValidAngleUnitsString())
		os.Exit(2)
	}

	monitoring.SetVerbose(*verbose)
	if *verbose {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, nil, nil)
	}

	tuning := config.DefaultTuningConfig()
	if *configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	log.Printf("fieldwalls %s", version.String())
	detector, err := pipeline.DetectorFromTuning(tuning)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	detector.KeepAccumulator = *heatmap

	var collector *debug.Collector
	if *plotDir != "" {
		if collector, err = debug.NewCollector(*plotDir, *plotEvery, debug.PlotOptions{
			Extent:         tuning.GetMaxRangeM(),
			ExactTolerance: detector.Walls.IntersectionTolerance(),
		}); err != nil {
			log.Fatalf("Failed to prepare plot dir: %v", err)
		}
	}

	r := newRunner(detector, collector, os.Stdout, *maxScans)
	r.angleUnits = *angleUnits

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	decoder := ld06.DecoderConfigFromTuning(tuning)
	switch {
	case *inputCSV != "":
		err = r.runCSV(*inputCSV)
	case *replayPath != "":
		err = r.runReplay(ctx, *replayPath, decoder)
	default:
		err = r.runSerial(ctx, *serialPath, serialmux.PortOptionsFromTuning(tuning), decoder)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	snap := r.last.Snapshot()
	log.Printf("done: %d scans, %d detected, %d failed", r.scans, snap.Successes, snap.Failures)
}
