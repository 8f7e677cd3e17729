// Command odometry replays a recorded .scanlog session through the
// LiDAR-inertial processor, logging per-scan poses and optionally recording
// them to a database and rendering trajectory plots.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/odometry.report/internal/config"
	"github.com/banshee-data/odometry.report/internal/eskf"
	"github.com/banshee-data/odometry.report/internal/imu"
	"github.com/banshee-data/odometry.report/internal/monitor"
	"github.com/banshee-data/odometry.report/internal/odomdb"
	"github.com/banshee-data/odometry.report/internal/scanlog"
)

var (
	input      = flag.String("i", "", "input .scanlog file (required)")
	configPath = flag.String("config", "", "tuning config JSON (optional)")
	dbPath     = flag.String("db", "", "record poses to this SQLite database")
	plotDir    = flag.String("plots", "", "render trajectory plots into this directory")
	notes      = flag.String("notes", "", "notes stored with the run record")
)

func main() {
	flag.Parse()
	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
}

func run() error {
	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			return err
		}
		tuning = loaded
		log.Printf("loaded tuning config from %s", *configPath)
	}

	reader, err := scanlog.NewReader(*input)
	if err != nil {
		return err
	}
	defer reader.Close()

	var db *odomdb.OdomDB
	var runID string
	if *dbPath != "" {
		db, err = odomdb.NewOdomDB(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		runID, err = db.StartRun(*notes)
		if err != nil {
			return err
		}
		log.Printf("recording poses to %s (run %s)", *dbPath, runID)
	}

	plotter := monitor.NewTrajectoryPlotter()
	if *plotDir != "" {
		if err := plotter.Start(*plotDir); err != nil {
			return err
		}
	}

	filter := eskf.NewFilter()
	proc := imu.NewProcessor(tuning.ProcessorConfig(), filter)

	scanIdx := 0
	for {
		pkg, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		wasInitialized := proc.Initialized()
		proc.Process(pkg)
		if !proc.Initialized() {
			log.Printf("accumulating initialization samples (%d IMU samples in package)", len(pkg.Samples))
			continue
		}
		if !wasInitialized {
			log.Printf("initialized after scan %d", scanIdx)
		}

		x := filter.State()
		log.Printf("scan %d: pos=(%.3f, %.3f, %.3f) speed=%.3f m/s",
			scanIdx, x.Pos[0], x.Pos[1], x.Pos[2], x.Vel.Norm())

		if db != nil {
			err := db.RecordPose(runID, odomdb.Pose{
				ScanIndex:   scanIdx,
				ScanEndTime: pkg.ScanEndTime,
				Pos:         x.Pos,
				Vel:         x.Vel,
				Rot:         x.Rot,
			})
			if err != nil {
				return err
			}
		}
		plotter.Sample(scanIdx, pkg.ScanEndTime, x.Pos, x.Vel, x.Rot)
		scanIdx++
	}

	if db != nil {
		if err := db.EndRun(runID); err != nil {
			return err
		}
	}

	if *plotDir != "" {
		plotter.Stop()
		n, err := plotter.GeneratePlots()
		if err != nil {
			return fmt.Errorf("plot generation: %w", err)
		}
		log.Printf("wrote %d plots to %s", n, *plotDir)
	}

	log.Printf("✓ Replayed %d scans", scanIdx)
	return nil
}
