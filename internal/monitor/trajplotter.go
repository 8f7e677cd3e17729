// Package monitor provides debug visualization for odometry runs.
package monitor

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/odometry.report/internal/so3"
)

// TrajectoryPlotter records per-scan pose samples over a run, accumulating
// time series that can be plotted after the run completes.
type TrajectoryPlotter struct {
	mu        sync.Mutex
	enabled   bool
	outputDir string

	samples []PoseSample
}

// PoseSample is one snapshot of the estimated state at a scan boundary.
type PoseSample struct {
	ScanIdx     int
	ScanEndTime float64
	Pos         so3.Vec3
	Vel         so3.Vec3
	// Yaw is the heading extracted from the rotation, for heading-drift
	// plots.
	Yaw float64
}

// NewTrajectoryPlotter creates a plotter writing into outputDir.
func NewTrajectoryPlotter() *TrajectoryPlotter {
	return &TrajectoryPlotter{}
}

// Start initializes the plotter for a new run.
func (tp *TrajectoryPlotter) Start(outputDir string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tp.outputDir = outputDir
	tp.enabled = true
	tp.samples = tp.samples[:0]
	return nil
}

// Stop disables sampling. Call GeneratePlots() to produce output files.
func (tp *TrajectoryPlotter) Stop() {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.enabled = false
}

// IsEnabled returns true if the plotter is currently recording.
func (tp *TrajectoryPlotter) IsEnabled() bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return tp.enabled
}

// Sample captures one scan-end pose. Call once per processed scan.
func (tp *TrajectoryPlotter) Sample(scanIdx int, scanEndTime float64, pos, vel so3.Vec3, rot so3.Mat3) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if !tp.enabled {
		return
	}

	tp.samples = append(tp.samples, PoseSample{
		ScanIdx:     scanIdx,
		ScanEndTime: scanEndTime,
		Pos:         pos,
		Vel:         vel,
		Yaw:         math.Atan2(rot[3], rot[0]),
	})
}

// GeneratePlots creates PNG files for the recorded run: the XY ground
// track, per-axis position over time, and speed over time. Returns the
// number of plots generated.
func (tp *TrajectoryPlotter) GeneratePlots() (int, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if tp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if len(tp.samples) == 0 {
		return 0, nil
	}

	if err := tp.generateTrackPlot(); err != nil {
		return 0, fmt.Errorf("track plot: %w", err)
	}
	if err := tp.generatePositionPlot(); err != nil {
		return 1, fmt.Errorf("position plot: %w", err)
	}
	if err := tp.generateSpeedPlot(); err != nil {
		return 2, fmt.Errorf("speed plot: %w", err)
	}
	return 3, nil
}

func (tp *TrajectoryPlotter) generateTrackPlot() error {
	p := plot.New()
	p.Title.Text = "Ground Track"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	pts := make(plotter.XYs, 0, len(tp.samples))
	for _, s := range tp.samples {
		pts = append(pts, plotter.XY{X: s.Pos[0], Y: s.Pos[1]})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	return p.Save(8*vg.Inch, 8*vg.Inch, filepath.Join(tp.outputDir, "track_xy.png"))
}

func (tp *TrajectoryPlotter) generatePositionPlot() error {
	p := plot.New()
	p.Title.Text = "Position"
	p.X.Label.Text = "Scan time (s)"
	p.Y.Label.Text = "Position (m)"

	colors := []color.RGBA{
		{R: 214, G: 39, B: 40, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 31, G: 119, B: 180, A: 255},
	}
	labels := []string{"x", "y", "z"}

	t0 := tp.samples[0].ScanEndTime
	for axis := 0; axis < 3; axis++ {
		pts := make(plotter.XYs, 0, len(tp.samples))
		for _, s := range tp.samples {
			pts = append(pts, plotter.XY{X: s.ScanEndTime - t0, Y: s.Pos[axis]})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[axis]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(labels[axis], line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(14*vg.Inch, 6*vg.Inch, filepath.Join(tp.outputDir, "position.png"))
}

func (tp *TrajectoryPlotter) generateSpeedPlot() error {
	p := plot.New()
	p.Title.Text = "Speed"
	p.X.Label.Text = "Scan time (s)"
	p.Y.Label.Text = "Speed (m/s)"

	t0 := tp.samples[0].ScanEndTime
	pts := make(plotter.XYs, 0, len(tp.samples))
	for _, s := range tp.samples {
		pts = append(pts, plotter.XY{X: s.ScanEndTime - t0, Y: s.Vel.Norm()})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 148, G: 103, B: 189, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	return p.Save(14*vg.Inch, 6*vg.Inch, filepath.Join(tp.outputDir, "speed.png"))
}
