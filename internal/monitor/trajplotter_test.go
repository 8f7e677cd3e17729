package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/odometry.report/internal/so3"
)

func TestSampleIgnoredWhenDisabled(t *testing.T) {
	tp := NewTrajectoryPlotter()
	tp.Sample(0, 1.0, so3.Vec3{1, 0, 0}, so3.Vec3{}, so3.Identity())
	if len(tp.samples) != 0 {
		t.Errorf("expected no samples before Start, got %d", len(tp.samples))
	}
}

func TestStartStopLifecycle(t *testing.T) {
	tp := NewTrajectoryPlotter()
	dir := t.TempDir()

	if err := tp.Start(dir); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !tp.IsEnabled() {
		t.Error("plotter should be enabled after Start")
	}

	tp.Sample(0, 1.0, so3.Vec3{0, 0, 0}, so3.Vec3{1, 0, 0}, so3.Identity())
	tp.Sample(1, 1.1, so3.Vec3{0.1, 0, 0}, so3.Vec3{1, 0, 0}, so3.Identity())

	tp.Stop()
	if tp.IsEnabled() {
		t.Error("plotter should be disabled after Stop")
	}
	tp.Sample(2, 1.2, so3.Vec3{0.2, 0, 0}, so3.Vec3{1, 0, 0}, so3.Identity())
	if len(tp.samples) != 2 {
		t.Errorf("samples after Stop should be ignored, got %d", len(tp.samples))
	}
}

func TestGeneratePlotsWritesFiles(t *testing.T) {
	tp := NewTrajectoryPlotter()
	dir := filepath.Join(t.TempDir(), "plots")
	if err := tp.Start(dir); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 20; i++ {
		ts := 10.0 + float64(i)*0.1
		tp.Sample(i, ts,
			so3.Vec3{float64(i) * 0.05, float64(i) * 0.02, 0},
			so3.Vec3{0.5, 0.2, 0},
			so3.Exp(so3.Vec3{0, 0, float64(i) * 0.01}))
	}
	tp.Stop()

	n, err := tp.GeneratePlots()
	if err != nil {
		t.Fatalf("GeneratePlots: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 plots, got %d", n)
	}

	for _, name := range []string{"track_xy.png", "position.png", "speed.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing plot %s: %v", name, err)
		}
	}
}

func TestGeneratePlotsWithoutSamplesIsNoOp(t *testing.T) {
	tp := NewTrajectoryPlotter()
	if err := tp.Start(t.TempDir()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	n, err := tp.GeneratePlots()
	if err != nil {
		t.Fatalf("GeneratePlots: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 plots with no samples, got %d", n)
	}
}
