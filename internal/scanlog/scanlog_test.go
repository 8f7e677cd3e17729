package scanlog

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/odometry.report/internal/imu"
	"github.com/banshee-data/odometry.report/internal/so3"
)

func samplePackage(start float64) *imu.ScanPackage {
	return &imu.ScanPackage{
		ScanStartTime: start,
		ScanEndTime:   start + 0.1,
		Samples: []imu.Sample{
			{Timestamp: start, Acc: so3.Vec3{0, 0, 9.81}, Gyro: so3.Vec3{0.01, 0, 0}},
			{Timestamp: start + 0.05, Acc: so3.Vec3{0, 0.1, 9.8}},
			{Timestamp: start + 0.1, Acc: so3.Vec3{0, 0, 9.81}},
		},
		Points: []imu.Point{
			{X: 1, Y: 2, Z: 3, Intensity: 17, TimeOffsetMillis: 12},
			{X: -4, Y: 5, Z: -6, TimeOffsetMillis: 88},
		},
	}
}

func TestWriteThenReplayPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session"+FileExtension)

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	want := []*imu.ScanPackage{samplePackage(10.0), samplePackage(10.1), samplePackage(10.2)}
	for _, pkg := range want {
		if err := w.Write(pkg); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if w.Count() != 3 {
		t.Errorf("Count: got %d, want 3", w.Count())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	for i, wantPkg := range want {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if diff := cmp.Diff(wantPkg, got); diff != "" {
			t.Errorf("package %d mismatch (-want +got):\n%s", i, diff)
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end of log, got %v", err)
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed"+FileExtension)
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Write(samplePackage(0)); err == nil {
		t.Error("expected error writing to a closed log")
	}
}

func TestReaderRejectsMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "absent.scanlog")); err == nil {
		t.Error("expected error for missing log")
	}
}
