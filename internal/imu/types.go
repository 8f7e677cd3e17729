package imu

import "github.com/banshee-data/odometry.report/internal/so3"

// Sample is one inertial measurement: body-frame linear acceleration and
// angular rate at a sensor timestamp (seconds).
type Sample struct {
	Timestamp float64
	Acc       so3.Vec3
	Gyro      so3.Vec3
}

// Point is one LiDAR return in the sensor frame. TimeOffsetMillis is the
// intra-scan sampling offset relative to the scan start, in milliseconds
// (kept in the same scalar slot the upstream driver uses).
type Point struct {
	X, Y, Z          float64
	Intensity        uint8
	TimeOffsetMillis float64
}

// OffsetSeconds returns the point's intra-scan offset in seconds.
func (p *Point) OffsetSeconds() float64 {
	return p.TimeOffsetMillis / 1000.0
}

// ScanPackage pairs one LiDAR scan with the inertial samples covering its
// interval. The deskewer rewrites Points in place into the scan's
// end-of-window sensor frame.
type ScanPackage struct {
	Points        []Point
	ScanStartTime float64
	ScanEndTime   float64
	Samples       []Sample
}

// TrajectoryRecord is a snapshot of kinematic state at one inertial sample
// boundary during forward integration. Acc is bias- and gravity-corrected in
// the world frame; Gyro is bias-corrected. Offset is seconds since scan
// start.
type TrajectoryRecord struct {
	Offset float64
	Acc    so3.Vec3
	Gyro   so3.Vec3
	Vel    so3.Vec3
	Pos    so3.Vec3
	Rot    so3.Mat3
}
