// Package imu implements the inertial state-propagation and LiDAR motion
// compensation stage of the odometry pipeline: stationary bias/gravity
// initialization, forward trajectory integration through the error-state
// filter, and backward per-point deskewing of each scan.
package imu

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/odometry.report/internal/eskf"
	"github.com/banshee-data/odometry.report/internal/so3"
)

// Initial covariance magnitudes applied when seeding the filter. The blocks
// not listed here stay at identity scale.
const (
	InitCovExtrinsicRot   = 0.00001
	InitCovExtrinsicTrans = 0.00001
	InitCovGyroBias       = 0.0001
	InitCovAccelBias      = 0.0001
	InitCovGravity        = 0.00001
)

// Estimator is the capability set the processor needs from the error-state
// filter: a mutable nominal state, a directly settable covariance, and a
// prediction step. eskf.Filter is the conforming implementation; tests
// substitute a mock that records predict inputs.
type Estimator interface {
	State() *eskf.State
	Covariance() *mat.Dense
	Predict(in eskf.Input, dt float64, q *mat.Dense)
}

// Config holds the processor's tuning parameters. All fields are read once
// at construction.
type Config struct {
	GyroNoise      float64 // gyro measurement noise density
	AccelNoise     float64 // accel measurement noise density
	GyroBiasNoise  float64 // gyro bias random-walk density
	AccelBiasNoise float64 // accel bias random-walk density

	ExtrinsicRot   so3.Mat3 // IMU-to-LiDAR rotation
	ExtrinsicTrans so3.Vec3 // IMU-to-LiDAR translation

	InitSampleCount int  // samples to accumulate before initializing
	GravityAlign    bool // derive initial attitude from measured gravity
}

// DefaultConfig returns the default processor configuration.
func DefaultConfig() Config {
	return Config{
		GyroNoise:       0.0001,
		AccelNoise:      0.0001,
		GyroBiasNoise:   0.00001,
		AccelBiasNoise:  0.00001,
		ExtrinsicRot:    so3.Identity(),
		InitSampleCount: 20,
		GravityAlign:    true,
	}
}

// Processor owns the per-instance carry-over state between consecutive
// scans: the previous scan's trailing sample, the last corrected
// acceleration and angular rate, and the end of the previous integration
// window. Callers must serialize Process calls per instance.
type Processor struct {
	cfg Config
	est Estimator
	q   *mat.Dense // process noise, built once from the configured densities

	initBuf    []Sample
	workBuf    []Sample
	trajectory []TrajectoryRecord

	lastSample  Sample
	lastAcc     so3.Vec3
	lastGyro    so3.Vec3
	lastEndTime float64
	initialized bool
}

// NewProcessor creates a processor driving the given estimator.
func NewProcessor(cfg Config, est Estimator) *Processor {
	return &Processor{
		cfg: cfg,
		est: est,
		q:   eskf.ProcessNoise(cfg.GyroNoise, cfg.AccelNoise, cfg.GyroBiasNoise, cfg.AccelBiasNoise),
	}
}

// Initialized reports whether the stationary initialization phase has
// completed.
func (p *Processor) Initialized() bool { return p.initialized }

// Initialize accumulates samples until the configured count is reached,
// then seeds the estimator: gyro bias from the mean angular rate, extrinsics
// from configuration, gravity (and optionally attitude) from the mean
// acceleration, and a block-diagonal initial covariance. Returns false until
// enough samples have accumulated; the estimator is untouched until then.
func (p *Processor) Initialize(samples []Sample) bool {
	p.initBuf = append(p.initBuf, samples...)
	if len(p.initBuf) < p.cfg.InitSampleCount {
		return false
	}

	var accMean, gyroMean so3.Vec3
	for _, s := range p.initBuf {
		accMean = accMean.Add(s.Acc)
		gyroMean = gyroMean.Add(s.Gyro)
	}
	n := 1.0 / float64(len(p.initBuf))
	accMean = accMean.Scale(n)
	gyroMean = gyroMean.Scale(n)

	x := p.est.State()
	x.RotExt = p.cfg.ExtrinsicRot
	x.PosExt = p.cfg.ExtrinsicTrans
	x.Bg = gyroMean

	down := so3.Vec3{0, 0, -1}
	if p.cfg.GravityAlign {
		x.Rot = so3.FromTwoVectors(accMean.Scale(-1).Normalized(), down)
		x.InitGravity(down)
	} else {
		x.InitGravity(accMean.Scale(-1))
	}

	p.resetCovariance()
	p.lastSample = p.initBuf[len(p.initBuf)-1]
	return true
}

// resetCovariance seeds the error covariance: identity with smaller
// magnitudes on the extrinsic, bias, and gravity blocks.
func (p *Processor) resetCovariance() {
	cov := p.est.Covariance()
	cov.Zero()
	for i := 0; i < eskf.StateDim; i++ {
		cov.Set(i, i, 1.0)
	}
	blocks := []struct {
		idx int
		val float64
	}{
		{eskf.IdxRotExt, InitCovExtrinsicRot},
		{eskf.IdxPosExt, InitCovExtrinsicTrans},
		{eskf.IdxBg, InitCovGyroBias},
		{eskf.IdxBa, InitCovAccelBias},
		{eskf.IdxGrav, InitCovGravity},
	}
	for _, b := range blocks {
		for i := 0; i < 3; i++ {
			cov.Set(b.idx+i, b.idx+i, b.val)
		}
	}
}

// Trajectory returns the trajectory-record cache built by the most recent
// Undistort call. The slice is reused across scans; callers must not retain
// it past the next Process call.
func (p *Processor) Trajectory() []TrajectoryRecord { return p.trajectory }

// Undistort integrates the package's inertial samples forward through the
// estimator, building the trajectory-record cache, then walks the scan's
// points backward and rewrites each one into the scan's end-of-window sensor
// frame. Must only be called after initialization.
func (p *Processor) Undistort(pkg *ScanPackage) {
	// Working sequence: previous scan's trailing sample plus this batch.
	p.workBuf = p.workBuf[:0]
	p.workBuf = append(p.workBuf, p.lastSample)
	p.workBuf = append(p.workBuf, pkg.Samples...)
	imuEndTime := p.workBuf[len(p.workBuf)-1].Timestamp

	// Points arrive time-ordered from the driver, but the backward walk
	// requires it.
	sort.Slice(pkg.Points, func(i, j int) bool {
		return pkg.Points[i].TimeOffsetMillis < pkg.Points[j].TimeOffsetMillis
	})

	x := p.est.State()
	p.trajectory = p.trajectory[:0]
	p.trajectory = append(p.trajectory, TrajectoryRecord{
		Offset: 0,
		Acc:    p.lastAcc,
		Gyro:   p.lastGyro,
		Vel:    x.Vel,
		Pos:    x.Pos,
		Rot:    x.Rot,
	})

	var in eskf.Input
	for i := 0; i+1 < len(p.workBuf); i++ {
		head := &p.workBuf[i]
		tail := &p.workBuf[i+1]

		// Already integrated by the previous scan.
		if tail.Timestamp < p.lastEndTime {
			continue
		}

		// Trapezoidal midpoint input.
		in.Gyro = head.Gyro.Add(tail.Gyro).Scale(0.5)
		in.Acc = head.Acc.Add(tail.Acc).Scale(0.5)

		var dt float64
		if head.Timestamp < p.lastEndTime {
			dt = tail.Timestamp - p.lastEndTime
		} else {
			dt = tail.Timestamp - head.Timestamp
		}

		p.est.Predict(in, dt, p.q)

		p.lastGyro = in.Gyro.Sub(x.Bg)
		p.lastAcc = x.Rot.MulVec(in.Acc.Sub(x.Ba)).Add(x.Grav)
		p.trajectory = append(p.trajectory, TrajectoryRecord{
			Offset: tail.Timestamp - pkg.ScanStartTime,
			Acc:    p.lastAcc,
			Gyro:   p.lastGyro,
			Vel:    x.Vel,
			Pos:    x.Pos,
			Rot:    x.Rot,
		})
	}

	// Extrapolate to exactly the scan boundary with the last-used input.
	p.est.Predict(in, pkg.ScanEndTime-imuEndTime, p.q)
	p.lastSample = p.workBuf[len(p.workBuf)-1]
	p.lastEndTime = pkg.ScanEndTime

	p.deskew(pkg)
}

// deskew re-expresses every point in the reference pose captured at the end
// of forward integration. For each trajectory bracket (head, tail) it
// consumes, back to front, the points sampled inside that bracket,
// extrapolating pose from head at constant angular velocity and
// second-order position.
func (p *Processor) deskew(pkg *ScanPackage) {
	if len(pkg.Points) == 0 {
		return
	}

	x := p.est.State()
	curRot := x.Rot
	curPos := x.Pos
	curRotExt := x.RotExt
	curPosExt := x.PosExt
	curRotExtT := curRotExt.Transpose()
	curRotT := curRot.Transpose()

	idx := len(pkg.Points) - 1
	for k := len(p.trajectory) - 1; k >= 1 && idx >= 0; k-- {
		head := &p.trajectory[k-1]
		tail := &p.trajectory[k]

		for idx >= 0 && pkg.Points[idx].OffsetSeconds() > head.Offset {
			pt := &pkg.Points[idx]
			dt := pt.OffsetSeconds() - head.Offset

			pointRot := head.Rot.Mul(so3.Exp(tail.Gyro.Scale(dt)))
			pointPos := head.Pos.Add(head.Vel.Scale(dt)).Add(tail.Acc.Scale(0.5 * dt * dt))

			// Sensor frame -> point's world pose -> reference sensor frame.
			v := so3.Vec3{pt.X, pt.Y, pt.Z}
			world := pointRot.MulVec(curRotExt.MulVec(v).Add(curPosExt)).Add(pointPos)
			comp := curRotExtT.MulVec(curRotT.MulVec(world.Sub(curPos)).Sub(curPosExt))

			pt.X, pt.Y, pt.Z = comp[0], comp[1], comp[2]
			idx--
		}
	}
}

// Process is the per-scan entry point: it initializes until enough samples
// have accumulated, then integrates and deskews every package. On the
// package that completes initialization the scan is processed immediately.
func (p *Processor) Process(pkg *ScanPackage) {
	if !p.initialized {
		p.initialized = p.Initialize(pkg.Samples)
	}
	if p.initialized {
		p.Undistort(pkg)
	}
}
