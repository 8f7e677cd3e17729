// Package eskf implements the error-state Kalman filter used for
// tightly-coupled LiDAR-inertial state estimation. The filter propagates a
// nominal state on the rotation manifold and a covariance over the
// 24-dimensional error state.
package eskf

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/odometry.report/internal/so3"
)

// Error-state block offsets. Each block is 3 wide.
const (
	IdxRot    = 0  // attitude error
	IdxPos    = 3  // position error
	IdxRotExt = 6  // IMU-to-LiDAR extrinsic rotation error
	IdxPosExt = 9  // IMU-to-LiDAR extrinsic translation error
	IdxVel    = 12 // velocity error
	IdxBg     = 15 // gyro bias error
	IdxBa     = 18 // accel bias error
	IdxGrav   = 21 // gravity error

	// StateDim is the error-state dimension.
	StateDim = 24
	// NoiseDim is the process-noise dimension (gyro, accel, and the two
	// bias random walks).
	NoiseDim = 12
)

// Input is one instantaneous inertial input to the prediction step.
type Input struct {
	Acc  so3.Vec3
	Gyro so3.Vec3
}

// State is the nominal filter state.
type State struct {
	Rot    so3.Mat3 // body-to-world rotation
	Pos    so3.Vec3 // world-frame position
	Vel    so3.Vec3 // world-frame velocity
	Bg     so3.Vec3 // gyro bias
	Ba     so3.Vec3 // accel bias
	Grav   so3.Vec3 // world-frame gravity
	RotExt so3.Mat3 // IMU-to-LiDAR extrinsic rotation
	PosExt so3.Vec3 // IMU-to-LiDAR extrinsic translation
}

// NewState returns a state with identity rotations and zero vectors.
func NewState() State {
	return State{
		Rot:    so3.Identity(),
		RotExt: so3.Identity(),
	}
}

// StdGravity is the standard gravity magnitude in m/s^2.
const StdGravity = 9.81

// InitGravity seeds the gravity vector from a direction, scaled to standard
// gravity magnitude. The caller passes either the canonical downward unit
// direction (gravity-aligned initialization) or a negated mean measured
// acceleration.
func (s *State) InitGravity(g so3.Vec3) {
	s.Grav = g.Normalized().Scale(StdGravity)
}

// ProcessNoise builds the 12x12 block-diagonal process-noise covariance from
// the configured noise densities: gyro measurement noise, accel measurement
// noise, gyro bias random walk, accel bias random walk.
func ProcessNoise(ng, na, nbg, nba float64) *mat.Dense {
	q := mat.NewDense(NoiseDim, NoiseDim, nil)
	densities := [4]float64{ng, na, nbg, nba}
	for b, d := range densities {
		for i := 0; i < 3; i++ {
			q.Set(b*3+i, b*3+i, d)
		}
	}
	return q
}

// Filter is the conforming error-state estimator. State and covariance are
// exposed mutably; the deskew pipeline seeds both during initialization and
// Predict advances them in place.
type Filter struct {
	x State
	p *mat.Dense
}

// NewFilter returns a filter with identity state and identity covariance.
func NewFilter() *Filter {
	p := mat.NewDense(StateDim, StateDim, nil)
	for i := 0; i < StateDim; i++ {
		p.Set(i, i, 1.0)
	}
	return &Filter{
		x: NewState(),
		p: p,
	}
}

// State returns the mutable nominal state.
func (f *Filter) State() *State { return &f.x }

// Covariance returns the mutable error covariance.
func (f *Filter) Covariance() *mat.Dense { return f.p }

// setBlock writes a 3x3 block into m at (row, col).
func setBlock(m *mat.Dense, row, col int, b so3.Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(row+i, col+j, b[i*3+j])
		}
	}
}

// Predict advances the nominal state and the error covariance by dt using
// the supplied inertial input and process-noise covariance q.
//
// Nominal propagation integrates the bias-corrected angular rate on the
// rotation manifold and the bias- and gravity-corrected acceleration in the
// world frame. Covariance propagation is first order:
// P <- F P F^T + G Q G^T.
func (f *Filter) Predict(in Input, dt float64, q *mat.Dense) {
	wCorr := in.Gyro.Sub(f.x.Bg)
	aCorr := in.Acc.Sub(f.x.Ba)
	aWorld := f.x.Rot.MulVec(aCorr).Add(f.x.Grav)

	// Jacobians use the pre-update nominal rotation.
	fJac := mat.NewDense(StateDim, StateDim, nil)
	for i := 0; i < StateDim; i++ {
		fJac.Set(i, i, 1.0)
	}
	iDt := so3.Identity().Scale(dt)
	setBlock(fJac, IdxRot, IdxRot, so3.Exp(wCorr.Scale(-dt)))
	setBlock(fJac, IdxRot, IdxBg, iDt.Scale(-1))
	setBlock(fJac, IdxPos, IdxVel, iDt)
	setBlock(fJac, IdxVel, IdxRot, f.x.Rot.Mul(so3.Hat(aCorr)).Scale(-dt))
	setBlock(fJac, IdxVel, IdxBa, f.x.Rot.Scale(-dt))
	setBlock(fJac, IdxVel, IdxGrav, iDt)

	gJac := mat.NewDense(StateDim, NoiseDim, nil)
	setBlock(gJac, IdxRot, 0, iDt.Scale(-1))
	setBlock(gJac, IdxVel, 3, f.x.Rot.Scale(-dt))
	setBlock(gJac, IdxBg, 6, iDt)
	setBlock(gJac, IdxBa, 9, iDt)

	var fp, fpft, gq, gqgt mat.Dense
	fp.Mul(fJac, f.p)
	fpft.Mul(&fp, fJac.T())
	gq.Mul(gJac, q)
	gqgt.Mul(&gq, gJac.T())
	fpft.Add(&fpft, &gqgt)
	f.p.Copy(&fpft)

	// Nominal state update.
	f.x.Pos = f.x.Pos.Add(f.x.Vel.Scale(dt)).Add(aWorld.Scale(0.5 * dt * dt))
	f.x.Vel = f.x.Vel.Add(aWorld.Scale(dt))
	f.x.Rot = f.x.Rot.Mul(so3.Exp(wCorr.Scale(dt)))
}
