// Package so3 provides small fixed-size vector and rotation helpers for
// on-manifold state propagation. Rotations are 3x3 row-major matrices,
// matching the row-major transform layout used elsewhere in the codebase.
package so3

import "math"

// SmallAngleThreshold is the squared-angle below which the exponential map
// falls back to its Taylor expansion to avoid division by a tiny norm.
const SmallAngleThreshold = 1e-12

// Vec3 is a 3-vector.
type Vec3 [3]float64

// Mat3 is a 3x3 row-major matrix.
type Mat3 [9]float64

// Identity returns the 3x3 identity matrix.
func Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1.0 / n)
}

// MulVec applies the matrix to a vector.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Mul returns the matrix product m*n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = m[i*3]*n[j] + m[i*3+1]*n[3+j] + m[i*3+2]*n[6+j]
		}
	}
	return out
}

// Transpose returns the matrix transpose. For orthonormal rotation matrices
// this is the inverse.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Scale returns the matrix with every element scaled by s.
func (m Mat3) Scale(s float64) Mat3 {
	var out Mat3
	for i := range m {
		out[i] = m[i] * s
	}
	return out
}

// AddMat returns the element-wise sum m+n.
func (m Mat3) AddMat(n Mat3) Mat3 {
	var out Mat3
	for i := range m {
		out[i] = m[i] + n[i]
	}
	return out
}

// Hat returns the skew-symmetric cross-product matrix [v]x such that
// Hat(v).MulVec(w) == v.Cross(w).
func Hat(v Vec3) Mat3 {
	return Mat3{
		0, -v[2], v[1],
		v[2], 0, -v[0],
		-v[1], v[0], 0,
	}
}

// Exp is the SO(3) exponential map: it converts a rotation vector
// (axis * angle) into a rotation matrix via Rodrigues' formula. For very
// small angles it uses the first-order expansion I + [v]x, which keeps the
// result finite and orthonormal to first order.
func Exp(v Vec3) Mat3 {
	theta2 := v.Dot(v)
	if theta2 < SmallAngleThreshold {
		return Identity().AddMat(Hat(v))
	}
	theta := math.Sqrt(theta2)
	axis := v.Scale(1.0 / theta)
	k := Hat(axis)
	sin := math.Sin(theta)
	cosC := 1.0 - math.Cos(theta)
	// R = I + sin(theta)*K + (1-cos(theta))*K^2
	return Identity().AddMat(k.Scale(sin)).AddMat(k.Mul(k).Scale(cosC))
}

// FromTwoVectors returns the rotation that maps direction `from` onto
// direction `to` (both need not be unit length). Antiparallel inputs rotate
// pi about an arbitrary axis orthogonal to `from`.
func FromTwoVectors(from, to Vec3) Mat3 {
	f := from.Normalized()
	t := to.Normalized()
	c := f.Dot(t)
	axis := f.Cross(t)
	s2 := axis.Dot(axis)

	if s2 < SmallAngleThreshold {
		if c > 0 {
			return Identity()
		}
		// Antiparallel: pick any axis orthogonal to f.
		ortho := Vec3{1, 0, 0}.Cross(f)
		if ortho.Dot(ortho) < SmallAngleThreshold {
			ortho = Vec3{0, 1, 0}.Cross(f)
		}
		return Exp(ortho.Normalized().Scale(math.Pi))
	}

	angle := math.Atan2(math.Sqrt(s2), c)
	return Exp(axis.Normalized().Scale(angle))
}
