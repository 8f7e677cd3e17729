package so3

import (
	"math"
	"testing"
)

const tol = 1e-9

func matAlmostEqual(t *testing.T, got, want Mat3, eps float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > eps {
			t.Fatalf("matrix mismatch at element %d: got %v, want %v", i, got, want)
		}
	}
}

func vecAlmostEqual(t *testing.T, got, want Vec3, eps float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > eps {
			t.Fatalf("vector mismatch at element %d: got %v, want %v", i, got, want)
		}
	}
}

func TestExpZeroIsIdentity(t *testing.T) {
	matAlmostEqual(t, Exp(Vec3{}), Identity(), tol)
}

func TestExpQuarterTurnAboutZ(t *testing.T) {
	r := Exp(Vec3{0, 0, math.Pi / 2})
	got := r.MulVec(Vec3{1, 0, 0})
	vecAlmostEqual(t, got, Vec3{0, 1, 0}, tol)
}

func TestExpSmallAngleStaysOrthonormal(t *testing.T) {
	r := Exp(Vec3{1e-8, -2e-8, 3e-8})
	// R * R^T should be identity to first order.
	matAlmostEqual(t, r.Mul(r.Transpose()), Identity(), 1e-12)
}

func TestExpMatchesRodriguesForModerateAngle(t *testing.T) {
	// Rotation of 0.3 rad about X: closed form is known.
	r := Exp(Vec3{0.3, 0, 0})
	c, s := math.Cos(0.3), math.Sin(0.3)
	want := Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
	matAlmostEqual(t, r, want, tol)
}

func TestHatCrossConsistency(t *testing.T) {
	v := Vec3{0.5, -1.25, 2.0}
	w := Vec3{-3.0, 0.25, 1.5}
	vecAlmostEqual(t, Hat(v).MulVec(w), v.Cross(w), tol)
}

func TestFromTwoVectorsAligned(t *testing.T) {
	r := FromTwoVectors(Vec3{0, 0, -9.81}, Vec3{0, 0, -1})
	matAlmostEqual(t, r, Identity(), tol)
}

func TestFromTwoVectorsMapsFromOntoTo(t *testing.T) {
	from := Vec3{0.2, -0.1, -9.7}
	to := Vec3{0, 0, -1}
	r := FromTwoVectors(from, to)
	got := r.MulVec(from.Normalized())
	vecAlmostEqual(t, got, to.Normalized(), tol)
}

func TestFromTwoVectorsAntiparallel(t *testing.T) {
	r := FromTwoVectors(Vec3{0, 0, 1}, Vec3{0, 0, -1})
	got := r.MulVec(Vec3{0, 0, 1})
	vecAlmostEqual(t, got, Vec3{0, 0, -1}, 1e-9)
	// Still a proper rotation.
	matAlmostEqual(t, r.Mul(r.Transpose()), Identity(), 1e-9)
}

func TestTransposeIsInverseForRotations(t *testing.T) {
	r := Exp(Vec3{0.4, -0.2, 0.7})
	matAlmostEqual(t, r.Mul(r.Transpose()), Identity(), tol)
	matAlmostEqual(t, r.Transpose().Mul(r), Identity(), tol)
}
