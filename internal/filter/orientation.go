package filter

import (
	"math"

	"github.com/ayusman/abhinaya/internal/skeleton"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Orientation is a rotation given by its orthonormal basis vectors.
// Y follows the bone from parent to joint, X points to the body's right
// and Z completes a right-handed frame.
type Orientation struct {
	X, Y, Z r3.Vec
}

// IdentityOrientation is the unrotated frame.
var IdentityOrientation = Orientation{
	X: r3.Vec{X: 1},
	Y: r3.Vec{Y: 1},
	Z: r3.Vec{Z: 1},
}

// Quat returns the unit quaternion of the rotation.
func (o Orientation) Quat() quat.Number {
	// Matrix with X, Y, Z as columns
	m00, m01, m02 := o.X.X, o.Y.X, o.Z.X
	m10, m11, m12 := o.X.Y, o.Y.Y, o.Z.Y
	m20, m21, m22 := o.X.Z, o.Y.Z, o.Z.Z

	var q quat.Number
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	return normalizeQuat(q)
}

// OrientationFromQuat builds an orientation from a rotation quaternion.
func OrientationFromQuat(q quat.Number) Orientation {
	q = normalizeQuat(q)
	return Orientation{
		X: rotateByQuat(q, r3.Vec{X: 1}),
		Y: rotateByQuat(q, r3.Vec{Y: 1}),
		Z: rotateByQuat(q, r3.Vec{Z: 1}),
	}
}

// Rotate applies a rotation of alpha radians about axis to every basis vector.
func (o Orientation) Rotate(alpha float64, axis r3.Vec) Orientation {
	return Orientation{
		X: r3.Rotate(o.X, alpha, axis),
		Y: r3.Rotate(o.Y, alpha, axis),
		Z: r3.Rotate(o.Z, alpha, axis),
	}
}

func rotateByQuat(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

func normalizeQuat(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// DeriveOrientations computes per-joint orientations from positions and the
// skeleton topology. Joints whose bone is not tracked keep the identity.
func DeriveOrientations(positions *[skeleton.JointCount]r3.Vec, tracked *[skeleton.JointCount]bool) [skeleton.JointCount]Orientation {
	var out [skeleton.JointCount]Orientation
	for j := range out {
		out[j] = IdentityOrientation
	}

	hipAxis, hipOK := lateralAxis(positions, tracked, skeleton.HipLeft, skeleton.HipRight)
	shoulderAxis, shoulderOK := lateralAxis(positions, tracked, skeleton.ShoulderLeft, skeleton.ShoulderRight)
	if !shoulderOK {
		shoulderAxis, shoulderOK = hipAxis, hipOK
	}
	if !hipOK {
		hipAxis, hipOK = shoulderAxis, shoulderOK
	}

	// The root points up the spine
	if tracked[skeleton.HipCenter] && tracked[skeleton.Spine] && hipOK {
		up := r3.Sub(positions[skeleton.Spine], positions[skeleton.HipCenter])
		if o, ok := basis(up, hipAxis); ok {
			out[skeleton.HipCenter] = o
		}
	}

	for j := skeleton.Joint(1); j < skeleton.JointCount; j++ {
		parent := j.Parent()
		if !tracked[j] || !tracked[parent] {
			continue
		}

		ref, ok := hipAxis, hipOK
		if isUpperBody(j) {
			ref, ok = shoulderAxis, shoulderOK
		}
		if !ok {
			continue
		}

		bone := r3.Sub(positions[j], positions[parent])
		if o, ok := basis(bone, ref); ok {
			out[j] = o
		}
	}

	return out
}

func lateralAxis(positions *[skeleton.JointCount]r3.Vec, tracked *[skeleton.JointCount]bool, left, right skeleton.Joint) (r3.Vec, bool) {
	if !tracked[left] || !tracked[right] {
		return r3.Vec{}, false
	}
	axis := r3.Sub(positions[right], positions[left])
	if r3.Norm(axis) == 0 {
		return r3.Vec{}, false
	}
	return r3.Unit(axis), true
}

// basis orthonormalizes y against the lateral reference x (Gram-Schmidt).
func basis(y, x r3.Vec) (Orientation, bool) {
	if r3.Norm(y) == 0 {
		return Orientation{}, false
	}
	y = r3.Unit(y)
	x = r3.Sub(x, r3.Scale(r3.Dot(x, y), y))
	if r3.Norm(x) < 1e-6 {
		// Bone parallel to the reference: fall back to the world depth axis
		x = r3.Cross(y, r3.Vec{Z: 1})
		if r3.Norm(x) < 1e-6 {
			return Orientation{}, false
		}
	}
	x = r3.Unit(x)
	return Orientation{X: x, Y: y, Z: r3.Cross(x, y)}, true
}

func isUpperBody(j skeleton.Joint) bool {
	switch j {
	case skeleton.Spine, skeleton.HipLeft, skeleton.HipRight,
		skeleton.KneeLeft, skeleton.AnkleLeft, skeleton.FootLeft,
		skeleton.KneeRight, skeleton.AnkleRight, skeleton.FootRight:
		return false
	}
	return true
}
