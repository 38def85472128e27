package core

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

const (
	r2d = 180 / math.Pi
	d2r = 1 / r2d
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// PlaneToInertial composes the fixed rotation order for this simulator:
// tilt the orbital plane about its first axis by the inclination, then
// swing it about the inertial Z axis by the RAAN. The returned matrix
// maps plane coordinates to ECI.
func PlaneToInertial(inclinationRad, raanRad float64) *mat64.Dense {
	m := mat64.NewDense(3, 3, nil)
	m.Mul(R3(-raanRad), R1(-inclinationRad))
	return m
}

// MulVec applies a 3x3 matrix to a vector.
func MulVec(m *mat64.Dense, v Vec3) Vec3 {
	vec := mat64.NewVector(3, []float64{v.X, v.Y, v.Z})
	var out mat64.Vector
	out.MulVec(m, vec)
	return Vec3{X: out.At(0, 0), Y: out.At(1, 0), Z: out.At(2, 0)}
}
