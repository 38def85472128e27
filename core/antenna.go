package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadHalfAngle rejects antenna cones outside the meaningful range.
var ErrBadHalfAngle = errors.New("antenna half-angle must be between 0 and 180 degrees")

// DualConeAntenna models the beacon antenna: two opposing cones along
// the boresight axis, so the link works whether the remote is ahead of
// or behind the beacon. The half-angle cosine is fixed at construction;
// the per-step test is a single dot product.
type DualConeAntenna struct {
	cosHalf float64
}

// NewDualConeAntenna builds a dual-cone antenna from a half-angle in
// degrees.
func NewDualConeAntenna(halfAngleDeg float64) (DualConeAntenna, error) {
	c, err := halfAngleCos(halfAngleDeg)
	if err != nil {
		return DualConeAntenna{}, err
	}
	return DualConeAntenna{cosHalf: c}, nil
}

// Sees reports whether dir falls inside either cone around axis. Both
// vectors must be unit length.
func (a DualConeAntenna) Sees(dir, axis Vec3) bool {
	d := dir.Dot(axis)
	return d >= a.cosHalf || -d >= a.cosHalf
}

// NadirConeAntenna models a remote antenna: one cone whose boresight
// points at the body centre.
type NadirConeAntenna struct {
	cosHalf float64
}

// NewNadirConeAntenna builds a nadir-cone antenna from a half-angle in
// degrees.
func NewNadirConeAntenna(halfAngleDeg float64) (NadirConeAntenna, error) {
	c, err := halfAngleCos(halfAngleDeg)
	if err != nil {
		return NadirConeAntenna{}, err
	}
	return NadirConeAntenna{cosHalf: c}, nil
}

// Sees reports whether dir falls inside the cone around axis. Both
// vectors must be unit length.
func (a NadirConeAntenna) Sees(dir, axis Vec3) bool {
	return dir.Dot(axis) >= a.cosHalf
}

func halfAngleCos(halfAngleDeg float64) (float64, error) {
	if halfAngleDeg < 0 || halfAngleDeg > 180 || math.IsNaN(halfAngleDeg) {
		return 0, fmt.Errorf("%w: half_angle_deg=%.3f", ErrBadHalfAngle, halfAngleDeg)
	}
	return math.Cos(halfAngleDeg * d2r), nil
}
