package core

import (
	"math"

	"github.com/poj1738/satellite-communication-simulator/model"
)

// Vec3 is an ECI vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return other.Sub(v).Norm()
}

// Unit returns the normalised vector. ok is false for the zero vector,
// in which case the zero vector is returned instead of NaN components.
func (v Vec3) Unit() (unit Vec3, ok bool) {
	n := v.Norm()
	if n == 0 {
		return Vec3{}, false
	}
	return v.Scale(1 / n), true
}

// closestApproachKm returns the minimum distance from the body centre
// (the origin) to the straight segment between p1 and p2. For a
// degenerate segment (p1 == p2) this is the point's own radius.
func closestApproachKm(p1, p2 Vec3) float64 {
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		return p1.Norm()
	}

	// t* minimises |p1 + t v|^2 over t, clamped to the segment.
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := p1.Add(v.Scale(t))
	return closest.Norm()
}

// hasLineOfSight checks whether the straight segment between p1 and p2
// clears a sphere of the given radius centred at the origin. A segment
// that only grazes the surface still counts as clear; the path is
// blocked when the closest approach dips strictly inside the sphere.
func hasLineOfSight(radiusKm float64, p1, p2 Vec3) bool {
	return closestApproachKm(p1, p2) >= radiusKm
}

// SubPointOf projects a position straight down onto the sphere and
// returns the latitude/longitude pair in degrees. The zero vector maps
// to the zero sub-point.
func SubPointOf(v Vec3) model.SubPoint {
	r := v.Norm()
	if r == 0 {
		return model.SubPoint{}
	}
	return model.SubPoint{
		LatDeg: math.Asin(v.Z/r) * r2d,
		LonDeg: math.Atan2(v.Y, v.X) * r2d,
	}
}
