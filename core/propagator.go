package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"

	"github.com/poj1738/satellite-communication-simulator/model"
)

// ErrBadAltitude rejects orbits at or below the surface.
var ErrBadAltitude = errors.New("orbit altitude must be positive")

// Propagator evaluates the ideal circular two-body orbit described by
// one set of elements. Construction does all the derived work (mean
// motion, circular speed, plane rotation); after that PositionAt and
// VelocityAt are pure functions of t, so the same elements always
// reproduce the same trajectory.
type Propagator struct {
	body Body
	el   model.OrbitalElements

	radiusKm   float64 // semi-major axis
	meanMotion float64 // rad/s
	speedKmS   float64
	toInertial *mat64.Dense
	normal     Vec3
}

// NewPropagator validates the elements and precomputes the orbit's
// derived quantities.
func NewPropagator(body Body, el model.OrbitalElements) (*Propagator, error) {
	if el.AltitudeKm <= 0 {
		return nil, fmt.Errorf("%w: altitude_km=%.3f", ErrBadAltitude, el.AltitudeKm)
	}
	a := body.RadiusKm + el.AltitudeKm
	p := &Propagator{
		body:       body,
		el:         el,
		radiusKm:   a,
		meanMotion: math.Sqrt(body.MuKm3S2 / (a * a * a)),
		speedKmS:   math.Sqrt(body.MuKm3S2 / a),
		toInertial: PlaneToInertial(el.InclinationRad, el.RAANRad),
	}
	// The plane normal is the rotated plane Z axis, not a cross product
	// of state vectors, so it stays unit length for any elements.
	p.normal = MulVec(p.toInertial, Vec3{Z: 1})
	return p, nil
}

// PositionAt returns the ECI position at t seconds past the start of
// the horizon.
func (p *Propagator) PositionAt(tSeconds float64) Vec3 {
	s, c := math.Sincos(p.phaseAt(tSeconds))
	return MulVec(p.toInertial, Vec3{X: p.radiusKm * c, Y: p.radiusKm * s})
}

// VelocityAt returns the ECI velocity at t seconds. The speed is the
// constant circular speed sqrt(mu/a); the direction is perpendicular to
// the radius within the orbital plane.
func (p *Propagator) VelocityAt(tSeconds float64) Vec3 {
	s, c := math.Sincos(p.phaseAt(tSeconds))
	return MulVec(p.toInertial, Vec3{X: -p.speedKmS * s, Y: p.speedKmS * c})
}

// StateAt returns position and velocity sharing one evaluation of the
// phase angle.
func (p *Propagator) StateAt(tSeconds float64) (pos, vel Vec3) {
	s, c := math.Sincos(p.phaseAt(tSeconds))
	pos = MulVec(p.toInertial, Vec3{X: p.radiusKm * c, Y: p.radiusKm * s})
	vel = MulVec(p.toInertial, Vec3{X: -p.speedKmS * s, Y: p.speedKmS * c})
	return pos, vel
}

// PlaneNormal returns the unit normal of the orbital plane. It is
// constant for a fixed set of elements.
func (p *Propagator) PlaneNormal() Vec3 { return p.normal }

// Period returns the orbital period in seconds.
func (p *Propagator) Period() float64 { return 2 * math.Pi / p.meanMotion }

// Radius returns the orbit radius (semi-major axis) in kilometres.
func (p *Propagator) Radius() float64 { return p.radiusKm }

// Speed returns the circular orbital speed in km/s.
func (p *Propagator) Speed() float64 { return p.speedKmS }

// Elements returns the elements the propagator was built from.
func (p *Propagator) Elements() model.OrbitalElements { return p.el }

func (p *Propagator) phaseAt(tSeconds float64) float64 {
	return p.meanMotion*tSeconds + p.el.PhaseRad
}
