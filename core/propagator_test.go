package core

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum/floats"

	"github.com/poj1738/satellite-communication-simulator/model"
)

func testElements() model.OrbitalElements {
	return model.OrbitalElements{
		AltitudeKm:     600,
		InclinationRad: 97.5 * d2r,
		RAANRad:        1.2,
		PhaseRad:       0.4,
	}
}

func TestPropagator_RadiusInvariant(t *testing.T) {
	prop, err := NewPropagator(Earth, testElements())
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	want := Earth.RadiusKm + 600
	for tSec := 0.0; tSec < 2*prop.Period(); tSec += 97 {
		r := prop.PositionAt(tSec).Norm()
		if !floats.EqualWithinAbs(r, want, 1e-6) {
			t.Fatalf("|r(%.0f)| = %.9f km, want %.1f", tSec, r, want)
		}
	}
}

func TestPropagator_VelocityPerpendicularAndConstantSpeed(t *testing.T) {
	prop, err := NewPropagator(Earth, testElements())
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	wantSpeed := math.Sqrt(Earth.MuKm3S2 / prop.Radius())
	for tSec := 0.0; tSec < prop.Period(); tSec += 131 {
		pos, vel := prop.StateAt(tSec)
		if dot := pos.Dot(vel); !floats.EqualWithinAbs(dot, 0, 1e-6) {
			t.Fatalf("r.v at t=%.0f is %.9f, want 0", tSec, dot)
		}
		if !floats.EqualWithinAbs(vel.Norm(), wantSpeed, 1e-9) {
			t.Fatalf("|v| at t=%.0f is %.12f, want %.12f", tSec, vel.Norm(), wantSpeed)
		}
	}
}

func TestPropagator_PlaneNormal(t *testing.T) {
	prop, err := NewPropagator(Earth, testElements())
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	n := prop.PlaneNormal()
	if !floats.EqualWithinAbs(n.Norm(), 1, 1e-12) {
		t.Fatalf("|normal| = %.15f, want 1", n.Norm())
	}
	// Every position over the orbit lies in the plane.
	for tSec := 0.0; tSec < prop.Period(); tSec += 211 {
		pos := prop.PositionAt(tSec)
		if dot := n.Dot(pos); !floats.EqualWithinAbs(dot, 0, 1e-6) {
			t.Fatalf("normal.r at t=%.0f is %.9f, want 0", tSec, dot)
		}
	}
}

func TestPropagator_PeriodClosure(t *testing.T) {
	prop, err := NewPropagator(Earth, testElements())
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}

	p0 := prop.PositionAt(500)
	p1 := prop.PositionAt(500 + prop.Period())
	if d := p0.DistanceTo(p1); d > 1e-5 {
		t.Fatalf("position after one period drifted %.9f km", d)
	}
}

func TestPropagator_PeriodMatchesKepler(t *testing.T) {
	// 781 km is the Iridium shell; roughly a 100 minute orbit.
	prop, err := NewPropagator(Earth, model.OrbitalElements{AltitudeKm: 781})
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	a := Earth.RadiusKm + 781
	want := 2 * math.Pi * math.Sqrt(a*a*a/Earth.MuKm3S2)
	if !floats.EqualWithinAbs(prop.Period(), want, 1e-9) {
		t.Fatalf("period = %.6f s, want %.6f s", prop.Period(), want)
	}
	if prop.Period() < 95*60 || prop.Period() > 105*60 {
		t.Fatalf("period = %.1f s, expected roughly 100 minutes", prop.Period())
	}
}

func TestPropagator_RejectsNonPositiveAltitude(t *testing.T) {
	for _, alt := range []float64{0, -200} {
		_, err := NewPropagator(Earth, model.OrbitalElements{AltitudeKm: alt})
		if !errors.Is(err, ErrBadAltitude) {
			t.Fatalf("altitude %.0f: got %v, want ErrBadAltitude", alt, err)
		}
	}
}
