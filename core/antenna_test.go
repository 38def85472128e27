package core

import (
	"errors"
	"math"
	"testing"
)

func TestDualConeAntenna_SeesBothDirections(t *testing.T) {
	ant, err := NewDualConeAntenna(30)
	if err != nil {
		t.Fatalf("NewDualConeAntenna: %v", err)
	}

	axis := Vec3{X: 1}
	ahead := Vec3{X: math.Cos(20 * d2r), Y: math.Sin(20 * d2r)}
	behind := ahead.Scale(-1)
	side := Vec3{Y: 1}

	if !ant.Sees(ahead, axis) {
		t.Errorf("20 degrees off the forward cone axis should be seen")
	}
	if !ant.Sees(behind, axis) {
		t.Errorf("the mirrored cone must accept the opposite direction")
	}
	if ant.Sees(side, axis) {
		t.Errorf("90 degrees off axis is outside both 30 degree cones")
	}
}

func TestDualConeAntenna_BoundaryInclusive(t *testing.T) {
	// A direction exactly on the cone edge passes: the test is
	// cos(angle) >= cos(half), and equality holds on the edge.
	ant, err := NewDualConeAntenna(45)
	if err != nil {
		t.Fatalf("NewDualConeAntenna: %v", err)
	}
	edge := Vec3{X: math.Cos(45 * d2r), Y: math.Sin(45 * d2r)}
	if !ant.Sees(edge, Vec3{X: 1}) {
		t.Errorf("direction on the cone edge should be inside")
	}
}

func TestNadirConeAntenna_ZeroHalfAngle(t *testing.T) {
	// A zero half-angle admits only exact alignment.
	ant, err := NewNadirConeAntenna(0)
	if err != nil {
		t.Fatalf("NewNadirConeAntenna: %v", err)
	}
	axis := Vec3{Z: -1}
	if !ant.Sees(Vec3{Z: -1}, axis) {
		t.Errorf("exact alignment must pass a zero half-angle cone")
	}
	offBy1 := Vec3{X: math.Sin(1 * d2r), Z: -math.Cos(1 * d2r)}
	if ant.Sees(offBy1, axis) {
		t.Errorf("one degree off axis must fail a zero half-angle cone")
	}
}

func TestNadirConeAntenna_SingleSided(t *testing.T) {
	// Unlike the beacon antenna there is no mirrored cone.
	ant, err := NewNadirConeAntenna(60)
	if err != nil {
		t.Fatalf("NewNadirConeAntenna: %v", err)
	}
	axis := Vec3{Z: -1}
	if ant.Sees(Vec3{Z: 1}, axis) {
		t.Errorf("the anti-boresight direction must not be seen")
	}
}

func TestAntenna_RejectsBadHalfAngles(t *testing.T) {
	for _, deg := range []float64{-1, 180.5, math.NaN()} {
		if _, err := NewDualConeAntenna(deg); !errors.Is(err, ErrBadHalfAngle) {
			t.Errorf("dual cone half-angle %v: got %v, want ErrBadHalfAngle", deg, err)
		}
		if _, err := NewNadirConeAntenna(deg); !errors.Is(err, ErrBadHalfAngle) {
			t.Errorf("nadir cone half-angle %v: got %v, want ErrBadHalfAngle", deg, err)
		}
	}
}
