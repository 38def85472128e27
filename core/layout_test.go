package core

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/gonum/floats"

	"github.com/poj1738/satellite-communication-simulator/model"
)

func layoutBase() model.OrbitalElements {
	return model.OrbitalElements{
		AltitudeKm:     781,
		InclinationRad: 86.4 * d2r,
		RAANRad:        0,
		PhaseRad:       0,
	}
}

func TestGenerateLayout_WalkerGrid(t *testing.T) {
	// An Iridium-like 6x11 grid: plane spacing 30 degrees, slots spread
	// evenly around each plane.
	spec := model.LayoutSpec{
		Planes:         6,
		SatsPerPlane:   11,
		RAANSpacingDeg: 30,
	}
	members, err := GenerateLayout(layoutBase(), spec)
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}
	if len(members) != 66 {
		t.Fatalf("got %d members, want 66", len(members))
	}

	// Plane 3, slot 5 (zero-based 2 and 4).
	m := members[2*11+4]
	if m.ID != "SAT-3-5" {
		t.Errorf("member ID = %q, want SAT-3-5", m.ID)
	}
	if want := 60 * d2r; !floats.EqualWithinAbs(m.Elements.RAANRad, want, 1e-12) {
		t.Errorf("RAAN = %v, want %v", m.Elements.RAANRad, want)
	}
	if want := 4 * (2 * math.Pi / 11); !floats.EqualWithinAbs(m.Elements.PhaseRad, want, 1e-12) {
		t.Errorf("phase = %v, want %v", m.Elements.PhaseRad, want)
	}

	// Altitude and inclination are inherited untouched.
	for _, m := range members {
		if m.Elements.AltitudeKm != 781 || m.Elements.InclinationRad != 86.4*d2r {
			t.Fatalf("member %s altered inherited elements: %+v", m.ID, m.Elements)
		}
	}
}

func TestGenerateLayout_PhaseOffsets(t *testing.T) {
	// Base phase and inter-plane stagger shift every slot; the second
	// plane carries one stagger step on top of the base.
	spec := model.LayoutSpec{
		Planes:             2,
		SatsPerPlane:       4,
		RAANSpacingDeg:     90,
		BasePhaseDeg:       10,
		InterPlanePhaseDeg: 7.5,
	}
	members, err := GenerateLayout(layoutBase(), spec)
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}

	first := members[0]
	if want := 10 * d2r; !floats.EqualWithinAbs(first.Elements.PhaseRad, want, 1e-12) {
		t.Errorf("plane 1 slot 1 phase = %v, want %v", first.Elements.PhaseRad, want)
	}
	staggered := members[4]
	if want := 17.5 * d2r; !floats.EqualWithinAbs(staggered.Elements.PhaseRad, want, 1e-12) {
		t.Errorf("plane 2 slot 1 phase = %v, want %v", staggered.Elements.PhaseRad, want)
	}
}

func TestGenerateLayout_AnglesNormalized(t *testing.T) {
	// Spacings that walk past a full turn wrap back into [0, 2*pi).
	spec := model.LayoutSpec{
		Planes:         5,
		SatsPerPlane:   3,
		RAANSpacingDeg: 100,
		BasePhaseDeg:   350,
	}
	members, err := GenerateLayout(layoutBase(), spec)
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}
	for _, m := range members {
		if m.Elements.RAANRad < 0 || m.Elements.RAANRad >= 2*math.Pi {
			t.Errorf("member %s RAAN %v outside [0, 2*pi)", m.ID, m.Elements.RAANRad)
		}
		if m.Elements.PhaseRad < 0 || m.Elements.PhaseRad >= 2*math.Pi {
			t.Errorf("member %s phase %v outside [0, 2*pi)", m.ID, m.Elements.PhaseRad)
		}
	}
}

func TestGenerateLayout_JitterDeterministic(t *testing.T) {
	seed := int64(42)
	spec := model.LayoutSpec{
		Planes:         3,
		SatsPerPlane:   5,
		RAANSpacingDeg: 120,
		JitterStdDeg:   0.5,
		Seed:           &seed,
	}

	first, err := GenerateLayout(layoutBase(), spec)
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}
	second, err := GenerateLayout(layoutBase(), spec)
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed must reproduce the same grid")
	}

	other := int64(43)
	spec.Seed = &other
	third, err := GenerateLayout(layoutBase(), spec)
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}
	if reflect.DeepEqual(first, third) {
		t.Errorf("different seeds should perturb the grid differently")
	}
}

func TestGenerateLayout_NoSeedNoJitter(t *testing.T) {
	// A jitter spread without a seed stays deterministic: no sampling
	// happens at all.
	spec := model.LayoutSpec{
		Planes:         2,
		SatsPerPlane:   2,
		RAANSpacingDeg: 180,
		JitterStdDeg:   1.0,
	}
	got, err := GenerateLayout(layoutBase(), spec)
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}
	plain, err := GenerateLayout(layoutBase(), model.LayoutSpec{
		Planes:         2,
		SatsPerPlane:   2,
		RAANSpacingDeg: 180,
	})
	if err != nil {
		t.Fatalf("GenerateLayout: %v", err)
	}
	if !reflect.DeepEqual(got, plain) {
		t.Errorf("jitter without a seed must leave the grid unperturbed")
	}
}

func TestGenerateLayout_Rejections(t *testing.T) {
	if _, err := GenerateLayout(layoutBase(), model.LayoutSpec{Planes: 0, SatsPerPlane: 4}); !errors.Is(err, ErrBadLayout) {
		t.Errorf("zero planes: got %v, want ErrBadLayout", err)
	}
	if _, err := GenerateLayout(layoutBase(), model.LayoutSpec{Planes: 2, SatsPerPlane: 0}); !errors.Is(err, ErrBadLayout) {
		t.Errorf("zero slots: got %v, want ErrBadLayout", err)
	}
	if _, err := GenerateLayout(layoutBase(), model.LayoutSpec{Planes: 2, SatsPerPlane: 2, JitterStdDeg: -0.1}); !errors.Is(err, ErrBadJitter) {
		t.Errorf("negative jitter: got %v, want ErrBadJitter", err)
	}
}
