package core

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gonum/floats"

	"github.com/poj1738/satellite-communication-simulator/model"
)

// validScenario is the smallest scenario that resolves cleanly: every
// omitted field has a documented default.
func validScenario() model.Scenario {
	return model.Scenario{
		Name: "leo-pass",
		Beacon: model.BeaconConfig{
			AltitudeKm:          600,
			AntennaHalfAngleDeg: 60,
		},
		Remote: model.RemoteConfig{
			AltitudeKm:          781,
			InclinationDeg:      86.4,
			AntennaHalfAngleDeg: 62,
		},
	}
}

func TestResolveScenario_Defaults(t *testing.T) {
	rs, err := resolveScenario(Earth, validScenario())
	if err != nil {
		t.Fatalf("resolveScenario: %v", err)
	}

	if rs.horizon != model.DefaultHorizon() {
		t.Errorf("horizon = %+v, want the 24h/60s default", rs.horizon)
	}

	// No mode means sun-synchronous, and no LST means the noon node.
	if got := rs.beacon.InclinationRad * r2d; !floats.EqualWithinAbs(got, 97.78, 0.1) {
		t.Errorf("beacon inclination = %.4f degrees, want the sun-sync value near 97.78", got)
	}
	if !floats.EqualWithinAbs(rs.beacon.RAANRad, math.Pi, 1e-12) {
		t.Errorf("beacon RAAN = %v, want pi for the default noon node", rs.beacon.RAANRad)
	}

	if len(rs.members) != 1 || rs.members[0].ID != "REMOTE-1" {
		t.Fatalf("members = %+v, want the single synthesised REMOTE-1", rs.members)
	}
	if rs.primaryIdx != 0 {
		t.Errorf("primaryIdx = %d, want 0", rs.primaryIdx)
	}
	if rs.evaluator == nil {
		t.Errorf("resolved scenario is missing its evaluator")
	}
}

func TestResolveHorizon_PartialDefaults(t *testing.T) {
	// Each horizon field defaults independently.
	h, err := resolveHorizon(model.Horizon{Steps: 100})
	if err != nil {
		t.Fatalf("resolveHorizon: %v", err)
	}
	if h.Steps != 100 || h.StepSeconds != 60 {
		t.Errorf("got %+v, want steps=100 step_seconds=60", h)
	}

	h, err = resolveHorizon(model.Horizon{StepSeconds: 10})
	if err != nil {
		t.Fatalf("resolveHorizon: %v", err)
	}
	if h.Steps != 1440 || h.StepSeconds != 10 {
		t.Errorf("got %+v, want steps=1440 step_seconds=10", h)
	}

	if _, err := resolveHorizon(model.Horizon{Steps: -1}); !errors.Is(err, ErrBadHorizon) {
		t.Errorf("negative steps: got %v, want ErrBadHorizon", err)
	}
	if _, err := resolveHorizon(model.Horizon{StepSeconds: -60}); !errors.Is(err, ErrBadHorizon) {
		t.Errorf("negative step seconds: got %v, want ErrBadHorizon", err)
	}
}

func TestResolveBeacon_Modes(t *testing.T) {
	sc := validScenario()
	sc.Beacon.Mode = model.BeaconNonPolar
	sc.Beacon.InclinationDeg = 45
	el, err := resolveBeacon(Earth, sc)
	if err != nil {
		t.Fatalf("non-polar resolve: %v", err)
	}
	if want := 45 * d2r; !floats.EqualWithinAbs(el.InclinationRad, want, 1e-12) {
		t.Errorf("non-polar inclination = %v, want %v", el.InclinationRad, want)
	}
	if el.RAANRad != 0 {
		t.Errorf("non-polar RAAN without LST = %v, want 0", el.RAANRad)
	}

	sc.Beacon.Mode = model.BeaconCustom
	sc.Beacon.InclinationDeg = 180
	if _, err := resolveBeacon(Earth, sc); err != nil {
		t.Errorf("custom inclination 180 should be accepted: %v", err)
	}
	sc.Beacon.InclinationDeg = 180.5
	if _, err := resolveBeacon(Earth, sc); !errors.Is(err, ErrBadInclination) {
		t.Errorf("custom inclination 180.5: got %v, want ErrBadInclination", err)
	}

	sc.Beacon.Mode = model.BeaconNonPolar
	sc.Beacon.InclinationDeg = 20
	if _, err := resolveBeacon(Earth, sc); !errors.Is(err, ErrBadInclination) {
		t.Errorf("non-polar inclination 20: got %v, want ErrBadInclination", err)
	}
	// The message names the offending field so loader output stays
	// actionable.
	if _, err := resolveBeacon(Earth, sc); err == nil || !strings.Contains(err.Error(), "beacon.inclination_deg") {
		t.Errorf("error %v should mention beacon.inclination_deg", err)
	}

	sc.Beacon.Mode = "frisbee"
	if _, err := resolveBeacon(Earth, sc); !errors.Is(err, ErrBadMode) {
		t.Errorf("unknown mode: got %v, want ErrBadMode", err)
	}
}

func TestResolveBeacon_Rejections(t *testing.T) {
	sc := validScenario()
	sc.Beacon.AltitudeKm = 0
	if _, err := resolveBeacon(Earth, sc); !errors.Is(err, ErrBadAltitude) {
		t.Errorf("zero altitude: got %v, want ErrBadAltitude", err)
	}

	sc = validScenario()
	lst := 25.0
	sc.Beacon.LocalSolarTimeHours = &lst
	if _, err := resolveBeacon(Earth, sc); !errors.Is(err, ErrBadLST) {
		t.Errorf("LST 25h: got %v, want ErrBadLST", err)
	}
}

func TestBeaconRAAN_LSTHandling(t *testing.T) {
	lst := 6.0
	if got := beaconRAAN(model.BeaconCustom, &lst, nil); !floats.EqualWithinAbs(got, math.Pi/2, 1e-12) {
		t.Errorf("custom with LST 6 = %v, want pi/2", got)
	}
	if got := beaconRAAN(model.BeaconCustom, nil, nil); got != 0 {
		t.Errorf("custom without LST = %v, want 0", got)
	}
	if got := beaconRAAN(model.BeaconSunSynchronous, nil, nil); !floats.EqualWithinAbs(got, math.Pi, 1e-12) {
		t.Errorf("sun-sync without LST = %v, want the noon node pi", got)
	}
}

func TestResolveRemotes_ExplicitMembers(t *testing.T) {
	cfg := model.RemoteConfig{
		PrimaryID:           "B",
		AntennaHalfAngleDeg: 62,
		Members: []model.Member{
			{ID: "A", Elements: model.OrbitalElements{AltitudeKm: 781}},
			{ID: "B", Elements: model.OrbitalElements{AltitudeKm: 781}},
			{ID: "C", Elements: model.OrbitalElements{AltitudeKm: 781}},
		},
	}
	members, primaryIdx, err := resolveRemotes(cfg)
	if err != nil {
		t.Fatalf("resolveRemotes: %v", err)
	}
	if len(members) != 3 || primaryIdx != 1 {
		t.Errorf("got %d members primary=%d, want 3 members primary=1", len(members), primaryIdx)
	}
}

func TestResolveRemotes_LayoutGeneration(t *testing.T) {
	cfg := model.RemoteConfig{
		AltitudeKm:     781,
		InclinationDeg: 86.4,
		Layout:         &model.LayoutSpec{Planes: 2, SatsPerPlane: 3, RAANSpacingDeg: 90},
	}
	members, primaryIdx, err := resolveRemotes(cfg)
	if err != nil {
		t.Fatalf("resolveRemotes: %v", err)
	}
	if len(members) != 6 {
		t.Fatalf("got %d members, want 6", len(members))
	}
	if primaryIdx != 0 {
		t.Errorf("primary defaults to the first member, got index %d", primaryIdx)
	}
}

func TestResolveRemotes_Rejections(t *testing.T) {
	dup := model.RemoteConfig{Members: []model.Member{
		{ID: "A", Elements: model.OrbitalElements{AltitudeKm: 781}},
		{ID: "A", Elements: model.OrbitalElements{AltitudeKm: 781}},
	}}
	if _, _, err := resolveRemotes(dup); !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("duplicate ids: got %v, want ErrDuplicateMember", err)
	}

	empty := model.RemoteConfig{Members: []model.Member{
		{ID: "", Elements: model.OrbitalElements{AltitudeKm: 781}},
	}}
	if _, _, err := resolveRemotes(empty); !errors.Is(err, ErrBadMember) {
		t.Errorf("empty id: got %v, want ErrBadMember", err)
	}

	mismatch := model.RemoteConfig{
		Layout: &model.LayoutSpec{Planes: 2, SatsPerPlane: 2},
		Members: []model.Member{
			{ID: "A", Elements: model.OrbitalElements{AltitudeKm: 781}},
		},
	}
	if _, _, err := resolveRemotes(mismatch); !errors.Is(err, ErrMemberCountMismatch) {
		t.Errorf("size mismatch: got %v, want ErrMemberCountMismatch", err)
	}

	missing := model.RemoteConfig{
		PrimaryID: "GHOST",
		Members: []model.Member{
			{ID: "A", Elements: model.OrbitalElements{AltitudeKm: 781}},
		},
	}
	if _, _, err := resolveRemotes(missing); !errors.Is(err, ErrUnknownPrimary) {
		t.Errorf("unknown primary: got %v, want ErrUnknownPrimary", err)
	}

	sunken := model.RemoteConfig{Members: []model.Member{
		{ID: "A", Elements: model.OrbitalElements{AltitudeKm: -5}},
	}}
	if _, _, err := resolveRemotes(sunken); !errors.Is(err, ErrBadAltitude) {
		t.Errorf("non-positive member altitude: got %v, want ErrBadAltitude", err)
	}
}

func TestValidateScenario(t *testing.T) {
	if err := ValidateScenario(Earth, validScenario()); err != nil {
		t.Errorf("valid scenario rejected: %v", err)
	}
	bad := validScenario()
	bad.Beacon.AntennaHalfAngleDeg = -1
	if err := ValidateScenario(Earth, bad); !errors.Is(err, ErrBadHalfAngle) {
		t.Errorf("got %v, want ErrBadHalfAngle", err)
	}
}
