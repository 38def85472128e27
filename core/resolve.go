package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/poj1738/satellite-communication-simulator/model"
)

var (
	ErrBadMode             = errors.New("unknown beacon mode")
	ErrBadInclination      = errors.New("inclination out of range")
	ErrBadLST              = errors.New("local solar time must be within [0, 24] hours")
	ErrBadHorizon          = errors.New("horizon steps and step seconds must be positive")
	ErrBadMember           = errors.New("member id must not be empty")
	ErrDuplicateMember     = errors.New("duplicate member id")
	ErrMemberCountMismatch = errors.New("member list does not match layout size")
	ErrUnknownPrimary      = errors.New("primary id not found among members")
)

// resolvedScenario is a scenario after validation and mode derivation:
// concrete elements for every satellite, the primary index, and the
// evaluator with its cone cosines precomputed.
type resolvedScenario struct {
	name       string
	beacon     model.OrbitalElements
	members    []model.Member
	primaryIdx int
	horizon    model.Horizon
	evaluator  *LinkEvaluator
	showAll    bool
}

// ValidateScenario checks everything resolvable without running the
// scenario. A nil error means Run will not fail on configuration.
func ValidateScenario(body Body, sc model.Scenario) error {
	_, err := resolveScenario(body, sc)
	return err
}

// resolveScenario validates sc against body and derives everything the
// run loop needs. All configuration errors surface here, before any
// stepping; invalid values are rejected, never silently replaced.
func resolveScenario(body Body, sc model.Scenario) (*resolvedScenario, error) {
	horizon, err := resolveHorizon(sc.Horizon)
	if err != nil {
		return nil, err
	}

	beacon, err := resolveBeacon(body, sc)
	if err != nil {
		return nil, err
	}

	members, primaryIdx, err := resolveRemotes(sc.Remote)
	if err != nil {
		return nil, err
	}

	beaconAnt, err := NewDualConeAntenna(sc.Beacon.AntennaHalfAngleDeg)
	if err != nil {
		return nil, fmt.Errorf("beacon.antenna_half_angle_deg: %w", err)
	}
	remoteAnt, err := NewNadirConeAntenna(sc.Remote.AntennaHalfAngleDeg)
	if err != nil {
		return nil, fmt.Errorf("remote.antenna_half_angle_deg: %w", err)
	}

	return &resolvedScenario{
		name:       sc.Name,
		beacon:     beacon,
		members:    members,
		primaryIdx: primaryIdx,
		horizon:    horizon,
		evaluator:  NewLinkEvaluator(body, beaconAnt, remoteAnt),
		showAll:    sc.Remote.ShowAll,
	}, nil
}

// resolveHorizon applies per-field defaults for absent values and
// rejects negative ones. Absent is not invalid: a zero Steps or
// StepSeconds simply means "use the default".
func resolveHorizon(h model.Horizon) (model.Horizon, error) {
	def := model.DefaultHorizon()
	if h.Steps == 0 {
		h.Steps = def.Steps
	}
	if h.StepSeconds == 0 {
		h.StepSeconds = def.StepSeconds
	}
	if h.Steps < 0 || h.StepSeconds < 0 {
		return model.Horizon{}, fmt.Errorf("%w: steps=%d step_seconds=%.3f", ErrBadHorizon, h.Steps, h.StepSeconds)
	}
	return h, nil
}

func resolveBeacon(body Body, sc model.Scenario) (model.OrbitalElements, error) {
	cfg := sc.Beacon
	if cfg.AltitudeKm <= 0 {
		return model.OrbitalElements{}, fmt.Errorf("%w: beacon.altitude_km=%.3f", ErrBadAltitude, cfg.AltitudeKm)
	}
	if cfg.LocalSolarTimeHours != nil {
		if lst := *cfg.LocalSolarTimeHours; lst < 0 || lst > 24 {
			return model.OrbitalElements{}, fmt.Errorf("%w: beacon.local_solar_time_hours=%.3f", ErrBadLST, lst)
		}
	}

	mode := cfg.Mode
	if mode == "" {
		mode = model.BeaconSunSynchronous
	}

	var inclinationRad float64
	switch mode {
	case model.BeaconSunSynchronous:
		incl, err := SunSyncInclination(body, cfg.AltitudeKm)
		if err != nil {
			return model.OrbitalElements{}, fmt.Errorf("beacon.altitude_km: %w", err)
		}
		inclinationRad = incl
	case model.BeaconNonPolar:
		if cfg.InclinationDeg < 30 || cfg.InclinationDeg > 98 {
			return model.OrbitalElements{}, fmt.Errorf("%w: beacon.inclination_deg=%.3f must be within [30, 98] for non-polar mode", ErrBadInclination, cfg.InclinationDeg)
		}
		inclinationRad = cfg.InclinationDeg * d2r
	case model.BeaconCustom:
		if cfg.InclinationDeg < 0 || cfg.InclinationDeg > 180 {
			return model.OrbitalElements{}, fmt.Errorf("%w: beacon.inclination_deg=%.3f must be within [0, 180]", ErrBadInclination, cfg.InclinationDeg)
		}
		inclinationRad = cfg.InclinationDeg * d2r
	default:
		return model.OrbitalElements{}, fmt.Errorf("%w: beacon.mode=%q", ErrBadMode, cfg.Mode)
	}

	return model.OrbitalElements{
		AltitudeKm:     cfg.AltitudeKm,
		InclinationRad: inclinationRad,
		RAANRad:        beaconRAAN(mode, cfg.LocalSolarTimeHours, sc.Epoch),
		PhaseRad:       normalizeAngle(cfg.PhaseDeg * d2r),
	}, nil
}

// beaconRAAN turns the optional local solar time into a node
// orientation. Sun-synchronous planes default to the noon node; the
// other modes fall back to RAAN 0 when no LST is given. With an epoch
// the node is anchored to the real mean sun at that instant.
func beaconRAAN(mode model.BeaconMode, lst *float64, epoch *time.Time) float64 {
	var hours float64
	switch {
	case lst != nil:
		hours = *lst
	case mode == model.BeaconSunSynchronous:
		hours = 12
	default:
		return 0
	}
	if epoch != nil {
		return RAANFromLSTAtEpoch(hours, *epoch)
	}
	return RAANFromLST(hours)
}

// resolveRemotes produces the uniform member list, at least one entry
// long. Explicit members win over a generated layout; when both are
// present their sizes must agree.
func resolveRemotes(cfg model.RemoteConfig) ([]model.Member, int, error) {
	var members []model.Member
	switch {
	case len(cfg.Members) > 0:
		if cfg.Layout != nil {
			want := cfg.Layout.Planes * cfg.Layout.SatsPerPlane
			if len(cfg.Members) != want {
				return nil, 0, fmt.Errorf("%w: got %d members, layout wants %d", ErrMemberCountMismatch, len(cfg.Members), want)
			}
		}
		members = append([]model.Member(nil), cfg.Members...)
	case cfg.Layout != nil:
		base, err := remoteBase(cfg)
		if err != nil {
			return nil, 0, err
		}
		members, err = GenerateLayout(base, *cfg.Layout)
		if err != nil {
			return nil, 0, err
		}
	default:
		base, err := remoteBase(cfg)
		if err != nil {
			return nil, 0, err
		}
		id := cfg.PrimaryID
		if id == "" {
			id = "REMOTE-1"
		}
		members = []model.Member{{ID: id, Elements: base}}
	}

	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m.ID == "" {
			return nil, 0, ErrBadMember
		}
		if _, dup := seen[m.ID]; dup {
			return nil, 0, fmt.Errorf("%w: %q", ErrDuplicateMember, m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.Elements.AltitudeKm <= 0 {
			return nil, 0, fmt.Errorf("%w: member %q altitude_km=%.3f", ErrBadAltitude, m.ID, m.Elements.AltitudeKm)
		}
	}

	primaryIdx := 0
	if cfg.PrimaryID != "" {
		primaryIdx = -1
		for i, m := range members {
			if m.ID == cfg.PrimaryID {
				primaryIdx = i
				break
			}
		}
		if primaryIdx < 0 {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnknownPrimary, cfg.PrimaryID)
		}
	}
	return members, primaryIdx, nil
}

func remoteBase(cfg model.RemoteConfig) (model.OrbitalElements, error) {
	if cfg.AltitudeKm <= 0 {
		return model.OrbitalElements{}, fmt.Errorf("%w: remote.altitude_km=%.3f", ErrBadAltitude, cfg.AltitudeKm)
	}
	if cfg.InclinationDeg < 0 || cfg.InclinationDeg > 180 {
		return model.OrbitalElements{}, fmt.Errorf("%w: remote.inclination_deg=%.3f must be within [0, 180]", ErrBadInclination, cfg.InclinationDeg)
	}
	return model.OrbitalElements{
		AltitudeKm:     cfg.AltitudeKm,
		InclinationRad: cfg.InclinationDeg * d2r,
	}, nil
}
