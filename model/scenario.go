package model

import "time"

// BeaconMode selects how the beacon's plane orientation is derived.
type BeaconMode string

const (
	// BeaconSunSynchronous derives the inclination from the altitude so
	// the ascending node tracks the mean sun; RAAN comes from the local
	// solar time of the node.
	BeaconSunSynchronous BeaconMode = "sun-synchronous"
	// BeaconNonPolar uses the configured inclination, restricted to
	// mid-inclination orbits.
	BeaconNonPolar BeaconMode = "non-polar"
	// BeaconCustom uses the configured inclination as-is.
	BeaconCustom BeaconMode = "custom"
)

// BeaconConfig describes the data-producing satellite. Angles are
// degrees, LST is hours; conversion to radians happens at resolve time.
// LocalSolarTimeHours is optional and only meaningful for the
// sun-synchronous and custom modes.
type BeaconConfig struct {
	Mode                BeaconMode
	AltitudeKm          float64
	InclinationDeg      float64
	LocalSolarTimeHours *float64
	PhaseDeg            float64
	AntennaHalfAngleDeg float64
}

// Member is one concrete constellation satellite.
type Member struct {
	ID       string          `json:"id"`
	Elements OrbitalElements `json:"elements"`
}

// LayoutSpec generates a Walker-style constellation grid: Planes
// evenly shifted in RAAN, SatsPerPlane evenly shifted in phase. When
// Seed is set, gaussian jitter with std JitterStdDeg is added to every
// member's RAAN and phase; the same seed always yields the same grid.
type LayoutSpec struct {
	Planes             int
	SatsPerPlane       int
	RAANSpacingDeg     float64
	BasePhaseDeg       float64
	InterPlanePhaseDeg float64
	JitterStdDeg       float64
	Seed               *int64
}

// RemoteConfig describes the relay constellation. Explicit Members win
// over a generated Layout; with neither, a single remote is synthesised
// from AltitudeKm and InclinationDeg. PrimaryID selects whose timeline
// is the headline result (default: first member). ShowAll keeps every
// member's full timeline in serialised output instead of only the
// primary's.
type RemoteConfig struct {
	PrimaryID           string
	AltitudeKm          float64
	InclinationDeg      float64
	AntennaHalfAngleDeg float64
	Layout              *LayoutSpec
	Members             []Member
	ShowAll             bool
}

// Horizon fixes the simulated window: Steps evaluations spaced
// StepSeconds apart, starting at t=0.
type Horizon struct {
	Steps       int     `json:"steps"`
	StepSeconds float64 `json:"step_seconds"`
}

// DefaultHorizon is 24 hours at one-minute resolution.
func DefaultHorizon() Horizon {
	return Horizon{Steps: 1440, StepSeconds: 60}
}

// HorizonFromDuration builds a horizon covering the given duration at
// the given step, rounding the step count to the nearest integer.
func HorizonFromDuration(duration, step time.Duration) Horizon {
	if step <= 0 {
		return Horizon{}
	}
	steps := int((duration + step/2) / step)
	return Horizon{Steps: steps, StepSeconds: step.Seconds()}
}

// Duration returns the wall span the horizon covers.
func (h Horizon) Duration() time.Duration {
	return time.Duration(float64(h.Steps) * h.StepSeconds * float64(time.Second))
}

// Scenario is a complete run description. Epoch is optional; when set,
// sun-synchronous RAAN derivation anchors to the real sun at that
// instant instead of the pure local-solar-time formula.
type Scenario struct {
	Name    string
	Epoch   *time.Time
	Beacon  BeaconConfig
	Remote  RemoteConfig
	Horizon Horizon
}
