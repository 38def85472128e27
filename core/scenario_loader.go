// core/scenario_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/poj1738/satellite-communication-simulator/model"
)

// internal JSON shapes - keep them unexported so we're free to evolve
// them. Angles are degrees and times are hours on the wire; conversion
// to radians happens when mapping onto the model.
type scenarioJSON struct {
	Name    string       `json:"name"`
	Epoch   *time.Time   `json:"epoch"`
	Beacon  beaconJSON   `json:"beacon"`
	Remote  remoteJSON   `json:"remote"`
	Horizon *horizonJSON `json:"horizon"`
}

type beaconJSON struct {
	Mode                string   `json:"mode"`
	AltitudeKm          float64  `json:"altitude_km"`
	InclinationDeg      float64  `json:"inclination_deg"`
	LocalSolarTimeHours *float64 `json:"local_solar_time_hours"`
	PhaseDeg            float64  `json:"phase_deg"`
	AntennaHalfAngleDeg float64  `json:"antenna_half_angle_deg"`
}

type remoteJSON struct {
	PrimaryID           string       `json:"primary_id"`
	AltitudeKm          float64      `json:"altitude_km"`
	InclinationDeg      float64      `json:"inclination_deg"`
	AntennaHalfAngleDeg float64      `json:"antenna_half_angle_deg"`
	ShowAll             bool         `json:"show_all"`
	Layout              *layoutJSON  `json:"layout"`
	Members             []memberJSON `json:"members"`
}

type layoutJSON struct {
	Planes             int     `json:"planes"`
	SatsPerPlane       int     `json:"sats_per_plane"`
	RAANSpacingDeg     float64 `json:"raan_spacing_deg"`
	BasePhaseDeg       float64 `json:"base_phase_deg"`
	InterPlanePhaseDeg float64 `json:"inter_plane_phase_deg"`
	JitterStdDeg       float64 `json:"jitter_std_deg"`
	Seed               *int64  `json:"seed"`
}

type memberJSON struct {
	ID             string  `json:"id"`
	AltitudeKm     float64 `json:"altitude_km"`
	InclinationDeg float64 `json:"inclination_deg"`
	RAANDeg        float64 `json:"raan_deg"`
	PhaseDeg       float64 `json:"phase_deg"`
}

type horizonJSON struct {
	Steps           int     `json:"steps"`
	StepSeconds     float64 `json:"step_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// LoadScenario reads a JSON scenario from r, maps it onto the model,
// and validates it against the body. Unknown fields are rejected so a
// typoed key fails loudly instead of silently running defaults.
func LoadScenario(body Body, r io.Reader) (*model.Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	sc := payload.toModel()
	if err := ValidateScenario(body, sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (p scenarioJSON) toModel() model.Scenario {
	sc := model.Scenario{
		Name:  p.Name,
		Epoch: p.Epoch,
		Beacon: model.BeaconConfig{
			Mode:                model.BeaconMode(p.Beacon.Mode),
			AltitudeKm:          p.Beacon.AltitudeKm,
			InclinationDeg:      p.Beacon.InclinationDeg,
			LocalSolarTimeHours: p.Beacon.LocalSolarTimeHours,
			PhaseDeg:            p.Beacon.PhaseDeg,
			AntennaHalfAngleDeg: p.Beacon.AntennaHalfAngleDeg,
		},
		Remote: model.RemoteConfig{
			PrimaryID:           p.Remote.PrimaryID,
			AltitudeKm:          p.Remote.AltitudeKm,
			InclinationDeg:      p.Remote.InclinationDeg,
			AntennaHalfAngleDeg: p.Remote.AntennaHalfAngleDeg,
			ShowAll:             p.Remote.ShowAll,
		},
	}

	if p.Remote.Layout != nil {
		sc.Remote.Layout = &model.LayoutSpec{
			Planes:             p.Remote.Layout.Planes,
			SatsPerPlane:       p.Remote.Layout.SatsPerPlane,
			RAANSpacingDeg:     p.Remote.Layout.RAANSpacingDeg,
			BasePhaseDeg:       p.Remote.Layout.BasePhaseDeg,
			InterPlanePhaseDeg: p.Remote.Layout.InterPlanePhaseDeg,
			JitterStdDeg:       p.Remote.Layout.JitterStdDeg,
			Seed:               p.Remote.Layout.Seed,
		}
	}
	for _, m := range p.Remote.Members {
		sc.Remote.Members = append(sc.Remote.Members, model.Member{
			ID: m.ID,
			Elements: model.OrbitalElements{
				AltitudeKm:     m.AltitudeKm,
				InclinationRad: m.InclinationDeg * d2r,
				RAANRad:        m.RAANDeg * d2r,
				PhaseRad:       m.PhaseDeg * d2r,
			},
		})
	}

	if p.Horizon != nil {
		sc.Horizon = model.Horizon{
			Steps:       p.Horizon.Steps,
			StepSeconds: p.Horizon.StepSeconds,
		}
		// duration_seconds is an alternative to steps; it wins only
		// when steps is absent.
		if p.Horizon.Steps == 0 && p.Horizon.DurationSeconds > 0 {
			step := p.Horizon.StepSeconds
			if step == 0 {
				step = model.DefaultHorizon().StepSeconds
			}
			sc.Horizon = model.HorizonFromDuration(
				time.Duration(p.Horizon.DurationSeconds*float64(time.Second)),
				time.Duration(step*float64(time.Second)),
			)
		}
	}

	return sc
}
