package model

// SatelliteResult is one remote's outcome over the horizon.
type SatelliteResult struct {
	ID            string          `json:"id"`
	Elements      OrbitalElements `json:"elements"`
	Initial       InitialState    `json:"initial"`
	PeriodSeconds float64         `json:"period_seconds"`
	Timeline      ContactTimeline `json:"timeline,omitempty"`
	Stats         LinkStatistics  `json:"stats"`
}

// BeaconSummary is the beacon's side of a run result.
type BeaconSummary struct {
	Elements      OrbitalElements `json:"elements"`
	Initial       InitialState    `json:"initial"`
	PeriodSeconds float64         `json:"period_seconds"`
}

// RunResult is the complete, deterministic outcome of one engine run.
// Members preserves input order; Primary points at the member named by
// the scenario's PrimaryID.
type RunResult struct {
	Scenario string             `json:"scenario,omitempty"`
	Horizon  Horizon            `json:"horizon"`
	Beacon   BeaconSummary      `json:"beacon"`
	Primary  *SatelliteResult   `json:"primary"`
	Members  []*SatelliteResult `json:"members"`
}

// Member returns the result for the given ID, or nil when absent.
func (r *RunResult) Member(id string) *SatelliteResult {
	if r == nil {
		return nil
	}
	for _, m := range r.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// TrimTimelines returns a copy of r whose non-primary members carry
// statistics only; the primary keeps its timeline. Surfaces honouring
// a scenario's ShowAll=false serve this instead of the full result.
// The engine's computation is untouched.
func (r *RunResult) TrimTimelines() *RunResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Members = make([]*SatelliteResult, len(r.Members))
	for i, m := range r.Members {
		if r.Primary != nil && m.ID == r.Primary.ID {
			out.Members[i] = m
			continue
		}
		mm := *m
		mm.Timeline = nil
		out.Members[i] = &mm
	}
	return &out
}
