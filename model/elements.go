package model

// OrbitalElements fully describe a circular orbit in this simulator:
// altitude above the mean surface, plane orientation, and the angular
// position along the orbit at t=0. Angles are radians.
type OrbitalElements struct {
	AltitudeKm     float64 `json:"altitude_km"`
	InclinationRad float64 `json:"inclination_rad"`
	RAANRad        float64 `json:"raan_rad"`
	PhaseRad       float64 `json:"phase_rad"`
}

// Position is an ECI position in kilometres.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SubPoint is the ground point directly beneath a position, in degrees.
type SubPoint struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
}

// InitialState is a satellite's snapshot at the start of the horizon.
type InitialState struct {
	Position Position `json:"position"`
	SubPoint SubPoint `json:"sub_point"`
}

// ContactTimeline holds one entry per simulation step; true means the
// link was usable during that step.
type ContactTimeline []bool

// LinkStatistics summarise a ContactTimeline. AvgOutageSteps is zero
// when there were no outages.
type LinkStatistics struct {
	TotalContactSteps int     `json:"total_contact_steps"`
	HandshakeCount    int     `json:"handshake_count"`
	TotalOutageSteps  int     `json:"total_outage_steps"`
	OutageCount       int     `json:"outage_count"`
	AvgOutageSteps    float64 `json:"avg_outage_steps"`
}

// Progress reports how far a run has advanced. Total counts
// member-steps, so constellation runs report smoothly.
type Progress struct {
	Done     int     `json:"done"`
	Total    int     `json:"total"`
	Fraction float64 `json:"fraction"`
}
