package core

// BlockReason explains why a step had no usable link. The zero value
// means the link was up.
type BlockReason string

const (
	ReasonNone         BlockReason = ""
	ReasonBelowSurface BlockReason = "below_surface"
	ReasonDegenerate   BlockReason = "degenerate_geometry"
	ReasonOccluded     BlockReason = "earth_occluded"
	ReasonBeaconCone   BlockReason = "beacon_cone_miss"
	ReasonRemoteCone   BlockReason = "remote_cone_miss"
)

// LinkEvaluator applies the per-step visibility checks between the
// beacon and one remote. The checks run in a fixed order and the first
// failure wins: both endpoints above the surface, a well-defined line
// of sight, a path that clears the body, then agreement from both
// antenna cones.
type LinkEvaluator struct {
	body      Body
	beaconAnt DualConeAntenna
	remoteAnt NadirConeAntenna
}

// NewLinkEvaluator bundles the body and the two antenna patterns.
func NewLinkEvaluator(body Body, beaconAnt DualConeAntenna, remoteAnt NadirConeAntenna) *LinkEvaluator {
	return &LinkEvaluator{
		body:      body,
		beaconAnt: beaconAnt,
		remoteAnt: remoteAnt,
	}
}

// Evaluate decides whether a usable link exists for one step.
//
// Degenerate geometry (coincident positions, a zero velocity where the
// beacon boresight is needed) never produces NaN and is never an
// error; the step is simply not linked.
func (le *LinkEvaluator) Evaluate(beaconPos, beaconVel, remotePos Vec3) (bool, BlockReason) {
	r := le.body.RadiusKm
	if beaconPos.Dot(beaconPos) <= r*r || remotePos.Dot(remotePos) <= r*r {
		return false, ReasonBelowSurface
	}

	los, ok := remotePos.Sub(beaconPos).Unit()
	if !ok {
		return false, ReasonDegenerate
	}

	if !hasLineOfSight(r, beaconPos, remotePos) {
		return false, ReasonOccluded
	}

	boresight, ok := beaconVel.Unit()
	if !ok {
		return false, ReasonDegenerate
	}
	if !le.beaconAnt.Sees(los, boresight) {
		return false, ReasonBeaconCone
	}

	// The remote looks back along the reversed line of sight with its
	// cone pointed at nadir.
	remoteUnit, _ := remotePos.Unit()
	if !le.remoteAnt.Sees(los.Scale(-1), remoteUnit.Scale(-1)) {
		return false, ReasonRemoteCone
	}

	return true, ReasonNone
}

// Linked is Evaluate without the reason, for callers that only build
// timelines.
func (le *LinkEvaluator) Linked(beaconPos, beaconVel, remotePos Vec3) bool {
	linked, _ := le.Evaluate(beaconPos, beaconVel, remotePos)
	return linked
}
