package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	tropicalYearSeconds = 365.2421897 * 86400
	// sunSyncNodeRateRadS is the nodal precession a sun-synchronous
	// plane must hold: one revolution per tropical year.
	sunSyncNodeRateRadS = 2 * math.Pi / tropicalYearSeconds

	hourToRad = math.Pi / 12 // 15 degrees per hour
	j2000JD   = 2451545.0
)

// ErrNoSunSyncSolution means the altitude admits no sun-synchronous
// inclination under the J2 closed form.
var ErrNoSunSyncSolution = errors.New("no sun-synchronous inclination exists for altitude")

// SunSyncInclination solves the J2 nodal-precession closed form for the
// inclination whose ascending node drifts exactly one revolution per
// tropical year at the given altitude. Valid solutions are retrograde,
// in [90, 180) degrees.
func SunSyncInclination(body Body, altitudeKm float64) (float64, error) {
	if altitudeKm <= 0 {
		return 0, fmt.Errorf("%w: altitude_km=%.3f", ErrBadAltitude, altitudeKm)
	}
	a := body.RadiusKm + altitudeKm
	n := math.Sqrt(body.MuKm3S2 / (a * a * a))
	cosI := -2 * sunSyncNodeRateRadS * a * a / (3 * body.J2 * n * body.RadiusKm * body.RadiusKm)
	if cosI < -1 || cosI > 1 {
		return 0, fmt.Errorf("%w: altitude_km=%.1f", ErrNoSunSyncSolution, altitudeKm)
	}
	return math.Acos(cosI), nil
}

// RAANFromLST converts a local solar time of the ascending node to a
// RAAN using the plain 15 degrees per hour rule, normalised to
// [0, 2*pi).
func RAANFromLST(lstHours float64) float64 {
	return normalizeAngle(lstHours * hourToRad)
}

// RAANFromLSTAtEpoch anchors the ascending node to the mean sun at the
// given instant: the sun's mean longitude at the epoch plus the hour
// offset from local noon. The solar model is the low-precision mean
// longitude, which is plenty for plane orientation.
func RAANFromLSTAtEpoch(lstHours float64, epoch time.Time) float64 {
	d := julian.TimeToJD(epoch.UTC()) - j2000JD
	sunLonRad := (280.460 + 0.9856474*d) * d2r
	return normalizeAngle(sunLonRad + (lstHours-12)*hourToRad)
}

func normalizeAngle(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}
