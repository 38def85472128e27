package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/poj1738/satellite-communication-simulator/core"
	"github.com/poj1738/satellite-communication-simulator/internal/logging"
	"github.com/poj1738/satellite-communication-simulator/model"
)

// ErrBadTLE marks an element set the ingester could not use.
var ErrBadTLE = errors.New("malformed TLE entry")

// Report summarises one ingest pass. Skipped entries are logged with a
// reason; they never abort the pass.
type Report struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// IngestTLE reads 3-line NORAD element sets from r and adds each
// satellite to the catalog as a circular-equivalent member: the
// semi-major axis comes from the mean motion, the phase from argument
// of perigee plus mean anomaly, and eccentricity is flattened away.
// Entries that fail validation, SGP4 initialisation, or a propagation
// sanity check at their epoch are skipped, not fatal.
func (c *Catalog) IngestTLE(ctx context.Context, body core.Body, r io.Reader, log logging.Logger) (Report, error) {
	if log == nil {
		log = logging.Noop()
	}

	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Report{}, fmt.Errorf("reading TLE data: %w", err)
	}

	var rep Report
	for i := 0; i+2 < len(lines); {
		name := strings.TrimSpace(lines[i])
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resync on the next line rather than giving up on the file.
			log.Warn(ctx, "skipping malformed TLE entry", logging.Int("line_index", i), logging.String("name", name))
			i++
			continue
		}
		i += 3

		entry, err := buildEntry(body, name, line1, line2)
		if err != nil {
			rep.Skipped++
			log.Warn(ctx, "skipping TLE entry", logging.String("name", name), logging.Err(err))
			continue
		}

		if err := c.Add(entry); err != nil {
			rep.Skipped++
			log.Warn(ctx, "skipping TLE entry", logging.String("id", entry.Member.ID), logging.Err(err))
			continue
		}
		rep.Added++
		log.Debug(ctx, "catalogued satellite",
			logging.String("id", entry.Member.ID),
			logging.Int("norad_id", entry.NORADID),
			logging.Float64("altitude_km", entry.Member.Elements.AltitudeKm))
	}
	return rep, nil
}

// buildEntry turns one validated line pair into a catalog entry.
func buildEntry(body core.Body, name, line1, line2 string) (Entry, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return Entry{}, err
	}

	noradID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad catalog number: %v", ErrBadTLE, err)
	}
	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrBadTLE, err)
	}

	// Let SGP4 accept the set and fly it once at its own epoch before
	// trusting the orbit.
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return Entry{}, fmt.Errorf("%w: sgp4 init code=%d %s", ErrBadTLE, sat.Error, sat.ErrorStr)
	}
	year, month, day := epoch.Date()
	hour, min, sec := epoch.Clock()
	pos, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if math.IsNaN(mag) || math.IsInf(mag, 0) || mag < 6200 || mag > 50000 {
		return Entry{}, fmt.Errorf("%w: propagation at epoch gave radius %.1f km", ErrBadTLE, mag)
	}

	inclDeg, err := tleField(line2, 8, 16, "inclination")
	if err != nil {
		return Entry{}, err
	}
	raanDeg, err := tleField(line2, 17, 25, "raan")
	if err != nil {
		return Entry{}, err
	}
	argpDeg, err := tleField(line2, 34, 42, "argument of perigee")
	if err != nil {
		return Entry{}, err
	}
	meanAnomalyDeg, err := tleField(line2, 43, 51, "mean anomaly")
	if err != nil {
		return Entry{}, err
	}
	meanMotionRevDay, err := tleField(line2, 52, 63, "mean motion")
	if err != nil {
		return Entry{}, err
	}
	if meanMotionRevDay <= 0 {
		return Entry{}, fmt.Errorf("%w: mean motion %.6f rev/day", ErrBadTLE, meanMotionRevDay)
	}

	// Circular equivalent: the semi-major axis that matches the mean
	// motion.
	n := meanMotionRevDay * 2 * math.Pi / 86400
	a := math.Cbrt(body.MuKm3S2 / (n * n))
	altitude := a - body.RadiusKm
	if altitude <= 0 {
		return Entry{}, fmt.Errorf("%w: mean motion implies altitude %.1f km", ErrBadTLE, altitude)
	}

	id := name
	if id == "" {
		id = fmt.Sprintf("NORAD-%d", noradID)
	}

	d2r := math.Pi / 180
	return Entry{
		NORADID: noradID,
		Name:    name,
		Epoch:   epoch,
		Member: model.Member{
			ID: id,
			Elements: model.OrbitalElements{
				AltitudeKm:     altitude,
				InclinationRad: inclDeg * d2r,
				RAANRad:        raanDeg * d2r,
				PhaseRad:       normalizeRad((argpDeg + meanAnomalyDeg) * d2r),
			},
		},
	}, nil
}

// validateTLELines checks basic line shape before handing the set to
// the SGP4 library, which is not graceful about garbage input.
func validateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("%w: line1 length %d, expected 69", ErrBadTLE, len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("%w: line2 length %d, expected 69", ErrBadTLE, len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("%w: line1 must start with '1'", ErrBadTLE)
	}
	if line2[0] != '2' {
		return fmt.Errorf("%w: line2 must start with '2'", ErrBadTLE)
	}
	return nil
}

func tleField(line string, from, to int, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(line[from:to]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", ErrBadTLE, what, strings.TrimSpace(line[from:to]))
	}
	return v, nil
}

// parseEpoch converts a TLE epoch in YYDDD.DDDDDDDD form. Years 57-99
// are the 1900s, 00-56 the 2000s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}
	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %v", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}
	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %v", s[2:], err)
	}

	// Day one is January the first.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

func normalizeRad(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}
