package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"

	"github.com/poj1738/satellite-communication-simulator/model"
)

var (
	// ErrBadLayout rejects empty constellation grids.
	ErrBadLayout = errors.New("layout must have at least one plane and one satellite per plane")
	// ErrBadJitter rejects negative jitter spreads.
	ErrBadJitter = errors.New("layout jitter std must not be negative")
)

// GenerateLayout expands a Walker-style grid around the base elements.
// Plane p shifts RAAN by p*RAANSpacingDeg; slot s shifts phase by an
// even in-plane spacing of 360/SatsPerPlane degrees, plus the
// configured base phase and inter-plane stagger.
//
// When Seed is set and JitterStdDeg is positive, zero-mean gaussian
// jitter is sampled per member for both angles from a seeded source.
// The sequence depends only on the seed, so the same spec always
// yields the same grid.
func GenerateLayout(base model.OrbitalElements, spec model.LayoutSpec) ([]model.Member, error) {
	if spec.Planes < 1 || spec.SatsPerPlane < 1 {
		return nil, fmt.Errorf("%w: planes=%d sats_per_plane=%d", ErrBadLayout, spec.Planes, spec.SatsPerPlane)
	}
	if spec.JitterStdDeg < 0 {
		return nil, fmt.Errorf("%w: jitter_std_deg=%.3f", ErrBadJitter, spec.JitterStdDeg)
	}

	var jitter *distmv.Normal
	if spec.Seed != nil && spec.JitterStdDeg > 0 {
		src := rand.New(rand.NewSource(*spec.Seed))
		sigma := spec.JitterStdDeg * d2r
		normal, ok := distmv.NewNormal(
			[]float64{0, 0},
			mat64.NewSymDense(2, []float64{sigma * sigma, 0, 0, sigma * sigma}),
			src,
		)
		if !ok {
			return nil, fmt.Errorf("%w: jitter covariance not positive definite", ErrBadJitter)
		}
		jitter = normal
	}

	slotStep := 2 * math.Pi / float64(spec.SatsPerPlane)
	members := make([]model.Member, 0, spec.Planes*spec.SatsPerPlane)
	for p := 0; p < spec.Planes; p++ {
		for s := 0; s < spec.SatsPerPlane; s++ {
			el := base
			el.RAANRad = normalizeAngle(base.RAANRad + float64(p)*spec.RAANSpacingDeg*d2r)
			el.PhaseRad = normalizeAngle(base.PhaseRad +
				spec.BasePhaseDeg*d2r +
				float64(s)*slotStep +
				float64(p)*spec.InterPlanePhaseDeg*d2r)
			if jitter != nil {
				sample := jitter.Rand(nil)
				el.RAANRad = normalizeAngle(el.RAANRad + sample[0])
				el.PhaseRad = normalizeAngle(el.PhaseRad + sample[1])
			}
			members = append(members, model.Member{
				ID:       fmt.Sprintf("SAT-%d-%d", p+1, s+1),
				Elements: el,
			})
		}
	}
	return members, nil
}
