package core

import "github.com/poj1738/satellite-communication-simulator/model"

// ReduceTimeline folds a contact timeline into its statistics. It is a
// pure function: the same timeline always reduces to the same numbers.
//
// A handshake is a false-to-true transition, so a timeline that starts
// true has no handshake at index 0; the link was never observed down
// before it. An outage is a maximal run of false entries and does count
// when the timeline opens with one.
func ReduceTimeline(tl model.ContactTimeline) model.LinkStatistics {
	var s model.LinkStatistics
	for i, linked := range tl {
		if linked {
			s.TotalContactSteps++
			if i > 0 && !tl[i-1] {
				s.HandshakeCount++
			}
		} else {
			s.TotalOutageSteps++
			if i == 0 || tl[i-1] {
				s.OutageCount++
			}
		}
	}
	if s.OutageCount > 0 {
		s.AvgOutageSteps = float64(s.TotalOutageSteps) / float64(s.OutageCount)
	}
	return s
}
