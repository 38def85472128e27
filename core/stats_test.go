package core

import (
	"testing"

	"github.com/poj1738/satellite-communication-simulator/model"
)

func TestReduceTimeline_MixedRuns(t *testing.T) {
	// Two contact windows separated by single-step gaps: both windows
	// open with a handshake, both gaps count as outages.
	tl := model.ContactTimeline{false, true, true, false, true}
	s := ReduceTimeline(tl)

	if s.TotalContactSteps != 3 {
		t.Errorf("contact steps = %d, want 3", s.TotalContactSteps)
	}
	if s.TotalOutageSteps != 2 {
		t.Errorf("outage steps = %d, want 2", s.TotalOutageSteps)
	}
	if s.HandshakeCount != 2 {
		t.Errorf("handshakes = %d, want 2", s.HandshakeCount)
	}
	if s.OutageCount != 2 {
		t.Errorf("outages = %d, want 2", s.OutageCount)
	}
	if s.AvgOutageSteps != 1.0 {
		t.Errorf("avg outage = %v, want 1.0", s.AvgOutageSteps)
	}
}

func TestReduceTimeline_OpensLinked(t *testing.T) {
	// A link that is already up at the first step was never observed
	// coming up, so it contributes no handshake.
	s := ReduceTimeline(model.ContactTimeline{true, true, true})
	if s.HandshakeCount != 0 {
		t.Errorf("handshakes = %d, want 0", s.HandshakeCount)
	}
	if s.TotalContactSteps != 3 || s.TotalOutageSteps != 0 || s.OutageCount != 0 {
		t.Errorf("unexpected stats for all-linked timeline: %+v", s)
	}
	if s.AvgOutageSteps != 0 {
		t.Errorf("avg outage = %v, want 0 with no outages", s.AvgOutageSteps)
	}
}

func TestReduceTimeline_AllDown(t *testing.T) {
	// One maximal run of false entries is one outage, however long.
	s := ReduceTimeline(model.ContactTimeline{false, false, false, false})
	if s.OutageCount != 1 {
		t.Errorf("outages = %d, want 1", s.OutageCount)
	}
	if s.TotalOutageSteps != 4 {
		t.Errorf("outage steps = %d, want 4", s.TotalOutageSteps)
	}
	if s.AvgOutageSteps != 4.0 {
		t.Errorf("avg outage = %v, want 4.0", s.AvgOutageSteps)
	}
	if s.HandshakeCount != 0 || s.TotalContactSteps != 0 {
		t.Errorf("unexpected stats for all-down timeline: %+v", s)
	}
}

func TestReduceTimeline_Empty(t *testing.T) {
	s := ReduceTimeline(nil)
	if s != (model.LinkStatistics{}) {
		t.Errorf("empty timeline should reduce to the zero value, got %+v", s)
	}
}

func TestReduceTimeline_StepsPartitionTimeline(t *testing.T) {
	// Every step is either contact or outage, so the two totals always
	// add back up to the timeline length.
	tl := model.ContactTimeline{true, false, false, true, true, false, true, false}
	s := ReduceTimeline(tl)
	if got := s.TotalContactSteps + s.TotalOutageSteps; got != len(tl) {
		t.Errorf("contact+outage = %d, want %d", got, len(tl))
	}
	if s.HandshakeCount != 3 {
		t.Errorf("handshakes = %d, want 3", s.HandshakeCount)
	}
	if s.OutageCount != 3 {
		t.Errorf("outages = %d, want 3", s.OutageCount)
	}
}
