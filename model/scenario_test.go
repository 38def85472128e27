package model

import (
	"testing"
	"time"
)

func TestDefaultHorizon(t *testing.T) {
	h := DefaultHorizon()
	if h.Steps != 1440 || h.StepSeconds != 60 {
		t.Errorf("default horizon = %+v, want 24h at one-minute steps", h)
	}
	if h.Duration() != 24*time.Hour {
		t.Errorf("default duration = %v, want 24h", h.Duration())
	}
}

func TestHorizonFromDuration(t *testing.T) {
	h := HorizonFromDuration(90*time.Minute, 30*time.Second)
	if h.Steps != 180 || h.StepSeconds != 30 {
		t.Errorf("got %+v, want 180 steps of 30s", h)
	}

	// Uneven spans round to the nearest whole step.
	h = HorizonFromDuration(100*time.Second, 40*time.Second)
	if h.Steps != 3 {
		t.Errorf("100s at 40s steps = %+v, want 3 steps (rounded)", h)
	}

	if h := HorizonFromDuration(time.Hour, 0); h.Steps != 0 {
		t.Errorf("a zero step yields the zero horizon, got %+v", h)
	}
}
