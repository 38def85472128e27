// Package timectrl replays computed contact timelines against the wall
// clock so a run can be watched as it would have unfolded.
package timectrl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/poj1738/satellite-communication-simulator/model"
)

var (
	// ErrBadSpeed rejects playback slower than real time.
	ErrBadSpeed = errors.New("playback speed must be at least 1")
	// ErrBadStep rejects non-positive simulation steps.
	ErrBadStep = errors.New("playback step must be positive")
)

// Frames are never emitted faster than this, whatever the speed asks.
const minInterval = time.Millisecond

// Frame is one playback emission: the timeline index, the link state at
// that step, and the simulated time elapsed since the horizon start.
type Frame struct {
	Step    int           `json:"step"`
	Linked  bool          `json:"linked"`
	Elapsed time.Duration `json:"elapsed"`
}

// Playback walks a contact timeline at speed-times real time and
// notifies registered listeners on every frame.
type Playback struct {
	mu        sync.RWMutex
	step      time.Duration
	speed     float64
	current   Frame
	listeners []func(Frame)
}

// NewPlayback builds a playback that treats each timeline entry as one
// step of simulated time, compressed by the given speed factor.
func NewPlayback(step time.Duration, speed float64) (*Playback, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadStep, step)
	}
	if speed < 1 {
		return nil, fmt.Errorf("%w: %.3f", ErrBadSpeed, speed)
	}
	return &Playback{step: step, speed: speed}, nil
}

// AddListener registers a callback invoked on every frame.
func (p *Playback) AddListener(fn func(Frame)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Current returns the most recently emitted frame.
func (p *Playback) Current() Frame {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Interval is the wall-clock spacing between frames.
func (p *Playback) Interval() time.Duration {
	interval := time.Duration(float64(p.step) / p.speed)
	if interval < minInterval {
		interval = minInterval
	}
	return interval
}

// Run replays the timeline, blocking until it ends or ctx is cancelled.
func (p *Playback) Run(ctx context.Context, tl model.ContactTimeline) error {
	if len(tl) == 0 {
		return nil
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	for i, linked := range tl {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame := Frame{
			Step:    i,
			Linked:  linked,
			Elapsed: time.Duration(i) * p.step,
		}
		p.mu.Lock()
		p.current = frame
		listeners := p.listeners
		p.mu.Unlock()

		for _, fn := range listeners {
			fn(frame)
		}
	}
	return nil
}
