package core

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/poj1738/satellite-communication-simulator/model"
)

// evalStride is how many steps a member evaluation advances between
// cancellation checks and progress flushes.
const evalStride = 256

// Engine computes contact timelines for one scenario. An Engine value
// is cheap and meant to be single-use per run; progress listeners
// registered on it apply to that run only. It retains no state between
// runs, so the same scenario always produces a bit-identical result.
type Engine struct {
	body      Body
	workers   int
	listeners []func(model.Progress)
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithWorkers bounds how many members are evaluated concurrently.
// The result does not depend on the worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine builds an engine for the given central body.
func NewEngine(body Body, opts ...Option) *Engine {
	e := &Engine{body: body, workers: runtime.NumCPU()}
	if e.workers < 1 {
		e.workers = 1
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddProgressListener registers a callback invoked at roughly ten
// evenly spaced checkpoints plus completion. Listeners run on engine
// goroutines and must return quickly; bridge to a channel with a
// non-blocking send if the consumer can stall.
func (e *Engine) AddProgressListener(fn func(model.Progress)) {
	if fn != nil {
		e.listeners = append(e.listeners, fn)
	}
}

// Run executes the scenario over its horizon and returns the full
// result. Configuration errors surface before any stepping. A
// cancelled context aborts the run and returns ctx.Err() with no
// partial result.
func (e *Engine) Run(ctx context.Context, sc model.Scenario) (*model.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rs, err := resolveScenario(e.body, sc)
	if err != nil {
		return nil, err
	}

	beaconProp, err := NewPropagator(e.body, rs.beacon)
	if err != nil {
		return nil, fmt.Errorf("beacon: %w", err)
	}

	// The beacon trajectory is shared read-only by every member
	// evaluation, so compute it once up front.
	states := make([]beaconState, rs.horizon.Steps)
	for i := range states {
		pos, vel := beaconProp.StateAt(float64(i) * rs.horizon.StepSeconds)
		states[i] = beaconState{pos: pos, vel: vel}
	}

	tracker := newProgressTracker(rs.horizon.Steps*len(rs.members), e.listeners)

	results := make([]*model.SatelliteResult, len(rs.members))
	sem := make(chan struct{}, e.workers)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for idx, member := range rs.members {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, member model.Member) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := evalMember(ctx, e.body, rs, states, member, tracker)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			results[idx] = res
		}(idx, member)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return &model.RunResult{
		Scenario: rs.name,
		Horizon:  rs.horizon,
		Beacon: model.BeaconSummary{
			Elements: rs.beacon,
			Initial: model.InitialState{
				Position: model.Position{X: states[0].pos.X, Y: states[0].pos.Y, Z: states[0].pos.Z},
				SubPoint: SubPointOf(states[0].pos),
			},
			PeriodSeconds: beaconProp.Period(),
		},
		Primary: results[rs.primaryIdx],
		Members: results,
	}, nil
}

type beaconState struct {
	pos, vel Vec3
}

// evalMember walks one remote across the horizon against the shared
// beacon states. Each member owns its propagator and timeline, so
// members never share mutable state and the fan-out stays
// deterministic.
func evalMember(ctx context.Context, body Body, rs *resolvedScenario, states []beaconState, member model.Member, tracker *progressTracker) (*model.SatelliteResult, error) {
	prop, err := NewPropagator(body, member.Elements)
	if err != nil {
		return nil, fmt.Errorf("member %s: %w", member.ID, err)
	}

	// Flush often enough that checkpoints land near every 10% even for
	// short horizons, without checking the context on every step.
	cadence := evalStride
	if s := tracker.flushStride(); s > 0 && s < cadence {
		cadence = s
	}

	timeline := make(model.ContactTimeline, len(states))
	pending := 0
	for i := range states {
		if i%cadence == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tracker.add(pending)
			pending = 0
		}
		remotePos := prop.PositionAt(float64(i) * rs.horizon.StepSeconds)
		timeline[i] = rs.evaluator.Linked(states[i].pos, states[i].vel, remotePos)
		pending++
	}
	tracker.add(pending)

	initPos := prop.PositionAt(0)
	return &model.SatelliteResult{
		ID:       member.ID,
		Elements: member.Elements,
		Initial: model.InitialState{
			Position: model.Position{X: initPos.X, Y: initPos.Y, Z: initPos.Z},
			SubPoint: SubPointOf(initPos),
		},
		PeriodSeconds: prop.Period(),
		Timeline:      timeline,
		Stats:         ReduceTimeline(timeline),
	}, nil
}

// progressTracker fans completed member-steps into checkpoint events.
// Listeners fire outside the lock.
type progressTracker struct {
	mu        sync.Mutex
	total     int
	done      int
	stride    int
	nextMark  int
	listeners []func(model.Progress)
}

func newProgressTracker(total int, listeners []func(model.Progress)) *progressTracker {
	stride := total / 10
	if stride < 1 {
		stride = 1
	}
	return &progressTracker{
		total:     total,
		stride:    stride,
		nextMark:  stride,
		listeners: listeners,
	}
}

// flushStride is the checkpoint spacing in member-steps, or 0 when
// nobody is listening.
func (t *progressTracker) flushStride() int {
	if t == nil || len(t.listeners) == 0 {
		return 0
	}
	return t.stride
}

func (t *progressTracker) add(n int) {
	if t == nil || n == 0 || len(t.listeners) == 0 {
		return
	}
	t.mu.Lock()
	t.done += n
	if t.done < t.nextMark && t.done != t.total {
		t.mu.Unlock()
		return
	}
	for t.nextMark <= t.done {
		t.nextMark += t.stride
	}
	ev := model.Progress{
		Done:     t.done,
		Total:    t.total,
		Fraction: float64(t.done) / float64(t.total),
	}
	listeners := t.listeners
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
