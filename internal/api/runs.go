package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/poj1738/satellite-communication-simulator/core"
	"github.com/poj1738/satellite-communication-simulator/internal/logging"
	"github.com/poj1738/satellite-communication-simulator/internal/observability"
	"github.com/poj1738/satellite-communication-simulator/model"
)

var (
	// ErrUnknownRun means no run with the given ID exists.
	ErrUnknownRun = errors.New("unknown run")
	// ErrRunFinished rejects cancelling a run that already ended.
	ErrRunFinished = errors.New("run already finished")
	// ErrTooManyRuns rejects new runs while the concurrency bound is hit.
	ErrTooManyRuns = errors.New("too many active runs")
)

// maxRetainedRuns bounds how many finished runs stay queryable. The
// oldest finished runs are evicted first; active runs are never evicted.
const maxRetainedRuns = 64

// RunState is a run's lifecycle position.
type RunState string

const (
	RunPending   RunState = "pending"
	RunRunning   RunState = "running"
	RunDone      RunState = "done"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Terminal reports whether the state is final.
func (s RunState) Terminal() bool {
	return s == RunDone || s == RunFailed || s == RunCancelled
}

type run struct {
	id       string
	state    RunState
	scenario model.Scenario
	progress model.Progress
	result   *model.RunResult
	err      error
	cancel   context.CancelFunc
	done     chan struct{}
	subs     map[int]chan model.Progress
	nextSub  int
	created  time.Time
	finished time.Time
}

// runSnapshot is a race-free copy of a run's observable state. The
// result pointer is immutable once set and safe to share.
type runSnapshot struct {
	id       string
	state    RunState
	progress model.Progress
	result   *model.RunResult
	err      error
	showAll  bool
}

// runManager owns the run registry and executes each run on its own
// goroutine with a context derived from the manager's base context.
type runManager struct {
	baseCtx   context.Context
	body      core.Body
	maxRuns   int
	collector *observability.EngineCollector
	log       logging.Logger

	mu     sync.Mutex
	runs   map[string]*run
	active int
}

func newRunManager(ctx context.Context, body core.Body, maxRuns int, collector *observability.EngineCollector, log logging.Logger) *runManager {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxRuns < 1 {
		maxRuns = 1
	}
	if log == nil {
		log = logging.Noop()
	}
	return &runManager{
		baseCtx:   ctx,
		body:      body,
		maxRuns:   maxRuns,
		collector: collector,
		log:       log,
		runs:      make(map[string]*run),
	}
}

// Start registers the scenario and launches it asynchronously. The
// scenario is assumed validated; configuration failures surface on the
// run itself as a failed state.
func (m *runManager) Start(sc model.Scenario) (string, error) {
	id, err := newRunID()
	if err != nil {
		return "", fmt.Errorf("run id: %w", err)
	}

	m.mu.Lock()
	if m.active >= m.maxRuns {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: limit=%d", ErrTooManyRuns, m.maxRuns)
	}
	ctx, cancel := context.WithCancel(m.baseCtx)
	r := &run{
		id:       id,
		state:    RunPending,
		scenario: sc,
		cancel:   cancel,
		done:     make(chan struct{}),
		subs:     make(map[int]chan model.Progress),
		created:  time.Now(),
	}
	m.runs[id] = r
	m.active++
	m.evictLocked()
	m.mu.Unlock()

	go m.execute(ctx, r)
	return id, nil
}

func (m *runManager) execute(ctx context.Context, r *run) {
	m.mu.Lock()
	r.state = RunRunning
	m.mu.Unlock()

	mode := r.scenario.Beacon.Mode
	if mode == "" {
		mode = model.BeaconSunSynchronous
	}

	eng := core.NewEngine(m.body)
	eng.AddProgressListener(func(p model.Progress) {
		m.publish(r.id, p)
	})

	m.log.Info(ctx, "run started",
		logging.String("run_id", r.id),
		logging.String("mode", string(mode)),
		logging.Int("steps", r.scenario.Horizon.Steps),
	)

	m.collector.ObserveRunStart()
	started := time.Now()
	res, err := eng.Run(ctx, r.scenario)
	elapsed := time.Since(started)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "cancelled"
	default:
		outcome = "error"
	}
	m.collector.ObserveRunEnd(string(mode), outcome, elapsed)

	if err == nil {
		m.collector.AddStepsEvaluated(res.Horizon.Steps * len(res.Members))
		if res.Primary != nil && res.Horizon.Steps > 0 {
			ratio := float64(res.Primary.Stats.TotalContactSteps) / float64(res.Horizon.Steps)
			m.collector.SetContactRatio(ratio)
		}
		m.log.Info(ctx, "run finished",
			logging.String("run_id", r.id),
			logging.Int("members", len(res.Members)),
			logging.Duration("elapsed", elapsed),
		)
	} else {
		m.log.Warn(ctx, "run ended without result",
			logging.String("run_id", r.id),
			logging.String("outcome", outcome),
			logging.Err(err),
		)
	}

	m.finish(r.id, res, err)
}

func (m *runManager) finish(id string, res *model.RunResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok || r.state.Terminal() {
		return
	}
	switch {
	case err == nil:
		r.state = RunDone
		r.result = res
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.state = RunCancelled
		r.err = err
	default:
		r.state = RunFailed
		r.err = err
	}
	r.finished = time.Now()
	m.active--
	close(r.done)
}

// publish records progress and fans it out to subscribers without
// blocking; a stalled subscriber just misses intermediate checkpoints.
func (m *runManager) publish(id string, p model.Progress) {
	m.mu.Lock()
	r, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	r.progress = p
	subs := make([]chan model.Progress, 0, len(r.subs))
	for _, ch := range r.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- p:
		default:
		}
	}
}

// Get returns a snapshot of the run, or false when unknown.
func (m *runManager) Get(id string) (runSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return runSnapshot{}, false
	}
	return runSnapshot{
		id:       r.id,
		state:    r.state,
		progress: r.progress,
		result:   r.result,
		err:      r.err,
		showAll:  r.scenario.Remote.ShowAll,
	}, true
}

// Cancel aborts a run's context. The state flips to cancelled once the
// engine observes the cancellation.
func (m *runManager) Cancel(id string) error {
	m.mu.Lock()
	r, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownRun
	}
	if r.state.Terminal() {
		m.mu.Unlock()
		return ErrRunFinished
	}
	cancel := r.cancel
	m.mu.Unlock()

	cancel()
	return nil
}

// Subscribe returns a progress channel, a channel closed when the run
// ends, and an unsubscribe func. The progress channel never closes;
// callers stop reading after the done channel fires.
func (m *runManager) Subscribe(id string) (<-chan model.Progress, <-chan struct{}, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, nil, nil, ErrUnknownRun
	}
	ch := make(chan model.Progress, 1)
	idx := r.nextSub
	r.nextSub++
	r.subs[idx] = ch

	unsubscribe := func() {
		m.mu.Lock()
		delete(r.subs, idx)
		m.mu.Unlock()
	}
	return ch, r.done, unsubscribe, nil
}

// ActiveCount returns how many runs are pending or running.
func (m *runManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// evictLocked drops the oldest finished runs beyond the retention cap.
// Caller holds m.mu.
func (m *runManager) evictLocked() {
	if len(m.runs) <= maxRetainedRuns {
		return
	}
	finished := make([]*run, 0, len(m.runs))
	for _, r := range m.runs {
		if r.state.Terminal() {
			finished = append(finished, r)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].finished.Before(finished[j].finished)
	})
	for _, r := range finished {
		if len(m.runs) <= maxRetainedRuns {
			return
		}
		delete(m.runs, r.id)
	}
}

func newRunID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
