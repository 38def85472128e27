package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/poj1738/satellite-communication-simulator/catalog"
	"github.com/poj1738/satellite-communication-simulator/core"
	"github.com/poj1738/satellite-communication-simulator/internal/logging"
	"github.com/poj1738/satellite-communication-simulator/model"
	"github.com/poj1738/satellite-communication-simulator/timectrl"
)

const (
	// maxScenarioBytes bounds a run request body.
	maxScenarioBytes = 1 << 20
	// maxTLEBytes bounds a catalog ingest body.
	maxTLEBytes = 4 << 20
	// defaultPlaybackSpeed compresses one simulated minute into one second.
	defaultPlaybackSpeed = 60
)

type runAccepted struct {
	RunID string `json:"run_id"`
}

type runStatusResponse struct {
	RunID    string           `json:"run_id"`
	State    string           `json:"state"`
	Progress *model.Progress  `json:"progress,omitempty"`
	Result   *model.RunResult `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type catalogListResponse struct {
	Count   int             `json:"count"`
	Entries []catalog.Entry `json:"entries"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) requestLogger(r *http.Request) logging.Logger {
	if l := logging.LoggerFromContext(r.Context()); l != nil {
		return l
	}
	return s.log
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	ip := clientIP(r, s.cfg.TrustProxy)
	if !s.limiter.allow(ip) {
		log.Warn(r.Context(), "run request rate limited", logging.String("remote_ip", ip))
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	sc, err := core.LoadScenario(s.body, http.MaxBytesReader(w, r.Body, maxScenarioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.runs.Start(*sc)
	if errors.Is(err, ErrTooManyRuns) {
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info(r.Context(), "run accepted",
		logging.String("run_id", id),
		logging.String("scenario", sc.Name),
	)
	writeJSON(w, http.StatusAccepted, runAccepted{RunID: id})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.runs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}

	switch snap.state {
	case RunDone:
		res := snap.result
		if !snap.showAll {
			res = res.TrimTimelines()
		}
		writeJSON(w, http.StatusOK, runStatusResponse{
			RunID:  snap.id,
			State:  string(snap.state),
			Result: res,
		})
	case RunFailed, RunCancelled:
		resp := runStatusResponse{RunID: snap.id, State: string(snap.state)}
		if snap.err != nil {
			resp.Error = snap.err.Error()
		}
		writeJSON(w, http.StatusConflict, resp)
	default:
		progress := snap.progress
		writeJSON(w, http.StatusAccepted, runStatusResponse{
			RunID:    snap.id,
			State:    string(snap.state),
			Progress: &progress,
		})
	}
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch err := s.runs.Cancel(id); {
	case errors.Is(err, ErrUnknownRun):
		writeError(w, http.StatusNotFound, "unknown run")
	case errors.Is(err, ErrRunFinished):
		writeError(w, http.StatusConflict, "run already finished")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.requestLogger(r).Info(r.Context(), "run cancelled", logging.String("run_id", id))
		writeJSON(w, http.StatusAccepted, runAccepted{RunID: id})
	}
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	log := s.requestLogger(r)

	progressCh, doneCh, unsubscribe, err := s.runs.Subscribe(id)
	if errors.Is(err, ErrUnknownRun) {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer unsubscribe()

	client, ok := newSSEClient(w, log)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	client.begin(ctx)

	// Late subscribers still get the current position up front.
	if snap, ok := s.runs.Get(id); ok && snap.progress.Total > 0 {
		if err := client.sendJSON(ctx, progressPayload(id, snap.progress)); err != nil {
			return
		}
	}

	keepalive := time.NewTicker(s.cfg.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case p := <-progressCh:
			if err := client.sendJSON(ctx, progressPayload(id, p)); err != nil {
				log.Debug(ctx, "event stream send failed", logging.Err(err))
				return
			}
			keepalive.Reset(s.cfg.KeepaliveInterval)

		case <-doneCh:
			snap, ok := s.runs.Get(id)
			if !ok {
				return
			}
			msg := terminalMessage{RunID: id, State: string(snap.state)}
			if snap.state == RunDone {
				msg.Type = "done"
			} else {
				msg.Type = "error"
				if snap.err != nil {
					msg.Error = snap.err.Error()
				}
			}
			if err := client.sendJSON(ctx, msg); err != nil {
				log.Debug(ctx, "event stream send failed", logging.Err(err))
			}
			return

		case <-keepalive.C:
			if err := client.sendKeepalive(ctx); err != nil {
				return
			}
		}
	}
}

func progressPayload(id string, p model.Progress) progressMessage {
	return progressMessage{
		Type:     "progress",
		RunID:    id,
		Done:     p.Done,
		Total:    p.Total,
		Fraction: p.Fraction,
	}
}

func (s *Server) handleRunPlayback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	log := s.requestLogger(r)

	snap, ok := s.runs.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run")
		return
	}
	if snap.state != RunDone {
		writeError(w, http.StatusConflict, "run not finished")
		return
	}
	if snap.result == nil || snap.result.Primary == nil || len(snap.result.Primary.Timeline) == 0 {
		writeError(w, http.StatusConflict, "run has no primary timeline")
		return
	}

	speed := float64(defaultPlaybackSpeed)
	if v := r.URL.Query().Get("speed"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid speed parameter")
			return
		}
		speed = f
	}

	step := time.Duration(snap.result.Horizon.StepSeconds * float64(time.Second))
	playback, err := timectrl.NewPlayback(step, speed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	frames := make(chan timectrl.Frame, 16)
	playback.AddListener(func(f timectrl.Frame) {
		select {
		case frames <- f:
		default:
		}
	})

	client, ok := newSSEClient(w, log)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	client.begin(ctx)

	// Buffered so the goroutine never leaks; returning from the handler
	// cancels ctx, which stops the replay.
	finished := make(chan error, 1)
	go func() {
		finished <- playback.Run(ctx, snap.result.Primary.Timeline)
	}()

	keepalive := time.NewTicker(s.cfg.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case f := <-frames:
			if err := client.sendJSON(ctx, framePayload(f)); err != nil {
				log.Debug(ctx, "playback send failed", logging.Err(err))
				return
			}
			keepalive.Reset(s.cfg.KeepaliveInterval)

		case err := <-finished:
			// Flush frames emitted between the last tick and completion.
			for drained := false; !drained; {
				select {
				case f := <-frames:
					if sendErr := client.sendJSON(ctx, framePayload(f)); sendErr != nil {
						return
					}
				default:
					drained = true
				}
			}
			msg := terminalMessage{Type: "done", RunID: id, State: string(RunDone)}
			if err != nil {
				msg.Type = "error"
				msg.Error = err.Error()
			}
			client.sendJSON(ctx, msg)
			return

		case <-keepalive.C:
			if err := client.sendKeepalive(ctx); err != nil {
				return
			}
		}
	}
}

func framePayload(f timectrl.Frame) frameMessage {
	return frameMessage{
		Type:           "frame",
		Step:           f.Step,
		Linked:         f.Linked,
		ElapsedSeconds: f.Elapsed.Seconds(),
	}
}

func (s *Server) handleCatalogIngest(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	started := time.Now()
	report, err := s.catalog.IngestTLE(r.Context(), s.body, http.MaxBytesReader(w, r.Body, maxTLEBytes), log)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.catalogCol.ObserveIngest(report.Added, report.Skipped, time.Since(started))
	s.catalogCol.SetEntries(s.catalog.Len())

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCatalogList(w http.ResponseWriter, r *http.Request) {
	entries := s.catalog.Entries()
	writeJSON(w, http.StatusOK, catalogListResponse{
		Count:   len(entries),
		Entries: entries,
	})
}
