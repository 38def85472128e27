package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/poj1738/satellite-communication-simulator/internal/logging"
)

// Startup smoke test: the daemon serves the API and metrics on a real
// listener and exits cleanly on context cancellation.
func TestRunServesAndShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	cfg := Config{
		Addr:          lis.Addr().String(),
		MaxRuns:       2,
		RunsPerMinute: 60,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, logging.Noop(), lis)
	}()

	base := "http://" + lis.Addr().String()
	resp := getWithRetry(t, base+"/healthz", 5*time.Second)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "ok") {
		t.Fatalf("healthz body = %q, want it to report ok", body)
	}

	mresp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	mbody, _ := io.ReadAll(mresp.Body)
	mresp.Body.Close()
	if mresp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", mresp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(string(mbody), "sim_active_runs") {
		t.Fatalf("metrics output missing sim_active_runs gauge")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error on shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not shut down after cancellation")
	}
}

func TestServeMetricsDisabled(t *testing.T) {
	if srv := serveMetrics("", nil, logging.Noop()); srv != nil {
		t.Fatalf("serveMetrics with empty addr = %v, want nil", srv)
	}
}

func getWithRetry(t *testing.T, url string, timeout time.Duration) *http.Response {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var (
		resp *http.Response
		err  error
	)
	for time.Now().Before(deadline) {
		resp, err = http.Get(url)
		if err == nil {
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("GET %s never succeeded: %v", url, err)
	return nil
}
