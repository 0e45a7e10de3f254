package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveGeneration(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveGeneration(200*time.Millisecond, "")
	m.ObserveGeneration(time.Second, "rate_limit")
	m.ObserveGeneration(time.Second, "rate_limit")

	if got := testutil.ToFloat64(m.GenerationErrors.WithLabelValues("rate_limit")); got != 2 {
		t.Errorf("generation_errors_total{kind=rate_limit} = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.GenerationLatency); got != 1 {
		t.Errorf("latency histogram series = %d, want 1", got)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.Turns.Inc()

	if got := testutil.ToFloat64(b.Turns); got != 0 {
		t.Fatalf("second registry saw first registry's increments: %v", got)
	}
}

func TestRouter(t *testing.T) {
	t.Parallel()

	m := New()
	m.Turns.Add(3)
	m.MemoryTurns.Set(2)

	srv := httptest.NewServer(NewRouter(m))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", resp.StatusCode)
	}
	for _, want := range []string{"chatloop_turns_total 3", "chatloop_memory_turns 2", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health status = %d", resp.StatusCode)
	}
}

func TestServer_ListenAndStop(t *testing.T) {
	t.Parallel()

	s, err := Listen("127.0.0.1:0", New(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	s.Start()

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
