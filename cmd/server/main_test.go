package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillsurkov/twg-2025-1/internal/metrics"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/tuning"
	"github.com/kirillsurkov/twg-2025-1/internal/transport/observer"
	"github.com/kirillsurkov/twg-2025-1/internal/transport/ws"
)

type countingTicks struct {
	n   int
	err error
}

func (c *countingTicks) WriteTick(colony.TickLogEntry) error {
	c.n++
	return c.err
}

type countingAudits struct{ n int }

func (c *countingAudits) WriteAudit(colony.AuditEntry) error {
	c.n++
	return nil
}

type countingSink struct{ last uint64 }

func (c *countingSink) ObserveTick(s colony.TickStats) { c.last = s.Tick }

func TestFanoutReachesEverySink(t *testing.T) {
	boom := errors.New("disk full")
	a, b := &countingTicks{err: boom}, &countingTicks{}
	ticks := multiTickLogger{a, nil, b}
	if err := ticks.WriteTick(colony.TickLogEntry{Tick: 1}); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("writes a=%d b=%d", a.n, b.n)
	}

	aud := &countingAudits{}
	if err := (multiAuditLogger{aud, aud}).WriteAudit(colony.AuditEntry{}); err != nil {
		t.Fatalf("audit: %v", err)
	}
	if aud.n != 2 {
		t.Fatalf("audits=%d", aud.n)
	}

	s1, s2 := &countingSink{}, &countingSink{}
	multiMetricsSink{s1, nil, s2}.ObserveTick(colony.TickStats{Tick: 9})
	if s1.last != 9 || s2.last != 9 {
		t.Fatalf("sinks=%d,%d", s1.last, s2.last)
	}
}

func TestMuxRoutes(t *testing.T) {
	c, err := colony.New(colony.Config{TickRateHz: 20}, catalogs.Default())
	if err != nil {
		t.Fatalf("colony: %v", err)
	}
	reg := prometheus.NewRegistry()
	mc := metrics.NewColonyCollector()
	if err := mc.Register(reg); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	c.SetMetrics(mc)
	c.StepOnce(nil)
	c.StepOnce(nil)

	wsSrv := ws.NewServer(c, nil, ws.Options{RateLimit: tuning.Defaults().RateLimit})
	obsSrv := observer.NewServer(c, nil)
	srv := httptest.NewServer(newMux(c, reg, wsSrv, obsSrv))
	defer srv.Close()

	body := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, b := body("/healthz"); code != http.StatusOK || b != "ok" {
		t.Fatalf("healthz: %d %q", code, b)
	}
	if code, b := body("/metrics"); code != http.StatusOK || !strings.Contains(b, "colony_sim_tick 1") {
		t.Fatalf("metrics: %d", code)
	}
	if code, b := body("/v1/observer/bootstrap"); code != http.StatusOK || !strings.Contains(b, "PRIMARY_BLOCK") {
		t.Fatalf("bootstrap: %d %q", code, b)
	}
	if code, _ := body("/v1/ws"); code != http.StatusBadRequest {
		t.Fatalf("plain GET on ws endpoint: %d", code)
	}
}

func TestOpenIndexBackends(t *testing.T) {
	dir := t.TempDir()
	idx, err := openIndex(dir, true)
	if err != nil || idx != nil {
		t.Fatalf("disabled: idx=%v err=%v", idx, err)
	}

	t.Setenv("COLONY_INDEX_BACKEND", "none")
	if idx, err := openIndex(dir, false); err != nil || idx != nil {
		t.Fatalf("none: idx=%v err=%v", idx, err)
	}

	t.Setenv("COLONY_INDEX_BACKEND", "postgres")
	if _, err := openIndex(dir, false); err == nil {
		t.Fatalf("expected error for unknown backend")
	}

	t.Setenv("COLONY_INDEX_BACKEND", "")
	idx, err = openIndex(dir, false)
	if err != nil || idx == nil {
		t.Fatalf("sqlite: idx=%v err=%v", idx, err)
	}
	_ = idx.Close()
}
