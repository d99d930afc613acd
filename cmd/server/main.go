package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillsurkov/twg-2025-1/internal/metrics"
	persistlog "github.com/kirillsurkov/twg-2025-1/internal/persistence/log"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/catalogs"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/colony"
	"github.com/kirillsurkov/twg-2025-1/internal/sim/tuning"
	"github.com/kirillsurkov/twg-2025-1/internal/transport/observer"
	"github.com/kirillsurkov/twg-2025-1/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 0, "override the tuning seed (0 keeps the file value)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		sampleSecs = flag.Float64("economy_sample_seconds", 1, "seconds between economy rows in the index")
		pprofHTTP  = flag.Bool("pprof", false, "expose /debug/pprof")
		remoteObs  = flag.Bool("observer_remote", false, "allow observer connections from non-loopback addresses")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cat, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load structures: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	cfg, err := colony.ConfigFromTuning(tune)
	if err != nil {
		logger.Fatalf("tuning: %v", err)
	}
	c, err := colony.New(cfg, cat)
	if err != nil {
		logger.Fatalf("colony: %v", err)
	}
	logger.Printf("colony ready: tick_rate=%dHz seed=%d structures=%s tuning=%s", cfg.TickRateHz, cfg.Seed, short(cat.Digest), short(tune.Digest()))

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	// Optional read-model index (does not affect sim determinism).
	idx, err := openIndex(*dataDir, *disableDB)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertConfigs(cat, tune); err != nil {
			logger.Printf("index configs: %v", err)
		}
		every := uint64(*sampleSecs * float64(cfg.TickRateHz))
		idx.SetSampleEvery(every)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	colonyMetrics := metrics.NewColonyCollector()
	if err := colonyMetrics.Register(reg); err != nil {
		logger.Fatalf("metrics: %v", err)
	}
	if idx != nil {
		if err := metrics.RegisterIndexQueue(reg, idx.Stats); err != nil {
			logger.Fatalf("metrics: %v", err)
		}
	}

	tickLog := persistlog.NewTickLogger(*dataDir)
	tickLog.SetFlushEvery(cfg.TickRateHz)
	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer tickLog.Close()
	defer auditLog.Close()

	sinks := []colony.MetricsSink{colonyMetrics}
	ticks := []colony.TickLogger{tickLog}
	audits := []colony.AuditLogger{auditLog}
	if idx != nil {
		sinks = append(sinks, idx)
		ticks = append(ticks, idx)
		audits = append(audits, idx)
	}
	c.SetTickLogger(multiTickLogger(ticks))
	c.SetAuditLogger(multiAuditLogger(audits))
	c.SetMetrics(multiMetricsSink(sinks))

	ctx, cancel := signalContext()
	defer cancel()

	colonyDone := make(chan struct{})
	go func() {
		defer close(colonyDone)
		colonyLog := log.New(os.Stdout, "[colony] ", log.LstdFlags|log.Lmicroseconds)
		if err := c.Run(ctx); err != nil && err != context.Canceled {
			colonyLog.Printf("stopped: %v", err)
		}
	}()

	obsSrv := observer.NewServer(c, log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds))
	obsSrv.AllowRemote = *remoteObs
	wsSrv := ws.NewServer(c, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds), ws.Options{
		RateLimit:    tune.RateLimit,
		TuningDigest: tune.Digest(),
	})

	mux := newMux(c, reg, wsSrv, obsSrv)
	if *pprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-colonyDone
}

func newMux(c *colony.Colony, reg *prometheus.Registry, wsSrv *ws.Server, obsSrv *observer.Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	mux.HandleFunc("/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.WSHandler())
	return mux
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
