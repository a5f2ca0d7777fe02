package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"skyvox.io/internal/config"
	"skyvox.io/internal/persistence/chunkcache"
	"skyvox.io/internal/persistence/indexdb"
	persistlog "skyvox.io/internal/persistence/log"
	"skyvox.io/internal/sim/stream"
	"skyvox.io/internal/sim/terrain/gen"
	"skyvox.io/internal/sim/tuning"
	"skyvox.io/internal/sim/world"
	"skyvox.io/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "server.toml", "path to server.toml (created with defaults if missing)")
		tuningPath = flag.String("tuning", "tuning.yaml", "path to tuning.yaml (defaults when missing)")
		addr       = flag.String("addr", "", "http listen address (overrides network.address)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Network.Address = *addr
	}
	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if err := tune.Validate(); err != nil {
		logger.Fatalf("tuning: %v", err)
	}
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	var generator stream.Generator = gen.New(tune.WorldSeed)
	var cache *chunkcache.Cache
	if cfg.Data.ChunkCache {
		cache, err = chunkcache.Open(filepath.Join(cfg.Data.Dir, "chunks"), tune.WorldSeed, generator, logger)
		if err != nil {
			logger.Fatalf("open chunk cache: %v", err)
		}
		defer cache.Close()
		generator = cache
	}

	wcfg := world.ConfigFromTuning(tune)
	wcfg.Name = cfg.Server.Name
	wcfg.Description = cfg.Server.Description
	wcfg.Generator = generator
	w, err := world.New(wcfg, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	var tickLoggers multiTickLogger
	if cfg.Data.EventLog {
		tl := persistlog.NewTickLogger(cfg.Data.Dir)
		defer tl.Close()
		tickLoggers = append(tickLoggers, tl)
	}
	var idx *indexdb.SQLiteIndex
	if cfg.Data.IndexDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(cfg.Data.Dir, "index", "world.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
		tickLoggers = append(tickLoggers, idx)
	}
	if len(tickLoggers) > 0 {
		w.SetTickLogger(tickLoggers)
	}

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"ok":   true,
			"tick": w.CurrentTick(),
		})
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeWorldMetrics(rw, w.Metrics())
		writeIndexMetrics(rw, idx)
		writeCacheMetrics(rw, cache)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Network.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		logger.Printf("listening on %s", cfg.Network.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("stopped: %v", err)
	}
	logger.Printf("shutdown at tick=%d", w.CurrentTick())
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

type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	for _, l := range m {
		_ = l.WriteTick(entry)
	}
	return nil
}
