// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Command wordbankd is the wordbank service process: it loads
// configuration, opens the sentence store, rebuilds the ranker, wires
// the TTL scheduler, and serves the RPC surface until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wordbank/wordbank/config"
	"github.com/wordbank/wordbank/ranker"
	"github.com/wordbank/wordbank/rpc"
	"github.com/wordbank/wordbank/service"
	"github.com/wordbank/wordbank/store"
	"github.com/wordbank/wordbank/store/metadb"
	"github.com/wordbank/wordbank/tokenize"
	"github.com/wordbank/wordbank/ttl"
)

const httpShutdownGrace = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "./config.yaml", "path to the YAML config file")
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	cfg, err := config.Load(*configPath)
	if err != nil {
		level.Error(logger).Log("msg", "failed to load config", "err", err)
		return 1
	}

	reg := prometheus.NewRegistry()

	stopWords := tokenize.LoadStopWords(cfg.StopwordsPath)
	tokenizer := tokenize.New(stopWords)

	var metaDB *metadb.DB
	if cfg.MetaDBPath != "" {
		metaDB, err = metadb.Open(cfg.MetaDBPath)
		if err != nil {
			level.Error(logger).Log("msg", "failed to open metadb", "err", err)
			return 1
		}
	}

	st, err := store.Open(cfg.DataDir, cfg.MemtableThresholdKB,
		store.WithLogger(logger),
		store.WithMetrics(reg),
		store.WithMetaDB(metaDB),
	)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open store", "err", err)
		return 1
	}

	rk := newRankerBackend(cfg.Service.Algorithm, reg)

	sched := ttl.New(st, rk, logger, reg)
	st.SetScheduler(sched)

	facade := service.New(st, rk, sched, tokenizer, cfg.Service, logger)

	expiryLog := make(chan store.Entry, 16)
	facade.Subscribe(expiryLog)
	go func() {
		for e := range expiryLog {
			level.Debug(logger).Log("msg", "entry expired", "id", e.ID)
		}
	}()

	facade.Warmup()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rpcServer := rpc.NewServer(facade, logger)
	mux.Handle("/", rpcServer.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		level.Error(logger).Log("msg", "failed to bind listener", "addr", addr, "err", err)
		return 1
	}

	httpServer := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		level.Info(logger).Log("msg", "serving", "addr", addr)
		serveErr <- httpServer.Serve(listener)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		level.Info(logger).Log("msg", "shutting down")
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "server error", "err", err)
			return 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownGrace)
	defer cancel()
	_ = httpServer.Shutdown(ctx)

	if err := facade.Shutdown(); err != nil {
		level.Error(logger).Log("msg", "shutdown flush failed", "err", err)
		return 1
	}
	return 0
}

func newRankerBackend(algorithm string, reg prometheus.Registerer) ranker.Backend {
	// Only the hashmap backend is defined today; an unrecognized
	// algorithm falls back to it rather than failing startup, since
	// service.algorithm is otherwise just a label.
	switch algorithm {
	default:
		return ranker.New(reg)
	}
}
