package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ecamli/borsa/params"
	"github.com/ecamli/borsa/pkg/api"
	"github.com/ecamli/borsa/pkg/console"
	"github.com/ecamli/borsa/pkg/engine"
	"github.com/ecamli/borsa/pkg/server"
	"github.com/ecamli/borsa/pkg/storage"
	"github.com/ecamli/borsa/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.Server.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		sugar.Fatalw("data_dir_create_failed", "dir", cfg.Server.DataDir, "err", err)
	}

	// ---- Storage ----
	snap := storage.NewSnapshot(cfg.Server.DataDir)
	tradeLog, err := storage.OpenTradeLog(cfg.Server.DataDir, sugar)
	if err != nil {
		sugar.Fatalw("trade_log_open_failed", "err", err)
	}
	defer tradeLog.Close()

	orderLog, err := storage.OpenOrderLog(cfg.Server.DataDir, sugar)
	if err != nil {
		sugar.Fatalw("order_log_open_failed", "err", err)
	}
	defer orderLog.Close()

	archive, err := storage.OpenArchive(filepath.Join(cfg.Server.DataDir, "archive"), sugar)
	if err != nil {
		// History queries degrade; matching and persistence do not.
		sugar.Warnw("archive_open_failed", "err", err)
		archive = nil
	} else {
		defer archive.Close()
	}

	// ---- Engine + trade fan-out ----
	hub := api.NewHub()
	registry := server.NewRegistry(sugar)

	sinks := []engine.TradeSink{tradeLog, registry, hub}
	if archive != nil {
		sinks = append(sinks, archive)
	}
	eng := engine.New(sugar, snap, sinks...)

	// Recovery must complete before traffic is accepted.
	orders, err := snap.Load()
	if err != nil {
		sugar.Warnw("snapshot_load_incomplete", "err", err)
	}
	eng.Restore(orders)

	// ---- TCP order entry ----
	srv := server.New(eng, registry, orderLog, archive, cfg.Server.MaxClients, sugar)
	if err := srv.Listen(cfg.Server.Port); err != nil {
		sugar.Fatalw("listen_failed", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Collaborators ----
	go func() {
		if err := api.NewServer(eng, archive, hub).Start(cfg.Server.APIAddr); err != nil {
			sugar.Warnw("api_server_stopped", "err", err)
		}
	}()

	go eng.SnapshotLoop(ctx, cfg.Server.SnapshotInterval)

	go console.New(eng, registry, archive, stop, sugar).Run(ctx)

	srv.Serve(ctx)

	// One last synchronous write so the final book state survives restart.
	eng.Flush()
	sugar.Infow("shutdown_complete")
}
