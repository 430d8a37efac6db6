package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"reelpass/proj/internal/config"
	"reelpass/proj/internal/lib/logger"
	"reelpass/proj/internal/provider"
	"reelpass/proj/internal/pubsub"
	"reelpass/proj/internal/storage"
	"reelpass/proj/internal/storage/file"
	"reelpass/proj/internal/storage/memory"
	"reelpass/proj/internal/storage/postgres"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")

	flag.Parse()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	kv, cleanup := setupStorage(ctx, cfg, log)
	defer cleanup()

	var bus pubsub.Broadcaster = pubsub.Noop{}
	if cfg.Broadcast.Enabled {
		redisBus, err := pubsub.NewRedis(log, cfg.Broadcast.RedisAddr, cfg.Broadcast.ChannelPrefix)
		if err != nil {
			panic(err)
		}
		defer redisBus.Close()
		bus = redisBus
		log.Info("cross-context broadcast enabled", "addr", cfg.Broadcast.RedisAddr)
	}

	var walletProvider provider.WalletProvider
	if cfg.Provider.Endpoint != "" {
		walletProvider = provider.NewJSONRPC(log, cfg.Provider.Endpoint, cfg.Provider.Timeout, cfg.Provider.PollInterval)
		log.Info("wallet provider configured", "endpoint", cfg.Provider.Endpoint)
	} else {
		log.Info("no wallet provider configured, running provider-less")
	}

	app := NewApplication(cfg, log, kv, bus, walletProvider)
	defer app.Close()
	app.bgTasks.Run()
	app.session.Init(context.Background())

	if err := app.serve(); err != nil {
		log.Error("shutting down the server", "reason", err.Error())
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	app.bgTasks.Shutdown(shutdownCtx)
}

func setupStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.KeyValueStore, func()) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.New(ctx, cfg.Storage.Dsn, cfg.Storage.MaxConns, cfg.Storage.MaxConnIdleTime)
		if err != nil {
			panic(err)
		}
		log.Info("database connection established", "dsn", cfg.Storage.Dsn)
		return db, func() { db.Conn.Close() }
	case "memory":
		log.Warn("using in-memory storage, data will not survive a restart")
		return memory.New(), func() {}
	default:
		store, err := file.New(cfg.Storage.Dir)
		if err != nil {
			panic(err)
		}
		log.Info("file storage ready", "dir", cfg.Storage.Dir)
		return store, func() {}
	}
}
