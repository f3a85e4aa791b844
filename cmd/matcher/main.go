package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thp-tushar/carbonmatch/params"
	"github.com/thp-tushar/carbonmatch/pkg/api"
	"github.com/thp-tushar/carbonmatch/pkg/service"
	"github.com/thp-tushar/carbonmatch/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg, cfgErr := params.LoadFromEnv("") // "" means load from .env in current directory

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Log.File, "level", cfg.Log.Level)

	if cfgErr != nil {
		sugar.Fatalw("config_invalid", "err", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(ctx, cfg, service.Options{Journal: true, Publish: true, Stream: true}, sugar)
	if err != nil {
		sugar.Fatalw("service_init_failed", "err", err)
	}
	defer svc.Close()

	// ---- API Server ----
	apiServer := api.NewServer(api.Options{
		Orders:    svc.Repository,
		Finder:    svc.Finder,
		Processor: svc.Processor,
		Outcomes:  svc.Journal,
		Metrics:   svc.Metrics.Handler(),
		Hub:       svc.Hub,
		Origins:   cfg.Server.AllowedOrigins,
		Logger:    sugar,
	})

	sugar.Infow("matcher_starting",
		"addr", cfg.Addr(),
		"debug", cfg.Server.Debug,
		"scan_concurrency", cfg.Scan.Concurrency)

	if err := apiServer.Start(ctx, cfg.Addr()); err != nil {
		sugar.Errorw("api_server_failed", "err", err)
		return
	}
	sugar.Info("matcher_stopped")
}
