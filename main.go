package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qubesight-bit/gosafe.lat-sub000/cache"
	"github.com/qubesight-bit/gosafe.lat-sub000/catalog"
	"github.com/qubesight-bit/gosafe.lat-sub000/config"
	"github.com/qubesight-bit/gosafe.lat-sub000/data"
	"github.com/qubesight-bit/gosafe.lat-sub000/handlers"
	"github.com/qubesight-bit/gosafe.lat-sub000/health"
	"github.com/qubesight-bit/gosafe.lat-sub000/interactions"
	"github.com/qubesight-bit/gosafe.lat-sub000/logging"
	"github.com/qubesight-bit/gosafe.lat-sub000/rxnav"
	"github.com/qubesight-bit/gosafe.lat-sub000/scheduler"
	"github.com/qubesight-bit/gosafe.lat-sub000/server"
	"github.com/qubesight-bit/gosafe.lat-sub000/suggest"
	"github.com/qubesight-bit/gosafe.lat-sub000/tripsit"
	"github.com/qubesight-bit/gosafe.lat-sub000/upstream"
	"github.com/qubesight-bit/gosafe.lat-sub000/validation"
)

const userAgent = "gosafe-lookup/1.0 (+https://gosafe.lat)"

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	logging.Info("Configuration loaded", "env", cfg.Env, "port", cfg.Port, "address", cfg.Address)

	cat, err := catalog.LoadEmbedded()
	if err != nil {
		logging.Error("Failed to load the curated catalog", "error", err)
		os.Exit(1)
	}
	validation.LogCatalogQuality(validation.ReportCatalogQuality(cat))

	clientOpts := upstream.Options{
		Timeout:       cfg.ExternalTimeout,
		RetryMax:      cfg.ExternalRetryMax,
		RatePerSecond: cfg.ExternalRatePerSecond,
		UserAgent:     userAgent,
		Logger:        logging.Logger(),
	}
	pharma := rxnav.NewClient(cfg.RxNavBaseURL, rxnav.NewUpstream(clientOpts), cache.NewMemo[rxnav.Resolution]().WithLoadTimeout(cfg.ExternalTimeout))
	community := tripsit.NewClient(cfg.TripSitBaseURL, tripsit.NewUpstream(clientOpts), cache.NewMemo[tripsit.Drug]().WithLoadTimeout(cfg.ExternalTimeout))

	service := interactions.NewService(cat, pharma,
		interactions.WithTimeout(cfg.ExternalTimeout),
		interactions.WithCommunity(community),
	)

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	sched := scheduler.NewScheduler(dataContainer, cat, community, 2*cfg.ExternalTimeout)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start the name list scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		Catalog:       cat,
		Service:       service,
		Community:     community,
		Suggester:     suggest.NewResolver(dataContainer, cfg.SuggestMax),
		Validator:     validation.NewValidator(),
		HealthChecker: health.NewHealthChecker(dataContainer, cat),
		NameStore:     dataContainer,
		SuggestMax:    cfg.SuggestMax,
	})

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		if err != nil {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
		return
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Graceful shutdown failed", "error", err)
	}
}

// loadEnv reads .env from the working directory, then from the directory
// of the executable. A missing file is not an error.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	if err := godotenv.Load(filepath.Join(filepath.Dir(ex), ".env")); err != nil {
		logging.Debug("No .env file found, using the process environment")
	}
}
