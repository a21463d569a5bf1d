package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"video-platform/internal/comments"
	"video-platform/internal/database"
	"video-platform/internal/engagement"
	"video-platform/internal/events"
	"video-platform/internal/filesystem"
	"video-platform/internal/handlers"
	"video-platform/internal/lifecycle"
	"video-platform/internal/logging"
	"video-platform/internal/memory"
	"video-platform/internal/metrics"
	"video-platform/internal/middleware"
	"video-platform/internal/startup"
	"video-platform/internal/streaming"
	"video-platform/internal/transcoder"
	"video-platform/internal/views"
	"video-platform/internal/workers"
)

const (
	shutdownTimeout   = 30 * time.Second
	metricsInterval   = 30 * time.Second
	readHeaderTimeout = 15 * time.Second
)

func main() {
	startTime := time.Now()

	// Before any significant allocation.
	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"uploads": config.UploadDir,
		"data":    config.DataDir,
	}))

	ctx := context.Background()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	videoStore, thumbStore, err := buildStores(ctx, config)
	if err != nil {
		startup.LogFatal("Failed to initialize storage: %v", err)
	}

	publisher := buildPublisher(config)

	trans := transcoder.New(config.TranscodeTimeout)
	startup.LogTranscoderInit(config.TranscodeWorkers, config.TranscodeTimeout)

	gate := memory.NewGate(memory.DefaultGateConfig(), nil)
	gate.Start()

	svc := lifecycle.New(lifecycle.Deps{
		Repo:       db,
		Videos:     videoStore,
		Thumbnails: thumbStore,
		Transcoder: trans,
		Events:     publisher,
		Pool:       workers.NewPool(config.TranscodeWorkers),
		Admission:  gate,
	}, lifecycle.Config{
		WaitForTranscode:  config.TranscodeWait,
		MaxVideoBytes:     config.MaxVideoBytes,
		MaxThumbnailBytes: config.MaxThumbnailBytes,
	})

	if _, err := svc.Resume(ctx); err != nil {
		logging.Warn("Failed to reschedule interrupted transcodes: %v", err)
	}

	ledger, err := buildLedger(ctx, config, db)
	if err != nil {
		startup.LogFatal("Failed to initialize view ledger: %v", err)
	}
	fastTier := views.NewFastTier(config.ViewCooldown, nil)
	fastTier.StartSweeper(config.ViewSweepInterval)
	startup.LogViewAccountingInit(ledger.Name(), config.ViewCooldown, config.ViewRetention, config.ViewSweepInterval)

	fingerprints, err := views.NewFingerprinter(config.FingerprintKey)
	if err != nil {
		startup.LogFatal("Failed to initialize fingerprints: %v", err)
	}

	probes := map[string]handlers.Pinger{"database": db}
	if p, ok := ledger.(handlers.Pinger); ok {
		probes["view_ledger"] = p
	}

	h := handlers.New(handlers.Deps{
		Catalog:      db,
		Lifecycle:    svc,
		Views:        views.NewAccountant(fastTier, ledger),
		Fingerprints: fingerprints,
		Proxies:      config.TrustedProxies,
		Ratings:      engagement.NewLedger(db),
		Comments:     comments.New(db),
		VideoFiles:   videoStore,
		Probes:       probes,
	}, handlers.Config{
		MaxVideoBytes:     config.MaxVideoBytes,
		MaxThumbnailBytes: config.MaxThumbnailBytes,
		Streaming:         streaming.DefaultConfig(),
	})

	router := mux.NewRouter()
	h.Register(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggingConfig.TrustedProxies = config.TrustedProxies
	router.Use(
		middleware.Identity,
		middleware.Logger(loggingConfig),
		middleware.Metrics(middleware.DefaultMetricsConfig()),
	)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           middleware.Compression(middleware.DefaultCompressionConfig())(router),
		ReadHeaderTimeout: readHeaderTimeout,
		// uploads can be large and slow
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(db, fastTier, metricsInterval)
		collector.Start()

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	case err := <-serverErr:
		logging.Error("Server error: %v", err)
		startup.LogShutdownInitiated("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Waiting for transcode jobs")
	if err := svc.Wait(shutdownCtx); err != nil {
		logging.Warn("Transcode jobs did not finish in time: %v", err)
	} else {
		startup.LogShutdownStepComplete("Transcode jobs finished")
	}
	trans.Cleanup()
	gate.Stop()

	fastTier.Stop()
	if err := ledger.Close(); err != nil {
		logging.Warn("View ledger close error: %v", err)
	}
	startup.LogShutdownStepComplete("View accounting stopped")

	publisher.Close()

	if collector != nil {
		collector.Stop()
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}

func buildPublisher(config *startup.Config) events.Publisher {
	if config.NATSURL == "" {
		return events.Noop{}
	}
	pub, err := events.NewNATSPublisher(config.NATSURL)
	startup.LogComponentInit("Events", config.NATSURL, err)
	if err != nil {
		return events.Noop{}
	}
	return pub
}
