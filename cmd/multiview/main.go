package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multiview/internal/core/domain"
	"multiview/internal/core/services"
	httphandlers "multiview/internal/handlers/http"
	"multiview/internal/infrastructure/middleware"
	"multiview/internal/infrastructure/monitoring"
	"multiview/internal/infrastructure/repositories/memory"
	"multiview/internal/infrastructure/twitch"
	"multiview/pkg/config"
	"multiview/pkg/logger"
	"multiview/pkg/tracing"
	"multiview/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var configPaths = []string{
	"configs/config.yaml",
	"/etc/multiview/config.yaml",
	"config.yaml",
}

func loadConfig() (*config.Config, string, error) {
	if path := os.Getenv("MULTIVIEW_CONFIG"); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			cfg, err := config.Load(path)
			return cfg, path, err
		}
	}
	// No file anywhere: defaults plus environment.
	cfg, err := config.Load("")
	return cfg, "", err
}

func main() {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		// The logger is not up yet.
		os.Stderr.WriteString("multiview: " + err.Error() + "\n")
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tracingCfg := tracing.DefaultConfig()
	tracingCfg.Enabled = cfg.Tracing.Enabled
	if cfg.Tracing.ServiceName != "" {
		tracingCfg.ServiceName = cfg.Tracing.ServiceName
	}
	if cfg.Tracing.JaegerURL != "" {
		tracingCfg.JaegerURL = cfg.Tracing.JaegerURL
	}
	if cfg.Tracing.Environment != "" {
		tracingCfg.Environment = cfg.Tracing.Environment
	}
	tracingCfg.SampleRate = cfg.Tracing.SampleRate

	tp, err := tracing.Init(tracingCfg)
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	client := twitch.NewClient(twitch.Config{
		ClientID: cfg.Twitch.ClientID,
		AuthURL:  cfg.Twitch.AuthURL,
		APIURL:   cfg.Twitch.APIURL,
		Timeout:  cfg.Twitch.RequestTimeout,
	}, collector, log)

	creds := domain.Credentials{
		ClientID:     cfg.Twitch.ClientID,
		ClientSecret: cfg.Twitch.ClientSecret,
	}

	// One session for the whole process: every request shares the token and category id.
	session := memory.NewMemorySessionRepository()
	credentialService := services.NewCredentialService(client, session, creds, collector, log, cfg.Twitch.SingleFlight)
	categoryService := services.NewCategoryService(cfg.Twitch.CategoryName, credentialService, client, session, collector, log, cfg.Twitch.SingleFlight)
	streamService := services.NewStreamService(credentialService, categoryService, client, session, collector, log, cfg.Twitch.PageSize)

	healthHandler := httphandlers.NewHealthHandler(credentialService, domain.ViewerSettings{
		MaxStreams: cfg.Viewer.MaxStreams,
		Layouts:    cfg.Viewer.Layouts,
		Category:   cfg.Twitch.CategoryName,
	})
	streamHandler := httphandlers.NewStreamHandler(streamService)
	contextLogger := logger.NewContextLogger(zapLogger)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
		middleware.RequestLoggingMiddleware(contextLogger, collector),
		middleware.CORSMiddleware(cfg.CORS.AllowedOrigins),
		middleware.NewHTTPRateLimitMiddleware(cfg),
		middleware.ErrorHandlerMiddleware(contextLogger),
	)

	httphandlers.SetupRoutes(router, healthHandler, streamHandler)

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if httphandlers.ServeStatic(router, cfg.Server.StaticDir) {
		log.Infow("serving front-end", "dir", cfg.Server.StaticDir)
	} else if cfg.Server.StaticDir != "" {
		log.Warnw("static directory not found, front-end disabled", "dir", cfg.Server.StaticDir)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("starting multiview server",
			"address", cfg.Server.Address,
			"config", cfgPath,
			"category", cfg.Twitch.CategoryName,
			"client_id", utils.MaskSensitive(cfg.Twitch.ClientID, 4),
			"configured", cfg.Configured(),
			"single_flight", cfg.Twitch.SingleFlight,
		)
		if !cfg.Configured() {
			log.Warn("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET are not both set; /api/streams will fail until they are")
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	failed := waitForStop(serverErr, sigChan, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("error force closing server", "error", closeErr)
		}
	} else {
		log.Info("server shutdown gracefully")
	}

	tracingCtx, tracingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer tracingCancel()
	if err := tp.Shutdown(tracingCtx); err != nil {
		log.Errorw("error shutting down tracer provider", "error", err)
	}

	log.Info("multiview server stopped")
	if failed {
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}

// waitForStop blocks until the server fails or a signal arrives and reports
// whether the process should exit non-zero. It never exits itself, so the
// caller's shutdown path always runs.
func waitForStop(serverErr <-chan error, signals <-chan os.Signal, log *zap.SugaredLogger) bool {
	select {
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
		return true
	case sig := <-signals:
		log.Infow("received shutdown signal", "signal", sig)
		return false
	}
}
