package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Jexxy1517/CashFlowReportApp/internal/aggregate"
	"github.com/Jexxy1517/CashFlowReportApp/internal/auth"
	"github.com/Jexxy1517/CashFlowReportApp/internal/backend"
	"github.com/Jexxy1517/CashFlowReportApp/internal/config"
	"github.com/Jexxy1517/CashFlowReportApp/internal/core"
	apphttp "github.com/Jexxy1517/CashFlowReportApp/internal/http"
	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
	"github.com/Jexxy1517/CashFlowReportApp/internal/media"
	"github.com/Jexxy1517/CashFlowReportApp/internal/notify"
	"github.com/Jexxy1517/CashFlowReportApp/internal/report"
	"github.com/Jexxy1517/CashFlowReportApp/internal/scope"
	"github.com/Jexxy1517/CashFlowReportApp/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: parseLevel(cfg.LogLevel)})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	store, err := backend.Open(backend.Config{
		Type:                 backend.Type(cfg.DataBackend),
		SQLiteDBPath:         cfg.SQLiteDBPath,
		SupabaseURL:          cfg.SupabaseURL,
		SupabaseKey:          cfg.SupabaseKey,
		SupabasePollInterval: cfg.SupabasePollInterval,
	}, logger)
	if err != nil {
		logger.Error("backend initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	defer store.Close()

	provider := auth.NewStatic(core.User{
		ID:   cfg.UserID,
		Name: cfg.UserName,
		Role: core.Role(cfg.UserRole),
	})

	var sink notify.Sink = notify.Nop{}
	if cfg.AMQPURL != "" {
		amqpSink, err := notify.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Error("AMQP initialization failed", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpSink.Close()
		sink = amqpSink
	}

	var uploader media.Uploader
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		uploader = media.NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket, logger)
	}

	resolver := scope.NewResolver(cfg.UserID)
	engine := aggregate.New(store, logger)
	defer engine.Close()

	if err := engine.SetScope(context.Background(), resolver.Current()); err != nil {
		logger.Error("initial scope subscription failed", log.FieldError, err)
		os.Exit(1)
	}

	tracker := service.NewTracker(store, resolver, provider, uploader, sink, logger)

	loc := cfg.Location()
	opts := apphttp.Options{
		Exporter: report.NewPDFExporter(cfg.ReportDir, loc, logger),
		Location: loc,
	}
	if cfg.SheetsSpreadsheetID != "" {
		credentials, err := cfg.SheetsCredentials()
		if err != nil {
			logger.Error("sheets credentials unreadable", log.FieldError, err)
			os.Exit(1)
		}
		recap, err := report.NewRecapSheet(context.Background(), credentials, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName, logger)
		if err != nil {
			logger.Error("sheets initialization failed", log.FieldError, err)
			os.Exit(1)
		}
		opts.RecapSheet = recap
	}

	srv := apphttp.NewServer(":"+cfg.Port, tracker, engine, resolver, opts, logger)
	srv.ReadTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
