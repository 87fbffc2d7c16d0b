package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"footprint/internal/configuration"
	"footprint/internal/insight"
	"footprint/internal/interaction"
	"footprint/internal/server"
	"footprint/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"
)

// parseLevel maps a configured level name to a slog level.
// Unknown names fall back to Info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// prepareLogger installs a JSON slog logger as the default one. Records go to
// a rotating file when config.File is set, to os.Stdout otherwise. The level is
// read from level so it can be changed while running. The returned closer
// releases the log file.
func prepareLogger(config configuration.LoggerConfig, level *slog.LevelVar) io.Closer {
	level.Set(parseLevel(config.Level))

	var out io.WriteCloser = os.Stdout
	if config.File != "" {
		out = &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			Compress:   true,
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
	return out
}

// trackerFactory returns a constructor of session trackers configured from config.
func trackerFactory(config configuration.TrackingConfig, metrics *interaction.Metrics) func(...interaction.Option) *interaction.Tracker {
	return func(opts ...interaction.Option) *interaction.Tracker {
		base := []interaction.Option{
			interaction.WithLogLength(config.LogLength),
			interaction.WithTickInterval(config.TickInterval),
			interaction.WithMetrics(metrics),
		}
		if config.MovementRate > 0 {
			base = append(base, interaction.WithMovementRate(config.MovementRate))
		}
		return interaction.NewTracker(append(base, opts...)...)
	}
}

// The application exits with code 1 when the configuration, the insight rules
// or the server fail to start.
func main() {
	configPath := flag.String("config", "/etc/footprint/config.yaml", "configuration file")
	flag.Parse()

	loader := configuration.NewLoader(*configPath)
	config, err := loader.Load()
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}

	level := new(slog.LevelVar)
	logOut := prepareLogger(config.Logger, level)
	defer logOut.Close()

	loader.Watch(func(changed *configuration.AppConfig) {
		level.Set(parseLevel(changed.Logger.Level))
		slog.Info("Configuration reloaded", "level", level.Level().String())
	}, func(err error) {
		slog.Warn("Ignoring configuration change", "error", err)
	})

	appCtx, appCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := interaction.NewMetrics(registry)

	sessions := session.NewSessionsRepository(
		config.Tracking.SessionTTL,
		trackerFactory(config.Tracking, metrics),
		registry,
	)
	go sessions.Serve()

	insights, err := insight.Load(config.Insights.Rules)
	if err != nil {
		slog.Error("Unable to load insight rules", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(
		config.Server.Address,
		config.Server.Static,
		config.Server.SessionCookie,
		sessions,
		insights,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			appCancel()
		}
	}()
	slog.Info("Server listening " + config.Server.Address)
	<-appCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		slog.Error("Server shutdown", "error", err)
	}
	slog.Info("Server stopped")

	sessions.Stop()
}
