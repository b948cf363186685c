package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/typeless-app/typeless-core/internal/bus"
	"github.com/typeless-app/typeless-core/internal/capture"
	"github.com/typeless-app/typeless-core/internal/config"
	"github.com/typeless-app/typeless-core/internal/history"
	"github.com/typeless-app/typeless-core/internal/inject"
	"github.com/typeless-app/typeless-core/internal/llm"
	"github.com/typeless-app/typeless-core/internal/natsserver"
	"github.com/typeless-app/typeless-core/internal/notify"
	"github.com/typeless-app/typeless-core/internal/pipeline"
	"github.com/typeless-app/typeless-core/internal/runtime"
	"github.com/typeless-app/typeless-core/internal/stt"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "typeless.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	// API keys usually live in a local .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Telemetry.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedded, err := natsserver.Start(cfg.Bus, logger)
	if err != nil {
		logger.Error("failed to start embedded NATS server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer embedded.Shutdown()

	client, err := bus.Connect(ctx, cfg.Bus, logger)
	if err != nil {
		logger.Error("failed to connect to NATS", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer client.Close()

	store, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		logger.Error("failed to open history store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	transcriber, err := stt.New(cfg.STT)
	if err != nil {
		logger.Error("failed to build transcriber", slog.String("error", err.Error()))
		os.Exit(1)
	}
	refiner, err := llm.New(cfg.LLM)
	if err != nil {
		logger.Error("failed to build refiner", slog.String("error", err.Error()))
		os.Exit(1)
	}
	injector, err := inject.New(cfg.Injector, logger)
	if err != nil {
		logger.Error("failed to build injector", slog.String("error", err.Error()))
		os.Exit(1)
	}
	device, err := capture.NewExecDevice(cfg.Audio.CaptureCommand)
	if err != nil {
		logger.Error("failed to build capture device", slog.String("error", err.Error()))
		os.Exit(1)
	}
	recorder := capture.NewRecorder(cfg.Audio, device, logger)

	metrics, err := pipeline.NewMetrics()
	if err != nil {
		logger.Error("failed to register metrics", slog.String("error", err.Error()))
		os.Exit(1)
	}

	controller := pipeline.NewController(ctx, pipeline.Options{
		Transcriber:     transcriber,
		Refiner:         refiner,
		Injector:        injector,
		History:         store,
		Notifier:        notify.NewBusNotifier(client, logger),
		Recorder:        recorder,
		Glossary:        cfg.Glossary,
		SystemPrompt:    cfg.LLM.Prompt,
		PromptTailChars: cfg.STT.PromptTailChars,
		Metrics:         metrics,
		Logger:          logger,
	})
	defer controller.Close()

	rt := runtime.New(cfg, logger, controller, client)
	if err := rt.Start(ctx); err != nil {
		logger.Error("runtime exited with error", slog.String("error", err.Error()))
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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
