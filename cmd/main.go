// Package main is the entry point for the interview assistant core.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/chat"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/config"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/events"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/history"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/monitoring"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/normalize"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/pipeline"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/providers"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/ratelimit"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/screenshot"
)

// loadEnvFiles loads .env from standard locations.
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	configEnv := filepath.Join(homeDir, ".config", "interview-coder", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Local .env can override
	_ = godotenv.Load()
}

// resolveConfigPath checks the user flag, then standard locations.
func resolveConfigPath(userConfig string) (string, error) {
	if userConfig != "" {
		if _, err := os.Stat(userConfig); err != nil {
			return "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return userConfig, nil
	}

	searchPaths := []string{}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(homeDir, ".config", "interview-coder", "config.yaml"))
	}
	searchPaths = append(searchPaths, "configs/config.yaml", "config.yaml")

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no config file found. Specify --config path")
}

func main() {
	loadEnvFiles()

	configPath := flag.String("config", "", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	path, err := resolveConfigPath(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Logging
	if *debug {
		logCfg.Level = "debug"
	}
	monitoring.Global(logCfg)

	log.Info().
		Str("config", path).
		Str("provider", cfg.Provider).
		Str("language", cfg.Language).
		Msg("interview assistant core starting")

	registry := providers.NewRegistry()
	registry.Configure(cfg)

	guard := ratelimit.NewGuard(cfg.Limits.Cooldown, cfg.Limits.WaitHintMin, cfg.Limits.WaitHintMax)

	var recorder history.Recorder = history.Nop{}
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			log.Warn().Err(err).Msg("history disabled")
		} else {
			defer store.Close()
			recorder = store
		}
	}

	screenshots := screenshot.NewDirStore(cfg.Screenshots.QueueDir, cfg.Screenshots.ExtraDir)

	var sink pipeline.Sink = pipeline.NopSink{}
	var eventServer *events.Server
	if cfg.Events.Addr != "" {
		eventServer = events.NewServer(cfg.Events.Addr)
		sink = eventServer
	}

	orchestrator := pipeline.NewOrchestrator(cfg, registry, guard, screenshots, sink, recorder)
	bridge := chat.NewBridge(orchestrator.Config, registry, guard, recorder)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Live config reload: replace the snapshot and rebuild provider clients.
	watcher, err := config.Watch(ctx, path)
	if err != nil {
		log.Warn().Err(err).Msg("config watching disabled")
	} else {
		go func() {
			for updated := range watcher.Updates() {
				log.Info().Str("provider", updated.Provider).Msg("configuration reloaded")
				orchestrator.SetConfig(updated)
				registry.Configure(updated)
			}
		}()
	}

	if eventServer == nil {
		log.Info().Msg("no events.addr configured, running without a command surface")
		<-ctx.Done()
		return
	}

	eventServer.AttachCommands(events.CommandSet{
		RunInitial: func(ctx context.Context) (*normalize.SolutionResult, error) {
			return orchestrator.RunInitial(ctx)
		},
		RunDebug: func(ctx context.Context) (*normalize.DebugResult, error) {
			return orchestrator.RunDebug(ctx)
		},
		CancelAll: orchestrator.CancelOngoing,
		Chat:      bridge.Send,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("event server shutdown error")
		}
	}()

	if err := eventServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("event server error")
	}

	log.Info().Msg("interview assistant core stopped")
}
