package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cringo/cringo/internal/bus"
	"github.com/cringo/cringo/internal/config"
	"github.com/cringo/cringo/internal/device"
	"github.com/cringo/cringo/internal/display"
	"github.com/cringo/cringo/internal/history"
	"github.com/cringo/cringo/internal/logging"
	"github.com/cringo/cringo/internal/session"
	"github.com/cringo/cringo/internal/ws"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "cringo.yaml", "Path to config file")
	envFile := flag.String("env", ".env", "Optional dotenv file with CRINGO_* overrides")
	simSensor := flag.Bool("sim-sensor", false, "Run without hardware on a self-tapping simulated sensor")
	port := flag.Int("port", 0, "Override spectator server port")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *simSensor {
		cfg.Hardware.Simulate = true
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("cringo stopped", zap.Error(err))
		log.Sync() //nolint:errcheck
		os.Exit(1)
	}
	log.Info("shut down")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	hw, err := openHardware(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer hw.Close()

	presenter := display.NewTextPresenter(hw.screen, cfg.Display(), log)
	if err := presenter.Splash(ctx); err != nil {
		return err
	}

	link := bus.NewMQTT(cfg.MQTT(), log)
	defer link.Disconnect()

	store := session.NewStore()
	var sinks []device.Sink
	if hw.holder != nil {
		sinks = append(sinks, device.NewAutoRestart(hw.holder))
	}

	var hist *history.Store
	if cfg.History.Path != "" {
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer hist.Close()
		sinks = append(sinks, device.NewJournal(hist, log))
		log.Info("history enabled", zap.String("path", cfg.History.Path))
	}

	if cfg.Server.Enabled {
		broadcaster, err := serve(ctx, cfg, store, hist, log)
		if err != nil {
			return err
		}
		defer broadcaster.Stop()
		sinks = append(sinks, device.SinkFunc(broadcaster.Dispatch))
	}

	events := make(chan session.Event, device.EventBuffer)
	go device.Pump(ctx, events, sinks...)

	ctrl := session.NewController(cfg.Session(), hw.sensor, link, cfg.Topics(), cfg.MalformedPolicy(), presenter, store, log)
	ctrl.SetEvents(events)

	log.Info("starting",
		zap.String("broker", cfg.Bus.Broker),
		zap.String("namespace", cfg.Bus.Namespace),
		zap.Bool("simulated", cfg.Hardware.Simulate),
	)
	return ctrl.Run(ctx)
}

// serve starts the spectator API in the background.
func serve(ctx context.Context, cfg *config.Config, store *session.Store, hist *history.Store, log *zap.Logger) (*ws.Broadcaster, error) {
	token := cfg.Server.AuthToken
	if token == "" {
		var err error
		if token, err = config.GenerateToken(); err != nil {
			return nil, fmt.Errorf("generate auth token: %w", err)
		}
		log.Info("generated spectator token", zap.String("token", token))
	}

	broadcaster := ws.NewBroadcaster(store, cfg.Server.BroadcastThrottle, cfg.Server.SnapshotInterval, cfg.Server.MaxConnections, log)
	server := ws.NewServer(store, broadcaster, cfg.Server.AllowedOrigins, token, log)
	if hist != nil {
		broadcaster.SetStats(hist)
		server.SetHistory(hist, cfg.History.Limit)
	}

	go func() {
		if err := ws.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port, server.Handler(), log); err != nil {
			log.Error("spectator server stopped", zap.Error(err))
		}
	}()
	return broadcaster, nil
}
