package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cringo/cringo/internal/bus"
	"github.com/cringo/cringo/internal/config"
	"github.com/cringo/cringo/internal/device"
	"github.com/cringo/cringo/internal/display"
	"github.com/cringo/cringo/internal/logging"
	"github.com/cringo/cringo/internal/sensor"
	"github.com/cringo/cringo/internal/session"
	"github.com/cringo/cringo/internal/tui/app"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "cringo.yaml", "Path to config file")
	logPath := flag.String("log", "cringo-sim.log", "Log file (empty disables logging)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.ToFile(cfg.Log.Level, *logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	topics := cfg.Topics()
	sim := sensor.NewSimulated(session.Intensity(cfg.Hardware.SimAmbient))
	link := bus.NewLoopback(topics.Subscribe)
	panel := display.NewGridScreen()
	presenter := display.NewTextPresenter(panel, cfg.Display(), log)

	sc := cfg.Session()
	ctrl := session.NewController(sc, sim, link, topics, cfg.MalformedPolicy(), presenter, nil, log)

	m := app.New(app.Options{
		Sensor:         sim,
		Link:           link,
		Topics:         topics,
		NextThreshold:  sc.NextThreshold,
		ResetThreshold: sc.ResetThreshold,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	panel.OnShow = func(lines []string) { p.Send(app.ScreenMsg(lines)) }
	events := make(chan session.Event, device.EventBuffer)
	ctrl.SetEvents(events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go device.Pump(ctx, events, device.SinkFunc(func(ev session.Event) {
		p.Send(app.EventMsg(ev))
	}))
	go func() {
		err := presenter.Splash(ctx)
		if err == nil {
			err = ctrl.Run(ctx)
		}
		if ctx.Err() == nil {
			log.Error("controller stopped", zap.Error(err))
		}
		p.Send(app.DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
