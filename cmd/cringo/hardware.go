package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cringo/cringo/internal/config"
	"github.com/cringo/cringo/internal/device"
	"github.com/cringo/cringo/internal/display"
	"github.com/cringo/cringo/internal/sensor"
	"github.com/cringo/cringo/internal/session"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

type hardware struct {
	sensor  session.SensorGateway
	screen  display.Screen
	holder  device.Holder // set when the sensor is simulated
	closers []func() error
}

// Close releases devices in reverse order of opening.
func (h *hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	return errors.Join(errs...)
}

func openHardware(ctx context.Context, cfg *config.Config, log *zap.Logger) (*hardware, error) {
	if cfg.Hardware.Simulate {
		return openSimulated(ctx, cfg, log), nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	b, err := i2creg.Open(cfg.Hardware.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Hardware.I2CBus, err)
	}
	hw := &hardware{closers: []func() error{b.Close}}

	prox, err := sensor.Open(ctx, b, cfg.Hardware.SensorAddr)
	if err != nil {
		hw.Close()
		return nil, err
	}
	oled, err := display.OpenOLED(b, cfg.OLED())
	if err != nil {
		hw.Close()
		return nil, err
	}
	hw.closers = append(hw.closers, oled.Close)
	hw.sensor = prox
	hw.screen = oled
	if log.Core().Enabled(zap.DebugLevel) {
		hw.screen = display.Multi(oled, logPanel(log))
	}

	log.Info("hardware ready",
		zap.String("i2c", b.String()),
		zap.Uint16("sensor_addr", cfg.Hardware.SensorAddr),
		zap.Uint16("oled_addr", cfg.Hardware.OLEDAddr),
	)
	return hw, nil
}

// openSimulated replaces the board with a self-tapping sensor and a logged
// panel.
func openSimulated(ctx context.Context, cfg *config.Config, log *zap.Logger) *hardware {
	sim := sensor.NewSimulated(session.Intensity(cfg.Hardware.SimAmbient))
	go sim.Run(ctx, cfg.Hardware.SimTapInterval)

	log.Info("using simulated sensor", zap.Duration("tap_every", cfg.Hardware.SimTapInterval))
	return &hardware{sensor: sim, screen: logPanel(log), holder: sim}
}

// logPanel is a text copy of the panel that logs every frame at debug level.
func logPanel(log *zap.Logger) *display.GridScreen {
	panel := display.NewGridScreen()
	panelLog := log.With(zap.String("component", "panel"))
	panel.OnShow = func(lines []string) {
		panelLog.Debug("frame", zap.Strings("lines", lines))
	}
	return panel
}
