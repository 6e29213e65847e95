package display

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// The ssd1306 driver always talks to the panel's default address.
const ssd1306DefaultAddr uint16 = 0x3C

type OLEDConfig struct {
	Addr     uint16        // I2C address, 0x3C or 0x3D
	ResetPin string        // GPIO name, empty when the reset line is not wired
	ResetLow time.Duration // reset pulse width
}

// OLED is a Canvas bound to an SSD1306 panel.
type OLED struct {
	*Canvas
	dev *ssd1306.Dev
}

// OpenOLED pulses the panel reset line, then initialises a 128x64 SSD1306
// on bus.
func OpenOLED(bus i2c.Bus, cfg OLEDConfig) (*OLED, error) {
	if cfg.ResetPin != "" {
		if err := pulseReset(cfg.ResetPin, cfg.ResetLow); err != nil {
			return nil, err
		}
	}
	if cfg.Addr != 0 && cfg.Addr != ssd1306DefaultAddr {
		bus = &addrBus{Bus: bus, addr: cfg.Addr}
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{W: Width, H: Height})
	if err != nil {
		return nil, fmt.Errorf("open ssd1306: %w", err)
	}
	return &OLED{Canvas: NewCanvas(dev), dev: dev}, nil
}

// Close blanks the panel.
func (o *OLED) Close() error {
	return o.dev.Halt()
}

func pulseReset(name string, low time.Duration) error {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return fmt.Errorf("reset pin %s not found", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("reset pin low: %w", err)
	}
	time.Sleep(low)
	if err := pin.Out(gpio.High); err != nil {
		return fmt.Errorf("reset pin high: %w", err)
	}
	return nil
}

// addrBus redirects transactions for the driver's default address to a
// panel strapped to the alternate one.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(addr uint16, w, r []byte) error {
	if addr == ssd1306DefaultAddr {
		addr = b.addr
	}
	return b.Bus.Tx(addr, w, r)
}
