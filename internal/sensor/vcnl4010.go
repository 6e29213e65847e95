// Package sensor reads touch and ambient light for the game, either from a
// VCNL4010 on I2C or from a simulated signal.
package sensor

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cringo/cringo/internal/session"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddr is the VCNL4010's fixed I2C address.
const DefaultAddr uint16 = 0x13

// VCNL4010 registers.
const (
	regCommand    = 0x80
	regProxRate   = 0x82
	regAmbientCfg = 0x84
	regAmbient    = 0x85
	regProximity  = 0x87
)

const (
	cmdAll       = 0x07 // self-timed, periodic proximity and ambient light
	cmdProxOnly  = 0x03
	proxRate31Hz = 0x04
	ambientCfg   = 0xF7 // continuous conversion, 10 samples/s, averaged
)

// Conn is one I2C device; *i2c.Dev satisfies it.
type Conn interface {
	Tx(w, r []byte) error
}

// VCNL4010 is a proximity and ambient light sensor. It implements
// session.SensorGateway and session.AmbientSwitch.
type VCNL4010 struct {
	mu  sync.Mutex
	dev Conn
}

func NewVCNL4010(dev Conn) *VCNL4010 {
	return &VCNL4010{dev: dev}
}

// Open programs a VCNL4010 on bus at addr and returns it ready for reads.
func Open(ctx context.Context, bus i2c.Bus, addr uint16) (*VCNL4010, error) {
	if addr == 0 {
		addr = DefaultAddr
	}
	s := NewVCNL4010(&i2c.Dev{Bus: bus, Addr: addr})
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Init enables both measurements and raises the sample rates.
func (s *VCNL4010) Init(ctx context.Context) error {
	for _, w := range [][2]byte{
		{regCommand, cmdAll},
		{regProxRate, proxRate31Hz},
		{regAmbientCfg, ambientCfg},
	} {
		if err := s.write(ctx, w[0], w[1]); err != nil {
			return fmt.Errorf("init vcnl4010: %w", err)
		}
	}
	return nil
}

func (s *VCNL4010) ReadProximity(ctx context.Context) (session.Intensity, error) {
	return s.read(ctx, regProximity)
}

func (s *VCNL4010) ReadAmbientLight(ctx context.Context) (session.Intensity, error) {
	return s.read(ctx, regAmbient)
}

func (s *VCNL4010) EnableAmbient(ctx context.Context) error {
	return s.write(ctx, regCommand, cmdAll)
}

// DisableAmbient stops ambient light conversions; proximity keeps running.
func (s *VCNL4010) DisableAmbient(ctx context.Context) error {
	return s.write(ctx, regCommand, cmdProxOnly)
}

func (s *VCNL4010) write(ctx context.Context, reg, value byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dev.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("write reg %#x: %w", reg, err)
	}
	return nil
}

// read returns the big-endian signed 16-bit value at reg.
func (s *VCNL4010) read(ctx context.Context, reg byte) (session.Intensity, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	buf := make([]byte, 2)
	s.mu.Lock()
	err := s.dev.Tx([]byte{reg}, buf)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("read reg %#x: %w", reg, err)
	}
	return session.Intensity(int16(binary.BigEndian.Uint16(buf))), nil
}
