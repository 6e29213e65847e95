package display

import (
	"periph.io/x/conn/v3/physic"
)

type fakeBus struct {
	addrs []uint16
}

func (f *fakeBus) String() string { return "fake" }
func (f *fakeBus) SetSpeed(physic.Frequency) error { return nil }
func (f *fakeBus) Tx(addr uint16, _, _ []byte) error {
	f.addrs = append(f.addrs, addr)
	return nil
}
