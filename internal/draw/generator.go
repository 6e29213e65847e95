// Package draw produces the unique numbers of a Cringo session.
//
// A Generator maps fixed-width output of a seeded pseudorandom stream onto
// [1, 90] and rejects zero, out-of-range and repeated values until it finds
// one that has not been drawn yet. The same seed always yields the same
// permutation.
package draw

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrBadBits = errors.New("unusable draw bits")

// Seed is captured once per session from the ambient light reading.
type Seed int64

const (
	DefaultBits = 7
	MinBits     = 7
	MaxBits     = 16

	pcgStream = 0x63726e67 // "crng"
)

// Source yields the low n bits of a deterministic stream.
type Source interface {
	Bits(n uint) uint64
}

type pcgSource struct {
	rng *rand.Rand
}

// NewSource returns the deterministic stream used for seed s.
func NewSource(s Seed) Source {
	return &pcgSource{rng: rand.New(rand.NewPCG(uint64(s), pcgStream))}
}

func (p *pcgSource) Bits(n uint) uint64 {
	return p.rng.Uint64() >> (64 - n)
}

// RejectReason explains why a candidate value was resampled.
type RejectReason int

const (
	RejectZero RejectReason = iota
	RejectOutOfRange
	RejectDuplicate
)

func (r RejectReason) String() string {
	switch r {
	case RejectZero:
		return "zero"
	case RejectOutOfRange:
		return "out_of_range"
	case RejectDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

type Options struct {
	// Bits is the width of each raw sample. Zero means DefaultBits.
	Bits uint

	// MaxResamples bounds consecutive rejections for a single draw. Zero
	// keeps resampling until a fresh value appears. When the bound is hit
	// the generator takes the k-th undrawn value, with k from the same
	// stream, so the sequence stays a function of the seed.
	MaxResamples int

	OnReject func(candidate int, reason RejectReason)
}

type Generator struct {
	src      Source
	bits     uint
	set      *Set
	opts     Options
	rejected int
}

// NewGenerator returns a generator over a fresh Set seeded with s.
func NewGenerator(s Seed, opts Options) (*Generator, error) {
	return NewGeneratorFrom(NewSource(s), opts)
}

// NewGeneratorFrom builds a generator over an explicit source.
func NewGeneratorFrom(src Source, opts Options) (*Generator, error) {
	bits := opts.Bits
	if bits == 0 {
		bits = DefaultBits
	}
	if err := CheckBits(bits); err != nil {
		return nil, err
	}
	if opts.MaxResamples < 0 {
		return nil, fmt.Errorf("max resamples %d must not be negative", opts.MaxResamples)
	}
	return &Generator{
		src:  src,
		bits: bits,
		set:  NewSet(),
		opts: opts,
	}, nil
}

// CheckBits accepts a sample width only if Map reaches every value in
// [MinValue, MaxValue] from it. Any other width leaves values that can never
// be drawn, and a session could not run to exhaustion.
func CheckBits(bits uint) error {
	if bits < MinBits || bits > MaxBits {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrBadBits, bits, MinBits, MaxBits)
	}
	var hit [MaxValue + 1]bool
	reached := 0
	for r := uint64(0); r < 1<<bits; r++ {
		v := Map(r, bits)
		if InRange(v) && !hit[v] {
			hit[v] = true
			reached++
		}
	}
	if reached != Capacity {
		return fmt.Errorf("%w: %d bits reach %d of %d values", ErrBadBits, bits, reached, Capacity)
	}
	return nil
}

// Map converts a raw sample into a candidate value: floor(r * 2^(bits-1) / 90).
func Map(r uint64, bits uint) int {
	return int(r * (1 << (bits - 1)) / MaxValue)
}

// Next returns the next unique value and the draw count after accepting it.
func (g *Generator) Next() (value, count int, err error) {
	if g.set.Full() {
		return 0, g.set.Len(), ErrExhausted
	}

	attempts := 0
	for {
		candidate := Map(g.src.Bits(g.bits), g.bits)
		reason, ok := g.check(candidate)
		if ok {
			count, err = g.set.Mark(candidate)
			return candidate, count, err
		}

		g.rejected++
		if g.opts.OnReject != nil {
			g.opts.OnReject(candidate, reason)
		}

		attempts++
		if g.opts.MaxResamples > 0 && attempts >= g.opts.MaxResamples {
			return g.fallback()
		}
	}
}

func (g *Generator) check(candidate int) (RejectReason, bool) {
	switch {
	case candidate == 0:
		return RejectZero, false
	case candidate > MaxValue:
		return RejectOutOfRange, false
	case g.set.Has(candidate):
		return RejectDuplicate, false
	}
	return 0, true
}

func (g *Generator) fallback() (int, int, error) {
	k := int(g.src.Bits(g.bits) % uint64(g.set.Remaining()))
	v, ok := g.set.nthUndrawn(k)
	if !ok {
		return 0, g.set.Len(), ErrExhausted
	}
	count, err := g.set.Mark(v)
	return v, count, err
}

// Set exposes the values drawn so far. Callers must not mutate it.
func (g *Generator) Set() *Set { return g.set }

// Rejected is the total number of resampled candidates.
func (g *Generator) Rejected() int { return g.rejected }
