package draw

import (
	"errors"
	"slices"
	"testing"
	"time"
)

// scriptSource replays fixed raw samples, cycling when it runs out.
type scriptSource struct {
	vals []uint64
	i    int
}

func (s *scriptSource) Bits(n uint) uint64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v & (1<<n - 1)
}

func TestMap(t *testing.T) {
	tests := []struct {
		r    uint64
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{64, 45},
		{126, 89},
		{127, 90},
	}

	for _, tt := range tests {
		if got := Map(tt.r, 7); got != tt.want {
			t.Errorf("Map(%d, 7) = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestNextAcceptsMappedValueOnEmptySet(t *testing.T) {
	g, err := NewGeneratorFrom(&scriptSource{vals: []uint64{64}}, Options{})
	if err != nil {
		t.Fatalf("NewGeneratorFrom: %v", err)
	}

	v, n, err := g.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v != 45 || n != 1 {
		t.Errorf("Next() = (%d, %d), want (45, 1)", v, n)
	}
	if g.Rejected() != 0 {
		t.Errorf("Rejected() = %d, want 0", g.Rejected())
	}
}

func TestNextRejectsZeroAndDuplicates(t *testing.T) {
	var reasons []RejectReason
	src := &scriptSource{vals: []uint64{0, 64, 1, 64, 65, 2}}
	g, err := NewGeneratorFrom(src, Options{
		OnReject: func(_ int, r RejectReason) { reasons = append(reasons, r) },
	})
	if err != nil {
		t.Fatalf("NewGeneratorFrom: %v", err)
	}

	first, _, _ := g.Next()
	second, n, _ := g.Next()
	third, _, _ := g.Next()

	if first != 45 {
		t.Errorf("first = %d, want 45", first)
	}
	// 1 maps to 0 and 64 maps to 45 again; 65 maps to 46.
	if second != 46 || n != 2 {
		t.Errorf("second = (%d, %d), want (46, 2)", second, n)
	}
	if third != 1 {
		t.Errorf("third = %d, want 1", third)
	}
	want := []RejectReason{RejectZero, RejectZero, RejectDuplicate}
	if !slices.Equal(reasons, want) {
		t.Errorf("reasons = %v, want %v", reasons, want)
	}
}

func TestCheckBits(t *testing.T) {
	for bits := uint(0); bits <= MaxBits+1; bits++ {
		err := CheckBits(bits)
		if bits == DefaultBits {
			if err != nil {
				t.Errorf("CheckBits(%d) = %v, want nil", bits, err)
			}
			continue
		}
		if !errors.Is(err, ErrBadBits) {
			t.Errorf("CheckBits(%d) = %v, want ErrBadBits", bits, err)
		}
	}
}

func TestEveryAcceptedWidthDrainsToExhaustion(t *testing.T) {
	for bits := uint(MinBits); bits <= MaxBits; bits++ {
		g, err := NewGenerator(500, Options{Bits: bits})
		if err != nil {
			continue
		}

		done := make(chan []int, 1)
		go func() {
			var seq []int
			for {
				v, _, err := g.Next()
				if err != nil {
					done <- seq
					return
				}
				seq = append(seq, v)
			}
		}()

		select {
		case seq := <-done:
			slices.Sort(seq)
			if len(seq) != Capacity || seq[0] != MinValue || seq[len(seq)-1] != MaxValue || len(slices.Compact(seq)) != Capacity {
				t.Errorf("bits=%d: drew %d values, want a permutation of [%d, %d]", bits, len(seq), MinValue, MaxValue)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("bits=%d: Next did not reach exhaustion", bits)
		}
	}
}

func drainAll(t *testing.T, g *Generator) []int {
	t.Helper()
	var seq []int
	for i := 0; i < Capacity; i++ {
		v, n, err := g.Next()
		if err != nil {
			t.Fatalf("draw %d: %v", i+1, err)
		}
		if n != i+1 {
			t.Fatalf("draw %d: count = %d", i+1, n)
		}
		if !InRange(v) {
			t.Fatalf("draw %d: value %d outside [%d, %d]", i+1, v, MinValue, MaxValue)
		}
		seq = append(seq, v)
	}
	return seq
}

func TestFixedSeedIsDeterministicPermutation(t *testing.T) {
	for _, seed := range []Seed{500, 0, -1234, 32767} {
		a, err := NewGenerator(seed, Options{})
		if err != nil {
			t.Fatalf("NewGenerator: %v", err)
		}
		b, _ := NewGenerator(seed, Options{})

		seqA := drainAll(t, a)
		seqB := drainAll(t, b)
		if !slices.Equal(seqA, seqB) {
			t.Fatalf("seed %d: sequences differ", seed)
		}

		sorted := slices.Clone(seqA)
		slices.Sort(sorted)
		for i, v := range sorted {
			if v != i+1 {
				t.Fatalf("seed %d: not a permutation of [1,90], sorted[%d] = %d", seed, i, v)
			}
		}

		if _, _, err := a.Next(); !errors.Is(err, ErrExhausted) {
			t.Errorf("seed %d: Next after exhaustion err = %v, want ErrExhausted", seed, err)
		}
		if a.Set().Len() != Capacity {
			t.Errorf("seed %d: Set().Len() = %d, want %d", seed, a.Set().Len(), Capacity)
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a, _ := NewGenerator(500, Options{})
	b, _ := NewGenerator(501, Options{})
	if slices.Equal(drainAll(t, a), drainAll(t, b)) {
		t.Error("seeds 500 and 501 produced the same permutation")
	}
}

func TestMaxResamplesFallsBackToUndrawn(t *testing.T) {
	// 64 keeps mapping to 45; after it is drawn every sample is a duplicate
	// until the cap forces the fallback, which uses 64 % 89 = 64 and picks
	// the 65th undrawn value in ascending order (45 is skipped) = 66.
	src := &scriptSource{vals: []uint64{64}}
	g, err := NewGeneratorFrom(src, Options{MaxResamples: 5})
	if err != nil {
		t.Fatalf("NewGeneratorFrom: %v", err)
	}

	if v, _, _ := g.Next(); v != 45 {
		t.Fatalf("first = %d, want 45", v)
	}
	v, n, err := g.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v != 66 || n != 2 {
		t.Errorf("fallback = (%d, %d), want (66, 2)", v, n)
	}
	if g.Rejected() != 5 {
		t.Errorf("Rejected() = %d, want 5", g.Rejected())
	}
}

func TestMaxResamplesStillDeterministic(t *testing.T) {
	a, _ := NewGenerator(77, Options{MaxResamples: 3})
	b, _ := NewGenerator(77, Options{MaxResamples: 3})
	seqA := drainAll(t, a)
	if !slices.Equal(seqA, drainAll(t, b)) {
		t.Fatal("capped generator is not deterministic")
	}
	sorted := slices.Clone(seqA)
	slices.Sort(sorted)
	if sorted[0] != 1 || sorted[len(sorted)-1] != 90 || len(slices.Compact(sorted)) != Capacity {
		t.Error("capped generator did not produce a permutation")
	}
}

func TestNewGeneratorRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"narrow", Options{Bits: 6}},
		{"wide", Options{Bits: 17}},
		{"gaps", Options{Bits: 8}},
		{"negative cap", Options{MaxResamples: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGenerator(1, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
