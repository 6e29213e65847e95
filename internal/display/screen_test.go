package display

import (
	"errors"
	"image"
	"strings"
	"testing"
)

type recordingDrawer struct {
	frames int
	bounds image.Rectangle
}

func (d *recordingDrawer) Draw(r image.Rectangle, _ image.Image, _ image.Point) error {
	d.frames++
	d.bounds = r
	return nil
}

func TestCanvasTextLightsPixels(t *testing.T) {
	out := &recordingDrawer{}
	c := NewCanvas(out)

	if c.Lit() != 0 {
		t.Fatalf("new canvas has %d lit pixels", c.Lit())
	}
	c.Text("BINGO!!", 35, 30)
	if c.Lit() == 0 {
		t.Error("Text lit no pixels")
	}
	if err := c.Show(); err != nil {
		t.Fatalf("Show() error: %v", err)
	}
	if out.frames != 1 || out.bounds != image.Rect(0, 0, Width, Height) {
		t.Errorf("frames = %d, bounds = %v", out.frames, out.bounds)
	}

	c.Clear()
	if c.Lit() != 0 {
		t.Errorf("Clear left %d lit pixels", c.Lit())
	}
}

func TestCanvasWithoutPanel(t *testing.T) {
	c := NewCanvas(nil)
	c.Text("1", 0, 0)
	if err := c.Show(); err != nil {
		t.Errorf("Show() error: %v", err)
	}
}

func TestGridScreenPlacement(t *testing.T) {
	g := NewGridScreen()
	g.Text("Cringo", 35, 22)
	g.Text("Time", 42, 32)

	if lines := g.Lines(); strings.TrimSpace(strings.Join(lines, "")) != "" {
		t.Fatal("text visible before Show")
	}
	_ = g.Show()

	lines := g.Lines()
	if len(lines) != g.Rows() {
		t.Fatalf("rows = %d, want %d", len(lines), g.Rows())
	}
	if got := strings.TrimRight(lines[2], " "); got != "    Cringo" {
		t.Errorf("row 2 = %q", got)
	}
	if got := strings.TrimRight(lines[3], " "); got != "     Time" {
		t.Errorf("row 3 = %q", got)
	}
}

func TestGridScreenClips(t *testing.T) {
	g := NewGridScreen()
	g.Text(strings.Repeat("x", 40), 100, 0)
	g.Text("lost", 0, 500)
	_ = g.Show()

	if got := len([]rune(g.Lines()[0])); got != g.Cols() {
		t.Errorf("row width = %d, want %d", got, g.Cols())
	}
}

type errScreen struct{ err error }

func (errScreen) Clear() {}
func (errScreen) Text(string, int, int) {}
func (e errScreen) Show() error { return e.err }

func TestMultiMirrorsAndJoinsErrors(t *testing.T) {
	a, b := NewGridScreen(), NewGridScreen()
	boom := errors.New("boom")
	m := Multi(a, errScreen{boom}, b)

	m.Text("45", 50, 30)
	err := m.Show()
	if !errors.Is(err, boom) {
		t.Errorf("Show() error = %v, want boom", err)
	}
	for i, g := range []*GridScreen{a, b} {
		if !strings.Contains(strings.Join(g.Lines(), ""), "45") {
			t.Errorf("screen %d missing text", i)
		}
	}
}

func TestAddrBusRemapsDefaultAddress(t *testing.T) {
	inner := &fakeBus{}
	b := &addrBus{Bus: inner, addr: 0x3D}

	_ = b.Tx(0x3C, []byte{0}, nil)
	_ = b.Tx(0x13, []byte{0}, nil)

	if len(inner.addrs) != 2 || inner.addrs[0] != 0x3D || inner.addrs[1] != 0x13 {
		t.Errorf("addresses = %#x", inner.addrs)
	}
}
