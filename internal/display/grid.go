package display

import (
	"strings"
	"sync"
)

// Character cell size used to map pixel coordinates onto the grid.
const (
	cellW = 8
	cellH = 10
)

// GridScreen lays text out on a character grid the size of the panel, for
// terminals. OnShow receives the lines each time the frame is shown.
type GridScreen struct {
	mu     sync.Mutex
	back   [][]rune
	front  []string
	OnShow func(lines []string)
}

func NewGridScreen() *GridScreen {
	g := &GridScreen{}
	g.back = blankGrid()
	g.front = g.render()
	return g
}

func (g *GridScreen) Cols() int { return Width / cellW }
func (g *GridScreen) Rows() int { return Height/cellH + 1 }

func blankGrid() [][]rune {
	rows := make([][]rune, Height/cellH+1)
	for i := range rows {
		rows[i] = []rune(strings.Repeat(" ", Width/cellW))
	}
	return rows
}

func (g *GridScreen) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.back = blankGrid()
}

// Text places s at the cell containing (x, y) and clips at the right edge.
func (g *GridScreen) Text(s string, x, y int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	row, col := (y+cellH/2)/cellH, (x+cellW/2)/cellW
	if row < 0 || row >= len(g.back) {
		return
	}
	line := g.back[row]
	for _, r := range s {
		if col >= len(line) {
			break
		}
		if col >= 0 {
			line[col] = r
		}
		col++
	}
}

func (g *GridScreen) Show() error {
	g.mu.Lock()
	g.front = g.render()
	lines := append([]string(nil), g.front...)
	cb := g.OnShow
	g.mu.Unlock()
	if cb != nil {
		cb(lines)
	}
	return nil
}

// Lines returns the last shown frame.
func (g *GridScreen) Lines() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.front...)
}

func (g *GridScreen) render() []string {
	out := make([]string, len(g.back))
	for i, r := range g.back {
		out[i] = string(r)
	}
	return out
}
