package monitor

import (
	"math"
	"strings"

	"github.com/teslashibe/go-fieldnav/pkg/protocol"
)

// AspectRatio is the height/width ratio of a terminal cell.
const AspectRatio = 2.0

// Plot glyphs.
const (
	GlyphEmpty    = ' '
	GlyphRobot    = '@'
	GlyphObstacle = '*'
	GlyphRay      = '.'
	GlyphHead     = '+'
	GlyphRing     = '`'
)

// grid maps body-frame meters onto terminal cells. +X points up, +Y left.
type grid struct {
	w, h     int
	cx, cy   int
	rx       float64 // cells per maxRange horizontally
	maxRange float64
}

func newGrid(w, h int, maxRange float64) grid {
	g := grid{w: w, h: h, cx: w / 2, cy: h / 2, maxRange: maxRange}
	g.rx = math.Min(float64(g.cx), float64(g.cy)*AspectRatio)
	return g
}

func (g grid) cell(x, y float64) (col, row int, ok bool) {
	col = g.cx + int(math.Round(-y/g.maxRange*g.rx))
	row = g.cy + int(math.Round(-x/g.maxRange*g.rx/AspectRatio))
	ok = col >= 0 && col < g.w && row >= 0 && row < g.h
	return col, row, ok
}

// Plot draws obstacles and the goal heading into a w x h block of text.
// Markers outside maxRange are dropped. goal may be nil.
func Plot(w, h int, markers []protocol.Marker, goal *protocol.GoalData, maxRange float64) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	cells := make([][]rune, h)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(string(GlyphEmpty), w))
	}
	g := newGrid(w, h, maxRange)

	// Range ring
	for a := 0.0; a < 2*math.Pi; a += math.Pi / 32 {
		if c, r, ok := g.cell(maxRange*math.Cos(a), maxRange*math.Sin(a)); ok {
			cells[r][c] = GlyphRing
		}
	}

	for _, m := range markers {
		p := m.Position
		if math.Hypot(p.X, p.Y) > maxRange {
			continue
		}
		if c, r, ok := g.cell(p.X, p.Y); ok {
			cells[r][c] = GlyphObstacle
		}
	}

	if goal != nil && (goal.Position.X != 0 || goal.Position.Y != 0) {
		heading := math.Atan2(goal.Position.Y, goal.Position.X)
		reach := 0.8 * maxRange
		steps := int(g.rx)
		for i := 1; i <= steps; i++ {
			d := reach * float64(i) / float64(steps)
			c, r, ok := g.cell(d*math.Cos(heading), d*math.Sin(heading))
			if !ok {
				break
			}
			glyph := GlyphRay
			if i == steps {
				glyph = GlyphHead
			}
			if cells[r][c] != GlyphObstacle {
				cells[r][c] = glyph
			}
		}
	}

	if g.cx < w && g.cy < h {
		cells[g.cy][g.cx] = GlyphRobot
	}

	lines := make([]string, h)
	for i, row := range cells {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}
