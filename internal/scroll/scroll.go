// Package scroll implements the Scroller (spec.md §4.3): owns the
// current text, color and speed, and on each tick renders one frame to a
// pixel surface and advances the scroll position, signalling cycle
// completion.
package scroll

import (
	"sync"

	"github.com/ledmarquee/marqueed/internal/glyph"
	"github.com/ledmarquee/marqueed/internal/pixel"
	"github.com/ledmarquee/marqueed/internal/types"
)

// FontWidth is the glyph bitmap width; each glyph occupies FontWidth+1
// columns (5 pixels + 1 gap).
const FontWidth = glyph.Width

// CharCols is the total column span of one character cell.
const CharCols = FontWidth + 1

// FrameDelayMS is the fixed per-tick frame delay.
const FrameDelayMS = 16

// speedSteps is the Q8 pixels-per-frame table for speeds 1..10.
var speedSteps = [10]int{56, 72, 92, 116, 144, 176, 212, 252, 296, 344}

// Scroller owns scrolling text state and renders it to a pixel.Surface.
// The four mutating operations (SetText, SetColor, SetSpeed, Tick) are
// serialized under one lock, per spec.md §5.
type Scroller struct {
	mu sync.Mutex

	glyphs *glyph.Table
	panel  *pixel.Surface

	text  string
	color types.RGB
	speed int

	total   int // virtual canvas width: len(text)*CharCols + panelCols
	scrollX int
	phase   int // Q8 fractional accumulator
}

// New creates a Scroller rendering onto panel using glyphs.
func New(panel *pixel.Surface, glyphs *glyph.Table) *Scroller {
	s := &Scroller{
		glyphs: glyphs,
		panel:  panel,
		speed:  5,
	}
	s.setTextLocked("", types.RGB{})
	return s
}

// SetText sets the scrolling text and color, resetting scroll position
// to the initial "just off-screen" position.
func (s *Scroller) SetText(text string, color types.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTextLocked(text, color)
}

func (s *Scroller) setTextLocked(text string, color types.RGB) {
	s.text = text
	s.color = color
	s.total = len(text)*CharCols + s.panel.Cols()
	if s.total <= 0 {
		s.total = s.panel.Cols()
	}
	s.scrollX = len(text) * CharCols
	s.phase = 0
}

// SetColor changes the current color without resetting scroll position.
func (s *Scroller) SetColor(color types.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = color
}

// SetSpeed sets the scroll speed, clamped to [1,10].
func (s *Scroller) SetSpeed(speed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = types.ClampSpeed(speed)
}

// Speed returns the current speed.
func (s *Scroller) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// Text returns the currently displayed text, for status reporting.
func (s *Scroller) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Color returns the currently displayed color, for status reporting.
func (s *Scroller) Color() types.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color
}

// Tick renders one frame and advances the scroll position by one
// frame's worth of sub-pixel motion. It returns whether a full cycle
// completed on this tick and the fixed frame delay in milliseconds.
func (s *Scroller) Tick() (cycleComplete bool, delayMS int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderLocked()

	initial := len(s.text) * CharCols
	step := speedSteps[s.speed-1]
	s.phase += step
	for s.phase >= 256 {
		s.phase -= 256
		s.scrollX = (s.scrollX + 1) % s.total
		if s.scrollX == initial {
			cycleComplete = true
			break
		}
	}
	return cycleComplete, FrameDelayMS
}

// renderLocked paints the current frame onto the panel. Glyphs occupy
// rows 1..7; row 0 is always left blank (spec.md §9 open question,
// resolved as preserved).
func (s *Scroller) renderLocked() {
	s.panel.Clear()
	cols := s.panel.Cols()
	textLen := len(s.text)

	for col := 0; col < cols; col++ {
		vc := (s.scrollX + col) % s.total
		charIdx := vc / CharCols
		colInChar := vc % CharCols
		if colInChar >= FontWidth || charIdx >= textLen {
			continue
		}
		ch := s.text[charIdx]
		bits, ok := s.glyphs.Lookup(ch)
		if !ok {
			continue
		}
		column := bits[colInChar]
		for row := 0; row < 7; row++ {
			if column&(1<<uint(row)) != 0 {
				s.panel.SetPixel(row+1, col, s.color)
			}
		}
	}
}
