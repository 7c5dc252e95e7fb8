// Package pixel implements the Pixel Surface (spec.md §4.1): an 8-row by
// up-to-128-column RGB framebuffer with mandatory serpentine LED-chain
// mapping, global brightness scaling, and a pluggable output Transport.
//
// The physical one-wire NRZ transport timing itself is an external
// concern (spec.md §1); Transport implementations live in
// internal/hw and are handed to a Surface at construction time.
package pixel

import (
	"github.com/pkg/errors"

	"github.com/ledmarquee/marqueed/internal/types"
)

// Rows is the fixed panel height.
const Rows = 8

// Transport accepts a fully composed GRB byte stream — one triple per
// LED, in linear chain order — and drives the physical output. It is the
// external collaborator behind spec.md §6's pixel transport.
type Transport interface {
	// Write sends panelCols*Rows*3 GRB bytes. Surface applies no
	// timeout around the call, and the implementations in internal/hw
	// do not bound its duration either.
	Write(grb []byte) error
}

// Surface is the 8xN RGB framebuffer.
type Surface struct {
	cols       int
	brightness uint8
	fb         []types.RGB // row-major, len == cols*Rows
	transport  Transport
}

// NewSurface creates a Surface for the given panel width (clamped to the
// nearest legal value) and output Transport.
func NewSurface(cols int, transport Transport) *Surface {
	c := int(types.ClampPanelCols(cols))
	return &Surface{
		cols:       c,
		brightness: 255,
		fb:         make([]types.RGB, c*Rows),
		transport:  transport,
	}
}

// Cols returns the current panel width.
func (s *Surface) Cols() int {
	return s.cols
}

// SetCols resizes the framebuffer to the nearest legal panel width,
// clearing it in the process.
func (s *Surface) SetCols(cols int) {
	c := int(types.ClampPanelCols(cols))
	s.cols = c
	s.fb = make([]types.RGB, c*Rows)
}

// SetBrightness sets the global brightness applied at Refresh time.
func (s *Surface) SetBrightness(b int) {
	s.brightness = uint8(types.ClampBrightness(b))
}

// Brightness returns the current global brightness.
func (s *Surface) Brightness() int {
	return int(s.brightness)
}

// Clear blanks the framebuffer without touching the transport.
func (s *Surface) Clear() {
	for i := range s.fb {
		s.fb[i] = types.RGB{}
	}
}

// SetPixel sets a single pixel. Out-of-range coordinates are a silent
// no-op, per spec.md §4.1.
func (s *Surface) SetPixel(row, col int, c types.RGB) {
	if row < 0 || row >= Rows || col < 0 || col >= s.cols {
		return
	}
	s.fb[row*s.cols+col] = c
}

// GetPixel reads a single pixel. Out-of-range coordinates return the
// zero color.
func (s *Surface) GetPixel(row, col int) types.RGB {
	if row < 0 || row >= Rows || col < 0 || col >= s.cols {
		return types.RGB{}
	}
	return s.fb[row*s.cols+col]
}

// LEDIndex implements the mandatory serpentine mapping from spec.md §4.1:
// the chain is routed column-major; for column c and row r the linear
// index is c*Rows+r when c is even, and c*Rows+(Rows-1-r) when c is odd.
func LEDIndex(row, col int) int {
	if col%2 == 0 {
		return col*Rows + row
	}
	return col*Rows + (Rows - 1 - row)
}

// ErrNoTransport is returned by Refresh when the Surface has no Transport.
var ErrNoTransport = errors.New("pixel: surface has no transport")

// Refresh scales the framebuffer by global brightness and emits it as
// GRB byte triples in linear-LED order, per spec.md §4.1/§6.
func (s *Surface) Refresh() error {
	if s.transport == nil {
		return ErrNoTransport
	}
	buf := make([]byte, s.cols*Rows*3)
	for row := 0; row < Rows; row++ {
		for col := 0; col < s.cols; col++ {
			px := s.fb[row*s.cols+col]
			idx := LEDIndex(row, col)
			buf[idx*3+0] = scale(px.G, s.brightness)
			buf[idx*3+1] = scale(px.R, s.brightness)
			buf[idx*3+2] = scale(px.B, s.brightness)
		}
	}
	return s.transport.Write(buf)
}

func scale(channel, brightness uint8) byte {
	return byte(uint16(channel) * uint16(brightness) / 255)
}
