package hw

import (
	"bytes"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// PreviewTransport is a pixel.Transport that renders the LED chain to
// the terminal using ANSI 256-color blocks, for running and smoke
// testing marqueed on hardware with no LED strip attached (adapted
// from periph-devices' screen1d terminal emulator).
type PreviewTransport struct {
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// NewPreviewTransport creates a PreviewTransport writing to a
// colorable stdout.
func NewPreviewTransport() *PreviewTransport {
	return &PreviewTransport{
		w:       colorable.NewColorableStdout(),
		palette: *ansi256.Default,
	}
}

// Write implements pixel.Transport: grb is GRB-ordered triples, one
// per LED index.
func (t *PreviewTransport) Write(grb []byte) error {
	t.buf.Reset()
	t.buf.WriteString("\r\033[0m")
	for i := 0; i+2 < len(grb); i += 3 {
		g, r, b := grb[i], grb[i+1], grb[i+2]
		c := color.NRGBA{R: r, G: g, B: b, A: 255}
		io.WriteString(&t.buf, t.palette.Block(c))
	}
	t.buf.WriteString("\033[0m ")
	_, err := t.buf.WriteTo(t.w)
	return err
}
