package hw

import (
	"github.com/pkg/errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiostream"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// nrzFreq is the one-wire bit rate implied by spec.md §6's 0/1 symbol
// timings (300ns+900ns per bit ≈ 800kHz, the standard WS2812 rate).
const nrzFreq = 800 * physic.KiloHertz

// nrzMSB3 holds, for each possible byte value, its NRZ-MSB encoding as
// 3 output bits per input bit (24 bits total), matching the 0 ≈
// 300ns-high/900ns-low, 1 ≈ 900ns-high/300ns-low symbol shapes.
var nrzMSB3 [256][3]byte

func init() {
	for v := 0; v < 256; v++ {
		var out [3]byte
		bitpos := 0
		put := func(high bool) {
			byteIdx := bitpos / 8
			bit := uint(7 - bitpos%8)
			if high {
				out[byteIdx] |= 1 << bit
			}
			bitpos++
		}
		for b := 7; b >= 0; b-- {
			bitSet := v&(1<<uint(b)) != 0
			// 3 output bits per input bit: high, variable, low.
			put(true)
			put(bitSet)
			put(false)
		}
		nrzMSB3[v] = out
	}
}

// NRZTransport is the pixel.Transport for real LED hardware (selected
// with -transport=nrz; the commands default to the preview transport):
// it bit-bangs the GRB
// stream out a GPIO pin using periph.io's gpiostream, encoding each
// byte as a fixed NRZ symbol sequence (spec.md §6 "Pixel transport").
type NRZTransport struct {
	pin gpiostream.PinOut
	buf []byte
}

// NewNRZTransport initializes periph's host drivers and opens pinName
// (e.g. "GPIO18") as a streaming output.
func NewNRZTransport(pinName string) (*NRZTransport, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "hw: initializing periph host")
	}
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, errors.Errorf("hw: no such GPIO pin %q", pinName)
	}
	streamer, ok := p.(gpiostream.PinOut)
	if !ok {
		return nil, errors.Errorf("hw: pin %q does not support streaming output", pinName)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, errors.Wrap(err, "hw: setting pin low")
	}
	return &NRZTransport{pin: streamer}, nil
}

// Write implements pixel.Transport. grb must already be in GRB byte
// order, one triple per LED (spec.md §6).
func (t *NRZTransport) Write(grb []byte) error {
	need := len(grb) * 3
	if cap(t.buf) < need {
		t.buf = make([]byte, need)
	}
	t.buf = t.buf[:need]
	for i, v := range grb {
		copy(t.buf[3*i:3*i+3], nrzMSB3[v][:])
	}
	// Three output bits per LED bit, so the stream runs at 3x nrzFreq.
	stream := gpiostream.BitStream{Freq: 3 * nrzFreq, Bits: t.buf, LSBF: false}
	if err := t.pin.StreamOut(&stream); err != nil {
		return errors.Wrap(err, "hw: streaming NRZ output")
	}
	return nil
}
