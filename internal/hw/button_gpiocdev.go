package hw

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// DebounceWindow is the minimum spacing between two edges that each
// count as a toggle (spec.md §4.7.2: "debounced at the collaborator to
// 300 ms").
const DebounceWindow = 300 * time.Millisecond

// GPIOCdevButton is the primary ButtonSource, backed by a Linux GPIO
// character-device line watched for falling edges (button-to-ground
// wiring), debounced in software.
type GPIOCdevButton struct {
	line *gpiocdev.Line

	pending  int32
	lastEdge time.Time
}

// NewGPIOCdevButton opens offset on chip (e.g. "gpiochip0") and begins
// watching for debounced press edges.
func NewGPIOCdevButton(chip string, offset int) (*GPIOCdevButton, error) {
	b := &GPIOCdevButton{}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(b.handleEvent),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "hw: requesting %s line %d", chip, offset)
	}
	b.line = line
	return b, nil
}

func (b *GPIOCdevButton) handleEvent(evt gpiocdev.LineEvent) {
	now := time.Now()
	if now.Sub(b.lastEdge) < DebounceWindow {
		return
	}
	b.lastEdge = now
	atomic.StoreInt32(&b.pending, 1)
}

// TakeToggle implements ButtonSource.
func (b *GPIOCdevButton) TakeToggle() bool {
	return atomic.SwapInt32(&b.pending, 0) == 1
}

// Close implements ButtonSource.
func (b *GPIOCdevButton) Close() error {
	return b.line.Close()
}
