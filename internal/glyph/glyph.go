// Package glyph holds the fixed 5x7 column-bitmap font used by the
// scroller (spec.md §4.2). Each glyph is 5 bytes, one per column; bit 0
// is the top row, bit 6 is the bottom.
package glyph

import (
	"os"

	"github.com/pkg/errors"
)

// FirstChar and LastChar bound the printable-ASCII range the table covers.
const (
	FirstChar = 32
	LastChar  = 126
	charCount = LastChar - FirstChar + 1

	// Width is the number of bitmap columns per glyph.
	Width = 5
	// BlobSize is the exact size of a valid glyph blob file.
	BlobSize = charCount * Width
)

// fallback is the degraded "?" pattern used for every glyph when no
// valid blob can be loaded (spec.md §4.2).
var fallback = [Width]byte{0x02, 0x01, 0x51, 0x09, 0x06}

// Table is a loaded (or fallback) glyph table.
type Table struct {
	glyphs   [charCount][Width]byte
	degraded bool
}

// Fallback returns a Table filled entirely with the fallback glyph, as
// though loading had failed. Useful for callers that want a table before
// any filesystem is mounted.
func Fallback() *Table {
	t := &Table{degraded: true}
	for i := range t.glyphs {
		t.glyphs[i] = fallback
	}
	return t
}

// Load reads a flat glyph blob from path. On a missing file, size
// mismatch, or read failure, it returns a degraded (but usable) table
// filled with the fallback glyph — spec.md §4.2 requires the system to
// "remain usable" in this case, so Load itself never returns an error;
// callers inspect Degraded() to report the condition upstream.
func Load(path string) *Table {
	data, err := os.ReadFile(path)
	if err != nil || len(data) != BlobSize {
		return Fallback()
	}
	t := &Table{}
	for i := 0; i < charCount; i++ {
		copy(t.glyphs[i][:], data[i*Width:(i+1)*Width])
	}
	return t
}

// Degraded reports whether this table is running on fallback glyphs.
func (t *Table) Degraded() bool {
	return t.degraded
}

// Lookup returns the 5-byte column bitmap for ch, and whether ch is in
// range. Out-of-range characters yield "no glyph", which the scroller
// renders as blank columns.
func (t *Table) Lookup(ch byte) ([Width]byte, bool) {
	if ch < FirstChar || ch > LastChar {
		return [Width]byte{}, false
	}
	return t.glyphs[int(ch)-FirstChar], true
}

// ErrBadBlob is returned by Validate when a blob buffer is the wrong size.
var ErrBadBlob = errors.New("glyph: blob must be exactly 475 bytes")

// Validate checks that a blob buffer is exactly BlobSize bytes, for
// tooling that writes glyph blobs rather than loading them.
func Validate(data []byte) error {
	if len(data) != BlobSize {
		return errors.Wrapf(ErrBadBlob, "got %d bytes", len(data))
	}
	return nil
}
