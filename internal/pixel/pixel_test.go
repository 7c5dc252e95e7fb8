package pixel

import (
	"errors"
	"testing"

	"github.com/ledmarquee/marqueed/internal/types"
)

type fakeTransport struct {
	written []byte
	err     error
}

func (f *fakeTransport) Write(grb []byte) error {
	f.written = append([]byte(nil), grb...)
	return f.err
}

func TestLEDIndexSerpentine(t *testing.T) {
	cases := []struct {
		row, col, want int
	}{
		{0, 0, 0},
		{7, 0, 7},
		{0, 1, 15},
		{7, 1, 8},
		{0, 2, 16},
	}
	for _, c := range cases {
		if got := LEDIndex(c.row, c.col); got != c.want {
			t.Errorf("LEDIndex(%d,%d) = %d, want %d", c.row, c.col, got, c.want)
		}
	}
}

func TestLEDIndexUniquePerPanel(t *testing.T) {
	const cols = 32
	seen := make(map[int]bool)
	for col := 0; col < cols; col++ {
		for row := 0; row < Rows; row++ {
			idx := LEDIndex(row, col)
			if seen[idx] {
				t.Fatalf("duplicate LED index %d at row=%d col=%d", idx, row, col)
			}
			seen[idx] = true
		}
	}
	if len(seen) != cols*Rows {
		t.Fatalf("got %d unique indices, want %d", len(seen), cols*Rows)
	}
}

func TestSetPixelOutOfRangeNoop(t *testing.T) {
	s := NewSurface(32, nil)
	s.SetPixel(-1, 0, types.RGB{R: 1})
	s.SetPixel(0, 999, types.RGB{R: 1})
	s.SetPixel(99, 0, types.RGB{R: 1})
	for row := 0; row < Rows; row++ {
		for col := 0; col < s.Cols(); col++ {
			if s.GetPixel(row, col) != (types.RGB{}) {
				t.Fatalf("expected untouched framebuffer, found pixel at %d,%d", row, col)
			}
		}
	}
}

func TestRefreshAppliesBrightnessAndGRBOrder(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSurface(32, tr)
	s.SetBrightness(255)
	s.SetPixel(0, 0, types.RGB{R: 10, G: 20, B: 30})
	if err := s.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	idx := LEDIndex(0, 0)
	got := tr.written[idx*3 : idx*3+3]
	want := []byte{20, 10, 30} // G, R, B
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRefreshScalesBrightness(t *testing.T) {
	tr := &fakeTransport{}
	s := NewSurface(32, tr)
	s.SetBrightness(0)
	s.SetPixel(0, 0, types.RGB{R: 255, G: 255, B: 255})
	if err := s.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	for _, b := range tr.written {
		if b != 0 {
			t.Fatalf("expected all-zero output at brightness 0, got %v", tr.written)
		}
	}
}

func TestRefreshNoTransport(t *testing.T) {
	s := NewSurface(32, nil)
	if err := s.Refresh(); !errors.Is(err, ErrNoTransport) {
		t.Fatalf("Refresh err = %v, want ErrNoTransport", err)
	}
}

func TestSetColsClamps(t *testing.T) {
	s := NewSurface(40, nil)
	if s.Cols() != 64 {
		t.Fatalf("Cols() = %d, want 64", s.Cols())
	}
	s.SetCols(200)
	if s.Cols() != 128 {
		t.Fatalf("Cols() = %d, want 128", s.Cols())
	}
}
