package config

import (
	"path/filepath"
	"testing"

	"github.com/ledmarquee/marqueed/internal/types"
)

func TestLoadMissingReturnsDefault(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Speed != 5 || s.Brightness != 128 || s.PanelCols != 32 {
		t.Fatalf("unexpected default settings: %+v", s)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := Default()
	s.Messages[0] = types.Message{Text: "hello", Color: types.RGB{R: 1, G: 2, B: 3}, Enabled: true}
	s.RSSSources[0] = types.FeedSource{Name: "n", URL: "http://example.com/f.xml", Enabled: true}

	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Messages[0].Text != "hello" || !got.RSSSources[0].Effective() {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestNormalizedClampsOutOfRange(t *testing.T) {
	s := Settings{Speed: 99, Brightness: 999, PanelCols: 50}
	n := s.normalized()
	if n.Speed != 10 {
		t.Errorf("Speed = %d, want 10", n.Speed)
	}
	if n.Brightness != 255 {
		t.Errorf("Brightness = %d, want 255", n.Brightness)
	}
	if n.PanelCols != 64 {
		t.Errorf("PanelCols = %d, want 64", n.PanelCols)
	}
}

func TestFirstEnabledMessageIndex(t *testing.T) {
	s := Default()
	s.Messages[2] = types.Message{Text: "x", Enabled: true}
	if idx := s.FirstEnabledMessageIndex(0); idx != 2 {
		t.Fatalf("idx = %d, want 2", idx)
	}
	if idx := s.FirstEnabledMessageIndex(3); idx != 2 {
		t.Fatalf("wrap idx = %d, want 2", idx)
	}
	empty := Default()
	if idx := empty.FirstEnabledMessageIndex(0); idx != -1 {
		t.Fatalf("idx = %d, want -1", idx)
	}
}
