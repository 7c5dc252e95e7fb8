// Package config loads and holds the Settings mirror the scheduler reads
// between cycles (spec.md §3 "Settings mirror", §6 "Settings API").
//
// The on-device settings store itself (load/save of typed configuration
// records against the key/value flash store) is an external
// collaborator per spec.md §1; this package is the read-only in-memory
// snapshot the core actually consumes, plus a JSON-file-backed loader
// used both as the on-disk seed format and in tests.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/ledmarquee/marqueed/internal/types"
)

// Settings is the full configuration surface described in spec.md §6.
type Settings struct {
	Messages   [types.MaxMessages]types.Message      `json:"messages"`
	Speed      int                                    `json:"speed"`
	Brightness int                                    `json:"brightness"`
	PanelCols  int                                    `json:"panel_cols"`
	RSSEnabled bool                                   `json:"rss_enabled"`
	RSSSources [types.MaxFeedSources]types.FeedSource `json:"rss_sources"`
}

// Default returns the factory-init configuration: no messages enabled,
// no sources enabled, mid-range speed/brightness, narrowest panel.
func Default() Settings {
	return Settings{
		Speed:      5,
		Brightness: 128,
		PanelCols:  32,
	}
}

// Load reads a Settings snapshot from a JSON file. A missing file is not
// an error — it returns Default(), mirroring the teacher's
// config.DefaultConfig() fallback used when no config.json is present
// yet on first boot.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, errors.Wrapf(err, "config: opening %s", path)
	}
	defer f.Close()

	s := Default()
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, errors.Wrapf(err, "config: decoding %s", path)
	}
	return s.normalized(), nil
}

// Save writes the Settings snapshot to a JSON file, replacing it atomically
// the same way the feed cache publishes (§4.6.1): write to a temp file,
// then rename over the target.
func Save(path string, s Settings) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "config: creating %s", tmp)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "config: encoding %s", tmp)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "config: closing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(path)
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return errors.Wrapf(err, "config: renaming %s to %s", tmp, path)
		}
	}
	return nil
}

// normalized clamps out-of-range scalar fields read from disk, per the
// invariants in spec.md §3.
func (s Settings) normalized() Settings {
	s.Speed = types.ClampSpeed(s.Speed)
	s.Brightness = types.ClampBrightness(s.Brightness)
	s.PanelCols = int(types.ClampPanelCols(s.PanelCols))
	return s
}

// EnabledSources returns the enabled feed sources in stable array order.
func (s Settings) EnabledSources() []types.FeedSource {
	var out []types.FeedSource
	for _, src := range s.RSSSources {
		if src.Effective() {
			out = append(out, src)
		}
	}
	return out
}

// FirstEnabledMessageIndex returns the index of the first effective
// message at or after `from` (wrapping once), or -1 if none is effective.
func (s Settings) FirstEnabledMessageIndex(from int) int {
	n := len(s.Messages)
	for i := 0; i < n; i++ {
		idx := (from + i) % n
		if s.Messages[idx].Effective() {
			return idx
		}
	}
	return -1
}
