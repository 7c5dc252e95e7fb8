// Package hw provides the button and pixel-transport collaborators
// (spec.md §5/§6): an edge-triggered config-mode toggle source and the
// LED chain encoders the pixel.Surface writes through.
package hw

// ButtonSource is the button collaborator (spec.md §5 "Button events"):
// it publishes edge-triggered toggle requests, debounced internally,
// via a single volatile-style flag the cooperative loop polls and
// clears once per iteration.
type ButtonSource interface {
	// TakeToggle reports and clears a pending toggle request. The core
	// treats any true result as exactly one toggle, regardless of how
	// many physical edges produced it.
	TakeToggle() bool
	// Close releases the underlying GPIO resource.
	Close() error
}

// NullButtonSource is a ButtonSource that never fires, used by
// marqueed when no GPIO line is configured or none could be opened.
type NullButtonSource struct{}

func (NullButtonSource) TakeToggle() bool { return false }
func (NullButtonSource) Close() error     { return nil }
