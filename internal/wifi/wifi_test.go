package wifi

import "testing"

func TestLinkManagerOffByDefault(t *testing.T) {
	m := NewLinkManager()
	if m.IP() != "" {
		t.Fatalf("IP() = %q before RadioOn, want empty", m.IP())
	}
	if m.Mode() != ModeStation {
		t.Fatalf("Mode() = %v, want ModeStation", m.Mode())
	}
}

func TestRadioOffClearsIP(t *testing.T) {
	m := NewLinkManager()
	m.RadioOn()
	m.RadioOff()
	if m.IP() != "" {
		t.Fatalf("IP() = %q after RadioOff, want empty", m.IP())
	}
}
