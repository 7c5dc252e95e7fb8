package sanitize

import "testing"

func TestOutputAlphabetAndNoDoubleSpace(t *testing.T) {
	inputs := []string{
		"hello   world",
		"<b>A&mdash;B &#8212; C</b>",
		"&amp;lt;",
		"plain ascii",
		"\xE2\x80\x9Cquoted\xE2\x80\x9D",
		"",
		"   leading and trailing   ",
	}
	for _, in := range inputs {
		out := Text([]byte(in), 200)
		for i := 0; i < len(out); i++ {
			if out[i] < 32 || out[i] > 126 {
				t.Fatalf("sanitize(%q) produced out-of-range byte %d at %d: %q", in, out[i], i, out)
			}
			if i > 0 && out[i] == ' ' && out[i-1] == ' ' {
				t.Fatalf("sanitize(%q) produced adjacent spaces: %q", in, out)
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		"hello   world",
		"<b>A&mdash;B &#8212; C</b>",
		"&amp;lt;",
		"\xE2\x80\x9Cquoted\xE2\x80\x9D",
	}
	for _, in := range inputs {
		once := Text([]byte(in), 200)
		twice := Text([]byte(once), 200)
		if once != twice {
			t.Fatalf("sanitize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestEntityDecoding(t *testing.T) {
	cases := []struct{ in, want string }{
		{"&amp;lt;", "&lt;"},
		{"&#65;", "A"},
		{"&#xFFFD;", "?"},
	}
	for _, c := range cases {
		if got := Text([]byte(c.in), 200); got != c.want {
			t.Errorf("Text(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCDATAAndEmDashScenarioS2(t *testing.T) {
	in := "<![CDATA[<b>A&mdash;B &#8212; C</b>]]>"
	want := "A-B ? C"
	if got := Text([]byte(in), 200); got != want {
		t.Fatalf("Text(%q) = %q, want %q", in, got, want)
	}
}

func TestTruncation(t *testing.T) {
	in := make([]byte, 300)
	for i := range in {
		in[i] = 'x'
	}
	out := Text(in, 200)
	if len(out) != 200 {
		t.Fatalf("len(out) = %d, want 200", len(out))
	}
}

func TestGeneralPunctuationFallback(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"\xE2\x80\x93", "-"},
		{"\xE2\x80\x98x\xE2\x80\x99", "'x'"},
		{"\xE2\x80\x9Cx\xE2\x80\x9D", "\"x\""},
		{"\xE2\x80\xA2", "*"},
		{"\xE2\x80\xA6", "..."},
	}
	for _, c := range cases {
		if got := Text([]byte(c.in), 200); got != c.want {
			t.Errorf("Text(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUnknownEntityPassesThrough(t *testing.T) {
	in := "&unknown;"
	if got := Text([]byte(in), 200); got != in {
		t.Fatalf("Text(%q) = %q, want unchanged", in, got)
	}
}

func TestHTMLTagStripping(t *testing.T) {
	in := "<p>hello</p> <a href=\"x\">world</a>"
	want := "hello world"
	if got := Text([]byte(in), 200); got != want {
		t.Fatalf("Text(%q) = %q, want %q", in, got, want)
	}
}
