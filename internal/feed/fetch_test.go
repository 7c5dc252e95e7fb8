package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchEmptyURL(t *testing.T) {
	f := NewFetcher()
	if err := f.Fetch(""); err != ErrInvalidArgument {
		t.Fatalf("Fetch(\"\") err = %v, want ErrInvalidArgument", err)
	}
}

func TestFetchParsesItems(t *testing.T) {
	xml := `<?xml version="1.0"?><rss><channel>
		<item><title>First &amp; Best</title><description>Desc <b>one</b></description></item>
		<item><title>Second</title><description></description></item>
		<item><title></title><description>skipped, empty title</description></item>
	</channel></rss>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(xml))
	}))
	defer srv.Close()

	f := NewFetcher()
	if err := f.Fetch(srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", f.Count())
	}
	if f.Item(0).Title != "First & Best" {
		t.Errorf("Item(0).Title = %q", f.Item(0).Title)
	}
	if f.Item(0).Description != "Desc one" {
		t.Errorf("Item(0).Description = %q", f.Item(0).Description)
	}
	if f.Item(1).Title != "Second" {
		t.Errorf("Item(1).Title = %q", f.Item(1).Title)
	}
}

func TestFetchNon200ClearsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher()
	// Seed it with a prior successful parse first.
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<item><title>x</title><description>y</description></item>`))
	}))
	defer ok.Close()
	if err := f.Fetch(ok.URL); err != nil || f.Count() != 1 {
		t.Fatalf("seed fetch failed: err=%v count=%d", err, f.Count())
	}

	if err := f.Fetch(srv.URL); err == nil {
		t.Fatal("expected network error for 500 response")
	}
	if f.Count() != 0 {
		t.Fatalf("Count() = %d after failed fetch, want 0", f.Count())
	}
}

func TestFetchCapsAtMaxItems(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxItems+10; i++ {
		b.WriteString("<item><title>t</title><description>d</description></item>")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	f := NewFetcher()
	if err := f.Fetch(srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.Count() != MaxItems {
		t.Fatalf("Count() = %d, want %d", f.Count(), MaxItems)
	}
}

func TestFetchEmptyBodyIsParseEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	f := NewFetcher()
	if err := f.Fetch(srv.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", f.Count())
	}
}
