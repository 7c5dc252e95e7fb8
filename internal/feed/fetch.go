// Package feed implements the Feed Fetcher (spec.md §4.5): an HTTP GET
// into a bounded buffer, followed by a tolerant scan for <item> records
// whose <title>/<description> children are sanitized into FeedItem
// tuples.
package feed

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ledmarquee/marqueed/internal/sanitize"
	"github.com/ledmarquee/marqueed/internal/types"
)

// MaxBodyBytes bounds the heap buffer the response body is streamed
// into; excess bytes are dropped silently (spec.md §4.5).
const MaxBodyBytes = 64 * 1024

// MaxItems caps the number of <item> records retained per fetch.
const MaxItems = 30

// FetchTimeout is the per-fetch HTTP timeout.
const FetchTimeout = 10 * time.Second

// ErrInvalidArgument is returned for an empty URL.
var ErrInvalidArgument = errors.New("feed: empty URL")

// ErrNetwork is returned when the HTTP status is not 200 or the request
// fails outright.
var ErrNetwork = errors.New("feed: network error")

// Fetcher performs one fetch at a time and holds the most recently
// parsed items, mirroring the single-consumer, bounded-array state of
// the source device (spec.md §4.5). Results are only valid until the
// next Fetch call.
type Fetcher struct {
	client *http.Client
	items  []types.FeedItem
}

// NewFetcher builds a Fetcher with the spec-mandated timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: FetchTimeout},
	}
}

// Fetch retrieves url and parses its <item> records. It always resets
// the Fetcher's item buffer, even on failure — "previous parsed state is
// overwritten to empty" for a non-200 response, and parse-empty is
// likewise left as zero items (distinguishable via Count()).
func (f *Fetcher) Fetch(url string) error {
	f.items = nil

	if url == "" {
		return ErrInvalidArgument
	}

	resp, err := f.client.Get(url)
	if err != nil {
		return errors.Wrap(ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrNetwork, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return errors.Wrap(ErrNetwork, err.Error())
	}
	if len(body) == 0 {
		return nil
	}

	f.items = parseItems(body)
	return nil
}

// Count returns the number of items retained from the last Fetch.
func (f *Fetcher) Count() int {
	return len(f.items)
}

// Item returns the i'th item from the last Fetch.
func (f *Fetcher) Item(i int) types.FeedItem {
	return f.items[i]
}

// Items returns all items retained from the last Fetch.
func (f *Fetcher) Items() []types.FeedItem {
	return f.items
}

// parseItems scans for up to MaxItems "<item>...</item>" segments and
// extracts the first <title> and <description> from each, tolerating
// arbitrary surrounding XML. Items whose title is empty after
// sanitization are skipped.
func parseItems(body []byte) []types.FeedItem {
	s := string(body)
	var out []types.FeedItem

	pos := 0
	for len(out) < MaxItems {
		start := strings.Index(s[pos:], "<item")
		if start < 0 {
			break
		}
		start += pos
		openEnd := strings.IndexByte(s[start:], '>')
		if openEnd < 0 {
			break
		}
		bodyStart := start + openEnd + 1

		end := strings.Index(s[bodyStart:], "</item>")
		if end < 0 {
			break
		}
		end += bodyStart
		segment := s[bodyStart:end]
		pos = end + len("</item>")

		title := sanitize.Text([]byte(firstElement(segment, "title")), types.MaxTextBytes)
		if title == "" {
			continue
		}
		desc := sanitize.Text([]byte(firstElement(segment, "description")), types.MaxTextBytes)

		out = append(out, types.FeedItem{Title: title, Description: desc})
	}
	return out
}

// firstElement returns the raw inner text of the first <tag>...</tag>
// occurrence within segment, or "" if absent.
func firstElement(segment, tag string) string {
	open := "<" + tag
	idx := strings.Index(segment, open)
	if idx < 0 {
		return ""
	}
	rest := segment[idx+len(open):]
	gt := strings.IndexByte(rest, '>')
	if gt < 0 {
		return ""
	}
	inner := rest[gt+1:]
	closeTag := "</" + tag + ">"
	end := strings.Index(inner, closeTag)
	if end < 0 {
		return ""
	}
	return inner[:end]
}
