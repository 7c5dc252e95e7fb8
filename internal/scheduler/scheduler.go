// Package scheduler implements the Content Scheduler (spec.md §4.7):
// the top-level state machine that chooses between cached-feed items
// and user messages, governs refresh cadence and the WiFi radio
// duty-cycle, and gates content advancement while in config mode.
package scheduler

import (
	"time"

	"github.com/ledmarquee/marqueed/internal/cache"
	"github.com/ledmarquee/marqueed/internal/config"
	"github.com/ledmarquee/marqueed/internal/feed"
	"github.com/ledmarquee/marqueed/internal/scroll"
	"github.com/ledmarquee/marqueed/internal/types"
	"github.com/ledmarquee/marqueed/internal/wifi"
)

const (
	refreshIntervalOK   = 15 * time.Minute
	refreshIntervalFail = 1 * time.Minute
)

const (
	statusUpdatingFeeds  = "Updating feeds..."
	statusNoMessages     = "No messages     Press button to configure"
	statusCacheUnavail   = "RSS cache unavailable     Press button to configure"
	statusConfigModeFail = "Config Mode     WiFi failed"
	noTitlePlaceholder   = "(no title)"
	noDescPlaceholder    = "(no description)"
)

// palette is the fixed 7-color rotation keyed by source_index mod 7
// (spec.md §4.7.1).
var palette = [7]types.RGB{
	{R: 255, G: 255, B: 255}, // white
	{R: 255, G: 255, B: 0},   // yellow
	{R: 0, G: 255, B: 0},     // green
	{R: 255, G: 0, B: 0},     // red
	{R: 0, G: 0, B: 255},     // blue
	{R: 0, G: 255, B: 255},   // cyan
	{R: 148, G: 0, B: 211},   // violet
}

func colorForSource(sourceIdx int) types.RGB {
	return palette[sourceIdx%7]
}

// fetcher is the subset of *feed.Fetcher the scheduler depends on,
// broken out so tests can substitute a fake instead of performing real
// HTTP requests.
type fetcher interface {
	Fetch(url string) error
	Count() int
	Items() []types.FeedItem
}

// Scheduler is the content-selection state machine. It is driven by
// one call per cycle-complete signal from the Scroller and by
// asynchronous button toggles; all mutation happens on the caller's
// goroutine (the single cooperative loop), so no internal locking is
// needed.
type Scheduler struct {
	cache     *cache.Store
	scroller  *scroll.Scroller
	radio     wifi.RadioManager
	clock     func() time.Time
	newFetcher func() fetcher

	cfg config.Settings

	rssActive     bool
	haveItem      bool
	currentItem   types.FeedItem
	itemSourceIdx int
	itemLive      bool
	showingTitle  bool
	nextRefreshAt time.Time
	currentMsgIdx int
	configMode    bool
}

// New creates a Scheduler over store, rendering through scroller and
// gating network activity through radio.
func New(store *cache.Store, scroller *scroll.Scroller, radio wifi.RadioManager) *Scheduler {
	return &Scheduler{
		cache:         store,
		scroller:      scroller,
		radio:         radio,
		clock:         time.Now,
		newFetcher:    func() fetcher { return feed.NewFetcher() },
		currentMsgIdx: -1,
	}
}

// SetSettings installs a new configuration snapshot. The scheduler
// reads this snapshot between cycles, never mutating it.
func (s *Scheduler) SetSettings(cfg config.Settings) {
	s.cfg = cfg
}

// hasEnabledSource reports whether any configured source is enabled
// with a non-empty URL.
func (s *Scheduler) hasEnabledSource() bool {
	for _, src := range s.cfg.RSSSources {
		if src.Enabled && src.URL != "" {
			return true
		}
	}
	return false
}

// Init performs first-run priming (spec.md §4.7 "Initialization").
func (s *Scheduler) Init() {
	if s.radio.Mode() == wifi.ModeStation && s.hasEnabledSource() {
		ok := s.refreshPass()
		if ok {
			s.nextRefreshAt = s.clock().Add(refreshIntervalOK)
		} else {
			s.nextRefreshAt = s.clock().Add(refreshIntervalFail)
		}
	}

	if !s.primeItem() {
		s.fallbackToMessages()
	}
}

// OnCycleComplete advances the scheduler by one scroller cycle
// (spec.md §4.7 "Per cycle-complete").
func (s *Scheduler) OnCycleComplete() {
	if s.configMode {
		return
	}

	if s.radio.Mode() == wifi.ModeStation && s.hasEnabledSource() && !s.clock().Before(s.nextRefreshAt) {
		ok := s.refreshPass()
		if ok {
			s.nextRefreshAt = s.clock().Add(refreshIntervalOK)
		} else {
			s.nextRefreshAt = s.clock().Add(refreshIntervalFail)
		}
		if !s.rssActive && s.primeItem() {
			// The freshly drawn item's title stays up for this cycle;
			// its description follows on the next cycle-complete.
			return
		}
	}

	if s.rssActive {
		if s.haveItem {
			s.advancePairing()
		} else if !s.primeItem() {
			s.fallbackToMessages()
		}
		return
	}

	s.advanceFallbackMessage()
}

// OnButtonToggle handles one debounced config-mode toggle request
// (spec.md §4.7.2).
func (s *Scheduler) OnButtonToggle() {
	if s.configMode {
		s.exitConfigMode()
	} else {
		s.enterConfigMode()
	}
}

func (s *Scheduler) enterConfigMode() {
	s.configMode = true
	if s.radio.RadioOn() {
		s.showStatus(sprintfIP(s.radio.IP()), palette[0])
	} else {
		s.showStatus(statusConfigModeFail, palette[0])
	}
}

func (s *Scheduler) exitConfigMode() {
	s.configMode = false
	s.radio.RadioOff()

	s.scroller.SetSpeed(s.cfg.Speed)
	// Panel column count and brightness are not reapplied on exit:
	// pixel.Surface owns them, and neither this method nor the loop in
	// cmd/marqueed touches the Surface here, so they keep the values set
	// at startup. Only the speed and the selection state are reset.
	s.rssActive = false
	s.haveItem = false
	s.currentMsgIdx = -1

	if s.hasEnabledSource() {
		ok := s.refreshPass()
		if ok {
			s.nextRefreshAt = s.clock().Add(refreshIntervalOK)
		} else {
			s.nextRefreshAt = s.clock().Add(refreshIntervalFail)
		}
	}
	if !s.primeItem() {
		s.fallbackToMessages()
	}
}

func sprintfIP(ip string) string {
	return "Config Mode     " + ip
}

// refreshPass fetches every enabled source, stores successful fetches
// to cache, and reports overall success (spec.md §4.7 refresh pass).
func (s *Scheduler) refreshPass() bool {
	s.showStatus(statusUpdatingFeeds, palette[0])

	if !s.radio.RadioOn() {
		return false
	}
	defer s.radio.RadioOff()

	anySuccess := false
	fetcher := s.newFetcher()
	now := uint32(s.clock().Unix())

	for _, src := range s.cfg.RSSSources {
		if !src.Enabled || src.URL == "" {
			continue
		}
		if err := fetcher.Fetch(src.URL); err != nil {
			continue
		}
		if fetcher.Count() == 0 {
			continue
		}
		if err := s.cache.StoreFromFetcher(src.URL, fetcher.Items(), now); err != nil {
			continue
		}
		anySuccess = true
	}
	return anySuccess
}

// primeItem draws a new cached item and begins showing its title. It
// returns false if no item could be drawn (empty cache, or no enabled
// sources), in which case the caller must fall back to messages.
func (s *Scheduler) primeItem() bool {
	sources := s.cfg.EnabledSources()
	if len(sources) == 0 {
		s.rssActive = false
		s.haveItem = false
		return false
	}

	sel, err := s.cache.PickRandomItem(sources)
	if err != nil {
		s.rssActive = false
		s.haveItem = false
		return false
	}

	s.rssActive = true
	s.haveItem = true
	s.currentItem = sel.Item
	s.itemSourceIdx = sel.SourceIndex
	s.itemLive = sel.Flags&cache.FlagLive != 0
	s.showingTitle = true

	s.showStatus(displayOr(s.currentItem.Title, noTitlePlaceholder), colorForSource(s.itemSourceIdx))
	return true
}

// advancePairing advances the title/description toggle for the
// current item, consuming it once both have been shown (spec.md
// §4.7.1).
func (s *Scheduler) advancePairing() {
	if s.showingTitle {
		s.showingTitle = false
		s.showStatus(displayOr(s.currentItem.Description, noDescPlaceholder), colorForSource(s.itemSourceIdx))
		return
	}

	// Description already shown on the previous cycle: the item is
	// consumed, draw the next one.
	s.haveItem = false
	if !s.primeItem() {
		s.fallbackToMessages()
	}
}

// advanceFallbackMessage rotates through enabled user messages,
// skipping any with empty text (spec.md §4.7 "If not rss_active").
func (s *Scheduler) advanceFallbackMessage() {
	idx := s.cfg.FirstEnabledMessageIndex(s.currentMsgIdx + 1)
	if idx < 0 {
		return
	}
	s.currentMsgIdx = idx
	msg := s.cfg.Messages[idx]
	s.showStatus(msg.Text, msg.Color)
}

// fallbackToMessages switches out of RSS mode and shows the first
// available message, or a no-content prompt distinguishing "no
// messages configured" from "sources configured but cache empty".
func (s *Scheduler) fallbackToMessages() {
	hadSources := s.hasEnabledSource()
	s.rssActive = false
	s.haveItem = false
	s.currentMsgIdx = -1
	s.advanceFallbackMessage()
	if s.currentMsgIdx < 0 {
		if hadSources {
			s.showStatus(statusCacheUnavail, palette[0])
		} else {
			s.showStatus(statusNoMessages, palette[0])
		}
	}
}

func displayOr(text, placeholder string) string {
	if text == "" {
		return placeholder
	}
	return text
}

func (s *Scheduler) showStatus(text string, color types.RGB) {
	s.scroller.SetText(text, color)
}

// ConfigMode reports whether the scheduler is currently in config
// mode (content advancement suspended).
func (s *Scheduler) ConfigMode() bool {
	return s.configMode
}

// ItemLive reports the LIVE flag of the currently displayed RSS item.
// It is observable telemetry only; it does not affect scheduling
// (spec.md §4.7.1).
func (s *Scheduler) ItemLive() bool {
	return s.rssActive && s.itemLive
}
