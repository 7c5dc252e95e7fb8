// Package cache implements the Feed Cache (spec.md §4.6): a per-source
// binary file store with atomic publish, manifest-signature-keyed cycle
// state, and a pseudo-random no-repeat selector across all enabled
// sources.
package cache

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"hash/fnv"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/ledmarquee/marqueed/internal/types"
)

const (
	magic        uint32 = 0x52434348
	fileVersion  uint32 = 1
	titleBytes          = 201
	descBytes           = 201
	headerSize          = 16
	recordSize          = titleBytes + descBytes
)

// ErrNotFound is returned when a store is skipped (empty fetch result)
// or a selection finds nothing to return.
var ErrNotFound = errors.New("cache: not found")

// ErrStorageInconsistent marks a cache file whose magic/version doesn't
// match — treated as "no cache for that source" per spec.md §7.
var ErrStorageInconsistent = errors.New("cache: storage inconsistency")

// header is the fixed 16-byte on-disk CacheFile header (spec.md §3):
// magic(4) + version(2) + reserved(2) + item_count(4) + updated_epoch(4).
type header struct {
	Magic        uint32
	Version      uint16
	Reserved     uint16
	ItemCount    uint32
	UpdatedEpoch uint32
}

// record is one fixed-size, null-terminated CacheFile record.
type record struct {
	Title       [titleBytes]byte `struc:"[201]byte"`
	Description [descBytes]byte  `struc:"[201]byte"`
}

func packRecord(item types.FeedItem) record {
	var r record
	copy(r.Title[:], item.Title)
	copy(r.Description[:], item.Description)
	return r
}

func (r record) unpack() types.FeedItem {
	return types.FeedItem{
		Title:       cString(r.Title[:]),
		Description: cString(r.Description[:]),
	}
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// PathFor derives the on-disk cache path for a source URL: the FNV-1a
// 32-bit hash rendered as 8 lowercase hex digits, plus ".bin"
// (spec.md §3/§6).
func PathFor(dir, url string) string {
	h := fnv.New32a()
	h.Write([]byte(url))
	return filepath.Join(dir, hashHex(h.Sum32())+".bin")
}

func hashHex(v uint32) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(b)
}

// Store is a directory of per-source CacheFiles plus the derived cycle
// state used for no-repeat selection.
type Store struct {
	dir string

	mu    sync.Mutex
	state *cycleState
}

// NewStore creates a Store rooted at dir (created if absent).
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cache: creating %s", dir)
	}
	return &Store{dir: dir}, nil
}

// StoreFromFetcher atomically publishes items for url (spec.md §4.6.1).
// If items is empty, the previous cache file (if any) is preserved and
// ErrNotFound is returned. On any successful write, the in-memory cycle
// state is invalidated so the next selection rebuilds it.
func (s *Store) StoreFromFetcher(url string, items []types.FeedItem, updatedEpoch uint32) error {
	if len(items) == 0 {
		return ErrNotFound
	}

	path := PathFor(s.dir, url)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "cache: creating %s", tmp)
	}

	hdr := header{Magic: magic, Version: fileVersion, ItemCount: uint32(len(items)), UpdatedEpoch: updatedEpoch}
	if err := struc.Pack(f, &hdr); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "cache: packing header")
	}
	for _, it := range items {
		r := packRecord(it)
		if err := struc.Pack(f, &r); err != nil {
			f.Close()
			os.Remove(tmp)
			return errors.Wrap(err, "cache: packing record")
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "cache: closing temp file")
	}

	if err := os.Rename(tmp, path); err != nil {
		if rmErr := os.Remove(path); rmErr == nil {
			if err := os.Rename(tmp, path); err == nil {
				s.invalidate()
				return nil
			}
		}
		os.Remove(tmp)
		return errors.Wrap(err, "cache: renaming into place")
	}

	s.invalidate()
	return nil
}

func (s *Store) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
}

// readHeader reads and validates the header of a source's cache file.
// A missing file is reported as zero item count, not an error — the
// source simply has no cache yet.
func (s *Store) readHeader(url string) (header, bool, error) {
	f, err := os.Open(PathFor(s.dir, url))
	if err != nil {
		if os.IsNotExist(err) {
			return header{}, false, nil
		}
		return header{}, false, errors.Wrap(err, "cache: opening for header read")
	}
	defer f.Close()

	var hdr header
	if err := struc.Unpack(f, &hdr); err != nil {
		return header{}, false, errors.Wrap(err, "cache: unpacking header")
	}
	if hdr.Magic != magic || hdr.Version != fileVersion {
		return header{}, false, ErrStorageInconsistent
	}
	return hdr, true, nil
}

// readRecord reads the record at index idx of a source's cache file.
func (s *Store) readRecord(url string, idx int) (types.FeedItem, error) {
	f, err := os.Open(PathFor(s.dir, url))
	if err != nil {
		return types.FeedItem{}, errors.Wrap(err, "cache: opening for record read")
	}
	defer f.Close()

	if _, err := f.Seek(int64(headerSize+idx*recordSize), io.SeekStart); err != nil {
		return types.FeedItem{}, errors.Wrap(err, "cache: seeking to record")
	}
	var r record
	if err := struc.Unpack(f, &r); err != nil {
		return types.FeedItem{}, errors.Wrap(err, "cache: unpacking record")
	}
	return r.unpack(), nil
}

// sourceState is the per-source slice of CycleState (spec.md §3).
type sourceState struct {
	url        string
	itemCount  int
	shownCount int
	shown      []byte // bitset, 1 bit per item
}

func (s *sourceState) isShown(idx int) bool {
	return s.shown[idx/8]&(1<<uint(idx%8)) != 0
}

func (s *sourceState) setShown(idx int) {
	s.shown[idx/8] |= 1 << uint(idx%8)
}

func (s *sourceState) reset() {
	for i := range s.shown {
		s.shown[i] = 0
	}
	s.shownCount = 0
}

// cycleState is the in-memory CycleState (spec.md §3).
type cycleState struct {
	signature       uint32
	sources         []*sourceState
	totalItems      int
	remainingItems  int
}

// signatureFor computes the manifest signature: an FNV-1a mixing of
// (count, url_hash_i, item_count_i, updated_epoch_i) across sources.
func signatureFor(urls []string, headers []header) uint32 {
	h := fnv.New32a()
	var buf [4]byte
	write := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	write(uint32(len(urls)))
	for i, u := range urls {
		uh := fnv.New32a()
		uh.Write([]byte(u))
		write(uh.Sum32())
		write(headers[i].ItemCount)
		write(headers[i].UpdatedEpoch)
	}
	return h.Sum32()
}

// ensureCycleState rebuilds the cycle state if the manifest signature
// has changed (or none exists yet), per spec.md §4.6.2.
func (s *Store) ensureCycleState(sources []types.FeedSource) (*cycleState, error) {
	urls := make([]string, len(sources))
	headers := make([]header, len(sources))
	for i, src := range sources {
		urls[i] = src.URL
		hdr, ok, err := s.readHeader(src.URL)
		if err != nil && errors.Cause(err) != ErrStorageInconsistent {
			return nil, err
		}
		if ok {
			headers[i] = hdr
		}
	}
	sig := signatureFor(urls, headers)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil && s.state.signature == sig {
		return s.state, nil
	}

	cs := &cycleState{signature: sig}
	for i, src := range sources {
		ss := &sourceState{
			url:       src.URL,
			itemCount: int(headers[i].ItemCount),
			shown:     make([]byte, (int(headers[i].ItemCount)+7)/8),
		}
		cs.sources = append(cs.sources, ss)
		cs.totalItems += ss.itemCount
	}
	cs.remainingItems = cs.totalItems
	s.state = cs
	return cs, nil
}

// LiveFlag is the observable LIVE telemetry bit computed during
// selection (spec.md §4.6.3).
type LiveFlag uint8

const (
	// FlagLive is set when the item's text matches a live marker and no
	// finished marker.
	FlagLive LiveFlag = 1 << 0
)

var finishedMarkers = []string{
	" final", "final ", "final/", "postponed", "cancelled", "canceled", "suspended",
}

var liveMarkers = []string{
	"in progress", "halftime", "top ", "bottom ", "bot ", "end of ", "start of ",
	"q1", "q2", "q3", "q4", "1st period", "2nd period", "3rd period", "overtime", " ot ",
}

func containsCI(title, desc, marker string) bool {
	return strings.Contains(strings.ToLower(title), marker) ||
		strings.Contains(strings.ToLower(desc), marker)
}

func computeLiveFlag(item types.FeedItem) LiveFlag {
	for _, m := range finishedMarkers {
		if containsCI(item.Title, item.Description, m) {
			return 0
		}
	}
	for _, m := range liveMarkers {
		if containsCI(item.Title, item.Description, m) {
			return FlagLive
		}
	}
	return 0
}

// Selection is the result of PickRandomItem.
type Selection struct {
	Item        types.FeedItem
	SourceIndex int
	Flags       LiveFlag
	CycleReset  bool
}

// PickRandomItem draws a uniformly random unshown item across all
// enabled sources, without repeats within a cycle (spec.md §4.6.3).
func (s *Store) PickRandomItem(sources []types.FeedSource) (Selection, error) {
	cs, err := s.ensureCycleState(sources)
	if err != nil {
		return Selection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cs.totalItems == 0 {
		return Selection{}, ErrNotFound
	}

	var cycleReset bool
	if cs.remainingItems == 0 {
		for _, ss := range cs.sources {
			ss.reset()
		}
		cs.remainingItems = cs.totalItems
		cycleReset = true
	}

	pick, err := cryptoRandInt(cs.remainingItems)
	if err != nil {
		return Selection{}, errors.Wrap(err, "cache: drawing random index")
	}

	var chosen *sourceState
	var chosenIdx int
	for i, ss := range cs.sources {
		remainingInSource := ss.itemCount - ss.shownCount
		if pick < remainingInSource {
			chosen = ss
			chosenIdx = i
			break
		}
		pick -= remainingInSource
	}
	if chosen == nil {
		return Selection{}, ErrNotFound
	}

	rank := pick
	itemIdx := -1
	for idx := 0; idx < chosen.itemCount; idx++ {
		if chosen.isShown(idx) {
			continue
		}
		if rank == 0 {
			itemIdx = idx
			break
		}
		rank--
	}
	if itemIdx < 0 {
		return Selection{}, ErrNotFound
	}

	item, err := s.readRecord(chosen.url, itemIdx)
	if err != nil {
		return Selection{}, err
	}

	chosen.setShown(itemIdx)
	chosen.shownCount++
	cs.remainingItems--

	return Selection{
		Item:        item,
		SourceIndex: chosenIdx,
		Flags:       computeLiveFlag(item),
		CycleReset:  cycleReset,
	}, nil
}

// cryptoRandInt draws from [0, n) using the platform's cryptographic
// random source (spec.md §4.6.3/§9); modulo bias is acceptable for this
// domain.
func cryptoRandInt(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("cache: non-positive bound")
	}
	max := big.NewInt(int64(n))
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
