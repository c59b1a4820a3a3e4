package ghb

// CorrelationKey names one of the two chains a history entry can belong to.
// The set is closed by design: no dynamic dispatch is needed since every
// entry carries exactly one LinkInfo per key.
type CorrelationKey int

const (
	// KeyPC chains accesses that share a program counter.
	KeyPC CorrelationKey = iota
	// KeyPage chains accesses that share a page.
	KeyPage
	numCorrelationKeys
)

// LinkInfo is the reverse-chronological back-link for one correlation key on
// one history slot. prevSeq guards against the slot pointed to by prev
// having since been overwritten by a newer, unrelated access.
type LinkInfo struct {
	Prev     int64
	PrevSeq  uint64
	KeyValid bool
	KeyValue uint64
}

// HistoryEntry is one slot of the circular history buffer.
type HistoryEntry struct {
	Addr  uint64
	Seq   uint64
	Links [numCorrelationKeys]LinkInfo
}

// HistoryHelper owns the circular access history, the per-key last-index
// maps, and the pattern table trained from the delta chains it produces.
type HistoryHelper interface {
	// Reset returns the helper to its post-construction state.
	Reset()

	// Insert records access and returns the slot it was written to, or -1
	// iff the helper was constructed with a history size of zero.
	Insert(access AccessInfo) int

	// BuildPattern walks the key chain ending at index and returns the
	// resulting deltas in reverse-chronological order (most recent first),
	// capped at patternLength entries.
	BuildPattern(index int, key CorrelationKey) ([]int64, bool)

	// UpdatePatternTable trains the pattern table from chronological, which
	// must be in forward temporal order (oldest first).
	UpdatePatternTable(chronological []int64)

	// FindPatternMatch predicts future deltas from chronological using the
	// trained pattern table.
	FindPatternMatch(chronological []int64) ([]int64, bool)

	// FallbackPattern predicts future deltas using frequency/recency
	// scoring when FindPatternMatch produces nothing.
	FallbackPattern(chronological []int64) []int64

	// Empty reports whether the helper has zero capacity and can never
	// record history. Constructor clamping makes this case unreachable in
	// practice; it exists so the dispatcher can short-circuit safely.
	Empty() bool

	// PatternTableSize reports how many DeltaPair entries are currently
	// tracked, for observability.
	PatternTableSize() int
}

type historyHelper struct {
	historySize   int
	patternLength int
	usePC         bool
	pageBytes     uint64

	// cfgDegree and cfgConfidenceThreshold are read by the pattern-matching
	// logic in pattern.go; they never change after construction.
	cfgDegree              int
	cfgConfidenceThreshold int

	entries   []HistoryEntry
	lastIndex [numCorrelationKeys]map[uint64]int
	head      int
	filled    bool
	seq       uint64

	table patternTable
}

func newHistoryHelper(historySize, patternLength, degree, confidenceThreshold int, usePC bool, pageBytes uint64) *historyHelper {
	h := &historyHelper{
		historySize:            historySize,
		patternLength:          patternLength,
		usePC:                  usePC,
		pageBytes:              pageBytes,
		cfgDegree:              degree,
		cfgConfidenceThreshold: confidenceThreshold,
	}
	h.Reset()
	return h
}

func (h *historyHelper) Reset() {
	h.entries = make([]HistoryEntry, h.historySize)
	for i := range h.entries {
		for k := range h.entries[i].Links {
			h.entries[i].Links[k] = LinkInfo{Prev: -1}
		}
	}
	for k := range h.lastIndex {
		h.lastIndex[k] = make(map[uint64]int)
	}
	h.head = 0
	h.filled = false
	h.seq = 1
	h.table = newPatternTable()
}

func (h *historyHelper) Empty() bool {
	return h.historySize == 0
}

func (h *historyHelper) PatternTableSize() int {
	return len(h.table)
}

func (h *historyHelper) Insert(access AccessInfo) int {
	if h.historySize == 0 {
		return -1
	}

	slot := h.head
	if h.filled {
		h.evict(slot)
	}

	entry := HistoryEntry{Addr: access.Addr, Seq: h.seq}
	h.seq++
	for k := range entry.Links {
		entry.Links[k] = LinkInfo{Prev: -1}
	}

	if h.usePC && access.PC != nil {
		h.linkKey(&entry, KeyPC, *access.PC, slot)
	}

	pageValue := access.Addr / h.pageBytes
	h.linkKey(&entry, KeyPage, pageValue, slot)

	h.entries[slot] = entry
	h.head = (h.head + 1) % h.historySize
	if h.head == 0 {
		h.filled = true
	}

	return slot
}

// evict clears the outgoing occupant of slot: any last-index entries that
// still point at it are expunged, and its links are marked invalid.
func (h *historyHelper) evict(slot int) {
	old := &h.entries[slot]
	for k := range old.Links {
		link := &old.Links[k]
		if !link.KeyValid {
			continue
		}

		if v, ok := h.lastIndex[k][link.KeyValue]; ok && v == slot {
			delete(h.lastIndex[k], link.KeyValue)
		}

		link.KeyValid = false
	}
}

func (h *historyHelper) linkKey(entry *HistoryEntry, key CorrelationKey, value uint64, slot int) {
	link := LinkInfo{Prev: -1, KeyValid: true, KeyValue: value}

	if prevSlot, ok := h.lastIndex[key][value]; ok {
		link.Prev = int64(prevSlot)
		link.PrevSeq = h.entries[prevSlot].Seq
	}

	entry.Links[key] = link
	h.lastIndex[key][value] = slot
}

func (h *historyHelper) BuildPattern(index int, key CorrelationKey) ([]int64, bool) {
	var deltas []int64

	current := index
	for len(deltas) < h.patternLength {
		link := h.entries[current].Links[key]
		if link.Prev < 0 {
			break
		}

		prevSlot := int(link.Prev)
		if h.entries[prevSlot].Seq != link.PrevSeq {
			break
		}

		delta := int64(h.entries[current].Addr) - int64(h.entries[prevSlot].Addr)
		deltas = append(deltas, delta)
		current = prevSlot
	}

	return deltas, len(deltas) > 0
}
