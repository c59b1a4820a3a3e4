package ghb

import "sync"

// Hook lets a caller observe the pipeline steps of a single
// CalculatePrefetch invocation without the core depending on any
// particular tracing sink. It is push-based and entirely optional; a nil
// Hook is always safe.
type Hook interface {
	StepAccess(step string)
}

// PrefetchDispatcher drives a HistoryHelper through the per-access
// prediction pipeline: insert, early stride detection, pattern match with
// page-keyed retry, fallback, and materialization.
type PrefetchDispatcher struct {
	degree     int
	usePC      bool
	pageBytes  uint64
	confidence int

	helper HistoryHelper
	hook   Hook

	mu               sync.Mutex
	accessesSeen     uint64
	addressesEmitted uint64
	lastSource       string
}

// Snapshot is a point-in-time read of the dispatcher's counters, safe to
// call from a goroutine other than the one driving CalculatePrefetch.
type Snapshot struct {
	AccessesSeen     uint64
	AddressesEmitted uint64
	PatternTableSize int
	HistoryEmpty     bool
}

// LastSource reports which pipeline stage produced the most recent
// non-empty prediction ("stride", "pattern", or "fallback"), or "" if the
// last CalculatePrefetch call produced nothing. It exists purely for
// ambient observability (e.g. persistence.PrefetchRecord.Source) and plays
// no part in the prediction algorithm itself.
func (d *PrefetchDispatcher) LastSource() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastSource
}

// Snapshot returns the current counters.
func (d *PrefetchDispatcher) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{
		AccessesSeen:     d.accessesSeen,
		AddressesEmitted: d.addressesEmitted,
		PatternTableSize: d.helper.PatternTableSize(),
		HistoryEmpty:     d.helper.Empty(),
	}
}

// Reset returns the dispatcher and its underlying history to
// post-construction state.
func (d *PrefetchDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.helper.Reset()
	d.accessesSeen = 0
	d.addressesEmitted = 0
	d.lastSource = ""
}

func (d *PrefetchDispatcher) trace(step string) {
	if d.hook != nil {
		d.hook.StepAccess(step)
	}
}

// CalculatePrefetch runs the full per-access pipeline and returns the
// speculative addresses to fetch. It never fails: absence of a prediction
// is a silent empty return.
func (d *PrefetchDispatcher) CalculatePrefetch(
	access AccessInfo,
	accessor CacheAccessor,
) []PrefetchAddress {
	if d.helper.Empty() {
		return nil
	}

	blockAddr := accessor.BlockAddress(access.Addr)

	var pc *uint64
	if d.usePC {
		pc = access.PC
	}

	idx := d.helper.Insert(AccessInfo{Addr: blockAddr, PC: pc})
	if idx < 0 {
		return nil
	}

	d.mu.Lock()
	d.accessesSeen++
	d.mu.Unlock()

	d.trace("inserted")

	pcDeltasRev, _ := d.helper.BuildPattern(idx, KeyPC)
	pageDeltasRev, _ := d.helper.BuildPattern(idx, KeyPage)

	var deltasRev []int64
	switch {
	case len(pcDeltasRev) > 0:
		deltasRev = pcDeltasRev
	case len(pageDeltasRev) > 0:
		deltasRev = pageDeltasRev
	default:
		d.mu.Lock()
		d.lastSource = ""
		d.mu.Unlock()
		return nil
	}

	chronological := reverseInt64(deltasRev)
	d.helper.UpdatePatternTable(chronological)

	predicted, fired := earlyStrideDetect(chronological, d.degree)
	var source string
	if fired {
		d.trace("stride-detected")
		source = "stride"
	} else {
		predicted, source = d.matchOrFallback(chronological, pcDeltasRev, pageDeltasRev)
	}

	if len(predicted) == 0 {
		d.mu.Lock()
		d.lastSource = ""
		d.mu.Unlock()
		return nil
	}

	addrs := d.materialize(blockAddr, predicted, accessor)

	d.mu.Lock()
	d.addressesEmitted += uint64(len(addrs))
	d.lastSource = source
	d.mu.Unlock()

	d.trace("emitted")

	return addrs
}

func (d *PrefetchDispatcher) matchOrFallback(
	chronological, pcDeltasRev, pageDeltasRev []int64,
) ([]int64, string) {
	predicted, ok := d.helper.FindPatternMatch(chronological)
	if ok {
		d.trace("pattern-matched")
		return predicted, "pattern"
	}

	if len(pageDeltasRev) > 0 && !sameDeltas(pageDeltasRev, pcDeltasRev) {
		pageChron := reverseInt64(pageDeltasRev)
		d.helper.UpdatePatternTable(pageChron)

		if predicted, ok = d.helper.FindPatternMatch(pageChron); ok {
			d.trace("pattern-matched")
			return predicted, "pattern"
		}
	}

	predicted = d.helper.FallbackPattern(chronological)
	if len(predicted) > 0 {
		d.trace("fallback")
		return predicted, "fallback"
	}

	return predicted, ""
}
