package ghb

import "sort"

// DeltaPair is the two-delta key into the pattern table.
type DeltaPair struct {
	Prev int64
	Cur  int64
}

// PatternEntry tracks how often each delta has followed a DeltaPair.
// Total always equals the sum of Counts' values.
type PatternEntry struct {
	Counts map[int64]uint32
	Total  uint32
}

type patternTable map[DeltaPair]*PatternEntry

func newPatternTable() patternTable {
	return make(patternTable)
}

func (t patternTable) record(prev, cur, next int64) {
	key := DeltaPair{Prev: prev, Cur: cur}

	entry, ok := t[key]
	if !ok {
		entry = &PatternEntry{Counts: make(map[int64]uint32)}
		t[key] = entry
	}

	entry.Counts[next]++
	entry.Total++
}

// UpdatePatternTable trains the table from a forward-temporal delta
// sequence. Multi-scale (up to four deltas ahead) and overlap/reverse
// training accelerate learning at the cost of extra table entries.
func (h *historyHelper) UpdatePatternTable(chronological []int64) {
	c := chronological
	n := len(c)
	if n < 3 {
		return
	}

	for i := 0; i+2 < n; i++ {
		h.table.record(c[i], c[i+1], c[i+2])

		if i+3 < n {
			h.table.record(c[i+1], c[i+2], c[i+3])
		}
		if i+4 < n {
			h.table.record(c[i+2], c[i+3], c[i+4])
		}
		if i+5 < n {
			h.table.record(c[i+3], c[i+4], c[i+5])
		}
		if i >= 1 && i+3 < n {
			h.table.record(c[i-1], c[i], c[i+2])
		}
		if i >= 2 && i+4 < n {
			h.table.record(c[i-2], c[i-1], c[i+2])
		}
		if i >= 1 && i+2 < n {
			h.table.record(-c[i], -c[i+1], -c[i+2])
		}
	}
}

// adaptiveThreshold returns the confidence percent an entry of the given
// total must clear, subtracted from base and floored per total bracket as
// listed in the switch below. ok is false
// for total < 2, in which case the entry is skipped by strict callers.
func adaptiveThreshold(base int, total uint32) (threshold int, ok bool) {
	switch {
	case total >= 50:
		return maxInt(base-30, 12), true
	case total >= 40:
		return maxInt(base-25, 15), true
	case total >= 30:
		return maxInt(base-22, 18), true
	case total >= 20:
		return maxInt(base-18, 20), true
	case total >= 12:
		return maxInt(base-15, 22), true
	case total >= 6:
		return maxInt(base-10, 25), true
	case total >= 3:
		return maxInt(base-8, 30), true
	case total >= 2:
		return maxInt(base-5, 35), true
	default:
		return 0, false
	}
}

// adaptiveThresholdLenient behaves like adaptiveThreshold but never skips:
// entries with total < 2 fall back to the unmodified base threshold. Used
// by the lenient backfill and chained-extrapolation passes, which operate
// on thin entries that the strict scan above would otherwise ignore.
func adaptiveThresholdLenient(base int, total uint32) int {
	if t, ok := adaptiveThreshold(base, total); ok {
		return t
	}
	return base
}

func confidenceOf(count, total uint32) int {
	return int(uint64(count) * 100 / uint64(total))
}

func scoreBonus(count uint32) int {
	switch {
	case count >= 5:
		return 8
	case count >= 3:
		return 3
	default:
		return 0
	}
}

// topDelta returns the most frequent next-delta of entry and its
// confidence. Ties prefer the numerically smaller delta, purely for
// determinism.
func topDelta(entry *PatternEntry) (delta int64, confidence int, found bool) {
	var bestCount uint32

	for d, c := range entry.Counts {
		if !found || c > bestCount || (c == bestCount && d < delta) {
			delta, bestCount, found = d, c, true
		}
	}

	if !found {
		return 0, 0, false
	}

	return delta, confidenceOf(bestCount, entry.Total), true
}

type scoredDelta struct {
	delta int64
	score int
}

// collectCandidates scans keys (weighted by weights, matching keys index
// for index) and returns the best score seen for each qualifying non-zero
// delta.
func (h *historyHelper) collectCandidates(keys []DeltaPair, weights []int, base int) map[int64]int {
	result := make(map[int64]int)

	for i, key := range keys {
		entry, ok := h.table[key]
		if !ok {
			continue
		}

		threshold, ok := adaptiveThreshold(base, entry.Total)
		if !ok {
			continue
		}

		for delta, count := range entry.Counts {
			if delta == 0 {
				continue
			}

			conf := confidenceOf(count, entry.Total)
			if conf < threshold {
				continue
			}

			score := (conf + scoreBonus(count)) * weights[i]
			if cur, exists := result[delta]; !exists || score > cur {
				result[delta] = score
			}
		}
	}

	return result
}

// FindPatternMatch predicts future deltas using the pattern table, per the
// candidate-key/adaptive-threshold/effective-degree pipeline.
func (h *historyHelper) FindPatternMatch(chronological []int64) ([]int64, bool) {
	n := len(chronological)
	if n < 2 {
		return nil, false
	}

	keys := []DeltaPair{{Prev: chronological[n-2], Cur: chronological[n-1]}}
	weights := []int{5}

	if n >= 3 {
		keys = append(keys, DeltaPair{Prev: chronological[n-3], Cur: chronological[n-2]})
		weights = append(weights, 1)
	}
	if n >= 4 {
		keys = append(keys, DeltaPair{Prev: chronological[n-4], Cur: chronological[n-3]})
		weights = append(weights, 1)
	}

	primaryKey := keys[0]
	primaryEntry, havePrimary := h.table[primaryKey]

	bestConf, bestTotal, haveBest := 0, uint32(0), false
	if havePrimary {
		if threshold, ok := adaptiveThreshold(h.confidenceBase(), primaryEntry.Total); ok {
			if _, conf, found := topDelta(primaryEntry); found && conf >= threshold {
				bestConf, bestTotal, haveBest = conf, primaryEntry.Total, true
			}
		}
	}

	effectiveDegree := effectiveDegreeFor(h.degree(), haveBest, bestConf, bestTotal)

	candidates := h.collectCandidates(keys, weights, h.confidenceBase())
	predicted := rankAndTake(candidates, nil, effectiveDegree)

	predicted = h.lenientBackfill(predicted, keys, effectiveDegree)
	predicted = h.chainExtrapolate(predicted, chronological, effectiveDegree)
	predicted = strideAmplify(predicted, chronological, effectiveDegree)

	if len(predicted) == 0 {
		return nil, false
	}

	return predicted, true
}

// rankAndTake sorts candidates by descending score and appends up to limit
// new, non-duplicate deltas onto existing.
func rankAndTake(candidates map[int64]int, existing []int64, limit int) []int64 {
	predicted := append([]int64(nil), existing...)
	if len(predicted) >= limit {
		return predicted
	}

	ranked := make([]scoredDelta, 0, len(candidates))
	for d, s := range candidates {
		ranked = append(ranked, scoredDelta{delta: d, score: s})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return absInt64(ranked[i].delta) < absInt64(ranked[j].delta)
	})

	for _, r := range ranked {
		if len(predicted) >= limit {
			break
		}
		if containsExact(predicted, r.delta) {
			continue
		}
		predicted = append(predicted, r.delta)
	}

	return predicted
}

// lenientBackfill re-scans the primary key with a relaxed threshold, then
// the secondary keys, when the strict pass left predicted short.
func (h *historyHelper) lenientBackfill(predicted []int64, keys []DeltaPair, limit int) []int64 {
	if len(predicted) >= limit {
		return predicted
	}

	base := h.confidenceBase()

	if entry, ok := h.table[keys[0]]; ok {
		threshold := maxInt(25, adaptiveThresholdLenient(base, entry.Total)-10)
		predicted = leniencyScan(predicted, entry, threshold, limit)
	}

	for _, key := range keys[1:] {
		if len(predicted) >= limit {
			break
		}

		entry, ok := h.table[key]
		if !ok || entry.Total < 3 {
			continue
		}

		threshold := maxInt(25, adaptiveThresholdLenient(base, entry.Total)-5)
		predicted = leniencyScan(predicted, entry, threshold, limit)
	}

	return predicted
}

func leniencyScan(predicted []int64, entry *PatternEntry, threshold int, limit int) []int64 {
	ranked := make([]scoredDelta, 0, len(entry.Counts))
	for d, c := range entry.Counts {
		if d == 0 {
			continue
		}

		conf := confidenceOf(c, entry.Total)
		if conf < threshold {
			continue
		}

		ranked = append(ranked, scoredDelta{delta: d, score: conf})
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	for _, r := range ranked {
		if len(predicted) >= limit {
			break
		}
		if containsExact(predicted, r.delta) {
			continue
		}
		predicted = append(predicted, r.delta)
	}

	return predicted
}

// chainExtrapolate follows the pattern table forward from the tail of
// chronological and the predictions already made, appending one delta per
// successful lookup until effective_degree is reached or no chain entry is
// found.
func (h *historyHelper) chainExtrapolate(predicted []int64, chronological []int64, limit int) []int64 {
	if len(predicted) == 0 || len(predicted) >= limit || len(chronological) == 0 {
		return predicted
	}

	base := h.confidenceBase()
	maxAttempts := 3 * limit

	for attempt := 0; attempt < maxAttempts && len(predicted) < limit; attempt++ {
		var chainPrev, chainBase int64
		if attempt == 0 {
			chainPrev = chronological[len(chronological)-1]
			chainBase = predicted[0]
		} else {
			if len(predicted) < 2 {
				break
			}
			chainPrev = predicted[len(predicted)-2]
			chainBase = predicted[len(predicted)-1]
		}

		entry, ok := h.table[DeltaPair{Prev: chainPrev, Cur: chainBase}]
		if !ok || entry.Total < 1 {
			break
		}

		threshold := maxInt(adaptiveThresholdLenient(base, entry.Total), 25)
		if attempt > 0 {
			threshold = maxInt(adaptiveThresholdLenient(base, entry.Total)-10, 20)
		}

		next, found := bestChainCandidate(entry, threshold, predicted)
		if !found {
			break
		}

		predicted = append(predicted, next)
	}

	return predicted
}

func bestChainCandidate(entry *PatternEntry, threshold int, existing []int64) (int64, bool) {
	var best int64
	bestScore := -1
	found := false

	for d, c := range entry.Counts {
		if d == 0 || containsExact(existing, d) {
			continue
		}

		conf := confidenceOf(c, entry.Total)
		if conf < threshold {
			continue
		}

		if conf > bestScore {
			best, bestScore, found = d, conf, true
		}
	}

	return best, found
}

// confidenceBase and degree are provided through a small accessor pair so
// the pattern logic above stays free of the dispatcher's constructor
// wiring; both are set once at construction and never mutated.
func (h *historyHelper) confidenceBase() int { return h.cfgConfidenceThreshold }
func (h *historyHelper) degree() int         { return h.cfgDegree }
