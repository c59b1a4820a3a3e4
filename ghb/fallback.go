package ghb

import "sort"

// FallbackPattern predicts from raw frequency and recency when the pattern
// table produced nothing usable.
func (h *historyHelper) FallbackPattern(chronological []int64) []int64 {
	n := len(chronological)
	if n == 0 {
		return nil
	}

	windowStart := maxInt(0, n-h.patternLength)
	freq := make(map[int64]int)
	latest := make(map[int64]int)

	for i := windowStart; i < n; i++ {
		d := chronological[i]
		if d == 0 {
			continue
		}
		freq[d]++
		latest[d] = i
	}

	if len(freq) == 0 {
		return nil
	}

	type scored struct {
		delta   int64
		score   int
		recency int
	}

	ranked := make([]scored, 0, len(freq))
	for d, f := range freq {
		recency := n - latest[d] + 1
		ranked = append(ranked, scored{
			delta:   d,
			score:   3*f + 2*recency,
			recency: recency,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		iPos, jPos := ranked[i].delta > 0, ranked[j].delta > 0
		if iPos != jPos {
			return iPos
		}
		return absInt64(ranked[i].delta) < absInt64(ranked[j].delta)
	})

	top := ranked[0].delta
	if run := exactTailRunLength(chronological, top, 8); run >= 1 && absInt64(top) < 300 {
		count := h.runLengthEmitCount(run)
		return multiplesOf(top, count)
	}

	predicted := make([]int64, 0, h.cfgDegree)
	for _, r := range ranked {
		if len(predicted) >= h.cfgDegree {
			break
		}
		predicted = append(predicted, r.delta)
	}

	if len(predicted) < h.cfgDegree {
		for i := n - 1; i >= windowStart && len(predicted) < h.cfgDegree; i-- {
			d := chronological[i]
			if d == 0 || containsExact(predicted, d) {
				continue
			}
			predicted = append(predicted, d)
		}
	}

	return predicted
}

func (h *historyHelper) runLengthEmitCount(run int) int {
	degree := h.cfgDegree
	switch {
	case run >= 8:
		return 6 * degree
	case run >= 6:
		return 5 * degree
	case run >= 4:
		return 4 * degree
	case run >= 2:
		return 2 * degree
	default:
		return minInt(degree+2, (15*degree)/10)
	}
}

func multiplesOf(delta int64, count int) []int64 {
	out := make([]int64, count)
	for i := 0; i < count; i++ {
		out[i] = delta * int64(i+1)
	}
	return out
}
