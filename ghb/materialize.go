package ghb

import "sort"

// materialize sorts predicted deltas, detects a sequential run among them,
// and turns each surviving one into a concrete address, subject to the
// page-boundary admission policy.
func (d *PrefetchDispatcher) materialize(
	blockAddr uint64,
	predicted []int64,
	accessor CacheAccessor,
) []PrefetchAddress {
	ordered := append([]int64(nil), predicted...)
	sort.Slice(ordered, func(i, j int) bool {
		iPos, jPos := ordered[i] > 0, ordered[j] > 0
		if iPos != jPos {
			return iPos
		}
		return absInt64(ordered[i]) < absInt64(ordered[j])
	})

	sequential, baseStride := detectSequential(ordered)

	addrs := make([]PrefetchAddress, 0, len(ordered))
	currentBase := blockAddr

	for i, delta := range ordered {
		if delta == 0 {
			continue
		}

		var nextAddr uint64
		switch {
		case sequential:
			nextAddr = uint64(int64(blockAddr) + baseStride*int64(i+1))
		case i > 0:
			nextAddr = uint64(int64(currentBase) + delta)
			currentBase = nextAddr
		default:
			nextAddr = uint64(int64(blockAddr) + delta)
			currentBase = nextAddr
		}

		if !accessor.SamePage(nextAddr, blockAddr) &&
			!admitCrossPage(sequential, baseStride, delta) {
			continue
		}

		addrs = append(addrs, PrefetchAddress{Address: nextAddr, Priority: 0})
	}

	return addrs
}

func detectSequential(ordered []int64) (bool, int64) {
	if len(ordered) < 2 || ordered[0] == 0 || absInt64(ordered[0]) >= 200 {
		return false, 0
	}

	base := ordered[0]
	for i := 1; i <= minInt(len(ordered)-1, 2); i++ {
		if ordered[i] != base*int64(i+1) {
			return false, 0
		}
	}

	return true, base
}

func admitCrossPage(sequential bool, baseStride, delta int64) bool {
	if sequential && absInt64(baseStride) < 64 {
		return true
	}
	if absInt64(delta) < 32 {
		return true
	}
	if delta > -128 && delta < 0 {
		return true
	}
	return false
}
