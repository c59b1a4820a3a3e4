package ghb

// earlyStrideDetect implements the three cheap stride detectors that run
// before pattern matching. If any fires, its predictions are used directly
// and the pattern table (already trained by the caller) is not consulted.
func earlyStrideDetect(chronological []int64, degree int) ([]int64, bool) {
	if p, ok := simpleStride(chronological, degree); ok {
		return p, true
	}
	if p, ok := alternatingStride(chronological, degree); ok {
		return p, true
	}
	if p, ok := stridedWithGap(chronological, degree); ok {
		return p, true
	}
	return nil, false
}

func simpleStride(c []int64, degree int) ([]int64, bool) {
	n := len(c)
	if n < 2 {
		return nil, false
	}

	last := c[n-1]
	if last != c[n-2] || last == 0 || absInt64(last) >= 200 {
		return nil, false
	}

	strideCount := exactTailRunLength(c, last, n)
	if strideCount < 2 {
		return nil, false
	}

	count := degree
	switch {
	case strideCount >= 6:
		count = minInt(2*degree, strideCount)
	case strideCount >= 4:
		count = minInt(degree+2, strideCount)
	case strideCount >= 3:
		count = minInt(degree+1, strideCount)
	}

	return multiplesOf(last, count), true
}

func alternatingStride(c []int64, degree int) ([]int64, bool) {
	n := len(c)
	if n < 4 {
		return nil, false
	}

	if c[n-1] != c[n-3] || c[n-2] != c[n-4] || absInt64(c[n-1]) >= 200 {
		return nil, false
	}

	return multiplesOf(c[n-1], minInt(degree, 3)), true
}

func stridedWithGap(c []int64, degree int) ([]int64, bool) {
	n := len(c)
	if n < 6 {
		return nil, false
	}

	tail := c[n-6:]
	d1, d2, d3, d4, d5, d6 := tail[0], tail[1], tail[2], tail[3], tail[4], tail[5]

	if d1 != d2 || d2 != d3 || d4 != d5 || d5 != d6 || d1 != d4 {
		return nil, false
	}
	if absInt64(d1) >= 64 || absInt64(d3) >= 200 {
		return nil, false
	}

	return multiplesOf(d1, degree), true
}
