package ghb

// effectiveDegreeFor computes the ladder from step 5 of findPatternMatch.
// Rows are checked from the most demanding down; the baseline of
// degree+2 applies when no row (or no best entry at all) matches.
func effectiveDegreeFor(degree int, haveBest bool, confidence int, total uint32) int {
	if haveBest {
		switch {
		case confidence >= 90 && total >= 20:
			return 10 * degree
		case confidence >= 85 && total >= 15:
			return 8 * degree
		case confidence >= 80 && total >= 10:
			return 6 * degree
		case confidence >= 70 && total >= 5:
			return 4 * degree
		case confidence >= 60 && total >= 3:
			return 2 * degree
		case confidence >= 50 && total >= 2:
			return 2 * degree
		case confidence >= 40:
			return minInt(degree+4, (18*degree)/10)
		case confidence >= 30:
			return minInt(degree+2, (15*degree)/10)
		}
	}

	return degree + 2
}

// strideAmplify implements step 9 of findPatternMatch: once a confirmed
// stride is identified either among the predictions already made or as a
// run at the tail of chronological, extend predicted with its multiples.
func strideAmplify(predicted, chronological []int64, limit int) []int64 {
	if len(predicted) >= limit || len(chronological) < 2 {
		return predicted
	}

	last := chronological[len(chronological)-1]

	if p, ok := confirmedStride(predicted, last); ok {
		predicted = appendMultiples(predicted, p, 2, limit)
	}

	if len(predicted) >= limit {
		return predicted
	}

	if run := tailRunLength(chronological, last, 6); run >= 2 && absInt64(last) < 300 {
		predicted = appendMultiples(predicted, last, 1, limit)
	}

	return predicted
}

// confirmedStride looks for a prediction close to the last observed delta,
// treating it as a validated stride worth amplifying.
func confirmedStride(predicted []int64, last int64) (int64, bool) {
	for _, p := range predicted {
		if absInt64(p-last) <= 2 && p != 0 && absInt64(p) < 300 {
			return p, true
		}
	}
	return 0, false
}

func appendMultiples(predicted []int64, stride int64, startK, limit int) []int64 {
	factor := 1
	switch {
	case absInt64(stride) < 128:
		factor = 3
	case absInt64(stride) < 256:
		factor = 2
	}

	remaining := limit - len(predicted)
	maxAttempts := remaining * factor
	if maxAttempts < remaining {
		maxAttempts = remaining
	}

	added, tried := 0, 0
	for k := startK; added < remaining && tried < maxAttempts; k++ {
		tried++
		candidate := stride * int64(k)
		if containsNear(predicted, candidate, 2) {
			continue
		}
		predicted = append(predicted, candidate)
		added++
	}

	return predicted
}

// tailRunLength counts how many of the last maxScan deltas fall within ±2 of
// target, scanning from the most recent backwards and stopping at the first
// miss. The tolerance matches confirmedStride/containsNear elsewhere in this
// file, since all three are checking the same "close enough to call it the
// same stride" condition. This is used only by strideAmplify's step-9 tail
// scan; simpleStride and FallbackPattern need exact-match runs and use
// exactTailRunLength instead.
func tailRunLength(chronological []int64, target int64, maxScan int) int {
	n := len(chronological)
	run := 0

	for i := 0; i < maxScan && n-1-i >= 0; i++ {
		if absInt64(chronological[n-1-i]-target) > 2 {
			break
		}
		run++
	}

	return run
}

// exactTailRunLength counts how many of the last maxScan deltas equal target
// exactly, scanning from the most recent backwards and stopping at the
// first miss.
func exactTailRunLength(chronological []int64, target int64, maxScan int) int {
	n := len(chronological)
	run := 0

	for i := 0; i < maxScan && n-1-i >= 0; i++ {
		if chronological[n-1-i] != target {
			break
		}
		run++
	}

	return run
}
