package ghb

// Builder constructs a PrefetchDispatcher. All numeric parameters are
// clamped to a safe minimum on Build so a degenerate configuration can
// never make the pipeline panic.
type Builder struct {
	historySize         int
	patternLength       int
	degree              int
	usePC               bool
	pageBytes           uint64
	confidenceThreshold int
	hook                Hook
}

// MakeBuilder returns a Builder with the defaults used across the test
// scenarios: a 256-entry history, a 4-deep pattern window, degree 4, PC
// keying enabled, 4 KiB pages and a 50% confidence baseline.
func MakeBuilder() Builder {
	return Builder{
		historySize:         256,
		patternLength:       4,
		degree:              4,
		usePC:               true,
		pageBytes:           4096,
		confidenceThreshold: 50,
	}
}

// WithHistorySize sets the number of tracked accesses.
func (b Builder) WithHistorySize(n int) Builder {
	b.historySize = n
	return b
}

// WithPatternLength sets how many deltas a chain walk may produce.
func (b Builder) WithPatternLength(n int) Builder {
	b.patternLength = n
	return b
}

// WithDegree sets the nominal number of predictions per access.
func (b Builder) WithDegree(n int) Builder {
	b.degree = n
	return b
}

// WithUsePC toggles whether PC-keyed chains are maintained.
func (b Builder) WithUsePC(usePC bool) Builder {
	b.usePC = usePC
	return b
}

// WithPageBytes sets the pattern-table page-key granularity. This is
// independent of the CacheAccessor's own page size used during
// materialization.
func (b Builder) WithPageBytes(n uint64) Builder {
	b.pageBytes = n
	return b
}

// WithConfidenceThreshold sets the baseline percent, clamped to [0,100] on
// Build.
func (b Builder) WithConfidenceThreshold(n int) Builder {
	b.confidenceThreshold = n
	return b
}

// WithHook attaches an optional observer of pipeline steps.
func (b Builder) WithHook(h Hook) Builder {
	b.hook = h
	return b
}

// Build constructs the dispatcher, clamping every tunable to its safe
// minimum first.
func (b Builder) Build() *PrefetchDispatcher {
	historySize := maxInt(b.historySize, 1)
	patternLength := maxInt(b.patternLength, 1)
	degree := maxInt(b.degree, 1)
	pageBytes := b.pageBytes
	if pageBytes < 1 {
		pageBytes = 1
	}
	confidence := b.confidenceThreshold
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	helper := newHistoryHelper(historySize, patternLength, degree, confidence, b.usePC, pageBytes)

	return &PrefetchDispatcher{
		degree:     degree,
		usePC:      b.usePC,
		pageBytes:  pageBytes,
		confidence: confidence,
		helper:     helper,
		hook:       b.hook,
	}
}
