// Package ghb implements a Global History Buffer correlation prefetcher.
//
// It maintains a bounded ring of recent cache accesses indexed by two
// correlation keys (the access PC and the containing page), extrapolates
// two-delta Markov patterns from the resulting chains, and turns the
// resulting deltas into a bounded set of speculative block addresses on
// every access. The package has no knowledge of the surrounding simulator:
// it is driven one access at a time through PrefetchDispatcher and reports
// results through plain Go values.
package ghb
