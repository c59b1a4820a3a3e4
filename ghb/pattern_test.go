package ghb

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("pattern table", func() {
	It("no-ops below three deltas", func() {
		h := newHistoryHelper(8, 4, 4, 50, true, 4096)
		h.UpdatePatternTable([]int64{64, 64})
		Expect(h.PatternTableSize()).To(Equal(0))
	})

	It("is idempotent under repeated feeding: doubles affected counts", func() {
		h := newHistoryHelper(8, 4, 4, 50, true, 4096)
		seq := []int64{64, 64, 64, 64}

		h.UpdatePatternTable(seq)
		entry := h.table[DeltaPair{Prev: 64, Cur: 64}]
		Expect(entry).NotTo(BeNil())
		firstCount := entry.Counts[64]

		h.UpdatePatternTable(seq)
		Expect(entry.Counts[64]).To(Equal(2 * firstCount))
	})

	It("never lets total drift from the sum of counts", func() {
		h := newHistoryHelper(8, 4, 4, 50, true, 4096)
		h.UpdatePatternTable([]int64{8, 8, 8, 1024, 8, 8, 8, 1024})

		for _, e := range h.table {
			var sum uint32
			for _, c := range e.Counts {
				sum += c
			}
			Expect(sum).To(Equal(e.Total))
		}
	})

	It("emits at most effective_degree non-zero, non-duplicate deltas", func() {
		h := newHistoryHelper(64, 4, 4, 50, true, 4096)
		seq := make([]int64, 0)
		for i := 0; i < 20; i++ {
			seq = append(seq, 64)
		}
		h.UpdatePatternTable(seq)

		predicted, ok := h.FindPatternMatch(seq)
		Expect(ok).To(BeTrue())
		// The (64,64) entry is 100% confident with total >= 20, the top
		// rung of the effective-degree ladder: 10 * degree.
		Expect(len(predicted)).To(BeNumerically("<=", 10*4))

		seen := map[int64]bool{}
		for _, d := range predicted {
			Expect(d).NotTo(Equal(int64(0)))
			Expect(seen[d]).To(BeFalse())
			seen[d] = true
		}
	})

	It("adaptiveThreshold floors and subtracts by total bracket", func() {
		t, ok := adaptiveThreshold(50, 60)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(20))

		t, ok = adaptiveThreshold(50, 2)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(45))

		_, ok = adaptiveThreshold(50, 1)
		Expect(ok).To(BeFalse())
	})

	It("falls back to frequency/recency scoring when the table has nothing", func() {
		h := newHistoryHelper(8, 4, 4, 50, true, 4096)
		predicted := h.FallbackPattern([]int64{64, -8, 64, 64})
		Expect(predicted).NotTo(BeEmpty())
		for _, d := range predicted {
			Expect(d).NotTo(Equal(int64(0)))
		}
	})

	It("converges to a pure sequential prediction after repeated +1 deltas", func() {
		h := newHistoryHelper(64, 4, 4, 50, true, 4096)

		var chron []int64
		var predicted []int64
		var ok bool

		for i := 0; i < 5; i++ {
			chron = append(chron, 1)
			h.UpdatePatternTable(chron)

			if p, fired := earlyStrideDetect(chron, 4); fired {
				predicted = p
				ok = true
				continue
			}

			predicted, ok = h.FindPatternMatch(chron)
		}

		Expect(ok).To(BeTrue())
		Expect(len(predicted)).To(BeNumerically(">=", 4))
		Expect(predicted[0]).To(Equal(int64(1)))
	})
})
