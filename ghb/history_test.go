package ghb

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func u64p(v uint64) *uint64 { return &v }

var _ = Describe("historyHelper", func() {
	var h *historyHelper

	BeforeEach(func() {
		h = newHistoryHelper(4, 4, 4, 50, true, 4096)
	})

	It("assigns increasing sequence numbers starting at 1", func() {
		s0 := h.Insert(AccessInfo{Addr: 0, PC: u64p(0x1000)})
		s1 := h.Insert(AccessInfo{Addr: 64, PC: u64p(0x1000)})

		Expect(h.entries[s0].Seq).To(Equal(uint64(1)))
		Expect(h.entries[s1].Seq).To(Equal(uint64(2)))
	})

	It("chains same-PC accesses through the PC link", func() {
		s0 := h.Insert(AccessInfo{Addr: 0, PC: u64p(0x1000)})
		s1 := h.Insert(AccessInfo{Addr: 64, PC: u64p(0x1000)})

		link := h.entries[s1].Links[KeyPC]
		Expect(link.KeyValid).To(BeTrue())
		Expect(link.Prev).To(Equal(int64(s0)))
	})

	It("does not chain across different PCs", func() {
		h.Insert(AccessInfo{Addr: 0, PC: u64p(0x1000)})
		s1 := h.Insert(AccessInfo{Addr: 64, PC: u64p(0x2000)})

		link := h.entries[s1].Links[KeyPC]
		Expect(link.Prev).To(Equal(int64(-1)))
	})

	It("truncates a chain when the referenced slot has been overwritten", func() {
		// historySize is 4, so 5 inserts wrap around and overwrite slot 0.
		h.Insert(AccessInfo{Addr: 0, PC: u64p(0x1000)})
		h.Insert(AccessInfo{Addr: 100, PC: u64p(0x9999)})
		h.Insert(AccessInfo{Addr: 200, PC: u64p(0x9999)})
		h.Insert(AccessInfo{Addr: 300, PC: u64p(0x9999)})
		last := h.Insert(AccessInfo{Addr: 400, PC: u64p(0x1000)})

		// slot 0 (the first 0x1000 access) has been overwritten by the
		// wraparound; the new 0x1000 access must not see it as a valid prev.
		link := h.entries[last].Links[KeyPC]
		Expect(link.Prev).To(Equal(int64(-1)))
	})

	It("purges stale lastIndex entries on eviction", func() {
		h = newHistoryHelper(2, 4, 4, 50, true, 4096)
		h.Insert(AccessInfo{Addr: 0, PC: u64p(0x1000)})
		h.Insert(AccessInfo{Addr: 64, PC: u64p(0x2000)})
		// This eviction removes slot 0's occupant, which owned lastIndex[PC][0x1000].
		h.Insert(AccessInfo{Addr: 128, PC: u64p(0x3000)})

		_, ok := h.lastIndex[KeyPC][0x1000]
		Expect(ok).To(BeFalse())
	})

	It("builds reverse-chronological deltas capped at patternLength", func() {
		h = newHistoryHelper(8, 2, 4, 50, true, 4096)
		h.Insert(AccessInfo{Addr: 0, PC: u64p(0x1000)})
		h.Insert(AccessInfo{Addr: 64, PC: u64p(0x1000)})
		h.Insert(AccessInfo{Addr: 128, PC: u64p(0x1000)})
		last := h.Insert(AccessInfo{Addr: 192, PC: u64p(0x1000)})

		deltas, ok := h.BuildPattern(last, KeyPC)
		Expect(ok).To(BeTrue())
		Expect(deltas).To(Equal([]int64{64, 64}))
	})

	It("keys the page chain by addr/pageBytes", func() {
		h = newHistoryHelper(4, 4, 4, 50, false, 4096)
		s0 := h.Insert(AccessInfo{Addr: 0})
		s1 := h.Insert(AccessInfo{Addr: 4096})

		Expect(h.entries[s0].Links[KeyPage].KeyValue).To(Equal(uint64(0)))
		Expect(h.entries[s1].Links[KeyPage].KeyValue).To(Equal(uint64(1)))
	})

	It("returns -1 from Insert when constructed with zero capacity", func() {
		h = newHistoryHelper(0, 4, 4, 50, true, 4096)
		Expect(h.Insert(AccessInfo{Addr: 0})).To(Equal(-1))
		Expect(h.Empty()).To(BeTrue())
	})

	It("returns to post-construction state on Reset", func() {
		h.Insert(AccessInfo{Addr: 0, PC: u64p(0x1000)})
		h.Insert(AccessInfo{Addr: 64, PC: u64p(0x1000)})
		h.UpdatePatternTable([]int64{64, 64, 64, 64})

		Expect(h.PatternTableSize()).To(BeNumerically(">", 0))

		h.Reset()

		Expect(h.PatternTableSize()).To(Equal(0))
		Expect(h.head).To(Equal(0))
		Expect(h.filled).To(BeFalse())
		_, ok := h.BuildPattern(0, KeyPC)
		Expect(ok).To(BeFalse())
	})
})
