package monitoring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/caesarchen000/ghbprefetch/ghb"
)

type fakeDispatcher struct {
	snap ghb.Snapshot
}

func (f fakeDispatcher) Snapshot() ghb.Snapshot { return f.snap }

var _ = Describe("Monitor", func() {
	var m *Monitor

	BeforeEach(func() {
		m = &Monitor{}
	})

	It("registers a dispatcher", func() {
		d := fakeDispatcher{snap: ghb.Snapshot{AccessesSeen: 3}}
		m.RegisterDispatcher(d)

		Expect(m.dispatcher.Snapshot().AccessesSeen).To(Equal(uint64(3)))
	})

	It("creates and completes progress bars", func() {
		bar := m.CreateProgressBar("replay", 100)
		Expect(m.progressBars).To(HaveLen(1))
		Expect(bar.Total).To(Equal(uint64(100)))

		m.CompleteProgressBar(bar)
		Expect(m.progressBars).To(BeEmpty())
	})
})
