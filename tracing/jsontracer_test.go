package tracing

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JSONTracer", func() {
	It("ignores every hook position other than Emitted", func() {
		var buf bytes.Buffer
		tr := &JSONTracer{w: &buf, firstTask: true}

		tr.Func(HookCtx{Pos: HookPosInserted, Item: Task{Kind: "prefetch"}})
		Expect(buf.Len()).To(Equal(0))
	})

	It("writes each emitted task as a comma-separated JSON element", func() {
		var buf bytes.Buffer
		tr := &JSONTracer{w: &buf, firstTask: true}

		tr.Func(HookCtx{Pos: HookPosEmitted, Item: Task{Kind: "prefetch", What: "a"}})
		tr.Func(HookCtx{Pos: HookPosEmitted, Item: Task{Kind: "prefetch", What: "b"}})
		tr.finish()

		full := append([]byte("["), buf.Bytes()...)

		var decoded []Task
		err := json.Unmarshal(full, &decoded)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(HaveLen(2))
		Expect(decoded[0].What).To(Equal("a"))
		Expect(decoded[1].What).To(Equal("b"))
	})
})
