package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("StepCountTracer", func() {
	It("counts each hook position separately, in first-seen order", func() {
		tr := NewStepCountTracer()

		tr.Func(HookCtx{Pos: HookPosInserted})
		tr.Func(HookCtx{Pos: HookPosInserted})
		tr.Func(HookCtx{Pos: HookPosPatternMatched})

		Expect(tr.GetStepCount(HookPosInserted.Name)).To(Equal(uint64(2)))
		Expect(tr.GetStepCount(HookPosPatternMatched.Name)).To(Equal(uint64(1)))
		Expect(tr.GetStepCount(HookPosFallback.Name)).To(Equal(uint64(0)))
		Expect(tr.GetStepNames()).To(Equal([]string{
			HookPosInserted.Name,
			HookPosPatternMatched.Name,
		}))
	})

	It("can be registered directly on a StepRecorder", func() {
		r := NewStepRecorder()
		tr := NewStepCountTracer()
		r.AcceptHook(tr)

		r.StepAccess("inserted")
		r.StepAccess("stride-detected")
		r.StepAccess("emitted")

		Expect(tr.GetStepCount(HookPosInserted.Name)).To(Equal(uint64(1)))
		Expect(tr.GetStepCount(HookPosStrideDetected.Name)).To(Equal(uint64(1)))
		Expect(tr.GetStepCount(HookPosEmitted.Name)).To(Equal(uint64(1)))
	})
})
