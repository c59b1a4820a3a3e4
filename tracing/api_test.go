package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type funcHook struct {
	fn func(HookCtx)
}

func (h funcHook) Func(ctx HookCtx) { h.fn(ctx) }

var _ = Describe("StepRecorder", func() {
	var (
		r      *StepRecorder
		got    []HookCtx
		hooked funcHook
	)

	BeforeEach(func() {
		got = nil
		hooked = funcHook{fn: func(ctx HookCtx) { got = append(got, ctx) }}
		r = NewStepRecorder()
	})

	It("invokes nothing when no hook is registered", func() {
		r.StepAccess("inserted")
		r.StepAccess("emitted")
		Expect(got).To(BeEmpty())
	})

	It("opens a task on inserted and closes it on emitted", func() {
		r.AcceptHook(hooked)

		r.StepAccess("inserted")
		r.StepAccess("pattern-matched")
		r.StepAccess("emitted")

		Expect(got).To(HaveLen(3))
		Expect(got[0].Pos).To(Equal(HookPosInserted))
		Expect(got[1].Pos).To(Equal(HookPosPatternMatched))
		Expect(got[2].Pos).To(Equal(HookPosEmitted))
		Expect(got[2].Item.Steps).To(HaveLen(2))
	})

	It("fans out to every registered hook in order", func() {
		var order []string
		r.AcceptHook(funcHook{fn: func(HookCtx) { order = append(order, "first") }})
		r.AcceptHook(funcHook{fn: func(HookCtx) { order = append(order, "second") }})

		r.StepAccess("inserted")

		Expect(order).To(Equal([]string{"first", "second"}))
	})

	It("tolerates steps arriving with no open task", func() {
		r.AcceptHook(hooked)
		Expect(func() { r.StepAccess("fallback") }).NotTo(Panic())
	})
})
