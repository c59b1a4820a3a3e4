package tracing

import "github.com/caesarchen000/ghbprefetch/ghb"

//go:generate mockgen -destination "mock_hook_test.go" -self_package=github.com/caesarchen000/ghbprefetch/tracing -package $GOPACKAGE -write_package_comment=false github.com/caesarchen000/ghbprefetch/tracing Hook

// StepRecorder adapts the core's single-string ghb.Hook into a Task built
// up across one CalculatePrefetch invocation, and fans it out to any number
// of registered Hooks at the appropriate HookPos. An "inserted" step opens a
// new Task; every step in between is appended to it; "emitted" closes it and
// invokes HookPosEmitted with the completed Task.
type StepRecorder struct {
	*HookableBase

	seq     uint64
	current *Task
}

// NewStepRecorder returns a StepRecorder with no hooks attached.
func NewStepRecorder() *StepRecorder {
	return &StepRecorder{HookableBase: NewHookableBase()}
}

// StepAccess implements ghb.Hook.
func (r *StepRecorder) StepAccess(step string) {
	if r.NumHooks() == 0 {
		return
	}

	switch step {
	case "inserted":
		r.seq++
		r.current = &Task{Kind: "prefetch", What: "calculate-prefetch"}
		r.emit(HookPosInserted)
	case "stride-detected":
		r.appendStep(step)
		r.emit(HookPosStrideDetected)
	case "pattern-matched":
		r.appendStep(step)
		r.emit(HookPosPatternMatched)
	case "fallback":
		r.appendStep(step)
		r.emit(HookPosFallback)
	case "emitted":
		r.appendStep(step)
		r.emit(HookPosEmitted)
		r.current = nil
	}
}

func (r *StepRecorder) appendStep(what string) {
	if r.current == nil {
		return
	}
	r.current.Steps = append(r.current.Steps, TaskStep{At: r.seq, What: what})
}

func (r *StepRecorder) emit(pos *HookPos) {
	var item Task
	if r.current != nil {
		item = *r.current
	}
	r.InvokeHook(HookCtx{Pos: pos, Item: item})
}

var _ ghb.Hook = (*StepRecorder)(nil)
