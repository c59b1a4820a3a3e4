package tracing

import "sync"

// StepCountTracer counts how many times each hook position fires, keyed by
// the position's name. It does not count how many distinct accesses reached
// each step. It implements Hook and is meant to be registered on a
// StepRecorder.
type StepCountTracer struct {
	lock      sync.Mutex
	stepNames []string
	stepCount map[string]uint64
	seenAt    map[string]map[*HookPos]bool
}

// NewStepCountTracer creates an empty StepCountTracer.
func NewStepCountTracer() *StepCountTracer {
	return &StepCountTracer{
		stepCount: make(map[string]uint64),
		seenAt:    make(map[string]map[*HookPos]bool),
	}
}

// GetStepNames returns the pipeline step names observed so far, in first-
// seen order.
func (t *StepCountTracer) GetStepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stepNames...)
}

// GetStepCount returns how many times a step fired.
func (t *StepCountTracer) GetStepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepCount[stepName]
}

// Func implements Hook.
func (t *StepCountTracer) Func(ctx HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	name := ctx.Pos.Name
	if _, ok := t.stepCount[name]; !ok {
		t.stepNames = append(t.stepNames, name)
	}
	t.stepCount[name]++
}

var _ Hook = (*StepCountTracer)(nil)
