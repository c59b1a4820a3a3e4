package tracing

// HookPos names one of the points in a prefetch pipeline invocation where a
// hook can be triggered.
type HookPos struct {
	Name string
}

var (
	// HookPosInserted fires once an access has been recorded into history.
	HookPosInserted = &HookPos{Name: "Inserted"}
	// HookPosStrideDetected fires when one of the cheap stride detectors
	// produced the prediction directly, bypassing the pattern table.
	HookPosStrideDetected = &HookPos{Name: "StrideDetected"}
	// HookPosPatternMatched fires when the trained pattern table produced
	// the prediction.
	HookPosPatternMatched = &HookPos{Name: "PatternMatched"}
	// HookPosFallback fires when frequency/recency scoring produced the
	// prediction because the pattern table had nothing usable.
	HookPosFallback = &HookPos{Name: "Fallback"}
	// HookPosEmitted fires once predicted deltas have been materialized
	// into concrete addresses and returned to the caller.
	HookPosEmitted = &HookPos{Name: "Emitted"}
)

// HookCtx carries the information available at the site where a hook is
// triggered.
type HookCtx struct {
	Pos  *HookPos
	Item Task
}

// Hook is a short piece of program invoked by a Hookable at a HookPos.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable is anything that accepts Hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookableBase implements the bookkeeping shared by every Hookable in this
// package: a plain slice of registered hooks, invoked in registration
// order.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates an empty HookableBase.
func NewHookableBase() *HookableBase {
	return &HookableBase{hooks: make([]Hook, 0)}
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// NumHooks reports how many hooks are registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook calls every registered hook with ctx, in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
