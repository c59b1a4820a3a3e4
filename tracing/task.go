package tracing

// TaskStep represents a milestone reached while processing one
// CalculatePrefetch invocation. At is the StepRecorder's own count of
// "inserted" steps it has handled while at least one hook was registered,
// not a wall-clock time: the core has no notion of simulated time.
type TaskStep struct {
	At   uint64 `json:"at"`
	What string `json:"what"`
}

// Task is one CalculatePrefetch invocation, from the access that started it
// through however many predicted addresses it emitted.
type Task struct {
	ID     string      `json:"id"`
	Kind   string      `json:"kind"`
	What   string      `json:"what"`
	Steps  []TaskStep  `json:"steps"`
	Detail interface{} `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this
// function returns true, the task is considered useful.
type TaskFilter func(t Task) bool
