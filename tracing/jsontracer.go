package tracing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// JSONTracer writes completed Tasks to a JSON array file, one element per
// access that reached HookPosEmitted. It implements Hook and is meant to be
// registered on a StepRecorder.
type JSONTracer struct {
	w         io.Writer
	lock      sync.Mutex
	firstTask bool
}

// Func implements Hook.
func (t *JSONTracer) Func(ctx HookCtx) {
	if ctx.Pos != HookPosEmitted {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.firstTask {
		t.firstTask = false
	} else if _, err := t.w.Write([]byte(",\n")); err != nil {
		panic(err)
	}

	b, err := json.Marshal(ctx.Item)
	if err != nil {
		panic(err)
	}

	if _, err := t.w.Write(b); err != nil {
		panic(err)
	}
}

func (t *JSONTracer) finish() {
	if _, err := t.w.Write([]byte("\n]")); err != nil {
		panic(err)
	}
}

// NewJSONTracer creates a JSONTracer that writes to a fresh file named with
// a random xid, and registers its finish routine to run at process exit.
func NewJSONTracer() *JSONTracer {
	filename := xid.New().String() + ".json"
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	fmt.Printf("recording prefetch tasks in %s\n", filename)

	if _, err := f.Write([]byte("[\n")); err != nil {
		panic(err)
	}

	t := &JSONTracer{w: f, firstTask: true}
	atexit.Register(t.finish)

	return t
}

var _ Hook = (*JSONTracer)(nil)
