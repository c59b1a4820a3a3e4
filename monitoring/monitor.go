// Package monitoring exposes a running PrefetchDispatcher over HTTP for
// external inspection: point-in-time counters, host resource usage, a CPU
// profile, and generic field introspection.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable net/http/pprof's own handlers as a fallback profiling route.
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/caesarchen000/ghbprefetch/ghb"
)

// Dispatcher is the subset of ghb.PrefetchDispatcher the monitor depends
// on, so tests can substitute a fake.
type Dispatcher interface {
	Snapshot() ghb.Snapshot
}

// Monitor turns a running PrefetchDispatcher into an HTTP-inspectable
// service. It never touches the dispatcher's hot path: every handler reads
// state that CalculatePrefetch already exposes through Snapshot.
type Monitor struct {
	dispatcher Dispatcher
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a Monitor with no dispatcher registered yet.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port the monitor listens on. Values below 1000
// are rejected in favor of an OS-assigned port, since those are reserved.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"port number %d is not allowed for the monitoring server, "+
				"using a random port instead\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterDispatcher attaches the dispatcher whose state the monitor
// reports.
func (m *Monitor) RegisterDispatcher(d Dispatcher) {
	m.dispatcher = d
}

// CreateProgressBar starts tracking progress through a piece of work, such
// as replaying a trace file with a known number of lines.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar once its work is done.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a background HTTP server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/stats", m.stats)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/inspect", m.inspectDispatcher)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"monitoring prefetcher at http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err := http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	if m.dispatcher == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	b, err := json.Marshal(m.dispatcher.Snapshot())
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

func (m *Monitor) inspectDispatcher(w http.ResponseWriter, _ *http.Request) {
	if m.dispatcher == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.dispatcher)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type fieldReq struct {
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	if m.dispatcher == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	if err := json.Unmarshal([]byte(jsonString), &req); err != nil {
		dieOnErr(err)
	}

	fields := strings.Split(req.FieldName, ".")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.dispatcher)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(fields); err != nil {
		dieOnErr(err)
	}

	dieOnErr(serializer.Serialize(w))
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	b, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	dieOnErr(pprof.StartCPUProfile(buf))
	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	b, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := append([]*ProgressBar(nil), m.progressBars...)
	m.progressBarsLock.Unlock()

	b, err := json.Marshal(bars)
	dieOnErr(err)

	_, err = w.Write(b)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
