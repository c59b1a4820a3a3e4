package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/caesarchen000/ghbprefetch/ghb"
	"github.com/caesarchen000/ghbprefetch/monitoring"
	"github.com/caesarchen000/ghbprefetch/persistence"
	"github.com/caesarchen000/ghbprefetch/tracing"
)

var replayFlags struct {
	historySize         int
	patternLength       int
	degree              int
	usePC               bool
	pageBytes           uint64
	confidenceThreshold int
	blockSize           uint64

	recordTo    string
	monitorPort int
	openBrowser bool
}

var replayCmd = &cobra.Command{
	Use:   "replay [trace-file]",
	Short: "Replay a memory access trace through the GHB prefetcher.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.IntVar(&replayFlags.historySize, "history-size", 256, "number of tracked accesses")
	f.IntVar(&replayFlags.patternLength, "pattern-length", 4, "deltas per chain walk")
	f.IntVar(&replayFlags.degree, "degree", 4, "nominal predictions per access")
	f.BoolVar(&replayFlags.usePC, "use-pc", true, "maintain PC-keyed chains")
	f.Uint64Var(&replayFlags.pageBytes, "page-bytes", 4096, "pattern-table page-key granularity")
	f.IntVar(&replayFlags.confidenceThreshold, "confidence-threshold", 50, "baseline confidence percent")
	f.Uint64Var(&replayFlags.blockSize, "block-size", 64, "cache block size used to align trace addresses")

	f.StringVar(&replayFlags.recordTo, "record", "", "SQLite database path (a .sqlite3 suffix is added) to record every emitted prefetch to")
	f.IntVar(&replayFlags.monitorPort, "monitor-port", 0, "start an HTTP monitor on this port (0 disables it)")
	f.BoolVar(&replayFlags.openBrowser, "open-browser", false, "open a browser to the monitor once it starts")
}

func runReplay(_ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	recorder := setupRecorder()
	dispatcher := ghb.MakeBuilder().
		WithHistorySize(replayFlags.historySize).
		WithPatternLength(replayFlags.patternLength).
		WithDegree(replayFlags.degree).
		WithUsePC(replayFlags.usePC).
		WithPageBytes(replayFlags.pageBytes).
		WithConfidenceThreshold(replayFlags.confidenceThreshold).
		WithHook(tracing.NewStepRecorder()).
		Build()

	monitor := setupMonitor(dispatcher)

	accessor := blockPageAccessor{blockSize: replayFlags.blockSize, pageSize: replayFlags.pageBytes}

	scanner := bufio.NewScanner(f)
	var seq uint64
	var hits uint64
	var lastPredicted []uint64

	for lineNo := 1; scanner.Scan(); lineNo++ {
		parsed, status := parseTraceLine(scanner.Text())
		switch status {
		case lineSkip:
			continue
		case lineMalformed:
			log.Printf("skipping malformed trace line %d: %q", lineNo, scanner.Text())
			continue
		}
		seq++

		blockAddr := accessor.BlockAddress(parsed.Addr)
		if containsUint64(lastPredicted, blockAddr) {
			hits++
		}

		predicted := dispatcher.CalculatePrefetch(ghb.AccessInfo{Addr: parsed.Addr, PC: parsed.PC}, accessor)
		source := dispatcher.LastSource()

		lastPredicted = lastPredicted[:0]
		for _, p := range predicted {
			lastPredicted = append(lastPredicted, p.Address)
		}

		if recorder != nil {
			for _, p := range predicted {
				recorder.RecordPrefetch(persistence.PrefetchRecord{
					Seq:           seq,
					AccessAddr:    blockAddr,
					PredictedAddr: p.Address,
					Delta:         int64(p.Address) - int64(blockAddr),
					Source:        source,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading trace file: %w", err)
	}

	snap := dispatcher.Snapshot()

	if recorder != nil {
		recorder.RecordSummary(persistence.RunSummary{
			AccessesSeen:     snap.AccessesSeen,
			AddressesEmitted: snap.AddressesEmitted,
			PatternTableSize: snap.PatternTableSize,
		})
	}

	fmt.Printf("accesses: %d\n", snap.AccessesSeen)
	fmt.Printf("addresses emitted: %d\n", snap.AddressesEmitted)
	fmt.Printf("pattern table entries: %d\n", snap.PatternTableSize)
	if seq > 0 {
		fmt.Printf("next-access hit rate: %.2f%%\n", 100*float64(hits)/float64(seq))
	}

	if monitor != nil {
		fmt.Println("monitor is still serving; press Ctrl-C to exit")
		select {}
	}

	return nil
}

func setupRecorder() persistence.Recorder {
	if replayFlags.recordTo == "" {
		return nil
	}
	return persistence.New(replayFlags.recordTo)
}

func setupMonitor(d *ghb.PrefetchDispatcher) *monitoring.Monitor {
	if replayFlags.monitorPort == 0 {
		return nil
	}

	m := monitoring.NewMonitor().WithPortNumber(replayFlags.monitorPort)
	m.RegisterDispatcher(d)
	m.StartServer()

	if replayFlags.openBrowser {
		url := fmt.Sprintf("http://localhost:%d/api/stats", replayFlags.monitorPort)
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "could not open browser: %v\n", err)
		}
	}

	return m
}

func containsUint64(values []uint64, v uint64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
