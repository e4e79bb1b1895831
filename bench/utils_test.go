package chainmap_test

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/theflywheel/chainmap"
	"github.com/theflywheel/chainmap/internal/report"
)

// getMemoryUsage returns the current memory stats as a formatted string
func getMemoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("Memory: Alloc=%.1fMB Sys=%.1fMB",
		float64(m.Alloc)/1024/1024,
		float64(m.Sys)/1024/1024)
}

// getMemoryStats returns the current memory stats as a map
func getMemoryStats() map[string]float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return map[string]float64{
		"alloc_mb": float64(m.Alloc) / (1024 * 1024),
		"sys_mb":   float64(m.Sys) / (1024 * 1024),
	}
}

// recordTableStats copies the shape of the table into the result metrics
func recordTableStats[V any](tbl *chainmap.Table[V], metrics map[string]float64) chainmap.Stats {
	st := tbl.Stats()
	metrics["max_chain"] = float64(st.MaxChain)
	metrics["load_factor"] = st.LoadFactor
	metrics["used_slots"] = float64(st.UsedSlots)
	metrics["overflow_nodes"] = float64(st.OverflowNodes)
	return st
}

// saveBenchmarkResult merges a result into benchmark_history/<resultsFile>
// at the repository root
func saveBenchmarkResult(result report.Result, resultsFile string) error {
	currentDir, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get current directory")
	}

	// bench/ sits directly under the repository root
	repoRoot := filepath.Dir(currentDir)
	latestFile := filepath.Join(repoRoot, "benchmark_history", resultsFile)

	if err := report.Append(latestFile, report.NewSummary(repoRoot), result); err != nil {
		return err
	}
	fmt.Printf("Benchmark results saved to: %s\n", latestFile)
	return nil
}
