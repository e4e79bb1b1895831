package report

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	stdBenchRegex = regexp.MustCompile(`^Benchmark([\w/]+?)(?:-\d+)?\s+(\d+)\s+(\d+\.?\d*)\s+ns/op(?:\s+(\d+)\s+B/op)?(?:\s+(\d+)\s+allocs/op)?`)
	benchLogRegex = regexp.MustCompile(`^--- BENCH: Benchmark([\w/]+?)(?:-\d+)?\s*$`)
	sysRegex      = regexp.MustCompile(`^goos:\s*(\S+)`)
	archRegex     = regexp.MustCompile(`^goarch:\s*(\S+)`)
	goVerRegex    = regexp.MustCompile(`go\d+\.\d+(?:\.\d+)?`)
)

// scaleBenchmarks run once with b.N forced to 1 and report their own rates
var scaleBenchmarks = map[string]bool{
	"TenThousandKeys":     true,
	"HundredThousandKeys": true,
	"UUIDKeys":            true,
	"CollisionChains":     true,
}

// logPatterns turn benchmark log lines into metrics
var logPatterns = []struct {
	regex *regexp.Regexp
	key   string
}{
	{regexp.MustCompile(`Time to insert \d+ .*\(([\d,.]+) keys/sec\)`), "insertion_rate"},
	{regexp.MustCompile(`Time to perform \d+ random lookups: .*\(([\d,.]+) lookups/sec\)`), "random_lookup_rate"},
	{regexp.MustCompile(`Time to verify all \d+ keys sequentially: .*\(([\d,.]+) lookups/sec\)`), "sequential_lookup_rate"},
	{regexp.MustCompile(`Time to retrieve \d+ .*\(([\d,.]+) keys/sec\)`), "retrieval_rate"},
	{regexp.MustCompile(`Time to validate \d+ .*\(([\d,.]+) keys/sec\)`), "validation_rate"},
	{regexp.MustCompile(`Time to delete \d+ .*\(([\d,.]+) keys/sec\)`), "deletion_rate"},
	{regexp.MustCompile(`Longest chain: (\d+)`), "max_chain"},
	{regexp.MustCompile(`Load factor: ([\d,.]+)`), "load_factor"},
	{regexp.MustCompile(`Average bytes per key-value pair: ([\d,.]+) bytes`), "bytes_per_key"},
	{regexp.MustCompile(`Alloc=([\d,.]+)MB`), "alloc_mb"},
	{regexp.MustCompile(`Sys=([\d,.]+)MB`), "sys_mb"},
}

// ParseGoBench parses the output of `go test -bench -v` into a summary.
// Standard benchmark lines become results; log lines printed under a
// "--- BENCH:" header are matched against known progress messages and
// attached as metrics to that benchmark.
func ParseGoBench(content string) Summary {
	var summary Summary
	byName := map[string]int{}
	var goos, goarch string

	result := func(name string) *Result {
		if i, ok := byName[name]; ok {
			return &summary.Results[i]
		}
		category := "standard"
		if scaleBenchmarks[name] {
			category = "scale"
		}
		summary.Results = append(summary.Results, Result{
			Name:     name,
			Category: category,
			Metrics:  map[string]float64{},
		})
		byName[name] = len(summary.Results) - 1
		return &summary.Results[len(summary.Results)-1]
	}

	current := ""
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if m := sysRegex.FindStringSubmatch(trimmed); m != nil {
			goos = m[1]
			continue
		}
		if m := archRegex.FindStringSubmatch(trimmed); m != nil {
			goarch = m[1]
			continue
		}
		if summary.GoVersion == "" {
			if v := goVerRegex.FindString(trimmed); v != "" {
				summary.GoVersion = v
			}
		}

		if m := stdBenchRegex.FindStringSubmatch(trimmed); m != nil {
			name := m[1]
			ops, _ := strconv.Atoi(m[2])
			nsPerOp, _ := strconv.ParseFloat(m[3], 64)

			r := result(name)
			r.Operations = ops
			r.NsPerOp = nsPerOp
			r.Metrics["operations"] = float64(ops)
			r.Metrics["ns_per_op"] = nsPerOp
			// scale benchmarks carry their own rate metrics
			if !scaleBenchmarks[name] && nsPerOp > 0 {
				r.Metrics["ops_per_sec"] = 1_000_000_000 / nsPerOp
			}
			if m[4] != "" {
				r.BytesPerOp, _ = strconv.Atoi(m[4])
				r.Metrics["bytes_per_op"] = float64(r.BytesPerOp)
			}
			if m[5] != "" {
				r.AllocsPerOp, _ = strconv.Atoi(m[5])
				r.Metrics["allocs_per_op"] = float64(r.AllocsPerOp)
			}
			current = ""
			continue
		}

		if m := benchLogRegex.FindStringSubmatch(trimmed); m != nil {
			current = m[1]
			continue
		}
		if current == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "PASS") || strings.HasPrefix(trimmed, "ok ") || strings.HasPrefix(trimmed, "--- ") {
			current = ""
			continue
		}
		for _, p := range logPatterns {
			if m := p.regex.FindStringSubmatch(trimmed); m != nil {
				if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
					result(current).Metrics[p.key] = v
				}
			}
		}
	}

	if goos != "" {
		summary.SystemInfo = "goos: " + goos + " goarch: " + goarch
	}
	return summary
}
