package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// DefaultThreshold is the percent change that makes a difference significant
const DefaultThreshold = 5.0

// MetricComparison compares one metric between two runs
type MetricComparison struct {
	Name          string  `json:"name"`
	BaseValue     float64 `json:"base_value"`
	CurrentValue  float64 `json:"current_value"`
	PercentChange float64 `json:"percent_change"`
	IsRegression  bool    `json:"is_regression"`
	IsImprovement bool    `json:"is_improvement"`
	IsSignificant bool    `json:"is_significant"`
}

// BenchmarkComparison compares every shared metric of one result
type BenchmarkComparison struct {
	Name              string             `json:"name"`
	Category          string             `json:"category"`
	MetricComparisons []MetricComparison `json:"metric_comparisons"`
	OverallAssessment string             `json:"overall_assessment"`
	HasRegressions    bool               `json:"has_regressions"`
	Score             float64            `json:"score"`
}

// Comparison is the outcome of Compare
type Comparison struct {
	BaseCommit             string                `json:"base_commit"`
	CurrentCommit          string                `json:"current_commit"`
	Threshold              float64               `json:"threshold"`
	TotalBenchmarks        int                   `json:"total_benchmarks"`
	ImprovedBenchmarks     int                   `json:"improved_benchmarks"`
	RegressionBenchmarks   int                   `json:"regression_benchmarks"`
	SignificantRegressions int                   `json:"significant_regressions"`
	BenchmarkComparisons   []BenchmarkComparison `json:"benchmark_comparisons"`
}

// Compare matches current results to base results by name. Results missing
// from either side are skipped. threshold <= 0 selects DefaultThreshold.
func Compare(base, current Summary, threshold float64) Comparison {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	out := Comparison{
		BaseCommit:    base.CommitID,
		CurrentCommit: current.CommitID,
		Threshold:     threshold,
	}

	baseResults := make(map[string]Result, len(base.Results))
	for _, r := range base.Results {
		baseResults[r.Name] = r
	}

	for _, cur := range current.Results {
		old, found := baseResults[cur.Name]
		if !found {
			continue
		}

		bc := BenchmarkComparison{
			Name:              cur.Name,
			Category:          cur.Category,
			MetricComparisons: []MetricComparison{},
		}

		score := 0.0
		for name, currentValue := range cur.Metrics {
			baseValue, found := old.Metrics[name]
			if !found {
				continue
			}

			change := 0.0
			if baseValue != 0 {
				change = (currentValue - baseValue) / baseValue * 100
			}

			mc := MetricComparison{
				Name:          name,
				BaseValue:     baseValue,
				CurrentValue:  currentValue,
				PercentChange: change,
				IsSignificant: math.Abs(change) >= threshold,
			}
			if HigherIsBetter(name) {
				mc.IsRegression = change < 0
				mc.IsImprovement = change > 0
			} else {
				mc.IsRegression = change > 0
				mc.IsImprovement = change < 0
			}

			if mc.IsRegression && mc.IsSignificant {
				bc.HasRegressions = true
			}
			if mc.IsImprovement {
				score += math.Abs(change)
			} else if mc.IsRegression {
				score -= math.Abs(change)
			}
			bc.MetricComparisons = append(bc.MetricComparisons, mc)
		}

		if n := len(bc.MetricComparisons); n > 0 {
			bc.Score = score / float64(n)
		}
		// map iteration is random; keep the output stable
		sort.Slice(bc.MetricComparisons, func(i, j int) bool {
			return bc.MetricComparisons[i].Name < bc.MetricComparisons[j].Name
		})

		switch {
		case bc.HasRegressions:
			bc.OverallAssessment = "REGRESSION"
			out.RegressionBenchmarks++
			out.SignificantRegressions++
		case bc.Score > 0:
			bc.OverallAssessment = "IMPROVEMENT"
			out.ImprovedBenchmarks++
		default:
			bc.OverallAssessment = "NEUTRAL"
		}
		out.BenchmarkComparisons = append(out.BenchmarkComparisons, bc)
	}

	// Worst regressions first
	sort.SliceStable(out.BenchmarkComparisons, func(i, j int) bool {
		a, b := out.BenchmarkComparisons[i], out.BenchmarkComparisons[j]
		if a.HasRegressions != b.HasRegressions {
			return a.HasRegressions
		}
		return a.Score < b.Score
	})
	out.TotalBenchmarks = len(out.BenchmarkComparisons)
	return out
}

// HigherIsBetter reports whether an increase of the metric is an improvement
func HigherIsBetter(metric string) bool {
	for _, pattern := range []string{
		"ops_per_sec", "operations", "_rate", "batch_", "max_lookup", "throughput",
	} {
		if strings.Contains(metric, pattern) {
			return true
		}
	}
	// ns/op, bytes/op, allocs/op, chain length, load factor
	return false
}

// Write prints a human-readable report
func (c Comparison) Write(w io.Writer) {
	fmt.Fprintf(w, "Benchmark Comparison: %s vs %s\n\n", shortCommit(c.BaseCommit), shortCommit(c.CurrentCommit))
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "- Total benchmarks compared: %d\n", c.TotalBenchmarks)
	fmt.Fprintf(w, "- Improvements: %d\n", c.ImprovedBenchmarks)
	fmt.Fprintf(w, "- Regressions: %d (significant: %d)\n\n", c.RegressionBenchmarks, c.SignificantRegressions)

	if c.TotalBenchmarks == 0 {
		fmt.Fprintln(w, "No matching benchmarks found for comparison")
		return
	}

	fmt.Fprintln(w, "Benchmark Details (sorted by impact):")
	fmt.Fprintln(w, "======================================")

	for _, bc := range c.BenchmarkComparisons {
		indicator := "+"
		switch {
		case bc.HasRegressions:
			indicator = "x"
		case bc.Score < 0:
			indicator = "~"
		case bc.Score == 0:
			indicator = "="
		}
		fmt.Fprintf(w, "\n%s %s (%s):\n", indicator, bc.Name, bc.Category)

		metrics := append([]MetricComparison(nil), bc.MetricComparisons...)
		sort.SliceStable(metrics, func(i, j int) bool {
			return math.Abs(metrics[i].PercentChange) > math.Abs(metrics[j].PercentChange)
		})
		for _, m := range metrics {
			if m.PercentChange == 0 {
				continue
			}
			mark := " "
			if m.IsRegression && m.IsSignificant {
				mark = "v"
			} else if m.IsImprovement && m.IsSignificant {
				mark = "^"
			}
			fmt.Fprintf(w, "  %s %-24s: %+8.2f%% (%g -> %g)\n", mark, m.Name, m.PercentChange, m.BaseValue, m.CurrentValue)
		}
	}
}
