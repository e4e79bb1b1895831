// Package report holds benchmark and workload results, reads and writes
// them as JSON history files, parses `go test -bench` output and compares
// two result sets for regressions.
package report

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Result is one benchmark or workload run with its metrics
type Result struct {
	Name        string             `json:"name"`
	Category    string             `json:"category,omitempty"` // "standard", "scale", "workload"
	Description string             `json:"description,omitempty"`
	Operations  int                `json:"operations,omitempty"`
	NsPerOp     float64            `json:"ns_per_op,omitempty"`
	BytesPerOp  int                `json:"bytes_per_op,omitempty"`
	AllocsPerOp int                `json:"allocs_per_op,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Summary is a set of results tagged with where they were produced
type Summary struct {
	Timestamp  string   `json:"timestamp"`
	CommitID   string   `json:"commit_id"`
	Branch     string   `json:"branch"`
	GoVersion  string   `json:"go_version"`
	SystemInfo string   `json:"system_info,omitempty"`
	Results    []Result `json:"results"`
}

// NewSummary creates an empty summary stamped with the current time, Go
// version and the git state of repoRoot (when it is a git checkout).
func NewSummary(repoRoot string) Summary {
	commitID, branch := GitInfo(repoRoot)
	return Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		CommitID:   commitID,
		Branch:     branch,
		GoVersion:  runtime.Version(),
		SystemInfo: "goos: " + runtime.GOOS + " goarch: " + runtime.GOARCH,
	}
}

// GitInfo reads the short commit id and branch from repoRoot/.git without
// running git. It falls back to "local" and "dev".
func GitInfo(repoRoot string) (commitID, branch string) {
	commitID = "local"
	branch = "dev"

	gitHead, err := os.ReadFile(filepath.Join(repoRoot, ".git", "HEAD"))
	if err != nil {
		return commitID, branch
	}
	headContent := strings.TrimSpace(string(gitHead))
	if headContent == "" {
		return commitID, branch
	}

	// Detached head holds the commit itself
	if !strings.HasPrefix(headContent, "ref: ") {
		return shortCommit(headContent), branch
	}

	refPath := strings.TrimPrefix(headContent, "ref: ")
	if strings.HasPrefix(refPath, "refs/heads/") {
		branch = strings.TrimPrefix(refPath, "refs/heads/")
	}
	if commitData, err := os.ReadFile(filepath.Join(repoRoot, ".git", refPath)); err == nil {
		commitID = shortCommit(strings.TrimSpace(string(commitData)))
	}
	return commitID, branch
}

func shortCommit(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// Find returns the result with the given name
func (s *Summary) Find(name string) (Result, bool) {
	for _, r := range s.Results {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

// CleanMetrics drops per-batch progress metrics that only matter while a
// run is in flight.
func CleanMetrics(r *Result) {
	if r.Metrics == nil {
		return
	}
	for key := range r.Metrics {
		if strings.HasPrefix(key, "batch_rate_") ||
			strings.HasPrefix(key, "memory_mb_") ||
			strings.HasPrefix(key, "batch_insert_") ||
			strings.HasPrefix(key, "batch_retrieve_") ||
			strings.HasPrefix(key, "batch_validate_") {
			delete(r.Metrics, key)
		}
	}
}
