package workload

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/theflywheel/chainmap/hashfn"
)

// Key kinds
const (
	KindSequential = "sequential"
	KindUUID       = "uuid"
	KindAlnum      = "alnum"
)

// Suite is a set of workloads run together
type Suite struct {
	// Output is where the summary is written; ".zst" compresses it
	Output      string   `yaml:"output,omitempty" json:"output,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Workloads   []Config `yaml:"workloads" json:"workloads"`
}

// Config describes one workload against one table
type Config struct {
	Name     string  `yaml:"name" json:"name"`
	Capacity int     `yaml:"capacity" json:"capacity"`
	Hash     string  `yaml:"hash,omitempty" json:"hash,omitempty"`
	Keys     KeySpec `yaml:"keys" json:"keys"`
	Ops      Ops     `yaml:"ops,omitempty" json:"ops,omitempty"`
	// MemoryBudget caps the bytes the table may hold; 0 means unlimited
	MemoryBudget int64 `yaml:"memoryBudget,omitempty" json:"memoryBudget,omitempty"`
}

// KeySpec describes the generated keys
type KeySpec struct {
	Kind   string `yaml:"kind" json:"kind"`
	Count  int    `yaml:"count" json:"count"`
	Length int    `yaml:"length,omitempty" json:"length,omitempty"`
	Seed   int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// Ops holds the fraction of inserted keys that are later updated and deleted
type Ops struct {
	Updates float64 `yaml:"updates,omitempty" json:"updates,omitempty"`
	Deletes float64 `yaml:"deletes,omitempty" json:"deletes,omitempty"`
}

// Load fetches and parses a suite from any URL afs understands (a plain
// path, file://, mem://, cloud storage).
func Load(ctx context.Context, URL string) (*Suite, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read suite %q", URL)
	}
	return Parse(data)
}

// Parse decodes a YAML (or JSON) suite and validates it
func Parse(data []byte) (*Suite, error) {
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, errors.Wrap(err, "failed to parse suite")
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// Validate fills defaults and rejects invalid workloads
func (s *Suite) Validate() error {
	if len(s.Workloads) == 0 {
		return errors.New("suite has no workloads")
	}
	if s.Concurrency <= 0 {
		s.Concurrency = runtime.NumCPU()
	}
	seen := map[string]bool{}
	for i := range s.Workloads {
		w := &s.Workloads[i]
		if err := w.Validate(); err != nil {
			return errors.Wrapf(err, "workload %d", i)
		}
		if seen[w.Name] {
			return errors.Errorf("workload %d: duplicate name %q", i, w.Name)
		}
		seen[w.Name] = true
	}
	return nil
}

// Validate fills defaults and rejects invalid values
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Capacity <= 0 {
		return errors.Errorf("%s: capacity must be positive, got %d", c.Name, c.Capacity)
	}
	if c.Hash == "" {
		c.Hash = "fnv1a"
	}
	if _, err := hashfn.Lookup(c.Hash); err != nil {
		return errors.Wrap(err, c.Name)
	}
	if c.MemoryBudget < 0 {
		return errors.Errorf("%s: memoryBudget must not be negative", c.Name)
	}
	if c.Ops.Updates < 0 || c.Ops.Updates > 1 || c.Ops.Deletes < 0 || c.Ops.Deletes > 1 {
		return errors.Errorf("%s: ops fractions must lie in [0, 1]", c.Name)
	}
	return errors.Wrap(c.Keys.Validate(), c.Name)
}

// Validate fills defaults and rejects invalid values
func (k *KeySpec) Validate() error {
	if k.Kind == "" {
		k.Kind = KindSequential
	}
	switch k.Kind {
	case KindSequential, KindUUID:
	case KindAlnum:
		if k.Length == 0 {
			k.Length = 16
		}
		if k.Length < 0 {
			return errors.Errorf("key length must be positive, got %d", k.Length)
		}
	default:
		return errors.Errorf("unknown key kind %q", k.Kind)
	}
	if k.Count <= 0 {
		return errors.Errorf("key count must be positive, got %d", k.Count)
	}
	return nil
}
