package workload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

const suiteYAML = `
output: history/latest.json
concurrency: 2
workloads:
  - name: sequential-djb2
    capacity: 64
    hash: djb2
    keys:
      kind: sequential
      count: 500
    ops:
      updates: 0.5
      deletes: 0.5
  - name: uuid-xxhash
    capacity: 128
    hash: xxhash
    keys:
      kind: uuid
      count: 300
      seed: 42
    ops:
      deletes: 1
  - name: alnum-collisions
    capacity: 8
    hash: constant:3
    keys:
      kind: alnum
      count: 50
    ops:
      updates: 1
      deletes: 1
`

func TestParseSuite(t *testing.T) {
	suite, err := Parse([]byte(suiteYAML))
	require.NoError(t, err)

	assert.Equal(t, "history/latest.json", suite.Output)
	assert.Equal(t, 2, suite.Concurrency)
	require.Len(t, suite.Workloads, 3)
	assert.Equal(t, "djb2", suite.Workloads[0].Hash)
	assert.Equal(t, 0.5, suite.Workloads[0].Ops.Updates)
	assert.Equal(t, int64(42), suite.Workloads[1].Keys.Seed)
	// defaults
	assert.Equal(t, 16, suite.Workloads[2].Keys.Length)
}

func TestValidateRejects(t *testing.T) {
	valid := func() Config {
		return Config{Name: "w", Capacity: 8, Keys: KeySpec{Count: 10}}
	}
	cases := map[string]func(*Config){
		"MissingName":  func(c *Config) { c.Name = "" },
		"ZeroCapacity": func(c *Config) { c.Capacity = 0 },
		"UnknownHash":  func(c *Config) { c.Hash = "crc64" },
		"NoKeys":       func(c *Config) { c.Keys.Count = 0 },
		"BadKind":      func(c *Config) { c.Keys.Kind = "emoji" },
		"BadFraction":  func(c *Config) { c.Ops.Deletes = 1.5 },
		"NegBudget":    func(c *Config) { c.MemoryBudget = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	require.NoError(t, c.Validate())
	assert.Equal(t, "fnv1a", c.Hash)
	assert.Equal(t, KindSequential, c.Keys.Kind)

	suite := &Suite{Workloads: []Config{valid(), valid()}}
	assert.ErrorContains(t, suite.Validate(), "duplicate name")
	assert.Error(t, (&Suite{}).Validate())
}

func TestGenerate(t *testing.T) {
	for _, kind := range []string{KindSequential, KindUUID, KindAlnum} {
		t.Run(kind, func(t *testing.T) {
			spec := KeySpec{Kind: kind, Count: 1000, Length: 4, Seed: 9}
			keys, err := Generate(spec)
			require.NoError(t, err)
			require.Len(t, keys, 1000)

			seen := map[string]bool{}
			for _, k := range keys {
				assert.False(t, seen[k], "duplicate key %q", k)
				seen[k] = true
			}

			again, err := Generate(spec)
			require.NoError(t, err)
			assert.Equal(t, keys, again)
		})
	}

	keys, err := Generate(KeySpec{Kind: KindUUID, Count: 1})
	require.NoError(t, err)
	assert.Len(t, keys[0], 36)

	_, err = Generate(KeySpec{Kind: KindAlnum, Count: 100, Length: 1})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	suite, err := Parse([]byte(suiteYAML))
	require.NoError(t, err)

	for _, cfg := range suite.Workloads {
		t.Run(cfg.Name, func(t *testing.T) {
			r, err := Run(context.Background(), cfg, quietLogger())
			require.NoError(t, err)

			assert.Equal(t, cfg.Name, r.Name)
			assert.Equal(t, Category, r.Category)
			assert.Positive(t, r.Operations)
			assert.Zero(t, r.Metrics["allocation_failures"])
			assert.Contains(t, r.Metrics, "insertion_rate")
			assert.Contains(t, r.Metrics, "sequential_lookup_rate")
			assert.Contains(t, r.Metrics, "deletion_rate")
			assert.GreaterOrEqual(t, r.Metrics["max_chain"], 1.0)
		})
	}
}

func TestRunForcedCollisions(t *testing.T) {
	cfg := Config{Name: "one-slot", Capacity: 16, Hash: "constant:0", Keys: KeySpec{Count: 40}, Ops: Ops{Updates: 0.5, Deletes: 1}}
	r, err := Run(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 40.0, r.Metrics["max_chain"])
	assert.Equal(t, 1.0, r.Metrics["used_slots"])
	assert.Equal(t, 39.0, r.Metrics["overflow_nodes"])
}

func TestRunMemoryBudget(t *testing.T) {
	cfg := Config{
		Name:         "budget",
		Capacity:     8,
		Hash:         "djb2",
		Keys:         KeySpec{Count: 200},
		Ops:          Ops{Updates: 1, Deletes: 1},
		MemoryBudget: 2048,
	}
	r, err := Run(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.Positive(t, r.Metrics["allocation_failures"])
	assert.Less(t, r.Metrics["allocation_failures"], 200.0)

	cfg.MemoryBudget = 1
	_, err = Run(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{Name: "c", Capacity: 8, Keys: KeySpec{Count: 10}}, quietLogger())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadAndRunSuite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(suiteYAML), 0644))

	suite, err := Load(context.Background(), path)
	require.NoError(t, err)

	results, err := RunSuite(context.Background(), suite, quietLogger())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, suite.Workloads[i].Name, r.Name)
	}

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
