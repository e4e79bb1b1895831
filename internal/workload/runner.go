package workload

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theflywheel/chainmap"
	"github.com/theflywheel/chainmap/hashfn"
	"github.com/theflywheel/chainmap/internal/report"
)

// Category tags results produced by Run
const Category = "workload"

// randomSampleSize bounds the random lookup phase
const randomSampleSize = 1_000

// updateOffset is added to a key's index to form its updated value
const updateOffset = 1 << 32

// Run executes one workload against a fresh table: insert, sequential and
// random lookups, updates, deletes, then teardown. Every phase verifies what
// it reads; a mismatch or leaked memory fails the run.
func Run(ctx context.Context, cfg Config, logger log.FieldLogger) (report.Result, error) {
	result := report.Result{Name: cfg.Name, Category: Category, Metrics: map[string]float64{}}
	if err := cfg.Validate(); err != nil {
		return result, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger = logger.WithField("workload", cfg.Name)

	hash, err := hashfn.Lookup(cfg.Hash)
	if err != nil {
		return result, err
	}
	keys, err := Generate(cfg.Keys)
	if err != nil {
		return result, errors.Wrap(err, cfg.Name)
	}

	var backing chainmap.Allocator = chainmap.HeapAllocator{}
	if cfg.MemoryBudget > 0 {
		backing = chainmap.NewBudgetAllocator(uintptr(cfg.MemoryBudget))
	}
	alloc := chainmap.NewDebugAllocator(backing, logger)

	tbl, err := chainmap.New[uint64](cfg.Capacity, hash, chainmap.WithAllocator(alloc), chainmap.WithLogger(logger))
	if err != nil {
		return result, errors.Wrap(err, cfg.Name)
	}
	freed := false
	defer func() {
		if !freed {
			tbl.Free()
		}
	}()

	var totalOps int
	var totalTime time.Duration
	phase := func(name, metric string, ops int, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := fn(); err != nil {
			return errors.Wrapf(err, "%s: %s", cfg.Name, name)
		}
		elapsed := time.Since(start)
		totalOps += ops
		totalTime += elapsed
		rate := 0.0
		if elapsed > 0 {
			rate = float64(ops) / elapsed.Seconds()
		}
		result.Metrics[metric] = rate
		logger.Infof("Time to %s %d keys: %v (%.2f keys/sec)", name, ops, elapsed, rate)
		return nil
	}

	// Insert; with a memory budget some puts may be refused
	present := make([]bool, len(keys))
	failures := 0
	err = phase("insert", "insertion_rate", len(keys), func() error {
		for i, key := range keys {
			if err := tbl.Put(key, uint64(i)); err != nil {
				if errors.Is(err, chainmap.ErrAllocation) && cfg.MemoryBudget > 0 {
					failures++
					continue
				}
				return err
			}
			present[i] = true
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	result.Metrics["allocation_failures"] = float64(failures)
	if failures > 0 {
		logger.Warnf("%d of %d puts refused by the memory budget", failures, len(keys))
	}
	inserted := len(keys) - failures
	if tbl.Len() != inserted {
		return result, errors.Errorf("%s: table holds %d entries, expected %d", cfg.Name, tbl.Len(), inserted)
	}

	expect := func(i int, want uint64) error {
		e, found := tbl.Get(keys[i])
		if found != present[i] {
			return errors.Errorf("key %q: found=%v, expected %v", keys[i], found, present[i])
		}
		if found && e.Value != want {
			return errors.Errorf("key %q: value %d, expected %d", keys[i], e.Value, want)
		}
		return nil
	}

	err = phase("verify all", "sequential_lookup_rate", len(keys), func() error {
		for i := range keys {
			if err := expect(i, uint64(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	rng := rand.New(rand.NewSource(cfg.Keys.Seed + 1))
	samples := min(randomSampleSize, len(keys))
	err = phase("perform random lookups on", "random_lookup_rate", samples, func() error {
		for n := 0; n < samples; n++ {
			i := rng.Intn(len(keys))
			if err := expect(i, uint64(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	updates := int(float64(len(keys)) * cfg.Ops.Updates)
	err = phase("update", "update_rate", updates, func() error {
		for i := 0; i < updates; i++ {
			if !present[i] {
				continue
			}
			if err := tbl.Put(keys[i], uint64(i)+updateOffset); err != nil {
				return err
			}
		}
		for i := 0; i < updates; i++ {
			if err := expect(i, uint64(i)+updateOffset); err != nil {
				return err
			}
		}
		if tbl.Len() != inserted {
			return errors.Errorf("updates changed the size to %d", tbl.Len())
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	st := tbl.Stats()
	result.Metrics["max_chain"] = float64(st.MaxChain)
	result.Metrics["load_factor"] = st.LoadFactor
	result.Metrics["used_slots"] = float64(st.UsedSlots)
	result.Metrics["overflow_nodes"] = float64(st.OverflowNodes)
	if inserted > 0 {
		result.Metrics["bytes_per_key"] = float64(alloc.Outstanding()) / float64(inserted)
	}
	logger.Infof("Longest chain: %d", st.MaxChain)
	logger.Infof("Load factor: %.3f", st.LoadFactor)

	// Delete from the back so updated and plain keys are both exercised
	deletes := int(float64(len(keys)) * cfg.Ops.Deletes)
	err = phase("delete", "deletion_rate", deletes, func() error {
		for n := 0; n < deletes; n++ {
			i := len(keys) - 1 - n
			want := uint64(i)
			if i < updates {
				want += updateOffset
			}
			e, found := tbl.Del(keys[i])
			if found != present[i] {
				return errors.Errorf("delete %q: found=%v, expected %v", keys[i], found, present[i])
			}
			if found && (e.Key != keys[i] || e.Value != want) {
				return errors.Errorf("delete %q returned %q => %d", keys[i], e.Key, e.Value)
			}
			present[i] = false
			if _, found := tbl.Get(keys[i]); found {
				return errors.Errorf("key %q still present after delete", keys[i])
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	tbl.Free()
	freed = true
	if leaked := alloc.Outstanding(); leaked != 0 {
		return result, errors.Errorf("%s: teardown leaked %d bytes in %d blocks", cfg.Name, leaked, alloc.Blocks())
	}

	result.Operations = totalOps
	if totalOps > 0 {
		result.NsPerOp = float64(totalTime.Nanoseconds()) / float64(totalOps)
	}
	result.Metrics["operations"] = float64(totalOps)
	result.Metrics["ns_per_op"] = result.NsPerOp
	return result, nil
}

// RunSuite runs every workload of the suite, each on its own table, at most
// suite.Concurrency at a time. Results keep the suite order.
func RunSuite(ctx context.Context, suite *Suite, logger log.FieldLogger) ([]report.Result, error) {
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	results := make([]report.Result, len(suite.Workloads))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(suite.Concurrency)
	for i, cfg := range suite.Workloads {
		g.Go(func() error {
			r, err := Run(gctx, cfg, logger)
			if err != nil {
				return err
			}
			results[i] = r

			mu.Lock()
			done++
			logger.Infof("Completed %d of %d workloads (%s)", done, len(suite.Workloads), cfg.Name)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
