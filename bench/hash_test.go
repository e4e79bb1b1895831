package chainmap_test

import (
	"fmt"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/theflywheel/chainmap"
	"github.com/theflywheel/chainmap/hashfn"
	"github.com/theflywheel/chainmap/internal/report"
)

const stdCapacity = 4096

func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%08d", i)
	}
	return keys
}

func quietTable(b *testing.B, capacity int, hash chainmap.HashFunc) *chainmap.Table[int] {
	quiet := log.New()
	quiet.SetLevel(log.WarnLevel)
	tbl, err := chainmap.New[int](capacity, hash, chainmap.WithLogger(quiet))
	if err != nil {
		b.Fatalf("Failed to create table: %v", err)
	}
	b.Cleanup(tbl.Free)
	return tbl
}

// BenchmarkPut measures insert plus update cost for every registered hash
func BenchmarkPut(b *testing.B) {
	keys := benchKeys(stdCapacity * 2)
	for _, name := range hashfn.Names() {
		hash, err := hashfn.Lookup(name)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			tbl := quietTable(b, stdCapacity, hash)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := tbl.Put(keys[i%len(keys)], i); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkGet measures hits at a load factor of two
func BenchmarkGet(b *testing.B) {
	keys := benchKeys(stdCapacity * 2)
	for _, name := range hashfn.Names() {
		hash, err := hashfn.Lookup(name)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			tbl := quietTable(b, stdCapacity, hash)
			for i, k := range keys {
				if err := tbl.Put(k, i); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, found := tbl.Get(keys[i%len(keys)]); !found {
					b.Fatalf("key %s not found", keys[i%len(keys)])
				}
			}
		})
	}
}

// BenchmarkPutDel cycles one overflow entry through the freelist
func BenchmarkPutDel(b *testing.B) {
	tbl := quietTable(b, 1, hashfn.Constant(0))
	if err := tbl.Put("head", 0); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tbl.Put("tail", i); err != nil {
			b.Fatal(err)
		}
		tbl.Del("tail")
	}
}

// BenchmarkCollisionChains sends every key to one slot so each operation
// walks the full chain
func BenchmarkCollisionChains(b *testing.B) {
	b.N = 1

	numKeys := 2_000
	keys := benchKeys(numKeys)
	tbl := quietTable(b, 16, hashfn.Constant(7))

	result := report.Result{
		Name:       "CollisionChains",
		Category:   "scale",
		Operations: numKeys,
		Metrics:    make(map[string]float64),
	}

	b.ResetTimer()
	for i, k := range keys {
		if err := tbl.Put(k, i); err != nil {
			b.Fatalf("Failed to insert key %d: %v", i, err)
		}
	}
	for i, k := range keys {
		e, found := tbl.Get(k)
		if !found || e.Value != i {
			b.Fatalf("Key %d lost in chain", i)
		}
	}
	// Drop the newer half of the chain
	for i := numKeys / 2; i < numKeys; i++ {
		if _, found := tbl.Del(keys[i]); !found {
			b.Fatalf("Key %d not found for delete", i)
		}
	}
	b.StopTimer()

	st := recordTableStats(tbl, result.Metrics)
	b.Logf("Longest chain: %d", st.MaxChain)
	if st.MaxChain != numKeys/2 {
		b.Fatalf("expected chain of %d, got %d", numKeys/2, st.MaxChain)
	}

	if err := saveBenchmarkResult(result, "latest.json"); err != nil {
		b.Logf("Failed to save benchmark result to latest.json: %v", err)
	}
}
