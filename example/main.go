package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/theflywheel/chainmap"
	"github.com/theflywheel/chainmap/hashfn"
)

type sample struct {
	data []int
	idx  byte
}

func main() {
	log.SetLevel(log.DebugLevel)

	// Track every allocation so the teardown can be checked
	alloc := chainmap.NewDebugAllocator(nil, log.StandardLogger())

	tbl, err := chainmap.New[sample](8, hashfn.DJB2, chainmap.WithAllocator(alloc))
	if err != nil {
		log.Fatalf("Failed to create table: %v", err)
	}

	fmt.Println("Table created with", tbl.Cap(), "slots")

	// Insert some data
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := tbl.Put(key, sample{idx: byte('a' + i)}); err != nil {
			log.Fatalf("Failed to insert %s: %v", key, err)
		}
	}
	if err := tbl.Put("foo", sample{data: []int{1, 2, 3}, idx: 'f'}); err != nil {
		log.Fatalf("Failed to insert foo: %v", err)
	}

	fmt.Printf("Inserted %d entries\n", tbl.Len())

	// Walk the table in bucket order
	for i := 0; i < tbl.Cap(); i++ {
		fmt.Printf("slot %d: chain of %d overflow entries\n", i, tbl.ChainLen(i))
	}
	tbl.Range(func(e chainmap.Entry[sample]) bool {
		fmt.Printf("%s -> %c\n", e.Key, e.Value.idx)
		return true
	})

	// Retrieve, including a key that is not there
	for _, key := range []string{"foo", "key-3", "missing"} {
		if e, found := tbl.Get(key); found {
			fmt.Printf("%s => %c %v\n", key, e.Value.idx, e.Value.data)
		} else {
			fmt.Printf("%s not found\n", key)
		}
	}

	// Update a value
	if err := tbl.Put("key-3", sample{idx: 'Z'}); err != nil {
		log.Fatalf("Failed to update key: %v", err)
	}
	if e, found := tbl.Get("key-3"); found {
		fmt.Printf("Updated key-3 => %c\n", e.Value.idx)
	}

	// Delete returns what was stored
	if e, found := tbl.Del("foo"); found {
		fmt.Printf("Deleted %s (%d values)\n", e.Key, len(e.Value.data))
	}

	st := tbl.Stats()
	fmt.Printf("Stats: %d entries in %d of %d slots, longest chain %d\n", st.Len, st.UsedSlots, st.Capacity, st.MaxChain)

	tbl.Free()
	fmt.Printf("Outstanding after free: %d bytes\n", alloc.Outstanding())
	fmt.Println("Example completed successfully")
}
