/*
Package chainmap provides a fixed-capacity hash table with separate chaining
and a caller-supplied hash function.

Table is generic over the value type. Keys are strings. The number of slots
is fixed when the table is created and never changes, so a hash function is
always applied with the same capacity for the lifetime of the table.

Basic usage:

	import "github.com/theflywheel/chainmap"

	// 64 slots, default FNV-1a hashing
	t, err := chainmap.New[int](64, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer t.Free()

	// Insert or update
	if err := t.Put("answer", 42); err != nil {
		log.Fatal(err)
	}

	// Lookup
	if e, ok := t.Get("answer"); ok {
		fmt.Println(e.Key, "=>", e.Value)
	}

	// Delete, returning the removed entry
	if e, ok := t.Del("answer"); ok {
		fmt.Println("removed", e.Value)
	}

Features:

  - Generic values, stored by copy
  - Pluggable hash function: func(capacity int, key string) int
  - Collisions resolved by chaining; no rehashing, ever
  - Pluggable Allocator for memory budgets and leak accounting
  - Not safe for concurrent use; guard a shared table with a mutex

Implementation Details:

Each slot embeds the first entry of its chain. Further entries that hash to
the same slot live in an arena of overflow nodes linked by index, with
released nodes recycled through a freelist.

Put writes the head in place when the slot is empty or already holds the
key. Otherwise it walks the chain, updating the matching node or appending a
new one at the tail. Deleting the head promotes the first overflow node into
the slot, so a slot with a chain always has a head. Deleting any other node
splices it out of the chain.

Memory for the slot array and for every overflow node is charged to the
table's Allocator before it is used. An Allocator that refuses makes New or
Put return an *AllocationError and leaves the table as it was.
*/
package chainmap
