package chainmap

import (
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
)

// HashFunc maps a key to a slot index in [0, capacity). It must be
// deterministic for a given key and capacity.
type HashFunc func(capacity int, key string) int

// Entry is a key/value pair stored in a Table
type Entry[V any] struct {
	Key   string
	Value V
}

// slot is the head of a chain, embedded in the slot array
type slot[V any] struct {
	entry Entry[V]
	used  bool
	next  ref
}

// Table is a fixed-capacity hash map with separate chaining. It is not safe
// for concurrent use.
type Table[V any] struct {
	hash     HashFunc
	slots    []slot[V]
	nodes    arena[V]
	alloc    Allocator
	log      log.FieldLogger
	count    int
	slotSize uintptr
	nodeSize uintptr
	freed    bool
}

// maxSlotBytes bounds the slot array below the runtime's allocation limit:
// 128 TiB on 64-bit platforms, 2 GiB on 32-bit ones.
const maxSlotBytes = 1 << (31 + 16*(^uintptr(0)>>63))

// Option configures a Table
type Option func(*options)

type options struct {
	alloc  Allocator
	logger log.FieldLogger
}

// WithAllocator charges slot array and overflow entry memory to the
// allocator a
func WithAllocator(a Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithLogger sets the logger used for debug output
func WithLogger(l log.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a table with capacity slots. A nil hash selects FNV1a.
func New[V any](capacity int, hash HashFunc, opts ...Option) (*Table[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("chainmap: init with capacity %d: %w", capacity, ErrInvalidCapacity)
	}
	o := options{alloc: HeapAllocator{}, logger: log.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if hash == nil {
		hash = FNV1a
	}

	t := &Table[V]{
		hash:     hash,
		alloc:    o.alloc,
		log:      o.logger,
		slotSize: unsafe.Sizeof(slot[V]{}),
		nodeSize: unsafe.Sizeof(node[V]{}),
	}

	if uintptr(capacity) > ^uintptr(0)/t.slotSize {
		return nil, &AllocationError{Op: "init", Size: ^uintptr(0), Err: fmt.Errorf("%d slots overflow the address space", capacity)}
	}
	size := uintptr(capacity) * t.slotSize
	if size > maxSlotBytes {
		return nil, &AllocationError{Op: "init", Size: size, Err: fmt.Errorf("%d slots exceed the %d byte limit", capacity, uint64(maxSlotBytes))}
	}
	if err := t.alloc.Alloc(size); err != nil {
		return nil, &AllocationError{Op: "init", Size: size, Err: err}
	}
	t.slots = make([]slot[V], capacity)

	if debugEnabled(t.log) {
		t.log.WithFields(log.Fields{"capacity": capacity, "bytes": size}).Debug("chainmap: table initialized")
	}
	return t, nil
}

// Cap returns the number of slots
func (t *Table[V]) Cap() int {
	return len(t.slots)
}

// Len returns the number of entries
func (t *Table[V]) Len() int {
	return t.count
}

func (t *Table[V]) index(key string) int {
	if t.freed {
		panic("chainmap: use of freed table")
	}
	idx := t.hash(len(t.slots), key)
	if idx < 0 || idx >= len(t.slots) {
		panic(fmt.Sprintf("chainmap: hash of %q returned %d, outside [0, %d)", key, idx, len(t.slots)))
	}
	return idx
}

// collides reports whether the slot holds an entry for a different key. An
// empty slot and a slot holding key itself do not collide.
func (t *Table[V]) collides(s *slot[V], key string) bool {
	switch {
	case !s.used:
		return false
	case s.entry.Key == key:
		return false
	default:
		return true
	}
}

// Put inserts or updates key. It fails only when a new overflow entry is
// needed and the allocator refuses it; the table is then unchanged.
func (t *Table[V]) Put(key string, value V) error {
	idx := t.index(key)
	s := &t.slots[idx]

	if !t.collides(s, key) {
		if !s.used {
			t.count++
		}
		s.entry = Entry[V]{Key: key, Value: value}
		s.used = true
		return nil
	}

	// Walk the chain, updating in place if the key is already there
	tail := noRef
	for r := s.next; r != noRef; r = t.nodes.at(r).next {
		n := t.nodes.at(r)
		if n.entry.Key == key {
			n.entry.Value = value
			return nil
		}
		tail = r
	}

	if t.nodes.full() {
		return &AllocationError{Op: "put", Size: t.nodeSize, Err: errArenaFull}
	}
	if err := t.alloc.Alloc(t.nodeSize); err != nil {
		return &AllocationError{Op: "put", Size: t.nodeSize, Err: err}
	}
	r := t.nodes.alloc()
	n := t.nodes.at(r)
	n.entry = Entry[V]{Key: key, Value: value}
	if tail == noRef {
		s.next = r
	} else {
		t.nodes.at(tail).next = r
	}
	t.count++

	if debugEnabled(t.log) {
		t.log.WithFields(log.Fields{"slot": idx, "key": key}).Debug("chainmap: collision, overflow entry appended")
	}
	return nil
}

// Get returns the entry stored under key
func (t *Table[V]) Get(key string) (Entry[V], bool) {
	idx := t.index(key)
	s := &t.slots[idx]

	if !t.collides(s, key) {
		if !s.used {
			return Entry[V]{}, false
		}
		return s.entry, true
	}

	for r := s.next; r != noRef; {
		n := t.nodes.at(r)
		if n.entry.Key == key {
			return n.entry, true
		}
		r = n.next
	}
	return Entry[V]{}, false
}

// Del removes key and returns the entry it held
func (t *Table[V]) Del(key string) (Entry[V], bool) {
	idx := t.index(key)
	s := &t.slots[idx]

	if !t.collides(s, key) {
		if !s.used {
			return Entry[V]{}, false
		}
		removed := s.entry
		if s.next == noRef {
			*s = slot[V]{}
		} else {
			// Promote the first overflow entry so the head stays populated
			first := s.next
			n := t.nodes.at(first)
			s.entry = n.entry
			s.next = n.next
			t.releaseNode(first)
			if debugEnabled(t.log) {
				t.log.WithFields(log.Fields{"slot": idx, "key": s.entry.Key}).Debug("chainmap: overflow entry promoted to head")
			}
		}
		t.count--
		return removed, true
	}

	prev := noRef
	for r := s.next; r != noRef; {
		n := t.nodes.at(r)
		if n.entry.Key != key {
			prev = r
			r = n.next
			continue
		}
		removed := n.entry
		if prev == noRef {
			s.next = n.next
		} else {
			t.nodes.at(prev).next = n.next
		}
		t.releaseNode(r)
		t.count--
		return removed, true
	}
	return Entry[V]{}, false
}

func (t *Table[V]) releaseNode(r ref) {
	t.nodes.release(r)
	t.alloc.Free(t.nodeSize)
}

// Free releases every overflow entry and the slot array. The table must not
// be used afterwards; calling Free again has no effect.
func (t *Table[V]) Free() {
	if t.freed {
		return
	}
	released := 0
	for i := range t.slots {
		for r := t.slots[i].next; r != noRef; {
			next := t.nodes.at(r).next
			t.releaseNode(r)
			released++
			r = next
		}
	}
	t.alloc.Free(uintptr(len(t.slots)) * t.slotSize)

	if debugEnabled(t.log) {
		t.log.WithFields(log.Fields{"capacity": len(t.slots), "overflow": released}).Debug("chainmap: table freed")
	}

	t.nodes.reset()
	t.slots = nil
	t.count = 0
	t.freed = true
}

// Range calls fn for every entry in slot order, head first and then along
// the chain, until fn returns false. The table must not be modified during
// the call.
func (t *Table[V]) Range(fn func(Entry[V]) bool) {
	if t.freed {
		panic("chainmap: use of freed table")
	}
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			continue
		}
		if !fn(s.entry) {
			return
		}
		for r := s.next; r != noRef; {
			n := t.nodes.at(r)
			if !fn(n.entry) {
				return
			}
			r = n.next
		}
	}
}

// ChainLen returns the number of overflow entries behind slot i
func (t *Table[V]) ChainLen(i int) int {
	if t.freed {
		panic("chainmap: use of freed table")
	}
	n := 0
	for r := t.slots[i].next; r != noRef; r = t.nodes.at(r).next {
		n++
	}
	return n
}

// Stats describes how entries are spread over the table
type Stats struct {
	Capacity      int     `json:"capacity"`
	Len           int     `json:"len"`
	UsedSlots     int     `json:"used_slots"`
	OverflowNodes int     `json:"overflow_nodes"`
	FreeNodes     int     `json:"free_nodes"`
	MaxChain      int     `json:"max_chain"`
	LoadFactor    float64 `json:"load_factor"`
}

// Stats walks every slot; it is O(capacity + entries)
func (t *Table[V]) Stats() Stats {
	if t.freed {
		panic("chainmap: use of freed table")
	}
	st := Stats{
		Capacity:      len(t.slots),
		Len:           t.count,
		OverflowNodes: t.nodes.live,
		FreeNodes:     t.nodes.idle,
		LoadFactor:    float64(t.count) / float64(len(t.slots)),
	}
	for i := range t.slots {
		if !t.slots[i].used {
			continue
		}
		st.UsedSlots++
		// the head counts as the first link of the chain
		if l := t.ChainLen(i) + 1; l > st.MaxChain {
			st.MaxChain = l
		}
	}
	return st
}
