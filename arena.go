package chainmap

import (
	"math"

	"github.com/pkg/errors"
)

// ref addresses a node in the arena. The zero ref means "no node", so a
// zeroed slot has no overflow chain.
type ref uint32

const noRef ref = 0

var errArenaFull = errors.New("overflow arena full")

// node is an overflow entry.
type node[V any] struct {
	entry Entry[V]
	next  ref
}

// arena stores overflow entries by index and recycles released ones through
// a freelist threaded on the next field.
type arena[V any] struct {
	nodes []node[V]
	free  ref
	live  int
	idle  int
}

// alloc returns a zeroed node. Pointers obtained from at are invalid after
// alloc returns, since the backing slice may grow.
func (a *arena[V]) alloc() ref {
	a.live++
	if a.free != noRef {
		r := a.free
		n := a.at(r)
		a.free = n.next
		n.next = noRef
		a.idle--
		return r
	}
	a.nodes = append(a.nodes, node[V]{})
	return ref(len(a.nodes))
}

// full reports whether alloc would run out of refs
func (a *arena[V]) full() bool {
	return a.free == noRef && uint64(len(a.nodes)) >= math.MaxUint32
}

func (a *arena[V]) at(r ref) *node[V] {
	return &a.nodes[r-1]
}

// release zeroes the node and pushes it on the freelist
func (a *arena[V]) release(r ref) {
	n := a.at(r)
	*n = node[V]{next: a.free}
	a.free = r
	a.live--
	a.idle++
}

func (a *arena[V]) reset() {
	a.nodes = nil
	a.free = noRef
	a.live = 0
	a.idle = 0
}
