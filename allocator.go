package chainmap

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Allocator accounts for the memory a Table obtains. Alloc is called before
// the slot array or an overflow entry is created and may refuse; Free is
// called with the same size once the memory is released.
type Allocator interface {
	Alloc(size uintptr) error
	Free(size uintptr)
}

// HeapAllocator never refuses. It is the default.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(uintptr) error { return nil }
func (HeapAllocator) Free(uintptr)        {}

// BudgetAllocator hands out bytes from a fixed budget, like a linear arena
// that also accepts frees.
type BudgetAllocator struct {
	limit uintptr
	used  uintptr
}

// NewBudgetAllocator creates an allocator that refuses once limit bytes are in use
func NewBudgetAllocator(limit uintptr) *BudgetAllocator {
	return &BudgetAllocator{limit: limit}
}

func (b *BudgetAllocator) Alloc(size uintptr) error {
	if size > b.limit-b.used {
		return errors.Errorf("budget exhausted: %d of %d bytes in use, %d requested", b.used, b.limit, size)
	}
	b.used += size
	return nil
}

func (b *BudgetAllocator) Free(size uintptr) {
	if size > b.used {
		size = b.used
	}
	b.used -= size
}

// Used returns the number of bytes currently handed out
func (b *BudgetAllocator) Used() uintptr { return b.used }

// Left returns the number of bytes still available
func (b *BudgetAllocator) Left() uintptr { return b.limit - b.used }

// DebugAllocator logs every allocation and release and keeps a running
// balance so callers can check that a table released everything it took.
type DebugAllocator struct {
	mu          sync.Mutex
	next        Allocator
	log         log.FieldLogger
	outstanding uintptr
	blocks      int
	allocs      int
	frees       int
}

// NewDebugAllocator wraps next (HeapAllocator when nil)
func NewDebugAllocator(next Allocator, logger log.FieldLogger) *DebugAllocator {
	if next == nil {
		next = HeapAllocator{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &DebugAllocator{next: next, log: logger}
}

func (d *DebugAllocator) Alloc(size uintptr) error {
	if err := d.next.Alloc(size); err != nil {
		if debugEnabled(d.log) {
			d.log.Debugf("! %d: %v", size, err)
		}
		return err
	}
	d.mu.Lock()
	d.outstanding += size
	d.blocks++
	d.allocs++
	d.mu.Unlock()
	if debugEnabled(d.log) {
		d.log.Debugf("+ %d", size)
	}
	return nil
}

func (d *DebugAllocator) Free(size uintptr) {
	d.next.Free(size)
	d.mu.Lock()
	d.outstanding -= size
	d.blocks--
	d.frees++
	d.mu.Unlock()
	if debugEnabled(d.log) {
		d.log.Debugf("- %d", size)
	}
}

// Outstanding returns bytes allocated and not yet freed
func (d *DebugAllocator) Outstanding() uintptr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outstanding
}

// Blocks returns the number of live allocations
func (d *DebugAllocator) Blocks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blocks
}

// Counts returns the total number of Alloc and Free calls that succeeded
func (d *DebugAllocator) Counts() (allocs, frees int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocs, d.frees
}

// debugEnabled avoids building log fields on hot paths when debug output is off
func debugEnabled(l log.FieldLogger) bool {
	switch l := l.(type) {
	case *log.Logger:
		return l.IsLevelEnabled(log.DebugLevel)
	case *log.Entry:
		return l.Logger.IsLevelEnabled(log.DebugLevel)
	}
	return true
}
