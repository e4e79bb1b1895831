package chainmap

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAllocation matches every *AllocationError
	ErrAllocation = errors.New("allocation failed")

	// ErrInvalidCapacity is returned by New for a non-positive capacity
	ErrInvalidCapacity = errors.New("capacity must be positive")
)

// AllocationError reports that the slot array or an overflow entry could not
// be obtained from the table's Allocator.
type AllocationError struct {
	Op   string  // "init" or "put"
	Size uintptr // bytes requested
	Err  error   // allocator error, if any
}

func (e *AllocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chainmap: %s: cannot allocate %d bytes: %v", e.Op, e.Size, e.Err)
	}
	return fmt.Sprintf("chainmap: %s: cannot allocate %d bytes", e.Op, e.Size)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAllocation) hold for any AllocationError.
func (e *AllocationError) Is(target error) bool {
	return target == ErrAllocation
}
