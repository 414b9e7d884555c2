package core

import "fmt"

// SlotAllocator hands out small integer ids, reusing freed slots before
// growing. A capacity of 0 means unbounded.
type SlotAllocator struct {
	owners   []interface{}
	capacity uint32
}

func NewSlotAllocator(capacity uint32) *SlotAllocator {
	return &SlotAllocator{
		capacity: capacity,
	}
}

func (sa *SlotAllocator) Acquire(owner interface{}) (uint32, error) {
	for i := uint32(0); i < uint32(len(sa.owners)); i++ {
		// Existing free spot. Take it.
		if sa.owners[i] == nil {
			sa.owners[i] = owner
			return i, nil
		}
	}

	// No free slots, push a new one.
	if sa.capacity > 0 && uint32(len(sa.owners)) >= sa.capacity {
		return 0, fmt.Errorf("slot allocator exhausted, all %d slots in use", sa.capacity)
	}
	sa.owners = append(sa.owners, owner)
	return uint32(len(sa.owners)) - 1, nil
}

func (sa *SlotAllocator) Release(id uint32) error {
	if id >= uint32(len(sa.owners)) {
		return fmt.Errorf("slot id '%d' out of range (max=%d), nothing was done", id, len(sa.owners))
	}
	sa.owners[id] = nil
	return nil
}

// InUse returns the number of occupied slots.
func (sa *SlotAllocator) InUse() uint32 {
	count := uint32(0)
	for _, o := range sa.owners {
		if o != nil {
			count++
		}
	}
	return count
}
