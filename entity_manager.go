package cantus

import "fmt"

// MinimumFreeIndices is how many destroyed slots must be queued before the
// EntityManager starts recycling them. Delaying reuse keeps a recently freed
// slot from being handed out again while other systems may still hold its
// old handle for a few frames.
const MinimumFreeIndices = 1024

// maxGeneration is the last generation a slot can carry. Destroying a slot at
// this generation retires it instead of wrapping back to zero.
const maxGeneration = EntityGenerationMask

// EntityManager allocates and recycles Entity handles and records which
// entities were destroyed since the last ClearDestroyed.
type EntityManager struct {
	generation []uint8
	// freeIndices is a FIFO queue; head is the offset of its oldest element.
	freeIndices []uint32
	head        int
	retired     map[uint32]struct{}
	destroyed   []Entity
	live        int
}

// NewEntityManager returns an empty manager.
func NewEntityManager() *EntityManager {
	return &EntityManager{}
}

// Create returns a new live entity.
//
// Freed slots are only reused once more than MinimumFreeIndices of them are
// queued; until then every call allocates a fresh slot. A manager that has
// never destroyed anything therefore hands out ids 0, 1, 2, ... in order.
//
// Create panics when the 24-bit index space is exhausted. Callers creating
// entities on behalf of untrusted input check Available first.
//
// Returns:
//   - The new entity. Its generation is 0 for a fresh slot, or the slot's
//     bumped generation when a freed slot is recycled.
func (m *EntityManager) Create() Entity {
	var index uint32
	if m.freeLen() > MinimumFreeIndices {
		index = m.popFree()
	} else {
		// The last index is withheld so that no slot can ever pack to NoEntity.
		if len(m.generation) >= EntityIndexMask {
			panic(fmt.Sprintf("cantus: entity capacity exhausted (%d slots)", EntityIndexMask))
		}
		m.generation = append(m.generation, 0)
		index = uint32(len(m.generation) - 1)
	}
	m.live++
	return NewEntity(index, m.generation[index])
}

// Destroy kills e. Its slot generation is bumped so every copy of the handle
// becomes stale, the slot is queued for reuse and e is recorded in the
// destroyed buffer.
//
// Parameters:
//   - e: The entity to destroy.
//
// Returns:
//   - ErrStaleEntity if e is not alive, in which case nothing changes.
func (m *EntityManager) Destroy(e Entity) error {
	if !m.Alive(e) {
		return ErrStaleEntity
	}
	index := e.Index()
	if m.generation[index] == maxGeneration {
		// Wrapping would make the generation-0 handle alive again.
		if m.retired == nil {
			m.retired = make(map[uint32]struct{})
		}
		m.retired[index] = struct{}{}
	} else {
		m.generation[index]++
		m.freeIndices = append(m.freeIndices, index)
	}
	m.destroyed = append(m.destroyed, e)
	m.live--
	return nil
}

// Alive reports whether e is the current handle for its slot. It never
// mutates the manager.
func (m *EntityManager) Alive(e Entity) bool {
	index := e.Index()
	if e == NoEntity || int(index) >= len(m.generation) {
		return false
	}
	if _, ok := m.retired[index]; ok {
		return false
	}
	return m.generation[index] == e.Generation()
}

// PollDestroyed returns the entities destroyed since the last
// ClearDestroyed. The slice is owned by the manager and is only valid until
// the next Destroy or ClearDestroyed.
func (m *EntityManager) PollDestroyed() []Entity {
	return m.destroyed
}

// ClearDestroyed empties the destroyed buffer. The frame driver calls it once
// per frame after every system has polled.
func (m *EntityManager) ClearDestroyed() {
	m.destroyed = m.destroyed[:0]
}

// Len returns the number of live entities.
func (m *EntityManager) Len() int { return m.live }

// Cap returns the number of slots ever allocated.
func (m *EntityManager) Cap() int { return len(m.generation) }

// Available returns how many more entities Create can return without
// panicking: the unallocated slots plus the queued slots past the reuse
// threshold.
func (m *EntityManager) Available() int {
	n := EntityIndexMask - len(m.generation)
	if free := m.freeLen(); free > MinimumFreeIndices {
		n += free - MinimumFreeIndices
	}
	return n
}

func (m *EntityManager) freeLen() int { return len(m.freeIndices) - m.head }

func (m *EntityManager) popFree() uint32 {
	index := m.freeIndices[m.head]
	m.head++
	// Compact once the consumed prefix dominates so the queue does not grow
	// without bound under steady churn.
	if m.head > MinimumFreeIndices && m.head*2 >= len(m.freeIndices) {
		n := copy(m.freeIndices, m.freeIndices[m.head:])
		m.freeIndices = m.freeIndices[:n]
		m.head = 0
	}
	return index
}
