package cantus

import (
	"testing"

	"gotest.tools/v3/assert"
)

// go test -run ^TestSequentialCreate$ . -count 1
func TestSequentialCreate(t *testing.T) {
	m := NewEntityManager()
	for i := range 1000 {
		e := m.Create()
		assert.Equal(t, e.ID(), uint32(i))
		assert.Assert(t, m.Alive(e))
	}
	assert.Equal(t, m.Len(), 1000)
	assert.Equal(t, m.Cap(), 1000)
}

// go test -run ^TestDestroyKillsHandle$ . -count 1
func TestDestroyKillsHandle(t *testing.T) {
	m := NewEntityManager()
	e := m.Create()
	assert.NilError(t, m.Destroy(e))
	assert.Assert(t, !m.Alive(e))
	assert.Equal(t, m.Len(), 0)

	// Below the reuse threshold a fresh slot is allocated.
	next := m.Create()
	assert.Equal(t, next.Index(), uint32(1))
}

// go test -run ^TestSlotReuse$ . -count 1
func TestSlotReuse(t *testing.T) {
	m := NewEntityManager()
	var ents []Entity
	for range MinimumFreeIndices + 2 {
		ents = append(ents, m.Create())
	}
	for _, e := range ents {
		assert.NilError(t, m.Destroy(e))
	}

	// The oldest freed slot comes back first, one generation later.
	reused := m.Create()
	assert.Equal(t, reused.Index(), ents[0].Index())
	assert.Assert(t, reused.Generation() > ents[0].Generation())
	assert.Assert(t, m.Alive(reused))
	assert.Assert(t, !m.Alive(ents[0]))

	reused = m.Create()
	assert.Equal(t, reused.Index(), ents[1].Index())

	// Only MinimumFreeIndices remain queued, so allocation grows again.
	fresh := m.Create()
	assert.Equal(t, fresh.Index(), uint32(len(ents)))
}

// go test -run ^TestDoubleDestroy$ . -count 1
func TestDoubleDestroy(t *testing.T) {
	m := NewEntityManager()
	e := m.Create()
	assert.NilError(t, m.Destroy(e))
	assert.ErrorIs(t, m.Destroy(e), ErrStaleEntity)

	assert.Equal(t, m.generation[e.Index()], uint8(1))
	assert.Equal(t, m.freeLen(), 1)
	assert.Equal(t, len(m.PollDestroyed()), 1)
}

// go test -run ^TestAliveUnknownSlot$ . -count 1
func TestAliveUnknownSlot(t *testing.T) {
	m := NewEntityManager()
	assert.Assert(t, !m.Alive(NewEntity(5, 0)))
	assert.Assert(t, !m.Alive(NoEntity))
	assert.ErrorIs(t, m.Destroy(NewEntity(5, 0)), ErrStaleEntity)
}

// go test -run ^TestGenerationRetire$ . -count 1
func TestGenerationRetire(t *testing.T) {
	m := NewEntityManager()
	first := m.Create()
	m.generation[first.Index()] = maxGeneration
	last := NewEntity(first.Index(), maxGeneration)
	assert.Assert(t, m.Alive(last))

	assert.NilError(t, m.Destroy(last))
	assert.Assert(t, !m.Alive(last))
	assert.Assert(t, !m.Alive(first), "generation must not wrap back to 0")
	assert.Equal(t, m.freeLen(), 0, "retired slot must not be queued")
	assert.ErrorIs(t, m.Destroy(last), ErrStaleEntity)
}

// go test -run ^TestPollAndClearDestroyed$ . -count 1
func TestPollAndClearDestroyed(t *testing.T) {
	m := NewEntityManager()
	a, b, c := m.Create(), m.Create(), m.Create()
	assert.NilError(t, m.Destroy(c))
	assert.NilError(t, m.Destroy(a))
	assert.DeepEqual(t, m.PollDestroyed(), []Entity{c, a})
	assert.Assert(t, m.Alive(b))

	m.ClearDestroyed()
	assert.Equal(t, len(m.PollDestroyed()), 0)
}

// go test -run ^TestFreeQueueCompaction$ . -count 1
func TestFreeQueueCompaction(t *testing.T) {
	m := NewEntityManager()
	for range 3 * MinimumFreeIndices {
		assert.NilError(t, m.Destroy(m.Create()))
	}
	for range 4 * MinimumFreeIndices {
		e := m.Create()
		assert.Assert(t, m.Alive(e))
		assert.NilError(t, m.Destroy(e))
	}
	assert.Assert(t, m.freeLen() > MinimumFreeIndices)
	assert.Assert(t, m.head <= len(m.freeIndices))
	assert.Assert(t, len(m.freeIndices) < 4*MinimumFreeIndices)
}

// go test -run ^TestAvailable$ . -count 1
func TestAvailable(t *testing.T) {
	m := NewEntityManager()
	assert.Equal(t, m.Available(), EntityIndexMask)

	const n = MinimumFreeIndices + 6
	ents := make([]Entity, n)
	for k := range ents {
		ents[k] = m.Create()
	}
	assert.Equal(t, m.Available(), EntityIndexMask-n)

	// Only the queued slots past the reuse threshold count as available.
	for _, e := range ents {
		assert.NilError(t, m.Destroy(e))
	}
	assert.Equal(t, m.Available(), EntityIndexMask-n+6)
	for range 6 {
		m.Create()
	}
	assert.Equal(t, m.Cap(), n)
	assert.Equal(t, m.Available(), EntityIndexMask-n)
}
