package cantus

import (
	"testing"

	"gotest.tools/v3/assert"
)

// go test -run ^TestEntityPacking$ . -count 1
func TestEntityPacking(t *testing.T) {
	e := NewEntity(0x00abcdef, 7)
	assert.Equal(t, e.Index(), uint32(0x00abcdef))
	assert.Equal(t, e.Generation(), uint8(7))
	assert.Equal(t, e.ID(), uint32(7<<24|0x00abcdef))
	assert.Equal(t, e.String(), "Entity(11259375:7)")
	assert.Equal(t, NoEntity.String(), "Entity(none)")

	assert.Equal(t, NewEntity(3, 0), NewEntity(3, 0))
	assert.Assert(t, NewEntity(3, 0) != NewEntity(3, 1))
}

// go test -run ^TestNewEntityRejectsBadInput$ . -count 1
func TestNewEntityRejectsBadInput(t *testing.T) {
	t.Run("IndexTooWide", func(t *testing.T) {
		defer func() { assert.Assert(t, recover() != nil) }()
		NewEntity(EntityIndexMask+1, 0)
	})
	t.Run("Sentinel", func(t *testing.T) {
		defer func() { assert.Assert(t, recover() != nil) }()
		NewEntity(EntityIndexMask, EntityGenerationMask)
	})
}

// go test -run ^TestEntityInstance$ . -count 1
func TestEntityInstance(t *testing.T) {
	assert.Assert(t, !NoInstance.IsValid())
	assert.Assert(t, EntityInstance(0).IsValid())
	assert.Equal(t, EntityInstance(12).String(), "12")
	assert.Equal(t, NoInstance.String(), "none")
}
