// Package cantus is the runtime data store of a small entity-component scene.
//
// It provides generational entity handles, a structure-of-arrays transform
// component system that keeps a parent/child hierarchy and eagerly derived
// world transforms, and the little-endian binary format used to persist them.
//
// Nothing in this package is safe for concurrent use. A host that drives a
// scene from several goroutines must serialise every call behind one lock.
package cantus

import (
	"fmt"
	"math"
)

const (
	// EntityIndexBits is the width of the slot index inside an Entity.
	EntityIndexBits = 24
	// EntityIndexMask masks the slot index out of a packed Entity.
	EntityIndexMask = 1<<EntityIndexBits - 1

	// EntityGenerationBits is the width of the generation counter. The
	// EntityManager stores generations as uint8, so widening this needs a
	// matching change there.
	EntityGenerationBits = 8
	// EntityGenerationMask masks the generation after shifting out the index.
	EntityGenerationMask = 1<<EntityGenerationBits - 1
)

// NoEntity is the reserved all-ones id. No live entity ever packs to it, so
// systems may use it as a "no entity" marker.
const NoEntity Entity = math.MaxUint32

// Entity is an opaque generational handle: a 24-bit slot index in the low
// bits and an 8-bit generation above it. Entities compare and hash by value.
type Entity uint32

// NewEntity packs index and generation into an Entity. It panics if index
// does not fit in EntityIndexBits or the packed value would be NoEntity.
func NewEntity(index uint32, generation uint8) Entity {
	if index > EntityIndexMask {
		panic(fmt.Sprintf("cantus: entity index %d exceeds %d bits", index, EntityIndexBits))
	}
	e := Entity(uint32(generation)<<EntityIndexBits | index)
	if e == NoEntity {
		panic("cantus: entity id collides with NoEntity")
	}
	return e
}

// ID returns the packed 32-bit value.
func (e Entity) ID() uint32 { return uint32(e) }

// Index returns the slot index.
func (e Entity) Index() uint32 { return uint32(e) & EntityIndexMask }

// Generation returns the slot generation the handle was issued with.
func (e Entity) Generation() uint8 {
	return uint8(uint32(e) >> EntityIndexBits & EntityGenerationMask)
}

func (e Entity) String() string {
	if e == NoEntity {
		return "Entity(none)"
	}
	return fmt.Sprintf("Entity(%d:%d)", e.Index(), e.Generation())
}
