package cantus

import (
	"math"
	"strconv"
)

// NoInstance marks the absence of an instance: a missing component, a root's
// parent or the end of a sibling list. It is also the value persisted for
// empty tree links.
const NoInstance EntityInstance = math.MaxUint32

// EntityInstance is a row in a component system's dense arrays.
//
// Instances are not stable. Removing any component from a system may move
// another component into the freed row, so an EntityInstance must not be
// kept across a call that destroys components. Look it up again from the
// Entity instead.
type EntityInstance uint32

// IsValid reports whether i refers to a row rather than NoInstance.
func (i EntityInstance) IsValid() bool { return i != NoInstance }

func (i EntityInstance) String() string {
	if i == NoInstance {
		return "none"
	}
	return strconv.FormatUint(uint64(i), 10)
}
