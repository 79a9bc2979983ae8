package cantus

import "github.com/rotisserie/eris"

var (
	// ErrStaleEntity is returned when an operation is given an entity whose
	// generation no longer matches its slot.
	ErrStaleEntity = eris.New("stale entity handle")
	// ErrComponentExists is returned when an entity already owns a component in
	// the system being written to.
	ErrComponentExists = eris.New("entity already has a component")
	// ErrNoComponent is returned when an entity owns no component in the system.
	ErrNoComponent = eris.New("entity has no component")
	// ErrCyclicParent is returned by SetParent when the link would make an
	// instance its own ancestor.
	ErrCyclicParent = eris.New("parent link would create a cycle")

	// ErrTruncated is returned when a scene stream ends early.
	ErrTruncated = eris.New("scene data truncated")
	// ErrLinkOutOfRange is returned when a persisted tree link points outside
	// the table it was saved with.
	ErrLinkOutOfRange = eris.New("tree link out of range")
	// ErrEntityCountMismatch is returned when the id table given to Load does
	// not match the number of persisted rows.
	ErrEntityCountMismatch = eris.New("entity count mismatch")
	// ErrMalformedTree is returned when persisted links are in range but do not
	// describe a consistent hierarchy.
	ErrMalformedTree = eris.New("malformed transform hierarchy")
	// ErrCapacityExhausted is returned when a scene asks for more entities than
	// the manager has slots left to hand out.
	ErrCapacityExhausted = eris.New("entity capacity exhausted")
	// ErrUnknownEntity is returned when a persisted entity id does not resolve
	// to an entity created for the scene.
	ErrUnknownEntity = eris.New("unknown persisted entity")

	// ErrResourceExists is returned when a scene already holds a resource of
	// the type being added.
	ErrResourceExists = eris.New("resource of this type already exists")
)
