package compile

import "github.com/rotisserie/eris"

var (
	// ErrUnknownComponent is returned for a component whose type is not
	// recognised.
	ErrUnknownComponent = eris.New("unknown component type")
	// ErrBadVector is returned when a vector, quaternion or scale cannot be
	// parsed.
	ErrBadVector = eris.New("malformed vector")
	// ErrMissingField is returned when a transform lacks a required field.
	ErrMissingField = eris.New("missing field")
	// ErrBadIdentifier is returned for an entity or parent id that is not a
	// UUID.
	ErrBadIdentifier = eris.New("malformed entity identifier")
	// ErrUnknownParent is returned when a parent id names no entity with a
	// transform.
	ErrUnknownParent = eris.New("unknown parent")
	// ErrNotDirectory is returned when the output path is not a directory.
	ErrNotDirectory = eris.New("output path is not a directory")
)
