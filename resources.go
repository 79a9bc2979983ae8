package cantus

import (
	"reflect"

	"github.com/rotisserie/eris"
)

// Resources holds at most one value per type: scene-wide singletons such as a
// frame clock that are not attached to any entity. Values are stored by
// pointer so holders can update them in place.
//
// The zero value is ready to use.
type Resources struct {
	items map[reflect.Type]any
}

// AddResource stores res as the scene's T. It returns ErrResourceExists if a
// T is already present.
func AddResource[T any](r *Resources, res *T) error {
	if res == nil {
		return eris.New("cannot add nil resource")
	}
	t := reflect.TypeFor[T]()
	if _, ok := r.items[t]; ok {
		return eris.Wrapf(ErrResourceExists, "add %v", t)
	}
	if r.items == nil {
		r.items = make(map[reflect.Type]any)
	}
	r.items[t] = res
	return nil
}

// GetResource returns the stored T, or nil and false.
func GetResource[T any](r *Resources) (*T, bool) {
	res, ok := r.items[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return res.(*T), true
}

// RemoveResource drops the stored T and reports whether there was one.
func RemoveResource[T any](r *Resources) bool {
	t := reflect.TypeFor[T]()
	if _, ok := r.items[t]; !ok {
		return false
	}
	delete(r.items, t)
	return true
}

// Len returns the number of stored resources.
func (r *Resources) Len() int { return len(r.items) }

// Clear removes every resource.
func (r *Resources) Clear() { clear(r.items) }
