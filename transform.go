package cantus

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"
)

// TransformSystem owns the transform component of every entity that has one.
//
// Component fields live in parallel dense arrays indexed by EntityInstance.
// Each instance also carries intrusive hierarchy links (parent, first child,
// next and previous sibling) stored as plain instance numbers, and a world
// transform derived from its local transform and its parent's world
// transform. Every mutating call leaves the world transforms of the touched
// subtree consistent before it returns.
//
// Scale is uniform. Roots are composed against an identity transform.
type TransformSystem struct {
	entities []Entity
	index    map[Entity]EntityInstance

	localPosition []mgl32.Vec3
	localRotation []mgl32.Quat
	localScale    []float32

	worldPosition []mgl32.Vec3
	worldRotation []mgl32.Quat
	worldScale    []float32

	parent      []EntityInstance
	firstChild  []EntityInstance
	nextSibling []EntityInstance
	prevSibling []EntityInstance

	// scratch buffers reused by subtree walks
	walk   []EntityInstance
	doomed []Entity
}

// NewTransformSystem returns an empty system.
func NewTransformSystem() *TransformSystem {
	return &TransformSystem{
		index: make(map[Entity]EntityInstance),
	}
}

// Exists reports whether e has a transform component.
func (ts *TransformSystem) Exists(e Entity) bool {
	_, ok := ts.index[e]
	return ok
}

// Count returns the number of transform components.
func (ts *TransformSystem) Count() int { return len(ts.entities) }

// GetInstance returns the current instance of e, or NoInstance if e has no
// transform component.
func (ts *TransformSystem) GetInstance(e Entity) EntityInstance {
	if i, ok := ts.index[e]; ok {
		return i
	}
	return NoInstance
}

// GetEntity returns the entity that owns instance i.
func (ts *TransformSystem) GetEntity(i EntityInstance) Entity { return ts.entities[i] }

// Create appends a default transform for e: origin, identity rotation, unit
// scale and no hierarchy links.
//
// Parameters:
//   - e: The entity to attach the transform to.
//
// Returns:
//   - The instance of the new row, which is always the last one.
//   - ErrComponentExists if e already has a transform. The instance returned
//     alongside it is the existing one.
func (ts *TransformSystem) Create(e Entity) (EntityInstance, error) {
	if i, ok := ts.index[e]; ok {
		return i, eris.Wrapf(ErrComponentExists, "transform for %v", e)
	}
	return ts.create(e), nil
}

// CreateOrGetInstance returns the instance of e, creating a default
// transform first if e has none.
func (ts *TransformSystem) CreateOrGetInstance(e Entity) EntityInstance {
	if i, ok := ts.index[e]; ok {
		return i
	}
	return ts.create(e)
}

func (ts *TransformSystem) create(e Entity) EntityInstance {
	i := EntityInstance(len(ts.entities))
	ident := mgl32.QuatIdent()

	ts.entities = append(ts.entities, e)
	ts.localPosition = append(ts.localPosition, mgl32.Vec3{})
	ts.localRotation = append(ts.localRotation, ident)
	ts.localScale = append(ts.localScale, 1)
	ts.worldPosition = append(ts.worldPosition, mgl32.Vec3{})
	ts.worldRotation = append(ts.worldRotation, ident)
	ts.worldScale = append(ts.worldScale, 1)
	ts.parent = append(ts.parent, NoInstance)
	ts.firstChild = append(ts.firstChild, NoInstance)
	ts.nextSibling = append(ts.nextSibling, NoInstance)
	ts.prevSibling = append(ts.prevSibling, NoInstance)

	ts.index[e] = i
	return i
}

// Destroy removes the transform of e together with the transforms of all of
// its descendants, deepest first.
//
// Parameters:
//   - e: The entity whose transform subtree is removed.
//
// Returns:
//   - ErrNoComponent if e has no transform.
//
// Removal fills each freed row with the last row, so any EntityInstance
// obtained before the call may now be wrong.
func (ts *TransformSystem) Destroy(e Entity) error {
	root, ok := ts.index[e]
	if !ok {
		return eris.Wrapf(ErrNoComponent, "destroy transform for %v", e)
	}
	ts.destroySubtree(root)
	return nil
}

// HandleDestroyed destroys the transform of every listed entity that still
// has one. Entities already removed as descendants of an earlier entry are
// skipped.
func (ts *TransformSystem) HandleDestroyed(entities []Entity) {
	for _, e := range entities {
		if root, ok := ts.index[e]; ok {
			ts.destroySubtree(root)
		}
	}
}

func (ts *TransformSystem) destroySubtree(root EntityInstance) {
	// Pre-order collects every ancestor before its descendants, so walking
	// the list backwards removes leaves first. Entities rather than
	// instances are collected because each removal may renumber rows.
	ts.doomed = ts.doomed[:0]
	ts.walk = append(ts.walk[:0], root)
	for len(ts.walk) > 0 {
		n := ts.walk[len(ts.walk)-1]
		ts.walk = ts.walk[:len(ts.walk)-1]
		ts.doomed = append(ts.doomed, ts.entities[n])
		for c := ts.firstChild[n]; c.IsValid(); c = ts.nextSibling[c] {
			ts.walk = append(ts.walk, c)
		}
	}
	for k := len(ts.doomed) - 1; k >= 0; k-- {
		ts.remove(ts.index[ts.doomed[k]])
	}
}

// remove deletes a childless row by unlinking it and moving the last row
// into its place.
func (ts *TransformSystem) remove(i EntityInstance) {
	e := ts.entities[i]
	ts.unlink(i)

	last := EntityInstance(len(ts.entities) - 1)
	if i != last {
		ts.move(last, i)
	}

	ts.entities = ts.entities[:last]
	ts.localPosition = ts.localPosition[:last]
	ts.localRotation = ts.localRotation[:last]
	ts.localScale = ts.localScale[:last]
	ts.worldPosition = ts.worldPosition[:last]
	ts.worldRotation = ts.worldRotation[:last]
	ts.worldScale = ts.worldScale[:last]
	ts.parent = ts.parent[:last]
	ts.firstChild = ts.firstChild[:last]
	ts.nextSibling = ts.nextSibling[:last]
	ts.prevSibling = ts.prevSibling[:last]

	delete(ts.index, e)
}

// move copies row from into row to and repoints every link that referred to
// from. Row to must already be unlinked.
func (ts *TransformSystem) move(from, to EntityInstance) {
	moved := ts.entities[from]
	ts.entities[to] = moved
	ts.localPosition[to] = ts.localPosition[from]
	ts.localRotation[to] = ts.localRotation[from]
	ts.localScale[to] = ts.localScale[from]
	ts.worldPosition[to] = ts.worldPosition[from]
	ts.worldRotation[to] = ts.worldRotation[from]
	ts.worldScale[to] = ts.worldScale[from]
	ts.parent[to] = ts.parent[from]
	ts.firstChild[to] = ts.firstChild[from]
	ts.nextSibling[to] = ts.nextSibling[from]
	ts.prevSibling[to] = ts.prevSibling[from]
	ts.index[moved] = to

	if prev := ts.prevSibling[to]; prev.IsValid() {
		ts.nextSibling[prev] = to
	} else if p := ts.parent[to]; p.IsValid() {
		ts.firstChild[p] = to
	}
	if next := ts.nextSibling[to]; next.IsValid() {
		ts.prevSibling[next] = to
	}
	for c := ts.firstChild[to]; c.IsValid(); c = ts.nextSibling[c] {
		ts.parent[c] = to
	}
}

// GetLocalPosition returns the position of i relative to its parent.
func (ts *TransformSystem) GetLocalPosition(i EntityInstance) mgl32.Vec3 { return ts.localPosition[i] }

// GetLocalRotation returns the rotation of i relative to its parent.
func (ts *TransformSystem) GetLocalRotation(i EntityInstance) mgl32.Quat { return ts.localRotation[i] }

// GetLocalScale returns the uniform scale of i relative to its parent.
func (ts *TransformSystem) GetLocalScale(i EntityInstance) float32 { return ts.localScale[i] }

// GetWorldPosition returns the absolute position of i.
func (ts *TransformSystem) GetWorldPosition(i EntityInstance) mgl32.Vec3 { return ts.worldPosition[i] }

// GetWorldRotation returns the absolute rotation of i.
func (ts *TransformSystem) GetWorldRotation(i EntityInstance) mgl32.Quat { return ts.worldRotation[i] }

// GetWorldScale returns the absolute uniform scale of i.
func (ts *TransformSystem) GetWorldScale(i EntityInstance) float32 { return ts.worldScale[i] }

// SetLocalPosition sets the local position of i and refreshes the world
// transforms of i and its descendants.
func (ts *TransformSystem) SetLocalPosition(i EntityInstance, v mgl32.Vec3) {
	ts.localPosition[i] = v
	ts.updateSubtree(i)
}

// SetLocalRotation sets the local rotation of i and refreshes the world
// transforms of i and its descendants.
func (ts *TransformSystem) SetLocalRotation(i EntityInstance, q mgl32.Quat) {
	ts.localRotation[i] = q
	ts.updateSubtree(i)
}

// SetLocalScale sets the local uniform scale of i and refreshes the world
// transforms of i and its descendants.
func (ts *TransformSystem) SetLocalScale(i EntityInstance, s float32) {
	ts.localScale[i] = s
	ts.updateSubtree(i)
}

// SetLocalTransform sets all three local values of i with a single subtree
// refresh.
func (ts *TransformSystem) SetLocalTransform(i EntityInstance, pos mgl32.Vec3, rot mgl32.Quat, scale float32) {
	ts.localPosition[i] = pos
	ts.localRotation[i] = rot
	ts.localScale[i] = scale
	ts.updateSubtree(i)
}

// updateSubtree recomputes world transforms of i and everything below it,
// each parent before its children.
func (ts *TransformSystem) updateSubtree(i EntityInstance) {
	ts.walk = append(ts.walk[:0], i)
	for len(ts.walk) > 0 {
		n := ts.walk[len(ts.walk)-1]
		ts.walk = ts.walk[:len(ts.walk)-1]
		ts.updateWorld(n)
		for c := ts.firstChild[n]; c.IsValid(); c = ts.nextSibling[c] {
			ts.walk = append(ts.walk, c)
		}
	}
}

func (ts *TransformSystem) updateWorld(i EntityInstance) {
	pos, rot, scale := mgl32.Vec3{}, mgl32.QuatIdent(), float32(1)
	if p := ts.parent[i]; p.IsValid() {
		pos, rot, scale = ts.worldPosition[p], ts.worldRotation[p], ts.worldScale[p]
	}
	ts.worldPosition[i], ts.worldRotation[i], ts.worldScale[i] = compose(
		pos, rot, scale,
		ts.localPosition[i], ts.localRotation[i], ts.localScale[i],
	)
}

// compose applies a local transform on top of a parent world transform.
func compose(
	parentPos mgl32.Vec3, parentRot mgl32.Quat, parentScale float32,
	localPos mgl32.Vec3, localRot mgl32.Quat, localScale float32,
) (mgl32.Vec3, mgl32.Quat, float32) {
	pos := parentPos.Add(parentRot.Rotate(localPos).Mul(parentScale))
	return pos, parentRot.Mul(localRot), parentScale * localScale
}
