package cantus

import (
	"iter"

	"github.com/rotisserie/eris"
)

// GetParent returns the parent of i, or NoInstance for a root.
func (ts *TransformSystem) GetParent(i EntityInstance) EntityInstance { return ts.parent[i] }

// GetFirstChild returns the most recently attached child of i, or NoInstance.
func (ts *TransformSystem) GetFirstChild(i EntityInstance) EntityInstance { return ts.firstChild[i] }

// GetNextSibling returns the sibling attached to the same parent before i.
func (ts *TransformSystem) GetNextSibling(i EntityInstance) EntityInstance { return ts.nextSibling[i] }

// GetPrevSibling returns the sibling attached to the same parent after i.
func (ts *TransformSystem) GetPrevSibling(i EntityInstance) EntityInstance { return ts.prevSibling[i] }

// SetParent makes parent the parent of child and places child at the head of
// parent's child list. A child that already has a parent is unlinked from
// it first. The world transforms of child and its descendants are recomputed
// against the new parent; local transforms are kept.
//
// Parameters:
//   - child: The instance to move.
//   - parent: The new parent, or NoInstance to turn child into a root.
//
// Returns:
//   - ErrCyclicParent if parent is child or one of its descendants. The
//     hierarchy is left untouched.
func (ts *TransformSystem) SetParent(child, parent EntityInstance) error {
	for a := parent; a.IsValid(); a = ts.parent[a] {
		if a == child {
			return eris.Wrapf(ErrCyclicParent, "parent %v under %v", child, parent)
		}
	}

	ts.unlink(child)
	if parent.IsValid() {
		head := ts.firstChild[parent]
		ts.nextSibling[child] = head
		if head.IsValid() {
			ts.prevSibling[head] = child
		}
		ts.firstChild[parent] = child
		ts.parent[child] = parent
	}
	ts.updateSubtree(child)
	return nil
}

// unlink detaches i from its parent and siblings. Its own children stay
// attached to it.
func (ts *TransformSystem) unlink(i EntityInstance) {
	p, prev, next := ts.parent[i], ts.prevSibling[i], ts.nextSibling[i]
	if prev.IsValid() {
		ts.nextSibling[prev] = next
	} else if p.IsValid() {
		ts.firstChild[p] = next
	}
	if next.IsValid() {
		ts.prevSibling[next] = prev
	}
	ts.parent[i] = NoInstance
	ts.prevSibling[i] = NoInstance
	ts.nextSibling[i] = NoInstance
}

// Children yields the direct children of parent, most recently attached
// first. Each call starts a fresh walk. The hierarchy must not be changed
// while the sequence is being consumed.
func (ts *TransformSystem) Children(parent EntityInstance) iter.Seq[EntityInstance] {
	return func(yield func(EntityInstance) bool) {
		if !parent.IsValid() {
			return
		}
		for c := ts.firstChild[parent]; c.IsValid(); c = ts.nextSibling[c] {
			if !yield(c) {
				return
			}
		}
	}
}
