package cantus

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rotisserie/eris"
)

// readChunk bounds how many elements of one column are decoded per read, so
// a corrupt row count cannot force a large allocation before the stream
// proves it holds that much data.
const readChunk = 4096

// rowBytes is the encoded size of one transform row.
const rowBytes = 4 + 12 + 16 + 4 + 12 + 16 + 4 + 4*4

// TransformTable is the decoded form of a persisted transform system. Links
// are row numbers within the table, or NoInstance.
type TransformTable struct {
	Entities []Entity

	LocalPosition []mgl32.Vec3
	LocalRotation []mgl32.Quat
	LocalScale    []float32

	WorldPosition []mgl32.Vec3
	WorldRotation []mgl32.Quat
	WorldScale    []float32

	Parent      []EntityInstance
	FirstChild  []EntityInstance
	NextSibling []EntityInstance
	PrevSibling []EntityInstance
}

// Len returns the number of rows.
func (t *TransformTable) Len() int { return len(t.Entities) }

// columns lists every column in wire order.
func (t *TransformTable) columns() []any {
	return []any{
		t.Entities,
		t.LocalPosition, t.LocalRotation, t.LocalScale,
		t.WorldPosition, t.WorldRotation, t.WorldScale,
		t.Parent, t.FirstChild, t.NextSibling, t.PrevSibling,
	}
}

// WriteTo encodes the table: a little-endian u32 row count followed by each
// column in turn. Quaternions are written scalar first.
func (t *TransformTable) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.LittleEndian, uint32(t.Len())); err != nil {
		return 0, eris.Wrap(err, "write transform count")
	}
	for _, col := range t.columns() {
		if err := binary.Write(w, binary.LittleEndian, col); err != nil {
			return 0, eris.Wrap(err, "write transform column")
		}
	}
	return 4 + int64(t.Len())*rowBytes, nil
}

// ReadTransformTable decodes and validates a table written by WriteTo or
// TransformSystem.Save. It returns ErrTruncated if the stream ends early,
// ErrLinkOutOfRange if a link points past the table and ErrMalformedTree if
// the links do not describe a consistent hierarchy.
func ReadTransformTable(r io.Reader) (*TransformTable, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, readErr(err, "transform count")
	}
	if count > EntityIndexMask {
		return nil, eris.Wrapf(ErrEntityCountMismatch, "transform count %d exceeds entity capacity", count)
	}
	n := int(count)

	t := &TransformTable{}
	var err error
	if t.Entities, err = readColumn[Entity](r, n, "entity ids"); err != nil {
		return nil, err
	}
	if t.LocalPosition, err = readColumn[mgl32.Vec3](r, n, "local positions"); err != nil {
		return nil, err
	}
	if t.LocalRotation, err = readColumn[mgl32.Quat](r, n, "local rotations"); err != nil {
		return nil, err
	}
	if t.LocalScale, err = readColumn[float32](r, n, "local scales"); err != nil {
		return nil, err
	}
	if t.WorldPosition, err = readColumn[mgl32.Vec3](r, n, "world positions"); err != nil {
		return nil, err
	}
	if t.WorldRotation, err = readColumn[mgl32.Quat](r, n, "world rotations"); err != nil {
		return nil, err
	}
	if t.WorldScale, err = readColumn[float32](r, n, "world scales"); err != nil {
		return nil, err
	}
	if t.Parent, err = readColumn[EntityInstance](r, n, "parents"); err != nil {
		return nil, err
	}
	if t.FirstChild, err = readColumn[EntityInstance](r, n, "first children"); err != nil {
		return nil, err
	}
	if t.NextSibling, err = readColumn[EntityInstance](r, n, "next siblings"); err != nil {
		return nil, err
	}
	if t.PrevSibling, err = readColumn[EntityInstance](r, n, "previous siblings"); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func readColumn[T any](r io.Reader, n int, what string) ([]T, error) {
	out := make([]T, 0, min(n, readChunk))
	buf := make([]T, min(n, readChunk))
	for len(out) < n {
		chunk := buf[:min(n-len(out), len(buf))]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, readErr(err, what)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func readErr(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return eris.Wrapf(ErrTruncated, "read %s", what)
	}
	return eris.Wrapf(err, "read %s", what)
}

// Validate checks that every link is in range and that the links form a
// forest: back links agree, each parent's first child heads its list, every
// child is reachable from its parent and no parent chain loops.
func (t *TransformTable) Validate() error {
	n := t.Len()
	for k, l := range []int{
		len(t.LocalPosition), len(t.LocalRotation), len(t.LocalScale),
		len(t.WorldPosition), len(t.WorldRotation), len(t.WorldScale),
		len(t.Parent), len(t.FirstChild), len(t.NextSibling), len(t.PrevSibling),
	} {
		if l != n {
			return eris.Wrapf(ErrEntityCountMismatch, "column %d has %d rows, want %d", k+1, l, n)
		}
	}

	links := []struct {
		name string
		col  []EntityInstance
	}{
		{"parent", t.Parent},
		{"first child", t.FirstChild},
		{"next sibling", t.NextSibling},
		{"previous sibling", t.PrevSibling},
	}
	for _, l := range links {
		for row, v := range l.col {
			if v.IsValid() && int(v) >= n {
				return eris.Wrapf(ErrLinkOutOfRange, "row %d %s = %d, table has %d rows", row, l.name, v, n)
			}
		}
	}

	children := 0
	for i := range n {
		row := EntityInstance(i)
		p, prev, next := t.Parent[i], t.PrevSibling[i], t.NextSibling[i]
		if p.IsValid() {
			children++
		} else if prev.IsValid() || next.IsValid() {
			return eris.Wrapf(ErrMalformedTree, "root row %d has siblings", i)
		}
		if prev.IsValid() {
			if t.NextSibling[prev] != row || t.Parent[prev] != p {
				return eris.Wrapf(ErrMalformedTree, "row %d previous sibling %d does not link back", i, prev)
			}
		} else if p.IsValid() && t.FirstChild[p] != row {
			return eris.Wrapf(ErrMalformedTree, "row %d heads no list under parent %d", i, p)
		}
		if next.IsValid() && t.PrevSibling[next] != row {
			return eris.Wrapf(ErrMalformedTree, "row %d next sibling %d does not link back", i, next)
		}
		if fc := t.FirstChild[i]; fc.IsValid() && (t.Parent[fc] != row || t.PrevSibling[fc].IsValid()) {
			return eris.Wrapf(ErrMalformedTree, "row %d first child %d is not a list head", i, fc)
		}
	}

	// Lists starting at a head cannot loop: prev links are unique and a head
	// has none. Counting reachable children catches detached sibling rings.
	reached := 0
	for i := range n {
		for c := t.FirstChild[i]; c.IsValid(); c = t.NextSibling[c] {
			reached++
			if reached > children {
				return eris.Wrap(ErrMalformedTree, "sibling lists overlap")
			}
		}
	}
	if reached != children {
		return eris.Wrapf(ErrMalformedTree, "%d of %d children unreachable from their parents", children-reached, children)
	}

	const (
		_ = iota
		visiting
		done
	)
	state := make([]uint8, n)
	var path []int
	for i := range n {
		path = path[:0]
		for a := i; a >= 0 && state[a] != done; {
			if state[a] == visiting {
				return eris.Wrapf(ErrMalformedTree, "row %d is its own ancestor", a)
			}
			state[a] = visiting
			path = append(path, a)
			if p := t.Parent[a]; p.IsValid() {
				a = int(p)
			} else {
				a = -1
			}
		}
		for _, a := range path {
			state[a] = done
		}
	}
	return nil
}

// Save writes every transform component in the binary scene format: entity
// ids, local and world transforms and hierarchy links, one column at a time
// in instance order. Links are written as instance numbers, so the data can
// only be restored into rows appended in the same order.
func (ts *TransformSystem) Save(w io.Writer) error {
	_, err := ts.table().WriteTo(w)
	return err
}

// Load reads a table written by Save and appends its rows.
//
// Parameters:
//   - r: The stream holding the table.
//   - ids: The live entity that receives each row; ids[i] owns row i.
//
// Returns:
//   - ErrEntityCountMismatch if len(ids) differs from the stored row count.
//   - ErrTruncated, ErrLinkOutOfRange or ErrMalformedTree for a bad stream.
//   - ErrComponentExists if an id repeats or already has a transform.
//
// Load validates everything before changing the system, so on error nothing
// has been appended.
func (ts *TransformSystem) Load(r io.Reader, ids []Entity) error {
	t, err := ReadTransformTable(r)
	if err != nil {
		return err
	}
	return ts.Restore(t, ids)
}

// Restore appends the rows of t, assigning row i to ids[i], and returns the
// same errors as Load for a bad id table. t must already be valid. Links are
// rebased onto the rows' new instances and world transforms are recomputed
// from the restored locals; the stored world columns are not trusted.
func (ts *TransformSystem) Restore(t *TransformTable, ids []Entity) error {
	n := t.Len()
	if len(ids) != n {
		return eris.Wrapf(ErrEntityCountMismatch, "id table has %d entities, scene has %d transforms", len(ids), n)
	}
	seen := make(map[Entity]struct{}, n)
	for _, e := range ids {
		if e == NoEntity {
			return eris.Wrap(ErrUnknownEntity, "id table contains NoEntity")
		}
		if _, dup := seen[e]; dup || ts.Exists(e) {
			return eris.Wrapf(ErrComponentExists, "restore transform for %v", e)
		}
		seen[e] = struct{}{}
	}

	base := EntityInstance(ts.Count())
	rebase := func(links []EntityInstance) []EntityInstance {
		out := make([]EntityInstance, len(links))
		for k, v := range links {
			if v.IsValid() {
				v += base
			}
			out[k] = v
		}
		return out
	}

	ts.entities = append(ts.entities, ids...)
	ts.localPosition = append(ts.localPosition, t.LocalPosition...)
	ts.localRotation = append(ts.localRotation, t.LocalRotation...)
	ts.localScale = append(ts.localScale, t.LocalScale...)
	ts.worldPosition = append(ts.worldPosition, t.WorldPosition...)
	ts.worldRotation = append(ts.worldRotation, t.WorldRotation...)
	ts.worldScale = append(ts.worldScale, t.WorldScale...)
	ts.parent = append(ts.parent, rebase(t.Parent)...)
	ts.firstChild = append(ts.firstChild, rebase(t.FirstChild)...)
	ts.nextSibling = append(ts.nextSibling, rebase(t.NextSibling)...)
	ts.prevSibling = append(ts.prevSibling, rebase(t.PrevSibling)...)
	for k, e := range ids {
		ts.index[e] = base + EntityInstance(k)
	}
	for k := range n {
		if i := base + EntityInstance(k); !ts.parent[i].IsValid() {
			ts.updateSubtree(i)
		}
	}
	return nil
}

// table views the system's columns as a TransformTable without copying.
func (ts *TransformSystem) table() *TransformTable {
	return &TransformTable{
		Entities:      ts.entities,
		LocalPosition: ts.localPosition,
		LocalRotation: ts.localRotation,
		LocalScale:    ts.localScale,
		WorldPosition: ts.worldPosition,
		WorldRotation: ts.worldRotation,
		WorldScale:    ts.worldScale,
		Parent:        ts.parent,
		FirstChild:    ts.firstChild,
		NextSibling:   ts.nextSibling,
		PrevSibling:   ts.prevSibling,
	}
}
