package cantus

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"gotest.tools/v3/assert"
)

// go test -run ^TestSceneEndFrameCascade$ . -count 1
func TestSceneEndFrameCascade(t *testing.T) {
	s := NewScene()
	root, mid, leaf, other := s.CreateEntity(), s.CreateEntity(), s.CreateEntity(), s.CreateEntity()
	ts := s.Transforms
	for _, e := range []Entity{root, mid, leaf, other} {
		ts.CreateOrGetInstance(e)
	}
	assert.NilError(t, ts.SetParent(ts.GetInstance(mid), ts.GetInstance(root)))
	assert.NilError(t, ts.SetParent(ts.GetInstance(leaf), ts.GetInstance(mid)))

	assert.NilError(t, s.DestroyEntity(mid))
	// Components survive until the end of the frame.
	assert.Equal(t, ts.Count(), 4)
	assert.DeepEqual(t, s.Entities.PollDestroyed(), []Entity{mid})

	s.EndFrame()
	assert.Equal(t, ts.Count(), 2)
	assert.Assert(t, ts.Exists(root))
	assert.Assert(t, ts.Exists(other))
	assert.Assert(t, !ts.Exists(leaf))
	assert.Equal(t, ts.GetFirstChild(ts.GetInstance(root)), NoInstance)
	assert.Equal(t, len(s.Entities.PollDestroyed()), 0)
	checkInvariants(t, ts)

	// The orphaned leaf entity is still alive; only its transform went.
	assert.Assert(t, s.Entities.Alive(leaf))
	assert.ErrorIs(t, s.DestroyEntity(mid), ErrStaleEntity)

	s.EndFrame()
	assert.Equal(t, ts.Count(), 2)
}

// go test -run ^TestSceneSaveLoad$ . -count 1
func TestSceneSaveLoad(t *testing.T) {
	src := NewScene()
	// Burn a few slots so saved ids differ from live ones.
	for range 3 {
		assert.NilError(t, src.DestroyEntity(src.CreateEntity()))
	}
	src.EndFrame()

	var ents []Entity
	for k := range 5 {
		e := src.CreateEntity()
		ents = append(ents, e)
		i := src.Transforms.CreateOrGetInstance(e)
		src.Transforms.SetLocalTransform(i,
			mgl32.Vec3{float32(k), 1, 0},
			mgl32.QuatRotate(float32(k), mgl32.Vec3{0, 0, 1}),
			float32(k+1))
	}
	ts := src.Transforms
	assert.NilError(t, ts.SetParent(ts.GetInstance(ents[1]), ts.GetInstance(ents[0])))
	assert.NilError(t, ts.SetParent(ts.GetInstance(ents[2]), ts.GetInstance(ents[0])))
	assert.NilError(t, ts.SetParent(ts.GetInstance(ents[3]), ts.GetInstance(ents[2])))

	var buf bytes.Buffer
	assert.NilError(t, src.Save(&buf))
	assert.Equal(t, buf.Len(), 4+4+5*rowBytes)

	dst := NewScene()
	assert.NilError(t, dst.Load(&buf))
	assert.Equal(t, dst.Entities.Len(), 5)
	assert.Equal(t, dst.Transforms.Count(), 5)
	checkInvariants(t, dst.Transforms)

	for row := range 5 {
		a, b := EntityInstance(row), EntityInstance(row)
		assert.Assert(t, dst.Entities.Alive(dst.Transforms.GetEntity(b)))
		assert.Equal(t, dst.Transforms.GetLocalPosition(b), ts.GetLocalPosition(a))
		assert.Equal(t, dst.Transforms.GetWorldPosition(b), ts.GetWorldPosition(a))
		assert.Equal(t, dst.Transforms.GetWorldScale(b), ts.GetWorldScale(a))
		assert.Equal(t, dst.Transforms.GetParent(b), ts.GetParent(a))
		assert.DeepEqual(t, slices.Collect(dst.Transforms.Children(b)), slices.Collect(ts.Children(a)))
	}
}

// go test -run ^TestSceneLoadIntoPopulated$ . -count 1
func TestSceneLoadIntoPopulated(t *testing.T) {
	src := NewScene()
	for range 3 {
		src.Transforms.CreateOrGetInstance(src.CreateEntity())
	}
	var buf bytes.Buffer
	assert.NilError(t, src.Save(&buf))

	dst := NewScene()
	keep := dst.CreateEntity()
	dst.Transforms.CreateOrGetInstance(keep)
	assert.NilError(t, dst.Load(&buf))
	assert.Equal(t, dst.Entities.Len(), 4)
	assert.Equal(t, dst.Transforms.Count(), 4)
	assert.Equal(t, dst.Transforms.GetInstance(keep), EntityInstance(0))
	checkInvariants(t, dst.Transforms)
}

// go test -run ^TestSceneLoadErrors$ . -count 1
func TestSceneLoadErrors(t *testing.T) {
	scene := func(count uint32, table *TransformTable) []byte {
		var buf bytes.Buffer
		assert.NilError(t, binary.Write(&buf, binary.LittleEndian, count))
		_, err := table.WriteTo(&buf)
		assert.NilError(t, err)
		return buf.Bytes()
	}

	t.Run("UnknownEntity", func(t *testing.T) {
		s := NewScene()
		err := s.Load(bytes.NewReader(scene(2, rootTable(3))))
		assert.ErrorIs(t, err, ErrUnknownEntity)
		assert.Equal(t, s.Entities.Len(), 0)
	})

	t.Run("RepeatedEntity", func(t *testing.T) {
		table := rootTable(2)
		table.Entities[1] = table.Entities[0]
		s := NewScene()
		err := s.Load(bytes.NewReader(scene(2, table)))
		assert.ErrorIs(t, err, ErrComponentExists)
		assert.Equal(t, s.Entities.Len(), 0)
	})

	t.Run("Truncated", func(t *testing.T) {
		raw := scene(3, rootTable(3))
		s := NewScene()
		assert.ErrorIs(t, s.Load(bytes.NewReader(raw[:len(raw)-3])), ErrTruncated)
		assert.ErrorIs(t, s.Load(bytes.NewReader(raw[:2])), ErrTruncated)
		assert.Equal(t, s.Entities.Len(), 0)
	})

	t.Run("CountExceedsCapacity", func(t *testing.T) {
		s := NewScene()
		s.CreateEntity()
		err := s.Load(bytes.NewReader(scene(EntityIndexMask, rootTable(0))))
		assert.ErrorIs(t, err, ErrCapacityExhausted)
		assert.Equal(t, s.Entities.Len(), 1)
		assert.Equal(t, s.Entities.Cap(), 1)
	})

	t.Run("EntitiesWithoutTransforms", func(t *testing.T) {
		s := NewScene()
		assert.NilError(t, s.Load(bytes.NewReader(scene(7, rootTable(3)))))
		assert.Equal(t, s.Entities.Len(), 7)
		assert.Equal(t, s.Transforms.Count(), 3)
	})
}
