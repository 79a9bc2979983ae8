package cantus

import (
	"encoding/binary"
	"io"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Scene bundles the entity manager with every component system of one scene
// and drives the per-frame destroy cascade between them.
type Scene struct {
	Entities   *EntityManager
	Transforms *TransformSystem
	Events     *EventBus
	Resources  *Resources

	log zerolog.Logger
}

// SceneOption configures a Scene at construction.
type SceneOption func(*Scene)

// WithLogger sets the logger used for load, save and frame summaries. The
// default discards everything.
func WithLogger(logger zerolog.Logger) SceneOption {
	return func(s *Scene) {
		s.log = logger
	}
}

// NewScene returns an empty scene whose systems are subscribed to entity
// destruction.
func NewScene(opts ...SceneOption) *Scene {
	s := &Scene{
		Entities:   NewEntityManager(),
		Transforms: NewTransformSystem(),
		Events:     &EventBus{},
		Resources:  &Resources{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	Subscribe(s.Events, func(ev EntitiesDestroyed) {
		s.Transforms.HandleDestroyed(ev.Entities)
	})
	return s
}

// CreateEntity returns a new live entity.
func (s *Scene) CreateEntity() Entity { return s.Entities.Create() }

// DestroyEntity kills e. Its components stay in place until EndFrame.
func (s *Scene) DestroyEntity(e Entity) error {
	return eris.Wrapf(s.Entities.Destroy(e), "destroy %v", e)
}

// EndFrame lets every system drop the components of entities destroyed this
// frame, then clears the destroyed buffer.
func (s *Scene) EndFrame() {
	destroyed := s.Entities.PollDestroyed()
	if len(destroyed) > 0 {
		before := s.Transforms.Count()
		Publish(s.Events, EntitiesDestroyed{Entities: destroyed})
		s.log.Trace().
			Int("destroyed", len(destroyed)).
			Int("transforms_removed", before-s.Transforms.Count()).
			Msg("frame destroy cascade")
	}
	s.Entities.ClearDestroyed()
}

// Save writes the scene: a u32 entity count followed by the transform table.
// Entity ids are renumbered to the rows' dense order so the file does not
// depend on this session's slot allocation; live entities without a
// transform carry no data and are not written.
func (s *Scene) Save(w io.Writer) error {
	t := *s.Transforms.table()
	t.Entities = make([]Entity, t.Len())
	for i := range t.Entities {
		t.Entities[i] = NewEntity(uint32(i), 0)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(t.Len())); err != nil {
		return eris.Wrap(err, "write entity count")
	}
	if _, err := t.WriteTo(w); err != nil {
		return err
	}
	s.log.Debug().Int("entities", t.Len()).Msg("scene saved")
	return nil
}

// Load reads a scene written by Save or by the scene compiler. It creates
// the stored number of entities, resolves each transform row's saved id by
// its index into those entities and restores the rows.
//
// Parameters:
//   - r: The scene stream, a u32 entity count followed by a transform table.
//
// Returns:
//   - ErrCapacityExhausted if the entity manager cannot hold the stored count.
//   - ErrUnknownEntity or ErrComponentExists if a row's id does not map to
//     exactly one of the stored entities.
//   - Any error from ReadTransformTable or Restore.
//
// The file is fully validated before any entity is created, so on error the
// scene is unchanged.
func (s *Scene) Load(r io.Reader) error {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return readErr(err, "entity count")
	}
	if avail := s.Entities.Available(); int64(count) > int64(avail) {
		return eris.Wrapf(ErrCapacityExhausted, "scene stores %d entities, %d slots left", count, avail)
	}
	t, err := ReadTransformTable(r)
	if err != nil {
		return err
	}

	// rows maps a stored entity index to the row holding its transform.
	rows := make(map[uint32]int, t.Len())
	for row, saved := range t.Entities {
		idx := saved.Index()
		if saved == NoEntity || idx >= count {
			return eris.Wrapf(ErrUnknownEntity, "row %d id %v, scene has %d entities", row, saved, count)
		}
		if _, dup := rows[idx]; dup {
			return eris.Wrapf(ErrComponentExists, "row %d repeats entity %d", row, idx)
		}
		rows[idx] = row
	}

	ids := make([]Entity, t.Len())
	for idx := range count {
		e := s.Entities.Create()
		if row, ok := rows[idx]; ok {
			ids[row] = e
		}
	}
	if err := s.Transforms.Restore(t, ids); err != nil {
		return err
	}
	s.log.Debug().
		Uint32("entities", count).
		Int("transforms", t.Len()).
		Msg("scene loaded")
	return nil
}
