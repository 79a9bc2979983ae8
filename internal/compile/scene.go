package compile

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ncarnahan/cantus"
)

// TransformType is the component type string of a transform record.
const TransformType = "transform"

type sceneDoc struct {
	Entities []entityDoc `json:"entities"`
}

type entityDoc struct {
	ID         string         `json:"id"`
	Components []componentDoc `json:"components"`
}

type componentDoc struct {
	Type     string          `json:"type"`
	Position *string         `json:"position"`
	Rotation *string         `json:"rotation"`
	Scale    json.RawMessage `json:"scale"`
	Parent   *string         `json:"parent"`
}

type parentLink struct {
	child  cantus.Entity
	parent uuid.UUID
	where  string
}

// Compile reads an authored JSON scene from r and writes its compiled binary
// form to w.
//
// Every distinct entity identifier becomes one entity, numbered in the order
// the identifiers first appear. Records that repeat an identifier add their
// components to the same entity, later values overwriting earlier ones.
// Parent references are resolved once every transform exists, so a child may
// be listed before its parent.
func Compile(r io.Reader, w io.Writer) error {
	var doc sceneDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return eris.Wrap(err, "decode scene")
	}

	scene := cantus.NewScene()
	byID := make(map[uuid.UUID]cantus.Entity, len(doc.Entities))
	owners := make([]cantus.Entity, len(doc.Entities))
	for k, rec := range doc.Entities {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return eris.Wrapf(ErrBadIdentifier, "entity %d id %q", k, rec.ID)
		}
		e, ok := byID[id]
		if !ok {
			e = scene.CreateEntity()
			byID[id] = e
		}
		owners[k] = e
	}

	ts := scene.Transforms
	var links []parentLink
	for k, rec := range doc.Entities {
		for c, comp := range rec.Components {
			where := "entity " + rec.ID + " component " + strconv.Itoa(c)
			if comp.Type != TransformType {
				return eris.Wrapf(ErrUnknownComponent, "%s type %q", where, comp.Type)
			}
			pos, rot, scale, err := comp.transform()
			if err != nil {
				return eris.Wrap(err, where)
			}
			ts.SetLocalTransform(ts.CreateOrGetInstance(owners[k]), pos, rot, scale)
			if comp.Parent != nil {
				p, err := uuid.Parse(*comp.Parent)
				if err != nil {
					return eris.Wrapf(ErrBadIdentifier, "%s parent %q", where, *comp.Parent)
				}
				links = append(links, parentLink{child: owners[k], parent: p, where: where})
			}
		}
	}

	for _, l := range links {
		p, ok := byID[l.parent]
		if !ok || !ts.Exists(p) {
			return eris.Wrapf(ErrUnknownParent, "%s parent %s", l.where, l.parent)
		}
		if err := ts.SetParent(ts.GetInstance(l.child), ts.GetInstance(p)); err != nil {
			return eris.Wrap(err, l.where)
		}
	}
	return scene.Save(w)
}

func (c componentDoc) transform() (pos mgl32.Vec3, rot mgl32.Quat, scale float32, err error) {
	if c.Position == nil {
		return pos, rot, scale, eris.Wrap(ErrMissingField, "position")
	}
	if c.Rotation == nil {
		return pos, rot, scale, eris.Wrap(ErrMissingField, "rotation")
	}
	if len(c.Scale) == 0 || string(c.Scale) == "null" {
		return pos, rot, scale, eris.Wrap(ErrMissingField, "scale")
	}

	p, err := parseFloats(*c.Position, 3)
	if err != nil {
		return pos, rot, scale, eris.Wrap(err, "position")
	}
	q, err := parseFloats(*c.Rotation, 4)
	if err != nil {
		return pos, rot, scale, eris.Wrap(err, "rotation")
	}
	if scale, err = parseScale(c.Scale); err != nil {
		return pos, rot, scale, eris.Wrap(err, "scale")
	}
	pos = mgl32.Vec3{p[0], p[1], p[2]}
	// Authored rotations list the vector part first, then the scalar.
	rot = mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}}
	return pos, rot, scale, nil
}

// parseFloats splits a whitespace-separated list of exactly n floats.
func parseFloats(s string, n int) ([]float32, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, eris.Wrapf(ErrBadVector, "%q has %d components, want %d", s, len(fields), n)
	}
	out := make([]float32, n)
	for k, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, eris.Wrapf(ErrBadVector, "%q component %d", s, k)
		}
		out[k] = float32(v)
	}
	return out, nil
}

// parseScale accepts a JSON number or a string holding one float.
func parseScale(raw json.RawMessage) (float32, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		v, err := parseFloats(text, 1)
		if err != nil {
			return 0, err
		}
		return v[0], nil
	}
	var v float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, eris.Wrapf(ErrBadVector, "%s is neither a number nor a string", raw)
	}
	return v, nil
}
