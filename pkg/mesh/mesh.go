// Package mesh provides the indexed mesh model shared by the OBJ and STL codecs.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshconv/pkg/math"
)

// ErrReference is returned when a corner index does not resolve to a pool entry
// or a face lacks an index that an operation requires.
var ErrReference = errors.New("invalid attribute reference")

// Corner references attribute pool entries of its owning Object.
// Indices are 1-based; zero means the attribute is absent.
type Corner struct {
	Position int
	Texcoord int
	Normal   int
	Param    int
}

// Face is a triangle. Polygons are fan-triangulated before they become faces.
type Face [3]Corner

// Triangulate splits a polygon into a fan of triangles sharing its first
// corner: (c0, ci, ci+1) for i = 1..k-2. Polygons with fewer than three
// corners produce no faces.
func Triangulate(corners []Corner) []Face {
	if len(corners) < 3 {
		return nil
	}
	faces := make([]Face, 0, len(corners)-2)
	for i := 1; i < len(corners)-1; i++ {
		faces = append(faces, Face{corners[0], corners[i], corners[i+1]})
	}
	return faces
}

// Object is a named mesh with its own attribute pools.
type Object struct {
	Name     string
	Material string // empty when no usemtl applies

	// SmoothGroup is meaningful only when Smooth is set.
	SmoothGroup int
	Smooth      bool

	Positions Pool[math.Vec3]
	Texcoords Pool[math.Vec3]
	Normals   Pool[math.Vec3]
	Params    Pool[Param]

	Faces []Face
}

// NewObject creates an empty object.
func NewObject(name string) *Object {
	return &Object{Name: name}
}

// HasNormals reports whether every face carries a normal index on its
// first corner.
func (o *Object) HasNormals() bool {
	for _, f := range o.Faces {
		if f[0].Normal == 0 {
			return false
		}
	}
	return o.Normals.Len() > 0 || len(o.Faces) == 0
}

// FacePositions resolves the three corner positions of face i.
func (o *Object) FacePositions(i int) ([3]math.Vec3, error) {
	var out [3]math.Vec3
	if i < 0 || i >= len(o.Faces) {
		return out, fmt.Errorf("%w: face %d of %d", ErrReference, i, len(o.Faces))
	}
	for c, corner := range o.Faces[i] {
		p, err := o.Positions.At(corner.Position)
		if err != nil {
			return out, fmt.Errorf("object %q face %d corner %d position: %w", o.Name, i, c, err)
		}
		out[c] = p
	}
	return out, nil
}

// FaceNormal resolves the normal of face i, taken from its first corner.
func (o *Object) FaceNormal(i int) (math.Vec3, error) {
	if i < 0 || i >= len(o.Faces) {
		return math.Vec3{}, fmt.Errorf("%w: face %d of %d", ErrReference, i, len(o.Faces))
	}
	idx := o.Faces[i][0].Normal
	if idx == 0 {
		return math.Vec3{}, fmt.Errorf("%w: object %q face %d has no normal", ErrReference, o.Name, i)
	}
	n, err := o.Normals.At(idx)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("object %q face %d normal: %w", o.Name, i, err)
	}
	return n, nil
}

// Bounds returns the axis-aligned bounding box of the position pool.
// ok is false when the pool is empty.
func (o *Object) Bounds() (lo, hi math.Vec3, ok bool) {
	values := o.Positions.Values()
	if len(values) == 0 {
		return lo, hi, false
	}
	lo, hi = values[0], values[0]
	for _, p := range values[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi, true
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	c := *o
	c.Positions = o.Positions.Clone()
	c.Texcoords = o.Texcoords.Clone()
	c.Normals = o.Normals.Clone()
	c.Params = o.Params.Clone()
	c.Faces = append([]Face(nil), o.Faces...)
	return &c
}
