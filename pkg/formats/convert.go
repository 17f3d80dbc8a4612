package formats

import (
	"fmt"

	"github.com/Faultbox/meshconv/pkg/mesh"
)

// ObjectFromSolid builds an indexed object from a triangle soup. Normals and
// vertices are deduplicated into the object's pools; texture coordinates and
// parameters stay empty.
func ObjectFromSolid(s *STLSolid) *mesh.Object {
	o := mesh.NewObject(s.Name)
	o.Faces = make([]mesh.Face, 0, len(s.Triangles))

	for _, t := range s.Triangles {
		n := o.Normals.Ensure(t.Normal) + 1
		var f mesh.Face
		for i, v := range t.Vertices {
			f[i] = mesh.Corner{Position: o.Positions.Ensure(v) + 1, Normal: n}
		}
		o.Faces = append(o.Faces, f)
	}
	return o
}

// OBJFromSTL converts every solid into an object of the same name.
func OBJFromSTL(doc *STL) *OBJ {
	out := NewOBJ()
	for _, s := range doc.Solids() {
		out.Attach(ObjectFromSolid(s))
	}
	return out
}

// SolidFromObject builds a triangle soup from an object. Every face must
// carry a normal index on its first corner; the other corners' normals are
// not consulted.
func SolidFromObject(o *mesh.Object) (*STLSolid, error) {
	s := &STLSolid{Name: o.Name, Triangles: make([]STLTriangle, 0, len(o.Faces))}
	for i := range o.Faces {
		n, err := o.FaceNormal(i)
		if err != nil {
			return nil, err
		}
		verts, err := o.FacePositions(i)
		if err != nil {
			return nil, err
		}
		s.Triangles = append(s.Triangles, STLTriangle{Normal: n, Vertices: verts})
	}
	return s, nil
}

// STLFromOBJ converts every object into a solid of the same name.
func STLFromOBJ(doc *OBJ) (*STL, error) {
	out := NewSTL()
	for _, o := range doc.Objects() {
		s, err := SolidFromObject(o)
		if err != nil {
			return nil, fmt.Errorf("converting object %q: %w", o.Name, err)
		}
		out.Attach(s)
	}
	return out, nil
}
