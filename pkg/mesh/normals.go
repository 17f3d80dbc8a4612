package mesh

import (
	"fmt"

	"github.com/Faultbox/meshconv/pkg/math"
)

// normalEpsilon is the magnitude below which a normal is treated as degenerate.
const normalEpsilon = 1e-6

// NormalMode selects how missing normals are synthesized.
type NormalMode int

// Normal synthesis modes.
const (
	NormalsFlat   NormalMode = iota // one normal per face, deduplicated
	NormalsSmooth                   // one normal per position, area weighted
)

// String returns the mode name used in configuration.
func (m NormalMode) String() string {
	switch m {
	case NormalsFlat:
		return "flat"
	case NormalsSmooth:
		return "smooth"
	default:
		return fmt.Sprintf("NormalMode(%d)", int(m))
	}
}

// ParseNormalMode converts a configuration name to a NormalMode.
func ParseNormalMode(s string) (NormalMode, error) {
	switch s {
	case "flat", "polyhedron":
		return NormalsFlat, nil
	case "smooth":
		return NormalsSmooth, nil
	default:
		return 0, fmt.Errorf("unknown normal mode %q", s)
	}
}

// CalcNormals replaces the normal pool and every corner's normal index.
func (o *Object) CalcNormals(mode NormalMode) error {
	switch mode {
	case NormalsSmooth:
		return o.calcNormalsSmooth()
	case NormalsFlat:
		return o.calcNormalsFlat()
	default:
		return fmt.Errorf("unsupported normal mode %v", mode)
	}
}

// faceCross returns the unnormalized normal cross(v2-v1, v3-v1) of face i.
func (o *Object) faceCross(i int) (math.Vec3, error) {
	v, err := o.FacePositions(i)
	if err != nil {
		return math.Vec3{}, err
	}
	return v[1].Sub(v[0]).Cross(v[2].Sub(v[0])), nil
}

func (o *Object) calcNormalsFlat() error {
	// Resolve every face before touching the pool so a bad reference
	// leaves the object unchanged.
	normals := make([]math.Vec3, len(o.Faces))
	for i := range o.Faces {
		n, err := o.faceCross(i)
		if err != nil {
			return err
		}
		normals[i] = n.Normalize(normalEpsilon)
	}

	o.Normals.Reset()
	for i := range o.Faces {
		idx := o.Normals.Ensure(normals[i]) + 1
		for c := range o.Faces[i] {
			o.Faces[i][c].Normal = idx
		}
	}
	return nil
}

func (o *Object) calcNormalsSmooth() error {
	acc := make([]math.Vec3, o.Positions.Len())
	for i, f := range o.Faces {
		n, err := o.faceCross(i)
		if err != nil {
			return err
		}
		for _, c := range f {
			acc[c.Position-1] = acc[c.Position-1].Add(n)
		}
	}

	o.Normals.Reset()
	for _, n := range acc {
		o.Normals.Append(n.Normalize(normalEpsilon))
	}
	for i := range o.Faces {
		for c := range o.Faces[i] {
			o.Faces[i][c].Normal = o.Faces[i][c].Position
		}
	}
	return nil
}
