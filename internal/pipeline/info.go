package pipeline

import (
	"github.com/Faultbox/meshconv/pkg/formats"
	"github.com/Faultbox/meshconv/pkg/math"
)

// ObjectSummary describes one OBJ object or STL solid.
type ObjectSummary struct {
	Name      string
	Material  string
	Triangles int
	Positions int
	Texcoords int
	Normals   int
	Params    int
	HasBounds bool
	Min, Max  math.Vec3
}

// Summary describes a mesh file.
type Summary struct {
	Path        string
	Format      Format
	MaterialLib string
	Objects     []ObjectSummary
}

// Triangles returns the total triangle count.
func (s *Summary) Triangles() int {
	n := 0
	for _, o := range s.Objects {
		n += o.Triangles
	}
	return n
}

// Describe parses path and summarizes its contents. STL solids are
// summarized through their indexed form, so pool counts are deduplicated.
func (c *Converter) Describe(path string) (*Summary, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var doc *formats.OBJ
	switch format {
	case FormatOBJ:
		doc, err = c.ReadOBJ(path)
	case FormatSTL:
		var stl *formats.STL
		if stl, err = c.ReadSTL(path); err == nil {
			doc = formats.OBJFromSTL(stl)
		}
	}
	if err != nil {
		return nil, err
	}

	s := &Summary{Path: path, Format: format, MaterialLib: doc.MaterialLib}
	for _, o := range doc.Objects() {
		lo, hi, ok := o.Bounds()
		s.Objects = append(s.Objects, ObjectSummary{
			Name:      o.Name,
			Material:  o.Material,
			Triangles: len(o.Faces),
			Positions: o.Positions.Len(),
			Texcoords: o.Texcoords.Len(),
			Normals:   o.Normals.Len(),
			Params:    o.Params.Len(),
			HasBounds: ok,
			Min:       lo,
			Max:       hi,
		})
	}
	return s, nil
}
