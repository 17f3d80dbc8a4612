package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	stdmath "math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshconv/pkg/math"
)

// STL format errors.
var (
	ErrSTLSyntax        = errors.New("invalid STL syntax")
	ErrTruncatedSTLData = errors.New("truncated STL data")
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // 12 float32 + uint16 attribute byte count
)

// STLTriangle is one facet: a stored normal and three vertices.
type STLTriangle struct {
	Normal   math.Vec3
	Vertices [3]math.Vec3
}

// STLSolid is a named triangle soup.
type STLSolid struct {
	Name      string
	Triangles []STLTriangle
}

// STL is a parsed STL document: named solids in file order.
// Binary files hold a single solid named "".
type STL struct {
	names  []string
	solids map[string]*STLSolid
}

// NewSTL creates an empty document.
func NewSTL() *STL {
	return &STL{solids: make(map[string]*STLSolid)}
}

// Attach adds s to the document, replacing a solid with the same name.
func (d *STL) Attach(s *STLSolid) {
	if _, ok := d.solids[s.Name]; !ok {
		d.names = append(d.names, s.Name)
	}
	d.solids[s.Name] = s
}

// Names returns solid names in document order.
func (d *STL) Names() []string {
	return append([]string(nil), d.names...)
}

// Solid returns the solid with the given name.
func (d *STL) Solid(name string) (*STLSolid, bool) {
	s, ok := d.solids[name]
	return s, ok
}

// Solids returns the solids in document order.
func (d *STL) Solids() []*STLSolid {
	out := make([]*STLSolid, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.solids[name])
	}
	return out
}

// TriangleCount returns the number of triangles across all solids.
func (d *STL) TriangleCount() int {
	n := 0
	for _, s := range d.solids {
		n += len(s.Triangles)
	}
	return n
}

// Join merges other into d. New names are appended; triangles of solids
// sharing a name follow d's own. other is not modified and shares no
// storage with d afterwards.
func (d *STL) Join(other *STL) {
	for _, s := range other.Solids() {
		if existing, ok := d.solids[s.Name]; ok {
			existing.Triangles = append(existing.Triangles, s.Triangles...)
			continue
		}
		d.Attach(&STLSolid{
			Name:      s.Name,
			Triangles: append([]STLTriangle(nil), s.Triangles...),
		})
	}
}

// IsASCIISTL reports whether data looks like ASCII STL: the 80-byte header
// region starts with "solid". Binary files whose header happens to start
// with "solid" are misclassified.
func IsASCIISTL(data []byte) bool {
	head := data
	if len(head) > stlHeaderSize {
		head = head[:stlHeaderSize]
	}
	return bytes.HasPrefix(head, []byte("solid"))
}

// ParseSTL parses an ASCII or binary STL document from raw bytes.
func ParseSTL(data []byte) (*STL, error) {
	if IsASCIISTL(data) {
		return ParseASCIISTL(data)
	}
	return ParseBinarySTL(data)
}

// ParseSTLFile parses an STL file from disk.
func ParseSTLFile(path string) (*STL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return ParseSTL(data)
}

// binaryTriangle is the on-disk layout of one binary STL facet.
type binaryTriangle struct {
	Normal    [3]float32
	Vertices  [3][3]float32
	Attribute uint16
}

// ParseBinarySTL parses the binary encoding.
func ParseBinarySTL(data []byte) (*STL, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncatedSTLData, len(data), stlHeaderSize+4)
	}

	r := bytes.NewReader(data[stlHeaderSize:])

	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading triangle count", ErrTruncatedSTLData)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative triangle count %d", ErrSTLSyntax, count)
	}
	if need := int64(count) * stlTriangleSize; int64(r.Len()) < need {
		return nil, fmt.Errorf("%w: %d triangles need %d bytes, have %d", ErrTruncatedSTLData, count, need, r.Len())
	}

	solid := &STLSolid{Triangles: make([]STLTriangle, 0, count)}
	for i := int32(0); i < count; i++ {
		var bt binaryTriangle
		if err := binary.Read(r, binary.LittleEndian, &bt); err != nil {
			return nil, fmt.Errorf("%w: triangle %d", ErrTruncatedSTLData, i)
		}
		solid.Triangles = append(solid.Triangles, STLTriangle{
			Normal: math.FromFloat32(bt.Normal),
			Vertices: [3]math.Vec3{
				math.FromFloat32(bt.Vertices[0]),
				math.FromFloat32(bt.Vertices[1]),
				math.FromFloat32(bt.Vertices[2]),
			},
		})
	}

	doc := NewSTL()
	doc.Attach(solid)
	return doc, nil
}

// ParseASCIISTL parses the text encoding. Repeated solid names are merged
// in file order.
func ParseASCIISTL(data []byte) (*STL, error) {
	p := &stlParser{doc: NewSTL()}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := p.parseLine(scanner.Text(), fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading STL: %w", err)
	}
	if p.facet != nil {
		return nil, fmt.Errorf("%w: facet not closed at end of input", ErrSTLSyntax)
	}
	return p.doc, nil
}

type stlParser struct {
	doc   *STL
	solid *STLSolid
	facet *STLTriangle
	verts int
}

func (p *stlParser) parseLine(line string, fields []string) error {
	switch fields[0] {
	case "solid":
		if p.facet != nil {
			return fmt.Errorf("%w: solid inside facet", ErrSTLSyntax)
		}
		name := strings.TrimSpace(strings.TrimSpace(line)[len("solid"):])
		if existing, ok := p.doc.Solid(name); ok {
			p.solid = existing
		} else {
			p.solid = &STLSolid{Name: name}
			p.doc.Attach(p.solid)
		}

	case "endsolid":
		if p.facet != nil {
			return fmt.Errorf("%w: endsolid inside facet", ErrSTLSyntax)
		}
		p.solid = nil

	case "facet":
		if p.solid == nil {
			return fmt.Errorf("%w: facet outside solid", ErrSTLSyntax)
		}
		if p.facet != nil {
			return fmt.Errorf("%w: nested facet", ErrSTLSyntax)
		}
		if len(fields) < 4 {
			return fmt.Errorf("%w: facet normal needs 3 components", ErrSTLSyntax)
		}
		n, err := parseSTLVec3(fields[len(fields)-3:])
		if err != nil {
			return err
		}
		p.facet = &STLTriangle{Normal: n}
		p.verts = 0

	case "vertex":
		if p.facet == nil {
			return fmt.Errorf("%w: vertex outside facet", ErrSTLSyntax)
		}
		if len(fields) != 4 {
			return fmt.Errorf("%w: vertex needs exactly 3 components, got %d", ErrSTLSyntax, len(fields)-1)
		}
		if p.verts == 3 {
			return fmt.Errorf("%w: facet has more than 3 vertices", ErrSTLSyntax)
		}
		v, err := parseSTLVec3(fields[1:])
		if err != nil {
			return err
		}
		p.facet.Vertices[p.verts] = v
		p.verts++

	case "endfacet":
		if p.facet == nil {
			return fmt.Errorf("%w: endfacet without facet", ErrSTLSyntax)
		}
		if p.verts != 3 {
			return fmt.Errorf("%w: facet has %d vertices, want 3", ErrSTLSyntax, p.verts)
		}
		p.solid.Triangles = append(p.solid.Triangles, *p.facet)
		p.facet = nil

	case "outer", "endloop":
		// Loop markers carry no data.
	}

	return nil
}

func parseSTLVec3(tokens []string) (math.Vec3, error) {
	var out [3]float64
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: number %q", ErrSTLSyntax, tok)
		}
		out[i] = f
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// EncodeASCII writes the document as ASCII STL.
func (d *STL) EncodeASCII(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range d.Solids() {
		fmt.Fprintf(bw, "solid %s\n", s.Name)
		for _, t := range s.Triangles {
			fmt.Fprintf(bw, "  facet normal %s\n", t.Normal)
			bw.WriteString("    outer loop\n")
			for _, v := range t.Vertices {
				fmt.Fprintf(bw, "      vertex %s\n", v)
			}
			bw.WriteString("    endloop\n")
			bw.WriteString("  endfacet\n")
		}
		fmt.Fprintf(bw, "endsolid %s\n", s.Name)
	}
	return bw.Flush()
}

// EncodeBinary writes the document as binary STL. Solid names are lost and
// all triangles are written as one soup; values are narrowed to float32.
func (d *STL) EncodeBinary(w io.Writer) error {
	total := d.TriangleCount()
	if total > stdmath.MaxInt32 {
		return fmt.Errorf("%w: %d triangles exceed binary STL limit", ErrSTLSyntax, total)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(make([]byte, stlHeaderSize)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(total)); err != nil {
		return err
	}

	for _, s := range d.Solids() {
		for _, t := range s.Triangles {
			bt := binaryTriangle{
				Normal: t.Normal.Float32(),
				Vertices: [3][3]float32{
					t.Vertices[0].Float32(),
					t.Vertices[1].Float32(),
					t.Vertices[2].Float32(),
				},
			}
			if err := binary.Write(bw, binary.LittleEndian, &bt); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile encodes the document to path in the requested encoding.
func (d *STL) WriteFile(path string, asBinary bool) error {
	var buf bytes.Buffer
	var err error
	if asBinary {
		err = d.EncodeBinary(&buf)
	} else {
		err = d.EncodeASCII(&buf)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing STL file: %w", err)
	}
	return nil
}
