package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshconv/pkg/math"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

// OBJ format errors.
var (
	ErrOBJSyntax = errors.New("invalid OBJ syntax")
)

// maxLineSize bounds a single text line in OBJ, MTL and ASCII STL input.
const maxLineSize = 16 << 20

// OBJ is a parsed Wavefront OBJ document: named objects in file order.
type OBJ struct {
	// MaterialLib is the mtllib filename, empty when absent.
	MaterialLib string

	names   []string
	objects map[string]*mesh.Object
}

// NewOBJ creates an empty document.
func NewOBJ() *OBJ {
	return &OBJ{objects: make(map[string]*mesh.Object)}
}

// Attach adds o to the document. An object with the same name is replaced
// in place, keeping its original position.
func (d *OBJ) Attach(o *mesh.Object) {
	if _, ok := d.objects[o.Name]; !ok {
		d.names = append(d.names, o.Name)
	}
	d.objects[o.Name] = o
}

// Names returns object names in document order.
func (d *OBJ) Names() []string {
	return append([]string(nil), d.names...)
}

// Object returns the object with the given name.
func (d *OBJ) Object(name string) (*mesh.Object, bool) {
	o, ok := d.objects[name]
	return o, ok
}

// Objects returns the objects in document order.
func (d *OBJ) Objects() []*mesh.Object {
	out := make([]*mesh.Object, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.objects[name])
	}
	return out
}

// FaceCount returns the number of triangles across all objects.
func (d *OBJ) FaceCount() int {
	n := 0
	for _, o := range d.objects {
		n += len(o.Faces)
	}
	return n
}

// OBJParseOptions controls optional parser behavior.
type OBJParseOptions struct {
	// KeepEmpty retains named objects that end up with no faces.
	// The implicit unnamed object before the first "o" is never kept empty.
	KeepEmpty bool
}

// ParseOBJ parses an OBJ document from raw bytes.
func ParseOBJ(data []byte) (*OBJ, error) {
	return ParseOBJWithOptions(data, OBJParseOptions{})
}

// ParseOBJWithOptions parses an OBJ document from raw bytes.
//
// Face indices in the file are global. They resolve against every attribute
// seen so far in the file, and the referenced values are copied into the
// enclosing object's own pools, deduplicated, with the face rewritten to
// object-local indices. Polygons are fan-triangulated.
func ParseOBJWithOptions(data []byte, opts OBJParseOptions) (*OBJ, error) {
	p := &objParser{
		doc:  NewOBJ(),
		opts: opts,
		cur:  mesh.NewObject(""),
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := p.parseLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	p.flush()
	return p.doc, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

type objParser struct {
	doc  *OBJ
	opts OBJParseOptions
	cur  *mesh.Object

	// File-wide attribute lists that face indices refer to.
	v, vt, vn []math.Vec3
	vp        []mesh.Param
}

// flush attaches the current object if it has faces. Named objects are
// also kept empty when KeepEmpty is set.
func (p *objParser) flush() {
	if len(p.cur.Faces) > 0 || (p.opts.KeepEmpty && p.cur.Name != "") {
		p.doc.Attach(p.cur)
	}
}

func (p *objParser) parseLine(line string) error {
	fields := strings.Fields(line)
	directive := fields[0]
	args := fields[1:]
	rest := strings.TrimSpace(line[len(directive):])

	switch directive {
	case "mtllib":
		p.doc.MaterialLib = rest

	case "o":
		p.flush()
		p.cur = mesh.NewObject(rest)

	case "v":
		vec, err := parseVec3(args, 3)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		p.v = append(p.v, vec)

	case "vt":
		vec, err := parseVec3(args, 1)
		if err != nil {
			return fmt.Errorf("texture coordinate: %w", err)
		}
		p.vt = append(p.vt, vec)

	case "vn":
		vec, err := parseVec3(args, 3)
		if err != nil {
			return fmt.Errorf("normal: %w", err)
		}
		p.vn = append(p.vn, vec)

	case "vp":
		param, err := parseFloats(args)
		if err != nil {
			return fmt.Errorf("parameter: %w", err)
		}
		if len(param) == 0 {
			return fmt.Errorf("%w: empty parameter vertex", ErrOBJSyntax)
		}
		p.vp = append(p.vp, param)

	case "f":
		return p.parseFace(args)

	case "s":
		if rest == "off" {
			p.cur.Smooth = false
			p.cur.SmoothGroup = 0
			return nil
		}
		group, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("%w: smoothing group %q", ErrOBJSyntax, rest)
		}
		p.cur.Smooth = true
		p.cur.SmoothGroup = group

	case "usemtl":
		p.cur.Material = rest
	}

	// Groups, lines, points and other directives carry nothing we keep.
	return nil
}

func (p *objParser) parseFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: face needs at least 3 corners, got %d", ErrOBJSyntax, len(args))
	}

	corners := make([]mesh.Corner, len(args))
	for i, token := range args {
		c, err := p.parseCorner(token)
		if err != nil {
			return fmt.Errorf("face corner %d: %w", i+1, err)
		}
		corners[i] = c
	}

	p.cur.Faces = append(p.cur.Faces, mesh.Triangulate(corners)...)
	return nil
}

// parseCorner parses "pos[/tex][/norm][/param]" and copies the referenced
// attributes into the current object's pools.
func (p *objParser) parseCorner(token string) (mesh.Corner, error) {
	parts := strings.Split(token, "/")
	if len(parts) > 4 {
		return mesh.Corner{}, fmt.Errorf("%w: corner %q has more than 4 indices", ErrOBJSyntax, token)
	}
	if parts[0] == "" {
		return mesh.Corner{}, fmt.Errorf("%w: corner %q has no position index", ErrOBJSyntax, token)
	}
	for len(parts) < 4 {
		parts = append(parts, "")
	}

	var c mesh.Corner
	var err error
	if c.Position, err = localIndex(parts[0], p.v, &p.cur.Positions); err != nil {
		return c, fmt.Errorf("position: %w", err)
	}
	if c.Texcoord, err = localIndex(parts[1], p.vt, &p.cur.Texcoords); err != nil {
		return c, fmt.Errorf("texture coordinate: %w", err)
	}
	if c.Normal, err = localIndex(parts[2], p.vn, &p.cur.Normals); err != nil {
		return c, fmt.Errorf("normal: %w", err)
	}
	if c.Param, err = localIndex(parts[3], p.vp, &p.cur.Params); err != nil {
		return c, fmt.Errorf("parameter: %w", err)
	}
	return c, nil
}

// localIndex resolves a global OBJ index token against all, then ensures
// the value in the object pool and returns its 1-based local index.
// An empty token yields 0. Negative indices count back from the last
// attribute defined so far.
func localIndex[T mesh.Equaler[T]](token string, all []T, pool *mesh.Pool[T]) (int, error) {
	if token == "" {
		return 0, nil
	}
	idx, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrOBJSyntax, token)
	}
	if idx < 0 {
		idx = len(all) + idx + 1
	}
	if idx < 1 || idx > len(all) {
		return 0, fmt.Errorf("%w: index %s, %d defined", mesh.ErrReference, token, len(all))
	}
	return pool.Ensure(all[idx-1]) + 1, nil
}

// parseVec3 reads the last three numeric tokens. With fewer tokens than
// three but at least minTokens, missing trailing components are zero.
func parseVec3(tokens []string, minTokens int) (math.Vec3, error) {
	if len(tokens) < minTokens {
		return math.Vec3{}, fmt.Errorf("%w: expected at least %d components, got %d", ErrOBJSyntax, minTokens, len(tokens))
	}
	if len(tokens) > 3 {
		tokens = tokens[len(tokens)-3:]
	}
	values, err := parseFloats(tokens)
	if err != nil {
		return math.Vec3{}, err
	}
	var out [3]float64
	copy(out[:], values)
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func parseFloats(tokens []string) ([]float64, error) {
	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrOBJSyntax, tok)
		}
		values[i] = f
	}
	return values, nil
}

// Encode writes the document as OBJ text. Local face indices are rebased
// by the pool sizes of the objects written before, so the output uses
// valid global indices.
func (d *OBJ) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	var shift mesh.Corner
	for _, o := range d.Objects() {
		writeOBJObject(bw, o, shift)

		shift.Position += o.Positions.Len()
		shift.Texcoord += o.Texcoords.Len()
		shift.Normal += o.Normals.Len()
		shift.Param += o.Params.Len()
	}

	return bw.Flush()
}

func writeOBJObject(w *bufio.Writer, o *mesh.Object, shift mesh.Corner) {
	fmt.Fprintf(w, "o %s\n", o.Name)

	for _, v := range o.Positions.Values() {
		fmt.Fprintf(w, "v %s\n", v)
	}
	for _, vt := range o.Texcoords.Values() {
		fmt.Fprintf(w, "vt %s\n", vt)
	}
	for _, vn := range o.Normals.Values() {
		fmt.Fprintf(w, "vn %s\n", vn)
	}
	for _, vp := range o.Params.Values() {
		parts := make([]string, len(vp))
		for i, f := range vp {
			parts[i] = math.FormatFloat(f)
		}
		fmt.Fprintf(w, "vp %s\n", strings.Join(parts, " "))
	}

	if o.Material != "" {
		fmt.Fprintf(w, "usemtl %s\n", o.Material)
	}
	if o.Smooth {
		fmt.Fprintf(w, "s %d\n", o.SmoothGroup)
	} else {
		w.WriteString("s off\n")
	}

	for _, f := range o.Faces {
		w.WriteString("f")
		for _, c := range f {
			w.WriteByte(' ')
			w.WriteString(formatCorner(c, shift))
		}
		w.WriteByte('\n')
	}

	w.WriteByte('\n')
}

// formatCorner renders "p/t/n/x" with absent indices left empty and
// trailing separators trimmed.
func formatCorner(c, shift mesh.Corner) string {
	field := func(idx, off int) string {
		if idx == 0 {
			return ""
		}
		return strconv.Itoa(idx + off)
	}
	s := strings.Join([]string{
		field(c.Position, shift.Position),
		field(c.Texcoord, shift.Texcoord),
		field(c.Normal, shift.Normal),
		field(c.Param, shift.Param),
	}, "/")
	return strings.TrimRight(s, "/")
}

// WriteFile encodes the document to path.
func (d *OBJ) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return nil
}
