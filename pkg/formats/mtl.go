package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MTL format errors.
var (
	ErrMTLSyntax = errors.New("invalid MTL syntax")
)

// MTLFieldKind is the value type of a recognized material key.
type MTLFieldKind int

// Material field kinds.
const (
	MTLVector MTLFieldKind = iota
	MTLFloat
	MTLInteger
	MTLString
)

// String returns the kind name.
func (k MTLFieldKind) String() string {
	switch k {
	case MTLVector:
		return "vector"
	case MTLFloat:
		return "float"
	case MTLInteger:
		return "integer"
	case MTLString:
		return "string"
	default:
		return fmt.Sprintf("MTLFieldKind(%d)", int(k))
	}
}

// Recognized material keys.
const (
	MTLAmbient     = "Ka"
	MTLDiffuse     = "Kd"
	MTLSpecular    = "Ks"
	MTLShininess   = "Ns"
	MTLIllum       = "illum"
	MTLAmbientMap  = "map_Ka"
	MTLDiffuseMap  = "map_Kd"
	MTLSpecularMap = "map_Ks"
)

// mtlFields lists every key the reader extracts. Other keys are skipped.
var mtlFields = map[string]MTLFieldKind{
	MTLAmbient:     MTLVector,
	MTLDiffuse:     MTLVector,
	MTLSpecular:    MTLVector,
	MTLShininess:   MTLFloat,
	MTLIllum:       MTLInteger,
	MTLAmbientMap:  MTLString,
	MTLDiffuseMap:  MTLString,
	MTLSpecularMap: MTLString,
}

// MTLValue is a parsed field value. Only the member matching Kind is set.
type MTLValue struct {
	Kind    MTLFieldKind
	Vector  []float64
	Float   float64
	Integer int
	String  string
}

// Material is one newmtl entry.
type Material struct {
	Name   string
	Fields map[string]MTLValue
}

// Vector returns a vector-valued field.
func (m *Material) Vector(key string) ([]float64, bool) {
	v, ok := m.Fields[key]
	if !ok || v.Kind != MTLVector {
		return nil, false
	}
	return v.Vector, true
}

// Float returns a float-valued field.
func (m *Material) Float(key string) (float64, bool) {
	v, ok := m.Fields[key]
	if !ok || v.Kind != MTLFloat {
		return 0, false
	}
	return v.Float, true
}

// Integer returns an integer-valued field.
func (m *Material) Integer(key string) (int, bool) {
	v, ok := m.Fields[key]
	if !ok || v.Kind != MTLInteger {
		return 0, false
	}
	return v.Integer, true
}

// Text returns a string-valued field.
func (m *Material) Text(key string) (string, bool) {
	v, ok := m.Fields[key]
	if !ok || v.Kind != MTLString {
		return "", false
	}
	return v.String, true
}

// MTL is a parsed material library.
type MTL struct {
	names     []string
	materials map[string]*Material
}

// Names returns material names in file order.
func (l *MTL) Names() []string {
	return append([]string(nil), l.names...)
}

// Material returns the material with the given name.
func (l *MTL) Material(name string) (*Material, bool) {
	m, ok := l.materials[name]
	return m, ok
}

// ParseMTL parses a material library from raw bytes.
func ParseMTL(data []byte) (*MTL, error) {
	lib := &MTL{materials: make(map[string]*Material)}
	var cur *Material

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

		key := strings.Fields(line)[0]
		rest := strings.TrimSpace(line[len(key):])

		if key == "newmtl" {
			if _, ok := lib.materials[rest]; !ok {
				lib.names = append(lib.names, rest)
			}
			cur = &Material{Name: rest, Fields: make(map[string]MTLValue)}
			lib.materials[rest] = cur
			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("line %d: %w: %q before newmtl", lineNum, ErrMTLSyntax, key)
		}

		kind, ok := mtlFields[key]
		if !ok {
			continue
		}
		value, err := parseMTLValue(kind, rest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", lineNum, key, err)
		}
		cur.Fields[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}

	return lib, nil
}

// ParseMTLFile parses a material library from disk.
func ParseMTLFile(path string) (*MTL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MTL file: %w", err)
	}
	return ParseMTL(data)
}

func parseMTLValue(kind MTLFieldKind, s string) (MTLValue, error) {
	v := MTLValue{Kind: kind}
	switch kind {
	case MTLVector:
		for _, tok := range strings.Fields(s) {
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return v, fmt.Errorf("%w: number %q", ErrMTLSyntax, tok)
			}
			v.Vector = append(v.Vector, f)
		}
	case MTLFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return v, fmt.Errorf("%w: number %q", ErrMTLSyntax, s)
		}
		v.Float = f
	case MTLInteger:
		n, err := strconv.Atoi(s)
		if err != nil {
			return v, fmt.Errorf("%w: integer %q", ErrMTLSyntax, s)
		}
		v.Integer = n
	case MTLString:
		v.String = s
	default:
		return v, fmt.Errorf("%w: unknown field kind %v", ErrMTLSyntax, kind)
	}
	return v, nil
}
