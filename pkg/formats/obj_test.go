package formats

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/meshconv/pkg/math"
	"github.com/Faultbox/meshconv/pkg/mesh"
)

const twoObjectOBJ = `# two triangles in separate objects
mtllib scene.mtl
o a
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
usemtl red
f 1//1 2//1 3//1

o b
v 0 0 1
v 1 0 1
v 0 1 1
s 1
f 4//1 5//1 6//1
`

func mustParseOBJ(t *testing.T, src string) *OBJ {
	t.Helper()
	doc, err := ParseOBJ([]byte(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	return doc
}

func TestParseOBJ_Basic(t *testing.T) {
	doc := mustParseOBJ(t, twoObjectOBJ)

	if doc.MaterialLib != "scene.mtl" {
		t.Errorf("expected mtllib scene.mtl, got %q", doc.MaterialLib)
	}
	names := doc.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected objects [a b], got %v", names)
	}

	a, _ := doc.Object("a")
	if a.Material != "red" {
		t.Errorf("expected material red, got %q", a.Material)
	}
	if a.Smooth {
		t.Error("expected smoothing off for a")
	}
	if a.Positions.Len() != 3 || a.Normals.Len() != 1 {
		t.Errorf("a pools: %d positions, %d normals", a.Positions.Len(), a.Normals.Len())
	}

	b, _ := doc.Object("b")
	if !b.Smooth || b.SmoothGroup != 1 {
		t.Errorf("expected smoothing group 1 for b, got %v/%d", b.Smooth, b.SmoothGroup)
	}
	// b's face uses global positions 4..6 and a's normal; both land in b's
	// own pools with local indices.
	want := mesh.Face{
		{Position: 1, Normal: 1},
		{Position: 2, Normal: 1},
		{Position: 3, Normal: 1},
	}
	if len(b.Faces) != 1 || b.Faces[0] != want {
		t.Errorf("b faces = %v, want [%v]", b.Faces, want)
	}
	n, err := b.Normals.At(1)
	if err != nil || n != (math.Vec3{X: 0, Y: 0, Z: 1}) {
		t.Errorf("b normal = %v, %v", n, err)
	}
	p, _ := b.Positions.At(1)
	if p != (math.Vec3{X: 0, Y: 0, Z: 1}) {
		t.Errorf("b first position = %v", p)
	}
}

func TestParseOBJ_Triangulation(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 2 0
f 1 2 3 4
f 1 2 3 4 5
`
	doc := mustParseOBJ(t, src)

	o, ok := doc.Object("")
	if !ok {
		t.Fatal("expected implicit unnamed object")
	}
	if len(o.Faces) != 2+3 {
		t.Fatalf("expected 5 triangles, got %d", len(o.Faces))
	}
	if o.Faces[0] != (mesh.Face{{Position: 1}, {Position: 2}, {Position: 3}}) {
		t.Errorf("first triangle = %v", o.Faces[0])
	}
	if o.Faces[1] != (mesh.Face{{Position: 1}, {Position: 3}, {Position: 4}}) {
		t.Errorf("second triangle = %v", o.Faces[1])
	}
}

func TestParseOBJ_CornerForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0.5
vn 0 0 1
vp 0.25 0.75
f 1/1/1/1 2/1 3//1
`
	doc := mustParseOBJ(t, src)
	o, _ := doc.Object("")

	want := mesh.Face{
		{Position: 1, Texcoord: 1, Normal: 1, Param: 1},
		{Position: 2, Texcoord: 1},
		{Position: 3, Normal: 1},
	}
	if o.Faces[0] != want {
		t.Errorf("face = %v, want %v", o.Faces[0], want)
	}

	vt, _ := o.Texcoords.At(1)
	if vt != (math.Vec3{X: 0.5, Y: 0.5}) {
		t.Errorf("texcoord = %v", vt)
	}
	vp, _ := o.Params.At(1)
	if !vp.Equal(mesh.Param{0.25, 0.75}) {
		t.Errorf("param = %v", vp)
	}
}

func TestParseOBJ_LastThreeComponents(t *testing.T) {
	src := `v 9 1 2 3
v 0 0 0
v 0 0 1
f 1 2 3
`
	doc := mustParseOBJ(t, src)
	o, _ := doc.Object("")

	v, _ := o.Positions.At(1)
	if v != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("expected last three components (1,2,3), got %v", v)
	}
}

func TestParseOBJ_NegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	doc := mustParseOBJ(t, src)
	o, _ := doc.Object("")

	got, err := o.FacePositions(0)
	if err != nil {
		t.Fatalf("FacePositions failed: %v", err)
	}
	if got[2] != (math.Vec3{X: 0, Y: 1, Z: 0}) {
		t.Errorf("-1 should reference last vertex, got %v", got[2])
	}
}

func TestParseOBJ_Dedup(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
v 0 0 0
f 1 2 3
f 4 2 3
`
	doc := mustParseOBJ(t, src)
	o, _ := doc.Object("")

	if o.Positions.Len() != 3 {
		t.Errorf("duplicate vertex should collapse, got %d positions", o.Positions.Len())
	}
	if o.Faces[1][0].Position != 1 {
		t.Errorf("expected duplicate to map to index 1, got %d", o.Faces[1][0].Position)
	}
}

func TestParseOBJ_EmptyObjects(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
o empty
o full
f 1 2 3
o trailing
`
	doc := mustParseOBJ(t, src)
	names := doc.Names()
	if len(names) != 1 || names[0] != "full" {
		t.Errorf("expected only [full], got %v", names)
	}

	kept, err := ParseOBJWithOptions([]byte(src), OBJParseOptions{KeepEmpty: true})
	if err != nil {
		t.Fatalf("ParseOBJWithOptions failed: %v", err)
	}
	names = kept.Names()
	if len(names) != 3 || names[0] != "empty" || names[1] != "full" || names[2] != "trailing" {
		t.Errorf("expected [empty full trailing], got %v", names)
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			name:    "position out of range",
			src:     "v 0 0 0\nv 1 0 0\nf 1 2 99\n",
			wantErr: mesh.ErrReference,
		},
		{
			name:    "normal out of range",
			src:     "v 0 0 0\nf 1//1 1//1 1//1\n",
			wantErr: mesh.ErrReference,
		},
		{
			name:    "zero index",
			src:     "v 0 0 0\nf 0 1 1\n",
			wantErr: mesh.ErrReference,
		},
		{
			name:    "malformed number",
			src:     "v 0 zero 0\n",
			wantErr: ErrOBJSyntax,
		},
		{
			name:    "short vertex",
			src:     "v 0 0\n",
			wantErr: ErrOBJSyntax,
		},
		{
			name:    "malformed index",
			src:     "v 0 0 0\nf 1 a 1\n",
			wantErr: ErrOBJSyntax,
		},
		{
			name:    "two corner face",
			src:     "v 0 0 0\nf 1 1\n",
			wantErr: ErrOBJSyntax,
		},
		{
			name:    "five slot corner",
			src:     "v 0 0 0\nf 1/1/1/1/1 1 1\n",
			wantErr: ErrOBJSyntax,
		},
		{
			name:    "bad smoothing group",
			src:     "s maybe\n",
			wantErr: ErrOBJSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.src))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseOBJ_ErrorLineNumber(t *testing.T) {
	_, err := ParseOBJ([]byte("v 0 0 0\n\n# comment\nf 1 1 7\n"))
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Errorf("expected error mentioning line 4, got %v", err)
	}
}

func TestOBJEncode_GlobalIndices(t *testing.T) {
	doc := mustParseOBJ(t, twoObjectOBJ)

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := `o a
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
usemtl red
s off
f 1//1 2//1 3//1

o b
v 0 0 1
v 1 0 1
v 0 1 1
vn 0 0 1
s 1
f 4//2 5//2 6//2

`
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestOBJEncode_RoundTrip(t *testing.T) {
	src := `o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vp 0.5
f 1/1//1 2/2 3/3 4
`
	doc := mustParseOBJ(t, src)

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	again := mustParseOBJ(t, buf.String())

	a, _ := doc.Object("quad")
	b, ok := again.Object("quad")
	if !ok {
		t.Fatal("object lost in round trip")
	}
	if len(a.Faces) != len(b.Faces) {
		t.Fatalf("face count %d != %d", len(a.Faces), len(b.Faces))
	}
	for i := range a.Faces {
		if a.Faces[i] != b.Faces[i] {
			t.Errorf("face %d: %v != %v", i, a.Faces[i], b.Faces[i])
		}
	}
	if a.Positions.Len() != b.Positions.Len() || a.Texcoords.Len() != b.Texcoords.Len() || a.Params.Len() != b.Params.Len() {
		t.Error("pool sizes changed in round trip")
	}
}

func TestOBJAttach_ReplacesInPlace(t *testing.T) {
	doc := NewOBJ()
	doc.Attach(mesh.NewObject("a"))
	doc.Attach(mesh.NewObject("b"))

	replacement := mesh.NewObject("a")
	replacement.Material = "new"
	doc.Attach(replacement)

	names := doc.Names()
	if len(names) != 2 || names[0] != "a" {
		t.Errorf("expected [a b], got %v", names)
	}
	o, _ := doc.Object("a")
	if o.Material != "new" {
		t.Error("expected replacement object")
	}
}
