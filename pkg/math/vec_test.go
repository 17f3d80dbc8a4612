package math

import (
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	got := a.Add(b)
	want := Vec3{5, 7, 9}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 4, 0}
	n := v.Normalize(1e-6)
	if n != (Vec3{0.6, 0.8, 0}) {
		t.Errorf("Vec3.Normalize() = %v, want (0.6, 0.8, 0)", n)
	}

	tiny := Vec3{1e-9, 0, 0}
	if got := tiny.Normalize(1e-6); got != (Vec3{}) {
		t.Errorf("Vec3.Normalize() of tiny vector = %v, want zero", got)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, -2, 3}
	b := Vec3{-1, 2, 0}
	if got := a.Min(b); got != (Vec3{-1, -2, 0}) {
		t.Errorf("Vec3.Min() = %v", got)
	}
	if got := a.Max(b); got != (Vec3{1, 2, 3}) {
		t.Errorf("Vec3.Max() = %v", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"integer", FormatFloat(1.0), "1"},
		{"fraction", FormatFloat(-0.25), "-0.25"},
		{"large", FormatFloat(1e6), "1000000"},
		{"float32", FormatFloat(float32(0.1)), "0.1"},
		{"widened float32", FormatFloat(float64(float32(0.5))), "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("FormatFloat = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestVec3String(t *testing.T) {
	v := Vec3{0, 1.5, -2}
	if got := v.String(); got != "0 1.5 -2" {
		t.Errorf("Vec3.String() = %q", got)
	}
}
