package fixed

import (
	"math"
	"testing"
)

func TestPoint_Constructors(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		scale int
		want  string
	}{
		{"zero", 0, 0, "0"},
		{"positive", 123, 0, "123"},
		{"negative", -456, 0, "-456"},
		{"with scale", 12345, 2, "123.45"},
		{"negative with scale", -456, 3, "-0.456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromInt64(tt.value, tt.scale)
			if got.String() != tt.want {
				t.Errorf("FromInt64(%d, %d) = %s; want %s", tt.value, tt.scale, got.String(), tt.want)
			}
		})
	}
}

func TestPoint_Parse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "184.25", "184.25", false},
		{"integer", "42", "42", false},
		{"negative", "-0.5", "-0.5", false},
		{"garbage", "12,5", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %s", tt.input, got.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s; want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestPoint_Arithmetic(t *testing.T) {
	a := FromFloat64(10.5)
	b := FromFloat64(2.5)

	if got := a.Add(b).String(); got != "13" && got != "13.0" {
		t.Errorf("Add = %s", got)
	}
	if got := a.Sub(b).String(); got != "8" && got != "8.0" {
		t.Errorf("Sub = %s", got)
	}
	if got := a.Mul(b).String(); got != "26.25" {
		t.Errorf("Mul = %s", got)
	}
	if got := a.Div(b).String(); got != "4.2" {
		t.Errorf("Div = %s", got)
	}
	if got := a.DivInt64(2); !got.Eq(FromFloat64(5.25)) {
		t.Errorf("DivInt64 = %s", got.String())
	}
	if got := b.Neg(); !got.Eq(FromFloat64(-2.5)) {
		t.Errorf("Neg = %s", got.String())
	}
	if got := b.Neg().Abs(); !got.Eq(b) {
		t.Errorf("Abs = %s", got.String())
	}
}

func TestPoint_Comparisons(t *testing.T) {
	lo := FromFloat64(1.25)
	hi := FromFloat64(3.75)

	if !lo.Lt(hi) || !hi.Gt(lo) || !lo.Lte(lo) || !hi.Gte(hi) {
		t.Error("ordering broken")
	}
	if !Min(lo, hi).Eq(lo) || !Max(lo, hi).Eq(hi) {
		t.Error("Min/Max broken")
	}
	if !Zero.IsZero() {
		t.Error("Zero.IsZero() = false")
	}
	if !lo.Neg().IsNeg() || lo.IsNeg() {
		t.Error("IsNeg broken")
	}
}

func TestPoint_Float64Roundtrip(t *testing.T) {
	values := []float64{0, 1, -1, 123.456, -0.00042, 99999.99}
	for _, v := range values {
		got, ok := FromFloat64(v).Float64()
		if !ok {
			t.Fatalf("Float64() not ok for %v", v)
		}
		if math.Abs(got-v) > 1e-9 {
			t.Errorf("roundtrip %v -> %v", v, got)
		}
	}
}

func TestPoint_TextRoundtrip(t *testing.T) {
	orig := FromInt64(172345, 2)
	data, err := orig.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var back Point
	if err := back.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if !back.Eq(orig) {
		t.Errorf("roundtrip %s -> %s", orig.String(), back.String())
	}

	if err := back.UnmarshalText([]byte("not-a-number")); err == nil {
		t.Error("expected error for invalid text")
	}
}

func TestPoint_Rescale(t *testing.T) {
	p := FromFloat64(1.23456)
	if got := p.Rescale(2).String(); got != "1.23" {
		t.Errorf("Rescale(2) = %s", got)
	}
}
