package thermal

import (
	"errors"
	"math"
	"testing"
)

func assertError(t *testing.T, err error, expected error) {
	t.Helper()
	if !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}

func assertEqual[T comparable](t *testing.T, name string, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if !almostEqual(got, want, 1e-6) {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
}

func TestTotalResistanceExample(t *testing.T) {
	layers := []Layer{
		Conductive("mineral wool", 150, 0.3),
		AirGap("ventilated air gap", 50, 0.18),
	}
	r, err := TotalResistance(layers, 0.17)
	if err != nil {
		t.Fatalf("TotalResistance() failed: %v", err)
	}
	assertClose(t, "totalR", r, 0.85)

	up, err := UpValue(r)
	if err != nil {
		t.Fatalf("UpValue() failed: %v", err)
	}
	assertClose(t, "up", up, 1.1764705882)
}

func TestTotalResistanceEmptyStack(t *testing.T) {
	r, err := TotalResistance(nil, 0.2)
	if err != nil {
		t.Fatalf("TotalResistance() failed: %v", err)
	}
	assertClose(t, "totalR", r, 0.2)
}

func TestTotalResistanceOrderIndependent(t *testing.T) {
	a := Conductive("plaster", 15, 0.25)
	b := Conductive("wood wool", 40, 0.09)
	c := AirGap("air", 20, 0.16)

	r1, err := TotalResistance([]Layer{a, b, c}, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := TotalResistance([]Layer{c, a, b}, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "permuted totalR", r2, r1)
}

func TestTotalResistanceMonotonic(t *testing.T) {
	base := []Layer{Conductive("slab", 200, 0.5)}
	r1, err := TotalResistance(base, 0.17)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := TotalResistance(append(base, Conductive("insulation", 80, 0.035)), 0.17)
	if err != nil {
		t.Fatal(err)
	}
	if !(r2 >= r1) {
		t.Fatalf("adding a layer lowered R: %v -> %v", r1, r2)
	}
}

func TestTotalResistanceErrors(t *testing.T) {
	tests := []struct {
		name  string
		layer Layer
		want  error
	}{
		{"zero lambda", Layer{Name: "bad", Thickness: 10, Kind: LayerConductive, Lambda: 0}, ErrInvalidConductivity},
		{"negative lambda", Layer{Name: "bad", Thickness: 10, Kind: LayerConductive, Lambda: -0.1}, ErrInvalidConductivity},
		{"negative air gap", AirGap("gap", 10, -0.1), ErrNegativeLayerResistance},
		{"infinite air gap", AirGap("gap", 10, math.Inf(1)), ErrNegativeLayerResistance},
		{"unknown kind", Layer{Name: "bad", Thickness: 10}, ErrInvalidLayerKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TotalResistance([]Layer{tt.layer}, 0.17)
			assertError(t, err, tt.want)
		})
	}
}

func TestUpValueErrors(t *testing.T) {
	for _, r := range []float64{0, -1, math.Inf(1), math.NaN(), 1e-310} {
		_, err := UpValue(r)
		assertError(t, err, ErrInvalidResistance)
	}
}

func TestUfValue(t *testing.T) {
	assertClose(t, "uf", UfValue(2, 0.5), 1)
}

func TestSurfaceSum(t *testing.T) {
	tests := []struct {
		name     string
		rsi, rse float64
		want     float64
	}{
		{"defaults", DefaultRsi, DefaultRse, 0.2},
		{"negative rsi", -0.1, 0.04, FallbackSurfaceResistanceSum},
		{"nan rse", 0.1, math.NaN(), FallbackSurfaceResistanceSum},
		{"zero", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertClose(t, "sum", SurfaceSum(tt.rsi, tt.rse), tt.want)
		})
	}
}

func TestParseSurfaceResistance(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0.10", 0.10, false},
		{"0,13", 0.13, false},
		{" 0.04 ", 0.04, false},
		{"abc", 0, true},
		{"", 0, true},
		{"-0.10", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSurfaceResistance(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSurfaceResistance(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSurfaceResistance(%q) failed: %v", tt.in, err)
			}
			assertClose(t, tt.in, got, tt.want)
		})
	}
}

func TestFormatSurfaceResistance(t *testing.T) {
	assertEqual(t, "format", FormatSurfaceResistance(0.1), "0.10")
	v, err := ParseSurfaceResistance(FormatSurfaceResistance(0.13))
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "roundtrip", v, 0.13)
}

func TestEvaluateImprovement(t *testing.T) {
	tests := []struct {
		name      string
		before    float64
		after     float64
		wantPct   float64
		wantMeets bool
	}{
		{"qualifies", 1.2, 0.8, 33.333333, true},
		{"exactly at threshold", 10, 7, 30, true},
		{"below threshold", 1, 0.75, 25, false},
		{"worse after works", 1, 1.5, -50, false},
		{"unchanged", 1, 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := EvaluateImprovement(tt.before, tt.after)
			if err != nil {
				t.Fatalf("EvaluateImprovement() failed: %v", err)
			}
			assertClose(t, "percent", imp.Percent, tt.wantPct)
			assertEqual(t, "meets", imp.MeetsRequirements, tt.wantMeets)
		})
	}
}

func TestEvaluateImprovementDegenerate(t *testing.T) {
	_, err := EvaluateImprovement(0, 0.5)
	assertError(t, err, ErrDegenerateBeforeValue)
}

func TestDeriveRatio(t *testing.T) {
	r, err := DeriveRatio(70, 85)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "ratio", r, 0.8235294)

	for _, in := range [][2]float64{{70, 0}, {0, 85}, {-1, 85}, {70, math.NaN()}, {math.Inf(1), 85}} {
		_, err := DeriveRatio(in[0], in[1])
		assertError(t, err, ErrInvalidRatioInputs)
	}
}

func TestParseLayer(t *testing.T) {
	gap, err := ParseLayer("air", 30, "-", 0.18)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "kind", gap.Kind, LayerAirGap)
	assertEqual(t, "lambda string", gap.LambdaString(), AirGapLambda)
	assertClose(t, "r", gap.R, 0.18)

	wool, err := ParseLayer("wool", 100, "0,04", 0)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "kind", wool.Kind, LayerConductive)
	assertClose(t, "r", wool.R, 2.5)

	_, err = ParseLayer("bad", 100, "x", 0)
	assertError(t, err, ErrInvalidConductivity)
}

func TestLayerValidate(t *testing.T) {
	tests := []struct {
		name  string
		layer Layer
		want  error
	}{
		{"valid conductive", Conductive("wool", 100, 0.04), nil},
		{"valid air gap", AirGap("air", 30, 0.18), nil},
		{"lambda at bound", Conductive("brick", 100, MaxLambda), nil},
		{"zero thickness", Conductive("wool", 0, 0.04), ErrInvalidThickness},
		{"negative thickness", AirGap("air", -1, 0.18), ErrInvalidThickness},
		{"zero lambda", Conductive("wool", 100, 0), ErrInvalidConductivity},
		{"lambda too high", Conductive("concrete", 100, 1.6), ErrConductivityOutOfRange},
		{"negative air gap", AirGap("air", 30, -0.2), ErrNegativeLayerResistance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layer.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertError(t, err, tt.want)
		})
	}
}
