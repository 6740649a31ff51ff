package thermal

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func sequentialIDs() Option {
	n := 0
	var mu sync.Mutex
	return WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("layer-%d", n)
	})
}

func newTestSnapshot(opts ...func(*Snapshot)) Snapshot {
	s := Snapshot{
		ProjectType: "attic",
		ClimateZone: "D3",
		SurfaceArea: 70,
		RoofArea:    85,
		Before: Side{
			Layers:      []Layer{Conductive("slab", 250, 0.5), AirGap("attic air", 30, 0.16)},
			Ventilation: VentilationCase1,
			Rsi:         DefaultRsi,
			Rse:         DefaultRse,
		},
		After: Side{
			Layers:      []Layer{Conductive("slab", 250, 0.5), AirGap("attic air", 30, 0.16), Conductive("blown wool", 200, 0.04)},
			Ventilation: VentilationCase1,
			Rsi:         DefaultRsi,
			Rse:         DefaultRse,
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func newTestProject(t *testing.T, opts ...func(*Snapshot)) *Project {
	t.Helper()
	p, err := New(newTestSnapshot(opts...), sequentialIDs())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return p
}

func TestNewDerivesRatio(t *testing.T) {
	p := newTestProject(t)
	s := p.Get()
	assertClose(t, "ratio before", s.Before.Ratio.Value, 70.0/85.0)
	assertClose(t, "ratio after", s.After.Ratio.Value, 70.0/85.0)
	assertEqual(t, "overridden", s.Before.Ratio.Overridden, false)
	assertEqual(t, "first id", s.Before.Layers[0].ID, "layer-1")
}

func TestNewDefaults(t *testing.T) {
	p, err := New(Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	s := p.Get()
	assertEqual(t, "ratio", s.Before.Ratio.Value, DefaultRatio)
	assertEqual(t, "ventilation", s.After.Ventilation, VentilationCase1)
	assertEqual(t, "rsi", s.Before.Rsi, DefaultRsi)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  func(*Snapshot)
		want error
	}{
		{"climate zone", func(s *Snapshot) { s.ClimateZone = "Q9" }, ErrInvalidClimateZone},
		{"area", func(s *Snapshot) { s.RoofArea = math.NaN() }, ErrInvalidArea},
		{"ventilation", func(s *Snapshot) { s.After.Ventilation = VentilationCase(9) }, ErrUnrecognizedVentilationCase},
		{"layer", func(s *Snapshot) { s.Before.Layers[0].Lambda = 2 }, ErrConductivityOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newTestSnapshot(tt.opt))
			assertError(t, err, tt.want)
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	p := newTestProject(t)
	s := p.Get()
	s.Before.Layers[0].Name = "changed"
	assertEqual(t, "name", p.Get().Before.Layers[0].Name, "slab")
}

func TestAddLayer(t *testing.T) {
	p := newTestProject(t)
	l, err := p.AddLayer(StageBefore, Conductive("wool", 100, 0.04))
	if err != nil {
		t.Fatalf("AddLayer() failed: %v", err)
	}
	assertEqual(t, "new flag", l.IsNew, true)
	assertEqual(t, "id", l.ID, "layer-6")

	s := p.Get()
	assertEqual(t, "len before", len(s.Before.Layers), 3)
	assertEqual(t, "len after", len(s.After.Layers), 3)
	assertEqual(t, "appended last", s.Before.Layers[2].Name, "wool")
}

func TestAddLayerInvalid(t *testing.T) {
	p := newTestProject(t)
	_, err := p.AddLayer(StageAfter, Conductive("wool", 0, 0.04))
	assertError(t, err, ErrInvalidThickness)
	_, err = p.AddLayer(StageUnknown, Conductive("wool", 10, 0.04))
	assertError(t, err, ErrInvalidStage)
	assertEqual(t, "len", len(p.Get().After.Layers), 3)
}

func TestUpdateLayer(t *testing.T) {
	p := newTestProject(t)
	id := p.Get().After.Layers[2].ID
	l, err := p.UpdateLayer(StageAfter, id, Conductive("blown wool", 300, 0.04))
	if err != nil {
		t.Fatalf("UpdateLayer() failed: %v", err)
	}
	assertEqual(t, "id kept", l.ID, id)
	assertClose(t, "r", p.Get().After.Layers[2].R, 7.5)

	_, err = p.UpdateLayer(StageAfter, "missing", Conductive("x", 10, 0.04))
	assertError(t, err, ErrLayerNotFound)
}

func TestDeleteLayer(t *testing.T) {
	p := newTestProject(t)
	for _, l := range p.Get().Before.Layers {
		if err := p.DeleteLayer(StageBefore, l.ID); err != nil {
			t.Fatalf("DeleteLayer() failed: %v", err)
		}
	}
	assertEqual(t, "empty", len(p.Get().Before.Layers), 0)
	assertError(t, p.DeleteLayer(StageBefore, "layer-1"), ErrLayerNotFound)

	// an empty stack still yields a result
	if _, err := p.Results(); err != nil {
		t.Fatalf("Results() with empty stack failed: %v", err)
	}
}

func TestCopyBeforeToAfter(t *testing.T) {
	p := newTestProject(t)
	if err := p.SetRatio(StageBefore, 2.2); err != nil {
		t.Fatal(err)
	}
	if err := p.SetSurfaceResistances(StageBefore, 0.13, 0.04); err != nil {
		t.Fatal(err)
	}
	if err := p.SetVentilation(StageAfter, VentilationCase2); err != nil {
		t.Fatal(err)
	}
	p.CopyBeforeToAfter()

	s := p.Get()
	assertEqual(t, "len", len(s.After.Layers), len(s.Before.Layers))
	assertEqual(t, "ratio", s.After.Ratio, s.Before.Ratio)
	assertEqual(t, "rsi", s.After.Rsi, 0.13)
	assertEqual(t, "rse", s.After.Rse, 0.04)
	assertEqual(t, "ventilation untouched", s.After.Ventilation, VentilationCase2)

	if _, err := p.UpdateLayer(StageAfter, s.After.Layers[0].ID, Conductive("slab", 300, 0.5)); err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "independent stacks", p.Get().Before.Layers[0].Thickness, 250.0)
}

func TestSetAreaRederivesRatio(t *testing.T) {
	p := newTestProject(t)
	if err := p.SetRatio(StageAfter, 3.5); err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "overridden", p.Get().After.Ratio.Overridden, true)

	if err := p.SetSurfaceArea(85); err != nil {
		t.Fatal(err)
	}
	s := p.Get()
	assertEqual(t, "before", s.Before.Ratio, Derived(1))
	assertEqual(t, "after override cleared", s.After.Ratio, Derived(1))
}

func TestSetRoofAreaZeroKeepsRatio(t *testing.T) {
	p := newTestProject(t)
	prev := p.Get().Before.Ratio

	err := p.SetRoofArea(0)
	assertError(t, err, ErrInvalidRatioInputs)

	s := p.Get()
	assertEqual(t, "roof stored", s.RoofArea, 0.0)
	assertEqual(t, "ratio kept", s.Before.Ratio, prev)
	assertError(t, p.SetRoofArea(math.Inf(1)), ErrInvalidArea)
}

func TestOtherEditsKeepRatio(t *testing.T) {
	p := newTestProject(t)
	if err := p.SetRatio(StageBefore, 0.4); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AddLayer(StageBefore, AirGap("air", 10, 0.1)); err != nil {
		t.Fatal(err)
	}
	if err := p.SetClimateZone("B3"); err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "ratio", p.Get().Before.Ratio, Override(0.4))
}

func TestSetters(t *testing.T) {
	p := newTestProject(t)
	assertError(t, p.SetRatio(StageBefore, 0), ErrInvalidRatio)
	assertError(t, p.SetVentilation(StageBefore, VentilationUnknown), ErrUnrecognizedVentilationCase)
	assertError(t, p.SetSurfaceResistances(StageAfter, -1, 0.04), ErrNegativeLayerResistance)
	assertError(t, p.SetClimateZone("F1"), ErrInvalidClimateZone)
	assertError(t, p.SetVentilation(Stage(5), VentilationCase1), ErrInvalidStage)

	p.SetProjectType("roof")
	assertEqual(t, "type", p.Get().ProjectType, "roof")
}

func TestCatalogPreset(t *testing.T) {
	c, err := NewCatalog(map[string]Preset{
		"attic": {Before: []Layer{Conductive("slab", 200, 0.5)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	pr, err := c.Preset("attic")
	if err != nil {
		t.Fatalf("Preset() failed: %v", err)
	}
	assertEqual(t, "after copied", len(pr.After), 1)

	pr.Before[0].Name = "edited"
	again, _ := c.Preset("attic")
	assertEqual(t, "catalog untouched", again.Before[0].Name, "slab")

	_, err = c.Preset("cellar")
	assertError(t, err, ErrUnknownPreset)
}

func TestConcurrentEdits(t *testing.T) {
	p := newTestProject(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = p.AddLayer(StageAfter, Conductive("wool", 10, 0.04))
		}()
		go func() {
			defer wg.Done()
			_, _ = p.Results()
		}()
	}
	wg.Wait()
	assertEqual(t, "len", len(p.Get().After.Layers), 23)
}
