package testutil

import (
	"fmt"

	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

// FakeProjectService is a reusable fake implementing ports.ProjectService.
// Put ONLY what multiple test packages need here.
type FakeProjectService struct {
	S thermal.Snapshot

	ResultsErr error

	AddLayerCalled bool
	AddLayerStage  thermal.Stage
	AddLayerArg    thermal.Layer
	AddLayerErr    error

	UpdateLayerCalled bool
	UpdateLayerID     string
	UpdateLayerArg    thermal.Layer
	UpdateLayerErr    error

	DeleteLayerCalled bool
	DeleteLayerID     string
	DeleteLayerErr    error

	CopyCalled bool

	SetSurfaceAreaCalled bool
	SetSurfaceAreaArg    float64
	SetSurfaceAreaErr    error

	SetRoofAreaCalled bool
	SetRoofAreaArg    float64
	SetRoofAreaErr    error

	SetRatioCalled bool
	SetRatioStage  thermal.Stage
	SetRatioArg    float64
	SetRatioErr    error

	SetVentilationCalled bool
	SetVentilationStage  thermal.Stage
	SetVentilationArg    thermal.VentilationCase
	SetVentilationErr    error

	SetSurfaceResistancesCalled bool
	SetSurfaceResistancesStage  thermal.Stage
	SetSurfaceResistancesRsi    float64
	SetSurfaceResistancesRse    float64
	SetSurfaceResistancesErr    error

	SetClimateZoneCalled bool
	SetClimateZoneArg    thermal.ClimateZone
	SetClimateZoneErr    error

	SetProjectTypeArg string

	nextID int
}

func NewFakeProjectService() *FakeProjectService {
	return &FakeProjectService{
		S: thermal.Snapshot{
			ProjectType: "attic",
			ClimateZone: "D3",
			SurfaceArea: 70,
			RoofArea:    85,
			Before: thermal.Side{
				Layers: []thermal.Layer{
					withID(thermal.Conductive("concrete slab", 250, 0.5), "b1"),
					withID(thermal.AirGap("attic air", 30, 0.16), "b2"),
				},
				Ratio:       thermal.Derived(70.0 / 85.0),
				Ventilation: thermal.VentilationCase1,
				Rsi:         thermal.DefaultRsi,
				Rse:         thermal.DefaultRse,
			},
			After: thermal.Side{
				Layers: []thermal.Layer{
					withID(thermal.Conductive("concrete slab", 250, 0.5), "a1"),
					withID(thermal.AirGap("attic air", 30, 0.16), "a2"),
					withID(thermal.Conductive("blown mineral wool", 200, 0.04), "a3"),
				},
				Ratio:       thermal.Derived(70.0 / 85.0),
				Ventilation: thermal.VentilationCase1,
				Rsi:         thermal.DefaultRsi,
				Rse:         thermal.DefaultRse,
			},
		},
	}
}

func withID(l thermal.Layer, id string) thermal.Layer {
	l.ID = id
	return l
}

func (f *FakeProjectService) side(stage thermal.Stage) *thermal.Side {
	if stage == thermal.StageAfter {
		return &f.S.After
	}
	return &f.S.Before
}

func (f *FakeProjectService) Get() thermal.Snapshot { return f.S }

// Results runs the real pipeline on the fake snapshot.
func (f *FakeProjectService) Results() (thermal.Result, error) {
	if f.ResultsErr != nil {
		return thermal.Result{}, f.ResultsErr
	}
	return thermal.Calculate(f.S.Input())
}

func (f *FakeProjectService) AddLayer(stage thermal.Stage, l thermal.Layer) (thermal.Layer, error) {
	f.AddLayerCalled = true
	f.AddLayerStage = stage
	f.AddLayerArg = l
	if f.AddLayerErr != nil {
		return thermal.Layer{}, f.AddLayerErr
	}
	f.nextID++
	l.ID = fmt.Sprintf("new-%d", f.nextID)
	l.IsNew = true
	s := f.side(stage)
	s.Layers = append(s.Layers, l)
	return l, nil
}

func (f *FakeProjectService) UpdateLayer(stage thermal.Stage, id string, l thermal.Layer) (thermal.Layer, error) {
	f.UpdateLayerCalled = true
	f.UpdateLayerID = id
	f.UpdateLayerArg = l
	if f.UpdateLayerErr != nil {
		return thermal.Layer{}, f.UpdateLayerErr
	}
	s := f.side(stage)
	for i := range s.Layers {
		if s.Layers[i].ID == id {
			l.ID = id
			s.Layers[i] = l
			return l, nil
		}
	}
	return thermal.Layer{}, thermal.ErrLayerNotFound
}

func (f *FakeProjectService) DeleteLayer(stage thermal.Stage, id string) error {
	f.DeleteLayerCalled = true
	f.DeleteLayerID = id
	if f.DeleteLayerErr != nil {
		return f.DeleteLayerErr
	}
	s := f.side(stage)
	for i := range s.Layers {
		if s.Layers[i].ID == id {
			s.Layers = append(s.Layers[:i], s.Layers[i+1:]...)
			return nil
		}
	}
	return thermal.ErrLayerNotFound
}

func (f *FakeProjectService) CopyBeforeToAfter() {
	f.CopyCalled = true
	f.S.After.Layers = append([]thermal.Layer(nil), f.S.Before.Layers...)
	f.S.After.Ratio = f.S.Before.Ratio
	f.S.After.Rsi = f.S.Before.Rsi
	f.S.After.Rse = f.S.Before.Rse
}

func (f *FakeProjectService) SetSurfaceArea(v float64) error {
	f.SetSurfaceAreaCalled = true
	f.SetSurfaceAreaArg = v
	if f.SetSurfaceAreaErr != nil {
		return f.SetSurfaceAreaErr
	}
	f.S.SurfaceArea = v
	return nil
}

func (f *FakeProjectService) SetRoofArea(v float64) error {
	f.SetRoofAreaCalled = true
	f.SetRoofAreaArg = v
	if f.SetRoofAreaErr != nil {
		return f.SetRoofAreaErr
	}
	f.S.RoofArea = v
	return nil
}

func (f *FakeProjectService) SetRatio(stage thermal.Stage, v float64) error {
	f.SetRatioCalled = true
	f.SetRatioStage = stage
	f.SetRatioArg = v
	if f.SetRatioErr != nil {
		return f.SetRatioErr
	}
	f.side(stage).Ratio = thermal.Override(v)
	return nil
}

func (f *FakeProjectService) SetVentilation(stage thermal.Stage, vc thermal.VentilationCase) error {
	f.SetVentilationCalled = true
	f.SetVentilationStage = stage
	f.SetVentilationArg = vc
	if f.SetVentilationErr != nil {
		return f.SetVentilationErr
	}
	f.side(stage).Ventilation = vc
	return nil
}

func (f *FakeProjectService) SetSurfaceResistances(stage thermal.Stage, rsi, rse float64) error {
	f.SetSurfaceResistancesCalled = true
	f.SetSurfaceResistancesStage = stage
	f.SetSurfaceResistancesRsi = rsi
	f.SetSurfaceResistancesRse = rse
	if f.SetSurfaceResistancesErr != nil {
		return f.SetSurfaceResistancesErr
	}
	s := f.side(stage)
	s.Rsi, s.Rse = rsi, rse
	return nil
}

func (f *FakeProjectService) SetClimateZone(z thermal.ClimateZone) error {
	f.SetClimateZoneCalled = true
	f.SetClimateZoneArg = z
	if f.SetClimateZoneErr != nil {
		return f.SetClimateZoneErr
	}
	f.S.ClimateZone = z
	return nil
}

func (f *FakeProjectService) SetProjectType(t string) {
	f.SetProjectTypeArg = t
	f.S.ProjectType = t
}
