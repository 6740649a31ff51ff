package thermal

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Side is one state of the assembly with its own settings.
type Side struct {
	Layers      []Layer
	Ratio       Ratio
	Ventilation VentilationCase
	Rsi         float64
	Rse         float64
}

type Snapshot struct {
	ProjectType string
	ClimateZone ClimateZone
	SurfaceArea float64
	RoofArea    float64
	Before      Side
	After       Side
}

// Input maps the snapshot onto the calculation input.
func (s Snapshot) Input() Input {
	return Input{
		BeforeLayers:      s.Before.Layers,
		AfterLayers:       s.After.Layers,
		SurfaceArea:       s.SurfaceArea,
		RoofArea:          s.RoofArea,
		ProjectType:       s.ProjectType,
		VentilationBefore: s.Before.Ventilation,
		VentilationAfter:  s.After.Ventilation,
		RatioBefore:       s.Before.Ratio.Value,
		RatioAfter:        s.After.Ratio.Value,
		RsiBefore:         s.Before.Rsi,
		RseBefore:         s.Before.Rse,
		RsiAfter:          s.After.Rsi,
		RseAfter:          s.After.Rse,
		ClimateZone:       s.ClimateZone,
	}
}

// Side returns the side selected by stage.
func (s Snapshot) Side(stage Stage) Side {
	if stage == StageAfter {
		return s.After
	}
	return s.Before
}

func (s Snapshot) clone() Snapshot {
	s.Before.Layers = cloneLayers(s.Before.Layers)
	s.After.Layers = cloneLayers(s.After.Layers)
	return s
}

// Project is the editable calculation state of one renovation project.
type Project struct {
	mu    sync.RWMutex
	s     Snapshot
	newID func() string
}

type Option func(*Project)

// WithIDGenerator replaces the uuid generator used for new layers.
func WithIDGenerator(fn func() string) Option {
	return func(p *Project) {
		p.newID = fn
	}
}

// New validates and copies initial. Missing layer ids are generated, an unset
// ventilation case becomes case 1 and unset surface resistances the defaults.
func New(initial Snapshot, opts ...Option) (*Project, error) {
	p := &Project{newID: uuid.NewString}
	for _, opt := range opts {
		opt(p)
	}
	if err := validateSnapshot(initial); err != nil {
		return nil, err
	}
	s := initial.clone()
	for _, side := range []*Side{&s.Before, &s.After} {
		if side.Ventilation == VentilationUnknown {
			side.Ventilation = VentilationCase1
		}
		if side.Rsi == 0 && side.Rse == 0 {
			side.Rsi, side.Rse = DefaultRsi, DefaultRse
		}
		for i := range side.Layers {
			if side.Layers[i].ID == "" {
				side.Layers[i].ID = p.newID()
			}
			side.Layers[i] = side.Layers[i].normalize()
		}
	}
	if ratio, err := DeriveRatio(s.SurfaceArea, s.RoofArea); err == nil {
		if !s.Before.Ratio.Overridden {
			s.Before.Ratio = Derived(ratio)
		}
		if !s.After.Ratio.Overridden {
			s.After.Ratio = Derived(ratio)
		}
	}
	if s.Before.Ratio.Value == 0 {
		s.Before.Ratio = Derived(DefaultRatio)
	}
	if s.After.Ratio.Value == 0 {
		s.After.Ratio = Derived(DefaultRatio)
	}
	p.s = s
	return p, nil
}

func validateSnapshot(s Snapshot) error {
	if s.ClimateZone != "" && !s.ClimateZone.Valid() {
		return ErrInvalidClimateZone
	}
	if !finite(s.SurfaceArea) || !finite(s.RoofArea) {
		return ErrInvalidArea
	}
	for _, side := range []struct {
		stage Stage
		side  Side
	}{{StageBefore, s.Before}, {StageAfter, s.After}} {
		if side.side.Ventilation != VentilationUnknown && !side.side.Ventilation.Valid() {
			return fmt.Errorf("%s: %w", side.stage, ErrUnrecognizedVentilationCase)
		}
		if side.side.Ratio.Value < 0 || !finite(side.side.Ratio.Value) {
			return fmt.Errorf("%s: %w", side.stage, ErrInvalidRatio)
		}
		for _, l := range side.side.Layers {
			if err := l.Validate(); err != nil {
				return fmt.Errorf("%s, layer %q: %w", side.stage, l.Name, err)
			}
		}
	}
	return nil
}

func (p *Project) Get() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.s.clone()
}

// Results recomputes the metrics from the current state.
func (p *Project) Results() (Result, error) {
	return Calculate(p.Get().Input())
}

func (p *Project) side(stage Stage) (*Side, error) {
	switch stage {
	case StageBefore:
		return &p.s.Before, nil
	case StageAfter:
		return &p.s.After, nil
	default:
		return nil, ErrInvalidStage
	}
}

// AddLayer appends l to the stack of stage with a fresh id.
func (p *Project) AddLayer(stage Stage, l Layer) (Layer, error) {
	if err := l.Validate(); err != nil {
		return Layer{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	side, err := p.side(stage)
	if err != nil {
		return Layer{}, err
	}
	l = l.normalize()
	l.ID = p.newID()
	l.IsNew = true
	side.Layers = append(side.Layers, l)
	return l, nil
}

// UpdateLayer replaces the layer with the given id, keeping its id.
func (p *Project) UpdateLayer(stage Stage, id string, l Layer) (Layer, error) {
	if err := l.Validate(); err != nil {
		return Layer{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	side, err := p.side(stage)
	if err != nil {
		return Layer{}, err
	}
	for i := range side.Layers {
		if side.Layers[i].ID != id {
			continue
		}
		l = l.normalize()
		l.ID = id
		l.IsNew = side.Layers[i].IsNew
		side.Layers[i] = l
		return l, nil
	}
	return Layer{}, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
}

func (p *Project) DeleteLayer(stage Stage, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	side, err := p.side(stage)
	if err != nil {
		return err
	}
	for i := range side.Layers {
		if side.Layers[i].ID == id {
			side.Layers = append(side.Layers[:i], side.Layers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrLayerNotFound, id)
}

// CopyBeforeToAfter replaces the after stack with the before stack and
// copies the before ratio and surface resistances along with it.
func (p *Project) CopyBeforeToAfter() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.After.Layers = cloneLayers(p.s.Before.Layers)
	p.s.After.Ratio = p.s.Before.Ratio
	p.s.After.Rsi = p.s.Before.Rsi
	p.s.After.Rse = p.s.Before.Rse
}

// SetSurfaceArea stores the living surface and rederives both ratios.
// ErrInvalidRatioInputs reports that the ratios were left untouched.
func (p *Project) SetSurfaceArea(v float64) error {
	if !finite(v) {
		return ErrInvalidArea
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.SurfaceArea = v
	return p.rederiveRatio()
}

func (p *Project) SetRoofArea(v float64) error {
	if !finite(v) {
		return ErrInvalidArea
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.RoofArea = v
	return p.rederiveRatio()
}

// rederiveRatio runs on every area edit. It resets user overrides: an area
// change always wins over a previously typed ratio.
func (p *Project) rederiveRatio() error {
	ratio, err := DeriveRatio(p.s.SurfaceArea, p.s.RoofArea)
	if err != nil {
		return err
	}
	p.s.Before.Ratio = Derived(ratio)
	p.s.After.Ratio = Derived(ratio)
	return nil
}

// SetRatio overrides the ratio of one side.
func (p *Project) SetRatio(stage Stage, v float64) error {
	if !(v > 0) || !finite(v) {
		return ErrInvalidRatio
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	side, err := p.side(stage)
	if err != nil {
		return err
	}
	side.Ratio = Override(v)
	return nil
}

func (p *Project) SetVentilation(stage Stage, vc VentilationCase) error {
	if !vc.Valid() {
		return ErrUnrecognizedVentilationCase
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	side, err := p.side(stage)
	if err != nil {
		return err
	}
	side.Ventilation = vc
	return nil
}

func (p *Project) SetSurfaceResistances(stage Stage, rsi, rse float64) error {
	if !validSurface(rsi) || !validSurface(rse) {
		return ErrNegativeLayerResistance
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	side, err := p.side(stage)
	if err != nil {
		return err
	}
	side.Rsi = rsi
	side.Rse = rse
	return nil
}

func (p *Project) SetClimateZone(z ClimateZone) error {
	if !z.Valid() {
		return ErrInvalidClimateZone
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.ClimateZone = z
	return nil
}

func (p *Project) SetProjectType(t string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.ProjectType = t
}
