package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Agrid-Dev/renotherm/internal/report"
	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

// ProjectConfig describes a project in the service config or in a standalone
// project file. Explicit layers take precedence over the preset named by Type.
type ProjectConfig struct {
	ID          string     `koanf:"id" yaml:"id"`
	Type        string     `koanf:"type" yaml:"type"` // preset key
	ClimateZone string     `koanf:"climate_zone" yaml:"climate_zone"`
	SurfaceArea float64    `koanf:"surface_area" yaml:"surface_area"`
	RoofArea    float64    `koanf:"roof_area" yaml:"roof_area"`
	Before      SideConfig `koanf:"before" yaml:"before"`
	After       SideConfig `koanf:"after" yaml:"after"`
}

type SideConfig struct {
	Ventilation string        `koanf:"ventilation" yaml:"ventilation"` // "caso1" | "caso2"
	Ratio       float64       `koanf:"ratio" yaml:"ratio"`             // > 0 overrides the derived ratio
	Rsi         string        `koanf:"rsi" yaml:"rsi"`
	Rse         string        `koanf:"rse" yaml:"rse"`
	Layers      []LayerConfig `koanf:"layers" yaml:"layers"`
}

type PresetConfig struct {
	Before []LayerConfig `koanf:"before" yaml:"before"`
	After  []LayerConfig `koanf:"after" yaml:"after"`
}

type LayerConfig struct {
	Name      string  `koanf:"name" yaml:"name"`
	Thickness float64 `koanf:"thickness" yaml:"thickness"` // mm
	Lambda    string  `koanf:"lambda" yaml:"lambda"`       // W/m·K, "-" for an air gap
	R         float64 `koanf:"r" yaml:"r"`                 // air gaps only
}

// LoadProjectFile reads a YAML project description.
func LoadProjectFile(path string) (ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("read project: %w", err)
	}
	var p ProjectConfig
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ProjectConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	return p, nil
}

// Catalog builds the preset catalog from the configured presets and, when
// set, the presets workbook. Workbook presets replace same-named ones.
func (c Config) Catalog() (thermal.Catalog, error) {
	presets := make(map[string]thermal.Preset, len(c.Presets))
	for key, pc := range c.Presets {
		before, err := toLayers(pc.Before)
		if err != nil {
			return thermal.Catalog{}, fmt.Errorf("preset %q: %w", key, err)
		}
		after, err := toLayers(pc.After)
		if err != nil {
			return thermal.Catalog{}, fmt.Errorf("preset %q: %w", key, err)
		}
		presets[key] = thermal.Preset{Before: before, After: after}
	}

	if c.PresetsFile != "" {
		f, err := os.Open(c.PresetsFile)
		if err != nil {
			return thermal.Catalog{}, fmt.Errorf("open presets file: %w", err)
		}
		defer f.Close()
		wb, err := report.ReadCatalog(f)
		if err != nil {
			return thermal.Catalog{}, fmt.Errorf("presets file %s: %w", c.PresetsFile, err)
		}
		for _, key := range wb.Keys() {
			p, err := wb.Preset(key)
			if err != nil {
				return thermal.Catalog{}, err
			}
			presets[key] = p
		}
	}
	return thermal.NewCatalog(presets)
}

// Snapshot builds the initial project state. Stacks without explicit layers
// are filled from the preset named by Type.
func (p ProjectConfig) Snapshot(cat thermal.Catalog) (thermal.Snapshot, error) {
	s := thermal.Snapshot{
		ProjectType: p.Type,
		SurfaceArea: p.SurfaceArea,
		RoofArea:    p.RoofArea,
	}
	if p.ClimateZone != "" {
		z, err := thermal.ParseClimateZone(p.ClimateZone)
		if err != nil {
			return thermal.Snapshot{}, err
		}
		s.ClimateZone = z
	}

	var preset thermal.Preset
	if p.Type != "" && (len(p.Before.Layers) == 0 || len(p.After.Layers) == 0) {
		var err error
		if preset, err = cat.Preset(p.Type); err != nil {
			return thermal.Snapshot{}, err
		}
	}

	var err error
	if s.Before, err = p.Before.side(preset.Before); err != nil {
		return thermal.Snapshot{}, fmt.Errorf("before: %w", err)
	}
	if s.After, err = p.After.side(preset.After); err != nil {
		return thermal.Snapshot{}, fmt.Errorf("after: %w", err)
	}
	return s, nil
}

func (sc SideConfig) side(fallback []thermal.Layer) (thermal.Side, error) {
	side := thermal.Side{Ventilation: thermal.VentilationCase1, Rsi: thermal.DefaultRsi, Rse: thermal.DefaultRse}

	if sc.Ventilation != "" {
		vc, err := thermal.ParseVentilationCase(sc.Ventilation)
		if err != nil {
			return thermal.Side{}, err
		}
		side.Ventilation = vc
	}
	if sc.Rsi != "" {
		v, err := thermal.ParseSurfaceResistance(sc.Rsi)
		if err != nil {
			return thermal.Side{}, fmt.Errorf("rsi: %w", err)
		}
		side.Rsi = v
	}
	if sc.Rse != "" {
		v, err := thermal.ParseSurfaceResistance(sc.Rse)
		if err != nil {
			return thermal.Side{}, fmt.Errorf("rse: %w", err)
		}
		side.Rse = v
	}
	if sc.Ratio > 0 {
		side.Ratio = thermal.Override(sc.Ratio)
	}

	side.Layers = fallback
	if len(sc.Layers) > 0 {
		layers, err := toLayers(sc.Layers)
		if err != nil {
			return thermal.Side{}, err
		}
		side.Layers = layers
	}
	return side, nil
}

func toLayers(in []LayerConfig) ([]thermal.Layer, error) {
	out := make([]thermal.Layer, 0, len(in))
	for _, lc := range in {
		l, err := thermal.ParseLayer(lc.Name, lc.Thickness, lc.Lambda, lc.R)
		if err != nil {
			return nil, err
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("layer %q: %w", lc.Name, err)
		}
		out = append(out, l)
	}
	return out, nil
}
