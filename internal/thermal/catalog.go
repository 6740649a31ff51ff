package thermal

import (
	"fmt"
	"sort"
)

// Preset is a floor-type template: the assembly before works and,
// optionally, a proposed assembly after works.
type Preset struct {
	Before []Layer
	After  []Layer
}

// Catalog holds the presets new projects start from.
type Catalog struct {
	presets map[string]Preset
}

func NewCatalog(presets map[string]Preset) (Catalog, error) {
	c := Catalog{presets: make(map[string]Preset, len(presets))}
	for key, p := range presets {
		for _, stack := range [][]Layer{p.Before, p.After} {
			for _, l := range stack {
				if err := l.Validate(); err != nil {
					return Catalog{}, fmt.Errorf("preset %q, layer %q: %w", key, l.Name, err)
				}
			}
		}
		c.presets[key] = Preset{Before: normalizeAll(p.Before), After: normalizeAll(p.After)}
	}
	return c, nil
}

func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.presets))
	for k := range c.presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c Catalog) Len() int {
	return len(c.presets)
}

// Preset returns copies of the stacks of key. An empty after stack is a
// copy of the before stack.
func (c Catalog) Preset(key string) (Preset, error) {
	p, ok := c.presets[key]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}
	out := Preset{Before: cloneLayers(p.Before), After: cloneLayers(p.After)}
	if len(out.After) == 0 {
		out.After = cloneLayers(p.Before)
	}
	return out, nil
}

func normalizeAll(in []Layer) []Layer {
	out := cloneLayers(in)
	for i := range out {
		out[i] = out[i].normalize()
	}
	return out
}
