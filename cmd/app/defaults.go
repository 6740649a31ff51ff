package app

// DefaultPresetKey is the floor type new projects start from.
const DefaultPresetKey = "attic_slab"

func defaultConfig() Config {
	var cfg Config
	cfg.Project = ProjectConfig{
		ID:          "default",
		Type:        DefaultPresetKey,
		SurfaceArea: 70,
		RoofArea:    85,
		Before:      SideConfig{Ventilation: "caso1", Rsi: "0.10", Rse: "0.10"},
		After:       SideConfig{Ventilation: "caso1", Rsi: "0.10", Rse: "0.10"},
	}
	cfg.Presets = map[string]PresetConfig{
		"attic_slab": {
			Before: []LayerConfig{
				{Name: "Gypsum plaster", Thickness: 15, Lambda: "0.30"},
				{Name: "Hollow ceramic block slab", Thickness: 200, Lambda: "0.45"},
				{Name: "Lightweight concrete screed", Thickness: 50, Lambda: "0.41"},
			},
			After: []LayerConfig{
				{Name: "Gypsum plaster", Thickness: 15, Lambda: "0.30"},
				{Name: "Hollow ceramic block slab", Thickness: 200, Lambda: "0.45"},
				{Name: "Lightweight concrete screed", Thickness: 50, Lambda: "0.41"},
				{Name: "Blown mineral wool", Thickness: 160, Lambda: "0.040"},
			},
		},
		"timber_floor": {
			Before: []LayerConfig{
				{Name: "Plasterboard", Thickness: 12.5, Lambda: "0.25"},
				{Name: "Unventilated air gap", Thickness: 50, Lambda: "-", R: 0.18},
				{Name: "Timber boards", Thickness: 22, Lambda: "0.13"},
			},
			After: []LayerConfig{
				{Name: "Plasterboard", Thickness: 12.5, Lambda: "0.25"},
				{Name: "Unventilated air gap", Thickness: 50, Lambda: "-", R: 0.18},
				{Name: "Timber boards", Thickness: 22, Lambda: "0.13"},
				{Name: "Wood fibre board", Thickness: 120, Lambda: "0.038"},
			},
		},
	}
	cfg.Log = LogConfig{Level: "info", Format: "json"}
	cfg.Controllers.HTTP.Addr = ":8080"
	cfg.Controllers.MQTT.BrokerURL = "tcp://localhost:1883"
	cfg.Controllers.MODBUS.Addr = "127.0.0.1:1502"
	cfg.Controllers.MODBUS.UnitID = 1
	return cfg
}
