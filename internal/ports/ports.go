package ports

import "github.com/Agrid-Dev/renotherm/internal/thermal"

// ProjectService is the control-plane port used by controllers (HTTP/MQTT/Modbus).
type ProjectService interface {
	Get() thermal.Snapshot
	Results() (thermal.Result, error)

	AddLayer(thermal.Stage, thermal.Layer) (thermal.Layer, error)
	UpdateLayer(stage thermal.Stage, id string, l thermal.Layer) (thermal.Layer, error)
	DeleteLayer(stage thermal.Stage, id string) error
	CopyBeforeToAfter()

	SetSurfaceArea(float64) error
	SetRoofArea(float64) error
	SetRatio(thermal.Stage, float64) error
	SetVentilation(thermal.Stage, thermal.VentilationCase) error
	SetSurfaceResistances(stage thermal.Stage, rsi, rse float64) error
	SetClimateZone(thermal.ClimateZone) error
	SetProjectType(string)
}
