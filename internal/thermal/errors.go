package thermal

import "errors"

var (
	ErrInvalidConductivity         = errors.New("invalid conductivity: lambda must be strictly positive")
	ErrConductivityOutOfRange      = errors.New("conductivity out of range: lambda must be in (0, 0.5]")
	ErrInvalidThickness            = errors.New("invalid thickness: must be strictly positive")
	ErrNegativeLayerResistance     = errors.New("layer resistance must be greater or equal to zero")
	ErrInvalidResistance           = errors.New("invalid total resistance: must be strictly positive")
	ErrUnrecognizedVentilationCase = errors.New("unrecognized ventilation case")
	ErrInvalidRatio                = errors.New("invalid area ratio: must be strictly positive")
	ErrDegenerateBeforeValue       = errors.New("degenerate before value: U before works is zero")
	ErrInvalidRatioInputs          = errors.New("invalid ratio inputs: surfaces must be strictly positive numbers")
	ErrInvalidArea                 = errors.New("invalid area: must be a finite number")
	ErrInvalidStage                = errors.New("invalid stage")
	ErrInvalidClimateZone          = errors.New("invalid climate zone")
	ErrInvalidLayerKind            = errors.New("invalid layer kind")
	ErrLayerNotFound               = errors.New("layer not found")
	ErrUnknownPreset               = errors.New("unknown preset")
)
