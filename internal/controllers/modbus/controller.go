package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	mbserver "github.com/tbrandon/mbserver"
	"go.uber.org/zap"

	"github.com/Agrid-Dev/renotherm/internal/ports"
	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

// Config for the Modbus controller.
type Config struct {
	ProjectID string
	Addr      string
	UnitID    byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
	Logger    *zap.Logger
}

// Holding registers (read/write project inputs).
const (
	HRSurfaceArea = iota // m² x AreaScale
	HRRoofArea
	HRRatioBefore // x RatioScale
	HRRatioAfter
	HRVentilationBefore // 1 or 2
	HRVentilationAfter
	HRRsiBefore // m²K/W x ResistanceScale
	HRRseBefore
	HRRsiAfter
	HRRseAfter
	holdingCount
)

// Input registers (read-only results).
const (
	IRTotalRBefore = iota // x ResistanceScale
	IRTotalRAfter
	IRUValueBefore // x TransmittanceScale
	IRUValueAfter
	IRBBefore // x TransmittanceScale
	IRBAfter
	IRImprovement // signed, percent x ImprovementScale
	IRLayersBefore
	IRLayersAfter
	inputCount
)

// Discrete inputs.
const (
	DIMeetsRequirements = iota
	DIResultsValid
	discreteCount
)

// CoilCopyBeforeToAfter copies the before stack when written ON.
const CoilCopyBeforeToAfter = 0

const (
	AreaScale          = 10
	RatioScale         = 1000
	ResistanceScale    = 1000
	TransmittanceScale = 1000
	ImprovementScale   = 100
)

type Controller struct {
	svc ports.ProjectService
	cfg Config
	log *zap.Logger

	serv *mbserver.Server
}

func New(svc ports.ProjectService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
		log: log.With(zap.String("controller", "modbus"), zap.String("project_id", cfg.ProjectID)),
	}, nil
}

// Run starts the Modbus server and registers handlers that apply writes immediately and
// serve reads directly from the project service. It blocks until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside mbserver
	// between handler registration and the server's goroutines.
	serv.RegisterFunctionHandler(1, c.readCoils)
	serv.RegisterFunctionHandler(2, c.readDiscreteInputs)
	serv.RegisterFunctionHandler(3, c.readHoldingRegisters)
	serv.RegisterFunctionHandler(4, c.readInputRegisters)
	serv.RegisterFunctionHandler(5, c.writeSingleCoil)
	serv.RegisterFunctionHandler(6, c.writeSingleRegister)
	serv.RegisterFunctionHandler(16, c.writeMultipleRegisters)

	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}
	c.log.Info("listening", zap.String("addr", c.cfg.Addr))

	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

// ---- reads ----

func (c *Controller) readCoils(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame, 2000)
	if ex != nil {
		return []byte{}, ex
	}
	// The copy trigger always reads OFF.
	if start != CoilCopyBeforeToAfter || qty != 1 {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	return []byte{1, 0}, &mbserver.Success
}

func (c *Controller) readDiscreteInputs(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame, 2000)
	if ex != nil {
		return []byte{}, ex
	}
	if start+qty > discreteCount {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	res, err := c.svc.Results()
	bits := [discreteCount]bool{
		DIMeetsRequirements: err == nil && res.MeetsRequirements,
		DIResultsValid:      err == nil,
	}
	var b byte
	for i := 0; i < qty; i++ {
		if bits[start+i] {
			b |= 1 << i
		}
	}
	return []byte{1, b}, &mbserver.Success
}

func (c *Controller) readHoldingRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame, 125)
	if ex != nil {
		return []byte{}, ex
	}
	if start+qty > holdingCount {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	s := c.svc.Get()
	all := [holdingCount]uint16{
		HRSurfaceArea:       encodeUnsigned(s.SurfaceArea, AreaScale),
		HRRoofArea:          encodeUnsigned(s.RoofArea, AreaScale),
		HRRatioBefore:       encodeUnsigned(s.Before.Ratio.Value, RatioScale),
		HRRatioAfter:        encodeUnsigned(s.After.Ratio.Value, RatioScale),
		HRVentilationBefore: uint16(s.Before.Ventilation),
		HRVentilationAfter:  uint16(s.After.Ventilation),
		HRRsiBefore:         encodeUnsigned(s.Before.Rsi, ResistanceScale),
		HRRseBefore:         encodeUnsigned(s.Before.Rse, ResistanceScale),
		HRRsiAfter:          encodeUnsigned(s.After.Rsi, ResistanceScale),
		HRRseAfter:          encodeUnsigned(s.After.Rse, ResistanceScale),
	}
	return registersResponse(all[start : start+qty]), &mbserver.Success
}

func (c *Controller) readInputRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	start, qty, ex := readRange(frame, 125)
	if ex != nil {
		return []byte{}, ex
	}
	if start+qty > inputCount {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	res, err := c.svc.Results()
	if err != nil {
		c.log.Debug("results unavailable", zap.Error(err))
		return []byte{}, &mbserver.SlaveDeviceFailure
	}
	s := c.svc.Get()
	all := [inputCount]uint16{
		IRTotalRBefore: encodeUnsigned(res.TotalRBefore, ResistanceScale),
		IRTotalRAfter:  encodeUnsigned(res.TotalRAfter, ResistanceScale),
		IRUValueBefore: encodeUnsigned(res.UValueBefore, TransmittanceScale),
		IRUValueAfter:  encodeUnsigned(res.UValueAfter, TransmittanceScale),
		IRBBefore:      encodeUnsigned(res.BCoefficientBefore, TransmittanceScale),
		IRBAfter:       encodeUnsigned(res.BCoefficientAfter, TransmittanceScale),
		IRImprovement:  encodeSigned(res.ImprovementPercent, ImprovementScale),
		IRLayersBefore: uint16(len(s.Before.Layers)),
		IRLayersAfter:  uint16(len(s.After.Layers)),
	}
	return registersResponse(all[start : start+qty]), &mbserver.Success
}

// ---- writes ----

func (c *Controller) writeSingleCoil(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if addr != CoilCopyBeforeToAfter {
		return []byte{}, &mbserver.IllegalDataAddress
	}
	switch value {
	case 0x0000:
	case 0xFF00:
		c.svc.CopyBeforeToAfter()
	default:
		return []byte{}, &mbserver.IllegalDataValue
	}

	// echo request (address + value)
	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

func (c *Controller) writeSingleRegister(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	if ex := c.writeHolding(int(addr), value); ex != nil {
		return []byte{}, ex
	}

	resp := make([]byte, 4)
	copy(resp, data[0:4])
	return resp, &mbserver.Success
}

func (c *Controller) writeMultipleRegisters(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	d := frame.GetData()
	if len(d) < 5 {
		return []byte{}, &mbserver.IllegalDataValue
	}
	start := binary.BigEndian.Uint16(d[0:2])
	quantity := binary.BigEndian.Uint16(d[2:4])
	byteCount := int(d[4])
	if byteCount != int(quantity)*2 || len(d) < 5+byteCount {
		return []byte{}, &mbserver.IllegalDataValue
	}
	for i := 0; i < int(quantity); i++ {
		val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
		if ex := c.writeHolding(int(start)+i, val); ex != nil {
			return []byte{}, ex
		}
	}

	resp := make([]byte, 4)
	binary.BigEndian.PutUint16(resp[0:2], start)
	binary.BigEndian.PutUint16(resp[2:4], quantity)
	return resp, &mbserver.Success
}

func (c *Controller) writeHolding(addr int, val uint16) *mbserver.Exception {
	var err error
	switch addr {
	case HRSurfaceArea:
		err = c.svc.SetSurfaceArea(decodeUnsigned(val, AreaScale))
	case HRRoofArea:
		err = c.svc.SetRoofArea(decodeUnsigned(val, AreaScale))
	case HRRatioBefore:
		err = c.svc.SetRatio(thermal.StageBefore, decodeUnsigned(val, RatioScale))
	case HRRatioAfter:
		err = c.svc.SetRatio(thermal.StageAfter, decodeUnsigned(val, RatioScale))
	case HRVentilationBefore:
		err = c.svc.SetVentilation(thermal.StageBefore, thermal.VentilationCase(val))
	case HRVentilationAfter:
		err = c.svc.SetVentilation(thermal.StageAfter, thermal.VentilationCase(val))
	case HRRsiBefore, HRRseBefore:
		err = c.setSurface(thermal.StageBefore, addr == HRRsiBefore, val)
	case HRRsiAfter, HRRseAfter:
		err = c.setSurface(thermal.StageAfter, addr == HRRsiAfter, val)
	default:
		return &mbserver.IllegalDataAddress
	}
	// The area is stored even when the ratio cannot follow it.
	if err != nil && !errors.Is(err, thermal.ErrInvalidRatioInputs) {
		c.log.Warn("write rejected", zap.Int("register", addr), zap.Uint16("value", val), zap.Error(err))
		return &mbserver.IllegalDataValue
	}
	return nil
}

func (c *Controller) setSurface(stage thermal.Stage, rsi bool, val uint16) error {
	side := c.svc.Get().Side(stage)
	v := decodeUnsigned(val, ResistanceScale)
	if rsi {
		return c.svc.SetSurfaceResistances(stage, v, side.Rse)
	}
	return c.svc.SetSurfaceResistances(stage, side.Rsi, v)
}

// ---- encoding ----

func readRange(frame mbserver.Framer, maxQty int) (start, qty int, ex *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return 0, 0, &mbserver.IllegalDataValue
	}
	start = int(binary.BigEndian.Uint16(data[0:2]))
	qty = int(binary.BigEndian.Uint16(data[2:4]))
	if qty == 0 || qty > maxQty {
		return 0, 0, &mbserver.IllegalDataValue
	}
	return start, qty, nil
}

func registersResponse(regs []uint16) []byte {
	byteCount := len(regs) * 2
	resp := make([]byte, 1+byteCount)
	resp[0] = byte(byteCount)
	for i, r := range regs {
		binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
	}
	return resp
}

func encodeUnsigned(v float64, scale int) uint16 {
	r := min(max(int(math.Round(v*float64(scale))), 0), math.MaxUint16)
	return uint16(r)
}

func decodeUnsigned(u uint16, scale int) float64 {
	return float64(u) / float64(scale)
}

func encodeSigned(v float64, scale int) uint16 {
	r := min(max(int(math.Round(v*float64(scale))), math.MinInt16), math.MaxInt16)
	return uint16(int16(r))
}

func decodeSigned(u uint16, scale int) float64 {
	return float64(int16(u)) / float64(scale)
}
